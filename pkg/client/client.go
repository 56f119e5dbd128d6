package client

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/psyto/lattice/pkg/merkle"
	"github.com/psyto/lattice/pkg/trust"
)

// Sentinel errors returned by the anchor operations. Wrap details are
// attached with %w, so match with errors.Is.
var (
	// ErrAnchorNotFound is returned when no anchor exists for the owner.
	ErrAnchorNotFound = errors.New("trust anchor not found")

	// ErrAnchorExists is returned by CreateAnchor when the owner already
	// has an anchor.
	ErrAnchorExists = errors.New("trust anchor already exists")

	// ErrNotOwner is returned when the authenticated identity does not own
	// the anchor it tried to modify.
	ErrNotOwner = errors.New("caller is not the anchor owner")

	// ErrNotIncluded is returned by VerifyEdge when the proof does not
	// place the edge under the anchor's committed root.
	ErrNotIncluded = errors.New("edge not included in anchor commitment")

	// ErrNoOwnerKey is returned by write operations when the client was
	// built without WithOwnerKey or WithOwnerKeyFile.
	ErrNoOwnerKey = errors.New("no owner key configured")
)

// Anchor is the client-side view of a trust anchor record.
type Anchor struct {
	Owner       trust.Identity `json:"owner"`
	MerkleRoot  merkle.Hash    `json:"merkle_root"`
	EdgeCount   uint16         `json:"edge_count"`
	LastUpdated int64          `json:"last_updated"`
	CreatedAt   int64          `json:"created_at"`
	Bump        uint8          `json:"bump"`
}

// Client is the lattice SDK entry point.
type Client struct {
	baseURL    string
	httpClient *http.Client

	ownerKey ed25519.PrivateKey
	owner    trust.Identity
	tokenTTL time.Duration

	// token state, guarded by mu
	mu          sync.Mutex
	bearerToken string
	tokenExpiry time.Time // zero = token was set manually (no auto-refresh)
}

// Option is a functional option for configuring a Client.
type Option func(*Client) error

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) error {
		c.httpClient = hc
		return nil
	}
}

// WithTimeout sets the request timeout on the underlying http.Client.
// The default is 10 seconds.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) error {
		c.httpClient.Timeout = d
		return nil
	}
}

// WithBearerToken attaches a pre-obtained owner token to every request.
// The token is treated as long-lived and will not be auto-refreshed.
func WithBearerToken(token string) Option {
	return func(c *Client) error {
		c.bearerToken = token
		c.tokenExpiry = time.Time{} // zero = manual, never auto-refresh
		return nil
	}
}

// WithOwnerKey configures the ed25519 key the client signs owner tokens
// with. The key's public half is the caller's identity; write operations
// mint short-lived tokens from it and refresh them automatically.
func WithOwnerKey(key ed25519.PrivateKey) Option {
	return func(c *Client) error {
		if len(key) != ed25519.PrivateKeySize {
			return fmt.Errorf("owner key must be %d bytes, got %d", ed25519.PrivateKeySize, len(key))
		}
		c.ownerKey = key
		c.owner = OwnerIdentity(key)
		return nil
	}
}

// WithTokenTTL sets the lifetime of self-minted owner tokens.
// The default is one hour.
func WithTokenTTL(ttl time.Duration) Option {
	return func(c *Client) error {
		if ttl <= 0 {
			return fmt.Errorf("token TTL must be positive, got %v", ttl)
		}
		c.tokenTTL = ttl
		return nil
	}
}

// New creates a lattice SDK Client connected to baseURL.
//
//	c, err := client.New("https://lattice.example.com",
//	    client.WithOwnerKey(key),
//	)
func New(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("base URL must not be empty")
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		tokenTTL:   time.Hour,
	}
	for _, o := range opts {
		if err := o(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// MustNew is like New but panics on error. Useful in tests and program init.
func MustNew(baseURL string, opts ...Option) *Client {
	c, err := New(baseURL, opts...)
	if err != nil {
		panic(err)
	}
	return c
}

// Owner returns the identity derived from the configured owner key.
// ok is false when the client was built without a key.
func (c *Client) Owner() (owner trust.Identity, ok bool) {
	return c.owner, c.ownerKey != nil
}

// CreateAnchor initializes an anchor for the configured owner identity.
// Requires WithOwnerKey or WithOwnerKeyFile.
func (c *Client) CreateAnchor(ctx context.Context) (*Anchor, error) {
	if _, err := c.ensureToken(); err != nil {
		return nil, err
	}

	url := c.baseURL + "/api/v1/anchors"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	status, body, err := c.doStatusBody(req)
	if err != nil {
		return nil, err
	}

	switch status {
	case http.StatusCreated:
		return decodeAnchor(body)
	case http.StatusConflict:
		return nil, ErrAnchorExists
	case http.StatusUnauthorized:
		return nil, fmt.Errorf("unauthorized: %s", apiError(body))
	default:
		return nil, fmt.Errorf("server error %d: %s", status, apiError(body))
	}
}

// GetAnchor fetches the anchor record for owner. No authentication required.
func (c *Client) GetAnchor(ctx context.Context, owner trust.Identity) (*Anchor, error) {
	url := c.baseURL + "/api/v1/anchors/" + owner.String()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	status, body, err := c.doStatusBody(req)
	if err != nil {
		return nil, err
	}

	switch status {
	case http.StatusOK:
		return decodeAnchor(body)
	case http.StatusNotFound:
		return nil, ErrAnchorNotFound
	default:
		return nil, fmt.Errorf("server error %d: %s", status, apiError(body))
	}
}

// UpdateRoot commits a new merkle root and edge count to owner's anchor.
// The server rejects the update unless the authenticated identity is the
// anchor owner.
func (c *Client) UpdateRoot(ctx context.Context, owner trust.Identity, root merkle.Hash, edgeCount uint16) (*Anchor, error) {
	if _, err := c.ensureToken(); err != nil {
		return nil, err
	}

	payload, err := json.Marshal(struct {
		MerkleRoot merkle.Hash `json:"merkle_root"`
		EdgeCount  uint16      `json:"edge_count"`
	}{MerkleRoot: root, EdgeCount: edgeCount})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := c.baseURL + "/api/v1/anchors/" + owner.String() + "/root"
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	status, body, err := c.doStatusBody(req)
	if err != nil {
		return nil, err
	}

	switch status {
	case http.StatusOK:
		return decodeAnchor(body)
	case http.StatusNotFound:
		return nil, ErrAnchorNotFound
	case http.StatusForbidden:
		return nil, ErrNotOwner
	case http.StatusUnauthorized:
		return nil, fmt.Errorf("unauthorized: %s", apiError(body))
	case http.StatusUnprocessableEntity:
		return nil, fmt.Errorf("invalid update: %s", apiError(body))
	default:
		return nil, fmt.Errorf("server error %d: %s", status, apiError(body))
	}
}

// PublishEdges builds the merkle tree over edges locally and commits its
// root to owner's anchor in one call. The returned tree generates inclusion
// proofs for the committed edge set:
//
//	tree, anchor, err := c.PublishEdges(ctx, owner, edges)
//	proof, _ := tree.Proof(2)
//
// Passing an empty edge set clears the anchor back to the zero root.
func (c *Client) PublishEdges(ctx context.Context, owner trust.Identity, edges []trust.Edge) (*merkle.Tree, *Anchor, error) {
	if len(edges) > math.MaxUint16 {
		return nil, nil, fmt.Errorf("too many edges: %d (max %d)", len(edges), math.MaxUint16)
	}
	for i, e := range edges {
		if err := e.Validate(); err != nil {
			return nil, nil, fmt.Errorf("edge %d: %w", i, err)
		}
	}

	tree := trust.BuildTree(edges)
	anchor, err := c.UpdateRoot(ctx, owner, tree.Root(), uint16(len(edges)))
	if err != nil {
		return nil, nil, err
	}
	return tree, anchor, nil
}

// VerifyEdge asks the service to replay an inclusion proof for edge against
// owner's committed root. A nil error means the edge is included; a proof
// that does not verify returns ErrNotIncluded.
func (c *Client) VerifyEdge(ctx context.Context, owner trust.Identity, edge trust.Edge, proof []merkle.Hash, leafIndex uint32) error {
	payload, err := json.Marshal(struct {
		Edge      trust.Edge    `json:"edge"`
		Proof     []merkle.Hash `json:"proof"`
		LeafIndex uint32        `json:"leaf_index"`
	}{Edge: edge, Proof: proof, LeafIndex: leafIndex})
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	url := c.baseURL + "/api/v1/anchors/" + owner.String() + "/verify"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	status, body, err := c.doStatusBody(req)
	if err != nil {
		return err
	}

	switch status {
	case http.StatusOK:
		var result struct {
			Included bool   `json:"included"`
			Reason   string `json:"reason"`
		}
		if err := json.Unmarshal(body, &result); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		if !result.Included {
			if result.Reason != "" {
				return fmt.Errorf("%w: %s", ErrNotIncluded, result.Reason)
			}
			return ErrNotIncluded
		}
		return nil
	case http.StatusNotFound:
		return ErrAnchorNotFound
	case http.StatusUnprocessableEntity:
		return fmt.Errorf("invalid edge: %s", apiError(body))
	default:
		return fmt.Errorf("server error %d: %s", status, apiError(body))
	}
}

// ensureToken returns a valid bearer token, minting a fresh one from the
// owner key if the cached token is absent or approaching expiry.
// Thread-safe.
func (c *Client) ensureToken() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// tokenExpiry.IsZero() means the token was set manually via
	// WithBearerToken and should never be auto-refreshed.
	if c.bearerToken != "" && (c.tokenExpiry.IsZero() || time.Now().Before(c.tokenExpiry)) {
		return c.bearerToken, nil
	}
	if c.ownerKey == nil {
		return "", ErrNoOwnerKey
	}

	token, expiry, err := c.mintToken()
	if err != nil {
		return "", err
	}
	c.bearerToken = token
	c.tokenExpiry = expiry
	return token, nil
}

// mintToken signs a fresh owner token with the configured key. The returned
// expiry is pulled forward 60 s so a token is never presented moments before
// it lapses.
func (c *Client) mintToken() (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(c.tokenTTL)

	claims := jwt.RegisteredClaims{
		Issuer:    "lattice",
		Subject:   c.owner.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
		ID:        uuid.New().String(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims).SignedString(c.ownerKey)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign owner token: %w", err)
	}

	const refreshBuffer = 60 * time.Second
	refreshAt := expiresAt.Add(-refreshBuffer)
	if !refreshAt.After(now) {
		refreshAt = expiresAt
	}
	return token, refreshAt, nil
}

// bearer returns the cached token to attach, if any.
func (c *Client) bearer() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bearerToken
}

// doStatusBody executes an HTTP request, attaching the Bearer token if
// present, and returns (statusCode, body, error) without failing on 4xx
// responses. The caller interprets the status code.
func (c *Client) doStatusBody(req *http.Request) (int, []byte, error) {
	if token := c.bearer(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read response: %w", err)
	}
	return resp.StatusCode, body, nil
}

// decodeAnchor unwraps the {"anchor": {...}} envelope the service returns.
func decodeAnchor(body []byte) (*Anchor, error) {
	var payload struct {
		Anchor Anchor `json:"anchor"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &payload.Anchor, nil
}

// apiError extracts the {"error": "..."} message from an error response,
// falling back to the raw body.
func apiError(body []byte) string {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error != "" {
		return payload.Error
	}
	return string(body)
}
