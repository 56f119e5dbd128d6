// Package handler exposes the trust anchor service over HTTP.
package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/psyto/lattice/internal/anchor"
	"github.com/psyto/lattice/internal/identity"
	"github.com/psyto/lattice/pkg/merkle"
	"github.com/psyto/lattice/pkg/trust"
)

// AnchorHandler exposes the anchor lifecycle endpoints.
type AnchorHandler struct {
	svc    *anchor.Service
	logger *zap.Logger
}

// NewAnchorHandler creates a new AnchorHandler.
func NewAnchorHandler(svc *anchor.Service, logger *zap.Logger) *AnchorHandler {
	return &AnchorHandler{svc: svc, logger: logger}
}

// Register mounts the anchor routes on the given router group. Reads are
// public; writes require owner authentication.
func (h *AnchorHandler) Register(rg *gin.RouterGroup) {
	a := rg.Group("/anchors")
	{
		a.POST("", identity.RequireOwner(), h.Create)
		a.GET("/:owner", h.Get)
		a.PUT("/:owner/root", identity.RequireOwner(), h.UpdateRoot)
		a.POST("/:owner/verify", h.VerifyEdge)
	}
}

// UpdateRootRequest is the body of PUT /anchors/:owner/root. A zero-valued
// merkle_root is legitimate (it is the empty-set commitment), so neither
// field is individually required.
type UpdateRootRequest struct {
	MerkleRoot merkle.Hash `json:"merkle_root"`
	EdgeCount  uint16      `json:"edge_count"`
}

// VerifyEdgeRequest is the body of POST /anchors/:owner/verify.
type VerifyEdgeRequest struct {
	Edge      trust.Edge    `json:"edge"`
	Proof     []merkle.Hash `json:"proof"`
	LeafIndex uint32        `json:"leaf_index"`
}

// Create handles POST /anchors — initializes the caller's anchor with an
// empty commitment.
func (h *AnchorHandler) Create(c *gin.Context) {
	owner, ok := identity.OwnerFromCtx(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "owner authentication required"})
		return
	}

	rec, err := h.svc.Create(c.Request.Context(), owner)
	if err != nil {
		if errors.Is(err, anchor.ErrAlreadyExists) {
			c.JSON(http.StatusConflict, gin.H{"error": "trust anchor already exists"})
			return
		}
		h.logger.Error("anchor create", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create anchor"})
		return
	}

	RecordAnchorCreated()
	c.JSON(http.StatusCreated, gin.H{"anchor": rec})
}

// Get handles GET /anchors/:owner — returns the owner's anchor record.
func (h *AnchorHandler) Get(c *gin.Context) {
	owner, err := trust.ParseIdentity(c.Param("owner"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "owner must be a 64-character hex identity"})
		return
	}

	rec, err := h.svc.Get(c.Request.Context(), owner)
	if err != nil {
		if errors.Is(err, anchor.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "trust anchor not found"})
			return
		}
		h.logger.Error("anchor get", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load anchor"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"anchor": rec})
}

// UpdateRoot handles PUT /anchors/:owner/root — replaces the committed root
// and edge count. The authenticated caller must be the anchor owner.
func (h *AnchorHandler) UpdateRoot(c *gin.Context) {
	caller, ok := identity.OwnerFromCtx(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "owner authentication required"})
		return
	}
	owner, err := trust.ParseIdentity(c.Param("owner"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "owner must be a 64-character hex identity"})
		return
	}

	var req UpdateRootRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	rec, err := h.svc.UpdateRoot(c.Request.Context(), caller, owner, req.MerkleRoot, req.EdgeCount)
	if err != nil {
		switch {
		case errors.Is(err, anchor.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "trust anchor not found"})
		case errors.Is(err, anchor.ErrNotAuthorized):
			c.JSON(http.StatusForbidden, gin.H{"error": "caller is not the anchor owner"})
		case errors.Is(err, anchor.ErrEdgeCountOverflow):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "zero edge count requires the zero merkle root"})
		default:
			h.logger.Error("anchor root update", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update root"})
		}
		return
	}

	RecordRootUpdate()
	c.JSON(http.StatusOK, gin.H{"anchor": rec})
}

// VerifyEdge handles POST /anchors/:owner/verify — checks an edge and proof
// against the owner's committed root.
//
// A proof that simply fails to verify is not an HTTP error: the endpoint
// answers 200 with included=false, because "not in the committed set" is a
// legitimate query result. Malformed edges and unknown anchors are errors.
func (h *AnchorHandler) VerifyEdge(c *gin.Context) {
	owner, err := trust.ParseIdentity(c.Param("owner"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "owner must be a 64-character hex identity"})
		return
	}

	var req VerifyEdgeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	err = h.svc.VerifyEdge(c.Request.Context(), owner, req.Edge, req.Proof, req.LeafIndex)
	switch {
	case err == nil:
		RecordVerification(true)
		c.JSON(http.StatusOK, gin.H{"included": true})
	case errors.Is(err, anchor.ErrInvalidMerkleProof):
		RecordVerification(false)
		c.JSON(http.StatusOK, gin.H{"included": false, "reason": "invalid merkle proof"})
	case errors.Is(err, trust.ErrInvalidWeight), errors.Is(err, trust.ErrInvalidDimension):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, anchor.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "trust anchor not found"})
	default:
		h.logger.Error("edge verify", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to verify edge"})
	}
}
