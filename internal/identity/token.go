package identity

import (
	"crypto/ed25519"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/psyto/lattice/pkg/trust"
)

// TokenIssuerName is the "iss" claim carried by every owner token.
const TokenIssuerName = "lattice"

// OwnerClaims are the JWT claims for an owner token. The subject is the hex
// form of the owner identity; no custom claims are needed because the
// identity is the whole credential.
type OwnerClaims struct {
	jwt.RegisteredClaims
}

// TokenIssuer issues owner tokens signed with EdDSA. Anyone holding an
// ed25519 key can mint tokens for the identity that key defines; the
// service never sees the private key.
type TokenIssuer struct {
	key ed25519.PrivateKey
	ttl time.Duration
}

// NewTokenIssuer creates a TokenIssuer for key. ttl defaults to 1 hour
// when zero.
func NewTokenIssuer(key ed25519.PrivateKey, ttl time.Duration) *TokenIssuer {
	if ttl == 0 {
		ttl = time.Hour
	}
	return &TokenIssuer{key: key, ttl: ttl}
}

// Issue creates a signed owner token whose subject is the key's identity.
func (t *TokenIssuer) Issue() (string, error) {
	now := time.Now().UTC()
	claims := OwnerClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    TokenIssuerName,
			Subject:   Owner(t.key).String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
			ID:        uuid.New().String(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	signed, err := token.SignedString(t.key)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// TTL returns the configured token lifetime.
func (t *TokenIssuer) TTL() time.Duration { return t.ttl }

// VerifyOwnerToken parses and validates an owner token, returning the
// authenticated identity. The verification key is recovered from the token
// itself: the subject claim names the ed25519 public key the signature must
// verify under, so a valid token proves possession of that identity's
// private key.
func VerifyOwnerToken(tokenStr string) (trust.Identity, error) {
	var owner trust.Identity
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&OwnerClaims{},
		func(tok *jwt.Token) (any, error) {
			if _, ok := tok.Method.(*jwt.SigningMethodEd25519); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", tok.Header["alg"])
			}
			claims, ok := tok.Claims.(*OwnerClaims)
			if !ok {
				return nil, fmt.Errorf("invalid token claims")
			}
			id, err := trust.ParseIdentity(claims.Subject)
			if err != nil {
				return nil, fmt.Errorf("token subject is not an identity: %w", err)
			}
			owner = id
			return ed25519.PublicKey(id[:]), nil
		},
		jwt.WithIssuer(TokenIssuerName),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return trust.Identity{}, fmt.Errorf("verify token: %w", err)
	}
	if !token.Valid {
		return trust.Identity{}, fmt.Errorf("invalid token")
	}
	return owner, nil
}
