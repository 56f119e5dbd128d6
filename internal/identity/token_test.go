package identity_test

import (
	"crypto/ed25519"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/psyto/lattice/internal/identity"
)

func newTestKey(t *testing.T) ed25519.PrivateKey {
	t.Helper()
	key, err := identity.GenerateKey()
	if err != nil {
		t.Fatal(err)
	}
	return key
}

func TestTokenIssuer_Issue(t *testing.T) {
	ti := identity.NewTokenIssuer(newTestKey(t), time.Hour)

	token, err := ti.Issue()
	if err != nil {
		t.Fatalf("Issue() error: %v", err)
	}

	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		t.Errorf("expected 3-part JWT, got %d parts", len(parts))
	}
}

func TestVerifyOwnerToken_valid(t *testing.T) {
	key := newTestKey(t)
	ti := identity.NewTokenIssuer(key, time.Hour)

	token, err := ti.Issue()
	if err != nil {
		t.Fatal(err)
	}

	owner, err := identity.VerifyOwnerToken(token)
	if err != nil {
		t.Fatalf("VerifyOwnerToken() error: %v", err)
	}
	if owner != identity.Owner(key) {
		t.Errorf("owner: got %s, want %s", owner, identity.Owner(key))
	}
}

func TestVerifyOwnerToken_expired(t *testing.T) {
	ti := identity.NewTokenIssuer(newTestKey(t), time.Nanosecond)

	token, err := ti.Issue()
	if err != nil {
		t.Fatal(err)
	}

	time.Sleep(2 * time.Millisecond)

	if _, err := identity.VerifyOwnerToken(token); err == nil {
		t.Error("expected error for expired token, got nil")
	}
}

func TestVerifyOwnerToken_forgedSubject(t *testing.T) {
	// An attacker with their own key mints a token whose subject claims a
	// victim identity. The signature can only verify under the subject's
	// key, so the forgery must be rejected.
	attackerKey := newTestKey(t)
	victim := identity.Owner(newTestKey(t))

	now := time.Now().UTC()
	claims := identity.OwnerClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    identity.TokenIssuerName,
			Subject:   victim.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}
	forged, err := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims).SignedString(attackerKey)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := identity.VerifyOwnerToken(forged); err == nil {
		t.Error("expected error for token signed by a different key, got nil")
	}
}

func TestVerifyOwnerToken_wrongSigningMethod(t *testing.T) {
	victim := identity.Owner(newTestKey(t))

	now := time.Now().UTC()
	claims := identity.OwnerClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    identity.TokenIssuerName,
			Subject:   victim.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}
	hmacToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(victim.String()))
	if err != nil {
		t.Fatal(err)
	}

	if _, err := identity.VerifyOwnerToken(hmacToken); err == nil {
		t.Error("expected error for non-EdDSA token, got nil")
	}
}

func TestVerifyOwnerToken_tamperedSignature(t *testing.T) {
	ti := identity.NewTokenIssuer(newTestKey(t), time.Hour)

	token, err := ti.Issue()
	if err != nil {
		t.Fatal(err)
	}

	parts := strings.Split(token, ".")
	sig := []byte(parts[2])
	mid := len(sig) / 2
	if sig[mid] == 'a' {
		sig[mid] = 'b'
	} else {
		sig[mid] = 'a'
	}
	tampered := parts[0] + "." + parts[1] + "." + string(sig)

	if _, err := identity.VerifyOwnerToken(tampered); err == nil {
		t.Error("expected error for tampered token, got nil")
	}
}

func TestVerifyOwnerToken_badSubject(t *testing.T) {
	key := newTestKey(t)

	now := time.Now().UTC()
	claims := jwt.RegisteredClaims{
		Issuer:    identity.TokenIssuerName,
		Subject:   "not-a-hex-identity",
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims).SignedString(key)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := identity.VerifyOwnerToken(token); err == nil {
		t.Error("expected error for malformed subject, got nil")
	}
}
