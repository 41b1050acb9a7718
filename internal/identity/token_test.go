package identity_test

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/playvault/playvault/internal/identity"
)

func newIssuer(ttl time.Duration) *identity.TokenIssuer {
	return identity.NewTokenIssuer([]byte("test-secret"), "http://localhost:8080", ttl)
}

func TestIssueAndVerify(t *testing.T) {
	issuer := newIssuer(time.Hour)
	uid := uuid.New()

	tok, err := issuer.Issue(uid, "alice")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if tok == "" {
		t.Fatal("expected a token")
	}

	claims, err := issuer.Verify(tok)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.UserID != uid.String() {
		t.Errorf("user id mismatch: %s", claims.UserID)
	}
	if claims.Username != "alice" {
		t.Errorf("username mismatch: %s", claims.Username)
	}
	if claims.Issuer != "http://localhost:8080" {
		t.Errorf("issuer mismatch: %s", claims.Issuer)
	}
}

func TestVerify_wrongSecret(t *testing.T) {
	tok, err := newIssuer(time.Hour).Issue(uuid.New(), "alice")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	other := identity.NewTokenIssuer([]byte("other-secret"), "http://localhost:8080", time.Hour)
	if _, err := other.Verify(tok); err == nil {
		t.Error("expected verification failure with a different secret")
	}
}

func TestVerify_wrongIssuer(t *testing.T) {
	tok, err := newIssuer(time.Hour).Issue(uuid.New(), "alice")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	other := identity.NewTokenIssuer([]byte("test-secret"), "http://other.example", time.Hour)
	if _, err := other.Verify(tok); err == nil {
		t.Error("expected verification failure with a different issuer")
	}
}

func TestVerify_expired(t *testing.T) {
	issuer := newIssuer(-time.Minute)
	tok, err := issuer.Issue(uuid.New(), "alice")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	if _, err := issuer.Verify(tok); err == nil {
		t.Error("expected verification failure for an expired token")
	}
}

func TestVerify_tampered(t *testing.T) {
	issuer := newIssuer(time.Hour)
	tok, err := issuer.Issue(uuid.New(), "alice")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	parts := strings.Split(tok, ".")
	if len(parts) != 3 {
		t.Fatalf("unexpected token shape: %d parts", len(parts))
	}
	tampered := parts[0] + "." + parts[1] + "." + "AAAA"
	if _, err := issuer.Verify(tampered); err == nil {
		t.Error("expected verification failure for a tampered signature")
	}
}

func TestDefaultTTL(t *testing.T) {
	issuer := newIssuer(0)
	if issuer.TTL() != 30*24*time.Hour {
		t.Errorf("expected 30 day default, got %s", issuer.TTL())
	}
}
