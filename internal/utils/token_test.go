package utils

import (
	"errors"
	"testing"
	"time"
)

func TestSessionTokenRoundTrip(t *testing.T) {
	tok, err := NewSessionToken("secret", 42, 24)
	if err != nil {
		t.Fatalf("NewSessionToken: %v", err)
	}
	if tok.Token == "" {
		t.Fatal("empty token")
	}
	if until := time.Until(tok.Exp); until < 23*time.Hour || until > 25*time.Hour {
		t.Fatalf("expiry %v from now, want about 24h", until)
	}

	hash, err := VerifySessionToken("secret", tok.Token)
	if err != nil {
		t.Fatalf("VerifySessionToken: %v", err)
	}
	if hash != HashToken(tok.Token) {
		t.Fatalf("hash = %q, want %q", hash, HashToken(tok.Token))
	}
}

// Two tokens minted in the same second must still differ: the stored
// hash carries a unique key, so an identical token would make the second
// login's insert collide with the row it just revoked.
func TestNewSessionTokenUnique(t *testing.T) {
	a, err := NewSessionToken("secret", 42, 24)
	if err != nil {
		t.Fatalf("NewSessionToken: %v", err)
	}
	b, err := NewSessionToken("secret", 42, 24)
	if err != nil {
		t.Fatalf("NewSessionToken: %v", err)
	}
	if a.Token == b.Token {
		t.Fatal("back-to-back tokens are identical")
	}
	if HashToken(a.Token) == HashToken(b.Token) {
		t.Fatal("back-to-back tokens share a hash")
	}
}

func TestVerifySessionTokenRejectsBadInput(t *testing.T) {
	tok, err := NewSessionToken("secret", 42, 24)
	if err != nil {
		t.Fatalf("NewSessionToken: %v", err)
	}

	if _, err := VerifySessionToken("other-secret", tok.Token); !errors.Is(err, ErrBadToken) {
		t.Fatalf("wrong secret err = %v, want ErrBadToken", err)
	}
	if _, err := VerifySessionToken("secret", tok.Token+"x"); !errors.Is(err, ErrBadToken) {
		t.Fatalf("tampered token err = %v, want ErrBadToken", err)
	}
	if _, err := VerifySessionToken("secret", "not-a-token"); !errors.Is(err, ErrBadToken) {
		t.Fatalf("garbage err = %v, want ErrBadToken", err)
	}
}

func TestVerifySessionTokenRejectsExpired(t *testing.T) {
	tok, err := NewSessionToken("secret", 42, -1)
	if err != nil {
		t.Fatalf("NewSessionToken: %v", err)
	}
	if _, err := VerifySessionToken("secret", tok.Token); !errors.Is(err, ErrBadToken) {
		t.Fatalf("expired token err = %v, want ErrBadToken", err)
	}
}

func TestHashTokenIsStable(t *testing.T) {
	a := HashToken("value")
	b := HashToken("value")
	if a != b {
		t.Fatalf("HashToken not deterministic: %q vs %q", a, b)
	}
	if len(a) != 64 {
		t.Fatalf("digest length = %d, want 64 hex chars", len(a))
	}
	if HashToken("other") == a {
		t.Fatal("distinct values share a digest")
	}
}
