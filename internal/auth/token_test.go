package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/tbourn/go-recipe-backend/internal/config"
)

func newTestManager(ttl time.Duration) *Manager {
	return NewManager(config.AuthConfig{
		Secret:   "unit-test-secret",
		TokenTTL: ttl,
		Issuer:   "recipes-test",
	})
}

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("s3cret!")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hash == "s3cret!" {
		t.Fatalf("hash must not equal plaintext")
	}
	if !CheckPassword(hash, "s3cret!") {
		t.Fatalf("correct password rejected")
	}
	if CheckPassword(hash, "wrong") {
		t.Fatalf("wrong password accepted")
	}
}

func TestIssueAndVerify_RoundTrip(t *testing.T) {
	m := newTestManager(time.Hour)

	tok, err := m.Issue(42)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	id, err := m.Verify(tok)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if id != 42 {
		t.Fatalf("Verify returned id=%d; want 42", id)
	}
}

func TestVerify_Rejections(t *testing.T) {
	m := newTestManager(time.Hour)
	good, err := m.Issue(7)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	t.Run("garbage token", func(t *testing.T) {
		if _, err := m.Verify("not.a.token"); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("expected ErrInvalidToken, got %v", err)
		}
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := NewManager(config.AuthConfig{Secret: "different", TokenTTL: time.Hour, Issuer: "recipes-test"})
		if _, err := other.Verify(good); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("expected ErrInvalidToken, got %v", err)
		}
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other := NewManager(config.AuthConfig{Secret: "unit-test-secret", TokenTTL: time.Hour, Issuer: "someone-else"})
		if _, err := other.Verify(good); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("expected ErrInvalidToken, got %v", err)
		}
	})

	t.Run("expired", func(t *testing.T) {
		short := newTestManager(-time.Minute) // already expired at issue time
		tok, err := short.Issue(7)
		if err != nil {
			t.Fatalf("Issue: %v", err)
		}
		if _, err := short.Verify(tok); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("expected ErrInvalidToken for expired token, got %v", err)
		}
	})
}
