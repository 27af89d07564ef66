package utils

import (
	"errors"
	"testing"
	"time"
)

func TestSessionToken_RoundTrip(t *testing.T) {
	tok, err := GenerateSessionToken("secret", "sess-1", time.Hour)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	claims, err := ValidateSessionToken("secret", tok)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if claims.SessionID != "sess-1" {
		t.Fatalf("session id %q", claims.SessionID)
	}
}

func TestSessionToken_WrongSecret(t *testing.T) {
	tok, _ := GenerateSessionToken("secret", "sess-1", time.Hour)
	if _, err := ValidateSessionToken("other", tok); !errors.Is(err, ErrInvalidSession) {
		t.Fatalf("expected ErrInvalidSession, got %v", err)
	}
}

func TestSessionToken_Expired(t *testing.T) {
	tok, _ := GenerateSessionToken("secret", "sess-1", -time.Minute)
	if _, err := ValidateSessionToken("secret", tok); !errors.Is(err, ErrInvalidSession) {
		t.Fatalf("expected ErrInvalidSession, got %v", err)
	}
}
