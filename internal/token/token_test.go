package token

import (
	"errors"
	"testing"
	"time"

	"helpme/internal/domain"
)

func TestGenerateAndParse(t *testing.T) {
	t.Parallel()

	user := &domain.User{
		ID:      "user-1",
		Phone:   "1234567890",
		Name:    "Asha",
		Address: "12 MG Road",
	}

	signed, err := Generate("test-secret", user, time.Hour)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	claims, err := Parse("test-secret", signed)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.UserID != "user-1" {
		t.Errorf("expected userId user-1, got %q", claims.UserID)
	}
	if claims.Phone != "1234567890" {
		t.Errorf("expected phone echo, got %q", claims.Phone)
	}
	if claims.Name != "Asha" || claims.Address != "12 MG Road" {
		t.Errorf("expected name/address echo, got %q / %q", claims.Name, claims.Address)
	}
	if claims.Subject != "user-1" {
		t.Errorf("expected subject user-1, got %q", claims.Subject)
	}
}

func TestParseRejectsWrongSecret(t *testing.T) {
	t.Parallel()

	signed, err := Generate("test-secret", &domain.User{ID: "user-1", Phone: "1234567890"}, time.Hour)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if _, err := Parse("other-secret", signed); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestParseRejectsExpiredToken(t *testing.T) {
	t.Parallel()

	signed, err := Generate("test-secret", &domain.User{ID: "user-1", Phone: "1234567890"}, -time.Minute)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if _, err := Parse("test-secret", signed); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken for expired token, got %v", err)
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	t.Parallel()

	for _, tokenString := range []string{"", "not-a-token", "a.b.c"} {
		if _, err := Parse("test-secret", tokenString); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("Parse(%q): expected ErrInvalidToken, got %v", tokenString, err)
		}
	}
}
