package auth

import (
	"testing"
	"time"

	"github.com/GarageDrive/GarageDrive/internal/common/config"
)

func TestGenerateAndParseAccessToken(t *testing.T) {
	cfg := config.AuthConfig{
		Enabled:   true,
		JWTSecret: "test-secret",
		Issuer:    "garagedrive",
		Audience:  "garagedrive",
	}

	token, exp, err := GenerateAccessToken(cfg, "user-1", "demo@example.com", time.Hour)
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}
	if token == "" {
		t.Fatalf("expected token")
	}
	if exp.Before(time.Now()) {
		t.Fatalf("expected exp in future")
	}

	claims, err := ParseAccessToken(cfg, token)
	if err != nil {
		t.Fatalf("ParseAccessToken: %v", err)
	}
	if claims.Subject != "user-1" {
		t.Fatalf("subject mismatch: %s", claims.Subject)
	}
	if claims.Email != "demo@example.com" {
		t.Fatalf("email mismatch: %s", claims.Email)
	}
}

func TestParseAccessTokenRejectsWrongSecret(t *testing.T) {
	cfg := config.AuthConfig{JWTSecret: "secret-a", Issuer: "garagedrive"}
	token, _, err := GenerateAccessToken(cfg, "user-1", "", time.Hour)
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}

	other := config.AuthConfig{JWTSecret: "secret-b", Issuer: "garagedrive"}
	if _, err := ParseAccessToken(other, token); err == nil {
		t.Fatalf("expected parse failure with wrong secret")
	}

	wrongIssuer := config.AuthConfig{JWTSecret: "secret-a", Issuer: "someone-else"}
	if _, err := ParseAccessToken(wrongIssuer, token); err == nil {
		t.Fatalf("expected parse failure with wrong issuer")
	}
}
