package auth

import (
	"testing"
	"time"

	"relayr/internal/platform/config"
)

func TestTokenService_RoundTrip(t *testing.T) {
	svc := NewTokenService(config.JWTConfig{Secret: "test-secret", AccessTokenTTL: time.Hour})

	token, err := svc.GenerateAccessToken("user1", "user1@example.com")
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}

	claims, err := svc.ValidateToken(token)
	if err != nil {
		t.Fatalf("Failed to validate token: %v", err)
	}
	if claims.UserID != "user1" {
		t.Errorf("Expected user1, got %s", claims.UserID)
	}
	if claims.Email != "user1@example.com" {
		t.Errorf("Email mismatch: %s", claims.Email)
	}
}

func TestTokenService_WrongSecretRejected(t *testing.T) {
	issuer := NewTokenService(config.JWTConfig{Secret: "secret-a", AccessTokenTTL: time.Hour})
	verifier := NewTokenService(config.JWTConfig{Secret: "secret-b", AccessTokenTTL: time.Hour})

	token, _ := issuer.GenerateAccessToken("user1", "user1@example.com")
	if _, err := verifier.ValidateToken(token); err == nil {
		t.Error("Expected validation to fail with the wrong secret")
	}
}

func TestTokenService_ExpiredTokenRejected(t *testing.T) {
	svc := NewTokenService(config.JWTConfig{Secret: "test-secret", AccessTokenTTL: -time.Hour})

	token, _ := svc.GenerateAccessToken("user1", "user1@example.com")
	if _, err := svc.ValidateToken(token); err == nil {
		t.Error("Expected validation to fail for an expired token")
	}
}
