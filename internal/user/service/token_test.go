package service

import (
	"testing"
	"time"

	"flagforge/internal/user/repository"
	apperr "flagforge/pkg/errors"
)

func testUser() *repository.User {
	return &repository.User{
		ID:       7,
		Username: "alice",
		Role:     repository.UserRoleAdmin,
	}
}

func TestTokenRoundTrip(t *testing.T) {
	manager, err := NewTokenManager(TokenConfig{Secret: "test-secret", Issuer: "ctf", TTL: time.Hour})
	if err != nil {
		t.Fatalf("NewTokenManager: %v", err)
	}

	token, err := manager.Issue(testUser())
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	claims, err := manager.Parse(token)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if claims.UserID != 7 || claims.Username != "alice" || claims.Role != string(repository.UserRoleAdmin) {
		t.Fatalf("claims = %+v", claims)
	}
	if claims.Issuer != "ctf" {
		t.Fatalf("issuer = %q", claims.Issuer)
	}
}

func TestTokenExpiry(t *testing.T) {
	manager, err := NewTokenManager(TokenConfig{Secret: "test-secret", TTL: time.Minute})
	if err != nil {
		t.Fatalf("NewTokenManager: %v", err)
	}
	issued := time.Now()
	manager.now = func() time.Time { return issued }

	token, err := manager.Issue(testUser())
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	manager.now = func() time.Time { return issued.Add(2 * time.Minute) }
	if _, err := manager.Parse(token); apperr.GetCode(err) != apperr.TokenExpired {
		t.Fatalf("error = %v, want TokenExpired", err)
	}
}

func TestTokenWrongSecret(t *testing.T) {
	issuer, _ := NewTokenManager(TokenConfig{Secret: "secret-a", TTL: time.Hour})
	verifier, _ := NewTokenManager(TokenConfig{Secret: "secret-b", TTL: time.Hour})

	token, err := issuer.Issue(testUser())
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := verifier.Parse(token); apperr.GetCode(err) != apperr.TokenInvalid {
		t.Fatalf("error = %v, want TokenInvalid", err)
	}
}

func TestTokenGarbage(t *testing.T) {
	manager, _ := NewTokenManager(TokenConfig{Secret: "test-secret", TTL: time.Hour})
	if _, err := manager.Parse("not.a.token"); apperr.GetCode(err) != apperr.TokenInvalid {
		t.Fatalf("error = %v, want TokenInvalid", err)
	}
}
