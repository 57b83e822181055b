package usecase

import (
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"oracle-bot-backend/pkg/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return &config.Config{
		AdminToken:        "static-token",
		AdminPasswordHash: string(hash),
		JWTSecret:         "test-secret",
		JWTAccessExpiry:   time.Hour,
	}
}

func TestLoginIssuesValidToken(t *testing.T) {
	auth := NewAuthUsecase(testConfig(t))

	token, expiresAt, err := auth.Login("hunter2")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if token == "" {
		t.Fatal("expected non-empty token")
	}
	if remaining := time.Until(expiresAt); remaining < 55*time.Minute {
		t.Errorf("token expires too soon: %v remaining", remaining)
	}
	if err := auth.ValidateToken(token); err != nil {
		t.Errorf("ValidateToken rejected a fresh token: %v", err)
	}
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	auth := NewAuthUsecase(testConfig(t))

	if _, _, err := auth.Login("wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Login(wrong) error = %v, want ErrInvalidCredentials", err)
	}
}

func TestLoginRejectedWhenNoHashConfigured(t *testing.T) {
	cfg := testConfig(t)
	cfg.AdminPasswordHash = ""
	auth := NewAuthUsecase(cfg)

	if _, _, err := auth.Login("hunter2"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Login error = %v, want ErrInvalidCredentials", err)
	}
}

func TestValidateTokenAcceptsStaticToken(t *testing.T) {
	auth := NewAuthUsecase(testConfig(t))

	if err := auth.ValidateToken("static-token"); err != nil {
		t.Errorf("ValidateToken(static) = %v, want nil", err)
	}
	if err := auth.ValidateToken("garbage"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("ValidateToken(garbage) = %v, want ErrInvalidToken", err)
	}
}

func TestValidateTokenRejectsForeignSecret(t *testing.T) {
	auth := NewAuthUsecase(testConfig(t))
	other := testConfig(t)
	other.JWTSecret = "different-secret"
	token, _, err := NewAuthUsecase(other).Login("hunter2")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	if err := auth.ValidateToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("ValidateToken(foreign) = %v, want ErrInvalidToken", err)
	}
}
