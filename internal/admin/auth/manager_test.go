package auth

import (
	"testing"
	"time"
)

func TestManagerLoginAndValidate(t *testing.T) {
	mgr := NewManager(Config{Email: "admin@example.com", Password: "secret", TokenTTL: time.Minute})
	token, err := mgr.Login(" Admin@Example.com ", "secret")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if token.Value == "" {
		t.Fatalf("expected token value")
	}
	if !mgr.Validate(token.Value) {
		t.Fatalf("expected token to validate")
	}
}

func TestManagerRejectsBadCredentials(t *testing.T) {
	mgr := NewManager(Config{Email: "admin@example.com", Password: "secret"})
	if _, err := mgr.Login("admin@example.com", "wrong"); err == nil {
		t.Fatalf("expected error for wrong password")
	}
	if _, err := mgr.Login("", "secret"); err == nil {
		t.Fatalf("expected error for empty email")
	}
}

func TestManagerAcceptsBcryptHash(t *testing.T) {
	hash, err := HashPassword("s3cret")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	mgr := NewManager(Config{Email: "admin@example.com", Password: "ignored", PasswordHash: hash})
	if _, err := mgr.Login("admin@example.com", "s3cret"); err != nil {
		t.Fatalf("expected hash login to succeed, got %v", err)
	}
	if _, err := mgr.Login("admin@example.com", "ignored"); err == nil {
		t.Fatalf("expected plain password to be ignored when a hash is configured")
	}
}

func TestManagerExpiresTokens(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	mgr := NewManager(Config{
		Email:    "admin@example.com",
		Password: "secret",
		TokenTTL: time.Minute,
		Now:      func() time.Time { return now },
	})
	token, err := mgr.Login("admin@example.com", "secret")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	now = now.Add(2 * time.Minute)
	if mgr.Validate(token.Value) {
		t.Fatalf("expected token to expire")
	}
}

func TestNilManagerRejectsEverything(t *testing.T) {
	var mgr *Manager
	if _, err := mgr.Login("admin@example.com", "secret"); err != ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if mgr.Validate("token") {
		t.Fatalf("expected nil manager to reject tokens")
	}
}
