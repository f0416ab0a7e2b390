package service

import (
	"errors"
	"net/http"
	"strings"

	adminauth "service-request-form/internal/admin/auth"
)

// AuthService guards the admin request views with bearer tokens.
type AuthService struct {
	Manager *adminauth.Manager
}

// Enabled reports whether an admin account is configured.
func (s AuthService) Enabled() bool {
	return s.Manager != nil
}

// AuthorizeRequest validates the Authorization header on the provided request.
// It returns ErrUnauthorized when the token is missing or invalid.
func (s AuthService) AuthorizeRequest(r *http.Request) error {
	if !s.Enabled() {
		return ErrUnauthorized
	}
	token, ok := bearerToken(r.Header.Get("Authorization"))
	if !ok || !s.Manager.Validate(token) {
		return ErrUnauthorized
	}
	return nil
}

// Login exchanges the admin credentials for a token.
func (s AuthService) Login(email, password string) (adminauth.Token, error) {
	if !s.Enabled() {
		return adminauth.Token{}, ErrUnauthorized
	}
	token, err := s.Manager.Login(email, password)
	if errors.Is(err, adminauth.ErrInvalidCredentials) {
		return adminauth.Token{}, ErrInvalidCredentials
	}
	return token, err
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

var (
	// ErrUnauthorized indicates the caller lacks a valid admin token.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidCredentials signals bad login credentials.
	ErrInvalidCredentials = errors.New("invalid credentials")
)
