package adminhttp

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	adminauth "service-request-form/internal/admin/auth"
	adminservice "service-request-form/internal/admin/service"
)

const maxLoginBody = 4 * 1024

// LoginHandlerOptions configures the admin login handler.
type LoginHandlerOptions struct {
	Service loginService
	Manager *adminauth.Manager
}

type loginService interface {
	Login(email, password string) (adminauth.Token, error)
}

// LoginHandler exposes the admin login endpoint.
type LoginHandler struct {
	service loginService
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expiresAt"`
}

// NewLoginHandler constructs the admin login handler.
func NewLoginHandler(opts LoginHandlerOptions) http.Handler {
	svc := opts.Service
	if svc == nil && opts.Manager != nil {
		svc = adminservice.AuthService{Manager: opts.Manager}
	}
	return LoginHandler{service: svc}
}

func (h LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if h.service == nil {
		respondError(w, http.StatusServiceUnavailable, "admin auth disabled")
		return
	}

	var req loginRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxLoginBody)).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	token, err := h.service.Login(req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, adminservice.ErrInvalidCredentials):
			respondError(w, http.StatusUnauthorized, "invalid credentials")
		case errors.Is(err, adminservice.ErrUnauthorized):
			respondError(w, http.StatusServiceUnavailable, "admin auth disabled")
		default:
			respondError(w, http.StatusInternalServerError, "failed to authenticate")
		}
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	respondJSON(w, loginResponse{Token: token.Value, ExpiresAt: token.ExpiresAt.Format(time.RFC3339)})
}

func respondError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
