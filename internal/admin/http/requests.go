package adminhttp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"

	adminauth "service-request-form/internal/admin/auth"
	adminservice "service-request-form/internal/admin/service"
	"service-request-form/internal/logging"
	"service-request-form/internal/submissions"
)

// RequestsHandlerOptions configures the admin requests handler.
type RequestsHandlerOptions struct {
	Authorizer authorizer
	Service    requestsService
	Manager    *adminauth.Manager
	Store      adminservice.RequestStore
	Files      adminservice.FileRemover
	Logger     logging.Logger
}

type authorizer interface {
	AuthorizeRequest(*http.Request) error
}

type requestsService interface {
	List(ctx context.Context) ([]submissions.Submission, error)
	Get(ctx context.Context, id string) (submissions.Submission, error)
	Delete(ctx context.Context, id string) (submissions.Submission, error)
	Attachment(ctx context.Context, id, field string) (submissions.Attachment, error)
}

type requestsHandler struct {
	authorizer authorizer
	service    requestsService
	logger     logging.Logger
}

// NewRequestsHandler constructs the admin requests HTTP handler. Mount it
// under a prefix; it serves "/", "/{id}" and "/{id}/files/{field}".
func NewRequestsHandler(opts RequestsHandlerOptions) http.Handler {
	auth := opts.Authorizer
	if auth == nil && opts.Manager != nil {
		auth = adminservice.AuthService{Manager: opts.Manager}
	}
	svc := opts.Service
	if svc == nil && opts.Store != nil {
		svc = adminservice.NewRequestsService(adminservice.RequestsOptions{
			Store:  opts.Store,
			Files:  opts.Files,
			Logger: opts.Logger,
		})
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	h := requestsHandler{
		authorizer: auth,
		service:    svc,
		logger:     logger,
	}

	r := chi.NewRouter()
	r.Use(h.guard)
	r.Get("/", h.list)
	r.Get("/{id}", h.get)
	r.Delete("/{id}", h.delete)
	r.Get("/{id}/files/{field}", h.download)
	return r
}

func (h requestsHandler) guard(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.authorizer == nil || h.service == nil {
			respondError(w, http.StatusServiceUnavailable, "admin requests disabled")
			return
		}
		if err := h.authorizer.AuthorizeRequest(r); err != nil {
			respondError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h requestsHandler) list(w http.ResponseWriter, r *http.Request) {
	all, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Printf("list requests: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to load requests")
		return
	}
	respondJSON(w, map[string]any{"requests": all})
}

func (h requestsHandler) get(w http.ResponseWriter, r *http.Request) {
	sub, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.handleError(w, "get request", err)
		return
	}
	respondJSON(w, map[string]any{"request": sub})
}

func (h requestsHandler) delete(w http.ResponseWriter, r *http.Request) {
	removed, err := h.service.Delete(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.handleError(w, "delete request", err)
		return
	}
	respondJSON(w, map[string]any{"status": "deleted", "request": removed})
}

func (h requestsHandler) download(w http.ResponseWriter, r *http.Request) {
	att, err := h.service.Attachment(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "field"))
	if err != nil {
		h.handleError(w, "download attachment", err)
		return
	}
	file, err := os.Open(att.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			respondError(w, http.StatusNotFound, "attachment not found")
			return
		}
		h.logger.Printf("open attachment %s: %v", att.Path, err)
		respondError(w, http.StatusInternalServerError, "failed to open attachment")
		return
	}
	defer file.Close()
	info, err := file.Stat()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to open attachment")
		return
	}
	w.Header().Set("Content-Disposition", `attachment; filename="`+filepath.Base(att.Path)+`"`)
	http.ServeContent(w, r, att.Name, info.ModTime(), file)
}

func (h requestsHandler) handleError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, adminservice.ErrMissingIdentifier):
		respondError(w, http.StatusBadRequest, "id is required")
	case errors.Is(err, submissions.ErrNotFound):
		respondError(w, http.StatusNotFound, "request not found")
	case errors.Is(err, adminservice.ErrAttachmentNotFound):
		respondError(w, http.StatusNotFound, "attachment not found")
	default:
		h.logger.Printf("%s: %v", op, err)
		respondError(w, http.StatusInternalServerError, "failed to process request")
	}
}

func respondJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_ = json.NewEncoder(w).Encode(payload)
}
