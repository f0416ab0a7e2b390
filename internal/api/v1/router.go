package v1

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	adminauth "service-request-form/internal/admin/auth"
	adminhttp "service-request-form/internal/admin/http"
	adminservice "service-request-form/internal/admin/service"
	"service-request-form/internal/logging"
)

// RuntimeInfo describes the pieces of server configuration that the UI exposes.
type RuntimeInfo struct {
	Name         string   `json:"name"`
	Addr         string   `json:"addr"`
	Port         string   `json:"port"`
	ReadTimeout  string   `json:"readTimeout"`
	DataPath     string   `json:"dataPath"`
	Services     []string `json:"services"`
	MaxFileBytes int64    `json:"maxFileBytes"`
}

// Options configures the HTTP router.
type Options struct {
	Logger      logging.Logger
	RuntimeInfo RuntimeInfo
	Requests    RequestsOptions
	// UI serves the form page and its assets; nil answers with a plain notice.
	UI http.Handler
	// Metrics exposes Prometheus metrics on /metrics when set.
	Metrics    http.Handler
	AdminAuth  *adminauth.Manager
	AdminStore adminservice.RequestStore
	AdminFiles adminservice.FileRemover
}

// NewRouter constructs the HTTP router for the public API.
func NewRouter(opts Options) http.Handler {
	logger := opts.Logger
	requestOpts := opts.Requests
	if requestOpts.Logger == nil {
		requestOpts.Logger = logger
	}

	r := chi.NewRouter()

	r.Handle("/api/requests", NewRequestsHandler(requestOpts))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, map[string]string{"status": "ok"})
	})

	r.Get("/api/server/config", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, opts.RuntimeInfo)
	})

	if opts.Metrics != nil {
		r.Handle("/metrics", opts.Metrics)
	}

	r.Handle(adminLoginPath, adminhttp.NewLoginHandler(adminhttp.LoginHandlerOptions{
		Manager: opts.AdminAuth,
	}))
	r.Mount("/api/admin/requests", adminhttp.NewRequestsHandler(adminhttp.RequestsHandlerOptions{
		Manager: opts.AdminAuth,
		Store:   opts.AdminStore,
		Files:   opts.AdminFiles,
		Logger:  logger,
	}))

	if opts.UI != nil {
		r.Handle("/*", opts.UI)
	} else {
		r.HandleFunc("/*", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("UI assets not configured"))
		})
	}

	return logging.WithHTTPLogging(r, logger, logging.QuietBodies(adminLoginPath))
}

const adminLoginPath = "/api/admin/login"

func respondJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}
