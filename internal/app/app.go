package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"service-request-form/config"
	adminauth "service-request-form/internal/admin/auth"
	apiv1 "service-request-form/internal/api/v1"
	"service-request-form/internal/httpserver"
	"service-request-form/internal/logging"
	"service-request-form/internal/markup"
	"service-request-form/internal/metrics"
	"service-request-form/internal/submissions"
	"service-request-form/internal/ui"
	"service-request-form/internal/uploads"
)

const (
	defaultConfigPath      = "config.json"
	defaultLogDir          = "data"
	defaultLogFileName     = "formserver.log"
	defaultReadTimeout     = 10 * time.Second
	defaultShutdownTimeout = 15 * time.Second
)

// Options controls how the application boots and where it loads configuration from.
type Options struct {
	ConfigPath      string
	LogDir          string
	LogFile         string
	ReadTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// Run wires dependencies together and blocks until the provided context is cancelled
// or the HTTP server exits with an error.
func Run(ctx context.Context, opts Options) error {
	if ctx == nil {
		return errors.New("context is required")
	}

	opts = opts.withDefaults()

	logFilePath := filepath.Join(opts.LogDir, opts.LogFile)
	logFile, err := configureLogging(logFilePath)
	if err != nil {
		return fmt.Errorf("configure logging: %w", err)
	}
	defer logFile.Close()

	appCfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return err
	}
	logger := logging.New()

	layout, err := inspectPage()
	if err != nil {
		return err
	}
	services := resolveServices(appCfg.Form.Services, layout)
	logger.Printf("Accepting services: %s", strings.Join(services, ", "))

	submissionStore := submissions.NewStore(appCfg.Storage.SubmissionsPath)
	uploadDir := uploads.NewDir(appCfg.Storage.UploadsDir)

	registry := prometheus.NewRegistry()
	observer, err := metrics.NewPrometheusObserver("formserver", registry)
	if err != nil {
		return err
	}

	router := apiv1.NewRouter(apiv1.Options{
		Logger: logger,
		Requests: apiv1.RequestsOptions{
			Store:           submissionStore,
			Files:           uploadDir,
			Services:        services,
			MaxFileBytes:    appCfg.Form.MaxFileBytes,
			MaxRequestBytes: appCfg.Form.MaxRequestBytes,
			Observer:        observer,
		},
		UI:         ui.Handler(),
		Metrics:    metrics.Handler(registry),
		AdminAuth:  buildAdminManager(appCfg.Admin),
		AdminStore: submissionStore,
		AdminFiles: uploadDir,
		RuntimeInfo: apiv1.RuntimeInfo{
			Name:         "service-request-form",
			Addr:         appCfg.Server.Addr,
			Port:         appCfg.Server.Port,
			ReadTimeout:  opts.ReadTimeout.String(),
			DataPath:     submissionStore.Path(),
			Services:     services,
			MaxFileBytes: appCfg.Form.MaxFileBytes,
		},
	})

	serverCfg := httpserver.Config{
		Addr:        appCfg.Server.Addr,
		Port:        appCfg.Server.Port,
		ReadTimeout: opts.ReadTimeout,
		Logger:      logger,
		Handler:     router,
	}
	srv, err := httpserver.New(serverCfg)
	if err != nil {
		return fmt.Errorf("build server: %w", err)
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(srv.ListenAndServe)
	group.Go(func() error {
		<-groupCtx.Done()
		logger.Printf("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), opts.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return group.Wait()
}

func (o Options) withDefaults() Options {
	if o.ConfigPath == "" {
		o.ConfigPath = defaultConfigPath
	}
	if o.LogDir == "" {
		o.LogDir = defaultLogDir
	}
	if o.LogFile == "" {
		o.LogFile = defaultLogFileName
	}
	if o.ReadTimeout <= 0 {
		o.ReadTimeout = defaultReadTimeout
	}
	if o.ShutdownTimeout <= 0 {
		o.ShutdownTimeout = defaultShutdownTimeout
	}
	return o
}

// inspectPage checks that the embedded page still carries every element the
// browser client binds to.
func inspectPage() (markup.Layout, error) {
	page, err := ui.Page()
	if err != nil {
		return markup.Layout{}, fmt.Errorf("read embedded page: %w", err)
	}
	layout, err := markup.Inspect(bytes.NewReader(page))
	if err != nil {
		return markup.Layout{}, fmt.Errorf("inspect embedded page: %w", err)
	}
	if err := layout.Validate(); err != nil {
		return markup.Layout{}, fmt.Errorf("embedded page: %w", err)
	}
	return layout, nil
}

// resolveServices prefers the configured list and falls back to the choices in the page.
func resolveServices(configured []string, layout markup.Layout) []string {
	if len(configured) > 0 {
		return configured
	}
	return layout.ServiceValues()
}

func buildAdminManager(cfg config.AdminConfig) *adminauth.Manager {
	if !cfg.Enabled() {
		return nil
	}
	return adminauth.NewManager(adminauth.Config{
		Email:        strings.TrimSpace(cfg.Email),
		Password:     cfg.Password,
		PasswordHash: cfg.PasswordHash,
		TokenTTL:     time.Duration(cfg.TokenTTLSeconds) * time.Second,
	})
}
