// Package app wires configuration, logging, the dataset store and the HTTP
// router into a runnable service.
package app

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"wellwq/internal/config"
	"wellwq/internal/dataprocessing"
	"wellwq/internal/infrastructure"
	custommw "wellwq/internal/middleware"
	"wellwq/internal/store"
	transporthttp "wellwq/internal/transport/http"
)

// Application holds the service dependencies.
type Application struct {
	Config     *config.Config
	Logger     *slog.Logger
	Router     *chi.Mux
	Store      *store.Store
	Normalizer *dataprocessing.Normalizer

	server *http.Server
}

// New builds a fully wired application: logger, store, normalizer, default
// dataset (when configured) and router.
func New(cfg *config.Config) (*Application, error) {
	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("initialize logger: %w", err)
	}

	app := &Application{
		Config: cfg,
		Logger: logger,
		Store:  store.New(logger),
		Normalizer: dataprocessing.NewNormalizer(logger, dataprocessing.NormalizerConfig{
			DateFormat:      cfg.Dataset.DateFormat,
			ExcludedColumns: cfg.Dataset.ExcludedColumns,
		}),
	}

	if err := app.loadDefaultDataset(context.Background()); err != nil {
		return nil, err
	}

	app.setupRouter()

	app.server = &http.Server{
		Addr:           fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:        app.Router,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}

	return app, nil
}

// loadDefaultDataset loads the configured default dataset, registering it
// under the well-known "default" handle. A schema failure in the default
// dataset is fatal: nothing downstream can run without a valid load.
func (a *Application) loadDefaultDataset(ctx context.Context) error {
	if !a.Config.HasDefaultDataset() {
		a.Logger.InfoContext(ctx, "no default dataset configured")
		return nil
	}

	path := a.Config.Dataset.DefaultPath
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read default dataset %s: %w", path, err)
	}

	ds, err := a.Normalizer.Load(ctx, path, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("load default dataset %s: %w", path, err)
	}

	a.Store.PutWithID(store.DefaultDatasetID, path, store.Fingerprint(raw), ds)
	infrastructure.DatasetsLoaded.Inc()

	a.Logger.InfoContext(ctx, "default dataset loaded",
		slog.String("path", path),
		slog.Int("records", len(ds.Records)),
		slog.Int("parameters", len(ds.Parameters)))

	return nil
}

// setupRouter configures the HTTP router with all routes
func (a *Application) setupRouter() {
	r := chi.NewRouter()

	r.Use(custommw.RequestID)
	r.Use(custommw.RealIP)
	r.Use(custommw.StructuredLogger(a.Logger))
	r.Use(custommw.Recoverer(a.Logger))
	r.Use(custommw.SecurityHeaders)

	if a.Config.Security.EnableCORS {
		r.Use(custommw.CORS(custommw.CORSConfig{
			AllowedOrigins: a.Config.Security.AllowedOrigins,
			Logger:         a.Logger,
		}))
	}

	if a.Config.Security.RateLimit.Enabled {
		r.Use(custommw.NewRateLimiter(
			a.Config.Security.RateLimit.RPS,
			a.Config.Security.RateLimit.Burst,
			a.Logger,
		).Handler)
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Use(custommw.Timeout(a.Config.Server.ReadTimeout, a.Logger))

		healthHandler := transporthttp.NewHealthHandler()
		r.Get("/health", healthHandler.Health)

		dataHandler := transporthttp.NewDataHandler(
			a.Store, a.Normalizer, a.Config.Server.MaxUploadBytes, a.Logger)
		r.Mount("/datasets", dataHandler.Routes())
	})

	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	a.Router = r
}

// Run starts the HTTP server and blocks until ctx is cancelled, then shuts
// down gracefully.
func (a *Application) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.Logger.Info("server starting", slog.Int("port", a.Config.Server.Port))
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Config.Server.ShutdownTimeout)
	defer cancel()

	a.Logger.Info("server shutting down")
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	return infrastructure.CloseLogFile()
}
