package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/StudentTraineeCenter/Borealis-satellite-chatbot/internal/core/health"
	middleware "github.com/StudentTraineeCenter/Borealis-satellite-chatbot/internal/core/middleware"
	"github.com/StudentTraineeCenter/Borealis-satellite-chatbot/internal/core/router"
)

type Deps struct {
	Resolver     router.PassResolver
	Ready        health.Pinger
	ReadyTimeout time.Duration
	Metrics      http.Handler
	MetricsPath  string
}

// NewHandler wires the public routes.
func NewHandler(logger *slog.Logger, d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recover(logger))
	r.Use(middleware.Logging(logger))
	r.Use(middleware.CORS())

	r.Get("/healthz", health.Liveness())
	if d.Ready != nil {
		r.Get("/readyz", health.Readiness(d.Ready, d.ReadyTimeout))
	}
	if d.Metrics != nil {
		path := d.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		r.Handle(path, d.Metrics)
	}
	r.Get("/passes", router.HandlePasses(logger, d.Resolver))
	return r
}

// Run serves h on addr until ctx is done, then shuts down gracefully.
func Run(ctx context.Context, addr string, logger *slog.Logger, h http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http listen", "addr", addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return nil
	case err := <-errCh:
		return err
	}
}
