package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/tendant/fragments/internal/api"
	"github.com/tendant/fragments/pkg/fragments/config"
)

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	svc, err := cfg.BuildService()
	if err != nil {
		slog.Error("failed to build service", "error", err)
		os.Exit(1)
	}

	router, err := buildRouter(cfg, api.NewHandler(svc))
	if err != nil {
		slog.Error("failed to build router", "error", err)
		os.Exit(1)
	}

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Port),
		Handler: router,
	}

	go func() {
		slog.Info("fragments server starting",
			"port", cfg.Port,
			"environment", cfg.Environment,
			"storage_backend", cfg.Storage.Backend)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}
	slog.Info("server exiting")
}

func buildRouter(cfg *config.ServerConfig, handler *api.Handler) (http.Handler, error) {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"status":"ok","environment":%q,"storage_backend":%q}`,
			cfg.Environment, cfg.Storage.Backend)
	})

	auth, err := authMiddleware(cfg)
	if err != nil {
		return nil, err
	}

	r.Route("/v1", func(r chi.Router) {
		r.Use(auth...)
		r.Mount("/", handler.Routes())
	})

	return r, nil
}

// authMiddleware selects the configured auth scheme. The config layer has
// already rejected enabling both at once.
func authMiddleware(cfg *config.ServerConfig) ([]func(http.Handler) http.Handler, error) {
	switch {
	case cfg.Auth.HtpasswdFile != "":
		slog.Info("using HTTP Basic auth", "htpasswd_file", cfg.Auth.HtpasswdFile)
		basic, err := api.BasicAuth(cfg.Auth.HtpasswdFile)
		if err != nil {
			return nil, err
		}
		return []func(http.Handler) http.Handler{basic}, nil
	case cfg.Auth.JWTSecret != "":
		slog.Info("using bearer JWT auth")
		return api.JWTAuth(cfg.Auth.JWTSecret), nil
	}
	return nil, fmt.Errorf("no auth scheme configured: set HTPASSWD_FILE or JWT_SECRET")
}
