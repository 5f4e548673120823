// Package main runs the Knowledge Pad HTTP server: the upload and search API,
// the landing page and the MCP endpoint.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/bull/knowledge-pad/internal/api"
	"github.com/bull/knowledge-pad/internal/app"
	"github.com/bull/knowledge-pad/internal/config"
	mcpserver "github.com/bull/knowledge-pad/internal/mcp"
)

func main() {
	// Load .env file if present (local development), ignore if missing (production)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Create context that cancels on SIGTERM/SIGINT
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	cfg, path, err := config.LoadDefault()
	if err != nil {
		log.Fatalf("failed to load config %s: %v", path, err)
	}
	logger := cfg.Log.NewLogger(os.Stderr)

	a, err := app.Build(ctx, cfg, logger, false)
	if err != nil {
		log.Fatalf("failed to initialize: %v", err)
	}
	defer a.Close()

	if cfg.Auth.Password == "" {
		logger.Warn("ADMIN_PASSWORD not set, API is unauthenticated")
	}

	mux := http.NewServeMux()
	api.New(a.Pipeline, api.Options{
		Username:       cfg.Auth.Username,
		Password:       cfg.Auth.Password,
		MaxUploadBytes: cfg.Upload.MaxBytes,
	}, logger).Register(mux)

	// MCP HTTP endpoint (for remote client connections)
	mcp := mcpserver.NewServer(a.Pipeline)
	mux.Handle("/mcp", api.BasicAuth(cfg.Auth.Username, cfg.Auth.Password, mcpserver.NewHTTPHandler(mcp, true)))

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, done := context.WithTimeout(context.Background(), 10*time.Second)
		defer done()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Shutdown incomplete", "error", err)
		}
	}()

	log.Printf("Starting HTTP server on %s (API at /api, MCP at /mcp, health at /health)", cfg.Server.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("HTTP server error: %v", err)
	}
}
