package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/llamagate/llamagate/internal/config"
	"github.com/llamagate/llamagate/internal/gateway"
)

func main() {
	cfg := config.Load()

	slog.Info("starting llamagate",
		"listen", cfg.ListenAddr,
		"upstream", cfg.UpstreamURL,
		"timeout", cfg.RequestTimeout.String(),
		"auth_configured", cfg.APIKey != "",
	)
	if cfg.APIKey == "" {
		slog.Warn("API_KEYS is not set; every request will be rejected")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := gateway.New(cfg)
	srvErr := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			srvErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutting down...")
		shutCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	case err := <-srvErr:
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped")
}
