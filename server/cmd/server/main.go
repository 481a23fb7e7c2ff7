package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/flowlens/flowlens/server/internal/api"
	"github.com/flowlens/flowlens/server/internal/config"
	"github.com/flowlens/flowlens/server/internal/ingest"
	"github.com/flowlens/flowlens/server/internal/metrics"
	"github.com/flowlens/flowlens/server/internal/ws"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	slog.Info("flowlens-server starting", "config", *configPath)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	slog.Info("config loaded",
		"http_port", cfg.Server.HTTPPort,
		"public_url", cfg.Server.PublicURL,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// WebSocket hub — fans normalized events out to connected observers.
	hub := ws.New()
	go hub.Run(ctx)

	reg := metrics.New(hub.Count)

	// public_url is hot-reloadable; the discovery handler reads it per request.
	var publicURL atomic.Value
	publicURL.Store(cfg.Server.PublicURL)

	statusAPI := api.New(hub, func() string { return publicURL.Load().(string) })

	httpMux := http.NewServeMux()
	httpMux.Handle("/webhook", ingest.New(hub, reg))
	httpMux.Handle("/ws/stream", hub)
	httpMux.Handle("/metrics", reg)
	httpMux.Handle("/health", statusAPI)
	httpMux.Handle("/api/webhook-url", statusAPI)

	// Watch the config file so operators can repoint public_url without a
	// restart. Port changes still require one.
	go func() {
		if err := config.Watch(ctx, *configPath, func(updated *config.Config) {
			publicURL.Store(updated.Server.PublicURL)
			if updated.Server.HTTPPort != cfg.Server.HTTPPort {
				slog.Warn("config: http_port change requires restart",
					"running", cfg.Server.HTTPPort, "configured", updated.Server.HTTPPort)
			}
		}); err != nil {
			slog.Error("config watcher stopped", "err", err)
		}
	}()

	httpSrv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		Handler: httpMux,
	}
	go func() {
		slog.Info("HTTP server listening", "port", cfg.Server.HTTPPort)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server stopped", "err", err)
		}
	}()

	<-ctx.Done()
	slog.Info("flowlens-server shutting down")
	httpSrv.Shutdown(context.Background()) //nolint:errcheck
}
