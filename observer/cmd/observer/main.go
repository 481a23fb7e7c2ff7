package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/flowlens/flowlens/observer/internal/config"
	"github.com/flowlens/flowlens/observer/internal/dashboard"
	"github.com/flowlens/flowlens/observer/internal/stream"
	"github.com/flowlens/flowlens/pkg/types"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	slog.Info("flowlens-observer starting", "config", *configPath)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	slog.Info("config loaded",
		"stream_url", cfg.Observer.StreamURL,
		"retry_interval", cfg.Observer.RetryInterval,
		"live", cfg.Observer.LiveEnabled(),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	reducer := dashboard.New()
	reducer.SetLive(cfg.Observer.LiveEnabled())

	go dashboard.NewSimulator(reducer).Run(ctx)

	mgr := stream.New(cfg.Observer.StreamURL, cfg.Observer.RetryInterval,
		func(ev types.LogEvent) {
			reducer.Apply(ev)
			slog.Info("event received",
				"id", ev.ID,
				"type", ev.Kind,
				"severity", ev.Severity,
				"source", ev.Source,
			)
		},
		func(connected bool) {
			reducer.SetConnected(connected)
			if connected {
				slog.Info("stream connected", "url", cfg.Observer.StreamURL)
			} else {
				slog.Warn("stream disconnected", "retry_in", cfg.Observer.RetryInterval)
			}
		},
	)
	go mgr.Run(ctx)

	// Watch the config file so operators can flip the live flag at runtime.
	go func() {
		if err := config.Watch(ctx, *configPath, func(updated *config.Config) {
			reducer.SetLive(updated.Observer.LiveEnabled())
			slog.Info("live mode updated", "live", updated.Observer.LiveEnabled())
		}); err != nil {
			slog.Error("config watcher stopped", "err", err)
		}
	}()

	// Periodic dashboard summary so the state is visible in the logs.
	go func() {
		ticker := time.NewTicker(cfg.Observer.SummaryInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				events, errors := reducer.Totals()
				state := reducer.Snapshot()
				slog.Info("dashboard summary",
					"events_total", events,
					"errors_total", errors,
					"recent_logs", len(state.RecentLogs),
					"connected", state.Connected,
					"live", state.Live,
				)
			}
		}
	}()

	<-ctx.Done()
	slog.Info("flowlens-observer shutting down")
}
