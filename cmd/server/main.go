package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gyaneshwarpardhi/beacon/internal/api"
	"github.com/gyaneshwarpardhi/beacon/internal/config"
	"github.com/gyaneshwarpardhi/beacon/internal/engine"
	"github.com/gyaneshwarpardhi/beacon/internal/forwarder"
	"github.com/gyaneshwarpardhi/beacon/internal/reporter"
	"github.com/gyaneshwarpardhi/beacon/internal/session"
)

func main() {
	addr := flag.String("addr", ":8080", "HTTP listen address")
	cfgPath := flag.String("config", "configs/beacon.yaml", "Path to beacon YAML config")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	// ── Load config ──────────────────────────────────────────────────────────
	loader, err := config.NewLoader(*cfgPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	cfg := loader.Config()
	if err := config.Validate(cfg); err != nil {
		slog.Error("config validation failed", "err", err)
		os.Exit(1)
	}

	// ── Reporters ────────────────────────────────────────────────────────────
	reg := reporter.DefaultRegistry()
	sink, err := reg.Build(cfg.Reporters)
	if err != nil {
		slog.Error("failed to build reporters", "err", err)
		os.Exit(1)
	}
	defer func() {
		if err := sink.Close(); err != nil {
			slog.Warn("reporter close failed", "err", err)
		}
	}()
	slog.Info("reporters ready", "count", len(cfg.Reporters))

	// ── Sessions and engine ──────────────────────────────────────────────────
	settings := forwarder.NewSettings(cfg.Tracking)
	sessions := session.NewManager(sink, settings, cfg.Sessions, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	eng := engine.New(ctx, sessions, cfg.Engine)

	// ── Hot-reload watcher ───────────────────────────────────────────────────
	// Only tracking rules are swapped live; engine and reporter changes need a restart.
	// The loader notifies only after the new tracking rules validate.
	loader.OnChange(func(newCfg *config.Config) {
		settings.Store(newCfg.Tracking)
		slog.Info("tracking rules hot-reloaded", "trackable_class", newCfg.Tracking.TrackableClass)
	})
	stopWatch, err := loader.Watch()
	if err != nil {
		slog.Warn("config watcher unavailable (hot-reload disabled)", "err", err)
	} else {
		defer stopWatch()
	}

	// ── HTTP server ──────────────────────────────────────────────────────────
	handler := api.New(eng, loader, settings)
	srv := &http.Server{
		Addr:         *addr,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", *addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	// ── Graceful shutdown ────────────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("shutting down…")

	shutCtx, shutCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutCancel()
	_ = srv.Shutdown(shutCtx)
	cancel()
	eng.Shutdown()
	sessions.Purge()
	slog.Info("goodbye")
}
