package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/use-agent/vidinfo/api"
	"github.com/use-agent/vidinfo/api/handler"
	"github.com/use-agent/vidinfo/config"
	"github.com/use-agent/vidinfo/engine"
	"github.com/use-agent/vidinfo/webhook"
)

func main() {
	// ── 1. Load configuration ───────────────────────────────────────
	cfg := config.Load()

	// ── 2. Initialise structured logging ────────────────────────────
	initLogger(cfg.Log)
	slog.Info("vidinfo starting",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"mode", cfg.Server.Mode,
		"binary", cfg.Extractor.Binary,
	)

	// ── 3. Build the extraction engine ──────────────────────────────
	opts, err := cfg.Extractor.EngineOptions()
	if err != nil {
		slog.Error("invalid extractor configuration", "error", err)
		os.Exit(1)
	}
	eng := engine.New(opts)

	labels := make([]string, 0, len(eng.Catalog()))
	for _, s := range eng.Catalog() {
		labels = append(labels, s.Label())
	}
	slog.Info("extraction engine ready",
		"strategies", labels,
		"attempt_timeout", cfg.Extractor.AttemptTimeout,
		"request_timeout", cfg.Extractor.RequestTimeout,
		"cookies_configured", cfg.Extractor.CookiesFile != "",
	)

	// The server still starts without the tool; /health reports it.
	probeCtx, cancelProbe := context.WithTimeout(context.Background(), cfg.Extractor.ProbeTimeout+time.Second)
	if probe := eng.Probe(probeCtx); probe.Available {
		slog.Info("extraction tool found", "version", probe.Version)
	} else {
		slog.Warn("extraction tool not available", "binary", cfg.Extractor.Binary)
	}
	cancelProbe()

	// ── 4. Setup router ─────────────────────────────────────────────
	startTime := time.Now()
	bg := handler.NewBackground(webhook.NewSender(cfg.Webhook.Secret))
	router := api.NewRouter(eng, bg, cfg, startTime)

	// ── 5. Start HTTP server ────────────────────────────────────────
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("HTTP server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// ── 6. Graceful shutdown ────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	// Requests still running when the drain deadline passes have their
	// contexts cancelled, which kills their subprocesses.
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("HTTP server forced shutdown", "error", err)
		srv.Close()
	} else {
		slog.Info("HTTP server drained gracefully")
	}

	// Async extractions are cancelled; each still reports extract.failed to
	// its webhook before the deadline.
	if err := bg.Shutdown(ctx); err != nil {
		slog.Error("async extractions did not finish before shutdown deadline", "error", err)
	} else {
		slog.Info("async extractions stopped")
	}

	slog.Info("vidinfo stopped")
}

// initLogger configures slog based on the LogConfig.
func initLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}
