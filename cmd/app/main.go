// File: cmd/app/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"youtube-ai-summary/internal/application"
	"youtube-ai-summary/internal/config"
	"youtube-ai-summary/internal/infra/api"
	"youtube-ai-summary/internal/infra/logging"
	"youtube-ai-summary/internal/infra/metrics"
)

// version is set with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs, no redaction)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Info().Msg("[DEV MODE] Enabled")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ---- Metrics ----
	metrics.MustRegister()
	metrics.SetBuildInfo(version, cfg.Store.Backend, cfg.AI.Provider)

	// ---- Wiring ----
	app, err := application.Build(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("startup failed")
	}
	logger.Info().
		Str("version", version).
		Str("store", cfg.Store.Backend).
		Str("ai_provider", cfg.AI.Provider).
		Str("subtitle_provider", cfg.Subtitle.Provider).
		Str("locale", cfg.App.Locale).
		Str("openai_key", logging.Redact(cfg.AI.OpenAIKey, cfg.Runtime.Dev)).
		Msg("application wired")

	// ---- Temp file janitor ----
	if app.Janitor != nil {
		go func() {
			if err := app.Janitor.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error().Err(err).Msg("janitor stopped")
			}
		}()
	}

	// ---- HTTP ----
	srv := api.NewServer(app.JobUC, app.Hub, app.Messages, api.Options{
		Addr:           cfg.HTTP.Addr,
		RequestTimeout: cfg.HTTP.RequestTimeout,
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
		Limiter:        app.Limiter,
	}, logger)
	errc := make(chan error, 1)
	go func() { errc <- srv.Start() }()

	// ---- Graceful shutdown ----
	select {
	case <-ctx.Done():
		logger.Info().Msg("shutdown requested")
	case err := <-errc:
		if err != nil {
			logger.Error().Err(err).Msg("http server error")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}
	stop()
	if err := app.Close(); err != nil {
		logger.Error().Err(err).Msg("close resources")
	}
	logger.Info().Msg("bye")
}
