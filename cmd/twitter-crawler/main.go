package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/shelldog/twitter-crawler/internal/app"
	"github.com/shelldog/twitter-crawler/internal/config"
	"github.com/shelldog/twitter-crawler/internal/core/domain"
	"github.com/shelldog/twitter-crawler/internal/telemetry"
	"github.com/shelldog/twitter-crawler/internal/version"
)

// Process exit codes, one per failure kind, so scripted callers can
// branch on outcome.
const (
	exitOK              = 0
	exitFailure         = 1
	exitStoreUnopenable = 21
	exitSchemaFailure   = 22
	exitFeedUnavailable = 24
	exitNVDRateLimit    = 35
)

func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, domain.ErrStoreUnopenable):
		return exitStoreUnopenable
	case errors.Is(err, domain.ErrSchema):
		return exitSchemaFailure
	case errors.Is(err, domain.ErrFeedUnavailable):
		return exitFeedUnavailable
	case errors.Is(err, domain.ErrRateLimited):
		return exitNVDRateLimit
	default:
		return exitFailure
	}
}

func main() {
	os.Exit(run())
}

func run() int {
	cfg := config.Load()

	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))

	logger.Info("twitter-crawler starting", "version", version.Version)

	shutdownTracer, err := telemetry.InitTracer(version.Version)
	if err != nil {
		logger.Error("failed to init tracer", "error", err)
	} else {
		defer func() {
			if err := shutdownTracer(context.Background()); err != nil {
				logger.Error("failed to shutdown tracer", "error", err)
			}
		}()
	}

	application, err := app.New(cfg, logger)
	if err != nil {
		logger.Error("failed to initialize application", "error", err)
		return exitCode(err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := application.Run(ctx); err != nil {
		logger.Error("run failed", "error", err)
		return exitCode(err)
	}
	return exitOK
}
