package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"videodigest/internal/app"
	"videodigest/internal/config"
	"videodigest/internal/logging"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		configPath = flag.String("config", "", "path to the YAML configuration file")
		daemon     = flag.Bool("daemon", false, "keep running on the configured interval instead of exiting after one run")
	)
	flag.Parse()

	cfg := config.Load(*configPath)
	logger := logging.New(cfg.Logging.Level)

	application, err := app.New(cfg, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		return 1
	}
	defer closeQuietly(application, logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if *daemon {
		if err := application.RunDaemon(ctx); err != nil {
			logger.Error("daemon stopped", "error", err)
			return 1
		}
		return 0
	}

	report := application.RunOnce(ctx)
	return report.ExitCode()
}

func closeQuietly(application *app.Application, logger *slog.Logger) {
	if err := application.Close(); err != nil {
		logger.Warn("close application", "error", err)
	}
}
