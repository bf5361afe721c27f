// Command server runs the GenX HTTP API.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/abhay-kr-0705/GEN-X/internal/api"
	"github.com/abhay-kr-0705/GEN-X/internal/app"
	"github.com/abhay-kr-0705/GEN-X/internal/config"
	"github.com/abhay-kr-0705/GEN-X/internal/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.New(os.Stderr, "text", "info").Error("load config", "error", err)
		os.Exit(1)
	}
	log := logging.New(os.Stderr, cfg.LogFormat, cfg.LogLevel)

	// Cancelled on SIGINT/SIGTERM; the API shuts down gracefully.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {

	stores, err := app.OpenStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer stores.Close()

	host, err := app.OpenImageHost(ctx, cfg)
	if err != nil {
		return err
	}

	tasks := app.OpenTasks(ctx, cfg, host, log)
	defer tasks.Close()

	checks := map[string]api.Pinger{"database": stores.DB, "storage": host}
	if tasks.Redis != nil {
		checks["redis"] = tasks.Redis
	}
	srv := api.New(cfg, app.Services(cfg, stores, host, tasks.Queue, log), checks, log)
	log.Info("starting genx api", "backends", app.Describe(cfg))
	return srv.Run(ctx)
}
