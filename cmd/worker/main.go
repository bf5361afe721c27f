// Command worker runs background tasks queued on Redis.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/abhay-kr-0705/GEN-X/internal/app"
	"github.com/abhay-kr-0705/GEN-X/internal/config"
	"github.com/abhay-kr-0705/GEN-X/internal/logging"
	"github.com/abhay-kr-0705/GEN-X/internal/worker"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logging.New(os.Stderr, "text", "info").Error("load config", "error", err)
		os.Exit(1)
	}
	log := logging.New(os.Stderr, cfg.LogFormat, cfg.LogLevel)

	if err := run(ctx, cfg, log); err != nil {
		log.Error("worker stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	if cfg.RedisAddr == "" {
		return errors.New("GENX_REDIS_ADDR is required; without it the API runs tasks in-process")
	}

	host, err := app.OpenImageHost(ctx, cfg)
	if err != nil {
		return err
	}

	server := asynq.NewServer(app.RedisOpt(cfg), asynq.Config{
		Concurrency: cfg.WorkerPoolSize,
		Logger:      slogAdapter{log.With("component", "asynq")},
	})
	processor := worker.NewProcessor(host, app.NewMailer(cfg, log), log)

	go func() {
		<-ctx.Done()
		server.Shutdown()
	}()

	log.Info("worker started", "redis", cfg.RedisAddr, "concurrency", cfg.WorkerPoolSize)
	return server.Run(processor.Handler())
}
