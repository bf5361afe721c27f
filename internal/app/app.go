// Package app wires configuration into stores, the image host, the task
// queue and the services. The server binary and the CLI share it.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
	"golang.org/x/time/rate"

	"github.com/abhay-kr-0705/GEN-X/internal/api"
	"github.com/abhay-kr-0705/GEN-X/internal/config"
	"github.com/abhay-kr-0705/GEN-X/internal/database"
	"github.com/abhay-kr-0705/GEN-X/internal/imagehost"
	"github.com/abhay-kr-0705/GEN-X/internal/mail"
	"github.com/abhay-kr-0705/GEN-X/internal/processing"
	"github.com/abhay-kr-0705/GEN-X/internal/queue"
	"github.com/abhay-kr-0705/GEN-X/internal/repository"
	"github.com/abhay-kr-0705/GEN-X/internal/service"
	"github.com/abhay-kr-0705/GEN-X/internal/storage"
	"github.com/abhay-kr-0705/GEN-X/internal/worker"
)

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Stores holds one implementation of every repository.
type Stores struct {
	Users         service.UserRepository
	Events        service.EventRepository
	Registrations service.RegistrationRepository
	Resources     service.ResourceRepository
	Galleries     service.GalleryRepository
	DB            Pinger
	close         func()
}

// Close releases the database pool, if any.
func (s *Stores) Close() {
	if s.close != nil {
		s.close()
	}
}

// OpenStores connects to Postgres and applies migrations when a database URL
// is configured. Without one, everything lives in memory and is lost on
// exit.
func OpenStores(ctx context.Context, cfg *config.Config, log *slog.Logger) (*Stores, error) {
	if cfg.DatabaseURL == "" {
		log.Warn("GENX_DATABASE_URL not set, using in-memory store")
		m := storage.NewMemoryStore()
		return &Stores{
			Users:         m.Users(),
			Events:        m.Events(),
			Registrations: m.Registrations(),
			Resources:     m.Resources(),
			Galleries:     m.Galleries(),
			DB:            m,
		}, nil
	}
	if err := database.Migrate(ctx, cfg.DatabaseURL); err != nil {
		return nil, err
	}
	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	return &Stores{
		Users:         repository.NewUserRepository(pool),
		Events:        repository.NewEventRepository(pool),
		Registrations: repository.NewRegistrationRepository(pool),
		Resources:     repository.NewResourceRepository(pool),
		Galleries:     repository.NewGalleryRepository(pool),
		DB:            pool,
		close:         pool.Close,
	}, nil
}

// OpenImageHost connects to the object store and creates the bucket.
func OpenImageHost(ctx context.Context, cfg *config.Config) (*imagehost.Client, error) {
	host, err := imagehost.New(cfg)
	if err != nil {
		return nil, err
	}
	if err := host.EnsureBucket(ctx); err != nil {
		return nil, err
	}
	return host, nil
}

// NewMailer returns an SMTP mailer, or one that only logs when SMTP is not
// configured.
func NewMailer(cfg *config.Config, log *slog.Logger) mail.Mailer {
	if !cfg.SMTPEnabled() {
		return mail.LogMailer{Log: log}
	}
	return mail.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.MailFrom)
}

// Tasks is the task queue plus what has to be released with it.
type Tasks struct {
	Queue service.TaskQueue
	Redis Pinger
	close func()
}

// Close stops the in-process pool or closes the Redis client.
func (t *Tasks) Close() {
	if t.close != nil {
		t.close()
	}
}

type redisPinger struct{ inspector *asynq.Inspector }

func (p redisPinger) Ping(ctx context.Context) error {
	_, err := p.inspector.Queues()
	return err
}

// OpenTasks enqueues on Redis when GENX_REDIS_ADDR is set, to be run by the
// worker binary. Otherwise tasks run on an in-process pool that lives as
// long as ctx.
func OpenTasks(ctx context.Context, cfg *config.Config, host worker.Destroyer, log *slog.Logger) *Tasks {
	if cfg.RedisAddr != "" {
		opt := RedisOpt(cfg)
		client := asynq.NewClient(opt)
		inspector := asynq.NewInspector(opt)
		return &Tasks{
			Queue: queue.NewClient(client),
			Redis: redisPinger{inspector},
			close: func() {
				client.Close()
				inspector.Close()
			},
		}
	}
	log.Warn("GENX_REDIS_ADDR not set, running background tasks in-process")
	ctx, cancel := context.WithCancel(ctx)
	pool := processing.New(worker.NewProcessor(host, NewMailer(cfg, log), log), cfg.WorkerPoolSize, log)
	pool.Start(ctx)
	return &Tasks{
		Queue: pool,
		close: func() {
			cancel()
			pool.Wait()
		},
	}
}

// RedisOpt builds the asynq connection options.
func RedisOpt(cfg *config.Config) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}
}

// Services builds every domain service on top of the given stores.
func Services(cfg *config.Config, st *Stores, host service.ImageHost, tasks service.TaskQueue, log *slog.Logger) api.Services {
	var pacer service.Pacer
	if cfg.UploadGap > 0 {
		pacer = rate.NewLimiter(rate.Every(cfg.UploadGap), 1)
	}
	return api.Services{
		Auth: service.NewAuthService(st.Users, service.AuthConfig{
			Secret:      cfg.JWTSecret,
			TokenTTL:    cfg.TokenTTL,
			BcryptCost:  cfg.BcryptCost,
			AdminEmails: cfg.AdminEmails,
		}, log),
		Events:    service.NewEventService(st.Events, st.Registrations, tasks, log),
		Resources: service.NewResourceService(st.Resources, host, cfg.UploadTimeout, log),
		Galleries: service.NewGalleryService(st.Galleries, host, tasks, pacer, service.GalleryConfig{
			UploadTimeout:   cfg.UploadTimeout,
			MaxCreatePhotos: cfg.MaxGalleryPhotos,
			ThumbnailMaxDim: cfg.ThumbnailMaxDim,
		}, log),
		Admin: service.NewAdminService(st.Users, st.Events),
	}
}

// Describe summarizes the backends in use for the start-up log line.
func Describe(cfg *config.Config) string {
	db := "memory"
	if cfg.DatabaseURL != "" {
		db = "postgres"
	}
	tasks := "in-process"
	if cfg.RedisAddr != "" {
		tasks = "redis " + cfg.RedisAddr
	}
	return fmt.Sprintf("store=%s tasks=%s bucket=%s", db, tasks, cfg.S3Bucket)
}
