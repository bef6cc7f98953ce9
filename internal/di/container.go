package di

import (
	"context"
	"errors"
	"time"

	"github.com/Aaditya7171/event-platform/internal/handler"
	"github.com/Aaditya7171/event-platform/internal/ingest"
	"github.com/Aaditya7171/event-platform/internal/keylock"
	"github.com/Aaditya7171/event-platform/internal/publisher"
	"github.com/Aaditya7171/event-platform/internal/repository"
	"github.com/Aaditya7171/event-platform/internal/service"
	"github.com/Aaditya7171/event-platform/internal/source"
	"github.com/Aaditya7171/event-platform/internal/worker"
	"github.com/Aaditya7171/event-platform/pkg/config"
	"github.com/Aaditya7171/event-platform/pkg/database"
	"github.com/Aaditya7171/event-platform/pkg/kafka"
	"github.com/Aaditya7171/event-platform/pkg/logger"
	"github.com/Aaditya7171/event-platform/pkg/middleware"
	pkgredis "github.com/Aaditya7171/event-platform/pkg/redis"
)

// Container holds all dependencies for the event platform
type Container struct {
	// Infrastructure
	DB       *database.PostgresDB
	Redis    *pkgredis.Client
	Producer *kafka.Producer

	// Repositories
	EventRepo repository.EventRepository
	LeadRepo  repository.LeadRepository

	// Pipeline
	Descriptor *source.Descriptor
	Locker     keylock.Locker
	Runner     *ingest.Runner

	// Services
	EventService service.EventService
	LeadService  service.LeadService

	// Handlers
	HealthHandler *handler.HealthHandler
	EventHandler  *handler.EventHandler
	LeadHandler   *handler.LeadHandler
	IngestHandler *handler.IngestHandler

	// Middleware state
	AuditLogger *middleware.AuditLogger
	LeadLimiter *middleware.LocalRateLimiter

	// Workers
	ScrapeWorker *worker.ScrapeWorker

	config *config.Config
	log    *logger.Logger
}

// ContainerConfig contains configuration for building the container.
// Redis and Producer are optional.
type ContainerConfig struct {
	Config   *config.Config
	Logger   *logger.Logger
	DB       *database.PostgresDB
	Redis    *pkgredis.Client
	Producer *kafka.Producer
}

// NewContainer creates a new dependency injection container
func NewContainer(ctx context.Context, cfg *ContainerConfig) (*Container, error) {
	c := &Container{
		DB:       cfg.DB,
		Redis:    cfg.Redis,
		Producer: cfg.Producer,
		config:   cfg.Config,
		log:      cfg.Logger,
	}

	descriptor, err := source.DescriptorFromConfig(&cfg.Config.Scraper)
	if err != nil {
		return nil, err
	}
	c.Descriptor = descriptor

	// Initialize repositories
	c.EventRepo = repository.NewPostgresEventRepository(c.DB.Pool())
	c.LeadRepo = repository.NewPostgresLeadRepository(c.DB.Pool())

	// Per-key lock shared by the reconciler and imports
	if c.Redis != nil {
		lockCfg := keylock.DefaultRedisConfig()
		if cfg.Config.Redis.LockTTL > 0 {
			lockCfg.TTL = cfg.Config.Redis.LockTTL
		}
		locker, err := keylock.NewRedis(ctx, c.Redis, lockCfg, c.log)
		if err != nil {
			return nil, err
		}
		c.Locker = locker
	} else {
		c.Locker = keylock.NewLocal()
	}

	// Initialize pipeline
	reconciler := ingest.NewReconciler(c.EventRepo, c.Locker, &ingest.ReconcilerConfig{
		Concurrency: cfg.Config.Scraper.Concurrency,
	}, c.log)
	c.Runner = ingest.NewRunner(source.NewHTTPFetcherForSource(descriptor), reconciler, c.log)

	// Initialize services
	var leadPublisher publisher.LeadPublisher = publisher.NoopLeadPublisher{}
	if c.Producer != nil {
		leadPublisher = publisher.NewKafkaLeadPublisher(c.Producer, cfg.Config.Kafka.LeadTopic)
	}
	c.EventService = service.NewEventService(c.EventRepo, c.LeadRepo, c.Locker, c.log)
	c.LeadService = service.NewLeadService(c.EventRepo, c.LeadRepo, leadPublisher, c.log)

	// Initialize handlers
	c.HealthHandler = handler.NewHealthHandler(c.DB, cfg.Config.App.Name)
	c.EventHandler = handler.NewEventHandler(c.EventService)
	c.LeadHandler = handler.NewLeadHandler(c.LeadService)
	c.IngestHandler = handler.NewIngestHandler(c.Runner, descriptor)

	// Middleware state
	c.AuditLogger = middleware.NewAuditLogger(&middleware.AuditConfig{
		Sink:   middleware.NewPostgresAuditSink(c.DB.Pool()),
		Logger: c.log,
	})
	limitCfg := middleware.DefaultRateLimitConfig()
	if cfg.Config.Lead.RateLimitRPS > 0 {
		limitCfg.RequestsPerSecond = cfg.Config.Lead.RateLimitRPS
	}
	if cfg.Config.Lead.RateLimitBurst > 0 {
		limitCfg.BurstSize = cfg.Config.Lead.RateLimitBurst
	}
	c.LeadLimiter = middleware.NewLocalRateLimiter(limitCfg)

	// Workers
	if cfg.Config.Scraper.ScheduleEnabled {
		c.ScrapeWorker = worker.NewScrapeWorker(c.Runner, descriptor, c.log, &worker.ScrapeWorkerConfig{
			Interval:   cfg.Config.Scraper.Interval,
			RunOnStart: true,
		})
	}

	return c, nil
}

// Routes returns the HTTP route table wired to this container
func (c *Container) Routes() *handler.Routes {
	return &handler.Routes{
		Health: c.HealthHandler,
		Event:  c.EventHandler,
		Lead:   c.LeadHandler,
		Ingest: c.IngestHandler,
		JWT: &middleware.JWTConfig{
			Secret: c.config.JWT.Secret,
			Issuer: c.config.JWT.Issuer,
		},
		LeadLimiter: c.LeadLimiter,
		Audit:       c.AuditLogger,
	}
}

// Close stops workers and flushes buffered side effects. Infrastructure
// clients are owned by the caller and closed separately.
func (c *Container) Close(ctx context.Context) error {
	if c.ScrapeWorker != nil {
		c.ScrapeWorker.Stop()
	}

	var errs []error
	drainCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := c.LeadService.Drain(drainCtx); err != nil {
		errs = append(errs, err)
	}
	if err := c.AuditLogger.Close(); err != nil {
		errs = append(errs, err)
	}
	c.LeadLimiter.Stop()

	return errors.Join(errs...)
}
