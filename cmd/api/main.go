package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Aaditya7171/event-platform/internal/di"
	"github.com/Aaditya7171/event-platform/internal/repository"
	"github.com/Aaditya7171/event-platform/pkg/config"
	"github.com/Aaditya7171/event-platform/pkg/database"
	"github.com/Aaditya7171/event-platform/pkg/kafka"
	"github.com/Aaditya7171/event-platform/pkg/logger"
	"github.com/Aaditya7171/event-platform/pkg/middleware"
	pkgredis "github.com/Aaditya7171/event-platform/pkg/redis"
	"github.com/Aaditya7171/event-platform/pkg/telemetry"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		os.Stderr.WriteString("event-platform: " + err.Error() + "\n")
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log, err := logger.New(&logger.Config{
		Level:       cfg.Log.Level,
		ServiceName: cfg.App.Name,
		Development: cfg.IsDevelopment(),
		OutputPath:  "stdout",
	})
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tel, err := telemetry.Init(ctx, &telemetry.Config{
		Enabled:        cfg.OTel.Enabled,
		ServiceName:    cfg.OTel.ServiceName,
		ServiceVersion: cfg.App.Version,
		Environment:    cfg.App.Environment,
		CollectorAddr:  cfg.OTel.CollectorAddr,
		SampleRatio:    cfg.OTel.SampleRatio,
	})
	if err != nil {
		return err
	}

	db, err := database.NewPostgres(ctx, &database.PostgresConfig{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		Database:        cfg.Database.DBName,
		SSLMode:         cfg.Database.SSLMode,
		MaxConns:        int32(cfg.Database.MaxConns),
		MinConns:        int32(cfg.Database.MinConns),
		MaxConnLifetime: cfg.Database.ConnMaxLifetime,
		MaxConnIdleTime: cfg.Database.ConnMaxIdleTime,
		ConnectTimeout:  5 * time.Second,
		MaxRetries:      cfg.Database.MaxRetries,
		RetryInterval:   cfg.Database.RetryInterval,
		Tracing:         cfg.OTel.Enabled,
	})
	if err != nil {
		return err
	}
	log.Info("connected to postgres", zap.String("host", cfg.Database.Host))

	if cfg.Database.AutoMigrate {
		if err := repository.EnsureSchema(ctx, db); err != nil {
			db.Close()
			return err
		}
	}

	var rdb *pkgredis.Client
	if cfg.Redis.Enabled {
		rdb, err = pkgredis.NewClient(ctx, &pkgredis.Config{
			Host:         cfg.Redis.Host,
			Port:         cfg.Redis.Port,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
			MaxRetries:   3,
			Tracing:      cfg.OTel.Enabled,
		})
		if err != nil {
			db.Close()
			return err
		}
		log.Info("connected to redis", zap.String("addr", cfg.Redis.Addr()))
	}

	var producer *kafka.Producer
	if cfg.Kafka.Enabled {
		producer, err = kafka.NewProducer(ctx, &kafka.ProducerConfig{
			Brokers:      cfg.Kafka.Brokers,
			ClientID:     cfg.Kafka.ClientID,
			DefaultTopic: cfg.Kafka.LeadTopic,
		})
		if err != nil {
			// lead capture works without notifications
			log.Warn("kafka unavailable, lead notifications disabled", zap.Error(err))
			producer = nil
		}
	}

	container, err := di.NewContainer(ctx, &di.ContainerConfig{
		Config:   cfg,
		Logger:   log,
		DB:       db,
		Redis:    rdb,
		Producer: producer,
	})
	if err != nil {
		db.Close()
		return err
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(
		gin.Recovery(),
		otelgin.Middleware(cfg.App.Name),
		middleware.RequestID(),
		middleware.CORS(middleware.DefaultCORSConfig(cfg.CORS.AllowOrigins)),
	)
	container.Routes().Register(router)

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	if container.ScrapeWorker != nil {
		container.ScrapeWorker.Start(ctx)
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			log.Error("http server failed", zap.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http server shutdown", zap.Error(err))
	}
	if err := container.Close(shutdownCtx); err != nil {
		log.Error("container shutdown", zap.Error(err))
	}
	if producer != nil {
		producer.Close()
	}
	if rdb != nil {
		if err := rdb.Close(); err != nil {
			log.Error("redis close", zap.Error(err))
		}
	}
	db.Close()
	if err := tel.Shutdown(shutdownCtx); err != nil {
		log.Error("telemetry shutdown", zap.Error(err))
	}

	log.Info("server stopped")
	return nil
}
