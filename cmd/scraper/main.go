// Command scraper runs a single ingestion pass and prints the report.
package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"github.com/Aaditya7171/event-platform/internal/ingest"
	"github.com/Aaditya7171/event-platform/internal/keylock"
	"github.com/Aaditya7171/event-platform/internal/repository"
	"github.com/Aaditya7171/event-platform/internal/source"
	"github.com/Aaditya7171/event-platform/pkg/config"
	"github.com/Aaditya7171/event-platform/pkg/database"
	"github.com/Aaditya7171/event-platform/pkg/logger"
	pkgredis "github.com/Aaditya7171/event-platform/pkg/redis"
	"go.uber.org/zap"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("scraper: " + err.Error() + "\n")
		return 2
	}

	log, err := logger.New(&logger.Config{
		Level:       cfg.Log.Level,
		ServiceName: cfg.App.Name + "-scraper",
		Development: cfg.IsDevelopment(),
		OutputPath:  "stderr",
	})
	if err != nil {
		os.Stderr.WriteString("scraper: " + err.Error() + "\n")
		return 2
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	descriptor, err := source.DescriptorFromConfig(&cfg.Scraper)
	if err != nil {
		log.Error("invalid source", zap.Error(err))
		return 2
	}

	dbCfg := database.DefaultPostgresConfig()
	dbCfg.Host = cfg.Database.Host
	dbCfg.Port = cfg.Database.Port
	dbCfg.User = cfg.Database.User
	dbCfg.Password = cfg.Database.Password
	dbCfg.Database = cfg.Database.DBName
	dbCfg.SSLMode = cfg.Database.SSLMode
	dbCfg.MaxConns = int32(cfg.Scraper.Concurrency + 2)
	dbCfg.MinConns = 1

	db, err := database.NewPostgres(ctx, dbCfg)
	if err != nil {
		log.Error("postgres unavailable", zap.Error(err))
		return 1
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := repository.EnsureSchema(ctx, db); err != nil {
			log.Error("schema setup failed", zap.Error(err))
			return 1
		}
	}

	var locker keylock.Locker = keylock.NewLocal()
	if cfg.Redis.Enabled {
		redisCfg := pkgredis.DefaultConfig()
		redisCfg.Host = cfg.Redis.Host
		redisCfg.Port = cfg.Redis.Port
		redisCfg.Password = cfg.Redis.Password
		redisCfg.DB = cfg.Redis.DB

		rdb, err := pkgredis.NewClient(ctx, redisCfg)
		if err != nil {
			log.Error("redis unavailable", zap.Error(err))
			return 1
		}
		defer rdb.Close()

		lockCfg := keylock.DefaultRedisConfig()
		if cfg.Redis.LockTTL > 0 {
			lockCfg.TTL = cfg.Redis.LockTTL
		}
		redisLocker, err := keylock.NewRedis(ctx, rdb, lockCfg, log)
		if err != nil {
			log.Error("lock setup failed", zap.Error(err))
			return 1
		}
		locker = redisLocker
	}

	reconciler := ingest.NewReconciler(
		repository.NewPostgresEventRepository(db.Pool()),
		locker,
		&ingest.ReconcilerConfig{Concurrency: cfg.Scraper.Concurrency},
		log,
	)
	runner := ingest.NewRunner(source.NewHTTPFetcherForSource(descriptor), reconciler, log)

	report, err := runner.Run(ctx, descriptor)
	if err != nil {
		log.Error("ingestion failed", zap.Error(err))
		return 1
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		log.Error("write report", zap.Error(err))
		return 1
	}
	return 0
}
