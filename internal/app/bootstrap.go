package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"microloans-api/internal/config"
	"microloans-api/internal/domain/event"
	"microloans-api/internal/infrastructure/cache"
	"microloans-api/internal/infrastructure/db"
	"microloans-api/internal/infrastructure/queue"
)

// Runtime owns everything Bootstrap opened.
type Runtime struct {
	Echo  *echo.Echo
	DB    *gorm.DB
	Redis *redis.Client

	publisher *queue.Publisher
}

// GormLogLevel maps the environment onto GORM's logger verbosity.
func GormLogLevel(env string) logger.LogLevel {
	switch env {
	case config.EnvTesting:
		return logger.Silent
	case config.EnvProduction:
		return logger.Warn
	default:
		return logger.Info
	}
}

// OpenDB opens DATABASE_URL with the environment's GORM log level.
func OpenDB(cfg *config.Config, log *zap.Logger) (*gorm.DB, error) {
	gdb, err := db.Open(cfg.DatabaseURL, log, GormLogLevel(cfg.Env))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return gdb, nil
}

// Migrate applies pending migrations for the configured dialect.
func Migrate(ctx context.Context, cfg *config.Config, gdb *gorm.DB) ([]int64, error) {
	scheme, err := config.DatabaseScheme(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, err
	}
	return db.MigrateUp(ctx, sqlDB, scheme)
}

// Bootstrap opens the database, plus redis and the event broker when
// configured, and builds the app. A broker that cannot be reached only
// disables events.
func Bootstrap(ctx context.Context, cfg *config.Config, log *zap.Logger, migrate bool) (*Runtime, error) {
	gdb, err := OpenDB(cfg, log)
	if err != nil {
		return nil, err
	}
	rt := &Runtime{DB: gdb}

	if migrate {
		applied, err := Migrate(ctx, cfg, gdb)
		if err != nil {
			_ = rt.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
		log.Info("migrations applied", zap.Int64s("versions", applied))
	}

	if cfg.RedisAddr != "" {
		rdb, err := cache.OpenRedis(cfg.RedisAddr, cfg.RedisDB)
		if err != nil {
			_ = rt.Close()
			return nil, fmt.Errorf("open redis: %w", err)
		}
		rt.Redis = rdb
	}

	var events event.Publisher = event.Nop{}
	if cfg.AMQPURL != "" {
		p, err := queue.Dial(cfg.AMQPURL, log.Named("queue"))
		if err != nil {
			log.Warn("event broker unavailable, events disabled", zap.Error(err))
		} else {
			rt.publisher = p
			events = p
		}
	}

	rt.Echo = New(cfg, Deps{DB: gdb, Redis: rt.Redis, Events: events, Logger: log})
	return rt, nil
}

// Close releases every resource in reverse order of opening.
func (r *Runtime) Close() error {
	var errs []error
	if r.publisher != nil {
		errs = append(errs, r.publisher.Close())
	}
	if r.Redis != nil {
		errs = append(errs, r.Redis.Close())
	}
	if r.DB != nil {
		if sqlDB, err := r.DB.DB(); err == nil {
			errs = append(errs, sqlDB.Close())
		} else {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
