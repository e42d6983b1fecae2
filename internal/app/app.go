package app

import (
	"context"

	"go-hris-engine/internal/bootstrap"
	"go-hris-engine/internal/compensation"
	"go-hris-engine/internal/config"
	"go-hris-engine/internal/employee"
	"go-hris-engine/internal/leave"
	"go-hris-engine/internal/messaging/kafka"
	"go-hris-engine/internal/payroll"
	"go-hris-engine/internal/process"
	"go-hris-engine/internal/shared/connection"
	"go-hris-engine/internal/shared/counter"

	"github.com/hashicorp/go-multierror"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Infra holds the long-lived connections shared by a binary.
type Infra struct {
	Config *config.Config
	DB     *gorm.DB
	Redis  *redis.Client
	Logger *zap.Logger
}

func Connect(cfg *config.Config, logger *zap.Logger) (*Infra, error) {
	db, err := connection.ConnectGORMWithRetry(cfg.Database)
	if err != nil {
		return nil, err
	}
	logger.Info("database connection established")

	if cfg.Database.AutoMigrate {
		if err := Migrate(db); err != nil {
			return nil, err
		}
		logger.Info("schema migrated")
	}

	rdb, err := connection.ConnectRedisWithRetry(cfg.Redis)
	if err != nil {
		return nil, err
	}
	if rdb == nil {
		logger.Warn("redis not configured, payroll locks are process-local")
	}

	return &Infra{Config: cfg, DB: db, Redis: rdb, Logger: logger}, nil
}

// Migrate creates or updates every table the engine owns.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&employee.Employee{},
		&compensation.Profile{},
		&process.Instance{},
		&process.HistoryEntry{},
		&leave.Leave{},
		&leave.Balance{},
		&payroll.LineItem{},
		&counter.Counter{},
		&kafka.OutboxEvent{},
	)
}

// Checks returns the dependency health checks served on /healthz.
func (i *Infra) Checks() map[string]bootstrap.HealthCheck {
	checks := map[string]bootstrap.HealthCheck{
		"database": func(ctx context.Context) error {
			sqlDB, err := i.DB.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}
	if i.Redis != nil {
		checks["redis"] = func(ctx context.Context) error {
			return i.Redis.Ping(ctx).Err()
		}
	}
	return checks
}

func (i *Infra) Close() error {
	var result *multierror.Error
	if sqlDB, err := i.DB.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	if i.Redis != nil {
		if err := i.Redis.Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}
