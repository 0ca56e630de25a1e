package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/Payphone-Digital/content-api/config"
)

// Open connects to PostgreSQL, retrying the first connection with
// exponential backoff until cfg.Database.ConnectRetry elapses.
func Open(ctx context.Context, cfg *config.Config, log *zap.Logger) (*gorm.DB, error) {
	dbCfg := cfg.Database
	level := gormlogger.Warn
	if dbCfg.LogQueries {
		level = gormlogger.Info
	}

	gormCfg := &gorm.Config{
		Logger: NewGormLogger(log, level),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
		TranslateError: true,
		PrepareStmt:    true,
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 500 * time.Millisecond
	policy.MaxInterval = 5 * time.Second
	policy.MaxElapsedTime = dbCfg.ConnectRetry

	var db *gorm.DB
	attempt := 0
	connect := func() error {
		attempt++
		conn, err := gorm.Open(postgres.Open(cfg.DatabaseConnectionString()), gormCfg)
		if err == nil {
			err = ping(ctx, conn)
			if err != nil {
				_ = CloseDB(conn)
			}
		}
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return backoff.Permanent(err)
			}
			log.Warn("Database not ready",
				zap.Int("attempt", attempt),
				zap.String("host", dbCfg.Host),
				zap.Int("port", dbCfg.Port),
				zap.Error(err),
			)
			return err
		}
		db = conn
		return nil
	}

	if err := backoff.Retry(connect, backoff.WithContext(policy, ctx)); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}
	sqlDB.SetMaxIdleConns(dbCfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(dbCfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(dbCfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(dbCfg.ConnMaxIdleTime)

	log.Info("Database connected",
		zap.String("host", dbCfg.Host),
		zap.Int("port", dbCfg.Port),
		zap.String("database", dbCfg.Name),
		zap.Int("attempts", attempt),
		zap.Int("max_open_conns", dbCfg.MaxOpenConns),
		zap.Int("max_idle_conns", dbCfg.MaxIdleConns),
	)
	return db, nil
}

// Ping checks the connection, used by the readiness probe
func Ping(ctx context.Context, db *gorm.DB) error {
	return ping(ctx, db)
}

func ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return sqlDB.PingContext(ctx)
}

// CloseDB closes the database connection
func CloseDB(db *gorm.DB) error {
	if db != nil {
		sqlDB, err := db.DB()
		if err != nil {
			return fmt.Errorf("failed to get database instance for closing: %w", err)
		}

		if err := sqlDB.Close(); err != nil {
			return fmt.Errorf("failed to close database connection: %w", err)
		}
	}
	return nil
}
