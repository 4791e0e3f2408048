package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// DB holds the database connections. Postgres is nil unless users are
// stored there.
type DB struct {
	Postgres *gorm.DB
	Mongo    *mongo.Client
	Database *mongo.Database
	logger   logrus.FieldLogger
}

// InitDB connects to MongoDB and, when configured, PostgreSQL. An
// unreachable MongoDB is logged but not fatal: the driver keeps trying in the
// background and /health reports the outage.
func InitDB(ctx context.Context, cfg *Config, logger logrus.FieldLogger) (*DB, error) {
	mongoClient, err := mongo.Connect(ctx, options.Client().
		ApplyURI(cfg.MongoURI).
		SetServerSelectionTimeout(5*time.Second))
	if err != nil {
		return nil, fmt.Errorf("failed to configure MongoDB client: %w", err)
	}

	ping := func(ctx context.Context) error { return mongoClient.Ping(ctx, readpref.Primary()) }
	if err := connectWithRetry(ctx, cfg.MongoConnectRetries, cfg.MongoConnectRetryDelay, ping, logger); err != nil {
		logger.WithError(err).Error("MongoDB unreachable, serving anyway")
	} else {
		logger.Info("Successfully connected to MongoDB")
	}

	db := &DB{
		Mongo:    mongoClient,
		Database: mongoClient.Database(cfg.MongoDatabase),
		logger:   logger,
	}

	if cfg.UserStore == "postgres" {
		db.Postgres, err = initPostgres(cfg.PostgresURL)
		if err != nil {
			db.CloseDB()
			return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
		}
		logger.Info("Successfully connected to PostgreSQL")
	}
	return db, nil
}

// connectWithRetry calls ping up to attempts times, doubling delay after
// each failure.
func connectWithRetry(ctx context.Context, attempts int, delay time.Duration, ping func(context.Context) error, logger logrus.FieldLogger) error {
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err = ping(pingCtx)
		cancel()
		if err == nil {
			return nil
		}
		if attempt == attempts {
			break
		}

		logger.WithFields(logrus.Fields{
			"attempt":  attempt,
			"retry_in": delay.String(),
		}).WithError(err).Warn("MongoDB ping failed")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
	return fmt.Errorf("after %d attempts: %w", attempts, err)
}

// initPostgres initializes the PostgreSQL database connection using GORM
func initPostgres(connStr string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(connStr), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if err = sqlDB.Ping(); err != nil {
		return nil, err
	}
	return db, nil
}

// Ping checks every configured store.
func (db *DB) Ping(ctx context.Context) error {
	var errs []error
	if err := db.Mongo.Ping(ctx, readpref.Primary()); err != nil {
		errs = append(errs, fmt.Errorf("mongo: %w", err))
	}
	if db.Postgres != nil {
		sqlDB, err := db.Postgres.DB()
		if err == nil {
			err = sqlDB.PingContext(ctx)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("postgres: %w", err))
		}
	}
	return errors.Join(errs...)
}

// CloseDB closes the database connections
func (db *DB) CloseDB() {
	if db.Postgres != nil {
		sqlDB, err := db.Postgres.DB()
		if err != nil {
			db.logger.WithError(err).Error("Error getting SQL DB from GORM")
		} else if err := sqlDB.Close(); err != nil {
			db.logger.WithError(err).Error("Error closing PostgreSQL connection")
		} else {
			db.logger.Info("PostgreSQL connection closed")
		}
	}

	if db.Mongo != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := db.Mongo.Disconnect(ctx); err != nil {
			db.logger.WithError(err).Error("Error closing MongoDB connection")
		} else {
			db.logger.Info("MongoDB connection closed")
		}
	}
}
