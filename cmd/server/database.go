package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver
	"github.com/redis/go-redis/v9"
	"github.com/sethvargo/go-retry"
	mongodriver "go.mongodb.org/mongo-driver/mongo"

	"github.com/phrazzld/taskflow-api/internal/config"
	"github.com/phrazzld/taskflow-api/internal/platform/mongo"
	"github.com/phrazzld/taskflow-api/internal/redact"
)

const connectBackoffBase = 500 * time.Millisecond

// withConnectRetry retries fn with exponential backoff, attempts times in total.
func withConnectRetry(ctx context.Context, attempts uint64, log *slog.Logger, what string, fn func(ctx context.Context) error) error {
	if attempts < 1 {
		attempts = 1
	}
	backoff := retry.WithMaxRetries(attempts-1, retry.NewExponential(connectBackoffBase))

	attempt := 0
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		if err := fn(ctx); err != nil {
			log.Warn("connection attempt failed",
				slog.String("target", what),
				slog.Int("attempt", attempt),
				slog.String("error", redact.Error(err)))
			return retry.RetryableError(err)
		}
		return nil
	})
}

// setupPostgres opens the pgx-backed *sql.DB and waits until it answers pings.
func setupPostgres(ctx context.Context, cfg config.DatabaseConfig, log *slog.Logger) (*sql.DB, error) {
	db, err := sql.Open("pgx", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	err = withConnectRetry(ctx, cfg.ConnectAttempts, log, "postgres", func(ctx context.Context) error {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return db.PingContext(pingCtx)
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Info("database connection established", slog.String("driver", "postgres"))
	return db, nil
}

// setupMongo connects to MongoDB and makes sure the indexes exist.
func setupMongo(ctx context.Context, cfg config.DatabaseConfig, log *slog.Logger) (*mongodriver.Client, error) {
	var client *mongodriver.Client
	err := withConnectRetry(ctx, cfg.ConnectAttempts, log, "mongo", func(ctx context.Context) error {
		c, err := mongo.Connect(ctx, cfg.URL)
		if err != nil {
			return err
		}
		client = c
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := mongo.EnsureIndexes(ctx, client.Database(cfg.Name), log); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	log.Info("database connection established",
		slog.String("driver", "mongo"),
		slog.String("database", cfg.Name))
	return client, nil
}

// setupRedis connects the rate limiter's Redis client.
func setupRedis(ctx context.Context, cfg config.RateLimitConfig, attempts uint64, log *slog.Logger) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})

	err := withConnectRetry(ctx, attempts, log, "redis", func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	})
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	log.Info("redis connection established", slog.String("addr", cfg.RedisAddr))
	return client, nil
}
