package infra

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// Clients holds the optional backing stores. A nil field means the store was
// not configured.
type Clients struct {
	DB    *pgxpool.Pool
	Cache *redis.Client
}

// Connect opens each store whose URL is set. On failure anything already
// opened is closed.
func Connect(ctx context.Context, databaseURL, redisURL, appName string, logger *slog.Logger) (*Clients, error) {
	c := &Clients{}
	if databaseURL != "" {
		db, err := NewPostgresPool(ctx, databaseURL, appName)
		if err != nil {
			return nil, err
		}
		c.DB = db
	} else {
		logger.Warn("DATABASE_URL not set, journal kept in memory")
	}
	if redisURL != "" {
		cache, err := NewRedisClient(ctx, redisURL, appName)
		if err != nil {
			c.Close(logger)
			return nil, err
		}
		c.Cache = cache
	} else {
		logger.Warn("REDIS_URL not set, idempotency and rate limiting disabled")
	}
	return c, nil
}

// Close releases every open store.
func (c *Clients) Close(logger *slog.Logger) {
	if c.DB != nil {
		c.DB.Close()
	}
	if c.Cache != nil {
		if err := c.Cache.Close(); err != nil {
			logger.Warn("close redis", "error", err)
		}
	}
}
