package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/noloworld/oribeti-app-sub000/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// NewIdempotencyStore builds the store selected by cfg.Backend. It returns a
// nil store for the "off" backend. When Redis is unreachable it falls back to
// the in-memory store and logs a warning.
func NewIdempotencyStore(cfg config.IdempotencyConfig, redisCfg config.RedisConfig, logger *zap.Logger) (IdempotencyStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	switch cfg.Backend {
	case "off":
		return nil, nil
	case "", "memory":
		return NewMemoryStore(cfg.PurgeInterval), nil
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     fmt.Sprintf("%s:%d", redisCfg.Host, redisCfg.Port),
			Password: redisCfg.Password,
			DB:       redisCfg.DB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			logger.Warn("Redis unavailable, falling back to in-memory idempotency store",
				zap.String("host", redisCfg.Host),
				zap.Int("port", redisCfg.Port),
				zap.Error(err),
			)
			return NewMemoryStore(cfg.PurgeInterval), nil
		}
		return NewRedisStore(client, ""), nil
	default:
		return nil, fmt.Errorf("unknown idempotency backend %q", cfg.Backend)
	}
}
