package presence

import (
	"fmt"

	"github.com/noloworld/oribeti-app-sub000/internal/infrastructure/config"
	"go.uber.org/zap"
)

// NewTracker builds the tracker selected by cfg.Backend. When Redis is
// unreachable it falls back to the in-memory tracker and logs a warning.
func NewTracker(cfg config.PresenceConfig, redisCfg config.RedisConfig, logger *zap.Logger) (Tracker, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	switch cfg.Backend {
	case "", "memory":
		return NewMemoryTracker(cfg.TTL, cfg.ReapInterval), nil
	case "redis":
		tracker, err := NewRedisTracker(RedisConfig{
			Host:     redisCfg.Host,
			Port:     redisCfg.Port,
			Password: redisCfg.Password,
			DB:       redisCfg.DB,
		}, cfg.TTL)
		if err != nil {
			logger.Warn("Redis unavailable, falling back to in-memory presence tracker",
				zap.String("host", redisCfg.Host),
				zap.Int("port", redisCfg.Port),
				zap.Error(err),
			)
			return NewMemoryTracker(cfg.TTL, cfg.ReapInterval), nil
		}
		logger.Info("Using Redis presence tracker",
			zap.String("host", redisCfg.Host),
			zap.Int("port", redisCfg.Port),
		)
		return tracker, nil
	default:
		return nil, fmt.Errorf("unknown presence backend %q", cfg.Backend)
	}
}
