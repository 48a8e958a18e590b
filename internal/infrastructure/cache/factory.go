package cache

import (
	"context"
	"time"

	"github.com/statload/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

const defaultCleanupInterval = 5 * time.Minute

// NewResponseCache returns a Redis cache when Redis is enabled and reachable,
// otherwise an in-memory one. Redis errors never fail startup.
func NewResponseCache(ctx context.Context, cfg config.RedisConfig, logger *zap.Logger) ResponseCache {
	if cfg.Enabled {
		c, err := NewRedisResponseCache(ctx, RedisConfig{
			Addr:     cfg.Addr(),
			Password: cfg.Password,
			DB:       cfg.DB,
		})
		if err == nil {
			logger.Info("Using Redis response cache", zap.String("addr", cfg.Addr()))
			return c
		}
		logger.Warn("Redis unavailable, falling back to in-memory response cache", zap.Error(err))
	}
	return NewInMemoryResponseCache(defaultCleanupInterval)
}
