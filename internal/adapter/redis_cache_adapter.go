package adapter

import (
	"context"
	"errors"
	"fmt"
	"time"

	"flashzen/internal/domain"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisCacheAdapter implements domain.Cache on top of Redis. It stores
// serialized search contexts and PDF extractions.
type RedisCacheAdapter struct {
	client redis.UniversalClient
	logger *zap.Logger
}

// NewRedisCacheAdapter wraps a connected client.
func NewRedisCacheAdapter(client redis.UniversalClient, logger *zap.Logger) domain.Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisCacheAdapter{client: client, logger: logger}
}

var _ domain.Cache = (*RedisCacheAdapter)(nil)

// Get translates redis.Nil to domain.ErrCacheMiss.
func (r *RedisCacheAdapter) Get(ctx context.Context, key string) (string, error) {
	val, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			r.logger.Debug("Cache miss", zap.String("key", key))
			return "", domain.ErrCacheMiss
		}
		return "", fmt.Errorf("redis get %s: %w", key, err)
	}
	return val, nil
}

// Set stores value under key. A zero expiration keeps the value until evicted.
func (r *RedisCacheAdapter) Set(ctx context.Context, key string, value string, expiration time.Duration) error {
	if err := r.client.Set(ctx, key, value, expiration).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Delete removes key; a missing key is not an error.
func (r *RedisCacheAdapter) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}

func (r *RedisCacheAdapter) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
