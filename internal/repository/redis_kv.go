package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisKV stores each item as a plain Redis string under prefix+key.
type RedisKV struct {
	rdb    *redis.Client
	prefix string
	logger *zap.Logger
}

func NewRedisKV(rdb *redis.Client, prefix string, logger *zap.Logger) *RedisKV {
	return &RedisKV{rdb: rdb, prefix: prefix, logger: logger}
}

func (r *RedisKV) GetItem(ctx context.Context, key string) (string, bool, error) {
	v, err := r.rdb.Get(ctx, r.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		r.logger.Error("Failed to read item from redis",
			zap.String("key", r.prefix+key),
			zap.Error(err),
		)
		return "", false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return v, true, nil
}

func (r *RedisKV) SetItem(ctx context.Context, key, value string) error {
	if err := r.rdb.Set(ctx, r.prefix+key, value, 0).Err(); err != nil {
		r.logger.Error("Failed to write item to redis",
			zap.String("key", r.prefix+key),
			zap.Int("bytes", len(value)),
			zap.Error(err),
		)
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	r.logger.Debug("Item written to redis",
		zap.String("key", r.prefix+key),
		zap.Int("bytes", len(value)),
	)
	return nil
}

func (r *RedisKV) Ping(ctx context.Context) error {
	return r.rdb.Ping(ctx).Err()
}
