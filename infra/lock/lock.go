// Package lock implements pkg/lock.Locker on Redis.
package lock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
	"github.com/tapevault/backoffice/pkg/config"
	"github.com/tapevault/backoffice/pkg/lock"
)

// RedisLocker is a Locker backed by bsm/redislock.
type RedisLocker struct {
	client *redislock.Client
	prefix string
	logger *slog.Logger
}

// NewRedisLocker wraps an existing redis client.
func NewRedisLocker(rdb redis.UniversalClient, prefix string, logger *slog.Logger) *RedisLocker {
	return &RedisLocker{client: redislock.New(rdb), prefix: prefix, logger: logger}
}

// New builds a Locker from config. Without a Redis URL it returns an
// in-process locker so single instance deployments keep working.
func New(ctx context.Context, cfg *config.Redis, logger *slog.Logger) (lock.Locker, func() error, error) {
	if cfg == nil || cfg.URL == "" {
		logger.Warn("Redis not configured, using in-process transfer lock")
		return lock.NewLocal(), func() error { return nil }, nil
	}
	opt, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid redis url: %w", err)
	}
	if cfg.PoolSize > 0 {
		opt.PoolSize = cfg.PoolSize
	}
	if cfg.DialTimeout > 0 {
		opt.DialTimeout = cfg.DialTimeout
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, nil, fmt.Errorf("redis ping failed: %w", err)
	}
	logger.Info("Redis lock client ready", "addr", opt.Addr)
	return NewRedisLocker(rdb, cfg.KeyPrefix, logger), rdb.Close, nil
}

func (l *RedisLocker) Obtain(ctx context.Context, key string, ttl time.Duration) (lock.Release, error) {
	lk, err := l.client.Obtain(ctx, l.prefix+key, ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		l.logger.Debug("Lock held elsewhere", "key", key)
		return nil, lock.ErrNotObtained
	}
	if err != nil {
		return nil, fmt.Errorf("obtain lock %s: %w", key, err)
	}
	return func(ctx context.Context) error {
		err := lk.Release(ctx)
		if errors.Is(err, redislock.ErrLockNotHeld) {
			return nil
		}
		return err
	}, nil
}
