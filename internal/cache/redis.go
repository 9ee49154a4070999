// Package cache provides the feed cache and its Redis and in-process backends.
package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"yatube/internal/middleware"
	"yatube/internal/observability"

	"github.com/redis/go-redis/v9"
)

type metricsHook struct{}

func (h metricsHook) DialHook(next redis.DialHook) redis.DialHook {
	return next
}

func (h metricsHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		err := next(ctx, cmd)
		if err != nil && !errors.Is(err, redis.Nil) {
			observability.RedisErrorRate.WithLabelValues(cmd.Name()).Inc()
		}
		return err
	}
}

func (h metricsHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		err := next(ctx, cmds)
		if err != nil && !errors.Is(err, redis.Nil) {
			observability.RedisErrorRate.WithLabelValues("pipeline").Inc()
		}
		return err
	}
}

// Client timeouts. Retries are disabled so a dead Redis costs a request at
// most one dial.
const (
	RedisDialTimeout = 250 * time.Millisecond
	RedisIOTimeout   = 200 * time.Millisecond
	RedisPoolTimeout = 300 * time.Millisecond
)

// NewRedisClient builds a client from a redis:// URL or a bare host:port.
func NewRedisClient(addr string) (*redis.Client, error) {
	var opts *redis.Options
	if strings.Contains(addr, "://") {
		parsed, err := redis.ParseURL(addr)
		if err != nil {
			return nil, fmt.Errorf("invalid REDIS_URL %q: %w", addr, err)
		}
		opts = parsed
	} else {
		opts = &redis.Options{Addr: addr}
	}
	applyTimeouts(opts)

	client := redis.NewClient(opts)
	client.AddHook(metricsHook{})
	return client, nil
}

// applyTimeouts fills in short timeouts the URL did not set and disables retries.
func applyTimeouts(opts *redis.Options) {
	if opts.DialTimeout == 0 {
		opts.DialTimeout = RedisDialTimeout
	}
	if opts.ReadTimeout == 0 {
		opts.ReadTimeout = RedisIOTimeout
	}
	if opts.WriteTimeout == 0 {
		opts.WriteTimeout = RedisIOTimeout
	}
	if opts.PoolTimeout == 0 {
		opts.PoolTimeout = RedisPoolTimeout
	}
	opts.MaxRetries = -1
}

// ConnectRedis creates a client and pings it. A nil client with an error means
// the caller should continue without Redis.
func ConnectRedis(ctx context.Context, addr string) (*redis.Client, error) {
	client, err := NewRedisClient(addr)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	middleware.Logger.Info("Redis connected successfully")
	return client, nil
}
