package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/extlabs/ext/pkg/observability/logger"
)

type redisClient interface {
	Incr(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
	Ping(ctx context.Context) *redis.StatusCmd
	Close() error
}

// RedisLimiter is a distributed fixed-window limiter backed by Redis.
// Each key gets a per-minute counter; the counter key carries the window
// number so stale windows expire on their own.
type RedisLimiter struct {
	client    redisClient
	limit     int
	window    time.Duration
	opTimeout time.Duration
	prefix    string
	log       logger.Logger
}

// NewRedisLimiter connects to Redis at url and returns a limiter admitting
// requestsPerMinute requests per minute per key.
func NewRedisLimiter(url string, requestsPerMinute, poolSize int, log logger.Logger) (*RedisLimiter, error) {
	if url == "" {
		return nil, errors.New("redis URL is required for distributed rate limiting")
	}
	if requestsPerMinute <= 0 {
		return nil, errors.New("requests per minute must be greater than zero")
	}

	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	if poolSize > 0 {
		opts.PoolSize = poolSize
	}

	client := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis rate limiter ping failed: %w", err)
	}

	log.Info("redis rate limiter connected", "limit", requestsPerMinute, "window", time.Minute)
	return newRedisLimiterFromClient(client, requestsPerMinute, log), nil
}

func newRedisLimiterFromClient(client redisClient, requestsPerMinute int, log logger.Logger) *RedisLimiter {
	return &RedisLimiter{
		client:    client,
		limit:     requestsPerMinute,
		window:    time.Minute,
		opTimeout: 5 * time.Second,
		prefix:    "rate_limit",
		log:       log,
	}
}

// Allow increments the counter for key's current window and checks it
// against the limit. Redis failures fail open so an outage never blocks
// traffic.
func (r *RedisLimiter) Allow(key string) Decision {
	ctx, cancel := context.WithTimeout(context.Background(), r.opTimeout)
	defer cancel()

	now := time.Now()
	windowIndex := now.Unix() / int64(r.window.Seconds())
	reset := time.Unix((windowIndex+1)*int64(r.window.Seconds()), 0)
	redisKey := fmt.Sprintf("%s:%s:%d", r.prefix, key, windowIndex)

	count, err := r.client.Incr(ctx, redisKey).Result()
	if err != nil {
		r.log.Error("redis rate limiter increment failed", "error", err)
		return Decision{Allowed: true, Limit: r.limit, Remaining: r.limit, Reset: reset}
	}

	if count == 1 {
		if err := r.client.Expire(ctx, redisKey, r.window+time.Second).Err(); err != nil {
			r.log.Warn("redis rate limiter failed to set TTL", "error", err)
		}
	}

	remaining := r.limit - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return Decision{
		Allowed:   count <= int64(r.limit),
		Limit:     r.limit,
		Remaining: remaining,
		Reset:     reset,
	}
}

// Close shuts down the Redis client.
func (r *RedisLimiter) Close() error {
	if r.client == nil {
		return nil
	}
	return r.client.Close()
}
