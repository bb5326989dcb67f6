package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/extlabs/ext/pkg/observability/logger"
)

func TestRedisLimiterCountsWithinWindow(t *testing.T) {
	t.Parallel()

	client := newFakeRedisClient()
	limiter := newRedisLimiterFromClient(client, 3, logger.NewNop())
	defer limiter.Close()

	key := "10.0.0.1"
	for i := 0; i < 3; i++ {
		decision := limiter.Allow(key)
		if !decision.Allowed {
			t.Fatalf("expected request %d to be allowed", i+1)
		}
		if decision.Remaining != 3-(i+1) {
			t.Errorf("request %d: expected remaining %d, got %d", i+1, 3-(i+1), decision.Remaining)
		}
	}

	decision := limiter.Allow(key)
	if decision.Allowed {
		t.Fatal("expected request beyond limit to be rejected")
	}
	if decision.Remaining != 0 {
		t.Errorf("expected zero remaining, got %d", decision.Remaining)
	}
	if !decision.Reset.After(time.Now()) {
		t.Error("expected reset time in the future")
	}
}

func TestRedisLimiterKeysAreIndependent(t *testing.T) {
	t.Parallel()

	client := newFakeRedisClient()
	limiter := newRedisLimiterFromClient(client, 1, logger.NewNop())
	defer limiter.Close()

	if !limiter.Allow("a").Allowed {
		t.Fatal("first request for key a should pass")
	}
	if limiter.Allow("a").Allowed {
		t.Fatal("second request for key a should be rejected")
	}
	if !limiter.Allow("b").Allowed {
		t.Fatal("key b should have its own counter")
	}
}

func TestRedisLimiterFailsOpen(t *testing.T) {
	t.Parallel()

	client := newFakeRedisClient()
	client.incrErr = errors.New("connection refused")
	limiter := newRedisLimiterFromClient(client, 1, logger.NewNop())
	defer limiter.Close()

	for i := 0; i < 5; i++ {
		if !limiter.Allow("x").Allowed {
			t.Fatal("limiter must fail open when redis is unavailable")
		}
	}
}

type fakeRedisClient struct {
	data    map[string]int64
	expires map[string]time.Time
	incrErr error
}

func newFakeRedisClient() *fakeRedisClient {
	return &fakeRedisClient{
		data:    make(map[string]int64),
		expires: make(map[string]time.Time),
	}
}

func (c *fakeRedisClient) Incr(ctx context.Context, key string) *redis.IntCmd {
	if c.incrErr != nil {
		return redis.NewIntResult(0, c.incrErr)
	}
	if exp, ok := c.expires[key]; ok && time.Now().After(exp) {
		delete(c.data, key)
		delete(c.expires, key)
	}
	value := c.data[key] + 1
	c.data[key] = value
	return redis.NewIntResult(value, nil)
}

func (c *fakeRedisClient) Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd {
	c.expires[key] = time.Now().Add(expiration)
	return redis.NewBoolResult(true, nil)
}

func (c *fakeRedisClient) Ping(ctx context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (c *fakeRedisClient) Close() error { return nil }
