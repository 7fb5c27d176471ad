// Package cache holds the Redis client and the cache-aside helpers built on it.
package cache

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"vidtube/internal/middleware"
	"vidtube/internal/observability"

	"github.com/redis/go-redis/v9"
)

// errorCounter counts failed commands by name. A missing key is not a failure.
type errorCounter struct{}

func (errorCounter) DialHook(next redis.DialHook) redis.DialHook {
	return next
}

func (errorCounter) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		err := next(ctx, cmd)
		countFailure(cmd.Name(), err)
		return err
	}
}

// Pipelines (rate limiting uses one) are counted per failing command, not once per batch.
func (errorCounter) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		err := next(ctx, cmds)
		for _, cmd := range cmds {
			countFailure(cmd.Name(), cmd.Err())
		}
		return err
	}
}

func countFailure(name string, err error) {
	if err != nil && !errors.Is(err, redis.Nil) {
		observability.RedisErrorRate.WithLabelValues(name).Inc()
	}
}

// clientOptions accepts either a redis:// URL or a bare host:port.
func clientOptions(addr string) (*redis.Options, error) {
	addr = strings.TrimSpace(addr)
	if strings.Contains(addr, "://") {
		return redis.ParseURL(addr)
	}
	return &redis.Options{Addr: addr}, nil
}

// InitRedis connects to addr and returns nil when Redis is unreachable. Every caller treats
// a nil client as "no cache": lookups fall through, revocation is best-effort and the
// readiness probe reports Redis as down.
func InitRedis(addr string) *redis.Client {
	opts, err := clientOptions(addr)
	if err != nil {
		middleware.Logger.Warn("invalid REDIS_URL, continuing without cache",
			slog.String("addr", addr), slog.String("error", err.Error()))
		return nil
	}

	c := redis.NewClient(opts)
	c.AddHook(errorCounter{})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := c.Ping(ctx).Err(); err != nil {
		middleware.Logger.Warn("redis unavailable, continuing without cache", slog.String("error", err.Error()))
		_ = c.Close()
		return nil
	}

	middleware.Logger.Info("redis connected", slog.String("addr", opts.Addr))
	return c
}
