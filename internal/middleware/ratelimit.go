package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// FailPolicy defines the behavior when the rate limit store (Redis) is unavailable.
type FailPolicy int

const (
	// FailOpen allows the request to proceed if Redis is unavailable.
	FailOpen FailPolicy = iota
	// FailClosed blocks the request (503 Service Unavailable) if Redis is unavailable.
	FailClosed
)

// ErrLimiterUnavailable is returned when no Redis client is configured.
var ErrLimiterUnavailable = errors.New("rate limiter store unavailable")

// CheckRateLimit counts a hit for (resource, id) in a fixed window and reports whether it is allowed.
// Limits are not enforced when APP_ENV is "test" or "development".
func CheckRateLimit(ctx context.Context, rdb *redis.Client, resource, id string, limit int, window time.Duration) (bool, error) {
	switch os.Getenv("APP_ENV") {
	case "", "test", "development":
		return true, nil
	}

	return countHit(ctx, rdb, resource, id, limit, window)
}

func countHit(ctx context.Context, rdb *redis.Client, resource, id string, limit int, window time.Duration) (bool, error) {
	if rdb == nil {
		return false, ErrLimiterUnavailable
	}

	key := fmt.Sprintf("rl:%s:%s", resource, id)

	pipe := rdb.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}
	return incr.Val() <= int64(limit), nil
}

// RateLimit returns a Fiber middleware enforcing `limit` requests per `window`, failing open.
// It keys by authenticated user when available, otherwise by remote IP.
func RateLimit(rdb *redis.Client, limit int, window time.Duration, name string) fiber.Handler {
	return RateLimitWithPolicy(rdb, limit, window, FailOpen, name)
}

// RateLimitWithPolicy returns a Fiber middleware enforcing `limit` requests per `window` with a specific failure policy.
func RateLimitWithPolicy(rdb *redis.Client, limit int, window time.Duration, policy FailPolicy, name string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := "ip:" + c.IP()
		if uid, ok := c.Locals("userID").(uint); ok {
			id = fmt.Sprintf("user:%d", uid)
		}

		allowed, err := CheckRateLimit(c.UserContext(), rdb, name, id, limit, window)
		if err != nil {
			if policy == FailClosed {
				Logger.WarnContext(c.UserContext(), "rate limit store unavailable, failing closed",
					slog.String("resource", name), slog.String("error", err.Error()))
				return fiber.NewError(fiber.StatusServiceUnavailable, "Rate limit unavailable")
			}
			return c.Next()
		}

		if !allowed {
			return fiber.NewError(fiber.StatusTooManyRequests, "Too many requests, please try again later")
		}
		return c.Next()
	}
}
