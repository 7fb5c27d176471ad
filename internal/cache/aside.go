package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"vidtube/internal/middleware"
	"vidtube/internal/observability"

	"github.com/redis/go-redis/v9"
)

// GetJSON reads key and unmarshals it into dest.
// Returns (true, nil) if found, (false, nil) if missing or no client is configured.
func GetJSON(ctx context.Context, rdb *redis.Client, key string, dest any) (bool, error) {
	if rdb == nil {
		return false, nil
	}
	s, err := rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal([]byte(s), dest); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON marshals v and stores it under key with ttl.
func SetJSON(ctx context.Context, rdb *redis.Client, key string, v any, ttl time.Duration) error {
	if rdb == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return rdb.Set(ctx, key, b, ttl).Err()
}

// Aside reads key into dest, falling back to fetch on a miss and storing the result.
// Redis failures degrade to calling fetch; only fetch errors are returned.
func Aside(ctx context.Context, rdb *redis.Client, key string, dest any, ttl time.Duration, fetch func() error) error {
	ns := namespace(key)

	found, err := GetJSON(ctx, rdb, key, dest)
	switch {
	case err != nil:
		observability.CacheLookups.WithLabelValues(ns, "error").Inc()
		middleware.Logger.WarnContext(ctx, "cache read failed", slog.String("key", key), slog.String("error", err.Error()))
	case found:
		observability.CacheLookups.WithLabelValues(ns, "hit").Inc()
		return nil
	default:
		observability.CacheLookups.WithLabelValues(ns, "miss").Inc()
	}

	if err := fetch(); err != nil {
		return err
	}

	if err := SetJSON(ctx, rdb, key, dest, ttl); err != nil {
		middleware.Logger.WarnContext(ctx, "cache write failed", slog.String("key", key), slog.String("error", err.Error()))
	}
	return nil
}

func namespace(key string) string {
	if i := strings.IndexByte(key, ':'); i > 0 {
		return key[:i]
	}
	return key
}
