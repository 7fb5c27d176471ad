package auth

import (
	"context"
	"time"

	"vidtube/internal/cache"

	"github.com/redis/go-redis/v9"
)

// Revoker records access token IDs that must no longer be accepted.
// A nil Redis client turns every call into a no-op.
type Revoker struct {
	rdb *redis.Client
}

// NewRevoker returns a Revoker backed by rdb.
func NewRevoker(rdb *redis.Client) *Revoker {
	return &Revoker{rdb: rdb}
}

// Revoke blacklists jti until expiresAt. Already-expired tokens are not stored.
func (r *Revoker) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	if r == nil || r.rdb == nil || jti == "" {
		return nil
	}
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	return r.rdb.Set(ctx, cache.BlacklistKey(jti), "1", ttl).Err()
}

// IsRevoked reports whether jti has been blacklisted.
func (r *Revoker) IsRevoked(ctx context.Context, jti string) (bool, error) {
	if r == nil || r.rdb == nil || jti == "" {
		return false, nil
	}
	n, err := r.rdb.Exists(ctx, cache.BlacklistKey(jti)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
