package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	UserKeyPrefix      = "user:%d"
	BlacklistKeyPrefix = "blacklist:%s"
)

const (
	UserTTL = 5 * time.Minute
)

// UserKey is the cache key of the authenticated-user projection for userID.
func UserKey(userID uint) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}

// BlacklistKey is the key marking an access token ID as revoked.
func BlacklistKey(jti string) string {
	return fmt.Sprintf(BlacklistKeyPrefix, jti)
}

// Invalidate deletes key. Failures are ignored; entries expire on their own.
func Invalidate(ctx context.Context, rdb *redis.Client, key string) {
	if rdb != nil {
		rdb.Del(ctx, key)
	}
}

// InvalidateUser drops the cached projection of userID.
func InvalidateUser(ctx context.Context, rdb *redis.Client, userID uint) {
	Invalidate(ctx, rdb, UserKey(userID))
}
