package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	PagePrefix      = "page:"
	GroupKeyPrefix  = "group:%s"
	BlacklistPrefix = "blacklist:"
	RateLimitPrefix = "ratelimit:"
)

// GroupTTL bounds how long a slug lookup is served from Redis.
const GroupTTL = 10 * time.Minute

// PageKey is the page cache key for a request path including its query.
func PageKey(originalURL string) string {
	return PagePrefix + originalURL
}

func GroupKey(slug string) string {
	return fmt.Sprintf(GroupKeyPrefix, slug)
}

func BlacklistKey(jti string) string {
	return BlacklistPrefix + jti
}

func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

func InvalidateGroup(ctx context.Context, slug string) {
	Invalidate(ctx, GroupKey(slug))
}
