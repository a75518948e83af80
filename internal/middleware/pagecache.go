package middleware

import (
	"fmt"
	"time"

	"postline/internal/cache"
	"postline/internal/observability"

	"github.com/gofiber/fiber/v2"
)

// PageCacheHeader reports HIT or MISS on cached routes.
const PageCacheHeader = "X-Page-Cache"

// CachePage serves GET responses for a route from store for ttl. The key is
// the request path plus query string; signed-in viewers get their own entry
// so personalised chrome is never served to someone else. Only 200 responses
// are stored. Store failures are logged and the request is served uncached.
func CachePage(store cache.PageStore, ttl time.Duration, route string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if store == nil || ttl <= 0 || c.Method() != fiber.MethodGet {
			return c.Next()
		}

		ctx := c.UserContext()
		key := pageKey(c)

		body, ok, err := store.Get(ctx, key)
		switch {
		case err != nil:
			observability.PageCacheResults.WithLabelValues(route, "error").Inc()
			Logger.WarnContext(ctx, "page cache read failed", "key", key, "error", err)
		case ok:
			observability.PageCacheResults.WithLabelValues(route, "hit").Inc()
			c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
			c.Set(PageCacheHeader, "HIT")
			return c.Status(fiber.StatusOK).Send(body)
		default:
			observability.PageCacheResults.WithLabelValues(route, "miss").Inc()
		}

		if err := c.Next(); err != nil {
			return err
		}
		c.Set(PageCacheHeader, "MISS")
		if c.Response().StatusCode() != fiber.StatusOK {
			return nil
		}

		rendered := append([]byte(nil), c.Response().Body()...)
		if err := store.Set(ctx, key, rendered, ttl); err != nil {
			observability.PageCacheResults.WithLabelValues(route, "error").Inc()
			Logger.WarnContext(ctx, "page cache write failed", "key", key, "error", err)
		}
		return nil
	}
}

func pageKey(c *fiber.Ctx) string {
	key := cache.PageKey(c.OriginalURL())
	if uid, ok := CurrentUserID(c); ok {
		key += fmt.Sprintf("#u%d", uid)
	}
	return key
}
