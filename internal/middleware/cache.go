package middleware

import (
	"fmt"

	"github.com/gin-gonic/gin"
)

// CacheControl sets a public max-age on responses. The leaderboard
// route uses it with the same TTL the server-side standings cache
// runs on, so browser and proxy caches age out in step.
func CacheControl(maxAgeSeconds int) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", fmt.Sprintf("public, max-age=%d", maxAgeSeconds))
		c.Next()
	}
}

// ImmutableCacheControl marks responses as cacheable forever. Uploaded
// media gets UUID filenames and is never rewritten in place, so
// clients may hold it for a year without revalidating.
func ImmutableCacheControl() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", "public, max-age=31536000, immutable")
		c.Next()
	}
}
