package middleware

import (
	"context"
	"math"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"mediahub/internal/utils"
	"mediahub/pkg/cache"
	"mediahub/pkg/logger"
	"mediahub/pkg/metrics"
)

// SlidingWindowLimiter admits or rejects one hit against a key.
type SlidingWindowLimiter interface {
	AllowSlidingWindow(ctx context.Context, key string, limit int, window time.Duration, now time.Time) (*cache.WindowResult, error)
}

// RateLimit gates a route group per authenticated user (or client IP) with a
// redis sliding window. Limiter failures let the request through.
func RateLimit(limiter SlidingWindowLimiter, scope string, limit int, window time.Duration, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil || limit <= 0 {
			c.Next()
			return
		}

		subject := c.GetString(utils.ContextUserID)
		if subject == "" {
			subject = "ip:" + c.ClientIP()
		}
		key := utils.CacheRateLimitPrefix + scope + ":" + subject

		result, err := limiter.AllowSlidingWindow(c.Request.Context(), key, limit, window, time.Now())
		if err != nil {
			log.WithContext(c.Request.Context()).WithError(err).Warn("Rate limiter unavailable")
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(result.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))

		if !result.Allowed {
			metrics.RecordRateLimited()
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(result.RetryAfter.Seconds()))))
			utils.TooManyRequestsResponse(c)
			c.Abort()
			return
		}

		c.Next()
	}
}
