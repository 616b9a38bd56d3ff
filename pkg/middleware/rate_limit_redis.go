package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/corpsite/corpsite-api/pkg/logger"
	"github.com/corpsite/corpsite-api/pkg/metrics"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// clock for the fixed windows; tests pin it
var now = time.Now

// RedisRateLimitMiddleware is a fixed-window limiter shared by every replica.
// Each client may make floor(rps*window)+burst requests per window of a scope.
// Without a client it falls back to RateLimitMiddleware.
func RedisRateLimitMiddleware(client *redis.Client, scope string, rps float64, burst int, window time.Duration) gin.HandlerFunc {
	if client == nil {
		return RateLimitMiddleware(scope, rps, burst)
	}
	windowSeconds := int64(window.Seconds())
	if windowSeconds <= 0 {
		windowSeconds = 1
	}
	allowed := int64(rps*float64(windowSeconds)) + int64(burst)
	return func(c *gin.Context) {
		ts := now().Unix()
		bucket := ts / windowSeconds
		key := fmt.Sprintf("corpsite:rl:%s:%s:%d", scope, clientKey(c), bucket)

		var incr *redis.IntCmd
		_, err := client.TxPipelined(c.Request.Context(), func(p redis.Pipeliner) error {
			incr = p.Incr(c.Request.Context(), key)
			p.Expire(c.Request.Context(), key, time.Duration(windowSeconds+1)*time.Second)
			return nil
		})
		if err != nil {
			logger.Errorf("rate limit check failed for %s: %v", scope, err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "rate limit check failed"})
			return
		}
		if incr.Val() > allowed {
			retry := (bucket+1)*windowSeconds - ts
			c.Header("Retry-After", strconv.FormatInt(retry, 10))
			metrics.RateLimitRejected.WithLabelValues(scope).Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		metrics.RateLimitAllowed.WithLabelValues(scope).Inc()
		c.Next()
	}
}
