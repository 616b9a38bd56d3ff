package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/corpsite/corpsite-api/pkg/metrics"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// limiterIdleTTL is how long a client's bucket survives without traffic. A
// bucket idle that long has refilled completely, so dropping it is invisible.
const limiterIdleTTL = 10 * time.Minute

type limiterEntry struct {
	lim  *rate.Limiter
	seen time.Time
}

// limiterStore keeps one token bucket per client key and evicts idle ones.
type limiterStore struct {
	mu        sync.Mutex
	m         map[string]*limiterEntry
	rps       float64
	burst     int
	idle      time.Duration
	lastSweep time.Time
}

func newLimiterStore(rps float64, burst int) *limiterStore {
	return &limiterStore{m: map[string]*limiterEntry{}, rps: rps, burst: burst, idle: limiterIdleTTL, lastSweep: now()}
}

// get returns (and lazily creates) a token-bucket limiter for the given key
func (s *limiterStore) get(key string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := now()
	if t.Sub(s.lastSweep) >= s.idle {
		for k, e := range s.m {
			if t.Sub(e.seen) >= s.idle {
				delete(s.m, k)
			}
		}
		s.lastSweep = t
	}
	e, ok := s.m[key]
	if !ok {
		e = &limiterEntry{lim: rate.NewLimiter(rate.Limit(s.rps), s.burst)}
		s.m[key] = e
	}
	e.seen = t
	return e.lim
}

func (s *limiterStore) size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.m)
}

// clientKey prefers the authenticated subject (NAT-friendly) and falls back to the client IP.
func clientKey(c *gin.Context) string {
	if sub, ok := Claims(c)["sub"].(string); ok && sub != "" {
		return "sub:" + sub
	}
	ip := c.ClientIP()
	if ip == "" {
		ip = "unknown"
	}
	return "ip:" + ip
}

// RateLimitMiddleware returns a Gin middleware enforcing an in-process token-bucket limit per client.
// scope names the protected surface ("contact", "login", ...) and labels the metrics; each
// middleware instance keeps its own buckets.
// rps = allowed events per second, burst = maximum tokens in bucket.
func RateLimitMiddleware(scope string, rps float64, burst int) gin.HandlerFunc {
	store := newLimiterStore(rps, burst)
	return func(c *gin.Context) {
		if !store.get(clientKey(c)).Allow() {
			c.Header("Retry-After", "1")
			metrics.RateLimitRejected.WithLabelValues(scope).Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		metrics.RateLimitAllowed.WithLabelValues(scope).Inc()
		c.Next()
	}
}
