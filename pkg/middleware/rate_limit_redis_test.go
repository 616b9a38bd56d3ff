package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	mr "github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pinClock(t *testing.T, ts time.Time) *time.Time {
	t.Helper()
	cur := ts
	now = func() time.Time { return cur }
	t.Cleanup(func() { now = time.Now })
	return &cur
}

func hit(r http.Handler, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/contact", nil)
	req.RemoteAddr = ip + ":40000"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRedisRateLimitMiddleware_FixedWindow(t *testing.T) {
	m, err := mr.Run()
	require.NoError(t, err)
	defer m.Close()
	clock := pinClock(t, time.Unix(1_700_000_080, 0))

	r := gin.New()
	// 0.05 rps over 60s = 3, plus burst 1
	r.POST("/api/contact", RedisRateLimitMiddleware(redis.NewClient(&redis.Options{Addr: m.Addr()}), "contact", 0.05, 1, time.Minute),
		func(c *gin.Context) { c.Status(http.StatusAccepted) })

	for i := 0; i < 4; i++ {
		require.Equal(t, http.StatusAccepted, hit(r, "203.0.113.7").Code, "request %d", i)
	}
	w := hit(r, "203.0.113.7")
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "20", w.Header().Get("Retry-After"))

	// other visitors have their own counter
	assert.Equal(t, http.StatusAccepted, hit(r, "198.51.100.2").Code)

	// next window
	*clock = clock.Add(20 * time.Second)
	assert.Equal(t, http.StatusAccepted, hit(r, "203.0.113.7").Code)
	assert.Greater(t, m.TTL("corpsite:rl:contact:ip:203.0.113.7:28333335"), time.Duration(0))
}

func TestRedisRateLimitMiddleware_RedisDown(t *testing.T) {
	m, err := mr.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: m.Addr(), MaxRetries: -1})
	m.Close()

	r := gin.New()
	r.POST("/api/contact", RedisRateLimitMiddleware(client, "contact-down", 1, 1, time.Second), func(c *gin.Context) { c.Status(http.StatusOK) })
	assert.Equal(t, http.StatusInternalServerError, hit(r, "203.0.113.9").Code)
}

func TestRedisRateLimitMiddleware_NilClientFallsBack(t *testing.T) {
	r := gin.New()
	r.GET("/f", RedisRateLimitMiddleware(nil, "test-fallback", 0.1, 1, time.Second), func(c *gin.Context) { c.Status(http.StatusOK) })

	w1 := httptest.NewRecorder()
	r.ServeHTTP(w1, httptest.NewRequest("GET", "/f", nil))
	require.Equal(t, http.StatusOK, w1.Code)
	w2 := httptest.NewRecorder()
	r.ServeHTTP(w2, httptest.NewRequest("GET", "/f", nil))
	require.Equal(t, http.StatusTooManyRequests, w2.Code)
}
