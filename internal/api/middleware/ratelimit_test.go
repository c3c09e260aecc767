package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"

	"github.com/m04kA/kumelen-agenda/pkg/logger"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func newLimiter(t *testing.T, limit int, failOpen bool) (*RateLimiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return NewRateLimiter(rdb, RateLimitConfig{Limit: limit, Window: time.Hour, FailOpen: failOpen}, logger.NewNop()), mr
}

func doRequest(h http.Handler, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/public/availability", nil)
	req.Header.Set("X-Forwarded-For", ip+", 10.0.0.1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRateLimiter_BlocksAfterLimit(t *testing.T) {
	limiter, _ := newLimiter(t, 2, false)
	h := limiter.Middleware(okHandler())

	assert.Equal(t, http.StatusOK, doRequest(h, "203.0.113.5").Code)
	assert.Equal(t, http.StatusOK, doRequest(h, "203.0.113.5").Code)

	rec := doRequest(h, "203.0.113.5")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":"rate_limited"`)
	assert.Equal(t, "3600", rec.Header().Get("Retry-After"))

	// другой клиент считается отдельно
	assert.Equal(t, http.StatusOK, doRequest(h, "198.51.100.9").Code)
}

func TestRateLimiter_SetsExpiry(t *testing.T) {
	limiter, mr := newLimiter(t, 5, false)
	h := limiter.Middleware(okHandler())

	doRequest(h, "203.0.113.5")

	keys := mr.Keys()
	if assert.Len(t, keys, 1) {
		assert.Equal(t, time.Hour, mr.TTL(keys[0]))
	}
}

func TestRateLimiter_RedisDown(t *testing.T) {
	t.Run("fail open", func(t *testing.T) {
		limiter, mr := newLimiter(t, 1, true)
		mr.Close()

		assert.Equal(t, http.StatusOK, doRequest(limiter.Middleware(okHandler()), "203.0.113.5").Code)
	})

	t.Run("fail closed", func(t *testing.T) {
		limiter, mr := newLimiter(t, 1, false)
		mr.Close()

		assert.Equal(t, http.StatusInternalServerError, doRequest(limiter.Middleware(okHandler()), "203.0.113.5").Code)
	})
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.1:54321"
	assert.Equal(t, "192.0.2.1", clientIP(req))

	req.Header.Set("X-Forwarded-For", " 203.0.113.5 , 10.0.0.1")
	assert.Equal(t, "203.0.113.5", clientIP(req))
}
