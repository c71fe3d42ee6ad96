package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	redisStore "vaultmarket/internal/adapter/storage/redis"
	"vaultmarket/pkg/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func newRateLimitedRouter(t *testing.T, limit int64) (*gin.Engine, *miniredis.Miniredis) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	store := redisStore.NewRateLimitStore(client)
	rule := RateLimitRule{Limit: limit, Window: time.Minute}

	r := gin.New()
	r.POST("/checkout", RateLimiter(store, "checkout", rule, logger.NewWithWriter("error", nil)), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r, mr
}

func TestRateLimiter(t *testing.T) {
	t.Run("allows requests up to the limit", func(t *testing.T) {
		r, _ := newRateLimitedRouter(t, 2)

		for i := 0; i < 2; i++ {
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/checkout", nil))
			assert.Equal(t, http.StatusOK, w.Code)
		}

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/checkout", nil))
		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.Contains(t, w.Body.String(), "RATE_001")
		assert.NotEmpty(t, w.Header().Get("Retry-After"))
	})

	t.Run("sets rate limit headers", func(t *testing.T) {
		r, _ := newRateLimitedRouter(t, 5)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/checkout", nil))

		assert.Equal(t, "5", w.Header().Get("X-RateLimit-Limit"))
		assert.Equal(t, "4", w.Header().Get("X-RateLimit-Remaining"))
	})

	t.Run("degrades open when the store is down", func(t *testing.T) {
		r, mr := newRateLimitedRouter(t, 1)
		mr.Close()

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/checkout", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	})
}
