package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestRateLimiterAllowsBurstThenThrottles(t *testing.T) {
	rl := NewRateLimiter(1, 3)
	defer rl.Stop()

	for i := 0; i < 3; i++ {
		assert.True(t, rl.Allow("10.0.0.1"), "request %d should pass within burst", i)
	}
	assert.False(t, rl.Allow("10.0.0.1"))

	// Buckets are per key; a different client is unaffected.
	assert.True(t, rl.Allow("10.0.0.2"))
}

func TestRateLimiterMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rl := NewRateLimiter(1, 1)
	defer rl.Stop()

	router := gin.New()
	router.GET("/ping", rl.Middleware(), func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})

	do := func() int {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.RemoteAddr = "10.0.0.9:1234"
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, do())
	assert.Equal(t, http.StatusTooManyRequests, do())
}

func TestRateLimiterStopIsIdempotent(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	rl.Stop()
	rl.Stop()
}
