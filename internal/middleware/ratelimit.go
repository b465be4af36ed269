package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimiter hands out one token bucket per client IP. It is an injected
// component with an explicit lifetime: construct it in the container, use
// its Middleware, and Stop it on shutdown.
type RateLimiter struct {
	limit rate.Limit
	burst int

	mu      sync.Mutex
	buckets map[string]*bucketEntry

	done chan struct{}
	once sync.Once
}

type bucketEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

const bucketIdleTTL = 10 * time.Minute

func NewRateLimiter(perSecond float64, burst int) *RateLimiter {
	rl := &RateLimiter{
		limit:   rate.Limit(perSecond),
		burst:   burst,
		buckets: make(map[string]*bucketEntry),
		done:    make(chan struct{}),
	}
	go rl.janitor()
	return rl
}

// Allow reports whether the client identified by key may proceed.
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	entry, ok := rl.buckets[key]
	if !ok {
		entry = &bucketEntry{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.buckets[key] = entry
	}
	entry.lastSeen = time.Now()
	rl.mu.Unlock()

	return entry.limiter.Allow()
}

// Middleware rejects requests over the per-IP budget with 429.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.Allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}

// Stop terminates the janitor goroutine.
func (rl *RateLimiter) Stop() {
	rl.once.Do(func() {
		close(rl.done)
	})
}

// janitor evicts buckets idle beyond the TTL so the map does not grow with
// every IP ever seen.
func (rl *RateLimiter) janitor() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-rl.done:
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-bucketIdleTTL)
			rl.mu.Lock()
			for key, entry := range rl.buckets {
				if entry.lastSeen.Before(cutoff) {
					delete(rl.buckets, key)
				}
			}
			rl.mu.Unlock()
		}
	}
}
