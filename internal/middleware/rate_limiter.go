package middleware

import (
	"net/http"
	"sync"
	"time"

	"vendapos/internal/apierror"

	"github.com/gin-gonic/gin"
)

// RateLimiter is a token-bucket limiter keyed by client IP. It mainly guards
// the login endpoint against credential stuffing; the stale-bucket janitor
// keeps memory bounded.
func RateLimiter(ratePerMinute int, burst int) gin.HandlerFunc {
	type bucket struct {
		tokens   float64
		lastSeen time.Time
	}

	var (
		mu      sync.Mutex
		buckets = map[string]*bucket{}
	)
	refill := float64(ratePerMinute) / 60.0

	go func() {
		for range time.Tick(5 * time.Minute) {
			mu.Lock()
			for ip, b := range buckets {
				if time.Since(b.lastSeen) > 10*time.Minute {
					delete(buckets, ip)
				}
			}
			mu.Unlock()
		}
	}()

	return func(c *gin.Context) {
		ip := c.ClientIP()

		mu.Lock()
		b, ok := buckets[ip]
		now := time.Now()
		if !ok {
			b = &bucket{tokens: float64(burst), lastSeen: now}
			buckets[ip] = b
		}
		b.tokens += now.Sub(b.lastSeen).Seconds() * refill
		if b.tokens > float64(burst) {
			b.tokens = float64(burst)
		}
		b.lastSeen = now

		if b.tokens < 1 {
			mu.Unlock()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, apierror.New("too many requests"))
			return
		}
		b.tokens--
		mu.Unlock()

		c.Next()
	}
}
