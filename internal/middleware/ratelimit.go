package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

type window struct {
	start time.Time
	count int
}

// InMemoryRateLimiter counts requests per key in fixed windows. Good enough
// for a single instance; a shared limiter would need redis.
type InMemoryRateLimiter struct {
	mu      sync.Mutex
	windows map[string]*window
	limit   int
	size    time.Duration
}

func NewInMemoryRateLimiter(limit int, size time.Duration) *InMemoryRateLimiter {
	l := &InMemoryRateLimiter{
		windows: make(map[string]*window),
		limit:   limit,
		size:    size,
	}
	go l.sweep()
	return l
}

func (l *InMemoryRateLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := time.Now()
	w := l.windows[key]
	if w == nil || now.Sub(w.start) >= l.size {
		l.windows[key] = &window{start: now, count: 1}
		return true
	}
	if w.count >= l.limit {
		return false
	}
	w.count++
	return true
}

func (l *InMemoryRateLimiter) sweep() {
	tick := time.NewTicker(time.Minute)
	for range tick.C {
		l.mu.Lock()
		now := time.Now()
		for k, w := range l.windows {
			if now.Sub(w.start) >= l.size {
				delete(l.windows, k)
			}
		}
		l.mu.Unlock()
	}
}

// RateLimit returns a middleware that limits by client IP.
func RateLimit(limiter *InMemoryRateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}
