package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ishrakaat/internal/middleware"

	"github.com/gin-gonic/gin"
)

func TestRateLimitBlocksOverLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.RateLimit(middleware.NewInMemoryRateLimiter(2, time.Minute)))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	hit := func() int {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
		return w.Code
	}
	if code := hit(); code != http.StatusOK {
		t.Fatalf("first hit = %d, want 200", code)
	}
	if code := hit(); code != http.StatusOK {
		t.Fatalf("second hit = %d, want 200", code)
	}
	if code := hit(); code != http.StatusTooManyRequests {
		t.Errorf("third hit = %d, want 429", code)
	}
}

func TestRateLimitWindowResets(t *testing.T) {
	limiter := middleware.NewInMemoryRateLimiter(1, 10*time.Millisecond)
	if !limiter.Allow("1.2.3.4") {
		t.Fatal("first request must pass")
	}
	if limiter.Allow("1.2.3.4") {
		t.Fatal("second request in window must be blocked")
	}
	time.Sleep(15 * time.Millisecond)
	if !limiter.Allow("1.2.3.4") {
		t.Error("request after window expiry must pass")
	}
}

// Routes registered before the limiter is attached must not be throttled.
// The deployment relies on this ordering to keep gateway webhook redeliveries
// out of the limiter's reach.
func TestRoutesBeforeLimiterAreExempt(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	api := r.Group("/api/v1")
	api.POST("/webhooks/paystack", func(c *gin.Context) { c.Status(http.StatusOK) })
	api.Use(middleware.RateLimit(middleware.NewInMemoryRateLimiter(1, time.Minute)))
	api.GET("/limited", func(c *gin.Context) { c.Status(http.StatusOK) })

	hit := func(method, path string) int {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(method, path, nil))
		return w.Code
	}

	for i := 0; i < 5; i++ {
		if code := hit(http.MethodPost, "/api/v1/webhooks/paystack"); code != http.StatusOK {
			t.Fatalf("webhook delivery %d = %d, want 200", i+1, code)
		}
	}
	if code := hit(http.MethodGet, "/api/v1/limited"); code != http.StatusOK {
		t.Fatalf("first limited hit = %d, want 200", code)
	}
	if code := hit(http.MethodGet, "/api/v1/limited"); code != http.StatusTooManyRequests {
		t.Errorf("second limited hit = %d, want 429", code)
	}
}
