package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestMemoryLimiterFixedWindow(t *testing.T) {
	limiter := NewMemoryLimiter(2, time.Minute)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		ok, err := limiter.Allow(ctx, "1.2.3.4")
		if err != nil || !ok {
			t.Fatalf("request %d should pass: ok=%v err=%v", i, ok, err)
		}
	}
	if ok, _ := limiter.Allow(ctx, "1.2.3.4"); ok {
		t.Fatalf("third request should be limited")
	}
	if ok, _ := limiter.Allow(ctx, "5.6.7.8"); !ok {
		t.Fatalf("other client should not be limited")
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	handler := RateLimit(NewMemoryLimiter(1, time.Minute))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "9.9.9.9:1234"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("first request blocked: %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second request should be limited, got %d", rec.Code)
	}
}

func TestClientIPPrefersForwardedFor(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:5678"
	req.Header.Set("X-Forwarded-For", "bogus, 203.0.113.9")
	if got := clientIPForRateLimit(req); got != "203.0.113.9" {
		t.Fatalf("unexpected client ip: %s", got)
	}
	req.Header.Del("X-Forwarded-For")
	if got := clientIPForRateLimit(req); got != "10.0.0.1" {
		t.Fatalf("unexpected fallback ip: %s", got)
	}
}
