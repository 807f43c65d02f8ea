package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/planbook/planbook/internal/cache"
	"github.com/planbook/planbook/internal/metrics"
)

type fakeLimiter struct {
	result *cache.RateLimitResult
	err    error
	seen   []string
}

func (f *fakeLimiter) CheckIP(_ context.Context, ip string) (*cache.RateLimitResult, error) {
	f.seen = append(f.seen, ip)
	return f.result, f.err
}

func TestRateLimitIP(t *testing.T) {
	tests := []struct {
		name           string
		enabled        bool
		limiter        *fakeLimiter
		wantStatus     int
		wantRetryAfter string
		wantLimited    uint64
	}{
		{
			name:       "allowed",
			enabled:    true,
			limiter:    &fakeLimiter{result: &cache.RateLimitResult{Allowed: true, Remaining: 4}},
			wantStatus: http.StatusOK,
		},
		{
			name:           "rejected",
			enabled:        true,
			limiter:        &fakeLimiter{result: &cache.RateLimitResult{RetryAfter: 1500 * time.Millisecond}},
			wantStatus:     http.StatusTooManyRequests,
			wantRetryAfter: "2",
			wantLimited:    1,
		},
		{
			name:           "sub-second retry rounds up to one",
			enabled:        true,
			limiter:        &fakeLimiter{result: &cache.RateLimitResult{}},
			wantStatus:     http.StatusTooManyRequests,
			wantRetryAfter: "1",
			wantLimited:    1,
		},
		{
			name:       "limiter error fails open",
			enabled:    true,
			limiter:    &fakeLimiter{err: errors.New("redis down")},
			wantStatus: http.StatusOK,
		},
		{
			name:       "disabled",
			enabled:    false,
			limiter:    &fakeLimiter{result: &cache.RateLimitResult{}},
			wantStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := metrics.NewInMemory()
			handler := RateLimitIP(RateLimitConfig{
				Logger:  discardLogger(),
				Limiter: tt.limiter,
				Metrics: recorder,
				Enabled: tt.enabled,
			})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodPost, "/login", nil)
			req.RemoteAddr = "192.0.2.10:5555"
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if got := rec.Header().Get("Retry-After"); got != tt.wantRetryAfter {
				t.Errorf("Retry-After = %q, want %q", got, tt.wantRetryAfter)
			}
			if got := recorder.Snapshot().RateLimited; got != tt.wantLimited {
				t.Errorf("rate limited count = %d, want %d", got, tt.wantLimited)
			}
			if tt.enabled && (len(tt.limiter.seen) != 1 || tt.limiter.seen[0] != "192.0.2.10") {
				t.Errorf("limiter saw %v, want [192.0.2.10]", tt.limiter.seen)
			}
		})
	}
}

func TestRateLimitIP_LocalLimiter(t *testing.T) {
	limiter := cache.NewLocalLimiter(0.01, 2)
	t.Cleanup(limiter.Close)

	handler := RateLimitIP(RateLimitConfig{
		Logger:  discardLogger(),
		Limiter: limiter,
		Enabled: true,
	})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/register", nil)
		req.RemoteAddr = "203.0.113.9:40000"
		// a fresh forwarded header per request must not yield a fresh bucket
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("198.51.100.%d", i+1))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}

	want := []int{http.StatusCreated, http.StatusCreated, http.StatusTooManyRequests}
	for i := range want {
		if codes[i] != want[i] {
			t.Fatalf("codes = %v, want %v", codes, want)
		}
	}
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name       string
		xff        string
		xri        string
		remoteAddr string
		want       string
	}{
		{name: "forwarded header ignored", xff: "203.0.113.1, 10.0.0.1", remoteAddr: "10.0.0.2:1234", want: "10.0.0.2"},
		{name: "real ip header ignored", xri: "203.0.113.2", remoteAddr: "10.0.0.2:1234", want: "10.0.0.2"},
		{name: "remote addr port stripped", remoteAddr: "192.0.2.1:1234", want: "192.0.2.1"},
		{name: "ipv6 remote addr", remoteAddr: "[2001:db8::1]:443", want: "2001:db8::1"},
		{name: "remote addr without port", remoteAddr: "192.0.2.1", want: "192.0.2.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xri != "" {
				req.Header.Set("X-Real-IP", tt.xri)
			}
			if got := getClientIP(req); got != tt.want {
				t.Errorf("getClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}
