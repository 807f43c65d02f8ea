package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

// mockHealthChecker is a mock implementation of HealthChecker for testing.
type mockHealthChecker struct {
	err error
}

func (m *mockHealthChecker) Ping(ctx context.Context) error {
	return m.err
}

func decodeHealth(t *testing.T, rec *httptest.ResponseRecorder) HealthResponse {
	t.Helper()
	var response HealthResponse
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return response
}

func TestHealthHandler_Healthz(t *testing.T) {
	h := NewHealthHandler("postgres", nil, nil)

	rec := httptest.NewRecorder()
	h.Healthz(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rec.Code)
	}
	if response := decodeHealth(t, rec); response.Status != "ok" {
		t.Errorf("expected status 'ok', got %s", response.Status)
	}
}

func TestHealthHandler_Readyz(t *testing.T) {
	tests := []struct {
		name        string
		storageName string
		storage     HealthChecker
		cache       HealthChecker
		wantCode    int
		wantChecks  map[string]string
	}{
		{
			name:        "all healthy",
			storageName: "postgres",
			storage:     &mockHealthChecker{},
			cache:       &mockHealthChecker{},
			wantCode:    http.StatusOK,
			wantChecks:  map[string]string{"postgres": "ok", "redis": "ok"},
		},
		{
			name:        "database unhealthy",
			storageName: "postgres",
			storage:     &mockHealthChecker{err: errors.New("connection refused")},
			cache:       &mockHealthChecker{},
			wantCode:    http.StatusServiceUnavailable,
			wantChecks:  map[string]string{"postgres": "error: connection refused", "redis": "ok"},
		},
		{
			name:        "redis unhealthy",
			storageName: "postgres",
			storage:     &mockHealthChecker{},
			cache:       &mockHealthChecker{err: errors.New("i/o timeout")},
			wantCode:    http.StatusServiceUnavailable,
			wantChecks:  map[string]string{"postgres": "ok", "redis": "error: i/o timeout"},
		},
		{
			name:        "memory backend without redis",
			storageName: "memory",
			storage:     &mockHealthChecker{},
			wantCode:    http.StatusOK,
			wantChecks:  map[string]string{"memory": "ok", "redis": "not configured"},
		},
		{
			name:        "missing storage is not ready",
			storageName: "postgres",
			wantCode:    http.StatusServiceUnavailable,
			wantChecks:  map[string]string{"postgres": "not configured", "redis": "not configured"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthHandler(tt.storageName, tt.storage, tt.cache)

			rec := httptest.NewRecorder()
			h.Readyz(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

			if rec.Code != tt.wantCode {
				t.Errorf("expected status %d, got %d", tt.wantCode, rec.Code)
			}
			response := decodeHealth(t, rec)
			for name, want := range tt.wantChecks {
				if got := response.Checks[name]; got != want {
					t.Errorf("check %s = %q, want %q", name, got, want)
				}
			}
		})
	}
}
