package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// mockHealthCheck implements HealthCheck for testing
type mockHealthCheck struct {
	name    string
	healthy bool
}

func (m *mockHealthCheck) Name() string {
	return m.name
}

func (m *mockHealthCheck) Check(ctx context.Context) error {
	if !m.healthy {
		return fmt.Errorf("mock health check failed")
	}
	return nil
}

// slowHealthCheck blocks until its delay passes or the context ends
type slowHealthCheck struct {
	name  string
	delay time.Duration
}

func (s *slowHealthCheck) Name() string {
	return s.name
}

func (s *slowHealthCheck) Check(ctx context.Context) error {
	select {
	case <-time.After(s.delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func TestHealthChecker_AddRemoveCheck(t *testing.T) {
	hc := NewHealthChecker()

	check := &mockHealthCheck{name: "test", healthy: true}
	hc.AddCheck(check)
	hc.AddCheck(&mockHealthCheck{name: "test", healthy: false})

	if len(hc.checks) != 1 {
		t.Errorf("Expected same-name check to be replaced, got %d checks", len(hc.checks))
	}

	hc.RemoveCheck("test")
	if len(hc.checks) != 0 {
		t.Errorf("Expected 0 checks after removal, got %d", len(hc.checks))
	}
}

func TestHealthChecker_CheckHealth(t *testing.T) {
	tests := []struct {
		name           string
		checks         []*mockHealthCheck
		expectedStatus string
	}{
		{"no checks", nil, "healthy"},
		{"all healthy", []*mockHealthCheck{{name: "a", healthy: true}, {name: "b", healthy: true}}, "healthy"},
		{"one unhealthy", []*mockHealthCheck{{name: "a", healthy: true}, {name: "b", healthy: false}}, "unhealthy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hc := NewHealthChecker()
			for _, c := range tt.checks {
				hc.AddCheck(c)
			}

			status := hc.CheckHealth(context.Background())

			if status.Status != tt.expectedStatus {
				t.Errorf("Expected status %s, got %s", tt.expectedStatus, status.Status)
			}
			if len(status.Checks) != len(tt.checks) {
				t.Errorf("Expected %d check results, got %d", len(tt.checks), len(status.Checks))
			}
			for _, c := range tt.checks {
				if !c.healthy && status.Checks[c.name].Message == "" {
					t.Errorf("Expected failure message for %s", c.name)
				}
			}
		})
	}
}

func TestHealthChecker_CheckHealthWithTimeout(t *testing.T) {
	hc := NewHealthChecker()
	hc.AddCheck(&slowHealthCheck{name: "slow", delay: time.Second})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	status := hc.CheckHealth(ctx)

	if status.Checks["slow"].Status != "unhealthy" {
		t.Errorf("Expected slow check to fail on timeout, got %+v", status.Checks["slow"])
	}
}

func TestHealthChecker_Handler(t *testing.T) {
	tests := []struct {
		name               string
		path               string
		healthy            bool
		expectedStatusCode int
	}{
		{"liveness", "/health", false, http.StatusOK},
		{"ready", "/ready", true, http.StatusOK},
		{"not ready", "/ready", false, http.StatusServiceUnavailable},
		{"unknown path", "/metrics", true, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hc := NewHealthChecker()
			hc.AddCheck(&mockHealthCheck{name: "test", healthy: tt.healthy})

			req := httptest.NewRequest("GET", tt.path, nil)
			w := httptest.NewRecorder()
			hc.Handler().ServeHTTP(w, req)

			if w.Code != tt.expectedStatusCode {
				t.Errorf("Expected status code %d, got %d", tt.expectedStatusCode, w.Code)
			}
			if tt.expectedStatusCode == http.StatusNotFound {
				return
			}
			if ct := w.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Expected Content-Type application/json, got %s", ct)
			}
			var body map[string]any
			if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
				t.Fatalf("Failed to decode response: %v", err)
			}
			if body["status"] == "" {
				t.Error("Expected a status field")
			}
		})
	}
}

func TestMemoryHealthCheck(t *testing.T) {
	tests := []struct {
		name        string
		maxMemoryMB int64
		currentMB   int64
		expectError bool
	}{
		{"under limit", 100, 50, false},
		{"at limit", 100, 100, false},
		{"over limit", 100, 150, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			check := NewMemoryHealthCheck(tt.maxMemoryMB, func() int64 { return tt.currentMB })

			if check.Name() != "memory" {
				t.Errorf("Expected name 'memory', got %s", check.Name())
			}
			err := check.Check(context.Background())
			if (err != nil) != tt.expectError {
				t.Errorf("Check() error = %v, expectError %v", err, tt.expectError)
			}
		})
	}
}
