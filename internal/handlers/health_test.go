package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/rfaulk/flicklist/internal/database"
	"github.com/rfaulk/flicklist/internal/queue"
)

func TestHealthCheck_BasicMode(t *testing.T) {
	t.Parallel()

	db, err := database.New(filepath.Join(t.TempDir(), "health.db"))
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	checker := NewHealthChecker(db, nil)

	w := httptest.NewRecorder()
	checker.HealthCheck(w, httptest.NewRequest("GET", "/healthz", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp HealthResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "healthy" {
		t.Errorf("status = %q", resp.Status)
	}
	if resp.Checks != nil {
		t.Errorf("basic mode should carry no checks, got %v", resp.Checks)
	}
}

func TestHealthCheck_ExtendedMode(t *testing.T) {
	t.Parallel()

	db, err := database.New(filepath.Join(t.TempDir(), "health.db"))
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	jobQueue := queue.NewMemoryQueue(4)
	t.Cleanup(func() { _ = jobQueue.Close() })

	checker := NewHealthChecker(db, jobQueue)

	w := httptest.NewRecorder()
	checker.HealthCheck(w, httptest.NewRequest("GET", "/healthz?mode=extended", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp HealthResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Checks["database"] != "healthy" {
		t.Errorf("database check = %q", resp.Checks["database"])
	}
	if resp.Checks["queue"] != "healthy" {
		t.Errorf("queue check = %q", resp.Checks["queue"])
	}
}

func TestHealthCheck_ExtendedMode_UnhealthyQueue(t *testing.T) {
	t.Parallel()

	db, err := database.New(filepath.Join(t.TempDir(), "health.db"))
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	jobQueue := queue.NewMemoryQueue(4)
	_ = jobQueue.Close()

	checker := NewHealthChecker(db, jobQueue)

	w := httptest.NewRecorder()
	checker.HealthCheck(w, httptest.NewRequest("GET", "/healthz?mode=extended", nil))

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", w.Code)
	}
	var resp HealthResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "unhealthy" {
		t.Errorf("status = %q", resp.Status)
	}
}
