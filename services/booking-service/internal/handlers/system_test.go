package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/md-rashed-zaman/barberbook/libs/httpx"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/storage"
)

func TestHealthAndPing(t *testing.T) {
	env := newTestEnv()

	rec := env.do(http.MethodGet, "/api/health", "")
	if rec.Code != http.StatusOK || rec.Body.String() != `{"ok":true}` {
		t.Fatalf("unexpected health response %d %q", rec.Code, rec.Body.String())
	}

	rec = env.do(http.MethodGet, "/api/ping", "")
	if rec.Code != http.StatusOK || rec.Body.String() != "service active" {
		t.Fatalf("unexpected ping response %d %q", rec.Code, rec.Body.String())
	}
	rec = env.do(http.MethodHead, "/api/ping", "")
	if rec.Code != http.StatusOK || rec.Body.Len() != 0 {
		t.Fatalf("unexpected HEAD ping response %d", rec.Code)
	}
}

func TestUnknownAPIRouteIsJSON(t *testing.T) {
	env := newTestEnv()
	rec := env.do(http.MethodGet, "/api/nope", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	var body httpx.ErrorBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil || body.Success || body.Error == "" {
		t.Fatalf("expected JSON error body, got %q", rec.Body.String())
	}
}

func TestMaintenance(t *testing.T) {
	env := newTestEnv()

	env.maintenance.last, env.maintenance.hasLast = time.Now().Add(-time.Hour), true
	rec := env.do(http.MethodGet, "/api/maintenance", "")
	var resp maintenanceResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rec.Code != http.StatusOK || resp.Status != "not_needed" || len(env.maintenance.records) != 0 {
		t.Fatalf("expected not_needed, got %d %+v", rec.Code, resp)
	}

	env.maintenance.last = time.Now().Add(-7 * 24 * time.Hour)
	rec = env.do(http.MethodGet, "/api/maintenance", "")
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "completed" || len(env.maintenance.records) != 1 || env.maintenance.records[0] != storage.MaintenanceCompleted {
		t.Fatalf("expected completed run, got %+v records=%v", resp, env.maintenance.records)
	}
}

func TestMaintenanceFailureIsRecorded(t *testing.T) {
	env := newTestEnv()
	env.maintenance.touchErr = errors.New("db down")

	rec := env.do(http.MethodGet, "/api/maintenance", "")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if len(env.maintenance.records) != 1 || env.maintenance.records[0] != storage.MaintenanceFailed {
		t.Fatalf("expected failed record, got %v", env.maintenance.records)
	}
}

func TestStaticFallsBackToIndex(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>app</html>"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "app.js"), []byte("console.log(1)"), 0o644); err != nil {
		t.Fatal(err)
	}
	h := Static(dir)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/app.js", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "console.log(1)" {
		t.Fatalf("unexpected asset response %d %q", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/shops/123", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "<html>app</html>" {
		t.Fatalf("expected index fallback, got %d %q", rec.Code, rec.Body.String())
	}
}

func TestMaintenanceRunsPurges(t *testing.T) {
	store := &fakeMaintenance{}
	fixed := time.Date(2024, 5, 6, 12, 0, 0, 0, time.UTC)
	var cutoff time.Time
	h := NewMaintenanceHandler(store, time.Hour, testLogger()).
		AddPurge("outbox_events", 7*24*time.Hour, func(_ context.Context, before time.Time) (int64, error) {
			cutoff = before
			return 3, nil
		}).
		AddPurge("inbox_events", 24*time.Hour, func(context.Context, time.Time) (int64, error) {
			return 0, errors.New("lock timeout")
		})
	h.now = func() time.Time { return fixed }

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/maintenance", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected failing purge to fail the run, got %d", rec.Code)
	}
	if !cutoff.Equal(fixed.Add(-7 * 24 * time.Hour)) {
		t.Fatalf("unexpected cutoff %s", cutoff)
	}
	if len(store.records) != 1 || store.records[0] != storage.MaintenanceFailed {
		t.Fatalf("expected failed record, got %v", store.records)
	}
}
