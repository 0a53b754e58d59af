package web

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/magicien/Nij.iCal/internal/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()

	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "ja"), 0o755); err != nil {
		t.Fatal(err)
	}
	body := "BEGIN:VCALENDAR\r\nEND:VCALENDAR\r\n"
	if err := os.WriteFile(filepath.Join(dir, "ja", "events.ics"), []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := config.DefaultConfig()
	cfg.OutputDir = dir
	return cfg
}

func TestHealth(t *testing.T) {
	s := NewServer(testConfig(t), nil)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d", rec.Code)
	}
	if rec.Body.String() != "ok" {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestServesOutputDir(t *testing.T) {
	s := NewServer(testConfig(t), nil)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ja/events.ics", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d", rec.Code)
	}
	if rec.Body.String() != "BEGIN:VCALENDAR\r\nEND:VCALENDAR\r\n" {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestBasicAuth(t *testing.T) {
	cfg := testConfig(t)
	cfg.BasicAuth = &config.BasicAuthConfig{Username: "calendar", Password: "secret"}
	s := NewServer(cfg, nil)
	h := s.Handler()

	// No credentials: rejected with a challenge.
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ja/events.ics", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
	if rec.Header().Get("WWW-Authenticate") == "" {
		t.Error("challenge header missing")
	}

	// Wrong password: rejected.
	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ja/events.ics", nil)
	req.SetBasicAuth("calendar", "wrong")
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}

	// Correct credentials: served.
	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/ja/events.ics", nil)
	req.SetBasicAuth("calendar", "secret")
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}

	// /health stays open for probes.
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("health status = %d, want 200", rec.Code)
	}
}
