package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestHealthHandler(t *testing.T) {
	handler := NewHealthHandler("1.2.3")

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := rec.Header().Get(VersionHeader); got != "1.2.3" {
		t.Errorf("%s = %q, want 1.2.3", VersionHeader, got)
	}

	var body struct {
		OK   bool   `json:"ok"`
		Name string `json:"name"`
		Time string `json:"time"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("body is not JSON: %v", err)
	}
	if !body.OK {
		t.Error("ok = false, want true")
	}
	if _, err := time.Parse(time.RFC3339, body.Time); err != nil {
		t.Errorf("time %q is not RFC3339: %v", body.Time, err)
	}
}

func TestHealthHandlerDefaultsVersion(t *testing.T) {
	handler := NewHealthHandler("")

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if got := rec.Header().Get(VersionHeader); got != "dev" {
		t.Errorf("%s = %q, want dev", VersionHeader, got)
	}
}

func TestHealthHandlerMethodNotAllowed(t *testing.T) {
	handler := NewHealthHandler("")

	req := httptest.NewRequest(http.MethodPost, "/api/health", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}
