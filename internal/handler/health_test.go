// Copyright (c) 2026 Sangbad Project
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sangbad/sangbad-go/internal/middleware"
	"github.com/sangbad/sangbad-go/internal/model"
	"github.com/sangbad/sangbad-go/internal/service"
	"github.com/sangbad/sangbad-go/internal/testutil"
)

func TestHealthPublicIsMinimal(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()

	h := NewHealthHandler(db, "test")
	w := httptest.NewRecorder()
	h.Health(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, `"status":"healthy"`) {
		t.Errorf("body = %s", body)
	}
	if strings.Contains(body, "checks") || strings.Contains(body, "uptime") {
		t.Errorf("public response leaked details: %s", body)
	}
}

func TestHealthStaffGetsChecks(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()

	h := NewHealthHandler(db, "test")
	r := httptest.NewRequest(http.MethodGet, "/health?verbose=true", nil)
	staff := service.Actor{UserID: 1, Role: model.RoleAdmin, Authenticated: true}
	r = r.WithContext(middleware.WithActor(r.Context(), staff))

	w := httptest.NewRecorder()
	h.Health(w, r)

	var status HealthStatus
	if err := json.Unmarshal(w.Body.Bytes(), &status); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if status.Checks["database"].Status != "healthy" {
		t.Errorf("database check = %+v", status.Checks["database"])
	}
	if status.System == nil {
		t.Error("verbose staff response missing system info")
	}
	if status.Version != "test" {
		t.Errorf("version = %q", status.Version)
	}
}

func TestReadiness(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()

	h := NewHealthHandler(db, "test")
	w := httptest.NewRecorder()
	h.Readiness(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if w.Code != http.StatusOK {
		t.Errorf("ready status = %d", w.Code)
	}

	// A closed database is not ready.
	db.Close()
	w = httptest.NewRecorder()
	h.Readiness(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("closed db status = %d, want 503", w.Code)
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   uint64
		want string
	}{
		{512, "512 B"},
		{2048, "2.0 KB"},
		{5 * 1024 * 1024, "5.0 MB"},
	}
	for _, tt := range tests {
		if got := formatBytes(tt.in); got != tt.want {
			t.Errorf("formatBytes(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
