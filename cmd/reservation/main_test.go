package main

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/example/room-reservation/internal/config"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	return config.Config{
		HTTPPort:      0,
		DBDriver:      "sqlite",
		DBDSN:         "file:" + filepath.Join(t.TempDir(), "reservation.db") + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)",
		SessionSecret: "test-secret",
		SessionTTL:    time.Hour,
		Location:      time.UTC,
		AdminUsername: "root",
		AdminPassword: "bootstrap-pass",
	}
}

type apiClient struct {
	t       *testing.T
	handler http.Handler
	token   string
}

func (c *apiClient) do(method, path, body string) (int, map[string]any) {
	c.t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	rec := httptest.NewRecorder()
	c.handler.ServeHTTP(rec, req)

	var payload map[string]any
	if rec.Body.Len() > 0 && strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
			c.t.Fatalf("%s %s: decode body %q: %v", method, path, rec.Body.String(), err)
		}
	}
	return rec.Code, payload
}

func TestNewAppServesReservationFlow(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	now := func() time.Time { return time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC) }

	app, err := newApp(context.Background(), testConfig(t), logger, now)
	if err != nil {
		t.Fatalf("newApp: %v", err)
	}
	t.Cleanup(func() { _ = app.Close() })

	client := &apiClient{t: t, handler: app.Handler}

	if status, _ := client.do(http.MethodGet, "/healthz", ""); status != http.StatusOK {
		t.Fatalf("healthz status = %d", status)
	}
	if status, _ := client.do(http.MethodGet, "/rooms", ""); status != http.StatusUnauthorized {
		t.Fatalf("anonymous rooms status = %d, want 401", status)
	}

	status, body := client.do(http.MethodPost, "/sessions", `{"username":"root","password":"bootstrap-pass"}`)
	if status != http.StatusCreated {
		t.Fatalf("login status = %d: %v", status, body)
	}
	client.token, _ = body["token"].(string)
	if client.token == "" {
		t.Fatalf("login returned no token: %v", body)
	}

	status, body = client.do(http.MethodPost, "/rooms", `{"name":"Alpha","capacity":10}`)
	if status != http.StatusCreated {
		t.Fatalf("create room status = %d: %v", status, body)
	}
	room, _ := body["room"].(map[string]any)
	roomID, _ := room["id"].(string)

	if status, body = client.do(http.MethodPost, "/periods", `{"name":"morning","start_time":"09:00:00","end_time":"12:00:00"}`); status != http.StatusCreated {
		t.Fatalf("create period status = %d: %v", status, body)
	}

	reservation := `{"room_id":"` + roomID + `","title":"Seminar","start":"2025-03-11T09:00:00Z","end":"2025-03-11T10:00:00Z"}`
	status, body = client.do(http.MethodPost, "/reservations", reservation)
	if status != http.StatusCreated {
		t.Fatalf("create reservation status = %d: %v", status, body)
	}
	if body["status"] != "confirmed" {
		t.Fatalf("administrator reservation status = %v, want confirmed", body["status"])
	}

	if status, body = client.do(http.MethodPost, "/reservations", reservation); status != http.StatusConflict {
		t.Fatalf("duplicate reservation status = %d, want 409: %v", status, body)
	}

	if status, body = client.do(http.MethodPut, "/settings/TIME_LIMIT", `{"value":"00:30:00"}`); status != http.StatusOK {
		t.Fatalf("put setting status = %d: %v", status, body)
	}
	status, body = client.do(http.MethodPost, "/reservations",
		`{"room_id":"`+roomID+`","title":"Long","start":"2025-03-11T10:00:00Z","end":"2025-03-11T11:00:00Z"}`)
	if status != http.StatusUnprocessableEntity {
		t.Fatalf("over-long reservation status = %d, want 422: %v", status, body)
	}
	errs, _ := body["errors"].(map[string]any)
	if errs["time"] != "too long" {
		t.Fatalf("rejection reason = %v, want too long", errs["time"])
	}

	status, body = client.do(http.MethodGet, "/reservations", "")
	if status != http.StatusOK {
		t.Fatalf("list status = %d: %v", status, body)
	}
	if list, _ := body["reservations"].([]any); len(list) != 1 {
		t.Fatalf("listed %d reservations, want 1", len(list))
	}

	if status, _ = client.do(http.MethodDelete, "/sessions/current", ""); status != http.StatusNoContent {
		t.Fatalf("logout status = %d", status)
	}
	if status, _ = client.do(http.MethodGet, "/rooms", ""); status != http.StatusUnauthorized {
		t.Fatalf("revoked token status = %d, want 401", status)
	}
}

func TestNewAppBootstrapIsIdempotent(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := testConfig(t)

	first, err := newApp(context.Background(), cfg, logger, time.Now)
	if err != nil {
		t.Fatalf("first newApp: %v", err)
	}
	_ = first.Close()

	second, err := newApp(context.Background(), cfg, logger, time.Now)
	if err != nil {
		t.Fatalf("second newApp: %v", err)
	}
	_ = second.Close()
}

func TestNewAppRejectsUnknownDriver(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	cfg.DBDriver = "oracle"
	if _, err := newApp(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)), time.Now); err == nil {
		t.Fatal("expected error for unsupported driver")
	}
}
