package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"telecom-network/internal/audit"
	"telecom-network/internal/auth"
	"telecom-network/internal/config"
	"telecom-network/internal/httpapi"
	"telecom-network/internal/network"
	"telecom-network/internal/reporting"

	"github.com/gin-gonic/gin"
)

func newTestServer(t *testing.T) (*gin.Engine, *auth.Manager) {
	return newTestServerWithHealth(t, nil)
}

func newTestServerWithHealth(t *testing.T, health healthFunc) (*gin.Engine, *auth.Manager) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mgr, err := auth.NewManager(config.AuthConfig{JWTSecret: "secret", AccessTokenTTL: time.Minute, RefreshTokenTTL: time.Hour})
	if err != nil {
		t.Fatalf("manager: %v", err)
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := network.NewService(network.New(network.WithLogger(log)))
	h := httpapi.Handlers{
		Auth:    mgr,
		Net:     svc,
		Reports: reporting.NewService(reporting.NewNetworkRepo(svc)),
		Audit:   audit.NewService(audit.NewMemoryRepo()),
	}
	r := gin.New()
	registerRoutes(r, h, auth.RequireAccessToken(mgr), health)
	return r, mgr
}

func bearer(t *testing.T, m *auth.Manager, clientKey, role string) string {
	t.Helper()
	p, err := m.IssuePair(time.Now(), "u-"+role, clientKey, role)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	return "Bearer " + p.AccessToken
}

func call(r http.Handler, token, method, path, body string) int {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	r.ServeHTTP(w, req)
	return w.Code
}

func TestRoutes_HealthAndAuth(t *testing.T) {
	r, _ := newTestServer(t)

	if code := call(r, "", http.MethodGet, "/healthz", ""); code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if code := call(r, "", http.MethodGet, "/v1/clients", ""); code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", code)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/token", strings.NewReader(`{"user_id":"op","role":"operator"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	var pair struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &pair); err != nil || pair.AccessToken == "" {
		t.Fatalf("expected token, got %s", w.Body.String())
	}
	if code := call(r, "Bearer "+pair.AccessToken, http.MethodGet, "/v1/clients", ""); code != http.StatusOK {
		t.Fatalf("expected 200 with issued token, got %d", code)
	}
}

func TestRoutes_HealthProbesBackend(t *testing.T) {
	down := errors.New("db ping failed: connection refused")
	var probeErr error
	r, _ := newTestServerWithHealth(t, func(ctx context.Context) error { return probeErr })

	if code := call(r, "", http.MethodGet, "/healthz", ""); code != http.StatusOK {
		t.Fatalf("expected 200 while backend is up, got %d", code)
	}
	probeErr = down
	if code := call(r, "", http.MethodGet, "/healthz", ""); code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 while backend is down, got %d", code)
	}
}

func TestRoutes_ClientScope(t *testing.T) {
	r, m := newTestServer(t)
	op := bearer(t, m, "", "operator")
	alice := bearer(t, m, "alice", "client")

	steps := []struct {
		token, method, path, body string
		want                      int
	}{
		{op, http.MethodPost, "/v1/clients", `{"key":"alice","name":"Alice","tax_id":"1"}`, http.StatusCreated},
		{op, http.MethodPost, "/v1/clients", `{"key":"bob","name":"Bob","tax_id":"2"}`, http.StatusCreated},
		{op, http.MethodPost, "/v1/terminals", `{"key":"111111","kind":"FANCY","client":"alice"}`, http.StatusCreated},
		{op, http.MethodPost, "/v1/terminals", `{"key":"222222","kind":"BASIC","client":"bob"}`, http.StatusCreated},

		{alice, http.MethodPost, "/v1/clients", `{"key":"eve","name":"Eve","tax_id":"3"}`, http.StatusForbidden},
		{alice, http.MethodGet, "/v1/clients", "", http.StatusForbidden},
		{alice, http.MethodGet, "/v1/clients/alice", "", http.StatusOK},
		{alice, http.MethodGet, "/v1/clients/bob", "", http.StatusForbidden},
		{alice, http.MethodPut, "/v1/clients/alice/plan", `{"plan":"FLAT"}`, http.StatusForbidden},
		{op, http.MethodPut, "/v1/clients/alice/plan", `{"plan":"FLAT"}`, http.StatusOK},
		{op, http.MethodPut, "/v1/clients/alice/plan", `{"plan":"GOLDEN"}`, http.StatusBadRequest},

		{alice, http.MethodPost, "/v1/terminals/111111/texts", `{"to":"222222","message":"hello"}`, http.StatusCreated},
		{alice, http.MethodPost, "/v1/terminals/222222/texts", `{"to":"111111","message":"spoof"}`, http.StatusForbidden},
		{alice, http.MethodGet, "/v1/terminals/999999", "", http.StatusNotFound},
		{alice, http.MethodPost, "/v1/terminals/111111/friends", `{"friend":"222222"}`, http.StatusOK},
		{alice, http.MethodDelete, "/v1/terminals/111111/friends/222222", "", http.StatusNoContent},

		{alice, http.MethodGet, "/v1/reports/totals", "", http.StatusForbidden},
		{op, http.MethodGet, "/v1/reports/totals", "", http.StatusOK},
		{op, http.MethodGet, "/v1/reports/terminals/unused", "", http.StatusOK},
		{op, http.MethodGet, "/v1/communications/1", "", http.StatusOK},
		{op, http.MethodGet, "/v1/communications/abc", "", http.StatusBadRequest},
		{alice, http.MethodPost, "/v1/admin/save", "", http.StatusForbidden},
		{op, http.MethodPost, "/v1/admin/save", "", http.StatusServiceUnavailable},
		{op, http.MethodGet, "/v1/admin/audit", "", http.StatusOK},
	}
	for _, s := range steps {
		if code := call(r, s.token, s.method, s.path, s.body); code != s.want {
			t.Fatalf("%s %s: expected %d, got %d", s.method, s.path, s.want, code)
		}
	}
}
