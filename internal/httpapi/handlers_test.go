package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
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
	"telecom-network/internal/network"
	"telecom-network/internal/reporting"
	"telecom-network/internal/snapshot"
	"telecom-network/internal/terminals"
	"telecom-network/pkg/logger"

	"github.com/gin-gonic/gin"
)

type memStore struct {
	saved []snapshot.Snapshot
}

func (m *memStore) Save(ctx context.Context, s snapshot.Snapshot) error {
	m.saved = append(m.saved, s)
	return nil
}

func (m *memStore) Load(ctx context.Context) (snapshot.Snapshot, error) {
	if len(m.saved) == 0 {
		return snapshot.Snapshot{}, snapshot.ErrNoSnapshot
	}
	return m.saved[len(m.saved)-1], nil
}

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func newTestHandlers(t *testing.T) (Handlers, *audit.MemoryRepo) {
	t.Helper()
	mgr, err := auth.NewManager(config.AuthConfig{JWTSecret: "secret", AccessTokenTTL: time.Minute, RefreshTokenTTL: time.Hour})
	if err != nil {
		t.Fatalf("manager: %v", err)
	}
	svc := network.NewService(network.New(network.WithLogger(discard())))
	repo := audit.NewMemoryRepo()
	return Handlers{
		Auth:    mgr,
		Net:     svc,
		Reports: reporting.NewService(reporting.NewNetworkRepo(svc)),
		Audit:   audit.NewService(repo),
	}, repo
}

func newRouter(h Handlers) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(logger.Middleware(discard()))
	r.POST("/token", h.IssueToken)
	r.POST("/clients", h.RegisterClient)
	r.GET("/clients/:client", h.GetClient)
	r.PUT("/clients/:client/notifications", h.SetNotifications)
	r.GET("/clients/:client/communications", h.ClientCommunications)
	r.POST("/terminals", h.RegisterTerminal)
	r.GET("/terminals/:terminal", h.GetTerminal)
	r.PUT("/terminals/:terminal/state", h.SwitchState)
	r.POST("/terminals/:terminal/texts", h.SendText)
	r.POST("/terminals/:terminal/calls", h.StartCall)
	r.POST("/terminals/:terminal/calls/end", h.EndCall)
	r.POST("/terminals/:terminal/payments", h.Pay)
	r.GET("/terminals/:terminal/balance", h.Balance)
	r.GET("/reports/clients", h.ClientReport)
	r.POST("/admin/import", h.Import)
	r.POST("/admin/save", h.Save)
	return r
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func mustDo(t *testing.T, r http.Handler, method, path, body string, want int) *httptest.ResponseRecorder {
	t.Helper()
	w := do(r, method, path, body)
	if w.Code != want {
		t.Fatalf("%s %s: expected %d, got %d: %s", method, path, want, w.Code, w.Body.String())
	}
	return w
}

func seed(t *testing.T, r http.Handler) {
	t.Helper()
	mustDo(t, r, http.MethodPost, "/clients", `{"key":"alice","name":"Alice","tax_id":"1"}`, http.StatusCreated)
	mustDo(t, r, http.MethodPost, "/clients", `{"key":"bob","name":"Bob","tax_id":"2"}`, http.StatusCreated)
	mustDo(t, r, http.MethodPost, "/terminals", `{"key":"111111","kind":"FANCY","client":"alice"}`, http.StatusCreated)
	mustDo(t, r, http.MethodPost, "/terminals", `{"key":"222222","kind":"FANCY","client":"bob","state":"ON"}`, http.StatusCreated)
	mustDo(t, r, http.MethodPost, "/terminals", `{"key":"333333","kind":"BASIC","client":"bob"}`, http.StatusCreated)
}

func TestRegistry(t *testing.T) {
	h, _ := newTestHandlers(t)
	r := newRouter(h)
	seed(t, r)

	mustDo(t, r, http.MethodPost, "/clients", `{"key":"alice","name":"Again","tax_id":"9"}`, http.StatusConflict)
	mustDo(t, r, http.MethodGet, "/clients/zed", "", http.StatusNotFound)
	mustDo(t, r, http.MethodPost, "/terminals", `{"key":"12","kind":"FANCY","client":"alice"}`, http.StatusBadRequest)
	mustDo(t, r, http.MethodPost, "/terminals", `{"key":"444444","kind":"PHONE","client":"alice"}`, http.StatusBadRequest)
	mustDo(t, r, http.MethodPost, "/terminals", `{"key":"444444","kind":"FANCY","client":"zed"}`, http.StatusNotFound)

	w := mustDo(t, r, http.MethodGet, "/terminals/111111?format=text", "", http.StatusOK)
	if got := strings.TrimSpace(w.Body.String()); got != "FANCY|111111|alice|IDLE|0|0" {
		t.Fatalf("unexpected line %q", got)
	}

	w = mustDo(t, r, http.MethodGet, "/clients/bob", "", http.StatusOK)
	var view clientView
	if err := json.Unmarshal(w.Body.Bytes(), &view); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(view.Terminals) != 2 || !view.Notifications || view.Tier != "NORMAL" {
		t.Fatalf("unexpected client %+v", view)
	}
}

func TestEndCall_Units(t *testing.T) {
	h, _ := newTestHandlers(t)
	r := newRouter(h)
	seed(t, r)

	mustDo(t, r, http.MethodPost, "/terminals/111111/calls", `{"to":"222222","type":"VOICE"}`, http.StatusCreated)
	mustDo(t, r, http.MethodPost, "/terminals/111111/calls/end", `{}`, http.StatusBadRequest)
	mustDo(t, r, http.MethodPost, "/terminals/111111/calls/end", `{"units":-1}`, http.StatusBadRequest)
	// a price past int64 is refused and the call stays up
	mustDo(t, r, http.MethodPost, "/terminals/111111/calls/end", `{"units":922337203685477581}`, http.StatusConflict)

	w := mustDo(t, r, http.MethodPost, "/terminals/111111/calls/end", `{"units":0}`, http.StatusOK)
	var comm struct {
		Length int    `json:"length"`
		Price  int64  `json:"price"`
		Status string `json:"status"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &comm); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if comm.Length != 0 || comm.Price != 0 || comm.Status != "FINISHED" {
		t.Fatalf("unexpected zero-length call %+v", comm)
	}
}

func TestCallPayAndBalance(t *testing.T) {
	h, events := newTestHandlers(t)
	r := newRouter(h)
	seed(t, r)

	w := mustDo(t, r, http.MethodPost, "/terminals/111111/calls", `{"to":"222222","type":"VOICE"}`, http.StatusCreated)
	var comm struct {
		Key    int    `json:"key"`
		Price  int64  `json:"price"`
		Status string `json:"status"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &comm); err != nil {
		t.Fatalf("decode: %v", err)
	}

	// Busy receivers cannot be called.
	mustDo(t, r, http.MethodPost, "/terminals/333333/calls", `{"to":"222222","type":"VOICE"}`, http.StatusConflict)
	// Only the originator ends the call.
	mustDo(t, r, http.MethodPost, "/terminals/222222/calls/end", `{"units":2}`, http.StatusConflict)

	w = mustDo(t, r, http.MethodPost, "/terminals/111111/calls/end", `{"units":2}`, http.StatusOK)
	if err := json.Unmarshal(w.Body.Bytes(), &comm); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if comm.Price != 40 || comm.Status != "FINISHED" {
		t.Fatalf("unexpected finished call %+v", comm)
	}

	w = mustDo(t, r, http.MethodGet, "/reports/clients", "", http.StatusOK)
	if !strings.Contains(w.Body.String(), `"key":"alice"`) {
		t.Fatalf("expected alice in debts: %s", w.Body.String())
	}

	mustDo(t, r, http.MethodPost, "/terminals/111111/payments", fmt.Sprintf(`{"communication":%d}`, comm.Key), http.StatusOK)
	mustDo(t, r, http.MethodPost, "/terminals/111111/payments", fmt.Sprintf(`{"communication":%d}`, comm.Key), http.StatusConflict)

	w = mustDo(t, r, http.MethodGet, "/terminals/111111/balance", "", http.StatusOK)
	var bal struct {
		Paid    int64 `json:"paid"`
		Balance int64 `json:"balance"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &bal); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if bal.Paid != 40 || bal.Balance != 40 {
		t.Fatalf("unexpected balance %+v", bal)
	}

	evs := events.Events()
	if len(evs) == 0 || evs[len(evs)-1].Type != audit.EventTypePayment || evs[len(evs)-1].ClientKey != "alice" {
		t.Fatalf("expected payment audit event, got %+v", evs)
	}

	w = mustDo(t, r, http.MethodGet, "/clients/bob/communications?direction=received&format=text", "", http.StatusOK)
	if got := strings.TrimSpace(w.Body.String()); !strings.HasPrefix(got, "VOICE|") {
		t.Fatalf("unexpected received list %q", got)
	}
	mustDo(t, r, http.MethodGet, "/clients/bob/communications?direction=sideways", "", http.StatusBadRequest)
}

func TestFailedContacts(t *testing.T) {
	h, events := newTestHandlers(t)
	r := newRouter(h)
	seed(t, r)

	mustDo(t, r, http.MethodPut, "/terminals/222222/state", `{"state":"OFF"}`, http.StatusOK)
	mustDo(t, r, http.MethodPut, "/terminals/222222/state", `{"state":"OFF"}`, http.StatusConflict)
	mustDo(t, r, http.MethodPut, "/terminals/222222/state", `{"state":"SLEEP"}`, http.StatusBadRequest)

	mustDo(t, r, http.MethodPost, "/terminals/111111/texts", `{"to":"222222","message":"hi"}`, http.StatusConflict)
	mustDo(t, r, http.MethodPost, "/terminals/111111/calls", `{"to":"333333","type":"VIDEO"}`, http.StatusUnprocessableEntity)
	mustDo(t, r, http.MethodPost, "/terminals/111111/calls", `{"to":"333333","type":"TEXT"}`, http.StatusBadRequest)

	var failed int
	for _, e := range events.Events() {
		if e.Type == audit.EventTypeFailedContact {
			failed++
			if e.ClientKey != "alice" || e.TerminalKey != "222222" {
				t.Fatalf("unexpected failed contact %+v", e)
			}
		}
	}
	if failed != 1 {
		t.Fatalf("expected 1 failed contact event, got %d", failed)
	}

	mustDo(t, r, http.MethodPut, "/terminals/222222/state", `{"state":"ON"}`, http.StatusOK)
	var inbox int
	_ = h.Net.Do(func(n *network.Network) error {
		c, _ := n.Client("alice")
		inbox = len(c.Inbox())
		return nil
	})
	if inbox != 1 {
		t.Fatalf("expected a notification for alice, got %d", inbox)
	}

	mustDo(t, r, http.MethodPut, "/clients/alice/notifications", `{"enabled":true}`, http.StatusConflict)
	mustDo(t, r, http.MethodPut, "/clients/alice/notifications", `{}`, http.StatusBadRequest)
	mustDo(t, r, http.MethodPut, "/clients/alice/notifications", `{"enabled":false}`, http.StatusOK)
}

func TestImportAndSave(t *testing.T) {
	h, _ := newTestHandlers(t)
	r := newRouter(h)

	mustDo(t, r, http.MethodPost, "/admin/save", "", http.StatusServiceUnavailable)

	w := mustDo(t, r, http.MethodPost, "/admin/import", "CLIENT|carol|Carol|3\nFANCY|333333|carol|SILENCE\n", http.StatusOK)
	var res network.ImportResult
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.Clients != 1 || res.Terminals != 1 {
		t.Fatalf("unexpected result %+v", res)
	}
	mustDo(t, r, http.MethodPost, "/admin/import", "CLIENT|dave|Dave|4\nPAGER|1|dave\n", http.StatusBadRequest)
	mustDo(t, r, http.MethodGet, "/clients/dave", "", http.StatusNotFound)

	store := &memStore{}
	h.Store = store
	r = newRouter(h)
	w = mustDo(t, r, http.MethodPost, "/admin/save", "", http.StatusOK)
	if !strings.Contains(w.Body.String(), `"saved":true`) || len(store.saved) != 1 {
		t.Fatalf("expected a snapshot, got %s", w.Body.String())
	}
	w = mustDo(t, r, http.MethodPost, "/admin/save", "", http.StatusOK)
	if !strings.Contains(w.Body.String(), `"saved":false`) {
		t.Fatalf("expected nothing to save, got %s", w.Body.String())
	}
}

func TestIssueToken(t *testing.T) {
	h, _ := newTestHandlers(t)
	r := newRouter(h)
	seed(t, r)

	mustDo(t, r, http.MethodPost, "/token", `{"user_id":"u","role":"janitor"}`, http.StatusBadRequest)
	mustDo(t, r, http.MethodPost, "/token", `{"user_id":"u","role":"client"}`, http.StatusBadRequest)
	mustDo(t, r, http.MethodPost, "/token", `{"user_id":"u","role":"client","client_key":"zed"}`, http.StatusNotFound)
	w := mustDo(t, r, http.MethodPost, "/token", `{"user_id":"u","role":"client","client_key":"alice"}`, http.StatusOK)

	var pair struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &pair); err != nil {
		t.Fatalf("decode: %v", err)
	}
	claims, err := h.Auth.Verify(pair.AccessToken, auth.TokenTypeAccess, time.Now())
	if err != nil || claims.ClientKey != "alice" {
		t.Fatalf("unexpected claims %+v (%v)", claims, err)
	}
}

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: x", network.ErrNotFound), http.StatusNotFound},
		{network.ErrTerminalExists, http.StatusConflict},
		{fmt.Errorf("%w: %w", network.ErrFailedContact, terminals.ErrOffTerminal), http.StatusConflict},
		{terminals.ErrUnsupportedAtOrigin, http.StatusUnprocessableEntity},
		{fmt.Errorf("line 2: %w", network.ErrUnrecognizedEntry), http.StatusBadRequest},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := statusFor(tc.err); got != tc.want {
			t.Fatalf("%v: expected %d, got %d", tc.err, tc.want, got)
		}
	}
}
