package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/livepoll/livepoll/api"
	"github.com/livepoll/livepoll/internal/event"
	"github.com/livepoll/livepoll/internal/handler"
	"github.com/livepoll/livepoll/internal/live"
	"github.com/livepoll/livepoll/internal/platform/config"
	"github.com/livepoll/livepoll/internal/store"
	"github.com/livepoll/livepoll/internal/testutil"
	"github.com/livepoll/livepoll/pkg/lifecycle"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// recordingSub captures every broadcast message type.
type recordingSub struct {
	mu    sync.Mutex
	types []event.Type
}

func (r *recordingSub) Send(_ context.Context, msg []byte) error {
	var m struct {
		Type event.Type `json:"type"`
	}
	if err := json.Unmarshal(msg, &m); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.types = append(r.types, m.Type)
	return nil
}

func (r *recordingSub) Close() error { return nil }

func (r *recordingSub) take() []event.Type {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.types
	r.types = nil
	return out
}

type testEnv struct {
	engine   *gin.Engine
	store    *store.Store
	hub      *live.Hub
	sub      *recordingSub
	services *lifecycle.Manager
}

func setup(t *testing.T, identity string) *testEnv {
	t.Helper()
	return setupServer(t, identity, config.ServerConfig{
		BasePath: "/api",
		Cors:     config.CorsConfig{AllowedOrigins: []string{"*"}},
	})
}

func setupServer(t *testing.T, identity string, srvCfg config.ServerConfig) *testEnv {
	t.Helper()

	st := testutil.SetupStore(t)
	hub := live.NewHub(time.Second)
	services := lifecycle.NewManager(context.Background())
	t.Cleanup(func() {
		services.Shutdown()
		services.WaitWithTimeout(2 * time.Second)
		hub.Close()
	})

	events := event.NewRouter(st, hub, nil)
	h := handler.New(st, hub, events, services, handler.Options{
		ClientIdentity: identity,
		DefaultTitle:   "Live Poll",
		Port:           8000,
		PingInterval:   time.Second,
		SendTimeout:    time.Second,
		AllowedOrigins: []string{"*"},
		Version:        "test",
	})

	sub := &recordingSub{}
	hub.Connect(sub)

	engine, err := api.NewEngine(h, srvCfg)
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}

	return &testEnv{
		engine:   engine,
		store:    st,
		hub:      hub,
		sub:      sub,
		services: services,
	}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	return e.doWithHeaders(t, method, path, body, nil)
}

func (e *testEnv) doWithHeaders(t *testing.T, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("Failed to encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	req.RemoteAddr = "192.0.2.10:5000"

	rr := httptest.NewRecorder()
	e.engine.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rr.Body.Bytes(), &v); err != nil {
		t.Fatalf("Failed to decode %s: %v", rr.Body.String(), err)
	}
	return v
}

func expectTypes(t *testing.T, got []event.Type, want ...event.Type) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("Expected events %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Expected events %v, got %v", want, got)
		}
	}
}

func (e *testEnv) addCandidate(t *testing.T, name string) store.Candidate {
	t.Helper()
	rr := e.do(t, http.MethodPost, "/api/candidates", map[string]string{"name": name})
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200 creating %s, got %d: %s", name, rr.Code, rr.Body.String())
	}
	e.sub.take()
	return decode[store.Candidate](t, rr)
}

func TestRootAndHealth(t *testing.T) {
	e := setup(t, config.IdentityClient)

	rr := e.do(t, http.MethodGet, "/", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rr.Code)
	}
	root := decode[map[string]string](t, rr)
	if root["status"] != "online" || root["version"] != "test" {
		t.Errorf("Unexpected root body %v", root)
	}

	rr = e.do(t, http.MethodGet, "/health", nil)
	if rr.Code != http.StatusOK || rr.Body.String() != "OK" {
		t.Errorf("Expected 200 OK, got %d %q", rr.Code, rr.Body.String())
	}
}
