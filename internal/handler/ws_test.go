package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/livepoll/livepoll/internal/event"
	"github.com/livepoll/livepoll/internal/platform/config"
)

func readEvent(t *testing.T, ws *websocket.Conn) (event.Type, json.RawMessage) {
	t.Helper()

	ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	var m struct {
		Type event.Type      `json:"type"`
		Data json.RawMessage `json:"data"`
	}
	if err := ws.ReadJSON(&m); err != nil {
		t.Fatalf("ReadJSON failed: %v", err)
	}
	return m.Type, m.Data
}

func TestLive_SnapshotThenEvents(t *testing.T) {
	e := setup(t, config.IdentityClient)
	alpha := e.addCandidate(t, "Alpha")

	srv := httptest.NewServer(e.engine)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer ws.Close()

	typ, data := readEvent(t, ws)
	if typ != event.TypeInitialSnapshot {
		t.Fatalf("Expected initial_snapshot first, got %s", typ)
	}
	var snap resultsResponse
	if err := json.Unmarshal(data, &snap); err != nil {
		t.Fatalf("Invalid snapshot: %v", err)
	}
	if len(snap.Results) != 1 || snap.Results[0].CandidateName != "Alpha" {
		t.Errorf("Unexpected snapshot %+v", snap)
	}

	body, _ := json.Marshal(map[string]any{"client_id": "ws-voter", "candidate_id": alpha.ID})
	resp, err := http.Post(srv.URL+"/api/vote", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("Vote request failed: %v", err)
	}
	resp.Body.Close()

	if typ, _ := readEvent(t, ws); typ != event.TypeVoteCast {
		t.Errorf("Expected vote_cast, got %s", typ)
	}
	typ, data = readEvent(t, ws)
	if typ != event.TypeResultsUpdate {
		t.Fatalf("Expected results_update, got %s", typ)
	}
	var update resultsResponse
	if err := json.Unmarshal(data, &update); err != nil {
		t.Fatalf("Invalid results_update: %v", err)
	}
	if update.TotalVotes != 1 {
		t.Errorf("Expected total 1, got %d", update.TotalVotes)
	}

	// The recording subscriber plus the websocket.
	if got := e.hub.Count(); got != 2 {
		t.Errorf("Expected 2 subscribers, got %d", got)
	}
}

func TestLive_ClosedConnectionIsDeregistered(t *testing.T) {
	e := setup(t, config.IdentityClient)
	srv := httptest.NewServer(e.engine)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	readEvent(t, ws)
	ws.Close()

	deadline := time.Now().Add(2 * time.Second)
	for e.hub.Count() != 1 {
		if time.Now().After(deadline) {
			t.Fatalf("Expected websocket to be deregistered, %d subscribers remain", e.hub.Count())
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestLive_RefusedAfterShutdown(t *testing.T) {
	e := setup(t, config.IdentityClient)
	e.services.Shutdown()

	rr := e.do(t, http.MethodGet, "/ws", nil)
	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected 503 after shutdown, got %d", rr.Code)
	}
}
