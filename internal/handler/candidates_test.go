package handler_test

import (
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/livepoll/livepoll/internal/event"
	"github.com/livepoll/livepoll/internal/platform/config"
	"github.com/livepoll/livepoll/internal/store"
)

func TestCreateCandidate_Validation(t *testing.T) {
	e := setup(t, config.IdentityClient)

	tests := []struct {
		name string
		body any
		want int
	}{
		{"valid", map[string]string{"name": "Alpha", "description": "first"}, http.StatusOK},
		{"missing name", map[string]string{"description": "x"}, http.StatusBadRequest},
		{"blank name", map[string]string{"name": "   "}, http.StatusBadRequest},
		{"name too long", map[string]string{"name": strings.Repeat("n", 201)}, http.StatusBadRequest},
		{"not json", "oops", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := e.do(t, http.MethodPost, "/api/candidates", tt.body)
			if rr.Code != tt.want {
				t.Errorf("Expected %d, got %d: %s", tt.want, rr.Code, rr.Body.String())
			}
			if tt.want == http.StatusBadRequest {
				body := decode[map[string]string](t, rr)
				if body["error"] == "" || body["message"] == "" {
					t.Errorf("Expected error and message, got %v", body)
				}
			}
		})
	}

	expectTypes(t, e.sub.take(), event.TypeCandidatesUpdate)
}

func TestCandidateLifecycle(t *testing.T) {
	e := setup(t, config.IdentityClient)
	alpha := e.addCandidate(t, "Alpha")

	rr := e.do(t, http.MethodPut, fmt.Sprintf("/api/candidates/%d", alpha.ID),
		map[string]string{"name": "Alpha 2", "description": "renamed"})
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if got := decode[store.Candidate](t, rr); got.Name != "Alpha 2" {
		t.Errorf("Expected renamed candidate, got %+v", got)
	}
	expectTypes(t, e.sub.take(), event.TypeCandidatesUpdate)

	rr = e.do(t, http.MethodGet, "/api/candidates", nil)
	if list := decode[[]store.Candidate](t, rr); len(list) != 1 {
		t.Errorf("Expected 1 candidate, got %d", len(list))
	}

	rr = e.do(t, http.MethodDelete, fmt.Sprintf("/api/candidates/%d", alpha.ID), nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rr.Code)
	}
	expectTypes(t, e.sub.take(), event.TypeCandidatesUpdate, event.TypeResultsUpdate)
}

func TestCandidateNotFound(t *testing.T) {
	e := setup(t, config.IdentityClient)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{"update missing", http.MethodPut, "/api/candidates/42", map[string]string{"name": "x"}, http.StatusNotFound},
		{"delete missing", http.MethodDelete, "/api/candidates/42", nil, http.StatusNotFound},
		{"bad id", http.MethodDelete, "/api/candidates/abc", nil, http.StatusBadRequest},
		{"zero id", http.MethodPut, "/api/candidates/0", map[string]string{"name": "x"}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := e.do(t, tt.method, tt.path, tt.body)
			if rr.Code != tt.want {
				t.Errorf("Expected %d, got %d: %s", tt.want, rr.Code, rr.Body.String())
			}
		})
	}

	if got := e.sub.take(); len(got) != 0 {
		t.Errorf("Expected no events for failed requests, got %v", got)
	}
}
