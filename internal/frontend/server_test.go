package frontend

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fricosched/frico/internal/arrival"
	"github.com/fricosched/frico/internal/engine"
	"github.com/fricosched/frico/internal/model"
	"github.com/fricosched/frico/internal/telemetry"
)

type noopReconciler struct{}

func (noopReconciler) Reconcile(ctx context.Context, node string, task model.Task, displacements map[string]engine.Displacement) error {
	return nil
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	n := model.NewNode(1, "a", 1000, 1<<30, []string{"blue"})
	eng := engine.New([]*model.Node{n}, 0, nil)
	metrics := telemetry.New("test")
	p := arrival.New(eng, noopReconciler{}, metrics, nil, 4)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go p.Run(ctx)

	return New("127.0.0.1:0", p, metrics, nil, 0)
}

func TestHandleCreateAdmitted(t *testing.T) {
	s := newTestServer(t)

	body, _ := json.Marshal(createRequest{Name: "t1", Priority: 5, Color: "blue", ExecTime: 5, CPU: 100, Memory: 16})
	req := httptest.NewRequest(http.MethodPost, "/create", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	s.handleCreate(0)(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp createResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Message == "" {
		t.Fatalf("expected non-empty message")
	}
}

func TestHandleCreateRejectsMissingColor(t *testing.T) {
	s := newTestServer(t)

	body, _ := json.Marshal(createRequest{Name: "t1", Priority: 5, ExecTime: 5, CPU: 100, Memory: 16})
	req := httptest.NewRequest(http.MethodPost, "/create", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	s.handleCreate(0)(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp createResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Message == "" {
		t.Fatalf("expected a failure message in the body")
	}
}

func TestHandleHealth(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()

	s.handleHealth(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if rec.Body.Len() != 0 {
		t.Fatalf("expected empty body, got %q", rec.Body.String())
	}
}
