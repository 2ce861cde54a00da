package arrival

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/fricosched/frico/internal/engine"
	"github.com/fricosched/frico/internal/model"
	"github.com/fricosched/frico/internal/telemetry"
)

type fakeReconciler struct {
	mu    sync.Mutex
	calls int
}

func (f *fakeReconciler) Reconcile(ctx context.Context, node string, task model.Task, displacements map[string]engine.Displacement) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return nil
}

func (f *fakeReconciler) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestPipelineSubmitAdmitted(t *testing.T) {
	defer goleak.VerifyNone(t)

	n := model.NewNode(1, "a", 1000, 1<<30, []string{"blue"})
	eng := engine.New([]*model.Node{n}, 0, nil)
	recon := &fakeReconciler{}
	p := New(eng, recon, telemetry.New("test"), nil, 4)

	ctx, cancel := context.WithCancel(context.Background())
	go p.Run(ctx)
	defer cancel()

	res, err := p.Submit(ctx, model.Task{ID: "t1", CPURequirement: 500, MemoryRequirement: 512 << 20, Priority: model.PriorityMedium, Color: "blue"})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if !res.Admitted || res.Node != "a" {
		t.Errorf("Submit() = %+v, want admitted on node a", res)
	}

	// Reconcile runs synchronously within process(), before the result is sent.
	if recon.count() != 1 {
		t.Errorf("expected exactly one reconcile call, got %d", recon.count())
	}
}

func TestPipelineSubmitRejected(t *testing.T) {
	defer goleak.VerifyNone(t)

	n := model.NewNode(1, "a", 100, 100, []string{"red"})
	eng := engine.New([]*model.Node{n}, 0, nil)
	p := New(eng, &fakeReconciler{}, telemetry.New("test"), nil, 4)

	ctx, cancel := context.WithCancel(context.Background())
	go p.Run(ctx)
	defer cancel()

	res, err := p.Submit(ctx, model.Task{ID: "t1", CPURequirement: 500, MemoryRequirement: 512, Priority: model.PriorityMedium, Color: "blue"})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if res.Admitted {
		t.Errorf("expected rejection for incompatible color, got %+v", res)
	}
}

func TestPipelineStopsOnContextCancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	n := model.NewNode(1, "a", 1000, 1000, []string{"blue"})
	eng := engine.New([]*model.Node{n}, 0, nil)
	p := New(eng, &fakeReconciler{}, telemetry.New("test"), nil, 4)

	ctx, cancel := context.WithCancel(context.Background())
	runDone := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(runDone)
	}()

	cancel()
	select {
	case <-runDone:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not exit after context cancellation")
	}
}
