package completion

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/fricosched/frico/internal/cluster"
	"github.com/fricosched/frico/internal/engine"
	"github.com/fricosched/frico/internal/model"
	"github.com/fricosched/frico/internal/telemetry"
)

type fakeAdapter struct {
	mu         sync.Mutex
	watchCalls int
	deleted    []string
	events     [][2]string
	failFirst  bool
}

func (f *fakeAdapter) DiscoverNodes(ctx context.Context) ([]cluster.NodeSpec, error) {
	return nil, nil
}

func (f *fakeAdapter) WatchCompletions(ctx context.Context, namespace string, handler cluster.CompletionHandler) error {
	f.mu.Lock()
	f.watchCalls++
	first := f.watchCalls == 1
	f.mu.Unlock()

	if first && f.failFirst {
		return errors.New("watch stream broke")
	}
	for _, e := range f.events {
		handler(e[0], e[1])
	}
	<-ctx.Done()
	return ctx.Err()
}

func (f *fakeAdapter) CreateWorkload(ctx context.Context, pod cluster.PodData) error { return nil }

func (f *fakeAdapter) DeleteWorkload(ctx context.Context, taskName, namespace string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, taskName)
	return nil
}

func (f *fakeAdapter) Reschedule(ctx context.Context, task model.Task, namespace, newNodeName string) error {
	return nil
}

var _ cluster.Adapter = (*fakeAdapter)(nil)

func TestWatcherReleasesCompletedTaskAndDeletesWorkload(t *testing.T) {
	n := model.NewNode(1, "a", 1000, 1<<30, []string{"blue"})
	eng := engine.New([]*model.Node{n}, 0, nil)
	tk := model.Task{ID: "t1", Name: "t1", CPURequirement: 100, MemoryRequirement: 1 << 20, Priority: model.PriorityHigh, Color: "blue"}
	node, displacements := eng.Solve(tk)
	if node == "" {
		t.Fatalf("expected placement, got displacements %v", displacements)
	}

	adapter := &fakeAdapter{events: [][2]string{{"t1", "a"}}}
	w := New(adapter, eng, telemetry.New("test"), "default", nil)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	w.Run(ctx)

	nv, err := eng.GetNodeByName("a")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(nv.Tasks) != 0 {
		t.Fatalf("expected task released, node still has %d tasks", len(nv.Tasks))
	}

	adapter.mu.Lock()
	defer adapter.mu.Unlock()
	if len(adapter.deleted) != 1 || adapter.deleted[0] != "t1" {
		t.Fatalf("expected workload t1 deleted, got %v", adapter.deleted)
	}
}

func TestWatcherReconnectsAfterStreamBreak(t *testing.T) {
	adapter := &fakeAdapter{failFirst: true}
	n := model.NewNode(1, "a", 1000, 1<<30, []string{"blue"})
	eng := engine.New([]*model.Node{n}, 0, nil)
	w := New(adapter, eng, telemetry.New("test"), "default", nil)

	ctx, cancel := context.WithTimeout(context.Background(), 1500*time.Millisecond)
	defer cancel()
	w.Run(ctx)

	adapter.mu.Lock()
	defer adapter.mu.Unlock()
	if adapter.watchCalls < 2 {
		t.Fatalf("expected watcher to reconnect after failure, got %d calls", adapter.watchCalls)
	}
}
