package engine

import (
	"testing"

	"github.com/fricosched/frico/internal/model"
)

func newTestEngine(reallocThreshold int, nodes ...*model.Node) *Engine {
	return New(nodes, reallocThreshold, nil)
}

func task(id string, cpu, mem int64, p model.Priority, color string) model.Task {
	return model.Task{ID: id, Name: id, CPURequirement: cpu, MemoryRequirement: mem, Priority: p, Color: color}
}

func TestSolveTier1DirectFitTieBrokenByID(t *testing.T) {
	a := model.NewNode(1, "a", 4000, 4<<30, []string{"blue"})
	b := model.NewNode(2, "b", 4000, 4<<30, []string{"blue"})
	e := newTestEngine(0, a, b)

	name, disp := e.Solve(task("t1", 1000, 1<<30, model.PriorityMedium, "blue"))
	if name != "a" {
		t.Errorf("Solve() placed on %q, want %q", name, "a")
	}
	if len(disp) != 0 {
		t.Errorf("expected no displacements for a direct fit, got %v", disp)
	}
}

func TestSolveTier1SkipsWrongColor(t *testing.T) {
	red := model.NewNode(1, "red-node", 4000, 4<<30, []string{"red"})
	blue := model.NewNode(2, "blue-node", 4000, 4<<30, []string{"blue"})
	e := newTestEngine(0, red, blue)

	name, _ := e.Solve(task("t1", 1000, 1<<30, model.PriorityMedium, "blue"))
	if name != "blue-node" {
		t.Errorf("Solve() placed on %q, want %q", name, "blue-node")
	}
}

func TestSolveRejectsWhenNoColorMatch(t *testing.T) {
	red := model.NewNode(1, "red-node", 4000, 4<<30, []string{"red"})
	e := newTestEngine(2, red)

	name, disp := e.Solve(task("t1", 1000, 1<<30, model.PriorityMedium, "green"))
	if name != "" {
		t.Errorf("Solve() = %q, want rejection", name)
	}
	if len(disp) != 0 {
		t.Errorf("expected no displacements on outright rejection, got %v", disp)
	}
}

func TestSolveTier2RelocatesToFreeRoom(t *testing.T) {
	busy := model.NewNode(1, "busy", 1000, 1<<30, []string{"blue"})
	spare := model.NewNode(2, "spare", 1000, 1<<30, []string{"blue"})
	e := newTestEngine(0, busy, spare)

	// Put a 600m occupant on "busy", leaving "spare" empty.
	name, _ := e.Solve(task("occupant", 600, 1<<20, model.PriorityLow, "blue"))
	if name != "busy" {
		t.Fatalf("setup: occupant landed on %q, want %q", name, "busy")
	}

	// spare is now the lower-loaded node, so a 300m arrival goes there. An
	// 800m arrival then fits neither node directly (400m and 700m free), but
	// moving occupant2 onto busy frees spare: Tier 2.
	name, _ = e.Solve(task("occupant2", 300, 1<<20, model.PriorityLow, "blue"))
	if name != "spare" {
		t.Fatalf("setup: occupant2 landed on %q, want %q", name, "spare")
	}

	name, disp := e.Solve(task("incoming", 800, 1<<20, model.PriorityHigh, "blue"))
	if name == "" {
		t.Fatal("expected Tier 2 to relocate an occupant and place incoming")
	}
	if len(disp) != 1 {
		t.Fatalf("expected exactly one displacement, got %v", disp)
	}
}

func TestSolveTier3PreemptsLowerValueTask(t *testing.T) {
	// A blue node fully occupied by a low-priority task; the only other node
	// is red, so Tier 2 has nowhere to relocate it and Tier 3 must evict. The
	// red node's free capacity keeps the arrival admissible.
	solo := model.NewNode(1, "solo", 1000, 1<<30, []string{"blue"})
	other := model.NewNode(2, "other", 1000, 1<<30, []string{"red"})
	e := newTestEngine(4, solo, other)

	name, _ := e.Solve(task("cheap", 1000, 1<<30, model.PriorityNone, "blue"))
	if name != "solo" {
		t.Fatalf("setup: cheap task landed on %q, want %q", name, "solo")
	}

	name, disp := e.Solve(task("critical", 1000, 1<<30, model.PriorityCritical, "blue"))
	if name != "solo" {
		t.Fatalf("Solve() = %q, want preemption onto %q", name, "solo")
	}
	d, ok := disp["cheap"]
	if !ok {
		t.Fatalf("expected 'cheap' to appear as a displacement, got %v", disp)
	}
	if d.TargetNode != "" {
		t.Errorf("expected 'cheap' to be offloaded (no other blue node), got target %q", d.TargetNode)
	}
	if got := e.OffloadedTasks(); got != 1 {
		t.Errorf("OffloadedTasks() = %d, want 1", got)
	}
}

func TestSolveTier3DisabledWhenThresholdZero(t *testing.T) {
	solo := model.NewNode(1, "solo", 1000, 1<<30, []string{"blue"})
	other := model.NewNode(2, "other", 1000, 1<<30, []string{"red"})
	e := newTestEngine(0, solo, other)

	e.Solve(task("cheap", 1000, 1<<30, model.PriorityNone, "blue"))
	name, _ := e.Solve(task("critical", 1000, 1<<30, model.PriorityCritical, "blue"))
	if name != "" {
		t.Errorf("Solve() = %q, want rejection with realloc_threshold=0", name)
	}
}

func TestIsAdmissible(t *testing.T) {
	n := model.NewNode(1, "a", 1000, 1<<30, []string{"blue"})
	e := newTestEngine(0, n)

	if !e.IsAdmissible(task("t1", 500, 512<<20, model.PriorityLow, "blue")) {
		t.Error("expected task within aggregate capacity to be admissible")
	}
	if e.IsAdmissible(task("t2", 5000, 1<<30, model.PriorityLow, "blue")) {
		t.Error("expected task exceeding aggregate CPU capacity to be inadmissible")
	}
}

func TestReleaseIsIdempotentAndTolerant(t *testing.T) {
	n := model.NewNode(1, "a", 1000, 1<<30, []string{"blue"})
	e := newTestEngine(0, n)

	e.Solve(task("t1", 500, 512<<20, model.PriorityLow, "blue"))
	e.Release("t1", "a")
	e.Release("t1", "a") // second release of the same task must not panic

	view, err := e.GetNodeByName("a")
	if err != nil {
		t.Fatalf("GetNodeByName: %v", err)
	}
	if view.RemainingCPU != 1000 {
		t.Errorf("RemainingCPU after release = %d, want 1000", view.RemainingCPU)
	}

	// Release against an unknown node must not panic either.
	e.Release("t1", "does-not-exist")
}

func TestHandlePodCompletionTolerant(t *testing.T) {
	n := model.NewNode(1, "a", 1000, 1<<30, []string{"blue"})
	e := newTestEngine(0, n)

	e.HandlePodCompletion("ghost-task", "a")
	e.HandlePodCompletion("ghost-task", "ghost-node")

	e.Solve(task("t1", 500, 512<<20, model.PriorityLow, "blue"))
	e.HandlePodCompletion("t1", "a")

	view, _ := e.GetNodeByName("a")
	if view.RemainingCPU != 1000 {
		t.Errorf("RemainingCPU after completion = %d, want 1000", view.RemainingCPU)
	}
}

func TestGetNodeByNameUnknownIsCallerError(t *testing.T) {
	e := newTestEngine(0, model.NewNode(1, "a", 1000, 1000, nil))
	if _, err := e.GetNodeByName("missing"); err == nil {
		t.Error("expected an error for an unknown node name")
	}
}
