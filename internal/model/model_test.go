package model

import "testing"

func TestTaskObjectiveValue(t *testing.T) {
	task := Task{
		ID:                "t1",
		CPURequirement:    1000,
		MemoryRequirement: 1 << 30,
		Priority:          PriorityCritical,
	}.BoundTo(4000, 4<<30)

	got := task.ObjectiveValue()
	want := 1.0 * ((3000.0 / 4000.0) + (3.0 / 4.0)) / 2
	if diff := got - want; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("ObjectiveValue() = %v, want %v", got, want)
	}
}

func TestTaskObjectiveValueUnbound(t *testing.T) {
	task := Task{ID: "t1", CPURequirement: 100, Priority: PriorityHigh}
	if got := task.ObjectiveValue(); got != 0 {
		t.Errorf("ObjectiveValue() on unbound task = %v, want 0", got)
	}
}

func TestPotentialObjectiveOmitsScaling(t *testing.T) {
	// Two tasks with the same resource shape but different priority must
	// yield potentials in direct priority ratio, unlike ObjectiveValue which
	// divides by MaxPriority.
	low := PotentialObjective(PriorityLow, 500, 500, 4000, 4<<30)
	high := PotentialObjective(PriorityHigh, 500, 500, 4000, 4<<30)
	ratio := high / low
	if diff := ratio - float64(PriorityHigh)/float64(PriorityLow); diff > 1e-9 || diff < -1e-9 {
		t.Errorf("potential ratio = %v, want %v", ratio, float64(PriorityHigh)/float64(PriorityLow))
	}
}

func TestNodeAllocateReleaseOrdering(t *testing.T) {
	n := NewNode(1, "node-a", 8000, 8<<30, []string{"blue"})

	critical := Task{ID: "critical", CPURequirement: 1000, MemoryRequirement: 1 << 30, Priority: PriorityCritical, Color: "blue"}
	low := Task{ID: "low", CPURequirement: 1000, MemoryRequirement: 1 << 30, Priority: PriorityLow, Color: "blue"}

	if !n.CanAllocate(critical) {
		t.Fatal("expected node to admit critical task")
	}
	n.AllocateTask(critical)
	n.AllocateTask(low)

	tasks := n.Tasks()
	if len(tasks) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(tasks))
	}
	if tasks[0].ObjectiveValue() > tasks[1].ObjectiveValue() {
		t.Errorf("tasks not in ascending objective value order: %v then %v", tasks[0].ObjectiveValue(), tasks[1].ObjectiveValue())
	}

	if n.RemainingCPU != 6000 || n.RemainingMemory != 6<<30 {
		t.Errorf("unexpected remaining capacity after two allocations: cpu=%d mem=%d", n.RemainingCPU, n.RemainingMemory)
	}

	released, ok := n.ReleaseTask("critical")
	if !ok || released.ID != "critical" {
		t.Fatalf("ReleaseTask(critical) = %+v, %v", released, ok)
	}
	if n.RemainingCPU != 7000 || n.RemainingMemory != 7<<30 {
		t.Errorf("unexpected remaining capacity after release: cpu=%d mem=%d", n.RemainingCPU, n.RemainingMemory)
	}
	if _, ok := n.ReleaseTask("critical"); ok {
		t.Error("ReleaseTask on an already-released task should return false")
	}
}

func TestNodeAllocateTaskPanicsOnCapacityViolation(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected AllocateTask to panic on capacity violation")
		}
	}()
	n := NewNode(1, "node-a", 500, 500, nil)
	n.AllocateTask(Task{ID: "too-big", CPURequirement: 1000, MemoryRequirement: 1000})
}

func TestNodeHasColor(t *testing.T) {
	n := NewNode(1, "node-a", 1000, 1000, []string{"red", "blue"})
	if !n.HasColor("red") || !n.HasColor("blue") {
		t.Error("expected node to have both configured colors")
	}
	if n.HasColor("green") {
		t.Error("node should not have an unconfigured color")
	}
}
