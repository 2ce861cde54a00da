package model

import "sort"

// Node is a placement target: a host with CPU/memory capacity and a set of
// compatible colors. RemainingCPU/RemainingMemory are mutated by
// AllocateTask/ReleaseTask; Tasks are kept in ascending ObjectiveValue order
// at all times, mirroring the "cheapest first" iteration order every Solve
// tier relies on.
type Node struct {
	ID     int
	Name   string
	Colors map[string]struct{}

	CPUCapacity    int64
	MemoryCapacity int64

	RemainingCPU    int64
	RemainingMemory int64

	tasks []Task
}

// NewNode constructs a Node with full remaining capacity and no tasks.
func NewNode(id int, name string, cpuCapacity, memoryCapacity int64, colors []string) *Node {
	colorSet := make(map[string]struct{}, len(colors))
	for _, c := range colors {
		colorSet[c] = struct{}{}
	}
	return &Node{
		ID:              id,
		Name:            name,
		Colors:          colorSet,
		CPUCapacity:     cpuCapacity,
		MemoryCapacity:  memoryCapacity,
		RemainingCPU:    cpuCapacity,
		RemainingMemory: memoryCapacity,
	}
}

// HasColor reports whether the node is compatible with the given color.
func (n *Node) HasColor(color string) bool {
	_, ok := n.Colors[color]
	return ok
}

// LoadFraction is ((C-remC)/C + (M-remM)/M) / 2, the key Solve uses to order
// nodes from least to most loaded.
func (n *Node) LoadFraction() float64 {
	if n.CPUCapacity <= 0 || n.MemoryCapacity <= 0 {
		return 0
	}
	cpuLoad := float64(n.CPUCapacity-n.RemainingCPU) / float64(n.CPUCapacity)
	memLoad := float64(n.MemoryCapacity-n.RemainingMemory) / float64(n.MemoryCapacity)
	return (cpuLoad + memLoad) / 2
}

// CanAllocate reports whether the node currently has enough residual
// capacity to host the task, independent of color compatibility.
func (n *Node) CanAllocate(t Task) bool {
	return n.RemainingCPU >= t.CPURequirement && n.RemainingMemory >= t.MemoryRequirement
}

// AllocateTask binds t to this node: it rewrites t's capacity fields to this
// node's capacity, debits remaining capacity, and inserts it into the
// ascending-ObjectiveValue task list. It panics if the node lacks capacity;
// callers (the engine) must check CanAllocate first, so a violation here
// indicates an engine invariant has already been broken.
func (n *Node) AllocateTask(t Task) Task {
	if !n.CanAllocate(t) {
		panic("model: AllocateTask called without sufficient residual capacity")
	}
	bound := t.BoundTo(n.CPUCapacity, n.MemoryCapacity)
	n.RemainingCPU -= bound.CPURequirement
	n.RemainingMemory -= bound.MemoryRequirement

	obj := bound.ObjectiveValue()
	idx := sort.Search(len(n.tasks), func(i int) bool { return n.tasks[i].ObjectiveValue() >= obj })
	n.tasks = append(n.tasks, Task{})
	copy(n.tasks[idx+1:], n.tasks[idx:])
	n.tasks[idx] = bound
	return bound
}

// ReleaseTask removes the task with the given ID from this node, credits
// back its resource reservation, and returns it unbound (zero node
// capacities). The second return value is false if no task with that ID is
// currently allocated here.
func (n *Node) ReleaseTask(taskID string) (Task, bool) {
	for i, t := range n.tasks {
		if t.ID != taskID {
			continue
		}
		n.tasks = append(n.tasks[:i], n.tasks[i+1:]...)
		n.RemainingCPU += t.CPURequirement
		n.RemainingMemory += t.MemoryRequirement
		return t.BoundTo(0, 0), true
	}
	return Task{}, false
}

// TaskByID returns the task with the given ID currently allocated on this
// node, if any.
func (n *Node) TaskByID(taskID string) (Task, bool) {
	for _, t := range n.tasks {
		if t.ID == taskID {
			return t, true
		}
	}
	return Task{}, false
}

// Tasks returns a snapshot of the node's allocated tasks in ascending
// ObjectiveValue order. Callers must not rely on it reflecting later
// mutations.
func (n *Node) Tasks() []Task {
	out := make([]Task, len(n.tasks))
	copy(out, n.tasks)
	return out
}

// TaskCount returns the number of tasks currently allocated on this node.
func (n *Node) TaskCount() int {
	return len(n.tasks)
}
