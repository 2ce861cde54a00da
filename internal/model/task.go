package model

import "time"

// Task is an immutable unit of placement demand once admitted. Its
// CPURequirement, MemoryRequirement, Priority, Color and ExecTime never
// change after creation; NodeCPUCapacity/NodeMemoryCapacity record the
// capacity of the node it is currently bound to and are rewritten on every
// allocate/release so that ObjectiveValue always reflects the task's
// current host.
type Task struct {
	ID                string
	Name              string
	CPURequirement    int64
	MemoryRequirement int64
	Priority          Priority
	Color             string

	// ExecTime is how long, in seconds, the task's workload runs once
	// placed: `sleep <ExecTime> && exit 0`, per spec.md §6.2.
	ExecTime int64
	// ArrivalTime is when the task was submitted, recorded on the workload
	// and the audit trail and used to compute remaining exec time on
	// reschedule.
	ArrivalTime time.Time

	NodeCPUCapacity    int64
	NodeMemoryCapacity int64
}

// BoundTo returns a copy of t rebound to a host with the given capacities.
// Used when a task is allocated or relocated onto a node.
func (t Task) BoundTo(cpuCapacity, memoryCapacity int64) Task {
	t.NodeCPUCapacity = cpuCapacity
	t.NodeMemoryCapacity = memoryCapacity
	return t
}

// ObjectiveValue is obj(t) = (priority/5) * ((C-cpu_req)/C + (M-mem_req)/M) / 2,
// where C and M are the capacities of the node t is currently bound to. It is
// only meaningful once a task has been bound to a node; an unbound task
// (zero capacities) has an objective value of zero.
func (t Task) ObjectiveValue() float64 {
	if t.NodeCPUCapacity <= 0 || t.NodeMemoryCapacity <= 0 {
		return 0
	}
	priorityFraction := float64(t.Priority) / float64(MaxPriority)
	cpuSlack := float64(t.NodeCPUCapacity-t.CPURequirement) / float64(t.NodeCPUCapacity)
	memSlack := float64(t.NodeMemoryCapacity-t.MemoryRequirement) / float64(t.NodeMemoryCapacity)
	return priorityFraction * (cpuSlack + memSlack) / 2
}

// PotentialObjective is the liberal upper bound used by Tier 3 preemption to
// decide which already-allocated tasks are "cheap enough" to evict in favor
// of a candidate task on node K. It deliberately omits the priority/5
// normalization present in ObjectiveValue: this makes the bound loose by
// construction, admitting more candidates for eviction than a tight
// comparison would. cpuCapacity and memoryCapacity are K's total capacity,
// not its remaining capacity.
func PotentialObjective(priority Priority, cpuRequirement, memoryRequirement, cpuCapacity, memoryCapacity int64) float64 {
	if cpuCapacity <= 0 || memoryCapacity <= 0 {
		return 0
	}
	cpuFraction := float64(cpuRequirement) / float64(cpuCapacity)
	memFraction := float64(memoryRequirement) / float64(memoryCapacity)
	denom := (cpuFraction + memFraction) / 2
	if denom == 0 {
		return float64(priority)
	}
	return float64(priority) / denom
}
