// Package engine implements the FRICO placement engine: the three-tier
// Solve algorithm, admissibility checks, and the release/completion paths
// that return capacity to the fleet.
package engine

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/fricosched/frico/internal/model"
)

// Displacement describes a task the engine moved or evicted while placing
// another task. TargetNode is the node the displaced task now runs on, or
// the empty string if the task could not be rehomed anywhere and was
// offloaded instead.
type Displacement struct {
	Task       model.Task
	TargetNode string
}

// Engine holds the live fleet state and serializes every state-changing
// operation behind a single mutex, matching spec.md's "one engine-wide
// critical section" concurrency model: Solve, IsAdmissible, Release,
// GetNodeByName and HandlePodCompletion each acquire it for their entire
// duration, so no caller ever observes partial tier state.
type Engine struct {
	mu               sync.Mutex
	order            *nodeOrder
	reallocThreshold int
	offloadedTasks   uint64
	logger           *zap.SugaredLogger
}

// New constructs an Engine over the given initial node set. reallocThreshold
// bounds how many already-allocated tasks Tier 3 preemption may collect
// before giving up on a candidate host; a threshold of 0 disables Tier 3
// preemption entirely.
func New(nodes []*model.Node, reallocThreshold int, logger *zap.SugaredLogger) *Engine {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Engine{
		order:            newNodeOrder(nodes),
		reallocThreshold: reallocThreshold,
		logger:           logger,
	}
}

// IsAdmissible reports whether the fleet's aggregate residual capacity could
// possibly fit task, independent of color. A true result is necessary but
// not sufficient for Solve to succeed (color compatibility and
// fragmentation can still defeat placement); a false result guarantees
// Solve will fail.
func (e *Engine) IsAdmissible(task model.Task) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	var freeCPU, freeMemory int64
	for _, n := range e.order.all() {
		freeCPU += n.RemainingCPU
		freeMemory += n.RemainingMemory
	}
	return task.CPURequirement <= freeCPU && task.MemoryRequirement <= freeMemory
}

// OffloadedTasks returns the cumulative count of tasks evicted by Tier 3
// preemption that could not be rehomed anywhere and were dropped entirely.
func (e *Engine) OffloadedTasks() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.offloadedTasks
}

// GetNodeByName returns a read-only snapshot of the named node. A missing
// name is a caller error.
func (e *Engine) GetNodeByName(name string) (NodeView, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	n, ok := e.order.byName(name)
	if !ok {
		return NodeView{}, fmt.Errorf("engine: node %q not found", name)
	}
	return snapshotNode(n), nil
}

// Nodes returns a read-only snapshot of every node in the fleet.
func (e *Engine) Nodes() []NodeView {
	e.mu.Lock()
	defer e.mu.Unlock()

	nodes := e.order.ascending()
	views := make([]NodeView, len(nodes))
	for i, n := range nodes {
		views[i] = snapshotNode(n)
	}
	return views
}

// NodeView is a read-only copy of a Node's state, safe to hand to callers
// outside the engine's lock.
type NodeView struct {
	ID              int
	Name            string
	Colors          []string
	CPUCapacity     int64
	MemoryCapacity  int64
	RemainingCPU    int64
	RemainingMemory int64
	Tasks           []model.Task
}

func snapshotNode(n *model.Node) NodeView {
	colors := make([]string, 0, len(n.Colors))
	for c := range n.Colors {
		colors = append(colors, c)
	}
	return NodeView{
		ID:              n.ID,
		Name:            n.Name,
		Colors:          colors,
		CPUCapacity:     n.CPUCapacity,
		MemoryCapacity:  n.MemoryCapacity,
		RemainingCPU:    n.RemainingCPU,
		RemainingMemory: n.RemainingMemory,
		Tasks:           n.Tasks(),
	}
}

// Solve runs the three-tier FRICO placement algorithm against task and
// returns the node it was placed on along with every displacement the
// search performed along the way. An empty node name means task could not
// be placed at all; any displacements already performed are not rolled
// back even in that case. A task that exceeds the fleet's aggregate residual
// capacity (see IsAdmissible) is rejected before any tier runs.
func (e *Engine) Solve(task model.Task) (string, map[string]Displacement) {
	e.mu.Lock()
	defer e.mu.Unlock()

	displacements := make(map[string]Displacement)

	var freeCPU, freeMemory int64
	for _, n := range e.order.all() {
		freeCPU += n.RemainingCPU
		freeMemory += n.RemainingMemory
	}
	if task.CPURequirement > freeCPU || task.MemoryRequirement > freeMemory {
		e.logger.Infow("task not admissible, fleet residual capacity too small", "task_id", task.ID)
		return "", displacements
	}

	if name, ok := e.tier1(task); ok {
		e.allocate(name, task)
		return name, displacements
	}

	if name, ok := e.tier2(task, displacements); ok {
		e.allocate(name, task)
		return name, displacements
	}

	if name, ok := e.tier3(task, displacements); ok {
		return name, displacements
	}

	e.logger.Infow("task could not be placed", "task_id", task.ID, "color", task.Color)
	return "", displacements
}

// tier1 returns the first color-compatible node, in ascending load order,
// with enough residual capacity to host task directly. It performs no
// mutation.
func (e *Engine) tier1(task model.Task) (string, bool) {
	for _, n := range e.order.ascending() {
		if n.HasColor(task.Color) && n.RemainingCPU >= task.CPURequirement && n.RemainingMemory >= task.MemoryRequirement {
			return n.Name, true
		}
	}
	return "", false
}

// tier2 attempts to free room for task by relocating already-allocated
// tasks, one at a time, off color-compatible candidate hosts. Candidate
// hosts K are walked in ascending load order; within K, its allocated tasks
// are walked cheapest-first (ascending ObjectiveValue); for each such task,
// candidate destinations K' are walked in ascending load order as well.
// After each successful relocation the search re-tests whether task now
// fits anywhere directly (Tier 1 again); if so, placement succeeds. Any
// relocation performed along the way stays in effect even if Tier 2
// ultimately fails and the search proceeds to Tier 3 — this is spec'd
// behavior, not an omission.
func (e *Engine) tier2(task model.Task, displacements map[string]Displacement) (string, bool) {
	for _, k := range e.order.ascending() {
		if !k.HasColor(task.Color) {
			continue
		}
		for _, t := range k.Tasks() {
			moved := false
			for _, kp := range e.order.ascending() {
				if kp.Name == k.Name || !kp.HasColor(t.Color) {
					continue
				}
				if kp.RemainingCPU >= t.CPURequirement && kp.RemainingMemory >= t.MemoryRequirement {
					e.move(k.Name, kp.Name, t.ID)
					displacements[t.ID] = Displacement{Task: t, TargetNode: kp.Name}
					moved = true
					break
				}
			}
			if moved {
				if name, ok := e.tier1(task); ok {
					return name, true
				}
			}
		}
	}
	return "", false
}

// tier3 attempts to preempt a prefix of cheap, already-allocated tasks on a
// color-compatible candidate host K to make room for task, then re-homes
// each evicted task elsewhere (or counts it offloaded if nowhere fits).
func (e *Engine) tier3(task model.Task, displacements map[string]Displacement) (string, bool) {
	if e.reallocThreshold <= 0 {
		return "", false
	}

	for _, k := range e.order.ascending() {
		if !k.HasColor(task.Color) {
			continue
		}

		potential := model.PotentialObjective(task.Priority, task.CPURequirement, task.MemoryRequirement, k.CPUCapacity, k.MemoryCapacity)

		var candidates []model.Task
		var cpuSum, memSum int64
		covered := false
		for _, t := range k.Tasks() {
			if t.ObjectiveValue() <= potential {
				candidates = append(candidates, t)
				cpuSum += t.CPURequirement
				memSum += t.MemoryRequirement
			}
			if cpuSum >= task.CPURequirement && memSum >= task.MemoryRequirement {
				covered = true
				break
			}
			if len(candidates) == e.reallocThreshold {
				break
			}
		}
		if !covered {
			continue
		}

		for _, t := range candidates {
			e.release(k.Name, t.ID)
		}
		e.allocate(k.Name, task)

		for _, t := range candidates {
			rehomed := false
			for _, kp := range e.order.ascending() {
				if kp.Name == k.Name || !kp.HasColor(t.Color) {
					continue
				}
				if kp.RemainingCPU >= t.CPURequirement && kp.RemainingMemory >= t.MemoryRequirement {
					e.allocate(kp.Name, t)
					displacements[t.ID] = Displacement{Task: t, TargetNode: kp.Name}
					rehomed = true
					break
				}
			}
			if !rehomed {
				displacements[t.ID] = Displacement{Task: t, TargetNode: ""}
				e.offloadedTasks++
				e.logger.Infow("task offloaded during preemption, no destination fit", "task_id", t.ID, "evicted_from", k.Name)
			}
		}
		return k.Name, true
	}
	return "", false
}

// allocate assumes the lock is held and the named node can accommodate
// task; it mutates fleet state and fixes ordering.
func (e *Engine) allocate(nodeName string, task model.Task) {
	n, ok := e.order.byName(nodeName)
	if !ok {
		e.logger.Errorw("allocate called against unknown node", "node", nodeName, "task_id", task.ID)
		return
	}
	n.AllocateTask(task)
	e.order.fix(nodeName)
}

// release assumes the lock is held.
func (e *Engine) release(nodeName, taskID string) {
	n, ok := e.order.byName(nodeName)
	if !ok {
		e.logger.Warnw("release called against unknown node", "node", nodeName, "task_id", taskID)
		return
	}
	if _, ok := n.ReleaseTask(taskID); !ok {
		e.logger.Warnw("release called for a task not allocated on the node", "node", nodeName, "task_id", taskID)
		return
	}
	e.order.fix(nodeName)
}

// move relocates a task between two nodes as a single logical step.
func (e *Engine) move(fromNode, toNode, taskID string) {
	from, ok := e.order.byName(fromNode)
	if !ok {
		e.logger.Warnw("move source node not found", "node", fromNode, "task_id", taskID)
		return
	}
	t, ok := from.ReleaseTask(taskID)
	if !ok {
		e.logger.Warnw("move source task not allocated", "node", fromNode, "task_id", taskID)
		return
	}
	e.order.fix(fromNode)
	e.allocate(toNode, t)
}

// Release removes task from the named node, crediting its resources back to
// the fleet. Per spec.md §7, releasing an unknown task or naming an unknown
// node is tolerated: both are logged at warning level and otherwise
// swallowed, since by the time a completion event arrives the world may
// already have moved on.
func (e *Engine) Release(taskID, nodeName string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.release(nodeName, taskID)
}

// HandlePodCompletion is the completion-watcher entry point: it looks up
// the task by ID on the named node and releases it, tolerating either half
// of that lookup failing exactly like Release does.
func (e *Engine) HandlePodCompletion(taskID, nodeName string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	n, ok := e.order.byName(nodeName)
	if !ok {
		e.logger.Warnw("completion for unknown node", "node", nodeName, "task_id", taskID)
		return
	}
	if _, ok := n.TaskByID(taskID); !ok {
		e.logger.Warnw("completion for task not allocated on node", "node", nodeName, "task_id", taskID)
		return
	}
	e.release(nodeName, taskID)
	e.logger.Infow("released completed task", "node", nodeName, "task_id", taskID)
}
