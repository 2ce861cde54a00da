package engine

import (
	"go.uber.org/zap"

	"github.com/fricosched/frico/internal/model"
)

// NodeSnapshot is the JSON-serializable shape of one node's state, used to
// persist and reload engine state for the `frico whatif` command.
type NodeSnapshot struct {
	ID             int            `json:"id"`
	Name           string         `json:"name"`
	Colors         []string       `json:"colors"`
	CPUCapacity    int64          `json:"cpu_capacity"`
	MemoryCapacity int64          `json:"memory_capacity"`
	Tasks          []TaskSnapshot `json:"tasks"`
}

// TaskSnapshot is the JSON-serializable shape of one allocated task.
type TaskSnapshot struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	CPURequirement    int64  `json:"cpu_requirement"`
	MemoryRequirement int64  `json:"memory_requirement"`
	Priority          int    `json:"priority"`
	Color             string `json:"color"`
}

// Snapshot is a full engine state dump: every node and its allocated
// tasks, plus the realloc threshold Solve was configured with.
type Snapshot struct {
	ReallocThreshold int            `json:"realloc_threshold"`
	Nodes            []NodeSnapshot `json:"nodes"`
}

// Dump captures the engine's current state as a Snapshot.
func (e *Engine) Dump() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	nodes := e.order.all()
	out := Snapshot{ReallocThreshold: e.reallocThreshold, Nodes: make([]NodeSnapshot, 0, len(nodes))}
	for _, n := range nodes {
		colors := make([]string, 0, len(n.Colors))
		for c := range n.Colors {
			colors = append(colors, c)
		}
		tasks := n.Tasks()
		taskSnaps := make([]TaskSnapshot, 0, len(tasks))
		for _, t := range tasks {
			taskSnaps = append(taskSnaps, TaskSnapshot{
				ID:                t.ID,
				Name:              t.Name,
				CPURequirement:    t.CPURequirement,
				MemoryRequirement: t.MemoryRequirement,
				Priority:          int(t.Priority),
				Color:             t.Color,
			})
		}
		out.Nodes = append(out.Nodes, NodeSnapshot{
			ID:             n.ID,
			Name:           n.Name,
			Colors:         colors,
			CPUCapacity:    n.CPUCapacity,
			MemoryCapacity: n.MemoryCapacity,
			Tasks:          taskSnaps,
		})
	}
	return out
}

// FromSnapshot rebuilds an Engine from a previously captured Snapshot,
// re-allocating every recorded task in its original node. It is used by
// `frico whatif` to replay a recorded scenario against a scratch engine
// without touching any live cluster state.
func FromSnapshot(snap Snapshot, logger *zap.SugaredLogger) (*Engine, error) {
	nodes := make([]*model.Node, 0, len(snap.Nodes))
	for _, ns := range snap.Nodes {
		n := model.NewNode(ns.ID, ns.Name, ns.CPUCapacity, ns.MemoryCapacity, ns.Colors)
		for _, ts := range ns.Tasks {
			priority, err := model.ParsePriority(ts.Priority)
			if err != nil {
				return nil, err
			}
			task := model.Task{
				ID:                ts.ID,
				Name:              ts.Name,
				CPURequirement:    ts.CPURequirement,
				MemoryRequirement: ts.MemoryRequirement,
				Priority:          priority,
				Color:             ts.Color,
			}
			n.AllocateTask(task)
		}
		nodes = append(nodes, n)
	}
	return New(nodes, snap.ReallocThreshold, logger), nil
}
