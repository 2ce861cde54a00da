// Package cluster adapts the engine's placement decisions onto a live
// Kubernetes cluster: node discovery, workload create/delete/reschedule,
// and the completion event stream, per spec.md §6.2.
package cluster

import (
	"context"
	"time"

	"github.com/fricosched/frico/internal/model"
)

// NodeSpec is a discovered placement target before it becomes a model.Node.
type NodeSpec struct {
	ID             int
	Name           string
	ProviderID     string
	CPUMillis      int64
	MemoryBytes    int64
	Colors         []string
}

// PodData describes the workload to create for a newly placed task.
type PodData struct {
	Task            model.Task
	NodeName        string
	Namespace       string
	ArrivalTime     time.Time
	ExecTimeSeconds int64
}

// CompletionHandler is invoked once per completed task, with the task ID
// and the node it completed on.
type CompletionHandler func(taskID, nodeName string)

// Adapter is the cluster-control surface spec.md §6.2 requires.
type Adapter interface {
	// DiscoverNodes lists the current placement targets, applying the
	// configured capacity de-rate factor and filtering out management
	// nodes.
	DiscoverNodes(ctx context.Context) ([]NodeSpec, error)

	// WatchCompletions blocks, invoking handler for every task completion
	// observed, until ctx is canceled or the underlying watch breaks.
	WatchCompletions(ctx context.Context, namespace string, handler CompletionHandler) error

	// CreateWorkload schedules the workload for a newly placed task.
	CreateWorkload(ctx context.Context, pod PodData) error

	// DeleteWorkload removes a completed or superseded workload. Deleting
	// an already-gone workload is not an error.
	DeleteWorkload(ctx context.Context, taskName, namespace string) error

	// Reschedule moves an existing or not-yet-existing task onto a new
	// node, preserving its remaining execution time when the original
	// workload can still be read.
	Reschedule(ctx context.Context, task model.Task, namespace, newNodeName string) error
}
