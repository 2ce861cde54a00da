package cluster

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"

	"github.com/fricosched/frico/internal/audit"
	"github.com/fricosched/frico/internal/engine"
	"github.com/fricosched/frico/internal/model"
)

// AdapterReconciler implements arrival.Reconciler by creating the
// newly-placed task's workload and rescheduling every task the engine
// displaced, per spec.md §5. If Audit is set, every decision is also
// appended to the CSV audit trail (spec.md §6.5).
type AdapterReconciler struct {
	Adapter   Adapter
	Namespace string
	Logger    *zap.SugaredLogger
	Audit     *audit.Writer
}

// Reconcile creates the workload for task on node, then reschedules every
// displaced task onto its new home (or leaves an offloaded task's workload
// deleted, since it has nowhere left to run).
func (r *AdapterReconciler) Reconcile(ctx context.Context, node string, task model.Task, displacements map[string]engine.Displacement) error {
	var errs *multierror.Error

	if err := r.Adapter.CreateWorkload(ctx, PodData{
		Task:            task,
		NodeName:        node,
		Namespace:       r.Namespace,
		ArrivalTime:     task.ArrivalTime,
		ExecTimeSeconds: task.ExecTime,
	}); err != nil {
		errs = multierror.Append(errs, fmt.Errorf("creating workload for task %s: %w", task.ID, err))
	}

	for _, d := range displacements {
		if d.TargetNode == "" {
			if err := r.Adapter.DeleteWorkload(ctx, d.Task.Name, r.Namespace); err != nil {
				errs = multierror.Append(errs, fmt.Errorf("deleting offloaded workload %s: %w", d.Task.ID, err))
			}
			continue
		}
		if err := r.Adapter.Reschedule(ctx, d.Task, r.Namespace, d.TargetNode); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("rescheduling task %s to %s: %w", d.Task.ID, d.TargetNode, err))
		}
	}

	if r.Audit != nil {
		if err := r.Audit.RecordPlacement(task); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("recording audit entry for task %s: %w", task.ID, err))
		}
	}

	return errs.ErrorOrNil()
}
