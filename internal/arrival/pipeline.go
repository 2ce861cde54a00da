// Package arrival implements the single-consumer arrival pipeline of
// spec.md §4.2: every task submission is enqueued, processed strictly in
// order by one worker goroutine, and its outcome is handed back to the
// original submitter through a private result channel.
package arrival

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fricosched/frico/internal/engine"
	"github.com/fricosched/frico/internal/model"
	"github.com/fricosched/frico/internal/telemetry"
)

// Reconciler performs the cluster-adapter I/O a Solve outcome implies:
// creating the workload for the newly placed task and rescheduling every
// displaced task onto its new home. It runs outside the engine's lock,
// after the engine decision has already committed, matching spec.md §5.
type Reconciler interface {
	Reconcile(ctx context.Context, node string, task model.Task, displacements map[string]engine.Displacement) error
}

// Result is the outcome of one arrival pipeline submission.
type Result struct {
	RequestID     string
	Node          string
	Admitted      bool
	Displacements map[string]engine.Displacement
}

type job struct {
	requestID string
	task      model.Task
	resultCh  chan Result
}

// Pipeline is the single-consumer arrival queue.
type Pipeline struct {
	engine     *engine.Engine
	reconciler Reconciler
	metrics    *telemetry.Metrics
	logger     *zap.SugaredLogger

	queue chan job
	done  chan struct{}
}

// New constructs a Pipeline with the given queue depth (the buffer a burst
// of arrivals can absorb before Submit starts blocking).
func New(eng *engine.Engine, reconciler Reconciler, metrics *telemetry.Metrics, logger *zap.SugaredLogger, queueDepth int) *Pipeline {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	if queueDepth <= 0 {
		queueDepth = 64
	}
	return &Pipeline{
		engine:     eng,
		reconciler: reconciler,
		metrics:    metrics,
		logger:     logger,
		queue:      make(chan job, queueDepth),
		done:       make(chan struct{}),
	}
}

// Submit enqueues task and blocks until the single consumer has processed
// it (or ctx is canceled first, or the pipeline has stopped).
func (p *Pipeline) Submit(ctx context.Context, task model.Task) (Result, error) {
	j := job{
		requestID: uuid.NewString(),
		task:      task,
		resultCh:  make(chan Result, 1),
	}

	select {
	case p.queue <- j:
	case <-p.done:
		return Result{}, fmt.Errorf("arrival: pipeline is shut down")
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}

	select {
	case res := <-j.resultCh:
		return res, nil
	case <-p.done:
		// Run sends a processed job's result before it can close done.
		select {
		case res := <-j.resultCh:
			return res, nil
		default:
		}
		return Result{}, fmt.Errorf("arrival: pipeline is shut down")
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

// Run drains the queue on the calling goroutine until ctx is canceled. It
// is meant to be launched with `go pipeline.Run(ctx)` exactly once: a
// second consumer would violate the single-consumer serialization spec.md
// §5 requires.
func (p *Pipeline) Run(ctx context.Context) {
	defer close(p.done)
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-p.queue:
			j.resultCh <- p.process(ctx, j)
		}
	}
}

func (p *Pipeline) process(ctx context.Context, j job) Result {
	start := time.Now()
	defer func() {
		if p.metrics != nil {
			p.metrics.ProcessingPodTime.Observe(time.Since(start).Seconds())
		}
	}()

	if p.metrics != nil {
		p.metrics.TotalTasks.Inc()
	}

	node, displacements := p.engine.Solve(j.task)
	admitted := node != ""

	if p.metrics != nil {
		p.recordOutcome(j.task, node, displacements, admitted)
	}

	if admitted && p.reconciler != nil {
		kubeStart := time.Now()
		if err := p.reconciler.Reconcile(ctx, node, j.task, displacements); err != nil {
			p.logger.Errorw("cluster reconciliation failed after placement decision", "task_id", j.task.ID, "node", node, "err", err)
		}
		if p.metrics != nil {
			p.metrics.KubeProcessingPodTime.Observe(time.Since(kubeStart).Seconds())
		}
	}

	return Result{RequestID: j.requestID, Node: node, Admitted: admitted, Displacements: displacements}
}

func (p *Pipeline) recordOutcome(task model.Task, node string, displacements map[string]engine.Displacement, admitted bool) {
	if admitted {
		p.metrics.AllocatedTasks.Inc()
		p.metrics.IncPriority(task.ID, float64(task.Priority))
		if view, err := p.engine.GetNodeByName(node); err == nil {
			bound := task.BoundTo(view.CPUCapacity, view.MemoryCapacity)
			p.metrics.ObjectiveValue.WithLabelValues(task.ID).Set(bound.ObjectiveValue())
		}
	} else {
		p.metrics.UnallocatedTasks.Inc()
	}

	for _, d := range displacements {
		if d.TargetNode == "" {
			p.metrics.OffloadedTasks.Inc()
			p.metrics.DecPriority(d.Task.ID)
			p.metrics.DeleteObjectiveValue(d.Task.ID)
		} else {
			p.metrics.ReallocatedTasks.Inc()
		}
	}
}
