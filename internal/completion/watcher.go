// Package completion drains the cluster's task-completion stream and feeds
// it back into the engine and the metrics, per spec.md §6.3.
package completion

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/fricosched/frico/internal/cluster"
	"github.com/fricosched/frico/internal/engine"
	"github.com/fricosched/frico/internal/telemetry"
)

const (
	initialBackoff = 1 * time.Second
	maxBackoff     = 30 * time.Second
)

// Watcher consumes cluster.Adapter.WatchCompletions, releases completed
// tasks on the engine, and deletes their workloads. The underlying watch
// stream can break (API server restart, network blip); Watcher reconnects
// with exponential backoff rather than exiting.
type Watcher struct {
	adapter   cluster.Adapter
	engine    *engine.Engine
	metrics   *telemetry.Metrics
	namespace string
	logger    *zap.SugaredLogger
}

// New creates a completion watcher for namespace.
func New(adapter cluster.Adapter, eng *engine.Engine, metrics *telemetry.Metrics, namespace string, logger *zap.SugaredLogger) *Watcher {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Watcher{
		adapter:   adapter,
		engine:    eng,
		metrics:   metrics,
		namespace: namespace,
		logger:    logger,
	}
}

// Run blocks, reconnecting to the completion stream until ctx is canceled.
func (w *Watcher) Run(ctx context.Context) {
	backoff := initialBackoff
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		err := w.adapter.WatchCompletions(ctx, w.namespace, w.handleCompletion)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			w.logger.Warnw("completion watch stream broke, reconnecting", "err", err, "backoff", backoff)
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}

		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}

func (w *Watcher) handleCompletion(taskID, nodeName string) {
	w.engine.HandlePodCompletion(taskID, nodeName)
	w.metrics.DecPriority(taskID)
	w.metrics.DeleteObjectiveValue(taskID)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := w.adapter.DeleteWorkload(ctx, taskID, w.namespace); err != nil {
		w.logger.Warnw("failed to delete completed workload", "task_id", taskID, "node", nodeName, "err", err)
	}
}
