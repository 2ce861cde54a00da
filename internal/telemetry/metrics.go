// Package telemetry exposes the FRICO metric surface over a private
// Prometheus registry: the arrival/placement counters and gauges named in
// spec.md §6.4, plus the per-priority gauge lifecycle and node cost gauge
// SPEC_FULL.md adds on top.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles every collector FRICO publishes. It is safe for
// concurrent use — every field is a prometheus collector, which are
// inherently concurrency-safe.
type Metrics struct {
	Registry *prometheus.Registry

	AllocatedTasks   prometheus.Counter
	UnallocatedTasks prometheus.Counter
	TotalTasks       prometheus.Counter
	ReallocatedTasks prometheus.Counter
	OffloadedTasks   prometheus.Counter

	ObjectiveValue *prometheus.GaugeVec

	ProcessingPodTime     prometheus.Histogram
	KubeProcessingPodTime prometheus.Histogram

	Priority *prometheus.GaugeVec

	NodeHourlyCost *prometheus.GaugeVec
}

// New constructs a Metrics bundle registered against a fresh registry. Every
// collector carries a constant `simulation` label set to the current run
// identity (spec.md §6.4: "Counters (label simulation, some also node or
// priority or pod)"), so metrics from different controller runs never mix
// in the same Prometheus instance.
func New(simulation string) *Metrics {
	reg := prometheus.NewRegistry()
	constLabels := prometheus.Labels{"simulation": simulation}

	m := &Metrics{
		Registry: reg,
		AllocatedTasks: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "frico_allocated_tasks_total",
			Help:        "Number of tasks successfully placed onto a node.",
			ConstLabels: constLabels,
		}),
		UnallocatedTasks: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "frico_unallocated_tasks_total",
			Help:        "Number of tasks that Solve could not place anywhere.",
			ConstLabels: constLabels,
		}),
		TotalTasks: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "frico_total_tasks_total",
			Help:        "Number of task submissions received, regardless of outcome.",
			ConstLabels: constLabels,
		}),
		ReallocatedTasks: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "frico_reallocated_tasks_total",
			Help:        "Number of already-allocated tasks moved by Tier 2 or Tier 3 of Solve.",
			ConstLabels: constLabels,
		}),
		OffloadedTasks: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "frico_offloaded_tasks_total",
			Help:        "Number of tasks evicted by Tier 3 preemption that could not be rehomed anywhere.",
			ConstLabels: constLabels,
		}),
		ObjectiveValue: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name:        "frico_objective_value",
			Help:        "Current objective value of a task on its assigned node.",
			ConstLabels: constLabels,
		}, []string{"pod"}),
		ProcessingPodTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:        "frico_processing_pod_time_seconds",
			Help:        "Wall-clock time spent by the arrival pipeline handling one task submission, end to end.",
			ConstLabels: constLabels,
		}),
		KubeProcessingPodTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:        "frico_kube_processing_pod_time_seconds",
			Help:        "Wall-clock time spent inside cluster-adapter calls while handling one task submission.",
			ConstLabels: constLabels,
		}),
		Priority: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name:        "frico_priority",
			Help:        "Priority of a currently allocated task, keyed by pod name. Decremented back to zero on offload.",
			ConstLabels: constLabels,
		}, []string{"pod"}),
		NodeHourlyCost: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name:        "frico_node_hourly_cost",
			Help:        "Advisory on-demand hourly cost of a node, when it can be resolved to an EC2 instance type. Never used as a placement input.",
			ConstLabels: constLabels,
		}, []string{"node"}),
	}

	reg.MustRegister(
		m.AllocatedTasks,
		m.UnallocatedTasks,
		m.TotalTasks,
		m.ReallocatedTasks,
		m.OffloadedTasks,
		m.ObjectiveValue,
		m.ProcessingPodTime,
		m.KubeProcessingPodTime,
		m.Priority,
		m.NodeHourlyCost,
	)

	return m
}

// IncPriority records a task's priority as a running gauge sample, following
// the original's per-task priority gauge lifecycle: called on admission.
func (m *Metrics) IncPriority(podName string, priority float64) {
	m.Priority.WithLabelValues(podName).Set(priority)
}

// DecPriority zeroes out a task's priority gauge. Called whenever a
// displacement's target is "none" — the offload case — not only when a task
// completes normally.
func (m *Metrics) DecPriority(podName string) {
	m.Priority.WithLabelValues(podName).Set(0)
}

// DeleteObjectiveValue removes a task's objective-value sample once it
// leaves the fleet (completion or offload), so the gauge doesn't retain
// stale series forever.
func (m *Metrics) DeleteObjectiveValue(podName string) {
	m.ObjectiveValue.DeleteLabelValues(podName)
}

// DeletePriority removes a task's priority sample entirely.
func (m *Metrics) DeletePriority(podName string) {
	m.Priority.DeleteLabelValues(podName)
}
