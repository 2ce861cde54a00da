package telemetry

import (
	"testing"

	dto "github.com/prometheus/client_model/go"
)

func gaugeValue(t *testing.T, g interface{ Write(*dto.Metric) error }) float64 {
	t.Helper()
	var m dto.Metric
	if err := g.Write(&m); err != nil {
		t.Fatalf("Write: %v", err)
	}
	return m.GetGauge().GetValue()
}

func TestPriorityGaugeLifecycle(t *testing.T) {
	m := New("test")

	m.IncPriority("task-a", 5)
	if got := gaugeValue(t, m.Priority.WithLabelValues("task-a")); got != 5 {
		t.Errorf("priority gauge = %v, want 5", got)
	}

	m.DecPriority("task-a")
	if got := gaugeValue(t, m.Priority.WithLabelValues("task-a")); got != 0 {
		t.Errorf("priority gauge after DecPriority = %v, want 0", got)
	}
}

func TestCountersRegistered(t *testing.T) {
	m := New("test")
	m.AllocatedTasks.Inc()
	m.TotalTasks.Inc()

	families, err := m.Registry.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	if len(families) == 0 {
		t.Fatal("expected at least one registered metric family")
	}
}
