package audit

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fricosched/frico/internal/model"
)

func TestRecordPlacementWritesHeaderAndRow(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "audit.csv")

	w, err := Open(path, 1)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer w.Close()

	task := model.Task{
		ID:                "t1",
		CPURequirement:    100,
		MemoryRequirement: 200,
		Priority:          model.PriorityHigh,
		Color:             "blue",
		ExecTime:          30,
		ArrivalTime:       time.Unix(1700000000, 0),
	}

	if err := w.RecordPlacement(task); err != nil {
		t.Fatalf("RecordPlacement: %v", err)
	}
	w.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header + 1 row, got %d lines: %q", len(lines), string(data))
	}
	wantHeader := "task_id,priority_value,color,exec_time,arrival_time,cpu_millicores,memory_bytes"
	if lines[0] != wantHeader {
		t.Errorf("header = %q, want %q", lines[0], wantHeader)
	}
	wantRow := "t1,4,blue,30,1700000000,100,200"
	if lines[1] != wantRow {
		t.Errorf("row = %q, want %q", lines[1], wantRow)
	}
}
