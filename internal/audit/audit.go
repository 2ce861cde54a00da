// Package audit writes the CSV trail spec.md §6.5 requires: one row per
// admitted task, in the exact column order the original's test_bed.csv
// used (`eaoda_controller.py`'s row_to_append).
package audit

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/fricosched/frico/internal/model"
)

var header = []string{
	"task_id", "priority_value", "color", "exec_time", "arrival_time",
	"cpu_millicores", "memory_bytes",
}

// Writer appends one CSV row per admitted task to a rotated file. It is
// safe for concurrent use; callers don't need external synchronization.
type Writer struct {
	mu   sync.Mutex
	file *lumberjack.Logger
	csv  *csv.Writer
}

// Open creates or appends to the CSV audit file at path, rotating it with
// lumberjack once it crosses maxSizeMB (a long-running controller's audit
// trail would otherwise grow without bound, unlike the original's one-shot
// simulation run).
func Open(path string, maxSizeMB int) (*Writer, error) {
	if maxSizeMB <= 0 {
		maxSizeMB = 100
	}
	lj := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxSizeMB,
		MaxBackups: 5,
		Compress:   true,
	}

	w := &Writer{file: lj, csv: csv.NewWriter(lj)}

	if info, err := os.Stat(path); err != nil || info.Size() == 0 {
		if err := w.csv.Write(header); err != nil {
			return nil, fmt.Errorf("audit: writing header: %w", err)
		}
		w.csv.Flush()
	}
	return w, nil
}

// RecordPlacement appends one row for an admitted task, per spec.md §6.5's
// [task_id, priority_value, color, exec_time, arrival_time, cpu_millicores,
// memory_bytes] schema.
func (w *Writer) RecordPlacement(task model.Task) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	row := []string{
		task.ID,
		strconv.Itoa(int(task.Priority)),
		task.Color,
		strconv.FormatInt(task.ExecTime, 10),
		strconv.FormatInt(task.ArrivalTime.Unix(), 10),
		strconv.FormatInt(task.CPURequirement, 10),
		strconv.FormatInt(task.MemoryRequirement, 10),
	}
	if err := w.csv.Write(row); err != nil {
		return fmt.Errorf("audit: writing row: %w", err)
	}
	w.csv.Flush()
	return w.csv.Error()
}

// Close flushes and closes the underlying rotated file.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.csv.Flush()
	return w.file.Close()
}
