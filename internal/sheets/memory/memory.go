package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"mypgrade/internal/core"
	ports "mypgrade/internal/sheets"
)

// Writer keeps the last exported table in memory. Used for local runs
// without a spreadsheet.
type Writer struct {
	mu     sync.Mutex
	rows   [][]any
	writes int
}

var _ ports.DashboardWriter = (*Writer)(nil)

func New() *Writer {
	return &Writer{}
}

// WriteDashboard replaces the stored table and returns a synthetic reference.
func (w *Writer) WriteDashboard(_ context.Context, d core.Dashboard, at time.Time) (string, error) {
	rows := ports.DashboardRows(d, at)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.rows = rows
	w.writes++
	return fmt.Sprintf("mem:%d", w.writes), nil
}

// Rows returns a copy of the last written table.
func (w *Writer) Rows() [][]any {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([][]any, len(w.rows))
	for i, r := range w.rows {
		out[i] = append([]any(nil), r...)
	}
	return out
}

// Writes returns how many times the table was written.
func (w *Writer) Writes() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.writes
}
