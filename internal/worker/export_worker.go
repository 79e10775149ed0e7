package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"mypgrade/internal/amqp"
	"mypgrade/internal/core"
	"mypgrade/internal/sheets"
)

// SubjectLoader reads the current subject collection from storage.
type SubjectLoader interface {
	Load(ctx context.Context) []core.Subject
}

// SnapshotConsumer delivers snapshot messages until ctx is done or the
// connection drops.
type SnapshotConsumer interface {
	ConsumeSnapshots(ctx context.Context, handler func(context.Context, *amqp.SnapshotMessage) error) error
}

// ExportWorker mirrors the grade dashboard into a spreadsheet whenever the
// subject collection changes.
type ExportWorker struct {
	writer sheets.DashboardWriter
	loader SubjectLoader

	mu   sync.Mutex
	last time.Time
}

// NewExportWorker creates a worker. loader may be nil when the worker has no
// access to the grade store.
func NewExportWorker(writer sheets.DashboardWriter, loader SubjectLoader) *ExportWorker {
	return &ExportWorker{writer: writer, loader: loader}
}

// HandleSnapshot exports the dashboard of one snapshot. Snapshots older than
// the last exported one are skipped so a redelivered message cannot roll
// the sheet back.
func (w *ExportWorker) HandleSnapshot(ctx context.Context, msg *amqp.SnapshotMessage) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.last.IsZero() && msg.Timestamp.Before(w.last) {
		slog.InfoContext(ctx, "Skipping stale snapshot",
			"reason", msg.Reason,
			"timestamp", msg.Timestamp,
			"last_exported", w.last)
		return nil
	}

	if err := w.export(ctx, msg.Subjects, msg.Timestamp); err != nil {
		return fmt.Errorf("export snapshot: %w", err)
	}
	w.last = msg.Timestamp
	return nil
}

// StartupExport writes the stored collection once so the sheet is current
// even if snapshots were published while the worker was down.
func (w *ExportWorker) StartupExport(ctx context.Context) error {
	if w.loader == nil {
		slog.InfoContext(ctx, "No grade store configured, skipping startup export")
		return nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	now := time.Now().UTC()
	if err := w.export(ctx, w.loader.Load(ctx), now); err != nil {
		return fmt.Errorf("startup export: %w", err)
	}
	w.last = now
	return nil
}

// Run consumes snapshots until ctx is cancelled, reconnecting with
// exponential backoff when the consumer stops on its own.
func (w *ExportWorker) Run(ctx context.Context, consumer SnapshotConsumer) error {
	for attempt := 0; ; attempt++ {
		started := time.Now()
		err := consumer.ConsumeSnapshots(ctx, w.HandleSnapshot)
		if ctx.Err() != nil {
			return nil
		}
		if errors.Is(err, context.Canceled) {
			return nil
		}

		// A consumer that ran for a while earns a fresh backoff.
		if time.Since(started) > time.Minute {
			attempt = 0
		}
		delay := amqp.ExponentialBackoff(attempt)
		slog.WarnContext(ctx, "Snapshot consumer stopped, retrying",
			"error", err,
			"attempt", attempt+1,
			"retry_in", delay)

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(delay):
		}
	}
}

func (w *ExportWorker) export(ctx context.Context, subjects []core.Subject, at time.Time) error {
	dashboard := core.Aggregate(subjects)
	ref, err := w.writer.WriteDashboard(ctx, dashboard, at)
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "Exported grade dashboard",
		"sheets_range", ref,
		"subjects", len(dashboard.Subjects),
		"gpa", dashboard.GPA,
		"total_points", dashboard.TotalPoints)
	return nil
}
