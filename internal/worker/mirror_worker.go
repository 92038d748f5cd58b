package worker

import (
	"context"
	"fmt"
	"log/slog"

	"stipendio/internal/amqp"
	"stipendio/internal/core"
	"stipendio/internal/mirror"
)

// RecordSource is the read side the worker needs from storage.
type RecordSource interface {
	LoadAll(ctx context.Context) ([]core.SalaryRecord, error)
}

// MirrorWorker keeps the spreadsheet mirror in step with the store. On every
// change message it re-reads the current state of the month from storage, so
// stale or reordered messages still converge on what the store holds.
type MirrorWorker struct {
	source RecordSource
	mirror mirror.RecordMirror
}

func NewMirrorWorker(source RecordSource, m mirror.RecordMirror) *MirrorWorker {
	return &MirrorWorker{
		source: source,
		mirror: m,
	}
}

// HandleChangeMessage processes a single salary change message.
func (w *MirrorWorker) HandleChangeMessage(ctx context.Context, msg *amqp.SalaryChangedMessage) error {
	month := core.MonthKey(msg.Month)
	if err := month.Validate(); err != nil {
		// Undeliverable by construction: dropping beats requeue loops.
		slog.WarnContext(ctx, "Dropping change message with bad month key",
			"month", msg.Month, "error", err)
		return nil
	}

	records, err := w.source.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("load records: %w", err)
	}

	for _, rec := range records {
		if rec.Month == month {
			if err := w.mirror.UpsertRow(ctx, rec); err != nil {
				return fmt.Errorf("mirror upsert %s: %w", month, err)
			}
			return nil
		}
	}

	// Not in the store anymore: deleted, or the message raced an overwrite
	// of a delete. Either way the mirror row goes.
	if err := w.mirror.DeleteRow(ctx, month); err != nil {
		return fmt.Errorf("mirror delete %s: %w", month, err)
	}
	return nil
}

// Reconcile rewrites the whole mirror from storage. Run at startup and on a
// timer to repair any missed or failed change messages.
func (w *MirrorWorker) Reconcile(ctx context.Context) error {
	records, err := w.source.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("load records: %w", err)
	}

	if err := w.mirror.ReplaceAll(ctx, records); err != nil {
		return fmt.Errorf("replace mirror: %w", err)
	}

	slog.InfoContext(ctx, "Mirror reconciliation complete", "records", len(records))
	return nil
}
