// Package mirror defines the ports for the read-only spreadsheet copy of the
// salary table. The SQLite store stays the source of truth; the mirror is
// best effort and is repaired by the worker's reconciliation sweep.
package mirror

import (
	"context"

	"stipendio/internal/core"
)

// RecordMirror maintains one mirrored row per month key.
type RecordMirror interface {
	// UpsertRow writes or overwrites the row for rec's month.
	UpsertRow(ctx context.Context, rec core.SalaryRecord) error
	// DeleteRow removes the row for month if present.
	DeleteRow(ctx context.Context, month core.MonthKey) error
	// ReplaceAll rewrites the whole mirror from the given records.
	ReplaceAll(ctx context.Context, records []core.SalaryRecord) error
}
