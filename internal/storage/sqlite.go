package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"stipendio/internal/core"

	_ "modernc.org/sqlite"
)

// timeLayout is the persisted updated_at format: ISO-8601, second precision.
const timeLayout = "2006-01-02T15:04:05"

// SQLiteRepository is the single source of truth for salary records, one row
// per month key. Writes are immediately durable: the next LoadAll reflects
// every completed Upsert or Delete.
type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db, now: time.Now}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Upsert inserts or overwrites the record for month, refreshing updated_at.
// Overwriting with an identical amount is legal and still refreshes the
// timestamp. Validation failures reject the write before touching the table.
func (r *SQLiteRepository) Upsert(ctx context.Context, month core.MonthKey, amount int64) error {
	rec := core.SalaryRecord{Month: month, Amount: amount}
	if err := rec.Validate(); err != nil {
		return err
	}

	now := r.now().Format(timeLayout)
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO salaries (month, amount, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(month) DO UPDATE SET
			amount=excluded.amount,
			updated_at=excluded.updated_at
	`, string(month), amount, now)
	if err != nil {
		return storageErr("upsert", err)
	}

	slog.InfoContext(ctx, "Salary saved",
		"month", string(month),
		"amount", amount,
		"updated_at", now)
	return nil
}

// Delete removes the record for month. Deleting an absent month is a no-op.
func (r *SQLiteRepository) Delete(ctx context.Context, month core.MonthKey) error {
	if err := month.Validate(); err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx, `DELETE FROM salaries WHERE month = ?`, string(month))
	if err != nil {
		return storageErr("delete", err)
	}

	if n, err := res.RowsAffected(); err == nil {
		slog.InfoContext(ctx, "Salary deleted", "month", string(month), "existed", n > 0)
	}
	return nil
}

// LoadAll returns every record ordered by month ascending. An empty table
// yields an empty slice, not an error. A row whose amount or timestamp does
// not scan surfaces as a storage error rather than being coerced to zero.
func (r *SQLiteRepository) LoadAll(ctx context.Context) ([]core.SalaryRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT month, amount, updated_at FROM salaries ORDER BY month
	`)
	if err != nil {
		return nil, storageErr("load", err)
	}
	defer rows.Close()

	records := make([]core.SalaryRecord, 0)
	for rows.Next() {
		var (
			month     string
			amount    int64
			updatedAt string
		)
		if err := rows.Scan(&month, &amount, &updatedAt); err != nil {
			return nil, storageErr("load", err)
		}
		ts, err := time.Parse(timeLayout, updatedAt)
		if err != nil {
			return nil, storageErr("load", fmt.Errorf("row %s: bad updated_at %q: %w", month, updatedAt, err))
		}
		records = append(records, core.SalaryRecord{
			Month:     core.MonthKey(month),
			Amount:    amount,
			UpdatedAt: ts,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("load", err)
	}
	return records, nil
}
