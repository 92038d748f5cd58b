package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"stipendio/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "salaries.db"))
	if err != nil {
		t.Fatalf("new repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestUpsertThenLoadAll(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if err := repo.Upsert(ctx, "2024-01", 100000); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	records, err := repo.LoadAll(ctx)
	if err != nil {
		t.Fatalf("load all: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	r := records[0]
	if r.Month != "2024-01" || r.Amount != 100000 {
		t.Fatalf("record = %+v", r)
	}
	if r.UpdatedAt.IsZero() {
		t.Fatalf("updated_at not set")
	}
}

func TestUpsertOverwritesSameMonth(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if err := repo.Upsert(ctx, "2024-05", 100); err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	if err := repo.Upsert(ctx, "2024-05", 250); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	records, err := repo.LoadAll(ctx)
	if err != nil {
		t.Fatalf("load all: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("overwrite must not duplicate the key, got %d records", len(records))
	}
	if records[0].Amount != 250 {
		t.Fatalf("amount = %d, want 250 (last write wins)", records[0].Amount)
	}
}

func TestUpsertIdenticalValueRefreshesTimestamp(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	t0 := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return t0 }
	if err := repo.Upsert(ctx, "2024-06", 500); err != nil {
		t.Fatalf("first upsert: %v", err)
	}

	repo.now = func() time.Time { return t0.Add(90 * time.Second) }
	if err := repo.Upsert(ctx, "2024-06", 500); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	records, err := repo.LoadAll(ctx)
	if err != nil {
		t.Fatalf("load all: %v", err)
	}
	if got := records[0].UpdatedAt; !got.Equal(t0.Add(90 * time.Second)) {
		t.Fatalf("updated_at = %v, want refreshed timestamp", got)
	}
}

func TestUpsertValidation(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if err := repo.Upsert(ctx, "2024-1", 100); !errors.Is(err, core.ErrInvalidMonthKey) {
		t.Fatalf("expected ErrInvalidMonthKey, got %v", err)
	}
	if err := repo.Upsert(ctx, "2024-01", -1); !errors.Is(err, core.ErrNegativeAmount) {
		t.Fatalf("expected ErrNegativeAmount, got %v", err)
	}

	// A rejected write leaves the store untouched.
	records, err := repo.LoadAll(ctx)
	if err != nil {
		t.Fatalf("load all: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected empty store after rejected writes, got %d records", len(records))
	}
}

func TestDeleteMissingMonthIsNoop(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if err := repo.Upsert(ctx, "2024-01", 100); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := repo.Delete(ctx, "2030-12"); err != nil {
		t.Fatalf("deleting a missing month must not error: %v", err)
	}

	records, err := repo.LoadAll(ctx)
	if err != nil {
		t.Fatalf("load all: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("store changed by no-op delete: %d records", len(records))
	}

	if err := repo.Delete(ctx, "2024-01"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	records, err = repo.LoadAll(ctx)
	if err != nil {
		t.Fatalf("load all: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected empty store after delete, got %d records", len(records))
	}
}

func TestLoadAllOrderedByMonth(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	for _, m := range []core.MonthKey{"2025-01", "2024-03", "2024-01"} {
		if err := repo.Upsert(ctx, m, 1); err != nil {
			t.Fatalf("upsert %s: %v", m, err)
		}
	}

	records, err := repo.LoadAll(ctx)
	if err != nil {
		t.Fatalf("load all: %v", err)
	}
	want := []core.MonthKey{"2024-01", "2024-03", "2025-01"}
	for i, r := range records {
		if r.Month != want[i] {
			t.Fatalf("record %d month = %s, want %s", i, r.Month, want[i])
		}
	}
}

func TestStorageErrorSurface(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	repo := &SQLiteRepository{db: db, now: time.Now}
	ctx := context.Background()

	mock.ExpectExec("INSERT INTO salaries").WillReturnError(errors.New("disk I/O error"))
	err = repo.Upsert(ctx, "2024-01", 100)
	var serr *Error
	if !errors.As(err, &serr) {
		t.Fatalf("expected *storage.Error, got %v", err)
	}
	if serr.Op != "upsert" {
		t.Fatalf("op = %q, want upsert", serr.Op)
	}

	mock.ExpectQuery("SELECT month, amount, updated_at").WillReturnError(errors.New("database disk image is malformed"))
	_, err = repo.LoadAll(ctx)
	if !errors.As(err, &serr) || serr.Op != "load" {
		t.Fatalf("expected load storage error, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestLoadAllRejectsBadTimestamp(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	rows := sqlmock.NewRows([]string{"month", "amount", "updated_at"}).
		AddRow("2024-01", int64(100), "not-a-timestamp")
	mock.ExpectQuery("SELECT month, amount, updated_at").WillReturnRows(rows)

	repo := &SQLiteRepository{db: db, now: time.Now}
	_, err = repo.LoadAll(context.Background())
	var serr *Error
	if !errors.As(err, &serr) {
		t.Fatalf("expected *storage.Error for corrupt row, got %v", err)
	}
}
