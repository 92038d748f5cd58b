package backend

import (
	"context"

	"stipendio/internal/core"
)

// Store is the persistence boundary for salary records: upsert-by-month,
// delete-by-month, and an ordered full load. It is the only interface the
// presentation layer writes through.
type Store interface {
	Upsert(ctx context.Context, month core.MonthKey, amount int64) error
	Delete(ctx context.Context, month core.MonthKey) error
	LoadAll(ctx context.Context) ([]core.SalaryRecord, error)
	Close() error
}

// CleanupFunc releases backend resources on shutdown.
type CleanupFunc func() error

// Result contains the constructed store and its optional cleanup.
type Result struct {
	Store   Store
	Cleanup CleanupFunc
}

// Factory creates stores based on configuration.
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*Result, error)
}

// Type selects the storage backend.
type Type string

const (
	SQLiteBackend Type = "sqlite"
	MemoryBackend Type = "memory"
)

// String implements fmt.Stringer
func (t Type) String() string {
	return string(t)
}

// IsValid returns true if the backend type is known.
func (t Type) IsValid() bool {
	switch t {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
