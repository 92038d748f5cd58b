// Package memory provides an in-memory salary store with the same semantics
// as the SQLite repository. It backs the dev mode and the HTTP tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"stipendio/internal/core"
)

type Store struct {
	mu      sync.Mutex
	records map[core.MonthKey]core.SalaryRecord
	now     func() time.Time
}

func NewStore() *Store {
	return &Store{
		records: make(map[core.MonthKey]core.SalaryRecord),
		now:     time.Now,
	}
}

// Upsert inserts or overwrites the record for month, refreshing UpdatedAt.
func (s *Store) Upsert(_ context.Context, month core.MonthKey, amount int64) error {
	rec := core.SalaryRecord{Month: month, Amount: amount}
	if err := rec.Validate(); err != nil {
		return err
	}
	rec.UpdatedAt = s.now().Truncate(time.Second)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[month] = rec
	return nil
}

// Delete removes the record for month; missing months are a no-op.
func (s *Store) Delete(_ context.Context, month core.MonthKey) error {
	if err := month.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, month)
	return nil
}

// LoadAll returns all records ordered by month ascending.
func (s *Store) LoadAll(_ context.Context) ([]core.SalaryRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]core.SalaryRecord, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out, nil
}

func (s *Store) Close() error {
	return nil
}
