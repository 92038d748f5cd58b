// Package core holds the salary domain model and the pure aggregation
// functions that derive reporting views from stored records.
package core

import (
	"errors"
	"fmt"
	"time"
)

// MonthKey is the canonical "YYYY-MM" identity of a salary record.
type MonthKey string

type (
	// SalaryRecord is one stored month: the key, the amount in the smallest
	// currency unit, and the timestamp of the last write.
	SalaryRecord struct {
		Month     MonthKey
		Amount    int64
		UpdatedAt time.Time
	}
)

var (
	ErrInvalidMonthKey = errors.New("invalid month key")
	ErrNegativeAmount  = errors.New("negative amount")
)

// NewMonthKey builds a canonical key from a year and a 1-12 month.
func NewMonthKey(year int, month time.Month) MonthKey {
	return MonthKey(fmt.Sprintf("%04d-%02d", year, int(month)))
}

// ParseMonthKey validates a key and returns its calendar year and month.
func ParseMonthKey(key MonthKey) (year int, month time.Month, err error) {
	t, perr := time.Parse("2006-01", string(key))
	if perr != nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidMonthKey, key)
	}
	// time.Parse accepts "6-01" style inputs; insist on the 7-char canonical form.
	if len(key) != 7 || NewMonthKey(t.Year(), t.Month()) != key {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidMonthKey, key)
	}
	return t.Year(), t.Month(), nil
}

// Validate checks the canonical month-key form.
func (k MonthKey) Validate() error {
	_, _, err := ParseMonthKey(k)
	return err
}

// Validate checks record invariants: canonical key and non-negative amount.
// A zero amount is legal and distinct from an absent month.
func (r SalaryRecord) Validate() error {
	if err := r.Month.Validate(); err != nil {
		return err
	}
	if r.Amount < 0 {
		return fmt.Errorf("%w: %d", ErrNegativeAmount, r.Amount)
	}
	return nil
}
