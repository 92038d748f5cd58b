package core

import (
	"errors"
	"testing"
	"time"
)

func TestParseMonthKey(t *testing.T) {
	cases := []struct {
		key   MonthKey
		year  int
		month time.Month
		ok    bool
	}{
		{"2024-01", 2024, time.January, true},
		{"2025-12", 2025, time.December, true},
		{"1999-06", 1999, time.June, true},
		{"2024-13", 0, 0, false},
		{"2024-00", 0, 0, false},
		{"2024-1", 0, 0, false},  // missing zero padding
		{"24-01", 0, 0, false},   // two-digit year
		{"2024/01", 0, 0, false}, // wrong separator
		{"2024-01-05", 0, 0, false},
		{"", 0, 0, false},
		{"garbage", 0, 0, false},
	}
	for _, tc := range cases {
		year, month, err := ParseMonthKey(tc.key)
		if tc.ok {
			if err != nil {
				t.Fatalf("ParseMonthKey(%q) unexpected error: %v", tc.key, err)
			}
			if year != tc.year || month != tc.month {
				t.Fatalf("ParseMonthKey(%q) = (%d, %v), want (%d, %v)", tc.key, year, month, tc.year, tc.month)
			}
			continue
		}
		if err == nil {
			t.Fatalf("ParseMonthKey(%q) expected error", tc.key)
		}
		if !errors.Is(err, ErrInvalidMonthKey) {
			t.Fatalf("ParseMonthKey(%q) error = %v, want ErrInvalidMonthKey", tc.key, err)
		}
	}
}

func TestNewMonthKey(t *testing.T) {
	if got := NewMonthKey(2024, time.March); got != "2024-03" {
		t.Fatalf("NewMonthKey(2024, March) = %q", got)
	}
	if got := NewMonthKey(987, time.November); got != "0987-11" {
		t.Fatalf("NewMonthKey(987, November) = %q", got)
	}
}

func TestSalaryRecordValidate(t *testing.T) {
	good := SalaryRecord{Month: "2024-01", Amount: 0}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok for zero amount, got %v", err)
	}

	if err := (SalaryRecord{Month: "2024-1", Amount: 100}).Validate(); !errors.Is(err, ErrInvalidMonthKey) {
		t.Fatalf("expected ErrInvalidMonthKey, got %v", err)
	}
	if err := (SalaryRecord{Month: "2024-01", Amount: -1}).Validate(); !errors.Is(err, ErrNegativeAmount) {
		t.Fatalf("expected ErrNegativeAmount, got %v", err)
	}
}
