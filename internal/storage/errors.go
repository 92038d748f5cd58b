package storage

import "fmt"

// Error wraps any underlying persistence failure. The store is a thin
// durability boundary: nothing is retried here, callers decide how to report
// the failure. Validation failures are NOT storage errors and are returned
// as core validation errors before anything is written.
type Error struct {
	Op  string // "upsert", "delete", "load"
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func storageErr(op string, err error) error {
	return &Error{Op: op, Err: err}
}
