package services

import (
	"context"
	"fmt"
	"log/slog"

	"stipendio/internal/amqp"
	"stipendio/internal/core"
)

// Store is the persistence the service writes through. Matches
// backend.Store; declared here to avoid an import cycle with the factory.
type Store interface {
	Upsert(ctx context.Context, month core.MonthKey, amount int64) error
	Delete(ctx context.Context, month core.MonthKey) error
	LoadAll(ctx context.Context) ([]core.SalaryRecord, error)
	Close() error
}

// SalaryService orchestrates salary writes: the local store first, then a
// best-effort mirror event over AMQP. A publish failure never fails the
// user's write.
type SalaryService struct {
	storage    Store
	amqpClient *amqp.Client
}

func NewSalaryService(storage Store, amqpClient *amqp.Client) *SalaryService {
	return &SalaryService{
		storage:    storage,
		amqpClient: amqpClient,
	}
}

// Upsert saves the month locally and publishes a change event.
func (s *SalaryService) Upsert(ctx context.Context, month core.MonthKey, amount int64) error {
	if err := s.storage.Upsert(ctx, month, amount); err != nil {
		return err
	}

	if err := s.publishChange(ctx, month, amqp.OpUpsert); err != nil {
		slog.ErrorContext(ctx, "Failed to publish mirror event",
			"month", string(month), "op", amqp.OpUpsert, "error", err)
		// Record is saved locally; the mirror catches up on reconciliation.
	}

	return nil
}

// Delete removes the month locally and publishes a change event.
func (s *SalaryService) Delete(ctx context.Context, month core.MonthKey) error {
	if err := s.storage.Delete(ctx, month); err != nil {
		return err
	}

	if err := s.publishChange(ctx, month, amqp.OpDelete); err != nil {
		slog.ErrorContext(ctx, "Failed to publish mirror event",
			"month", string(month), "op", amqp.OpDelete, "error", err)
	}

	return nil
}

// LoadAll passes through to the store.
func (s *SalaryService) LoadAll(ctx context.Context) ([]core.SalaryRecord, error) {
	return s.storage.LoadAll(ctx)
}

func (s *SalaryService) publishChange(ctx context.Context, month core.MonthKey, op string) error {
	if s.amqpClient == nil {
		slog.DebugContext(ctx, "AMQP client not available, skipping mirror event")
		return nil
	}

	return s.amqpClient.PublishSalaryChanged(ctx, string(month), op)
}

// Close closes both storage and AMQP connections.
func (s *SalaryService) Close() error {
	var errs []error

	if s.storage != nil {
		if err := s.storage.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if s.amqpClient != nil {
		if err := s.amqpClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close salary service: %v", errs)
	}

	return nil
}
