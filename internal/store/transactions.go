package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/stacksapp/stacks-server/internal/domain"
)

const transactionPrefix = "txn:"

var ErrTransactionNotFound = errors.New("transaction not found")

// initTransactions initializes the lending ledger entity.
// User and resource indexes are multi-valued: a user holds many
// transactions over time and a resource accumulates them too.
func (s *Store) initTransactions() {
	s.Transactions = NewEntity[domain.Transaction](s, transactionPrefix).
		WithMultiIndex("user",
			func(t *domain.Transaction) []string {
				return []string{t.UserID}
			},
		).
		WithMultiIndex("resource",
			func(t *domain.Transaction) []string {
				return []string{t.ResourceID}
			},
		)
}

// Transaction Ledger Operations

// AppendTransaction records a new lending transaction. Ledger records
// are created, later updated in place on return, and never deleted.
func (s *Store) AppendTransaction(ctx context.Context, t *domain.Transaction) error {
	t.InitTimestamps()

	if err := s.Transactions.Create(ctx, t.ID, t); err != nil {
		return fmt.Errorf("append transaction: %w", err)
	}

	if s.logger != nil {
		s.logger.LogAttrs(ctx, slog.LevelInfo, "transaction appended",
			slog.String("id", t.ID),
			slog.String("user_id", t.UserID),
			slog.String("resource_id", t.ResourceID),
			slog.String("status", string(t.Status)),
		)
	}
	return nil
}

// GetTransaction retrieves a ledger record by ID.
func (s *Store) GetTransaction(ctx context.Context, id string) (*domain.Transaction, error) {
	t, err := s.Transactions.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrTransactionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get transaction: %w", err)
	}
	return t, nil
}

// UpdateTransaction persists changes to an existing ledger record.
// The only mutation the lending flow performs is closing out a borrow
// on return.
func (s *Store) UpdateTransaction(ctx context.Context, t *domain.Transaction) error {
	t.Touch()

	err := s.Transactions.Update(ctx, t.ID, t)
	if errors.Is(err, ErrNotFound) {
		return ErrTransactionNotFound
	}
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}

	if s.logger != nil {
		s.logger.LogAttrs(ctx, slog.LevelInfo, "transaction updated",
			slog.String("id", t.ID),
			slog.String("status", string(t.Status)),
		)
	}
	return nil
}

// ListTransactionsByUser returns the full lending history for a user,
// open and closed records alike.
func (s *Store) ListTransactionsByUser(ctx context.Context, userID string) ([]*domain.Transaction, error) {
	var results []*domain.Transaction
	for t, err := range s.Transactions.ListByIndex(ctx, "user", userID) {
		if err != nil {
			return nil, fmt.Errorf("list transactions for user %s: %w", userID, err)
		}
		results = append(results, t)
	}
	return results, nil
}

// ListTransactionsByResource returns every ledger record touching a resource.
func (s *Store) ListTransactionsByResource(ctx context.Context, resourceID string) ([]*domain.Transaction, error) {
	var results []*domain.Transaction
	for t, err := range s.Transactions.ListByIndex(ctx, "resource", resourceID) {
		if err != nil {
			return nil, fmt.Errorf("list transactions for resource %s: %w", resourceID, err)
		}
		results = append(results, t)
	}
	return results, nil
}

// ActiveBorrowForResource finds an open borrowed record for a resource,
// optionally restricted to a specific user (pass "" to match any user).
// Returns ErrTransactionNotFound when no open borrow exists.
func (s *Store) ActiveBorrowForResource(ctx context.Context, resourceID, userID string) (*domain.Transaction, error) {
	for t, err := range s.Transactions.ListByIndex(ctx, "resource", resourceID) {
		if err != nil {
			return nil, fmt.Errorf("scan borrows for resource %s: %w", resourceID, err)
		}
		if !t.IsActiveBorrow() {
			continue
		}
		if userID != "" && t.UserID != userID {
			continue
		}
		return t, nil
	}
	return nil, ErrTransactionNotFound
}

// CountOpenReservations counts reservation records still queued against
// a resource.
func (s *Store) CountOpenReservations(ctx context.Context, resourceID string) (int, error) {
	count := 0
	for t, err := range s.Transactions.ListByIndex(ctx, "resource", resourceID) {
		if err != nil {
			return 0, fmt.Errorf("count reservations for resource %s: %w", resourceID, err)
		}
		if t.Status == domain.StatusReserved {
			count++
		}
	}
	return count, nil
}
