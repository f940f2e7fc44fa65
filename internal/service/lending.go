package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/stacksapp/stacks-server/internal/config"
	"github.com/stacksapp/stacks-server/internal/domain"
	domainerrors "github.com/stacksapp/stacks-server/internal/errors"
	"github.com/stacksapp/stacks-server/internal/id"
	"github.com/stacksapp/stacks-server/internal/store"
)

// LendingService implements the circulation state machine: borrow,
// reserve and return. All mutations for a resource run under its
// per-resource lock so concurrent requests cannot both claim the last
// copy.
type LendingService struct {
	store  *store.Store
	cfg    config.LendingConfig
	locks  *resourceLocks
	logger *slog.Logger

	// today is injectable for tests; date arithmetic everywhere else
	// goes through it.
	today func() domain.Date
}

// NewLendingService creates a new lending service.
func NewLendingService(store *store.Store, cfg config.LendingConfig, logger *slog.Logger) *LendingService {
	return &LendingService{
		store:  store,
		cfg:    cfg,
		locks:  newResourceLocks(),
		logger: logger,
		today:  domain.Today,
	}
}

// WithClock overrides the service's notion of the current date.
// Intended for tests.
func (s *LendingService) WithClock(today func() domain.Date) *LendingService {
	s.today = today
	return s
}

// ReturnResult is the outcome of returning a borrowed resource.
type ReturnResult struct {
	Transaction *domain.Transaction
	// Fine owed for this loan, computed at return time from the days
	// overdue. Zero when returned on or before the due date.
	Fine float64
	// OpenReservations is the number of reservations still queued
	// against the resource, surfaced so staff can route the returned
	// copy to the next requester.
	OpenReservations int
}

// UserFines summarizes fines accruing on a user's open loans.
type UserFines struct {
	UserID string
	Total  float64
	Items  []UserFineItem
}

// UserFineItem is the accrued fine for one overdue loan.
type UserFineItem struct {
	Transaction *domain.Transaction
	DaysOverdue int
	Amount      float64
}

// Borrow checks a resource out to a user. loanDays selects the loan
// window; zero applies the configured default, anything else must fall
// within 1 to the configured maximum. Physical resources require an
// available copy; digital resources always lend.
func (s *LendingService) Borrow(ctx context.Context, userID, resourceID string, loanDays int) (*domain.Transaction, error) {
	if userID == "" {
		return nil, domainerrors.Validation("user id is required")
	}

	if loanDays == 0 {
		loanDays = s.cfg.LoanPeriodDays
	}
	if loanDays < 1 || loanDays > s.cfg.MaxLoanDays {
		return nil, domainerrors.Validationf("loan period must be between 1 and %d days", s.cfg.MaxLoanDays)
	}

	unlock := s.locks.lock(resourceID)
	defer unlock()

	resource, err := s.store.GetResource(ctx, resourceID)
	if errors.Is(err, store.ErrResourceNotFound) {
		return nil, domainerrors.NotFound("resource not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get resource: %w", err)
	}

	if resource.IsPhysical() && resource.Copies <= 0 {
		return nil, domainerrors.OutOfStock("no copies available")
	}

	txnID, err := id.Generate("txn")
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "generate transaction id")
	}

	today := s.today()
	txn := &domain.Transaction{
		ID:           txnID,
		UserID:       userID,
		ResourceID:   resourceID,
		CheckoutDate: today,
		DueDate:      today.AddDays(loanDays),
		Status:       domain.StatusBorrowed,
	}

	if err := s.store.AppendTransaction(ctx, txn); err != nil {
		return nil, fmt.Errorf("append transaction: %w", err)
	}

	if resource.IsPhysical() {
		if _, err := s.store.AdjustResourceCopies(ctx, resourceID, -1); err != nil {
			return nil, fmt.Errorf("decrement copies: %w", err)
		}
	}

	s.logger.Info("resource borrowed",
		"transaction_id", txn.ID,
		"user_id", userID,
		"resource_id", resourceID,
		"due_date", txn.DueDate.String(),
	)

	return txn, nil
}

// Reserve queues a user for a resource that is currently checked out.
// Reserving an available resource is rejected; the user should borrow
// it instead. from and to bound the hold window; zero values default
// to today and the configured window length. The reservation's due
// date records the end of the hold and carries no overdue semantics.
func (s *LendingService) Reserve(ctx context.Context, userID, resourceID string, from, to domain.Date) (*domain.Transaction, error) {
	if userID == "" {
		return nil, domainerrors.Validation("user id is required")
	}

	today := s.today()
	if from.IsZero() {
		from = today
	}
	if to.IsZero() {
		to = from.AddDays(s.cfg.ReservationWindowDays)
	}
	if from.Before(today) {
		return nil, domainerrors.Validation("reservation cannot start in the past")
	}
	if !to.After(from) {
		return nil, domainerrors.Validation("reservation end must be after its start")
	}

	unlock := s.locks.lock(resourceID)
	defer unlock()

	resource, err := s.store.GetResource(ctx, resourceID)
	if errors.Is(err, store.ErrResourceNotFound) {
		return nil, domainerrors.NotFound("resource not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get resource: %w", err)
	}

	if resource.Available {
		return nil, domainerrors.InvalidReservation("resource is available, borrow it instead")
	}

	// An unavailable resource must have an open borrow backing it;
	// anything else means inventory drifted and reserving would strand
	// the user.
	if _, err := s.store.ActiveBorrowForResource(ctx, resourceID, ""); err != nil {
		if errors.Is(err, store.ErrTransactionNotFound) {
			return nil, domainerrors.InvalidReservation("resource has no active loan to wait on")
		}
		return nil, fmt.Errorf("check active borrow: %w", err)
	}

	txnID, err := id.Generate("txn")
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "generate transaction id")
	}

	txn := &domain.Transaction{
		ID:           txnID,
		UserID:       userID,
		ResourceID:   resourceID,
		CheckoutDate: from,
		DueDate:      to,
		Status:       domain.StatusReserved,
	}

	if err := s.store.AppendTransaction(ctx, txn); err != nil {
		return nil, fmt.Errorf("append transaction: %w", err)
	}

	s.logger.Info("resource reserved",
		"transaction_id", txn.ID,
		"user_id", userID,
		"resource_id", resourceID,
	)

	return txn, nil
}

// Return closes out a borrowed transaction. The fine is computed from
// the days overdue at return time, the resource's copy count is
// restored for physical resources, and the count of reservations still
// waiting is reported back.
func (s *LendingService) Return(ctx context.Context, transactionID string) (*ReturnResult, error) {
	txn, err := s.store.GetTransaction(ctx, transactionID)
	if errors.Is(err, store.ErrTransactionNotFound) {
		return nil, domainerrors.NotFound("transaction not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get transaction: %w", err)
	}

	unlock := s.locks.lock(txn.ResourceID)
	defer unlock()

	// Re-read under the lock; a concurrent return may have closed it.
	txn, err = s.store.GetTransaction(ctx, transactionID)
	if err != nil {
		return nil, fmt.Errorf("get transaction: %w", err)
	}

	if txn.Status == domain.StatusReturned {
		return nil, domainerrors.InvalidTransactionState("transaction is already returned")
	}
	if !txn.IsActiveBorrow() {
		return nil, domainerrors.InvalidTransactionStatef("cannot return a %s transaction", txn.Status)
	}

	today := s.today()
	fine := domain.CalculateFine(txn, today, s.cfg.DailyFine)

	txn.MarkReturned(today)
	if err := s.store.UpdateTransaction(ctx, txn); err != nil {
		return nil, fmt.Errorf("update transaction: %w", err)
	}

	resource, err := s.store.GetResource(ctx, txn.ResourceID)
	switch {
	case errors.Is(err, store.ErrResourceNotFound):
		// Resource was removed from the catalog while on loan; the
		// ledger record still closes.
		s.logger.Warn("returned resource no longer in catalog", "resource_id", txn.ResourceID)
	case err != nil:
		return nil, fmt.Errorf("get resource: %w", err)
	case resource.IsPhysical():
		if _, err := s.store.AdjustResourceCopies(ctx, txn.ResourceID, 1); err != nil {
			return nil, fmt.Errorf("increment copies: %w", err)
		}
	}

	openReservations, err := s.store.CountOpenReservations(ctx, txn.ResourceID)
	if err != nil {
		return nil, fmt.Errorf("count reservations: %w", err)
	}

	s.logger.Info("resource returned",
		"transaction_id", txn.ID,
		"resource_id", txn.ResourceID,
		"fine", fine,
		"open_reservations", openReservations,
	)

	return &ReturnResult{
		Transaction:      txn,
		Fine:             fine,
		OpenReservations: openReservations,
	}, nil
}

// UserTransactions returns a user's full lending history. Statuses are
// the effective ones: an open loan past its due date reports as
// overdue even though the ledger stores it as borrowed.
func (s *LendingService) UserTransactions(ctx context.Context, userID string) ([]*domain.Transaction, error) {
	txns, err := s.store.ListTransactionsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}

	today := s.today()
	for _, txn := range txns {
		txn.Status = txn.EffectiveStatus(today)
	}

	// Index order is by transaction ID, which is random. Present newest first.
	sort.Slice(txns, func(i, j int) bool {
		return txns[i].CreatedAt.After(txns[j].CreatedAt)
	})
	return txns, nil
}

// FinesForUser computes the fines currently accruing on a user's open
// overdue loans. Fines are derived, never persisted: closing the loan
// fixes the amount, and until then it grows daily.
func (s *LendingService) FinesForUser(ctx context.Context, userID string) (*UserFines, error) {
	txns, err := s.store.ListTransactionsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}

	today := s.today()
	fines := &UserFines{UserID: userID, Items: []UserFineItem{}}
	for _, txn := range txns {
		amount := domain.CalculateFine(txn, today, s.cfg.DailyFine)
		if amount <= 0 {
			continue
		}
		fines.Items = append(fines.Items, UserFineItem{
			Transaction: txn,
			DaysOverdue: today.DaysSince(txn.DueDate),
			Amount:      amount,
		})
		fines.Total += amount
	}
	return fines, nil
}
