package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/stacksapp/stacks-server/internal/domain"
	"github.com/stacksapp/stacks-server/internal/store"
)

func testDate(t *testing.T, value string) domain.Date {
	t.Helper()
	d, err := domain.ParseDate(value)
	require.NoError(t, err)
	return d
}

func testBorrow(t *testing.T, id, userID, resourceID string) *domain.Transaction {
	t.Helper()
	return &domain.Transaction{
		ID:           id,
		UserID:       userID,
		ResourceID:   resourceID,
		CheckoutDate: testDate(t, "2026-03-01"),
		DueDate:      testDate(t, "2026-03-15"),
		Status:       domain.StatusBorrowed,
	}
}

func TestAppendTransaction_AndGet(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	txn := testBorrow(t, "txn-1", "user-1", "res-1")
	require.NoError(t, s.AppendTransaction(context.Background(), txn))

	got, err := s.GetTransaction(context.Background(), "txn-1")
	require.NoError(t, err)
	require.Equal(t, "user-1", got.UserID)
	require.Equal(t, "res-1", got.ResourceID)
	require.Equal(t, domain.StatusBorrowed, got.Status)
	require.Equal(t, "2026-03-15", got.DueDate.String())
	require.False(t, got.CreatedAt.IsZero())
}

func TestAppendTransaction_DuplicateID(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	require.NoError(t, s.AppendTransaction(context.Background(), testBorrow(t, "txn-1", "user-1", "res-1")))

	err := s.AppendTransaction(context.Background(), testBorrow(t, "txn-1", "user-2", "res-2"))
	require.ErrorIs(t, err, store.ErrAlreadyExists)
}

func TestGetTransaction_NotFound(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	_, err := s.GetTransaction(context.Background(), "missing")
	require.ErrorIs(t, err, store.ErrTransactionNotFound)
}

func TestUpdateTransaction_Return(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	txn := testBorrow(t, "txn-1", "user-1", "res-1")
	require.NoError(t, s.AppendTransaction(context.Background(), txn))

	txn.MarkReturned(testDate(t, "2026-03-10"))
	require.NoError(t, s.UpdateTransaction(context.Background(), txn))

	got, err := s.GetTransaction(context.Background(), "txn-1")
	require.NoError(t, err)
	require.Equal(t, domain.StatusReturned, got.Status)
	require.NotNil(t, got.ReturnDate)
	require.Equal(t, "2026-03-10", got.ReturnDate.String())

	err = s.UpdateTransaction(context.Background(), testBorrow(t, "txn-missing", "u", "r"))
	require.ErrorIs(t, err, store.ErrTransactionNotFound)
}

func TestListTransactionsByUser(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	require.NoError(t, s.AppendTransaction(context.Background(), testBorrow(t, "txn-1", "user-1", "res-1")))
	require.NoError(t, s.AppendTransaction(context.Background(), testBorrow(t, "txn-2", "user-1", "res-2")))
	require.NoError(t, s.AppendTransaction(context.Background(), testBorrow(t, "txn-3", "user-2", "res-1")))

	history, err := s.ListTransactionsByUser(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	for _, txn := range history {
		require.Equal(t, "user-1", txn.UserID)
	}

	history, err = s.ListTransactionsByUser(context.Background(), "user-3")
	require.NoError(t, err)
	require.Empty(t, history)
}

func TestActiveBorrowForResource(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	borrowed := testBorrow(t, "txn-1", "user-1", "res-1")
	require.NoError(t, s.AppendTransaction(context.Background(), borrowed))

	returned := testBorrow(t, "txn-2", "user-2", "res-1")
	returned.MarkReturned(testDate(t, "2026-03-05"))
	require.NoError(t, s.AppendTransaction(context.Background(), returned))

	got, err := s.ActiveBorrowForResource(context.Background(), "res-1", "")
	require.NoError(t, err)
	require.Equal(t, "txn-1", got.ID)

	// Restricted to a user with no open borrow
	_, err = s.ActiveBorrowForResource(context.Background(), "res-1", "user-2")
	require.ErrorIs(t, err, store.ErrTransactionNotFound)

	_, err = s.ActiveBorrowForResource(context.Background(), "res-9", "")
	require.ErrorIs(t, err, store.ErrTransactionNotFound)
}

func TestCountOpenReservations(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	require.NoError(t, s.AppendTransaction(context.Background(), testBorrow(t, "txn-1", "user-1", "res-1")))

	for i, id := range []string{"txn-2", "txn-3"} {
		reservation := &domain.Transaction{
			ID:           id,
			UserID:       "user-" + string(rune('2'+i)),
			ResourceID:   "res-1",
			CheckoutDate: testDate(t, "2026-03-02"),
			Status:       domain.StatusReserved,
		}
		require.NoError(t, s.AppendTransaction(context.Background(), reservation))
	}

	count, err := s.CountOpenReservations(context.Background(), "res-1")
	require.NoError(t, err)
	require.Equal(t, 2, count)

	count, err = s.CountOpenReservations(context.Background(), "res-2")
	require.NoError(t, err)
	require.Equal(t, 0, count)
}

func TestTransactionLedger_SurvivesReopen(t *testing.T) {
	dbPath := t.TempDir() + "/ledger.db"

	s, err := store.New(dbPath, nil)
	require.NoError(t, err)
	require.NoError(t, s.AppendTransaction(context.Background(), testBorrow(t, "txn-1", "user-1", "res-1")))
	require.NoError(t, s.Close())

	s, err = store.New(dbPath, nil)
	require.NoError(t, err)
	defer s.Close()

	history, err := s.ListTransactionsByUser(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.Equal(t, "txn-1", history[0].ID)
}
