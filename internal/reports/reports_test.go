package reports

import (
	"context"
	"database/sql"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacksapp/stacks-server/internal/config"
	"github.com/stacksapp/stacks-server/internal/domain"
	"github.com/stacksapp/stacks-server/internal/store"
)

func setupTestReports(t *testing.T) (*Service, *store.Store) {
	t.Helper()

	testStore, err := store.New(filepath.Join(t.TempDir(), "test.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = testStore.Close() })

	cfg := config.LendingConfig{
		LoanPeriodDays:        14,
		MaxLoanDays:           30,
		DailyFine:             1.00,
		ReservationWindowDays: 7,
	}
	svc := NewService(testStore, cfg, slog.New(slog.DiscardHandler)).
		WithClock(func() domain.Date { return reportDate(t, "2026-03-20") })

	return svc, testStore
}

func reportDate(t *testing.T, value string) domain.Date {
	t.Helper()
	d, err := domain.ParseDate(value)
	require.NoError(t, err)
	return d
}

func seedReportData(t *testing.T, s *store.Store) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, s.CreateResource(ctx, &domain.Resource{
		ID: "res-1", Kind: domain.KindBook, Title: "Popular Book",
		TotalCopies: 2, Copies: 1,
	}))
	require.NoError(t, s.CreateResource(ctx, &domain.Resource{
		ID: "res-2", Kind: domain.KindJournal, Title: "Quiet Journal",
		TotalCopies: 1, Copies: 0,
	}))

	txns := []*domain.Transaction{
		// Open loan, due after the report date
		{ID: "txn-1", UserID: "user-1", ResourceID: "res-1",
			CheckoutDate: reportDate(t, "2026-03-10"), DueDate: reportDate(t, "2026-03-24"),
			Status: domain.StatusBorrowed},
		// Overdue by 5 days at the report date
		{ID: "txn-2", UserID: "user-2", ResourceID: "res-2",
			CheckoutDate: reportDate(t, "2026-03-01"), DueDate: reportDate(t, "2026-03-15"),
			Status: domain.StatusBorrowed},
		// Closed loan
		{ID: "txn-3", UserID: "user-1", ResourceID: "res-1",
			CheckoutDate: reportDate(t, "2026-02-01"), DueDate: reportDate(t, "2026-02-15"),
			Status: domain.StatusBorrowed},
		// Reservation queued behind txn-2
		{ID: "txn-4", UserID: "user-3", ResourceID: "res-2",
			CheckoutDate: reportDate(t, "2026-03-16"), DueDate: reportDate(t, "2026-03-23"),
			Status: domain.StatusReserved},
	}
	for _, txn := range txns {
		require.NoError(t, s.AppendTransaction(ctx, txn))
	}

	closed, err := s.GetTransaction(ctx, "txn-3")
	require.NoError(t, err)
	closed.MarkReturned(reportDate(t, "2026-02-14"))
	require.NoError(t, s.UpdateTransaction(ctx, closed))
}

func TestBuildCirculationReport(t *testing.T) {
	svc, testStore := setupTestReports(t)
	seedReportData(t, testStore)

	report, err := svc.BuildCirculationReport(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, report.TotalResources)
	assert.Equal(t, 1, report.AvailableResources)
	assert.Equal(t, 1, report.UnavailableResources)

	assert.Equal(t, 1, report.Borrowed)
	assert.Equal(t, 1, report.Overdue)
	assert.Equal(t, 1, report.Reserved)
	assert.Equal(t, 1, report.Returned)

	// res-1 has two borrow records, res-2 one; the reservation doesn't count
	require.Len(t, report.TopResources, 2)
	assert.Equal(t, "res-1", report.TopResources[0].ResourceID)
	assert.Equal(t, "Popular Book", report.TopResources[0].Title)
	assert.Equal(t, 2, report.TopResources[0].Borrows)

	// Only user-2 accrues a fine: 5 days at $1.00
	require.Len(t, report.OutstandingFines, 1)
	assert.Equal(t, "user-2", report.OutstandingFines[0].UserID)
	assert.Equal(t, 5.0, report.OutstandingFines[0].Amount)
}

func TestBuildCirculationReport_EmptyStore(t *testing.T) {
	svc, _ := setupTestReports(t)

	report, err := svc.BuildCirculationReport(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, report.TotalResources)
	assert.Empty(t, report.TopResources)
	assert.Empty(t, report.OutstandingFines)
}

func TestExporter_RoundTrip(t *testing.T) {
	svc, testStore := setupTestReports(t)
	seedReportData(t, testStore)

	report, err := svc.BuildCirculationReport(context.Background())
	require.NoError(t, err)

	dbPath := filepath.Join(t.TempDir(), "reports.db")
	exporter, err := OpenExporter(dbPath)
	require.NoError(t, err)
	defer exporter.Close()

	runID, err := exporter.Export(context.Background(), report)
	require.NoError(t, err)
	assert.Positive(t, runID)

	count, err := exporter.RunCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	// Second run appends
	_, err = exporter.Export(context.Background(), report)
	require.NoError(t, err)
	count, err = exporter.RunCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	// Detail rows land with the run
	db, err := sql.Open("sqlite", dbPath)
	require.NoError(t, err)
	defer db.Close()

	var fines int
	require.NoError(t, db.QueryRow(
		`SELECT COUNT(*) FROM report_outstanding_fines WHERE run_id = ?`, runID,
	).Scan(&fines))
	assert.Equal(t, 1, fines)
}
