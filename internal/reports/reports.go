// Package reports builds circulation report snapshots from the catalog
// and lending ledger, and exports them to SQLite for offline analysis.
package reports

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/stacksapp/stacks-server/internal/config"
	"github.com/stacksapp/stacks-server/internal/domain"
	"github.com/stacksapp/stacks-server/internal/store"
)

// CirculationReport is a point-in-time snapshot of lending activity.
// Overdue counts and fine amounts are derived at generation time; the
// ledger never stores them.
type CirculationReport struct {
	GeneratedAt time.Time `json:"generated_at"`

	// Catalog inventory
	TotalResources       int `json:"total_resources"`
	AvailableResources   int `json:"available_resources"`
	UnavailableResources int `json:"unavailable_resources"`

	// Ledger status counts
	Borrowed int `json:"borrowed"`
	Overdue  int `json:"overdue"`
	Reserved int `json:"reserved"`
	Returned int `json:"returned"`

	// TopResources lists the most-borrowed resources, busiest first.
	TopResources []ResourceActivity `json:"top_resources"`

	// OutstandingFines lists users with accruing fines, largest first.
	OutstandingFines []UserFineTotal `json:"outstanding_fines"`
}

// ResourceActivity is a resource's borrow count over the ledger's history.
type ResourceActivity struct {
	ResourceID string `json:"resource_id"`
	Title      string `json:"title"`
	Borrows    int    `json:"borrows"`
}

// UserFineTotal is a user's total accruing fine across open overdue loans.
type UserFineTotal struct {
	UserID string  `json:"user_id"`
	Amount float64 `json:"amount"`
}

// topResourceLimit caps how many resources a report ranks.
const topResourceLimit = 10

// Service builds circulation reports.
type Service struct {
	store  *store.Store
	cfg    config.LendingConfig
	logger *slog.Logger

	today func() domain.Date
}

// NewService creates a new report service.
func NewService(store *store.Store, cfg config.LendingConfig, logger *slog.Logger) *Service {
	return &Service{
		store:  store,
		cfg:    cfg,
		logger: logger,
		today:  domain.Today,
	}
}

// WithClock overrides the service's notion of the current date.
// Intended for tests.
func (s *Service) WithClock(today func() domain.Date) *Service {
	s.today = today
	return s
}

// BuildCirculationReport scans the catalog and ledger and assembles a
// snapshot.
func (s *Service) BuildCirculationReport(ctx context.Context) (*CirculationReport, error) {
	report := &CirculationReport{
		GeneratedAt:      time.Now().UTC(),
		TopResources:     []ResourceActivity{},
		OutstandingFines: []UserFineTotal{},
	}

	titles := make(map[string]string)
	for resource, err := range s.store.ListResources(ctx) {
		if err != nil {
			return nil, fmt.Errorf("list resources: %w", err)
		}
		report.TotalResources++
		if resource.Available {
			report.AvailableResources++
		} else {
			report.UnavailableResources++
		}
		titles[resource.ID] = resource.Title
	}

	today := s.today()
	borrowCounts := make(map[string]int)
	fineTotals := make(map[string]float64)

	for txn, err := range s.store.Transactions.List(ctx) {
		if err != nil {
			return nil, fmt.Errorf("list transactions: %w", err)
		}

		switch txn.EffectiveStatus(today) {
		case domain.StatusBorrowed:
			report.Borrowed++
		case domain.StatusOverdue:
			report.Overdue++
		case domain.StatusReserved:
			report.Reserved++
		case domain.StatusReturned:
			report.Returned++
		}

		// Every borrow record counts toward activity, open or closed.
		// Reservations don't.
		if txn.Status == domain.StatusBorrowed || txn.Status == domain.StatusReturned {
			borrowCounts[txn.ResourceID]++
		}

		if amount := domain.CalculateFine(txn, today, s.cfg.DailyFine); amount > 0 {
			fineTotals[txn.UserID] += amount
		}
	}

	for resourceID, borrows := range borrowCounts {
		title, ok := titles[resourceID]
		if !ok {
			title = resourceID // Resource since removed from catalog
		}
		report.TopResources = append(report.TopResources, ResourceActivity{
			ResourceID: resourceID,
			Title:      title,
			Borrows:    borrows,
		})
	}
	sort.Slice(report.TopResources, func(i, j int) bool {
		if report.TopResources[i].Borrows != report.TopResources[j].Borrows {
			return report.TopResources[i].Borrows > report.TopResources[j].Borrows
		}
		return report.TopResources[i].ResourceID < report.TopResources[j].ResourceID
	})
	if len(report.TopResources) > topResourceLimit {
		report.TopResources = report.TopResources[:topResourceLimit]
	}

	for userID, amount := range fineTotals {
		report.OutstandingFines = append(report.OutstandingFines, UserFineTotal{
			UserID: userID,
			Amount: amount,
		})
	}
	sort.Slice(report.OutstandingFines, func(i, j int) bool {
		if report.OutstandingFines[i].Amount != report.OutstandingFines[j].Amount {
			return report.OutstandingFines[i].Amount > report.OutstandingFines[j].Amount
		}
		return report.OutstandingFines[i].UserID < report.OutstandingFines[j].UserID
	})

	s.logger.Info("circulation report generated",
		"resources", report.TotalResources,
		"borrowed", report.Borrowed,
		"overdue", report.Overdue,
	)

	return report, nil
}
