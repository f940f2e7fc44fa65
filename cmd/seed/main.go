// Package main provides a tool to seed the database with a sample catalog.
//
// This fills an empty store with a small set of resources and, optionally,
// some circulation activity so lists, reports, and fines have data to show.
//
// Usage:
//
//	DATA_PATH=~/stacks go run ./cmd/seed
//	DATA_PATH=~/stacks go run ./cmd/seed --with-loans  # Also create loans
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/stacksapp/stacks-server/internal/config"
	"github.com/stacksapp/stacks-server/internal/domain"
	"github.com/stacksapp/stacks-server/internal/service"
	"github.com/stacksapp/stacks-server/internal/store"
)

var withLoans = flag.Bool("with-loans", false, "Create sample loans and reservations")

func main() {
	flag.Parse()

	dataPath := os.Getenv("DATA_PATH")
	if dataPath == "" {
		dataPath = os.ExpandEnv("$HOME/stacks")
	}
	dbPath := filepath.Join(dataPath, "db")

	fmt.Printf("Opening database at: %s\n", dbPath)

	s, err := store.New(dbPath, nil)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	catalog := service.NewCatalogService(s, logger)

	created := make([]*domain.Resource, 0, len(sampleResources))
	for _, resource := range sampleResources {
		r := resource
		added, err := catalog.AddResource(ctx, &r)
		if err != nil {
			log.Printf("Skipping %q: %v", r.Title, err)
			continue
		}
		created = append(created, added)
		fmt.Printf("Added %-7s %s (%s)\n", added.Kind, added.Title, added.ID)
	}

	if *withLoans && len(created) > 0 {
		seedLoans(ctx, s, logger, created)
	}

	fmt.Printf("\nSeeded %d resources\n", len(created))
}

// seedLoans borrows a few resources and queues a reservation so the
// circulation report has something to count.
func seedLoans(ctx context.Context, s *store.Store, logger *slog.Logger, resources []*domain.Resource) {
	lendingCfg := config.LendingConfig{
		LoanPeriodDays:        14,
		MaxLoanDays:           30,
		DailyFine:             1.00,
		ReservationWindowDays: 7,
	}
	lending := service.NewLendingService(s, lendingCfg, logger)

	users := []string{"patron-ada", "patron-linus", "patron-grace"}

	for i, resource := range resources {
		if !resource.Kind.Physical() {
			continue
		}

		user := users[i%len(users)]
		loan, err := lending.Borrow(ctx, user, resource.ID, 0)
		if err != nil {
			log.Printf("Borrow %q for %s failed: %v", resource.Title, user, err)
			continue
		}
		fmt.Printf("Loaned %q to %s, due %s\n", resource.Title, user, loan.DueDate)

		// Queue a hold on the first resource that runs out of copies.
		updated, err := s.GetResource(ctx, resource.ID)
		if err != nil || updated.Available {
			continue
		}
		next := users[(i+1)%len(users)]
		if _, err := lending.Reserve(ctx, next, resource.ID, domain.Date{}, domain.Date{}); err == nil {
			fmt.Printf("Reserved %q for %s\n", resource.Title, next)
		}
	}
}

var sampleResources = []domain.Resource{
	{
		Kind:        domain.KindBook,
		Title:       "The Go Programming Language",
		Author:      "Alan A. A. Donovan",
		Publisher:   "Addison-Wesley",
		Category:    "programming",
		Keywords:    []string{"go", "golang"},
		Location:    "A03-S1",
		Identifiers: domain.Identifiers{ISBN: "978-0-13-419044-0"},
		TotalCopies: 3,
		Copies:      3,
	},
	{
		Kind:        domain.KindBook,
		Title:       "A Wizard of Earthsea",
		Author:      "Ursula K. Le Guin",
		Publisher:   "Parnassus Press",
		Category:    "fiction",
		Location:    "B11-S4",
		Identifiers: domain.Identifiers{ISBN: "978-0-547-77374-3"},
		TotalCopies: 2,
		Copies:      2,
	},
	{
		Kind:        domain.KindJournal,
		Title:       "Communications of the ACM",
		Publisher:   "ACM",
		Category:    "computer-science",
		Location:    "J02-S1",
		Identifiers: domain.Identifiers{ISSN: "0001-0782"},
		TotalCopies: 1,
		Copies:      1,
	},
	{
		Kind:        domain.KindEbook,
		Title:       "Pride and Prejudice",
		Author:      "Jane Austen",
		Category:    "fiction",
		Keywords:    []string{"classic"},
		Identifiers: domain.Identifiers{ISBN: "978-0-14-143951-8"},
	},
	{
		Kind:        domain.KindArticle,
		Title:       "A Relational Model of Data for Large Shared Data Banks",
		Author:      "E. F. Codd",
		Category:    "computer-science",
		Identifiers: domain.Identifiers{DOI: "10.1145/362384.362685"},
	},
	{
		Kind:     domain.KindAudio,
		Title:    "The Hitchhiker's Guide to the Galaxy (Radio Series)",
		Author:   "Douglas Adams",
		Category: "fiction",
	},
}
