package reports

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// Exporter persists circulation reports to a SQLite database so they
// can be queried with ordinary SQL tooling outside the server.
type Exporter struct {
	db *sql.DB
}

// OpenExporter opens (or creates) the report database at the given
// path. It configures WAL mode, sets pragmas, and runs schema
// migrations.
func OpenExporter(path string) (*Exporter, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	// Configure pragmas.
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec pragma %q: %w", pragma, err)
		}
	}

	// Run schema migration.
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("exec schema: %w", err)
	}

	return &Exporter{db: db}, nil
}

// Close closes the underlying database connection.
func (e *Exporter) Close() error {
	return e.db.Close()
}

// Export writes a report snapshot as one run. Returns the run id.
func (e *Exporter) Export(ctx context.Context, report *CirculationReport) (int64, error) {
	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		INSERT INTO report_runs (
			generated_at, total_resources, available_resources,
			unavailable_resources, borrowed, overdue, reserved, returned
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		report.GeneratedAt.Format(time.RFC3339),
		report.TotalResources,
		report.AvailableResources,
		report.UnavailableResources,
		report.Borrowed,
		report.Overdue,
		report.Reserved,
		report.Returned,
	)
	if err != nil {
		return 0, fmt.Errorf("insert report run: %w", err)
	}

	runID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("run id: %w", err)
	}

	for _, item := range report.TopResources {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO report_top_resources (run_id, resource_id, title, borrows)
			VALUES (?, ?, ?, ?)`,
			runID, item.ResourceID, item.Title, item.Borrows,
		)
		if err != nil {
			return 0, fmt.Errorf("insert top resource: %w", err)
		}
	}

	for _, item := range report.OutstandingFines {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO report_outstanding_fines (run_id, user_id, amount)
			VALUES (?, ?, ?)`,
			runID, item.UserID, item.Amount,
		)
		if err != nil {
			return 0, fmt.Errorf("insert outstanding fine: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}

	return runID, nil
}

// RunCount reports how many export runs the database holds.
func (e *Exporter) RunCount(ctx context.Context) (int, error) {
	var count int
	err := e.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM report_runs`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count runs: %w", err)
	}
	return count, nil
}
