package api

import (
	"context"
	"net/http"
	"path/filepath"

	"github.com/danielgtaylor/huma/v2"
	domainerrors "github.com/stacksapp/stacks-server/internal/errors"
	"github.com/stacksapp/stacks-server/internal/reports"
)

func (s *Server) registerReportRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getCirculationReport",
		Method:      http.MethodGet,
		Path:        "/api/v1/reports/circulation",
		Summary:     "Circulation report",
		Description: "Builds a point-in-time snapshot of catalog inventory, ledger status counts, top resources, and outstanding fines",
		Tags:        []string{"Reports"},
	}, s.handleCirculationReport)

	huma.Register(s.api, huma.Operation{
		OperationID: "exportCirculationReport",
		Method:      http.MethodPost,
		Path:        "/api/v1/reports/circulation/export",
		Summary:     "Export circulation report",
		Description: "Builds a circulation report and appends it to the SQLite report archive",
		Tags:        []string{"Reports"},
	}, s.handleExportReport)
}

// === DTOs ===

// CirculationReportOutput wraps the report for Huma.
type CirculationReportOutput struct {
	Body reports.CirculationReport
}

// ExportReportResponse identifies an archived report run.
type ExportReportResponse struct {
	RunID int64  `json:"run_id" doc:"Archive row ID for this report run"`
	Path  string `json:"path" doc:"Path of the SQLite archive"`
}

// ExportReportOutput wraps the export response for Huma.
type ExportReportOutput struct {
	Body ExportReportResponse
}

// === Handlers ===

func (s *Server) handleCirculationReport(ctx context.Context, _ *struct{}) (*CirculationReportOutput, error) {
	report, err := s.services.Reports.BuildCirculationReport(ctx)
	if err != nil {
		return nil, err
	}
	return &CirculationReportOutput{Body: *report}, nil
}

func (s *Server) handleExportReport(ctx context.Context, _ *struct{}) (*ExportReportOutput, error) {
	report, err := s.services.Reports.BuildCirculationReport(ctx)
	if err != nil {
		return nil, err
	}

	path := filepath.Join(s.cfg.Data.BasePath, "reports.db")

	exporter, err := reports.OpenExporter(path)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "open report archive")
	}
	defer func() {
		if closeErr := exporter.Close(); closeErr != nil {
			s.logger.Warn("Failed to close report archive", "error", closeErr)
		}
	}()

	runID, err := exporter.Export(ctx, report)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "export report")
	}

	s.logger.Info("Circulation report archived",
		"run_id", runID,
		"path", path,
	)

	return &ExportReportOutput{
		Body: ExportReportResponse{
			RunID: runID,
			Path:  path,
		},
	}, nil
}
