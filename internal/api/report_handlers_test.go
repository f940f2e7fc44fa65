package api

import (
	"net/http"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacksapp/stacks-server/internal/domain"
)

func TestCirculationReport(t *testing.T) {
	ts := setupTestServer(t)

	book := createTestBook(t, ts, "A Memory Called Empire", 2)

	resp := ts.api.Post("/api/v1/loans", map[string]any{
		"user_id":     "user-1",
		"resource_id": book.ID,
	})
	require.Equal(t, http.StatusOK, resp.Code)

	var loan domain.Transaction
	decodeBody(t, resp.Body.Bytes(), &loan)

	resp = ts.api.Get("/api/v1/reports/circulation")
	require.Equal(t, http.StatusOK, resp.Code)

	var report struct {
		TotalResources int `json:"total_resources"`
		Borrowed       int `json:"borrowed"`
		TopResources   []struct {
			ResourceID string `json:"resource_id"`
			Borrows    int    `json:"borrows"`
		} `json:"top_resources"`
	}
	decodeBody(t, resp.Body.Bytes(), &report)
	assert.Equal(t, 1, report.TotalResources)
	assert.Equal(t, 1, report.Borrowed)
	require.Len(t, report.TopResources, 1)
	assert.Equal(t, book.ID, report.TopResources[0].ResourceID)
}

func TestExportCirculationReport(t *testing.T) {
	ts := setupTestServer(t)

	createTestBook(t, ts, "Exhalation", 1)

	resp := ts.api.Post("/api/v1/reports/circulation/export")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var export ExportReportResponse
	decodeBody(t, resp.Body.Bytes(), &export)
	assert.Equal(t, int64(1), export.RunID)

	_, err := os.Stat(export.Path)
	assert.NoError(t, err, "report archive exists on disk")

	// A second export appends another run.
	resp = ts.api.Post("/api/v1/reports/circulation/export")
	require.Equal(t, http.StatusOK, resp.Code)

	decodeBody(t, resp.Body.Bytes(), &export)
	assert.Equal(t, int64(2), export.RunID)
}
