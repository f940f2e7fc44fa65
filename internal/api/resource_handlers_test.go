package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacksapp/stacks-server/internal/domain"
)

// createTestBook posts a physical book and returns the created resource.
func createTestBook(t *testing.T, ts *testServer, title string, copies int) domain.Resource {
	t.Helper()

	resp := ts.api.Post("/api/v1/resources", map[string]any{
		"kind":         "book",
		"title":        title,
		"author":       "Pat Reader",
		"category":     "fiction",
		"total_copies": copies,
		"copies":       copies,
		"identifiers":  map[string]any{"isbn": "978-0-13-468599-1"},
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var created domain.Resource
	decodeBody(t, resp.Body.Bytes(), &created)
	return created
}

func TestCreateResource(t *testing.T) {
	ts := setupTestServer(t)

	book := createTestBook(t, ts, "The Left Hand of Darkness", 3)

	assert.NotEmpty(t, book.ID)
	assert.Equal(t, domain.KindBook, book.Kind)
	assert.Equal(t, 3, book.Copies)
	assert.True(t, book.Available)
	assert.NotEmpty(t, book.Identifiers.QRID, "physical resources get a QR identifier")
}

func TestCreateResource_ValidationErrors(t *testing.T) {
	ts := setupTestServer(t)

	// Missing title is rejected by schema validation before the handler runs.
	resp := ts.api.Post("/api/v1/resources", map[string]any{
		"kind": "book",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)

	var apiErr APIError
	decodeBody(t, resp.Body.Bytes(), &apiErr)
	assert.Equal(t, "VALIDATION", apiErr.Code)

	// Unknown kind
	resp = ts.api.Post("/api/v1/resources", map[string]any{
		"kind":  "scroll",
		"title": "Dead Sea Scrolls",
	})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestGetResource(t *testing.T) {
	ts := setupTestServer(t)

	book := createTestBook(t, ts, "Foundation", 1)

	resp := ts.api.Get("/api/v1/resources/" + book.ID)
	require.Equal(t, http.StatusOK, resp.Code)

	var got domain.Resource
	decodeBody(t, resp.Body.Bytes(), &got)
	assert.Equal(t, book.ID, got.ID)
	assert.Equal(t, "Foundation", got.Title)
}

func TestGetResource_NotFound(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/api/v1/resources/res-missing")
	assert.Equal(t, http.StatusNotFound, resp.Code)

	var apiErr APIError
	decodeBody(t, resp.Body.Bytes(), &apiErr)
	assert.Equal(t, "NOT_FOUND", apiErr.Code)
}

func TestUpdateResource_PreservesInventory(t *testing.T) {
	ts := setupTestServer(t)

	book := createTestBook(t, ts, "Dune", 4)

	// Attempt to zero the copy counts through the update endpoint.
	resp := ts.api.Patch("/api/v1/resources/"+book.ID, map[string]any{
		"kind":         "book",
		"title":        "Dune (Deluxe Edition)",
		"author":       "Frank Herbert",
		"total_copies": 0,
		"copies":       0,
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var updated domain.Resource
	decodeBody(t, resp.Body.Bytes(), &updated)
	assert.Equal(t, "Dune (Deluxe Edition)", updated.Title)
	assert.Equal(t, 4, updated.Copies, "inventory is managed by lending, not updates")
	assert.Equal(t, 4, updated.TotalCopies)
}

func TestDeleteResource(t *testing.T) {
	ts := setupTestServer(t)

	book := createTestBook(t, ts, "Hyperion", 1)

	resp := ts.api.Delete("/api/v1/resources/" + book.ID)
	assert.Equal(t, http.StatusNoContent, resp.Code)

	resp = ts.api.Get("/api/v1/resources/" + book.ID)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestListResources_KindFilter(t *testing.T) {
	ts := setupTestServer(t)

	createTestBook(t, ts, "Paper Book", 1)

	resp := ts.api.Post("/api/v1/resources", map[string]any{
		"kind":  "ebook",
		"title": "Digital Book",
	})
	require.Equal(t, http.StatusOK, resp.Code)

	resp = ts.api.Get("/api/v1/resources?kind=ebook")
	require.Equal(t, http.StatusOK, resp.Code)

	var page struct {
		Items   []domain.Resource `json:"items"`
		HasMore bool              `json:"has_more"`
	}
	decodeBody(t, resp.Body.Bytes(), &page)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Digital Book", page.Items[0].Title)
	assert.False(t, page.HasMore)
}

func TestListResources_SubstringQuery(t *testing.T) {
	ts := setupTestServer(t)

	createTestBook(t, ts, "A Wizard of Earthsea", 1)
	createTestBook(t, ts, "The Dispossessed", 1)

	resp := ts.api.Get("/api/v1/resources?q=earthsea")
	require.Equal(t, http.StatusOK, resp.Code)

	var page struct {
		Items []domain.Resource `json:"items"`
	}
	decodeBody(t, resp.Body.Bytes(), &page)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "A Wizard of Earthsea", page.Items[0].Title)
}

func TestScanResource(t *testing.T) {
	ts := setupTestServer(t)

	book := createTestBook(t, ts, "Snow Crash", 1)

	// Scan by ISBN
	resp := ts.api.Get("/api/v1/resources/scan?code=978-0-13-468599-1")
	require.Equal(t, http.StatusOK, resp.Code)

	var got domain.Resource
	decodeBody(t, resp.Body.Bytes(), &got)
	assert.Equal(t, book.ID, got.ID)

	// Scan by the assigned QR ID
	resp = ts.api.Get("/api/v1/resources/scan?code=" + book.Identifiers.QRID)
	require.Equal(t, http.StatusOK, resp.Code)

	// Unknown code
	resp = ts.api.Get("/api/v1/resources/scan?code=no-such-code")
	assert.Equal(t, http.StatusNotFound, resp.Code)
}
