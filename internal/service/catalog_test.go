package service

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacksapp/stacks-server/internal/domain"
	domainerrors "github.com/stacksapp/stacks-server/internal/errors"
	"github.com/stacksapp/stacks-server/internal/store"
)

func setupTestCatalog(t *testing.T) (*CatalogService, *store.Store, func()) {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "catalog-service-test-*")
	require.NoError(t, err)

	dbPath := filepath.Join(tmpDir, "test.db")
	testStore, err := store.New(dbPath, nil)
	require.NoError(t, err)

	logger := slog.New(slog.DiscardHandler)
	svc := NewCatalogService(testStore, logger)

	cleanup := func() {
		testStore.Close()
		os.RemoveAll(tmpDir)
	}

	return svc, testStore, cleanup
}

func TestAddResource_Physical(t *testing.T) {
	svc, _, cleanup := setupTestCatalog(t)
	defer cleanup()

	added, err := svc.AddResource(context.Background(), &domain.Resource{
		Kind:        domain.KindBook,
		Title:       "The Go Programming Language",
		Author:      "Alan Donovan",
		TotalCopies: 3,
	})
	require.NoError(t, err)

	assert.NotEmpty(t, added.ID)
	assert.Contains(t, added.ID, "res-")
	assert.Equal(t, 3, added.Copies)
	assert.True(t, added.Available)
	// QR identifier auto-assigned
	assert.NotEmpty(t, added.Identifiers.QRID)
	assert.Contains(t, added.Identifiers.QRID, "qr-")
}

func TestAddResource_DigitalHasNoInventory(t *testing.T) {
	svc, _, cleanup := setupTestCatalog(t)
	defer cleanup()

	added, err := svc.AddResource(context.Background(), &domain.Resource{
		Kind:        domain.KindEbook,
		Title:       "Distributed Systems",
		TotalCopies: 5, // Ignored for digital kinds
	})
	require.NoError(t, err)

	assert.Equal(t, 0, added.TotalCopies)
	assert.Equal(t, 0, added.Copies)
	assert.True(t, added.Available)
	assert.Empty(t, added.Identifiers.QRID)
}

func TestAddResource_Validation(t *testing.T) {
	svc, _, cleanup := setupTestCatalog(t)
	defer cleanup()

	tests := []struct {
		name     string
		resource *domain.Resource
	}{
		{"unknown kind", &domain.Resource{Kind: "vinyl", Title: "Abbey Road"}},
		{"missing title", &domain.Resource{Kind: domain.KindBook}},
		{"negative copies", &domain.Resource{Kind: domain.KindBook, Title: "X", TotalCopies: -1}},
		{"copies above total", &domain.Resource{Kind: domain.KindBook, Title: "X", TotalCopies: 1, Copies: 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.AddResource(context.Background(), tt.resource)
			require.Error(t, err)
			assert.ErrorIs(t, err, domainerrors.ErrValidation)
		})
	}
}

func TestUpdateResource_PreservesInventory(t *testing.T) {
	svc, testStore, cleanup := setupTestCatalog(t)
	defer cleanup()

	added, err := svc.AddResource(context.Background(), &domain.Resource{
		Kind:        domain.KindBook,
		Title:       "Original Title",
		TotalCopies: 2,
	})
	require.NoError(t, err)

	// Simulate a checkout draining a copy
	_, err = testStore.AdjustResourceCopies(context.Background(), added.ID, -1)
	require.NoError(t, err)

	updated, err := svc.UpdateResource(context.Background(), &domain.Resource{
		ID:          added.ID,
		Kind:        domain.KindBook,
		Title:       "New Title",
		Identifiers: added.Identifiers,
		Copies:      99, // Must be ignored
	})
	require.NoError(t, err)

	assert.Equal(t, "New Title", updated.Title)
	assert.Equal(t, 1, updated.Copies)
	assert.Equal(t, 2, updated.TotalCopies)
}

func TestRemoveResource(t *testing.T) {
	svc, _, cleanup := setupTestCatalog(t)
	defer cleanup()

	added, err := svc.AddResource(context.Background(), &domain.Resource{
		Kind:  domain.KindBook,
		Title: "Ephemeral",
	})
	require.NoError(t, err)

	require.NoError(t, svc.RemoveResource(context.Background(), added.ID))

	_, err = svc.GetResource(context.Background(), added.ID)
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)

	err = svc.RemoveResource(context.Background(), added.ID)
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestListResources_Filters(t *testing.T) {
	svc, _, cleanup := setupTestCatalog(t)
	defer cleanup()

	seed := []*domain.Resource{
		{Kind: domain.KindBook, Title: "Go", Category: "Computing"},
		{Kind: domain.KindBook, Title: "Clean Code", Category: "Computing"},
		{Kind: domain.KindJournal, Title: "Nature", Category: "Science"},
		{Kind: domain.KindEbook, Title: "DDIA", Category: "Computing"},
	}
	for _, r := range seed {
		_, err := svc.AddResource(context.Background(), r)
		require.NoError(t, err)
	}

	result, err := svc.ListResources(context.Background(), ListFilter{}, store.PaginationParams{})
	require.NoError(t, err)
	assert.Equal(t, 4, result.Total)

	result, err = svc.ListResources(context.Background(), ListFilter{Kind: "book"}, store.PaginationParams{})
	require.NoError(t, err)
	assert.Len(t, result.Items, 2)

	result, err = svc.ListResources(context.Background(), ListFilter{Category: "Science"}, store.PaginationParams{})
	require.NoError(t, err)
	require.Len(t, result.Items, 1)
	assert.Equal(t, "Nature", result.Items[0].Title)

	result, err = svc.ListResources(context.Background(), ListFilter{Kind: "ebook", Category: "Science"}, store.PaginationParams{})
	require.NoError(t, err)
	assert.Empty(t, result.Items)
}

func TestListResources_Pagination(t *testing.T) {
	svc, _, cleanup := setupTestCatalog(t)
	defer cleanup()

	for i := 0; i < 5; i++ {
		_, err := svc.AddResource(context.Background(), &domain.Resource{
			Kind:  domain.KindBook,
			Title: "Book",
		})
		require.NoError(t, err)
	}

	page, err := svc.ListResources(context.Background(), ListFilter{}, store.PaginationParams{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
	assert.True(t, page.HasMore)
	require.NotEmpty(t, page.NextCursor)

	page, err = svc.ListResources(context.Background(), ListFilter{}, store.PaginationParams{Limit: 4, Cursor: page.NextCursor})
	require.NoError(t, err)
	assert.Len(t, page.Items, 3)
	assert.False(t, page.HasMore)
}

func TestScanIdentifier(t *testing.T) {
	svc, _, cleanup := setupTestCatalog(t)
	defer cleanup()

	added, err := svc.AddResource(context.Background(), &domain.Resource{
		Kind:  domain.KindBook,
		Title: "Scannable",
		Identifiers: domain.Identifiers{
			ISBN:    "978-0134190440",
			Barcode: "LIB-0042",
		},
	})
	require.NoError(t, err)

	for _, code := range []string{"978-0134190440", "LIB-0042", added.Identifiers.QRID} {
		got, err := svc.ScanIdentifier(context.Background(), code)
		require.NoError(t, err, "code %s", code)
		assert.Equal(t, added.ID, got.ID)
	}

	_, err = svc.ScanIdentifier(context.Background(), "9780134190440")
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)

	_, err = svc.ScanIdentifier(context.Background(), "")
	assert.ErrorIs(t, err, domainerrors.ErrValidation)
}

func TestSearch_Substring(t *testing.T) {
	svc, _, cleanup := setupTestCatalog(t)
	defer cleanup()

	_, err := svc.AddResource(context.Background(), &domain.Resource{
		Kind:     domain.KindBook,
		Title:    "The Pragmatic Programmer",
		Author:   "Andrew Hunt",
		Keywords: []string{"craftsmanship"},
	})
	require.NoError(t, err)

	results, err := svc.Search(context.Background(), "pRAGMATIC")
	require.NoError(t, err)
	assert.Len(t, results, 1)

	results, err = svc.Search(context.Background(), "craftsman")
	require.NoError(t, err)
	assert.Len(t, results, 1)

	results, err = svc.Search(context.Background(), "zebra")
	require.NoError(t, err)
	assert.Empty(t, results)
}
