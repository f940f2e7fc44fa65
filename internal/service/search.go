package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/stacksapp/stacks-server/internal/domain"
	"github.com/stacksapp/stacks-server/internal/search"
	"github.com/stacksapp/stacks-server/internal/store"
)

// SearchService bridges the search index with the data store, handling
// document creation, updates, and query execution. It implements
// store.SearchIndexer so catalog writes flow into the index.
type SearchService struct {
	index  *search.SearchIndex
	store  *store.Store
	logger *slog.Logger
}

// NewSearchService creates a new search service.
func NewSearchService(index *search.SearchIndex, store *store.Store, logger *slog.Logger) *SearchService {
	return &SearchService{
		index:  index,
		store:  store,
		logger: logger,
	}
}

// Search performs a ranked search over the catalog.
func (s *SearchService) Search(ctx context.Context, params search.SearchParams) (*search.SearchResult, error) {
	return s.index.Search(ctx, params)
}

// IndexResource indexes a single resource.
// Call this when a resource is created or updated.
func (s *SearchService) IndexResource(ctx context.Context, resource *domain.Resource) error {
	doc := search.ResourceToSearchDocument(resource)

	if err := s.index.IndexDocument(doc); err != nil {
		return fmt.Errorf("index document: %w", err)
	}

	s.logger.Debug("indexed resource", "id", resource.ID, "title", resource.Title)
	return nil
}

// DeleteResource removes a resource from the index.
func (s *SearchService) DeleteResource(ctx context.Context, resourceID string) error {
	if err := s.index.DeleteDocument(resourceID); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}

	s.logger.Debug("removed resource from search index", "id", resourceID)
	return nil
}

// ReindexAll rebuilds the search index from the catalog. Used at
// startup when the mapping version changed and for manual recovery.
func (s *SearchService) ReindexAll(ctx context.Context) error {
	var docs []*search.SearchDocument
	for resource, err := range s.store.ListResources(ctx) {
		if err != nil {
			return fmt.Errorf("list resources: %w", err)
		}
		docs = append(docs, search.ResourceToSearchDocument(resource))
	}

	if err := s.index.IndexDocuments(docs); err != nil {
		return fmt.Errorf("batch index: %w", err)
	}

	s.logger.Info("reindexed catalog", "documents", len(docs))
	return nil
}

// DocumentCount reports the number of documents in the index.
func (s *SearchService) DocumentCount() (uint64, error) {
	return s.index.DocumentCount()
}
