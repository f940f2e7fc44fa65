package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/stacksapp/stacks-server/internal/search"
)

func (s *Server) registerSearchRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "search",
		Method:      http.MethodGet,
		Path:        "/api/v1/search",
		Summary:     "Search catalog",
		Description: "Ranked full-text search across the catalog with facets and highlighting",
		Tags:        []string{"Search"},
	}, s.handleSearch)

	huma.Register(s.api, huma.Operation{
		OperationID: "reindexSearch",
		Method:      http.MethodPost,
		Path:        "/api/v1/search/reindex",
		Summary:     "Rebuild search index",
		Description: "Re-indexes every catalog resource from the store",
		Tags:        []string{"Search"},
	}, s.handleReindex)
}

// === DTOs ===

// SearchInput contains parameters for searching the catalog.
type SearchInput struct {
	Query     string `query:"q" validate:"required,min=1,max=200" doc:"Search query"`
	Kinds     string `query:"kinds" validate:"omitempty,max=100" doc:"Comma-separated kinds to search (book,journal,ebook,article,audio,video). Omit for all."`
	Category  string `query:"category" validate:"omitempty,max=100" doc:"Filter by exact category"`
	Available bool   `query:"available" doc:"Restrict to currently borrowable resources"`
	Limit     int    `query:"limit" validate:"omitempty,gte=1,lte=100" doc:"Max results (default 20)"`
	Offset    int    `query:"offset" validate:"omitempty,gte=0" doc:"Pagination offset (default 0)"`
	Sort      string `query:"sort" validate:"omitempty,oneof=relevance title author recent" doc:"Sort order (default relevance)"`
	Facets    bool   `query:"facets" doc:"Include facet counts in response"`
}

// SearchOutput wraps the search result for Huma.
type SearchOutput struct {
	Body search.SearchResult
}

// ReindexResponse reports the outcome of an index rebuild.
type ReindexResponse struct {
	Documents uint64 `json:"documents" doc:"Documents in the index after the rebuild"`
}

// ReindexOutput wraps the reindex response for Huma.
type ReindexOutput struct {
	Body ReindexResponse
}

// === Handlers ===

func (s *Server) handleSearch(ctx context.Context, input *SearchInput) (*SearchOutput, error) {
	if err := validate.Validate(input); err != nil {
		return nil, err
	}

	params := search.DefaultSearchParams()
	params.Query = input.Query
	params.Category = input.Category
	params.AvailableOnly = input.Available
	params.IncludeFacets = input.Facets

	if input.Limit > 0 {
		params.Limit = input.Limit
	}
	if input.Offset > 0 {
		params.Offset = input.Offset
	}
	if input.Sort != "" {
		params.SortBy = input.Sort
	}

	// Parse kinds - comma-separated string to slice
	if input.Kinds != "" {
		for k := range strings.SplitSeq(input.Kinds, ",") {
			k = strings.TrimSpace(k)
			if k != "" {
				params.Kinds = append(params.Kinds, k)
			}
		}
	}

	result, err := s.services.Search.Search(ctx, params)
	if err != nil {
		return nil, err
	}
	return &SearchOutput{Body: *result}, nil
}

func (s *Server) handleReindex(ctx context.Context, _ *struct{}) (*ReindexOutput, error) {
	if err := s.services.Search.ReindexAll(ctx); err != nil {
		return nil, err
	}

	count, err := s.services.Search.DocumentCount()
	if err != nil {
		return nil, err
	}
	return &ReindexOutput{Body: ReindexResponse{Documents: count}}, nil
}
