// Package service provides the business logic layer for catalog
// management and the lending workflow.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/stacksapp/stacks-server/internal/domain"
	domainerrors "github.com/stacksapp/stacks-server/internal/errors"
	"github.com/stacksapp/stacks-server/internal/id"
	"github.com/stacksapp/stacks-server/internal/store"
)

// CatalogService orchestrates resource catalog operations.
type CatalogService struct {
	store  *store.Store
	logger *slog.Logger
}

// NewCatalogService creates a new catalog service.
func NewCatalogService(store *store.Store, logger *slog.Logger) *CatalogService {
	return &CatalogService{
		store:  store,
		logger: logger,
	}
}

// ListFilter narrows catalog listings.
type ListFilter struct {
	Kind     string // Filter by resource kind (empty = all)
	Category string // Filter by exact category (empty = all)
}

// AddResource registers a new resource in the catalog. The resource ID
// and, for physical resources, a QR identifier are assigned here.
func (s *CatalogService) AddResource(ctx context.Context, resource *domain.Resource) (*domain.Resource, error) {
	if !resource.Kind.Valid() {
		return nil, domainerrors.Validationf("unknown resource kind %q", resource.Kind)
	}
	if strings.TrimSpace(resource.Title) == "" {
		return nil, domainerrors.Validation("title is required")
	}
	if resource.TotalCopies < 0 || resource.Copies < 0 {
		return nil, domainerrors.Validation("copy counts cannot be negative")
	}

	resourceID, err := id.Generate("res")
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "generate resource id")
	}
	resource.ID = resourceID

	if resource.IsPhysical() {
		if resource.TotalCopies == 0 {
			resource.TotalCopies = 1
		}
		if resource.Copies == 0 {
			resource.Copies = resource.TotalCopies
		}
		if resource.Copies > resource.TotalCopies {
			return nil, domainerrors.Validation("available copies cannot exceed total copies")
		}
		// Every physical resource carries a scannable QR identifier;
		// assign one when the caller didn't bring their own label.
		if resource.Identifiers.QRID == "" {
			resource.Identifiers.QRID = id.MustGenerate("qr")
		}
	} else {
		// Digital resources have no copy inventory.
		resource.TotalCopies = 0
		resource.Copies = 0
	}

	if err := s.store.CreateResource(ctx, resource); err != nil {
		if errors.Is(err, store.ErrResourceExists) {
			return nil, domainerrors.AlreadyExists("resource already exists")
		}
		return nil, fmt.Errorf("create resource: %w", err)
	}

	s.logger.Info("resource added to catalog",
		"resource_id", resource.ID,
		"kind", resource.Kind,
		"title", resource.Title,
	)

	return resource, nil
}

// GetResource retrieves a single resource by ID.
func (s *CatalogService) GetResource(ctx context.Context, resourceID string) (*domain.Resource, error) {
	resource, err := s.store.GetResource(ctx, resourceID)
	if errors.Is(err, store.ErrResourceNotFound) {
		return nil, domainerrors.NotFound("resource not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get resource: %w", err)
	}
	return resource, nil
}

// UpdateResource applies catalog metadata changes to an existing
// resource. Copy counts are managed by the lending flow and are not
// touched here beyond validation.
func (s *CatalogService) UpdateResource(ctx context.Context, resource *domain.Resource) (*domain.Resource, error) {
	if !resource.Kind.Valid() {
		return nil, domainerrors.Validationf("unknown resource kind %q", resource.Kind)
	}
	if strings.TrimSpace(resource.Title) == "" {
		return nil, domainerrors.Validation("title is required")
	}

	existing, err := s.GetResource(ctx, resource.ID)
	if err != nil {
		return nil, err
	}

	// Inventory stays under lending control.
	resource.Copies = existing.Copies
	resource.TotalCopies = existing.TotalCopies
	resource.CreatedAt = existing.CreatedAt

	if err := s.store.UpdateResource(ctx, resource); err != nil {
		return nil, fmt.Errorf("update resource: %w", err)
	}

	return resource, nil
}

// RemoveResource deletes a resource from the catalog. The lending
// ledger keeps its history; open transactions against the resource are
// not rewritten.
func (s *CatalogService) RemoveResource(ctx context.Context, resourceID string) error {
	if _, err := s.GetResource(ctx, resourceID); err != nil {
		return err
	}

	if err := s.store.DeleteResource(ctx, resourceID); err != nil {
		return fmt.Errorf("delete resource: %w", err)
	}

	s.logger.Info("resource removed from catalog", "resource_id", resourceID)
	return nil
}

// ListResources returns a filtered, paginated catalog listing.
func (s *CatalogService) ListResources(ctx context.Context, filter ListFilter, params store.PaginationParams) (*store.PaginatedResult[*domain.Resource], error) {
	var items []*domain.Resource
	for resource, err := range s.store.ListResources(ctx) {
		if err != nil {
			return nil, fmt.Errorf("list resources: %w", err)
		}
		if filter.Kind != "" && string(resource.Kind) != filter.Kind {
			continue
		}
		if filter.Category != "" && resource.Category != filter.Category {
			continue
		}
		items = append(items, resource)
	}

	return store.Paginate(items, params)
}

// Search scans the catalog for resources matching the query as a
// case-insensitive substring of any text field, keyword or identifier.
// An empty query returns the whole catalog.
func (s *CatalogService) Search(ctx context.Context, query string) ([]*domain.Resource, error) {
	results, err := s.store.SearchResources(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("search resources: %w", err)
	}
	return results, nil
}

// ScanIdentifier resolves a scanned or typed code (ISBN, ISSN, DOI,
// barcode or QR id) to its resource by exact match.
func (s *CatalogService) ScanIdentifier(ctx context.Context, code string) (*domain.Resource, error) {
	if strings.TrimSpace(code) == "" {
		return nil, domainerrors.Validation("identifier is required")
	}

	resource, err := s.store.GetResourceByIdentifier(ctx, code)
	if errors.Is(err, store.ErrResourceNotFound) {
		return nil, domainerrors.NotFoundf("no resource matches identifier %q", code)
	}
	if err != nil {
		return nil, fmt.Errorf("scan identifier: %w", err)
	}
	return resource, nil
}
