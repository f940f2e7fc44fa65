package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/stacksapp/stacks-server/internal/domain"
	"github.com/stacksapp/stacks-server/internal/service"
	"github.com/stacksapp/stacks-server/internal/store"
)

func (s *Server) registerResourceRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "createResource",
		Method:      http.MethodPost,
		Path:        "/api/v1/resources",
		Summary:     "Create resource",
		Description: "Registers a new resource in the catalog",
		Tags:        []string{"Resources"},
	}, s.handleCreateResource)

	huma.Register(s.api, huma.Operation{
		OperationID: "listResources",
		Method:      http.MethodGet,
		Path:        "/api/v1/resources",
		Summary:     "List resources",
		Description: "Returns catalog resources, optionally filtered by kind and category",
		Tags:        []string{"Resources"},
	}, s.handleListResources)

	huma.Register(s.api, huma.Operation{
		OperationID: "scanResource",
		Method:      http.MethodGet,
		Path:        "/api/v1/resources/scan",
		Summary:     "Scan identifier",
		Description: "Looks up a resource by a scanned code (ISBN, ISSN, DOI, barcode, or QR ID)",
		Tags:        []string{"Resources"},
	}, s.handleScanResource)

	huma.Register(s.api, huma.Operation{
		OperationID: "getResource",
		Method:      http.MethodGet,
		Path:        "/api/v1/resources/{id}",
		Summary:     "Get resource",
		Description: "Returns a resource by ID",
		Tags:        []string{"Resources"},
	}, s.handleGetResource)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateResource",
		Method:      http.MethodPatch,
		Path:        "/api/v1/resources/{id}",
		Summary:     "Update resource",
		Description: "Updates a resource's descriptive fields. Inventory counts are managed by lending.",
		Tags:        []string{"Resources"},
	}, s.handleUpdateResource)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteResource",
		Method:      http.MethodDelete,
		Path:        "/api/v1/resources/{id}",
		Summary:     "Delete resource",
		Description: "Removes a resource from the catalog",
		Tags:        []string{"Resources"},
	}, s.handleDeleteResource)
}

// === DTOs ===

// ResourceRequest contains the writable fields of a catalog resource.
type ResourceRequest struct {
	Kind        string             `json:"kind" validate:"required,oneof=book journal ebook article audio video" doc:"Resource kind"`
	Title       string             `json:"title" validate:"required,min=1,max=500" doc:"Title"`
	Author      string             `json:"author,omitempty" validate:"omitempty,max=500" doc:"Author or creator"`
	Publisher   string             `json:"publisher,omitempty" validate:"omitempty,max=200" doc:"Publisher"`
	Category    string             `json:"category,omitempty" validate:"omitempty,max=100" doc:"Category, e.g. fiction"`
	Keywords    []string           `json:"keywords,omitempty" doc:"Keywords for discovery"`
	Description string             `json:"description,omitempty" validate:"omitempty,max=5000" doc:"Description"`
	Location    string             `json:"location,omitempty" validate:"omitempty,max=100" doc:"Shelf location, e.g. A12-S3"`
	Identifiers domain.Identifiers `json:"identifiers,omitempty" doc:"External identifiers"`
	TotalCopies int                `json:"total_copies,omitempty" validate:"omitempty,gte=0" doc:"Total owned copies (physical only)"`
	Copies      int                `json:"copies,omitempty" validate:"omitempty,gte=0" doc:"Copies currently on the shelf (physical only)"`
}

func (r *ResourceRequest) toDomain() *domain.Resource {
	return &domain.Resource{
		Kind:        domain.Kind(r.Kind),
		Title:       r.Title,
		Author:      r.Author,
		Publisher:   r.Publisher,
		Category:    r.Category,
		Keywords:    r.Keywords,
		Description: r.Description,
		Location:    r.Location,
		Identifiers: r.Identifiers,
		TotalCopies: r.TotalCopies,
		Copies:      r.Copies,
	}
}

// CreateResourceInput contains the request body for creating a resource.
type CreateResourceInput struct {
	Body ResourceRequest
}

// ResourceOutput wraps a single resource for Huma.
type ResourceOutput struct {
	Body domain.Resource
}

// ListResourcesInput contains parameters for listing resources.
type ListResourcesInput struct {
	Kind     string `query:"kind" validate:"omitempty,oneof=book journal ebook article audio video" doc:"Filter by resource kind"`
	Category string `query:"category" validate:"omitempty,max=100" doc:"Filter by exact category"`
	Query    string `query:"q" validate:"omitempty,max=200" doc:"Substring filter over title, author, and keywords"`
	Limit    int    `query:"limit" validate:"omitempty,gte=1,lte=1000" doc:"Items per page (default 100)"`
	Cursor   string `query:"cursor" doc:"Opaque cursor from a previous page"`
}

// ListResourcesOutput wraps a page of resources for Huma.
type ListResourcesOutput struct {
	Body store.PaginatedResult[*domain.Resource]
}

// ScanResourceInput contains the scanned code.
type ScanResourceInput struct {
	Code string `query:"code" validate:"required,min=1,max=200" doc:"Scanned identifier value"`
}

// GetResourceInput contains the resource ID path parameter.
type GetResourceInput struct {
	ID string `path:"id" doc:"Resource ID"`
}

// UpdateResourceInput contains the resource ID and updated fields.
type UpdateResourceInput struct {
	ID   string `path:"id" doc:"Resource ID"`
	Body ResourceRequest
}

// DeleteResourceInput contains the resource ID path parameter.
type DeleteResourceInput struct {
	ID string `path:"id" doc:"Resource ID"`
}

// DeleteResourceOutput is an empty response for deletes.
type DeleteResourceOutput struct {
	Status int
}

// === Handlers ===

func (s *Server) handleCreateResource(ctx context.Context, input *CreateResourceInput) (*ResourceOutput, error) {
	if err := validate.Validate(&input.Body); err != nil {
		return nil, err
	}

	created, err := s.services.Catalog.AddResource(ctx, input.Body.toDomain())
	if err != nil {
		return nil, err
	}
	return &ResourceOutput{Body: *created}, nil
}

func (s *Server) handleListResources(ctx context.Context, input *ListResourcesInput) (*ListResourcesOutput, error) {
	if err := validate.Validate(input); err != nil {
		return nil, err
	}

	if input.Query != "" {
		matches, err := s.services.Catalog.Search(ctx, input.Query)
		if err != nil {
			return nil, err
		}
		page, err := store.Paginate(matches, store.PaginationParams{Limit: input.Limit, Cursor: input.Cursor})
		if err != nil {
			return nil, err
		}
		return &ListResourcesOutput{Body: *page}, nil
	}

	filter := service.ListFilter{
		Kind:     input.Kind,
		Category: input.Category,
	}
	params := store.PaginationParams{
		Limit:  input.Limit,
		Cursor: input.Cursor,
	}

	page, err := s.services.Catalog.ListResources(ctx, filter, params)
	if err != nil {
		return nil, err
	}
	return &ListResourcesOutput{Body: *page}, nil
}

func (s *Server) handleScanResource(ctx context.Context, input *ScanResourceInput) (*ResourceOutput, error) {
	resource, err := s.services.Catalog.ScanIdentifier(ctx, input.Code)
	if err != nil {
		return nil, err
	}
	return &ResourceOutput{Body: *resource}, nil
}

func (s *Server) handleGetResource(ctx context.Context, input *GetResourceInput) (*ResourceOutput, error) {
	resource, err := s.services.Catalog.GetResource(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &ResourceOutput{Body: *resource}, nil
}

func (s *Server) handleUpdateResource(ctx context.Context, input *UpdateResourceInput) (*ResourceOutput, error) {
	if err := validate.Validate(&input.Body); err != nil {
		return nil, err
	}

	resource := input.Body.toDomain()
	resource.ID = input.ID

	updated, err := s.services.Catalog.UpdateResource(ctx, resource)
	if err != nil {
		return nil, err
	}
	return &ResourceOutput{Body: *updated}, nil
}

func (s *Server) handleDeleteResource(ctx context.Context, input *DeleteResourceInput) (*DeleteResourceOutput, error) {
	if err := s.services.Catalog.RemoveResource(ctx, input.ID); err != nil {
		return nil, err
	}
	return &DeleteResourceOutput{Status: http.StatusNoContent}, nil
}
