package store

import (
	"encoding/base64"
	"fmt"
)

// PaginationParams contains pagination request parameters.
type PaginationParams struct {
	Limit  int    // Items per page (defaults to 100 with a maximum of 1000)
	Cursor string // Opaque cursor for next page (empty for first page)
}

// PaginatedResult contains paginated data and metadata.
type PaginatedResult[T any] struct {
	Items      []T    `json:"items"`
	NextCursor string `json:"next_cursor,omitempty"` // Empty if no more pages
	HasMore    bool   `json:"has_more"`
	Total      int    `json:"total,omitempty"`
}

// DefaultPaginationParams returns sensible defaults.
func DefaultPaginationParams() PaginationParams {
	return PaginationParams{
		Limit:  100,
		Cursor: "",
	}
}

// Validate checks and corrects pagination parameters.
func (p *PaginationParams) Validate() {
	if p.Limit <= 0 {
		p.Limit = 100
	}

	if p.Limit > 1000 {
		p.Limit = 1000
	}
}

// EncodeCursor creates an opaque cursor from a key.
func EncodeCursor(key string) string {
	if key == "" {
		return ""
	}
	return base64.URLEncoding.EncodeToString([]byte(key))
}

// DecodeCursor decodes a cursor back to a key.
func DecodeCursor(cursor string) (string, error) {
	if cursor == "" {
		return "", nil
	}

	decoded, err := base64.URLEncoding.DecodeString(cursor)
	if err != nil {
		return "", fmt.Errorf("invalid cursor: %w", err)
	}

	return string(decoded), nil
}

// Paginate applies cursor pagination over an in-memory slice. The
// cursor encodes the next start index.
func Paginate[T any](items []T, params PaginationParams) (*PaginatedResult[T], error) {
	params.Validate()

	total := len(items)

	startIdx := 0
	if params.Cursor != "" {
		decoded, err := DecodeCursor(params.Cursor)
		if err != nil {
			return nil, err
		}
		if _, err := fmt.Sscanf(decoded, "%d", &startIdx); err != nil {
			return nil, fmt.Errorf("invalid cursor format: %w", err)
		}
	}

	if startIdx >= total {
		return &PaginatedResult[T]{
			Items:   []T{},
			Total:   total,
			HasMore: false,
		}, nil
	}

	endIdx := startIdx + params.Limit
	if endIdx > total {
		endIdx = total
	}

	result := &PaginatedResult[T]{
		Items:   items[startIdx:endIdx],
		Total:   total,
		HasMore: endIdx < total,
	}
	if result.HasMore {
		result.NextCursor = EncodeCursor(fmt.Sprintf("%d", endIdx))
	}

	return result, nil
}
