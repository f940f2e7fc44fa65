// Package search provides full-text catalog search using Bleve.
// It enables ranked search over titles, authors, publishers, categories
// and keywords with faceted filtering and fuzzy matching. The exhaustive
// substring scan used by the catalog listing lives in the store; this
// package serves the ranked search endpoint.
package search

import (
	"github.com/stacksapp/stacks-server/internal/domain"
)

// SearchDocument is the document structure for the Bleve index.
// One document per catalog resource.
type SearchDocument struct {
	ID   string `json:"id"`
	Kind string `json:"kind"` // Discriminator for result grouping and filtering

	// Primary searchable text
	Title string `json:"title"`

	Author      string   `json:"author,omitempty"`
	Publisher   string   `json:"publisher,omitempty"`
	Category    string   `json:"category,omitempty"`
	Description string   `json:"description,omitempty"`
	Keywords    []string `json:"keywords,omitempty"`

	// Identifiers are indexed as exact keywords so a scanned ISBN or
	// barcode typed into the search box still finds the resource.
	Identifiers []string `json:"identifiers,omitempty"`

	Available bool `json:"available"`

	// Timestamps for sorting
	CreatedAt int64 `json:"created_at"` // Unix millis
	UpdatedAt int64 `json:"updated_at"` // Unix millis
}

// ToMap converts the document to a map with lowercase field names.
// This ensures field names match the Bleve index mapping.
// Bleve by default uses Go struct field names (capitalized), but our
// mapping uses lowercase names, so we convert explicitly.
func (d *SearchDocument) ToMap() map[string]interface{} {
	m := map[string]interface{}{
		"id":         d.ID,
		"kind":       d.Kind,
		"title":      d.Title,
		"available":  d.Available,
		"created_at": d.CreatedAt,
		"updated_at": d.UpdatedAt,
	}

	// Optional fields - only add if non-empty
	if d.Author != "" {
		m["author"] = d.Author
	}
	if d.Publisher != "" {
		m["publisher"] = d.Publisher
	}
	if d.Category != "" {
		m["category"] = d.Category
	}
	if d.Description != "" {
		m["description"] = d.Description
	}
	if len(d.Keywords) > 0 {
		m["keywords"] = d.Keywords
	}
	if len(d.Identifiers) > 0 {
		m["identifiers"] = d.Identifiers
	}

	return m
}

// ResourceToSearchDocument converts a catalog resource to a SearchDocument.
func ResourceToSearchDocument(r *domain.Resource) *SearchDocument {
	return &SearchDocument{
		ID:          r.ID,
		Kind:        string(r.Kind),
		Title:       r.Title,
		Author:      r.Author,
		Publisher:   r.Publisher,
		Category:    r.Category,
		Description: r.Description,
		Keywords:    r.Keywords,
		Identifiers: r.Identifiers.Values(),
		Available:   r.Available,
		CreatedAt:   r.CreatedAt.UnixMilli(),
		UpdatedAt:   r.UpdatedAt.UnixMilli(),
	}
}
