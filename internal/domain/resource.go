// Package domain contains the core business entities and circulation logic for the Stacks library.
package domain

import (
	"strings"
	"time"
)

// Kind classifies a catalog resource.
type Kind string

// Resource kinds. Books and journals occupy shelf space and are tracked by
// copy count; ebooks, articles, audio and video are delivered digitally and
// support unconstrained concurrent access.
const (
	KindBook    Kind = "book"
	KindJournal Kind = "journal"
	KindEbook   Kind = "ebook"
	KindArticle Kind = "article"
	KindAudio   Kind = "audio"
	KindVideo   Kind = "video"
)

// Valid reports whether k is a known resource kind.
func (k Kind) Valid() bool {
	switch k {
	case KindBook, KindJournal, KindEbook, KindArticle, KindAudio, KindVideo:
		return true
	}
	return false
}

// Physical reports whether resources of this kind are tracked by copy count.
func (k Kind) Physical() bool {
	return k == KindBook || k == KindJournal
}

// Identifiers holds the external identifiers a resource can be looked up by.
// None of them is required and the catalog does not enforce uniqueness across
// resources; duplicates are a data-entry problem, not a correctness guard.
type Identifiers struct {
	ISBN    string `json:"isbn,omitempty"`
	ISSN    string `json:"issn,omitempty"`
	DOI     string `json:"doi,omitempty"`
	Barcode string `json:"barcode,omitempty"`
	QRID    string `json:"qr_id,omitempty"`
}

// Matches reports whether token exactly equals one of the identifier fields.
// Comparison is exact string equality, no normalization. Field priority is
// ISBN, ISSN, DOI, barcode, QR id.
func (i Identifiers) Matches(token string) bool {
	if token == "" {
		return false
	}
	return (i.ISBN != "" && i.ISBN == token) ||
		(i.ISSN != "" && i.ISSN == token) ||
		(i.DOI != "" && i.DOI == token) ||
		(i.Barcode != "" && i.Barcode == token) ||
		(i.QRID != "" && i.QRID == token)
}

// Values returns the non-empty identifier values, used as secondary index
// keys in the catalog store.
func (i Identifiers) Values() []string {
	vals := make([]string, 0, 5)
	for _, v := range []string{i.ISBN, i.ISSN, i.DOI, i.Barcode, i.QRID} {
		if v != "" {
			vals = append(vals, v)
		}
	}
	return vals
}

// Resource represents a lendable catalog entry.
//
// Copies and TotalCopies are only meaningful for physical kinds. Available is
// derived state: for physical resources it must always equal Copies > 0, for
// digital resources it is pinned true. Mutations go through AdjustCopies so
// the invariant cannot drift.
type Resource struct {
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
	ID          string      `json:"id"`
	Kind        Kind        `json:"kind"`
	Title       string      `json:"title"`
	Author      string      `json:"author"`
	Publisher   string      `json:"publisher,omitempty"`
	Category    string      `json:"category,omitempty"`
	Keywords    []string    `json:"keywords,omitempty"`
	Description string      `json:"description,omitempty"`
	Location    string      `json:"location,omitempty"` // Shelf location, e.g. "A12-S3"
	Identifiers Identifiers `json:"identifiers"`
	TotalCopies int         `json:"total_copies,omitempty"`
	Copies      int         `json:"copies,omitempty"`
	Available   bool        `json:"available"`
}

// IsPhysical reports whether this resource is tracked by copy count.
func (r *Resource) IsPhysical() bool {
	return r.Kind.Physical()
}

// RecomputeAvailability re-derives the Available flag from the copy count.
func (r *Resource) RecomputeAvailability() {
	if r.IsPhysical() {
		r.Available = r.Copies > 0
	} else {
		r.Available = true
	}
}

// AdjustCopies applies delta to the copy count of a physical resource and
// re-derives availability. The count clamps at zero, it never goes negative.
// For digital resources this is a no-op: they carry no copy count and stay
// available no matter how many loans reference them.
func (r *Resource) AdjustCopies(delta int) {
	if !r.IsPhysical() {
		r.Available = true
		return
	}
	r.Copies += delta
	if r.Copies < 0 {
		r.Copies = 0
	}
	r.RecomputeAvailability()
}

// MatchesQuery reports whether the resource matches a catalog search query.
// Matching is a case-insensitive substring test against title, author,
// publisher, category, keywords, and all identifier fields, mirroring what
// patrons expect from the catalog search box.
func (r *Resource) MatchesQuery(query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}

	if strings.Contains(strings.ToLower(r.Title), q) ||
		strings.Contains(strings.ToLower(r.Author), q) ||
		strings.Contains(strings.ToLower(r.Publisher), q) ||
		strings.Contains(strings.ToLower(r.Category), q) {
		return true
	}

	for _, kw := range r.Keywords {
		if strings.Contains(strings.ToLower(kw), q) {
			return true
		}
	}

	for _, ident := range r.Identifiers.Values() {
		if strings.Contains(strings.ToLower(ident), q) {
			return true
		}
	}

	return false
}

// Touch updates the UpdatedAt timestamp to the current time.
func (r *Resource) Touch() {
	r.UpdatedAt = time.Now()
}

// InitTimestamps sets both CreatedAt and UpdatedAt to now.
func (r *Resource) InitTimestamps() {
	now := time.Now()
	r.CreatedAt = now
	r.UpdatedAt = now
}
