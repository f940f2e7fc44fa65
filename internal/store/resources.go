package store

import (
	"context"
	"encoding/json/v2"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/stacksapp/stacks-server/internal/domain"
)

const (
	resourcePrefix        = "resource:"
	resourceByIdentPrefix = "idx:resources:ident:"
)

var (
	ErrResourceNotFound = errors.New("resource not found")
	ErrResourceExists   = errors.New("resource already exists")
)

// Resource Operations

// CreateResource creates a new catalog resource.
func (s *Store) CreateResource(ctx context.Context, resource *domain.Resource) error {
	key := buildKey(resourcePrefix, resource.ID)
	defer releaseKey(key)

	// Check if it already exists
	exists, err := s.exists(key)
	if err != nil {
		return fmt.Errorf("check resource exists: %w", err)
	}
	if exists {
		return ErrResourceExists
	}

	resource.InitTimestamps()
	resource.RecomputeAvailability()

	// Use transaction to create resource and identifier indices atomically
	err = s.db.Update(func(txn *badger.Txn) error {
		data, err := json.Marshal(resource)
		if err != nil {
			return fmt.Errorf("marshal resource: %w", err)
		}

		if err := txn.Set(key, data); err != nil {
			return err
		}

		// Create identifier indices (ISBN, ISSN, DOI, barcode, QR) for scan lookups
		for _, ident := range resource.Identifiers.Values() {
			identKey := []byte(resourceByIdentPrefix + ident)
			if err := txn.Set(identKey, []byte(resource.ID)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("create resource: %w", err)
	}

	if s.logger != nil {
		s.logger.LogAttrs(ctx, slog.LevelInfo, "resource created",
			slog.String("id", resource.ID),
			slog.String("kind", string(resource.Kind)),
			slog.String("title", resource.Title),
			slog.Int("copies", resource.Copies),
		)
	}

	// Index for search asynchronously
	s.indexResourceAsync(resource)

	return nil
}

// GetResource retrieves a resource by ID.
func (s *Store) GetResource(ctx context.Context, id string) (*domain.Resource, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key := buildKey(resourcePrefix, id)
	defer releaseKey(key)

	var resource domain.Resource
	err := s.get(key, &resource)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrResourceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get resource: %w", err)
	}
	return &resource, nil
}

// GetResourceByIdentifier looks up a resource whose ISBN, ISSN, DOI,
// barcode or QR id exactly matches the given value. There is no
// normalization; the scanned value must match as stored.
func (s *Store) GetResourceByIdentifier(ctx context.Context, value string) (*domain.Resource, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(value) == "" {
		return nil, ErrResourceNotFound
	}

	identKey := buildKey(resourceByIdentPrefix, value)
	defer releaseKey(identKey)

	var id string
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(identKey)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			id = string(val)
			return nil
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrResourceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lookup identifier: %w", err)
	}

	return s.GetResource(ctx, id)
}

// UpdateResource updates an existing resource and keeps identifier
// indices in sync.
func (s *Store) UpdateResource(ctx context.Context, resource *domain.Resource) error {
	key := []byte(resourcePrefix + resource.ID)

	// Get old resource for index updates
	oldResource, err := s.GetResource(ctx, resource.ID)
	if err != nil {
		return err
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		resource.Touch()
		resource.RecomputeAvailability()

		data, err := json.Marshal(resource)
		if err != nil {
			return fmt.Errorf("marshal resource: %w", err)
		}

		if err := txn.Set(key, data); err != nil {
			return err
		}

		// Reconcile identifier indices
		oldIdents := make(map[string]bool)
		for _, ident := range oldResource.Identifiers.Values() {
			oldIdents[ident] = true
		}
		newIdents := make(map[string]bool)
		for _, ident := range resource.Identifiers.Values() {
			newIdents[ident] = true
		}

		for ident := range oldIdents {
			if !newIdents[ident] {
				if err := txn.Delete([]byte(resourceByIdentPrefix + ident)); err != nil {
					return err
				}
			}
		}
		for ident := range newIdents {
			if !oldIdents[ident] {
				if err := txn.Set([]byte(resourceByIdentPrefix+ident), []byte(resource.ID)); err != nil {
					return err
				}
			}
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("update resource: %w", err)
	}

	s.indexResourceAsync(resource)

	return nil
}

// AdjustResourceCopies applies delta to a resource's available copy
// count inside a single write transaction, so concurrent checkouts and
// returns cannot interleave their read-modify-write cycles. Counts are
// clamped at zero and availability is recomputed before the write.
func (s *Store) AdjustResourceCopies(ctx context.Context, id string, delta int) (*domain.Resource, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key := []byte(resourcePrefix + id)
	var resource domain.Resource

	err := s.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrResourceNotFound
		}
		if err != nil {
			return err
		}

		err = item.Value(func(val []byte) error {
			return json.Unmarshal(val, &resource)
		})
		if err != nil {
			return fmt.Errorf("unmarshal resource: %w", err)
		}

		resource.AdjustCopies(delta)
		resource.Touch()

		data, err := json.Marshal(&resource)
		if err != nil {
			return fmt.Errorf("marshal resource: %w", err)
		}
		return txn.Set(key, data)
	})
	if err != nil {
		if errors.Is(err, ErrResourceNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("adjust resource copies: %w", err)
	}

	if s.logger != nil {
		s.logger.LogAttrs(ctx, slog.LevelDebug, "resource copies adjusted",
			slog.String("id", resource.ID),
			slog.Int("delta", delta),
			slog.Int("copies", resource.Copies),
			slog.Bool("available", resource.Available),
		)
	}

	s.indexResourceAsync(&resource)

	return &resource, nil
}

// DeleteResource removes a resource and its identifier indices.
// Idempotent; deleting a missing resource is not an error.
func (s *Store) DeleteResource(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	key := []byte(resourcePrefix + id)

	err := s.db.Update(func(txn *badger.Txn) error {
		var resource domain.Resource
		item, err := txn.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		err = item.Value(func(val []byte) error {
			return json.Unmarshal(val, &resource)
		})
		if err != nil {
			return err
		}

		for _, ident := range resource.Identifiers.Values() {
			if err := txn.Delete([]byte(resourceByIdentPrefix + ident)); err != nil {
				return err
			}
		}
		return txn.Delete(key)
	})
	if err != nil {
		return fmt.Errorf("delete resource: %w", err)
	}

	if s.searchIndexer != nil {
		go func() {
			if err := s.searchIndexer.DeleteResource(context.Background(), id); err != nil {
				if s.logger != nil {
					s.logger.Warn("failed to remove resource from search index", "resource_id", id, "error", err)
				}
			}
		}()
	}

	return nil
}

// ListResources returns an iterator over all catalog resources.
func (s *Store) ListResources(ctx context.Context) iter.Seq2[*domain.Resource, error] {
	return func(yield func(*domain.Resource, error) bool) {
		s.db.View(func(txn *badger.Txn) error {
			opts := badger.DefaultIteratorOptions
			opts.Prefix = []byte(resourcePrefix)
			opts.PrefetchValues = true

			it := txn.NewIterator(opts)
			defer it.Close()

			for it.Seek([]byte(resourcePrefix)); it.ValidForPrefix([]byte(resourcePrefix)); it.Next() {
				if ctx.Err() != nil {
					yield(nil, ctx.Err())
					return ctx.Err()
				}

				var resource domain.Resource
				err := it.Item().Value(func(val []byte) error {
					return json.Unmarshal(val, &resource)
				})
				if err != nil {
					yield(nil, err)
					return err
				}

				if !yield(&resource, nil) {
					return nil // Consumer stopped early
				}
			}
			return nil
		})
	}
}

// SearchResources scans the catalog for resources whose text fields,
// keywords or identifiers contain the query as a case-insensitive
// substring. An empty query returns the whole catalog.
func (s *Store) SearchResources(ctx context.Context, query string) ([]*domain.Resource, error) {
	var results []*domain.Resource
	for resource, err := range s.ListResources(ctx) {
		if err != nil {
			return nil, err
		}
		if resource.MatchesQuery(query) {
			results = append(results, resource)
		}
	}
	return results, nil
}

// indexResourceAsync pushes a resource into the search index without
// blocking the write path.
func (s *Store) indexResourceAsync(resource *domain.Resource) {
	if s.searchIndexer == nil {
		return
	}
	r := *resource
	go func() {
		if err := s.searchIndexer.IndexResource(context.Background(), &r); err != nil {
			if s.logger != nil {
				s.logger.Warn("failed to index resource for search", "resource_id", r.ID, "error", err)
			}
		}
	}()
}
