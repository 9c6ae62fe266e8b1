// Package catalog serves the product listing and search.
package catalog

import (
	"context"
	"errors"
	"strconv"

	"github.com/example/storefront/internal/infrastructure/docstore"
)

var ErrEmptyQuery = errors.New("search query is required")

// ListCache caches the full product listing. Satisfied by the Redis
// catalog cache; a nil cache disables caching.
type ListCache interface {
	Get(ctx context.Context) ([]docstore.Document, bool)
	Set(ctx context.Context, docs []docstore.Document)
	Invalidate(ctx context.Context)
}

// Service answers catalog queries. Products pass through as raw documents
// so fields the seeder added beyond the core schema survive.
type Service struct {
	products docstore.Collection
	cache    ListCache
}

func NewService(products docstore.Collection, cache ListCache) *Service {
	return &Service{products: products, cache: cache}
}

// ListAll returns every product in store-native order, read through the
// cache when one is configured.
func (s *Service) ListAll(ctx context.Context) ([]docstore.Document, error) {
	if s.cache != nil {
		if docs, ok := s.cache.Get(ctx); ok {
			return docs, nil
		}
	}

	docs, err := s.products.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.cache.Set(ctx, docs)
	}
	return docs, nil
}

// Search matches products whose name or location contains the term as a
// case-insensitive substring. A term that parses as a number additionally
// matches products whose price or availability equals it exactly.
func (s *Service) Search(ctx context.Context, term string) ([]docstore.Document, error) {
	if term == "" {
		return nil, ErrEmptyQuery
	}

	filter := docstore.Filter{}.
		Contains("name", term).
		Contains("location", term)

	if n, err := strconv.ParseFloat(term, 64); err == nil {
		filter = filter.
			Equals("price", n).
			Equals("availability", n)
	}

	return s.products.Find(ctx, filter)
}

// Invalidate drops the cached listing. Called after stock mutations so the
// listing does not serve stale availability for the cache TTL.
func (s *Service) Invalidate(ctx context.Context) {
	if s.cache != nil {
		s.cache.Invalidate(ctx)
	}
}
