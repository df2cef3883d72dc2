// Package search serves the catalog typeahead and listings, with plans the
// user already pays for filtered out.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/SubTrackr/app/models"
	"github.com/ManuelReschke/SubTrackr/internal/pkg/cache"
	"github.com/ManuelReschke/SubTrackr/internal/pkg/matcher"
)

const (
	MinQueryLength    = 2
	SearchLimit       = 10
	PopularCandidates = 20
	PopularLimit      = 8

	popularCacheKey = "catalog:popular"
	popularTTL      = 5 * time.Minute
)

// CatalogReader is the read side of the catalog store.
type CatalogReader interface {
	SearchPlans(ctx context.Context, query string, limit int) ([]models.Plan, error)
	ListPlansByFeedOrder(ctx context.Context, limit int) ([]models.Plan, error)
	ListPlansByPrice(ctx context.Context, category string) ([]models.Plan, error)
	ListCategoryNames(ctx context.Context) ([]string, error)
}

// Cache holds the unfiltered popular listing between syncs.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

type Searcher struct {
	catalog CatalogReader
	cache   Cache
}

// NewSearcher creates a searcher. c may be nil.
func NewSearcher(catalog CatalogReader, c Cache) *Searcher {
	return &Searcher{catalog: catalog, cache: c}
}

// Search matches plan names containing query. Queries shorter than
// MinQueryLength characters return nothing without hitting the store.
func (s *Searcher) Search(ctx context.Context, query string, subs []models.Subscription) ([]models.Plan, error) {
	q := strings.TrimSpace(query)
	if utf8.RuneCountInString(q) < MinQueryLength {
		return []models.Plan{}, nil
	}

	plans, err := s.catalog.SearchPlans(ctx, q, SearchLimit)
	if err != nil {
		return nil, fmt.Errorf("search plans: %w", err)
	}
	return matcher.Filter(plans, subs), nil
}

// Popular returns up to PopularLimit plans from the head of the feed that the
// user is not subscribed to yet.
func (s *Searcher) Popular(ctx context.Context, subs []models.Subscription) ([]models.Plan, error) {
	plans, err := s.popularCandidates(ctx)
	if err != nil {
		return nil, err
	}
	available := matcher.Filter(plans, subs)
	if len(available) > PopularLimit {
		available = available[:PopularLimit]
	}
	return available, nil
}

func (s *Searcher) popularCandidates(ctx context.Context) ([]models.Plan, error) {
	cacheUsable := s.cache != nil
	if cacheUsable {
		raw, err := s.cache.Get(ctx, popularCacheKey)
		switch {
		case err == nil:
			var plans []models.Plan
			if err := json.Unmarshal([]byte(raw), &plans); err == nil {
				return plans, nil
			}
			log.Warnf("[Search] Dropping unreadable popular cache entry")
		case cache.IsMiss(err):
		default:
			// Cache is down; serve from the store without writing back.
			log.Warnf("[Search] Reading popular cache failed: %v", err)
			cacheUsable = false
		}
	}

	plans, err := s.catalog.ListPlansByFeedOrder(ctx, PopularCandidates)
	if err != nil {
		return nil, fmt.Errorf("list popular plans: %w", err)
	}

	if cacheUsable {
		if raw, err := json.Marshal(plans); err == nil {
			if err := s.cache.Set(ctx, popularCacheKey, string(raw), popularTTL); err != nil {
				log.Debugf("[Search] Caching popular plans failed: %v", err)
			}
		}
	}
	return plans, nil
}

// Catalog lists all plans cheapest first, optionally restricted to one
// category.
func (s *Searcher) Catalog(ctx context.Context, category string, subs []models.Subscription) ([]models.Plan, error) {
	plans, err := s.catalog.ListPlansByPrice(ctx, strings.TrimSpace(category))
	if err != nil {
		return nil, fmt.Errorf("list catalog: %w", err)
	}
	return matcher.Filter(plans, subs), nil
}

// Categories returns the names of categories that own plans.
func (s *Searcher) Categories(ctx context.Context) ([]string, error) {
	names, err := s.catalog.ListCategoryNames(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return names, nil
}

// InvalidateCatalog drops the cached popular listing.
func (s *Searcher) InvalidateCatalog(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Delete(ctx, popularCacheKey)
}
