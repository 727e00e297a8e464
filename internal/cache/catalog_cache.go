package cache

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/eko/gocache/lib/v4/codec"
	"github.com/eko/gocache/lib/v4/store"
	"github.com/waterprint/waterprint/internal/config"
	"github.com/waterprint/waterprint/internal/database"
)

// Cache key prefixes.
const (
	CatalogCachePrefix = "waterprint-catalog-"
)

const categoriesKey = "categories"

// CatalogCache caches the category list. The catalog only changes when it is seeded,
// so the engine invalidates it right after seeding.
type CatalogCache struct {
	categories *PrefixedCache[[]database.Category]
	ttl        time.Duration
}

// NewCatalogCache creates the catalog cache for the configured backend.
func NewCatalogCache(cfg *config.CacheConfig) *CatalogCache {
	if cfg == nil {
		cfg = &config.CacheConfig{Type: config.CacheTypeMemory}
	}
	return &CatalogCache{
		categories: NewPrefixedCache[[]database.Category](
			newCacheInstanceByType(cfg),
			cfg.Type,
			CatalogCachePrefix,
		),
		ttl: cfg.TTL,
	}
}

// Get returns the cached categories. The second return value is false on a miss.
func (c *CatalogCache) Get(ctx context.Context) ([]database.Category, bool) {
	categories, err := c.categories.Get(ctx, categoriesKey)
	if err != nil {
		log.Debug("catalog cache miss", "error", err)
		return nil, false
	}
	return categories, true
}

// Set stores the category list.
func (c *CatalogCache) Set(ctx context.Context, categories []database.Category) error {
	var opts []store.Option
	if c.ttl > 0 {
		opts = append(opts, store.WithExpiration(c.ttl))
	}
	return c.categories.Set(ctx, categoriesKey, categories, opts...)
}

// Invalidate drops the cached category list.
func (c *CatalogCache) Invalidate(ctx context.Context) error {
	return c.categories.Delete(ctx, categoriesKey)
}

// Load returns the cached categories, falling back to the store on a miss.
// A failed cache write is logged and does not fail the read.
func (c *CatalogCache) Load(ctx context.Context, db database.CategoryDB) ([]database.Category, error) {
	if categories, ok := c.Get(ctx); ok {
		return categories, nil
	}

	categories, err := db.ListCategories(ctx)
	if err != nil {
		return nil, err
	}

	if err := c.Set(ctx, categories); err != nil {
		log.Warn("failed to cache categories", "error", err)
	}
	return categories, nil
}

type Stats struct {
	*codec.Stats
	CacheName string `json:"cacheName"`
}

// GetStats returns hit/miss statistics of the catalog cache.
func (c *CatalogCache) GetStats() []*Stats {
	return []*Stats{
		{
			Stats:     c.categories.GetStats(),
			CacheName: "catalog",
		},
	}
}
