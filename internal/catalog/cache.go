package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/muraqqa/storefront/pkg/logger"
)

const facetsCacheVersion = "v1"

// CacheStore is the slice of the redis client the facet cache needs.
type CacheStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	CatalogKey(parts ...string) string
}

// FacetSource loads facets and bounds from the database.
type FacetSource interface {
	Facets(ctx context.Context) (Facets, error)
	Bounds(ctx context.Context) (Bounds, error)
}

// FacetCache is a read-through cache for facets and bounds. Redis failures
// fall back to the source.
type FacetCache struct {
	store  CacheStore
	source FacetSource
	ttl    time.Duration
	logg   *logger.Logger
}

// NewFacetCache wraps source. A nil store disables caching.
func NewFacetCache(store CacheStore, source FacetSource, ttl time.Duration, logg *logger.Logger) *FacetCache {
	if logg == nil {
		logg = logger.Nop()
	}
	return &FacetCache{store: store, source: source, ttl: ttl, logg: logg}
}

func (c *FacetCache) key() string {
	return c.store.CatalogKey("facets", facetsCacheVersion)
}

// Facets returns facets together with bounds.
func (c *FacetCache) Facets(ctx context.Context) (Facets, error) {
	if c.store != nil {
		raw, err := c.store.Get(ctx, c.key())
		switch {
		case err == nil:
			var cached Facets
			if jsonErr := json.Unmarshal([]byte(raw), &cached); jsonErr == nil {
				return cached, nil
			}
			c.logg.Warn(ctx, "catalog facet cache entry unreadable")
		case !errors.Is(err, redis.Nil):
			c.logg.Warn(c.logg.WithField(ctx, "error", err.Error()), "catalog facet cache read failed")
		}
	}

	facets, err := c.load(ctx)
	if err != nil {
		return Facets{}, err
	}

	if c.store != nil {
		payload, err := json.Marshal(facets)
		if err == nil {
			err = c.store.Set(ctx, c.key(), payload, c.ttl)
		}
		if err != nil {
			c.logg.Warn(c.logg.WithField(ctx, "error", err.Error()), "catalog facet cache write failed")
		}
	}
	return facets, nil
}

// Bounds returns the cached bounds.
func (c *FacetCache) Bounds(ctx context.Context) (Bounds, error) {
	facets, err := c.Facets(ctx)
	if err != nil {
		return Bounds{}, err
	}
	return facets.Bounds, nil
}

// Invalidate drops the cached entry.
func (c *FacetCache) Invalidate(ctx context.Context) error {
	if c.store == nil {
		return nil
	}
	return c.store.Del(ctx, c.key())
}

func (c *FacetCache) load(ctx context.Context) (Facets, error) {
	facets, err := c.source.Facets(ctx)
	if err != nil {
		return Facets{}, err
	}
	bounds, err := c.source.Bounds(ctx)
	if err != nil {
		return Facets{}, err
	}
	facets.Bounds = bounds
	return facets, nil
}
