package cron

import (
	"context"
	"fmt"

	"github.com/muraqqa/storefront/internal/catalog"
	"github.com/muraqqa/storefront/pkg/logger"
)

type facetCache interface {
	Invalidate(ctx context.Context) error
	Facets(ctx context.Context) (catalog.Facets, error)
}

// NewCatalogFacetsJob drops and rewarms the cached facets so new artworks
// and price changes reach the filter panel before the cache TTL runs out.
func NewCatalogFacetsJob(logg *logger.Logger, cache facetCache) (Job, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if cache == nil {
		return nil, fmt.Errorf("facet cache required")
	}
	return &catalogFacetsJob{logg: logg, cache: cache}, nil
}

type catalogFacetsJob struct {
	logg  *logger.Logger
	cache facetCache
}

func (j *catalogFacetsJob) Name() string { return "catalog-facets" }

func (j *catalogFacetsJob) Run(ctx context.Context) error {
	if err := j.cache.Invalidate(ctx); err != nil {
		j.logg.Warn(j.logg.WithField(ctx, "error", err.Error()), "cron.facet_invalidate_failed")
	}
	facets, err := j.cache.Facets(ctx)
	if err != nil {
		return fmt.Errorf("warm facets: %w", err)
	}
	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"categories":     len(facets.Categories),
		"secondary_tags": len(facets.SecondaryTags),
	}), "cron.facets_warmed")
	return nil
}
