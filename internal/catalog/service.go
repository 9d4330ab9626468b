package catalog

import (
	"context"
	"time"

	pkgerrors "github.com/muraqqa/storefront/pkg/errors"
	"github.com/muraqqa/storefront/pkg/logger"
	"github.com/muraqqa/storefront/pkg/metrics"
	"github.com/muraqqa/storefront/pkg/pagination"
)

// Provider is the catalog collaborator consumed by views and the HTTP API.
type Provider interface {
	Lister
	Facets(ctx context.Context) (Facets, error)
	Bounds(ctx context.Context) (Bounds, error)
}

// ServiceParams groups dependencies for the catalog service.
type ServiceParams struct {
	Repo      *Repository
	Cache     CacheStore
	CacheTTL  time.Duration
	PageLimit int
	Metrics   *metrics.CatalogMetrics
	Logger    *logger.Logger
}

type service struct {
	repo    *Repository
	facets  *FacetCache
	limit   int
	metrics *metrics.CatalogMetrics
}

// NewService builds the catalog provider.
func NewService(params ServiceParams) (Provider, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "catalog repo is required")
	}
	return &service{
		repo:    params.Repo,
		facets:  NewFacetCache(params.Cache, params.Repo, params.CacheTTL, params.Logger),
		limit:   pagination.NormalizeLimit(params.PageLimit),
		metrics: params.Metrics,
	}, nil
}

// List fetches a page and applies the availability refinement.
func (s *service) List(ctx context.Context, criteria FilterCriteria) (Page, error) {
	started := time.Now()
	page, err := s.repo.List(ctx, criteria, pagination.Params{Page: criteria.Page, Limit: s.limit})
	s.metrics.ObserveProvider("repo_list", time.Since(started))
	if err != nil {
		return Page{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list catalog")
	}
	page.Items = Refine(page.Items, criteria.Availability)
	return page, nil
}

func (s *service) Facets(ctx context.Context) (Facets, error) {
	facets, err := s.facets.Facets(ctx)
	if err != nil {
		return Facets{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load catalog facets")
	}
	return facets, nil
}

func (s *service) Bounds(ctx context.Context) (Bounds, error) {
	bounds, err := s.facets.Bounds(ctx)
	if err != nil {
		return Bounds{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load catalog bounds")
	}
	return bounds, nil
}
