package controllers

import (
	"net/http"

	"github.com/muraqqa/storefront/api/responses"
	"github.com/muraqqa/storefront/internal/catalog"
	pkgerrors "github.com/muraqqa/storefront/pkg/errors"
	"github.com/muraqqa/storefront/pkg/logger"
	"github.com/muraqqa/storefront/pkg/pagination"
)

type catalogListResponse struct {
	Items          []catalog.Entry        `json:"items"`
	Pagination     pagination.Meta        `json:"pagination"`
	Criteria       catalog.FilterCriteria `json:"criteria"`
	CanonicalQuery string                 `json:"canonicalQuery"`
}

// CatalogList decodes the shareable filter query, runs it and echoes the
// normalized criteria with their canonical query string.
func CatalogList(provider catalog.Provider, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if provider == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog unavailable"))
			return
		}

		bounds, err := provider.Bounds(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		criteria := catalog.Decode(r.URL.Query(), bounds)
		page, err := provider.List(r.Context(), criteria)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items := page.Items
		if items == nil {
			items = []catalog.Entry{}
		}
		responses.WriteSuccess(w, catalogListResponse{
			Items:          items,
			Pagination:     page.Pagination,
			Criteria:       criteria,
			CanonicalQuery: catalog.Encode(criteria, bounds).Encode(),
		})
	}
}

// CatalogFacets lists the categories, secondary tags and numeric bounds.
func CatalogFacets(provider catalog.Provider, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if provider == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog unavailable"))
			return
		}
		facets, err := provider.Facets(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, facets)
	}
}
