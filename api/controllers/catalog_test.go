package controllers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muraqqa/storefront/internal/catalog"
	"github.com/muraqqa/storefront/pkg/enums"
	pkgerrors "github.com/muraqqa/storefront/pkg/errors"
	"github.com/muraqqa/storefront/pkg/pagination"
)

type stubCatalog struct {
	bounds   catalog.Bounds
	page     catalog.Page
	facets   catalog.Facets
	err      error
	received catalog.FilterCriteria
}

func (s *stubCatalog) List(_ context.Context, criteria catalog.FilterCriteria) (catalog.Page, error) {
	s.received = criteria
	return s.page, s.err
}

func (s *stubCatalog) Facets(context.Context) (catalog.Facets, error) {
	return s.facets, s.err
}

func (s *stubCatalog) Bounds(context.Context) (catalog.Bounds, error) {
	return s.bounds, nil
}

func testBounds() catalog.Bounds {
	return catalog.Bounds{
		Price: catalog.Range{Min: 5000, Max: 500000},
		Year:  catalog.Range{Min: 1950, Max: 2024},
	}
}

func TestCatalogListDecodesQuery(t *testing.T) {
	entry := catalog.Entry{ID: uuid.New(), Title: "Indus Dusk", Category: "Painting", Price: 90000, Stock: 1}
	provider := &stubCatalog{
		bounds: testBounds(),
		page: catalog.Page{
			Items:      []catalog.Entry{entry},
			Pagination: pagination.NewMeta(pagination.Params{Page: 2, Limit: 12}, 13),
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/catalog/artworks?category=Painting&stock=in_stock&sort=price_asc&priceMax=900000&page=2&utm_source=mail", nil)
	resp := httptest.NewRecorder()
	CatalogList(provider, nil).ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
	body := decodeData[catalogListResponse](t, resp)
	require.Len(t, body.Items, 1)
	assert.Equal(t, entry.ID, body.Items[0].ID)

	require.NotNil(t, provider.received.Category)
	assert.Equal(t, "Painting", *provider.received.Category)
	assert.Equal(t, enums.AvailabilityAvailable, provider.received.Availability)
	assert.Equal(t, int64(500000), provider.received.PriceRange.Max)
	assert.Equal(t, 2, provider.received.Page)

	assert.Contains(t, body.CanonicalQuery, "category=Painting")
	assert.Contains(t, body.CanonicalQuery, "page=2")
	assert.NotContains(t, body.CanonicalQuery, "priceMax")
	assert.NotContains(t, body.CanonicalQuery, "utm_source")
}

func TestCatalogListEmptyItemsSerializeAsArray(t *testing.T) {
	provider := &stubCatalog{bounds: testBounds()}
	resp := httptest.NewRecorder()
	CatalogList(provider, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/catalog/artworks", nil))

	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"items":[]`)
}

func TestCatalogListProviderFailure(t *testing.T) {
	provider := &stubCatalog{bounds: testBounds(), err: pkgerrors.Wrap(pkgerrors.CodeDependency, errors.New("db down"), "list catalog")}
	resp := httptest.NewRecorder()
	CatalogList(provider, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/catalog/artworks", nil))

	assert.Equal(t, http.StatusServiceUnavailable, resp.Code)
	assert.Equal(t, string(pkgerrors.CodeDependency), decodeError(t, resp).Code)
}

func TestCatalogFacets(t *testing.T) {
	provider := &stubCatalog{facets: catalog.Facets{Categories: []string{"Calligraphy", "Painting"}, Bounds: testBounds()}}
	resp := httptest.NewRecorder()
	CatalogFacets(provider, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/catalog/facets", nil))

	require.Equal(t, http.StatusOK, resp.Code)
	body := decodeData[catalog.Facets](t, resp)
	assert.Equal(t, []string{"Calligraphy", "Painting"}, body.Categories)
	assert.Equal(t, int64(2024), body.Bounds.Year.Max)
}
