package main

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muraqqa/storefront/internal/catalog"
	"github.com/muraqqa/storefront/pkg/enums"
	"github.com/muraqqa/storefront/pkg/pagination"
)

func testBounds() catalog.Bounds {
	return catalog.Bounds{
		Price: catalog.Range{Min: 10000, Max: 500000},
		Year:  catalog.Range{Min: 1950, Max: 2025},
	}
}

func TestApplyUpdatesStore(t *testing.T) {
	store := catalog.NewStore(testBounds())

	for _, line := range []string{
		"category Miniature Painting",
		"medium Gouache",
		"availability available",
		"sort price_desc",
		"search mughal garden",
		"price 20000 90000",
		"year 1990 2020",
		"page 3",
	} {
		refresh, err := apply(store, line)
		require.NoError(t, err, line)
		assert.False(t, refresh)
	}

	c := store.Criteria()
	require.NotNil(t, c.Category)
	assert.Equal(t, "Miniature Painting", *c.Category)
	require.NotNil(t, c.SecondaryTag)
	assert.Equal(t, "Gouache", *c.SecondaryTag)
	assert.Equal(t, enums.AvailabilityAvailable, c.Availability)
	assert.Equal(t, enums.SortKeyPriceDesc, c.SortKey)
	assert.Equal(t, "mughal garden", c.SearchText)
	assert.Equal(t, &catalog.Range{Min: 20000, Max: 90000}, c.PriceRange)
	assert.Equal(t, &catalog.Range{Min: 1990, Max: 2020}, c.YearRange)
	assert.Equal(t, 3, c.Page)

	_, err := apply(store, "category All")
	require.NoError(t, err)
	assert.Nil(t, store.Criteria().Category)
	assert.Equal(t, 1, store.Criteria().Page)

	_, err = apply(store, "reset")
	require.NoError(t, err)
	assert.Equal(t, catalog.DefaultCriteria(testBounds()), store.Criteria())
}

func TestApplyRejectsBadInput(t *testing.T) {
	store := catalog.NewStore(testBounds())
	for _, line := range []string{"sort cheapest", "availability maybe", "page two", "price 100", "dance"} {
		_, err := apply(store, line)
		assert.Error(t, err, line)
	}
	assert.Equal(t, catalog.DefaultCriteria(testBounds()), store.Criteria())
}

func TestApplyControlCommands(t *testing.T) {
	store := catalog.NewStore(testBounds())

	refresh, err := apply(store, "refresh")
	require.NoError(t, err)
	assert.True(t, refresh)

	_, err = apply(store, "quit")
	assert.True(t, errors.As(err, new(errQuit)))

	refresh, err = apply(store, "   ")
	assert.NoError(t, err)
	assert.False(t, refresh)
}

func TestAddressBarFollowsStoreAfterRestore(t *testing.T) {
	bar, err := newAddressBar("?category=Calligraphy&sort=oldest&utm_source=mail")
	require.NoError(t, err)
	store := catalog.NewStore(testBounds())
	sync := catalog.NewSynchronizer(store, bar)
	defer sync.Close()

	require.True(t, sync.Restore(testBounds()))
	require.NotNil(t, store.Criteria().Category)
	assert.Equal(t, "Calligraphy", *store.Criteria().Category)

	_, err = apply(store, "sort price_asc")
	require.NoError(t, err)
	q := bar.Query()
	assert.Equal(t, "price_asc", q.Get(catalog.ParamSort))
	assert.Equal(t, "Calligraphy", q.Get(catalog.ParamCategory))
	assert.Equal(t, "mail", q.Get("utm_source"))
	assert.Contains(t, bar.String(), "/catalog?")
}

func TestRenderMarksSoldWorksAndErrors(t *testing.T) {
	state := catalog.State{
		Criteria: catalog.DefaultCriteria(testBounds()),
		Page: catalog.Page{
			Items: []catalog.Entry{
				{ID: uuid.New(), Title: "Ravi at Dusk", Artist: "S. Rehman", Year: 2019, Price: 85000, Stock: 1},
				{ID: uuid.New(), Title: "Walled City", Artist: "A. Chughtai", Year: 1962, Price: 400000},
			},
			Pagination: pagination.Meta{Total: 2, Page: 1, Limit: 12, TotalPages: 1},
		},
		Err: errors.New("catalog unavailable"),
	}
	out := render(state)
	assert.Contains(t, out, "catalog unavailable")
	assert.Contains(t, out, "page 1/1, 2 artworks")
	assert.Contains(t, out, "Ravi at Dusk")
	assert.Contains(t, out, "sold")
}
