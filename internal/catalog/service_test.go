package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/muraqqa/storefront/pkg/enums"
	pkgerrors "github.com/muraqqa/storefront/pkg/errors"
)

func TestNewServiceRequiresRepo(t *testing.T) {
	_, err := NewService(ServiceParams{})
	require.Error(t, err)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestServiceListUsesConfiguredLimit(t *testing.T) {
	repo := NewRepository(openTestDB(t))
	seedArtworks(t, repo)

	svc, err := NewService(ServiceParams{Repo: repo, PageLimit: 2, Cache: newMemoryCache()})
	require.NoError(t, err)

	page, err := svc.List(context.Background(), FilterCriteria{SortKey: enums.SortKeyNewest, Availability: enums.AvailabilityAvailable, Page: 1})
	require.NoError(t, err)
	require.Equal(t, 2, page.Pagination.Limit)
	require.Equal(t, 2, page.Pagination.TotalPages)
	for _, item := range page.Items {
		require.True(t, item.Available())
	}

	facets, err := svc.Facets(context.Background())
	require.NoError(t, err)
	require.Contains(t, facets.Categories, "Miniature")

	bounds, err := svc.Bounds(context.Background())
	require.NoError(t, err)
	require.False(t, bounds.IsEmpty())
}

func TestServiceDrivesExecutor(t *testing.T) {
	repo := NewRepository(openTestDB(t))
	seedArtworks(t, repo)
	svc, err := NewService(ServiceParams{Repo: repo})
	require.NoError(t, err)

	exec, sched, states := newTestExecutor(t, svc)
	c := DefaultCriteria(Bounds{})
	c.SearchText = "indus"
	exec.Submit(c)
	sched.Elapse()

	state := nextState(t, states)
	require.NoError(t, state.Err)
	require.Equal(t, []string{"River Indus"}, titles(state.Visible()))
}
