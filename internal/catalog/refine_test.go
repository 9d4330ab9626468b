package catalog

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/muraqqa/storefront/pkg/enums"
)

func titles(items []Entry) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.Title)
	}
	return out
}

func TestRefine(t *testing.T) {
	items := []Entry{
		{Title: "a", Stock: 1},
		{Title: "b", Stock: 0},
		{Title: "c", Stock: 3},
		{Title: "d", Stock: -1},
	}

	require.Equal(t, []string{"a", "b", "c", "d"}, titles(Refine(items, enums.AvailabilityAll)))
	require.Equal(t, []string{"a", "c"}, titles(Refine(items, enums.AvailabilityAvailable)))
	require.Equal(t, []string{"b", "d"}, titles(Refine(items, enums.AvailabilitySold)))
}

func TestRefineIsIdempotent(t *testing.T) {
	items := []Entry{{Title: "a", Stock: 1}, {Title: "b"}, {Title: "c", Stock: 2}}
	for _, availability := range []enums.Availability{enums.AvailabilityAll, enums.AvailabilityAvailable, enums.AvailabilitySold} {
		once := Refine(items, availability)
		twice := Refine(once, availability)
		require.Equal(t, once, twice)
	}
}

func TestRefineEmpty(t *testing.T) {
	out := Refine(nil, enums.AvailabilityAvailable)
	require.NotNil(t, out)
	require.Empty(t, out)
}
