package shipping

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/muraqqa/storefront/pkg/config"
	pkgerrors "github.com/muraqqa/storefront/pkg/errors"
)

func testConfig() config.ShippingConfig {
	return config.ShippingConfig{
		DomesticRates:      []string{"tcs-standard:TCS:Standard:2000:3", " leopards-express : Leopards : Express : 3500 : 1 "},
		InternationalRates: []string{"dhl-intl:DHL:International:15000:7"},
	}
}

func TestQuoteDomesticVersusInternational(t *testing.T) {
	quoter, err := NewTableQuoter(testConfig(), "Pakistan")
	require.NoError(t, err)

	domestic, err := quoter.Quote(context.Background(), QuoteRequest{Country: "pakistan", Items: 1})
	require.NoError(t, err)
	require.Len(t, domestic, 2)
	require.Equal(t, Rate{ID: "leopards-express", Provider: "Leopards", Service: "Express", Price: 3500, EstimatedDays: 1}, domestic[1])

	international, err := quoter.Quote(context.Background(), QuoteRequest{Country: "USA", Items: 2})
	require.NoError(t, err)
	require.Len(t, international, 1)
	require.Equal(t, int64(15000), international[0].Price)
}

func TestQuoteValidation(t *testing.T) {
	quoter, err := NewTableQuoter(testConfig(), "Pakistan")
	require.NoError(t, err)

	_, err = quoter.Quote(context.Background(), QuoteRequest{Items: 1})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = quoter.Quote(context.Background(), QuoteRequest{Country: "USA"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = quoter.Quote(ctx, QuoteRequest{Country: "USA", Items: 1})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
}

func TestQuoteReturnsCopy(t *testing.T) {
	quoter, err := NewTableQuoter(testConfig(), "Pakistan")
	require.NoError(t, err)

	rates, err := quoter.Quote(context.Background(), QuoteRequest{Country: "USA", Items: 1})
	require.NoError(t, err)
	rates[0].Price = 1

	again, err := quoter.Quote(context.Background(), QuoteRequest{Country: "USA", Items: 1})
	require.NoError(t, err)
	require.Equal(t, int64(15000), again[0].Price)
}

func TestParseRatesRejectsMalformedEntries(t *testing.T) {
	cases := [][]string{
		{"only:three:parts"},
		{":TCS:Standard:2000:3"},
		{"a:TCS:Standard:abc:3"},
		{"a:TCS:Standard:-5:3"},
		{"a:TCS:Standard:100:soon"},
		{"a:TCS:Standard:100:3", "a:DHL:Express:200:1"},
	}
	for _, entries := range cases {
		_, err := ParseRates(entries)
		require.Error(t, err, "entries %v", entries)
	}

	rates, err := ParseRates([]string{"", "  "})
	require.NoError(t, err)
	require.Empty(t, rates)
}

func TestNewTableQuoterRequiresHomeCountry(t *testing.T) {
	_, err := NewTableQuoter(testConfig(), " ")
	require.Error(t, err)
}

func TestFind(t *testing.T) {
	rates, err := ParseRates(testConfig().DomesticRates)
	require.NoError(t, err)

	rate, ok := Find(rates, "tcs-standard")
	require.True(t, ok)
	require.Equal(t, int64(2000), rate.Price)

	_, ok = Find(rates, "missing")
	require.False(t, ok)
}
