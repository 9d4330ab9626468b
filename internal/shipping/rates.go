package shipping

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/muraqqa/storefront/pkg/config"
	pkgerrors "github.com/muraqqa/storefront/pkg/errors"
)

// Rate is one shipping option offered for a destination.
type Rate struct {
	ID            string `json:"id"`
	Provider      string `json:"provider"`
	Service       string `json:"service"`
	Price         int64  `json:"price"`
	EstimatedDays int    `json:"estimatedDays"`
}

// QuoteRequest describes what is being shipped and where.
type QuoteRequest struct {
	Country string
	Items   int
}

// Quoter returns the shipping options for a destination.
type Quoter interface {
	Quote(ctx context.Context, req QuoteRequest) ([]Rate, error)
}

// TableQuoter serves flat rates from configuration, split by domestic and
// international destinations.
type TableQuoter struct {
	homeCountry   string
	domestic      []Rate
	international []Rate
}

// NewTableQuoter parses the configured rate tables.
func NewTableQuoter(cfg config.ShippingConfig, homeCountry string) (*TableQuoter, error) {
	homeCountry = strings.TrimSpace(homeCountry)
	if homeCountry == "" {
		return nil, fmt.Errorf("home country required")
	}
	domestic, err := ParseRates(cfg.DomesticRates)
	if err != nil {
		return nil, fmt.Errorf("domestic rates: %w", err)
	}
	international, err := ParseRates(cfg.InternationalRates)
	if err != nil {
		return nil, fmt.Errorf("international rates: %w", err)
	}
	return &TableQuoter{homeCountry: homeCountry, domestic: domestic, international: international}, nil
}

func (q *TableQuoter) Quote(ctx context.Context, req QuoteRequest) ([]Rate, error) {
	if err := ctx.Err(); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "shipping quote canceled")
	}
	country := strings.TrimSpace(req.Country)
	if country == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "country required for shipping quote")
	}
	if req.Items < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "nothing to ship")
	}

	table := q.international
	if strings.EqualFold(country, q.homeCountry) {
		table = q.domestic
	}
	rates := make([]Rate, len(table))
	copy(rates, table)
	return rates, nil
}

// ParseRates reads entries of the form "id:provider:service:price:days".
func ParseRates(entries []string) ([]Rate, error) {
	rates := make([]Rate, 0, len(entries))
	seen := map[string]struct{}{}
	for _, raw := range entries {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		parts := strings.Split(raw, ":")
		if len(parts) != 5 {
			return nil, fmt.Errorf("rate %q: expected id:provider:service:price:days", raw)
		}
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		if parts[0] == "" {
			return nil, fmt.Errorf("rate %q: id required", raw)
		}
		if _, dup := seen[parts[0]]; dup {
			return nil, fmt.Errorf("rate %q: duplicate id", raw)
		}
		price, err := strconv.ParseInt(parts[3], 10, 64)
		if err != nil || price < 0 {
			return nil, fmt.Errorf("rate %q: invalid price", raw)
		}
		days, err := strconv.Atoi(parts[4])
		if err != nil || days < 0 {
			return nil, fmt.Errorf("rate %q: invalid estimated days", raw)
		}
		seen[parts[0]] = struct{}{}
		rates = append(rates, Rate{
			ID:            parts[0],
			Provider:      parts[1],
			Service:       parts[2],
			Price:         price,
			EstimatedDays: days,
		})
	}
	return rates, nil
}

// Find returns the rate with the given id.
func Find(rates []Rate, id string) (Rate, bool) {
	for _, rate := range rates {
		if rate.ID == id {
			return rate, true
		}
	}
	return Rate{}, false
}
