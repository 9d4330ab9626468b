package checkout

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/muraqqa/storefront/pkg/config"
)

var hundred = decimal.NewFromInt(100)

// Totals are the checkout amounts in whole currency units.
type Totals struct {
	Subtotal int64 `json:"subtotal"`
	Shipping int64 `json:"shipping"`
	Discount int64 `json:"discount"`
	Tax      int64 `json:"tax"`
	Total    int64 `json:"total"`
}

// PromoPolicy decides which codes earn a discount.
type PromoPolicy interface {
	// Percent returns the discount percentage for code, or false when the code is unknown.
	Percent(code string) (decimal.Decimal, bool)
}

// StaticPromoPolicy grants one flat percentage to a fixed set of codes.
type StaticPromoPolicy struct {
	codes   map[string]struct{}
	percent decimal.Decimal
}

// NewStaticPromoPolicy builds a policy; codes are matched case-insensitively.
func NewStaticPromoPolicy(codes []string, percent decimal.Decimal) *StaticPromoPolicy {
	set := make(map[string]struct{}, len(codes))
	for _, code := range codes {
		if normalized := normalizePromo(code); normalized != "" {
			set[normalized] = struct{}{}
		}
	}
	return &StaticPromoPolicy{codes: set, percent: percent}
}

func (p *StaticPromoPolicy) Percent(code string) (decimal.Decimal, bool) {
	if p == nil {
		return decimal.Zero, false
	}
	if _, ok := p.codes[normalizePromo(code)]; !ok {
		return decimal.Zero, false
	}
	return p.percent, true
}

// Rules are the commerce rules applied to every session.
type Rules struct {
	HomeCountry string
	TaxPercent  decimal.Decimal
	Promo       PromoPolicy
}

// NewRules reads the checkout section of the configuration.
func NewRules(cfg config.CheckoutConfig) (Rules, error) {
	tax, err := decimal.NewFromString(strings.TrimSpace(cfg.InternationalTaxPercent))
	if err != nil || tax.IsNegative() {
		return Rules{}, fmt.Errorf("invalid international tax percent %q", cfg.InternationalTaxPercent)
	}
	promo, err := decimal.NewFromString(strings.TrimSpace(cfg.PromoPercent))
	if err != nil || promo.IsNegative() || promo.GreaterThan(hundred) {
		return Rules{}, fmt.Errorf("invalid promo percent %q", cfg.PromoPercent)
	}
	return Rules{
		HomeCountry: strings.TrimSpace(cfg.HomeCountry),
		TaxPercent:  tax,
		Promo:       NewStaticPromoPolicy(cfg.PromoCodes, promo),
	}, nil
}

// Compute derives the totals for a cart subtotal, the selected shipping price,
// the destination country and an optional promo code.
func (r Rules) Compute(subtotal, shipping int64, country, promoCode string) Totals {
	totals := Totals{Subtotal: subtotal, Shipping: shipping}
	if r.Promo != nil && normalizePromo(promoCode) != "" {
		if pct, ok := r.Promo.Percent(promoCode); ok {
			totals.Discount = percentOf(subtotal, pct)
		}
	}
	if r.Taxable(country) {
		totals.Tax = percentOf(subtotal, r.TaxPercent)
	}
	totals.Total = totals.Subtotal + totals.Shipping - totals.Discount + totals.Tax
	return totals
}

// Taxable reports whether a destination pays the international tax. An empty
// country is not taxed until the shopper enters one.
func (r Rules) Taxable(country string) bool {
	country = strings.TrimSpace(country)
	return country != "" && !strings.EqualFold(country, r.HomeCountry)
}

// Recognizes reports whether the promo code earns a discount.
func (r Rules) Recognizes(code string) bool {
	if r.Promo == nil {
		return false
	}
	_, ok := r.Promo.Percent(code)
	return ok
}

// percentOf rounds half away from zero to whole units.
func percentOf(amount int64, pct decimal.Decimal) int64 {
	return decimal.NewFromInt(amount).Mul(pct).Div(hundred).Round(0).IntPart()
}

func normalizePromo(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
