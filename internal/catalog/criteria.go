package catalog

import (
	"strings"

	"github.com/muraqqa/storefront/pkg/enums"
)

// AllFacet is the legacy "no constraint" marker still accepted on input.
const AllFacet = "All"

// Range is an inclusive numeric interval. As catalog bounds, the zero value
// means the extent is not known yet.
type Range struct {
	Min int64 `json:"min"`
	Max int64 `json:"max"`
}

// IsZero reports whether the range carries no constraint.
func (r Range) IsZero() bool {
	return r.Min == 0 && r.Max == 0
}

// normalize swaps inverted ends so Min <= Max.
func (r Range) normalize() Range {
	if r.Min > r.Max {
		r.Min, r.Max = r.Max, r.Min
	}
	return r
}

// bounded returns r as a filter constraint, or nil when r has no extent.
func (r Range) bounded() *Range {
	if r.IsZero() {
		return nil
	}
	r = r.normalize()
	return &r
}

// clampTo normalizes r and pulls both ends inside bounds.
func (r Range) clampTo(bounds Range) Range {
	r = r.normalize()
	if bounds.IsZero() {
		return r
	}
	bounds = bounds.normalize()
	r.Min = clamp(r.Min, bounds.Min, bounds.Max)
	r.Max = clamp(r.Max, bounds.Min, bounds.Max)
	return r
}

func clamp(v, lo, hi int64) int64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Bounds are the catalog-wide price and year extents.
type Bounds struct {
	Price Range `json:"price"`
	Year  Range `json:"year"`
}

// IsEmpty reports whether no bounds are known yet, which is the case for an empty catalog.
func (b Bounds) IsEmpty() bool {
	return b.Price.IsZero() && b.Year.IsZero()
}

// FilterCriteria is the filter, sort and pagination state of one catalog view.
// Nil facets and nil ranges carry no constraint; a set range is kept even when
// both ends are zero.
type FilterCriteria struct {
	Category     *string            `json:"category,omitempty"`
	SecondaryTag *string            `json:"secondaryTag,omitempty"`
	Availability enums.Availability `json:"availability"`
	SortKey      enums.SortKey      `json:"sort"`
	SearchText   string             `json:"search,omitempty"`
	PriceRange   *Range             `json:"priceRange,omitempty"`
	YearRange    *Range             `json:"yearRange,omitempty"`
	Page         int                `json:"page"`
}

// DefaultCriteria returns the criteria of a freshly mounted view.
func DefaultCriteria(bounds Bounds) FilterCriteria {
	return FilterCriteria{
		Availability: enums.AvailabilityAll,
		SortKey:      enums.SortKeyNewest,
		PriceRange:   bounds.Price.bounded(),
		YearRange:    bounds.Year.bounded(),
		Page:         1,
	}
}

// Normalize applies every invariant of the criteria against bounds.
func (c FilterCriteria) Normalize(bounds Bounds) FilterCriteria {
	c.Category = facetValue(c.Category)
	c.SecondaryTag = facetValue(c.SecondaryTag)
	if !c.Availability.IsValid() {
		c.Availability = enums.AvailabilityAll
	}
	if !c.SortKey.IsValid() {
		c.SortKey = enums.SortKeyNewest
	}
	c.SearchText = strings.TrimSpace(c.SearchText)
	c.PriceRange = constrain(c.PriceRange, bounds.Price)
	c.YearRange = constrain(c.YearRange, bounds.Year)
	if c.Page < 1 {
		c.Page = 1
	}
	return c
}

// Equal compares criteria by value, following facet pointers.
func (c FilterCriteria) Equal(other FilterCriteria) bool {
	return sameFacet(c.Category, other.Category) &&
		sameFacet(c.SecondaryTag, other.SecondaryTag) &&
		c.Availability == other.Availability &&
		c.SortKey == other.SortKey &&
		c.SearchText == other.SearchText &&
		sameRange(c.PriceRange, other.PriceRange) &&
		sameRange(c.YearRange, other.YearRange) &&
		c.Page == other.Page
}

// Facet builds an optional facet value; empty input and the legacy "All" marker yield nil.
func Facet(value string) *string {
	return facetValue(&value)
}

func facetValue(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" || strings.EqualFold(trimmed, AllFacet) {
		return nil
	}
	return &trimmed
}

// constrain clamps r into bounds, widening a nil range to the full bounds.
// The result never aliases r.
func constrain(r *Range, bounds Range) *Range {
	if r == nil {
		return bounds.bounded()
	}
	clamped := r.clampTo(bounds)
	return &clamped
}

func sameRange(a, b *Range) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func sameFacet(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
