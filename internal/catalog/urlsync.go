package catalog

import (
	"math"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/muraqqa/storefront/pkg/enums"
)

// Query parameter names. Shared links depend on them, so they never change.
const (
	ParamCategory     = "category"
	ParamSecondaryTag = "medium"
	ParamAvailability = "availability"
	ParamStock        = "stock"
	ParamSort         = "sort"
	ParamSearch       = "search"
	ParamPriceMin     = "priceMin"
	ParamPriceMax     = "priceMax"
	ParamYearMin      = "yearMin"
	ParamYearMax      = "yearMax"
	ParamPage         = "page"
)

var managedParams = []string{
	ParamCategory,
	ParamSecondaryTag,
	ParamAvailability,
	ParamStock,
	ParamSort,
	ParamSearch,
	ParamPriceMin,
	ParamPriceMax,
	ParamYearMin,
	ParamYearMax,
	ParamPage,
}

// Navigator is the address bar of a catalog view.
type Navigator interface {
	Query() url.Values
	// Replace swaps the current query without adding a history entry.
	Replace(url.Values)
}

// Encode serializes the non-default fields of criteria.
func Encode(criteria FilterCriteria, bounds Bounds) url.Values {
	criteria = criteria.Normalize(bounds)
	values := url.Values{}
	if criteria.Category != nil {
		values.Set(ParamCategory, *criteria.Category)
	}
	if criteria.SecondaryTag != nil {
		values.Set(ParamSecondaryTag, *criteria.SecondaryTag)
	}
	if criteria.Availability != enums.AvailabilityAll {
		values.Set(ParamAvailability, criteria.Availability.String())
	}
	if criteria.SortKey != enums.SortKeyNewest {
		values.Set(ParamSort, criteria.SortKey.String())
	}
	if criteria.SearchText != "" {
		values.Set(ParamSearch, criteria.SearchText)
	}
	setRange(values, ParamPriceMin, ParamPriceMax, criteria.PriceRange, bounds.Price)
	setRange(values, ParamYearMin, ParamYearMax, criteria.YearRange, bounds.Year)
	if criteria.Page > 1 {
		values.Set(ParamPage, strconv.Itoa(criteria.Page))
	}
	return values
}

func setRange(values url.Values, minKey, maxKey string, r *Range, full Range) {
	if r == nil {
		return
	}
	if r.Min != full.Min {
		values.Set(minKey, strconv.FormatInt(r.Min, 10))
	}
	if r.Max != full.Max {
		values.Set(maxKey, strconv.FormatInt(r.Max, 10))
	}
}

// Decode parses recognized parameters. Absent or malformed ones take defaults.
func Decode(values url.Values, bounds Bounds) FilterCriteria {
	criteria := DefaultCriteria(bounds)
	criteria.Category = Facet(values.Get(ParamCategory))
	criteria.SecondaryTag = Facet(values.Get(ParamSecondaryTag))

	availability := values.Get(ParamAvailability)
	if availability == "" {
		availability = values.Get(ParamStock)
	}
	criteria.Availability = parseAvailability(availability)

	if key, err := enums.ParseSortKey(strings.TrimSpace(values.Get(ParamSort))); err == nil {
		criteria.SortKey = key
	}
	criteria.SearchText = values.Get(ParamSearch)

	criteria.PriceRange = decodeRange(values, ParamPriceMin, ParamPriceMax, bounds.Price)
	criteria.YearRange = decodeRange(values, ParamYearMin, ParamYearMax, bounds.Year)
	if page, err := strconv.Atoi(strings.TrimSpace(values.Get(ParamPage))); err == nil {
		criteria.Page = page
	}
	return criteria.Normalize(bounds)
}

func parseAvailability(raw string) enums.Availability {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "available", "in_stock", "in-stock", "instock":
		return enums.AvailabilityAvailable
	case "sold", "out_of_stock", "out-of-stock", "sold_out":
		return enums.AvailabilitySold
	default:
		return enums.AvailabilityAll
	}
}

// decodeRange reads one range. Without either parameter the range covers the
// full bounds.
func decodeRange(values url.Values, minKey, maxKey string, full Range) *Range {
	rawMin := strings.TrimSpace(values.Get(minKey))
	rawMax := strings.TrimSpace(values.Get(maxKey))
	if rawMin == "" && rawMax == "" {
		return full.bounded()
	}
	return &Range{
		Min: parseBound(rawMin, full.Min),
		Max: parseBound(rawMax, full.Max),
	}
}

// parseBound accepts integers and finite decimals, truncated toward zero.
// Anything else, including values outside int64, yields fallback.
func parseBound(raw string, fallback int64) int64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback
	}
	if value, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return value
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return fallback
	}
	f = math.Trunc(f)
	// MaxInt64 rounds up to 2^63 as a float64, which is already out of range.
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return fallback
	}
	return int64(f)
}

// Synchronizer keeps a Store and a Navigator in step. Restore must succeed
// before Persist writes anything, so a deep link is never clobbered by defaults.
type Synchronizer struct {
	store *Store
	nav   Navigator

	mu          sync.Mutex
	initialized bool
	unsubscribe func()
}

// NewSynchronizer wires store changes to the navigator.
func NewSynchronizer(store *Store, nav Navigator) *Synchronizer {
	s := &Synchronizer{store: store, nav: nav}
	s.unsubscribe = store.Subscribe(func(c FilterCriteria) {
		s.Persist(c)
	})
	return s
}

// Restore loads criteria from the navigator once bounds are known. With empty
// bounds it defers and returns false; call again once the catalog has loaded.
func (s *Synchronizer) Restore(bounds Bounds) bool {
	if bounds.IsEmpty() {
		return false
	}
	s.store.SetBounds(bounds)
	s.store.Replace(Decode(s.nav.Query(), bounds))

	s.mu.Lock()
	s.initialized = true
	s.mu.Unlock()
	return true
}

// Initialized reports whether a restore has completed.
func (s *Synchronizer) Initialized() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.initialized
}

// Persist writes criteria to the navigator with replace semantics. It is a
// no-op before the first restore and when the address already matches.
// Parameters the catalog does not own are preserved.
func (s *Synchronizer) Persist(criteria FilterCriteria) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		return false
	}

	current := s.nav.Query()
	next := url.Values{}
	for key, vals := range current {
		next[key] = append([]string(nil), vals...)
	}
	for _, key := range managedParams {
		next.Del(key)
	}
	for key, vals := range Encode(criteria, s.store.Bounds()) {
		next[key] = vals
	}
	if next.Encode() == current.Encode() {
		return false
	}
	s.nav.Replace(next)
	return true
}

// Close detaches the synchronizer from the store.
func (s *Synchronizer) Close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
}
