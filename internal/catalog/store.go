package catalog

import (
	"strings"
	"sync"

	"github.com/muraqqa/storefront/pkg/enums"
)

// Store owns the FilterCriteria of one catalog view. It performs no I/O.
// Subscribers run synchronously after each effective change, in mutation order,
// and must not mutate the store from inside the callback.
type Store struct {
	mu          sync.Mutex
	criteria    FilterCriteria
	bounds      Bounds
	subscribers []subscriber
	nextID      int
}

type subscriber struct {
	id int
	fn func(FilterCriteria)
}

// NewStore creates a store holding the default criteria for bounds.
func NewStore(bounds Bounds) *Store {
	return &Store{
		criteria: DefaultCriteria(bounds),
		bounds:   bounds,
	}
}

// Criteria returns a snapshot of the current criteria.
func (s *Store) Criteria() FilterCriteria {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.criteria
}

// Bounds returns the catalog bounds the criteria are clamped to.
func (s *Store) Bounds() Bounds {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bounds
}

// Subscribe registers fn and returns a function that removes it.
func (s *Store) Subscribe(fn func(FilterCriteria)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := s.nextID
	s.subscribers = append(s.subscribers, subscriber{id: id, fn: fn})
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, sub := range s.subscribers {
			if sub.id == id {
				s.subscribers = append(s.subscribers[:i:i], s.subscribers[i+1:]...)
				return
			}
		}
	}
}

// SetBounds installs new catalog bounds. Ranges that covered the old bounds
// in full widen to the new ones; the rest are clamped.
func (s *Store) SetBounds(bounds Bounds) {
	s.update(func(c *FilterCriteria) bool {
		old := s.bounds
		s.bounds = bounds
		prev := *c
		if sameRange(c.PriceRange, old.Price.bounded()) {
			c.PriceRange = nil
		}
		if sameRange(c.YearRange, old.Year.bounded()) {
			c.YearRange = nil
		}
		next := c.Normalize(bounds)
		next.Page = c.Page
		*c = next
		return !next.Equal(prev)
	})
}

// Replace swaps the whole criteria, normalized against the current bounds.
// The page is kept as given.
func (s *Store) Replace(criteria FilterCriteria) {
	s.update(func(c *FilterCriteria) bool {
		next := criteria.Normalize(s.bounds)
		if next.Equal(*c) {
			return false
		}
		*c = next
		return true
	})
}

// Reset restores the default criteria.
func (s *Store) Reset() {
	s.update(func(c *FilterCriteria) bool {
		next := DefaultCriteria(s.bounds)
		if next.Equal(*c) {
			return false
		}
		*c = next
		return true
	})
}

func (s *Store) SetCategory(category *string) {
	value := facetValue(category)
	s.mutate(func(c *FilterCriteria) bool {
		if sameFacet(c.Category, value) {
			return false
		}
		c.Category = value
		return true
	})
}

func (s *Store) SetSecondaryTag(tag *string) {
	value := facetValue(tag)
	s.mutate(func(c *FilterCriteria) bool {
		if sameFacet(c.SecondaryTag, value) {
			return false
		}
		c.SecondaryTag = value
		return true
	})
}

func (s *Store) SetAvailability(availability enums.Availability) {
	if !availability.IsValid() {
		availability = enums.AvailabilityAll
	}
	s.mutate(func(c *FilterCriteria) bool {
		if c.Availability == availability {
			return false
		}
		c.Availability = availability
		return true
	})
}

func (s *Store) SetSortKey(key enums.SortKey) {
	if !key.IsValid() {
		key = enums.SortKeyNewest
	}
	s.mutate(func(c *FilterCriteria) bool {
		if c.SortKey == key {
			return false
		}
		c.SortKey = key
		return true
	})
}

func (s *Store) SetSearchText(text string) {
	text = strings.TrimSpace(text)
	s.mutate(func(c *FilterCriteria) bool {
		if c.SearchText == text {
			return false
		}
		c.SearchText = text
		return true
	})
}

// SetPriceRange clamps silently to the catalog bounds.
func (s *Store) SetPriceRange(min, max int64) {
	s.mutate(func(c *FilterCriteria) bool {
		next := Range{Min: min, Max: max}.clampTo(s.bounds.Price)
		if sameRange(c.PriceRange, &next) {
			return false
		}
		c.PriceRange = &next
		return true
	})
}

// SetYearRange clamps silently to the catalog bounds.
func (s *Store) SetYearRange(min, max int64) {
	s.mutate(func(c *FilterCriteria) bool {
		next := Range{Min: min, Max: max}.clampTo(s.bounds.Year)
		if sameRange(c.YearRange, &next) {
			return false
		}
		c.YearRange = &next
		return true
	})
}

// SetPage is the only setter that leaves the other fields untouched.
func (s *Store) SetPage(page int) {
	if page < 1 {
		page = 1
	}
	s.update(func(c *FilterCriteria) bool {
		if c.Page == page {
			return false
		}
		c.Page = page
		return true
	})
}

// mutate applies a non-page change and resets the page when it took effect.
func (s *Store) mutate(apply func(*FilterCriteria) bool) {
	s.update(func(c *FilterCriteria) bool {
		if !apply(c) {
			return false
		}
		c.Page = 1
		return true
	})
}

func (s *Store) update(apply func(*FilterCriteria) bool) {
	s.mu.Lock()
	if !apply(&s.criteria) {
		s.mu.Unlock()
		return
	}
	snapshot := s.criteria
	subs := make([]subscriber, len(s.subscribers))
	copy(subs, s.subscribers)
	s.mu.Unlock()

	for _, sub := range subs {
		sub.fn(snapshot)
	}
}
