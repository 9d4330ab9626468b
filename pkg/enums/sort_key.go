package enums

import "fmt"

// SortKey orders a catalog listing.
type SortKey string

const (
	SortKeyNewest    SortKey = "newest"
	SortKeyOldest    SortKey = "oldest"
	SortKeyPriceAsc  SortKey = "price_asc"
	SortKeyPriceDesc SortKey = "price_desc"
)

var validSortKeys = []SortKey{
	SortKeyNewest,
	SortKeyOldest,
	SortKeyPriceAsc,
	SortKeyPriceDesc,
}

// String implements fmt.Stringer.
func (v SortKey) String() string {
	return string(v)
}

// IsValid reports whether the value is a known SortKey.
func (v SortKey) IsValid() bool {
	for _, candidate := range validSortKeys {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseSortKey converts raw input into a SortKey.
func ParseSortKey(value string) (SortKey, error) {
	for _, candidate := range validSortKeys {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid sort key %q", value)
}
