package catalog

import "github.com/muraqqa/storefront/pkg/enums"

// Refine narrows fetched items by availability. It never reorders and
// applying it twice gives the same result.
func Refine(items []Entry, availability enums.Availability) []Entry {
	out := make([]Entry, 0, len(items))
	for _, item := range items {
		switch availability {
		case enums.AvailabilityAvailable:
			if !item.Available() {
				continue
			}
		case enums.AvailabilitySold:
			if item.Available() {
				continue
			}
		}
		out = append(out, item)
	}
	return out
}
