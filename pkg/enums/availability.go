package enums

import "fmt"

// Availability narrows a catalog listing by stock state.
type Availability string

const (
	AvailabilityAll       Availability = "all"
	AvailabilityAvailable Availability = "available"
	AvailabilitySold      Availability = "sold"
)

var validAvailabilities = []Availability{
	AvailabilityAll,
	AvailabilityAvailable,
	AvailabilitySold,
}

// String implements fmt.Stringer.
func (v Availability) String() string {
	return string(v)
}

// IsValid reports whether the value is a known Availability.
func (v Availability) IsValid() bool {
	for _, candidate := range validAvailabilities {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseAvailability converts raw input into a Availability.
func ParseAvailability(value string) (Availability, error) {
	for _, candidate := range validAvailabilities {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid availability %q", value)
}
