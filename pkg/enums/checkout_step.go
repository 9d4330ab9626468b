package enums

import "fmt"

// CheckoutStep is the position of a checkout session in its wizard.
type CheckoutStep string

const (
	CheckoutStepCart     CheckoutStep = "cart"
	CheckoutStepShipping CheckoutStep = "shipping"
	CheckoutStepPayment  CheckoutStep = "payment"
	CheckoutStepSuccess  CheckoutStep = "success"
)

var validCheckoutSteps = []CheckoutStep{
	CheckoutStepCart,
	CheckoutStepShipping,
	CheckoutStepPayment,
	CheckoutStepSuccess,
}

// String implements fmt.Stringer.
func (v CheckoutStep) String() string {
	return string(v)
}

// IsValid reports whether the value is a known CheckoutStep.
func (v CheckoutStep) IsValid() bool {
	for _, candidate := range validCheckoutSteps {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseCheckoutStep converts raw input into a CheckoutStep.
func ParseCheckoutStep(value string) (CheckoutStep, error) {
	for _, candidate := range validCheckoutSteps {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid checkout step %q", value)
}

// IsTerminal reports whether no further transitions are allowed.
func (v CheckoutStep) IsTerminal() bool {
	return v == CheckoutStepSuccess
}
