package enums

import "fmt"

// CheckoutStep is a position in the linear checkout flow.
type CheckoutStep string

const (
	CheckoutStepShipping CheckoutStep = "shipping"
	CheckoutStepPayment  CheckoutStep = "payment"
	CheckoutStepReview   CheckoutStep = "review"
	CheckoutStepPlaced   CheckoutStep = "placed"
)

var validCheckoutSteps = []CheckoutStep{
	CheckoutStepShipping,
	CheckoutStepPayment,
	CheckoutStepReview,
	CheckoutStepPlaced,
}

// String implements fmt.Stringer.
func (c CheckoutStep) String() string {
	return string(c)
}

// IsValid reports whether the value is a known CheckoutStep.
func (c CheckoutStep) IsValid() bool {
	return c.index() >= 0
}

// Reached reports whether the flow has progressed to at least target.
func (c CheckoutStep) Reached(target CheckoutStep) bool {
	return c.index() >= target.index() && target.index() >= 0
}

func (c CheckoutStep) index() int {
	for i, candidate := range validCheckoutSteps {
		if candidate == c {
			return i
		}
	}
	return -1
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
