package domain

type CheckoutStatus string

const (
	CheckoutStatusEditing    CheckoutStatus = "EDITING"
	CheckoutStatusSubmitting CheckoutStatus = "SUBMITTING"
	CheckoutStatusSubmitted  CheckoutStatus = "SUBMITTED"
)

// CanTransitionTo reports whether moving from s to target is a legal step.
// Editing and submitting cycle on failure; submitted is terminal.
func CanTransitionTo(s, target CheckoutStatus) bool {
	switch s {
	case CheckoutStatusEditing:
		return target == CheckoutStatusSubmitting
	case CheckoutStatusSubmitting:
		return target == CheckoutStatusSubmitted || target == CheckoutStatusEditing
	default:
		return false
	}
}

func (s CheckoutStatus) IsTerminal() bool {
	return s == CheckoutStatusSubmitted
}

// String representation (for logging)
func (s CheckoutStatus) String() string {
	return string(s)
}
