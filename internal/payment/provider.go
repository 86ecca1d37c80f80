package payment

import "context"

// Request carries what a provider needs to capture a payment. CardToken is
// set on the card path, SessionID on the redirect path; providers ignore the
// field they don't use.
type Request struct {
	Amount    float64
	Currency  string
	CardToken string
	SessionID string
	Email     string
}

// TransactionRef is a provider's proof of capture, attached to the order
// POST.
type TransactionRef struct {
	ID         string
	PayerEmail string
}

// ProviderError is a capture failure with the provider's own text, surfaced
// to the user verbatim.
type ProviderError struct {
	Code    string
	Message string
}

func (e *ProviderError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "payment failed: " + e.Code
}

// Provider captures a payment and reports the outcome as a single awaited
// result. Capture either yields a transaction reference or an error; a
// *ProviderError means the provider rejected the payment, anything else is
// transport trouble.
type Provider interface {
	Name() string
	Confirm(ctx context.Context, req Request) (*TransactionRef, error)
}
