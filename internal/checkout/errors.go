package checkout

import (
	"errors"

	"github.com/estefaniii/mautik-checkout/internal/stock"
)

var (
	// Precondition errors, one per missing piece so the UI can say exactly
	// what to fix. All checked before any network call.
	ErrNoSession       = errors.New("sign in to place your order")
	ErrNoAddress       = errors.New("select a shipping address before placing your order")
	ErrNoPaymentMethod = errors.New("select a payment method before placing your order")

	ErrAlreadySubmitted  = errors.New("this order has already been submitted")
	ErrEmptyCart         = errors.New("cart is empty, nothing to checkout")
	ErrIllegalTransition = errors.New("illegal transition of checkout status")
)

// StockConflictError blocks a submit whose quantities no longer fit current
// stock. The cart has already been clamped; the user confirms the adjusted
// cart and resubmits.
type StockConflictError struct {
	Advisories []stock.Advisory
}

func (e *StockConflictError) Error() string {
	return "your cart was adjusted to current stock, review it before resubmitting"
}
