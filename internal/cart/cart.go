package cart

import (
	"context"
	"errors"

	"github.com/estefaniii/mautik-checkout/internal/domain"
)

// Store holds per-user cart lines. The checkout reads lines, clamps
// quantities during stock reconciliation, and clears the cart after a
// successful order. Line creation itself belongs to the cart surface, not
// the checkout.
type Store interface {
	Lines(ctx context.Context, userID string) ([]domain.CartLine, error)
	UpsertLine(ctx context.Context, userID string, line domain.CartLine) error
	SetQuantity(ctx context.Context, userID, productID string, quantity int) error
	Clear(ctx context.Context, userID string) error
}

var (
	ErrCartNotFound = errors.New("cart not found")
	ErrLineNotFound = errors.New("line not found in cart")
)
