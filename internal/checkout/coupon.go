package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/estefaniii/mautik-checkout/internal/cart"
	"github.com/estefaniii/mautik-checkout/internal/pricing"
)

// ApplyCoupon resolves the code against the backend, validates it against
// the current subtotal and keeps it for the order. Returns the discount the
// coupon is worth right now; it is recomputed at submit time.
func (s *Service) ApplyCoupon(ctx context.Context, code string) (float64, error) {
	coupon, err := s.backend.GetCoupon(ctx, code)
	if err != nil {
		return 0, err
	}

	subtotal, err := s.cartSubtotal(ctx)
	if err != nil {
		return 0, err
	}

	discount, err := pricing.ApplyCoupon(subtotal, *coupon, time.Now())
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	s.coupon = coupon
	s.mu.Unlock()
	return discount, nil
}

// RemoveCoupon drops the applied coupon, if any.
func (s *Service) RemoveCoupon() {
	s.mu.Lock()
	s.coupon = nil
	s.mu.Unlock()
}

func (s *Service) CouponCode() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.coupon == nil {
		return ""
	}
	return s.coupon.Code
}

func (s *Service) cartSubtotal(ctx context.Context) (float64, error) {
	lines, err := s.cart.Lines(ctx, s.session.UserID)
	if err != nil {
		if errors.Is(err, cart.ErrCartNotFound) {
			return 0, ErrEmptyCart
		}
		return 0, fmt.Errorf("failed to read cart: %w", err)
	}
	return pricing.Subtotal(lines), nil
}
