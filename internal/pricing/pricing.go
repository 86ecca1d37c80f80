package pricing

import (
	"errors"
	"math"
	"time"

	"github.com/estefaniii/mautik-checkout/internal/domain"
)

const (
	// FreeShippingThreshold is the subtotal above which shipping is free.
	FreeShippingThreshold = 100.0
	FlatShippingFee       = 7.50
)

var (
	ErrCouponExpired = errors.New("coupon has expired")
	ErrCouponInvalid = errors.New("coupon is not valid")
)

type CouponKind string

const (
	CouponPercent CouponKind = "percent"
	CouponFixed   CouponKind = "fixed"
)

type Coupon struct {
	Code      string     `json:"code"`
	Kind      CouponKind `json:"kind"`
	Value     float64    `json:"value"`
	ExpiresAt time.Time  `json:"expires_at"`
}

func Subtotal(lines []domain.CartLine) float64 {
	var total float64
	for _, line := range lines {
		total += line.Subtotal()
	}
	return round2(total)
}

func ShippingFee(subtotal float64) float64 {
	if subtotal >= FreeShippingThreshold {
		return 0
	}
	return FlatShippingFee
}

// ApplyCoupon returns the discount a coupon takes off the subtotal. The
// discount never exceeds the subtotal.
func ApplyCoupon(subtotal float64, c Coupon, now time.Time) (float64, error) {
	if !c.ExpiresAt.IsZero() && now.After(c.ExpiresAt) {
		return 0, ErrCouponExpired
	}

	var discount float64
	switch c.Kind {
	case CouponPercent:
		if c.Value <= 0 || c.Value > 100 {
			return 0, ErrCouponInvalid
		}
		discount = subtotal * c.Value / 100
	case CouponFixed:
		if c.Value <= 0 {
			return 0, ErrCouponInvalid
		}
		discount = c.Value
	default:
		return 0, ErrCouponInvalid
	}

	if discount > subtotal {
		discount = subtotal
	}
	return round2(discount), nil
}

func Total(subtotal, discount, shipping float64) float64 {
	return round2(subtotal - discount + shipping)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
