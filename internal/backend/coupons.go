package backend

import (
	"context"
	"net/http"
	"net/url"

	"github.com/estefaniii/mautik-checkout/internal/pricing"
)

// GetCoupon resolves a coupon code. An unknown code comes back as
// ErrNotFound.
func (c *Client) GetCoupon(ctx context.Context, code string) (*pricing.Coupon, error) {
	var coupon pricing.Coupon
	if err := c.do(ctx, http.MethodGet, "/coupons/"+url.PathEscape(code), nil, &coupon); err != nil {
		return nil, err
	}
	return &coupon, nil
}
