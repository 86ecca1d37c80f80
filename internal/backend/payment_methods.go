package backend

import (
	"context"
	"net/http"
	"net/url"

	"github.com/estefaniii/mautik-checkout/internal/domain"
)

func (c *Client) ListPaymentMethods(ctx context.Context) ([]domain.PaymentMethod, error) {
	var list []domain.PaymentMethod
	if err := c.do(ctx, http.MethodGet, "/payment-methods", nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (c *Client) CreatePaymentMethod(ctx context.Context, pm domain.PaymentMethod) (*domain.PaymentMethod, error) {
	var created domain.PaymentMethod
	if err := c.do(ctx, http.MethodPost, "/payment-methods", pm, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *Client) UpdatePaymentMethod(ctx context.Context, pm domain.PaymentMethod) (*domain.PaymentMethod, error) {
	var updated domain.PaymentMethod
	if err := c.do(ctx, http.MethodPut, "/payment-methods/"+url.PathEscape(pm.ID), pm, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (c *Client) DeletePaymentMethod(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/payment-methods/"+url.PathEscape(id), nil, nil)
}
