package backend

import (
	"context"
	"net/http"
	"net/url"

	"github.com/estefaniii/mautik-checkout/internal/domain"
)

func (c *Client) ListAddresses(ctx context.Context) ([]domain.Address, error) {
	var list []domain.Address
	if err := c.do(ctx, http.MethodGet, "/addresses", nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (c *Client) CreateAddress(ctx context.Context, addr domain.Address) (*domain.Address, error) {
	var created domain.Address
	if err := c.do(ctx, http.MethodPost, "/addresses", addr, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *Client) UpdateAddress(ctx context.Context, addr domain.Address) (*domain.Address, error) {
	var updated domain.Address
	if err := c.do(ctx, http.MethodPut, "/addresses/"+url.PathEscape(addr.ID), addr, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (c *Client) DeleteAddress(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/addresses/"+url.PathEscape(id), nil, nil)
}
