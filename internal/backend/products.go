package backend

import (
	"context"
	"net/http"
	"net/url"
)

type Product struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
	Stock int     `json:"stock"`
}

// GetProduct fetches a single product. Stock on the returned product is the
// authoritative available quantity.
func (c *Client) GetProduct(ctx context.Context, productID string) (*Product, error) {
	var p Product
	if err := c.do(ctx, http.MethodGet, "/products/"+url.PathEscape(productID), nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}
