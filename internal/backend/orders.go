package backend

import (
	"context"
	"net/http"

	"github.com/estefaniii/mautik-checkout/internal/domain"
)

type OrderReceipt struct {
	OrderID string `json:"order_id"`
}

// SubmitOrder posts the finalized order. A non-2xx response comes back as
// *APIError so the caller can show the server's own message.
func (c *Client) SubmitOrder(ctx context.Context, order *domain.Order) (*OrderReceipt, error) {
	var receipt OrderReceipt
	if err := c.do(ctx, http.MethodPost, "/orders", order, &receipt); err != nil {
		return nil, err
	}
	return &receipt, nil
}
