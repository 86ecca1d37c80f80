package domain

// CartLine is a single cart position as the checkout sees it.
// Quantity may be clamped down by stock reconciliation; KnownStock is the
// last authoritative stock value observed for the product.
type CartLine struct {
	ProductID  string  `json:"product_id"`
	Name       string  `json:"name"`
	UnitPrice  float64 `json:"unit_price"`
	Quantity   int     `json:"quantity"`
	KnownStock int     `json:"known_stock"`
}

func (l CartLine) Subtotal() float64 {
	return l.UnitPrice * float64(l.Quantity)
}
