package domain

type OrderItem struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// Order is the finalized record posted to the backend. Write-only from the
// checkout's perspective: built once at submit time, never mutated after.
type Order struct {
	Items          []OrderItem `json:"items"`
	Address        Address     `json:"address"`
	Name           string      `json:"name"`
	Email          string      `json:"email"`
	Phone          string      `json:"phone"`
	PaymentMethod  string      `json:"payment_method"`
	PaymentRef     string      `json:"payment_ref,omitempty"`
	IdempotencyKey string      `json:"idempotency_key"`
	Discount       float64     `json:"discount,omitempty"`
	TotalAmount    float64     `json:"total_amount"`
}
