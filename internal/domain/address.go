package domain

// Address is a saved shipping address. At most one address per user carries
// IsDefault=true; the backend enforces this on writes.
type Address struct {
	ID            string `json:"id"`
	Alias         string `json:"alias"`
	RecipientName string `json:"recipient_name"`
	Street        string `json:"street"`
	City          string `json:"city"`
	State         string `json:"state"`
	ZipCode       string `json:"zip_code"`
	Country       string `json:"country"`
	Phone         string `json:"phone"`
	IsDefault     bool   `json:"is_default"`
}

// PaymentMethod is a saved card. Only brand/last4/expiry are ever held here,
// never a full PAN.
type PaymentMethod struct {
	ID        string `json:"id"`
	Brand     string `json:"brand"`
	Last4     string `json:"last4"`
	ExpMonth  int    `json:"exp_month"`
	ExpYear   int    `json:"exp_year"`
	IsDefault bool   `json:"is_default"`
}
