package domain

// ContactForm holds the free-text checkout form fields.
type ContactForm struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zip_code"`
	Country string `json:"country"`
}

// CheckoutDraft is the in-progress checkout state persisted between visits.
// Written on every change, deleted once an order is accepted.
type CheckoutDraft struct {
	Form              ContactForm `json:"form"`
	SelectedAddressID string      `json:"selected_address_id,omitempty"`
	SelectedPaymentID string      `json:"selected_payment_id,omitempty"`
}
