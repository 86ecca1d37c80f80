package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// RedirectProvider captures wallet payments. The user has already approved
// the payment on the wallet's own pages; Confirm finalizes the session the
// wallet handed back to us.
type RedirectProvider struct {
	baseURL string
	http    *http.Client
	timeout time.Duration
}

func NewRedirectProvider(baseURL string, timeout time.Duration) *RedirectProvider {
	return &RedirectProvider{
		baseURL: baseURL,
		http:    &http.Client{},
		timeout: timeout,
	}
}

func (p *RedirectProvider) Name() string { return "redirect" }

type confirmResponse struct {
	TransactionID string `json:"transaction_id"`
	PayerEmail    string `json:"payer_email"`
	Status        string `json:"status"`
	Reason        string `json:"reason"`
}

func (p *RedirectProvider) Confirm(ctx context.Context, req Request) (*TransactionRef, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	endpoint := fmt.Sprintf("%s/sessions/%s/capture", p.baseURL, url.PathEscape(req.SessionID))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build capture request: %w", err)
	}

	resp, err := p.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("capture request failed: %w", err)
	}
	defer resp.Body.Close()

	var result confirmResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode capture response: %w", err)
	}

	if result.Status != "completed" {
		return nil, &ProviderError{Code: result.Status, Message: result.Reason}
	}

	return &TransactionRef{ID: result.TransactionID, PayerEmail: result.PayerEmail}, nil
}
