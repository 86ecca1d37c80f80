package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// CardProvider captures card payments against an external processor's
// charge endpoint.
type CardProvider struct {
	captureURL string
	http       *http.Client
	timeout    time.Duration
}

func NewCardProvider(captureURL string, timeout time.Duration) *CardProvider {
	return &CardProvider{
		captureURL: captureURL,
		http:       &http.Client{},
		timeout:    timeout,
	}
}

func (p *CardProvider) Name() string { return "card" }

type chargeRequest struct {
	Amount    float64 `json:"amount"`
	Currency  string  `json:"currency"`
	CardToken string  `json:"card_token"`
}

type chargeResponse struct {
	TransactionID string `json:"transaction_id"`
	Status        string `json:"status"`
	DeclineCode   string `json:"decline_code"`
	Message       string `json:"message"`
}

func (p *CardProvider) Confirm(ctx context.Context, req Request) (*TransactionRef, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	payload, err := json.Marshal(chargeRequest{
		Amount:    req.Amount,
		Currency:  req.Currency,
		CardToken: req.CardToken,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal charge request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.captureURL+"/charges", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build charge request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("charge request failed: %w", err)
	}
	defer resp.Body.Close()

	var result chargeResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode charge response: %w", err)
	}

	if result.Status != "succeeded" {
		return nil, &ProviderError{Code: result.DeclineCode, Message: result.Message}
	}

	return &TransactionRef{ID: result.TransactionID, PayerEmail: req.Email}, nil
}
