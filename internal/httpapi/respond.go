package httpapi

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/estefaniii/mautik-checkout/internal/backend"
	"github.com/estefaniii/mautik-checkout/internal/checkout"
	"github.com/estefaniii/mautik-checkout/internal/payment"
	"github.com/estefaniii/mautik-checkout/internal/pricing"
	"github.com/estefaniii/mautik-checkout/internal/stock"
)

type ErrorResponse struct {
	Error      string           `json:"error"`
	Code       string           `json:"code,omitempty"`
	Advisories []stock.Advisory `json:"advisories,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// respondCheckoutError maps the checkout error taxonomy onto HTTP. Guard
// failures and stock conflicts carry their own codes so the client can show
// a specific advisory, backend rejections pass the server's message through.
func respondCheckoutError(w http.ResponseWriter, err error) {
	var conflict *checkout.StockConflictError
	if errors.As(err, &conflict) {
		respondJSON(w, http.StatusConflict, ErrorResponse{
			Error:      conflict.Error(),
			Code:       "stock_conflict",
			Advisories: conflict.Advisories,
		})
		return
	}

	var provErr *payment.ProviderError
	if errors.As(err, &provErr) {
		respondError(w, http.StatusUnprocessableEntity, "payment_failed", provErr.Error())
		return
	}

	var apiErr *backend.APIError
	if errors.As(err, &apiErr) {
		respondError(w, apiErr.StatusCode, "backend_rejected", apiErr.Error())
		return
	}

	switch {
	case errors.Is(err, backend.ErrNotFound):
		respondError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, pricing.ErrCouponExpired):
		respondError(w, http.StatusBadRequest, "coupon_expired", err.Error())
	case errors.Is(err, pricing.ErrCouponInvalid):
		respondError(w, http.StatusBadRequest, "coupon_invalid", err.Error())
	case errors.Is(err, checkout.ErrNoSession):
		respondError(w, http.StatusUnauthorized, "no_session", err.Error())
	case errors.Is(err, checkout.ErrNoAddress):
		respondError(w, http.StatusBadRequest, "no_address", err.Error())
	case errors.Is(err, checkout.ErrNoPaymentMethod):
		respondError(w, http.StatusBadRequest, "no_payment_method", err.Error())
	case errors.Is(err, checkout.ErrEmptyCart):
		respondError(w, http.StatusBadRequest, "empty_cart", err.Error())
	case errors.Is(err, checkout.ErrAlreadySubmitted):
		respondError(w, http.StatusConflict, "already_submitted", err.Error())
	default:
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
