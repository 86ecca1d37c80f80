package httpapi

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/estefaniii/mautik-checkout/internal/domain"
	"github.com/estefaniii/mautik-checkout/internal/payment"
)

func (h *CheckoutHandler) AddAddress(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	var addr domain.Address
	if err := json.NewDecoder(r.Body).Decode(&addr); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if addr.Street == "" || addr.City == "" || addr.Country == "" {
		respondError(w, http.StatusBadRequest, "invalid_address", "street, city and country are required")
		return
	}

	svc, err := h.serviceFor(ctx, userID)
	if err != nil {
		respondCheckoutError(w, err)
		return
	}

	created, err := svc.AddAddress(ctx, addr)
	if err != nil {
		respondCheckoutError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

func (h *CheckoutHandler) UpdateAddress(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	var addr domain.Address
	if err := json.NewDecoder(r.Body).Decode(&addr); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	addr.ID = chi.URLParam(r, "address_id")

	svc, err := h.serviceFor(ctx, userID)
	if err != nil {
		respondCheckoutError(w, err)
		return
	}

	updated, err := svc.UpdateAddress(ctx, addr)
	if err != nil {
		respondCheckoutError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

func (h *CheckoutHandler) DeleteAddress(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	svc, err := h.serviceFor(ctx, userID)
	if err != nil {
		respondCheckoutError(w, err)
		return
	}

	if err := svc.DeleteAddress(ctx, chi.URLParam(r, "address_id")); err != nil {
		respondCheckoutError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string][]domain.Address{"addresses": svc.Addresses()})
}

func (h *CheckoutHandler) AddPaymentMethod(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	var dto struct {
		PAN      string `json:"pan"`
		ExpMonth int    `json:"exp_month"`
		ExpYear  int    `json:"exp_year"`
	}
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if len(dto.PAN) < 12 {
		respondError(w, http.StatusBadRequest, "invalid_card", "card number is too short")
		return
	}

	// Only brand and last4 survive past this point.
	pm := domain.PaymentMethod{
		Brand:    payment.DetectBrand(dto.PAN),
		Last4:    dto.PAN[len(dto.PAN)-4:],
		ExpMonth: dto.ExpMonth,
		ExpYear:  dto.ExpYear,
	}

	svc, err := h.serviceFor(ctx, userID)
	if err != nil {
		respondCheckoutError(w, err)
		return
	}

	created, err := svc.AddPaymentMethod(ctx, pm)
	if err != nil {
		respondCheckoutError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

func (h *CheckoutHandler) UpdatePaymentMethod(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	var pm domain.PaymentMethod
	if err := json.NewDecoder(r.Body).Decode(&pm); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	pm.ID = chi.URLParam(r, "payment_id")

	svc, err := h.serviceFor(ctx, userID)
	if err != nil {
		respondCheckoutError(w, err)
		return
	}

	updated, err := svc.UpdatePaymentMethod(ctx, pm)
	if err != nil {
		respondCheckoutError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

func (h *CheckoutHandler) DeletePaymentMethod(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	svc, err := h.serviceFor(ctx, userID)
	if err != nil {
		respondCheckoutError(w, err)
		return
	}

	if err := svc.DeletePaymentMethod(ctx, chi.URLParam(r, "payment_id")); err != nil {
		respondCheckoutError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string][]domain.PaymentMethod{"payment_methods": svc.PaymentMethods()})
}
