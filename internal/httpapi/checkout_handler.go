package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/estefaniii/mautik-checkout/internal/checkout"
	"github.com/estefaniii/mautik-checkout/internal/domain"
	"github.com/estefaniii/mautik-checkout/internal/payment"
	"github.com/estefaniii/mautik-checkout/internal/stock"
)

// ServiceFactory builds a checkout service for a resolved session.
type ServiceFactory func(session checkout.Session) *checkout.Service

// PollerFactory builds the periodic stock check for one user's session.
type PollerFactory func(userID string) *stock.Poller

// CheckoutHandler exposes the checkout session over HTTP. One
// checkout.Service lives per user; it is created lazily on the first
// request and primed with lists and draft restore.
type CheckoutHandler struct {
	factory   ServiceFactory
	providers map[string]payment.Provider
	timeout   time.Duration

	mu            sync.Mutex
	sessions      map[string]*checkout.Service
	pollerFactory PollerFactory
	pollers       map[string]*stock.Poller
}

func NewCheckoutHandler(factory ServiceFactory, providers map[string]payment.Provider, timeout time.Duration) *CheckoutHandler {
	return &CheckoutHandler{
		factory:   factory,
		providers: providers,
		timeout:   timeout,
		sessions:  make(map[string]*checkout.Service),
		pollers:   make(map[string]*stock.Poller),
	}
}

// EnableStockPolling makes every new session spawn a periodic stock check.
// Close stops them all.
func (h *CheckoutHandler) EnableStockPolling(factory PollerFactory) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.pollerFactory = factory
}

func (h *CheckoutHandler) Close() {
	h.mu.Lock()
	pollers := h.pollers
	h.pollers = make(map[string]*stock.Poller)
	h.mu.Unlock()

	for _, p := range pollers {
		p.Stop()
	}
}

func (h *CheckoutHandler) serviceFor(ctx context.Context, userID string) (*checkout.Service, error) {
	h.mu.Lock()
	svc, ok := h.sessions[userID]
	if !ok {
		svc = h.factory(checkout.Session{UserID: userID})
		h.sessions[userID] = svc
		if h.pollerFactory != nil {
			p := h.pollerFactory(userID)
			h.pollers[userID] = p
			p.Start()
		}
	}
	h.mu.Unlock()

	if !ok {
		if _, err := svc.LoadAddresses(ctx); err != nil {
			return nil, err
		}
		if _, err := svc.LoadPaymentMethods(ctx); err != nil {
			return nil, err
		}
		svc.Restore(ctx)
	}
	return svc, nil
}

type checkoutStateDTO struct {
	Status            string                 `json:"status"`
	Form              domain.ContactForm     `json:"form"`
	Addresses         []domain.Address       `json:"addresses"`
	PaymentMethods    []domain.PaymentMethod `json:"payment_methods"`
	SelectedAddressID string                 `json:"selected_address_id,omitempty"`
	SelectedPaymentID string                 `json:"selected_payment_id,omitempty"`
	CouponCode        string                 `json:"coupon_code,omitempty"`
}

func (h *CheckoutHandler) GetState(w http.ResponseWriter, r *http.Request) {
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

	state := checkoutStateDTO{
		Status:         svc.Status().String(),
		Form:           svc.Form(),
		Addresses:      svc.Addresses(),
		PaymentMethods: svc.PaymentMethods(),
		CouponCode:     svc.CouponCode(),
	}
	if addr, ok := svc.SelectedAddress(); ok {
		state.SelectedAddressID = addr.ID
	}
	if pm, ok := svc.SelectedPaymentMethod(); ok {
		state.SelectedPaymentID = pm.ID
	}
	respondJSON(w, http.StatusOK, state)
}

func (h *CheckoutHandler) UpdateForm(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	var form domain.ContactForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	svc, err := h.serviceFor(ctx, userID)
	if err != nil {
		respondCheckoutError(w, err)
		return
	}

	svc.UpdateForm(ctx, form)
	respondJSON(w, http.StatusOK, svc.Form())
}

func (h *CheckoutHandler) SelectAddress(w http.ResponseWriter, r *http.Request) {
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

	id := chi.URLParam(r, "address_id")
	if !svc.SelectAddress(ctx, id) {
		respondError(w, http.StatusNotFound, "not_found", "address is not in the current list")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"selected_address_id": id})
}

func (h *CheckoutHandler) SelectPaymentMethod(w http.ResponseWriter, r *http.Request) {
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

	id := chi.URLParam(r, "payment_id")
	if !svc.SelectPaymentMethod(ctx, id) {
		respondError(w, http.StatusNotFound, "not_found", "payment method is not in the current list")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"selected_payment_id": id})
}

func (h *CheckoutHandler) Submit(w http.ResponseWriter, r *http.Request) {
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

	result, err := svc.Submit(ctx)
	if err != nil {
		respondCheckoutError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, result)
}

type couponDTO struct {
	Code string `json:"code"`
}

func (h *CheckoutHandler) ApplyCoupon(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	var dto couponDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil || dto.Code == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "coupon code is required")
		return
	}

	svc, err := h.serviceFor(ctx, userID)
	if err != nil {
		respondCheckoutError(w, err)
		return
	}

	discount, err := svc.ApplyCoupon(ctx, dto.Code)
	if err != nil {
		respondCheckoutError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"coupon_code": dto.Code,
		"discount":    discount,
	})
}

func (h *CheckoutHandler) RemoveCoupon(w http.ResponseWriter, r *http.Request) {
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

	svc.RemoveCoupon()
	w.WriteHeader(http.StatusNoContent)
}

type providerSubmitDTO struct {
	Provider  string  `json:"provider"`
	Amount    float64 `json:"amount"`
	Currency  string  `json:"currency"`
	CardToken string  `json:"card_token"`
	SessionID string  `json:"session_id"`
}

func (h *CheckoutHandler) SubmitWithProvider(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	var req providerSubmitDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	provider, ok := h.providers[req.Provider]
	if !ok {
		respondError(w, http.StatusBadRequest, "unknown_provider", "unknown payment provider")
		return
	}

	svc, err := h.serviceFor(ctx, userID)
	if err != nil {
		respondCheckoutError(w, err)
		return
	}

	result, err := svc.SubmitWithProvider(ctx, provider, payment.Request{
		Amount:    req.Amount,
		Currency:  req.Currency,
		CardToken: req.CardToken,
		SessionID: req.SessionID,
	})
	if err != nil {
		respondCheckoutError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, result)
}
