package checkout

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/estefaniii/mautik-checkout/internal/cart"
	"github.com/estefaniii/mautik-checkout/internal/domain"
	"github.com/estefaniii/mautik-checkout/internal/events"
	"github.com/estefaniii/mautik-checkout/internal/payment"
	"github.com/estefaniii/mautik-checkout/internal/pricing"
	"github.com/estefaniii/mautik-checkout/internal/repository"
)

type SubmitResult struct {
	OrderID string
}

// Submit is the generic/manual payment path: synchronous stock check, then
// the order POST. Any failure puts the page back into EDITING with the cart
// and draft untouched.
func (s *Service) Submit(ctx context.Context) (*SubmitResult, error) {
	if err := s.transition(domain.CheckoutStatusSubmitting); err != nil {
		return nil, err
	}
	if err := s.guards(); err != nil {
		s.revert()
		return nil, err
	}

	ok, advisories, err := s.reconciler.PresubmitCheck(ctx, s.session.UserID)
	if err != nil {
		s.revert()
		return nil, err
	}
	if !ok {
		s.revert()
		return nil, &StockConflictError{Advisories: advisories}
	}

	order, err := s.buildOrder(ctx, "")
	if err != nil {
		s.revert()
		return nil, err
	}
	return s.post(ctx, order)
}

// SubmitWithProvider is the card/redirect path: payment capture is delegated
// to the provider, and only its success result leads to the order POST. The
// guards run again after the capture since real time has passed.
func (s *Service) SubmitWithProvider(ctx context.Context, provider payment.Provider, req payment.Request) (*SubmitResult, error) {
	if err := s.transition(domain.CheckoutStatusSubmitting); err != nil {
		return nil, err
	}
	if err := s.guards(); err != nil {
		s.revert()
		return nil, err
	}

	ref, err := provider.Confirm(ctx, req)
	if err != nil {
		s.revert()
		return nil, err
	}

	if err := s.guards(); err != nil {
		log.Printf("payment %s captured by %s but checkout preconditions no longer hold", ref.ID, provider.Name())
		s.revert()
		return nil, err
	}

	order, err := s.buildOrder(ctx, ref.ID)
	if err != nil {
		s.revert()
		return nil, err
	}
	return s.post(ctx, order)
}

func (s *Service) buildOrder(ctx context.Context, paymentRef string) (*domain.Order, error) {
	lines, err := s.cart.Lines(ctx, s.session.UserID)
	if err != nil {
		if errors.Is(err, cart.ErrCartNotFound) {
			return nil, ErrEmptyCart
		}
		return nil, fmt.Errorf("failed to read cart: %w", err)
	}

	items := make([]domain.OrderItem, 0, len(lines))
	var orderLines []domain.CartLine
	for _, line := range lines {
		if line.Quantity <= 0 {
			continue
		}
		items = append(items, domain.OrderItem{ProductID: line.ProductID, Quantity: line.Quantity})
		orderLines = append(orderLines, line)
	}
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	addr, _ := s.addresses.Selected()
	pm, _ := s.payments.Selected()

	s.mu.Lock()
	form := s.form
	coupon := s.coupon
	s.mu.Unlock()

	subtotal := pricing.Subtotal(orderLines)
	var discount float64
	if coupon != nil {
		// Revalidated here: a coupon that expired since it was applied
		// blocks the submit instead of silently charging full price.
		d, errC := pricing.ApplyCoupon(subtotal, *coupon, time.Now())
		if errC != nil {
			return nil, errC
		}
		discount = d
	}
	total := pricing.Total(subtotal, discount, pricing.ShippingFee(subtotal))

	email := form.Email
	if email == "" {
		email = s.session.Email
	}

	return &domain.Order{
		Items:          items,
		Address:        addr,
		Name:           form.Name,
		Email:          email,
		Phone:          form.Phone,
		PaymentMethod:  pm.ID,
		PaymentRef:     paymentRef,
		IdempotencyKey: s.key(),
		Discount:       discount,
		TotalAmount:    total,
	}, nil
}

func (s *Service) post(ctx context.Context, order *domain.Order) (*SubmitResult, error) {
	if err := s.ensureSubmission(ctx, order.IdempotencyKey); err != nil {
		if errors.Is(err, ErrAlreadySubmitted) {
			// Duplicate capture callback: the order already exists, so the
			// page is truthfully submitted, not editing.
			if e2 := s.transition(domain.CheckoutStatusSubmitted); e2 != nil {
				log.Printf("failed to settle duplicate submission state: %v", e2)
			}
			return nil, err
		}
		s.revert()
		return nil, err
	}

	receipt, err := s.backend.SubmitOrder(ctx, order)
	if err != nil {
		// Cart and draft stay as they are; the server's message travels up.
		s.revert()
		return nil, err
	}

	if err := s.transition(domain.CheckoutStatusSubmitted); err != nil {
		log.Printf("unexpected state after successful order POST: %v", err)
	}
	if err := s.submissions.MarkSubmitted(ctx, order.IdempotencyKey, receipt.OrderID); err != nil {
		log.Printf("failed to mark submission %s: %v", order.IdempotencyKey, err)
	}
	if err := s.cart.Clear(ctx, s.session.UserID); err != nil && !errors.Is(err, cart.ErrCartNotFound) {
		log.Printf("failed to clear cart for user %s: %v", s.session.UserID, err)
	}
	s.clearDraft(ctx)

	if s.publisher != nil {
		event := events.OrderCompleted{
			OrderID:     receipt.OrderID,
			UserID:      s.session.UserID,
			Items:       order.Items,
			TotalAmount: order.TotalAmount,
			CompletedAt: time.Now(),
		}
		if err := s.publisher.PublishOrderCompleted(ctx, event); err != nil {
			log.Printf("failed to publish order event for %s: %v", receipt.OrderID, err)
		}
	}

	if s.onRedirect != nil {
		time.AfterFunc(s.redirectDelay, s.onRedirect)
	}

	return &SubmitResult{OrderID: receipt.OrderID}, nil
}

// ensureSubmission records the attempt, or recognizes it. An existing row
// that already reached SUBMITTED absorbs the duplicate; one stuck in
// SUBMITTING is a retry of a failed attempt and proceeds under its key.
func (s *Service) ensureSubmission(ctx context.Context, key string) error {
	sub, err := s.submissions.GetByIdempotencyKey(ctx, key)
	if err == nil {
		if sub.Status == domain.CheckoutStatusSubmitted {
			log.Printf("duplicate submission for idempotency_key %s absorbed, order %s", key, sub.OrderRef)
			return ErrAlreadySubmitted
		}
		return nil
	}
	if !errors.Is(err, repository.ErrSubmissionNotFound) {
		return fmt.Errorf("failed to check idempotency: %w", err)
	}

	return s.submissions.Create(ctx, &repository.Submission{
		UserID:         s.session.UserID,
		IdempotencyKey: key,
		Status:         domain.CheckoutStatusSubmitting,
	})
}

func (s *Service) revert() {
	if err := s.transition(domain.CheckoutStatusEditing); err != nil {
		log.Printf("failed to revert checkout to editing: %v", err)
	}
}
