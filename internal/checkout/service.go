package checkout

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/estefaniii/mautik-checkout/internal/backend"
	"github.com/estefaniii/mautik-checkout/internal/cart"
	"github.com/estefaniii/mautik-checkout/internal/domain"
	"github.com/estefaniii/mautik-checkout/internal/draft"
	"github.com/estefaniii/mautik-checkout/internal/events"
	"github.com/estefaniii/mautik-checkout/internal/pricing"
	"github.com/estefaniii/mautik-checkout/internal/repository"
	"github.com/estefaniii/mautik-checkout/internal/selection"
	"github.com/estefaniii/mautik-checkout/internal/stock"
)

// DefaultRedirectDelay leaves the success message on screen before the
// confirmation view takes over.
const DefaultRedirectDelay = 2 * time.Second

// Session is the resolved user identity, passed in explicitly.
type Session struct {
	UserID string
	Email  string
}

// Backend is the slice of the storefront REST surface the checkout needs.
// *backend.Client implements it.
type Backend interface {
	ListAddresses(ctx context.Context) ([]domain.Address, error)
	CreateAddress(ctx context.Context, addr domain.Address) (*domain.Address, error)
	UpdateAddress(ctx context.Context, addr domain.Address) (*domain.Address, error)
	DeleteAddress(ctx context.Context, id string) error
	ListPaymentMethods(ctx context.Context) ([]domain.PaymentMethod, error)
	CreatePaymentMethod(ctx context.Context, pm domain.PaymentMethod) (*domain.PaymentMethod, error)
	UpdatePaymentMethod(ctx context.Context, pm domain.PaymentMethod) (*domain.PaymentMethod, error)
	DeletePaymentMethod(ctx context.Context, id string) error
	GetCoupon(ctx context.Context, code string) (*pricing.Coupon, error)
	SubmitOrder(ctx context.Context, order *domain.Order) (*backend.OrderReceipt, error)
}

// Service is the checkout page's state machine. It owns the contact form,
// the two selectors, and the EDITING → SUBMITTING → SUBMITTED transitions;
// cart, drafts, and the backend are injected collaborators.
type Service struct {
	session     Session
	cart        cart.Store
	drafts      draft.Store
	backend     Backend
	reconciler  *stock.Reconciler
	submissions repository.SubmissionStore
	publisher   events.Publisher // optional
	addresses   *selection.Selector[domain.Address]
	payments    *selection.Selector[domain.PaymentMethod]

	redirectDelay time.Duration
	onRedirect    func()

	mu             sync.Mutex
	status         domain.CheckoutStatus
	form           domain.ContactForm
	coupon         *pricing.Coupon
	idempotencyKey string
}

type Config struct {
	Session     Session
	Cart        cart.Store
	Drafts      draft.Store
	Backend     Backend
	Reconciler  *stock.Reconciler
	Submissions repository.SubmissionStore
	Publisher   events.Publisher

	// RedirectDelay defaults to DefaultRedirectDelay; OnRedirect runs once
	// after it, when the order went through.
	RedirectDelay time.Duration
	OnRedirect    func()
}

func NewService(cfg Config) *Service {
	if cfg.RedirectDelay <= 0 {
		cfg.RedirectDelay = DefaultRedirectDelay
	}
	return &Service{
		session:     cfg.Session,
		cart:        cfg.Cart,
		drafts:      cfg.Drafts,
		backend:     cfg.Backend,
		reconciler:  cfg.Reconciler,
		submissions: cfg.Submissions,
		publisher:   cfg.Publisher,
		addresses: selection.NewSelector(
			func(a domain.Address) string { return a.ID },
			func(a domain.Address) bool { return a.IsDefault },
		),
		payments: selection.NewSelector(
			func(p domain.PaymentMethod) string { return p.ID },
			func(p domain.PaymentMethod) bool { return p.IsDefault },
		),
		redirectDelay: cfg.RedirectDelay,
		onRedirect:    cfg.OnRedirect,
		status:        domain.CheckoutStatusEditing,
	}
}

func (s *Service) Status() domain.CheckoutStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *Service) Form() domain.ContactForm {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.form
}

func (s *Service) transition(target domain.CheckoutStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !domain.CanTransitionTo(s.status, target) {
		if s.status.IsTerminal() {
			return ErrAlreadySubmitted
		}
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, s.status, target)
	}
	s.status = target
	return nil
}

// guards are the entry preconditions for both payment paths: a resolved
// session, a selected address, a selected payment method. Each failure has
// its own error so the advisory can name the missing piece.
func (s *Service) guards() error {
	if s.session.UserID == "" {
		return ErrNoSession
	}
	if _, ok := s.addresses.Selected(); !ok {
		return ErrNoAddress
	}
	if _, ok := s.payments.Selected(); !ok {
		return ErrNoPaymentMethod
	}
	return nil
}

// key returns the session's idempotency key, minting it on first use. One
// key per checkout session means a duplicate provider callback maps onto
// the same submission and cannot produce a second order.
func (s *Service) key() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.idempotencyKey == "" {
		s.idempotencyKey = uuid.NewString()
	}
	return s.idempotencyKey
}
