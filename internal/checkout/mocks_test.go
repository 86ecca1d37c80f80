package checkout

import (
	"context"
	"fmt"
	"sync"

	"github.com/estefaniii/mautik-checkout/internal/backend"
	"github.com/estefaniii/mautik-checkout/internal/domain"
	"github.com/estefaniii/mautik-checkout/internal/draft"
	"github.com/estefaniii/mautik-checkout/internal/events"
	"github.com/estefaniii/mautik-checkout/internal/payment"
	"github.com/estefaniii/mautik-checkout/internal/pricing"
	"github.com/estefaniii/mautik-checkout/internal/repository"
)

// MockBackend implements Backend for testing
type MockBackend struct {
	AddressList     []domain.Address
	PaymentList     []domain.PaymentMethod
	ListErr         error
	WriteErr        error
	SubmitErr       error
	Receipt         *backend.OrderReceipt
	SubmittedOrders []*domain.Order
	Coupons         map[string]*pricing.Coupon
	nextID          int
}

func (m *MockBackend) ListAddresses(_ context.Context) ([]domain.Address, error) {
	return m.AddressList, m.ListErr
}

func (m *MockBackend) CreateAddress(_ context.Context, addr domain.Address) (*domain.Address, error) {
	if m.WriteErr != nil {
		return nil, m.WriteErr
	}
	m.nextID++
	addr.ID = fmt.Sprintf("addr-%d", m.nextID)
	m.AddressList = append(m.AddressList, addr)
	return &addr, nil
}

func (m *MockBackend) UpdateAddress(_ context.Context, addr domain.Address) (*domain.Address, error) {
	return &addr, m.WriteErr
}

func (m *MockBackend) DeleteAddress(_ context.Context, _ string) error {
	return m.WriteErr
}

func (m *MockBackend) ListPaymentMethods(_ context.Context) ([]domain.PaymentMethod, error) {
	return m.PaymentList, m.ListErr
}

func (m *MockBackend) CreatePaymentMethod(_ context.Context, pm domain.PaymentMethod) (*domain.PaymentMethod, error) {
	if m.WriteErr != nil {
		return nil, m.WriteErr
	}
	m.nextID++
	pm.ID = fmt.Sprintf("pm-%d", m.nextID)
	m.PaymentList = append(m.PaymentList, pm)
	return &pm, nil
}

func (m *MockBackend) UpdatePaymentMethod(_ context.Context, pm domain.PaymentMethod) (*domain.PaymentMethod, error) {
	return &pm, m.WriteErr
}

func (m *MockBackend) DeletePaymentMethod(_ context.Context, _ string) error {
	return m.WriteErr
}

func (m *MockBackend) GetCoupon(_ context.Context, code string) (*pricing.Coupon, error) {
	c, ok := m.Coupons[code]
	if !ok {
		return nil, backend.ErrNotFound
	}
	return c, nil
}

func (m *MockBackend) SubmitOrder(_ context.Context, order *domain.Order) (*backend.OrderReceipt, error) {
	if m.SubmitErr != nil {
		return nil, m.SubmitErr
	}
	m.SubmittedOrders = append(m.SubmittedOrders, order)
	if m.Receipt != nil {
		return m.Receipt, nil
	}
	return &backend.OrderReceipt{OrderID: "ord-1"}, nil
}

// MockDraftStore implements draft.Store for testing
type MockDraftStore struct {
	mu     sync.Mutex
	drafts map[string]*domain.CheckoutDraft
}

func NewMockDraftStore() *MockDraftStore {
	return &MockDraftStore{drafts: make(map[string]*domain.CheckoutDraft)}
}

func (m *MockDraftStore) Load(_ context.Context, userID string) (*domain.CheckoutDraft, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.drafts[userID]
	if !ok {
		return nil, draft.ErrDraftNotFound
	}
	copied := *d
	return &copied, nil
}

func (m *MockDraftStore) Save(_ context.Context, userID string, d *domain.CheckoutDraft) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *d
	m.drafts[userID] = &copied
	return nil
}

func (m *MockDraftStore) Clear(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.drafts, userID)
	return nil
}

func (m *MockDraftStore) Has(userID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.drafts[userID]
	return ok
}

// MockSubmissions implements repository.SubmissionStore for testing
type MockSubmissions struct {
	mu             sync.Mutex
	subs           map[string]*repository.Submission
	ForceSubmitted bool // every key looks like an already-submitted order
	GetErr         error
	CreateErr      error
}

func NewMockSubmissions() *MockSubmissions {
	return &MockSubmissions{subs: make(map[string]*repository.Submission)}
}

func (m *MockSubmissions) GetByIdempotencyKey(_ context.Context, key string) (*repository.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	if m.ForceSubmitted {
		return &repository.Submission{IdempotencyKey: key, Status: domain.CheckoutStatusSubmitted, OrderRef: "ord-prior"}, nil
	}
	sub, ok := m.subs[key]
	if !ok {
		return nil, repository.ErrSubmissionNotFound
	}
	return sub, nil
}

func (m *MockSubmissions) Create(_ context.Context, sub *repository.Submission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateErr != nil {
		return m.CreateErr
	}
	m.subs[sub.IdempotencyKey] = sub
	return nil
}

func (m *MockSubmissions) MarkSubmitted(_ context.Context, key, orderRef string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	sub, ok := m.subs[key]
	if !ok {
		return repository.ErrSubmissionNotFound
	}
	sub.Status = domain.CheckoutStatusSubmitted
	sub.OrderRef = orderRef
	return nil
}

// MockPublisher implements events.Publisher for testing
type MockPublisher struct {
	mu     sync.Mutex
	Events []events.OrderCompleted
	Err    error
}

func (m *MockPublisher) PublishOrderCompleted(_ context.Context, event events.OrderCompleted) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Events = append(m.Events, event)
	return nil
}

// providerMock implements payment.Provider for testing
type providerMock struct {
	ref   *payment.TransactionRef
	err   error
	calls int
}

func (p *providerMock) Name() string { return "mock" }

func (p *providerMock) Confirm(_ context.Context, _ payment.Request) (*payment.TransactionRef, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	return p.ref, nil
}

// stockFetcherMock implements stock.Fetcher for testing
type stockFetcherMock struct {
	mu     sync.Mutex
	stocks map[string]int
	errs   map[string]error
	calls  int
}

func (f *stockFetcherMock) GetProduct(_ context.Context, productID string) (*backend.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if err, ok := f.errs[productID]; ok {
		return nil, err
	}
	return &backend.Product{ID: productID, Stock: f.stocks[productID]}, nil
}
