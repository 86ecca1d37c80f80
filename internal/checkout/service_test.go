package checkout

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/estefaniii/mautik-checkout/internal/backend"
	"github.com/estefaniii/mautik-checkout/internal/cart"
	"github.com/estefaniii/mautik-checkout/internal/domain"
	"github.com/estefaniii/mautik-checkout/internal/payment"
	"github.com/estefaniii/mautik-checkout/internal/pricing"
	"github.com/estefaniii/mautik-checkout/internal/stock"
)

type fixture struct {
	svc         *Service
	cart        *cart.MemoryStore
	drafts      *MockDraftStore
	backend     *MockBackend
	fetcher     *stockFetcherMock
	submissions *MockSubmissions
	publisher   *MockPublisher
	redirected  chan struct{}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	cartStore := cart.NewMemoryStore()
	drafts := NewMockDraftStore()
	be := &MockBackend{
		AddressList: []domain.Address{{ID: "addr-home", IsDefault: true}},
		PaymentList: []domain.PaymentMethod{{ID: "pm-visa", Brand: "visa", IsDefault: true}},
	}
	fetcher := &stockFetcherMock{stocks: map[string]int{}}
	submissions := NewMockSubmissions()
	publisher := &MockPublisher{}
	redirected := make(chan struct{}, 1)

	svc := NewService(Config{
		Session:       Session{UserID: "u1", Email: "u1@example.com"},
		Cart:          cartStore,
		Drafts:        drafts,
		Backend:       be,
		Reconciler:    stock.NewReconciler(fetcher, cartStore),
		Submissions:   submissions,
		Publisher:     publisher,
		RedirectDelay: 10 * time.Millisecond,
		OnRedirect:    func() { redirected <- struct{}{} },
	})

	_, err := svc.LoadAddresses(context.Background())
	require.NoError(t, err)
	_, err = svc.LoadPaymentMethods(context.Background())
	require.NoError(t, err)

	return &fixture{
		svc:         svc,
		cart:        cartStore,
		drafts:      drafts,
		backend:     be,
		fetcher:     fetcher,
		submissions: submissions,
		publisher:   publisher,
		redirected:  redirected,
	}
}

func (f *fixture) addLine(t *testing.T, productID string, quantity, knownStock int, price float64) {
	t.Helper()
	require.NoError(t, f.cart.UpsertLine(context.Background(), "u1", domain.CartLine{
		ProductID:  productID,
		Quantity:   quantity,
		KnownStock: knownStock,
		UnitPrice:  price,
	}))
	f.fetcher.stocks[productID] = knownStock
}

func TestSubmit_StockConflictBlocksAndClamps(t *testing.T) {
	f := newFixture(t)
	f.addLine(t, "p1", 5, 5, 10.0)
	f.fetcher.stocks["p1"] = 3 // stock dropped on the server

	_, err := f.svc.Submit(context.Background())

	var conflict *StockConflictError
	require.True(t, errors.As(err, &conflict))
	require.Len(t, conflict.Advisories, 1)
	assert.Equal(t, "p1", conflict.Advisories[0].ProductID)
	assert.Contains(t, conflict.Advisories[0].Message, "p1")

	lines, errLines := f.cart.Lines(context.Background(), "u1")
	require.NoError(t, errLines)
	assert.Equal(t, 3, lines[0].Quantity)

	assert.Equal(t, domain.CheckoutStatusEditing, f.svc.Status())
	assert.Empty(t, f.backend.SubmittedOrders)
}

func TestSubmit_ServerRejectionKeepsCartAndDraft(t *testing.T) {
	f := newFixture(t)
	f.addLine(t, "p1", 2, 5, 10.0)
	f.svc.UpdateForm(context.Background(), domain.ContactForm{Name: "Ana"})
	f.backend.SubmitErr = &backend.APIError{StatusCode: http.StatusBadRequest, Message: "Card declined"}

	_, err := f.svc.Submit(context.Background())

	require.Error(t, err)
	var apiErr *backend.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "Card declined", apiErr.Error())

	assert.Equal(t, domain.CheckoutStatusEditing, f.svc.Status())

	lines, errLines := f.cart.Lines(context.Background(), "u1")
	require.NoError(t, errLines)
	assert.Len(t, lines, 1)
	assert.True(t, f.drafts.Has("u1"))
}

func TestSubmit_SuccessClearsEverythingAndRedirects(t *testing.T) {
	f := newFixture(t)
	f.addLine(t, "p1", 2, 5, 10.0)
	f.svc.UpdateForm(context.Background(), domain.ContactForm{Name: "Ana", Email: "ana@example.com"})

	result, err := f.svc.Submit(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "ord-1", result.OrderID)
	assert.Equal(t, domain.CheckoutStatusSubmitted, f.svc.Status())

	_, errLines := f.cart.Lines(context.Background(), "u1")
	assert.ErrorIs(t, errLines, cart.ErrCartNotFound)
	assert.False(t, f.drafts.Has("u1"))

	require.Len(t, f.backend.SubmittedOrders, 1)
	order := f.backend.SubmittedOrders[0]
	assert.Equal(t, "addr-home", order.Address.ID)
	assert.Equal(t, "pm-visa", order.PaymentMethod)
	assert.NotEmpty(t, order.IdempotencyKey)
	assert.Equal(t, 27.5, order.TotalAmount) // 20.00 + 7.50 shipping

	require.Len(t, f.publisher.Events, 1)
	assert.Equal(t, "ord-1", f.publisher.Events[0].OrderID)

	select {
	case <-f.redirected:
	case <-time.After(time.Second):
		t.Fatal("expected redirect after delay")
	}
}

func TestSubmit_GuardsRunBeforeAnyNetworkCall(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(f *fixture)
		wantErr error
	}{
		{
			"no session",
			func(f *fixture) { f.svc.session = Session{} },
			ErrNoSession,
		},
		{
			"no address",
			func(f *fixture) { f.svc.addresses.SetList(nil) },
			ErrNoAddress,
		},
		{
			"no payment method",
			func(f *fixture) { f.svc.payments.SetList(nil) },
			ErrNoPaymentMethod,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.addLine(t, "p1", 1, 5, 10.0)
			tt.mutate(f)

			_, err := f.svc.Submit(context.Background())

			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, domain.CheckoutStatusEditing, f.svc.Status())
			assert.Zero(t, f.fetcher.calls)
			assert.Empty(t, f.backend.SubmittedOrders)
		})
	}
}

func TestSubmit_EmptyCart(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Submit(context.Background())

	assert.ErrorIs(t, err, ErrEmptyCart)
	assert.Equal(t, domain.CheckoutStatusEditing, f.svc.Status())
}

func TestSubmit_SecondSubmitAfterSuccessIsRejected(t *testing.T) {
	f := newFixture(t)
	f.addLine(t, "p1", 1, 5, 10.0)

	_, err := f.svc.Submit(context.Background())
	require.NoError(t, err)

	_, err = f.svc.Submit(context.Background())
	assert.ErrorIs(t, err, ErrAlreadySubmitted)
	assert.Len(t, f.backend.SubmittedOrders, 1)
}

func TestSubmit_DuplicateSubmissionAbsorbedByIdempotencyKey(t *testing.T) {
	f := newFixture(t)
	f.addLine(t, "p1", 1, 5, 10.0)
	f.submissions.ForceSubmitted = true // another instance already posted this key

	_, err := f.svc.Submit(context.Background())

	assert.ErrorIs(t, err, ErrAlreadySubmitted)
	assert.Empty(t, f.backend.SubmittedOrders)
	assert.Equal(t, domain.CheckoutStatusSubmitted, f.svc.Status())
}

func TestSubmitWithProvider_AttachesTransactionRef(t *testing.T) {
	f := newFixture(t)
	f.addLine(t, "p1", 1, 5, 10.0)
	provider := &providerMock{ref: &payment.TransactionRef{ID: "txn-7", PayerEmail: "payer@example.com"}}

	result, err := f.svc.SubmitWithProvider(context.Background(), provider, payment.Request{Amount: 17.5})

	require.NoError(t, err)
	assert.Equal(t, "ord-1", result.OrderID)
	require.Len(t, f.backend.SubmittedOrders, 1)
	assert.Equal(t, "txn-7", f.backend.SubmittedOrders[0].PaymentRef)
	assert.Equal(t, 1, provider.calls)
}

func TestSubmitWithProvider_ProviderErrorSurfacedVerbatim(t *testing.T) {
	f := newFixture(t)
	f.addLine(t, "p1", 1, 5, 10.0)
	provider := &providerMock{err: &payment.ProviderError{Message: "Your card has insufficient funds."}}

	_, err := f.svc.SubmitWithProvider(context.Background(), provider, payment.Request{})

	require.Error(t, err)
	assert.Equal(t, "Your card has insufficient funds.", err.Error())
	assert.Equal(t, domain.CheckoutStatusEditing, f.svc.Status())
	assert.Empty(t, f.backend.SubmittedOrders)
}

func TestSubmitWithProvider_GuardsRecheckedAfterCapture(t *testing.T) {
	f := newFixture(t)
	f.addLine(t, "p1", 1, 5, 10.0)

	provider := &providerMock{ref: &payment.TransactionRef{ID: "txn-7"}}
	// The address list empties out during the capture round-trip.
	slowProvider := &recheckProvider{inner: provider, onConfirm: func() {
		f.svc.addresses.SetList(nil)
	}}

	_, err := f.svc.SubmitWithProvider(context.Background(), slowProvider, payment.Request{})

	assert.ErrorIs(t, err, ErrNoAddress)
	assert.Equal(t, domain.CheckoutStatusEditing, f.svc.Status())
	assert.Empty(t, f.backend.SubmittedOrders)
}

// recheckProvider mutates checkout state between capture and order POST.
type recheckProvider struct {
	inner     payment.Provider
	onConfirm func()
}

func (p *recheckProvider) Name() string { return p.inner.Name() }

func (p *recheckProvider) Confirm(ctx context.Context, req payment.Request) (*payment.TransactionRef, error) {
	ref, err := p.inner.Confirm(ctx, req)
	if p.onConfirm != nil {
		p.onConfirm()
	}
	return ref, err
}

func TestRestore_MergesFormAndAdoptsSelections(t *testing.T) {
	f := newFixture(t)
	f.backend.AddressList = append(f.backend.AddressList, domain.Address{ID: "addr-office"})
	f.backend.PaymentList = append(f.backend.PaymentList, domain.PaymentMethod{ID: "pm-mc"})
	_, err := f.svc.LoadAddresses(context.Background())
	require.NoError(t, err)
	_, err = f.svc.LoadPaymentMethods(context.Background())
	require.NoError(t, err)

	// UpdateForm persists a draft of its own, so the draft under test is
	// written afterwards, as a returning visit would find it.
	f.svc.UpdateForm(context.Background(), domain.ContactForm{Email: "kept@example.com"})
	require.NoError(t, f.drafts.Save(context.Background(), "u1", &domain.CheckoutDraft{
		Form:              domain.ContactForm{Name: "Ana", City: "Lima"},
		SelectedAddressID: "addr-office",
		SelectedPaymentID: "pm-mc",
	}))

	f.svc.Restore(context.Background())

	form := f.svc.Form()
	assert.Equal(t, "Ana", form.Name)
	assert.Equal(t, "Lima", form.City)
	assert.Equal(t, "kept@example.com", form.Email) // shallow merge keeps fields the draft lacks

	addr, ok := f.svc.SelectedAddress()
	require.True(t, ok)
	assert.Equal(t, "addr-office", addr.ID)

	pm, ok := f.svc.SelectedPaymentMethod()
	require.True(t, ok)
	assert.Equal(t, "pm-mc", pm.ID)
}

func TestRestore_DanglingSelectionIgnored(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.drafts.Save(context.Background(), "u1", &domain.CheckoutDraft{
		SelectedAddressID: "addr-deleted",
	}))

	f.svc.Restore(context.Background())

	addr, ok := f.svc.SelectedAddress()
	require.True(t, ok)
	assert.Equal(t, "addr-home", addr.ID) // selector keeps the default
}

func TestRestore_MissingDraftIsNoOp(t *testing.T) {
	f := newFixture(t)
	f.svc.UpdateForm(context.Background(), domain.ContactForm{Name: "Ana"})

	f.svc.Restore(context.Background())

	assert.Equal(t, "Ana", f.svc.Form().Name)
}

func TestAddAddress_FirstAddressAutoDefaultsAndIsSelected(t *testing.T) {
	f := newFixture(t)
	f.backend.AddressList = nil
	_, err := f.svc.LoadAddresses(context.Background())
	require.NoError(t, err)

	created, err := f.svc.AddAddress(context.Background(), domain.Address{Alias: "home", City: "Lima"})

	require.NoError(t, err)
	assert.True(t, created.IsDefault)

	addr, ok := f.svc.SelectedAddress()
	require.True(t, ok)
	assert.Equal(t, created.ID, addr.ID)
	assert.Len(t, f.svc.Addresses(), 1)
}

func TestAddAddress_SecondAddressDoesNotDefault(t *testing.T) {
	f := newFixture(t)

	created, err := f.svc.AddAddress(context.Background(), domain.Address{Alias: "office"})

	require.NoError(t, err)
	assert.False(t, created.IsDefault)
	// Optimistic switch: the new address is selected anyway.
	addr, ok := f.svc.SelectedAddress()
	require.True(t, ok)
	assert.Equal(t, created.ID, addr.ID)
}

func TestDeleteAddress_RepairsSelection(t *testing.T) {
	f := newFixture(t)
	f.backend.AddressList = []domain.Address{{ID: "a1"}, {ID: "a2"}, {ID: "a3"}}
	_, err := f.svc.LoadAddresses(context.Background())
	require.NoError(t, err)
	require.True(t, f.svc.SelectAddress(context.Background(), "a2"))

	require.NoError(t, f.svc.DeleteAddress(context.Background(), "a2"))

	addr, ok := f.svc.SelectedAddress()
	require.True(t, ok)
	assert.Equal(t, "a1", addr.ID)
}

func TestUpdateForm_PersistsDraftOnEveryChange(t *testing.T) {
	f := newFixture(t)

	f.svc.UpdateForm(context.Background(), domain.ContactForm{Name: "A"})
	f.svc.UpdateForm(context.Background(), domain.ContactForm{Name: "An"})

	d, err := f.drafts.Load(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "An", d.Form.Name)
	assert.Equal(t, "addr-home", d.SelectedAddressID)
}

func TestSubmit_ZeroQuantityLinesAreDropped(t *testing.T) {
	f := newFixture(t)
	f.addLine(t, "p1", 2, 5, 10.0)
	f.addLine(t, "p2", 0, 5, 3.0)

	_, err := f.svc.Submit(context.Background())

	require.NoError(t, err)
	require.Len(t, f.backend.SubmittedOrders, 1)
	items := f.backend.SubmittedOrders[0].Items
	require.Len(t, items, 1)
	assert.Equal(t, "p1", items[0].ProductID)
}

func TestApplyCoupon_DiscountsOrderTotal(t *testing.T) {
	f := newFixture(t)
	f.addLine(t, "p1", 2, 10, 10.0)
	f.backend.Coupons = map[string]*pricing.Coupon{
		"SAVE10": {Code: "SAVE10", Kind: pricing.CouponPercent, Value: 10},
	}

	discount, err := f.svc.ApplyCoupon(context.Background(), "SAVE10")
	require.NoError(t, err)
	assert.Equal(t, 2.0, discount)
	assert.Equal(t, "SAVE10", f.svc.CouponCode())

	result, err := f.svc.Submit(context.Background())
	require.NoError(t, err)
	require.NotNil(t, result)

	order := f.backend.SubmittedOrders[0]
	assert.Equal(t, 2.0, order.Discount)
	assert.Equal(t, 25.5, order.TotalAmount) // 20.00 - 2.00 + 7.50 shipping
}

func TestApplyCoupon_UnknownCode(t *testing.T) {
	f := newFixture(t)
	f.addLine(t, "p1", 1, 10, 10.0)

	_, err := f.svc.ApplyCoupon(context.Background(), "NOPE")
	assert.ErrorIs(t, err, backend.ErrNotFound)
	assert.Empty(t, f.svc.CouponCode())
}

func TestApplyCoupon_ExpiredRejected(t *testing.T) {
	f := newFixture(t)
	f.addLine(t, "p1", 1, 10, 10.0)
	f.backend.Coupons = map[string]*pricing.Coupon{
		"OLD": {Code: "OLD", Kind: pricing.CouponFixed, Value: 5, ExpiresAt: time.Now().Add(-time.Hour)},
	}

	_, err := f.svc.ApplyCoupon(context.Background(), "OLD")
	assert.ErrorIs(t, err, pricing.ErrCouponExpired)
	assert.Empty(t, f.svc.CouponCode())
}

func TestSubmit_CouponExpiredSinceApplyBlocks(t *testing.T) {
	f := newFixture(t)
	f.addLine(t, "p1", 2, 10, 10.0)
	f.backend.Coupons = map[string]*pricing.Coupon{
		"LAST": {Code: "LAST", Kind: pricing.CouponFixed, Value: 5, ExpiresAt: time.Now().Add(30 * time.Millisecond)},
	}
	_, err := f.svc.ApplyCoupon(context.Background(), "LAST")
	require.NoError(t, err)

	time.Sleep(60 * time.Millisecond)

	_, err = f.svc.Submit(context.Background())
	assert.ErrorIs(t, err, pricing.ErrCouponExpired)
	assert.Equal(t, domain.CheckoutStatusEditing, f.svc.Status())
	assert.Empty(t, f.backend.SubmittedOrders)
}

func TestRemoveCoupon(t *testing.T) {
	f := newFixture(t)
	f.addLine(t, "p1", 2, 10, 10.0)
	f.backend.Coupons = map[string]*pricing.Coupon{
		"SAVE10": {Code: "SAVE10", Kind: pricing.CouponPercent, Value: 10},
	}
	_, err := f.svc.ApplyCoupon(context.Background(), "SAVE10")
	require.NoError(t, err)

	f.svc.RemoveCoupon()

	_, err = f.svc.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 27.5, f.backend.SubmittedOrders[0].TotalAmount)
}
