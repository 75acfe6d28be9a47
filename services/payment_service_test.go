package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bazario/models"
	"bazario/repository"
)

// fakeProvider stands in for the hosted checkout processor.
type fakeProvider struct {
	sessions map[string]int64 // session id -> order id
	paid     map[string]bool
	next     int
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{sessions: make(map[string]int64), paid: make(map[string]bool)}
}

func (f *fakeProvider) CreateSession(ctx context.Context, o *models.Order) (*CheckoutSession, error) {
	f.next++
	id := fmt.Sprintf("cs_test_%d", f.next)
	f.sessions[id] = o.ID
	return &CheckoutSession{ID: id, URL: "https://checkout.example.com/" + id}, nil
}

func (f *fakeProvider) SessionOrder(ctx context.Context, sessionID string) (int64, bool, error) {
	orderID, ok := f.sessions[sessionID]
	if !ok {
		return 0, false, fmt.Errorf("no such session %q", sessionID)
	}
	return orderID, f.paid[sessionID], nil
}

type paymentFixture struct {
	*orderFixture
	payments *repository.MemoryPayments
	provider *fakeProvider
	svc      *PaymentService
}

func newPaymentFixture(t *testing.T) *paymentFixture {
	t.Helper()
	of := newOrderFixture(t)
	f := &paymentFixture{
		orderFixture: of,
		payments:     repository.NewMemoryPayments(of.store),
		provider:     newFakeProvider(),
	}
	f.svc = NewPaymentService(f.payments, of.svc, f.provider)
	return f
}

func (f *paymentFixture) placePendingOrder(t *testing.T, stock int64) *models.Order {
	t.Helper()
	p := f.addProduct(t, "Ceramic Mug", "10.00", stock)
	o, err := f.orderFixture.svc.Place(context.Background(), f.customer,
		[]PlaceOrderItem{{ProductID: p.ID, Quantity: 2}},
		decimal.RequireFromString("20.00"), testAddress())
	require.NoError(t, err)
	return o
}

func TestCheckoutOpensSessionAndRecordsAttempt(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()
	o := f.placePendingOrder(t, 5)

	session, err := f.svc.Checkout(ctx, f.customer, o.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, session.ID)
	assert.NotEmpty(t, session.URL)

	attempts, err := f.payments.ListByOrder(ctx, o.ID)
	require.NoError(t, err)
	require.Len(t, attempts, 1)
	assert.Equal(t, models.PaymentPending, attempts[0].Status)
	assert.True(t, attempts[0].Amount.Equal(o.TotalAmount))

	// the order is untouched until the processor confirms
	got, err := f.orders.GetByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderPending, got.Status)
}

func TestCheckoutRejectsNonPendingOrder(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()
	o := f.placePendingOrder(t, 5)

	_, err := f.orderFixture.svc.MarkPaid(ctx, o.ID)
	require.NoError(t, err)

	_, err = f.svc.Checkout(ctx, f.customer, o.ID)
	assert.ErrorIs(t, err, ErrOrderNotPayable)
}

func TestConfirmSettlesOrderAndAdjustsStock(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()
	o := f.placePendingOrder(t, 5)

	session, err := f.svc.Checkout(ctx, f.customer, o.ID)
	require.NoError(t, err)

	// unpaid session cannot settle
	_, err = f.svc.Confirm(ctx, session.ID)
	assert.ErrorIs(t, err, ErrPaymentIncomplete)

	f.provider.paid[session.ID] = true
	settled, err := f.svc.Confirm(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderPaid, settled.Status)

	got, err := f.products.GetByID(ctx, o.Items[0].ProductID)
	require.NoError(t, err)
	assert.EqualValues(t, 3, got.Stock)

	attempts, err := f.payments.ListByOrder(ctx, o.ID)
	require.NoError(t, err)
	require.Len(t, attempts, 1)
	assert.Equal(t, models.PaymentSuccess, attempts[0].Status)
}

func TestConfirmReplayIsIdempotent(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()
	o := f.placePendingOrder(t, 5)

	session, err := f.svc.Checkout(ctx, f.customer, o.ID)
	require.NoError(t, err)
	f.provider.paid[session.ID] = true

	_, err = f.svc.Confirm(ctx, session.ID)
	require.NoError(t, err)
	_, err = f.svc.Confirm(ctx, session.ID)
	require.NoError(t, err)

	got, err := f.products.GetByID(ctx, o.Items[0].ProductID)
	require.NoError(t, err)
	assert.EqualValues(t, 3, got.Stock)
}

func TestConfirmUnknownSessionStillRecordsPayment(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()
	o := f.placePendingOrder(t, 5)

	// session exists at the processor but not locally (e.g. restart)
	f.provider.next++
	sessionID := "cs_test_orphan"
	f.provider.sessions[sessionID] = o.ID
	f.provider.paid[sessionID] = true

	settled, err := f.svc.Confirm(ctx, sessionID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderPaid, settled.Status)

	attempts, err := f.payments.ListByOrder(ctx, o.ID)
	require.NoError(t, err)
	require.Len(t, attempts, 1)
	assert.Equal(t, models.PaymentSuccess, attempts[0].Status)
	assert.Equal(t, sessionID, attempts[0].SessionID)
}

func TestDirectPayUsesServerSideAmount(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()
	o := f.placePendingOrder(t, 5)

	p, err := f.svc.Pay(ctx, f.customer, o.ID, "cod")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentSuccess, p.Status)
	assert.Equal(t, "cod", p.Method)
	assert.True(t, p.Amount.Equal(decimal.RequireFromString("20.00")))

	got, err := f.orders.GetByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderPaid, got.Status)

	// an already settled order cannot be paid again
	_, err = f.svc.Pay(ctx, f.customer, o.ID, "cod")
	assert.ErrorIs(t, err, ErrOrderNotPayable)
}

func TestRetryReopensCheckout(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()
	o := f.placePendingOrder(t, 5)

	first, err := f.svc.Checkout(ctx, f.customer, o.ID)
	require.NoError(t, err)
	second, err := f.svc.Retry(ctx, f.customer, o.ID)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	attempts, err := f.payments.ListByOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Len(t, attempts, 2)
}
