package application

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cartapp "github.com/dmehra2102/storefront/internal/cart/application"
	cartdomain "github.com/dmehra2102/storefront/internal/cart/domain"
	"github.com/dmehra2102/storefront/internal/checkout/domain"
	orderapp "github.com/dmehra2102/storefront/internal/order/application"
	orderdomain "github.com/dmehra2102/storefront/internal/order/domain"
	paymentdomain "github.com/dmehra2102/storefront/internal/payment/domain"
	"github.com/dmehra2102/storefront/pkg/apperr"
	"github.com/dmehra2102/storefront/pkg/kvstore"
)

var fee = decimal.RequireFromString("9.99")

type fakeOrders struct {
	mu         sync.Mutex
	paymentErr error
	createErr  error
	charges    []paymentdomain.Charge
	created    []orderapp.CreateOrderInput
	// block, when set, holds ProcessPayment until closed.
	block chan struct{}
}

func (f *fakeOrders) ProcessPayment(_ context.Context, c paymentdomain.Charge) (paymentdomain.Receipt, error) {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.charges = append(f.charges, c)
	if f.paymentErr != nil {
		return paymentdomain.Receipt{}, f.paymentErr
	}
	return paymentdomain.Receipt{TransactionID: "txn_test", Status: paymentdomain.StatusCompleted}, nil
}

func (f *fakeOrders) CreateOrder(_ context.Context, in orderapp.CreateOrderInput) (orderdomain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, in)
	if f.createErr != nil {
		return orderdomain.Order{}, f.createErr
	}
	return orderdomain.NewOrder(1, in.Items, in.ShippingAddress, in.Total, in.Payment, "FedEx", fixedNow), nil
}

var fixedNow = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func newCart(t *testing.T) *cartapp.Service {
	t.Helper()
	c := cartapp.NewService(context.Background(), discard(), kvstore.NewMemory(), "test")
	c.Add(context.Background(), cartdomain.LineItem{ProductID: 7, ProductName: "Denim Jacket", Price: decimal.NewFromInt(20), Quantity: 2})
	return c
}

var validAddress = orderdomain.Address{
	FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com",
	Address: "1 Analytical Way", City: "London", State: "LDN", ZipCode: "N1",
}

var validCard = domain.PaymentInfo{CardNumber: "4242 4242 4242 4242", ExpiryDate: "12/30", CVV: "123", CardName: "Ada Lovelace"}

func toReview(t *testing.T, w *Wizard) {
	t.Helper()
	_, err := w.SubmitShipping(validAddress)
	require.NoError(t, err)
	_, err = w.SubmitPayment(validCard)
	require.NoError(t, err)
}

func TestShippingValidationKeepsStep(t *testing.T) {
	w := NewWizard("s1", discard(), newCart(t), &fakeOrders{}, fee)

	addr := validAddress
	addr.Email = ""
	st, err := w.SubmitShipping(addr)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	assert.Equal(t, domain.StepShipping, st.Step)

	st, err = w.SubmitShipping(validAddress)
	require.NoError(t, err)
	assert.Equal(t, domain.StepPayment, st.Step)
}

func TestNoForwardSkipAndBackPreservesData(t *testing.T) {
	w := NewWizard("s1", discard(), newCart(t), &fakeOrders{}, fee)

	_, err := w.SubmitPayment(validCard)
	assert.True(t, apperr.Is(err, apperr.KindConflict))
	_, err = w.PlaceOrder(context.Background())
	assert.True(t, apperr.Is(err, apperr.KindConflict))
	_, err = w.Back()
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	toReview(t, w)
	st, err := w.Back()
	require.NoError(t, err)
	assert.Equal(t, domain.StepPayment, st.Step)
	assert.Equal(t, validCard.CardName, st.Payment.CardName)

	st, err = w.Back()
	require.NoError(t, err)
	assert.Equal(t, domain.StepShipping, st.Step)
	assert.Equal(t, "Lovelace", st.Shipping.LastName)
}

func TestReviewTotals(t *testing.T) {
	w := NewWizard("s1", discard(), newCart(t), &fakeOrders{}, fee)
	_, err := w.Review(context.Background())
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	toReview(t, w)
	r, err := w.Review(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "40", r.Subtotal.String())
	assert.Equal(t, "49.99", r.Total.String())
	assert.Equal(t, "4242", r.CardLast4)
}

func TestPlaceOrderSuccess(t *testing.T) {
	cart := newCart(t)
	orders := &fakeOrders{}
	w := NewWizard("s1", discard(), cart, orders, fee)
	toReview(t, w)

	o, err := w.PlaceOrder(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "49.99", o.Total.String())
	assert.Equal(t, "txn_test", o.Payment.TransactionID)
	assert.Equal(t, "4242", o.Payment.CardLast4)
	require.Len(t, o.Items, 1)
	assert.Equal(t, 2, o.Items[0].Quantity)

	assert.Empty(t, cart.Get(context.Background()))
	st := w.State()
	assert.Equal(t, domain.StepCompleted, st.Step)
	assert.Empty(t, st.Payment.CardNumber)
	require.NotNil(t, st.Order)

	require.Len(t, orders.charges, 1)
	assert.Equal(t, "49.99", orders.charges[0].Amount.String())
}

func TestPlaceOrderPaymentFailure(t *testing.T) {
	cart := newCart(t)
	orders := &fakeOrders{paymentErr: apperr.Payment(paymentdomain.DeclinedMessage, paymentdomain.ErrDeclined)}
	w := NewWizard("s1", discard(), cart, orders, fee)
	toReview(t, w)

	_, err := w.PlaceOrder(context.Background())
	assert.True(t, apperr.Is(err, apperr.KindPayment))
	assert.Equal(t, domain.StepReview, w.State().Step)
	assert.False(t, w.State().Processing)
	assert.Empty(t, orders.created)
	assert.Len(t, cart.Get(context.Background()), 1)
}

func TestPlaceOrderCreateFailureKeepsCart(t *testing.T) {
	cart := newCart(t)
	orders := &fakeOrders{createErr: apperr.Remote("save order", errors.New("db down"))}
	w := NewWizard("s1", discard(), cart, orders, fee)
	toReview(t, w)

	_, err := w.PlaceOrder(context.Background())
	assert.True(t, apperr.Is(err, apperr.KindRemote))
	assert.Equal(t, domain.StepReview, w.State().Step)
	assert.Len(t, cart.Get(context.Background()), 1)
	assert.Len(t, orders.charges, 1)
}

func TestPlaceOrderEmptyCart(t *testing.T) {
	cart := newCart(t)
	w := NewWizard("s1", discard(), cart, &fakeOrders{}, fee)
	toReview(t, w)
	cart.Clear(context.Background())

	_, err := w.PlaceOrder(context.Background())
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestConcurrentPlaceOrderConflicts(t *testing.T) {
	orders := &fakeOrders{block: make(chan struct{})}
	w := NewWizard("s1", discard(), newCart(t), orders, fee)
	toReview(t, w)

	done := make(chan error)
	go func() {
		_, err := w.PlaceOrder(context.Background())
		done <- err
	}()
	require.Eventually(t, func() bool { return w.State().Processing }, time.Second, time.Millisecond)

	_, err := w.PlaceOrder(context.Background())
	assert.True(t, apperr.Is(err, apperr.KindConflict))
	_, err = w.Back()
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	close(orders.block)
	require.NoError(t, <-done)
	assert.Len(t, orders.created, 1)
}
