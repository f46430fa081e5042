package application

import (
	"context"
	"log/slog"
	"sync"

	"github.com/shopspring/decimal"

	cartdomain "github.com/dmehra2102/storefront/internal/cart/domain"
	"github.com/dmehra2102/storefront/internal/checkout/domain"
	orderapp "github.com/dmehra2102/storefront/internal/order/application"
	orderdomain "github.com/dmehra2102/storefront/internal/order/domain"
	paymentdomain "github.com/dmehra2102/storefront/internal/payment/domain"
	"github.com/dmehra2102/storefront/pkg/apperr"
)

// Review is the read-only summary shown before the order is placed.
type Review struct {
	Items       []cartdomain.LineItem `json:"items"`
	Shipping    orderdomain.Address   `json:"shipping"`
	CardName    string                `json:"cardName"`
	CardLast4   string                `json:"last4"`
	Subtotal    decimal.Decimal       `json:"subtotal"`
	ShippingFee decimal.Decimal       `json:"shippingFee"`
	Total       decimal.Decimal       `json:"total"`
}

// Wizard walks one shopper through shipping, payment and review. Steps move
// one at a time; only PlaceOrder leaves the review step forwards.
type Wizard struct {
	id          string
	log         *slog.Logger
	cart        Cart
	orders      Orders
	shippingFee decimal.Decimal

	mu    sync.Mutex
	state domain.State
}

func NewWizard(id string, log *slog.Logger, cart Cart, orders Orders, shippingFee decimal.Decimal) *Wizard {
	return &Wizard{
		id:          id,
		log:         log,
		cart:        cart,
		orders:      orders,
		shippingFee: shippingFee,
		state:       domain.NewState(),
	}
}

func (w *Wizard) ID() string { return w.id }

func (w *Wizard) State() domain.State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// expect must be called with mu held.
func (w *Wizard) expect(step domain.Step) error {
	if w.state.Processing {
		return apperr.Conflict("order is being placed")
	}
	if w.state.Step != step {
		return apperr.Conflict("checkout is at the %s step, not %s", w.state.Step, step)
	}
	return nil
}

// SubmitShipping advances to payment when every required field is present.
// On failure the wizard stays where it is.
func (w *Wizard) SubmitShipping(addr orderdomain.Address) (domain.State, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.expect(domain.StepShipping); err != nil {
		return w.state, err
	}
	addr, err := domain.ValidateShipping(addr)
	if err != nil {
		return w.state, err
	}
	w.state.Shipping = addr
	w.state.Step = domain.StepPayment
	return w.state, nil
}

func (w *Wizard) SubmitPayment(p domain.PaymentInfo) (domain.State, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.expect(domain.StepPayment); err != nil {
		return w.state, err
	}
	p, err := domain.ValidatePayment(p)
	if err != nil {
		return w.state, err
	}
	w.state.Payment = p
	w.state.Step = domain.StepReview
	return w.state, nil
}

// Back returns to the previous step keeping everything entered so far.
func (w *Wizard) Back() (domain.State, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state.Processing {
		return w.state, apperr.Conflict("order is being placed")
	}
	switch w.state.Step {
	case domain.StepPayment, domain.StepReview:
		w.state.Step--
		return w.state, nil
	default:
		return w.state, apperr.Conflict("cannot go back from the %s step", w.state.Step)
	}
}

func (w *Wizard) Review(ctx context.Context) (Review, error) {
	w.mu.Lock()
	state := w.state
	w.mu.Unlock()
	if state.Step != domain.StepReview {
		return Review{}, apperr.Conflict("checkout is at the %s step, not review", state.Step)
	}

	items := w.cart.Get(ctx)
	subtotal := cartdomain.Cart(items).Total()
	return Review{
		Items:       items,
		Shipping:    state.Shipping,
		CardName:    state.Payment.CardName,
		CardLast4:   state.Payment.Last4(),
		Subtotal:    subtotal,
		ShippingFee: w.shippingFee,
		Total:       subtotal.Add(w.shippingFee),
	}, nil
}

// PlaceOrder charges the card and creates the order from the current cart.
// A declined payment leaves the wizard at review without creating an order.
// If the charge succeeds but the order cannot be stored the error is
// returned and the cart is kept; the charge is not reversed.
func (w *Wizard) PlaceOrder(ctx context.Context) (orderdomain.Order, error) {
	w.mu.Lock()
	if err := w.expect(domain.StepReview); err != nil {
		w.mu.Unlock()
		return orderdomain.Order{}, err
	}
	w.state.Processing = true
	state := w.state
	w.mu.Unlock()

	order, err := w.place(ctx, state)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.state.Processing = false
	if err != nil {
		return orderdomain.Order{}, err
	}
	w.state.Step = domain.StepCompleted
	w.state.Order = &order
	w.state.Payment = domain.PaymentInfo{}
	return order, nil
}

func (w *Wizard) place(ctx context.Context, state domain.State) (orderdomain.Order, error) {
	items := w.cart.Get(ctx)
	if len(items) == 0 {
		return orderdomain.Order{}, apperr.Validation("cart is empty", "items")
	}
	total := cartdomain.Cart(items).Total().Add(w.shippingFee)

	receipt, err := w.orders.ProcessPayment(ctx, paymentdomain.Charge{
		Amount:     total,
		CardNumber: state.Payment.CardNumber,
		ExpiryDate: state.Payment.ExpiryDate,
		CVV:        state.Payment.CVV,
		CardName:   state.Payment.CardName,
	})
	if err != nil {
		return orderdomain.Order{}, err
	}

	order, err := w.orders.CreateOrder(ctx, orderapp.CreateOrderInput{
		Items:           snapshot(items),
		ShippingAddress: state.Shipping,
		Total:           total,
		Payment:         orderdomain.PaymentRef{TransactionID: receipt.TransactionID, CardLast4: state.Payment.Last4()},
	})
	if err != nil {
		w.log.Error("order creation failed after payment", "session", w.id, "transaction_id", receipt.TransactionID, "err", err)
		return orderdomain.Order{}, err
	}

	w.cart.Clear(ctx)
	w.log.Info("checkout completed", "session", w.id, "order_number", order.Number)
	return order, nil
}

func snapshot(items []cartdomain.LineItem) []orderdomain.OrderItem {
	out := make([]orderdomain.OrderItem, 0, len(items))
	for _, it := range items {
		out = append(out, orderdomain.OrderItem{
			ID:            it.ID,
			ProductID:     it.ProductID,
			ProductName:   it.ProductName,
			Price:         it.Price,
			Quantity:      it.Quantity,
			SelectedSize:  it.SelectedSize,
			SelectedColor: it.SelectedColor,
			Image:         it.Image,
		})
	}
	return out
}
