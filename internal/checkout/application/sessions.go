package application

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru"
	"github.com/shopspring/decimal"

	"github.com/dmehra2102/storefront/pkg/apperr"
)

const DefaultSessions = 1024

// Sessions holds live checkout wizards. The least recently used session is
// dropped once size is exceeded.
type Sessions struct {
	log         *slog.Logger
	cache       *lru.Cache
	cart        Cart
	orders      Orders
	shippingFee decimal.Decimal
}

func NewSessions(log *slog.Logger, size int, cart Cart, orders Orders, shippingFee decimal.Decimal) (*Sessions, error) {
	if size < 1 {
		size = DefaultSessions
	}
	cache, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &Sessions{log: log, cache: cache, cart: cart, orders: orders, shippingFee: shippingFee}, nil
}

// Start opens a wizard for the current cart. An empty cart cannot be
// checked out.
func (s *Sessions) Start(ctx context.Context) (*Wizard, error) {
	if len(s.cart.Get(ctx)) == 0 {
		return nil, apperr.Validation("cart is empty", "items")
	}
	w := NewWizard(uuid.NewString(), s.log, s.cart, s.orders, s.shippingFee)
	s.cache.Add(w.ID(), w)
	return w, nil
}

func (s *Sessions) Get(id string) (*Wizard, error) {
	v, ok := s.cache.Get(id)
	if !ok {
		return nil, apperr.NotFound("checkout session not found")
	}
	return v.(*Wizard), nil
}

func (s *Sessions) Finish(id string) {
	s.cache.Remove(id)
}
