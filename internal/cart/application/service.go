package application

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dmehra2102/storefront/internal/cart/domain"
)

func StorageKey(app string) string { return app + "-cart" }

// Service owns the cart. The cart is loaded once at construction; every
// mutation is written through to storage. Storage failures are logged and
// never reach the caller: a failed read yields an empty cart, a failed write
// keeps the change in memory for the rest of the session.
type Service struct {
	log   *slog.Logger
	store Storage
	key   string
	newID func() string

	mu   sync.Mutex
	cart domain.Cart
}

type Option func(*Service)

func WithIDGenerator(fn func() string) Option {
	return func(s *Service) { s.newID = fn }
}

func NewService(ctx context.Context, log *slog.Logger, store Storage, app string, opts ...Option) *Service {
	s := &Service{
		log:   log,
		store: store,
		key:   StorageKey(app),
		newID: newLineID,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.cart = s.load(ctx)
	return s
}

// newLineID returns a time-ordered UUIDv7.
func newLineID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

func (s *Service) load(ctx context.Context) domain.Cart {
	raw, ok, err := s.store.Get(ctx, s.key)
	if err != nil {
		s.log.Error("cart load failed", "key", s.key, "err", err)
		return domain.Cart{}
	}
	if !ok || raw == "" {
		return domain.Cart{}
	}
	var c domain.Cart
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		s.log.Error("cart storage corrupt, starting empty", "key", s.key, "err", err)
		return domain.Cart{}
	}
	valid := make(domain.Cart, 0, len(c))
	for _, item := range c {
		if item.Quantity >= 1 && item.ID != "" {
			valid = append(valid, item)
		}
	}
	return valid
}

func (s *Service) save(ctx context.Context, c domain.Cart) {
	s.cart = c
	b, err := json.Marshal(c)
	if err != nil {
		s.log.Error("cart encode failed", "err", err)
		return
	}
	if err := s.store.Set(ctx, s.key, string(b)); err != nil {
		s.log.Error("cart save failed, keeping in memory", "key", s.key, "err", err)
	}
}

func (s *Service) Get(_ context.Context) []domain.LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Clone()
}

// Add merges item into the line with the same product, size and color or
// appends it as a new line.
func (s *Service) Add(ctx context.Context, item domain.LineItem) []domain.LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	updated := s.cart.Add(item, s.newID())
	s.save(ctx, updated)
	s.log.Debug("cart item added", "product_id", item.ProductID, "quantity", item.Quantity)
	return updated.Clone()
}

// UpdateQuantity sets the quantity of a line. A quantity of zero or less
// removes the line. Unknown ids are ignored.
func (s *Service) UpdateQuantity(ctx context.Context, itemID string, quantity int) []domain.LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	updated := s.cart.SetQuantity(itemID, quantity)
	s.save(ctx, updated)
	return updated.Clone()
}

func (s *Service) Remove(ctx context.Context, itemID string) []domain.LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	updated := s.cart.Remove(itemID)
	s.save(ctx, updated)
	return updated.Clone()
}

func (s *Service) Clear(ctx context.Context) []domain.LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.save(ctx, domain.Cart{})
	return []domain.LineItem{}
}

func (s *Service) Total(_ context.Context) decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Total()
}

func (s *Service) ItemCount(_ context.Context) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.ItemCount()
}
