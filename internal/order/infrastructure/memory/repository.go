package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/dmehra2102/storefront/internal/order/domain"
	"github.com/dmehra2102/storefront/pkg/apperr"
	"github.com/dmehra2102/storefront/pkg/outbox"
)

// Repository keeps orders for the life of the process. Reads return deep
// copies so callers never share state with the store.
type Repository struct {
	mu       sync.Mutex
	nextID   int64
	orders   map[int64]domain.Order
	messages []outbox.Message
}

func NewRepository() *Repository {
	return &Repository{nextID: 1, orders: make(map[int64]domain.Order)}
}

func (r *Repository) NextID(context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := r.nextID
	r.nextID++
	return id, nil
}

func (r *Repository) SaveWithOutbox(_ context.Context, o domain.Order, msg outbox.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orders[o.ID]; ok {
		return apperr.Conflict("order %d already exists", o.ID)
	}
	r.orders[o.ID] = o.Clone()
	r.messages = append(r.messages, msg)
	return nil
}

func (r *Repository) Get(_ context.Context, id int64) (domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return domain.Order{}, apperr.NotFound("Order not found")
	}
	return o.Clone(), nil
}

func (r *Repository) List(context.Context) ([]domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Order, 0, len(r.orders))
	for _, o := range r.orders {
		out = append(out, o.Clone())
	}
	return out, nil
}

func (r *Repository) AppendStatus(_ context.Context, id int64, status domain.OrderStatus, ev domain.TrackingEvent, msg outbox.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return apperr.NotFound("Order not found")
	}
	o.Status = status
	o.Tracking.Events = append(slices.Clone(o.Tracking.Events), ev)
	r.orders[id] = o
	r.messages = append(r.messages, msg)
	return nil
}

// Messages returns the outbox messages written so far.
func (r *Repository) Messages() []outbox.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.messages)
}
