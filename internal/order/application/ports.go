package application

import (
	"context"

	"github.com/dmehra2102/storefront/internal/order/domain"
	paymentdomain "github.com/dmehra2102/storefront/internal/payment/domain"
	"github.com/dmehra2102/storefront/pkg/outbox"
)

// OrderRepository stores orders. Every state change is written together
// with the outbox message announcing it. Get and UpdateStatus return an
// apperr NotFound error for unknown ids.
type OrderRepository interface {
	NextID(ctx context.Context) (int64, error)
	SaveWithOutbox(ctx context.Context, o domain.Order, msg outbox.Message) error
	Get(ctx context.Context, id int64) (domain.Order, error)
	List(ctx context.Context) ([]domain.Order, error)
	AppendStatus(ctx context.Context, id int64, status domain.OrderStatus, ev domain.TrackingEvent, msg outbox.Message) error
}

type PaymentProcessor interface {
	Process(ctx context.Context, c paymentdomain.Charge) (paymentdomain.Receipt, error)
}
