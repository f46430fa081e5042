package application

import (
	"context"
	"encoding/json"
	"log/slog"
	"sort"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/dmehra2102/storefront/internal/order/domain"
	paymentdomain "github.com/dmehra2102/storefront/internal/payment/domain"
	"github.com/dmehra2102/storefront/pkg/apperr"
	"github.com/dmehra2102/storefront/pkg/outbox"
	"github.com/dmehra2102/storefront/pkg/tracing"
)

const DefaultCarrier = "FedEx"

type CreateOrderInput struct {
	Items           []domain.OrderItem
	ShippingAddress domain.Address
	Total           decimal.Decimal
	Payment         domain.PaymentRef
}

// ListFilter narrows the order history. An empty Status or "all" keeps
// every status; a zero PlacedAfter keeps every date.
type ListFilter struct {
	Status      string
	Search      string
	PlacedAfter time.Time
}

type Service struct {
	log      *slog.Logger
	repo     OrderRepository
	payments PaymentProcessor
	carrier  string
	now      func() time.Time
	tracer   trace.Tracer
}

type Option func(*Service)

func WithCarrier(carrier string) Option { return func(s *Service) { s.carrier = carrier } }

func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

func NewService(log *slog.Logger, repo OrderRepository, payments PaymentProcessor, opts ...Option) *Service {
	s := &Service{
		log:      log,
		repo:     repo,
		payments: payments,
		carrier:  DefaultCarrier,
		now:      func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
		tracer:   otel.Tracer("order-service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func remote(op string, err error) error {
	return apperr.Wrap(apperr.KindRemote, op+": "+err.Error(), err)
}

func (s *Service) CreateOrder(ctx context.Context, in CreateOrderInput) (domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "CreateOrder")
	defer span.End()

	if len(in.Items) == 0 {
		return domain.Order{}, apperr.Validation("an order needs at least one item", "items")
	}
	if in.Total.IsNegative() {
		return domain.Order{}, apperr.Validation("total must not be negative", "total")
	}

	id, err := s.repo.NextID(ctx)
	if err != nil {
		return domain.Order{}, remote("allocate order id", err)
	}
	o := domain.NewOrder(id, in.Items, in.ShippingAddress, in.Total, in.Payment, s.carrier, s.now())

	payload, err := json.Marshal(domain.OrderPlaced{
		OrderID:       o.ID,
		OrderNumber:   o.Number,
		Total:         o.Total,
		ItemCount:     len(o.Items),
		TransactionID: o.Payment.TransactionID,
		PlacedAt:      o.PlacedAt,
	})
	if err != nil {
		return domain.Order{}, err
	}
	if err := s.repo.SaveWithOutbox(ctx, o, s.message(ctx, o, "OrderPlaced", payload)); err != nil {
		return domain.Order{}, remote("save order", err)
	}
	s.log.Info("order placed", "order_id", o.ID, "order_number", o.Number, "total", o.Total.String())
	return o, nil
}

func (s *Service) message(ctx context.Context, o domain.Order, eventType string, payload []byte) outbox.Message {
	return outbox.Message{
		AggregateType: "order",
		AggregateID:   strconv.FormatInt(o.ID, 10),
		Type:          eventType,
		Payload:       payload,
		Headers:       map[string]string{"order_number": o.Number},
		Traceparent:   tracing.Traceparent(ctx),
	}
}

// ProcessPayment charges the card through the payment port.
func (s *Service) ProcessPayment(ctx context.Context, c paymentdomain.Charge) (paymentdomain.Receipt, error) {
	ctx, span := s.tracer.Start(ctx, "ProcessPayment")
	defer span.End()
	return s.payments.Process(ctx, c)
}

// UserOrders returns matching orders, newest first.
func (s *Service) UserOrders(ctx context.Context, f ListFilter) ([]domain.Order, error) {
	var status domain.OrderStatus
	if f.Status != "" && f.Status != "all" {
		st, err := domain.ParseStatus(f.Status)
		if err != nil {
			return nil, err
		}
		status = st
	}

	orders, err := s.repo.List(ctx)
	if err != nil {
		return nil, remote("list orders", err)
	}
	out := make([]domain.Order, 0, len(orders))
	for _, o := range orders {
		if status != "" && o.Status != status {
			continue
		}
		if !f.PlacedAfter.IsZero() && o.PlacedAt.Before(f.PlacedAfter) {
			continue
		}
		if !o.Matches(f.Search) {
			continue
		}
		out = append(out, o)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].PlacedAt.Equal(out[j].PlacedAt) {
			return out[i].PlacedAt.After(out[j].PlacedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (s *Service) Get(ctx context.Context, id int64) (domain.Order, error) {
	o, err := s.repo.Get(ctx, id)
	if err != nil {
		return domain.Order{}, remote("load order", err)
	}
	return o, nil
}

func (s *Service) Tracking(ctx context.Context, id int64) (domain.Tracking, error) {
	o, err := s.Get(ctx, id)
	if err != nil {
		return domain.Tracking{}, err
	}
	return o.Tracking, nil
}

// UpdateStatus accepts any status of the enum and appends a tracking event.
func (s *Service) UpdateStatus(ctx context.Context, id int64, status string) (domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "UpdateOrderStatus")
	defer span.End()

	st, err := domain.ParseStatus(status)
	if err != nil {
		return domain.Order{}, err
	}
	o, err := s.Get(ctx, id)
	if err != nil {
		return domain.Order{}, err
	}
	ev := o.SetStatus(st, s.now())

	payload, err := json.Marshal(domain.OrderStatusChanged{
		OrderID:     o.ID,
		OrderNumber: o.Number,
		Status:      st,
		ChangedAt:   ev.Date,
	})
	if err != nil {
		return domain.Order{}, err
	}
	if err := s.repo.AppendStatus(ctx, id, st, ev, s.message(ctx, o, "OrderStatusChanged", payload)); err != nil {
		return domain.Order{}, remote("update order status", err)
	}
	s.log.Info("order status updated", "order_id", id, "status", st)
	return o, nil
}
