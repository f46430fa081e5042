package application

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/dmehra2102/storefront/internal/payment/domain"
	"github.com/dmehra2102/storefront/pkg/apperr"
	"github.com/dmehra2102/storefront/pkg/outbox"
	"github.com/dmehra2102/storefront/pkg/tracing"
)

type Service struct {
	log     *slog.Logger
	gateway Gateway
	ledger  Ledger
	now     func() time.Time
}

func NewService(log *slog.Logger, gateway Gateway, ledger Ledger) *Service {
	return &Service{log: log, gateway: gateway, ledger: ledger, now: func() time.Time { return time.Now().UTC() }}
}

// Process charges the card once. A decline is a KindPayment error; a
// ledger failure after a successful charge is only logged.
func (s *Service) Process(ctx context.Context, c domain.Charge) (domain.Receipt, error) {
	if c.Amount.IsNegative() {
		return domain.Receipt{}, apperr.Validation("amount must not be negative", "amount")
	}

	p := domain.Payment{Amount: c.Amount, CardLast4: c.Last4(), CreatedAt: s.now()}
	receipt, err := s.gateway.Charge(ctx, c)
	if err != nil {
		p.Status = domain.StatusFailed
		p.Reason = err.Error()
		s.record(ctx, p, "PaymentFailed", domain.PaymentFailed{Amount: p.Amount, CardLast4: p.CardLast4, Reason: p.Reason})
		if errors.Is(err, domain.ErrDeclined) {
			return domain.Receipt{}, apperr.Payment(domain.DeclinedMessage, err)
		}
		return domain.Receipt{}, apperr.Wrap(apperr.KindRemote, "payment gateway: "+err.Error(), err)
	}

	receipt.CardLast4 = p.CardLast4
	p.TransactionID = receipt.TransactionID
	p.Status = domain.StatusCompleted
	s.record(ctx, p, "PaymentProcessed", domain.PaymentProcessed{
		TransactionID: p.TransactionID,
		Amount:        p.Amount,
		CardLast4:     p.CardLast4,
	})
	return receipt, nil
}

func (s *Service) record(ctx context.Context, p domain.Payment, eventType string, event any) {
	payload, err := json.Marshal(event)
	if err != nil {
		s.log.Error("payment event encode failed", "err", err)
		return
	}
	msg := outbox.Message{
		AggregateType: "payment",
		AggregateID:   p.TransactionID,
		Type:          eventType,
		Payload:       payload,
		Traceparent:   tracing.Traceparent(ctx),
	}
	if err := s.ledger.Record(ctx, p, msg); err != nil {
		s.log.Error("payment ledger write failed", "status", p.Status, "transaction_id", p.TransactionID, "err", err)
	}
}
