package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/dmehra2102/storefront/internal/payment/domain"
	"github.com/dmehra2102/storefront/pkg/outbox"
)

type Ledger struct {
	mu       sync.Mutex
	payments []domain.Payment
	messages []outbox.Message
}

func NewLedger() *Ledger { return &Ledger{} }

func (l *Ledger) Record(_ context.Context, p domain.Payment, msg outbox.Message) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.payments = append(l.payments, p)
	l.messages = append(l.messages, msg)
	return nil
}

func (l *Ledger) Payments() []domain.Payment {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.payments)
}

func (l *Ledger) Messages() []outbox.Message {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.messages)
}
