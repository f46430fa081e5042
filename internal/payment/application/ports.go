package application

import (
	"context"

	"github.com/dmehra2102/storefront/internal/payment/domain"
	"github.com/dmehra2102/storefront/pkg/outbox"
)

type Gateway interface {
	// Charge returns domain.ErrDeclined when the card is refused.
	Charge(ctx context.Context, c domain.Charge) (domain.Receipt, error)
}

// Ledger records every attempt together with the outbox message that
// announces it.
type Ledger interface {
	Record(ctx context.Context, p domain.Payment, msg outbox.Message) error
}
