// Package gateway holds the stand-in card processor used until a real
// payment provider is wired.
package gateway

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmehra2102/storefront/internal/payment/domain"
)

const DefaultSuccessRate = 0.9

// Simulated approves a charge with a fixed probability after an optional
// delay.
type Simulated struct {
	successRate float64
	delay       time.Duration

	mu  sync.Mutex
	rng *rand.Rand
}

type Option func(*Simulated)

func WithDelay(d time.Duration) Option { return func(s *Simulated) { s.delay = d } }

// WithRand fixes the random source, for reproducible runs.
func WithRand(r *rand.Rand) Option { return func(s *Simulated) { s.rng = r } }

func NewSimulated(successRate float64, opts ...Option) *Simulated {
	s := &Simulated{
		successRate: min(max(successRate, 0), 1),
		rng:         rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x5eed)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Simulated) Charge(ctx context.Context, c domain.Charge) (domain.Receipt, error) {
	if s.delay > 0 {
		t := time.NewTimer(s.delay)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return domain.Receipt{}, ctx.Err()
		case <-t.C:
		}
	}

	s.mu.Lock()
	approved := s.rng.Float64() < s.successRate
	s.mu.Unlock()
	if !approved {
		return domain.Receipt{}, domain.ErrDeclined
	}
	return domain.Receipt{
		TransactionID: "txn_" + uuid.NewString(),
		Status:        domain.StatusCompleted,
		CardLast4:     c.Last4(),
	}, nil
}
