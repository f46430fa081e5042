package gateway

import (
	"context"
	"math/rand/v2"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmehra2102/storefront/internal/payment/domain"
)

func TestAlwaysApproves(t *testing.T) {
	g := NewSimulated(1)
	r, err := g.Charge(context.Background(), domain.Charge{CardNumber: "4242424242424242"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(r.TransactionID, "txn_"))
	assert.Equal(t, domain.StatusCompleted, r.Status)
	assert.Equal(t, "4242", r.CardLast4)
}

func TestAlwaysDeclines(t *testing.T) {
	g := NewSimulated(0)
	_, err := g.Charge(context.Background(), domain.Charge{})
	assert.ErrorIs(t, err, domain.ErrDeclined)
}

func TestRateIsRoughlyHonoured(t *testing.T) {
	g := NewSimulated(DefaultSuccessRate, WithRand(rand.New(rand.NewPCG(1, 2))))
	approved := 0
	for range 1000 {
		if _, err := g.Charge(context.Background(), domain.Charge{}); err == nil {
			approved++
		}
	}
	assert.InDelta(t, 900, approved, 50)
}

func TestDelayHonoursContext(t *testing.T) {
	g := NewSimulated(1, WithDelay(time.Minute))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := g.Charge(ctx, domain.Charge{})
	assert.ErrorIs(t, err, context.Canceled)
}
