package outbox

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmehra2102/storefront/pkg/tracing"
)

type fakeStore struct {
	mu     sync.Mutex
	batch  []Event
	sent   []int64
	failed map[int64]string
}

func (s *fakeStore) LockBatch(context.Context, string, int, time.Duration) ([]Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := s.batch
	s.batch = nil
	return b, nil
}

func (s *fakeStore) MarkSent(_ context.Context, ids []int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, ids...)
	return nil
}

func (s *fakeStore) MarkFailed(_ context.Context, id int64, msg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failed == nil {
		s.failed = map[int64]string{}
	}
	s.failed[id] = msg
	return nil
}

type fakeProducer struct {
	msgs   []kafka.Message
	failOn string
}

func (p *fakeProducer) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	for _, m := range msgs {
		if string(m.Key) == p.failOn {
			return errors.New("broker unavailable")
		}
	}
	p.msgs = append(p.msgs, msgs...)
	return nil
}

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestDispatchSetsHeaders(t *testing.T) {
	p := &fakeProducer{}
	d := NewDispatcher(discard(), p, "storefront.events")

	err := d.Dispatch(context.Background(), Event{
		ID:            1,
		AggregateType: "order",
		AggregateID:   "1700000000001",
		Type:          "OrderPlaced",
		Payload:       []byte(`{}`),
		Headers:       map[string]string{"source": "storefront"},
		Traceparent:   "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01",
	})
	require.NoError(t, err)
	require.Len(t, p.msgs, 1)

	msg := p.msgs[0]
	assert.Equal(t, "storefront.events", msg.Topic)
	assert.Equal(t, "1700000000001", string(msg.Key))
	assert.Equal(t, "1", tracing.HeaderValue(msg.Headers, "event_id"))
	assert.Equal(t, "OrderPlaced", tracing.HeaderValue(msg.Headers, "event_type"))
	assert.Equal(t, "order", tracing.HeaderValue(msg.Headers, "aggregate_type"))
	assert.Equal(t, "storefront", tracing.HeaderValue(msg.Headers, "source"))
	assert.NotEmpty(t, tracing.HeaderValue(msg.Headers, tracing.TraceparentHeader))
}

func TestRelayTickMarksSentAndFailed(t *testing.T) {
	store := &fakeStore{batch: []Event{
		{ID: 1, AggregateID: "a", Type: "OrderPlaced"},
		{ID: 2, AggregateID: "b", Type: "OrderPlaced"},
		{ID: 3, AggregateID: "c", Type: "OrderStatusChanged"},
	}}
	p := &fakeProducer{failOn: "b"}
	r := NewRelay(discard(), store, NewDispatcher(discard(), p, "t"), "relay-1")

	r.tick(context.Background())

	assert.Equal(t, []int64{1, 3}, store.sent)
	assert.Contains(t, store.failed[2], "broker unavailable")
	assert.Len(t, p.msgs, 2)
}

func TestRelayRunStopsOnCancel(t *testing.T) {
	store := &fakeStore{batch: []Event{{ID: 9, AggregateID: "x"}}}
	p := &fakeProducer{}
	r := NewRelay(discard(), store, NewDispatcher(discard(), p, "t"), "relay-1", WithInterval(5*time.Millisecond), WithBatchSize(10))
	assert.Equal(t, 10, r.batchSize)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	require.Eventually(t, func() bool {
		store.mu.Lock()
		defer store.mu.Unlock()
		return len(store.sent) == 1
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("relay did not stop")
	}
}
