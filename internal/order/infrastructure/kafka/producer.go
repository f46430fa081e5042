package kafka

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"
)

// Writer publishes outbox events. The topic is taken from each message and
// the partition from its key, so the events of one order are never
// reordered.
type Writer struct {
	*kafka.Writer
}

// NewWriter flushes small batches quickly: the relay already batches, and
// the order events it carries are low volume.
func NewWriter(brokers []string) *Writer {
	return &Writer{
		Writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireAll,
			BatchTimeout:           20 * time.Millisecond,
			Compression:            kafka.Snappy,
			AllowAutoTopicCreation: true,
		},
	}
}

func (w *Writer) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	return w.Writer.WriteMessages(ctx, msgs...)
}
