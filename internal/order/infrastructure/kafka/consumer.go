package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/dmehra2102/storefront/internal/order/domain"
	"github.com/dmehra2102/storefront/pkg/idempotency"
	"github.com/dmehra2102/storefront/pkg/tracing"
)

// FulfillmentUpdate is published by the warehouse when a shipment moves.
type FulfillmentUpdate struct {
	OrderID int64  `json:"order_id"`
	Status  string `json:"status"`
}

type StatusUpdater interface {
	UpdateStatus(ctx context.Context, id int64, status string) (domain.Order, error)
}

type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Consumer applies fulfillment updates to orders. Redelivered messages are
// skipped by partition offset.
type Consumer struct {
	log    *slog.Logger
	reader MessageReader
	orders StatusUpdater
	idem   idempotency.Keeper
	tracer trace.Tracer
}

func NewReader(brokers []string, topic, group string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers: brokers,
		Topic:   topic,
		GroupID: group,
	})
}

func NewConsumer(log *slog.Logger, reader MessageReader, orders StatusUpdater, idem idempotency.Keeper) *Consumer {
	return &Consumer{
		log:    log,
		reader: reader,
		orders: orders,
		idem:   idem,
		tracer: otel.Tracer("fulfillment-consumer"),
	}
}

func (c *Consumer) Run(ctx context.Context) error {
	defer c.reader.Close()

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
		c.handle(ctx, msg)
		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			c.log.Error("commit failed", "offset", msg.Offset, "err", err)
		}
	}
}

func (c *Consumer) handle(ctx context.Context, msg kafka.Message) {
	key := idempotency.MessageKey(msg.Topic, msg.Partition, msg.Offset)
	seen, err := c.idem.Seen(ctx, key)
	if err != nil {
		c.log.Error("idempotency check failed", "err", err)
		return
	}
	if seen {
		c.log.Info("duplicate message skipped", "key", key)
		return
	}

	msgCtx := tracing.ExtractKafkaHeaders(ctx, msg.Headers)
	msgCtx, span := c.tracer.Start(msgCtx, "ConsumeFulfillmentUpdate")
	defer span.End()

	var update FulfillmentUpdate
	if err := json.Unmarshal(msg.Value, &update); err != nil {
		c.log.Error("unmarshal failed", "offset", strconv.FormatInt(msg.Offset, 10), "err", err)
		return
	}
	if _, err := c.orders.UpdateStatus(msgCtx, update.OrderID, update.Status); err != nil {
		c.log.Error("fulfillment update failed", "order_id", update.OrderID, "status", update.Status, "err", err)
		return
	}
	c.log.Info("fulfillment update applied", "order_id", update.OrderID, "status", update.Status)
}
