package postgres

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/artmarket/exchange/internal/order/domain"
	"github.com/artmarket/exchange/pkg/tracing"
)

// EventChargeFailed is the outbox event type consumed by the notification
// worker.
const EventChargeFailed = "ChargeFailed"

// ChargeFailedEvent is the payload of a failed-charge notification, keyed by
// transaction id and the actor who drove the attempt.
type ChargeFailedEvent struct {
	TransactionID string `json:"transaction_id"`
	OrderID       string `json:"order_id"`
	Actor         string `json:"actor"`
	Reason        string `json:"reason"`
}

// Notifier enqueues failed-charge notifications through the transactional
// outbox; the relay drains them to kafka.
type Notifier struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewNotifier(log *slog.Logger, pool *pgxpool.Pool) *Notifier {
	return &Notifier{log: log, pool: pool}
}

func (n *Notifier) NotifyFailedCharge(ctx context.Context, txn domain.Transaction, actor string) error {
	payload, err := json.Marshal(ChargeFailedEvent{
		TransactionID: txn.ID,
		OrderID:       txn.OrderID,
		Actor:         actor,
		Reason:        txn.FailureMessage,
	})
	if err != nil {
		return err
	}
	_, err = n.pool.Exec(ctx, `INSERT INTO outbox (aggregate_type, aggregate_id, type, payload, headers, traceparent, status)
		VALUES ($1,$2,$3,$4,$5,$6,'pending')`,
		"transaction", txn.ID, EventChargeFailed, payload,
		map[string]string{"source": "exchange-api"}, tracing.Traceparent(ctx))
	if err != nil {
		return err
	}
	n.log.Info("failed charge notification enqueued", "transaction_id", txn.ID, "order_id", txn.OrderID)
	return nil
}
