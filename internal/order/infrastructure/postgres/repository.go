package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/artmarket/exchange/internal/order/application"
	"github.com/artmarket/exchange/internal/order/domain"
)

type Repository struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewRepository(log *slog.Logger, pool *pgxpool.Pool) *Repository {
	return &Repository{log: log, pool: pool}
}

// Migrate creates the schema. Safe to run on every boot.
func (r *Repository) Migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS orders (
			id TEXT PRIMARY KEY,
			state TEXT NOT NULL,
			currency_code TEXT NOT NULL,
			buyer_id TEXT NOT NULL,
			buyer_type TEXT NOT NULL,
			seller_id TEXT NOT NULL,
			seller_type TEXT NOT NULL,
			credit_card_id TEXT NOT NULL DEFAULT '',
			fulfillment_type TEXT NOT NULL DEFAULT '',
			shipping JSONB NOT NULL DEFAULT '{}',
			buyer_total_cents BIGINT NOT NULL DEFAULT 0,
			seller_total_cents BIGINT NOT NULL DEFAULT 0,
			shipping_total_cents BIGINT NOT NULL DEFAULT 0,
			tax_total_cents BIGINT NOT NULL DEFAULT 0,
			commission_fee_cents BIGINT NOT NULL DEFAULT 0,
			external_charge_id TEXT NOT NULL DEFAULT '',
			last_offer_id TEXT NOT NULL DEFAULT '',
			state_updated_at TIMESTAMPTZ NOT NULL,
			state_expires_at TIMESTAMPTZ NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS line_items (
			id TEXT PRIMARY KEY,
			order_id TEXT NOT NULL REFERENCES orders(id),
			artwork_id TEXT NOT NULL,
			artwork_version_id TEXT NOT NULL,
			price_cents BIGINT NOT NULL,
			sales_tax_cents BIGINT NOT NULL DEFAULT 0,
			should_remit_sales_tax BOOLEAN NOT NULL DEFAULT FALSE
		)`,
		`CREATE TABLE IF NOT EXISTS transactions (
			id TEXT PRIMARY KEY,
			order_id TEXT NOT NULL REFERENCES orders(id),
			external_id TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL,
			failure_message TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS offers (
			id TEXT PRIMARY KEY,
			order_id TEXT NOT NULL REFERENCES orders(id),
			amount_cents BIGINT NOT NULL DEFAULT 0,
			shipping_total_cents BIGINT NOT NULL DEFAULT 0,
			tax_total_cents BIGINT NOT NULL DEFAULT 0,
			should_remit_sales_tax BOOLEAN NOT NULL DEFAULT FALSE,
			submitted_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS outbox (
			id BIGSERIAL PRIMARY KEY,
			aggregate_type TEXT NOT NULL,
			aggregate_id TEXT NOT NULL,
			type TEXT NOT NULL,
			payload JSONB NOT NULL,
			headers JSONB NOT NULL DEFAULT '{}',
			traceparent TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT 'pending',
			relay_id TEXT,
			lease_until TIMESTAMPTZ,
			retry_count INT NOT NULL DEFAULT 0,
			last_error TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
	}
	for _, stmt := range stmts {
		if _, err := r.pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (r *Repository) Save(ctx context.Context, o *domain.Order) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	shipping, err := json.Marshal(o.Shipping)
	if err != nil {
		return err
	}

	o.UpdatedAt = time.Now().UTC()
	_, err = tx.Exec(ctx, `INSERT INTO orders (
			id, state, currency_code, buyer_id, buyer_type, seller_id, seller_type,
			credit_card_id, fulfillment_type, shipping,
			buyer_total_cents, seller_total_cents, shipping_total_cents, tax_total_cents, commission_fee_cents,
			external_charge_id, last_offer_id, state_updated_at, state_expires_at, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21)
		ON CONFLICT (id) DO UPDATE SET
			state=$2, credit_card_id=$8, fulfillment_type=$9, shipping=$10,
			buyer_total_cents=$11, seller_total_cents=$12, shipping_total_cents=$13,
			tax_total_cents=$14, commission_fee_cents=$15, external_charge_id=$16,
			last_offer_id=$17, state_updated_at=$18, state_expires_at=$19, updated_at=$21`,
		o.ID, o.State, o.CurrencyCode, o.BuyerID, o.BuyerType, o.SellerID, o.SellerType,
		o.CreditCardID, o.FulfillmentType, shipping,
		o.BuyerTotalCents, o.SellerTotalCents, o.ShippingTotalCents, o.TaxTotalCents, o.CommissionFeeCents,
		o.ExternalChargeID, o.LastOfferID, o.StateUpdatedAt, o.StateExpiresAt, o.CreatedAt, o.UpdatedAt)
	if err != nil {
		return err
	}

	batch := &pgx.Batch{}
	for _, li := range o.LineItems {
		batch.Queue(`INSERT INTO line_items (id, order_id, artwork_id, artwork_version_id, price_cents, sales_tax_cents, should_remit_sales_tax)
			VALUES ($1,$2,$3,$4,$5,$6,$7)
			ON CONFLICT (id) DO UPDATE SET price_cents=$5, sales_tax_cents=$6, should_remit_sales_tax=$7`,
			li.ID, o.ID, li.ArtworkID, li.ArtworkVersionID, li.PriceCents, li.SalesTaxCents, li.ShouldRemitSalesTax)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *Repository) Get(ctx context.Context, id string) (*domain.Order, error) {
	var (
		o        domain.Order
		shipping []byte
	)
	err := r.pool.QueryRow(ctx, `SELECT id, state, currency_code, buyer_id, buyer_type, seller_id, seller_type,
			credit_card_id, fulfillment_type, shipping,
			buyer_total_cents, seller_total_cents, shipping_total_cents, tax_total_cents, commission_fee_cents,
			external_charge_id, last_offer_id, state_updated_at, state_expires_at, created_at, updated_at
		FROM orders WHERE id=$1`, id).Scan(
		&o.ID, &o.State, &o.CurrencyCode, &o.BuyerID, &o.BuyerType, &o.SellerID, &o.SellerType,
		&o.CreditCardID, &o.FulfillmentType, &shipping,
		&o.BuyerTotalCents, &o.SellerTotalCents, &o.ShippingTotalCents, &o.TaxTotalCents, &o.CommissionFeeCents,
		&o.ExternalChargeID, &o.LastOfferID, &o.StateUpdatedAt, &o.StateExpiresAt, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("order %s: %w", id, application.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(shipping, &o.Shipping); err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx, `SELECT id, artwork_id, artwork_version_id, price_cents, sales_tax_cents, should_remit_sales_tax
		FROM line_items WHERE order_id=$1 ORDER BY id`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		li := domain.LineItem{OrderID: o.ID}
		if err := rows.Scan(&li.ID, &li.ArtworkID, &li.ArtworkVersionID, &li.PriceCents, &li.SalesTaxCents, &li.ShouldRemitSalesTax); err != nil {
			return nil, err
		}
		o.LineItems = append(o.LineItems, li)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	txns, err := r.pool.Query(ctx, `SELECT id, external_id, status, failure_message, created_at
		FROM transactions WHERE order_id=$1 ORDER BY created_at`, id)
	if err != nil {
		return nil, err
	}
	defer txns.Close()
	for txns.Next() {
		t := domain.Transaction{OrderID: o.ID}
		if err := txns.Scan(&t.ID, &t.ExternalID, &t.Status, &t.FailureMessage, &t.CreatedAt); err != nil {
			return nil, err
		}
		o.Transactions = append(o.Transactions, t)
	}
	return &o, txns.Err()
}

// AppendTransaction records the attempt's audit row. Transactions are
// append-only and immutable once written.
func (r *Repository) AppendTransaction(ctx context.Context, o *domain.Order, txn domain.Transaction) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO transactions (id, order_id, external_id, status, failure_message, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		txn.ID, o.ID, txn.ExternalID, txn.Status, txn.FailureMessage, txn.CreatedAt)
	return err
}
