package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/artmarket/exchange/internal/order/application"
	"github.com/artmarket/exchange/internal/order/domain"
)

type OfferRepository struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewOfferRepository(log *slog.Logger, pool *pgxpool.Pool) *OfferRepository {
	return &OfferRepository{log: log, pool: pool}
}

func (r *OfferRepository) Get(ctx context.Context, id string) (*domain.Offer, error) {
	var o domain.Offer
	err := r.pool.QueryRow(ctx, `SELECT id, order_id, amount_cents, shipping_total_cents, tax_total_cents,
			should_remit_sales_tax, submitted_at, created_at
		FROM offers WHERE id=$1`, id).Scan(
		&o.ID, &o.OrderID, &o.AmountCents, &o.ShippingTotalCents, &o.TaxTotalCents,
		&o.ShouldRemitSalesTax, &o.SubmittedAt, &o.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("offer %s: %w", id, application.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *OfferRepository) Save(ctx context.Context, o *domain.Offer) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO offers (id, order_id, amount_cents, shipping_total_cents, tax_total_cents,
			should_remit_sales_tax, submitted_at, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		ON CONFLICT (id) DO UPDATE SET amount_cents=$3, shipping_total_cents=$4, tax_total_cents=$5,
			should_remit_sales_tax=$6, submitted_at=$7`,
		o.ID, o.OrderID, o.AmountCents, o.ShippingTotalCents, o.TaxTotalCents,
		o.ShouldRemitSalesTax, o.SubmittedAt, o.CreatedAt)
	return err
}
