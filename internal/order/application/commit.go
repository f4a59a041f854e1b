package application

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/artmarket/exchange/internal/order/domain"
	"github.com/artmarket/exchange/pkg/metrics"
)

// CommitService runs the order-commit saga: validate preconditions, refresh
// totals, deduct inventory per line item, charge payment, and reverse the
// deducted prefix on any failure. Exactly one Transaction is appended per
// attempt in which a charge was submitted.
type CommitService struct {
	log       *slog.Logger
	orders    OrderRepository
	artworks  ArtworkService
	inventory *InventoryCoordinator
	partners  PartnerService
	cards     CreditCardService
	merchants MerchantAccountService
	payments  *PaymentProcessor
	totals    *TotalsCalculator
	notifier  ChargeNotifier
	metrics   *metrics.CommitMetrics
	tracer    trace.Tracer
}

func NewCommitService(
	log *slog.Logger,
	orders OrderRepository,
	artworks ArtworkService,
	inventory *InventoryCoordinator,
	partners PartnerService,
	cards CreditCardService,
	merchants MerchantAccountService,
	payments *PaymentProcessor,
	totals *TotalsCalculator,
	notifier ChargeNotifier,
	m *metrics.CommitMetrics,
) *CommitService {
	return &CommitService{
		log:       log,
		orders:    orders,
		artworks:  artworks,
		inventory: inventory,
		partners:  partners,
		cards:     cards,
		merchants: merchants,
		payments:  payments,
		totals:    totals,
		notifier:  notifier,
		metrics:   m,
		tracer:    otel.Tracer("order-commit"),
	}
}

// Commit drives one commit attempt for the given transition action. On
// success the order carries the external charge id and the new state; on
// failure every inventory deduction made so far has been reversed and the
// original error propagates.
func (s *CommitService) Commit(ctx context.Context, order *domain.Order, action domain.Action, actor string) (*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "CommitOrder")
	defer span.End()

	// Guard before any side effect so an illegal transition touches nothing.
	if _, ok := domain.NextState(order.State, action); !ok {
		s.metrics.Attempts.WithLabelValues("rejected").Inc()
		return nil, domain.NewValidationError(domain.KindInvalidTransition, map[string]string{
			"order_id": order.ID,
			"state":    string(order.State),
			"action":   string(action),
		})
	}

	card, merchant, partner, err := s.preProcess(ctx, order)
	if err != nil {
		s.metrics.Attempts.WithLabelValues("failed").Inc()
		return nil, err
	}

	var txn *domain.Transaction
	deducted := make([]domain.LineItem, 0, len(order.LineItems))

	err = order.Transition(action, func() error {
		for _, li := range order.LineItems {
			if err := s.inventory.Deduct(ctx, li); err != nil {
				return err
			}
			deducted = append(deducted, li)
		}
		t, err := s.payments.Charge(ctx, order, card, merchant, partner, action == domain.ActionApprove)
		if err != nil {
			return err
		}
		txn = &t
		if t.Failed() {
			return domain.NewProcessingError(domain.KindChargeFailed, errors.New(t.FailureMessage))
		}
		return nil
	})

	if err != nil {
		s.inventory.UndeductAll(ctx, deducted)
		s.recordTransaction(ctx, order, txn, actor)
		s.metrics.Attempts.WithLabelValues("failed").Inc()
		return nil, err
	}

	order.ExternalChargeID = txn.ExternalID
	s.recordTransaction(ctx, order, txn, actor)
	if err := s.orders.Save(ctx, order); err != nil {
		s.metrics.Attempts.WithLabelValues("failed").Inc()
		return nil, err
	}
	s.metrics.Attempts.WithLabelValues("succeeded").Inc()
	return order, nil
}

// preProcess runs every check that must pass before inventory is touched:
// artwork version freshness, credit card validity, commission rate, merchant
// account, then a totals refresh so the charge never sees stale totals.
func (s *CommitService) preProcess(ctx context.Context, order *domain.Order) (domain.CreditCard, domain.MerchantAccount, domain.Partner, error) {
	var (
		card     domain.CreditCard
		merchant domain.MerchantAccount
		partner  domain.Partner
	)

	for _, li := range order.LineItems {
		artwork, err := s.artworks.GetArtwork(ctx, li.ArtworkID)
		if err != nil {
			return card, merchant, partner, err
		}
		if artwork.CurrentVersionID != li.ArtworkVersionID {
			s.metrics.ArtworkVersionMismatches.Inc()
			return card, merchant, partner, domain.NewProcessingError(domain.KindArtworkVersionMismatch, nil)
		}
	}

	card, err := s.cards.GetCreditCard(ctx, order.CreditCardID)
	if err != nil {
		return card, merchant, partner, err
	}
	if err := AssertChargeable(card); err != nil {
		return card, merchant, partner, err
	}

	partner, err = s.partners.FetchPartner(ctx, order.SellerID)
	if err != nil {
		return card, merchant, partner, err
	}
	rate, err := AssertCommissionRate(partner)
	if err != nil {
		return card, merchant, partner, err
	}

	merchant, err = s.merchants.GetMerchantAccount(ctx, order.SellerID)
	if err != nil {
		return card, merchant, partner, err
	}

	s.totals.UpdateTotals(order, rate)
	return card, merchant, partner, nil
}

// recordTransaction appends the attempt's audit record, if a charge was
// submitted, and enqueues the failed-charge notification when it was declined.
// Bookkeeping failures are logged, not propagated: they must not mask the
// outcome of the attempt itself.
func (s *CommitService) recordTransaction(ctx context.Context, order *domain.Order, txn *domain.Transaction, actor string) {
	if txn == nil {
		return
	}
	order.Transactions = append(order.Transactions, *txn)
	if err := s.orders.AppendTransaction(ctx, order, *txn); err != nil {
		s.log.Error("transaction append failed", "order_id", order.ID, "transaction_id", txn.ID, "err", err)
	}
	if txn.Failed() {
		if err := s.notifier.NotifyFailedCharge(ctx, *txn, actor); err != nil {
			s.log.Error("failed charge notification enqueue failed", "transaction_id", txn.ID, "err", err)
		}
	}
}
