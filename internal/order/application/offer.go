package application

import (
	"context"
	"log/slog"
	"time"

	"github.com/artmarket/exchange/internal/order/domain"
)

// OfferService submits a negotiated offer: marks it submitted, copies its
// totals onto the order and its first line item, and recomputes order totals
// so they reflect the negotiated amounts.
type OfferService struct {
	log      *slog.Logger
	offers   OfferRepository
	orders   OrderRepository
	partners PartnerService
	totals   *TotalsCalculator
}

func NewOfferService(log *slog.Logger, offers OfferRepository, orders OrderRepository, partners PartnerService, totals *TotalsCalculator) *OfferService {
	return &OfferService{log: log, offers: offers, orders: orders, partners: partners, totals: totals}
}

func (s *OfferService) Submit(ctx context.Context, offer *domain.Offer) error {
	if offer.Submitted() {
		return domain.NewValidationError(domain.KindInvalidOffer, map[string]string{"offer_id": offer.ID})
	}

	order, err := s.orders.Get(ctx, offer.OrderID)
	if err != nil {
		return err
	}
	partner, err := s.partners.FetchPartner(ctx, order.SellerID)
	if err != nil {
		return err
	}
	rate, err := AssertCommissionRate(partner)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	offer.SubmittedAt = &now

	// Offer orders carry a single lot; the negotiated amount replaces its price.
	if len(order.LineItems) > 0 {
		order.LineItems[0].PriceCents = offer.AmountCents
		order.LineItems[0].SalesTaxCents = offer.TaxTotalCents
		order.LineItems[0].ShouldRemitSalesTax = offer.ShouldRemitSalesTax
	}
	order.ShippingTotalCents = offer.ShippingTotalCents
	order.TaxTotalCents = offer.TaxTotalCents
	order.LastOfferID = offer.ID
	s.totals.UpdateTotals(order, rate)

	if err := s.offers.Save(ctx, offer); err != nil {
		return err
	}
	if err := s.orders.Save(ctx, order); err != nil {
		return err
	}
	s.log.Info("offer submitted", "offer_id", offer.ID, "order_id", order.ID)
	return nil
}
