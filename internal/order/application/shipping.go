package application

import (
	"context"
	"log/slog"

	"github.com/artmarket/exchange/internal/order/domain"
)

// ShippingService sets the fulfillment choice and destination on a pending
// order and refreshes shipping, tax and the derived totals.
type ShippingService struct {
	log      *slog.Logger
	orders   OrderRepository
	partners PartnerService
	totals   *TotalsCalculator
}

func NewShippingService(log *slog.Logger, orders OrderRepository, partners PartnerService, totals *TotalsCalculator) *ShippingService {
	return &ShippingService{log: log, orders: orders, partners: partners, totals: totals}
}

// SetShipping is only legal while the order is PENDING; any other state is
// rejected without mutation.
func (s *ShippingService) SetShipping(ctx context.Context, orderID string, fulfillment domain.FulfillmentType, shipTo domain.Address) (*domain.Order, error) {
	order, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.State != domain.StatePending {
		return nil, domain.NewValidationError(domain.KindInvalidState, map[string]string{
			"order_id": order.ID,
			"state":    string(order.State),
		})
	}

	order.FulfillmentType = fulfillment
	order.Shipping = shipTo

	partner, err := s.partners.FetchPartner(ctx, order.SellerID)
	if err != nil {
		return nil, err
	}
	if err := s.totals.RecalculateShippingAndTax(ctx, order, partner); err != nil {
		return nil, err
	}
	// Commission may be absent while the order is still pending.
	s.totals.UpdateTotals(order, CommissionRate(partner))
	order.TouchStateExpiration()

	if err := s.orders.Save(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}
