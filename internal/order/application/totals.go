package application

import (
	"context"
	"fmt"
	"math"

	"github.com/artmarket/exchange/internal/order/domain"
)

// SellerSplit decides how much of the buyer total the seller receives. The
// apportioning of shipping and tax between buyer and seller is business
// policy, so it is injected rather than hard-coded.
type SellerSplit func(buyerTotal, shippingTotal, taxTotal, commissionFee int64) int64

// DefaultSellerSplit has the seller bear the commission fee only; shipping and
// tax are collected from the buyer and passed through.
func DefaultSellerSplit(buyerTotal, shippingTotal, taxTotal, commissionFee int64) int64 {
	return buyerTotal - commissionFee
}

// TotalsCalculator derives order totals. RecalculateShippingAndTax resolves
// shipping fees and per-item taxes against the collaborators;
// UpdateTotals folds the stored shipping/tax/commission figures into buyer and
// seller totals. Both are idempotent on unchanged inputs.
type TotalsCalculator struct {
	artworks ArtworkService
	partners PartnerService
	tax      TaxService
	split    SellerSplit
}

func NewTotalsCalculator(artworks ArtworkService, partners PartnerService, tax TaxService, split SellerSplit) *TotalsCalculator {
	if split == nil {
		split = DefaultSellerSplit
	}
	return &TotalsCalculator{artworks: artworks, partners: partners, tax: tax, split: split}
}

// RecalculateShippingAndTax refreshes ShippingTotalCents, TaxTotalCents and
// the per-line-item tax fields from the artwork and tax collaborators.
func (c *TotalsCalculator) RecalculateShippingAndTax(ctx context.Context, o *domain.Order, partner domain.Partner) error {
	shipping, err := c.shippingTotal(ctx, o)
	if err != nil {
		return err
	}

	origin, err := c.partners.FetchPartnerLocation(ctx, partner.BillingLocationID)
	if err != nil {
		return fmt.Errorf("fetch partner location: %w", err)
	}

	var taxTotal int64
	for i := range o.LineItems {
		calc, err := c.tax.CalculateLineItemTax(ctx, o.LineItems[i], origin, o.Shipping, o.FulfillmentType)
		if err != nil {
			return fmt.Errorf("calculate tax for line item %s: %w", o.LineItems[i].ID, err)
		}
		o.LineItems[i].SalesTaxCents = calc.SalesTaxCents
		o.LineItems[i].ShouldRemitSalesTax = calc.ShouldRemitSalesTax
		taxTotal += calc.SalesTaxCents
	}

	o.ShippingTotalCents = shipping
	o.TaxTotalCents = taxTotal
	return nil
}

// UpdateTotals recomputes commission fee and buyer/seller totals from the
// order's line items and its current shipping and tax totals.
func (c *TotalsCalculator) UpdateTotals(o *domain.Order, commissionRate float64) {
	subtotal := o.ItemsTotalCents()
	o.CommissionFeeCents = commissionFee(subtotal, commissionRate)
	o.BuyerTotalCents = subtotal + o.ShippingTotalCents + o.TaxTotalCents
	o.SellerTotalCents = c.split(o.BuyerTotalCents, o.ShippingTotalCents, o.TaxTotalCents, o.CommissionFeeCents)
}

func (c *TotalsCalculator) shippingTotal(ctx context.Context, o *domain.Order) (int64, error) {
	if o.FulfillmentType == domain.FulfillmentPickup {
		return 0, nil
	}
	var total int64
	for _, li := range o.LineItems {
		artwork, err := c.artworks.GetArtwork(ctx, li.ArtworkID)
		if err != nil {
			return 0, fmt.Errorf("get artwork %s: %w", li.ArtworkID, err)
		}
		// A zero fee marks free shipping and contributes nothing.
		if o.Shipping.Country == artwork.Location {
			total += artwork.DomesticShippingFeeCents
		} else {
			total += artwork.InternationalShippingFeeCents
		}
	}
	return total, nil
}

func commissionFee(subtotalCents int64, rate float64) int64 {
	return int64(math.Round(float64(subtotalCents) * rate))
}
