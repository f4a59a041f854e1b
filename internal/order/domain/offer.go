package domain

import "time"

// Offer is a negotiated counter-price against an order. Its totals are copied
// onto the order when the offer is submitted.
type Offer struct {
	ID                  string
	OrderID             string
	AmountCents         int64
	ShippingTotalCents  int64
	TaxTotalCents       int64
	ShouldRemitSalesTax bool
	SubmittedAt         *time.Time
	CreatedAt           time.Time
}

func (o *Offer) Submitted() bool { return o.SubmittedAt != nil }
