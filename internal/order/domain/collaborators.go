package domain

import "time"

// Read-only snapshots fetched from external collaborators for the duration of
// one commit attempt. None of these are persisted here.

type Artwork struct {
	ID                            string
	CurrentVersionID              string
	DomesticShippingFeeCents      int64
	InternationalShippingFeeCents int64
	// Location is the ISO country code the artwork ships from; a matching
	// destination country uses the domestic fee.
	Location string
}

type Partner struct {
	ID                      string
	Name                    string
	EffectiveCommissionRate string
	BillingLocationID       string
}

type CustomerAccount struct {
	ExternalID string
}

type CreditCard struct {
	ID              string
	ExternalID      string
	DeactivatedAt   *time.Time
	CustomerAccount CustomerAccount
}

type MerchantAccount struct {
	ID         string
	ExternalID string
}

// TaxCalculation is the per-line-item result from the tax collaborator.
type TaxCalculation struct {
	SalesTaxCents       int64
	ShouldRemitSalesTax bool
}
