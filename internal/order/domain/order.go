package domain

import (
	"time"

	"github.com/google/uuid"
)

type FulfillmentType string

const (
	FulfillmentShip   FulfillmentType = "SHIP"
	FulfillmentPickup FulfillmentType = "PICKUP"
)

// Address is a shipping destination or a partner billing location.
type Address struct {
	Name         string `json:"name,omitempty"`
	Country      string `json:"country"`
	City         string `json:"city"`
	Region       string `json:"region"`
	PostalCode   string `json:"postal_code"`
	AddressLine1 string `json:"address_line1"`
	AddressLine2 string `json:"address_line2,omitempty"`
}

type LineItem struct {
	ID                  string
	OrderID             string
	ArtworkID           string
	ArtworkVersionID    string
	PriceCents          int64
	SalesTaxCents       int64
	ShouldRemitSalesTax bool
}

// Order is the aggregate mutated by the commit and offer workflows. All
// monetary fields are currency minor units.
type Order struct {
	ID           string
	State        State
	CurrencyCode string

	BuyerID    string
	BuyerType  string
	SellerID   string
	SellerType string

	CreditCardID string

	FulfillmentType FulfillmentType
	Shipping        Address
	LineItems       []LineItem

	BuyerTotalCents    int64
	SellerTotalCents   int64
	ShippingTotalCents int64
	TaxTotalCents      int64
	CommissionFeeCents int64

	ExternalChargeID string
	LastOfferID      string
	Transactions     []Transaction

	StateUpdatedAt time.Time
	StateExpiresAt time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func NewOrder(buyerID, buyerType, sellerID, sellerType, currency string, items []LineItem) *Order {
	now := time.Now().UTC()
	o := &Order{
		ID:             uuid.NewString(),
		State:          StatePending,
		CurrencyCode:   currency,
		BuyerID:        buyerID,
		BuyerType:      buyerType,
		SellerID:       sellerID,
		SellerType:     sellerType,
		LineItems:      items,
		StateUpdatedAt: now,
		StateExpiresAt: now.Add(StateExpiry),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	for i := range o.LineItems {
		if o.LineItems[i].ID == "" {
			o.LineItems[i].ID = uuid.NewString()
		}
		o.LineItems[i].OrderID = o.ID
	}
	return o
}

// ItemsTotalCents is the buyer-side subtotal before shipping and tax.
func (o *Order) ItemsTotalCents() int64 {
	var total int64
	for _, li := range o.LineItems {
		total += li.PriceCents
	}
	return total
}

// AuctionSeller reports whether the order originated from an auction seller,
// which drives the sale-type tag on charge metadata.
func (o *Order) AuctionSeller() bool {
	return o.SellerType == "auction"
}

// TouchStateExpiration restamps the expiry window against the current state
// timestamp without changing state.
func (o *Order) TouchStateExpiration() {
	o.StateExpiresAt = o.StateUpdatedAt.Add(StateExpiry)
}
