package application

import (
	"context"
	"errors"

	"github.com/artmarket/exchange/internal/order/domain"
)

// ErrNotFound is returned by repository Gets for a missing aggregate, so
// adapters can tell an absent row from a storage failure.
var ErrNotFound = errors.New("not found")

// Collaborator contracts consumed by the workflows. Every external side effect
// goes through one of these so tests can substitute doubles.

type ArtworkService interface {
	GetArtwork(ctx context.Context, id string) (domain.Artwork, error)
}

type InventoryService interface {
	DeductInventory(ctx context.Context, li domain.LineItem) error
	UndeductInventory(ctx context.Context, li domain.LineItem) error
}

type PartnerService interface {
	FetchPartner(ctx context.Context, sellerID string) (domain.Partner, error)
	FetchPartnerLocation(ctx context.Context, locationID string) (domain.Address, error)
}

type CreditCardService interface {
	GetCreditCard(ctx context.Context, id string) (domain.CreditCard, error)
}

type MerchantAccountService interface {
	GetMerchantAccount(ctx context.Context, sellerID string) (domain.MerchantAccount, error)
}

type TaxService interface {
	CalculateLineItemTax(ctx context.Context, li domain.LineItem, origin, destination domain.Address, fulfillment domain.FulfillmentType) (domain.TaxCalculation, error)
}

// PaymentService submits a charge. A declined charge is a failed Transaction,
// not an error; errors are reserved for transport-level failures.
type PaymentService interface {
	Charge(ctx context.Context, params ChargeParams) (domain.Transaction, error)
}

// ChargeNotifier enqueues an asynchronous failed-charge notification.
type ChargeNotifier interface {
	NotifyFailedCharge(ctx context.Context, txn domain.Transaction, actor string) error
}

type OrderRepository interface {
	Get(ctx context.Context, id string) (*domain.Order, error)
	Save(ctx context.Context, o *domain.Order) error
	AppendTransaction(ctx context.Context, o *domain.Order, txn domain.Transaction) error
}

type OfferRepository interface {
	Get(ctx context.Context, id string) (*domain.Offer, error)
	Save(ctx context.Context, offer *domain.Offer) error
}
