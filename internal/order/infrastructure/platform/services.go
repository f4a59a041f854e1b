package platform

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/artmarket/exchange/internal/order/domain"
)

type artworkPayload struct {
	ID                            string `json:"_id"`
	CurrentVersionID              string `json:"current_version_id"`
	DomesticShippingFeeCents      int64  `json:"domestic_shipping_fee_cents"`
	InternationalShippingFeeCents int64  `json:"international_shipping_fee_cents"`
	Location                      struct {
		Country string `json:"country"`
	} `json:"location"`
}

func (c *Client) GetArtwork(ctx context.Context, id string) (domain.Artwork, error) {
	var p artworkPayload
	if err := c.getJSON(ctx, "/artwork/"+esc(id), &p); err != nil {
		return domain.Artwork{}, fmt.Errorf("get artwork: %w", err)
	}
	return domain.Artwork{
		ID:                            p.ID,
		CurrentVersionID:              p.CurrentVersionID,
		DomesticShippingFeeCents:      p.DomesticShippingFeeCents,
		InternationalShippingFeeCents: p.InternationalShippingFeeCents,
		Location:                      p.Location.Country,
	}, nil
}

type inventoryAdjustment struct {
	Deduct   int `json:"deduct,omitempty"`
	Undeduct int `json:"undeduct,omitempty"`
}

func (c *Client) DeductInventory(ctx context.Context, li domain.LineItem) error {
	err := c.do(ctx, http.MethodPut, "/artwork/"+esc(li.ArtworkID)+"/inventory", inventoryAdjustment{Deduct: 1}, nil)
	if err != nil {
		return fmt.Errorf("deduct inventory: %w", err)
	}
	return nil
}

func (c *Client) UndeductInventory(ctx context.Context, li domain.LineItem) error {
	err := c.do(ctx, http.MethodPut, "/artwork/"+esc(li.ArtworkID)+"/inventory", inventoryAdjustment{Undeduct: 1}, nil)
	if err != nil {
		return fmt.Errorf("undeduct inventory: %w", err)
	}
	return nil
}

type partnerPayload struct {
	ID                      string `json:"_id"`
	Name                    string `json:"name"`
	EffectiveCommissionRate string `json:"effective_commission_rate"`
	BillingLocationID       string `json:"billing_location_id"`
}

func (c *Client) FetchPartner(ctx context.Context, sellerID string) (domain.Partner, error) {
	var p partnerPayload
	if err := c.getJSON(ctx, "/partner/"+esc(sellerID)+"/all", &p); err != nil {
		return domain.Partner{}, fmt.Errorf("fetch partner: %w", err)
	}
	return domain.Partner{
		ID:                      p.ID,
		Name:                    p.Name,
		EffectiveCommissionRate: p.EffectiveCommissionRate,
		BillingLocationID:       p.BillingLocationID,
	}, nil
}

func (c *Client) FetchPartnerLocation(ctx context.Context, locationID string) (domain.Address, error) {
	var addr domain.Address
	if err := c.getJSON(ctx, "/partner_location/"+esc(locationID), &addr); err != nil {
		return domain.Address{}, fmt.Errorf("fetch partner location: %w", err)
	}
	return addr, nil
}

type creditCardPayload struct {
	ID              string     `json:"_id"`
	ExternalID      string     `json:"external_id"`
	DeactivatedAt   *time.Time `json:"deactivated_at"`
	CustomerAccount struct {
		ExternalID string `json:"external_id"`
	} `json:"customer_account"`
}

func (c *Client) GetCreditCard(ctx context.Context, id string) (domain.CreditCard, error) {
	var p creditCardPayload
	if err := c.getJSON(ctx, "/credit_card/"+esc(id), &p); err != nil {
		return domain.CreditCard{}, fmt.Errorf("get credit card: %w", err)
	}
	return domain.CreditCard{
		ID:              p.ID,
		ExternalID:      p.ExternalID,
		DeactivatedAt:   p.DeactivatedAt,
		CustomerAccount: domain.CustomerAccount{ExternalID: p.CustomerAccount.ExternalID},
	}, nil
}

type merchantAccountPayload struct {
	ID         string `json:"_id"`
	ExternalID string `json:"external_id"`
}

func (c *Client) GetMerchantAccount(ctx context.Context, sellerID string) (domain.MerchantAccount, error) {
	var list []merchantAccountPayload
	if err := c.getJSON(ctx, "/merchant_accounts?partner_id="+esc(sellerID), &list); err != nil {
		return domain.MerchantAccount{}, fmt.Errorf("get merchant account: %w", err)
	}
	if len(list) == 0 {
		return domain.MerchantAccount{}, fmt.Errorf("get merchant account: none for seller %s", sellerID)
	}
	return domain.MerchantAccount{ID: list[0].ID, ExternalID: list[0].ExternalID}, nil
}
