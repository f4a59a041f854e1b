// Package tax is the client for the sales-tax collaborator.
package tax

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/artmarket/exchange/internal/order/domain"
)

type Client struct {
	log   *slog.Logger
	base  string
	token string
	http  *http.Client
}

func NewClient(log *slog.Logger, baseURL, token string) *Client {
	return &Client{
		log:   log,
		base:  baseURL,
		token: token,
		http:  &http.Client{Timeout: 10 * time.Second},
	}
}

type taxRequest struct {
	AmountCents     int64          `json:"amount_cents"`
	FulfillmentType string         `json:"fulfillment_type"`
	Origin          domain.Address `json:"origin"`
	Destination     domain.Address `json:"destination"`
}

type taxResponse struct {
	AmountToCollectCents int64 `json:"amount_to_collect_cents"`
	Remit                bool  `json:"remit"`
}

// CalculateLineItemTax prices one line item given the partner's billing
// location as origin and the order's ship-to as destination.
func (c *Client) CalculateLineItemTax(ctx context.Context, li domain.LineItem, origin, destination domain.Address, fulfillment domain.FulfillmentType) (domain.TaxCalculation, error) {
	payload, err := json.Marshal(taxRequest{
		AmountCents:     li.PriceCents,
		FulfillmentType: string(fulfillment),
		Origin:          origin,
		Destination:     destination,
	})
	if err != nil {
		return domain.TaxCalculation{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/sales_tax", bytes.NewReader(payload))
	if err != nil {
		return domain.TaxCalculation{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return domain.TaxCalculation{}, fmt.Errorf("calculate tax: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return domain.TaxCalculation{}, fmt.Errorf("calculate tax: status %d: %s", resp.StatusCode, msg)
	}

	var out taxResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return domain.TaxCalculation{}, err
	}
	return domain.TaxCalculation{
		SalesTaxCents:       out.AmountToCollectCents,
		ShouldRemitSalesTax: out.Remit,
	}, nil
}
