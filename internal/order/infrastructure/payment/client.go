// Package payment is the client for the payment processor. A declined charge
// is reported as a failed Transaction; errors are reserved for transport
// failures, which the orchestrator treats as fatal to the attempt.
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/artmarket/exchange/internal/order/application"
	"github.com/artmarket/exchange/internal/order/domain"
)

type Client struct {
	log    *slog.Logger
	base   string
	apiKey string
	http   *http.Client
}

func NewClient(log *slog.Logger, baseURL, apiKey string) *Client {
	return &Client{
		log:    log,
		base:   baseURL,
		apiKey: apiKey,
		http:   &http.Client{Timeout: 30 * time.Second},
	}
}

type chargeRequest struct {
	SourceID      string            `json:"source_id"`
	CustomerID    string            `json:"customer_id"`
	DestinationID string            `json:"destination_id"`
	AmountCents   int64             `json:"amount_cents"`
	SellerCents   int64             `json:"seller_amount_cents"`
	CurrencyCode  string            `json:"currency_code"`
	Description   string            `json:"description"`
	Metadata      map[string]string `json:"metadata"`
	Capture       bool              `json:"capture"`
}

type chargeResponse struct {
	ID             string `json:"id"`
	Status         string `json:"status"`
	FailureMessage string `json:"failure_message"`
}

func (c *Client) Charge(ctx context.Context, params application.ChargeParams) (domain.Transaction, error) {
	payload, err := json.Marshal(chargeRequest{
		SourceID:      params.CreditCard.ExternalID,
		CustomerID:    params.CreditCard.CustomerAccount.ExternalID,
		DestinationID: params.MerchantAccount.ExternalID,
		AmountCents:   params.BuyerAmountCents,
		SellerCents:   params.SellerAmountCents,
		CurrencyCode:  params.CurrencyCode,
		Description:   params.Description,
		Metadata:      params.Metadata,
		Capture:       params.Capture,
	})
	if err != nil {
		return domain.Transaction{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/charges", bytes.NewReader(payload))
	if err != nil {
		return domain.Transaction{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("submit charge: %w", err)
	}
	defer resp.Body.Close()

	var out chargeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return domain.Transaction{}, fmt.Errorf("decode charge response: %w", err)
	}

	txn := domain.Transaction{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
	}
	if resp.StatusCode == http.StatusOK && out.Status == "succeeded" {
		txn.Status = domain.TransactionSuccess
		txn.ExternalID = out.ID
		return txn, nil
	}

	txn.Status = domain.TransactionFailed
	txn.FailureMessage = out.FailureMessage
	if txn.FailureMessage == "" {
		txn.FailureMessage = fmt.Sprintf("charge declined with status %q", out.Status)
	}
	c.log.Warn("charge declined", "status", out.Status, "http_status", resp.StatusCode)
	return txn, nil
}
