package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/artmarket/exchange/internal/order/application"
	"github.com/artmarket/exchange/internal/order/domain"
)

// Handler is the JSON adapter over the order workflows. It owns no domain
// logic: it loads aggregates, invokes a workflow, and translates typed domain
// errors into error payloads.
type Handler struct {
	log      *slog.Logger
	orders   application.OrderRepository
	offers   application.OfferRepository
	commit   *application.CommitService
	shipping *application.ShippingService
	offerSvc *application.OfferService
	tracer   trace.Tracer
}

func NewHandler(
	log *slog.Logger,
	orders application.OrderRepository,
	offers application.OfferRepository,
	commit *application.CommitService,
	shipping *application.ShippingService,
	offerSvc *application.OfferService,
) *Handler {
	return &Handler{
		log:      log,
		orders:   orders,
		offers:   offers,
		commit:   commit,
		shipping: shipping,
		offerSvc: offerSvc,
		tracer:   otel.Tracer("order-http"),
	}
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Get("/orders/{id}", h.getOrder)
	r.Post("/orders/{id}/submit", h.submitOrder)
	r.Post("/orders/{id}/shipping", h.setShipping)
	r.Post("/offers/{id}/submit", h.submitOffer)
	return r
}

func (h *Handler) submitOrder(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "SubmitOrder")
	defer span.End()

	order, err := h.orders.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.writeRepositoryError(w, err, "order_not_found")
		return
	}

	actor := r.Header.Get("X-User-ID")
	order, err = h.commit.Commit(ctx, order, domain.ActionSubmit, actor)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, orderPayload(order))
}

type setShippingRequest struct {
	FulfillmentType domain.FulfillmentType `json:"fulfillment_type"`
	Shipping        domain.Address         `json:"shipping"`
}

func (h *Handler) setShipping(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "SetShipping")
	defer span.End()

	var req setShippingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", nil)
		return
	}
	if req.FulfillmentType != domain.FulfillmentShip && req.FulfillmentType != domain.FulfillmentPickup {
		writeError(w, http.StatusBadRequest, "invalid_fulfillment_type", nil)
		return
	}

	order, err := h.shipping.SetShipping(ctx, chi.URLParam(r, "id"), req.FulfillmentType, req.Shipping)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, orderPayload(order))
}

func (h *Handler) submitOffer(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "SubmitOffer")
	defer span.End()

	offer, err := h.offers.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.writeRepositoryError(w, err, "offer_not_found")
		return
	}
	if err := h.offerSvc.Submit(ctx, offer); err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"offer_id": offer.ID, "order_id": offer.OrderID})
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.orders.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeRepositoryError(w, err, "order_not_found")
		return
	}
	writeJSON(w, http.StatusOK, orderPayload(order))
}

// writeRepositoryError maps a missing aggregate to 404; anything else is a
// storage failure, not the caller's fault.
func (h *Handler) writeRepositoryError(w http.ResponseWriter, err error, notFoundKind string) {
	if errors.Is(err, application.ErrNotFound) {
		writeError(w, http.StatusNotFound, notFoundKind, nil)
		return
	}
	h.log.Error("repository error", "err", err)
	writeError(w, http.StatusInternalServerError, "internal_error", nil)
}

func (h *Handler) writeDomainError(w http.ResponseWriter, err error) {
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		writeError(w, http.StatusUnprocessableEntity, ve.Kind, ve.Meta)
		return
	}
	var pe *domain.ProcessingError
	if errors.As(err, &pe) {
		writeError(w, http.StatusConflict, pe.Kind, nil)
		return
	}
	if errors.Is(err, application.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not_found", nil)
		return
	}
	h.log.Error("request failed", "err", err)
	writeError(w, http.StatusInternalServerError, "internal_error", nil)
}

type orderResponse struct {
	ID                 string                 `json:"id"`
	State              domain.State           `json:"state"`
	FulfillmentType    domain.FulfillmentType `json:"fulfillment_type,omitempty"`
	Shipping           domain.Address         `json:"shipping"`
	BuyerTotalCents    int64                  `json:"buyer_total_cents"`
	SellerTotalCents   int64                  `json:"seller_total_cents"`
	ShippingTotalCents int64                  `json:"shipping_total_cents"`
	TaxTotalCents      int64                  `json:"tax_total_cents"`
	CommissionFeeCents int64                  `json:"commission_fee_cents"`
	ExternalChargeID   string                 `json:"external_charge_id,omitempty"`
}

func orderPayload(o *domain.Order) orderResponse {
	return orderResponse{
		ID:                 o.ID,
		State:              o.State,
		FulfillmentType:    o.FulfillmentType,
		Shipping:           o.Shipping,
		BuyerTotalCents:    o.BuyerTotalCents,
		SellerTotalCents:   o.SellerTotalCents,
		ShippingTotalCents: o.ShippingTotalCents,
		TaxTotalCents:      o.TaxTotalCents,
		CommissionFeeCents: o.CommissionFeeCents,
		ExternalChargeID:   o.ExternalChargeID,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, kind string, meta map[string]string) {
	writeJSON(w, status, map[string]any{"error": map[string]any{"kind": kind, "meta": meta}})
}
