package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/artmarket/exchange/internal/order/domain"
	"github.com/artmarket/exchange/pkg/metrics"
)

// Test doubles for the collaborator ports. They record call order so tests
// can assert on deduction and compensation sequencing.

type stubArtworks struct {
	artworks map[string]domain.Artwork
	err      error
}

func (s *stubArtworks) GetArtwork(_ context.Context, id string) (domain.Artwork, error) {
	if s.err != nil {
		return domain.Artwork{}, s.err
	}
	a, ok := s.artworks[id]
	if !ok {
		return domain.Artwork{}, fmt.Errorf("artwork %s not found", id)
	}
	return a, nil
}

type stubInventory struct {
	deducted     []string
	undeducted   []string
	deductCalls  int
	failDeductAt int // 1-indexed call to fail on; 0 never fails
	undeductErr  error
}

func (s *stubInventory) DeductInventory(_ context.Context, li domain.LineItem) error {
	s.deductCalls++
	if s.failDeductAt != 0 && s.deductCalls == s.failDeductAt {
		return errors.New("inventory hold failed")
	}
	s.deducted = append(s.deducted, li.ArtworkID)
	return nil
}

func (s *stubInventory) UndeductInventory(_ context.Context, li domain.LineItem) error {
	s.undeducted = append(s.undeducted, li.ArtworkID)
	return s.undeductErr
}

type stubPartners struct {
	partner  domain.Partner
	location domain.Address
	err      error
}

func (s *stubPartners) FetchPartner(context.Context, string) (domain.Partner, error) {
	return s.partner, s.err
}

func (s *stubPartners) FetchPartnerLocation(context.Context, string) (domain.Address, error) {
	return s.location, nil
}

type stubCards struct {
	card domain.CreditCard
	err  error
}

func (s *stubCards) GetCreditCard(context.Context, string) (domain.CreditCard, error) {
	return s.card, s.err
}

type stubMerchants struct {
	account domain.MerchantAccount
	err     error
}

func (s *stubMerchants) GetMerchantAccount(context.Context, string) (domain.MerchantAccount, error) {
	return s.account, s.err
}

type stubTax struct {
	calc  domain.TaxCalculation
	err   error
	calls int
}

func (s *stubTax) CalculateLineItemTax(context.Context, domain.LineItem, domain.Address, domain.Address, domain.FulfillmentType) (domain.TaxCalculation, error) {
	s.calls++
	return s.calc, s.err
}

type stubPayments struct {
	txn        domain.Transaction
	err        error
	calls      int
	lastParams ChargeParams
}

func (s *stubPayments) Charge(_ context.Context, params ChargeParams) (domain.Transaction, error) {
	s.calls++
	s.lastParams = params
	return s.txn, s.err
}

type stubNotifier struct {
	transactions []string
	actors       []string
}

func (s *stubNotifier) NotifyFailedCharge(_ context.Context, txn domain.Transaction, actor string) error {
	s.transactions = append(s.transactions, txn.ID)
	s.actors = append(s.actors, actor)
	return nil
}

type memOrders struct {
	orders   map[string]*domain.Order
	saves    int
	appended []domain.Transaction
}

func newMemOrders(orders ...*domain.Order) *memOrders {
	m := &memOrders{orders: map[string]*domain.Order{}}
	for _, o := range orders {
		m.orders[o.ID] = o
	}
	return m
}

func (m *memOrders) Get(_ context.Context, id string) (*domain.Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return nil, fmt.Errorf("order %s: %w", id, ErrNotFound)
	}
	return o, nil
}

func (m *memOrders) Save(_ context.Context, o *domain.Order) error {
	m.saves++
	m.orders[o.ID] = o
	return nil
}

func (m *memOrders) AppendTransaction(_ context.Context, _ *domain.Order, txn domain.Transaction) error {
	m.appended = append(m.appended, txn)
	return nil
}

type memOffers struct {
	offers map[string]*domain.Offer
	saves  int
}

func newMemOffers(offers ...*domain.Offer) *memOffers {
	m := &memOffers{offers: map[string]*domain.Offer{}}
	for _, o := range offers {
		m.offers[o.ID] = o
	}
	return m
}

func (m *memOffers) Get(_ context.Context, id string) (*domain.Offer, error) {
	o, ok := m.offers[id]
	if !ok {
		return nil, fmt.Errorf("offer %s: %w", id, ErrNotFound)
	}
	return o, nil
}

func (m *memOffers) Save(_ context.Context, o *domain.Offer) error {
	m.saves++
	m.offers[o.ID] = o
	return nil
}

func testLogger() *slog.Logger { return slog.Default() }

func testMetrics(t *testing.T) *metrics.CommitMetrics {
	t.Helper()
	return metrics.NewCommitMetrics(prometheus.NewRegistry())
}
