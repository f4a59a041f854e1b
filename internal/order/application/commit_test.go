package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artmarket/exchange/internal/order/domain"
)

type commitFixture struct {
	artworks  *stubArtworks
	inventory *stubInventory
	partners  *stubPartners
	cards     *stubCards
	merchants *stubMerchants
	taxes     *stubTax
	payments  *stubPayments
	notifier  *stubNotifier
	orders    *memOrders
	svc       *CommitService
}

// newCommitFixture wires the commit saga against happy-path doubles: every
// collaborator succeeds and the charge is accepted. Individual tests break the
// piece they exercise.
func newCommitFixture(t *testing.T, order *domain.Order) *commitFixture {
	t.Helper()
	f := &commitFixture{
		artworks:  &stubArtworks{artworks: map[string]domain.Artwork{}},
		inventory: &stubInventory{},
		partners:  &stubPartners{partner: domain.Partner{ID: "partner-1", Name: "Test Gallery", EffectiveCommissionRate: "0.2"}},
		cards:     &stubCards{card: chargeableCard()},
		merchants: &stubMerchants{account: domain.MerchantAccount{ID: "ma-1", ExternalID: "acct_1"}},
		taxes:     &stubTax{},
		payments:  &stubPayments{txn: domain.Transaction{ID: "txn-1", ExternalID: "ch_1", Status: domain.TransactionSuccess}},
		notifier:  &stubNotifier{},
		orders:    newMemOrders(order),
	}
	for _, li := range order.LineItems {
		f.artworks.artworks[li.ArtworkID] = domain.Artwork{
			ID:               li.ArtworkID,
			CurrentVersionID: li.ArtworkVersionID,
			Location:         "US",
		}
	}

	m := testMetrics(t)
	totals := NewTotalsCalculator(f.artworks, f.partners, f.taxes, nil)
	inventory := NewInventoryCoordinator(testLogger(), f.inventory, m)
	payments := NewPaymentProcessor(f.payments)
	f.svc = NewCommitService(testLogger(), f.orders, f.artworks, inventory, f.partners,
		f.cards, f.merchants, payments, totals, f.notifier, m)
	return f
}

func commitOrder(items ...domain.LineItem) *domain.Order {
	return domain.NewOrder("buyer-1", "user", "partner-1", "gallery", "USD", items)
}

func threeItems() []domain.LineItem {
	return []domain.LineItem{
		{ArtworkID: "artwork-1", ArtworkVersionID: "v1", PriceCents: 60000},
		{ArtworkID: "artwork-2", ArtworkVersionID: "v2", PriceCents: 40000},
		{ArtworkID: "artwork-3", ArtworkVersionID: "v3", PriceCents: 20000},
	}
}

func TestCommitSubmitSucceeds(t *testing.T) {
	order := commitOrder(threeItems()[:2]...)
	f := newCommitFixture(t, order)

	got, err := f.svc.Commit(context.Background(), order, domain.ActionSubmit, "buyer-1")
	require.NoError(t, err)

	assert.Equal(t, domain.StateSubmitted, got.State)
	assert.Equal(t, "ch_1", got.ExternalChargeID)
	assert.Equal(t, []string{"artwork-1", "artwork-2"}, f.inventory.deducted)
	assert.Empty(t, f.inventory.undeducted)
	assert.Equal(t, 1, f.orders.saves)

	require.Len(t, f.orders.appended, 1)
	assert.Equal(t, domain.TransactionSuccess, f.orders.appended[0].Status)
	assert.Equal(t, order.ID, f.orders.appended[0].OrderID)
	assert.Empty(t, f.notifier.transactions)

	// Totals are refreshed from the live commission rate before charging.
	assert.Equal(t, int64(20000), got.CommissionFeeCents)
	assert.Equal(t, int64(100000), got.BuyerTotalCents)
	assert.Equal(t, int64(80000), got.SellerTotalCents)
	assert.False(t, f.payments.lastParams.Capture, "submit authorizes without capture")
}

func TestCommitApproveCaptures(t *testing.T) {
	order := commitOrder(threeItems()[:1]...)
	order.State = domain.StateSubmitted
	f := newCommitFixture(t, order)

	got, err := f.svc.Commit(context.Background(), order, domain.ActionApprove, "admin-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StateApproved, got.State)
	assert.True(t, f.payments.lastParams.Capture)
}

func TestCommitIllegalTransitionTouchesNothing(t *testing.T) {
	order := commitOrder(threeItems()...)
	order.State = domain.StateApproved
	f := newCommitFixture(t, order)

	_, err := f.svc.Commit(context.Background(), order, domain.ActionSubmit, "buyer-1")

	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, domain.KindInvalidTransition, ve.Kind)

	assert.Equal(t, domain.StateApproved, order.State)
	assert.Zero(t, f.inventory.deductCalls)
	assert.Zero(t, f.payments.calls)
	assert.Empty(t, f.orders.appended)
	assert.Zero(t, f.orders.saves)
	assert.Zero(t, order.BuyerTotalCents, "totals untouched on rejected attempt")
}

func TestCommitArtworkVersionMismatch(t *testing.T) {
	order := commitOrder(threeItems()...)
	f := newCommitFixture(t, order)
	stale := f.artworks.artworks["artwork-2"]
	stale.CurrentVersionID = "v2-new"
	f.artworks.artworks["artwork-2"] = stale

	_, err := f.svc.Commit(context.Background(), order, domain.ActionSubmit, "buyer-1")

	var pe *domain.ProcessingError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, domain.KindArtworkVersionMismatch, pe.Kind)
	assert.Equal(t, domain.StatePending, order.State)
	assert.Zero(t, f.inventory.deductCalls)
	assert.Zero(t, f.payments.calls)
}

func TestCommitCardNotChargeable(t *testing.T) {
	deactivated := time.Now().UTC()
	tests := []struct {
		name     string
		mutate   func(*domain.CreditCard)
		wantKind string
	}{
		{"no external id", func(c *domain.CreditCard) { c.ExternalID = "" }, domain.KindCreditCardMissingExternal},
		{"no customer", func(c *domain.CreditCard) { c.CustomerAccount.ExternalID = "" }, domain.KindCreditCardMissingCustomer},
		{"deactivated", func(c *domain.CreditCard) { c.DeactivatedAt = &deactivated }, domain.KindCreditCardDeactivated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			order := commitOrder(threeItems()[:1]...)
			f := newCommitFixture(t, order)
			tt.mutate(&f.cards.card)

			_, err := f.svc.Commit(context.Background(), order, domain.ActionSubmit, "buyer-1")

			var ve *domain.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.wantKind, ve.Kind)
			assert.Zero(t, f.inventory.deductCalls)
			assert.Zero(t, f.payments.calls)
		})
	}
}

func TestCommitMissingCommissionRate(t *testing.T) {
	order := commitOrder(threeItems()[:1]...)
	f := newCommitFixture(t, order)
	f.partners.partner.EffectiveCommissionRate = ""

	_, err := f.svc.Commit(context.Background(), order, domain.ActionSubmit, "buyer-1")

	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, domain.KindMissingCommissionRate, ve.Kind)
	assert.Zero(t, f.inventory.deductCalls)
}

func TestCommitDeductFailureReversesPrefix(t *testing.T) {
	order := commitOrder(threeItems()...)
	f := newCommitFixture(t, order)
	f.inventory.failDeductAt = 3

	_, err := f.svc.Commit(context.Background(), order, domain.ActionSubmit, "buyer-1")
	require.Error(t, err)

	// Only the successfully deducted prefix is reversed, in order.
	assert.Equal(t, []string{"artwork-1", "artwork-2"}, f.inventory.undeducted)
	assert.Zero(t, f.payments.calls, "no charge after a failed deduction")
	assert.Empty(t, f.orders.appended)
	assert.Empty(t, f.notifier.transactions)
	assert.Equal(t, domain.StatePending, order.State)
	assert.Zero(t, f.orders.saves)
}

func TestCommitFailedChargeCompensatesAndNotifies(t *testing.T) {
	order := commitOrder(threeItems()...)
	f := newCommitFixture(t, order)
	f.payments.txn = domain.Transaction{ID: "txn-9", Status: domain.TransactionFailed, FailureMessage: "card_declined"}

	_, err := f.svc.Commit(context.Background(), order, domain.ActionSubmit, "buyer-1")

	var pe *domain.ProcessingError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, domain.KindChargeFailed, pe.Kind)
	assert.EqualError(t, pe.Err, "card_declined")

	// All three deductions are reversed.
	assert.Equal(t, []string{"artwork-1", "artwork-2", "artwork-3"}, f.inventory.undeducted)

	// The declined attempt is still recorded and the buyer notified.
	require.Len(t, f.orders.appended, 1)
	assert.Equal(t, domain.TransactionFailed, f.orders.appended[0].Status)
	assert.Equal(t, []string{"txn-9"}, f.notifier.transactions)
	assert.Equal(t, []string{"buyer-1"}, f.notifier.actors)
	require.Len(t, order.Transactions, 1)

	assert.Empty(t, order.ExternalChargeID)
	assert.Equal(t, domain.StatePending, order.State)
	assert.Zero(t, f.orders.saves)
}

func TestCommitPaymentTransportError(t *testing.T) {
	order := commitOrder(threeItems()[:2]...)
	f := newCommitFixture(t, order)
	cause := errors.New("gateway timeout")
	f.payments.err = cause

	_, err := f.svc.Commit(context.Background(), order, domain.ActionSubmit, "buyer-1")
	require.ErrorIs(t, err, cause)

	assert.Equal(t, []string{"artwork-1", "artwork-2"}, f.inventory.undeducted)
	// No transaction exists for a charge that never reached the processor.
	assert.Empty(t, f.orders.appended)
	assert.Empty(t, f.notifier.transactions)
	assert.Equal(t, domain.StatePending, order.State)
}

func TestCommitUndeductFailureDoesNotMaskError(t *testing.T) {
	order := commitOrder(threeItems()[:2]...)
	f := newCommitFixture(t, order)
	f.payments.txn = domain.Transaction{ID: "txn-9", Status: domain.TransactionFailed, FailureMessage: "card_declined"}
	f.inventory.undeductErr = errors.New("inventory service down")

	_, err := f.svc.Commit(context.Background(), order, domain.ActionSubmit, "buyer-1")

	var pe *domain.ProcessingError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, domain.KindChargeFailed, pe.Kind)
	// Reversal was still attempted for every deduction.
	assert.Equal(t, []string{"artwork-1", "artwork-2"}, f.inventory.undeducted)
}
