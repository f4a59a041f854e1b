package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextState(t *testing.T) {
	tests := []struct {
		from   State
		action Action
		want   State
		ok     bool
	}{
		{StatePending, ActionSubmit, StateSubmitted, true},
		{StatePending, ActionCancel, StateCanceled, true},
		{StateSubmitted, ActionApprove, StateApproved, true},
		{StateSubmitted, ActionReject, StateRejected, true},
		{StateSubmitted, ActionCancel, StateCanceled, true},
		{StateApproved, ActionFulfill, StateFulfilled, true},
		{StateApproved, ActionCancel, StateCanceled, true},
		{StatePending, ActionApprove, "", false},
		{StateApproved, ActionSubmit, "", false},
		{StateRejected, ActionSubmit, "", false},
		{StateFulfilled, ActionCancel, "", false},
		{StateCanceled, ActionSubmit, "", false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"_"+string(tt.action), func(t *testing.T) {
			next, ok := NextState(tt.from, tt.action)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, next)
			}
		})
	}
}

func TestTransitionAdvancesAfterBody(t *testing.T) {
	o := NewOrder("buyer-1", "user", "partner-1", "gallery", "USD", nil)
	ran := false

	err := o.Transition(ActionSubmit, func() error {
		ran = true
		// Body runs before the state changes.
		assert.Equal(t, StatePending, o.State)
		return nil
	})

	require.NoError(t, err)
	assert.True(t, ran)
	assert.Equal(t, StateSubmitted, o.State)
	assert.Equal(t, o.StateUpdatedAt.Add(StateExpiry), o.StateExpiresAt)
}

func TestTransitionIllegalSkipsBody(t *testing.T) {
	o := NewOrder("buyer-1", "user", "partner-1", "gallery", "USD", nil)
	o.State = StateApproved

	err := o.Transition(ActionSubmit, func() error {
		t.Fatal("body must not run for an illegal transition")
		return nil
	})

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, KindInvalidTransition, ve.Kind)
	assert.Equal(t, "APPROVED", ve.Meta["state"])
	assert.Equal(t, "submit", ve.Meta["action"])
	assert.Equal(t, StateApproved, o.State)
}

func TestTransitionBodyErrorKeepsState(t *testing.T) {
	o := NewOrder("buyer-1", "user", "partner-1", "gallery", "USD", nil)
	before := o.StateUpdatedAt
	bodyErr := errors.New("charge failed")

	err := o.Transition(ActionSubmit, func() error { return bodyErr })

	require.ErrorIs(t, err, bodyErr)
	assert.Equal(t, StatePending, o.State)
	assert.Equal(t, before, o.StateUpdatedAt)
}

func TestTransitionNilBody(t *testing.T) {
	o := NewOrder("buyer-1", "user", "partner-1", "gallery", "USD", nil)
	require.NoError(t, o.Transition(ActionCancel, nil))
	assert.Equal(t, StateCanceled, o.State)
}

func TestNewOrder(t *testing.T) {
	items := []LineItem{
		{ArtworkID: "artwork-1", PriceCents: 60000},
		{ID: "li-2", ArtworkID: "artwork-2", PriceCents: 40000},
	}
	o := NewOrder("buyer-1", "user", "partner-1", "gallery", "USD", items)

	assert.NotEmpty(t, o.ID)
	assert.Equal(t, StatePending, o.State)
	assert.NotEmpty(t, o.LineItems[0].ID)
	assert.Equal(t, "li-2", o.LineItems[1].ID)
	for _, li := range o.LineItems {
		assert.Equal(t, o.ID, li.OrderID)
	}
	assert.Equal(t, int64(100000), o.ItemsTotalCents())
	assert.Equal(t, o.CreatedAt.Add(StateExpiry), o.StateExpiresAt)
}

func TestAuctionSeller(t *testing.T) {
	o := NewOrder("buyer-1", "user", "seller-1", "auction", "USD", nil)
	assert.True(t, o.AuctionSeller())
	o.SellerType = "gallery"
	assert.False(t, o.AuctionSeller())
}

func TestTouchStateExpiration(t *testing.T) {
	o := NewOrder("buyer-1", "user", "partner-1", "gallery", "USD", nil)
	o.StateUpdatedAt = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	o.TouchStateExpiration()
	assert.Equal(t, time.Date(2024, 3, 3, 12, 0, 0, 0, time.UTC), o.StateExpiresAt)
}

func TestProcessingErrorUnwrap(t *testing.T) {
	cause := errors.New("card_declined")
	err := NewProcessingError(KindChargeFailed, cause)
	assert.ErrorIs(t, err, cause)

	var pe *ProcessingError
	require.ErrorAs(t, error(err), &pe)
	assert.Equal(t, KindChargeFailed, pe.Kind)
}
