package domain

import "time"

type State string

const (
	StatePending   State = "PENDING"
	StateSubmitted State = "SUBMITTED"
	StateApproved  State = "APPROVED"
	StateRejected  State = "REJECTED"
	StateFulfilled State = "FULFILLED"
	StateCanceled  State = "CANCELED"
)

type Action string

const (
	ActionSubmit  Action = "submit"
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
	ActionFulfill Action = "fulfill"
	ActionCancel  Action = "cancel"
)

// StateExpiry is how long an order may sit in a state before it is considered
// expired by the upstream expiry sweeper.
const StateExpiry = 48 * time.Hour

var transitions = map[State]map[Action]State{
	StatePending: {
		ActionSubmit: StateSubmitted,
		ActionCancel: StateCanceled,
	},
	StateSubmitted: {
		ActionApprove: StateApproved,
		ActionReject:  StateRejected,
		ActionCancel:  StateCanceled,
	},
	StateApproved: {
		ActionFulfill: StateFulfilled,
		ActionCancel:  StateCanceled,
	},
}

// NextState resolves the transition table for (from, action).
func NextState(from State, action Action) (State, bool) {
	next, ok := transitions[from][action]
	return next, ok
}

// Transition runs body under the state-machine guard. The body executes only
// if the transition is legal, and the state advances only if the body returns
// nil. An illegal transition fails before any side effect.
func (o *Order) Transition(action Action, body func() error) error {
	next, ok := NextState(o.State, action)
	if !ok {
		return NewValidationError(KindInvalidTransition, map[string]string{
			"state":  string(o.State),
			"action": string(action),
		})
	}
	if body != nil {
		if err := body(); err != nil {
			return err
		}
	}
	now := time.Now().UTC()
	o.State = next
	o.StateUpdatedAt = now
	o.StateExpiresAt = now.Add(StateExpiry)
	o.UpdatedAt = now
	return nil
}
