package domain

import "fmt"

// Validation error kinds: the caller or order state violates a precondition.
const (
	KindInvalidTransition         = "invalid_transition"
	KindInvalidState              = "invalid_state"
	KindMissingCommissionRate     = "missing_commission_rate"
	KindCreditCardMissingExternal = "credit_card_missing_external_id"
	KindCreditCardMissingCustomer = "credit_card_missing_customer"
	KindCreditCardDeactivated     = "credit_card_deactivated"
	KindInvalidOffer              = "invalid_offer"
)

// Processing error kinds: a consistency problem discovered mid-workflow.
const (
	KindArtworkVersionMismatch = "artwork_version_mismatch"
	KindChargeFailed           = "charge_failed"
)

// ValidationError rejects an attempt before side effects; it is never retried
// and carries a machine-readable kind for the adapter layer.
type ValidationError struct {
	Kind string
	Meta map[string]string
}

func NewValidationError(kind string, meta map[string]string) *ValidationError {
	return &ValidationError{Kind: kind, Meta: meta}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s", e.Kind)
}

// ProcessingError signals a mid-workflow failure that requires compensation
// before propagation.
type ProcessingError struct {
	Kind string
	Err  error
}

func NewProcessingError(kind string, err error) *ProcessingError {
	return &ProcessingError{Kind: kind, Err: err}
}

func (e *ProcessingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("processing failed: %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("processing failed: %s", e.Kind)
}

func (e *ProcessingError) Unwrap() error { return e.Err }
