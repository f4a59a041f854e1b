package domain

import "time"

type TransactionStatus string

const (
	TransactionSuccess TransactionStatus = "success"
	TransactionFailed  TransactionStatus = "failed"
)

// Transaction is the append-only audit record of one charge attempt.
// ExternalID stays empty until the payment processor accepts the charge.
type Transaction struct {
	ID             string
	OrderID        string
	ExternalID     string
	Status         TransactionStatus
	FailureMessage string
	CreatedAt      time.Time
}

func (t Transaction) Failed() bool { return t.Status == TransactionFailed }
