package models

import (
	// External Packages
	"github.com/shopspring/decimal"
)

const (
	DirectionDebit  = "DEBIT"
	DirectionCredit = "CREDIT"
)

const (
	StatusInitiated = "INITIATED"
	StatusPending   = "PENDING"
	StatusCompleted = "COMPLETED"
	StatusFailed    = "FAILED"
	StatusCancelled = "CANCELLED"
)

type Transaction struct {
	ID                   string          `json:"transactionId"`
	PaymentReferenceID   string          `json:"paymentId"`
	FromAccount          string          `json:"fromAccountNumber"`
	ToAccount            string          `json:"toAccountNumber"`
	Amount               decimal.Decimal `json:"amount"`
	Currency             string          `json:"currency"`
	Direction            string          `json:"transactionType"`
	Status               string          `json:"status"`
	PaymentMethod        string          `json:"paymentMethod,omitempty"`
	TransactionReference string          `json:"transactionReference,omitempty"`
	Description          string          `json:"description,omitempty"`
	CreatedBy            string          `json:"createdBy,omitempty"`
	UpdatedAt            Instant         `json:"updatedAt"`
}

// Key returns the identity used by feeds.
func (t Transaction) Key() string {
	return t.ID
}

// SignedAmount is positive for credits and negative for everything else.
func (t Transaction) SignedAmount() decimal.Decimal {
	if t.Direction == DirectionCredit {
		return t.Amount
	}
	return t.Amount.Neg()
}

// KnownDirection reports whether d is DEBIT or CREDIT.
func KnownDirection(d string) bool {
	return d == DirectionDebit || d == DirectionCredit
}

// KnownTransactionStatus reports whether s is one of the declared statuses.
func KnownTransactionStatus(s string) bool {
	switch s {
	case StatusInitiated, StatusPending, StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// PendingStatus reports whether s has not settled yet.
func PendingStatus(s string) bool {
	return s == StatusInitiated || s == StatusPending
}
