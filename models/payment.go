package models

import (
	// External Packages
	"github.com/shopspring/decimal"
)

// PaymentRequest is the body of POST /api/payments/pay.
type PaymentRequest struct {
	AccountNumber          string          `json:"accountNumber"`
	RecipientAccountNumber string          `json:"recipientAccountNumber"`
	Amount                 decimal.Decimal `json:"amount"`
	Currency               string          `json:"currency"`
	PaymentMethod          string          `json:"paymentMethod"`
	Description            string          `json:"description"`
	Reference              string          `json:"reference"`
	CardToken              string          `json:"cardToken"`
	PaymentGateway         string          `json:"paymentGateway"`
}

// PaymentResult is a successful payment response. ResponseMessage is set by the backend
// when the payment was refused without an HTTP error status.
type PaymentResult struct {
	PaymentID            string          `json:"paymentId"`
	TransactionReference string          `json:"transactionReference"`
	Amount               decimal.Decimal `json:"amount"`
	Currency             string          `json:"currency"`
	Timestamp            Instant         `json:"timestamp"`
	Message              string          `json:"message"`
	ResponseMessage      string          `json:"responseMessage,omitempty"`
}

// PaymentEvent is delivered on the payment success/received topics.
type PaymentEvent struct {
	PaymentID     string          `json:"paymentId,omitempty"`
	AccountNumber string          `json:"accountNumber"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	Timestamp     Instant         `json:"timestamp"`
}
