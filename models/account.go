package models

import (
	// External Packages
	"github.com/shopspring/decimal"
)

const (
	AccountActive    = "ACTIVE"
	AccountFrozen    = "FROZEN"
	AccountSuspended = "SUSPENDED"
	AccountClosed    = "CLOSED"
)

const (
	AccountSavings  = "SAVINGS"
	AccountCurrent  = "CURRENT"
	AccountBusiness = "BUSINESS"
	AccountJoint    = "JOINT"
)

type Account struct {
	AccountNumber    string          `json:"accountNumber"`
	HolderName       string          `json:"accountHolderName"`
	Balance          decimal.Decimal `json:"balance"`
	AvailableBalance decimal.Decimal `json:"availableBalance"`
	Currency         string          `json:"currency"`
	Status           string          `json:"status"`
	Type             string          `json:"type"`
	UpdatedAt        Instant         `json:"updatedAt"`
	Message          string          `json:"message,omitempty"`
}

// Key returns the identity used by feeds.
func (a Account) Key() string {
	return a.AccountNumber
}

// AdjustAvailable adds delta to the available balance, never going below zero.
func (a *Account) AdjustAvailable(delta decimal.Decimal) {
	next := a.AvailableBalance.Add(delta)
	if next.IsNegative() {
		next = decimal.Zero
	}
	a.AvailableBalance = next
}

// KnownAccountStatus reports whether s is one of the declared statuses.
func KnownAccountStatus(s string) bool {
	switch s {
	case AccountActive, AccountFrozen, AccountSuspended, AccountClosed:
		return true
	}
	return false
}
