// Package models holds the records exchanged with the banking backend over REST and push topics.
package models

import (
	// External Packages
	"github.com/shopspring/decimal"
)

func init() {
	// The backend reads amounts as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}
