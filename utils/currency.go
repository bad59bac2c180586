package utils

import (
	// Go Internal Packages
	"strings"

	// External Packages
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	USD = "USD"
	KHR = "KHR"
)

// DefaultKHRPerUSD is the fixed riel rate used for conversions and QR classification.
var DefaultKHRPerUSD = decimal.NewFromInt(4000)

// SupportedCurrency reports whether c is USD or KHR.
func SupportedCurrency(c string) bool {
	return c == USD || c == KHR
}

// ConvertCurrency converts between USD and KHR at the default rate. Any other pair is returned unchanged.
func ConvertCurrency(amount decimal.Decimal, from, to string) decimal.Decimal {
	return ConvertAt(amount, from, to, DefaultKHRPerUSD)
}

func ConvertAt(amount decimal.Decimal, from, to string, khrPerUSD decimal.Decimal) decimal.Decimal {
	from, to = strings.ToUpper(from), strings.ToUpper(to)
	switch {
	case from == to:
		return amount
	case from == USD && to == KHR:
		return amount.Mul(khrPerUSD)
	case from == KHR && to == USD && !khrPerUSD.IsZero():
		return amount.Div(khrPerUSD)
	}
	return amount
}

// FormatCurrency renders $1,250.00 for USD and 5,000៛ for KHR. Other currencies get a plain
// amount followed by the code.
func FormatCurrency(amount decimal.Decimal, currency string) string {
	switch strings.ToUpper(currency) {
	case USD:
		return sign(amount) + "$" + grouped(amount.Abs(), 2)
	case KHR:
		return sign(amount) + grouped(amount.Abs(), 0) + "៛"
	}
	return amount.String() + " " + currency
}

// CurrencySymbol returns $ for USD and ៛ otherwise.
func CurrencySymbol(currency string) string {
	if strings.ToUpper(currency) == USD {
		return "$"
	}
	return "៛"
}

func sign(d decimal.Decimal) string {
	if d.Round(2).IsNegative() {
		return "-"
	}
	return ""
}

// grouped formats a non-negative amount with thousands separators and places decimals.
func grouped(d decimal.Decimal, places int32) string {
	fixed := d.StringFixed(places)
	whole, frac, _ := strings.Cut(fixed, ".")
	n, err := decimal.NewFromString(whole)
	if err != nil {
		return fixed
	}
	out := message.NewPrinter(language.English).Sprintf("%d", n.IntPart())
	if frac != "" {
		out += "." + frac
	}
	return out
}
