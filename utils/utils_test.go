package utils

import (
	// Go Internal Packages
	"regexp"
	"slices"
	"strconv"
	"strings"
	"testing"
	"time"

	// External Packages
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestGenerateReference(t *testing.T) {
	now := time.UnixMilli(1755384249000)
	ref := GenerateReference(now)

	assert.Regexp(t, regexp.MustCompile(`^REF-[0-9A-Z]+-[0-9A-Z]{6}$`), ref)
	assert.True(t, strings.HasPrefix(ref, "REF-"+strings.ToUpper(strconv.FormatInt(now.UnixMilli(), 36))+"-"))
	assert.NotEqual(t, ref, GenerateReference(now), "suffix is random")
}

func TestGenerateCardToken(t *testing.T) {
	tok := GenerateCardToken()
	assert.Regexp(t, regexp.MustCompile(`^[0-9A-F]{32}$`), tok)
	assert.NotEqual(t, tok, GenerateCardToken())
}

func TestRandomGateway(t *testing.T) {
	for range 20 {
		assert.True(t, slices.Contains(Gateways, RandomGateway()))
	}
}

func TestConvertCurrency(t *testing.T) {
	d := decimal.RequireFromString
	assert.Equal(t, "4000", ConvertCurrency(d("1"), USD, KHR).String())
	assert.Equal(t, "0.1", ConvertCurrency(d("400"), KHR, USD).String())
	assert.Equal(t, "7", ConvertCurrency(d("7"), "usd", "USD").String())
	assert.Equal(t, "7", ConvertCurrency(d("7"), "EUR", USD).String())
	assert.Equal(t, "2", ConvertAt(d("4100"), KHR, USD, d("2050")).String())
}

func TestFormatCurrency(t *testing.T) {
	tests := []struct {
		amount   string
		currency string
		want     string
	}{
		{"1250", USD, "$1,250.00"},
		{"1250.755", USD, "$1,250.76"},
		{"0.5", USD, "$0.50"},
		{"-12.3", USD, "-$12.30"},
		{"5000", KHR, "5,000៛"},
		{"1234567.4", KHR, "1,234,567៛"},
		{"12", "EUR", "12 EUR"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatCurrency(decimal.RequireFromString(tt.amount), tt.currency))
		})
	}
}

func TestFormatAccountNumber(t *testing.T) {
	assert.Equal(t, "001 001 001", FormatAccountNumber("001001001"))
	assert.Equal(t, "123 456 7", FormatAccountNumber("1234567"))
	assert.Equal(t, "12-345 6", FormatAccountNumber("12-3456"))
	assert.Equal(t, "", FormatAccountNumber(""))
}

func TestRelativeTime(t *testing.T) {
	now := time.Date(2025, 8, 17, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "Just now", RelativeTime(now.Add(-59*time.Second), now))
	assert.Equal(t, "5m ago", RelativeTime(now.Add(-5*time.Minute), now))
	assert.Equal(t, "3h ago", RelativeTime(now.Add(-3*time.Hour-10*time.Minute), now))
	assert.Equal(t, "2d ago", RelativeTime(now.Add(-50*time.Hour), now))
}

func TestCountdown(t *testing.T) {
	assert.Equal(t, "15:00", Countdown(15*time.Minute))
	assert.Equal(t, "0:09", Countdown(9500*time.Millisecond))
	assert.Equal(t, "Expired", Countdown(0))
}
