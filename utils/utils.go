package utils

import (
	// Go Internal Packages
	"crypto/rand"
	"math/big"
	"strconv"
	"strings"
	"time"

	// External Packages
	"github.com/google/uuid"
)

// Gateways the backend accepts in paymentGateway.
var Gateways = []string{"VISA", "MASTERCARD", "AMEX", "DISCOVER", "PAYPAL"}

const base36 = "0123456789abcdefghijklmnopqrstuvwxyz"

// GenerateReference returns REF-<base36 millis>-<6 base36 chars>, upper case.
func GenerateReference(now time.Time) string {
	suffix := make([]byte, 6)
	for i := range suffix {
		suffix[i] = base36[randInt(len(base36))]
	}
	ref := "REF-" + strconv.FormatInt(now.UnixMilli(), 36) + "-" + string(suffix)
	return strings.ToUpper(ref)
}

// GenerateCardToken returns 32 upper-case hex characters.
func GenerateCardToken() string {
	id := uuid.New()
	return strings.ToUpper(strings.ReplaceAll(id.String(), "-", ""))
}

func RandomGateway() string {
	return Gateways[randInt(len(Gateways))]
}

func randInt(n int) int {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0
	}
	return int(v.Int64())
}
