// Package qrpay builds and reads QR payment intents.
//
// A static intent carries an open or token amount and never expires. A dynamic intent carries a
// real amount and is valid until its expiresAt.
package qrpay

import (
	// Go Internal Packages
	"bytes"
	"encoding/json"
	"image"
	"image/png"
	"io"
	"strings"
	"time"

	// Local Packages
	errors "bankfeed/errors"
	utils "bankfeed/utils"

	// External Packages
	"github.com/makiuchi-d/gozxing"
	zxingqr "github.com/makiuchi-d/gozxing/qrcode"
	"github.com/shopspring/decimal"
	qrcode "github.com/skip2/go-qrcode"
)

// PayloadType marks a QR document as a payment request.
const PayloadType = "payment_request"

type Kind string

const (
	Static  Kind = "static"
	Dynamic Kind = "dynamic"
)

const (
	DefaultTTL  = 15 * time.Minute
	DefaultSize = 256
)

// DefaultMinDynamicUSD is the USD-equivalent amount from which an intent is dynamic.
var DefaultMinDynamicUSD = decimal.RequireFromString("0.10")

var ErrExpired = errors.E(errors.Invalid, "QR code has expired, ask for a new one", nil)

// Intent is the JSON document carried by a payment QR code.
type Intent struct {
	Type             string          `json:"type"`
	QRType           Kind            `json:"qrType"`
	RecipientAccount string          `json:"recipientAccount"`
	Amount           decimal.Decimal `json:"amount"`
	Currency         string          `json:"currency"`
	Description      string          `json:"description"`
	Reference        string          `json:"reference"`
	Timestamp        time.Time       `json:"timestamp"`
	ExpiresAt        *time.Time      `json:"expiresAt,omitempty"`
}

// Remaining returns the time left before the intent expires. ok is false for intents that never
// expire. An expired intent has zero time left.
func (i Intent) Remaining(now time.Time) (left time.Duration, ok bool) {
	if i.ExpiresAt == nil {
		return 0, false
	}
	return max(i.ExpiresAt.Sub(now), 0), true
}

func (i Intent) Expired(now time.Time) bool {
	return i.ExpiresAt != nil && !now.Before(*i.ExpiresAt)
}

// Classifier decides between static and dynamic intents.
type Classifier struct {
	MinDynamicUSD decimal.Decimal
	KHRPerUSD     decimal.Decimal
}

func DefaultClassifier() Classifier {
	return Classifier{MinDynamicUSD: DefaultMinDynamicUSD, KHRPerUSD: utils.DefaultKHRPerUSD}
}

// Classify returns Static for a zero amount or one worth less than MinDynamicUSD, Dynamic otherwise.
func (c Classifier) Classify(amount decimal.Decimal, currency string) Kind {
	if amount.IsZero() {
		return Static
	}
	usd := utils.ConvertAt(amount, currency, utils.USD, c.KHRPerUSD)
	if usd.LessThan(c.MinDynamicUSD) {
		return Static
	}
	return Dynamic
}

// Classify uses the default threshold and rate.
func Classify(amount decimal.Decimal, currency string) Kind {
	return DefaultClassifier().Classify(amount, currency)
}

// Request is what a user fills in to receive a payment.
type Request struct {
	RecipientAccount string
	Amount           decimal.Decimal
	Currency         string
	Description      string
}

func (r Request) validate() error {
	ve := errors.ValidationErrs()
	if strings.TrimSpace(r.RecipientAccount) == "" {
		ve.Add("recipientAccount", "cannot be empty")
	}
	if r.Amount.IsNegative() {
		ve.Add("amount", "cannot be negative")
	}
	if !utils.SupportedCurrency(strings.ToUpper(r.Currency)) {
		ve.Add("currency", "must be USD or KHR")
	}
	return ve.Err()
}

type Generator struct {
	classifier Classifier
	ttl        time.Duration
	now        func() time.Time
}

// NewGenerator returns a generator whose dynamic intents live for ttl, DefaultTTL when ttl is not positive.
func NewGenerator(classifier Classifier, ttl time.Duration) *Generator {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Generator{classifier: classifier, ttl: ttl, now: time.Now}
}

// Generate stamps the intent with the current time, a fresh reference and, for dynamic intents,
// an expiry.
func (g *Generator) Generate(req Request) (Intent, error) {
	if err := req.validate(); err != nil {
		return Intent{}, err
	}

	now := g.now().UTC()
	currency := strings.ToUpper(req.Currency)
	intent := Intent{
		Type:             PayloadType,
		QRType:           g.classifier.Classify(req.Amount, currency),
		RecipientAccount: strings.TrimSpace(req.RecipientAccount),
		Amount:           req.Amount,
		Currency:         currency,
		Description:      req.Description,
		Reference:        utils.GenerateReference(now),
		Timestamp:        now,
	}
	if intent.QRType == Dynamic {
		exp := now.Add(g.ttl)
		intent.ExpiresAt = &exp
	}
	return intent, nil
}

// Encode returns the JSON text placed in the QR code.
func Encode(intent Intent) (string, error) {
	data, err := json.Marshal(intent)
	if err != nil {
		return "", errors.E(errors.Internal, "cannot encode payment intent", err)
	}
	return string(data), nil
}

// PNG renders the intent as a size x size PNG with medium error recovery.
func PNG(intent Intent, size int) ([]byte, error) {
	if size <= 0 {
		size = DefaultSize
	}
	content, err := Encode(intent)
	if err != nil {
		return nil, err
	}
	out, err := qrcode.Encode(content, qrcode.Medium, size)
	if err != nil {
		return nil, errors.E(errors.Internal, "cannot render QR code", err)
	}
	return out, nil
}

// Parse reads a scanned payload. It rejects anything that is not a payment request, has no
// recipient or a negative amount, and dynamic intents that have expired at now.
func Parse(payload []byte, now time.Time) (Intent, error) {
	var intent Intent
	if err := json.Unmarshal(bytes.TrimSpace(payload), &intent); err != nil {
		return Intent{}, errors.E(errors.Invalid, "not a payment QR code", err)
	}
	if intent.Type != PayloadType {
		return Intent{}, errors.E(errors.Invalid, "not a payment QR code", nil)
	}

	ve := errors.ValidationErrs()
	if strings.TrimSpace(intent.RecipientAccount) == "" {
		ve.Add("recipientAccount", "cannot be empty")
	}
	if intent.Amount.IsNegative() {
		ve.Add("amount", "cannot be negative")
	}
	if err := ve.Err(); err != nil {
		return Intent{}, err
	}

	intent.Currency = strings.ToUpper(intent.Currency)
	if intent.QRType == "" {
		intent.QRType = Classify(intent.Amount, intent.Currency)
	}
	if intent.QRType == Dynamic && intent.Expired(now) {
		return Intent{}, ErrExpired
	}
	return intent, nil
}

// Scan decodes the QR code in img and parses its payload.
func Scan(img image.Image, now time.Time) (Intent, error) {
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return Intent{}, errors.E(errors.Invalid, "cannot read image", err)
	}
	result, err := zxingqr.NewQRCodeReader().Decode(bmp, map[gozxing.DecodeHintType]interface{}{
		gozxing.DecodeHintType_TRY_HARDER: true,
	})
	if err != nil {
		return Intent{}, errors.E(errors.Invalid, "no QR code found", err)
	}
	return Parse([]byte(result.GetText()), now)
}

// ScanPNG is Scan for PNG data.
func ScanPNG(r io.Reader, now time.Time) (Intent, error) {
	img, err := png.Decode(r)
	if err != nil {
		return Intent{}, errors.E(errors.Invalid, "cannot decode PNG", err)
	}
	return Scan(img, now)
}
