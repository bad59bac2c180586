// Package decoders turns raw push payloads into domain records. Every wire shape the backend has
// used is accepted; anything else is reported as a *DecodeError and never panics.
package decoders

import (
	// Go Internal Packages
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	// Local Packages
	errors "bankfeed/errors"
	models "bankfeed/models"

	// External Packages
	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ErrDecode matches every *DecodeError through errors.Is.
var ErrDecode = errors.E(errors.Decode, "undecodable push payload", nil)

type DecodeError struct {
	Topic  string
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	msg := fmt.Sprintf("decode %s: %s", e.Topic, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *DecodeError) Unwrap() error { return e.Err }

func (e *DecodeError) Is(target error) bool { return target == ErrDecode }

type Topics struct {
	Notifications    string
	Transactions     string
	PaymentsSuccess  string
	PaymentsReceived string
}

func DefaultTopics() Topics {
	return Topics{
		Notifications:    "/topic/notifications",
		Transactions:     "/topic/transactions",
		PaymentsSuccess:  "/topic/payments/success",
		PaymentsReceived: "/topic/payments/received",
	}
}

// Decode routes raw to the decoder for topic, stamping missing times with the current time.
func Decode(topics Topics, topic string, raw []byte) (any, error) {
	return DecodeAt(topics, topic, raw, time.Now())
}

// DecodeAt is Decode with an explicit receive time.
func DecodeAt(topics Topics, topic string, raw []byte, received time.Time) (any, error) {
	var (
		v   any
		err error
	)
	switch topic {
	case topics.Notifications:
		v, err = DecodeNotification(topic, raw, received)
	case topics.Transactions:
		v, err = DecodeTransaction(topic, raw, received)
	case topics.PaymentsSuccess, topics.PaymentsReceived:
		v, err = DecodePaymentEvent(topic, raw, received)
	default:
		err = &DecodeError{Topic: topic, Reason: "unknown topic"}
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}

type wireNotification struct {
	ID        json.RawMessage `json:"id"`
	Title     string          `json:"title"`
	Message   string          `json:"message"`
	Type      string          `json:"type"`
	Status    string          `json:"status"`
	IsRead    *bool           `json:"isRead"`
	Read      *bool           `json:"read"`
	Timestamp models.Instant  `json:"timestamp"`
	CreatedAt models.Instant  `json:"createdAt"`
	ActionURL string          `json:"actionUrl"`
}

// DecodeNotification accepts the current {id,title,message,type,isRead,timestamp} shape and the
// legacy event shape where type is an event name such as PAYMENT_SUCCESS.
func DecodeNotification(topic string, raw []byte, received time.Time) (models.Notification, error) {
	var w wireNotification
	if err := unmarshal(topic, raw, &w); err != nil {
		return models.Notification{}, err
	}

	n := models.Notification{
		ID:        idString(w.ID),
		Title:     w.Title,
		Message:   w.Message,
		Category:  w.Type,
		ActionURL: w.ActionURL,
		CreatedAt: firstInstant(received, w.Timestamp, w.CreatedAt),
	}
	switch {
	case w.IsRead != nil:
		n.IsRead = *w.IsRead
	case w.Read != nil:
		n.IsRead = *w.Read
	}

	if lower := strings.ToLower(w.Type); models.KnownCategory(lower) {
		n.Category = lower
	} else if w.Title == "" && w.Type != "" {
		n.Title = eventTitle(w.Type)
		n.Category = legacyCategory(w.Status)
	}

	if n.ID == "" {
		n.ID = generatedID(received)
	}
	if n.Title == "" && n.Message == "" {
		return models.Notification{}, &DecodeError{Topic: topic, Reason: "notification has neither title nor message"}
	}
	return n, nil
}

type wireTransaction struct {
	TransactionID          json.RawMessage  `json:"transactionId"`
	ID                     json.RawMessage  `json:"id"`
	PaymentID              string           `json:"paymentId"`
	Reference              string           `json:"reference"`
	FromAccountNumber      string           `json:"fromAccountNumber"`
	AccountNumber          string           `json:"accountNumber"`
	ToAccountNumber        string           `json:"toAccountNumber"`
	RecipientAccountNumber string           `json:"recipientAccountNumber"`
	Amount                 *decimal.Decimal `json:"amount"`
	Currency               string           `json:"currency"`
	TransactionType        string           `json:"transactionType"`
	Type                   string           `json:"type"`
	Status                 string           `json:"status"`
	PaymentMethod          string           `json:"paymentMethod"`
	TransactionReference   string           `json:"transactionReference"`
	Description            string           `json:"description"`
	CreatedBy              string           `json:"createdBy"`
	UpdatedAt              models.Instant   `json:"updatedAt"`
	CreatedAt              models.Instant   `json:"createdAt"`
	Timestamp              models.Instant   `json:"timestamp"`
}

// DecodeTransaction normalizes a transaction push. Field names fall back to the older wire
// names, direction and status are upper-cased and updatedAt accepts any Instant shape.
func DecodeTransaction(topic string, raw []byte, received time.Time) (models.Transaction, error) {
	var w wireTransaction
	if err := unmarshal(topic, raw, &w); err != nil {
		return models.Transaction{}, err
	}
	if w.Amount == nil {
		return models.Transaction{}, &DecodeError{Topic: topic, Reason: "transaction has no amount"}
	}

	tx := models.Transaction{
		ID:                   firstNonEmpty(idString(w.TransactionID), idString(w.ID)),
		PaymentReferenceID:   firstNonEmpty(w.PaymentID, w.Reference),
		FromAccount:          firstNonEmpty(w.FromAccountNumber, w.AccountNumber),
		ToAccount:            firstNonEmpty(w.ToAccountNumber, w.RecipientAccountNumber),
		Amount:               *w.Amount,
		Currency:             strings.ToUpper(w.Currency),
		Direction:            strings.ToUpper(firstNonEmpty(w.TransactionType, w.Type)),
		Status:               strings.ToUpper(w.Status),
		PaymentMethod:        w.PaymentMethod,
		TransactionReference: w.TransactionReference,
		Description:          w.Description,
		CreatedBy:            w.CreatedBy,
		UpdatedAt:            firstInstant(received, w.UpdatedAt, w.CreatedAt, w.Timestamp),
	}
	if tx.ID == "" {
		tx.ID = generatedID(received)
	}
	return tx, nil
}

type wirePaymentEvent struct {
	PaymentID     json.RawMessage  `json:"paymentId"`
	AccountNumber string           `json:"accountNumber"`
	Amount        *decimal.Decimal `json:"amount"`
	Currency      string           `json:"currency"`
	Timestamp     models.Instant   `json:"timestamp"`
}

// DecodePaymentEvent decodes the payment success/received payload.
func DecodePaymentEvent(topic string, raw []byte, received time.Time) (models.PaymentEvent, error) {
	var w wirePaymentEvent
	if err := unmarshal(topic, raw, &w); err != nil {
		return models.PaymentEvent{}, err
	}
	if w.AccountNumber == "" {
		return models.PaymentEvent{}, &DecodeError{Topic: topic, Reason: "payment event has no accountNumber"}
	}
	if w.Amount == nil {
		return models.PaymentEvent{}, &DecodeError{Topic: topic, Reason: "payment event has no amount"}
	}
	return models.PaymentEvent{
		PaymentID:     idString(w.PaymentID),
		AccountNumber: w.AccountNumber,
		Amount:        *w.Amount,
		Currency:      strings.ToUpper(w.Currency),
		Timestamp:     firstInstant(received, w.Timestamp),
	}, nil
}

func unmarshal(topic string, raw []byte, v any) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return &DecodeError{Topic: topic, Reason: "empty payload"}
	}
	if trimmed[0] != '{' {
		return &DecodeError{Topic: topic, Reason: "payload is not a JSON object"}
	}
	if err := json.Unmarshal(trimmed, v); err != nil {
		return &DecodeError{Topic: topic, Reason: "malformed JSON", Err: err}
	}
	return nil
}

// idString accepts ids sent as JSON strings or numbers.
func idString(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

// eventTitle turns PAYMENT_SUCCESS into "Payment Success".
func eventTitle(eventType string) string {
	words := strings.ReplaceAll(strings.ToLower(eventType), "_", " ")
	return cases.Title(language.English).String(words)
}

func legacyCategory(status string) string {
	if strings.EqualFold(status, models.StatusInitiated) {
		return models.CategoryInfo
	}
	return models.CategorySuccess
}

// idSeq keeps generated ids distinct when a batch is decoded with one receive time.
var idSeq atomic.Uint64

func generatedID(received time.Time) string {
	return "ws_" + strconv.FormatInt(received.UnixNano(), 10) + "_" + strconv.FormatUint(idSeq.Add(1), 10)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstInstant(fallback time.Time, values ...models.Instant) models.Instant {
	for _, v := range values {
		if !v.IsZero() {
			return v
		}
	}
	return models.NewInstant(fallback)
}
