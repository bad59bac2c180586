// Package payments validates payment forms and submits them to the backend.
package payments

import (
	// Go Internal Packages
	"context"
	"strings"
	"time"

	// Local Packages
	errors "bankfeed/errors"
	models "bankfeed/models"
	qrpay "bankfeed/services/qrpay"
	utils "bankfeed/utils"

	// External Packages
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	DefaultMethod      = "DIGITAL_WALLET"
	MinRecipientLength = 9
)

var MinAmount = decimal.RequireFromString("0.01")

// API is the REST call used to submit a payment.
type API interface {
	Pay(ctx context.Context, req models.PaymentRequest) (models.PaymentResult, error)
}

// Form is what the user enters. AccountNumber is the paying account.
type Form struct {
	AccountNumber          string
	RecipientAccountNumber string
	Amount                 decimal.Decimal
	Currency               string
	PaymentMethod          string
	Description            string
}

// Validate checks the form the same way before every submission.
func (f Form) Validate() error {
	ve := errors.ValidationErrs()
	if strings.TrimSpace(f.AccountNumber) == "" {
		ve.Add("accountNumber", "cannot be empty")
	}
	if len(strings.TrimSpace(f.RecipientAccountNumber)) < MinRecipientLength {
		ve.Add("recipientAccountNumber", "must be at least 9 digits")
	}
	if f.Amount.LessThan(MinAmount) {
		ve.Add("amount", "must be greater than 0")
	}
	if !utils.SupportedCurrency(strings.ToUpper(f.Currency)) {
		ve.Add("currency", "must be USD or KHR")
	}
	if strings.TrimSpace(f.PaymentMethod) == "" {
		ve.Add("paymentMethod", "please select a payment method")
	}
	return ve.Err()
}

// FormFromIntent prefills a form from a scanned QR intent. The paying account and method still
// come from the user. Expired intents are refused.
func FormFromIntent(intent qrpay.Intent, now time.Time) (Form, error) {
	if intent.Expired(now) {
		return Form{}, qrpay.ErrExpired
	}
	return Form{
		RecipientAccountNumber: intent.RecipientAccount,
		Amount:                 intent.Amount,
		Currency:               intent.Currency,
		PaymentMethod:          DefaultMethod,
		Description:            intent.Description,
	}, nil
}

type Service struct {
	api    API
	logger *zap.Logger
	now    func() time.Time
}

func NewService(api API, logger *zap.Logger) *Service {
	return &Service{api: api, logger: logger.Named("payments"), now: time.Now}
}

// Request turns a valid form into the body posted to the backend, with a fresh reference,
// card token and gateway.
func (s *Service) Request(f Form) (models.PaymentRequest, error) {
	if err := f.Validate(); err != nil {
		return models.PaymentRequest{}, errors.ValidationFailedErr(err)
	}
	return models.PaymentRequest{
		AccountNumber:          strings.TrimSpace(f.AccountNumber),
		RecipientAccountNumber: strings.TrimSpace(f.RecipientAccountNumber),
		Amount:                 f.Amount,
		Currency:               strings.ToUpper(f.Currency),
		PaymentMethod:          f.PaymentMethod,
		Description:            f.Description,
		Reference:              utils.GenerateReference(s.now()),
		CardToken:              utils.GenerateCardToken(),
		PaymentGateway:         utils.RandomGateway(),
	}, nil
}

// Submit validates and posts the form. A response without a payment id is a refusal and its
// responseMessage becomes the error message. A successful result falls back to the request
// reference and the current time when the backend leaves them out.
func (s *Service) Submit(ctx context.Context, f Form) (models.PaymentResult, error) {
	req, err := s.Request(f)
	if err != nil {
		return models.PaymentResult{}, err
	}

	res, err := s.api.Pay(ctx, req)
	if err != nil {
		s.logger.Warn("payment failed", zap.String("reference", req.Reference), zap.Error(err))
		return models.PaymentResult{}, err
	}
	if res.PaymentID == "" {
		msg := res.ResponseMessage
		if msg == "" {
			msg = "Payment failed"
		}
		s.logger.Warn("payment refused", zap.String("reference", req.Reference), zap.String("reason", msg))
		return models.PaymentResult{}, errors.E(errors.Invalid, msg, nil)
	}

	if res.TransactionReference == "" {
		res.TransactionReference = req.Reference
	}
	if res.Timestamp.IsZero() {
		res.Timestamp = models.NewInstant(s.now())
	}
	if res.Amount.IsZero() {
		res.Amount = req.Amount
	}
	if res.Currency == "" {
		res.Currency = req.Currency
	}
	s.logger.Info("payment processed", zap.String("payment_id", res.PaymentID), zap.String("reference", res.TransactionReference))
	return res, nil
}
