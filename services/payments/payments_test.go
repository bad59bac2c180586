package payments

import (
	// Go Internal Packages
	"context"
	"testing"
	"time"

	// Local Packages
	errors "bankfeed/errors"
	models "bankfeed/models"
	qrpay "bankfeed/services/qrpay"
	utils "bankfeed/utils"

	// External Packages
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeAPI struct {
	result models.PaymentResult
	err    error
	got    []models.PaymentRequest
}

func (f *fakeAPI) Pay(ctx context.Context, req models.PaymentRequest) (models.PaymentResult, error) {
	f.got = append(f.got, req)
	return f.result, f.err
}

var now = time.Date(2025, 8, 17, 9, 0, 0, 0, time.UTC)

func validForm() Form {
	return Form{
		AccountNumber:          "001001001",
		RecipientAccountNumber: "002002002",
		Amount:                 decimal.RequireFromString("25"),
		Currency:               "usd",
		PaymentMethod:          DefaultMethod,
		Description:            "rent",
	}
}

func newTestService(api API) *Service {
	s := NewService(api, zap.NewNop())
	s.now = func() time.Time { return now }
	return s
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		edit  func(*Form)
		field string
	}{
		{"amount below minimum", func(f *Form) { f.Amount = decimal.RequireFromString("0.009") }, "amount"},
		{"zero amount", func(f *Form) { f.Amount = decimal.Zero }, "amount"},
		{"short recipient", func(f *Form) { f.RecipientAccountNumber = "12345678" }, "recipientAccountNumber"},
		{"currency", func(f *Form) { f.Currency = "EUR" }, "currency"},
		{"method", func(f *Form) { f.PaymentMethod = " " }, "paymentMethod"},
		{"paying account", func(f *Form) { f.AccountNumber = "" }, "accountNumber"},
	}

	require.NoError(t, validForm().Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := validForm()
			tt.edit(&f)
			err := f.Validate()
			require.Error(t, err)
			assert.True(t, errors.IsKind(err, errors.Invalid))
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestSubmitFillsGeneratedFields(t *testing.T) {
	api := &fakeAPI{result: models.PaymentResult{PaymentID: "p-1", Message: "ok"}}
	s := newTestService(api)

	res, err := s.Submit(context.Background(), validForm())
	require.NoError(t, err)
	require.Len(t, api.got, 1)

	req := api.got[0]
	assert.Equal(t, "USD", req.Currency)
	assert.Regexp(t, `^REF-[0-9A-Z]+-[0-9A-Z]{6}$`, req.Reference)
	assert.Regexp(t, `^[0-9A-F]{32}$`, req.CardToken)
	assert.Contains(t, utils.Gateways, req.PaymentGateway)

	assert.Equal(t, "p-1", res.PaymentID)
	assert.Equal(t, req.Reference, res.TransactionReference, "falls back to the request reference")
	assert.True(t, now.Equal(res.Timestamp.Time))
	assert.Equal(t, "25", res.Amount.String())
}

func TestSubmitInvalidFormSkipsAPI(t *testing.T) {
	api := &fakeAPI{}
	f := validForm()
	f.Amount = decimal.Zero

	_, err := newTestService(api).Submit(context.Background(), f)
	assert.True(t, errors.IsKind(err, errors.Invalid))
	assert.Equal(t, "validation failed: amount must be greater than 0", err.Error())
	assert.Empty(t, api.got)
}

func TestSubmitWithoutPaymentIDIsRefusal(t *testing.T) {
	api := &fakeAPI{result: models.PaymentResult{ResponseMessage: "Insufficient funds"}}
	_, err := newTestService(api).Submit(context.Background(), validForm())
	require.Error(t, err)
	assert.Equal(t, "Insufficient funds", errors.Message(err, ""))

	api.result = models.PaymentResult{}
	_, err = newTestService(api).Submit(context.Background(), validForm())
	assert.Equal(t, "Payment failed", errors.Message(err, ""))
}

func TestSubmitPassesAPIErrors(t *testing.T) {
	api := &fakeAPI{err: errors.E(errors.Conflict, "Account frozen", nil)}
	_, err := newTestService(api).Submit(context.Background(), validForm())
	assert.True(t, errors.IsKind(err, errors.Conflict))
	assert.Equal(t, "Account frozen", errors.Message(err, ""))
}

func TestFormFromIntent(t *testing.T) {
	exp := now.Add(time.Minute)
	intent := qrpay.Intent{
		Type:             qrpay.PayloadType,
		QRType:           qrpay.Dynamic,
		RecipientAccount: "002002002",
		Amount:           decimal.RequireFromString("12.5"),
		Currency:         "KHR",
		Description:      "coffee",
		ExpiresAt:        &exp,
	}

	f, err := FormFromIntent(intent, now)
	require.NoError(t, err)
	assert.Equal(t, "002002002", f.RecipientAccountNumber)
	assert.Equal(t, "KHR", f.Currency)
	assert.Equal(t, DefaultMethod, f.PaymentMethod)
	assert.Empty(t, f.AccountNumber)

	_, err = FormFromIntent(intent, exp)
	assert.ErrorIs(t, err, qrpay.ErrExpired)
}
