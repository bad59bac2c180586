package main

import (
	// Go Internal Packages
	"context"
	"fmt"
	"os"
	"time"

	// Local Packages
	errors "bankfeed/errors"
	payments "bankfeed/services/payments"
	qrpay "bankfeed/services/qrpay"
	utils "bankfeed/utils"

	// External Packages
	"github.com/alecthomas/kingpin/v2"
	"github.com/shopspring/decimal"
)

type payFlags struct {
	from, to, amount, currency, method, description string
	qrFile, qrData                                  string
}

func registerPay(cli *kingpin.Application, cmds commands) {
	pay := cli.Command("pay", "Send a payment, optionally prefilled from a QR code.")
	f := &payFlags{}
	pay.Flag("from", "Paying account number").Required().StringVar(&f.from)
	pay.Flag("to", "Recipient account number").StringVar(&f.to)
	pay.Flag("amount", "Amount to send").StringVar(&f.amount)
	pay.Flag("currency", "USD or KHR").StringVar(&f.currency)
	pay.Flag("method", "Payment method").StringVar(&f.method)
	pay.Flag("description", "Description").StringVar(&f.description)
	pay.Flag("qr", "PNG with a payment QR code").ExistingFileVar(&f.qrFile)
	pay.Flag("qr-data", "Payment QR JSON payload").StringVar(&f.qrData)

	cmds[pay.FullCommand()] = func(ctx context.Context, a *app) error {
		form, err := f.form(time.Now())
		if err != nil {
			return err
		}
		res, err := payments.NewService(a.api, a.logger).Submit(ctx, form)
		if err != nil {
			return err
		}
		if a.jsonOut {
			return a.print(res, nil, nil)
		}
		msg := res.Message
		if msg == "" {
			msg = "Payment processed successfully!"
		}
		_, err = fmt.Fprintf(a.out, "%s\npayment   %s\nreference %s\namount    %s\n",
			msg, res.PaymentID, res.TransactionReference, utils.FormatCurrency(res.Amount, res.Currency))
		return err
	}
}

// form builds the payment form. A QR code prefills it and explicit flags win over the QR values.
func (f *payFlags) form(now time.Time) (payments.Form, error) {
	form := payments.Form{Currency: utils.USD, PaymentMethod: payments.DefaultMethod}

	intent, ok, err := f.intent(now)
	if err != nil {
		return payments.Form{}, err
	}
	if ok {
		if form, err = payments.FormFromIntent(intent, now); err != nil {
			return payments.Form{}, err
		}
	}

	form.AccountNumber = f.from
	if f.to != "" {
		form.RecipientAccountNumber = f.to
	}
	if f.amount != "" {
		amount, err := decimal.NewFromString(f.amount)
		if err != nil {
			return payments.Form{}, errors.InvalidParamErr("amount", "a number", err)
		}
		form.Amount = amount
	}
	if f.currency != "" {
		form.Currency = f.currency
	}
	if f.method != "" {
		form.PaymentMethod = f.method
	}
	if f.description != "" {
		form.Description = f.description
	}
	return form, nil
}

func (f *payFlags) intent(now time.Time) (qrpay.Intent, bool, error) {
	switch {
	case f.qrFile != "":
		file, err := os.Open(f.qrFile)
		if err != nil {
			return qrpay.Intent{}, false, errors.E(errors.Invalid, "cannot open QR image", err)
		}
		defer file.Close()
		intent, err := qrpay.ScanPNG(file, now)
		return intent, err == nil, err
	case f.qrData != "":
		intent, err := qrpay.Parse([]byte(f.qrData), now)
		return intent, err == nil, err
	}
	return qrpay.Intent{}, false, nil
}
