package main

import (
	// Go Internal Packages
	"context"
	"fmt"
	"os"
	"time"

	// Local Packages
	errors "bankfeed/errors"
	qrpay "bankfeed/services/qrpay"
	utils "bankfeed/utils"

	// External Packages
	"github.com/alecthomas/kingpin/v2"
	"github.com/shopspring/decimal"
)

func registerQR(cli *kingpin.Application, cmds commands) {
	qr := cli.Command("qr", "Payment QR codes.")

	gen := qr.Command("generate", "Create a payment QR code.")
	account := gen.Flag("account", "Account receiving the payment").Required().String()
	amount := gen.Flag("amount", "Requested amount, 0 for an open amount").Default("0").String()
	currency := gen.Flag("currency", "USD or KHR").Default(utils.USD).String()
	description := gen.Flag("description", "Description").String()
	out := gen.Flag("out", "Write the QR code as PNG to this file").Short('o').String()
	cmds[gen.FullCommand()] = func(ctx context.Context, a *app) error {
		amt, err := decimal.NewFromString(*amount)
		if err != nil {
			return errors.InvalidParamErr("amount", "a number", err)
		}

		intent, err := a.qrGenerator().Generate(qrpay.Request{
			RecipientAccount: *account,
			Amount:           amt,
			Currency:         *currency,
			Description:      *description,
		})
		if err != nil {
			return err
		}

		if *out != "" {
			img, err := qrpay.PNG(intent, a.conf.QR.Size)
			if err != nil {
				return err
			}
			if err := os.WriteFile(*out, img, 0o644); err != nil {
				return errors.E(errors.Internal, "cannot write QR image", err)
			}
		}
		if a.jsonOut {
			return a.print(intent, nil, nil)
		}

		payload, err := qrpay.Encode(intent)
		if err != nil {
			return err
		}
		fmt.Fprintln(a.out, describeIntent(intent, time.Now()))
		fmt.Fprintln(a.out, payload)
		if *out != "" {
			fmt.Fprintf(a.out, "saved to %s\n", *out)
		}
		return nil
	}

	scan := qr.Command("scan", "Read a payment QR code from a PNG.")
	file := scan.Arg("file", "PNG image").Required().ExistingFile()
	cmds[scan.FullCommand()] = func(ctx context.Context, a *app) error {
		f, err := os.Open(*file)
		if err != nil {
			return errors.E(errors.Invalid, "cannot open QR image", err)
		}
		defer f.Close()

		intent, err := qrpay.ScanPNG(f, time.Now())
		if err != nil {
			return err
		}
		if a.jsonOut {
			return a.print(intent, nil, nil)
		}
		_, err = fmt.Fprintln(a.out, describeIntent(intent, time.Now()))
		return err
	}
}

func (a *app) qrGenerator() *qrpay.Generator {
	classifier := qrpay.Classifier{
		MinDynamicUSD: decimal.NewFromFloat(a.conf.QR.MinDynamicUSD),
		KHRPerUSD:     decimal.NewFromFloat(a.conf.QR.KHRPerUSD),
	}
	return qrpay.NewGenerator(classifier, a.conf.QR.TTL)
}

// describeIntent is a one line summary: kind, recipient, amount and time left.
func describeIntent(intent qrpay.Intent, now time.Time) string {
	amount := "open amount"
	if !intent.Amount.IsZero() {
		amount = utils.FormatCurrency(intent.Amount, intent.Currency)
	}
	line := fmt.Sprintf("%s QR to %s, %s, ref %s", intent.QRType,
		utils.FormatAccountNumber(intent.RecipientAccount), amount, intent.Reference)
	if left, ok := intent.Remaining(now); ok {
		line += ", expires in " + utils.Countdown(left)
	}
	return line
}
