package main

import (
	// Go Internal Packages
	"context"
	"fmt"
	"time"

	// Local Packages
	models "bankfeed/models"
	feeds "bankfeed/services/feeds"
	utils "bankfeed/utils"

	// External Packages
	"github.com/alecthomas/kingpin/v2"
)

func registerAccounts(cli *kingpin.Application, cmds commands) {
	accounts := cli.Command("accounts", "Account dashboard.")

	list := accounts.Command("list", "List accounts.").Default()
	search := list.Flag("search", "Match account number or holder name").Short('s').String()
	status := list.Flag("status", "ALL, ACTIVE, FROZEN, SUSPENDED or CLOSED").Default("ALL").
		Enum("ALL", models.AccountActive, models.AccountFrozen, models.AccountSuspended, models.AccountClosed)
	cmds[list.FullCommand()] = func(ctx context.Context, a *app) error {
		book, err := a.loadAccounts(ctx)
		if err != nil {
			return err
		}
		matched := book.Filter(*search, *status)
		return a.print(matched, accountHeaders, accountRows(matched, time.Now()))
	}

	show := accounts.Command("show", "Show one account.")
	showNumber := show.Arg("number", "Account number").Required().String()
	cmds[show.FullCommand()] = func(ctx context.Context, a *app) error {
		acc, err := a.api.GetAccount(ctx, *showNumber)
		if err != nil {
			return err
		}
		if a.jsonOut {
			return a.print(acc, nil, nil)
		}
		_, err = fmt.Fprintf(a.out, "%s  %s\n%s %s\nbalance    %s\navailable  %s\n",
			utils.FormatAccountNumber(acc.AccountNumber), acc.HolderName,
			acc.Type, acc.Status,
			utils.FormatCurrency(acc.Balance, acc.Currency),
			utils.FormatCurrency(acc.AvailableBalance, acc.Currency))
		return err
	}

	freeze := accounts.Command("freeze", "Freeze an active account.")
	freezeNumber := freeze.Arg("number", "Account number").Required().String()
	cmds[freeze.FullCommand()] = func(ctx context.Context, a *app) error {
		return a.transitionAccount(ctx, *freezeNumber, (*feeds.AccountBook).Freeze)
	}

	unfreeze := accounts.Command("unfreeze", "Unfreeze a frozen account.")
	unfreezeNumber := unfreeze.Arg("number", "Account number").Required().String()
	cmds[unfreeze.FullCommand()] = func(ctx context.Context, a *app) error {
		return a.transitionAccount(ctx, *unfreezeNumber, (*feeds.AccountBook).Unfreeze)
	}
}

func (a *app) loadAccounts(ctx context.Context) (*feeds.AccountBook, error) {
	book := feeds.NewAccountBook(a.api, feeds.WithMetrics(a.metrics))
	if err := book.Load(ctx, a.api.ListAccounts); err != nil {
		return nil, err
	}
	return book, nil
}

// transitionAccount loads the book so the current status is known, then applies the change.
func (a *app) transitionAccount(ctx context.Context, number string, apply func(*feeds.AccountBook, context.Context, string) error) error {
	book, err := a.loadAccounts(ctx)
	if err != nil {
		return err
	}
	if err := apply(book, ctx, number); err != nil {
		return err
	}
	acc, _ := book.Get(number)
	_, err = fmt.Fprintf(a.out, "Account %s is now %s\n", utils.FormatAccountNumber(number), acc.Status)
	return err
}
