package main

import (
	// Go Internal Packages
	"context"
	"fmt"
	"time"

	// Local Packages
	errors "bankfeed/errors"
	feeds "bankfeed/services/feeds"

	// External Packages
	"github.com/alecthomas/kingpin/v2"
)

func registerTransactions(cli *kingpin.Application, cmds commands) {
	transactions := cli.Command("transactions", "Transaction history.")

	list := transactions.Command("list", "Recent transactions, newest first, with totals.").Default()
	limit := list.Flag("limit", "Transactions to keep").Short('n').Default("50").Int()
	cmds[list.FullCommand()] = func(ctx context.Context, a *app) error {
		feed := feeds.NewTransactionFeed(*limit, feeds.WithMetrics(a.metrics))
		if err := feed.Load(ctx, a.api.ListTransactions); err != nil {
			return err
		}
		history := feed.History()
		if a.jsonOut {
			return a.print(struct {
				Transactions any           `json:"transactions"`
				Summary      feeds.Summary `json:"summary"`
			}{history, feed.Summary()}, nil, nil)
		}
		if err := a.print(history, transactionHeaders, transactionRows(history, time.Now())); err != nil {
			return err
		}
		fmt.Fprintln(a.out)
		for _, line := range summaryLines(feed.Summary()) {
			fmt.Fprintln(a.out, line)
		}
		return nil
	}

	archived := transactions.Command("archived", "Transactions archived from the push feed.")
	archivedLimit := archived.Flag("limit", "Transactions to show").Short('n').Default("50").Int64()
	cmds[archived.FullCommand()] = func(ctx context.Context, a *app) error {
		repo, err := a.archive(ctx)
		if err != nil {
			return err
		}
		if repo == nil {
			return errors.E(errors.Invalid, "the archive is disabled, set mongo.enabled", nil)
		}
		txs, err := repo.RecentTransactions(ctx, *archivedLimit)
		if err != nil {
			return errors.UnavailableErr("read archive", err)
		}
		return a.print(txs, transactionHeaders, transactionRows(txs, time.Now()))
	}
}
