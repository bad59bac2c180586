package main

import (
	// Go Internal Packages
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	// Local Packages
	errors "bankfeed/errors"
	models "bankfeed/models"
	push "bankfeed/push"
	decoders "bankfeed/services/decoders"
	feeds "bankfeed/services/feeds"
	processors "bankfeed/services/processors"
	utils "bankfeed/utils"

	// External Packages
	"github.com/alecthomas/kingpin/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func registerWatch(cli *kingpin.Application, cmds commands) {
	watch := cli.Command("watch", "Follow notifications, transactions and balances live.")
	show := watch.Flag("feed", "What to print as it arrives").Default("all").Enum("all", "notifications", "transactions")
	cmds[watch.FullCommand()] = func(ctx context.Context, a *app) error {
		return a.watch(ctx, *show)
	}
}

type liveStores struct {
	transactions  *feeds.TransactionFeed
	notifications *feeds.NotificationFeed
	accounts      *feeds.AccountBook
}

func (s liveStores) dispose() {
	s.transactions.Dispose()
	s.notifications.Dispose()
	s.accounts.Dispose()
}

func (a *app) watch(ctx context.Context, show string) error {
	if !a.conf.IsProdMode {
		fmt.Fprint(os.Stderr, a.k.Sprint())
	}

	stores := liveStores{
		transactions:  feeds.NewTransactionFeed(a.conf.Feeds.TransactionLimit, feeds.WithMetrics(a.metrics)),
		notifications: feeds.NewNotificationFeed(a.api, a.conf.Feeds.NotificationLimit, feeds.WithMetrics(a.metrics)),
		accounts:      feeds.NewAccountBook(a.api, feeds.WithMetrics(a.metrics)),
	}
	defer stores.dispose()

	proc, err := a.feedProcessor(ctx, stores)
	if err != nil {
		return err
	}

	provider, err := a.provider()
	if err != nil {
		return err
	}
	manager, release, err := provider.Acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	detach := proc.Attach(ctx, manager)
	defer detach()

	out := &livePrinter{w: a.out}
	out.line("push: %s", manager.State())
	removeListener := manager.OnStateChange(func(s push.State) { out.line("push: %s", s) })
	defer removeListener()
	a.serveMetrics(ctx, func() string { return string(manager.State()) })

	if err := a.seed(ctx, stores); err != nil {
		return err
	}
	out.line("%d transactions, %d notifications (%d unread), %d accounts",
		stores.transactions.Len(), stores.notifications.Len(), stores.notifications.UnreadCount(), stores.accounts.Len())
	out.follow(stores, show)

	<-ctx.Done()
	out.line("stopping")
	return nil
}

// feedProcessor wires the stores and, when enabled, the archive and dead-letter list.
func (a *app) feedProcessor(ctx context.Context, stores liveStores) (*processors.FeedProcessor, error) {
	topics := decoders.Topics{
		Notifications:    a.conf.Push.Topics.Notifications,
		Transactions:     a.conf.Push.Topics.Transactions,
		PaymentsSuccess:  a.conf.Push.Topics.PaymentsSuccess,
		PaymentsReceived: a.conf.Push.Topics.PaymentsReceived,
	}
	proc := processors.NewFeedProcessor(a.logger, topics, processors.Stores{
		Transactions:  stores.transactions,
		Notifications: stores.notifications,
		Accounts:      stores.accounts,
	})
	proc.Metrics = a.metrics

	repo, err := a.archive(ctx)
	if err != nil {
		return nil, err
	}
	if repo != nil {
		proc.TxRepo = repo
	}
	dlq, err := a.deadLetters(ctx)
	if err != nil {
		return nil, err
	}
	if dlq != nil {
		proc.DLQ = dlq
	}
	return proc, nil
}

// seed loads every store in parallel. A failed load is reported and the store keeps only pushed
// records; an expired session stops the watch.
func (a *app) seed(ctx context.Context, stores liveStores) error {
	var g errgroup.Group
	load := func(name string, fn func() error) {
		g.Go(func() error {
			if err := fn(); err != nil {
				a.logger.Warn("initial load failed", zap.String("feed", name), zap.Error(err))
				return err
			}
			return nil
		})
	}
	load("transactions", func() error { return stores.transactions.Load(ctx, a.api.ListTransactions) })
	load("notifications", func() error { return stores.notifications.Load(ctx, a.api.ListNotifications) })
	load("accounts", func() error { return stores.accounts.Load(ctx, a.api.ListAccounts) })

	if err := g.Wait(); errors.IsKind(err, errors.Unauthenticated) {
		return err
	}
	return nil
}

// livePrinter serializes output from feed listeners running on different goroutines.
type livePrinter struct {
	mu sync.Mutex
	w  io.Writer

	lastTx           string
	lastNotification string
	available        map[string]decimal.Decimal
}

func (p *livePrinter) line(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.w, format+"\n", args...)
}

// follow prints what each pushed record changes. The current heads count as already printed.
func (p *livePrinter) follow(stores liveStores, show string) {
	p.mu.Lock()
	if txs := stores.transactions.Snapshot(); len(txs) > 0 {
		p.lastTx = txKey(txs[0])
	}
	if ns := stores.notifications.Snapshot(); len(ns) > 0 {
		p.lastNotification = ns[0].ID
	}
	p.available = balances(stores.accounts.Snapshot())
	p.mu.Unlock()

	if show == "all" || show == "transactions" {
		stores.transactions.Subscribe(p.onTransactions)
	}
	if show == "all" || show == "notifications" {
		stores.notifications.Subscribe(func(ns []models.Notification) {
			p.onNotifications(ns, models.UnreadCount(ns))
		})
	}
	if show == "all" {
		stores.accounts.Subscribe(p.onAccounts)
	}
}

func (p *livePrinter) onTransactions(txs []models.Transaction) {
	if len(txs) == 0 {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if key := txKey(txs[0]); key != p.lastTx {
		p.lastTx = key
		fmt.Fprintln(p.w, "transaction  "+strings.Join(transactionRow(txs[0], time.Now()), "  "))
	}
}

func (p *livePrinter) onNotifications(ns []models.Notification, unread int) {
	if len(ns) == 0 {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if n := ns[0]; n.ID != p.lastNotification {
		p.lastNotification = n.ID
		fmt.Fprintf(p.w, "notification [%s] %s: %s (%d unread)\n", n.Category, n.Title, n.Message, unread)
	}
}

func (p *livePrinter) onAccounts(accounts []models.Account) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, acc := range accounts {
		prev, ok := p.available[acc.AccountNumber]
		if ok && !prev.Equal(acc.AvailableBalance) {
			fmt.Fprintf(p.w, "balance      %s available %s -> %s\n",
				utils.FormatAccountNumber(acc.AccountNumber),
				utils.FormatCurrency(prev, acc.Currency),
				utils.FormatCurrency(acc.AvailableBalance, acc.Currency))
		}
	}
	p.available = balances(accounts)
}

// txKey changes when a transaction is pushed again with a new status.
func txKey(tx models.Transaction) string {
	return tx.ID + "/" + tx.Status
}

func balances(accounts []models.Account) map[string]decimal.Decimal {
	m := make(map[string]decimal.Decimal, len(accounts))
	for _, acc := range accounts {
		m[acc.AccountNumber] = acc.AvailableBalance
	}
	return m
}
