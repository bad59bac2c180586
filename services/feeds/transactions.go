package feeds

import (
	// Go Internal Packages
	"context"
	"slices"

	// Local Packages
	models "bankfeed/models"

	// External Packages
	"github.com/shopspring/decimal"
)

const DefaultTransactionLimit = 50

type TransactionFeed struct {
	*Feed[models.Transaction]
}

// NewTransactionFeed keeps the limit most recent transactions, 50 when limit is not positive.
func NewTransactionFeed(limit int, opts ...Option) *TransactionFeed {
	if limit <= 0 {
		limit = DefaultTransactionLimit
	}
	return &TransactionFeed{Feed: NewFeed[models.Transaction]("transactions", limit, opts...)}
}

// Load seeds the feed with the fetched transactions sorted newest first, so the limit drops the
// oldest ones whatever order the backend answers in.
func (f *TransactionFeed) Load(ctx context.Context, fetch func(ctx context.Context) ([]models.Transaction, error)) error {
	return f.Feed.Load(ctx, func(ctx context.Context) ([]models.Transaction, error) {
		txs, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		txs = slices.Clone(txs)
		slices.SortStableFunc(txs, newestFirst)
		return txs, nil
	})
}

// History returns the transactions ordered by updatedAt, newest first. Ties keep arrival order.
func (f *TransactionFeed) History() []models.Transaction {
	items := f.Snapshot()
	slices.SortStableFunc(items, newestFirst)
	return items
}

func newestFirst(a, b models.Transaction) int {
	return b.UpdatedAt.Compare(a.UpdatedAt.Time)
}

type Summary struct {
	Total       int
	Pending     int
	ByStatus    map[string]int
	ByDirection map[string]int
	// Volume is the unsigned sum of amounts per currency.
	Volume map[string]decimal.Decimal
	// Net is credits minus debits per currency.
	Net map[string]decimal.Decimal
}

func (f *TransactionFeed) Summary() Summary {
	return Summarize(f.Snapshot())
}

// Summarize computes the dashboard totals for txs.
func Summarize(txs []models.Transaction) Summary {
	s := Summary{
		Total:       len(txs),
		ByStatus:    make(map[string]int),
		ByDirection: make(map[string]int),
		Volume:      make(map[string]decimal.Decimal),
		Net:         make(map[string]decimal.Decimal),
	}
	for _, tx := range txs {
		s.ByStatus[tx.Status]++
		s.ByDirection[tx.Direction]++
		if models.PendingStatus(tx.Status) {
			s.Pending++
		}
		s.Volume[tx.Currency] = s.Volume[tx.Currency].Add(tx.Amount.Abs())
		s.Net[tx.Currency] = s.Net[tx.Currency].Add(tx.SignedAmount())
	}
	return s
}
