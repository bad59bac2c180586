package feeds

import (
	// Go Internal Packages
	"context"
	"slices"
	"strings"

	// Local Packages
	errors "bankfeed/errors"
	models "bankfeed/models"
)

// AccountAPI is the REST surface used by account state transitions. The returned account may be
// empty when the backend answers without a body.
type AccountAPI interface {
	FreezeAccount(ctx context.Context, number string) (models.Account, error)
	UnfreezeAccount(ctx context.Context, number string) (models.Account, error)
}

type AccountBook struct {
	*Feed[models.Account]
	api AccountAPI
}

func NewAccountBook(api AccountAPI, opts ...Option) *AccountBook {
	return &AccountBook{Feed: NewFeed[models.Account]("accounts", 0, opts...), api: api}
}

// Filter returns the accounts whose number or holder name contains search, case-insensitively,
// and whose status equals status. An empty status or "ALL" matches every status.
func (b *AccountBook) Filter(search, status string) []models.Account {
	search = strings.ToLower(strings.TrimSpace(search))
	status = strings.ToUpper(strings.TrimSpace(status))

	var out []models.Account
	for _, a := range b.Snapshot() {
		if status != "" && status != "ALL" && a.Status != status {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(a.AccountNumber), search) &&
			!strings.Contains(strings.ToLower(a.HolderName), search) {
			continue
		}
		out = append(out, a)
	}
	return out
}

// Freeze moves an account to FROZEN. Frozen and closed accounts are refused before any call.
func (b *AccountBook) Freeze(ctx context.Context, number string) error {
	return b.transition(ctx, number, models.AccountFrozen, func(a models.Account) error {
		switch a.Status {
		case models.AccountFrozen:
			return errors.ConflictErr("account", number, "is already frozen")
		case models.AccountClosed:
			return errors.ConflictErr("account", number, "is closed")
		}
		return nil
	}, b.api.FreezeAccount)
}

// Unfreeze moves a FROZEN account back to ACTIVE.
func (b *AccountBook) Unfreeze(ctx context.Context, number string) error {
	return b.transition(ctx, number, models.AccountActive, func(a models.Account) error {
		if a.Status != models.AccountFrozen {
			return errors.ConflictErr("account", number, "is not frozen")
		}
		return nil
	}, b.api.UnfreezeAccount)
}

func (b *AccountBook) transition(
	ctx context.Context,
	number, to string,
	check func(models.Account) error,
	call func(context.Context, string) (models.Account, error),
) error {
	var (
		prev    models.Account
		refused error
		found   bool
	)
	b.mutate(func(items []models.Account) ([]models.Account, bool) {
		i := indexOf(items, number)
		if i < 0 {
			return items, false
		}
		found = true
		prev = items[i]
		if refused = check(prev); refused != nil {
			return items, false
		}
		next := slices.Clone(items)
		next[i].Status = to
		return next, true
	})
	if !found {
		return errors.E(errors.NotFound, "account "+number+" not found", nil)
	}
	if refused != nil {
		return refused
	}

	updated, err := call(ctx, number)
	if err != nil {
		b.replace(number, func(a *models.Account) { a.Status = prev.Status })
		return err
	}
	if updated.AccountNumber == number {
		b.replace(number, func(a *models.Account) { *a = updated })
	}
	return nil
}

// ApplyPaymentEvent adjusts the available balance of the event's account: received payments add,
// sent payments subtract. The balance never goes below zero. It reports whether an account matched.
func (b *AccountBook) ApplyPaymentEvent(evt models.PaymentEvent, received bool) bool {
	delta := evt.Amount.Abs()
	if !received {
		delta = delta.Neg()
	}
	return b.replace(evt.AccountNumber, func(a *models.Account) { a.AdjustAvailable(delta) })
}

func (b *AccountBook) replace(number string, fn func(*models.Account)) bool {
	return b.mutate(func(items []models.Account) ([]models.Account, bool) {
		i := indexOf(items, number)
		if i < 0 {
			return items, false
		}
		next := slices.Clone(items)
		fn(&next[i])
		return next, true
	})
}
