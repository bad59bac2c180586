package bankapi

import (
	// Go Internal Packages
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"slices"
	"strconv"

	// Local Packages
	errors "bankfeed/errors"
	models "bankfeed/models"
	decoders "bankfeed/services/decoders"

	// External Packages
	"go.uber.org/zap"
)

func (c *Client) ListAccounts(ctx context.Context) ([]models.Account, error) {
	var accounts []models.Account
	err := c.do(ctx, call{endpoint: "accounts.list", method: http.MethodGet, path: "/api/accounts"}, &accounts)
	return accounts, err
}

func (c *Client) GetAccount(ctx context.Context, number string) (models.Account, error) {
	if number == "" {
		return models.Account{}, errors.EmptyParamErr("accountNumber")
	}
	var account models.Account
	err := c.do(ctx, call{
		endpoint: "accounts.get",
		method:   http.MethodGet,
		path:     "/api/accounts/" + url.PathEscape(number),
	}, &account)
	return account, err
}

// FreezeAccount returns the account as the backend sees it after the change. The account is empty
// when the backend answers without a body.
func (c *Client) FreezeAccount(ctx context.Context, number string) (models.Account, error) {
	return c.accountTransition(ctx, "accounts.freeze", number, "freeze")
}

func (c *Client) UnfreezeAccount(ctx context.Context, number string) (models.Account, error) {
	return c.accountTransition(ctx, "accounts.unfreeze", number, "unfreeze")
}

func (c *Client) accountTransition(ctx context.Context, endpoint, number, action string) (models.Account, error) {
	if number == "" {
		return models.Account{}, errors.EmptyParamErr("accountNumber")
	}
	var account models.Account
	err := c.do(ctx, call{
		endpoint: endpoint,
		method:   http.MethodPatch,
		path:     "/api/accounts/" + url.PathEscape(number) + "/" + action,
	}, &account)
	return account, err
}

// ListTransactions returns the history normalized the same way as pushed transactions.
// Entries that cannot be decoded are skipped.
func (c *Client) ListTransactions(ctx context.Context) ([]models.Transaction, error) {
	const endpoint = "transactions.list"
	var raw []json.RawMessage
	if err := c.do(ctx, call{endpoint: endpoint, method: http.MethodGet, path: "/api/transactions"}, &raw); err != nil {
		return nil, err
	}

	received := c.now()
	txs := make([]models.Transaction, 0, len(raw))
	for _, item := range raw {
		tx, err := decoders.DecodeTransaction(endpoint, item, received)
		if err != nil {
			c.logger.Warn("skipping transaction", zap.Error(err))
			continue
		}
		txs = append(txs, tx)
	}
	return txs, nil
}

// ListNotifications returns the backend notifications, newest first.
func (c *Client) ListNotifications(ctx context.Context) ([]models.Notification, error) {
	const endpoint = "notifications.list"
	var raw []json.RawMessage
	if err := c.do(ctx, call{endpoint: endpoint, method: http.MethodGet, path: "/api/notifications"}, &raw); err != nil {
		return nil, err
	}

	received := c.now()
	out := make([]models.Notification, 0, len(raw))
	for _, item := range raw {
		n, err := decoders.DecodeNotification(endpoint, item, received)
		if err != nil {
			c.logger.Warn("skipping notification", zap.Error(err))
			continue
		}
		out = append(out, n)
	}
	slices.SortStableFunc(out, func(a, b models.Notification) int {
		return b.CreatedAt.Compare(a.CreatedAt.Time)
	})
	return out, nil
}

func (c *Client) SetNotificationRead(ctx context.Context, id string, read bool) error {
	if id == "" {
		return errors.EmptyParamErr("id")
	}
	return c.do(ctx, call{
		endpoint: "notifications.status",
		method:   http.MethodPatch,
		path:     "/api/notifications/" + url.PathEscape(id) + "/status",
		query:    url.Values{"read": {strconv.FormatBool(read)}},
	}, nil)
}

func (c *Client) MarkAllNotificationsRead(ctx context.Context) error {
	return c.do(ctx, call{
		endpoint: "notifications.mark_all_read",
		method:   http.MethodPatch,
		path:     "/api/notifications/mark-all-read",
	}, nil)
}

func (c *Client) DeleteNotification(ctx context.Context, id string) error {
	if id == "" {
		return errors.EmptyParamErr("id")
	}
	return c.do(ctx, call{
		endpoint: "notifications.delete",
		method:   http.MethodDelete,
		path:     "/api/notifications/" + url.PathEscape(id),
	}, nil)
}

// Pay posts a payment. The result may carry a ResponseMessage and no PaymentID when the backend
// refused the payment with a 2xx status; callers decide what that means.
func (c *Client) Pay(ctx context.Context, req models.PaymentRequest) (models.PaymentResult, error) {
	var result models.PaymentResult
	err := c.do(ctx, call{
		endpoint: "payments.pay",
		method:   http.MethodPost,
		path:     "/api/payments/pay",
		body:     req,
	}, &result)
	return result, err
}
