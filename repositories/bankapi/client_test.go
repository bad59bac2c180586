package bankapi

import (
	// Go Internal Packages
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	// Local Packages
	config "bankfeed/config"
	errors "bankfeed/errors"
	metrics "bankfeed/metrics"
	models "bankfeed/models"
	tokens "bankfeed/repositories/tokens"
	feeds "bankfeed/services/feeds"

	// External Packages
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type seen struct {
	Method string
	Path   string
	Query  string
	Auth   string
	Body   string
}

type recordingServer struct {
	*httptest.Server
	mu       sync.Mutex
	requests []seen
}

func newServer(t *testing.T, handler http.HandlerFunc) *recordingServer {
	t.Helper()
	rs := &recordingServer{}
	rs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		rs.mu.Lock()
		rs.requests = append(rs.requests, seen{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.RawQuery,
			Auth:   r.Header.Get("Authorization"),
			Body:   string(body),
		})
		rs.mu.Unlock()
		handler(w, r)
	}))
	t.Cleanup(rs.Close)
	return rs
}

func (rs *recordingServer) last() seen {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return rs.requests[len(rs.requests)-1]
}

func (rs *recordingServer) count() int {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return len(rs.requests)
}

func newClient(url string, store tokens.Store, opts ...Option) *Client {
	return New(config.API{
		BaseURL: url + "/",
		Timeout: 2 * time.Second,
		Breaker: config.Breaker{MaxRequests: 1, Timeout: time.Minute, ConsecutiveFailures: 2},
	}, store, zap.NewNop(), opts...)
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func TestBearerTokenOnEveryCall(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `[]`)
	})
	c := newClient(srv.URL, tokens.NewMemoryStore("tok-1"))

	_, err := c.ListAccounts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok-1", srv.last().Auth)
	assert.Equal(t, "/api/accounts", srv.last().Path)

	_, err = c.ListTransactions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok-1", srv.last().Auth)
}

func TestMissingTokenSendsNoHeader(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `[]`)
	})
	c := newClient(srv.URL, tokens.NewMemoryStore(""))

	_, err := c.ListNotifications(context.Background())
	require.NoError(t, err)
	assert.Empty(t, srv.last().Auth)
}

func TestUnauthorizedClearsToken(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, `{"message":"jwt expired"}`)
	})
	store := tokens.NewMemoryStore("stale")
	c := newClient(srv.URL, store)

	_, err := c.ListAccounts(context.Background())
	assert.ErrorIs(t, err, ErrSessionExpired)
	assert.True(t, errors.IsKind(err, errors.Unauthenticated))

	_, err = store.Get()
	assert.ErrorIs(t, err, tokens.ErrNoToken)
}

func TestStatusMapping(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		kind    errors.Kind
		message string
	}{
		{"response message wins", 400, `{"responseMessage":"Insufficient funds","error":{"reason":"r"},"message":"m"}`, errors.Invalid, "Insufficient funds"},
		{"error reason", 409, `{"error":{"reason":"Account already frozen"},"message":"m"}`, errors.Conflict, "Account already frozen"},
		{"message", 404, `{"error":"Not Found","message":"No account 42"}`, errors.NotFound, "No account 42"},
		{"fallback", 422, `not json`, errors.Invalid, "request failed (422 Unprocessable Entity)"},
		{"server error", 503, `{}`, errors.Unavailable, "request failed (503 Service Unavailable)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, tt.status, tt.body)
			})
			c := newClient(srv.URL, tokens.NewMemoryStore("tok"))

			_, err := c.FreezeAccount(context.Background(), "001001001")
			require.Error(t, err)
			assert.Equal(t, tt.kind, errors.KindOf(err))
			assert.Equal(t, tt.message, errors.Message(err, ""))
		})
	}
}

func TestFreezeAndUnfreeze(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/accounts/001001001/freeze" {
			writeJSON(w, http.StatusOK, `{"accountNumber":"001001001","status":"FROZEN","balance":12.5}`)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
	c := newClient(srv.URL, tokens.NewMemoryStore("tok"))

	acc, err := c.FreezeAccount(context.Background(), "001001001")
	require.NoError(t, err)
	assert.Equal(t, http.MethodPatch, srv.last().Method)
	assert.Equal(t, models.AccountFrozen, acc.Status)
	assert.Equal(t, "12.5", acc.Balance.String())

	acc, err = c.UnfreezeAccount(context.Background(), "001001001")
	require.NoError(t, err)
	assert.Equal(t, "/api/accounts/001001001/unfreeze", srv.last().Path)
	assert.Empty(t, acc.AccountNumber)

	_, err = c.FreezeAccount(context.Background(), "")
	assert.True(t, errors.IsKind(err, errors.Invalid))
	assert.Equal(t, 2, srv.count())
}

func TestNotificationEndpoints(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	c := newClient(srv.URL, tokens.NewMemoryStore("tok"))
	ctx := context.Background()

	require.NoError(t, c.SetNotificationRead(ctx, "n-1", true))
	assert.Equal(t, seen{Method: http.MethodPatch, Path: "/api/notifications/n-1/status", Query: "read=true", Auth: "Bearer tok"}, srv.last())

	require.NoError(t, c.SetNotificationRead(ctx, "n-1", false))
	assert.Equal(t, "read=false", srv.last().Query)

	require.NoError(t, c.MarkAllNotificationsRead(ctx))
	assert.Equal(t, "/api/notifications/mark-all-read", srv.last().Path)
	assert.Equal(t, http.MethodPatch, srv.last().Method)

	require.NoError(t, c.DeleteNotification(ctx, "n-2"))
	assert.Equal(t, http.MethodDelete, srv.last().Method)
	assert.Equal(t, "/api/notifications/n-2", srv.last().Path)
}

func TestListNotificationsNormalizesAndSorts(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `[
			{"id":1,"title":"Older","message":"a","type":"info","isRead":true,"timestamp":"2025-08-16T10:00:00"},
			{"id":"2","title":"Newer","message":"b","type":"SUCCESS","isRead":false,"timestamp":[2025,8,16,11,0,0,0]},
			{"id":"3"}
		]`)
	})
	c := newClient(srv.URL, tokens.NewMemoryStore("tok"))

	got, err := c.ListNotifications(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2, "the entry with neither title nor message is skipped")
	assert.Equal(t, "2", got[0].ID)
	assert.Equal(t, models.CategorySuccess, got[0].Category)
	assert.Equal(t, "1", got[1].ID)
	assert.True(t, got[1].IsRead)
}

func TestListTransactionsUsesPushNormalization(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `[
			{"transactionId":"t-1","amount":10.25,"currency":"usd","transactionType":"credit","status":"completed","updatedAt":[2025,8,16,22,44,9,0]},
			{"transactionId":"t-2","currency":"USD"}
		]`)
	})
	c := newClient(srv.URL, tokens.NewMemoryStore("tok"))

	got, err := c.ListTransactions(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "t-1", got[0].ID)
	assert.Equal(t, "USD", got[0].Currency)
	assert.Equal(t, models.DirectionCredit, got[0].Direction)
	assert.True(t, time.Date(2025, 8, 16, 22, 44, 9, 0, time.UTC).Equal(got[0].UpdatedAt.Time))
}

func TestRecordsWithoutIDAreAllKept(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/transactions" {
			writeJSON(w, http.StatusOK, `[
				{"amount":1,"currency":"USD","status":"completed"},
				{"amount":2,"currency":"USD","status":"pending"},
				{"amount":3,"currency":"KHR","status":"failed"}
			]`)
			return
		}
		writeJSON(w, http.StatusOK, `[{"title":"A","message":"a"},{"title":"B","message":"b"}]`)
	})
	c := newClient(srv.URL, tokens.NewMemoryStore("tok"))
	ctx := context.Background()

	txs := feeds.NewTransactionFeed(50)
	require.NoError(t, txs.Load(ctx, c.ListTransactions))
	assert.Equal(t, 3, txs.Len())

	notes := feeds.NewNotificationFeed(c, 0)
	require.NoError(t, notes.Load(ctx, c.ListNotifications))
	assert.Equal(t, 2, notes.Len())
}

func TestPayPostsBody(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"paymentId":"p-1","transactionReference":"TR-9","amount":25,"currency":"USD","message":"ok"}`)
	})
	c := newClient(srv.URL, tokens.NewMemoryStore("tok"))

	res, err := c.Pay(context.Background(), models.PaymentRequest{
		AccountNumber:          "001001001",
		RecipientAccountNumber: "002002002",
		Amount:                 decimal.RequireFromString("25"),
		Currency:               "USD",
		PaymentMethod:          "card",
	})
	require.NoError(t, err)
	assert.Equal(t, "p-1", res.PaymentID)

	var body map[string]any
	require.NoError(t, json.Unmarshal([]byte(srv.last().Body), &body))
	assert.Equal(t, "002002002", body["recipientAccountNumber"])
	assert.EqualValues(t, 25, body["amount"])
}

type breakerRecorder struct {
	metrics.NoOpCollector
	mu     sync.Mutex
	states []metrics.CircuitState
	calls  map[string]int
}

func (r *breakerRecorder) RecordCircuitState(name string, state metrics.CircuitState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, state)
}

func (r *breakerRecorder) RecordAPICall(endpoint string, success bool, d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.calls == nil {
		r.calls = map[string]int{}
	}
	r.calls[endpoint]++
}

func TestBreakerOpensOnServerErrors(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusInternalServerError, `{}`)
	})
	rec := &breakerRecorder{}
	c := newClient(srv.URL, tokens.NewMemoryStore("tok"), WithMetrics(rec))

	for range 2 {
		_, err := c.ListAccounts(context.Background())
		assert.True(t, errors.IsKind(err, errors.Unavailable))
	}

	_, err := c.ListAccounts(context.Background())
	assert.True(t, errors.IsKind(err, errors.Unavailable))
	assert.Equal(t, 2, srv.count(), "an open breaker does not reach the server")

	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.Equal(t, []metrics.CircuitState{metrics.CircuitOpen}, rec.states)
	assert.Equal(t, 3, rec.calls["accounts.list"])
}

func TestClientErrorsDoNotTripBreaker(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, `{"message":"missing"}`)
	})
	c := newClient(srv.URL, tokens.NewMemoryStore("tok"))

	for range 4 {
		_, err := c.GetAccount(context.Background(), "404")
		assert.True(t, errors.IsKind(err, errors.NotFound))
	}
	assert.Equal(t, 4, srv.count())
}

func TestTimeoutIsUnavailable(t *testing.T) {
	release := make(chan struct{})
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	c := New(config.API{BaseURL: srv.URL, Timeout: 50 * time.Millisecond}, tokens.NewMemoryStore("tok"), zap.NewNop())
	_, err := c.ListAccounts(context.Background())
	assert.True(t, errors.IsKind(err, errors.Unavailable))
}

func TestResponseMessage(t *testing.T) {
	assert.Equal(t, "fb", responseMessage(nil, "fb"))
	assert.Equal(t, "fb", responseMessage([]byte(`{"responseMessage":"  "}`), "fb"))
	assert.Equal(t, "reason", responseMessage([]byte(`{"error":{"reason":"reason"}}`), "fb"))
	assert.Equal(t, "fb", responseMessage([]byte(`{"error":"Bad Request"}`), "fb"))
}
