// Package bankapi talks to the banking backend over REST.
package bankapi

import (
	// Go Internal Packages
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	// Local Packages
	config "bankfeed/config"
	errors "bankfeed/errors"
	metrics "bankfeed/metrics"
	tokens "bankfeed/repositories/tokens"

	// External Packages
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// ErrSessionExpired is returned after a 401. The stored token has already been cleared.
var ErrSessionExpired = errors.E(errors.Unauthenticated, "session expired, run `bank-console login`", nil)

const maxBody = 4 << 20

type Client struct {
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
	tokens     tokens.Store
	breaker    *gobreaker.CircuitBreaker
	metrics    metrics.Collector
	logger     *zap.Logger
	now        func() time.Time
}

type Option func(*Client)

func WithMetrics(collector metrics.Collector) Option {
	return func(c *Client) { c.metrics = collector }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// New builds a client for cfg.BaseURL. Every call reads the bearer token from store.
func New(cfg config.API, store tokens.Store, logger *zap.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		timeout:    cfg.Timeout,
		httpClient: &http.Client{},
		tokens:     store,
		metrics:    metrics.NoOpCollector{},
		logger:     logger.Named("bankapi"),
		now:        time.Now,
	}
	if c.timeout <= 0 {
		c.timeout = 10 * time.Second
	}
	for _, opt := range opts {
		opt(c)
	}
	c.breaker = gobreaker.NewCircuitBreaker(c.breakerSettings(cfg.Breaker))
	return c
}

func (c *Client) breakerSettings(b config.Breaker) gobreaker.Settings {
	failures := b.ConsecutiveFailures
	if failures == 0 {
		failures = 5
	}
	return gobreaker.Settings{
		Name:        "bankapi",
		MaxRequests: b.MaxRequests,
		Interval:    b.Interval,
		Timeout:     b.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		// Only transport failures and 5xx count against the backend.
		IsSuccessful: func(err error) bool {
			return err == nil || !errors.IsKind(err, errors.Unavailable)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.Warn("circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
			switch to {
			case gobreaker.StateClosed:
				c.metrics.RecordCircuitState(name, metrics.CircuitClosed)
			case gobreaker.StateHalfOpen:
				c.metrics.RecordCircuitState(name, metrics.CircuitHalfOpen)
			case gobreaker.StateOpen:
				c.metrics.RecordCircuitState(name, metrics.CircuitOpen)
			}
		},
	}
}

// call is one REST request. endpoint labels the call in logs and metrics.
type call struct {
	endpoint string
	method   string
	path     string
	query    url.Values
	body     any
}

// do runs the call through the breaker and decodes a 2xx body into out when out is not nil.
func (c *Client) do(ctx context.Context, req call, out any) error {
	start := c.now()
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	res, err := c.breaker.Execute(func() (any, error) {
		return c.roundTrip(ctx, req)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		err = errors.UnavailableErr(req.endpoint, err)
	}
	c.metrics.RecordAPICall(req.endpoint, err == nil, time.Since(start))
	if err != nil {
		c.logger.Debug("api call failed", zap.String("endpoint", req.endpoint), zap.Error(err))
		return err
	}

	body, _ := res.([]byte)
	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return errors.InvalidBodyErr(err)
	}
	return nil
}

func (c *Client) roundTrip(ctx context.Context, req call) ([]byte, error) {
	u := c.baseURL + req.path
	if len(req.query) > 0 {
		u += "?" + req.query.Encode()
	}

	var payload io.Reader
	if req.body != nil {
		data, err := json.Marshal(req.body)
		if err != nil {
			return nil, errors.E(errors.Internal, "cannot encode request", err)
		}
		payload = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, u, payload)
	if err != nil {
		return nil, errors.E(errors.Internal, "cannot build request", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if payload != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if token, err := c.tokens.Get(); err == nil {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, errors.UnavailableErr(req.endpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, errors.UnavailableErr(req.endpoint, err)
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return body, nil
	}
	return nil, c.statusError(resp.StatusCode, body)
}

// statusError maps a non-2xx response to an error kind. A 401 also clears the stored token.
func (c *Client) statusError(status int, body []byte) error {
	msg := responseMessage(body, fmt.Sprintf("request failed (%d %s)", status, http.StatusText(status)))
	switch {
	case status == http.StatusUnauthorized:
		if err := c.tokens.Clear(); err != nil {
			c.logger.Warn("failed to clear token", zap.Error(err))
		}
		return ErrSessionExpired
	case status == http.StatusNotFound:
		return errors.E(errors.NotFound, msg, nil)
	case status == http.StatusConflict:
		return errors.E(errors.Conflict, msg, nil)
	case status >= 500:
		return errors.E(errors.Unavailable, msg, nil)
	default:
		return errors.E(errors.Invalid, msg, nil)
	}
}

type errorBody struct {
	ResponseMessage string          `json:"responseMessage"`
	Error           json.RawMessage `json:"error"`
	Message         string          `json:"message"`
}

// responseMessage picks the most specific message the backend sent:
// responseMessage, then error.reason, then message.
func responseMessage(body []byte, fallback string) string {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil {
		return fallback
	}
	if m := strings.TrimSpace(eb.ResponseMessage); m != "" {
		return m
	}
	var nested struct {
		Reason string `json:"reason"`
	}
	if len(eb.Error) > 0 && eb.Error[0] == '{' && json.Unmarshal(eb.Error, &nested) == nil {
		if m := strings.TrimSpace(nested.Reason); m != "" {
			return m
		}
	}
	if m := strings.TrimSpace(eb.Message); m != "" {
		return m
	}
	return fallback
}
