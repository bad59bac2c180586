// Package amqp is the push transport for RabbitMQ. Each destination gets an exclusive,
// auto-deleted queue bound to a topic exchange, which is how the RabbitMQ STOMP plugin
// lays out /topic destinations.
package amqp

import (
	// Go Internal Packages
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	// Local Packages
	errors "bankfeed/errors"
	models "bankfeed/models"
	push "bankfeed/push"

	// External Packages
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const defaultExchange = "amq.topic"

type Config struct {
	URL         string
	Exchange    string
	Heartbeat   time.Duration
	ChannelSize int
}

type Dialer struct {
	cfg    Config
	logger *zap.Logger
}

func NewDialer(cfg Config, logger *zap.Logger) *Dialer {
	if cfg.Exchange == "" {
		cfg.Exchange = defaultExchange
	}
	if cfg.ChannelSize <= 0 {
		cfg.ChannelSize = 64
	}
	return &Dialer{cfg: cfg, logger: logger.Named("amqp")}
}

func sanitizeURL(raw string) (string, error) {
	clean := strings.Trim(strings.TrimSpace(raw), "\"'")
	parsed, err := url.Parse(clean)
	if err != nil {
		return "", err
	}
	if parsed.Scheme != "amqp" && parsed.Scheme != "amqps" {
		return "", fmt.Errorf("invalid AMQP scheme: %s", parsed.Scheme)
	}
	return clean, nil
}

func (d *Dialer) Dial(ctx context.Context) (push.Session, error) {
	cleanURL, err := sanitizeURL(d.cfg.URL)
	if err != nil {
		return nil, errors.E(errors.Invalid, "invalid amqp url", err)
	}

	timeout := 10 * time.Second
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
	}
	conn, err := amqp.DialConfig(cleanURL, amqp.Config{
		Heartbeat: d.cfg.Heartbeat,
		Dial:      amqp.DefaultDial(timeout),
	})
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}

	s := &session{
		conn:     conn,
		ch:       ch,
		exchange: d.cfg.Exchange,
		size:     d.cfg.ChannelSize,
		done:     make(chan struct{}),
		logger:   d.logger,
	}
	go s.watch(conn.NotifyClose(make(chan *amqp.Error, 1)))
	return s, nil
}

type session struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
	size     int
	logger   *zap.Logger

	declareMu sync.Mutex

	once sync.Once
	mu   sync.Mutex
	err  error
	done chan struct{}
}

func (s *session) Subscribe(_ context.Context, topic string) (<-chan models.Record, error) {
	s.declareMu.Lock()
	defer s.declareMu.Unlock()

	key := push.RoutingKey(topic)
	q, err := s.ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		return nil, err
	}
	if err := s.ch.QueueBind(q.Name, key, s.exchange, false, nil); err != nil {
		return nil, err
	}
	deliveries, err := s.ch.Consume(q.Name, "", true, true, false, false, nil)
	if err != nil {
		return nil, err
	}

	out := make(chan models.Record, s.size)
	go func() {
		defer close(out)
		for d := range deliveries {
			select {
			case out <- toRecord(topic, d):
			case <-s.done:
				return
			}
		}
	}()
	return out, nil
}

func toRecord(topic string, d amqp.Delivery) models.Record {
	received := d.Timestamp
	if received.IsZero() {
		received = time.Now()
	}
	var key []byte
	if d.MessageId != "" {
		key = []byte(d.MessageId)
	}
	return models.Record{Key: key, Value: d.Body, Topic: topic, ReceivedAt: received}
}

// watch ends the session when the broker closes the connection. A nil close error means
// Close was called.
func (s *session) watch(closed <-chan *amqp.Error) {
	amqpErr, ok := <-closed
	if ok && amqpErr != nil {
		s.logger.Warn("amqp connection closed", zap.Int("code", amqpErr.Code), zap.String("reason", amqpErr.Reason))
		s.end(errors.UnavailableErr("amqp connection", amqpErr))
		return
	}
	s.end(nil)
}

func (s *session) end(err error) {
	s.once.Do(func() {
		s.mu.Lock()
		s.err = err
		s.mu.Unlock()
		close(s.done)
	})
}

func (s *session) Done() <-chan struct{} { return s.done }

func (s *session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *session) Close() error {
	s.end(nil)
	if !s.ch.IsClosed() {
		_ = s.ch.Close()
	}
	if s.conn.IsClosed() {
		return nil
	}
	return s.conn.Close()
}

var _ push.Dialer = (*Dialer)(nil)
