// Package kafka is the push transport for deployments that publish banking events to Kafka.
// Destinations map to topic names through push.RoutingKey.
package kafka

import (
	// Go Internal Packages
	"context"
	"sync"
	"time"

	// Local Packages
	errors "bankfeed/errors"
	models "bankfeed/models"
	push "bankfeed/push"

	// External Packages
	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/plugin/kprom"
	"go.uber.org/zap"
)

type Config struct {
	Brokers     []string
	ClientID    string
	ChannelSize int
}

type Dialer struct {
	cfg     Config
	metrics *kprom.Metrics
	logger  *zap.Logger
}

// NewDialer returns a Dialer. metrics may be nil.
func NewDialer(cfg Config, metrics *kprom.Metrics, logger *zap.Logger) *Dialer {
	if cfg.ChannelSize <= 0 {
		cfg.ChannelSize = 64
	}
	return &Dialer{cfg: cfg, metrics: metrics, logger: logger.Named("kafka")}
}

// Dial creates a client and checks the brokers are reachable. Records are consumed from the end
// of each topic without a consumer group, so every console sees every event.
func (d *Dialer) Dial(ctx context.Context) (push.Session, error) {
	opts := []kgo.Opt{
		kgo.SeedBrokers(d.cfg.Brokers...),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtEnd()),
	}
	if d.cfg.ClientID != "" {
		opts = append(opts, kgo.ClientID(d.cfg.ClientID))
	}
	if d.metrics != nil {
		opts = append(opts, kgo.WithHooks(d.metrics))
	}

	client, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, errors.E(errors.Invalid, "invalid kafka config", err)
	}
	if err := client.Ping(ctx); err != nil {
		client.Close()
		return nil, err
	}

	pollCtx, cancel := context.WithCancel(context.Background())
	s := &session{
		client: client,
		cancel: cancel,
		size:   d.cfg.ChannelSize,
		routes: make(map[string]chan models.Record),
		done:   make(chan struct{}),
		logger: d.logger,
	}
	go s.poll(pollCtx)
	return s, nil
}

type session struct {
	client *kgo.Client
	cancel context.CancelFunc
	size   int
	logger *zap.Logger

	mu     sync.Mutex
	routes map[string]chan models.Record
	dests  map[string]string
	ended  bool
	err    error
	done   chan struct{}
}

func (s *session) Subscribe(_ context.Context, topic string) (<-chan models.Record, error) {
	name := push.RoutingKey(topic)

	s.mu.Lock()
	if s.ended {
		s.mu.Unlock()
		return nil, errors.E(errors.Unavailable, "kafka session closed", nil)
	}
	if _, ok := s.routes[name]; ok {
		s.mu.Unlock()
		return nil, errors.ConflictErr("subscription", topic, "already subscribed")
	}
	ch := make(chan models.Record, s.size)
	s.routes[name] = ch
	if s.dests == nil {
		s.dests = make(map[string]string)
	}
	s.dests[name] = topic
	s.mu.Unlock()

	s.client.AddConsumeTopics(name)
	return ch, nil
}

// poll runs until the session is closed, fanning fetched records out to topic channels.
// Broker failures are retried inside the client, so they are logged rather than ending the session.
func (s *session) poll(ctx context.Context) {
	defer s.finish(nil)

	for {
		fetches := s.client.PollFetches(ctx)
		if fetches.IsClientClosed() || ctx.Err() != nil {
			return
		}

		fetches.EachError(func(topic string, partition int32, err error) {
			s.logger.Warn("kafka fetch error",
				zap.String("topic", topic),
				zap.Int32("partition", partition),
				zap.Error(err),
			)
		})
		fetches.EachRecord(func(r *kgo.Record) {
			s.mu.Lock()
			ch := s.routes[r.Topic]
			dest := s.dests[r.Topic]
			s.mu.Unlock()
			if ch == nil {
				return
			}

			received := r.Timestamp
			if received.IsZero() {
				received = time.Now()
			}
			select {
			case ch <- models.Record{Key: r.Key, Value: r.Value, Topic: dest, ReceivedAt: received}:
			case <-ctx.Done():
			}
		})
	}
}

func (s *session) finish(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		return
	}
	s.ended = true
	s.err = err
	for _, ch := range s.routes {
		close(ch)
	}
	close(s.done)
}

func (s *session) Done() <-chan struct{} { return s.done }

func (s *session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *session) Close() error {
	s.cancel()
	s.client.Close()
	<-s.done
	return nil
}

var _ push.Dialer = (*Dialer)(nil)
