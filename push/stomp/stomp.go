// Package stomp is the push transport for STOMP 1.2 brokers reached over a WebSocket, the
// layout a Spring message broker exposes at /ws/websocket.
package stomp

import (
	// Go Internal Packages
	"context"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	// Local Packages
	errors "bankfeed/errors"
	models "bankfeed/models"
	push "bankfeed/push"

	// External Packages
	"github.com/coder/websocket"
	"github.com/go-stomp/stomp/v3"
	"go.uber.org/zap"
)

const readLimit = 1 << 20

type Config struct {
	URL         string
	Heartbeat   time.Duration
	ChannelSize int
	// Token returns the bearer token sent on the handshake and in CONNECT, empty for none.
	Token func() string
}

type Dialer struct {
	cfg    Config
	logger *zap.Logger
}

func NewDialer(cfg Config, logger *zap.Logger) *Dialer {
	if cfg.ChannelSize <= 0 {
		cfg.ChannelSize = 64
	}
	return &Dialer{cfg: cfg, logger: logger.Named("stomp")}
}

func (d *Dialer) Dial(ctx context.Context) (push.Session, error) {
	u, err := url.Parse(d.cfg.URL)
	if err != nil {
		return nil, errors.E(errors.Invalid, "invalid push url", err)
	}

	var token string
	if d.cfg.Token != nil {
		token = d.cfg.Token()
	}
	header := http.Header{}
	if token != "" {
		header.Set("Authorization", "Bearer "+token)
	}

	ws, _, err := websocket.Dial(ctx, u.String(), &websocket.DialOptions{
		HTTPHeader:   header,
		Subprotocols: []string{"v12.stomp", "v11.stomp"},
	})
	if err != nil {
		return nil, err
	}
	ws.SetReadLimit(readLimit)

	connCtx, cancel := context.WithCancel(context.Background())
	s := &session{
		ws:     ws,
		cancel: cancel,
		size:   d.cfg.ChannelSize,
		done:   make(chan struct{}),
		logger: d.logger,
	}
	nc := &watchedConn{Conn: websocket.NetConn(connCtx, ws, websocket.MessageText), onErr: s.end}

	// stomp.Connect has no context, so the handshake honours ctx through the conn deadline.
	if deadline, ok := ctx.Deadline(); ok {
		_ = nc.SetDeadline(deadline)
	}

	opts := []func(*stomp.Conn) error{
		stomp.ConnOpt.AcceptVersion(stomp.V12),
		stomp.ConnOpt.Host(u.Hostname()),
		stomp.ConnOpt.HeartBeat(d.cfg.Heartbeat, d.cfg.Heartbeat),
	}
	if token != "" {
		opts = append(opts, stomp.ConnOpt.Header("Authorization", "Bearer "+token))
	}

	conn, err := stomp.Connect(nc, opts...)
	if err != nil {
		cancel()
		_ = ws.Close(websocket.StatusPolicyViolation, "stomp connect failed")
		return nil, err
	}
	_ = nc.SetDeadline(time.Time{})
	s.conn = conn

	d.logger.Debug("stomp session opened", zap.String("url", u.Redacted()), zap.String("version", string(conn.Version())))
	return s, nil
}

type session struct {
	conn   *stomp.Conn
	ws     *websocket.Conn
	cancel context.CancelFunc
	size   int
	logger *zap.Logger

	once sync.Once
	mu   sync.Mutex
	err  error
	done chan struct{}
}

func (s *session) Subscribe(ctx context.Context, topic string) (<-chan models.Record, error) {
	sub, err := s.conn.Subscribe(topic, stomp.AckAuto)
	if err != nil {
		return nil, err
	}

	out := make(chan models.Record, s.size)
	go func() {
		defer close(out)
		for msg := range sub.C {
			if msg.Err != nil {
				s.logger.Debug("stomp subscription ended", zap.String("topic", topic), zap.Error(msg.Err))
				s.end(msg.Err)
				return
			}
			record := models.Record{Value: msg.Body, Topic: topic, ReceivedAt: time.Now()}
			if id := msg.Header.Get("message-id"); id != "" {
				record.Key = []byte(id)
			}
			select {
			case out <- record:
			case <-ctx.Done():
				return
			case <-s.done:
				return
			}
		}
	}()
	return out, nil
}

func (s *session) Done() <-chan struct{} { return s.done }

func (s *session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *session) Close() error {
	s.end(nil)
	var err error
	if s.conn != nil {
		err = s.conn.MustDisconnect()
	}
	_ = s.ws.Close(websocket.StatusNormalClosure, "")
	s.cancel()
	if errors.Is(err, stomp.ErrAlreadyClosed) {
		return nil
	}
	return err
}

// end records why the session finished. Only the first reason is kept.
func (s *session) end(err error) {
	s.once.Do(func() {
		s.mu.Lock()
		s.err = err
		s.mu.Unlock()
		close(s.done)
	})
}

// watchedConn reports the first read failure, which is how a dropped socket or a missed
// heartbeat surfaces when no subscription is active.
type watchedConn struct {
	net.Conn
	onErr func(error)
}

func (c *watchedConn) Read(p []byte) (int, error) {
	n, err := c.Conn.Read(p)
	if err != nil {
		c.onErr(errors.E(errors.Unavailable, "push connection lost", err))
	}
	return n, err
}

var _ push.Dialer = (*Dialer)(nil)
