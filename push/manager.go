package push

import (
	// Go Internal Packages
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	// Local Packages
	errors "bankfeed/errors"
	metrics "bankfeed/metrics"
	models "bankfeed/models"

	// External Packages
	"go.uber.org/zap"
)

type State string

const (
	Disconnected State = "disconnected"
	Connecting   State = "connecting"
	Connected    State = "connected"
)

// Handler receives every record delivered on a topic, in broker order.
type Handler func(record models.Record)

// ReconnectPolicy controls what happens after an established session is lost.
// With Enabled false the manager stays disconnected until Connect is called again.
type ReconnectPolicy struct {
	Enabled     bool
	MaxAttempts int // 0 retries forever
	Delay       time.Duration
	MaxDelay    time.Duration
}

func (p ReconnectPolicy) backoff(attempt int) time.Duration {
	d := p.Delay
	for i := 1; i < attempt; i++ {
		d *= 2
		if p.MaxDelay > 0 && d >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	return d
}

// Manager owns at most one push session. Subscriptions registered with OnMessage survive
// reconnects: they are applied on every new session.
//
// State listeners and message handlers must not call Connect or Disconnect synchronously.
type Manager struct {
	dialer  Dialer
	policy  ReconnectPolicy
	logger  *zap.Logger
	metrics metrics.Collector

	// notifyMu serializes transitions so listeners observe them in order.
	notifyMu sync.Mutex

	mu        sync.Mutex
	state     State
	session   Session
	runCtx    context.Context
	cancel    context.CancelFunc
	handlers  map[string]map[uint64]Handler
	active    map[string]bool
	listeners map[uint64]func(State)
	nextID    uint64

	wg sync.WaitGroup
}

type Option func(*Manager)

func WithReconnect(policy ReconnectPolicy) Option {
	return func(m *Manager) { m.policy = policy }
}

func WithMetrics(collector metrics.Collector) Option {
	return func(m *Manager) { m.metrics = collector }
}

func NewManager(dialer Dialer, logger *zap.Logger, opts ...Option) *Manager {
	m := &Manager{
		dialer:    dialer,
		logger:    logger.Named("push"),
		metrics:   metrics.NoOpCollector{},
		state:     Disconnected,
		handlers:  make(map[string]map[uint64]Handler),
		listeners: make(map[uint64]func(State)),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// State returns the current connection state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// OnStateChange registers a listener called once per state transition.
func (m *Manager) OnStateChange(listener func(State)) (remove func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	id := m.nextID
	m.listeners[id] = listener
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.listeners, id)
	}
}

// OnMessage registers handler for topic. When connected the topic is subscribed right away,
// otherwise the subscription is applied on the next successful Connect.
func (m *Manager) OnMessage(topic string, handler Handler) (unsubscribe func()) {
	m.mu.Lock()
	m.nextID++
	id := m.nextID
	if m.handlers[topic] == nil {
		m.handlers[topic] = make(map[uint64]Handler)
	}
	m.handlers[topic][id] = handler

	var session Session
	var runCtx context.Context
	if m.state == Connected && m.session != nil && !m.active[topic] {
		m.active[topic] = true
		session, runCtx = m.session, m.runCtx
	}
	m.mu.Unlock()

	if session != nil {
		m.subscribe(runCtx, session, topic)
	}

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.handlers[topic], id)
		if len(m.handlers[topic]) == 0 {
			delete(m.handlers, topic)
		}
	}
}

// Connect dials a session unless one is already connecting or connected.
func (m *Manager) Connect(ctx context.Context) error {
	var runCtx context.Context
	started := m.transition(Connecting, func(s State) bool { return s == Disconnected }, func() {
		if m.cancel != nil {
			m.cancel()
		}
		runCtx, m.cancel = context.WithCancel(context.Background())
		m.runCtx = runCtx
	})
	if !started {
		return nil
	}

	if err := m.dial(ctx, runCtx); err != nil {
		m.mu.Lock()
		if m.runCtx == runCtx && m.cancel != nil {
			m.cancel()
			m.cancel, m.runCtx = nil, nil
		}
		m.mu.Unlock()
		return err
	}
	return nil
}

// Disconnect tears the session down. It is safe to call any number of times.
func (m *Manager) Disconnect() error {
	var session Session
	var cancel context.CancelFunc
	m.transition(Disconnected, nil, func() {
		session, cancel = m.session, m.cancel
		m.session, m.active, m.cancel, m.runCtx = nil, nil, nil, nil
	})
	if cancel != nil {
		cancel()
	}

	var err error
	if session != nil {
		err = session.Close()
	}
	m.wg.Wait()
	return err
}

func (m *Manager) dial(ctx, runCtx context.Context) error {
	session, err := m.dialer.Dial(ctx)
	if err != nil {
		m.logger.Warn("push connect failed", zap.Error(err))
		m.transition(Disconnected, func(s State) bool { return s == Connecting && runCtx.Err() == nil }, nil)
		return errors.UnavailableErr("push connect", err)
	}

	var topics []string
	attached := m.transition(Connected, func(s State) bool { return s == Connecting && runCtx.Err() == nil }, func() {
		m.session = session
		m.active = make(map[string]bool, len(m.handlers))
		for topic := range m.handlers {
			m.active[topic] = true
			topics = append(topics, topic)
		}
	})
	if !attached {
		_ = session.Close()
		return errors.E(errors.Unavailable, "push connect aborted", runCtx.Err())
	}
	m.logger.Info("push connected", zap.Strings("topics", topics))

	for _, topic := range topics {
		m.subscribe(runCtx, session, topic)
	}

	m.wg.Add(1)
	go m.watch(runCtx, session)
	return nil
}

func (m *Manager) subscribe(runCtx context.Context, session Session, topic string) {
	records, err := session.Subscribe(runCtx, topic)
	if err != nil {
		m.logger.Warn("push subscribe failed", zap.String("topic", topic), zap.Error(err))
		m.mu.Lock()
		if m.session == session {
			m.active[topic] = false
		}
		m.mu.Unlock()
		return
	}

	m.wg.Add(1)
	go m.dispatch(runCtx, topic, records)
}

func (m *Manager) dispatch(runCtx context.Context, topic string, records <-chan models.Record) {
	defer m.wg.Done()
	for {
		select {
		case <-runCtx.Done():
			return
		case record, ok := <-records:
			if !ok {
				return
			}
			if record.Topic == "" {
				record.Topic = topic
			}
			if record.ReceivedAt.IsZero() {
				record.ReceivedAt = time.Now()
			}
			m.metrics.RecordMessage(topic)
			for _, handler := range m.handlersFor(topic) {
				m.safeCall(handler, record)
			}
		}
	}
}

func (m *Manager) handlersFor(topic string) []Handler {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]uint64, 0, len(m.handlers[topic]))
	for id := range m.handlers[topic] {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	out := make([]Handler, 0, len(ids))
	for _, id := range ids {
		out = append(out, m.handlers[topic][id])
	}
	return out
}

func (m *Manager) safeCall(handler Handler, record models.Record) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("push handler panicked",
				zap.String("topic", record.Topic),
				zap.String("panic", fmt.Sprint(r)),
			)
		}
	}()
	handler(record)
}

func (m *Manager) watch(runCtx context.Context, session Session) {
	defer m.wg.Done()
	select {
	case <-runCtx.Done():
		return
	case <-session.Done():
	}

	m.logger.Warn("push session ended", zap.Error(session.Err()))
	reconnect := m.policy.Enabled
	detached := m.transition(Disconnected, func(State) bool { return m.session == session }, func() {
		m.session, m.active = nil, nil
		if !reconnect && m.cancel != nil {
			m.cancel()
			m.cancel, m.runCtx = nil, nil
		}
	})
	// Disconnect already closed a session it detached itself.
	if !detached {
		return
	}
	_ = session.Close()
	if reconnect {
		m.reconnect(runCtx)
	}
}

func (m *Manager) reconnect(runCtx context.Context) {
	for attempt := 1; m.policy.MaxAttempts <= 0 || attempt <= m.policy.MaxAttempts; attempt++ {
		timer := time.NewTimer(m.policy.backoff(attempt))
		select {
		case <-runCtx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		ok := m.transition(Connecting, func(s State) bool { return s == Disconnected && runCtx.Err() == nil }, nil)
		if !ok {
			return
		}
		m.logger.Info("push reconnecting", zap.Int("attempt", attempt))
		if err := m.dial(runCtx, runCtx); err == nil {
			return
		}
	}

	m.logger.Error("push reconnect gave up", zap.Int("attempts", m.policy.MaxAttempts))
	m.mu.Lock()
	if m.runCtx == runCtx && m.cancel != nil {
		m.cancel()
		m.cancel, m.runCtx = nil, nil
	}
	m.mu.Unlock()
}

// transition moves to state `to` when guard accepts the current state, running locked while
// holding mu. Listeners run after mu is released, only if the state actually changed.
func (m *Manager) transition(to State, guard func(current State) bool, locked func()) bool {
	m.notifyMu.Lock()
	defer m.notifyMu.Unlock()

	m.mu.Lock()
	if guard != nil && !guard(m.state) {
		m.mu.Unlock()
		return false
	}
	if locked != nil {
		locked()
	}
	changed := m.state != to
	m.state = to
	listeners := make([]func(State), 0, len(m.listeners))
	ids := make([]uint64, 0, len(m.listeners))
	for id := range m.listeners {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	for _, id := range ids {
		listeners = append(listeners, m.listeners[id])
	}
	m.mu.Unlock()

	if changed {
		m.metrics.RecordConnectionState(string(to))
		for _, listener := range listeners {
			listener(to)
		}
	}
	return true
}
