package push

import (
	// Go Internal Packages
	"context"
	"sync"

	// Local Packages
	errors "bankfeed/errors"
	models "bankfeed/models"
)

type fakeSession struct {
	mu       sync.Mutex
	topics   map[string]chan models.Record
	failOn   map[string]bool
	done     chan struct{}
	err      error
	closed   bool
	closeCnt int
}

func newFakeSession() *fakeSession {
	return &fakeSession{
		topics: make(map[string]chan models.Record),
		failOn: make(map[string]bool),
		done:   make(chan struct{}),
	}
}

func (s *fakeSession) Subscribe(_ context.Context, topic string) (<-chan models.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failOn[topic] {
		return nil, errors.New("subscribe refused")
	}
	ch := make(chan models.Record, 16)
	s.topics[topic] = ch
	return ch, nil
}

func (s *fakeSession) subscribed(topic string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.topics[topic]
	return ok
}

func (s *fakeSession) publish(topic, value string) {
	s.mu.Lock()
	ch := s.topics[topic]
	s.mu.Unlock()
	ch <- models.Record{Value: []byte(value)}
}

// drop simulates the broker going away.
func (s *fakeSession) drop(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.err = err
	close(s.done)
}

func (s *fakeSession) Done() <-chan struct{} { return s.done }

func (s *fakeSession) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *fakeSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeCnt++
	if !s.closed {
		s.closed = true
		close(s.done)
	}
	return nil
}

func (s *fakeSession) closes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closeCnt
}

type fakeDialer struct {
	mu       sync.Mutex
	sessions []*fakeSession
	fail     int // number of upcoming dials that fail
	dials    int
}

func (d *fakeDialer) Dial(context.Context) (Session, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dials++
	if d.fail > 0 {
		d.fail--
		return nil, errors.New("connection refused")
	}
	s := newFakeSession()
	d.sessions = append(d.sessions, s)
	return s, nil
}

func (d *fakeDialer) last() *fakeSession {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.sessions) == 0 {
		return nil
	}
	return d.sessions[len(d.sessions)-1]
}

func (d *fakeDialer) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dials
}

type stateRecorder struct {
	mu     sync.Mutex
	states []State
}

func (r *stateRecorder) record(s State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, s)
}

func (r *stateRecorder) get() []State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]State(nil), r.states...)
}
