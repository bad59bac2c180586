// Package feeds keeps live, bounded views of backend records. A feed is seeded once from REST,
// grows at the front as push messages arrive, and notifies subscribers after every change.
package feeds

import (
	// Go Internal Packages
	"context"
	"slices"
	"sync"

	// Local Packages
	metrics "bankfeed/metrics"
)

type Keyed interface {
	Key() string
}

type State int

const (
	Uninitialized State = iota
	Seeded
	Disposed
)

func (s State) String() string {
	switch s {
	case Seeded:
		return "seeded"
	case Disposed:
		return "disposed"
	default:
		return "uninitialized"
	}
}

type options struct {
	metrics metrics.Collector
}

type Option func(*options)

func WithMetrics(collector metrics.Collector) Option {
	return func(o *options) { o.metrics = collector }
}

// Feed is an ordered list of records, most recent first, holding at most limit records
// (0 means unbounded). Listeners run outside the feed lock but must not mutate the feed.
type Feed[T Keyed] struct {
	name    string
	limit   int
	metrics metrics.Collector

	// notifyMu keeps listener calls in mutation order.
	notifyMu sync.Mutex

	mu        sync.Mutex
	state     State
	items     []T
	listeners map[uint64]func([]T)
	nextID    uint64
}

func NewFeed[T Keyed](name string, limit int, opts ...Option) *Feed[T] {
	o := options{metrics: metrics.NoOpCollector{}}
	for _, opt := range opts {
		opt(&o)
	}
	if limit < 0 {
		limit = 0
	}
	return &Feed[T]{
		name:      name,
		limit:     limit,
		metrics:   o.metrics,
		listeners: make(map[uint64]func([]T)),
	}
}

func (f *Feed[T]) Name() string { return f.name }

func (f *Feed[T]) Limit() int { return f.limit }

// Load seeds the feed from fetch. A failed fetch leaves the state untouched and is returned once;
// nothing retries it. Records pushed before the first seed stay in front of the seeded ones.
// A feed disposed while fetch runs discards the result. The limit keeps the front of the fetched
// list, so fetch returns newest first.
func (f *Feed[T]) Load(ctx context.Context, fetch func(ctx context.Context) ([]T, error)) error {
	if f.State() == Disposed {
		return nil
	}

	fetched, err := fetch(ctx)
	if err != nil {
		return err
	}

	f.mutate(func(items []T) ([]T, bool) {
		var next []T
		seen := make(map[string]bool, len(items)+len(fetched))
		if f.state == Uninitialized {
			for _, item := range items {
				if !seen[item.Key()] {
					seen[item.Key()] = true
					next = append(next, item)
				}
			}
		}
		for _, item := range fetched {
			if !seen[item.Key()] {
				seen[item.Key()] = true
				next = append(next, item)
			}
		}
		f.state = Seeded
		return f.bound(next), true
	})
	return nil
}

// Prepend puts item at the front. An older record with the same key is replaced, and the oldest
// records are dropped once the limit is exceeded.
func (f *Feed[T]) Prepend(item T) {
	f.mutate(func(items []T) ([]T, bool) {
		next := make([]T, 0, len(items)+1)
		next = append(next, item)
		for _, existing := range items {
			if existing.Key() != item.Key() {
				next = append(next, existing)
			}
		}
		return f.bound(next), true
	})
}

// Snapshot returns a copy of the records, most recent first.
func (f *Feed[T]) Snapshot() []T {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.items)
}

func (f *Feed[T]) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.items)
}

func (f *Feed[T]) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Get returns the record with the given key.
func (f *Feed[T]) Get(key string) (T, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if i := indexOf(f.items, key); i >= 0 {
		return f.items[i], true
	}
	var zero T
	return zero, false
}

// Subscribe registers listener, called with a snapshot after every change.
func (f *Feed[T]) Subscribe(listener func([]T)) (unsubscribe func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	id := f.nextID
	f.listeners[id] = listener
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.listeners, id)
	}
}

// Dispose drops every record and listener. Later mutations, including in-flight loads, are no-ops.
func (f *Feed[T]) Dispose() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state = Disposed
	f.items = nil
	f.listeners = make(map[uint64]func([]T))
}

// mutate applies fn to the records under the lock and notifies listeners when fn reports a change.
func (f *Feed[T]) mutate(fn func(items []T) ([]T, bool)) bool {
	f.notifyMu.Lock()
	defer f.notifyMu.Unlock()

	f.mu.Lock()
	if f.state == Disposed {
		f.mu.Unlock()
		return false
	}
	next, changed := fn(f.items)
	if !changed {
		f.mu.Unlock()
		return false
	}
	f.items = next
	snapshot := slices.Clone(next)
	ids := make([]uint64, 0, len(f.listeners))
	for id := range f.listeners {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	listeners := make([]func([]T), 0, len(ids))
	for _, id := range ids {
		listeners = append(listeners, f.listeners[id])
	}
	f.mu.Unlock()

	f.metrics.RecordFeedSize(f.name, len(snapshot))
	for _, listener := range listeners {
		listener(slices.Clone(snapshot))
	}
	return true
}

func (f *Feed[T]) bound(items []T) []T {
	if f.limit > 0 && len(items) > f.limit {
		return items[:f.limit:f.limit]
	}
	return items
}

func indexOf[T Keyed](items []T, key string) int {
	return slices.IndexFunc(items, func(item T) bool { return item.Key() == key })
}
