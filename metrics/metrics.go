package metrics

import (
	// Go Internal Packages
	"time"
)

// Collector records what the sync core does. Implementations can export to any backend.
type Collector interface {
	// Push channel
	RecordMessage(topic string)
	RecordDecodeError(topic string)
	RecordConnectionState(state string)

	// REST client
	RecordAPICall(endpoint string, success bool, duration time.Duration)
	RecordCircuitState(name string, state CircuitState)

	// Stores
	RecordFeedSize(feed string, size int)
}

// CircuitState represents the state of a circuit breaker.
type CircuitState int

const (
	CircuitClosed CircuitState = iota
	CircuitOpen
	CircuitHalfOpen
)

func (s CircuitState) String() string {
	switch s {
	case CircuitClosed:
		return "closed"
	case CircuitOpen:
		return "open"
	case CircuitHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// NoOpCollector discards everything. It is the default when metrics are disabled.
type NoOpCollector struct{}

func (NoOpCollector) RecordMessage(topic string) {}

func (NoOpCollector) RecordDecodeError(topic string) {}

func (NoOpCollector) RecordConnectionState(state string) {}

func (NoOpCollector) RecordAPICall(endpoint string, success bool, duration time.Duration) {}

func (NoOpCollector) RecordCircuitState(name string, state CircuitState) {}

func (NoOpCollector) RecordFeedSize(feed string, size int) {}
