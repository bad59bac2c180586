package prometheus

import (
	// Go Internal Packages
	"time"

	// Local Packages
	metrics "bankfeed/metrics"

	// External Packages
	"github.com/prometheus/client_golang/prometheus"
)

var connectionStates = []string{"disconnected", "connecting", "connected"}

// Collector implements metrics.Collector for Prometheus.
type Collector struct {
	messages     *prometheus.CounterVec
	decodeErrors *prometheus.CounterVec
	connection   *prometheus.GaugeVec

	apiCalls     *prometheus.CounterVec
	apiLatency   *prometheus.HistogramVec
	circuitState *prometheus.GaugeVec

	feedSize *prometheus.GaugeVec
}

// NewCollector creates the collector. Call Register to expose it.
func NewCollector(namespace string) *Collector {
	return &Collector{
		messages: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "push_messages_total",
				Help:      "Push messages received per topic",
			},
			[]string{"topic"},
		),
		decodeErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "push_decode_errors_total",
				Help:      "Push messages dropped because they could not be decoded",
			},
			[]string{"topic"},
		),
		connection: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "push_connection_state",
				Help:      "1 for the current push connection state, 0 for the others",
			},
			[]string{"state"},
		),
		apiCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "api_calls_total",
				Help:      "REST calls per endpoint and outcome",
			},
			[]string{"endpoint", "outcome"},
		),
		apiLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "api_call_duration_seconds",
				Help:      "REST call latency per endpoint",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"endpoint"},
		),
		circuitState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "circuit_state",
				Help:      "Circuit breaker state (0=closed, 1=open, 2=half-open)",
			},
			[]string{"name"},
		),
		feedSize: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "feed_size",
				Help:      "Records currently held per feed",
			},
			[]string{"feed"},
		),
	}
}

// Register registers every metric with reg.
func (c *Collector) Register(reg prometheus.Registerer) error {
	for _, col := range []prometheus.Collector{
		c.messages, c.decodeErrors, c.connection,
		c.apiCalls, c.apiLatency, c.circuitState, c.feedSize,
	} {
		if err := reg.Register(col); err != nil {
			return err
		}
	}
	return nil
}

func (c *Collector) RecordMessage(topic string) {
	c.messages.WithLabelValues(topic).Inc()
}

func (c *Collector) RecordDecodeError(topic string) {
	c.decodeErrors.WithLabelValues(topic).Inc()
}

func (c *Collector) RecordConnectionState(state string) {
	for _, s := range connectionStates {
		v := 0.0
		if s == state {
			v = 1
		}
		c.connection.WithLabelValues(s).Set(v)
	}
}

func (c *Collector) RecordAPICall(endpoint string, success bool, duration time.Duration) {
	outcome := "success"
	if !success {
		outcome = "error"
	}
	c.apiCalls.WithLabelValues(endpoint, outcome).Inc()
	c.apiLatency.WithLabelValues(endpoint).Observe(duration.Seconds())
}

func (c *Collector) RecordCircuitState(name string, state metrics.CircuitState) {
	c.circuitState.WithLabelValues(name).Set(float64(state))
}

func (c *Collector) RecordFeedSize(feed string, size int) {
	c.feedSize.WithLabelValues(feed).Set(float64(size))
}

var _ metrics.Collector = (*Collector)(nil)
