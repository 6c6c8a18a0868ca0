// Package prometheus provides a Prometheus implementation of the meshwire.Metrics interface.
//
// This package enables integration with Prometheus monitoring systems. All metrics
// are registered with the default Prometheus registry and follow Prometheus naming
// conventions.
//
// # Metric Names
//
// All metrics use the configured namespace prefix (default: "meshwire"). The full
// metric name follows the pattern: {namespace}_{name}
//
// # Counters
//
//	meshwire_connections_opened_total{direction="inbound|outbound"}
//	meshwire_connections_closed_total{direction="inbound|outbound|unknown"}
//	meshwire_dial_attempts_total{result="success|failure|invalid_addr"}
//	meshwire_messages_published_total{topic="<name>"}
//	meshwire_messages_received_total{topic="<name>"}
//	meshwire_bytes_published_total{topic="<name>"}
//	meshwire_bytes_received_total{topic="<name>"}
//	meshwire_messages_dropped_total
//	meshwire_peers_discovered_total
//	meshwire_ping_failures_total
//	meshwire_commands_received_total{kind="<kind>"}
//	meshwire_events_observed_total{kind="<kind>"}
//	meshwire_events_dropped_total
//
// # Histograms
//
//	meshwire_ping_rtt_seconds
//
// # Gauges
//
//	meshwire_current_routing_table_size
//
// # Example Usage
//
//	import (
//	    "github.com/AXI0MH1VE/meshwire"
//	    prommetrics "github.com/AXI0MH1VE/meshwire/prometheus"
//	    "github.com/prometheus/client_golang/prometheus/promhttp"
//	)
//
//	func main() {
//	    metrics := prommetrics.NewMetrics("myapp")
//
//	    node, err := meshwire.New(meshwire.NewConfig(
//	        meshwire.WithMetrics(metrics),
//	    ))
//	    // ...
//
//	    // Expose metrics endpoint
//	    http.Handle("/metrics", promhttp.Handler())
//	    http.ListenAndServe(":9090", nil)
//	}
package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/AXI0MH1VE/meshwire"
)

// DefaultNamespace is the default namespace for all metrics.
const DefaultNamespace = "meshwire"

// Metrics implements the meshwire.Metrics interface using Prometheus metrics.
// All metrics are registered with the default Prometheus registry.
//
// Metrics is safe for concurrent use.
type Metrics struct {
	// Connection metrics
	connectionsOpened *prometheus.CounterVec
	connectionsClosed *prometheus.CounterVec
	dialAttempts      *prometheus.CounterVec

	// Messaging metrics
	messagesPublished *prometheus.CounterVec
	messagesReceived  *prometheus.CounterVec
	bytesPublished    *prometheus.CounterVec
	bytesReceived     *prometheus.CounterVec
	messagesDropped   prometheus.Counter

	// Discovery and routing metrics
	peersDiscovered  prometheus.Counter
	routingTableSize prometheus.Gauge

	// Liveness metrics
	pingRTT      prometheus.Histogram
	pingFailures prometheus.Counter

	// Actor metrics
	commandsReceived *prometheus.CounterVec
	eventsObserved   *prometheus.CounterVec
	eventsDropped    prometheus.Counter
}

// Ensure Metrics implements meshwire.Metrics.
var _ meshwire.Metrics = (*Metrics)(nil)

// NewMetrics creates a new Prometheus metrics collector with the given namespace.
// If namespace is empty, DefaultNamespace ("meshwire") is used.
//
// All metrics are automatically registered with the default Prometheus registry.
// If registration fails (e.g., metrics already registered), this function will panic.
// To avoid panics, use NewMetricsWithRegisterer with a custom registry.
func NewMetrics(namespace string) *Metrics {
	return NewMetricsWithRegisterer(namespace, prometheus.DefaultRegisterer)
}

// NewMetricsWithRegisterer creates a new Prometheus metrics collector with the given
// namespace and registerer. This allows using a custom registry for testing or
// to avoid conflicts with other metrics.
//
// If namespace is empty, DefaultNamespace ("meshwire") is used.
// If registerer is nil, metrics will not be registered automatically.
func NewMetricsWithRegisterer(namespace string, registerer prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = DefaultNamespace
	}

	m := &Metrics{
		connectionsOpened: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "connections_opened_total",
				Help:      "Total number of connections opened",
			},
			[]string{"direction"},
		),
		connectionsClosed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "connections_closed_total",
				Help:      "Total number of connections closed",
			},
			[]string{"direction"},
		),
		dialAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "dial_attempts_total",
				Help:      "Total number of dial commands by outcome",
			},
			[]string{"result"},
		),
		messagesPublished: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "messages_published_total",
				Help:      "Total number of messages published per topic",
			},
			[]string{"topic"},
		),
		messagesReceived: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "messages_received_total",
				Help:      "Total number of verified messages received per topic",
			},
			[]string{"topic"},
		),
		bytesPublished: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "bytes_published_total",
				Help:      "Total payload bytes published per topic",
			},
			[]string{"topic"},
		),
		bytesReceived: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "bytes_received_total",
				Help:      "Total payload bytes received per topic",
			},
			[]string{"topic"},
		),
		messagesDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_dropped_total",
			Help:      "Total number of received messages dropped due to buffer full",
		}),
		peersDiscovered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "peers_discovered_total",
			Help:      "Total number of peers found by local discovery",
		}),
		routingTableSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "current_routing_table_size",
			Help:      "Current number of peers in the routing table",
		}),
		pingRTT: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ping_rtt_seconds",
			Help:      "Histogram of successful liveness probe round trips",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
		pingFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ping_failures_total",
			Help:      "Total number of liveness probes that failed or timed out",
		}),
		commandsReceived: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "commands_received_total",
				Help:      "Total number of commands entering the actor loop",
			},
			[]string{"kind"},
		),
		eventsObserved: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "events_observed_total",
				Help:      "Total number of events handled by the actor loop",
			},
			[]string{"kind"},
		),
		eventsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_dropped_total",
			Help:      "Total number of advisory events dropped due to buffer full",
		}),
	}

	if registerer != nil {
		registerer.MustRegister(
			m.connectionsOpened,
			m.connectionsClosed,
			m.dialAttempts,
			m.messagesPublished,
			m.messagesReceived,
			m.bytesPublished,
			m.bytesReceived,
			m.messagesDropped,
			m.peersDiscovered,
			m.routingTableSize,
			m.pingRTT,
			m.pingFailures,
			m.commandsReceived,
			m.eventsObserved,
			m.eventsDropped,
		)
	}

	return m
}

// ConnectionOpened implements meshwire.Metrics.
func (m *Metrics) ConnectionOpened(direction string) {
	m.connectionsOpened.WithLabelValues(direction).Inc()
}

// ConnectionClosed implements meshwire.Metrics.
func (m *Metrics) ConnectionClosed(direction string) {
	m.connectionsClosed.WithLabelValues(direction).Inc()
}

// DialAttempt implements meshwire.Metrics.
func (m *Metrics) DialAttempt(result string) {
	m.dialAttempts.WithLabelValues(result).Inc()
}

// MessagePublished implements meshwire.Metrics.
func (m *Metrics) MessagePublished(topic string, bytes int) {
	m.messagesPublished.WithLabelValues(topic).Inc()
	m.bytesPublished.WithLabelValues(topic).Add(float64(bytes))
}

// MessageReceived implements meshwire.Metrics.
func (m *Metrics) MessageReceived(topic string, bytes int) {
	m.messagesReceived.WithLabelValues(topic).Inc()
	m.bytesReceived.WithLabelValues(topic).Add(float64(bytes))
}

// MessageDropped implements meshwire.Metrics.
func (m *Metrics) MessageDropped() {
	m.messagesDropped.Inc()
}

// PeerDiscovered implements meshwire.Metrics.
func (m *Metrics) PeerDiscovered() {
	m.peersDiscovered.Inc()
}

// RoutingTableSize implements meshwire.Metrics.
func (m *Metrics) RoutingTableSize(size int) {
	m.routingTableSize.Set(float64(size))
}

// PingRTT implements meshwire.Metrics.
func (m *Metrics) PingRTT(seconds float64) {
	m.pingRTT.Observe(seconds)
}

// PingFailure implements meshwire.Metrics.
func (m *Metrics) PingFailure() {
	m.pingFailures.Inc()
}

// CommandReceived implements meshwire.Metrics.
func (m *Metrics) CommandReceived(kind string) {
	m.commandsReceived.WithLabelValues(kind).Inc()
}

// EventObserved implements meshwire.Metrics.
func (m *Metrics) EventObserved(kind string) {
	m.eventsObserved.WithLabelValues(kind).Inc()
}

// EventDropped implements meshwire.Metrics.
func (m *Metrics) EventDropped() {
	m.eventsDropped.Inc()
}
