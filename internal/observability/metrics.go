package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/riskibarqy/domatch/internal/platform/resilience"
)

const metricsNamespace = "domatch"

// Metrics owns the service's Prometheus collectors. It satisfies the use case
// MetricsRecorder port.
type Metrics struct {
	registry *prometheus.Registry

	matchesRecorded  prometheus.Counter
	gamesFinished    *prometheus.CounterVec
	duplicateJoins   *prometheus.CounterVec
	gatewayFailures  *prometheus.CounterVec
	integrationTasks *prometheus.CounterVec
	breakerState     *prometheus.GaugeVec
	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		matchesRecorded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "games",
			Name:      "matches_recorded_total",
			Help:      "Total number of matches recorded.",
		}),
		gamesFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "games",
			Name:      "finished_total",
			Help:      "Total number of finished games by outcome.",
		}, []string{"outcome"}),
		duplicateJoins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "membership",
			Name:      "duplicate_joins_total",
			Help:      "Join attempts rejected because the player was already registered.",
		}, []string{"target"}),
		gatewayFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "messaging",
			Name:      "gateway_failures_total",
			Help:      "Failed calls to the messaging gateway by operation.",
		}, []string{"op"}),
		integrationTasks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "integration",
			Name:      "tasks_processed_total",
			Help:      "Processed integration tasks by kind and resulting status.",
		}, []string{"kind", "outcome"}),
		breakerState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "resilience",
			Name:      "circuit_breaker_open",
			Help:      "1 when the named circuit breaker is open, 0.5 when half open, 0 when closed.",
		}, []string{"breaker"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		}, []string{"method", "route"}),
	}

	m.registry.MustRegister(
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		m.matchesRecorded,
		m.gamesFinished,
		m.duplicateJoins,
		m.gatewayFailures,
		m.integrationTasks,
		m.breakerState,
		m.httpRequests,
		m.httpDuration,
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) MatchRecorded() {
	m.matchesRecorded.Inc()
}

func (m *Metrics) GameFinished(outcome string) {
	m.gamesFinished.WithLabelValues(outcome).Inc()
}

func (m *Metrics) DuplicateJoinRejected(target string) {
	m.duplicateJoins.WithLabelValues(target).Inc()
}

func (m *Metrics) GatewayCallFailed(op string) {
	m.gatewayFailures.WithLabelValues(op).Inc()
}

func (m *Metrics) IntegrationTaskProcessed(kind, outcome string) {
	m.integrationTasks.WithLabelValues(kind, outcome).Inc()
}

func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// TrackBreaker exports the breaker's state and follows its transitions.
func (m *Metrics) TrackBreaker(b *resilience.CircuitBreaker) {
	if b == nil {
		return
	}
	m.breakerState.WithLabelValues(b.Name()).Set(breakerValue(b.State()))
	b.OnStateChange(func(name string, _, to resilience.CircuitState) {
		m.breakerState.WithLabelValues(name).Set(breakerValue(to))
	})
}

func breakerValue(state resilience.CircuitState) float64 {
	switch state {
	case resilience.CircuitStateOpen:
		return 1
	case resilience.CircuitStateHalfOpen:
		return 0.5
	default:
		return 0
	}
}
