package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups all Prometheus instruments used by the service. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	ActiveSessions   prometheus.Gauge
	SessionEvents    *prometheus.CounterVec
	GatewayAttempts  *prometheus.CounterVec
	GatewayFallbacks *prometheus.CounterVec
	GatewayLatency   prometheus.Histogram
	Evaluations      *prometheus.CounterVec
	CrisisFindings   *prometheus.CounterVec
	WSMessages       *prometheus.CounterVec

	gatherer prometheus.Gatherer
	window   *stageWindow
}

// NewMetrics registers the instruments on reg. Pass prometheus.NewRegistry()
// in tests to avoid duplicate registration on the default registry.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}
	f := promauto.With(reg)
	return &Metrics{
		ActiveSessions: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Number of pending or active conversation sessions.",
		}),
		SessionEvents: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_events_total",
			Help:      "Session lifecycle events by type.",
		}, []string{"event"}),
		GatewayAttempts: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gateway_attempts_total",
			Help:      "Language-model provider attempts by provider and outcome.",
		}, []string{"provider", "outcome"}),
		GatewayFallbacks: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gateway_fallbacks_total",
			Help:      "Replies replaced by the fallback message, by reason.",
		}, []string{"reason"}),
		GatewayLatency: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "gateway_latency_ms",
			Help:      "End-to-end gateway latency including retries, in milliseconds.",
			Buckets:   []float64{250, 500, 1000, 2000, 4000, 8000, 15000, 30000, 60000},
		}),
		Evaluations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evaluations_total",
			Help:      "Response evaluations by strategy and the tier that produced the score.",
		}, []string{"strategy", "tier"}),
		CrisisFindings: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "crisis_findings_total",
			Help:      "Crisis detector results by mode and severity.",
		}, []string{"mode", "severity"}),
		WSMessages: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ws_messages_total",
			Help:      "WebSocket messages by direction and type.",
		}, []string{"direction", "type"}),
		gatherer: gatherer,
		window:   newStageWindow(256),
	}
}

func (m *Metrics) ObserveGatewayAttempt(provider, outcome string) {
	if m == nil {
		return
	}
	m.GatewayAttempts.WithLabelValues(provider, outcome).Inc()
}

func (m *Metrics) ObserveGatewayFallback(reason string) {
	if m == nil {
		return
	}
	m.GatewayFallbacks.WithLabelValues(reason).Inc()
	m.window.Mark("gateway_fallback")
}

func (m *Metrics) ObserveGatewayLatency(d time.Duration) {
	if m == nil {
		return
	}
	m.GatewayLatency.Observe(float64(d.Milliseconds()))
	m.window.Observe(StageGatewayCall, d)
}

func (m *Metrics) ObserveEvaluation(strategy, tier string) {
	if m == nil {
		return
	}
	m.Evaluations.WithLabelValues(strategy, tier).Inc()
	if tier == "heuristic_fallback" {
		m.window.Mark("evaluator_heuristic_fallback")
	}
}

func (m *Metrics) ObserveCrisis(mode, severity string) {
	if m == nil {
		return
	}
	m.CrisisFindings.WithLabelValues(mode, severity).Inc()
	if severity == "critical" {
		m.window.Mark("crisis_critical")
	}
}

func (m *Metrics) ObserveSessionEvent(event string) {
	if m == nil {
		return
	}
	m.SessionEvents.WithLabelValues(event).Inc()
}

func (m *Metrics) SetActiveSessions(n int) {
	if m == nil {
		return
	}
	m.ActiveSessions.Set(float64(n))
}

func (m *Metrics) ObserveWSMessage(direction, msgType string) {
	if m == nil {
		return
	}
	m.WSMessages.WithLabelValues(direction, msgType).Inc()
}

// ObserveStage records a latency sample for the perf snapshot.
func (m *Metrics) ObserveStage(stage string, d time.Duration) {
	if m == nil {
		return
	}
	m.window.Observe(stage, d)
}

func (m *Metrics) SnapshotStages() StageSnapshot {
	if m == nil {
		return StageSnapshot{GeneratedAt: time.Now().UTC(), Stages: []StageStats{}}
	}
	return m.window.Snapshot()
}

func (m *Metrics) Handler() http.Handler {
	if m == nil || m.gatherer == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
