package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const namespace = "gatekeeper"

const (
	EnforcementRemoved         = "removed"
	EnforcementAlreadyVerified = "already_verified"
	EnforcementRemovalFailed   = "removal_failed"
)

// Metrics gathers the engine counters on a private registry.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry        *prometheus.Registry
	verdicts        *prometheus.CounterVec
	enforcements    *prometheus.CounterVec
	verifications   prometheus.Counter
	notifierDrops   prometheus.Counter
	pendingSessions prometheus.Gauge
	collectorStates prometheus.Gauge
	residentMemory  prometheus.Gauge
	cpuPercent      prometheus.Gauge
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		verdicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "moderation_verdicts_total",
			Help:      "Screened messages by verdict kind.",
		}, []string{"kind"}),
		enforcements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "enforcements_total",
			Help:      "Expired verification sessions by outcome.",
		}, []string{"outcome"}),
		verifications: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "verifications_completed_total",
			Help:      "Users that finished the verification flow in time.",
		}),
		notifierDrops: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "admin_notifications_dropped_total",
			Help:      "Admin notifications dropped because the buffer was full.",
		}),
		pendingSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pending_sessions",
			Help:      "Verification sessions waiting for completion or deadline.",
		}),
		collectorStates: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "collector_states",
			Help:      "Users with a profile collection in progress.",
		}),
		residentMemory: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "process_resident_memory_bytes",
			Help:      "Resident set size sampled by the heartbeat worker.",
		}),
		cpuPercent: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "process_cpu_percent",
			Help:      "CPU usage sampled by the heartbeat worker.",
		}),
	}
	m.registry.MustRegister(
		m.verdicts,
		m.enforcements,
		m.verifications,
		m.notifierDrops,
		m.pendingSessions,
		m.collectorStates,
		m.residentMemory,
		m.cpuPercent,
		collectors.NewGoCollector(),
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return prometheus.NewRegistry()
	}
	return m.registry
}

func (m *Metrics) ObserveVerdict(kind string) {
	if m == nil {
		return
	}
	m.verdicts.WithLabelValues(kind).Inc()
}

func (m *Metrics) ObserveEnforcement(outcome string) {
	if m == nil {
		return
	}
	m.enforcements.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveVerification() {
	if m == nil {
		return
	}
	m.verifications.Inc()
}

func (m *Metrics) ObserveNotifierDrop() {
	if m == nil {
		return
	}
	m.notifierDrops.Inc()
}

func (m *Metrics) SetPendingSessions(n int) {
	if m == nil {
		return
	}
	m.pendingSessions.Set(float64(n))
}

func (m *Metrics) SetCollectorStates(n int) {
	if m == nil {
		return
	}
	m.collectorStates.Set(float64(n))
}

func (m *Metrics) SetProcessStats(rss uint64, cpu float64) {
	if m == nil {
		return
	}
	m.residentMemory.Set(float64(rss))
	m.cpuPercent.Set(cpu)
}
