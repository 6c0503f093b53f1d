package metrics

import (
	"github.com/jet/privy/status"
	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	Namespace string
	Labels    map[string]string

	registry *prometheus.Registry

	nativeCalls      *prometheus.CounterVec
	bufferResizes    *prometheus.CounterVec
	privilegeChanges *prometheus.CounterVec
	rightChanges     *prometheus.CounterVec
}

func (m *Metrics) Init() {
	m.registry = prometheus.NewRegistry()
	m.nativeCalls = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.Namespace,
		Subsystem:   "native",
		Name:        "calls_total",
		Help:        `Total number of native calls by function and normalized outcome.`,
		ConstLabels: prometheus.Labels(m.Labels),
	}, []string{"op", "outcome"})
	m.registry.MustRegister(m.nativeCalls)
	m.bufferResizes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.Namespace,
		Subsystem:   "native",
		Name:        "buffer_resizes_total",
		Help:        `Total number of size probes that asked for a larger buffer.`,
		ConstLabels: prometheus.Labels(m.Labels),
	}, []string{"op"})
	m.registry.MustRegister(m.bufferResizes)
	m.privilegeChanges = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.Namespace,
		Subsystem:   "privilege",
		Name:        "changes_total",
		Help:        `Total number of token privileges submitted for a change, by intent.`,
		ConstLabels: prometheus.Labels(m.Labels),
	}, []string{"intent"})
	m.registry.MustRegister(m.privilegeChanges)
	m.rightChanges = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.Namespace,
		Subsystem:   "right",
		Name:        "changes_total",
		Help:        `Total number of account rights added or removed.`,
		ConstLabels: prometheus.Labels(m.Labels),
	}, []string{"action"})
	m.registry.MustRegister(m.rightChanges)
}

// OnResult counts a translated native call.
// Install with status.SetObserver.
func (m *Metrics) OnResult(r status.Result) {
	m.nativeCalls.WithLabelValues(r.Op, r.Outcome.String()).Inc()
	if r.Outcome == status.RetryWithBuffer {
		m.bufferResizes.WithLabelValues(r.Op).Inc()
	}
}

func (m *Metrics) OnPrivilegeChange(intent string, n int) {
	m.privilegeChanges.WithLabelValues(intent).Add(float64(n))
}

func (m *Metrics) OnRightChange(action string, n int) {
	m.rightChanges.WithLabelValues(action).Add(float64(n))
}

// Gatherer returns the registry holding every metric
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}

// WriteTextfile writes the metrics in the text exposition format, for the
// node exporter textfile collector
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
