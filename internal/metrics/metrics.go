package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"ElectionWatcher/internal/ports"
)

// PollerMetrics counts poll cycles and dispatches per site.
type PollerMetrics struct {
	Cycles     *prometheus.CounterVec
	Dispatched *prometheus.CounterVec
	Failures   *prometheus.CounterVec
	Warnings   *prometheus.CounterVec
}

var _ ports.CycleObserver = (*PollerMetrics)(nil)

// NewPollerMetrics registers the collectors on reg.
func NewPollerMetrics(reg prometheus.Registerer, namespace string) *PollerMetrics {
	factory := promauto.With(reg)
	return &PollerMetrics{
		Cycles: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "poller",
				Name:      "cycles_total",
				Help:      "Poll cycles per site by outcome",
			},
			[]string{"site", "outcome"},
		),
		Dispatched: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "poller",
				Name:      "regions_dispatched_total",
				Help:      "Regions dispatched per site",
			},
			[]string{"site"},
		),
		Failures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "poller",
				Name:      "dispatch_failures_total",
				Help:      "Failed dispatch steps per site and stage",
			},
			[]string{"site", "stage"},
		),
		Warnings: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "extractor",
				Name:      "field_warnings_total",
				Help:      "Malformed or unrecognized blocks and rows",
			},
			[]string{"site"},
		),
	}
}

func (m *PollerMetrics) CycleFinished(site string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.Cycles.WithLabelValues(site, outcome).Inc()
}

func (m *PollerMetrics) RegionDispatched(site string) {
	m.Dispatched.WithLabelValues(site).Inc()
}

func (m *PollerMetrics) DispatchFailed(site, stage string) {
	m.Failures.WithLabelValues(site, stage).Inc()
}

func (m *PollerMetrics) FieldWarnings(site string, count int) {
	if count > 0 {
		m.Warnings.WithLabelValues(site).Add(float64(count))
	}
}
