package progress

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusSink exports crawl progress as Prometheus metrics. It owns
// all collectors for unit outcomes, fetched bytes, and per-unit
// processing latency.
type PrometheusSink struct {
	unitsTotal   *prometheus.CounterVec
	fetchedBytes prometheus.Counter
	unitDuration *prometheus.HistogramVec
}

// NewPrometheusSink registers the collectors against the provided
// registry.
func NewPrometheusSink(reg prometheus.Registerer) (*PrometheusSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PrometheusSink{
		unitsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lyricscrawler_units_total",
			Help: "Processed units partitioned by kind and action.",
		}, []string{"kind", "action"}),
		fetchedBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lyricscrawler_fetched_bytes_total",
			Help: "Raw lyric text bytes fetched.",
		}),
		unitDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "lyricscrawler_unit_duration_seconds",
			Help:    "Wall time spent processing one unit.",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
		}, []string{"kind"}),
	}
	for _, collector := range []prometheus.Collector{
		s.unitsTotal,
		s.fetchedBytes,
		s.unitDuration,
	} {
		if err := reg.Register(collector); err != nil {
			return nil, fmt.Errorf("register progress collector: %w", err)
		}
	}
	return s, nil
}

// Observe updates the collectors for one event.
func (s *PrometheusSink) Observe(evt Event) {
	switch evt.Action {
	case ActionRunStart, ActionRunDone:
		return
	}
	kind := string(evt.Unit.Kind)
	s.unitsTotal.WithLabelValues(kind, string(evt.Action)).Inc()
	if evt.Bytes > 0 {
		s.fetchedBytes.Add(float64(evt.Bytes))
	}
	if evt.Dur > 0 {
		s.unitDuration.WithLabelValues(kind).Observe(evt.Dur.Seconds())
	}
}
