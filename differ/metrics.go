package differ

import "github.com/prometheus/client_golang/prometheus"

// Metrics tracks differ performance.
type Metrics struct {
	diffDuration *prometheus.HistogramVec
}

func NewMetrics(registry prometheus.Registerer) *Metrics {
	m := &Metrics{
		diffDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "dclstate",
			Subsystem: "differ",
			Name:      "diff_duration_seconds",
			Help:      "Time spent computing one state diff.",
			Buckets:   prometheus.DefBuckets,
		}, nil),
	}
	registry.MustRegister(m.diffDuration)
	return m
}
