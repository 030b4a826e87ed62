package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// heat-risk monitor.
type Metrics struct {
	RefreshTotal    *prometheus.CounterVec // labels: outcome={success,error}
	RefreshDuration prometheus.Histogram
	LastRefreshTime prometheus.Gauge
	RegionsLoaded   prometheus.Gauge
	PointsDropped   prometheus.Counter

	// Rule-engine outcome of the latest snapshot.
	FindingsByPriority *prometheus.GaugeVec // labels: priority
	TriggeredFindings  prometheus.Gauge

	// Alert publishing metrics.
	AlertsPublished    prometheus.Counter
	AlertPublishErrors prometheus.Counter

	// Advisory generation metrics.
	AdvisoryRequests *prometheus.CounterVec // labels: outcome={success,fallback,error}
	AdvisoryDuration prometheus.Histogram
}

// NewMetrics creates and registers all monitor metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		RefreshTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "heatrisk",
			Name:      "refresh_total",
			Help:      "Completed refresh cycles by outcome.",
		}, []string{"outcome"}),
		RefreshDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "heatrisk",
			Name:      "refresh_duration_seconds",
			Help:      "Duration of a complete fetch-aggregate-evaluate cycle.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		LastRefreshTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "heatrisk",
			Name:      "last_refresh_timestamp_seconds",
			Help:      "Unix time of the most recent successful refresh.",
		}),
		RegionsLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "heatrisk",
			Name:      "regions_loaded",
			Help:      "Planning-area polygons held by the region index.",
		}),
		PointsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "heatrisk",
			Name:      "points_dropped_total",
			Help:      "Measurement points that resolved to no known region.",
		}),
		FindingsByPriority: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "heatrisk",
			Name:      "findings",
			Help:      "Findings in the latest snapshot by priority.",
		}, []string{"priority"}),
		TriggeredFindings: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "heatrisk",
			Name:      "triggered_findings",
			Help:      "Findings in the latest snapshot with a triggered rule.",
		}),
		AlertsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "heatrisk",
			Name:      "alerts_published_total",
			Help:      "Heat alerts written to the alert sink.",
		}),
		AlertPublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "heatrisk",
			Name:      "alert_publish_errors_total",
			Help:      "Failed alert publish attempts.",
		}),
		AdvisoryRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "heatrisk",
			Name:      "advisory_requests_total",
			Help:      "Advisory generations by outcome.",
		}, []string{"outcome"}),
		AdvisoryDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "heatrisk",
			Name:      "advisory_duration_seconds",
			Help:      "Gemini advisory request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
	}

	prometheus.MustRegister(
		m.RefreshTotal,
		m.RefreshDuration,
		m.LastRefreshTime,
		m.RegionsLoaded,
		m.PointsDropped,
		m.FindingsByPriority,
		m.TriggeredFindings,
		m.AlertsPublished,
		m.AlertPublishErrors,
		m.AdvisoryRequests,
		m.AdvisoryDuration,
	)

	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		RefreshTotal:       prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "heatrisk", Name: "refresh_total"}, []string{"outcome"}),
		RefreshDuration:    prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "heatrisk", Name: "refresh_duration_seconds"}),
		LastRefreshTime:    prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "heatrisk", Name: "last_refresh_timestamp_seconds"}),
		RegionsLoaded:      prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "heatrisk", Name: "regions_loaded"}),
		PointsDropped:      prometheus.NewCounter(prometheus.CounterOpts{Namespace: "heatrisk", Name: "points_dropped_total"}),
		FindingsByPriority: prometheus.NewGaugeVec(prometheus.GaugeOpts{Namespace: "heatrisk", Name: "findings"}, []string{"priority"}),
		TriggeredFindings:  prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "heatrisk", Name: "triggered_findings"}),
		AlertsPublished:    prometheus.NewCounter(prometheus.CounterOpts{Namespace: "heatrisk", Name: "alerts_published_total"}),
		AlertPublishErrors: prometheus.NewCounter(prometheus.CounterOpts{Namespace: "heatrisk", Name: "alert_publish_errors_total"}),
		AdvisoryRequests:   prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "heatrisk", Name: "advisory_requests_total"}, []string{"outcome"}),
		AdvisoryDuration:   prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "heatrisk", Name: "advisory_duration_seconds"}),
	}
}
