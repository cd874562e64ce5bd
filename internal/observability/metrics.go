// Package observability holds the service's Prometheus metrics.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "hotspot"

// Metrics holds the Prometheus counters, histograms and gauges for the
// scoring service.
type Metrics struct {
	ReportsScored *prometheus.CounterVec   // labels: profile, method, trigger
	SeverityScore *prometheus.HistogramVec // labels: profile
	ScoreDuration prometheus.Histogram
	Votes         *prometheus.CounterVec // labels: direction={up,down}
	PublishErrors prometheus.Counter
	ArchiveErrors prometheus.Counter
	ModelLoaded   prometheus.Gauge

	// Collaborator metrics.
	Degraded         *prometheus.CounterVec // labels: collaborator={location,text,vision}
	POICache         *prometheus.CounterVec // labels: result={hit,miss}
	OverpassRequests *prometheus.CounterVec // labels: outcome={success,error,throttled}
	OverpassDuration prometheus.Histogram
}

func newMetrics() *Metrics {
	return &Metrics{
		ReportsScored: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_scored_total",
			Help:      "Reports scored or re-scored, by profile, method and trigger.",
		}, []string{"profile", "method", "trigger"}),
		SeverityScore: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "severity_score",
			Help:      "Distribution of final severity scores.",
			Buckets:   []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
		}, []string{"profile"}),
		ScoreDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "score_duration_seconds",
			Help:      "End-to-end duration of scoring a new report, including collaborators.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		Votes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "votes_total",
			Help:      "Votes applied, by direction.",
		}, []string{"direction"}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_errors_total",
			Help:      "Report events that failed to publish.",
		}),
		ArchiveErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "archive_errors_total",
			Help:      "Feature snapshots that failed to archive to blob storage.",
		}),
		ModelLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "model_loaded",
			Help:      "1 when a trained model artifact is loaded, 0 otherwise.",
		}),
		Degraded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "collaborator_degraded_total",
			Help:      "Collaborator lookups that fell back to neutral defaults.",
		}, []string{"collaborator"}),
		POICache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "poi_cache_total",
			Help:      "POI cache lookups by result.",
		}, []string{"result"}),
		OverpassRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "overpass_requests_total",
			Help:      "Overpass API requests by outcome.",
		}, []string{"outcome"}),
		OverpassDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "overpass_duration_seconds",
			Help:      "Overpass API request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
	}
}

// NewMetrics creates and registers all metrics with the default Prometheus
// registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates unregistered Metrics so tests can build as
// many as they like.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.ReportsScored,
		m.SeverityScore,
		m.ScoreDuration,
		m.Votes,
		m.PublishErrors,
		m.ArchiveErrors,
		m.ModelLoaded,
		m.Degraded,
		m.POICache,
		m.OverpassRequests,
		m.OverpassDuration,
	}
}

// DegradedHook returns a failure hook that counts degradations of a collaborator.
func (m *Metrics) DegradedHook(collaborator string) func(error) {
	return func(error) { m.Degraded.WithLabelValues(collaborator).Inc() }
}

// ObserveOverpass records one Overpass request.
func (m *Metrics) ObserveOverpass(outcome string, d time.Duration) {
	m.OverpassRequests.WithLabelValues(outcome).Inc()
	if outcome != "throttled" {
		m.OverpassDuration.Observe(d.Seconds())
	}
}
