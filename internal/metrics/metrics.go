// Package metrics exposes classification and alerting counters for Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hamed0406/domainclassifier/internal/probe"
)

var (
	Classifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "domainclassifier_classifications_total",
			Help: "Total number of classifications, labeled by status and failure kind.",
		},
		[]string{"status", "kind"},
	)
	ClassifyDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "domainclassifier_classify_duration_seconds",
			Help:    "Duration of a single classification in seconds.",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 15},
		},
		[]string{"status"},
	)
	TrackedTargets = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "domainclassifier_targets",
			Help: "Number of domains seen by the last recheck pass.",
		},
	)
	AlertsSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "domainclassifier_alerts_sent_total",
			Help: "Notifications sent, labeled by outcome (ok|error).",
		},
		[]string{"outcome"},
	)
)

func init() {
	prometheus.MustRegister(Classifications)
	prometheus.MustRegister(ClassifyDuration)
	prometheus.MustRegister(TrackedTargets)
	prometheus.MustRegister(AlertsSent)
}

// Observe records one finished classification.
func Observe(r probe.Result) {
	status := r.Status.String()
	Classifications.WithLabelValues(status, r.Kind.String()).Inc()
	ClassifyDuration.WithLabelValues(status).Observe(r.LatencyMS / 1000)
}

func Handler() http.Handler {
	return promhttp.Handler()
}
