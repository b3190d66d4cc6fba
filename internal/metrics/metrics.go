// Package metrics exposes Prometheus instrumentation for record ingestion, aggregation and heatmap rendering.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "gymstats"

//nolint:gochecknoglobals // collectors are registered once with the default registry.
var (
	recordsImported = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "records",
		Name:      "imported_total",
		Help:      "Number of workout records stored through imports.",
	})

	importFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "records",
		Name:      "import_failures_total",
		Help:      "Number of rejected import requests.",
	})

	aggregationDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "stats",
		Name:      "aggregation_duration_seconds",
		Help:      "Time spent aggregating records per window kind.",
		Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8), //nolint:mnd // 100µs to ~1.6s.
	}, []string{"window"})

	heatmapRenders = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "heatmap",
		Name:      "renders_total",
		Help:      "Number of rendered body diagrams.",
	}, []string{"body", "side"})

	httpRequests = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency by route pattern and status code.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"pattern", "code"})
)

func init() {
	prometheus.MustRegister(recordsImported, importFailures, aggregationDuration, heatmapRenders, httpRequests)
}

// RecordImport counts n stored records.
func RecordImport(n int) {
	recordsImported.Add(float64(n))
}

// RecordImportFailure counts a rejected import.
func RecordImportFailure() {
	importFailures.Inc()
}

// ObserveAggregation records how long an aggregation over window took. Use "all" or "days" as window.
func ObserveAggregation(window string, d time.Duration) {
	aggregationDuration.WithLabelValues(window).Observe(d.Seconds())
}

// RecordHeatmapRender counts a rendered diagram.
func RecordHeatmapRender(body, side string) {
	heatmapRenders.WithLabelValues(body, side).Inc()
}

// ObserveRequest records the latency of a request matched by the mux pattern.
func ObserveRequest(pattern string, code int, d time.Duration) {
	if pattern == "" {
		pattern = "unmatched"
	}
	httpRequests.WithLabelValues(pattern, strconv.Itoa(code)).Observe(d.Seconds())
}

// Handler serves the default registry in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.Handler()
}
