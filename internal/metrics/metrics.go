// Package metrics provides Prometheus metrics for the server and the dataset jobs.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "mrcprep"

var (
	// HTTPRequestsTotal counts handled requests by route template.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	// HTTPRequestDuration measures request latency.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// SamplesTotal counts samples leaving the fake answer pipeline.
	SamplesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "samples_total",
			Help:      "Total number of samples processed by the fake answer pipeline",
		},
		[]string{"outcome"},
	)

	// ParagraphsIndexedTotal counts paragraphs bulk loaded per index.
	ParagraphsIndexedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "paragraphs_indexed_total",
			Help:      "Total number of paragraphs sent to a search backend",
		},
		[]string{"index"},
	)

	// JobsTotal counts finished background jobs.
	JobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_total",
			Help:      "Total number of finished background jobs",
		},
		[]string{"type", "status"},
	)

	// JobDuration measures background job run time.
	JobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "job_duration_seconds",
			Help:      "Duration of background jobs in seconds",
			Buckets:   []float64{0.01, 0.1, 1, 10, 60, 300, 1800, 3600},
		},
		[]string{"type"},
	)
)

// RecordRequest records one handled HTTP request.
func RecordRequest(method, route string, status int, seconds float64) {
	HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(seconds)
}

// RecordSamples records the outcome of a pipeline run.
func RecordSamples(written, dropped int) {
	SamplesTotal.WithLabelValues("written").Add(float64(written))
	SamplesTotal.WithLabelValues("dropped").Add(float64(dropped))
}

// RecordParagraphsIndexed records a bulk batch sent to index.
func RecordParagraphsIndexed(index string, n int) {
	ParagraphsIndexedTotal.WithLabelValues(index).Add(float64(n))
}

// RecordJob records a finished job.
func RecordJob(jobType, status string, seconds float64) {
	JobsTotal.WithLabelValues(jobType, status).Inc()
	JobDuration.WithLabelValues(jobType).Observe(seconds)
}

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}
