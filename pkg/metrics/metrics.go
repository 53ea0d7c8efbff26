// Package metrics provides Prometheus metrics for the upload pipeline.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	storageOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mediahub_storage_operation_duration_seconds",
			Help:    "Storage adapter operation latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider", "operation", "status"},
	)

	confirmsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mediahub_upload_confirms_total",
			Help: "Upload confirmations by media kind and outcome",
		},
		[]string{"kind", "outcome"},
	)

	presignsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mediahub_upload_presigns_total",
			Help: "Presigned upload slots issued by provider and outcome",
		},
		[]string{"provider", "outcome"},
	)

	variantsGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mediahub_variants_generated_total",
			Help: "Media variants generated by format",
		},
		[]string{"format"},
	)

	variantDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "mediahub_variant_generation_duration_seconds",
			Help:    "Time to generate the full variant set for one confirm",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)

	thumbnailFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mediahub_video_extraction_failures_total",
			Help: "Non-fatal video metadata/thumbnail extraction failures",
		},
		[]string{"stage"},
	)

	rateLimited = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mediahub_rate_limited_requests_total",
			Help: "Requests rejected by the upload rate limit gate",
		},
	)
)

func statusLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// ObserveStorageOperation records the latency of one adapter call.
func ObserveStorageOperation(provider, operation string, start time.Time, err error) {
	storageOperationDuration.WithLabelValues(provider, operation, statusLabel(err)).Observe(time.Since(start).Seconds())
}

func RecordConfirm(kind, outcome string) {
	confirmsTotal.WithLabelValues(kind, outcome).Inc()
}

func RecordPresign(provider string, err error) {
	presignsTotal.WithLabelValues(provider, statusLabel(err)).Inc()
}

func RecordVariant(format string) {
	variantsGenerated.WithLabelValues(format).Inc()
}

func ObserveVariantBatch(start time.Time) {
	variantDuration.Observe(time.Since(start).Seconds())
}

// RecordVideoExtractionFailure counts a tolerated failure; stage is
// "staging", "metadata" or "thumbnail".
func RecordVideoExtractionFailure(stage string) {
	thumbnailFailures.WithLabelValues(stage).Inc()
}

func RecordRateLimited() {
	rateLimited.Inc()
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
