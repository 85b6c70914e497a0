// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	UploadsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bhea_uploads_processed_total",
			Help: "Total number of uploads processed by kind",
		},
		[]string{"kind"},
	)

	UploadFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bhea_upload_failures_total",
			Help: "Total number of failed uploads by kind and error code",
		},
		[]string{"kind", "error_code"},
	)

	DashboardRenderDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name: "bhea_dashboard_render_duration_seconds",
			Help: "Duration of dashboard page rendering in seconds",
		},
	)

	ChartRenderDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name: "bhea_chart_render_duration_seconds",
			Help: "Duration of chart rendering in seconds",
		},
	)

	ERTProcessingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name: "bhea_ert_processing_duration_seconds",
			Help: "Duration of ERT section processing in seconds",
		},
	)

	InsightRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bhea_insight_requests_total",
			Help: "Total number of insight generation requests by outcome",
		},
		[]string{"outcome"},
	)

	InsightDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name: "bhea_insight_duration_seconds",
			Help: "Duration of insight generation calls in seconds",
		},
	)

	InsightCacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bhea_insight_cache_total",
			Help: "Insight cache lookups by result",
		},
		[]string{"result"},
	)

	DatasetRecords = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "bhea_dataset_records",
			Help: "Number of records in the currently loaded dataset",
		},
	)
)
