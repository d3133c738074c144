package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Usage ledger metrics
	UsageRecords = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clubhub_usage_records_total",
			Help: "Total number of usage ledger writes",
		},
		[]string{"status"}, // status: success|error
	)

	TokensRecorded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clubhub_tokens_recorded_total",
			Help: "Total tokens recorded in the usage ledger",
		},
		[]string{"model", "request_type"},
	)

	StatusCacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clubhub_status_cache_lookups_total",
			Help: "Token status cache lookups",
		},
		[]string{"result"}, // result: hit|miss
	)

	RateLimitDecisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clubhub_rate_limit_decisions_total",
			Help: "Fixed-window rate limit decisions",
		},
		[]string{"decision"}, // decision: allowed|limited
	)

	// Catalog sync metrics
	CatalogSyncs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clubhub_catalog_syncs_total",
			Help: "Total catalog sync attempts",
		},
		[]string{"status"}, // status: success|error
	)

	CatalogSyncDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "clubhub_catalog_sync_duration_seconds",
			Help:    "Catalog sync duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
	)

	CatalogModels = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "clubhub_catalog_models_count",
			Help: "Current number of models in the catalog",
		},
	)

	// Worker metrics
	WorkerExecutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clubhub_worker_executions_total",
			Help: "Total number of worker executions",
		},
		[]string{"worker", "status"}, // status: success|error
	)

	WorkerDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "clubhub_worker_duration_seconds",
			Help:    "Worker execution duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"worker"},
	)

	WorkerLastRun = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "clubhub_worker_last_run_timestamp",
			Help: "Unix timestamp of last worker execution",
		},
		[]string{"worker"},
	)
)

// Init registers all collectors with the default registry
func Init() {
	prometheus.MustRegister(UsageRecords)
	prometheus.MustRegister(TokensRecorded)
	prometheus.MustRegister(StatusCacheLookups)
	prometheus.MustRegister(RateLimitDecisions)

	prometheus.MustRegister(CatalogSyncs)
	prometheus.MustRegister(CatalogSyncDuration)
	prometheus.MustRegister(CatalogModels)

	prometheus.MustRegister(WorkerExecutions)
	prometheus.MustRegister(WorkerDuration)
	prometheus.MustRegister(WorkerLastRun)
}

// Handler returns the Prometheus scrape handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordWorkerExecution records a worker execution
func RecordWorkerExecution(worker string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	WorkerExecutions.WithLabelValues(worker, status).Inc()
	WorkerDuration.WithLabelValues(worker).Observe(duration.Seconds())
	WorkerLastRun.WithLabelValues(worker).SetToCurrentTime()
}
