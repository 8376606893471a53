package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace = "openconduit"
)

var (
	requestDurationBuckets = []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60}
	syncDurationBuckets    = []float64{1, 2, 5, 10, 30, 60, 120, 300, 600, 1200}

	// Outbound request metrics
	AdapterRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "adapter_requests_total",
		Help:      "Count of outbound provider requests by result status.",
	}, []string{"integration", "status"})

	AdapterRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "adapter_request_duration_seconds",
		Help:      "Wall-clock time of outbound provider requests.",
		Buckets:   requestDurationBuckets,
	}, []string{"integration"})

	RateLimitRemaining = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "rate_limit_remaining",
		Help:      "Most recent remaining request budget reported by the provider.",
	}, []string{"integration"})

	RateLimitHitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rate_limit_hits_total",
		Help:      "Count of rate-limit hits (429s and proactive low-budget warnings).",
	}, []string{"integration"})

	// Webhook metrics
	WebhooksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "webhooks_total",
		Help:      "Count of inbound webhook deliveries by outcome.",
	}, []string{"integration", "outcome"})

	// Batch / sync metrics
	BatchPagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "batch_pages_total",
		Help:      "Count of pages fetched by batch orchestration.",
	}, []string{"integration", "entity"})

	SyncRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sync_runs_total",
		Help:      "Count of sync executions per connection.",
	}, []string{"integration", "status"})

	SyncDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "sync_duration_seconds",
		Help:      "Time taken for a full sync run to complete.",
		Buckets:   syncDurationBuckets,
	}, []string{"integration"})

	// Health metrics
	HealthCheckDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "health_check_duration_seconds",
		Help:      "Response time of adapter connectivity probes.",
		Buckets:   requestDurationBuckets,
	}, []string{"integration"})

	HealthStatus = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "health_status",
		Help:      "1 when the last connectivity probe succeeded, 0 otherwise.",
	}, []string{"integration", "connection"})
)
