// Package metrics provides Prometheus metrics for observability.
// Metrics are organized by domain: HTTP requests, import jobs, column matching,
// exports and database operations.
package metrics

import (
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"payroll-import/internal/domain"
)

const (
	namespace = "payroll_import"
)

var (
	// HTTP metrics - track request volume and latency
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by method, path, and status code",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_in_flight",
			Help:      "Number of HTTP requests currently being processed",
		},
	)

	HTTPRequestBytes = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_bytes",
			Help:      "Declared size of request bodies, mostly uploaded workbooks",
			Buckets:   prometheus.ExponentialBuckets(1024, 4, 10),
		},
		[]string{"method", "path"},
	)

	// Job metrics - track import job processing
	JobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "jobs",
			Name:      "total",
			Help:      "Total number of jobs by type, dataset group, and status",
		},
		[]string{"job_type", "dataset_group", "status"},
	)

	JobsInProgress = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "jobs",
			Name:      "in_progress",
			Help:      "Number of jobs currently in progress",
		},
		[]string{"job_type", "dataset_group"},
	)

	JobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "jobs",
			Name:      "duration_seconds",
			Help:      "Job processing duration in seconds",
			Buckets:   []float64{.1, .5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"job_type", "dataset_group"},
	)

	// Record processing metrics - track records within jobs
	RecordsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "records",
			Name:      "processed_total",
			Help:      "Total number of records processed by job type, dataset group, and result",
		},
		[]string{"job_type", "dataset_group", "result"},
	)

	BatchProcessingDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "records",
			Name:      "batch_duration_seconds",
			Help:      "Batch processing duration in seconds",
			Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"job_type", "dataset_group", "operation"},
	)

	// Matching metrics - track how source columns were reconciled
	ColumnMatches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "matcher",
			Name:      "columns_total",
			Help:      "Total number of source columns matched by dataset group and match type",
		},
		[]string{"dataset_group", "match_type"},
	)

	MatchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "matcher",
			Name:      "duration_seconds",
			Help:      "Time spent scoring and assigning the columns of one sheet",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"dataset_group"},
	)

	RequiredFieldsMissing = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "matcher",
			Name:      "required_missing_total",
			Help:      "Total number of required fields left without a column",
		},
		[]string{"dataset_group"},
	)

	// Export metrics - track workbook exports
	ExportsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "exports",
			Name:      "total",
			Help:      "Total number of exports by dataset group and result",
		},
		[]string{"dataset_group", "result"},
	)

	ExportDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "exports",
			Name:      "duration_seconds",
			Help:      "Export duration in seconds",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"dataset_group"},
	)

	ExportRecords = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "exports",
			Name:      "records_total",
			Help:      "Total number of records exported by dataset group",
		},
		[]string{"dataset_group"},
	)

	ExportsInFlight = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "exports",
			Name:      "in_flight",
			Help:      "Number of exports currently in progress",
		},
		[]string{"dataset_group"},
	)

	// Database metrics - track database operation performance
	DBConnectionPoolSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "db",
			Name:      "pool_connections",
			Help:      "Database connection pool stats",
		},
		[]string{"state"},
	)
)

// PoolStats is an interface for getting pool statistics
// This allows for easier testing by mocking the pool stats
type PoolStats interface {
	TotalConns() int32
	IdleConns() int32
	AcquiredConns() int32
}

// PoolStatsProvider is an interface for providing pool stats
type PoolStatsProvider interface {
	Stat() PoolStats
}

// pgxPoolAdapter adapts pgxpool.Pool to PoolStatsProvider
type pgxPoolAdapter struct {
	pool *pgxpool.Pool
}

func (a *pgxPoolAdapter) Stat() PoolStats {
	return a.pool.Stat()
}

// PoolStatsCollector collects database pool statistics periodically
type PoolStatsCollector struct {
	provider PoolStatsProvider
	stopChan chan struct{}
	wg       sync.WaitGroup
}

// NewPoolStatsCollector creates a new pool stats collector
func NewPoolStatsCollector(pool *pgxpool.Pool) *PoolStatsCollector {
	return &PoolStatsCollector{
		provider: &pgxPoolAdapter{pool: pool},
		stopChan: make(chan struct{}),
	}
}

// NewPoolStatsCollectorWithProvider creates a new pool stats collector with a custom provider (for testing)
func NewPoolStatsCollectorWithProvider(provider PoolStatsProvider) *PoolStatsCollector {
	return &PoolStatsCollector{
		provider: provider,
		stopChan: make(chan struct{}),
	}
}

// Start begins collecting pool stats every interval
func (c *PoolStatsCollector) Start(interval time.Duration) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		// Collect immediately on start
		c.collect()

		for {
			select {
			case <-ticker.C:
				c.collect()
			case <-c.stopChan:
				return
			}
		}
	}()
}

func (c *PoolStatsCollector) collect() {
	stats := c.provider.Stat()
	DBConnectionPoolSize.WithLabelValues("total").Set(float64(stats.TotalConns()))
	DBConnectionPoolSize.WithLabelValues("idle").Set(float64(stats.IdleConns()))
	DBConnectionPoolSize.WithLabelValues("in_use").Set(float64(stats.AcquiredConns()))
}

// Stop stops the pool stats collector
func (c *PoolStatsCollector) Stop() {
	close(c.stopChan)
	c.wg.Wait()
}

// ObserveJobCompletion records metrics when a job completes
func ObserveJobCompletion(jobType, group, status string, durationSeconds float64, successCount, failureCount int) {
	JobsTotal.WithLabelValues(jobType, group, status).Inc()
	JobDuration.WithLabelValues(jobType, group).Observe(durationSeconds)

	if successCount > 0 {
		RecordsProcessed.WithLabelValues(jobType, group, "success").Add(float64(successCount))
	}
	if failureCount > 0 {
		RecordsProcessed.WithLabelValues(jobType, group, "failure").Add(float64(failureCount))
	}
}

// StartJob increments the in-progress counter for a job
func StartJob(jobType, group string) {
	JobsInProgress.WithLabelValues(jobType, group).Inc()
}

// EndJob decrements the in-progress counter for a job
func EndJob(jobType, group string) {
	JobsInProgress.WithLabelValues(jobType, group).Dec()
}

// ObserveBatchDuration records the time taken to process a batch
func ObserveBatchDuration(jobType, group, operation string, durationSeconds float64) {
	BatchProcessingDuration.WithLabelValues(jobType, group, operation).Observe(durationSeconds)
}

// ObserveMatchReport counts the outcome of every column of a matching run
func ObserveMatchReport(group string, report *domain.MatchReport) {
	if report == nil {
		return
	}
	for _, r := range report.Results {
		ColumnMatches.WithLabelValues(group, string(r.MatchType)).Inc()
	}
	if missing := len(report.MissingRequired); missing > 0 {
		RequiredFieldsMissing.WithLabelValues(group).Add(float64(missing))
	}
}

// Timer is a helper for measuring operation duration
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer starting now
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the elapsed time since the timer was created
func (t *Timer) ObserveDuration(observer prometheus.Observer) {
	observer.Observe(time.Since(t.start).Seconds())
}

// StartExport starts tracking an export
func StartExport(group string) {
	ExportsInFlight.WithLabelValues(group).Inc()
}

// EndExport ends tracking an export and records metrics
func EndExport(group, result string, durationSeconds float64, recordCount int) {
	ExportsInFlight.WithLabelValues(group).Dec()
	ExportsTotal.WithLabelValues(group, result).Inc()
	ExportDuration.WithLabelValues(group).Observe(durationSeconds)
	if recordCount > 0 {
		ExportRecords.WithLabelValues(group).Add(float64(recordCount))
	}
}
