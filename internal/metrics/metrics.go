// Package metrics provides Prometheus metrics for the migration engine.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the migration engine.
type Metrics struct {
	// Task metrics
	PartitionsMigrated *prometheus.CounterVec
	PartitionsFailed   *prometheus.CounterVec
	FilesRelocated     *prometheus.CounterVec
	BytesRelocated     *prometheus.CounterVec

	// Timing metrics
	TaskDuration      *prometheus.HistogramVec
	MigrationDuration *prometheus.HistogramVec

	// Pipeline metrics
	InFlightTasks prometheus.Gauge

	// Recovery metrics
	RollbackEntries  prometheus.Counter
	RollbacksTotal   prometheus.Counter
	RollbackFailures prometheus.Counter

	// Error metrics
	CatalogErrors *prometheus.CounterVec
	StorageErrors *prometheus.CounterVec
	CommitErrors  prometheus.Counter
	AuditErrors   prometheus.Counter
}

// Config holds metrics configuration.
type Config struct {
	Enabled bool   `yaml:"enabled"`
	Address string `yaml:"address"` // e.g. ":9090"
}

var defaultMetrics *Metrics

// Init initializes the metrics package with global metrics.
// Call this once at startup.
func Init(namespace string) *Metrics {
	if namespace == "" {
		namespace = "table_migrate"
	}

	m := &Metrics{
		PartitionsMigrated: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "partitions_migrated_total",
				Help:      "Total number of partitions relocated into the target layout",
			},
			[]string{"format"},
		),
		PartitionsFailed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "partitions_failed_total",
				Help:      "Total number of partition tasks that failed",
			},
			[]string{"format"},
		),
		FilesRelocated: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "files_relocated_total",
				Help:      "Total number of data files renamed into the target layout",
			},
			[]string{"format"},
		),
		BytesRelocated: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "bytes_relocated_total",
				Help:      "Total bytes of data files renamed into the target layout",
			},
			[]string{"format"},
		),
		TaskDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "task_duration_seconds",
				Help:      "Time to relocate one partition and extract its file metadata",
				Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~40s
			},
			[]string{"format"},
		),
		MigrationDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "migration_duration_seconds",
				Help:      "End to end time of one migration including commit",
				Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12), // 0.1s to ~400s
			},
			[]string{"source", "target", "outcome"},
		),
		InFlightTasks: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "in_flight_tasks",
				Help:      "Number of partition tasks currently executing",
			},
		),
		RollbackEntries: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rollback_entries_total",
				Help:      "Total number of renames unwound by the rollback ledger",
			},
		),
		RollbacksTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rollbacks_total",
				Help:      "Total number of migrations that were rolled back",
			},
		),
		RollbackFailures: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rollback_failures_total",
				Help:      "Total number of ledger entries that could not be restored",
			},
		),
		CatalogErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "catalog_errors_total",
				Help:      "Total number of source catalog errors",
			},
			[]string{"operation"},
		),
		StorageErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "storage_errors_total",
				Help:      "Total number of file system errors",
			},
			[]string{"operation"},
		),
		CommitErrors: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "commit_errors_total",
				Help:      "Total number of failed snapshot commits",
			},
		),
		AuditErrors: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "audit_errors_total",
				Help:      "Total number of audit emission errors",
			},
		),
	}

	defaultMetrics = m
	return m
}

// Get returns the global metrics instance.
// Returns nil if Init has not been called.
func Get() *Metrics {
	return defaultMetrics
}

// StartServer starts an HTTP server for Prometheus metrics scraping.
// Blocks until the server exits.
func StartServer(address string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	return http.ListenAndServe(address, mux)
}
