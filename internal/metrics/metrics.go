// Package metrics holds Prometheus instruments used across the locale
// services.  All collectors are registered with the global registry, so
// importing this package in main.go is enough to expose them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	SnapshotCacheHitsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "locale_snapshot_cache_hits_total",
			Help: "Snapshot reads served from the shared cache.",
		})

	SnapshotCacheMissesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "locale_snapshot_cache_misses_total",
			Help: "Snapshot reads that found no usable cache entry.",
		})

	SnapshotBuildTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "locale_snapshot_build_total",
			Help: "Cumulative number of snapshots built from storage.",
		})

	SnapshotBuildErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "locale_snapshot_build_errors_total",
			Help: "Cumulative number of failed snapshot builds.",
		})

	SnapshotBuildSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "locale_snapshot_build_seconds",
			Help:    "Time spent building a snapshot from storage.",
			Buckets: prometheus.DefBuckets,
		})

	SnapshotInvalidationsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "locale_snapshot_invalidations_total",
			Help: "Explicit snapshot cache invalidations.",
		})

	DuplicateDefaultLocalesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "locale_duplicate_default_total",
			Help: "Extra default locales ignored while building snapshots.",
		})

	// ResolutionsTotal is labelled by the signal that decided the locale:
	// defined, query, domain, context, background, or failed.
	ResolutionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "locale_resolutions_total",
			Help: "Locale resolutions by deciding signal.",
		}, []string{"source"})

	InvalidLocaleParamTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "locale_invalid_param_total",
			Help: "Requests carrying a malformed locale query parameter.",
		})

	ProtectedAuthTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "locale_protected_auth_total",
			Help: "Protected-domain password checks by outcome.",
		}, []string{"outcome"})
)

func init() {
	prometheus.MustRegister(
		SnapshotCacheHitsTotal,
		SnapshotCacheMissesTotal,
		SnapshotBuildTotal,
		SnapshotBuildErrorsTotal,
		SnapshotBuildSeconds,
		SnapshotInvalidationsTotal,
		DuplicateDefaultLocalesTotal,
		ResolutionsTotal,
		InvalidLocaleParamTotal,
		ProtectedAuthTotal,
	)
}
