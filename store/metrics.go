/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package store

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/acronis/go-ratelimit/internal/libinfo"
)

// MetricsCollector collects metrics of the in-memory store.
type MetricsCollector interface {
	// SetEntriesAmount sets the number of stored entries observed by the last sweep.
	SetEntriesAmount(int)

	// AddReclaimed increments the total number of expired entries removed by sweeps.
	AddReclaimed(int)

	// ObserveSweepDuration records how long a sweep took.
	ObserveSweepDuration(time.Duration)
}

// PrometheusMetricsOpts represents options for PrometheusMetrics.
type PrometheusMetricsOpts struct {
	// Namespace is prepended to all metric names.
	Namespace string

	// ConstLabels is a set of labels that will be applied to all metrics.
	// The library version label ("go_ratelimit_version") is always added.
	ConstLabels prometheus.Labels

	// CurriedLabelNames is a list of label names that must be curried with PrometheusMetrics.MustCurryWith
	// before the collector is used.
	CurriedLabelNames []string

	// SweepDurationBuckets are buckets for the sweep duration histogram. Default is prometheus.DefBuckets.
	SweepDurationBuckets []float64
}

// PrometheusMetrics represents Prometheus metrics for the in-memory store.
type PrometheusMetrics struct {
	EntriesAmount  *prometheus.GaugeVec
	ReclaimedTotal *prometheus.CounterVec
	SweepDuration  *prometheus.HistogramVec
}

// NewPrometheusMetrics creates a new instance of PrometheusMetrics with default options.
func NewPrometheusMetrics() *PrometheusMetrics {
	return NewPrometheusMetricsWithOpts(PrometheusMetricsOpts{})
}

// NewPrometheusMetricsWithOpts creates a new instance of PrometheusMetrics with the provided options.
func NewPrometheusMetricsWithOpts(opts PrometheusMetricsOpts) *PrometheusMetrics {
	constLabels := libinfo.WithVersionLabel(opts.ConstLabels)
	buckets := opts.SweepDurationBuckets
	if buckets == nil {
		buckets = prometheus.DefBuckets
	}
	return &PrometheusMetrics{
		EntriesAmount: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   opts.Namespace,
			Name:        "store_entries_amount",
			Help:        "Number of entries in the store observed by the last sweep.",
			ConstLabels: constLabels,
		}, opts.CurriedLabelNames),
		ReclaimedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   opts.Namespace,
			Name:        "store_reclaimed_entries_total",
			Help:        "Number of expired entries removed by the background sweep.",
			ConstLabels: constLabels,
		}, opts.CurriedLabelNames),
		SweepDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   opts.Namespace,
			Name:        "store_sweep_duration_seconds",
			Help:        "Duration of the expired entries sweep.",
			Buckets:     buckets,
			ConstLabels: constLabels,
		}, opts.CurriedLabelNames),
	}
}

// MustCurryWith curries the metrics collector with the provided labels.
func (pm *PrometheusMetrics) MustCurryWith(labels prometheus.Labels) *PrometheusMetrics {
	return &PrometheusMetrics{
		EntriesAmount:  pm.EntriesAmount.MustCurryWith(labels),
		ReclaimedTotal: pm.ReclaimedTotal.MustCurryWith(labels),
		SweepDuration:  pm.SweepDuration.MustCurryWith(labels).(*prometheus.HistogramVec),
	}
}

// MustRegister does registration of metrics collector in Prometheus and panics if any error occurs.
func (pm *PrometheusMetrics) MustRegister() {
	prometheus.MustRegister(pm.EntriesAmount, pm.ReclaimedTotal, pm.SweepDuration)
}

// Unregister cancels registration of metrics collector in Prometheus.
func (pm *PrometheusMetrics) Unregister() {
	prometheus.Unregister(pm.EntriesAmount)
	prometheus.Unregister(pm.ReclaimedTotal)
	prometheus.Unregister(pm.SweepDuration)
}

// SetEntriesAmount implements MetricsCollector.
func (pm *PrometheusMetrics) SetEntriesAmount(n int) {
	pm.EntriesAmount.With(nil).Set(float64(n))
}

// AddReclaimed implements MetricsCollector.
func (pm *PrometheusMetrics) AddReclaimed(n int) {
	pm.ReclaimedTotal.With(nil).Add(float64(n))
}

// ObserveSweepDuration implements MetricsCollector.
func (pm *PrometheusMetrics) ObserveSweepDuration(d time.Duration) {
	pm.SweepDuration.With(nil).Observe(d.Seconds())
}

type disabledMetrics struct{}

func (disabledMetrics) SetEntriesAmount(int)               {}
func (disabledMetrics) AddReclaimed(int)                   {}
func (disabledMetrics) ObserveSweepDuration(time.Duration) {}

var disabledMetricsCollector MetricsCollector = disabledMetrics{}
