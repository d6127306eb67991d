/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package limiter

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/acronis/go-ratelimit/internal/libinfo"
)

const metricsLabelDecision = "decision"

// Decisions used as values of the "decision" label.
const (
	DecisionAllowed = "allowed"
	DecisionDenied  = "denied"
	DecisionError   = "error"
)

// DefaultCheckDurationBuckets is default buckets into which observations of rate limit checks are counted.
var DefaultCheckDurationBuckets = []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1}

// MetricsCollector collects metrics of rate limit checks.
type MetricsCollector interface {
	// ObserveCheck records the decision of a check and how long it took.
	ObserveCheck(decision string, elapsed time.Duration)
}

// PrometheusMetricsOpts represents options for PrometheusMetrics.
type PrometheusMetricsOpts struct {
	// Namespace is prepended to all metric names.
	Namespace string

	// DurationBuckets is a list of buckets into which observations of checks are counted.
	// Default is DefaultCheckDurationBuckets.
	DurationBuckets []float64

	// ConstLabels is a set of labels that will be applied to all metrics.
	// The library version label ("go_ratelimit_version") is always added.
	ConstLabels prometheus.Labels

	// CurriedLabelNames is a list of label names that must be curried with PrometheusMetrics.MustCurryWith
	// before the collector is used.
	CurriedLabelNames []string
}

// PrometheusMetrics represents Prometheus metrics of rate limit checks.
// Keys are not used as label values since their set is not bounded.
type PrometheusMetrics struct {
	ChecksTotal    *prometheus.CounterVec
	CheckDurations *prometheus.HistogramVec
}

var _ MetricsCollector = (*PrometheusMetrics)(nil)

// NewPrometheusMetrics creates a new instance of PrometheusMetrics with default options.
func NewPrometheusMetrics() *PrometheusMetrics {
	return NewPrometheusMetricsWithOpts(PrometheusMetricsOpts{})
}

// NewPrometheusMetricsWithOpts creates a new instance of PrometheusMetrics with the provided options.
func NewPrometheusMetricsWithOpts(opts PrometheusMetricsOpts) *PrometheusMetrics {
	constLabels := libinfo.WithVersionLabel(opts.ConstLabels)
	labelNames := append(append(make([]string, 0, len(opts.CurriedLabelNames)+1),
		opts.CurriedLabelNames...), metricsLabelDecision)

	durBuckets := opts.DurationBuckets
	if durBuckets == nil {
		durBuckets = DefaultCheckDurationBuckets
	}
	return &PrometheusMetrics{
		ChecksTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   opts.Namespace,
			Name:        "rate_limit_checks_total",
			Help:        "Number of rate limit checks partitioned by decision.",
			ConstLabels: constLabels,
		}, labelNames),
		CheckDurations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   opts.Namespace,
			Name:        "rate_limit_check_duration_seconds",
			Help:        "A histogram of the rate limit check durations.",
			Buckets:     durBuckets,
			ConstLabels: constLabels,
		}, labelNames),
	}
}

// MustCurryWith curries the metrics collector with the provided labels.
func (pm *PrometheusMetrics) MustCurryWith(labels prometheus.Labels) *PrometheusMetrics {
	return &PrometheusMetrics{
		ChecksTotal:    pm.ChecksTotal.MustCurryWith(labels),
		CheckDurations: pm.CheckDurations.MustCurryWith(labels).(*prometheus.HistogramVec),
	}
}

// MustRegister does registration of metrics collector in Prometheus and panics if any error occurs.
func (pm *PrometheusMetrics) MustRegister() {
	prometheus.MustRegister(pm.ChecksTotal, pm.CheckDurations)
}

// Unregister cancels registration of metrics collector in Prometheus.
func (pm *PrometheusMetrics) Unregister() {
	prometheus.Unregister(pm.ChecksTotal)
	prometheus.Unregister(pm.CheckDurations)
}

// ObserveCheck implements MetricsCollector.
func (pm *PrometheusMetrics) ObserveCheck(decision string, elapsed time.Duration) {
	labels := prometheus.Labels{metricsLabelDecision: decision}
	pm.ChecksTotal.With(labels).Inc()
	pm.CheckDurations.With(labels).Observe(elapsed.Seconds())
}

// WithMetrics returns a middleware that reports every check to the collector.
func WithMetrics(collector MetricsCollector) Middleware {
	return WithObserver(func(_ string, resp Response, elapsed time.Duration, err error) {
		collector.ObserveCheck(decisionOf(resp, err), elapsed)
	})
}

func decisionOf(resp Response, err error) string {
	switch {
	case err != nil:
		return DecisionError
	case resp.Allowed:
		return DecisionAllowed
	default:
		return DecisionDenied
	}
}
