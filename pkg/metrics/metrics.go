// Package metrics exposes Prometheus instrumentation for ticket generation,
// splitting and reconstruction.
package metrics

import (
	"fmt"
	"io"
	"strings"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/common/expfmt"
)

const (
	// Namespace is the Prometheus namespace for all ticket metrics
	Namespace = "ticket"

	LabelOperation = "operation"
	LabelStrategy  = "strategy"
	LabelStatus    = "status"
	LabelErrorType = "error_type"

	StatusSuccess = "success"
	StatusError   = "error"

	OpGenerate = "generate"
	OpShare    = "share"
	OpCombine  = "combine"
	OpVerify   = "verify"
	OpDerive   = "derive"

	// StrategyNone labels operations that have no generation strategy.
	StrategyNone = "none"
)

var (
	// OperationsTotal counts operations by type, strategy and status.
	OperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "operations_total",
			Help:      "Total number of ticket operations by type, strategy, and status",
		},
		[]string{LabelOperation, LabelStrategy, LabelStatus},
	)

	OperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "operation_duration_seconds",
			Help:      "Duration of ticket operations in seconds",
			Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1, 5, 10},
		},
		[]string{LabelOperation, LabelStrategy},
	)

	// ErrorsTotal counts failures by a short error class such as
	// "auxiliary_timeout" or "malformed_share".
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "errors_total",
			Help:      "Total number of errors by operation and error type",
		},
		[]string{LabelOperation, LabelErrorType},
	)

	AuxiliaryDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: "auxiliary",
			Name:      "collection_duration_seconds",
			Help:      "Time spent collecting auxiliary timing entropy",
			Buckets:   prometheus.ExponentialBuckets(.0001, 4, 10),
		},
	)

	SharesProduced = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "shares_produced_total",
			Help:      "Total number of shares produced by split operations",
		},
	)

	enabled atomic.Bool
)

func init() {
	enabled.Store(true)
}

// RecordOperation records one operation with its duration in seconds.
func RecordOperation(operation, strategy, status string, duration float64) {
	if !enabled.Load() {
		return
	}
	if strategy == "" {
		strategy = StrategyNone
	}
	OperationsTotal.WithLabelValues(operation, strategy, status).Inc()
	OperationDuration.WithLabelValues(operation, strategy).Observe(duration)
}

func RecordError(operation, errorType string) {
	if !enabled.Load() {
		return
	}
	ErrorsTotal.WithLabelValues(operation, errorType).Inc()
}

func RecordAuxiliary(duration float64) {
	if !enabled.Load() {
		return
	}
	AuxiliaryDuration.Observe(duration)
}

func RecordShares(n int) {
	if !enabled.Load() {
		return
	}
	SharesProduced.Add(float64(n))
}

func Enable() {
	enabled.Store(true)
}

// Disable stops recording. Useful for tests and for library callers that do
// not want process-wide collectors touched.
func Disable() {
	enabled.Store(false)
}

func IsEnabled() bool {
	return enabled.Load()
}

// WriteText writes every ticket metric family in the Prometheus text format.
func WriteText(w io.Writer) error {
	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		return fmt.Errorf("failed to gather metrics: %w", err)
	}

	for _, mf := range families {
		if !strings.HasPrefix(mf.GetName(), Namespace+"_") {
			continue
		}
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("failed to write metric %s: %w", mf.GetName(), err)
		}
	}
	return nil
}
