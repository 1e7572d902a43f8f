// Package metrics exposes Prometheus metrics for the leak-off calculation
// service. Labels are limited to small closed sets (outcome, error kind,
// section count, fluid); valve drawings and calculation IDs never appear.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/SKB-CADDep/Balance-plus/pkg/types"
)

const namespace = "leakoff"

var (
	// CalculationsTotal counts calculations by outcome (ok, error, cached).
	CalculationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "calculations_total",
		Help:      "Total number of leak-off calculations, by outcome.",
	}, []string{"outcome"})

	// CalculationErrorsTotal counts failed calculations by error kind.
	CalculationErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "calculation_errors_total",
		Help:      "Total number of failed calculations, by error kind.",
	}, []string{"kind"})

	// CalculationDuration observes wall time of one calculation.
	CalculationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "calculation_duration_seconds",
		Help:      "Duration of leak-off calculations, by section count.",
		Buckets:   []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1},
	}, []string{"sections"})

	// SolverIterations observes bisection iterations per section.
	SolverIterations = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "solver_iterations",
		Help:      "Bisection iterations needed per section, by fluid.",
		Buckets:   []float64{5, 10, 15, 20, 25, 50, 100, 1000},
	}, []string{"fluid"})

	// SolverFlagsTotal counts sections where the solver applied a correction.
	SolverFlagsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "solver_flags_total",
		Help:      "Sections solved with a pressure nudge, terminal floor or iteration cap, by flag.",
	}, []string{"flag"})

	// StoredResults tracks the number of records in the result store.
	StoredResults = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "stored_results",
		Help:      "Current number of stored calculation records.",
	})

	// CacheRequestsTotal counts result cache lookups by result (hit, miss).
	CacheRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cache_requests_total",
		Help:      "Result cache lookups, by result.",
	}, []string{"result"})
)

// RecordSuccess records a finished calculation and its per-section solver
// diagnostics.
func RecordSuccess(sections int, elapsed time.Duration, diags []types.SectionDiagnostics) {
	CalculationsTotal.WithLabelValues("ok").Inc()
	CalculationDuration.WithLabelValues(sectionLabel(sections)).Observe(elapsed.Seconds())
	for _, d := range diags {
		SolverIterations.WithLabelValues(d.Fluid).Observe(float64(d.Iterations))
		if d.Nudged {
			SolverFlagsTotal.WithLabelValues("nudged").Inc()
		}
		if d.FloorApplied {
			SolverFlagsTotal.WithLabelValues("terminal_floor").Inc()
		}
		if d.IterationCap {
			SolverFlagsTotal.WithLabelValues("iteration_cap").Inc()
		}
	}
}

// RecordFailure records a rejected or failed calculation.
func RecordFailure(kind string) {
	CalculationsTotal.WithLabelValues("error").Inc()
	CalculationErrorsTotal.WithLabelValues(kind).Inc()
}

// RecordCacheLookup records a cache hit or miss. A hit also counts as a
// cached calculation.
func RecordCacheLookup(hit bool) {
	if hit {
		CacheRequestsTotal.WithLabelValues("hit").Inc()
		CalculationsTotal.WithLabelValues("cached").Inc()
		return
	}
	CacheRequestsTotal.WithLabelValues("miss").Inc()
}

// SetStoredResults updates the stored-records gauge.
func SetStoredResults(n int) { StoredResults.Set(float64(n)) }

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler { return promhttp.Handler() }

func sectionLabel(n int) string {
	if n >= 2 && n <= 5 {
		return string(rune('0' + n))
	}
	return "other"
}
