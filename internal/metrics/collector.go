package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector holds the Prometheus instruments for one registry.
// All methods are safe on a nil *Collector so components can run without metrics.
type Collector struct {
	simulatorCalls      *prometheus.CounterVec
	simulatorFailures   *prometheus.CounterVec
	simulatorDuration   *prometheus.HistogramVec
	fitDuration         *prometheus.HistogramVec
	fitFailures         *prometheus.CounterVec
	kernelFitWarnings   prometheus.Counter
	candidatesEvaluated prometheus.Counter
	optimizations       *prometheus.CounterVec
	validationR2        *prometheus.GaugeVec
	studies             *prometheus.CounterVec
}

// NewCollector registers the instruments on reg
func NewCollector(reg prometheus.Registerer) *Collector {
	f := promauto.With(reg)
	return &Collector{
		simulatorCalls: f.NewCounterVec(prometheus.CounterOpts{
			Name: MetricSimulatorCalls,
			Help: "Real simulator invocations by oracle",
		}, []string{"oracle"}),
		simulatorFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: MetricSimulatorFailures,
			Help: "Simulator invocations that returned an error",
		}, []string{"oracle"}),
		simulatorDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    MetricSimulatorDuration,
			Help:    "Simulator invocation duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.00001, 4, 12),
		}, []string{"oracle"}),
		fitDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    MetricFitDuration,
			Help:    "Surrogate fit duration in seconds by variant",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
		}, []string{"variant"}),
		fitFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: MetricFitFailures,
			Help: "Surrogate fits that failed by variant",
		}, []string{"variant"}),
		kernelFitWarnings: f.NewCounter(prometheus.CounterOpts{
			Name: MetricKernelFitWarnings,
			Help: "Kriging hyperparameter restarts that did not converge",
		}),
		candidatesEvaluated: f.NewCounter(prometheus.CounterOpts{
			Name: MetricCandidatesEvaluated,
			Help: "Optimizer candidates evaluated on the surrogate",
		}),
		optimizations: f.NewCounterVec(prometheus.CounterOpts{
			Name: MetricOptimizations,
			Help: "Optimizer runs by outcome",
		}, []string{"outcome"}),
		validationR2: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: MetricValidationR2,
			Help: "Most recent validation R2 by variant and kind (test or cv)",
		}, []string{"variant", "kind"}),
		studies: f.NewCounterVec(prometheus.CounterOpts{
			Name: MetricStudies,
			Help: "Studies finished by status",
		}, []string{"status"}),
	}
}

// ObserveSimulatorCall records one oracle invocation
func (c *Collector) ObserveSimulatorCall(oracle string, d time.Duration, err error) {
	if c == nil {
		return
	}
	c.simulatorCalls.WithLabelValues(oracle).Inc()
	c.simulatorDuration.WithLabelValues(oracle).Observe(d.Seconds())
	if err != nil {
		c.simulatorFailures.WithLabelValues(oracle).Inc()
	}
}

// ObserveFit records a surrogate fit
func (c *Collector) ObserveFit(variant string, d time.Duration, err error) {
	if c == nil {
		return
	}
	c.fitDuration.WithLabelValues(variant).Observe(d.Seconds())
	if err != nil {
		c.fitFailures.WithLabelValues(variant).Inc()
	}
}

// AddKernelFitWarnings counts non-converged kernel restarts
func (c *Collector) AddKernelFitWarnings(n int) {
	if c == nil || n <= 0 {
		return
	}
	c.kernelFitWarnings.Add(float64(n))
}

// AddCandidates counts surrogate-only candidate evaluations
func (c *Collector) AddCandidates(n int) {
	if c == nil || n <= 0 {
		return
	}
	c.candidatesEvaluated.Add(float64(n))
}

// ObserveOptimization records an optimizer outcome
func (c *Collector) ObserveOptimization(outcome string) {
	if c == nil {
		return
	}
	c.optimizations.WithLabelValues(outcome).Inc()
}

// SetValidationR2 publishes the latest validation score
func (c *Collector) SetValidationR2(variant, kind string, r2 float64) {
	if c == nil {
		return
	}
	c.validationR2.WithLabelValues(variant, kind).Set(r2)
}

// ObserveStudy records a finished study
func (c *Collector) ObserveStudy(status string) {
	if c == nil {
		return
	}
	c.studies.WithLabelValues(status).Inc()
}
