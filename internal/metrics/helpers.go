package metrics

// Metric names
const (
	MetricSimulatorCalls      = "surrogate_simulator_calls_total"
	MetricSimulatorFailures   = "surrogate_simulator_failures_total"
	MetricSimulatorDuration   = "surrogate_simulator_call_duration_seconds"
	MetricFitDuration         = "surrogate_fit_duration_seconds"
	MetricFitFailures         = "surrogate_fit_failures_total"
	MetricKernelFitWarnings   = "surrogate_kernel_fit_warnings_total"
	MetricCandidatesEvaluated = "surrogate_optimizer_candidates_total"
	MetricOptimizations       = "surrogate_optimizations_total"
	MetricValidationR2        = "surrogate_validation_r2"
	MetricStudies             = "surrogate_studies_total"
)

// Optimizer outcomes
const (
	OutcomeVerified   = "verified"
	OutcomeInfeasible = "infeasible"
	OutcomeFailed     = "failed"
)
