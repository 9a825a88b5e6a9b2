package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/GoSim-25-26J-441/surrogate-core/pkg/models"
)

// Defaults applied to omitted fields
const (
	DefaultLogLevel         = "info"
	DefaultSeed             = 42
	DefaultOracle           = "wall_conduction"
	DefaultCCDAlpha         = 1.0
	DefaultCenterReplicates = 1
	DefaultPolynomialDegree = 2
	DefaultKernelRestarts   = 5
	DefaultKernelNoise      = 1e-6
	DefaultKernelJitter     = 1e-10
	DefaultKernelIterations = 400
	DefaultCVFolds          = 5
	DefaultCandidateCount   = 1000
	DefaultParallelism      = 1
	DefaultRetryBackoff     = BackoffExponential
	maxPolynomialDegree     = 4
	maxRetries              = 10
	maxCCDVariables         = 10
	minLHSSamples           = 2
)

// LoadConfig loads, defaults and validates a configuration file
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	cfg, err := ParseConfigYAML(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyDefaults fills omitted fields in place
func ApplyDefaults(cfg *Config) {
	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultLogLevel
	}
	if cfg.Seed == 0 {
		cfg.Seed = DefaultSeed
	}
	if cfg.Simulator.Oracle == "" {
		cfg.Simulator.Oracle = DefaultOracle
	}
	if r := cfg.Simulator.Retry; r != nil {
		r.Backoff = strings.ToLower(r.Backoff)
		if r.Backoff == "" {
			r.Backoff = DefaultRetryBackoff
		}
	}

	d := &cfg.Design
	d.Strategy = strings.ToLower(d.Strategy)
	if d.Strategy == "" {
		d.Strategy = StrategyCCD
	}
	if d.CCDAlpha == 0 {
		d.CCDAlpha = DefaultCCDAlpha
	}
	if d.CenterReplicates == 0 {
		d.CenterReplicates = DefaultCenterReplicates
	}
	if d.LHSSamples == 0 {
		d.LHSSamples = 10 * len(cfg.Domain)
	}

	m := &cfg.Model
	m.Variant = strings.ToLower(m.Variant)
	if m.Variant == "" {
		m.Variant = VariantPolynomial
	}
	if m.PolynomialDegree == 0 {
		m.PolynomialDegree = DefaultPolynomialDegree
	}
	if m.KernelRestarts == 0 {
		m.KernelRestarts = DefaultKernelRestarts
	}
	if m.Noise == 0 {
		m.Noise = DefaultKernelNoise
	}
	if m.Jitter == 0 {
		m.Jitter = DefaultKernelJitter
	}
	if m.MaxIterations == 0 {
		m.MaxIterations = DefaultKernelIterations
	}

	if cfg.Validation.CVFolds == 0 {
		cfg.Validation.CVFolds = DefaultCVFolds
	}

	if o := cfg.Optimization; o != nil {
		if o.CandidateCount == 0 {
			o.CandidateCount = DefaultCandidateCount
		}
		o.CandidateStrategy = strings.ToLower(o.CandidateStrategy)
		if o.CandidateStrategy == "" {
			o.CandidateStrategy = StrategyLHS
		}
		o.ConstraintSense = strings.ToLower(o.ConstraintSense)
		if o.ConstraintSense == "" {
			o.ConstraintSense = SenseLessEqual
		}
		o.ObjectiveSense = strings.ToLower(o.ObjectiveSense)
		if o.ObjectiveSense == "" {
			o.ObjectiveSense = SenseMinimize
		}
		if len(o.FreeVariables) == 0 {
			o.FreeVariables = []int{o.ObjectiveVariable}
		}
		if o.Parallelism == 0 {
			o.Parallelism = DefaultParallelism
		}
	}
}

// Validate performs validation on a defaulted configuration
func Validate(cfg *Config) error {
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[cfg.LogLevel] {
		return fmt.Errorf("invalid log_level: %s (must be debug, info, warn, or error)", cfg.LogLevel)
	}

	domain := cfg.DomainModel()
	if err := domain.Validate(); err != nil {
		return fmt.Errorf("domain validation failed: %w", err)
	}
	if cfg.K != 0 && cfg.K != domain.Dim() {
		return fmt.Errorf("k = %d does not match %d domain variables", cfg.K, domain.Dim())
	}

	if cfg.Simulator.NoiseStdDev < 0 {
		return fmt.Errorf("simulator: noise_std_dev cannot be negative, got %g", cfg.Simulator.NoiseStdDev)
	}
	if r := cfg.Simulator.Retry; r != nil {
		if err := validateRetry(r); err != nil {
			return fmt.Errorf("simulator: %w", err)
		}
	}

	if err := validateDesign(&cfg.Design, domain.Dim()); err != nil {
		return fmt.Errorf("design validation failed: %w", err)
	}
	if err := validateModel(&cfg.Model); err != nil {
		return fmt.Errorf("model validation failed: %w", err)
	}
	if err := validateValidation(&cfg.Validation); err != nil {
		return fmt.Errorf("validation config failed: %w", err)
	}
	if cfg.Optimization != nil {
		if err := validateOptimization(cfg.Optimization, domain); err != nil {
			return fmt.Errorf("optimization validation failed: %w", err)
		}
	}

	return nil
}

// validateRetry validates the oracle retry policy
func validateRetry(r *Retry) error {
	if r.MaxRetries < 0 || r.MaxRetries > maxRetries {
		return fmt.Errorf("retry.max_retries must be between 0 and %d, got %d", maxRetries, r.MaxRetries)
	}
	switch r.Backoff {
	case BackoffExponential, BackoffLinear, BackoffConstant:
	default:
		return fmt.Errorf("invalid retry.backoff: %s (must be exponential, linear or constant)", r.Backoff)
	}
	if r.BaseMs < 0 {
		return fmt.Errorf("retry.base_ms cannot be negative, got %d", r.BaseMs)
	}
	return nil
}

// validateDesign validates the experimental design settings.
// Axial distances beyond the coded cube would place points outside the domain,
// so alpha > 1 is rejected rather than clamped.
func validateDesign(d *Design, k int) error {
	switch d.Strategy {
	case StrategyCCD:
		if d.CCDAlpha <= 0 || d.CCDAlpha > 1 {
			return fmt.Errorf("ccd_alpha must be in (0, 1], got %g", d.CCDAlpha)
		}
		if d.CenterReplicates < 1 {
			return fmt.Errorf("center_replicates must be at least 1, got %d", d.CenterReplicates)
		}
		if k > maxCCDVariables {
			return fmt.Errorf("ccd supports at most %d variables, got %d", maxCCDVariables, k)
		}
	case StrategyLHS:
		if d.LHSSamples < minLHSSamples {
			return fmt.Errorf("lhs_samples must be at least %d, got %d", minLHSSamples, d.LHSSamples)
		}
	default:
		return fmt.Errorf("invalid strategy: %s (must be ccd or lhs)", d.Strategy)
	}
	return nil
}

// validateModel validates the surrogate model settings
func validateModel(m *Model) error {
	switch m.Variant {
	case VariantPolynomial:
		if m.PolynomialDegree < 1 || m.PolynomialDegree > maxPolynomialDegree {
			return fmt.Errorf("polynomial_degree must be between 1 and %d, got %d", maxPolynomialDegree, m.PolynomialDegree)
		}
	case VariantGaussianProcess:
		if m.KernelRestarts < 1 {
			return fmt.Errorf("kernel_restarts must be at least 1, got %d", m.KernelRestarts)
		}
		if m.Noise < 0 {
			return fmt.Errorf("noise cannot be negative, got %g", m.Noise)
		}
		if m.Jitter < 0 {
			return fmt.Errorf("jitter cannot be negative, got %g", m.Jitter)
		}
		if m.MaxIterations < 1 {
			return fmt.Errorf("max_iterations must be positive, got %d", m.MaxIterations)
		}
	default:
		return fmt.Errorf("invalid variant: %s (must be polynomial or gaussian_process)", m.Variant)
	}
	return nil
}

// validateValidation validates cross-validation and test-set settings
func validateValidation(v *Validation) error {
	if v.CVFolds < 2 {
		return fmt.Errorf("cv_folds must be at least 2, got %d", v.CVFolds)
	}
	if v.TestSamples < 0 {
		return fmt.Errorf("test_samples cannot be negative, got %d", v.TestSamples)
	}
	if v.TestSamples == 1 {
		return fmt.Errorf("test_samples must be 0 (disabled) or at least 2")
	}
	if v.MinR2 > 1 {
		return fmt.Errorf("min_r2 cannot exceed 1, got %g", v.MinR2)
	}
	return nil
}

// validateOptimization validates the surrogate search settings
func validateOptimization(o *Optimization, d models.Domain) error {
	k := d.Dim()
	if o.CandidateCount < 1 {
		return fmt.Errorf("candidate_count must be positive, got %d", o.CandidateCount)
	}
	if o.CandidateStrategy != StrategyLHS && o.CandidateStrategy != StrategyGrid {
		return fmt.Errorf("invalid candidate_strategy: %s (must be lhs or grid)", o.CandidateStrategy)
	}
	if o.ConstraintSense != SenseLessEqual && o.ConstraintSense != SenseGreaterEqual {
		return fmt.Errorf("invalid constraint_sense: %s (must be le or ge)", o.ConstraintSense)
	}
	if o.ObjectiveSense != SenseMinimize && o.ObjectiveSense != SenseMaximize {
		return fmt.Errorf("invalid objective_sense: %s (must be minimize or maximize)", o.ObjectiveSense)
	}
	if o.ObjectiveVariable < 0 || o.ObjectiveVariable >= k {
		return fmt.Errorf("objective_variable %d out of range [0, %d)", o.ObjectiveVariable, k)
	}

	free := make(map[int]bool, len(o.FreeVariables))
	for _, idx := range o.FreeVariables {
		if idx < 0 || idx >= k {
			return fmt.Errorf("free variable %d out of range [0, %d)", idx, k)
		}
		if free[idx] {
			return fmt.Errorf("duplicate free variable: %d", idx)
		}
		free[idx] = true
	}
	if !free[o.ObjectiveVariable] {
		return fmt.Errorf("objective_variable %d must be one of the free variables", o.ObjectiveVariable)
	}

	for name, v := range o.FixedValues {
		idx := d.Index(name)
		if idx < 0 {
			return fmt.Errorf("fixed value for unknown variable: %s", name)
		}
		if free[idx] {
			return fmt.Errorf("variable %s is both free and fixed", name)
		}
		vr := d.Variables[idx]
		if v < vr.Low || v > vr.High {
			return fmt.Errorf("fixed value %s = %g outside [%g, %g]", name, v, vr.Low, vr.High)
		}
	}

	if o.ConfidenceZ < 0 {
		return fmt.Errorf("confidence_z cannot be negative, got %g", o.ConfidenceZ)
	}
	if o.Parallelism < 1 {
		return fmt.Errorf("parallelism must be at least 1, got %d", o.Parallelism)
	}
	return nil
}
