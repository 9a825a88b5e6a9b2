package config

import (
	"github.com/GoSim-25-26J-441/surrogate-core/pkg/models"
)

// Design strategies
const (
	StrategyCCD  = "ccd"
	StrategyLHS  = "lhs"
	StrategyGrid = "grid"
)

// Model variants
const (
	VariantPolynomial      = "polynomial"
	VariantGaussianProcess = "gaussian_process"
)

// Retry backoff shapes
const (
	BackoffExponential = "exponential"
	BackoffLinear      = "linear"
	BackoffConstant    = "constant"
)

// Constraint and objective senses
const (
	SenseLessEqual    = "le"
	SenseGreaterEqual = "ge"
	SenseMinimize     = "minimize"
	SenseMaximize     = "maximize"
)

// Config represents a complete surrogate study configuration
type Config struct {
	LogLevel     string            `yaml:"log_level"`
	Seed         int64             `yaml:"seed"`        // 0 or omitted selects DefaultSeed
	K            int               `yaml:"k,omitempty"` // optional cross-check against len(domain)
	Domain       []models.Variable `yaml:"domain"`
	Simulator    Simulator         `yaml:"simulator"`
	Design       Design            `yaml:"design"`
	Model        Model             `yaml:"model"`
	Validation   Validation        `yaml:"validation"`
	Optimization *Optimization     `yaml:"optimization,omitempty"`
	Metadata     map[string]string `yaml:"metadata,omitempty"`
}

// Simulator selects the oracle behind the simulator adapter
type Simulator struct {
	Oracle       string  `yaml:"oracle"`
	NoiseStdDev  float64 `yaml:"noise_std_dev"`
	StrictDomain *bool   `yaml:"strict_domain,omitempty"`
	Retry        *Retry  `yaml:"retry,omitempty"`
}

// Retry re-invokes the oracle after a failed call. Every attempt counts
// against the simulator call budget.
type Retry struct {
	MaxRetries int    `yaml:"max_retries"`
	Backoff    string `yaml:"backoff"` // exponential, linear, constant
	BaseMs     int    `yaml:"base_ms"`
}

// Design configures the experimental design
type Design struct {
	Strategy         string  `yaml:"strategy"` // ccd or lhs
	CCDAlpha         float64 `yaml:"ccd_alpha"`
	CenterReplicates int     `yaml:"center_replicates"`
	LHSSamples       int     `yaml:"lhs_samples"`
}

// Model configures the surrogate model
type Model struct {
	Variant          string  `yaml:"variant"` // polynomial or gaussian_process
	PolynomialDegree int     `yaml:"polynomial_degree"`
	KernelRestarts   int     `yaml:"kernel_restarts"`
	Noise            float64 `yaml:"noise"`
	Jitter           float64 `yaml:"jitter"`
	MaxIterations    int     `yaml:"max_iterations"`
}

// Validation configures model validation and the quality gate
type Validation struct {
	CVFolds     int     `yaml:"cv_folds"`
	TestSamples int     `yaml:"test_samples"`
	MinR2       float64 `yaml:"min_r2"` // 0 disables the gate
}

// Optimization configures the surrogate search and verification
type Optimization struct {
	Enabled             bool               `yaml:"enabled"`
	CandidateCount      int                `yaml:"candidate_count"`
	CandidateStrategy   string             `yaml:"candidate_strategy"` // lhs or grid
	ConstraintThreshold float64            `yaml:"constraint_threshold"`
	ConstraintSense     string             `yaml:"constraint_sense"` // le or ge
	ObjectiveVariable   int                `yaml:"objective_variable"`
	ObjectiveSense      string             `yaml:"objective_sense"` // minimize or maximize
	FreeVariables       []int              `yaml:"free_variables"`
	FixedValues         map[string]float64 `yaml:"fixed_values,omitempty"`
	ConfidenceZ         float64            `yaml:"confidence_z"`
	Parallelism         int                `yaml:"parallelism"`
}

// DomainModel returns the configured domain as a models.Domain
func (c *Config) DomainModel() models.Domain {
	return models.NewDomain(c.Domain...)
}

// Strict reports whether the simulator adapter rejects out-of-domain points
func (s Simulator) Strict() bool {
	if s.StrictDomain == nil {
		return true
	}
	return *s.StrictDomain
}

// FixedVector returns the full k-vector used for non-free variables:
// the configured fixed value where present, the domain midpoint otherwise
func (o *Optimization) FixedVector(d models.Domain) []float64 {
	x := d.Mid()
	for name, v := range o.FixedValues {
		if idx := d.Index(name); idx >= 0 {
			x[idx] = v
		}
	}
	return x
}
