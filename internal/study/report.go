package study

import (
	"encoding/json"
	"math"
	"time"

	"github.com/GoSim-25-26J-441/surrogate-core/internal/improvement"
	"github.com/GoSim-25-26J-441/surrogate-core/internal/surrogate"
	"github.com/GoSim-25-26J-441/surrogate-core/internal/validation"
	"github.com/GoSim-25-26J-441/surrogate-core/pkg/models"
)

// Report is the outcome of one study
type Report struct {
	StudyID           string                          `json:"study_id" yaml:"study_id"`
	Oracle            string                          `json:"oracle" yaml:"oracle"`
	Domain            []models.Variable               `json:"domain" yaml:"domain"`
	Design            DesignSummary                   `json:"design" yaml:"design"`
	Model             surrogate.Summary               `json:"model" yaml:"model"`
	Validation        *validation.Report              `json:"validation,omitempty" yaml:"validation,omitempty"`
	QualityGate       *GateResult                     `json:"quality_gate,omitempty" yaml:"quality_gate,omitempty"`
	Optimization      *improvement.OptimizationResult `json:"optimization,omitempty" yaml:"optimization,omitempty"`
	OptimizationError string                          `json:"optimization_error,omitempty" yaml:"optimization_error,omitempty"`
	SimulatorCalls    int64                           `json:"simulator_calls" yaml:"simulator_calls"`
	Warnings          []string                        `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	StartedAt         time.Time                       `json:"started_at" yaml:"started_at"`
	FinishedAt        time.Time                       `json:"finished_at" yaml:"finished_at"`
	Duration          string                          `json:"duration" yaml:"duration"`
}

// DesignSummary describes the training design
type DesignSummary struct {
	Strategy string         `json:"strategy" yaml:"strategy"`
	Points   int            `json:"points" yaml:"points"`
	Roles    map[string]int `json:"roles" yaml:"roles"`
}

// GateResult records the quality gate decision
type GateResult struct {
	MinR2  float64 `json:"min_r2" yaml:"min_r2"`
	R2     float64 `json:"r2" yaml:"r2"`
	Kind   string  `json:"kind" yaml:"kind"`
	Passed bool    `json:"passed" yaml:"passed"`
}

// MarshalJSON writes an undefined R2 as null
func (g GateResult) MarshalJSON() ([]byte, error) {
	type plain GateResult
	out := struct {
		plain
		R2 *float64 `json:"r2"`
	}{plain: plain(g)}
	if !math.IsNaN(g.R2) {
		out.R2 = &g.R2
	}
	return json.Marshal(out)
}
