package config

import (
	"strings"
	"testing"
)

func TestParseConfigYAMLString(t *testing.T) {
	yamlText := `
seed: 11
domain:
  - {name: x, low: 0, high: 2}
design:
  strategy: LHS
  lhs_samples: 12
model:
  variant: gaussian_process
optimization:
  enabled: true
  objective_variable: 0
  constraint_threshold: 1.5
`

	cfg, err := ParseConfigYAMLString(yamlText)
	if err != nil {
		t.Fatalf("ParseConfigYAMLString failed: %v", err)
	}
	if cfg.Seed != 11 {
		t.Fatalf("expected seed 11, got %d", cfg.Seed)
	}
	if cfg.Design.Strategy != StrategyLHS {
		t.Fatalf("expected strategy to be lower-cased to lhs, got %q", cfg.Design.Strategy)
	}
	o := cfg.Optimization
	if o.CandidateStrategy != StrategyLHS || o.ConstraintSense != SenseLessEqual || o.ObjectiveSense != SenseMinimize {
		t.Fatalf("unexpected optimization defaults: %+v", o)
	}
	if len(o.FreeVariables) != 1 || o.FreeVariables[0] != 0 {
		t.Fatalf("expected free variables to default to the objective variable, got %v", o.FreeVariables)
	}
}

func TestParseConfigJSON(t *testing.T) {
	jsonText := `{"domain": [{"name": "x", "low": 0, "high": 1}], "model": {"variant": "polynomial", "polynomial_degree": 1}}`

	cfg, err := ParseConfigYAMLString(jsonText)
	if err != nil {
		t.Fatalf("JSON payload should parse: %v", err)
	}
	if cfg.Model.PolynomialDegree != 1 {
		t.Fatalf("expected degree 1, got %d", cfg.Model.PolynomialDegree)
	}
}

func TestParseConfigYAMLStringInvalid(t *testing.T) {
	tests := []struct {
		name     string
		yamlText string
	}{
		{name: "Malformed YAML", yamlText: "domain: [unclosed"},
		{name: "Missing domain", yamlText: "seed: 1"},
		{name: "Inverted bounds", yamlText: "domain:\n  - {name: x, low: 1, high: 0}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseConfigYAMLString(tt.yamlText); err == nil {
				t.Fatalf("expected error for %s", tt.name)
			}
		})
	}
}

func TestMarshalYAMLRoundTrip(t *testing.T) {
	cfg, err := ParseConfigYAMLString("domain:\n  - {name: x, low: 0, high: 1}\n")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	out, err := MarshalYAML(cfg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(out), "variant: polynomial") {
		t.Fatalf("expected defaults in rendered yaml, got:\n%s", out)
	}

	again, err := ParseConfigYAML(out)
	if err != nil {
		t.Fatalf("re-parse: %v", err)
	}
	if again.Model.Variant != cfg.Model.Variant || again.Design.CCDAlpha != cfg.Design.CCDAlpha {
		t.Fatalf("round trip changed config: %+v vs %+v", again, cfg)
	}
}
