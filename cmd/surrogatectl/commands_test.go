package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const wallStudyYAML = `
log_level: error
seed: 7
domain:
  - {name: k, low: 10, high: 400}
  - {name: q, low: 1000, high: 10000}
  - {name: L, low: 0.1, high: 1.0}
simulator:
  oracle: wall_conduction
design:
  strategy: ccd
  ccd_alpha: 1
  center_replicates: 6
model:
  variant: polynomial
  polynomial_degree: 2
validation:
  cv_folds: 5
optimization:
  enabled: true
  candidate_count: 200
  constraint_threshold: %THRESHOLD%
  constraint_sense: ge
  objective_variable: 2
  objective_sense: minimize
  free_variables: [2]
`

func writeConfig(t *testing.T, text string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "study.yaml")
	require.NoError(t, os.WriteFile(path, []byte(text), 0o600))
	return path
}

func wallConfig(t *testing.T, threshold string) string {
	return writeConfig(t, strings.ReplaceAll(wallStudyYAML, "%THRESHOLD%", threshold))
}

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRunPrintsReport(t *testing.T) {
	path := wallConfig(t, "10")
	code, out, errOut := runCLI(t, "run", "--config", path, "--output", "json")
	require.Equal(t, exitSuccess, code, errOut)

	var report map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, 21.0, report["simulator_calls"])
	assert.Equal(t, "wall_conduction", report["oracle"])
	opt := report["optimization"].(map[string]any)
	assert.Equal(t, true, opt["verified_feasible"])
	assert.Greater(t, opt["feasible"].(float64), 0.0)
}

func TestRunInfeasibleStillPrintsPartialReport(t *testing.T) {
	path := wallConfig(t, "1e6")
	code, out, errOut := runCLI(t, "run", "-c", path)
	assert.Equal(t, exitFindings, code)
	assert.Contains(t, errOut, "no feasible design")

	var report map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(out), &report))
	assert.Equal(t, 20, report["simulator_calls"])
	assert.NotEmpty(t, report["optimization_error"])
}

func TestDesignPrintsPointsWithoutSimulating(t *testing.T) {
	path := wallConfig(t, "10")
	code, out, errOut := runCLI(t, "design", "--config", path, "-o", "json")
	require.Equal(t, exitSuccess, code, errOut)

	var got struct {
		Strategy string      `json:"strategy"`
		Points   []designRow `json:"points"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "ccd", got.Strategy)
	require.Len(t, got.Points, 20)

	roles := map[string]int{}
	for _, p := range got.Points {
		roles[p.Role]++
		assert.GreaterOrEqual(t, p.X["L"], 0.1)
		assert.LessOrEqual(t, p.X["L"], 1.0)
	}
	assert.Equal(t, map[string]int{"factorial": 8, "axial": 6, "center": 6}, roles)
}

func TestDesignTableOutput(t *testing.T) {
	path := wallConfig(t, "10")
	code, out, _ := runCLI(t, "design", "--config", path, "-o", "table")
	require.Equal(t, exitSuccess, code)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 21)
	assert.Equal(t, []string{"#", "role", "k", "q", "L"}, strings.Fields(lines[0]))
}

func TestCheckReportsUndersizedDesign(t *testing.T) {
	path := wallConfig(t, "10")
	code, out, errOut := runCLI(t, "check", "--config", path)
	require.Equal(t, exitSuccess, code, errOut)

	var res map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(out), &res))
	assert.Equal(t, true, res["valid"])
	assert.Equal(t, 20, res["design_points"])
	assert.Equal(t, 10, res["model_terms"])

	small := strings.ReplaceAll(strings.ReplaceAll(wallStudyYAML, "%THRESHOLD%", "10"),
		"polynomial_degree: 2", "polynomial_degree: 3")
	small = strings.ReplaceAll(small, "center_replicates: 6", "center_replicates: 1")
	code, out, _ = runCLI(t, "check", "--config", writeConfig(t, small), "-o", "json")
	assert.Equal(t, exitError, code)

	var bad checkResult
	require.NoError(t, json.Unmarshal([]byte(out), &bad))
	assert.False(t, bad.Valid)
	assert.Equal(t, 15, bad.DesignPoints)
	assert.Equal(t, 20, bad.ModelTerms)
	require.Len(t, bad.Warnings, 1)
}

func TestOraclesLists(t *testing.T) {
	code, out, _ := runCLI(t, "oracles", "-o", "json")
	require.Equal(t, exitSuccess, code)

	var got []struct {
		Name string `json:"name"`
		Dim  int    `json:"dim"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got, 4)
	assert.Equal(t, "branin", got[0].Name)
	assert.Equal(t, 2, got[0].Dim)
}

func TestCLIErrors(t *testing.T) {
	path := wallConfig(t, "10")
	tests := []struct {
		name string
		args []string
	}{
		{"missing config flag", []string{"run"}},
		{"missing file", []string{"run", "--config", filepath.Join(t.TempDir(), "nope.yaml")}},
		{"invalid config", []string{"check", "--config", writeConfig(t, "domain: []\n")}},
		{"unknown format", []string{"run", "--config", path, "-o", "xml"}},
		{"unknown command", []string{"frobnicate"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, errOut := runCLI(t, tt.args...)
			assert.Equal(t, exitError, code)
			assert.Contains(t, errOut, "Error:")
		})
	}
}
