// Command surrogatectl runs surrogate studies from a YAML configuration
// without starting the service.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/GoSim-25-26J-441/surrogate-core/internal/improvement"
	"github.com/GoSim-25-26J-441/surrogate-core/internal/study"
)

// Exit codes
const (
	exitSuccess  = 0 // study completed
	exitFindings = 1 // study ran but the gate failed or no design was feasible
	exitError    = 2 // configuration, simulator or fitting error
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	err := cmd.Execute()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
	}
	return exitCode(err)
}

func exitCode(err error) int {
	if err == nil {
		return exitSuccess
	}
	var gate *study.QualityGateError
	var infeasible *improvement.NoFeasibleDesignError
	if errors.As(err, &gate) || errors.As(err, &infeasible) {
		return exitFindings
	}
	return exitError
}
