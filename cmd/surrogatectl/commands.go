package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/GoSim-25-26J-441/surrogate-core/internal/design"
	"github.com/GoSim-25-26J-441/surrogate-core/internal/simulator"
	"github.com/GoSim-25-26J-441/surrogate-core/internal/study"
	"github.com/GoSim-25-26J-441/surrogate-core/pkg/config"
	"github.com/GoSim-25-26J-441/surrogate-core/pkg/logger"
	"github.com/GoSim-25-26J-441/surrogate-core/pkg/utils"
)

// Output formats
const (
	formatJSON  = "json"
	formatYAML  = "yaml"
	formatTable = "table"
)

type options struct {
	configPath string
	output     string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "surrogatectl",
		Short:         "Run and inspect surrogate studies",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "study configuration file (YAML)")
	root.PersistentFlags().StringVarP(&opts.output, "output", "o", formatYAML, "output format (json, yaml; design also accepts table)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level override (debug, info, warn, error)")

	root.AddCommand(
		newRunCmd(opts),
		newDesignCmd(opts),
		newCheckCmd(opts),
		newOraclesCmd(opts),
	)
	return root
}

func (o *options) load(cmd *cobra.Command) (*config.Config, error) {
	if o.configPath == "" {
		return nil, fmt.Errorf("--config is required")
	}
	cfg, err := config.LoadConfig(o.configPath)
	if err != nil {
		return nil, err
	}
	level := cfg.LogLevel
	if o.logLevel != "" {
		level = o.logLevel
	}
	logger.SetDefault(logger.NewText(level, cmd.ErrOrStderr()))
	return cfg, nil
}

func newRunCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run a study: design, simulate, fit, validate and optimise",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load(cmd)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			runner, err := study.NewRunner(cfg, study.WithLogger(logger.Default))
			if err != nil {
				return err
			}
			report, runErr := runner.Run(ctx)
			if report != nil {
				if err := writeOutput(cmd.OutOrStdout(), opts.output, report); err != nil {
					return err
				}
			}
			return runErr
		},
	}
}

// designRow is one printed design point
type designRow struct {
	Index int                `json:"index" yaml:"index"`
	Role  string             `json:"role" yaml:"role"`
	X     map[string]float64 `json:"x" yaml:"x"`
}

func newDesignCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "design",
		Short: "Print the experimental design without calling the simulator",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load(cmd)
			if err != nil {
				return err
			}
			domain := cfg.DomainModel()
			rng := utils.NewRandSource(cfg.Seed)
			gen, err := design.New(cfg.Design, rng.Child())
			if err != nil {
				return err
			}
			points, err := gen.Generate(domain)
			if err != nil {
				return err
			}

			names := domain.Names()
			if opts.output == formatTable {
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintf(tw, "#\trole\t%s\n", strings.Join(names, "\t"))
				for i, p := range points {
					cells := make([]string, p.Dim())
					for j := range cells {
						cells[j] = fmt.Sprintf("%.6g", p.At(j))
					}
					fmt.Fprintf(tw, "%d\t%s\t%s\n", i, p.Role(), strings.Join(cells, "\t"))
				}
				return tw.Flush()
			}

			rows := make([]designRow, len(points))
			for i, p := range points {
				x := make(map[string]float64, len(names))
				for j, n := range names {
					x[n] = p.At(j)
				}
				rows[i] = designRow{Index: i, Role: string(p.Role()), X: x}
			}
			return writeOutput(cmd.OutOrStdout(), opts.output, map[string]any{
				"strategy": gen.Name(),
				"points":   rows,
			})
		},
	}
}

// checkResult summarises a configuration without running it
type checkResult struct {
	Valid        bool           `json:"valid" yaml:"valid"`
	Oracle       string         `json:"oracle" yaml:"oracle"`
	Variables    int            `json:"variables" yaml:"variables"`
	DesignPoints int            `json:"design_points" yaml:"design_points"`
	ModelTerms   int            `json:"model_terms,omitempty" yaml:"model_terms,omitempty"`
	Warnings     []string       `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	Config       *config.Config `json:"-" yaml:"config"`
}

func newCheckCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate a configuration and print it with defaults applied",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load(cmd)
			if err != nil {
				return err
			}
			k := len(cfg.Domain)
			spec, err := simulator.Lookup(cfg.Simulator.Oracle)
			if err != nil {
				return err
			}
			if err := spec.CheckDim(k); err != nil {
				return err
			}

			res := checkResult{Valid: true, Oracle: spec.Name, Variables: k, Config: cfg}
			res.DesignPoints = designSize(cfg.Design, k)
			if cfg.Model.Variant == config.VariantPolynomial {
				res.ModelTerms = design.TermCount(k, cfg.Model.PolynomialDegree)
				if res.DesignPoints < res.ModelTerms {
					res.Valid = false
					res.Warnings = append(res.Warnings, fmt.Sprintf(
						"design has %d points but a degree-%d polynomial needs at least %d",
						res.DesignPoints, cfg.Model.PolynomialDegree, res.ModelTerms))
				}
			}
			if cfg.Validation.MinR2 > 0 && cfg.Validation.TestSamples == 0 {
				res.Warnings = append(res.Warnings, "quality gate uses cross-validated Q2 because test_samples is 0")
			}
			if err := writeOutput(cmd.OutOrStdout(), opts.output, res); err != nil {
				return err
			}
			if !res.Valid {
				return fmt.Errorf("configuration cannot be fitted")
			}
			return nil
		},
	}
}

func designSize(d config.Design, k int) int {
	if d.Strategy == config.StrategyLHS {
		return d.LHSSamples
	}
	ccd := design.CCD{Alpha: d.CCDAlpha, CenterReplicates: d.CenterReplicates}
	return ccd.Size(k)
}

func newOraclesCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "oracles",
		Short: "List the built-in analytic oracles",
		RunE: func(cmd *cobra.Command, _ []string) error {
			type entry struct {
				Name string `json:"name" yaml:"name"`
				Dim  int    `json:"dim" yaml:"dim"`
			}
			var out []entry
			for _, name := range simulator.Names() {
				spec, _ := simulator.Lookup(name)
				out = append(out, entry{Name: spec.Name, Dim: spec.Dim})
			}
			return writeOutput(cmd.OutOrStdout(), opts.output, out)
		},
	}
}

func writeOutput(w io.Writer, format string, v any) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case formatYAML, formatTable:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown output format: %s (must be json or yaml)", format)
	}
}
