package surrogate

// Summary is the reportable state of a fitted model
type Summary struct {
	Variant         Variant            `json:"variant" yaml:"variant"`
	Fitted          bool               `json:"fitted" yaml:"fitted"`
	Degree          int                `json:"degree,omitempty" yaml:"degree,omitempty"`
	Terms           []string           `json:"terms,omitempty" yaml:"terms,omitempty"`
	Coefficients    []float64          `json:"coefficients,omitempty" yaml:"coefficients,omitempty"`
	Rank            int                `json:"rank,omitempty" yaml:"rank,omitempty"`
	Scaling         *Standardizer      `json:"scaling,omitempty" yaml:"scaling,omitempty"`
	Hyperparameters *Hyperparameters   `json:"hyperparameters,omitempty" yaml:"hyperparameters,omitempty"`
	KernelWarnings  []KernelFitWarning `json:"kernel_warnings,omitempty" yaml:"kernel_warnings,omitempty"`
}

// Summarize describes m; names label the polynomial terms
func Summarize(m Model, names []string) Summary {
	s := Summary{Variant: m.Variant(), Fitted: m.Fitted()}
	switch v := m.(type) {
	case *Polynomial:
		s.Degree = v.Degree()
		if !v.Fitted() {
			return s
		}
		for _, t := range v.terms {
			s.Terms = append(s.Terms, t.Name(names))
		}
		s.Coefficients = v.Coefficients()
		s.Rank = v.Rank()
		s.Scaling = v.Standardizer()
	case *Kriging:
		if !v.Fitted() {
			return s
		}
		h := v.Hyperparameters()
		s.Hyperparameters = &h
		s.Scaling = v.scaler.clone()
		s.KernelWarnings = v.Warnings()
	}
	return s
}
