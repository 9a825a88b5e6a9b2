package surrogate

import (
	"errors"

	"gonum.org/v1/gonum/mat"

	"github.com/GoSim-25-26J-441/surrogate-core/pkg/models"
)

// DefaultRankTolerance is the singular-value cutoff relative to the largest
const DefaultRankTolerance = 1e-10

// Polynomial is a response surface of total degree Degree fitted by ordinary
// least squares on standardized inputs. The normal equations are never formed;
// the design matrix is factorized by SVD.
//
// Polynomial does not report predictive variance and so does not implement
// UncertaintyModel.
type Polynomial struct {
	degree int
	rcond  float64

	fitted bool
	scaler *Standardizer
	terms  []Term
	coef   []float64
	rank   int
}

var _ Model = (*Polynomial)(nil)

// NewPolynomial creates an unfitted polynomial surface of the given degree
func NewPolynomial(degree int) *Polynomial {
	return &Polynomial{degree: degree, rcond: DefaultRankTolerance}
}

func (p *Polynomial) Variant() Variant {
	return VariantPolynomial
}

// Degree returns the total degree
func (p *Polynomial) Degree() int {
	return p.degree
}

func (p *Polynomial) Fitted() bool {
	return p.fitted
}

func (p *Polynomial) Clone() Model {
	return &Polynomial{degree: p.degree, rcond: p.rcond}
}

// Fit solves min ||A c - y|| where A holds every term evaluated at the
// standardized training inputs
func (p *Polynomial) Fit(train models.TrainingSet) error {
	if p.degree < 0 {
		return errors.New("surrogate: polynomial degree must be non-negative")
	}
	if err := train.Validate(); err != nil {
		return err
	}

	n := len(train)
	k := train.Dim()
	terms := GenerateTerms(k, p.degree)
	nt := len(terms)
	if n < nt {
		return &RankDeficiencyError{Samples: n, Terms: nt, Rank: n, Degree: p.degree}
	}

	xs := train.Inputs()
	scaler := FitStandardizer(xs)
	a := mat.NewDense(n, nt, nil)
	for i, x := range xs {
		a.SetRow(i, expand(terms, scaler.Transform(x)))
	}
	y := mat.NewVecDense(n, train.Responses())

	var svd mat.SVD
	if !svd.Factorize(a, mat.SVDThin) {
		return errors.New("surrogate: SVD of design matrix did not converge")
	}
	rank := svd.Rank(p.rcond)
	if rank < nt {
		return &RankDeficiencyError{Samples: n, Terms: nt, Rank: rank, Degree: p.degree}
	}

	var c mat.VecDense
	svd.SolveVecTo(&c, y, rank)

	coef := make([]float64, nt)
	for i := range coef {
		coef[i] = c.AtVec(i)
	}

	p.scaler = scaler
	p.terms = terms
	p.coef = coef
	p.rank = rank
	p.fitted = true
	return nil
}

func (p *Polynomial) Predict(x []float64) (float64, error) {
	if !p.fitted {
		return 0, ErrNotFitted
	}
	if err := checkDim(p.scaler.Dim(), x); err != nil {
		return 0, err
	}
	z := p.scaler.Transform(x)
	y := 0.0
	for i, t := range p.terms {
		y += p.coef[i] * t.Eval(z)
	}
	return y, nil
}

// Coefficients returns a copy of the fitted coefficients in Terms order,
// expressed in standardized input units
func (p *Polynomial) Coefficients() []float64 {
	return append([]float64(nil), p.coef...)
}

// Terms returns the fitted monomials
func (p *Polynomial) Terms() []Term {
	out := make([]Term, len(p.terms))
	for i, t := range p.terms {
		out[i] = append(Term(nil), t...)
	}
	return out
}

// Standardizer returns a copy of the input scaling, nil before Fit
func (p *Polynomial) Standardizer() *Standardizer {
	if p.scaler == nil {
		return nil
	}
	return p.scaler.clone()
}

// Rank returns the numerical rank of the last design matrix
func (p *Polynomial) Rank() int {
	return p.rank
}
