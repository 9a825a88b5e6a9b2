package surrogate

import (
	"fmt"
	"strings"
)

// Term is a monomial given by the multiset of variable indices it multiplies,
// sorted ascending. The empty term is the intercept; [0 0] is x0^2, [0 2] is x0*x2.
type Term []int

// Degree returns the total degree of the monomial
func (t Term) Degree() int {
	return len(t)
}

// Eval returns the monomial value at z
func (t Term) Eval(z []float64) float64 {
	v := 1.0
	for _, i := range t {
		v *= z[i]
	}
	return v
}

// Name renders the term with the given variable names, falling back to x<i>
func (t Term) Name(names []string) string {
	if len(t) == 0 {
		return "1"
	}
	name := func(i int) string {
		if i < len(names) && names[i] != "" {
			return names[i]
		}
		return fmt.Sprintf("x%d", i)
	}

	var parts []string
	for j := 0; j < len(t); {
		n := 1
		for j+n < len(t) && t[j+n] == t[j] {
			n++
		}
		if n == 1 {
			parts = append(parts, name(t[j]))
		} else {
			parts = append(parts, fmt.Sprintf("%s^%d", name(t[j]), n))
		}
		j += n
	}
	return strings.Join(parts, "*")
}

// GenerateTerms lists every monomial in k variables with total degree at most
// degree, graded: intercept, linear terms, then each higher degree in
// lexicographic index order
func GenerateTerms(k, degree int) []Term {
	terms := []Term{{}}
	for d := 1; d <= degree; d++ {
		cur := make([]int, d)
		var walk func(pos, start int)
		walk = func(pos, start int) {
			if pos == d {
				terms = append(terms, append(Term(nil), cur...))
				return
			}
			for i := start; i < k; i++ {
				cur[pos] = i
				walk(pos+1, i)
			}
		}
		walk(0, 0)
	}
	return terms
}

// expand evaluates every term at z
func expand(terms []Term, z []float64) []float64 {
	row := make([]float64, len(terms))
	for i, t := range terms {
		row[i] = t.Eval(z)
	}
	return row
}
