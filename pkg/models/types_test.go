package models

import (
	"errors"
	"math"
	"testing"
)

func testDomain() Domain {
	return NewDomain(
		Variable{Name: "k", Low: 10, High: 400},
		Variable{Name: "q", Low: 1000, High: 10000},
		Variable{Name: "L", Low: 0.1, High: 1.0},
	)
}

func TestDomainValidate(t *testing.T) {
	tests := []struct {
		name    string
		domain  Domain
		wantErr bool
	}{
		{name: "valid", domain: testDomain(), wantErr: false},
		{name: "empty", domain: Domain{}, wantErr: true},
		{name: "inverted bounds", domain: NewDomain(Variable{Name: "x", Low: 1, High: 0}), wantErr: true},
		{name: "equal bounds", domain: NewDomain(Variable{Name: "x", Low: 1, High: 1}), wantErr: true},
		{name: "duplicate", domain: NewDomain(Variable{Name: "x", Low: 0, High: 1}, Variable{Name: "x", Low: 0, High: 1}), wantErr: true},
		{name: "unnamed", domain: NewDomain(Variable{Low: 0, High: 1}), wantErr: true},
		{name: "infinite", domain: NewDomain(Variable{Name: "x", Low: 0, High: math.Inf(1)}), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.domain.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDomainCheck(t *testing.T) {
	d := testDomain()

	if err := d.Check([]float64{10, 1000, 1.0}); err != nil {
		t.Fatalf("expected boundary point to be inside, got %v", err)
	}

	err := d.Check([]float64{5, 1000, 0.5})
	var dv *DomainViolationError
	if !errors.As(err, &dv) {
		t.Fatalf("expected DomainViolationError, got %v", err)
	}
	if dv.Variable != "k" || dv.Index != 0 || dv.Low != 10 || dv.High != 400 {
		t.Fatalf("unexpected violation details: %+v", dv)
	}

	if err := d.Check([]float64{1, 2}); err == nil {
		t.Fatalf("expected dimension mismatch to be reported")
	}
	if d.Contains([]float64{100, 5000, math.NaN()}) {
		t.Fatalf("NaN coordinate should not be contained")
	}
}

func TestDomainMappings(t *testing.T) {
	d := testDomain()

	x := d.FromCoded([]float64{-1, 0, 1})
	want := []float64{10, 5500, 1.0}
	for i := range want {
		if math.Abs(x[i]-want[i]) > 1e-12 {
			t.Fatalf("FromCoded[%d] = %f, want %f", i, x[i], want[i])
		}
	}

	u := d.ToUnit(d.FromUnit([]float64{0.25, 0.5, 0.75}))
	for i, v := range []float64{0.25, 0.5, 0.75} {
		if math.Abs(u[i]-v) > 1e-12 {
			t.Fatalf("round trip [%d] = %f, want %f", i, u[i], v)
		}
	}

	sub := d.Sub([]int{2})
	if sub.Dim() != 1 || sub.Variables[0].Name != "L" {
		t.Fatalf("unexpected sub-domain: %+v", sub)
	}
	if d.Index("q") != 1 || d.Index("missing") != -1 {
		t.Fatalf("unexpected Index results")
	}
}

func TestDesignPointImmutable(t *testing.T) {
	src := []float64{1, 2, 3}
	p := NewDesignPoint(src, RoleCenter)
	src[0] = 99

	x := p.X()
	x[1] = 99

	if p.At(0) != 1 || p.At(1) != 2 {
		t.Fatalf("design point was mutated: %v", p.X())
	}
	if p.Role() != RoleCenter {
		t.Fatalf("expected role center, got %s", p.Role())
	}
}

func TestTrainingSet(t *testing.T) {
	ts := TrainingSet{
		{Point: NewDesignPoint([]float64{0, 0}, RoleLHS), Response: 1},
		{Point: NewDesignPoint([]float64{1, 0}, RoleLHS), Response: 2},
		{Point: NewDesignPoint([]float64{0, 1}, RoleLHS), Response: 3},
	}

	if err := ts.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ts.Dim() != 2 {
		t.Fatalf("expected dim 2, got %d", ts.Dim())
	}

	sub := ts.Subset([]int{2, 0})
	if len(sub) != 2 || sub[0].Response != 3 || sub[1].Response != 1 {
		t.Fatalf("unexpected subset: %+v", sub)
	}

	bad := append(TrainingSet{}, ts...)
	bad = append(bad, Sample{Point: NewDesignPoint([]float64{1}, RoleLHS), Response: 0})
	if err := bad.Validate(); err == nil {
		t.Fatalf("expected dimension mismatch error")
	}
	if err := (TrainingSet{}).Validate(); err == nil {
		t.Fatalf("expected empty training set error")
	}
}
