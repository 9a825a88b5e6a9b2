package utils

import (
	"math"
	"testing"
)

func TestClampFloat64(t *testing.T) {
	tests := []struct {
		value, min, max, expected float64
	}{
		{5, 0, 10, 5},
		{-1, 0, 10, 0},
		{11, 0, 10, 10},
	}

	for _, tt := range tests {
		if got := ClampFloat64(tt.value, tt.min, tt.max); got != tt.expected {
			t.Errorf("ClampFloat64(%f, %f, %f) = %f, expected %f", tt.value, tt.min, tt.max, got, tt.expected)
		}
	}
}

func TestLinspace(t *testing.T) {
	got := Linspace(0.1, 1.0, 10)
	if len(got) != 10 {
		t.Fatalf("expected 10 values, got %d", len(got))
	}
	if got[0] != 0.1 || got[9] != 1.0 {
		t.Fatalf("endpoints not preserved: %v", got)
	}
	if math.Abs(got[1]-0.2) > 1e-12 {
		t.Fatalf("unexpected step: %v", got)
	}

	if mid := Linspace(0, 4, 1); len(mid) != 1 || mid[0] != 2 {
		t.Fatalf("expected midpoint for n=1, got %v", mid)
	}
	if Linspace(0, 1, 0) != nil {
		t.Fatal("expected nil for n=0")
	}
}
