package fourvector

import (
	"math"
	"testing"
)

const epsilon = 1e-9

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < epsilon
}

func TestPt(t *testing.T) {
	tests := []struct {
		name     string
		v        FourVector
		expected float64
	}{
		{"zero", FourVector{}, 0},
		{"unit px", New(1, 1, 0, 0), 1},
		{"3-4-5", New(5, 3, 4, 0), 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.v.Pt(); !almostEqual(got, tt.expected) {
				t.Errorf("Pt() = %v, expected %v", got, tt.expected)
			}
		})
	}
}

func TestSpatialNorm(t *testing.T) {
	v := New(10, 1, 2, 2)
	if got := v.SpatialNorm(); !almostEqual(got, 3) {
		t.Errorf("SpatialNorm() = %v, expected 3", got)
	}
}

func TestAddSub(t *testing.T) {
	a := New(1, 2, 3, 4)
	b := New(4, 3, 2, 1)
	sum := a.Add(b)
	if sum != (FourVector{5, 5, 5, 5}) {
		t.Errorf("Add() = %+v, expected {5 5 5 5}", sum)
	}
	diff := a.Sub(b)
	if diff != (FourVector{-3, -1, 1, 3}) {
		t.Errorf("Sub() = %+v, expected {-3 -1 1 3}", diff)
	}
}

func TestScale(t *testing.T) {
	v := New(1, 2, 3, 4)
	scaled := v.Scale(0.001) // MeV -> GeV
	expected := FourVector{0.001, 0.002, 0.003, 0.004}
	if scaled != expected {
		t.Errorf("Scale() = %+v, expected %+v", scaled, expected)
	}
}

func TestLessOrdering(t *testing.T) {
	high := New(10, 5, 0, 0)  // pt = 5
	low := New(10, 1, 0, 0)   // pt = 1
	if !Less(high, low) {
		t.Error("higher-pt vector should sort first")
	}
	if Less(low, high) {
		t.Error("lower-pt vector should not sort before higher-pt")
	}

	// Tie on pt, broken lexicographically by E then components.
	a := New(1, 3, 4, 0) // pt = 5
	b := New(2, 3, 4, 0) // pt = 5, E differs
	if !Less(a, b) {
		t.Error("tie on pt should fall back to ascending E")
	}
}

func TestNewPanicsOnNaN(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic on NaN component")
		}
	}()
	New(math.NaN(), 0, 0, 0)
}
