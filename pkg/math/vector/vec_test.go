package vector

import (
	"math"
	"testing"
)

func TestArgMax(t *testing.T) {
	tests := []struct {
		name     string
		vec      V
		expected int
	}{
		{name: "single", vec: V{0.3}, expected: 0},
		{name: "last_max", vec: V{0.1, 0.2, 0.7}, expected: 2},
		{name: "first_on_tie", vec: V{0.5, 0.5}, expected: 0},
		{name: "negative", vec: V{-3, -1, -2}, expected: 1},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := test.vec.ArgMax(); got != test.expected {
				t.Errorf("calling the ArgMax method, got: %v, expected: %v", got, test.expected)
			}
		})
	}
}

func TestNorm(t *testing.T) {
	tests := []struct {
		name     string
		vec      V
		expected V
	}{
		{name: "already_normalized", vec: V{0.25, 0.75}, expected: V{0.25, 0.75}},
		{name: "counts", vec: V{2, 2, 4}, expected: V{0.25, 0.25, 0.5}},
		{name: "zero_untouched", vec: V{0, 0}, expected: V{0, 0}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			test.vec.Norm()
			if !test.vec.Equal(test.expected) {
				t.Errorf("calling the Norm method, got: %v, expected: %v", test.vec, test.expected)
			}
		})
	}
}

func TestEntropy(t *testing.T) {
	tests := []struct {
		name     string
		vec      V
		expected float64
	}{
		{name: "certain", vec: V{1, 0, 0}, expected: 0},
		{name: "uniform_two", vec: V{0.5, 0.5}, expected: math.Log(2)},
		{name: "uniform_four", vec: V{0.25, 0.25, 0.25, 0.25}, expected: math.Log(4)},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := test.vec.Entropy(); math.Abs(got-test.expected) > 1e-12 {
				t.Errorf("calling the Entropy method, got: %v, expected: %v", got, test.expected)
			}
		})
	}
}

func TestDistances(t *testing.T) {
	tests := []struct {
		name     string
		distFn   DistanceFn
		vec      []float64
		vec1     []float64
		expected float64
		err      bool
	}{
		{name: "euclidean", distFn: EuclideanDistance, vec: []float64{0, 0}, vec1: []float64{3, 4}, expected: 5},
		{name: "manhattan", distFn: ManhattanDistance, vec: []float64{1, 1}, vec1: []float64{4, 5}, expected: 7},
		{name: "chebyshev", distFn: ChebyshevDistance, vec: []float64{1, 1}, vec1: []float64{4, 5}, expected: 4},
		{name: "dim_mismatch", distFn: EuclideanDistance, vec: []float64{1}, vec1: []float64{1, 2}, err: true},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, err := test.distFn(test.vec, test.vec1)
			if test.err {
				if err == nil {
					t.Errorf("calling the distance function, expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Errorf("calling the distance function, unexpected error: %v", err)
				return
			}
			if math.Abs(got-test.expected) > 1e-12 {
				t.Errorf("calling the distance function, got: %v, expected: %v", got, test.expected)
			}
		})
	}
}
