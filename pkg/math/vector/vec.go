package vector

import (
	"math"
)

// V is a dense feature vector.
type V []float64

func New(vec []float64) V {
	return vec
}

func (v V) Dimensions() int {
	return len(v)
}

func (v V) Dim(idx int) float64 {
	return v[idx]
}

func (v V) Points() []float64 {
	return v
}

func (v V) Copy() V {
	v1 := make(V, len(v))
	copy(v1, v)
	return v1
}

func (v V) Zero() {
	for i := range v {
		v[i] = 0.0
	}
}

func (v V) Scale(value float64) {
	for i := range v {
		v[i] *= value
	}
}

func (v V) Apply(applyFn func(float64) float64) {
	for i := range v {
		v[i] = applyFn(v[i])
	}
}

func (v V) Map(applyFn func(float64) float64) V {
	v1 := make(V, len(v))
	for i := range v {
		v1[i] = applyFn(v[i])
	}
	return v1
}

func (v V) Sum() float64 {
	var s float64
	for i := range v {
		s += v[i]
	}
	return s
}

func (v V) Mean() float64 {
	if len(v) == 0 {
		return 0
	}
	return v.Sum() / float64(len(v))
}

func (v V) Max() float64 {
	m := math.Inf(-1)
	for i := range v {
		if v[i] > m {
			m = v[i]
		}
	}
	return m
}

func (v V) Min() float64 {
	m := math.Inf(1)
	for i := range v {
		if v[i] < m {
			m = v[i]
		}
	}
	return m
}

// ArgMax returns the index of the largest component, the first one on ties.
func (v V) ArgMax() int {
	idx, m := -1, math.Inf(-1)
	for i := range v {
		if v[i] > m {
			idx, m = i, v[i]
		}
	}
	return idx
}

// Norm scales the vector in place so its components sum to one.
// A zero vector is left untouched.
func (v V) Norm() {
	s := v.Sum()
	if s == 0 {
		return
	}
	for i := range v {
		v[i] /= s
	}
}

// Entropy computes the Shannon entropy of the vector treated as a
// probability distribution. Zero components contribute nothing.
func (v V) Entropy() float64 {
	var result float64
	for i := range v {
		if v[i] > 0 {
			result += v[i] * math.Log(v[i])
		}
	}
	return -result
}

func (v V) SizeEqual(vec V) bool {
	return len(v) == len(vec)
}

func (v V) Equal(vec V) bool {
	if len(v) != len(vec) {
		return false
	}
	for i, value := range v {
		if vec[i] != value {
			return false
		}
	}
	return true
}
