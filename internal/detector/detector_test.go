package detector

import (
	"math"
	"testing"

	"github.com/go-sift/sift/pkg/math/vector"
)

func TestScoreFuncFor(t *testing.T) {
	tests := []struct {
		name     string
		method   ScoreMethod
		probs    vector.V
		label    int
		expected float64
	}{
		{
			name:     "self confidence",
			method:   ScoreMethodSelfConfidence,
			probs:    vector.V{0.7, 0.2, 0.1},
			label:    0,
			expected: 0.7,
		},
		{
			name:     "self confidence of a wrong label",
			method:   ScoreMethodSelfConfidence,
			probs:    vector.V{0.7, 0.2, 0.1},
			label:    2,
			expected: 0.1,
		},
		{
			name:     "normalized margin",
			method:   ScoreMethodNormalizedMargin,
			probs:    vector.V{0.7, 0.2, 0.1},
			label:    0,
			expected: 0.75,
		},
		{
			name:     "normalized margin of a wrong label",
			method:   ScoreMethodNormalizedMargin,
			probs:    vector.V{0.7, 0.2, 0.1},
			label:    1,
			expected: 0.25,
		},
		{
			name:     "confidence weighted entropy of a uniform row",
			method:   ScoreMethodConfidenceWeightedEntropy,
			probs:    vector.V{0.5, 0.5},
			label:    0,
			expected: 0,
		},
		{
			name:     "confidence weighted entropy of a certain row",
			method:   ScoreMethodConfidenceWeightedEntropy,
			probs:    vector.V{1, 0},
			label:    0,
			expected: 1,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			fn, err := ScoreFuncFor(test.method)
			if err != nil {
				t.Fatalf("calling the ScoreFuncFor function, unexpected error: %v", err)
			}
			got := fn(test.probs, test.label)
			if math.Abs(got-test.expected) > 1e-9 {
				t.Errorf("score got: %v, expected: %v", got, test.expected)
			}
			if got < 0 || got > 1 {
				t.Errorf("score %v is out of [0, 1]", got)
			}
		})
	}

	if _, err := ScoreFuncFor("WRONG_VALUE"); err == nil {
		t.Errorf("calling the ScoreFuncFor function with a wrong method, expected error, got nil")
	}
}

func TestRank(t *testing.T) {
	findings := []Finding{
		{Index: 0, Score: 0.9},
		{Index: 1, Score: 0.1},
		{Index: 2, Score: 0.5},
	}
	ranked := Rank(findings, 0)
	if len(ranked) != 3 {
		t.Fatalf("ranked findings num got: %d, expected: %d", len(ranked), 3)
	}
	if ranked[0].Index != 1 || ranked[1].Index != 2 || ranked[2].Index != 0 {
		t.Errorf("ranked order got: %v, expected worst first", ranked)
	}

	top := Rank(findings, 2)
	if len(top) != 2 {
		t.Fatalf("top findings num got: %d, expected: %d", len(top), 2)
	}
	if top[0].Index != 1 || top[1].Index != 2 {
		t.Errorf("top findings got: %v, expected the two worst", top)
	}
}
