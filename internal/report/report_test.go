package report

import (
	"strings"
	"testing"
	"time"

	"github.com/go-sift/sift/internal/detector"
)

func TestRender(t *testing.T) {
	r := &Report{
		Dataset:          "iris",
		CreatedAt:        time.Now(),
		CleanMode:        CleanModeDrop,
		Rows:             150,
		TrainRows:        120,
		TestRows:         30,
		CandidatesNum:    7,
		IssuesNum:        5,
		BaselineAccuracy: 0.8667,
		CleanedAccuracy:  0.9333,
		NoiseByClass: []ClassNoise{
			{Class: 0, Given: 40, Issues: 1, Rate: 0.025},
			{Class: 1, Given: 40, Issues: 4, Rate: 0.1},
		},
		Findings: []detector.Finding{
			{Index: 11, GivenLabel: 1, SuggestedLabel: 2, Score: 0.02, Issue: true},
		},
	}
	out := r.Render()
	for _, want := range []string{
		"iris",
		"150 (train 120 / test 30)",
		"5 of 7 candidates",
		"0.8667 -> 0.9333",
		"class",
		"0.0250",
		"index",
		"11",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("rendered report does not contain %q:\n%s", want, out)
		}
	}
}
