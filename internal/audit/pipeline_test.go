package audit

import (
	"context"
	"math/rand"
	"testing"

	"github.com/go-sift/sift/internal/classifier"
	"github.com/go-sift/sift/internal/classifier/logreg"
	"github.com/go-sift/sift/internal/dataset"
	"github.com/go-sift/sift/internal/detector"
	"github.com/go-sift/sift/internal/detector/confident"
	"github.com/go-sift/sift/internal/report"
)

func provideClassifier() (classifier.Classifier, error) {
	return logreg.New(logreg.WithSeed(1))
}

func provideDetector() (detector.Detector, error) {
	return confident.New()
}

// noisyBlobs builds three well separated clusters and flips the labels of
// every tenth row.
func noisyBlobs(t *testing.T, n int, seed int64) (*dataset.Dataset, map[int]struct{}) {
	t.Helper()
	rnd := rand.New(rand.NewSource(seed))
	centers := [][]float64{{0, 0}, {8, 0}, {0, 8}}
	rows := make([][]float64, 0, n)
	y := make([]int, 0, n)
	flipped := make(map[int]struct{})
	for i := 0; i < n; i++ {
		c := i % len(centers)
		rows = append(rows, []float64{
			centers[c][0] + rnd.NormFloat64(),
			centers[c][1] + rnd.NormFloat64(),
		})
		label := c
		if i%10 == 0 {
			label = (c + 1) % len(centers)
			flipped[i] = struct{}{}
		}
		y = append(y, label)
	}
	d, err := dataset.New("noisy-blobs", rows, y)
	if err != nil {
		t.Fatalf("unable create test dataset: %v", err)
	}
	return d, flipped
}

func TestPipelineRun(t *testing.T) {
	tests := []struct {
		name string
		mode report.CleanMode
	}{
		{name: "drop", mode: report.CleanModeDrop},
		{name: "relabel", mode: report.CleanModeRelabel},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			p, err := NewPipeline(
				provideClassifier, provideDetector,
				WithCleanMode(test.mode), WithSeed(7), WithFoldsNum(3),
			)
			if err != nil {
				t.Fatalf("calling the NewPipeline function, unexpected error: %v", err)
			}
			d, flipped := noisyBlobs(t, 150, 1)
			rep, err := p.Run(context.Background(), d)
			if err != nil {
				t.Fatalf("calling the Run method, unexpected error: %v", err)
			}
			if rep.Rows != d.Len() || rep.TrainRows+rep.TestRows != d.Len() {
				t.Errorf("report row counts got: %d train %d test %d, expected to add up to %d",
					rep.Rows, rep.TrainRows, rep.TestRows, d.Len())
			}
			if rep.IssuesNum == 0 {
				t.Fatalf("issues num got: 0, expected the pipeline to flag flipped labels")
			}
			if rep.IssuesNum > rep.CandidatesNum {
				t.Errorf("issues num %d exceeds candidates num %d", rep.IssuesNum, rep.CandidatesNum)
			}
			var hits int
			for _, f := range rep.Findings {
				if !f.Issue {
					continue
				}
				if _, ok := flipped[f.Index]; ok {
					hits++
				}
			}
			if hits == 0 {
				t.Errorf("none of the flagged findings point at a flipped row: %v", rep.Findings)
			}
			if rep.CleanedAccuracy < rep.BaselineAccuracy-0.05 {
				t.Errorf("cleaned accuracy %.4f dropped too far below baseline %.4f",
					rep.CleanedAccuracy, rep.BaselineAccuracy)
			}
		})
	}
}

func TestPipelineDeterminism(t *testing.T) {
	d, _ := noisyBlobs(t, 120, 2)
	run := func() *report.Report {
		p, err := NewPipeline(provideClassifier, provideDetector, WithSeed(7), WithFoldsNum(3))
		if err != nil {
			t.Fatalf("calling the NewPipeline function, unexpected error: %v", err)
		}
		rep, err := p.Run(context.Background(), d)
		if err != nil {
			t.Fatalf("calling the Run method, unexpected error: %v", err)
		}
		return rep
	}
	first, second := run(), run()
	if first.IssuesNum != second.IssuesNum ||
		first.BaselineAccuracy != second.BaselineAccuracy ||
		first.CleanedAccuracy != second.CleanedAccuracy {
		t.Errorf("two runs with the same seed differ: %+v vs %+v", first, second)
	}
}

func TestNewPipelineValidation(t *testing.T) {
	if _, err := NewPipeline(nil, provideDetector); err == nil {
		t.Errorf("calling the NewPipeline function without a classifier, expected error, got nil")
	}
	if _, err := NewPipeline(provideClassifier, nil); err == nil {
		t.Errorf("calling the NewPipeline function without a detector, expected error, got nil")
	}
	if _, err := NewPipeline(provideClassifier, provideDetector, WithTestRatio(1.5)); err == nil {
		t.Errorf("calling the NewPipeline function with a wrong test ratio, expected error, got nil")
	}
	if _, err := NewPipeline(provideClassifier, provideDetector, WithCleanMode("WRONG_VALUE")); err == nil {
		t.Errorf("calling the NewPipeline function with a wrong clean mode, expected error, got nil")
	}
}
