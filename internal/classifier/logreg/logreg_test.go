package logreg

import (
	"context"
	"math"
	"math/rand"
	"testing"

	"github.com/go-sift/sift/internal/classifier"
	"github.com/go-sift/sift/internal/dataset"
)

// blobs builds two well-separated gaussian clusters.
func blobs(t *testing.T, n int, seed int64) *dataset.Dataset {
	t.Helper()
	rnd := rand.New(rand.NewSource(seed))
	rows := make([][]float64, n)
	y := make([]int, n)
	for i := 0; i < n; i++ {
		label := i % 2
		center := -2.0
		if label == 1 {
			center = 2.0
		}
		rows[i] = []float64{center + rnd.NormFloat64()*0.5, center + rnd.NormFloat64()*0.5}
		y[i] = label
	}
	d, err := dataset.New("blobs", rows, y)
	if err != nil {
		t.Fatalf("unable create test dataset: %v", err)
	}
	return d
}

func TestFitPredictProba(t *testing.T) {
	d := blobs(t, 200, 3)
	clf, err := New(WithEpochs(50), WithSeed(1))
	if err != nil {
		t.Fatalf("calling the New function, unexpected error: %v", err)
	}
	if err := clf.Fit(context.Background(), d); err != nil {
		t.Fatalf("calling the Fit method, unexpected error: %v", err)
	}

	probs, err := clf.PredictProba(d.X)
	if err != nil {
		t.Fatalf("calling the PredictProba method, unexpected error: %v", err)
	}
	n, k := probs.Dims()
	if n != d.Len() || k != d.Classes {
		t.Fatalf("calling the PredictProba method, dims got: %vx%v, expected: %vx%v", n, k, d.Len(), d.Classes)
	}
	for i := 0; i < n; i++ {
		var sum float64
		for j := 0; j < k; j++ {
			sum += probs.At(i, j)
		}
		if math.Abs(sum-1.0) > 1e-9 {
			t.Fatalf("probability row %d sums to %v, expected 1", i, sum)
		}
	}

	acc, err := classifier.Accuracy(probs, d.Y)
	if err != nil {
		t.Fatalf("calling the Accuracy function, unexpected error: %v", err)
	}
	if acc < 0.95 {
		t.Errorf("separable blobs accuracy got: %v, expected at least 0.95", acc)
	}
}

func TestFitDeterministic(t *testing.T) {
	d := blobs(t, 100, 5)
	probsFor := func() []float64 {
		clf, err := New(WithEpochs(20), WithSeed(42))
		if err != nil {
			t.Fatalf("calling the New function, unexpected error: %v", err)
		}
		if err := clf.Fit(context.Background(), d); err != nil {
			t.Fatalf("calling the Fit method, unexpected error: %v", err)
		}
		probs, err := clf.PredictProba(d.X)
		if err != nil {
			t.Fatalf("calling the PredictProba method, unexpected error: %v", err)
		}
		return probs.RawMatrix().Data
	}
	first, second := probsFor(), probsFor()
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("same seed produced different probabilities at %d: %v vs %v", i, first[i], second[i])
		}
	}
}

func TestPredictBeforeFit(t *testing.T) {
	clf, err := New()
	if err != nil {
		t.Fatalf("calling the New function, unexpected error: %v", err)
	}
	d := blobs(t, 10, 1)
	if _, err := clf.PredictProba(d.X); err == nil {
		t.Errorf("calling the PredictProba method before Fit, expected error, got nil")
	}
}

func TestNewValidation(t *testing.T) {
	tests := []struct {
		name string
		opts []Option
	}{
		{name: "bad_lr", opts: []Option{WithLearningRate(0)}},
		{name: "bad_epochs", opts: []Option{WithEpochs(-1)}},
		{name: "bad_batch", opts: []Option{WithBatchSize(0)}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if _, err := New(test.opts...); err == nil {
				t.Errorf("calling the New function, expected error, got nil")
			}
		})
	}
}
