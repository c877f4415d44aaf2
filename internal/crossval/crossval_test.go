package crossval

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/go-sift/sift/internal/classifier"
	"github.com/go-sift/sift/internal/classifier/knn"
	"github.com/go-sift/sift/internal/classifier/logreg"
	"github.com/go-sift/sift/internal/dataset"
	"gonum.org/v1/gonum/mat"
)

func blobs(t *testing.T, n int, seed int64) *dataset.Dataset {
	t.Helper()
	rnd := rand.New(rand.NewSource(seed))
	centers := [][]float64{{0, 0}, {6, 0}, {0, 6}}
	rows := make([][]float64, 0, n)
	y := make([]int, 0, n)
	for i := 0; i < n; i++ {
		c := i % len(centers)
		rows = append(rows, []float64{
			centers[c][0] + rnd.NormFloat64(),
			centers[c][1] + rnd.NormFloat64(),
		})
		y = append(y, c)
	}
	d, err := dataset.New("blobs", rows, y)
	if err != nil {
		t.Fatalf("unable create test dataset: %v", err)
	}
	return d
}

func TestOutOfSample(t *testing.T) {
	tests := []struct {
		name      string
		provideFn classifier.ProvideFn
	}{
		{
			name: "logreg",
			provideFn: func() (classifier.Classifier, error) {
				return logreg.New(logreg.WithSeed(1))
			},
		},
		{
			name: "knn",
			provideFn: func() (classifier.Classifier, error) {
				return knn.New(knn.WithKNum(3))
			},
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			d := blobs(t, 90, 1)
			probs, err := OutOfSample(context.Background(), test.provideFn, d, WithFoldsNum(3))
			if err != nil {
				t.Fatalf("calling the OutOfSample function, unexpected error: %v", err)
			}
			n, cols := probs.Dims()
			if n != d.Len() || cols != d.Classes {
				t.Fatalf("probs shape got: %dx%d, expected: %dx%d", n, cols, d.Len(), d.Classes)
			}
			for i := 0; i < n; i++ {
				var sum float64
				for j := 0; j < cols; j++ {
					sum += probs.At(i, j)
				}
				if math.Abs(sum-1.0) > 1e-9 {
					t.Fatalf("row %d probabilities sum got: %v, expected: 1", i, sum)
				}
			}
			acc, err := classifier.Accuracy(probs, d.Y)
			if err != nil {
				t.Fatalf("calling the Accuracy function, unexpected error: %v", err)
			}
			if acc < 0.9 {
				t.Errorf("out of sample accuracy got: %v, expected at least: %v", acc, 0.9)
			}
		})
	}
}

func TestOutOfSampleDeterminism(t *testing.T) {
	provideFn := func() (classifier.Classifier, error) {
		return logreg.New(logreg.WithSeed(1))
	}
	d := blobs(t, 60, 2)
	first, err := OutOfSample(context.Background(), provideFn, d, WithFoldsNum(3), WithSeed(7))
	if err != nil {
		t.Fatalf("calling the OutOfSample function, unexpected error: %v", err)
	}
	second, err := OutOfSample(context.Background(), provideFn, d, WithFoldsNum(3), WithSeed(7))
	if err != nil {
		t.Fatalf("calling the OutOfSample function, unexpected error: %v", err)
	}
	if !mat.EqualApprox(first, second, 1e-12) {
		t.Errorf("two runs with the same seed produced different probabilities")
	}
}

func TestOutOfSampleErrors(t *testing.T) {
	d := blobs(t, 30, 3)
	okFn := func() (classifier.Classifier, error) {
		return logreg.New(logreg.WithSeed(1))
	}
	if _, err := OutOfSample(context.Background(), okFn, d, WithFoldsNum(1)); err == nil {
		t.Errorf("calling the OutOfSample function with one fold, expected error, got nil")
	}

	provideErr := errors.New("no classifier")
	failFn := func() (classifier.Classifier, error) {
		return nil, provideErr
	}
	if _, err := OutOfSample(context.Background(), failFn, d, WithFoldsNum(3)); !errors.Is(err, provideErr) {
		t.Errorf("calling the OutOfSample function with failing provider got: %v, expected wrapped: %v", err, provideErr)
	}
}
