package dataset

import (
	"testing"
)

func newTestDataset(t *testing.T, n int) *Dataset {
	t.Helper()
	rows := make([][]float64, n)
	y := make([]int, n)
	for i := 0; i < n; i++ {
		rows[i] = []float64{float64(i), float64(i % 2)}
		y[i] = i % 2
	}
	d, err := New("test-data", rows, y)
	if err != nil {
		t.Fatalf("unable create test dataset: %v", err)
	}
	return d
}

func TestStratifiedKFold(t *testing.T) {
	tests := []struct {
		name string
		n    int
		k    int
		err  bool
	}{
		{name: "three_folds", n: 30, k: 3},
		{name: "five_folds", n: 101, k: 5},
		{name: "too_few_folds", n: 10, k: 1, err: true},
		{name: "more_folds_than_rows", n: 3, k: 5, err: true},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			d := newTestDataset(t, test.n)
			folds, err := StratifiedKFold(d.Y, d.Classes, test.k, 42)
			if test.err {
				if err == nil {
					t.Errorf("calling the StratifiedKFold function, expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("calling the StratifiedKFold function, unexpected error: %v", err)
			}
			seen := map[int]int{}
			for _, fold := range folds {
				for _, idx := range fold {
					seen[idx]++
				}
			}
			if len(seen) != test.n {
				t.Errorf("calling the StratifiedKFold function, rows covered got: %v, expected: %v", len(seen), test.n)
			}
			for idx, count := range seen {
				if count != 1 {
					t.Errorf("calling the StratifiedKFold function, row %d appears in %d folds", idx, count)
				}
			}
		})
	}
}

func TestStratifiedKFoldDeterministic(t *testing.T) {
	d := newTestDataset(t, 40)
	folds, err := StratifiedKFold(d.Y, d.Classes, 4, 7)
	if err != nil {
		t.Fatalf("calling the StratifiedKFold function, unexpected error: %v", err)
	}
	folds1, err := StratifiedKFold(d.Y, d.Classes, 4, 7)
	if err != nil {
		t.Fatalf("calling the StratifiedKFold function, unexpected error: %v", err)
	}
	for i := range folds {
		if len(folds[i]) != len(folds1[i]) {
			t.Fatalf("same seed produced different fold sizes: %v vs %v", len(folds[i]), len(folds1[i]))
		}
		for j := range folds[i] {
			if folds[i][j] != folds1[i][j] {
				t.Errorf("same seed produced different folds at %d/%d: %v vs %v", i, j, folds[i][j], folds1[i][j])
			}
		}
	}
}

func TestTrainTestSplit(t *testing.T) {
	d := newTestDataset(t, 100)
	train, test, err := TrainTestSplit(d, 0.2, 42)
	if err != nil {
		t.Fatalf("calling the TrainTestSplit function, unexpected error: %v", err)
	}
	if train.Len()+test.Len() != d.Len() {
		t.Errorf(
			"calling the TrainTestSplit function, parts sum got: %v, expected: %v",
			train.Len()+test.Len(), d.Len(),
		)
	}
	if test.Len() != 20 {
		t.Errorf("calling the TrainTestSplit function, test part got: %v, expected: %v", test.Len(), 20)
	}
	var ones int
	for _, label := range test.Y {
		if label == 1 {
			ones++
		}
	}
	if ones != 10 {
		t.Errorf("calling the TrainTestSplit function, stratification broken: %v ones of %v", ones, test.Len())
	}
}

func TestSubsetRelabelDrop(t *testing.T) {
	d := newTestDataset(t, 10)
	sub := d.Subset([]int{0, 2, 4})
	if sub.Len() != 3 || sub.Classes != d.Classes {
		t.Fatalf("calling the Subset method, got len %v classes %v", sub.Len(), sub.Classes)
	}

	relabeled := d.Relabel(map[int]int{0: 1})
	if relabeled.Y[0] != 1 {
		t.Errorf("calling the Relabel method, label got: %v, expected: %v", relabeled.Y[0], 1)
	}
	if d.Y[0] != 0 {
		t.Errorf("calling the Relabel method, source dataset was mutated")
	}

	dropped := d.Drop(map[int]struct{}{0: {}, 1: {}})
	if dropped.Len() != 8 {
		t.Errorf("calling the Drop method, the length got: %v, expected: %v", dropped.Len(), 8)
	}
}
