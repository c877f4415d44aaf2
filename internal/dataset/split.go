package dataset

import (
	"fmt"
	"math/rand"
)

// TrainTestSplit splits the dataset into train and test parts, keeping class
// proportions. The same seed always yields the same split.
func TrainTestSplit(d *Dataset, testRatio float64, seed int64) (*Dataset, *Dataset, error) {
	if testRatio <= 0 || testRatio >= 1 {
		return nil, nil, fmt.Errorf("test ratio %v is out of (0, 1)", testRatio)
	}
	rnd := rand.New(rand.NewSource(seed))
	var trainIdx, testIdx []int
	for _, classIdx := range indicesByClass(d.Y, d.Classes) {
		rnd.Shuffle(len(classIdx), func(i, j int) {
			classIdx[i], classIdx[j] = classIdx[j], classIdx[i]
		})
		nTest := int(float64(len(classIdx)) * testRatio)
		testIdx = append(testIdx, classIdx[:nTest]...)
		trainIdx = append(trainIdx, classIdx[nTest:]...)
	}
	if len(trainIdx) == 0 || len(testIdx) == 0 {
		return nil, nil, fmt.Errorf("split of %d rows with ratio %v left an empty part", d.Len(), testRatio)
	}
	return d.Subset(trainIdx), d.Subset(testIdx), nil
}

// StratifiedKFold deals the row indices of every class round-robin across k
// folds and returns the test indices of each fold. Every row lands in
// exactly one fold.
func StratifiedKFold(y []int, classes, k int, seed int64) ([][]int, error) {
	if k < 2 {
		return nil, fmt.Errorf("folds num %d is too small", k)
	}
	if k > len(y) {
		return nil, fmt.Errorf("folds num %d is greater than rows num %d", k, len(y))
	}
	rnd := rand.New(rand.NewSource(seed))
	folds := make([][]int, k)
	for _, classIdx := range indicesByClass(y, classes) {
		rnd.Shuffle(len(classIdx), func(i, j int) {
			classIdx[i], classIdx[j] = classIdx[j], classIdx[i]
		})
		for i, idx := range classIdx {
			folds[i%k] = append(folds[i%k], idx)
		}
	}
	for i := range folds {
		if len(folds[i]) == 0 {
			return nil, fmt.Errorf("fold %d is empty, %d rows are not enough for %d folds", i, len(y), k)
		}
	}
	return folds, nil
}

// Complement returns all indices of n rows that are not in the given fold.
func Complement(fold []int, n int) []int {
	in := make(map[int]struct{}, len(fold))
	for _, idx := range fold {
		in[idx] = struct{}{}
	}
	out := make([]int, 0, n-len(fold))
	for i := 0; i < n; i++ {
		if _, ok := in[i]; !ok {
			out = append(out, i)
		}
	}
	return out
}

func indicesByClass(y []int, classes int) [][]int {
	byClass := make([][]int, classes)
	for i := range y {
		byClass[y[i]] = append(byClass[y[i]], i)
	}
	return byClass
}
