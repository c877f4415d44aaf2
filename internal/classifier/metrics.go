package classifier

import (
	"fmt"

	"github.com/go-sift/sift/pkg/math/vector"
	"gonum.org/v1/gonum/mat"
)

// Predict reduces a probability matrix to hard labels by row-wise argmax.
func Predict(probs *mat.Dense) []int {
	n, _ := probs.Dims()
	out := make([]int, n)
	for i := 0; i < n; i++ {
		out[i] = vector.New(probs.RawRowView(i)).ArgMax()
	}
	return out
}

// Accuracy is the share of rows whose argmax class matches the given label.
func Accuracy(probs *mat.Dense, y []int) (float64, error) {
	n, _ := probs.Dims()
	if n != len(y) {
		return 0, fmt.Errorf("probs rows num %d is not equal labels num %d", n, len(y))
	}
	if n == 0 {
		return 0, fmt.Errorf("unable to compute accuracy on empty predictions")
	}
	pred := Predict(probs)
	var correct int
	for i := range pred {
		if pred[i] == y[i] {
			correct++
		}
	}
	return float64(correct) / float64(n), nil
}
