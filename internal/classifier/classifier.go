package classifier

import (
	"context"

	"github.com/go-sift/sift/internal/dataset"
	"gonum.org/v1/gonum/mat"
)

type ProvideFn func() (Classifier, error)

// Vector is a point in feature space as the neighbor search algorithms see it.
type Vector interface {
	Dim(idx int) float64
	Dimensions() int
	Points() []float64
}

// Classifier is a supervised probabilistic classifier. Fit consumes a
// labeled dataset, PredictProba returns one probability row per input row
// with one column per class.
type Classifier interface {
	Fit(ctx context.Context, d *dataset.Dataset) error
	PredictProba(x *mat.Dense) (*mat.Dense, error)
	Classes() int
}

// SearchAlg is a k nearest neighbor search backend.
type SearchAlg interface {
	Reset()
	Len() int
	Build(points ...Vector)
	KNN(vec Vector, k int) ([]Vector, error)
}

type AlgType string

const (
	AlgTypeLogReg AlgType = "LOGREG"
	AlgTypeKNN    AlgType = "KNN"
)

type Config struct {
	Type AlgType `envconfig:"SIFT_CLASSIFIER_TYPE" default:"LOGREG"`
}

func (c Config) ClassifierType() AlgType {
	return c.Type
}
