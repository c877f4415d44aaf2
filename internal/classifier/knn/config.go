package knn

import (
	"fmt"

	"github.com/go-sift/sift/internal/classifier"
	"github.com/go-sift/sift/internal/classifier/knn/brute"
	"github.com/go-sift/sift/internal/classifier/knn/kd"
	"github.com/go-sift/sift/pkg/math/vector"
)

const MinKNum = 1

type DistanceFuncType string

const (
	DistanceFuncTypeEuclidean DistanceFuncType = "EUCLIDEAN"
	DistanceFuncTypeChebyshev DistanceFuncType = "CHEBYSHEV"
	DistanceFuncTypeManhattan DistanceFuncType = "MANHATTAN"
)

type AlgType string

const (
	AlgTypeKDTree AlgType = "KD_TREE"
	AlgTypeBrute  AlgType = "BRUTE"
)

type Config struct {
	KNum           int              `envconfig:"SIFT_KNN_K_NUM" default:"5"`
	MetricFuncType DistanceFuncType `envconfig:"SIFT_KNN_DISTANCE_FUNC" default:"EUCLIDEAN"`
	AlgType        AlgType          `envconfig:"SIFT_KNN_ALG_TYPE" default:"KD_TREE"`
}

func NNFor(a AlgType, distFn vector.DistanceFn) (classifier.SearchAlg, error) {
	switch a {
	case AlgTypeBrute:
		return brute.NewBruteAlg(distFn), nil
	case AlgTypeKDTree:
		return kd.NewKDAlg(distFn), nil
	default:
		return nil, fmt.Errorf("unable to create alg with alg type %s", a)
	}
}

func DistanceFuncFor(d DistanceFuncType) (vector.DistanceFn, error) {
	switch d {
	case DistanceFuncTypeChebyshev:
		return vector.ChebyshevDistance, nil
	case DistanceFuncTypeEuclidean:
		return vector.EuclideanDistance, nil
	case DistanceFuncTypeManhattan:
		return vector.ManhattanDistance, nil
	default:
		return nil, fmt.Errorf("unknown distance function: %s", d)
	}
}
