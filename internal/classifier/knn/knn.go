package knn

import (
	"context"
	"fmt"

	"github.com/go-sift/sift/internal/classifier"
	"github.com/go-sift/sift/internal/dataset"
	"github.com/go-sift/sift/pkg/math/vector"
	"gonum.org/v1/gonum/mat"
)

var _ classifier.Classifier = (*knn)(nil)

type Option func(*knn)

func WithKNum(k int) Option {
	return func(l *knn) {
		l.kNum = k
	}
}

func WithDistance(f vector.DistanceFn) Option {
	return func(l *knn) {
		l.opts.distanceFuncType = ""
		l.distFunc = f
	}
}

func WithAlg(alg AlgType) Option {
	return func(l *knn) {
		l.opts.algType = alg
	}
}

var defaultOptions = Options{algType: AlgTypeKDTree, distanceFuncType: DistanceFuncTypeEuclidean}

type Options struct {
	algType          AlgType
	distanceFuncType DistanceFuncType
}

func New(opts ...Option) (*knn, error) {
	k := &knn{
		kNum: 5,
		opts: defaultOptions,
	}
	for _, f := range opts {
		f(k)
	}
	if k.kNum < MinKNum {
		return nil, fmt.Errorf("the k selected in the config is too small")
	}
	if k.distFunc == nil {
		distFunc, err := DistanceFuncFor(k.opts.distanceFuncType)
		if err != nil {
			return nil, fmt.Errorf("unable creating knn instance, %v", err)
		}
		k.distFunc = distFunc
	}
	alg, err := NNFor(k.opts.algType, k.distFunc)
	if err != nil {
		return nil, fmt.Errorf("unable creating knn instance, %v", err)
	}
	k.alg = alg
	return k, nil
}

// knn estimates class probabilities from the label frequencies of the k
// nearest stored neighbors.
type knn struct {
	opts     Options
	kNum     int
	classes  int
	alg      classifier.SearchAlg
	distFunc vector.DistanceFn
}

// labeledPoint carries the class label through the neighbor search.
type labeledPoint struct {
	vector.V
	label int
}

func (k *knn) Classes() int {
	return k.classes
}

func (k *knn) KNum() int {
	return k.kNum
}

func (k *knn) Fit(_ context.Context, d *dataset.Dataset) error {
	if d.Classes < 2 {
		return fmt.Errorf("dataset %s has %d classes, need at least 2", d.Name, d.Classes)
	}
	if d.Len() < k.kNum {
		return fmt.Errorf("dataset %s has %d rows, need at least %d", d.Name, d.Len(), k.kNum)
	}
	k.alg.Reset()
	k.classes = d.Classes
	points := make([]classifier.Vector, d.Len())
	for i := 0; i < d.Len(); i++ {
		points[i] = labeledPoint{V: d.Row(i), label: d.Y[i]}
	}
	k.alg.Build(points...)
	return nil
}

func (k *knn) PredictProba(x *mat.Dense) (*mat.Dense, error) {
	if k.alg.Len() == 0 {
		return nil, fmt.Errorf("unable to predict, model is not fitted")
	}
	n, _ := x.Dims()
	probs := mat.NewDense(n, k.classes, nil)
	for i := 0; i < n; i++ {
		row, err := k.probaRow(vector.New(x.RawRowView(i)))
		if err != nil {
			return nil, fmt.Errorf("unable to predict row %d: %w", i, err)
		}
		probs.SetRow(i, row)
	}
	return probs, nil
}

func (k *knn) probaRow(vec vector.V) ([]float64, error) {
	nn, err := k.alg.KNN(vec, k.kNum)
	if err != nil {
		return nil, fmt.Errorf("unable compute KNN: %w", err)
	}
	counts := vector.New(make([]float64, k.classes))
	for _, p := range nn {
		lp, ok := p.(labeledPoint)
		if !ok {
			return nil, fmt.Errorf("neighbor %v has no label", p.Points())
		}
		counts[lp.label]++
	}
	counts.Norm()
	return counts, nil
}
