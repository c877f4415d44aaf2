package kd

import (
	"fmt"
	"sync"

	"github.com/go-sift/sift/internal/classifier"
	"github.com/go-sift/sift/pkg/container/kdtree"
	"github.com/go-sift/sift/pkg/math/vector"
)

var _ classifier.SearchAlg = (*kd)(nil)

func NewKDAlg(distFn vector.DistanceFn) *kd {
	return &kd{tree: kdtree.New(distFn), distFn: distFn}
}

type kd struct {
	mtx    sync.RWMutex
	tree   *kdtree.Tree
	distFn vector.DistanceFn
}

func (b *kd) Reset() {
	b.mtx.Lock()
	b.tree = kdtree.New(b.distFn)
	b.mtx.Unlock()
}

func (b *kd) Len() int {
	b.mtx.RLock()
	defer b.mtx.RUnlock()
	return b.tree.Len()
}

func (b *kd) Build(points ...classifier.Vector) {
	b.mtx.Lock()
	defer b.mtx.Unlock()
	treePoints := make([]kdtree.Point, 0, len(points)+b.tree.Len())
	treePoints = append(treePoints, b.tree.Points()...)
	for i := range points {
		treePoints = append(treePoints, points[i])
	}
	b.tree.Build(treePoints...)
}

func (b *kd) KNN(vec classifier.Vector, k int) ([]classifier.Vector, error) {
	b.mtx.RLock()
	defer b.mtx.RUnlock()
	nn, err := b.tree.KNN(vec, k)
	if err != nil {
		return nil, fmt.Errorf("unable compute KNN: %w", err)
	}
	if len(nn) < k {
		return nil, fmt.Errorf("knn less minimal value")
	}
	points := make([]classifier.Vector, len(nn))
	for i := range nn {
		points[i] = nn[i].(classifier.Vector)
	}
	return points, nil
}
