package brute

import (
	"fmt"
	"sync"

	"github.com/go-sift/sift/internal/classifier"
	"github.com/go-sift/sift/pkg/math/vector"
	"github.com/go-sift/sift/pkg/pqueue"
)

var _ classifier.SearchAlg = (*brute)(nil)

func NewBruteAlg(distFn vector.DistanceFn) *brute {
	return &brute{distFunc: distFn}
}

// brute scans every stored point on lookup. Slow on large datasets but has
// no build cost and no sensitivity to dimensionality.
type brute struct {
	mtx      sync.RWMutex
	data     []classifier.Vector
	distFunc vector.DistanceFn
}

func (b *brute) Reset() {
	b.mtx.Lock()
	b.data = nil
	b.mtx.Unlock()
}

func (b *brute) Len() int {
	b.mtx.RLock()
	defer b.mtx.RUnlock()
	return len(b.data)
}

func (b *brute) Build(points ...classifier.Vector) {
	b.mtx.Lock()
	defer b.mtx.Unlock()
	b.data = append(b.data, points...)
}

func (b *brute) KNN(vec classifier.Vector, k int) ([]classifier.Vector, error) {
	b.mtx.RLock()
	list := b.data
	b.mtx.RUnlock()

	pq := pqueue.New[classifier.Vector](pqueue.WithCap[classifier.Vector](uint(k)))
	for _, item := range list {
		distance, err := b.distFunc(vec.Points(), item.Points())
		if err != nil {
			return nil, fmt.Errorf(
				"unable to compute distance between %v and %v: %w",
				vec.Points(), item.Points(),
				err,
			)
		}
		pq.Push(item, distance)
	}
	knn := pq.PopAll()
	if len(knn) < k {
		return nil, fmt.Errorf("knn less minimal value")
	}
	return knn, nil
}
