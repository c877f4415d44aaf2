// Package confident implements confident learning label issue detection.
// Per-class confidence thresholds select examples the model is confident
// about, the confident joint counts how often a given label disagrees with
// the confident class, and its off-diagonal mass bounds how many examples
// per class pair are flagged as issues.
package confident

import (
	"context"
	"fmt"
	"math"

	"github.com/go-sift/sift/internal/dataset"
	"github.com/go-sift/sift/internal/detector"
	"github.com/go-sift/sift/pkg/math/vector"
	"github.com/go-sift/sift/pkg/pqueue"
	"gonum.org/v1/gonum/mat"
)

const sumTolerance = 1e-6

var _ detector.Detector = (*confident)(nil)

type Option func(*confident)

func WithScoreMethod(m detector.ScoreMethod) Option {
	return func(c *confident) {
		c.opts.scoreMethod = m
	}
}

func WithFilterMethod(m FilterMethod) Option {
	return func(c *confident) {
		c.opts.filterMethod = m
	}
}

type Options struct {
	scoreMethod  detector.ScoreMethod
	filterMethod FilterMethod
}

var defaultOptions = Options{
	scoreMethod:  detector.ScoreMethodSelfConfidence,
	filterMethod: FilterMethodPruneByNoiseRate,
}

func New(opts ...Option) (*confident, error) {
	c := &confident{opts: defaultOptions}
	for _, f := range opts {
		f(c)
	}
	scoreFn, err := detector.ScoreFuncFor(c.opts.scoreMethod)
	if err != nil {
		return nil, fmt.Errorf("unable creating confident detector, %v", err)
	}
	switch c.opts.filterMethod {
	case FilterMethodPruneByNoiseRate, FilterMethodPruneByClass, FilterMethodBoth:
	default:
		return nil, fmt.Errorf("unable creating confident detector, unknown filter method: %s", c.opts.filterMethod)
	}
	c.scoreFn = scoreFn
	return c, nil
}

type confident struct {
	opts    Options
	scoreFn detector.ScoreFn
}

func (c *confident) Detect(ctx context.Context, d *dataset.Dataset, probs *mat.Dense) ([]detector.Finding, error) {
	rows, err := checkedRows(d, probs)
	if err != nil {
		return nil, err
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	thresholds := classThresholds(rows, d.Y, d.Classes)
	joint := confidentJoint(rows, d.Y, thresholds)

	var flagged map[int]struct{}
	switch c.opts.filterMethod {
	case FilterMethodPruneByNoiseRate:
		flagged = pruneByNoiseRate(rows, d.Y, joint)
	case FilterMethodPruneByClass:
		flagged = pruneByClass(rows, d.Y, joint)
	case FilterMethodBoth:
		flagged = intersect(pruneByNoiseRate(rows, d.Y, joint), pruneByClass(rows, d.Y, joint))
	}

	var findings []detector.Finding
	for i, row := range rows {
		suggested := row.ArgMax()
		if suggested == d.Y[i] {
			continue
		}
		_, issue := flagged[i]
		findings = append(findings, detector.Finding{
			Index:          d.Index[i],
			GivenLabel:     d.Y[i],
			SuggestedLabel: suggested,
			Score:          c.scoreFn(row, d.Y[i]),
			Issue:          issue,
		})
	}
	return detector.Rank(findings, 0), nil
}

// checkedRows validates the probability matrix against the dataset and
// renormalizes rows whose sum drifted beyond the tolerance.
func checkedRows(d *dataset.Dataset, probs *mat.Dense) ([]vector.V, error) {
	n, cols := probs.Dims()
	if n != d.Len() {
		return nil, fmt.Errorf("probs rows num %d is not equal dataset %s rows num %d", n, d.Name, d.Len())
	}
	if cols != d.Classes {
		return nil, fmt.Errorf("probs cols num %d is not equal dataset %s classes num %d", cols, d.Name, d.Classes)
	}
	if d.Classes < 2 {
		return nil, fmt.Errorf("dataset %s has %d classes, need at least 2", d.Name, d.Classes)
	}
	rows := make([]vector.V, n)
	for i := 0; i < n; i++ {
		row := vector.New(probs.RawRowView(i)).Copy()
		sum := row.Sum()
		if sum <= 0 {
			return nil, fmt.Errorf("probs row %d sums to %v", i, sum)
		}
		if math.Abs(sum-1) > sumTolerance {
			row.Norm()
		}
		rows[i] = row
	}
	return rows, nil
}

// classThresholds returns the mean self confidence per class. A class with
// no examples gets an unreachable threshold so nothing is confidently
// counted into it.
func classThresholds(rows []vector.V, y []int, classes int) []float64 {
	sums := make([]float64, classes)
	counts := make([]float64, classes)
	for i, row := range rows {
		sums[y[i]] += row[y[i]]
		counts[y[i]]++
	}
	thresholds := make([]float64, classes)
	for j := range thresholds {
		if counts[j] == 0 {
			thresholds[j] = math.Inf(1)
			continue
		}
		thresholds[j] = sums[j] / counts[j]
	}
	return thresholds
}

// confidentJoint counts (given label, confident class) pairs. A row belongs
// to the class with the highest probability among those at or above their
// threshold; rows over no threshold are left out entirely.
func confidentJoint(rows []vector.V, y []int, thresholds []float64) [][]int {
	joint := make([][]int, len(thresholds))
	for i := range joint {
		joint[i] = make([]int, len(thresholds))
	}
	for i, row := range rows {
		confidentClass, best := -1, 0.0
		for j := range row {
			if row[j] >= thresholds[j] && row[j] > best {
				confidentClass, best = j, row[j]
			}
		}
		if confidentClass < 0 {
			continue
		}
		joint[y[i]][confidentClass]++
	}
	return joint
}

// pruneByNoiseRate flags, for every off-diagonal cell (i, j), the joint[i][j]
// rows given label i that the model pulls hardest toward j, by the margin
// p(j) - p(i).
func pruneByNoiseRate(rows []vector.V, y []int, joint [][]int) map[int]struct{} {
	flagged := make(map[int]struct{})
	for given := range joint {
		for suggested := range joint[given] {
			if suggested == given || joint[given][suggested] == 0 {
				continue
			}
			q := pqueue.New[int](pqueue.WithOrderDesc[int](), pqueue.WithCap[int](uint(joint[given][suggested])))
			for i, row := range rows {
				if y[i] != given || row.ArgMax() != suggested {
					continue
				}
				q.Push(i, row[suggested]-row[given])
			}
			for _, i := range q.PopAll() {
				flagged[i] = struct{}{}
			}
		}
	}
	return flagged
}

// pruneByClass flags, for every class, the least self confident rows of that
// class, as many as its total off-diagonal joint mass.
func pruneByClass(rows []vector.V, y []int, joint [][]int) map[int]struct{} {
	flagged := make(map[int]struct{})
	for given := range joint {
		var num int
		for suggested := range joint[given] {
			if suggested != given {
				num += joint[given][suggested]
			}
		}
		if num == 0 {
			continue
		}
		q := pqueue.New[int](pqueue.WithOrderAsc[int](), pqueue.WithCap[int](uint(num)))
		for i, row := range rows {
			if y[i] != given || row.ArgMax() == given {
				continue
			}
			q.Push(i, row[given])
		}
		for _, i := range q.PopAll() {
			flagged[i] = struct{}{}
		}
	}
	return flagged
}

func intersect(a, b map[int]struct{}) map[int]struct{} {
	out := make(map[int]struct{})
	for i := range a {
		if _, ok := b[i]; ok {
			out[i] = struct{}{}
		}
	}
	return out
}
