package dataset

import (
	"fmt"

	"github.com/go-sift/sift/pkg/math/vector"
	"gonum.org/v1/gonum/mat"
)

// Dataset is a labeled feature matrix. Rows of X line up with Y. Index maps
// every row back to the row of the dataset it was split from, so findings on
// a subset can be reported in the coordinates of the source dataset.
type Dataset struct {
	Name         string
	X            *mat.Dense
	Y            []int
	Classes      int
	Index        []int
	FeatureNames []string
}

func New(name string, rows [][]float64, y []int) (*Dataset, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("dataset %s is empty", name)
	}
	if len(rows) != len(y) {
		return nil, fmt.Errorf("dataset %s: rows num %d is not equal labels num %d", name, len(rows), len(y))
	}
	dims := len(rows[0])
	flat := make([]float64, 0, len(rows)*dims)
	for i := range rows {
		if len(rows[i]) != dims {
			return nil, fmt.Errorf("dataset %s: row %d has %d features, expected %d", name, i, len(rows[i]), dims)
		}
		flat = append(flat, rows[i]...)
	}
	classes := 0
	for i := range y {
		if y[i] < 0 {
			return nil, fmt.Errorf("dataset %s: negative label %d at row %d", name, y[i], i)
		}
		if y[i]+1 > classes {
			classes = y[i] + 1
		}
	}
	index := make([]int, len(rows))
	for i := range index {
		index[i] = i
	}
	return &Dataset{
		Name:    name,
		X:       mat.NewDense(len(rows), dims, flat),
		Y:       y,
		Classes: classes,
		Index:   index,
	}, nil
}

func (d *Dataset) Len() int {
	n, _ := d.X.Dims()
	return n
}

func (d *Dataset) Dims() int {
	_, dims := d.X.Dims()
	return dims
}

func (d *Dataset) Row(i int) vector.V {
	return vector.New(d.X.RawRowView(i))
}

// Subset returns a new dataset made of the given row indices. The class
// count is inherited so probability matrices stay aligned across splits.
func (d *Dataset) Subset(idx []int) *Dataset {
	dims := d.Dims()
	x := mat.NewDense(len(idx), dims, nil)
	y := make([]int, len(idx))
	index := make([]int, len(idx))
	for i, j := range idx {
		x.SetRow(i, d.X.RawRowView(j))
		y[i] = d.Y[j]
		index[i] = d.Index[j]
	}
	return &Dataset{
		Name:         d.Name,
		X:            x,
		Y:            y,
		Classes:      d.Classes,
		Index:        index,
		FeatureNames: d.FeatureNames,
	}
}

// Relabel returns a copy of the dataset with labels replaced at the given
// row indices.
func (d *Dataset) Relabel(labels map[int]int) *Dataset {
	y := make([]int, len(d.Y))
	copy(y, d.Y)
	for i, label := range labels {
		y[i] = label
	}
	return &Dataset{
		Name:         d.Name,
		X:            d.X,
		Y:            y,
		Classes:      d.Classes,
		Index:        d.Index,
		FeatureNames: d.FeatureNames,
	}
}

// Drop returns a copy of the dataset without the given row indices.
func (d *Dataset) Drop(idx map[int]struct{}) *Dataset {
	keep := make([]int, 0, d.Len())
	for i := 0; i < d.Len(); i++ {
		if _, ok := idx[i]; !ok {
			keep = append(keep, i)
		}
	}
	return d.Subset(keep)
}
