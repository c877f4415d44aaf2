package loader

import (
	"fmt"
	"os"

	"github.com/davecgh/go-xdr/xdr2"
	"github.com/go-sift/sift/internal/dataset"
	"gonum.org/v1/gonum/mat"
)

// snapshot is the xdr wire form of a loaded dataset, so a preprocessed file
// can be reloaded without re-parsing and re-encoding the source.
type snapshot struct {
	Name         string
	Rows         uint32
	Dims         uint32
	Classes      uint32
	X            []float64
	Y            []int32
	FeatureNames []string
}

func SaveSnapshot(path string, d *dataset.Dataset) error {
	rows, dims := d.X.Dims()
	s := snapshot{
		Name:         d.Name,
		Rows:         uint32(rows),
		Dims:         uint32(dims),
		Classes:      uint32(d.Classes),
		X:            make([]float64, 0, rows*dims),
		Y:            make([]int32, len(d.Y)),
		FeatureNames: d.FeatureNames,
	}
	for i := 0; i < rows; i++ {
		s.X = append(s.X, d.X.RawRowView(i)...)
	}
	for i, label := range d.Y {
		s.Y[i] = int32(label)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("unable create snapshot file: %w", err)
	}
	defer f.Close()

	if _, err := xdr.Marshal(f, &s); err != nil {
		return fmt.Errorf("unable encode snapshot: %w", err)
	}
	return nil
}

func LoadSnapshot(path string) (*dataset.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("unable open snapshot file: %w", err)
	}
	defer f.Close()

	var s snapshot
	if _, err := xdr.Unmarshal(f, &s); err != nil {
		return nil, fmt.Errorf("unable decode snapshot: %w", err)
	}
	rows, dims := int(s.Rows), int(s.Dims)
	if rows*dims != len(s.X) {
		return nil, fmt.Errorf("snapshot %s is corrupt: %dx%d dims, %d values", path, rows, dims, len(s.X))
	}
	if rows != len(s.Y) {
		return nil, fmt.Errorf("snapshot %s is corrupt: %d rows, %d labels", path, rows, len(s.Y))
	}

	y := make([]int, len(s.Y))
	for i, label := range s.Y {
		y[i] = int(label)
	}
	index := make([]int, rows)
	for i := range index {
		index[i] = i
	}
	return &dataset.Dataset{
		Name:         s.Name,
		X:            mat.NewDense(rows, dims, s.X),
		Y:            y,
		Classes:      int(s.Classes),
		Index:        index,
		FeatureNames: s.FeatureNames,
	}, nil
}
