// Package loader reads labeled datasets from external formats into the
// in-memory dataset model.
package loader

import (
	"context"
	"fmt"

	"github.com/go-sift/sift/internal/dataset"
)

type FormatType string

const (
	FormatTypeCSV FormatType = "CSV"
	FormatTypeIDX FormatType = "IDX"
)

type ScalingType string

const (
	ScalingTypeNone   ScalingType = "NONE"
	ScalingTypeMinMax ScalingType = "MINMAX"
	ScalingTypeZScore ScalingType = "ZSCORE"
)

// Loader parses one source into a dataset. Source is a local path or an
// http(s) url depending on the format.
type Loader interface {
	Load(ctx context.Context, source string) (*dataset.Dataset, error)
}

type Option func(*Options)

type Options struct {
	Name string
	// CSV
	LabelColumn string
	Scaling     ScalingType
	// IDX
	LabelsSource string
}

func WithName(name string) Option {
	return func(o *Options) {
		o.Name = name
	}
}

// WithLabelColumn sets the csv header name of the label column. The last
// column is used when empty.
func WithLabelColumn(name string) Option {
	return func(o *Options) {
		o.LabelColumn = name
	}
}

func WithScaling(s ScalingType) Option {
	return func(o *Options) {
		o.Scaling = s
	}
}

// WithLabelsSource sets the idx label archive path matched with the image
// archive passed to Load.
func WithLabelsSource(source string) Option {
	return func(o *Options) {
		o.LabelsSource = source
	}
}

func For(f FormatType, opts ...Option) (Loader, error) {
	options := Options{Scaling: ScalingTypeNone}
	for _, o := range opts {
		o(&options)
	}
	switch f {
	case FormatTypeCSV:
		return newCSVLoader(options), nil
	case FormatTypeIDX:
		return newIDXLoader(options), nil
	default:
		return nil, fmt.Errorf("unknown loader format: %s", f)
	}
}
