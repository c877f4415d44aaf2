// Package crossval computes out-of-sample predicted probabilities with
// stratified cross validation. Every row is predicted by a model that never
// saw it during training, which is what the label issue detectors require.
package crossval

import (
	"context"
	"fmt"

	"github.com/go-sift/sift/internal/classifier"
	"github.com/go-sift/sift/internal/dataset"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
)

const MinFoldsNum = 2

type Config struct {
	FoldsNum int   `envconfig:"SIFT_CROSSVAL_FOLDS_NUM" default:"5"`
	Seed     int64 `envconfig:"SIFT_CROSSVAL_SEED" default:"42"`
}

type Option func(*Options)

type Options struct {
	foldsNum int
	seed     int64
}

func WithFoldsNum(k int) Option {
	return func(o *Options) {
		o.foldsNum = k
	}
}

func WithSeed(seed int64) Option {
	return func(o *Options) {
		o.seed = seed
	}
}

var defaultOptions = Options{foldsNum: 5, seed: 42}

// OutOfSample fits one fresh classifier per fold on the fold complement and
// fills the probability rows of the held out fold. Folds run concurrently
// and write disjoint rows of the shared matrix.
func OutOfSample(ctx context.Context, provideFn classifier.ProvideFn, d *dataset.Dataset, opts ...Option) (*mat.Dense, error) {
	options := defaultOptions
	for _, f := range opts {
		f(&options)
	}
	if options.foldsNum < MinFoldsNum {
		return nil, fmt.Errorf("the folds num selected in the config is too small")
	}
	folds, err := dataset.StratifiedKFold(d.Y, d.Classes, options.foldsNum, options.seed)
	if err != nil {
		return nil, fmt.Errorf("unable to split dataset %s into folds: %w", d.Name, err)
	}

	probs := mat.NewDense(d.Len(), d.Classes, nil)
	g, ctx := errgroup.WithContext(ctx)
	for i := range folds {
		fold := folds[i]
		g.Go(func() error {
			clf, err := provideFn()
			if err != nil {
				return fmt.Errorf("unable to provide classifier: %w", err)
			}
			train := d.Subset(dataset.Complement(fold, d.Len()))
			if err := clf.Fit(ctx, train); err != nil {
				return fmt.Errorf("unable to fit fold model: %w", err)
			}
			hold := d.Subset(fold)
			foldProbs, err := clf.PredictProba(hold.X)
			if err != nil {
				return fmt.Errorf("unable to predict held out fold: %w", err)
			}
			if clf.Classes() != d.Classes {
				return fmt.Errorf("fold model has %d classes, dataset has %d", clf.Classes(), d.Classes)
			}
			for j, idx := range fold {
				probs.SetRow(idx, foldProbs.RawRowView(j))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return probs, nil
}
