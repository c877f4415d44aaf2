package logreg

import (
	"context"
	"fmt"
	"math"
	"math/rand"

	"github.com/go-sift/sift/internal/classifier"
	"github.com/go-sift/sift/internal/dataset"
	"gonum.org/v1/gonum/mat"
)

var _ classifier.Classifier = (*logreg)(nil)

type Config struct {
	LearningRate float64 `envconfig:"SIFT_LOGREG_LEARNING_RATE" default:"0.1"`
	Epochs       int     `envconfig:"SIFT_LOGREG_EPOCHS" default:"100"`
	BatchSize    int     `envconfig:"SIFT_LOGREG_BATCH_SIZE" default:"32"`
	L2           float64 `envconfig:"SIFT_LOGREG_L2" default:"0.0001"`
	Seed         int64   `envconfig:"SIFT_LOGREG_SEED" default:"1"`
}

type Option func(*logreg)

func WithLearningRate(lr float64) Option {
	return func(l *logreg) {
		l.opts.learningRate = lr
	}
}

func WithEpochs(n int) Option {
	return func(l *logreg) {
		l.opts.epochs = n
	}
}

func WithBatchSize(n int) Option {
	return func(l *logreg) {
		l.opts.batchSize = n
	}
}

func WithL2(v float64) Option {
	return func(l *logreg) {
		l.opts.l2 = v
	}
}

func WithSeed(seed int64) Option {
	return func(l *logreg) {
		l.opts.seed = seed
	}
}

var defaultOptions = Options{
	learningRate: 0.1,
	epochs:       100,
	batchSize:    32,
	l2:           0.0001,
	seed:         1,
}

type Options struct {
	learningRate float64
	epochs       int
	batchSize    int
	l2           float64
	seed         int64
}

func New(opts ...Option) (*logreg, error) {
	l := &logreg{opts: defaultOptions}
	for _, f := range opts {
		f(l)
	}
	if l.opts.learningRate <= 0 {
		return nil, fmt.Errorf("learning rate %v is not positive", l.opts.learningRate)
	}
	if l.opts.epochs <= 0 {
		return nil, fmt.Errorf("epochs num %d is not positive", l.opts.epochs)
	}
	if l.opts.batchSize <= 0 {
		return nil, fmt.Errorf("batch size %d is not positive", l.opts.batchSize)
	}
	return l, nil
}

// logreg is a multinomial logistic regression trained with minibatch
// gradient descent over the softmax cross-entropy loss.
type logreg struct {
	opts    Options
	weights *mat.Dense // classes x dims
	bias    []float64  // classes
	classes int
}

func (l *logreg) Classes() int {
	return l.classes
}

func (l *logreg) Fit(ctx context.Context, d *dataset.Dataset) error {
	if d.Classes < 2 {
		return fmt.Errorf("dataset %s has %d classes, need at least 2", d.Name, d.Classes)
	}
	n, dims := d.X.Dims()
	l.classes = d.Classes
	l.weights = mat.NewDense(d.Classes, dims, nil)
	l.bias = make([]float64, d.Classes)

	rnd := rand.New(rand.NewSource(l.opts.seed))
	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}

	for epoch := 0; epoch < l.opts.epochs; epoch++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		rnd.Shuffle(n, func(i, j int) {
			indices[i], indices[j] = indices[j], indices[i]
		})
		for start := 0; start < n; start += l.opts.batchSize {
			end := start + l.opts.batchSize
			if end > n {
				end = n
			}
			l.step(d, indices[start:end])
		}
	}
	return nil
}

// step applies one gradient update: grad = (softmax(xW^T+b) - onehot(y))^T x / m.
func (l *logreg) step(d *dataset.Dataset, batch []int) {
	dims := d.Dims()
	gradW := mat.NewDense(l.classes, dims, nil)
	gradB := make([]float64, l.classes)
	m := float64(len(batch))

	for _, idx := range batch {
		row := d.X.RawRowView(idx)
		probs := l.probaRow(row)
		for c := 0; c < l.classes; c++ {
			diff := probs[c]
			if c == d.Y[idx] {
				diff -= 1.0
			}
			gradB[c] += diff
			for j := 0; j < dims; j++ {
				gradW.Set(c, j, gradW.At(c, j)+diff*row[j])
			}
		}
	}

	lr := l.opts.learningRate
	for c := 0; c < l.classes; c++ {
		l.bias[c] -= lr * gradB[c] / m
		for j := 0; j < dims; j++ {
			w := l.weights.At(c, j)
			l.weights.Set(c, j, w-lr*(gradW.At(c, j)/m+l.opts.l2*w))
		}
	}
}

func (l *logreg) PredictProba(x *mat.Dense) (*mat.Dense, error) {
	if l.weights == nil {
		return nil, fmt.Errorf("unable to predict, model is not fitted")
	}
	n, dims := x.Dims()
	_, wDims := l.weights.Dims()
	if dims != wDims {
		return nil, fmt.Errorf("feature num %d is not equal fitted num %d", dims, wDims)
	}
	probs := mat.NewDense(n, l.classes, nil)
	for i := 0; i < n; i++ {
		probs.SetRow(i, l.probaRow(x.RawRowView(i)))
	}
	return probs, nil
}

func (l *logreg) probaRow(row []float64) []float64 {
	logits := make([]float64, l.classes)
	maxLogit := math.Inf(-1)
	for c := 0; c < l.classes; c++ {
		s := l.bias[c]
		for j, v := range row {
			s += l.weights.At(c, j) * v
		}
		logits[c] = s
		if s > maxLogit {
			maxLogit = s
		}
	}
	// softmax with max subtraction to keep exponents in range
	var sum float64
	for c := range logits {
		logits[c] = math.Exp(logits[c] - maxLogit)
		sum += logits[c]
	}
	for c := range logits {
		logits[c] /= sum
	}
	return logits
}
