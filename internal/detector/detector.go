// Package detector defines the label issue detection contract: a detector
// consumes a labeled dataset together with out-of-sample predicted
// probabilities and returns findings, one per suspect example.
package detector

import (
	"context"
	"fmt"
	"math"

	"github.com/go-sift/sift/internal/dataset"
	"github.com/go-sift/sift/pkg/math/vector"
	"github.com/go-sift/sift/pkg/pqueue"
	"gonum.org/v1/gonum/mat"
)

type ProvideFn func() (Detector, error)

// Finding is a single suspected label issue. Index is the row of the source
// dataset the example was split from, so findings from a subset stay
// addressable in the original coordinates. Lower Score means more suspect.
type Finding struct {
	Index          int     `json:"index"`
	GivenLabel     int     `json:"givenLabel"`
	SuggestedLabel int     `json:"suggestedLabel"`
	Score          float64 `json:"score"`
	Issue          bool    `json:"issue"`
}

type Detector interface {
	Detect(ctx context.Context, d *dataset.Dataset, probs *mat.Dense) ([]Finding, error)
}

type AlgType string

const (
	AlgTypeConfident AlgType = "CONFIDENT"
)

type Config struct {
	Type AlgType `envconfig:"SIFT_DETECTOR_TYPE" default:"CONFIDENT"`
}

func (c Config) DetectorType() AlgType {
	return c.Type
}

type ScoreMethod string

const (
	ScoreMethodSelfConfidence            ScoreMethod = "SELF_CONFIDENCE"
	ScoreMethodNormalizedMargin          ScoreMethod = "NORMALIZED_MARGIN"
	ScoreMethodConfidenceWeightedEntropy ScoreMethod = "CONFIDENCE_WEIGHTED_ENTROPY"
)

// ScoreFn rates how well a probability row supports the given label. The
// result is in [0, 1], lower means the label looks worse.
type ScoreFn func(probs vector.V, label int) float64

func ScoreFuncFor(m ScoreMethod) (ScoreFn, error) {
	switch m {
	case ScoreMethodSelfConfidence:
		return SelfConfidence, nil
	case ScoreMethodNormalizedMargin:
		return NormalizedMargin, nil
	case ScoreMethodConfidenceWeightedEntropy:
		return ConfidenceWeightedEntropy, nil
	default:
		return nil, fmt.Errorf("unknown score method: %s", m)
	}
}

// SelfConfidence is the predicted probability of the given label.
func SelfConfidence(probs vector.V, label int) float64 {
	return probs[label]
}

// NormalizedMargin is the gap between the given label probability and the
// strongest competing class, shifted from [-1, 1] into [0, 1].
func NormalizedMargin(probs vector.V, label int) float64 {
	maxOther := 0.0
	for i := range probs {
		if i == label {
			continue
		}
		if probs[i] > maxOther {
			maxOther = probs[i]
		}
	}
	return (probs[label] - maxOther + 1) / 2
}

// ConfidenceWeightedEntropy discounts the self confidence by the normalized
// entropy of the whole row, so rows the model is confused about rank worse
// than rows it confidently disagrees on by the same amount.
func ConfidenceWeightedEntropy(probs vector.V, label int) float64 {
	if len(probs) < 2 {
		return probs[label]
	}
	norm := probs.Entropy() / math.Log(float64(len(probs)))
	return probs[label] * (1 - norm)
}

// Rank orders findings worst first and keeps at most limit of them. A
// non-positive limit keeps everything.
func Rank(findings []Finding, limit int) []Finding {
	opts := []pqueue.Option[Finding]{pqueue.WithOrderAsc[Finding]()}
	if limit > 0 {
		opts = append(opts, pqueue.WithCap[Finding](uint(limit)))
	}
	q := pqueue.New[Finding](opts...)
	for _, f := range findings {
		q.Push(f, f.Score)
	}
	return q.PopAll()
}
