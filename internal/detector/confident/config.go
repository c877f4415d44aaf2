package confident

import (
	"github.com/go-sift/sift/internal/detector"
)

type FilterMethod string

const (
	FilterMethodPruneByNoiseRate FilterMethod = "PRUNE_BY_NOISE_RATE"
	FilterMethodPruneByClass     FilterMethod = "PRUNE_BY_CLASS"
	FilterMethodBoth             FilterMethod = "BOTH"
)

type Config struct {
	ScoreMethod  detector.ScoreMethod `envconfig:"SIFT_CONFIDENT_SCORE_METHOD" default:"SELF_CONFIDENCE"`
	FilterMethod FilterMethod         `envconfig:"SIFT_CONFIDENT_FILTER_METHOD" default:"PRUNE_BY_NOISE_RATE"`
}
