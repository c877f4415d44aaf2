package loader

import (
	"fmt"
	"math/rand"

	"github.com/go-sift/sift/internal/dataset"
)

type NoiseType string

const (
	// NoiseTypeUniform flips a label to a uniformly random other class.
	NoiseTypeUniform NoiseType = "UNIFORM"
	// NoiseTypePairwise flips class c to class (c+1) mod classes.
	NoiseTypePairwise NoiseType = "PAIRWISE"
)

// InjectNoise flips the labels of a seeded random fraction of rows in place
// and returns the ground truth: flipped row index to original label.
func InjectNoise(d *dataset.Dataset, rate float64, typ NoiseType, seed int64) (map[int]int, error) {
	if rate < 0 || rate > 1 {
		return nil, fmt.Errorf("noise rate %f out of [0,1]", rate)
	}
	if d.Classes < 2 {
		return nil, fmt.Errorf("dataset %s has %d classes, at least 2 required", d.Name, d.Classes)
	}

	rnd := rand.New(rand.NewSource(seed))
	n := int(rate * float64(d.Len()))
	flips := make(map[int]int, n)
	for _, row := range rnd.Perm(d.Len())[:n] {
		orig := d.Y[row]
		switch typ {
		case NoiseTypeUniform:
			next := rnd.Intn(d.Classes - 1)
			if next >= orig {
				next++
			}
			d.Y[row] = next
		case NoiseTypePairwise:
			d.Y[row] = (orig + 1) % d.Classes
		default:
			return nil, fmt.Errorf("unknown noise type: %s", typ)
		}
		flips[row] = orig
	}
	return flips, nil
}
