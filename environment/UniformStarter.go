package environment

import (
	"golang.org/x/exp/rand"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"
	"gonum.org/v1/gonum/stat/distmv"
)

// UniformStarter samples starting states uniformly from a box. Each
// feature i is sampled from bounds[i]. Degenerate intervals (Min == Max)
// always produce the bound itself.
type UniformStarter struct {
	features int
	seed     uint64
	bounds   []r1.Interval
	rand     *distmv.Uniform
}

// NewUniformStarter returns a new UniformStarter
func NewUniformStarter(bounds []r1.Interval, seed uint64) *UniformStarter {
	source := rand.NewSource(seed)
	rand := distmv.NewUniform(bounds, source)

	return &UniformStarter{len(bounds), seed, bounds, rand}
}

// Start returns a starting state vector
func (u *UniformStarter) Start() *mat.VecDense {
	start := u.rand.Rand(nil)

	// Pin degenerate intervals exactly
	for i, b := range u.bounds {
		if b.Min == b.Max {
			start[i] = b.Min
		}
	}
	return mat.NewVecDense(u.features, start)
}

// Bounds returns the intervals that starting states are sampled from
func (u *UniformStarter) Bounds() []r1.Interval {
	bounds := make([]r1.Interval, len(u.bounds))
	copy(bounds, u.bounds)
	return bounds
}
