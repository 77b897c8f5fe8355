package experiment

import (
	"fmt"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"
	"gonum.org/v1/gonum/stat/distmv"

	"github.com/samuelfneumann/pricelearn/agent"
	"github.com/samuelfneumann/pricelearn/environment"
	ts "github.com/samuelfneumann/pricelearn/timestep"
)

// FixedPolicy is a Policy which always selects the same action. It is
// useful as a baseline to compare learned pricing policies against.
type FixedPolicy struct {
	action *mat.VecDense
	eval   bool
}

// NewFixedPolicy returns a FixedPolicy which always selects action
func NewFixedPolicy(action *mat.VecDense) *FixedPolicy {
	return &FixedPolicy{action: mat.VecDenseCopyOf(action)}
}

// SelectAction returns a copy of the fixed action
func (f *FixedPolicy) SelectAction(ts.TimeStep) *mat.VecDense {
	return mat.VecDenseCopyOf(f.action)
}

// Eval sets the policy to evaluation mode
func (f *FixedPolicy) Eval() { f.eval = true }

// Train sets the policy to training mode
func (f *FixedPolicy) Train() { f.eval = false }

// IsEval returns whether the policy is in evaluation mode
func (f *FixedPolicy) IsEval() bool { return f.eval }

var _ agent.Policy = &FixedPolicy{}

// UniformPolicy selects actions uniformly at random within the bounds
// of an action Spec. It ignores evaluation mode.
type UniformPolicy struct {
	dist *distmv.Uniform
	eval bool
}

// NewUniformPolicy returns a UniformPolicy over the bounds of spec
func NewUniformPolicy(spec environment.Spec, seed uint64) (*UniformPolicy,
	error) {
	if spec.LowerBound == nil || spec.UpperBound == nil {
		return nil, fmt.Errorf("newUniformPolicy: action spec must be " +
			"bounded")
	}

	bounds := make([]r1.Interval, spec.LowerBound.Len())
	for i := range bounds {
		bounds[i] = r1.Interval{
			Min: spec.LowerBound.AtVec(i),
			Max: spec.UpperBound.AtVec(i),
		}
		if bounds[i].Min > bounds[i].Max {
			return nil, fmt.Errorf("newUniformPolicy: illegal bounds %v",
				bounds[i])
		}
	}

	return &UniformPolicy{
		dist: distmv.NewUniform(bounds, rand.NewSource(seed)),
	}, nil
}

// SelectAction samples an action
func (u *UniformPolicy) SelectAction(ts.TimeStep) *mat.VecDense {
	action := u.dist.Rand(nil)
	return mat.NewVecDense(len(action), action)
}

// Eval sets the policy to evaluation mode
func (u *UniformPolicy) Eval() { u.eval = true }

// Train sets the policy to training mode
func (u *UniformPolicy) Train() { u.eval = false }

// IsEval returns whether the policy is in evaluation mode
func (u *UniformPolicy) IsEval() bool { return u.eval }

var _ agent.Policy = &UniformPolicy{}
