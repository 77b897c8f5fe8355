package wrappers

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/samuelfneumann/pricelearn/environment"
	ts "github.com/samuelfneumann/pricelearn/timestep"
	"github.com/samuelfneumann/pricelearn/utils/floatutils"
	"github.com/samuelfneumann/pricelearn/utils/matutils"
)

// Normalize wraps an environment and rescales each observation feature
// to [0, 1] using the wrapped environment's observation bounds. A bias
// feature of 1.0 is appended to each normalized observation, so that
// agents which are linear in their observations can learn an offset.
// Features outside the observation bounds are clipped.
type Normalize struct {
	environment.Environment
	lower, width *mat.VecDense
}

// NewNormalize creates and returns a new Normalize environment wrapping
// env. The wrapped environment is reset.
func NewNormalize(env environment.Environment) (*Normalize, ts.TimeStep,
	error) {
	obsSpec := env.ObservationSpec()
	if obsSpec.LowerBound == nil || obsSpec.UpperBound == nil {
		return nil, ts.TimeStep{}, fmt.Errorf("newNormalize: " +
			"normalization requires bounded observations")
	}

	width := mat.NewVecDense(obsSpec.Shape.Len(), nil)
	width.SubVec(obsSpec.UpperBound, obsSpec.LowerBound)
	for i := 0; i < width.Len(); i++ {
		if width.AtVec(i) < 0 || !floatutils.IsFinite(width.AtVec(i)) {
			return nil, ts.TimeStep{}, fmt.Errorf("newNormalize: illegal "+
				"observation bounds for feature %d \n\thave([%v, %v])", i,
				obsSpec.LowerBound.AtVec(i), obsSpec.UpperBound.AtVec(i))
		}
	}

	n := &Normalize{
		Environment: env,
		lower:       mat.VecDenseCopyOf(obsSpec.LowerBound),
		width:       width,
	}

	step, err := n.Reset()
	if err != nil {
		return nil, ts.TimeStep{}, fmt.Errorf("newNormalize: %w", err)
	}
	return n, step, nil
}

// normalize returns the normalized version of obs, including the bias
func (n *Normalize) normalize(obs mat.Vector) *mat.VecDense {
	normalized := mat.NewVecDense(obs.Len()+1, nil)
	for i := 0; i < obs.Len(); i++ {
		// Degenerate features carry no information
		if n.width.AtVec(i) == 0 {
			continue
		}
		v := (obs.AtVec(i) - n.lower.AtVec(i)) / n.width.AtVec(i)
		normalized.SetVec(i, floatutils.Clip(v, 0, 1))
	}
	normalized.SetVec(obs.Len(), 1.0)

	return normalized
}

// Reset resets the environment to some starting state
func (n *Normalize) Reset() (ts.TimeStep, error) {
	step, err := n.Environment.Reset()
	if err != nil {
		return step, err
	}

	step.Observation = n.normalize(step.Observation)
	return step, nil
}

// Step takes one environmental step given action a
func (n *Normalize) Step(a *mat.VecDense) (ts.TimeStep, bool, error) {
	step, last, err := n.Environment.Step(a)
	if err != nil {
		return step, last, err
	}

	step.Observation = n.normalize(step.Observation)
	return step, last, nil
}

// CurrentTimeStep returns the last TimeStep that occurred in the
// environment, with a normalized observation
func (n *Normalize) CurrentTimeStep() ts.TimeStep {
	step := n.Environment.CurrentTimeStep().Clone()
	if step.Observation != nil {
		step.Observation = n.normalize(step.Observation)
	}
	return step
}

// ObservationSpec returns the observation specification of the
// environment
func (n *Normalize) ObservationSpec() environment.Spec {
	length := n.lower.Len() + 1
	shape := mat.NewVecDense(length, nil)

	lowerBound := mat.NewVecDense(length, nil)
	lowerBound.SetVec(length-1, 1.0)
	upperBound := matutils.VecOnes(length)

	return environment.NewSpec(shape, environment.Observation, lowerBound,
		upperBound, environment.Continuous)
}

// String returns a string representation of the Normalize environment
func (n *Normalize) String() string {
	return fmt.Sprintf("Normalize: %v", n.Environment)
}
