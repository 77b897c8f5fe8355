package wrappers

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/samuelfneumann/pricelearn/environment"
	ts "github.com/samuelfneumann/pricelearn/timestep"
	"github.com/samuelfneumann/pricelearn/utils/floatutils"
	"github.com/samuelfneumann/pricelearn/utils/matutils"
)

// RescaleAction wraps an environment with bounded continuous actions so
// that agents act in [-1, 1] along each action dimension. Actions are
// clipped to [-1, 1] and then mapped affinely onto the wrapped
// environment's action bounds, so that -1 maps to the lower bound and
// 1 maps to the upper bound.
type RescaleAction struct {
	environment.Environment
	lower, upper *mat.VecDense
}

// NewRescaleAction returns a new RescaleAction wrapping env. The wrapped
// environment is not reset.
func NewRescaleAction(env environment.Environment) (*RescaleAction, error) {
	actionSpec := env.ActionSpec()
	if actionSpec.Cardinality != environment.Continuous {
		return nil, fmt.Errorf("newRescaleAction: cannot rescale %v actions",
			actionSpec.Cardinality)
	}
	if actionSpec.LowerBound == nil || actionSpec.UpperBound == nil {
		return nil, fmt.Errorf("newRescaleAction: action rescaling " +
			"requires bounded actions")
	}
	if !matutils.AllFinite(actionSpec.LowerBound) ||
		!matutils.AllFinite(actionSpec.UpperBound) {
		return nil, fmt.Errorf("newRescaleAction: action bounds must be " +
			"finite")
	}

	return &RescaleAction{
		Environment: env,
		lower:       mat.VecDenseCopyOf(actionSpec.LowerBound),
		upper:       mat.VecDenseCopyOf(actionSpec.UpperBound),
	}, nil
}

// Rescale maps an action in [-1, 1] to the wrapped environment's action
// bounds
func (r *RescaleAction) Rescale(a mat.Vector) *mat.VecDense {
	rescaled := mat.NewVecDense(a.Len(), nil)
	for i := 0; i < a.Len(); i++ {
		unit := (floatutils.Clip(a.AtVec(i), -1, 1) + 1) / 2
		lo, hi := r.lower.AtVec(i), r.upper.AtVec(i)

		rescaled.SetVec(i, floatutils.Clip(lo+unit*(hi-lo), lo, hi))
	}
	return rescaled
}

// Step takes one environmental step given action a in [-1, 1]
func (r *RescaleAction) Step(a *mat.VecDense) (ts.TimeStep, bool, error) {
	if a.Len() != r.lower.Len() {
		return ts.TimeStep{}, false, fmt.Errorf("step: illegal action "+
			"dimensions \n\twant(%v) \n\thave(%v)", r.lower.Len(), a.Len())
	}
	if !matutils.AllFinite(a) {
		return ts.TimeStep{}, false, fmt.Errorf("step: illegal action %v",
			matutils.Format(a))
	}

	return r.Environment.Step(r.Rescale(a))
}

// ActionSpec returns the action specification of the environment
func (r *RescaleAction) ActionSpec() environment.Spec {
	length := r.lower.Len()
	shape := mat.NewVecDense(length, nil)

	lowerBound := matutils.VecOnes(length)
	lowerBound.ScaleVec(-1.0, lowerBound)
	upperBound := matutils.VecOnes(length)

	return environment.NewSpec(shape, environment.Action, lowerBound,
		upperBound, environment.Continuous)
}

// String returns a string representation of the RescaleAction
// environment
func (r *RescaleAction) String() string {
	return fmt.Sprintf("RescaleAction: %v", r.Environment)
}
