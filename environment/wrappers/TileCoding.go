// Package wrappers provides wrappers for environments
package wrappers

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/samuelfneumann/pricelearn/environment"
	ts "github.com/samuelfneumann/pricelearn/timestep"
	"github.com/samuelfneumann/pricelearn/utils/matutils"
	"github.com/samuelfneumann/pricelearn/utils/matutils/tilecoder"
)

// TileCoding wraps an environment and returns tile-coded observations
// of the wrapped environment's states. For example, the observation
// [price, demand] may be returned as [1 0 0 1 0 1 0 0 0 1].
//
// TileCoding itself implements the environment.Environment interface
// and is therefore itself an environment. All tile-coded
// representations contain a bias unit as their first feature.
type TileCoding struct {
	environment.Environment
	coder *tilecoder.TileCoder
}

// NewTileCoding creates and returns a new TileCoding environment,
// wrapping an existing environment. The wrapped environment is reset
// when wrapped by calling the wrapped environment's Reset() method.
//
// The bins parameter specifies both how many tilings to use as well
// as the number of tiles per tiling. The length of the outer-slice is
// the number of tilings. The lengths of the inner-slices are the
// number of bins per dimension for that tiling.
//
// See tilecoder.TileCoder for more details.
func NewTileCoding(env environment.Environment, bins [][]int,
	seed uint64) (*TileCoding, ts.TimeStep, error) {
	envSpec := env.ObservationSpec()
	if envSpec.LowerBound == nil || envSpec.UpperBound == nil {
		return nil, ts.TimeStep{}, fmt.Errorf("newTileCoding: tile coding " +
			"requires bounded observations")
	}

	coder, err := tilecoder.New(envSpec.LowerBound, envSpec.UpperBound, bins,
		seed, true)
	if err != nil {
		return nil, ts.TimeStep{}, fmt.Errorf("newTileCoding: %w", err)
	}

	tileCoded := &TileCoding{env, coder}
	step, err := tileCoded.Reset()
	if err != nil {
		return nil, ts.TimeStep{}, fmt.Errorf("newTileCoding: %w", err)
	}

	return tileCoded, step, nil
}

// Reset resets the environment to some starting state
func (t *TileCoding) Reset() (ts.TimeStep, error) {
	step, err := t.Environment.Reset()
	if err != nil {
		return step, err
	}

	step.Observation = t.coder.Encode(step.Observation)
	return step, nil
}

// Step takes one environmental step given action a and returns the next
// state as a timestep.TimeStep and a bool indicating whether or not the
// episode has ended
func (t *TileCoding) Step(a *mat.VecDense) (ts.TimeStep, bool, error) {
	step, last, err := t.Environment.Step(a)
	if err != nil {
		return step, last, err
	}

	step.Observation = t.coder.Encode(step.Observation)
	return step, last, nil
}

// CurrentTimeStep returns the last TimeStep that occurred in the
// environment, with a tile-coded observation
func (t *TileCoding) CurrentTimeStep() ts.TimeStep {
	step := t.Environment.CurrentTimeStep().Clone()
	if step.Observation != nil {
		step.Observation = t.coder.Encode(step.Observation)
	}
	return step
}

// ObservationSpec returns the observation specification of the
// environment
func (t *TileCoding) ObservationSpec() environment.Spec {
	length := t.coder.VecLength()
	shape := mat.NewVecDense(length, nil)
	lowerBound := mat.NewVecDense(length, nil)
	upperBound := matutils.VecOnes(length)

	return environment.NewSpec(shape, environment.Observation, lowerBound,
		upperBound, environment.Discrete)
}

// String returns a string representation of the TileCoding environment
func (t *TileCoding) String() string {
	return fmt.Sprintf("TileCoding(%v): %v", t.coder, t.Environment)
}
