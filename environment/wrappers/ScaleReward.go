package wrappers

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/samuelfneumann/pricelearn/environment"
	ts "github.com/samuelfneumann/pricelearn/timestep"
	"github.com/samuelfneumann/pricelearn/utils/floatutils"
)

// ScaleReward wraps an environment and multiplies every reward by a
// positive constant. Revenue deltas in the pricing environment are
// in the millions, which is far outside the range most step sizes are
// tuned for.
type ScaleReward struct {
	environment.Environment
	scale float64
}

// NewScaleReward returns a new ScaleReward wrapping env. The wrapped
// environment is not reset.
func NewScaleReward(env environment.Environment, scale float64) (
	*ScaleReward, error) {
	if scale <= 0 || !floatutils.IsFinite(scale) {
		return nil, fmt.Errorf("newScaleReward: scale must be positive "+
			"and finite \n\thave(%v)", scale)
	}
	return &ScaleReward{env, scale}, nil
}

// Scale returns the scaling factor applied to rewards
func (s *ScaleReward) Scale() float64 {
	return s.scale
}

// Reset resets the environment to some starting state
func (s *ScaleReward) Reset() (ts.TimeStep, error) {
	step, err := s.Environment.Reset()
	step.Reward *= s.scale
	return step, err
}

// Step takes one environmental step given action a
func (s *ScaleReward) Step(a *mat.VecDense) (ts.TimeStep, bool, error) {
	step, last, err := s.Environment.Step(a)
	step.Reward *= s.scale
	return step, last, err
}

// CurrentTimeStep returns the last TimeStep that occurred in the
// environment, with a scaled reward
func (s *ScaleReward) CurrentTimeStep() ts.TimeStep {
	step := s.Environment.CurrentTimeStep()
	step.Reward *= s.scale
	return step
}

// GetReward returns the scaled reward for the transition
func (s *ScaleReward) GetReward(state, action, nextState mat.Vector) float64 {
	return s.scale * s.Environment.GetReward(state, action, nextState)
}

// Min returns the minimum scaled reward
func (s *ScaleReward) Min() float64 {
	return s.scale * s.Environment.Min()
}

// Max returns the maximum scaled reward
func (s *ScaleReward) Max() float64 {
	return s.scale * s.Environment.Max()
}

// RewardSpec returns the reward specification of the environment
func (s *ScaleReward) RewardSpec() environment.Spec {
	return environment.NewScalarSpec(environment.Reward, s.Min(), s.Max())
}

// String returns a string representation of the ScaleReward environment
func (s *ScaleReward) String() string {
	return fmt.Sprintf("ScaleReward(%v): %v", s.scale, s.Environment)
}

