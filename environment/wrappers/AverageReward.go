package wrappers

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/samuelfneumann/pricelearn/environment"
	ts "github.com/samuelfneumann/pricelearn/timestep"
)

// AverageReward wraps an environment and alters rewards so that the
// differential reward is returned for each action. The pricing task
// never terminates on its own, so the average reward formulation is a
// natural fit: an agent trained on an AverageReward environment learns
// to maximize the long-run revenue gain per step instead of a
// discounted sum.
//
// The average reward of a policy is estimated as an exponential moving
// average of the rewards produced by the wrapped environment:
//
//		avgReward <- avgReward + learningRate * (reward - avgReward)
//
// The returned reward for a step is then reward - avgReward. The
// average reward setting uses no discounting, so all discounts are 1.0.
type AverageReward struct {
	environment.Environment
	avgReward    float64
	learningRate float64
}

// NewAverageReward creates and returns a new AverageReward environment
// wrapper. The init parameter is the initial value for the average
// reward, usually set to 0.
func NewAverageReward(env environment.Environment, init,
	learningRate float64) (*AverageReward, ts.TimeStep, error) {
	if learningRate <= 0 || learningRate > 1 {
		return nil, ts.TimeStep{}, fmt.Errorf("newAverageReward: learning "+
			"rate must be in (0, 1] \n\thave(%v)", learningRate)
	}

	a := &AverageReward{env, init, learningRate}
	step, err := a.Reset()
	if err != nil {
		return nil, ts.TimeStep{}, fmt.Errorf("newAverageReward: %w", err)
	}
	return a, step, nil
}

// Reset resets the environment and returns a starting state drawn from
// the environment Starter. The average reward estimate is kept across
// episodes.
func (a *AverageReward) Reset() (ts.TimeStep, error) {
	step, err := a.Environment.Reset()
	step.Discount = 1.0
	return step, err
}

// Step takes one environmental step given action and returns the next
// timestep with the differential reward
func (a *AverageReward) Step(action *mat.VecDense) (ts.TimeStep, bool,
	error) {
	step, last, err := a.Environment.Step(action)
	if err != nil {
		return step, last, err
	}

	a.avgReward += a.learningRate * (step.Reward - a.avgReward)
	step.Reward -= a.avgReward
	step.Discount = 1.0

	return step, last, nil
}

// AverageReward returns the current estimate of the average reward
func (a *AverageReward) AverageReward() float64 {
	return a.avgReward
}

// RewardSpec returns the reward specification for the environment.
// Differential rewards depend on the policy, so they are unbounded.
func (a *AverageReward) RewardSpec() environment.Spec {
	rewardSpec := a.Environment.RewardSpec()
	rewardSpec.LowerBound = nil
	rewardSpec.UpperBound = nil

	return rewardSpec
}

// DiscountSpec returns the discount specification for the environment.
// Average reward setting does not use discounting, so the discount
// value is always set to 1.0.
func (a *AverageReward) DiscountSpec() environment.Spec {
	return environment.NewScalarSpec(environment.Discount, 1.0, 1.0)
}

// String returns a string representation of the AverageReward
// environment
func (a *AverageReward) String() string {
	return fmt.Sprintf("Average Reward: %v", a.Environment)
}
