package pricing

import (
	"fmt"

	"github.com/samuelfneumann/pricelearn/environment"
	ts "github.com/samuelfneumann/pricelearn/timestep"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"
)

// NewPriceStarter returns a Starter which samples starting prices
// uniformly from [PMin, PMax]
func NewPriceStarter(d DynamicsParameters, seed uint64) environment.Starter {
	return environment.NewUniformStarter(
		[]r1.Interval{{Min: d.PMin, Max: d.PMax}},
		seed,
	)
}

// RevenueDelta implements the pricing task where the reward for setting
// a price is the revenue earned at the new price minus the revenue
// earned at the previous price:
//
//		R_{t+1} = P_{t+1} * N(P_{t+1}) - P_{t} * N(P_{t})
//
// The task itself never reaches a terminal state. Episodes are cut off
// after a fixed number of steps, and a cutoff of 0 means episodes never
// end, leaving episode length entirely to the caller.
type RevenueDelta struct {
	environment.Starter
	stepLimit *environment.StepLimit

	minRevenue float64
	maxRevenue float64
}

// NewRevenueDelta returns a new RevenueDelta task with starting prices
// drawn from s and episodes cut off after cutoff steps
func NewRevenueDelta(s environment.Starter, d DynamicsParameters,
	cutoff int) (*RevenueDelta, error) {
	if err := d.Validate(); err != nil {
		return nil, fmt.Errorf("newRevenueDelta: %w", err)
	}
	if cutoff < 0 {
		return nil, fmt.Errorf("newRevenueDelta: cutoff must be "+
			"non-negative \n\twant(>=0) \n\thave(%v)", cutoff)
	}

	minRevenue, maxRevenue, err := d.RevenueBounds()
	if err != nil {
		return nil, fmt.Errorf("newRevenueDelta: %w", err)
	}

	return &RevenueDelta{
		Starter:    s,
		stepLimit:  environment.NewStepLimit(cutoff),
		minRevenue: minRevenue,
		maxRevenue: maxRevenue,
	}, nil
}

// GetReward returns the change in revenue from state to nextState.
// States are observations of the form [price, demand].
func (r *RevenueDelta) GetReward(state, _, nextState mat.Vector) float64 {
	revenue := state.AtVec(0) * state.AtVec(1)
	nextRevenue := nextState.AtVec(0) * nextState.AtVec(1)

	return nextRevenue - revenue
}

// End ends the episode when the step cutoff is reached
func (r *RevenueDelta) End(t *ts.TimeStep) bool {
	return r.stepLimit.End(t)
}

// Cutoff returns the number of steps after which episodes end. A
// cutoff of 0 means episodes never end.
func (r *RevenueDelta) Cutoff() int {
	return r.stepLimit.Limit()
}

// AtGoal returns false; there is no goal state in the pricing task
func (r *RevenueDelta) AtGoal(mat.Matrix) bool {
	return false
}

// Min returns the minimum reward attainable with prices within the
// price bounds
func (r *RevenueDelta) Min() float64 {
	return r.minRevenue - r.maxRevenue
}

// Max returns the maximum reward attainable with prices within the
// price bounds
func (r *RevenueDelta) Max() float64 {
	return r.maxRevenue - r.minRevenue
}

// RewardSpec returns the reward specification of the Task
func (r *RevenueDelta) RewardSpec() environment.Spec {
	return environment.NewScalarSpec(environment.Reward, r.Min(), r.Max())
}
