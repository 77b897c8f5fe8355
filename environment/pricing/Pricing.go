package pricing

import (
	"fmt"

	env "github.com/samuelfneumann/pricelearn/environment"
	ts "github.com/samuelfneumann/pricelearn/timestep"
	"github.com/samuelfneumann/pricelearn/utils/floatutils"
	"gonum.org/v1/gonum/mat"
)

// Env implements the price optimization environment. In this
// environment, an agent sets the price of a product on each timestep.
// The number of units sold follows the sigmoid demand curve of the
// environment's DynamicsParameters: high prices sell close to NMin
// units, and low prices sell close to NMax units.
//
// State observations are 2-dimensional and consist of the current
// price and the demand at that price, [price, demand]. Prices are
// expected in [PMin, PMax] and demand is always in [NMin, NMax].
//
// Actions are 1-dimensional and continuous, and consist of the next
// price to set. Actions outside [PMin, PMax] are not clipped; their
// demand is clipped by the demand curve instead.
//
// Rewards and episode termination are determined by the Task, usually
// a RevenueDelta.
//
// Env implements the environment.Environment interface
type Env struct {
	env.Task
	dynamics DynamicsParameters
	discount float64

	state       State
	currentStep ts.TimeStep
}

// New creates and returns a new pricing environment
func New(t env.Task, d DynamicsParameters, discount float64) (*Env,
	ts.TimeStep, error) {
	if err := d.Validate(); err != nil {
		return nil, ts.TimeStep{}, fmt.Errorf("new: %w", err)
	}
	if discount < 0 || discount > 1 {
		return nil, ts.TimeStep{}, fmt.Errorf("new: discount must be in "+
			"[0, 1] \n\thave(%v)", discount)
	}

	pricing := &Env{
		Task:     t,
		dynamics: d,
		discount: discount,
	}

	step, err := pricing.Reset()
	if err != nil {
		return nil, ts.TimeStep{}, fmt.Errorf("new: %w", err)
	}

	return pricing, step, nil
}

// Reset resets the environment and returns a starting state drawn from
// the Starter
func (p *Env) Reset() (ts.TimeStep, error) {
	state, err := Reset(p.dynamics, p.Task)
	if err != nil {
		return ts.TimeStep{}, err
	}

	p.state = state
	p.currentStep = ts.New(ts.First, 0.0, p.discount, state.Observation(), 0)

	return p.currentStep, nil
}

// Step takes one environmental step given action a and returns the next
// timestep as a timestep.TimeStep and a bool indicating whether or not
// the episode has ended. Actions are 1-dimensional prices. Non-finite
// prices are rejected.
func (p *Env) Step(a *mat.VecDense) (ts.TimeStep, bool, error) {
	if a.Len() != ActionDims {
		return ts.TimeStep{}, false, fmt.Errorf("step: actions should be "+
			"1-dimensional \n\thave(%v)", a.Len())
	}
	price := a.AtVec(0)
	if !floatutils.IsFinite(price) {
		return ts.TimeStep{}, false, fmt.Errorf("step: illegal price %v",
			price)
	}

	nextState, reward := Step(p.dynamics, p.state, price)
	nextStep := ts.New(ts.Mid, reward, p.discount, nextState.Observation(),
		p.currentStep.Number+1)

	// Check if the step is the last in the episode and adjust step type
	// if necessary
	last := p.End(&nextStep)

	p.state = nextState
	p.currentStep = nextStep

	return nextStep, last, nil
}

// CurrentTimeStep returns the last TimeStep that occurred in the
// environment
func (p *Env) CurrentTimeStep() ts.TimeStep {
	return p.currentStep
}

// State returns the current simulation State
func (p *Env) State() State {
	return p.state
}

// Dynamics returns the demand dynamics of the environment
func (p *Env) Dynamics() DynamicsParameters {
	return p.dynamics
}

// ActionSpec returns the action specification of the environment
func (p *Env) ActionSpec() env.Spec {
	shape := mat.NewVecDense(ActionDims, nil)
	lowerBound := mat.NewVecDense(ActionDims, []float64{p.dynamics.PMin})
	upperBound := mat.NewVecDense(ActionDims, []float64{p.dynamics.PMax})

	return env.NewSpec(shape, env.Action, lowerBound, upperBound,
		env.Continuous)
}

// ObservationSpec returns the observation specification of the
// environment
func (p *Env) ObservationSpec() env.Spec {
	shape := mat.NewVecDense(ObservationDims, nil)

	minObs := []float64{p.dynamics.PMin, p.dynamics.NMin}
	lowerBound := mat.NewVecDense(ObservationDims, minObs)

	maxObs := []float64{p.dynamics.PMax, p.dynamics.NMax}
	upperBound := mat.NewVecDense(ObservationDims, maxObs)

	return env.NewSpec(shape, env.Observation, lowerBound, upperBound,
		env.Continuous)
}

// DiscountSpec returns the discount specification of the environment
func (p *Env) DiscountSpec() env.Spec {
	return env.NewScalarSpec(env.Discount, p.discount, p.discount)
}

// Render is a no-op
func (p *Env) Render() {}

// String converts the environment to a string representation
func (p *Env) String() string {
	return fmt.Sprintf("Pricing  |  %v", p.state)
}
