// Package environment outlines the interfaces and structs needed to
// implement concrete environments
package environment

import (
	ts "github.com/samuelfneumann/pricelearn/timestep"
	"gonum.org/v1/gonum/mat"
)

// Starter implements a distribution of starting states and samples
// starting states for environments
type Starter interface {
	Start() *mat.VecDense
}

// Ender determines when episodes end
type Ender interface {
	// End determines whether the argument TimeStep is the last in the
	// episode. If so, End sets the TimeStep's StepType to timestep.Last
	// and records the reason through its EndType.
	End(*ts.TimeStep) bool
}

// Task implements the reward scheme for taking actions in some
// environment, together with the start state distribution and the
// episode termination condition.
type Task interface {
	Starter
	Ender

	// GetReward returns the reward for taking action in state and
	// transitioning to nextState
	GetReward(state, action, nextState mat.Vector) float64

	// AtGoal returns whether the argument state is a goal state
	AtGoal(state mat.Matrix) bool

	// Min and Max return the bounds on rewards the Task can produce
	Min() float64
	Max() float64

	RewardSpec() Spec
}

// Environment implements a simulated environment, which includes a Task
// to complete
type Environment interface {
	Task

	// Reset resets the environment between episodes
	Reset() (ts.TimeStep, error)

	// Step takes an action in the environment and returns the next
	// TimeStep and whether the episode has ended
	Step(action *mat.VecDense) (ts.TimeStep, bool, error)

	// CurrentTimeStep returns the most recent TimeStep
	CurrentTimeStep() ts.TimeStep

	DiscountSpec() Spec
	ObservationSpec() Spec
	ActionSpec() Spec
}
