// Package agent defines an agent interface
package agent

import (
	"encoding/gob"

	"gonum.org/v1/gonum/mat"

	"github.com/samuelfneumann/pricelearn/timestep"
)

// Agent determines the implementation details of an agent or algorithm
//
// An Agent is composed of a Learner, which learns weights, and a Policy
// which chooses actions in each state. The Policy chooses which actions
// are taken, and the Learner uses these actions to update the Policy.
type Agent interface {
	Learner
	Policy
}

// Learner implements a learning algorithm that defines how weights are
// updated.
type Learner interface {
	// Step performs a single update to the learner
	Step() error

	// Observe records that an action lead to some timestep
	Observe(action mat.Vector, nextObs timestep.TimeStep) error

	// ObserveFirst records the first timestep in an episode
	ObserveFirst(timestep.TimeStep) error

	// EndEpisode performs cleanup at the end of an episode
	EndEpisode()
}

// TdErrorer is a Learner that can return the TdError of some transition
type TdErrorer interface {
	Learner

	// TdError returns the TD error on a transition
	TdError(t timestep.Transition) float64
}

// Policy represents a policy that an agent can have.
//
// Policies determine how agents select actions. Agents usually have a
// target and behaviour policy. For a given agent, the Policy and Learner
// should have pointers to the same weights so that any changes the learner
// makes to the weights are reflected in the actions the Policy chooses
type Policy interface {
	SelectAction(t timestep.TimeStep) *mat.VecDense
	Eval()        // Set policy to evaluation mode
	Train()       // Set policy to training mode
	IsEval() bool // Indicates if in evaluation mode
}

// Weighted is an agent whose learned weights can be retrieved, replaced,
// and serialized so that they can be checkpointed
type Weighted interface {
	Agent
	gob.GobEncoder
	gob.GobDecoder

	// Weights returns the agent's weights by name
	Weights() map[string]*mat.Dense

	// SetWeights replaces the agent's weights. Each weight must already
	// exist and have the same shape.
	SetWeights(map[string]*mat.Dense) error
}

// Closer is an agent that must be closed after it is done learning
type Closer interface {
	Agent
	Close() error
}
