package actorcritic

import (
	"fmt"

	"github.com/samuelfneumann/pricelearn/agent"
	"github.com/samuelfneumann/pricelearn/environment"
	"github.com/samuelfneumann/pricelearn/utils/floatutils"
	"github.com/samuelfneumann/pricelearn/utils/matutils/initializers/weights"
)

func init() {
	// Register Config type so that it can be created from raw
	// hyperparameters using agent.NewConfig
	agent.Register(agent.GaussianActorCriticLinear, Config{})
}

// Config represents a configuration for a LinearGaussian Actor Critic
// agent
type Config struct {
	ActorLearningRate  float64
	CriticLearningRate float64

	// Decay is the eligibility trace decay rate λ
	Decay float64

	// ScaleActorLR scales the actor learning rate by the policy variance
	// for 1-dimensional actions
	ScaleActorLR bool
}

// CreateAgent creates the agent from the Config. Agent weights are
// always initialized to zero using this function. To initialize from
// some other distribution, use the agent's constructor manually.
func (c Config) CreateAgent(env environment.Environment,
	seed uint64) (agent.Agent, error) {
	a, err := NewLinearGaussian(env, c, weights.NewZero(), seed)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// ValidAgent returns whether the argument agent is a valid agent for
// construction with the Config
func (c Config) ValidAgent(a agent.Agent) bool {
	_, ok := a.(*LinearGaussian)
	return ok
}

// Validate ensures that the Config is valid
func (c Config) Validate() error {
	if c.ActorLearningRate <= 0 || !floatutils.IsFinite(c.ActorLearningRate) {
		return fmt.Errorf("validate: actor learning rate must be positive "+
			"\n\thave(%v)", c.ActorLearningRate)
	}
	if c.CriticLearningRate <= 0 ||
		!floatutils.IsFinite(c.CriticLearningRate) {
		return fmt.Errorf("validate: critic learning rate must be positive "+
			"\n\thave(%v)", c.CriticLearningRate)
	}
	if c.Decay < 0 || c.Decay > 1 {
		return fmt.Errorf("validate: decay must be in [0, 1] \n\thave(%v)",
			c.Decay)
	}
	return nil
}

// Type returns the type of the agent constructed by the Config
func (c Config) Type() agent.Type {
	return agent.GaussianActorCriticLinear
}
