package vanillapg

import (
	"fmt"

	"github.com/samuelfneumann/pricelearn/agent"
	"github.com/samuelfneumann/pricelearn/environment"
	"github.com/samuelfneumann/pricelearn/solver"
)

func init() {
	// Register Config type so that it can be created from raw
	// hyperparameters using agent.NewConfig
	agent.Register(agent.GaussianVanillaPGMLP, Config{})
}

// Default hyperparameters used when a Config leaves them unset
const (
	DefaultPolicyStepSize = 1e-3
	DefaultCriticStepSize = 1e-2
	DefaultInitScale      = 0.1
)

// Config represents a configuration of a VPG agent with a Gaussian
// policy. The mean of the policy is computed by a single hidden layer
// of tanh units, or linearly in the observation if Hidden is 0. The
// log standard deviation of the policy and the state value critic are
// linear in the observation.
type Config struct {
	// Hidden is the number of hidden units of the policy mean
	Hidden int

	// EpochLength is the number of environment steps between updates
	EpochLength int

	// ValueGradSteps is the number of critic gradient steps per epoch
	ValueGradSteps int

	// Lambda and Gamma are the GAE(λ) λ and ℽ parameters
	Lambda float64
	Gamma  float64

	// InitScale is the half-width of the uniform distribution that
	// hidden layer weights are initialized from
	InitScale float64

	// PolicySolver and CriticSolver default to Adam
	PolicySolver *solver.Solver
	CriticSolver *solver.Solver
}

// CreateAgent creates the agent from the Config
func (c Config) CreateAgent(env environment.Environment,
	seed uint64) (agent.Agent, error) {
	a, err := New(env, c, seed)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// ValidAgent returns whether the argument agent is a valid agent for
// construction with the Config
func (c Config) ValidAgent(a agent.Agent) bool {
	_, ok := a.(*VPG)
	return ok
}

// Validate ensures that the Config is valid
func (c Config) Validate() error {
	if c.Hidden < 0 {
		return fmt.Errorf("validate: hidden units must be non-negative")
	}
	if c.EpochLength < 2 {
		return fmt.Errorf("validate: epoch length must be at least 2 "+
			"\n\thave(%v)", c.EpochLength)
	}
	if c.ValueGradSteps < 1 {
		return fmt.Errorf("validate: value gradient steps must be positive")
	}
	if c.Lambda < 0 || c.Lambda > 1 {
		return fmt.Errorf("validate: λ must be in [0, 1] \n\thave(%v)",
			c.Lambda)
	}
	if c.Gamma < 0 || c.Gamma > 1 {
		return fmt.Errorf("validate: ℽ must be in [0, 1] \n\thave(%v)",
			c.Gamma)
	}
	if c.InitScale < 0 {
		return fmt.Errorf("validate: initialization scale must be " +
			"non-negative")
	}
	return nil
}

// Type returns the type of the agent constructed by the Config
func (c Config) Type() agent.Type {
	return agent.GaussianVanillaPGMLP
}

// solvers returns the policy and critic solvers, creating defaults for
// those which are not set
func (c Config) solvers() (*solver.Solver, *solver.Solver, error) {
	policySolver, criticSolver := c.PolicySolver, c.CriticSolver

	var err error
	if policySolver == nil {
		policySolver, err = solver.NewDefaultAdam(DefaultPolicyStepSize, 1)
		if err != nil {
			return nil, nil, err
		}
	}
	if criticSolver == nil {
		criticSolver, err = solver.NewDefaultAdam(DefaultCriticStepSize, 1)
		if err != nil {
			return nil, nil, err
		}
	}
	return policySolver, criticSolver, nil
}
