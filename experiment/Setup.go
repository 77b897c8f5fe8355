package experiment

import (
	"fmt"

	"github.com/samuelfneumann/pricelearn/agent"
	"github.com/samuelfneumann/pricelearn/config"
	"github.com/samuelfneumann/pricelearn/environment"
	"github.com/samuelfneumann/pricelearn/environment/pricing"
	"github.com/samuelfneumann/pricelearn/environment/wrappers"
	"github.com/samuelfneumann/pricelearn/logger"

	// Register agent types
	_ "github.com/samuelfneumann/pricelearn/agent/linear/continuous/actorcritic"
	_ "github.com/samuelfneumann/pricelearn/agent/nonlinear/continuous/vanillapg"
)

// NewEnvironment creates the pricing environment described by d and c
// and wraps it for learning. Rewards are scaled, optionally turned into
// differential rewards, actions are rescaled to [-1, 1] and
// observations are either normalized or tile coded.
//
// Both the wrapped environment and the underlying pricing environment
// are returned so that raw prices and revenues can be tracked.
func NewEnvironment(d pricing.DynamicsParameters, c config.EnvironmentConfig,
	seed uint64) (environment.Environment, *pricing.Env, error) {
	task, err := pricing.NewRevenueDelta(pricing.NewPriceStarter(d, seed), d,
		c.Cutoff)
	if err != nil {
		return nil, nil, fmt.Errorf("newEnvironment: %w", err)
	}
	core, _, err := pricing.New(task, d, c.Discount)
	if err != nil {
		return nil, nil, fmt.Errorf("newEnvironment: %w", err)
	}

	var env environment.Environment
	env, err = wrappers.NewScaleReward(core, c.RewardScale)
	if err != nil {
		return nil, nil, fmt.Errorf("newEnvironment: %w", err)
	}

	if c.AverageRewardRate > 0 {
		env, _, err = wrappers.NewAverageReward(env, 0, c.AverageRewardRate)
		if err != nil {
			return nil, nil, fmt.Errorf("newEnvironment: %w", err)
		}
	}

	env, err = wrappers.NewRescaleAction(env)
	if err != nil {
		return nil, nil, fmt.Errorf("newEnvironment: %w", err)
	}

	switch c.Features {
	case config.FeaturesTileCoding:
		env, _, err = wrappers.NewTileCoding(env, c.Tilings, seed)
	default:
		env, _, err = wrappers.NewNormalize(env)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("newEnvironment: %w", err)
	}

	return env, core, nil
}

// loggerSetter is an agent which reports through a Logger
type loggerSetter interface {
	SetLogger(logger.Logger)
}

// NewAgent creates the agent described by c to act in env
func NewAgent(c config.AgentConfig, env environment.Environment,
	seed uint64, log logger.Logger) (agent.Agent, error) {
	agentConfig, err := agent.NewConfig(agent.Type(c.Type), c.Params)
	if err != nil {
		return nil, fmt.Errorf("newAgent: %w", err)
	}

	a, err := agentConfig.CreateAgent(env, seed)
	if err != nil {
		return nil, fmt.Errorf("newAgent: %w", err)
	}

	if s, ok := a.(loggerSetter); ok && log != nil {
		s.SetLogger(log)
	}
	return a, nil
}
