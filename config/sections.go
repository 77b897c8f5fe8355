package config

import (
	"fmt"
	"strings"

	"github.com/samuelfneumann/pricelearn/utils/floatutils"
)

// Observation feature representations
const (
	FeaturesNormalize  = "normalize"
	FeaturesTileCoding = "tilecoding"
)

// EnvironmentConfig configures the pricing environment and the wrappers
// placed around it
type EnvironmentConfig struct {
	// Cutoff is the episode length in steps. Zero never ends episodes.
	Cutoff   int     `json:"cutoff"`
	Discount float64 `json:"discount"`
	// RewardScale multiplies every revenue delta.
	RewardScale float64 `json:"reward_scale"`
	// AverageRewardRate is the step size of the average reward estimate
	// subtracted from every reward. Zero keeps the discounted rewards.
	AverageRewardRate float64 `json:"average_reward_rate"`
	// Features selects how observations are presented to the agent.
	Features string  `json:"features"`
	Tilings  [][]int `json:"tilings"`
}

// SetDefaults applies sane defaults.
func (c *EnvironmentConfig) SetDefaults() {
	if c.Discount == 0 {
		c.Discount = 0.99
	}
	if c.RewardScale == 0 {
		c.RewardScale = 1e-6
	}
	if c.Features == "" {
		c.Features = FeaturesNormalize
	}
	c.Features = strings.ToLower(c.Features)
	if c.Features == FeaturesTileCoding && len(c.Tilings) == 0 {
		c.Tilings = [][]int{{8, 8}, {8, 8}, {8, 8}, {8, 8}}
	}
}

// Validate checks mandatory fields.
func (c EnvironmentConfig) Validate() error {
	if c.Cutoff < 0 {
		return fmt.Errorf("cutoff must be non-negative")
	}
	if c.Discount < 0 || c.Discount > 1 {
		return fmt.Errorf("discount must be in [0, 1]")
	}
	if c.RewardScale <= 0 || !floatutils.IsFinite(c.RewardScale) {
		return fmt.Errorf("reward_scale must be positive")
	}
	if c.AverageRewardRate < 0 || c.AverageRewardRate > 1 {
		return fmt.Errorf("average_reward_rate must be in [0, 1]")
	}
	switch c.Features {
	case FeaturesNormalize, FeaturesTileCoding:
	default:
		return fmt.Errorf("unknown features %s", c.Features)
	}
	return nil
}

// AgentConfig selects a registered agent type and its hyperparameters
type AgentConfig struct {
	Type   string         `json:"type"`
	Params map[string]any `json:"params"`
}

// SetDefaults applies sane defaults.
func (c *AgentConfig) SetDefaults() {
	if c.Type == "" {
		c.Type = "GaussianActorCritic-Linear"
		if len(c.Params) == 0 {
			c.Params = map[string]any{
				"ActorLearningRate":  0.01,
				"CriticLearningRate": 0.1,
				"Decay":              0.5,
				"ScaleActorLR":       true,
			}
		}
	}
	if c.Params == nil {
		c.Params = map[string]any{}
	}
}

// Validate checks mandatory fields.
func (c AgentConfig) Validate() error {
	if c.Type == "" {
		return fmt.Errorf("type is required")
	}
	return nil
}

// DefaultSteps is the number of training steps used when none are
// configured
const DefaultSteps = 10_000

// ExperimentConfig configures the training loop
type ExperimentConfig struct {
	Steps        int    `json:"steps"`
	RolloutSteps int    `json:"rollout_steps"`
	Seed         uint64 `json:"seed"`
	// OutputDir holds saved traces and checkpoints. Empty disables saving.
	OutputDir string `json:"output_dir"`
	// CheckpointEvery saves agent weights every this many steps. Zero
	// disables checkpointing.
	CheckpointEvery int `json:"checkpoint_every"`
}

// SetDefaults applies sane defaults.
func (c *ExperimentConfig) SetDefaults() {
	if c.RolloutSteps == 0 {
		c.RolloutSteps = 100
	}
}

// Validate checks mandatory fields.
func (c ExperimentConfig) Validate() error {
	if c.Steps < 0 {
		return fmt.Errorf("steps must be non-negative")
	}
	if c.RolloutSteps < 0 {
		return fmt.Errorf("rollout_steps must be non-negative")
	}
	if c.CheckpointEvery < 0 {
		return fmt.Errorf("checkpoint_every must be non-negative")
	}
	if c.CheckpointEvery > 0 && c.OutputDir == "" {
		return fmt.Errorf("checkpointing requires output_dir")
	}
	return nil
}

// LoggingConfig defines the log level.
type LoggingConfig struct {
	Level string `json:"level"`
}

// SetDefaults applies sane defaults.
func (c *LoggingConfig) SetDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
	c.Level = strings.ToLower(c.Level)
}

// Validate checks mandatory fields.
func (c LoggingConfig) Validate() error {
	switch c.Level {
	case "trace", "debug", "info", "warn", "error", "fatal", "panic",
		"disabled":
		return nil
	}
	return fmt.Errorf("unknown level %s", c.Level)
}

// MetricsConfig configures the Prometheus endpoint served during
// training
type MetricsConfig struct {
	Enabled bool   `json:"enabled"`
	Address string `json:"address"`
}

// SetDefaults applies sane defaults.
func (c *MetricsConfig) SetDefaults() {
	if c.Address == "" {
		c.Address = ":2112"
	}
}

// Validate checks mandatory fields.
func (c MetricsConfig) Validate() error {
	if c.Enabled && c.Address == "" {
		return fmt.Errorf("address is required")
	}
	return nil
}
