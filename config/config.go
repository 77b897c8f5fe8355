// Package config loads pricelearn run configurations from YAML or JSON
// files with environment variable overrides
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/samuelfneumann/pricelearn/environment/pricing"
)

// EnvPrefix is the prefix of environment variables which override
// configuration values. Nested keys are separated by a double
// underscore, for example PRICELEARN_EXPERIMENT__STEPS=1000.
const EnvPrefix = "PRICELEARN_"

// Config is a full training run configuration
type Config struct {
	Dynamics    pricing.DynamicsParameters `json:"dynamics"`
	Environment EnvironmentConfig          `json:"environment"`
	Agent       AgentConfig                `json:"agent"`
	Experiment  ExperimentConfig           `json:"experiment"`
	Logging     LoggingConfig              `json:"logging"`
	Metrics     MetricsConfig              `json:"metrics"`
}

// Default returns the configuration used when no file is given
func Default() Config {
	cfg := preset()
	cfg.SetDefaults()
	return cfg
}

// preset returns the defaults for fields whose zero value is a valid
// setting. Loaded values overwrite them.
func preset() Config {
	return Config{
		Dynamics:   pricing.DefaultDynamics(),
		Experiment: ExperimentConfig{Steps: DefaultSteps},
	}
}

// SetDefaults applies defaults to every unset section
func (c *Config) SetDefaults() {
	c.Environment.SetDefaults()
	c.Agent.SetDefaults()
	c.Experiment.SetDefaults()
	c.Logging.SetDefaults()
	c.Metrics.SetDefaults()
}

// Validate checks every section
func (c Config) Validate() error {
	if err := c.Dynamics.Validate(); err != nil {
		return fmt.Errorf("dynamics: %w", err)
	}
	if err := c.Environment.Validate(); err != nil {
		return fmt.Errorf("environment: %w", err)
	}
	if err := c.Agent.Validate(); err != nil {
		return fmt.Errorf("agent: %w", err)
	}
	if err := c.Experiment.Validate(); err != nil {
		return fmt.Errorf("experiment: %w", err)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	if err := c.Metrics.Validate(); err != nil {
		return fmt.Errorf("metrics: %w", err)
	}
	return nil
}

// Load reads the configuration at path, applies environment overrides
// and defaults, and validates the result. If path is empty, only
// defaults and environment overrides are used. Values absent from the
// file keep their defaults.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		ext := strings.ToLower(filepath.Ext(path))
		var parser koanf.Parser
		switch ext {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		default:
			return nil, fmt.Errorf("load: unsupported config format: %s", ext)
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, fmt.Errorf("load: %w", err)
		}
	}

	// Optional environment overrides
	prefix := strings.ToLower(EnvPrefix)
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), prefix)
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}

	cfg := preset()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	cfg.SetDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	return &cfg, nil
}
