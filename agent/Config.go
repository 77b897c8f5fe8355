package agent

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/samuelfneumann/pricelearn/environment"
)

// Config represents a configuration for creating an agent
type Config interface {
	// CreateAgent creates the agent that the config describes
	CreateAgent(env environment.Environment, seed uint64) (Agent, error)

	// ValidAgent returns whether the argument agent is valid for the
	// Config
	ValidAgent(Agent) bool

	// Validate returns an error describing whether or not the
	// configuration is valid or not.
	Validate() error

	// Type returns the Type of agent the Config creates
	Type() Type
}

// Type represents a specific type of an agent Config.
// Config's with this type can create Agents of the corresponding type.
type Type string

const (
	GaussianActorCriticLinear Type = "GaussianActorCritic-Linear"
	GaussianVanillaPGMLP      Type = "GaussianVanillaPG-MLP"
)

// Registered types with the package. Once a Type has been registered,
// a Config with that type can be created from raw hyperparameters.
//
// Each separate package is in charge of registering its Type with
// the package to avoid circular imports.
var (
	registeredTypes   = make(map[Type]reflect.Type)
	registeredTypesMu sync.RWMutex
)

// Register registers an agent's Type with a concrete Config type so
// that configurations of type agentType are decoded into that concrete
// Config type. Registering a Type twice replaces the earlier Config.
func Register(agentType Type, config Config) {
	registeredTypesMu.Lock()
	defer registeredTypesMu.Unlock()

	t := reflect.TypeOf(config)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	registeredTypes[agentType] = t
}

// RegisteredTypes returns all registered agent Types in sorted order
func RegisteredTypes() []Type {
	registeredTypesMu.RLock()
	defer registeredTypesMu.RUnlock()

	types := make([]Type, 0, len(registeredTypes))
	for t := range registeredTypes {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

// NewConfig decodes the hyperparameters in params into the concrete
// Config registered with agentType. Fields absent from params keep the
// concrete Config's zero value. The returned Config is validated.
func NewConfig(agentType Type, params map[string]interface{}) (Config,
	error) {
	registeredTypesMu.RLock()
	ty, found := registeredTypes[agentType]
	registeredTypesMu.RUnlock()

	if !found {
		return nil, fmt.Errorf("newConfig: no agent type %v registered",
			agentType)
	}

	data, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("newConfig: %w", err)
	}

	value := reflect.New(ty)
	if err := json.Unmarshal(data, value.Interface()); err != nil {
		return nil, fmt.Errorf("newConfig: could not decode %v: %w",
			agentType, err)
	}

	// Configs may be implemented on either value or pointer receivers
	var config Config
	if c, ok := value.Elem().Interface().(Config); ok {
		config = c
	} else if c, ok := value.Interface().(Config); ok {
		config = c
	} else {
		return nil, fmt.Errorf("newConfig: registered type %v does not "+
			"implement Config", ty)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("newConfig: %w", err)
	}
	return config, nil
}

// TypedConfig wraps a Config so that it can be JSON marshaled and
// unmarshaled into its underlying concrete type
type TypedConfig struct {
	Type
	Config
}

// NewTypedConfig types the argument Config
func NewTypedConfig(c Config) TypedConfig {
	return TypedConfig{Type: c.Type(), Config: c}
}

// UnmarshalJSON implements the json.Unmarshaler interface
func (t *TypedConfig) UnmarshalJSON(data []byte) error {
	var raw struct {
		Type   Type
		Config map[string]interface{}
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	config, err := NewConfig(raw.Type, raw.Config)
	if err != nil {
		return err
	}

	t.Type = raw.Type
	t.Config = config
	return nil
}
