package agent

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samuelfneumann/pricelearn/environment"
)

const testType Type = "Test-Config"

type testConfig struct {
	StepSize float64
	Lambda   float64
}

func (t testConfig) CreateAgent(environment.Environment, uint64) (Agent,
	error) {
	return nil, fmt.Errorf("createAgent: not implemented")
}

func (t testConfig) ValidAgent(Agent) bool { return false }

func (t testConfig) Validate() error {
	if t.StepSize <= 0 {
		return fmt.Errorf("validate: step size must be positive")
	}
	return nil
}

func (t testConfig) Type() Type { return testType }

func init() {
	Register(testType, testConfig{})
}

func TestNewConfig(t *testing.T) {
	c, err := NewConfig(testType, map[string]interface{}{
		"StepSize": 0.1,
		"Lambda":   0.5,
	})
	require.NoError(t, err)
	assert.Equal(t, testConfig{StepSize: 0.1, Lambda: 0.5}, c)
	assert.Contains(t, RegisteredTypes(), testType)
}

func TestNewConfigErrors(t *testing.T) {
	_, err := NewConfig("Missing", nil)
	assert.Error(t, err)

	_, err = NewConfig(testType, map[string]interface{}{"StepSize": -1.0})
	assert.Error(t, err)

	_, err = NewConfig(testType, map[string]interface{}{"StepSize": "fast"})
	assert.Error(t, err)
}

func TestTypedConfigJSON(t *testing.T) {
	typed := NewTypedConfig(testConfig{StepSize: 0.25})

	data, err := json.Marshal(typed)
	require.NoError(t, err)

	var decoded TypedConfig
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, testType, decoded.Type)
	assert.Equal(t, testConfig{StepSize: 0.25}, decoded.Config)
}
