package timestep

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"
)

func TestStepTypes(t *testing.T) {
	obs := mat.NewVecDense(2, []float64{1, 2})

	first := New(First, 0, 0.99, obs, 0)
	assert.True(t, first.First())
	assert.False(t, first.Last())

	last := New(Mid, 1.5, 0.99, obs, 10)
	assert.True(t, last.Mid())
	last.StepType = Last
	last.SetEnd(Timeout)
	assert.True(t, last.Last())
	assert.Equal(t, Timeout, last.EndType())
	assert.False(t, last.TerminalEnd())

	last.SetEnd(TerminalStateReached)
	assert.True(t, last.TerminalEnd())
}

func TestCloneCopiesObservation(t *testing.T) {
	obs := mat.NewVecDense(2, []float64{1, 2})
	step := New(First, 0, 1, obs, 0)

	clone := step.Clone()
	obs.SetVec(0, 42)

	assert.Equal(t, 1.0, clone.Observation.AtVec(0))
}

func TestNewTransition(t *testing.T) {
	s := New(First, 0, 1, mat.NewVecDense(1, []float64{1}), 0)
	a := mat.NewVecDense(1, []float64{0.5})
	next := New(Mid, 3, 0.9, mat.NewVecDense(1, []float64{2}), 1)

	tr := NewTransition(s, a, next, nil)
	assert.Equal(t, 3.0, tr.Reward)
	assert.Equal(t, 0.9, tr.Discount)
	assert.Equal(t, 2.0, tr.NextState.AtVec(0))
	assert.Nil(t, tr.NextAction)
}
