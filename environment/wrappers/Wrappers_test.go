package wrappers

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/samuelfneumann/pricelearn/environment/pricing"
)

func newPricing(t testing.TB) *pricing.Env {
	d := pricing.DefaultDynamics()
	task, err := pricing.NewRevenueDelta(pricing.NewPriceStarter(d, 7), d, 0)
	require.NoError(t, err)

	e, _, err := pricing.New(task, d, 0.99)
	require.NoError(t, err)
	return e
}

func price(p float64) *mat.VecDense {
	return mat.NewVecDense(1, []float64{p})
}

func TestTileCoding(t *testing.T) {
	tc, step, err := NewTileCoding(newPricing(t), [][]int{{4, 4}, {2, 8}}, 3)
	require.NoError(t, err)

	length := 1 + 16 + 16
	assert.Equal(t, length, step.Observation.Len())
	assert.Equal(t, 3.0, floats.Sum(step.Observation.RawVector().Data))
	assert.Equal(t, length, tc.ObservationSpec().Shape.Len())

	step, last, err := tc.Step(price(2500))
	require.NoError(t, err)
	assert.False(t, last)
	assert.Equal(t, length, step.Observation.Len())
	assert.Equal(t, 1.0, step.Observation.AtVec(0))
	assert.Equal(t, step.Observation.RawVector().Data,
		tc.CurrentTimeStep().Observation.RawVector().Data)

	_, _, err = tc.Step(price(math.NaN()))
	assert.Error(t, err)
}

func TestTileCodingRejectsBadBins(t *testing.T) {
	_, _, err := NewTileCoding(newPricing(t), [][]int{{4}}, 3)
	assert.Error(t, err)
}

func TestNormalize(t *testing.T) {
	n, step, err := NewNormalize(newPricing(t))
	require.NoError(t, err)

	assert.Equal(t, 3, step.Observation.Len())
	assert.Equal(t, 1.0, step.Observation.AtVec(2))

	step, _, err = n.Step(price(2500))
	require.NoError(t, err)
	assert.Equal(t, []float64{0.5, 0.5, 1.0}, step.Observation.RawVector().Data)

	// Out of bounds prices are clipped
	step, _, err = n.Step(price(1e6))
	require.NoError(t, err)
	assert.Equal(t, 1.0, step.Observation.AtVec(0))
	assert.Equal(t, 0.0, step.Observation.AtVec(1))

	obsSpec := n.ObservationSpec()
	assert.Equal(t, []float64{0, 0, 1}, obsSpec.LowerBound.RawVector().Data)
	assert.Equal(t, []float64{1, 1, 1}, obsSpec.UpperBound.RawVector().Data)
}

func TestRescaleAction(t *testing.T) {
	e := newPricing(t)
	r, err := NewRescaleAction(e)
	require.NoError(t, err)

	tests := []struct {
		action float64
		want   float64
	}{
		{-1, 0},
		{0, 2500},
		{1, 5000},
		{0.5, 3750},
		{-3, 0},
		{7, 5000},
	}

	for _, test := range tests {
		step, _, err := r.Step(price(test.action))
		require.NoError(t, err)
		assert.Equal(t, test.want, step.Observation.AtVec(0))
		assert.Equal(t, test.want, e.State().Price)
	}

	_, _, err = r.Step(mat.NewVecDense(2, nil))
	assert.Error(t, err)
	_, _, err = r.Step(price(math.Inf(-1)))
	assert.Error(t, err)

	spec := r.ActionSpec()
	assert.Equal(t, -1.0, spec.LowerBound.AtVec(0))
	assert.Equal(t, 1.0, spec.UpperBound.AtVec(0))
}

func TestScaleReward(t *testing.T) {
	e := newPricing(t)
	s, err := NewScaleReward(e, 1e-6)
	require.NoError(t, err)

	prev := e.State()
	step, _, err := s.Step(price(2500))
	require.NoError(t, err)

	want := (e.State().Revenue - prev.Revenue) * 1e-6
	assert.InDelta(t, want, step.Reward, 1e-12)
	assert.Equal(t, step.Reward, s.CurrentTimeStep().Reward)
	assert.InDelta(t, e.Max()*1e-6, s.RewardSpec().UpperBound.AtVec(0), 1e-12)

	_, err = NewScaleReward(e, 0)
	assert.Error(t, err)
}

func TestAverageReward(t *testing.T) {
	e := newPricing(t)
	a, step, err := NewAverageReward(e, 0, 0.5)
	require.NoError(t, err)
	assert.Equal(t, 1.0, step.Discount)

	prev := e.State()
	step, _, err = a.Step(price(2500))
	require.NoError(t, err)

	raw := e.State().Revenue - prev.Revenue
	assert.InDelta(t, 0.5*raw, a.AverageReward(), 1e-6)
	assert.InDelta(t, raw-0.5*raw, step.Reward, 1e-6)
	assert.Equal(t, 1.0, step.Discount)

	// Repeating the price yields zero raw reward, so the estimate decays
	step, _, err = a.Step(price(2500))
	require.NoError(t, err)
	assert.InDelta(t, 0.25*raw, a.AverageReward(), 1e-6)
	assert.InDelta(t, -0.25*raw, step.Reward, 1e-6)

	assert.Nil(t, a.RewardSpec().LowerBound)

	_, _, err = NewAverageReward(e, 0, 0)
	assert.Error(t, err)
}
