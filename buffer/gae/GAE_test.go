package gae

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

func TestDiscountCumSum(t *testing.T) {
	got := discountCumSum([]float64{1, 2, 3}, 0.5)
	assert.InDeltaSlice(t, []float64{1 + 0.5*2 + 0.25*3, 2 + 0.5*3, 3}, got,
		1e-12)
}

func TestFinishPath(t *testing.T) {
	b, err := New(1, 1, 3, 1.0, 0.9)
	require.NoError(t, err)

	for i, r := range []float64{1, 2, 3} {
		require.NoError(t, b.Store([]float64{float64(i)}, []float64{0.5}, r,
			0))
	}
	assert.True(t, b.Full())

	_, _, _, _, err = b.Get()
	assert.Error(t, err, "unfinished paths cannot be sampled")

	b.FinishPath(10)
	obs, act, adv, ret, err := b.Get()
	require.NoError(t, err)

	assert.Equal(t, []float64{0, 1, 2}, obs)
	assert.Equal(t, []float64{0.5, 0.5, 0.5}, act)

	// Returns bootstrap from the last value
	want := []float64{
		1 + 0.9*2 + 0.81*3 + 0.729*10,
		2 + 0.9*3 + 0.81*10,
		3 + 0.9*10,
	}
	assert.InDeltaSlice(t, want, ret, 1e-9)

	// With zero values and λ = 1 the advantages equal the returns before
	// standardization
	mean, std := stat.MeanStdDev(adv, nil)
	assert.InDelta(t, 0.0, mean, 1e-9)
	assert.InDelta(t, 1.0, std, 1e-6)
	assert.Equal(t, floats.MaxIdx(want), floats.MaxIdx(adv))

	assert.False(t, b.Full())
	assert.Zero(t, b.Len())
}

func TestMultiplePaths(t *testing.T) {
	b, err := New(1, 1, 4, 0.5, 1.0)
	require.NoError(t, err)

	require.NoError(t, b.Store([]float64{0}, []float64{0}, 1, 0))
	require.NoError(t, b.Store([]float64{0}, []float64{0}, 1, 0))
	b.FinishPath(0)
	require.NoError(t, b.Store([]float64{0}, []float64{0}, 5, 0))
	require.NoError(t, b.Store([]float64{0}, []float64{0}, 5, 0))
	b.FinishPath(0)

	_, _, _, ret, err := b.Get()
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 1, 10, 5}, ret)
}

func TestStoreErrors(t *testing.T) {
	b, err := New(2, 1, 1, 0.9, 0.9)
	require.NoError(t, err)

	assert.Error(t, b.Store([]float64{1}, []float64{1}, 0, 0))
	assert.Error(t, b.Store([]float64{1, 2}, []float64{1, 2}, 0, 0))
	require.NoError(t, b.Store([]float64{1, 2}, []float64{1}, 0, 0))
	assert.Error(t, b.Store([]float64{1, 2}, []float64{1}, 0, 0))

	_, err = New(1, 1, 1, 2, 0.9)
	assert.Error(t, err)
	_, err = New(0, 1, 1, 0.5, 0.9)
	assert.Error(t, err)
}
