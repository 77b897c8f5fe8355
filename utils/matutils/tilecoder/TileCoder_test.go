package tilecoder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

func newCoder(t testing.TB, bias bool) *TileCoder {
	tc, err := New(
		mat.NewVecDense(2, []float64{0, 0}),
		mat.NewVecDense(2, []float64{5000, 2000}),
		[][]int{{4, 4}, {8, 2}, {3, 5}},
		12,
		bias,
	)
	require.NoError(t, err)
	return tc
}

func TestEncodeActivatesOneTilePerTiling(t *testing.T) {
	for _, bias := range []bool{true, false} {
		tc := newCoder(t, bias)

		want := 16 + 16 + 15
		if bias {
			want++
		}
		require.Equal(t, want, tc.VecLength())

		for _, obs := range [][]float64{
			{0, 0}, {2500, 1000}, {5000, 2000}, {-100, 9999},
		} {
			v := tc.Encode(mat.NewVecDense(2, obs))
			active := floats.Sum(v.RawVector().Data)

			if bias {
				assert.Equal(t, 4.0, active)
				assert.Equal(t, 1.0, v.AtVec(0))
			} else {
				assert.Equal(t, 3.0, active)
			}
		}
	}
}

func TestEncodeIndicesWithinTilings(t *testing.T) {
	tc := newCoder(t, false)
	indices := tc.EncodeIndices(mat.NewVecDense(2, []float64{1234, 567}))

	require.Len(t, indices, 3)
	assert.Less(t, indices[0], 16)
	assert.GreaterOrEqual(t, indices[1], 16)
	assert.Less(t, indices[1], 32)
	assert.GreaterOrEqual(t, indices[2], 32)
	assert.Less(t, indices[2], 47)
}

func TestEncodeIndicesUniquePerTile(t *testing.T) {
	bins := []int{2, 3, 4}
	tc, err := New(
		mat.NewVecDense(3, []float64{0, 0, 0}),
		mat.NewVecDense(3, []float64{2, 3, 4}),
		[][]int{bins},
		1,
		false,
	)
	require.NoError(t, err)
	tc.offsets[0] = mat.NewDense(1, 3, nil)
	require.Equal(t, 24, tc.VecLength())

	// The centre of every tile must activate a different feature
	seen := make(map[int]bool)
	for a := 0; a < bins[0]; a++ {
		for b := 0; b < bins[1]; b++ {
			for c := 0; c < bins[2]; c++ {
				centre := mat.NewVecDense(3, []float64{
					float64(a) + 0.5, float64(b) + 0.5, float64(c) + 0.5,
				})
				indices := tc.EncodeIndices(centre)
				require.Len(t, indices, 1)
				assert.Equal(t, (a*bins[1]+b)*bins[2]+c, indices[0])
				seen[indices[0]] = true
			}
		}
	}
	assert.Len(t, seen, 24)
}

func TestNewRejectsInvalidTilings(t *testing.T) {
	min := mat.NewVecDense(2, []float64{0, 0})
	max := mat.NewVecDense(2, []float64{1, 1})

	_, err := New(min, mat.NewVecDense(1, []float64{1}), [][]int{{2, 2}}, 1,
		true)
	assert.Error(t, err)

	_, err = New(min, max, nil, 1, true)
	assert.Error(t, err)

	_, err = New(min, max, [][]int{{2}}, 1, true)
	assert.Error(t, err)

	_, err = New(min, max, [][]int{{2, 0}}, 1, true)
	assert.Error(t, err)

	_, err = New(min, min, [][]int{{2, 2}}, 1, true)
	assert.Error(t, err)
}

func BenchmarkTileCoder(b *testing.B) {
	tc := newCoder(b, true)
	y := mat.NewVecDense(2, []float64{2500, 1000})

	for i := 0; i < b.N; i++ {
		tc.Encode(y)
	}
}
