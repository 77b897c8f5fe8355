package floatutils

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/spatial/r1"
)

func TestClip(t *testing.T) {
	tests := []struct {
		name  string
		value float64
		want  float64
	}{
		{"inside", 0.5, 0.5},
		{"below", -3, 0},
		{"above", 3, 1},
		{"negative infinity", math.Inf(-1), 0},
		{"positive infinity", math.Inf(1), 1},
		{"nan", math.NaN(), 0},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.want, Clip(test.value, 0, 1))
			assert.Equal(t, test.want,
				ClipInterval(test.value, r1.Interval{Min: 0, Max: 1}))
		})
	}
}

func TestIsFinite(t *testing.T) {
	assert.True(t, IsFinite(1, 2, -3))
	assert.False(t, IsFinite(1, math.NaN()))
	assert.False(t, IsFinite(math.Inf(-1)))
}

func TestLinspace(t *testing.T) {
	assert.Equal(t, []float64{0, 1250, 2500, 3750, 5000}, Linspace(0, 5000, 5))
	assert.Equal(t, []float64{3}, Linspace(3, 10, 1))
	assert.Nil(t, Linspace(0, 1, 0))
}
