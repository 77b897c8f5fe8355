package op

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

func matrix(g *G.ExprGraph, name string, rows, cols int,
	data []float64) *G.Node {
	return G.NewMatrix(g, tensor.Float64, G.WithShape(rows, cols),
		G.WithName(name), G.WithValue(tensor.New(
			tensor.WithShape(rows, cols), tensor.WithBacking(data))))
}

func TestGaussianLogPdf(t *testing.T) {
	g := G.NewGraph()
	mean := matrix(g, "mean", 2, 2, []float64{0, 1, -1, 2})
	logStd := matrix(g, "logStd", 2, 2, []float64{0, math.Log(2), 0.5, -1})
	actions := matrix(g, "actions", 2, 2, []float64{0.5, 0, -1, 3})

	logProb, err := GaussianLogPdf(mean, logStd, actions)
	require.NoError(t, err)

	vm := G.NewTapeMachine(g)
	defer vm.Close()
	require.NoError(t, vm.RunAll())

	normal := func(x, mu, sigma float64) float64 {
		z := (x - mu) / sigma
		return -0.5*z*z - math.Log(sigma) - 0.5*math.Log(2*math.Pi)
	}
	want := []float64{
		normal(0.5, 0, 1) + normal(0, 1, 2),
		normal(-1, -1, math.Exp(0.5)) + normal(3, 2, math.Exp(-1)),
	}

	got := logProb.Value().Data().([]float64)
	require.Len(t, got, 2)
	for i := range want {
		assert.InDelta(t, want[i], got[i], 1e-9)
	}
}

func TestGaussianLogPdfErrors(t *testing.T) {
	g := G.NewGraph()
	mean := matrix(g, "mean", 2, 1, []float64{0, 0})
	logStd := matrix(g, "logStd", 2, 1, []float64{0, 0})
	wide := matrix(g, "actions", 2, 2, []float64{0, 0, 0, 0})

	_, err := GaussianLogPdf(mean, logStd, wide)
	assert.Error(t, err)

	other := G.NewGraph()
	foreign := matrix(other, "actions", 2, 1, []float64{0, 0})
	_, err = GaussianLogPdf(mean, logStd, foreign)
	assert.Error(t, err)
}
