// Package op provides extended Gorgonia graph operations.
package op

import (
	"fmt"
	"math"

	G "gorgonia.org/gorgonia"
)

// GaussianLogPdf calculates the log of the probability density function
// of actions drawn from a diagonal Gaussian distribution with mean mean
// and log standard deviation logStd.
//
// All arguments should be two-dimensional and of the same size m x n.
// For each argument, the rows (m) denote the samples in the batch and
// the columns (n) denote the action dimensions. The returned node is a
// vector of length m holding the log density of each row of actions:
//
//	log π(a | s) = -Σᵢ [ ½((aᵢ - μᵢ) / σᵢ)² + log σᵢ + ½ log 2π ]
func GaussianLogPdf(mean, logStd, actions *G.Node) (*G.Node, error) {
	graph := mean.Graph()
	if graph != logStd.Graph() || graph != actions.Graph() {
		return nil, fmt.Errorf("gaussianLogPdf: all nodes must share the " +
			"same graph")
	}
	if !mean.Shape().Eq(logStd.Shape()) || !mean.Shape().Eq(actions.Shape()) {
		return nil, fmt.Errorf("gaussianLogPdf: shapes must match "+
			"\n\tmean(%v) \n\tlogStd(%v) \n\tactions(%v)", mean.Shape(),
			logStd.Shape(), actions.Shape())
	}
	if mean.Dims() != 2 {
		return nil, fmt.Errorf("gaussianLogPdf: inputs must be matrices")
	}

	half := G.NewConstant(0.5)
	logSqrt2Pi := G.NewConstant(0.5 * math.Log(2*math.Pi))

	z, err := G.Sub(actions, mean)
	if err != nil {
		return nil, err
	}
	if z, err = G.HadamardDiv(z, G.Must(G.Exp(logStd))); err != nil {
		return nil, err
	}
	if z, err = G.Square(z); err != nil {
		return nil, err
	}
	if z, err = G.Mul(half, z); err != nil {
		return nil, err
	}

	terms, err := G.Add(logStd, logSqrt2Pi)
	if err != nil {
		return nil, err
	}
	if terms, err = G.Add(z, terms); err != nil {
		return nil, err
	}

	sum, err := G.Sum(terms, 1)
	if err != nil {
		return nil, err
	}
	return G.Neg(sum)
}
