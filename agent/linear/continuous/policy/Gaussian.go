// Package policy implements linear continuous-action policies
package policy

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distmv"

	"github.com/samuelfneumann/pricelearn/environment"
	"github.com/samuelfneumann/pricelearn/timestep"
	"github.com/samuelfneumann/pricelearn/utils/floatutils"
	"github.com/samuelfneumann/pricelearn/utils/matutils"
)

// StdOffset is added to every standard deviation so that the policy
// never collapses to a deterministic one
const StdOffset float64 = 1e-3

// Bounds on the log standard deviation before exponentiation
const (
	MinLogStd float64 = -5.0
	MaxLogStd float64 = 2.0
)

const (
	// Keys for weights map: map[string]*mat.Dense
	MeanWeightsKey   string = "mean"
	StdWeightsKey    string = "standard deviation"
	CriticWeightsKey string = "critic"
)

// Gaussian implements a multi-dimensional linear Gaussian policy.
// The policy uses linear function approximation to compute the mean
// and log standard deviation of the policy:
//
//		μ(s) = W_μ s
//		σ(s) = exp(W_σ s) + StdOffset
//
// In evaluation mode, the policy is greedy and always selects the mean
// action.
type Gaussian struct {
	meanWeights *mat.Dense
	stdWeights  *mat.Dense
	actionDims  int
	features    int
	source      rand.Source
	eval        bool
}

// NewGaussian creates a new Gaussian policy with all weights zero
func NewGaussian(seed uint64, env environment.Environment) (*Gaussian,
	error) {
	actionSpec := env.ActionSpec()
	if actionSpec.Cardinality != environment.Continuous {
		return nil, fmt.Errorf("newGaussian: actions must be continuous")
	}

	actionDims := actionSpec.Shape.Len()
	features := env.ObservationSpec().Shape.Len()

	return &Gaussian{
		meanWeights: mat.NewDense(actionDims, features, nil),
		stdWeights:  mat.NewDense(actionDims, features, nil),
		actionDims:  actionDims,
		features:    features,
		source:      rand.NewSource(seed),
	}, nil
}

// Std gets the standard deviation of the policy given some state
// observation obs
func (g *Gaussian) Std(obs mat.Vector) *mat.VecDense {
	stdVec := mat.NewVecDense(g.actionDims, nil)
	stdVec.MulVec(g.stdWeights, obs)
	for i := 0; i < stdVec.Len(); i++ {
		logStd := floatutils.Clip(stdVec.AtVec(i), MinLogStd, MaxLogStd)
		stdVec.SetVec(i, math.Exp(logStd)+StdOffset)
	}
	return stdVec
}

// Mean gets the mean of the policy given some state observation obs
func (g *Gaussian) Mean(obs mat.Vector) *mat.VecDense {
	mean := mat.NewVecDense(g.actionDims, nil)
	mean.MulVec(g.meanWeights, obs)
	return mean
}

// SelectAction selects an action from the policy for a given timestep
func (g *Gaussian) SelectAction(t timestep.TimeStep) *mat.VecDense {
	obs := t.Observation
	if obs.Len() != g.features {
		panic(fmt.Sprintf("selectAction: illegal observation dimensions "+
			"\n\twant(%v) \n\thave(%v)", g.features, obs.Len()))
	}

	mean := g.Mean(obs)
	if g.eval {
		return mean
	}

	// Generate the Gaussian policy and sampler
	stdVec := g.Std(obs)
	stdVec.MulElemVec(stdVec, stdVec)
	cov := mat.NewDiagDense(stdVec.Len(), stdVec.RawVector().Data)
	dist, ok := distmv.NewNormal(mean.RawVector().Data, cov, g.source)
	if !ok {
		panic(fmt.Sprintf("selectAction: non-positive-definite "+
			"covariance %v", matutils.Format(cov)))
	}

	return mat.NewVecDense(g.actionDims, dist.Rand(nil))
}

// Eval sets the policy to evaluation mode
func (g *Gaussian) Eval() {
	g.eval = true
}

// Train sets the policy to training mode
func (g *Gaussian) Train() {
	g.eval = false
}

// IsEval returns whether the policy is in evaluation mode
func (g *Gaussian) IsEval() bool {
	return g.eval
}

// Weights gets and returns the weights of the policy
func (g *Gaussian) Weights() map[string]*mat.Dense {
	weights := make(map[string]*mat.Dense)

	weights[MeanWeightsKey] = g.meanWeights
	weights[StdWeightsKey] = g.stdWeights

	return weights
}

// SetWeights copies weights into the policy. Weights must have the same
// shapes as the policy's current weights.
func (g *Gaussian) SetWeights(weights map[string]*mat.Dense) error {
	for _, key := range []string{MeanWeightsKey, StdWeightsKey} {
		if _, ok := weights[key]; !ok {
			return fmt.Errorf("setWeights: no weights named \"%v\"", key)
		}
	}

	if err := CopyWeights(g.meanWeights, weights[MeanWeightsKey]); err != nil {
		return fmt.Errorf("setWeights: %v: %w", MeanWeightsKey, err)
	}
	if err := CopyWeights(g.stdWeights, weights[StdWeightsKey]); err != nil {
		return fmt.Errorf("setWeights: %v: %w", StdWeightsKey, err)
	}
	return nil
}

// CopyWeights copies src into dst, which must have equal shapes
func CopyWeights(dst, src *mat.Dense) error {
	r, c := dst.Dims()
	srcR, srcC := src.Dims()
	if r != srcR || c != srcC {
		return fmt.Errorf("illegal shape \n\twant(%v, %v) \n\thave(%v, %v)",
			r, c, srcR, srcC)
	}
	dst.Copy(src)
	return nil
}
