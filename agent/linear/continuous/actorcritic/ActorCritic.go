// Package actorcritic implements linear Actor-Critic algorithms
package actorcritic

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/samuelfneumann/pricelearn/agent"
	"github.com/samuelfneumann/pricelearn/agent/linear/continuous/policy"
	"github.com/samuelfneumann/pricelearn/environment"
	"github.com/samuelfneumann/pricelearn/logger"
	ts "github.com/samuelfneumann/pricelearn/timestep"
	"github.com/samuelfneumann/pricelearn/utils/floatutils"
	"github.com/samuelfneumann/pricelearn/utils/matutils/initializers/weights"
)

// LinearGaussian implements the Linear-Gaussian Actor-Critic algorithm:
//
// https://hal.inria.fr/hal-00764281/PDF/DegrisACC2012.pdf
//
// This algorithm uses linear function approximation to learn both
// a linear state value function critic and a Gaussian policy actor.
// The policy itself may select n-dimensional actions. The algorithm
// uses eligibility traces for both actor and critic gradients.
//
// See the paper above for more details.
type LinearGaussian struct {
	*policy.Gaussian

	step     ts.TimeStep
	action   *mat.VecDense
	nextStep ts.TimeStep
	log      logger.Logger

	// Weights for linear function approximation
	meanWeights   *mat.Dense
	stdWeights    *mat.Dense
	criticWeights *mat.VecDense

	// Eligibility traces
	meanTrace   *mat.Dense
	stdTrace    *mat.Dense
	criticTrace *mat.VecDense

	actorLR      float64
	criticLR     float64
	decay        float64
	scaleActorLR bool
	features     int
	actionDims   int
}

// NewLinearGaussian returns a new LinearGaussian. The weights for the
// linear function approximators (actor and critic) are initialized
// using the init Initializer argument. The eligibility traces for the
// algorithm are always initialized to 0.
func NewLinearGaussian(env environment.Environment, c Config,
	init weights.Initializer, seed uint64) (*LinearGaussian, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("newLinearGaussian: %w", err)
	}

	gaussianPolicy, err := policy.NewGaussian(seed, env)
	if err != nil {
		return nil, fmt.Errorf("newLinearGaussian: %w", err)
	}

	// Store features and actions dimensions
	features := env.ObservationSpec().Shape.Len()
	actionDims := env.ActionSpec().Shape.Len()

	// Initialize the weights for the agent
	meanWeights := gaussianPolicy.Weights()[policy.MeanWeightsKey]
	stdWeights := gaussianPolicy.Weights()[policy.StdWeightsKey]
	criticWeightsMat := mat.NewDense(1, features, nil)
	init.Initialize(meanWeights)
	init.Initialize(stdWeights)
	init.Initialize(criticWeightsMat)

	// Share the backing data so that the critic can be treated as a
	// vector
	criticWeights := mat.NewVecDense(
		features,
		criticWeightsMat.RawMatrix().Data,
	)

	return &LinearGaussian{
		Gaussian: gaussianPolicy,
		log:      logger.New("actorcritic"),

		meanWeights:   meanWeights,
		stdWeights:    stdWeights,
		criticWeights: criticWeights,

		meanTrace:   mat.NewDense(actionDims, features, nil),
		stdTrace:    mat.NewDense(actionDims, features, nil),
		criticTrace: mat.NewVecDense(features, nil),

		actorLR:      c.ActorLearningRate,
		criticLR:     c.CriticLearningRate,
		decay:        c.Decay,
		scaleActorLR: c.ScaleActorLR,
		features:     features,
		actionDims:   actionDims,
	}, nil
}

// SetLogger sets the Logger used to report warnings
func (l *LinearGaussian) SetLogger(log logger.Logger) {
	l.log = log
}

// value returns the critic's estimate of the value of state
func (l *LinearGaussian) value(state mat.Vector) float64 {
	return mat.Dot(l.criticWeights, state)
}

// TdError computes the TD error of the algorithm at a given transition
func (l *LinearGaussian) TdError(t ts.Transition) float64 {
	return t.Reward + t.Discount*l.value(t.NextState) - l.value(t.State)
}

// Step updates the algorithm's weights
func (l *LinearGaussian) Step() error {
	// If in evaluation mode, do not step
	if l.IsEval() {
		return nil
	}
	if l.action == nil {
		return fmt.Errorf("step: no transition has been observed")
	}

	state := l.step.Observation
	nextState := l.nextStep.Observation

	// Calculate TD error δ
	r := l.nextStep.Reward
	ℽ := l.nextStep.Discount
	nextStateValue := 0.0
	if !l.nextStep.TerminalEnd() {
		nextStateValue = l.value(nextState)
	}
	δ := r + ℽ*nextStateValue - l.value(state)

	// Update the critic trace and weights
	l.criticTrace.AddScaledVec(state, ℽ*l.decay, l.criticTrace)
	l.criticWeights.AddScaledVec(l.criticWeights, l.criticLR*δ, l.criticTrace)

	// Variables needed for gradient computation
	mean := l.Gaussian.Mean(state)
	std := l.Gaussian.Std(state)
	variance := mat.NewVecDense(l.actionDims, nil)
	variance.MulElemVec(std, std)
	diff := mat.NewVecDense(l.actionDims, nil)
	diff.SubVec(l.action, mean)

	// ∇_μ ln π = (a - μ) / σ² s
	meanGradScale := mat.NewVecDense(l.actionDims, nil)
	meanGradScale.DivElemVec(diff, variance)
	meanGrad := mat.NewDense(l.actionDims, l.features, nil)
	meanGrad.Outer(1.0, meanGradScale, state)

	// ∇_σ ln π = ((a - μ)² / σ² - 1) s
	stdGradScale := mat.NewVecDense(l.actionDims, nil)
	stdGradScale.MulElemVec(diff, diff)
	stdGradScale.DivElemVec(stdGradScale, variance)
	for i := 0; i < stdGradScale.Len(); i++ {
		stdGradScale.SetVec(i, stdGradScale.AtVec(i)-1.0)
	}
	stdGrad := mat.NewDense(l.actionDims, l.features, nil)
	stdGrad.Outer(1.0, stdGradScale, state)

	// Update the actor traces
	l.meanTrace.Scale(ℽ*l.decay, l.meanTrace)
	l.meanTrace.Add(l.meanTrace, meanGrad)
	l.stdTrace.Scale(ℽ*l.decay, l.stdTrace)
	l.stdTrace.Add(l.stdTrace, stdGrad)

	// Update actor weights
	actorLR := l.actorLR
	if l.scaleActorLR && l.actionDims == 1 {
		actorLR *= variance.AtVec(0)
	}

	update := mat.NewDense(l.actionDims, l.features, nil)
	update.Scale(actorLR*δ, l.meanTrace)
	l.meanWeights.Add(l.meanWeights, update)

	update.Scale(actorLR*δ, l.stdTrace)
	l.stdWeights.Add(l.stdWeights, update)

	if !l.weightsFinite() {
		return fmt.Errorf("step: weights diverged (td error %v)", δ)
	}
	return nil
}

// weightsFinite returns whether all weights are finite
func (l *LinearGaussian) weightsFinite() bool {
	for _, w := range l.Weights() {
		for _, v := range w.RawMatrix().Data {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return false
			}
		}
	}
	return true
}

// Observe records the previously selected action and the timestep
// that it led to
func (l *LinearGaussian) Observe(a mat.Vector, nextStep ts.TimeStep) error {
	if a.Len() != l.actionDims {
		return fmt.Errorf("observe: illegal action dimensions \n\twant(%v)"+
			"\n\thave(%v)", l.actionDims, a.Len())
	}
	if !floatutils.IsFinite(nextStep.Reward) {
		return fmt.Errorf("observe: illegal reward %v", nextStep.Reward)
	}

	l.step = l.nextStep
	l.action = mat.VecDenseCopyOf(a)
	l.nextStep = nextStep
	return nil
}

// ObserveFirst observes the first timestep in an episode
func (l *LinearGaussian) ObserveFirst(t ts.TimeStep) error {
	if !t.First() {
		l.log.Warnf("ObserveFirst() called on %v timestep", t.StepType)
	}
	l.step = t
	l.nextStep = t
	l.action = nil
	return nil
}

// EndEpisode adjusts variables after an episode has completed
func (l *LinearGaussian) EndEpisode() {
	l.criticTrace.Zero()
	l.stdTrace.Zero()
	l.meanTrace.Zero()
}

// Weights returns the weights of the actor and critic
func (l *LinearGaussian) Weights() map[string]*mat.Dense {
	weights := l.Gaussian.Weights()
	weights[policy.CriticWeightsKey] = mat.NewDense(1, l.features,
		l.criticWeights.RawVector().Data)

	return weights
}

// SetWeights copies weights into the actor and critic
func (l *LinearGaussian) SetWeights(w map[string]*mat.Dense) error {
	critic, ok := w[policy.CriticWeightsKey]
	if !ok {
		return fmt.Errorf("setWeights: no weights named \"%v\"",
			policy.CriticWeightsKey)
	}
	if err := l.Gaussian.SetWeights(w); err != nil {
		return err
	}

	criticWeights := mat.NewDense(1, l.features,
		l.criticWeights.RawVector().Data)
	if err := policy.CopyWeights(criticWeights, critic); err != nil {
		return fmt.Errorf("setWeights: %v: %w", policy.CriticWeightsKey, err)
	}
	return nil
}

// GobEncode implements the gob.GobEncoder interface
func (l *LinearGaussian) GobEncode() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(l.Weights()); err != nil {
		return nil, fmt.Errorf("gobEncode: %w", err)
	}
	return buf.Bytes(), nil
}

// GobDecode implements the gob.GobDecoder interface. The agent must
// already have been constructed with the correct dimensions.
func (l *LinearGaussian) GobDecode(data []byte) error {
	var w map[string]*mat.Dense
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&w); err != nil {
		return fmt.Errorf("gobDecode: %w", err)
	}
	return l.SetWeights(w)
}

var _ agent.Weighted = &LinearGaussian{}
var _ agent.TdErrorer = &LinearGaussian{}
