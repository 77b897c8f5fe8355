// Package vanillapg implements the Vanilla Policy Gradient algorithm
// with a Gaussian policy over continuous actions
package vanillapg

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distmv"
	"gonum.org/v1/gonum/stat/distuv"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"

	"github.com/samuelfneumann/pricelearn/agent"
	"github.com/samuelfneumann/pricelearn/agent/linear/continuous/policy"
	"github.com/samuelfneumann/pricelearn/buffer/gae"
	"github.com/samuelfneumann/pricelearn/environment"
	"github.com/samuelfneumann/pricelearn/logger"
	"github.com/samuelfneumann/pricelearn/solver"
	ts "github.com/samuelfneumann/pricelearn/timestep"
	"github.com/samuelfneumann/pricelearn/utils/floatutils"
	"github.com/samuelfneumann/pricelearn/utils/matutils/initializers/weights"
	"github.com/samuelfneumann/pricelearn/utils/op"
)

// HiddenWeightsKey names the hidden layer weights in the map returned
// by Weights. The remaining keys are shared with the linear policy.
const HiddenWeightsKey string = "hidden"

// Note: when an epoch fills up in the middle of an episode, the
// trajectory is cut off and bootstrapped from the critic. The policy is
// then updated on the next call to Step() and the following epoch
// starts at the very next timestep, so the rest of the episode is
// collected with the updated policy and no data is thrown away.

// VPG implements the Vanilla Policy Gradient algorithm with generalized
// advantage estimation. This implementation is adapted from:
//
// https://spinningup.openai.com/en/latest/algorithms/vpg.html
// https://github.com/openai/spinningup/blob/master/spinup/algos/tf1/vpg/vpg.py
//
// The policy is Gaussian with mean
//
//	μ(s) = W₂ᵀ tanh(W₁ᵀ s)
//
// or μ(s) = Wᵀ s when no hidden layer is used, and with log standard
// deviation linear in s. The critic is a linear state value function.
// Both are trained with Gorgonia, while actions and state values for
// single observations are computed directly from the current weights.
type VPG struct {
	// Policy
	policyGraph  *G.ExprGraph
	policyVM     G.VM
	policySolver *solver.Solver
	obs          *G.Node // Batch of observations
	actions      *G.Node // Batch of actions taken
	advantages   *G.Node // Batch of advantage estimates
	hidden       *G.Node // Nil if the mean is linear
	mean         *G.Node
	logStd       *G.Node

	// State value critic
	criticGraph    *G.ExprGraph
	criticVM       G.VM
	criticSolver   *solver.Solver
	criticObs      *G.Node
	criticTargets  *G.Node
	critic         *G.Node
	valueGradSteps int

	buffer          *gae.Buffer
	prevStep        ts.TimeStep
	observedFirst   bool
	completedEpochs int
	eval            bool

	features   int
	actionDims int
	hiddenDims int
	source     rand.Source
	log        logger.Logger
}

// New creates and returns a new VPG
func New(env environment.Environment, c Config, seed uint64) (*VPG, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("new: %w", err)
	}
	if env.ActionSpec().Cardinality != environment.Continuous {
		return nil, fmt.Errorf("new: actions must be continuous")
	}

	features := env.ObservationSpec().Shape.Len()
	actionDims := env.ActionSpec().Shape.Len()

	buffer, err := gae.New(features, actionDims, c.EpochLength, c.Lambda,
		c.Gamma)
	if err != nil {
		return nil, fmt.Errorf("new: %w", err)
	}

	policySolver, criticSolver, err := c.solvers()
	if err != nil {
		return nil, fmt.Errorf("new: %w", err)
	}

	scale := c.InitScale
	if scale == 0 {
		scale = DefaultInitScale
	}
	init := weights.NewLinearUV(distuv.Uniform{
		Min: -scale,
		Max: scale,
		Src: rand.NewSource(seed),
	})

	v := &VPG{
		policySolver:   policySolver,
		criticSolver:   criticSolver,
		valueGradSteps: c.ValueGradSteps,
		buffer:         buffer,
		features:       features,
		actionDims:     actionDims,
		hiddenDims:     c.Hidden,
		source:         rand.NewSource(seed + 1),
		log:            logger.New("vanillapg"),
	}

	if err := v.buildPolicy(c.EpochLength, init); err != nil {
		return nil, fmt.Errorf("new: %w", err)
	}
	if err := v.buildCritic(c.EpochLength); err != nil {
		return nil, fmt.Errorf("new: %w", err)
	}

	return v, nil
}

// learnable creates a new learnable weight matrix in g initialized
// by init
func learnable(g *G.ExprGraph, rows, cols int, name string,
	init weights.Initializer) *G.Node {
	w := mat.NewDense(rows, cols, nil)
	init.Initialize(w)

	value := tensor.New(
		tensor.WithShape(rows, cols),
		tensor.WithBacking(w.RawMatrix().Data),
	)
	return G.NewMatrix(
		g,
		tensor.Float64,
		G.WithShape(rows, cols),
		G.WithName(name),
		G.WithValue(value),
	)
}

// buildPolicy constructs the policy graph and its gradient with respect
// to the policy gradient loss
func (v *VPG) buildPolicy(batch int, init weights.Initializer) error {
	g := G.NewGraph()

	v.obs = G.NewMatrix(g, tensor.Float64, G.WithShape(batch, v.features),
		G.WithName("obs"))
	v.actions = G.NewMatrix(g, tensor.Float64,
		G.WithShape(batch, v.actionDims), G.WithName("actions"))
	v.advantages = G.NewVector(g, tensor.Float64, G.WithShape(batch),
		G.WithName("advantages"))

	var mean *G.Node
	if v.hiddenDims > 0 {
		v.hidden = learnable(g, v.features, v.hiddenDims, HiddenWeightsKey,
			init)
		v.mean = learnable(g, v.hiddenDims, v.actionDims,
			policy.MeanWeightsKey, init)

		h := G.Must(G.Mul(v.obs, v.hidden))
		h = G.Must(G.Tanh(h))
		mean = G.Must(G.Mul(h, v.mean))
	} else {
		v.mean = learnable(g, v.features, v.actionDims,
			policy.MeanWeightsKey, init)
		mean = G.Must(G.Mul(v.obs, v.mean))
	}

	v.logStd = learnable(g, v.features, v.actionDims, policy.StdWeightsKey,
		weights.NewZero())
	logStd := G.Must(G.Mul(v.obs, v.logStd))

	logProb, err := op.GaussianLogPdf(mean, logStd, v.actions)
	if err != nil {
		return fmt.Errorf("buildPolicy: %w", err)
	}

	loss := G.Must(G.HadamardProd(logProb, v.advantages))
	loss = G.Must(G.Mean(loss))
	loss = G.Must(G.Neg(loss))

	learnables := v.policyLearnables()
	if _, err := G.Grad(loss, learnables...); err != nil {
		return fmt.Errorf("buildPolicy: could not compute gradient: %w", err)
	}

	v.policyGraph = g
	v.policyVM = G.NewTapeMachine(g, G.BindDualValues(learnables...))
	return nil
}

// buildCritic constructs the critic graph and its gradient with respect
// to the mean squared error from the rewards-to-go
func (v *VPG) buildCritic(batch int) error {
	g := G.NewGraph()

	v.criticObs = G.NewMatrix(g, tensor.Float64,
		G.WithShape(batch, v.features), G.WithName("obs"))
	v.criticTargets = G.NewMatrix(g, tensor.Float64, G.WithShape(batch, 1),
		G.WithName("targets"))
	v.critic = learnable(g, v.features, 1, policy.CriticWeightsKey,
		weights.NewZero())

	prediction := G.Must(G.Mul(v.criticObs, v.critic))
	loss := G.Must(G.Sub(prediction, v.criticTargets))
	loss = G.Must(G.Square(loss))
	loss = G.Must(G.Mean(loss))

	if _, err := G.Grad(loss, v.critic); err != nil {
		return fmt.Errorf("buildCritic: could not compute gradient: %w", err)
	}

	v.criticGraph = g
	v.criticVM = G.NewTapeMachine(g, G.BindDualValues(v.critic))
	return nil
}

// policyLearnables returns the learnable nodes of the policy
func (v *VPG) policyLearnables() G.Nodes {
	if v.hidden != nil {
		return G.Nodes{v.hidden, v.mean, v.logStd}
	}
	return G.Nodes{v.mean, v.logStd}
}

// SetLogger sets the Logger used to report warnings
func (v *VPG) SetLogger(log logger.Logger) {
	v.log = log
}

// nodeMatrix returns a matrix sharing the backing data of the value of
// a weight node
func nodeMatrix(n *G.Node) *mat.Dense {
	shape := n.Shape()
	return mat.NewDense(shape[0], shape[1], n.Value().Data().([]float64))
}

// Mean returns the mean action of the policy in state obs
func (v *VPG) Mean(obs mat.Vector) *mat.VecDense {
	in := obs
	if v.hidden != nil {
		h := mat.NewVecDense(v.hiddenDims, nil)
		h.MulVec(nodeMatrix(v.hidden).T(), obs)
		for i := 0; i < h.Len(); i++ {
			h.SetVec(i, math.Tanh(h.AtVec(i)))
		}
		in = h
	}

	mean := mat.NewVecDense(v.actionDims, nil)
	mean.MulVec(nodeMatrix(v.mean).T(), in)
	return mean
}

// Std returns the standard deviation of the policy in state obs
func (v *VPG) Std(obs mat.Vector) *mat.VecDense {
	std := mat.NewVecDense(v.actionDims, nil)
	std.MulVec(nodeMatrix(v.logStd).T(), obs)
	for i := 0; i < std.Len(); i++ {
		logStd := floatutils.Clip(std.AtVec(i), policy.MinLogStd,
			policy.MaxLogStd)
		std.SetVec(i, math.Exp(logStd))
	}
	return std
}

// value returns the critic's estimate of the value of obs
func (v *VPG) value(obs mat.Vector) float64 {
	return mat.Dot(obs, mat.NewVecDense(v.features,
		v.critic.Value().Data().([]float64)))
}

// TdError returns the one-step TD error of the critic on transition t
func (v *VPG) TdError(t ts.Transition) float64 {
	return t.Reward + t.Discount*v.value(t.NextState) - v.value(t.State)
}

// SelectAction returns an action at the given timestep. In evaluation
// mode the mean action is returned.
func (v *VPG) SelectAction(t ts.TimeStep) *mat.VecDense {
	obs := t.Observation
	if obs.Len() != v.features {
		panic(fmt.Sprintf("selectAction: illegal observation dimensions "+
			"\n\twant(%v) \n\thave(%v)", v.features, obs.Len()))
	}

	mean := v.Mean(obs)
	if v.eval {
		return mean
	}

	std := v.Std(obs)
	std.MulElemVec(std, std)
	cov := mat.NewDiagDense(std.Len(), std.RawVector().Data)
	dist, ok := distmv.NewNormal(mean.RawVector().Data, cov, v.source)
	if !ok {
		panic("selectAction: non-positive-definite covariance")
	}
	return mat.NewVecDense(v.actionDims, dist.Rand(nil))
}

// ObserveFirst observes and records information about the first
// timestep in an episode.
func (v *VPG) ObserveFirst(t ts.TimeStep) error {
	if !t.First() {
		v.log.Warnf("ObserveFirst() called on %v timestep", t.StepType)
	}
	v.prevStep = t
	v.observedFirst = true
	return nil
}

// Observe records the action taken at the previous timestep and the
// timestep it led to. If the trajectory ends, either because the
// episode ended or the epoch is full, advantages are computed for it.
func (v *VPG) Observe(action mat.Vector, nextStep ts.TimeStep) error {
	if !v.observedFirst {
		return fmt.Errorf("observe: ObserveFirst() must be called first")
	}
	if action.Len() != v.actionDims {
		return fmt.Errorf("observe: illegal action dimensions \n\twant(%v)"+
			"\n\thave(%v)", v.actionDims, action.Len())
	}
	if !floatutils.IsFinite(nextStep.Reward) {
		return fmt.Errorf("observe: illegal reward %v", nextStep.Reward)
	}

	prevStep := v.prevStep
	v.prevStep = nextStep
	if v.eval {
		return nil
	}

	obs := prevStep.Observation
	act := mat.VecDenseCopyOf(action).RawVector().Data
	err := v.buffer.Store(obs.RawVector().Data, act, nextStep.Reward,
		v.value(obs))
	if err != nil {
		return fmt.Errorf("observe: %w", err)
	}

	if nextStep.Last() || v.buffer.Full() {
		lastVal := 0.0
		if !nextStep.TerminalEnd() {
			lastVal = v.value(nextStep.Observation)
		}
		v.buffer.FinishPath(lastVal)
	}
	return nil
}

// Step updates the agent once an epoch of data has been collected. If
// the agent is in evaluation mode or the epoch is not yet complete,
// Step does nothing.
func (v *VPG) Step() error {
	if v.eval || !v.buffer.Full() {
		return nil
	}

	obs, act, adv, ret, err := v.buffer.Get()
	if err != nil {
		return fmt.Errorf("step: %w", err)
	}

	// Policy gradient step
	if err := v.let(v.obs, obs); err != nil {
		return fmt.Errorf("step: %w", err)
	}
	if err := v.let(v.actions, act); err != nil {
		return fmt.Errorf("step: %w", err)
	}
	if err := v.let(v.advantages, adv); err != nil {
		return fmt.Errorf("step: %w", err)
	}
	if err := v.policyVM.RunAll(); err != nil {
		return fmt.Errorf("step: policy: %w", err)
	}
	model := G.NodesToValueGrads(v.policyLearnables())
	if err := v.policySolver.Step(model); err != nil {
		return fmt.Errorf("step: policy: %w", err)
	}
	v.policyVM.Reset()

	// Value function update
	if err := v.let(v.criticObs, obs); err != nil {
		return fmt.Errorf("step: %w", err)
	}
	if err := v.let(v.criticTargets, ret); err != nil {
		return fmt.Errorf("step: %w", err)
	}
	for i := 0; i < v.valueGradSteps; i++ {
		if err := v.criticVM.RunAll(); err != nil {
			return fmt.Errorf("step: critic: %w", err)
		}
		model := G.NodesToValueGrads(G.Nodes{v.critic})
		if err := v.criticSolver.Step(model); err != nil {
			return fmt.Errorf("step: critic: %w", err)
		}
		v.criticVM.Reset()
	}

	if !v.weightsFinite() {
		return fmt.Errorf("step: weights diverged after epoch %v",
			v.completedEpochs)
	}

	v.completedEpochs++
	v.log.Debugf("completed epoch %v", v.completedEpochs)
	return nil
}

// let binds data to the input node n
func (v *VPG) let(n *G.Node, data []float64) error {
	value := tensor.New(tensor.WithShape(n.Shape()...),
		tensor.WithBacking(data))
	if err := G.Let(n, value); err != nil {
		return fmt.Errorf("let: %v: %w", n.Name(), err)
	}
	return nil
}

// weightsFinite returns whether all weights are finite
func (v *VPG) weightsFinite() bool {
	for _, w := range v.Weights() {
		if !floatutils.IsFinite(w.RawMatrix().Data...) {
			return false
		}
	}
	return true
}

// CompletedEpochs returns the number of policy updates performed
func (v *VPG) CompletedEpochs() int {
	return v.completedEpochs
}

// EndEpisode performs cleanup at the end of an episode.
func (v *VPG) EndEpisode() {
	v.observedFirst = false
}

// Eval sets the algorithm into evaluation mode
func (v *VPG) Eval() { v.eval = true }

// Train sets the algorithm into training mode
func (v *VPG) Train() { v.eval = false }

// IsEval returns whether the algorithm is in evaluation mode
func (v *VPG) IsEval() bool { return v.eval }

// Weights returns copies of the policy and critic weights
func (v *VPG) Weights() map[string]*mat.Dense {
	w := map[string]*mat.Dense{
		policy.MeanWeightsKey:   mat.DenseCopyOf(nodeMatrix(v.mean)),
		policy.StdWeightsKey:    mat.DenseCopyOf(nodeMatrix(v.logStd)),
		policy.CriticWeightsKey: mat.DenseCopyOf(nodeMatrix(v.critic)),
	}
	if v.hidden != nil {
		w[HiddenWeightsKey] = mat.DenseCopyOf(nodeMatrix(v.hidden))
	}
	return w
}

// SetWeights copies w into the policy and critic weights. The solvers
// are reset since their statistics no longer match the weights.
func (v *VPG) SetWeights(w map[string]*mat.Dense) error {
	nodes := map[string]*G.Node{
		policy.MeanWeightsKey:   v.mean,
		policy.StdWeightsKey:    v.logStd,
		policy.CriticWeightsKey: v.critic,
	}
	if v.hidden != nil {
		nodes[HiddenWeightsKey] = v.hidden
	}

	for key := range nodes {
		if _, ok := w[key]; !ok {
			return fmt.Errorf("setWeights: no weights named \"%v\"", key)
		}
	}
	for key, n := range nodes {
		if err := policy.CopyWeights(nodeMatrix(n), w[key]); err != nil {
			return fmt.Errorf("setWeights: %v: %w", key, err)
		}
	}

	v.policySolver.Reset()
	v.criticSolver.Reset()
	return nil
}

// GobEncode implements the gob.GobEncoder interface
func (v *VPG) GobEncode() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v.Weights()); err != nil {
		return nil, fmt.Errorf("gobEncode: %w", err)
	}
	return buf.Bytes(), nil
}

// GobDecode implements the gob.GobDecoder interface. The agent must
// already have been constructed with the correct dimensions.
func (v *VPG) GobDecode(data []byte) error {
	var w map[string]*mat.Dense
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&w); err != nil {
		return fmt.Errorf("gobDecode: %w", err)
	}
	return v.SetWeights(w)
}

// Close releases the resources held by the Gorgonia VMs
func (v *VPG) Close() error {
	if err := v.policyVM.Close(); err != nil {
		return err
	}
	return v.criticVM.Close()
}

var _ agent.Weighted = &VPG{}
var _ agent.TdErrorer = &VPG{}
var _ agent.Closer = &VPG{}
