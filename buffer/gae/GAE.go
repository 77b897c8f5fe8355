// Package gae implements functionality for storing a generalized
// advantage estimate buffer
package gae

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Buffer implements a forward view generalized advantage estimate -
// GAE(λ) - buffer following https://arxiv.org/abs/1506.02438. This
// implementation is adapted from:
//
// https://github.com/openai/spinningup/tree/master/spinup/algos/tf1/vpg
type Buffer struct {
	obsSize    int // Size of state observations
	actionSize int // Number of action dimensions
	maxSize    int // Max buffer size

	currentPos   int // Current position in the buffer
	pathStartIdx int // Position in the buffer where current trajectory starts

	lambda float64 // λ for GAE(λ) calculation
	gamma  float64 // Discount factor ℽ; overwrites env discount factor

	// Buffers for storing data
	obsBuffer []float64
	actBuffer []float64
	advBuffer []float64
	rewBuffer []float64
	retBuffer []float64
	valBuffer []float64
}

// New creates and returns a new GAE(λ) buffer
func New(obsDim, actDim, size int, lambda, gamma float64) (*Buffer, error) {
	if obsDim < 1 || actDim < 1 || size < 1 {
		return nil, fmt.Errorf("new: dimensions and size must be positive")
	}
	if lambda < 0 || lambda > 1 {
		return nil, fmt.Errorf("new: λ must be in [0, 1] \n\thave(%v)", lambda)
	}
	if gamma < 0 || gamma > 1 {
		return nil, fmt.Errorf("new: ℽ must be in [0, 1] \n\thave(%v)", gamma)
	}

	return &Buffer{
		obsSize:    obsDim,
		actionSize: actDim,
		maxSize:    size,
		lambda:     lambda,
		gamma:      gamma,
		obsBuffer:  make([]float64, size*obsDim),
		actBuffer:  make([]float64, size*actDim),
		advBuffer:  make([]float64, size),
		rewBuffer:  make([]float64, size),
		retBuffer:  make([]float64, size),
		valBuffer:  make([]float64, size),
	}, nil
}

// Store stores a single timestep state, action, reward, and value to
// the Buffer.
func (v *Buffer) Store(obs, act []float64, rew, val float64) error {
	if v.currentPos >= v.maxSize {
		return fmt.Errorf("store: cannot add new transition, buffer at " +
			"maximum capacity")
	}
	if len(obs) != v.obsSize {
		return fmt.Errorf("store: illegal obs length \n\twant(%v)\n\thave(%v)",
			v.obsSize, len(obs))
	}
	if len(act) != v.actionSize {
		return fmt.Errorf("store: illegal act length \n\twant(%v)\n\thave(%v)",
			v.actionSize, len(act))
	}

	// Add observations
	start := v.currentPos * v.obsSize
	copy(v.obsBuffer[start:start+v.obsSize], obs)

	// Add actions
	start = v.currentPos * v.actionSize
	copy(v.actBuffer[start:start+v.actionSize], act)

	v.rewBuffer[v.currentPos] = rew
	v.valBuffer[v.currentPos] = val
	v.currentPos++
	return nil
}

// Len returns the number of transitions stored in the buffer
func (v *Buffer) Len() int {
	return v.currentPos
}

// Full returns whether the buffer is at maximum capacity
func (v *Buffer) Full() bool {
	return v.currentPos == v.maxSize
}

// FinishPath computes advantage estimates using GAE(λ) and
// rewards-to-go estimates for each state for the current trajectory.
// This should be called at the end of a trajectory or when one gets
// cut off by an epoch ending.
//
// The lastVal argument should be 0 if the trajectory ended because
// the agent reached a terminal state, and otherwise it should be
// v(s), the value estimate of the current state. This allows for
// bootstrapping the rewards-to-go calculation to account for timesteps
// beyond the arbitrary episode horizon or epoch cutoff.
func (v *Buffer) FinishPath(lastVal float64) {
	start := v.pathStartIdx
	stop := v.currentPos
	if start == stop {
		return
	}

	n := stop - start
	rews := make([]float64, n+1)
	copy(rews, v.rewBuffer[start:stop])
	rews[n] = lastVal

	vals := make([]float64, n+1)
	copy(vals, v.valBuffer[start:stop])
	vals[n] = lastVal

	// GAE-λ advantage calculation
	deltas := make([]float64, n)
	for i := range deltas {
		deltas[i] = rews[i] + v.gamma*vals[i+1] - vals[i]
	}
	copy(v.advBuffer[start:stop], discountCumSum(deltas, v.gamma*v.lambda))

	// Rewards-to-go, bootstrapped from lastVal
	copy(v.retBuffer[start:stop], discountCumSum(rews, v.gamma)[:n])

	v.pathStartIdx = v.currentPos
}

// Get returns the observations, actions, advantages, and returns stored
// in the buffer and empties the buffer. Advantages are first
// standardized to mean 0 and standard deviation 1. The returned slices
// are copies.
func (v *Buffer) Get() (obs, act, adv, ret []float64, err error) {
	if !v.Full() {
		err := fmt.Errorf("get: buffer must be full before sampling")
		return nil, nil, nil, nil, err
	}
	if v.pathStartIdx != v.currentPos {
		err := fmt.Errorf("get: FinishPath must be called before sampling")
		return nil, nil, nil, nil, err
	}

	v.currentPos = 0
	v.pathStartIdx = 0

	// Advantage normalization
	adv = append([]float64(nil), v.advBuffer...)
	mean, std := stat.MeanStdDev(adv, nil)
	if len(adv) == 1 {
		std = 0
	}
	floats.AddConst(-mean, adv)
	floats.Scale(1/(std+1e-8), adv)

	obs = append([]float64(nil), v.obsBuffer...)
	act = append([]float64(nil), v.actBuffer...)
	ret = append([]float64(nil), v.retBuffer...)

	return obs, act, adv, ret, nil
}

// discountCumSum computes and returns the discounted cumulative sum
// of all elements of a vector. Given a vector x = [x0 x1 x2 ... xN]
// and discount ℽ, this function computes and returns:
//
//	[
//		x0 + ℽ x1 + ℽ^2 x2 + ... + ℽ^N xN
//		x1 + ℽ x2 + ... + ℽ^(N-1) xN
//		...
//		xN
//	]
func discountCumSum(x []float64, discount float64) []float64 {
	cumSums := make([]float64, len(x))

	running := 0.0
	for i := len(x) - 1; i >= 0; i-- {
		running = x[i] + discount*running
		cumSums[i] = running
	}
	return cumSums
}
