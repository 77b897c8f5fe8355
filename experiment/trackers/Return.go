// Package trackers implements Trackers for pricing experiments
package trackers

import (
	"fmt"

	"github.com/samuelfneumann/pricelearn/experiment/tracker"
	ts "github.com/samuelfneumann/pricelearn/timestep"
)

// Return tracks and saves the episodic return in an experiment. When
// an environment returns a TimeStep, this Tracker will extract the
// reward and accumulate the return for each episode in the experiment.
//
// Note: If an environment is wrapped by some environment wrapper
// which modifies rewards, then this Tracker tracks the modified rewards
// returned by the wrapped environment. Use tracker.Register to track
// the raw revenue deltas instead.
//
// Pricing episodes often never end. If an episode is still running
// when Save is called, its partial return is saved after the returns
// of all finished episodes.
type Return struct {
	lastTimeStep   int
	currentReturn  float64
	tracking       bool
	episodeReturns []float64
	filename       string
}

// NewReturn creates and returns a new *Return Tracker
func NewReturn(filename string) *Return {
	return &Return{lastTimeStep: -1, filename: filename}
}

// Track tracks the rewards seen on a timestep. By calling this method
// on every timestep, the Tracker will store all rewards seen in the
// episode, and save the cumulative reward for that episode as the
// episodic return. When a new episode starts, this method will
// automatically detect this and start accumulating the rewards for this
// new episode separately from the rewards seen on previous episodes.
//
// Track panics if it is called for non-sequential timesteps
func (r *Return) Track(step ts.TimeStep) {
	if r.lastTimeStep+1 != step.Number {
		panic(fmt.Sprintf("track: last two timesteps tracked are not "+
			"sequential: timestep %v --> timestep %v were tracked",
			r.lastTimeStep, step.Number))
	}

	r.currentReturn += step.Reward
	r.tracking = true
	r.lastTimeStep = step.Number

	if step.Last() {
		r.episodeReturns = append(r.episodeReturns, r.currentReturn)
		r.currentReturn = 0.0
		r.tracking = false
		r.lastTimeStep = -1
	}
}

// Returns returns the returns tracked so far, including the partial
// return of an unfinished episode
func (r *Return) Returns() []float64 {
	returns := append([]float64(nil), r.episodeReturns...)
	if r.tracking {
		returns = append(returns, r.currentReturn)
	}
	return returns
}

// Save saves the data tracked by the Return Tracker to disk.
func (r *Return) Save() error {
	return tracker.Encode(r.filename, r.Returns())
}

var _ tracker.Tracker = &Return{}
