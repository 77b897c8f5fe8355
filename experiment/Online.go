package experiment

import (
	"context"
	"errors"
	"fmt"

	"github.com/samuelfneumann/pricelearn/agent"
	env "github.com/samuelfneumann/pricelearn/environment"
	"github.com/samuelfneumann/pricelearn/experiment/checkpointer"
	"github.com/samuelfneumann/pricelearn/experiment/tracker"
	"github.com/samuelfneumann/pricelearn/logger"
	ts "github.com/samuelfneumann/pricelearn/timestep"
)

// Online is an Experiment that runs an agent online only. No offline
// evaluation is performed.
type Online struct {
	env.Environment
	agent.Agent
	maxSteps      int
	currentSteps  int
	trackers      []tracker.Tracker
	checkpointers []checkpointer.Checkpointer
	progress      func(step int)
	log           logger.Logger
}

// NewOnline creates and returns a new online experiment on a given
// environment with a given agent. The steps parameter determines how
// many timesteps the experiment is run for, t determines what data is
// tracked and c determines how the agent is checkpointed.
func NewOnline(e env.Environment, a agent.Agent, steps int,
	t []tracker.Tracker, c []checkpointer.Checkpointer) (*Online, error) {
	if steps < 0 {
		return nil, fmt.Errorf("newOnline: steps must be non-negative")
	}
	return &Online{
		Environment:   e,
		Agent:         a,
		maxSteps:      steps,
		trackers:      t,
		checkpointers: c,
		log:           logger.New("experiment"),
	}, nil
}

// SetLogger sets the Logger used to report episode endings
func (o *Online) SetLogger(log logger.Logger) {
	o.log = log
}

// OnStep sets a function called with the total number of steps taken
// after every step, for example to advance a progress bar
func (o *Online) OnStep(f func(step int)) {
	o.progress = f
}

// Register registers a tracker.Tracker with an Experiment so that data
// generated during the experiment can be tracked and saved
func (o *Online) Register(t tracker.Tracker) {
	o.trackers = append(o.trackers, t)
}

// Steps returns the number of timesteps run so far
func (o *Online) Steps() int {
	return o.currentSteps
}

// RunEpisode runs a single episode of the experiment. The episode is
// cut short if the timestep limit is reached or ctx is cancelled.
func (o *Online) RunEpisode(ctx context.Context) (bool, error) {
	step, err := o.Environment.Reset()
	if err != nil {
		return false, fmt.Errorf("runEpisode: %w", err)
	}
	if err := o.Agent.ObserveFirst(step); err != nil {
		return false, fmt.Errorf("runEpisode: %w", err)
	}
	o.track(step)

	// Run the next timestep
	for !step.Last() && o.currentSteps < o.maxSteps {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		o.currentSteps++

		// Select action, step in environment
		action := o.Agent.SelectAction(step)
		step, _, err = o.Environment.Step(action)
		if err != nil {
			return false, fmt.Errorf("runEpisode: %w", err)
		}

		// Cache the environment step in each Tracker
		o.track(step)

		// Observe the timestep and step the agent
		if err := o.Agent.Observe(action, step); err != nil {
			return false, fmt.Errorf("runEpisode: %w", err)
		}
		if err := o.Agent.Step(); err != nil {
			return false, fmt.Errorf("runEpisode: %w", err)
		}

		if err := o.checkpoint(step); err != nil {
			return false, fmt.Errorf("runEpisode: %w", err)
		}
		if o.progress != nil {
			o.progress(o.currentSteps)
		}
	}

	if step.Last() {
		o.Agent.EndEpisode()
		o.log.Debugw("episode finished", map[string]any{
			"steps":    step.Number,
			"end_type": step.EndType().String(),
		})
	}

	// Return whether or not the max timestep limit has been reached
	return o.currentSteps >= o.maxSteps, nil
}

// Run runs the entire experiment for all timesteps. If ctx is
// cancelled, Run stops between two steps and returns the context's
// error.
func (o *Online) Run(ctx context.Context) error {
	for {
		ended, err := o.RunEpisode(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				o.log.Warnf("experiment cancelled after %v steps",
					o.currentSteps)
			}
			return err
		}
		if ended {
			return nil
		}
	}
}

// Save saves all the data cached by the Trackers to disk
func (o *Online) Save() error {
	var errs []error
	for _, t := range o.trackers {
		if err := t.Save(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("save: %w", err)
	}
	return nil
}

// track tracks the current timestep by caching its data in each Tracker
func (o *Online) track(t ts.TimeStep) {
	for _, tr := range o.trackers {
		tr.Track(t)
	}
}

// checkpoint passes t to each Checkpointer
func (o *Online) checkpoint(t ts.TimeStep) error {
	for _, c := range o.checkpointers {
		if err := c.Checkpoint(t); err != nil {
			return err
		}
	}
	return nil
}

var _ Experiment = &Online{}
