// Package experiment implements functionality for running an experiment
package experiment

import (
	"context"

	"github.com/samuelfneumann/pricelearn/experiment/tracker"
)

// Interface Experiment outlines structs that can run experiments.
// Experiments send each environment TimeStep to their Trackers, which
// cache the data they need until Save() writes it to disk. The Run()
// method runs episodes until the maximum timestep limit is reached or
// the context is cancelled. The RunEpisode() method runs a single
// episode.
//
// New Trackers can be registered with an Experiment through the
// constructor or through an Experiment's Register() method.
type Experiment interface {
	Run(ctx context.Context) error

	// RunEpisode returns whether the timestep limit has been reached
	RunEpisode(ctx context.Context) (bool, error)

	// Save all tracked data to disk
	Save() error

	// Adds a new tracker.Tracker to the (possibly already running)
	// experiment. Useful if you want to track data only after a
	// specified event.
	Register(t tracker.Tracker)
}
