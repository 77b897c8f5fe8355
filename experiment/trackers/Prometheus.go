package trackers

import (
	"github.com/samuelfneumann/pricelearn/experiment/tracker"
	"github.com/samuelfneumann/pricelearn/metrics"
	ts "github.com/samuelfneumann/pricelearn/timestep"
)

// Prometheus feeds every tracked timestep into Prometheus metrics. It
// keeps no data of its own, so Save does nothing.
type Prometheus struct {
	m             *metrics.Metrics
	src           StateSource
	episodeReturn float64
}

// NewPrometheus returns a Tracker recording timesteps in m, reading
// the simulation state from src
func NewPrometheus(m *metrics.Metrics, src StateSource) *Prometheus {
	return &Prometheus{m: m, src: src}
}

// Track records t in the metrics. The first timestep of an episode
// only resets the episode return, since no action led to it.
func (p *Prometheus) Track(t ts.TimeStep) {
	if t.First() {
		p.episodeReturn = 0
		p.m.SetEpisodeReturn(0)
		return
	}

	p.episodeReturn += t.Reward
	p.m.ObserveStep(t.Reward, p.src.State())
	p.m.SetEpisodeReturn(p.episodeReturn)
}

// Save implements the tracker.Tracker interface
func (p *Prometheus) Save() error { return nil }

var _ tracker.Tracker = &Prometheus{}
