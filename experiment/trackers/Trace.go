package trackers

import (
	"github.com/samuelfneumann/pricelearn/environment/pricing"
	"github.com/samuelfneumann/pricelearn/experiment/tracker"
	ts "github.com/samuelfneumann/pricelearn/timestep"
)

// StateSource provides the current state of a pricing simulation
type StateSource interface {
	State() pricing.State
}

// TraceData holds the per-step history of a pricing simulation.
// Entry i of each slice belongs to the i-th tracked timestep.
type TraceData struct {
	Price   []float64
	Demand  []float64
	Revenue []float64
	Reward  []float64
}

// Trace tracks the price, demand, revenue and reward on every
// timestep of an experiment
type Trace struct {
	src      StateSource
	data     TraceData
	filename string
}

// NewTrace returns a new Trace which reads the simulation state from
// src and saves its data to filename
func NewTrace(filename string, src StateSource) *Trace {
	return &Trace{src: src, filename: filename}
}

// Track records the current simulation state and the reward of t
func (tr *Trace) Track(t ts.TimeStep) {
	s := tr.src.State()
	tr.data.Price = append(tr.data.Price, s.Price)
	tr.data.Demand = append(tr.data.Demand, s.Demand)
	tr.data.Revenue = append(tr.data.Revenue, s.Revenue)
	tr.data.Reward = append(tr.data.Reward, t.Reward)
}

// Data returns the data tracked so far
func (tr *Trace) Data() TraceData {
	return tr.data
}

// Save saves the tracked TraceData to disk
func (tr *Trace) Save() error {
	return tracker.Encode(tr.filename, tr.data)
}

var _ tracker.Tracker = &Trace{}
