package environment

import (
	ts "github.com/samuelfneumann/pricelearn/timestep"
	"gonum.org/v1/gonum/mat"
)

// FunctionEnder ends an episode whenever a function of a vector
// (usually the underlying environment state) returns true.
type FunctionEnder struct {
	end     func(*mat.VecDense) bool
	endType ts.EndType
}

// NewFunctionEnder returns a new FunctionEnder which ends episodes with
// end type endType when f returns true.
func NewFunctionEnder(f func(*mat.VecDense) bool, endType ts.EndType) Ender {
	return &FunctionEnder{f, endType}
}

// End determines whether or not the current episode should be ended,
// returning a boolean to indicate episode termination. If the episode
// should be ended, End() will modify the timestep so that its StepType
// field is timestep.Last and its EndType is the appropriate ending
// type.
func (f *FunctionEnder) End(t *ts.TimeStep) bool {
	if f.end(t.Observation) {
		t.StepType = ts.Last
		t.SetEnd(f.endType)
		return true
	}
	return false
}

// multiEnder ends an episode when any of its Enders does
type multiEnder []Ender

// NewMultiEnder returns an Ender which ends an episode as soon as one of
// the argument Enders does. Enders are checked in order.
func NewMultiEnder(enders ...Ender) Ender {
	return multiEnder(enders)
}

func (m multiEnder) End(t *ts.TimeStep) bool {
	for _, e := range m {
		if e.End(t) {
			return true
		}
	}
	return false
}
