package pricing

import (
	"fmt"

	"github.com/samuelfneumann/pricelearn/environment"
	"gonum.org/v1/gonum/mat"
)

// State is the state of the pricing simulation: the current price, the
// demand at that price, and the revenue earned. Revenue always equals
// Price * Demand.
//
// States are values. Reset and Step return new States rather than
// mutating their arguments, so that the simulation can be driven and
// tested without an Environment.
type State struct {
	Price   float64
	Demand  float64
	Revenue float64
}

// NewState returns the State reached by setting the argument price
func NewState(d DynamicsParameters, price float64) State {
	demand := d.Demand(price)
	return State{
		Price:   price,
		Demand:  demand,
		Revenue: price * demand,
	}
}

// Reset returns a new starting State with its price drawn from s. The
// Starter should sample 1-dimensional prices, usually uniformly from
// [PMin, PMax].
func Reset(d DynamicsParameters, s environment.Starter) (State, error) {
	start := s.Start()
	if start.Len() != ActionDims {
		return State{}, fmt.Errorf("reset: starter must sample prices "+
			"\n\twant(%v) \n\thave(%v)", ActionDims, start.Len())
	}
	return NewState(d, start.AtVec(0)), nil
}

// Step sets the price to actionPrice, returning the next State and the
// reward, which is the change in revenue from prev to the next State.
// Prices outside [PMin, PMax] are accepted and produce clipped demand.
func Step(d DynamicsParameters, prev State, actionPrice float64) (State,
	float64) {
	next := NewState(d, actionPrice)
	return next, next.Revenue - prev.Revenue
}

// Observation returns the observation of the State, [price, demand]
func (s State) Observation() *mat.VecDense {
	return mat.NewVecDense(ObservationDims, []float64{s.Price, s.Demand})
}

// String returns a string representation of the State
func (s State) String() string {
	return fmt.Sprintf("Price = %v, Demand = %v, Revenue = %v", s.Price,
		s.Demand, s.Revenue)
}
