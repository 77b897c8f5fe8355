// Package pricing implements a synthetic price optimization environment.
// A seller chooses a price on each timestep and observes the quantity
// sold, which follows a bounded sigmoid demand curve of the price. The
// reward for a price is the change in revenue it causes.
package pricing

import (
	"fmt"
	"math"

	"github.com/samuelfneumann/pricelearn/utils/floatutils"
	"gonum.org/v1/gonum/optimize"
)

// Default dynamics
const (
	DefaultMinPrice  float64 = 0.0
	DefaultMaxPrice  float64 = 5000.0
	DefaultMinDemand float64 = 0.0
	DefaultMaxDemand float64 = 2000.0
	DefaultSteepness float64 = 0.0025

	ObservationDims int = 2 // [price, demand]
	ActionDims      int = 1 // [price]

	optimalPriceGrid int = 101
)

// DynamicsParameters determine the shape of the demand curve. Prices
// are expected in [PMin, PMax] and demand always lies in [NMin, NMax].
// K is the steepness of the sigmoid around the centre of the price
// range.
type DynamicsParameters struct {
	PMin float64 `json:"pmin"`
	PMax float64 `json:"pmax"`
	NMin float64 `json:"nmin"`
	NMax float64 `json:"nmax"`
	K    float64 `json:"k"`
}

// DefaultDynamics returns the default demand dynamics
func DefaultDynamics() DynamicsParameters {
	return DynamicsParameters{
		PMin: DefaultMinPrice,
		PMax: DefaultMaxPrice,
		NMin: DefaultMinDemand,
		NMax: DefaultMaxDemand,
		K:    DefaultSteepness,
	}
}

// NewDynamics returns new, validated DynamicsParameters
func NewDynamics(pMin, pMax, nMin, nMax, k float64) (DynamicsParameters,
	error) {
	d := DynamicsParameters{PMin: pMin, PMax: pMax, NMin: nMin, NMax: nMax,
		K: k}
	if err := d.Validate(); err != nil {
		return DynamicsParameters{}, fmt.Errorf("newDynamics: %w", err)
	}
	return d, nil
}

// Validate returns an error if the parameters do not describe a valid
// demand curve
func (d DynamicsParameters) Validate() error {
	if !floatutils.IsFinite(d.PMin, d.PMax, d.NMin, d.NMax, d.K) {
		return fmt.Errorf("validate: dynamics must be finite, have %+v", d)
	}
	if d.PMin > d.PMax {
		return fmt.Errorf("validate: pmin (%v) > pmax (%v)", d.PMin, d.PMax)
	}
	if d.NMin > d.NMax {
		return fmt.Errorf("validate: nmin (%v) > nmax (%v)", d.NMin, d.NMax)
	}
	if d.K <= 0 {
		return fmt.Errorf("validate: k must be positive \n\twant(>0) "+
			"\n\thave(%v)", d.K)
	}
	return nil
}

// Midpoint returns the price at the centre of the sigmoid, where demand
// is halfway between NMin and NMax
func (d DynamicsParameters) Midpoint() float64 {
	return (d.PMax + d.PMin) / 2
}

// Demand returns the quantity sold at the argument price:
//
//		N(p) = NMin + (NMax - NMin) / (1 + exp(K * (p - midpoint)))
//
// clipped to [NMin, NMax]. Any real price is accepted. When the
// exponential overflows, demand saturates at NMin; when it underflows,
// demand saturates at NMax. A NaN price has demand NMin.
func (d DynamicsParameters) Demand(price float64) float64 {
	if math.IsNaN(price) {
		return d.NMin
	}

	e := math.Exp(d.K * (price - d.Midpoint()))
	if e == 1 {
		return (d.NMin + d.NMax) / 2
	}
	value := d.NMin + (d.NMax-d.NMin)/(1+e)

	return floatutils.Clip(value, d.NMin, d.NMax)
}

// Revenue returns the revenue earned at the argument price
func (d DynamicsParameters) Revenue(price float64) float64 {
	return price * d.Demand(price)
}

// Curve samples the demand curve at n evenly spaced prices over
// [PMin, PMax]
func (d DynamicsParameters) Curve(n int) (prices, demands []float64) {
	prices = floatutils.Linspace(d.PMin, d.PMax, n)
	demands = make([]float64, len(prices))
	for i, p := range prices {
		demands[i] = d.Demand(p)
	}
	return prices, demands
}

// OptimalPrice returns the price in [PMin, PMax] which maximizes revenue
// and the revenue it earns
func (d DynamicsParameters) OptimalPrice() (price, revenue float64,
	err error) {
	if d.PMin == d.PMax {
		return d.PMin, d.Revenue(d.PMin), nil
	}

	// Coarse grid search to find a starting point for refinement. The grid
	// includes both endpoints, where the revenue curve may peak.
	prices := floatutils.Linspace(d.PMin, d.PMax, optimalPriceGrid)
	price, revenue = prices[0], d.Revenue(prices[0])
	for _, p := range prices[1:] {
		if r := d.Revenue(p); r > revenue {
			price, revenue = p, r
		}
	}

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			p := floatutils.Clip(x[0], d.PMin, d.PMax)
			return -d.Revenue(p)
		},
	}
	step := (d.PMax - d.PMin) / float64(optimalPriceGrid-1)
	result, err := optimize.Minimize(problem, []float64{price}, nil,
		&optimize.NelderMead{SimplexSize: step})
	if err != nil {
		return 0, 0, fmt.Errorf("optimalPrice: %w", err)
	}

	refined := floatutils.Clip(result.X[0], d.PMin, d.PMax)
	if r := d.Revenue(refined); r > revenue {
		price, revenue = refined, r
	}
	return price, revenue, nil
}

// RevenueBounds returns the smallest and largest revenue attainable with
// prices in [PMin, PMax]
func (d DynamicsParameters) RevenueBounds() (min, max float64, err error) {
	_, max, err = d.OptimalPrice()
	if err != nil {
		return 0, 0, fmt.Errorf("revenueBounds: %w", err)
	}

	// Revenue is unimodal over the price range, so its minimum is at an
	// endpoint
	min = math.Min(d.Revenue(d.PMin), d.Revenue(d.PMax))
	return min, max, nil
}
