// Package metrics exposes training progress as Prometheus metrics
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/samuelfneumann/pricelearn/environment/pricing"
)

// Metrics records per-step pricing data in Prometheus collectors
type Metrics struct {
	steps         prometheus.Counter
	reward        prometheus.Histogram
	price         prometheus.Gauge
	demand        prometheus.Gauge
	revenue       prometheus.Gauge
	episodeReturn prometheus.Gauge
}

// New registers the pricing collectors on reg. If reg is nil, the
// default registerer is used. Collectors which are already registered
// are reused.
func New(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	steps, err := register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pricelearn_steps_total",
		Help: "Total number of environment steps taken",
	}))
	if err != nil {
		return nil, err
	}
	reward, err := register(reg, prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pricelearn_reward",
			Help:    "Reward received on each environment step",
			Buckets: prometheus.ExponentialBucketsRange(1e-3, 1e3, 12),
		}))
	if err != nil {
		return nil, err
	}
	price, err := register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "pricelearn_price",
		Help: "Most recent price set by the agent",
	}))
	if err != nil {
		return nil, err
	}
	demand, err := register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "pricelearn_demand",
		Help: "Demand at the most recent price",
	}))
	if err != nil {
		return nil, err
	}
	revenue, err := register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "pricelearn_revenue",
		Help: "Revenue at the most recent price",
	}))
	if err != nil {
		return nil, err
	}
	episodeReturn, err := register(reg, prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "pricelearn_episode_return",
			Help: "Return accumulated so far in the current episode",
		}))
	if err != nil {
		return nil, err
	}

	return &Metrics{
		steps:         steps,
		reward:        reward,
		price:         price,
		demand:        demand,
		revenue:       revenue,
		episodeReturn: episodeReturn,
	}, nil
}

// register registers c on reg, returning the existing collector if one
// with the same description is already registered
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C,
	error) {
	if err := reg.Register(c); err != nil {
		are, ok := err.(prometheus.AlreadyRegisteredError)
		if !ok {
			return c, err
		}
		existing, ok := are.ExistingCollector.(C)
		if !ok {
			return c, err
		}
		return existing, nil
	}
	return c, nil
}

// ObserveStep records a single environment step that received reward
// and moved the simulation to state s
func (m *Metrics) ObserveStep(reward float64, s pricing.State) {
	m.steps.Inc()
	m.reward.Observe(reward)
	m.price.Set(s.Price)
	m.demand.Set(s.Demand)
	m.revenue.Set(s.Revenue)
}

// SetEpisodeReturn records the return accumulated so far in the current
// episode
func (m *Metrics) SetEpisodeReturn(r float64) {
	m.episodeReturn.Set(r)
}
