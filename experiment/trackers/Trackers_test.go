package trackers

import (
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/samuelfneumann/pricelearn/environment/pricing"
	"github.com/samuelfneumann/pricelearn/experiment/tracker"
	"github.com/samuelfneumann/pricelearn/metrics"
	ts "github.com/samuelfneumann/pricelearn/timestep"
)

// episode returns the timesteps of an episode with the given rewards.
// The episode ends if last is true.
func episode(rewards []float64, last bool) []ts.TimeStep {
	obs := mat.NewVecDense(2, nil)
	steps := []ts.TimeStep{ts.New(ts.First, 0, 1, obs, 0)}
	for i, r := range rewards {
		stepType := ts.Mid
		if last && i == len(rewards)-1 {
			stepType = ts.Last
		}
		steps = append(steps, ts.New(stepType, r, 1, obs, i+1))
	}
	return steps
}

type fixedState pricing.State

func (f fixedState) State() pricing.State { return pricing.State(f) }

func TestReturn(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "return.bin")
	r := NewReturn(filename)

	for _, step := range episode([]float64{1, 2, 3}, true) {
		r.Track(step)
	}
	for _, step := range episode([]float64{-1, 0.5}, true) {
		r.Track(step)
	}
	assert.Equal(t, []float64{6, -0.5}, r.Returns())

	// Unfinished episodes are reported with their partial return
	for _, step := range episode([]float64{4}, false) {
		r.Track(step)
	}
	assert.Equal(t, []float64{6, -0.5, 4}, r.Returns())

	require.NoError(t, r.Save())
	var saved []float64
	require.NoError(t, tracker.Decode(filename, &saved))
	assert.Equal(t, r.Returns(), saved)
}

func TestReturnPanicsOnGaps(t *testing.T) {
	r := NewReturn("unused")
	steps := episode([]float64{1, 2}, false)
	r.Track(steps[0])

	assert.Panics(t, func() { r.Track(steps[2]) })
}

func TestEpisodeLength(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "lengths.bin")
	e := NewEpisodeLength(filename)

	for _, rewards := range [][]float64{{1, 1}, {1, 1, 1, 1}, {1}} {
		for _, step := range episode(rewards, len(rewards) > 1) {
			e.Track(step)
		}
	}
	assert.Equal(t, []int{2, 4}, e.Lengths())

	require.NoError(t, e.Save())
	var saved []int
	require.NoError(t, tracker.Decode(filename, &saved))
	assert.Equal(t, []int{2, 4}, saved)
}

func TestTrace(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "trace.bin")
	state := pricing.NewState(pricing.DefaultDynamics(), 1000)
	tr := NewTrace(filename, fixedState(state))

	for _, step := range episode([]float64{5, 7}, false) {
		tr.Track(step)
	}

	data := tr.Data()
	assert.Equal(t, []float64{0, 5, 7}, data.Reward)
	assert.Equal(t, []float64{1000, 1000, 1000}, data.Price)
	assert.Equal(t, state.Demand, data.Demand[2])
	assert.Equal(t, state.Revenue, data.Revenue[1])

	require.NoError(t, tr.Save())
	var saved TraceData
	require.NoError(t, tracker.Decode(filename, &saved))
	assert.Equal(t, data, saved)
}

func TestPrometheus(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := metrics.New(reg)
	require.NoError(t, err)

	state := pricing.NewState(pricing.DefaultDynamics(), 2500)
	p := NewPrometheus(m, fixedState(state))
	for _, step := range episode([]float64{1, 2, 3}, true) {
		p.Track(step)
	}
	assert.NoError(t, p.Save())

	families, err := reg.Gather()
	require.NoError(t, err)
	values := make(map[string]float64)
	for _, f := range families {
		metric := f.GetMetric()[0]
		switch {
		case metric.GetCounter() != nil:
			values[f.GetName()] = metric.GetCounter().GetValue()
		case metric.GetGauge() != nil:
			values[f.GetName()] = metric.GetGauge().GetValue()
		}
	}

	assert.Equal(t, 3.0, values["pricelearn_steps_total"])
	assert.Equal(t, 6.0, values["pricelearn_episode_return"])
	assert.Equal(t, 2500.0, values["pricelearn_price"])
	assert.Equal(t, 1000.0, values["pricelearn_demand"])
	count, err := testutil.GatherAndCount(reg, "pricelearn_reward",
		"pricelearn_steps_total", "pricelearn_price")
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestRegister(t *testing.T) {
	d := pricing.DefaultDynamics()
	task, err := pricing.NewRevenueDelta(pricing.NewPriceStarter(d, 2), d, 0)
	require.NoError(t, err)
	env, _, err := pricing.New(task, d, 1)
	require.NoError(t, err)

	r := NewReturn("unused")
	registered := tracker.Register(r, env)

	first, err := env.Reset()
	require.NoError(t, err)
	registered.Track(ts.TimeStep{})

	step, _, err := env.Step(mat.NewVecDense(1, []float64{2500}))
	require.NoError(t, err)
	registered.Track(ts.TimeStep{})

	require.Len(t, r.Returns(), 1)
	assert.Equal(t, first.Reward+step.Reward, r.Returns()[0])
}
