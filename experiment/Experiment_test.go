package experiment

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/samuelfneumann/pricelearn/agent"
	"github.com/samuelfneumann/pricelearn/agent/linear/continuous/actorcritic"
	"github.com/samuelfneumann/pricelearn/config"
	"github.com/samuelfneumann/pricelearn/environment/pricing"
	"github.com/samuelfneumann/pricelearn/experiment/checkpointer"
	"github.com/samuelfneumann/pricelearn/experiment/tracker"
	"github.com/samuelfneumann/pricelearn/experiment/trackers"
	"github.com/samuelfneumann/pricelearn/logger"
	ts "github.com/samuelfneumann/pricelearn/timestep"
)

// countingAgent selects a fixed action and counts calls to its methods
type countingAgent struct {
	*FixedPolicy
	observeFirst, observe, steps, endEpisode int
	failStep                                 bool
}

func newCountingAgent() *countingAgent {
	return &countingAgent{
		FixedPolicy: NewFixedPolicy(mat.NewVecDense(1, []float64{0})),
	}
}

func (c *countingAgent) ObserveFirst(ts.TimeStep) error {
	c.observeFirst++
	return nil
}

func (c *countingAgent) Observe(mat.Vector, ts.TimeStep) error {
	c.observe++
	return nil
}

func (c *countingAgent) Step() error {
	c.steps++
	if c.failStep {
		return errors.New("step failed")
	}
	return nil
}

func (c *countingAgent) EndEpisode() { c.endEpisode++ }

var _ agent.Agent = &countingAgent{}

// newPricing returns the unwrapped pricing environment
func newPricing(t *testing.T, cutoff int) *pricing.Env {
	t.Helper()
	c := config.Default().Environment
	c.Cutoff = cutoff
	_, core, err := NewEnvironment(pricing.DefaultDynamics(), c, 1)
	require.NoError(t, err)
	return core
}

func TestOnlineRun(t *testing.T) {
	c := config.Default().Environment
	c.Cutoff = 10
	env, _, err := NewEnvironment(pricing.DefaultDynamics(), c, 1)
	require.NoError(t, err)

	a := newCountingAgent()
	lengths := trackers.NewEpisodeLength(filepath.Join(t.TempDir(), "len"))
	o, err := NewOnline(env, a, 25, []tracker.Tracker{lengths}, nil)
	require.NoError(t, err)
	o.SetLogger(logger.NopLogger{})

	var progress []int
	o.OnStep(func(step int) { progress = append(progress, step) })

	require.NoError(t, o.Run(context.Background()))

	assert.Equal(t, 25, o.Steps())
	assert.Equal(t, 3, a.observeFirst)
	assert.Equal(t, 25, a.observe)
	assert.Equal(t, 25, a.steps)
	assert.Equal(t, 2, a.endEpisode)
	assert.Equal(t, []int{10, 10}, lengths.Lengths())
	assert.Len(t, progress, 25)
	assert.Equal(t, 25, progress[24])
	require.NoError(t, o.Save())
}

func TestOnlineCancel(t *testing.T) {
	env, _, err := NewEnvironment(pricing.DefaultDynamics(),
		config.Default().Environment, 1)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	a := newCountingAgent()
	o, err := NewOnline(env, a, 1000, nil, nil)
	require.NoError(t, err)
	o.SetLogger(logger.NopLogger{})
	o.OnStep(func(step int) {
		if step == 5 {
			cancel()
		}
	})

	err = o.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 5, o.Steps())
	assert.Zero(t, a.endEpisode)
}

func TestOnlineAgentError(t *testing.T) {
	env, _, err := NewEnvironment(pricing.DefaultDynamics(),
		config.Default().Environment, 1)
	require.NoError(t, err)

	a := newCountingAgent()
	a.failStep = true
	o, err := NewOnline(env, a, 10, nil, nil)
	require.NoError(t, err)

	assert.Error(t, o.Run(context.Background()))
	assert.Equal(t, 1, o.Steps())

	_, err = NewOnline(env, a, -1, nil, nil)
	assert.Error(t, err)
}

func TestOnlineTrainsAndCheckpoints(t *testing.T) {
	cfg := config.Default()
	env, core, err := NewEnvironment(cfg.Dynamics, cfg.Environment, 3)
	require.NoError(t, err)
	a, err := NewAgent(cfg.Agent, env, 3, logger.NopLogger{})
	require.NoError(t, err)
	learner := a.(*actorcritic.LinearGaussian)

	dir := t.TempDir()
	check, err := checkpointer.NewNStep(50, learner,
		checkpointer.FilenameEnumerator(0, filepath.Join(dir, "weights"),
			".bin"))
	require.NoError(t, err)

	trace := trackers.NewTrace(filepath.Join(dir, "trace.bin"), core)
	returns := tracker.Register(
		trackers.NewReturn(filepath.Join(dir, "return.bin")), core)

	o, err := NewOnline(env, a, 100, []tracker.Tracker{trace, returns},
		[]checkpointer.Checkpointer{check})
	require.NoError(t, err)
	o.SetLogger(logger.NopLogger{})
	require.NoError(t, o.Run(context.Background()))
	require.NoError(t, o.Save())

	assert.FileExists(t, filepath.Join(dir, "weights1.bin"))
	assert.FileExists(t, filepath.Join(dir, "weights2.bin"))
	assert.NoFileExists(t, filepath.Join(dir, "weights3.bin"))

	// The trace holds the first timestep and one entry per step
	var data trackers.TraceData
	require.NoError(t, tracker.Decode(filepath.Join(dir, "trace.bin"), &data))
	require.Len(t, data.Price, 101)
	for i := range data.Price {
		assert.InDelta(t, data.Price[i]*data.Demand[i], data.Revenue[i], 1e-6)
	}

	// Raw revenue deltas telescope to the change in revenue
	var ret []float64
	require.NoError(t, tracker.Decode(filepath.Join(dir, "return.bin"), &ret))
	require.Len(t, ret, 1)
	assert.InDelta(t, data.Revenue[100]-data.Revenue[0], ret[0], 1e-3)

	restored, err := NewAgent(cfg.Agent, env, 9, logger.NopLogger{})
	require.NoError(t, err)
	require.NoError(t, checkpointer.Load(filepath.Join(dir, "weights2.bin"),
		restored.(*actorcritic.LinearGaussian)))
	for key, w := range learner.Weights() {
		got := restored.(*actorcritic.LinearGaussian).Weights()[key]
		assert.True(t, mat.Equal(w, got), key)
	}
}

func TestRollout(t *testing.T) {
	core := newPricing(t, 0)
	d := core.Dynamics()

	p := NewFixedPolicy(mat.NewVecDense(1, []float64{2500}))
	var revenues []float64
	err := Rollout(context.Background(), core, p, 5,
		func(i int, action *mat.VecDense, step ts.TimeStep) error {
			assert.Equal(t, 2500.0, action.AtVec(0))
			revenues = append(revenues, core.State().Revenue)
			return nil
		})
	require.NoError(t, err)
	require.Len(t, revenues, 5)
	for _, r := range revenues {
		assert.Equal(t, d.Revenue(2500), r)
	}
	assert.False(t, p.IsEval())

	// Errors from the step function stop the rollout
	calls := 0
	err = Rollout(context.Background(), core, p, 5,
		func(int, *mat.VecDense, ts.TimeStep) error {
			calls++
			return errors.New("stop")
		})
	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestRolloutResetsFinishedEpisodes(t *testing.T) {
	core := newPricing(t, 3)
	p := NewFixedPolicy(mat.NewVecDense(1, []float64{100}))

	var numbers []int
	err := Rollout(context.Background(), core, p, 7,
		func(_ int, _ *mat.VecDense, step ts.TimeStep) error {
			numbers = append(numbers, step.Number)
			return nil
		})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 1, 2, 3, 1}, numbers)
}

func TestUniformPolicy(t *testing.T) {
	core := newPricing(t, 0)
	spec := core.ActionSpec()
	p, err := NewUniformPolicy(spec, 4)
	require.NoError(t, err)

	for i := 0; i < 100; i++ {
		a := p.SelectAction(core.CurrentTimeStep())
		require.Equal(t, 1, a.Len())
		assert.GreaterOrEqual(t, a.AtVec(0), spec.LowerBound.AtVec(0))
		assert.LessOrEqual(t, a.AtVec(0), spec.UpperBound.AtVec(0))
	}
}

func TestNewEnvironment(t *testing.T) {
	c := config.Default().Environment
	env, _, err := NewEnvironment(pricing.DefaultDynamics(), c, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, env.ObservationSpec().Shape.Len())
	assert.Equal(t, -1.0, env.ActionSpec().LowerBound.AtVec(0))

	c.Features = config.FeaturesTileCoding
	c.Tilings = [][]int{{4, 4}, {4, 4}}
	c.AverageRewardRate = 0.1
	env, _, err = NewEnvironment(pricing.DefaultDynamics(), c, 1)
	require.NoError(t, err)
	assert.Equal(t, 1+2*16, env.ObservationSpec().Shape.Len())
	assert.Equal(t, 1.0, env.DiscountSpec().LowerBound.AtVec(0))

	c.Tilings = [][]int{{4}}
	_, _, err = NewEnvironment(pricing.DefaultDynamics(), c, 1)
	assert.Error(t, err)
}

func TestNewAgent(t *testing.T) {
	cfg := config.Default()
	env, _, err := NewEnvironment(cfg.Dynamics, cfg.Environment, 1)
	require.NoError(t, err)

	assert.Equal(t, []agent.Type{agent.GaussianActorCriticLinear,
		agent.GaussianVanillaPGMLP}, agent.RegisteredTypes())

	_, err = NewAgent(config.AgentConfig{Type: "Unknown"}, env, 1, nil)
	assert.Error(t, err)

	a, err := NewAgent(config.AgentConfig{
		Type: string(agent.GaussianVanillaPGMLP),
		Params: map[string]any{
			"Hidden":         4,
			"EpochLength":    8,
			"ValueGradSteps": 1,
			"Lambda":         0.9,
			"Gamma":          0.9,
		},
	}, env, 1, logger.NopLogger{})
	require.NoError(t, err)
	require.NoError(t, a.(agent.Closer).Close())
}
