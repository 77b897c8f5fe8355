package cmd

import (
	"bytes"
	"context"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samuelfneumann/pricelearn/config"
	"github.com/samuelfneumann/pricelearn/environment/pricing"
	"github.com/samuelfneumann/pricelearn/experiment"
	"github.com/samuelfneumann/pricelearn/experiment/tracker"
	"github.com/samuelfneumann/pricelearn/experiment/trackers"
)

// run executes the CLI with args and returns its standard output
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func writeConfig(t *testing.T, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	return path
}

func TestCurve(t *testing.T) {
	out, err := run(t, "curve", "--points", "5")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 7)
	assert.Contains(t, lines[0], "revenue")
	assert.True(t, strings.HasPrefix(lines[6], "optimal price"))

	_, err = run(t, "curve", "--points", "1")
	assert.Error(t, err)
}

func TestSimulateFixedPrice(t *testing.T) {
	out, err := run(t, "simulate", "--steps", "3", "--price", "100")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	for _, line := range lines[1:] {
		assert.Equal(t, "100.00", strings.Fields(line)[1])
	}
}

func TestSimulateUniform(t *testing.T) {
	out, err := run(t, "simulate", "-n", "4")
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(out), "\n"), 5)
}

func TestBadConfig(t *testing.T) {
	_, err := run(t, "-c", filepath.Join(t.TempDir(), "missing.yaml"),
		"curve")
	assert.Error(t, err)
}

func TestTrain(t *testing.T) {
	dir := t.TempDir()
	cfg := writeConfig(t, `environment:
  cutoff: 10
experiment:
  steps: 40
  rollout_steps: 3
  seed: 3
  output_dir: `+dir+`
  checkpoint_every: 20
logging:
  level: disabled
`)

	out, err := run(t, "-c", cfg, "train", "-q")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 5)
	assert.Contains(t, lines[0], "price")
	assert.True(t, strings.HasPrefix(lines[4], "optimal price"))

	runs, err := filepath.Glob(filepath.Join(dir, "run-*"))
	require.NoError(t, err)
	require.Len(t, runs, 1)

	for _, name := range []string{"returns.bin", "lengths.bin", "trace.bin",
		"weights.bin", "weights1.bin", "weights2.bin"} {
		assert.FileExists(t, filepath.Join(runs[0], name))
	}

	var lengths []int
	require.NoError(t, tracker.Decode(filepath.Join(runs[0], "lengths.bin"),
		&lengths))
	assert.Equal(t, []int{10, 10, 10, 10}, lengths)

	var trace trackers.TraceData
	require.NoError(t, tracker.Decode(filepath.Join(runs[0], "trace.bin"),
		&trace))
	// Each episode holds its first timestep and ten steps
	require.Len(t, trace.Price, 44)

	// Traced rewards are unscaled revenue deltas
	for i := range trace.Reward {
		if i%11 == 0 {
			assert.Zero(t, trace.Reward[i], i)
			continue
		}
		assert.InDelta(t, trace.Revenue[i]-trace.Revenue[i-1],
			trace.Reward[i], 1e-6, i)
	}
}

// parseTable returns the numeric cells of a table printed by rollout,
// without its header
func parseTable(t *testing.T, out string) [][]float64 {
	t.Helper()
	lines := strings.Split(strings.TrimSpace(out), "\n")
	rows := make([][]float64, 0, len(lines)-1)
	for _, line := range lines[1:] {
		var row []float64
		for _, field := range strings.Fields(line) {
			v, err := strconv.ParseFloat(field, 64)
			require.NoError(t, err, line)
			row = append(row, v)
		}
		require.Len(t, row, 5, line)
		rows = append(rows, row)
	}
	return rows
}

func TestRolloutReportsRevenueDelta(t *testing.T) {
	c := config.Default().Environment
	c.AverageRewardRate = 0.1
	env, core, err := experiment.NewEnvironment(pricing.DefaultDynamics(), c,
		5)
	require.NoError(t, err)

	p, err := experiment.NewUniformPolicy(env.ActionSpec(), 5)
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, rollout(context.Background(), &out, env, core, p, 20))

	rows := parseTable(t, out.String())
	require.Len(t, rows, 20)

	largest := 0.0
	for i := 1; i < len(rows); i++ {
		revenue, reward := rows[i][3], rows[i][4]
		assert.InDelta(t, revenue-rows[i-1][3], reward, 0.02, i)
		largest = math.Max(largest, math.Abs(reward))
	}
	assert.Greater(t, largest, 1000.0)
}

func TestTrainVPG(t *testing.T) {
	cfg := writeConfig(t, `agent:
  type: GaussianVanillaPG-MLP
  params:
    Hidden: 4
    EpochLength: 8
    ValueGradSteps: 1
    Lambda: 0.9
    Gamma: 0.99
experiment:
  steps: 16
  rollout_steps: 2
logging:
  level: disabled
`)

	out, err := run(t, "-c", cfg, "train", "--quiet")
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(out), "\n"), 4)
}

func TestTrainZeroSteps(t *testing.T) {
	cfg := writeConfig(t, `experiment:
  steps: 0
  rollout_steps: 2
logging:
  level: disabled
`)

	out, err := run(t, "-c", cfg, "train")
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(out), "\n"), 4)
}
