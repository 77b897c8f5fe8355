package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/mat"

	"github.com/samuelfneumann/pricelearn/agent"
	"github.com/samuelfneumann/pricelearn/config"
	"github.com/samuelfneumann/pricelearn/environment"
	"github.com/samuelfneumann/pricelearn/environment/pricing"
	"github.com/samuelfneumann/pricelearn/experiment"
	"github.com/samuelfneumann/pricelearn/experiment/checkpointer"
	"github.com/samuelfneumann/pricelearn/experiment/tracker"
	"github.com/samuelfneumann/pricelearn/experiment/trackers"
	"github.com/samuelfneumann/pricelearn/logger"
	"github.com/samuelfneumann/pricelearn/metrics"
	ts "github.com/samuelfneumann/pricelearn/timestep"
	"github.com/samuelfneumann/pricelearn/utils/progressbar"
)

const progressWidth = 40

func newTrainCmd(opts *options) *cobra.Command {
	var quiet bool

	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train an agent online and roll out its greedy policy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt,
				syscall.SIGTERM)
			defer stop()

			var progress io.Writer = cmd.ErrOrStderr()
			if quiet {
				progress = nil
			}
			return train(ctx, opts.cfg, cmd.OutOrStdout(), progress)
		},
	}
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false,
		"do not display a progress bar")
	return cmd
}

// train runs the experiment described by cfg. The greedy rollout is
// written to out and, if progress is not nil, a progress bar is drawn
// on it.
func train(ctx context.Context, cfg *config.Config, out,
	progress io.Writer) (err error) {
	log := logger.New("train")
	runID := uuid.New()
	log.Infof("starting run %s with agent %s for %d steps", runID,
		cfg.Agent.Type, cfg.Experiment.Steps)

	seed := cfg.Experiment.Seed
	env, core, err := experiment.NewEnvironment(cfg.Dynamics, cfg.Environment,
		seed)
	if err != nil {
		return err
	}

	a, err := experiment.NewAgent(cfg.Agent, env, seed, logger.New("agent"))
	if err != nil {
		return err
	}
	if c, ok := a.(agent.Closer); ok {
		defer func() {
			if closeErr := c.Close(); closeErr != nil {
				err = errors.Join(err, fmt.Errorf("close agent: %w", closeErr))
			}
		}()
	}

	var (
		trks []tracker.Tracker
		cps  []checkpointer.Checkpointer
	)
	runDir := ""
	if cfg.Experiment.OutputDir != "" {
		runDir = filepath.Join(cfg.Experiment.OutputDir, "run-"+runID.String())
		if err := os.MkdirAll(runDir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}

		// Returns and traces hold the raw revenue deltas, not the scaled
		// learning rewards
		trks = append(trks,
			tracker.Register(trackers.NewReturn(filepath.Join(runDir,
				"returns.bin")), core),
			trackers.NewEpisodeLength(filepath.Join(runDir, "lengths.bin")),
			tracker.Register(trackers.NewTrace(filepath.Join(runDir,
				"trace.bin"), core), core),
		)

		if cfg.Experiment.CheckpointEvery > 0 {
			s, ok := a.(checkpointer.Serializable)
			if !ok {
				return fmt.Errorf("agent %s cannot be checkpointed",
					cfg.Agent.Type)
			}
			cp, err := checkpointer.NewNStep(cfg.Experiment.CheckpointEvery, s,
				checkpointer.FilenameEnumerator(0,
					filepath.Join(runDir, "weights"), ".bin"))
			if err != nil {
				return err
			}
			cps = append(cps, cp)
		}
	}

	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		m, err := metrics.New(reg)
		if err != nil {
			return err
		}
		trks = append(trks,
			tracker.Register(trackers.NewPrometheus(m, core), core))

		serveCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		go func() {
			if err := metrics.Serve(serveCtx, cfg.Metrics.Address, reg,
				logger.New("metrics")); err != nil {
				log.Errorf("metrics server: %v", err)
			}
		}()
	}

	o, err := experiment.NewOnline(env, a, cfg.Experiment.Steps, trks, cps)
	if err != nil {
		return err
	}
	if progress != nil && cfg.Experiment.Steps > 0 {
		bar := progressbar.New(progress, progressWidth, cfg.Experiment.Steps)
		o.OnStep(func(step int) {
			bar.Set(step)
			bar.Display()
		})
		defer bar.Close()
	}

	if err := o.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	if runDir != "" {
		if err := o.Save(); err != nil {
			return err
		}
		if s, ok := a.(checkpointer.Serializable); ok {
			if err := checkpointer.Save(filepath.Join(runDir, "weights.bin"),
				s); err != nil {
				return err
			}
		}
		log.Infof("saved run data to %s", runDir)
	}

	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err := rollout(ctx, out, env, core, a, cfg.Experiment.RolloutSteps); err != nil {
		return err
	}

	price, revenue, err := cfg.Dynamics.OptimalPrice()
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "optimal price %.2f (revenue %.2f)\n", price, revenue)
	return nil
}

// rollout runs the greedy version of p on env for n steps and writes the
// state of core after every step to out as a table. env must wrap core.
// Rewards are the raw revenue deltas of core, whatever scaling env
// applies.
func rollout(ctx context.Context, out io.Writer, env environment.Environment,
	core *pricing.Env, p agent.Policy, n int) error {
	if n == 0 {
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "step\tprice\tdemand\trevenue\treward\t")
	err := experiment.Rollout(ctx, env, p, n,
		func(i int, _ *mat.VecDense, _ ts.TimeStep) error {
			s := core.State()
			_, err := fmt.Fprintf(w, "%d\t%.2f\t%.2f\t%.2f\t%.2f\t\n", i+1,
				s.Price, s.Demand, s.Revenue, core.CurrentTimeStep().Reward)
			return err
		})
	if err != nil {
		return err
	}
	return w.Flush()
}
