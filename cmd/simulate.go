package cmd

import (
	"fmt"
	"math"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/mat"

	"github.com/samuelfneumann/pricelearn/agent"
	"github.com/samuelfneumann/pricelearn/experiment"
)

func newSimulateCmd(opts *options) *cobra.Command {
	var (
		steps int
		price float64
	)

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run the pricing simulation with a fixed or random price",
		Long: "Run the pricing simulation without learning. If --price is " +
			"given, that price is set on every step. Otherwise prices are " +
			"drawn uniformly at random from the configured price range.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := opts.cfg
			seed := cfg.Experiment.Seed

			_, core, err := experiment.NewEnvironment(cfg.Dynamics,
				cfg.Environment, seed)
			if err != nil {
				return err
			}

			var p agent.Policy
			if cmd.Flags().Changed("price") {
				if math.IsNaN(price) || math.IsInf(price, 0) {
					return fmt.Errorf("price must be finite")
				}
				p = experiment.NewFixedPolicy(mat.NewVecDense(1,
					[]float64{price}))
			} else {
				p, err = experiment.NewUniformPolicy(core.ActionSpec(), seed)
				if err != nil {
					return err
				}
			}

			return rollout(cmd.Context(), cmd.OutOrStdout(), core, core, p, steps)
		},
	}
	cmd.Flags().IntVarP(&steps, "steps", "n", 100, "number of steps")
	cmd.Flags().Float64VarP(&price, "price", "p", 0,
		"fixed price to set on every step")
	return cmd
}
