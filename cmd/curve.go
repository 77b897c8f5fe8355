package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newCurveCmd(opts *options) *cobra.Command {
	var points int

	cmd := &cobra.Command{
		Use:   "curve",
		Short: "Print the demand curve and the revenue maximizing price",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if points < 2 {
				return fmt.Errorf("points must be at least 2")
			}
			d := opts.cfg.Dynamics

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "price\tdemand\trevenue")
			prices, demands := d.Curve(points)
			for i := range prices {
				fmt.Fprintf(w, "%.2f\t%.2f\t%.2f\n", prices[i], demands[i],
					prices[i]*demands[i])
			}
			if err := w.Flush(); err != nil {
				return err
			}

			price, revenue, err := d.OptimalPrice()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "optimal price %.2f (demand %.2f, "+
				"revenue %.2f)\n", price, d.Demand(price), revenue)
			return nil
		},
	}
	cmd.Flags().IntVarP(&points, "points", "n", 21,
		"number of evenly spaced prices to sample")
	return cmd
}
