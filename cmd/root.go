// Package cmd implements the pricelearn command line interface
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/samuelfneumann/pricelearn/config"
	"github.com/samuelfneumann/pricelearn/logger"
)

// options holds the flags shared by every command
type options struct {
	cfgPath string
	cfg     *config.Config
}

// NewRootCmd returns the pricelearn root command with all subcommands
// attached
func NewRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "pricelearn",
		Short: "Learn pricing policies on a simulated demand curve",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.cfgPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := logger.SetLevel(cfg.Logging.Level); err != nil {
				return err
			}
			opts.cfg = cfg
			return nil
		},
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVarP(&opts.cfgPath, "config", "c", "",
		"configuration file (YAML or JSON); defaults are used if empty")

	rootCmd.AddCommand(
		newTrainCmd(opts),
		newCurveCmd(opts),
		newSimulateCmd(opts),
	)
	return rootCmd
}

// Execute runs the CLI.
func Execute() error { return NewRootCmd().Execute() }
