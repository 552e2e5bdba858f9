// Package cli implements the tianji command line tool.
package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/okian/tianji/pkg/logger"
)

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	cmd := newRootCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var logLevel string

	cmd := &cobra.Command{
		Use:          "tianji",
		Short:        "Tianji: BaZi readings and five-element materials",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := logger.InitWithWriter(cmd.ErrOrStderr()); err != nil {
				return err
			}
			return logger.SetLevelString(logLevel)
		},
	}

	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	cmd.AddCommand(chartCmd(), materialsCmd(), probeCmd())
	return cmd
}
