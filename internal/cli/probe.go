package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/tianji/internal/probe"
)

func probeCmd() *cobra.Command {
	cfg := probe.Config{}

	cmd := &cobra.Command{
		Use:   "probe",
		Short: "Check a running server against local readings",
		Long: "Posts random valid birth inputs to a running server concurrently and " +
			"verifies every answer equals the local computation.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			stats, err := probe.Run(cmd.Context(), &cfg)
			if stats != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "run %s seed %d: %d/%d matched, %d mismatched, %d failed in %s\n",
					stats.RunID, stats.Seed, stats.Matched, stats.Submitted,
					stats.Mismatched, stats.Failed, stats.Duration.Round(time.Millisecond))
			}
			return err
		},
	}

	cmd.Flags().StringVar(&cfg.BaseURL, "url", probe.DefaultBaseURL, "base URL of the tianji server")
	cmd.Flags().IntVar(&cfg.Requests, "requests", probe.DefaultRequests, "number of readings to request")
	cmd.Flags().IntVar(&cfg.Workers, "workers", probe.DefaultWorkers, "concurrent requests")
	cmd.Flags().DurationVar(&cfg.Timeout, "timeout", probe.DefaultTimeout, "per-request timeout")
	cmd.Flags().Uint64Var(&cfg.Seed, "seed", 0, "input generator seed (0 picks one)")
	cmd.Flags().StringVar(&cfg.OutputFile, "output", "", "write the generated inputs to this JSON file")
	cmd.Flags().BoolVarP(&cfg.Verbose, "verbose", "v", false, "log every failed request")
	return cmd
}
