package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/spiffcs/claimwatch/internal/output"
)

// NewCmdRun creates the run command.
func NewCmdRun(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a single reconciliation pass",
		Long: `Runs one reconciliation pass over the configured repositories:
refreshes assigned issues, ingests assignee activity, updates trust
scores and advances stale claim detections.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRun(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Format, "output", "o", "", "Output format (table, json)")
	cmd.Flags().StringVarP(&opts.Repo, "repo", "r", "", "Reconcile a single repository (owner/name)")
	cmd.Flags().IntVarP(&opts.Workers, "workers", "w", 0, "Concurrent issue workers")
	cmd.Flags().CountVarP(&opts.Verbosity, "verbose", "v", "Increase verbosity (-v info, -vv debug, -vvv trace)")

	return cmd
}

func runRun(cmd *cobra.Command, opts *Options) error {
	rt, err := setupRuntime(opts)
	if err != nil {
		return err
	}

	report, err := rt.reconciler.RunAll(cmd.Context())
	if err != nil {
		return err
	}

	formatter := output.NewFormatter(resolveFormat(opts, rt.cfg))
	return formatter.FormatReport(*report, os.Stdout)
}
