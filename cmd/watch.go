package cmd

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/spiffcs/claimwatch/internal/log"
)

// NewCmdWatch creates the watch command.
func NewCmdWatch(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Reconcile continuously on the configured cadence",
		Long: `Runs reconciliation passes on the configured interval until
interrupted. The first pass starts immediately. State is only written
after tracker actions are confirmed, so an interrupted pass picks up
cleanly on the next run.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWatch(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Repo, "repo", "r", "", "Watch a single repository (owner/name)")
	cmd.Flags().IntVarP(&opts.Workers, "workers", "w", 0, "Concurrent issue workers")
	cmd.Flags().CountVarP(&opts.Verbosity, "verbose", "v", "Increase verbosity (-v info, -vv debug, -vvv trace)")

	return cmd
}

func runWatch(cmd *cobra.Command, opts *Options) error {
	rt, err := setupRuntime(opts)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info("watching repositories", "repos", rt.cfg.Repos)

	err = rt.reconciler.Run(ctx)
	log.Info("watch stopped")
	return err
}
