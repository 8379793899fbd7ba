package cmd

import (
	"github.com/spf13/cobra"
)

// New creates the root command with all subcommands registered.
func New() *cobra.Command {
	opts := &Options{}

	rootCmd := &cobra.Command{
		Use:   "claimwatch",
		Short: "Stale issue claim detector",
		Long: `A tool that watches issue assignees in your repositories, scores
their recent activity, and escalates claims that have gone quiet: a
friendly reminder first, then release of the claim so the work opens
up for other contributors.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDetections(cmd, opts)
		},
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	// Add detections flags to root so `claimwatch` and `claimwatch
	// detections` work identically
	addDetectionsFlags(rootCmd, opts)

	// Register subcommands
	rootCmd.AddCommand(NewCmdRun(opts))
	rootCmd.AddCommand(NewCmdWatch(opts))
	rootCmd.AddCommand(NewCmdDetections(opts))
	rootCmd.AddCommand(NewCmdTrust(opts))
	rootCmd.AddCommand(NewCmdConfig())
	rootCmd.AddCommand(NewCmdRateLimit())
	rootCmd.AddCommand(NewCmdVersion())

	return rootCmd
}
