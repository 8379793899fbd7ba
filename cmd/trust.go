package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/spiffcs/claimwatch/internal/output"
)

// NewCmdTrust creates the trust command.
func NewCmdTrust(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trust",
		Short: "List contributor trust scores",
		Long: `Lists the trust scores and tags of every contributor seen during
reconciliation, highest score first.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTrust(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Format, "output", "o", "", "Output format (table, json)")
	cmd.Flags().CountVarP(&opts.Verbosity, "verbose", "v", "Increase verbosity (-v info, -vv debug, -vvv trace)")

	return cmd
}

func runTrust(_ *cobra.Command, opts *Options) error {
	cfg, st, err := openStore(opts)
	if err != nil {
		return err
	}

	formatter := output.NewFormatter(resolveFormat(opts, cfg))
	return formatter.FormatActors(st.ListActors(), os.Stdout)
}
