package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/spiffcs/claimwatch/internal/model"
	"github.com/spiffcs/claimwatch/internal/output"
)

// NewCmdDetections creates the detections command.
func NewCmdDetections(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "detections",
		Short: "List stale claim detections (same as root claimwatch)",
		Long: `Lists stale claim detections from the local state store. Run
'claimwatch run' first to populate it.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDetections(cmd, opts)
		},
	}

	addDetectionsFlags(cmd, opts)
	return cmd
}

// addDetectionsFlags adds the detection-listing flags to a command.
func addDetectionsFlags(cmd *cobra.Command, opts *Options) {
	cmd.Flags().StringVarP(&opts.Format, "output", "o", "", "Output format (table, json)")
	cmd.Flags().StringVarP(&opts.State, "state", "s", "", "Filter by state (pending, reminded, responded, unassigned, resolved)")
	cmd.Flags().StringVarP(&opts.Repo, "repo", "r", "", "Filter by repository (owner/name)")
	cmd.Flags().CountVarP(&opts.Verbosity, "verbose", "v", "Increase verbosity (-v info, -vv debug, -vvv trace)")
}

func runDetections(_ *cobra.Command, opts *Options) error {
	cfg, st, err := openStore(opts)
	if err != nil {
		return err
	}

	var states []model.DetectionState
	if opts.State != "" {
		state, err := parseDetectionState(opts.State)
		if err != nil {
			return err
		}
		states = append(states, state)
	}

	detections := st.ListDetections(states...)

	if opts.Repo != "" {
		filtered := detections[:0]
		for _, d := range detections {
			if d.Repo == opts.Repo {
				filtered = append(filtered, d)
			}
		}
		detections = filtered
	}

	formatter := output.NewFormatter(resolveFormat(opts, cfg))
	return formatter.FormatDetections(detections, os.Stdout)
}

func parseDetectionState(s string) (model.DetectionState, error) {
	for _, state := range model.AllDetectionStates {
		if strings.EqualFold(s, string(state)) {
			return state, nil
		}
	}
	return "", fmt.Errorf("invalid state: %s (must be one of pending, reminded, responded, unassigned, resolved)", s)
}
