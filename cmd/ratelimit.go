package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/spiffcs/claimwatch/config"
	gh "github.com/spiffcs/claimwatch/internal/github"
)

// NewCmdRateLimit creates the ratelimit command.
func NewCmdRateLimit() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ratelimit",
		Short: "Check GitHub API rate limit status",
		Long:  `Display current GitHub API rate limit status including remaining quota and reset time.`,
	}
	cmd.AddCommand(NewCmdRateLimitStatus())
	return cmd
}

// NewCmdRateLimitStatus creates the ratelimit status subcommand.
func NewCmdRateLimitStatus() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show current rate limit status",
		RunE:  runRateLimitStatus,
	}
}

func runRateLimitStatus(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	token := cfg.GetGitHubToken()
	if token == "" {
		return fmt.Errorf("GitHub token not configured. Set the GITHUB_TOKEN environment variable")
	}

	client, err := gh.NewClient(token)
	if err != nil {
		return err
	}

	remaining, limit, resetAt, err := client.RateLimitStatus(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to get rate limits: %w", err)
	}

	resetIn := time.Until(resetAt).Round(time.Second)
	if resetIn < 0 {
		resetIn = 0
	}

	fmt.Println("GitHub API Rate Limits:")
	fmt.Println()
	fmt.Printf("Core API: %d/%d remaining (resets in %s)\n", remaining, limit, resetIn)

	return nil
}
