package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/spiffcs/claimwatch/internal/model"
)

// Config represents the application configuration
type Config struct {
	// Repos are the repositories to reconcile, as owner/name.
	Repos []string `yaml:"repos,omitempty"`

	DefaultFormat string `yaml:"default_format,omitempty"`

	// Top-level config sections
	Watch   *WatchOverrides   `yaml:"watch,omitempty"`
	Scoring *ScoringOverrides `yaml:"scoring,omitempty"`

	// ClaimPatterns replaces the built-in claim-intent expressions
	// when non-empty.
	ClaimPatterns []ClaimPattern `yaml:"claim_patterns,omitempty"`

	// ReminderTemplate overrides the reminder comment body. The tokens
	// {assignee}, {title}, {grace_days} and {trust_tag} are substituted.
	ReminderTemplate string `yaml:"reminder_template,omitempty"`

	// ReleaseTemplate overrides the notice posted when a claim is
	// released. Same tokens as ReminderTemplate.
	ReleaseTemplate string `yaml:"release_template,omitempty"`
}

// ClaimPattern is one claim-intent expression. ID names the pattern in
// evidence records; Expr is a case-insensitive regular expression.
type ClaimPattern struct {
	ID   string `yaml:"id"`
	Expr string `yaml:"expr"`
}

// WatchOverrides allows customizing reconciliation cadence and thresholds
type WatchOverrides struct {
	IntervalHours    *int `yaml:"interval_hours,omitempty"`
	InactiveDays     *int `yaml:"inactive_days,omitempty"`
	GraceDays        *int `yaml:"grace_days,omitempty"`
	RecencyDays      *int `yaml:"recency_days,omitempty"`
	EventFetchLimit  *int `yaml:"event_fetch_limit,omitempty"`
	EventScoreLimit  *int `yaml:"event_score_limit,omitempty"`
	Workers          *int `yaml:"workers,omitempty"`
	ActionFailureCap *int `yaml:"action_failure_cap,omitempty"`
}

// ScoringOverrides allows customizing trust score weights and thresholds
type ScoringOverrides struct {
	Base              *float64 `yaml:"base,omitempty"`
	Push              *float64 `yaml:"push,omitempty"`
	PullRequest       *float64 `yaml:"pull_request,omitempty"`
	IssueComment      *float64 `yaml:"issue_comment,omitempty"`
	Review            *float64 `yaml:"review,omitempty"`
	Issues            *float64 `yaml:"issues,omitempty"`
	Create            *float64 `yaml:"create,omitempty"`
	Fork              *float64 `yaml:"fork,omitempty"`
	Watch             *float64 `yaml:"watch,omitempty"`
	InactivityPenalty *float64 `yaml:"inactivity_penalty,omitempty"`
	ReliableThreshold *float64 `yaml:"reliable_threshold,omitempty"`
	ActiveThreshold   *float64 `yaml:"active_threshold,omitempty"`
}

// WatchSettings is the resolved set of reconciliation parameters
type WatchSettings struct {
	IntervalHours    int
	InactiveDays     int
	GraceDays        int
	RecencyDays      int
	EventFetchLimit  int
	EventScoreLimit  int
	Workers          int
	ActionFailureCap int
}

// ScoreWeights defines the complete set of trust scoring weights
type ScoreWeights struct {
	// Base is the starting score before event contributions.
	Base       float64
	UpperBound float64

	Push         float64
	PullRequest  float64
	IssueComment float64
	Review       float64
	Issues       float64
	Create       float64
	Fork         float64
	Watch        float64

	// InactivityPenalty is subtracted when no event falls inside the
	// recency window.
	InactivityPenalty float64

	// Tag ladder thresholds over the final score
	ReliableThreshold float64
	ActiveThreshold   float64

	// Quality-analysis blend shares. ActivityShare applies to the base
	// activity score; the sub-score shares are scaled by 10 to map the
	// 0-10 sub-scores onto the 0-100 scale. ClaimRiskShare applies to
	// the inverted risk sub-score.
	ActivityShare       float64
	CommentQualityShare float64
	ConsistencyShare    float64
	AuthenticityShare   float64
	ClaimRiskShare      float64

	// NeutralSubScore is the documented fallback when the quality
	// analyzer is absent or fails.
	NeutralSubScore float64
}

// For returns the additive contribution for one event kind.
func (w ScoreWeights) For(kind model.EventKind) float64 {
	switch kind {
	case model.KindPush:
		return w.Push
	case model.KindPullRequest:
		return w.PullRequest
	case model.KindIssueComment:
		return w.IssueComment
	case model.KindReview:
		return w.Review
	case model.KindIssues:
		return w.Issues
	case model.KindCreate:
		return w.Create
	case model.KindFork:
		return w.Fork
	case model.KindWatch:
		return w.Watch
	default:
		return 0
	}
}

// DefaultScoreWeights returns the default trust scoring weights
func DefaultScoreWeights() ScoreWeights {
	return ScoreWeights{
		Base:       50,
		UpperBound: 100,

		Push:         3,
		PullRequest:  2,
		IssueComment: 2,
		Review:       2,
		Issues:       1,
		Create:       1,
		Fork:         1,
		Watch:        0,

		InactivityPenalty: 3,

		ReliableThreshold: 70, // final score >= this = reliable
		ActiveThreshold:   40, // final score >= this = active

		ActivityShare:       0.40,
		CommentQualityShare: 0.25,
		ConsistencyShare:    0.15,
		AuthenticityShare:   0.15,
		ClaimRiskShare:      0.05,

		NeutralSubScore: 5.0,
	}
}

// DefaultWatchSettings returns the default reconciliation parameters
func DefaultWatchSettings() WatchSettings {
	return WatchSettings{
		IntervalHours:    24,
		InactiveDays:     7,
		GraceDays:        3,
		RecencyDays:      7,
		EventFetchLimit:  30,
		EventScoreLimit:  10,
		Workers:          4,
		ActionFailureCap: 3,
	}
}

// GetScoreWeights returns score weights with user overrides merged with defaults
func (c *Config) GetScoreWeights() ScoreWeights {
	weights := DefaultScoreWeights()

	if c.Scoring != nil {
		s := c.Scoring
		if s.Base != nil {
			weights.Base = *s.Base
		}
		if s.Push != nil {
			weights.Push = *s.Push
		}
		if s.PullRequest != nil {
			weights.PullRequest = *s.PullRequest
		}
		if s.IssueComment != nil {
			weights.IssueComment = *s.IssueComment
		}
		if s.Review != nil {
			weights.Review = *s.Review
		}
		if s.Issues != nil {
			weights.Issues = *s.Issues
		}
		if s.Create != nil {
			weights.Create = *s.Create
		}
		if s.Fork != nil {
			weights.Fork = *s.Fork
		}
		if s.Watch != nil {
			weights.Watch = *s.Watch
		}
		if s.InactivityPenalty != nil {
			weights.InactivityPenalty = *s.InactivityPenalty
		}
		if s.ReliableThreshold != nil {
			weights.ReliableThreshold = *s.ReliableThreshold
		}
		if s.ActiveThreshold != nil {
			weights.ActiveThreshold = *s.ActiveThreshold
		}
	}

	return weights
}

// GetWatchSettings returns watch settings with user overrides merged with defaults
func (c *Config) GetWatchSettings() WatchSettings {
	settings := DefaultWatchSettings()

	if c.Watch != nil {
		w := c.Watch
		if w.IntervalHours != nil {
			settings.IntervalHours = *w.IntervalHours
		}
		if w.InactiveDays != nil {
			settings.InactiveDays = *w.InactiveDays
		}
		if w.GraceDays != nil {
			settings.GraceDays = *w.GraceDays
		}
		if w.RecencyDays != nil {
			settings.RecencyDays = *w.RecencyDays
		}
		if w.EventFetchLimit != nil {
			settings.EventFetchLimit = *w.EventFetchLimit
		}
		if w.EventScoreLimit != nil {
			settings.EventScoreLimit = *w.EventScoreLimit
		}
		if w.Workers != nil {
			settings.Workers = *w.Workers
		}
		if w.ActionFailureCap != nil {
			settings.ActionFailureCap = *w.ActionFailureCap
		}
	}

	return settings
}

// DefaultClaimPatterns returns the built-in claim-intent expressions.
// Expressions are matched case-insensitively against comment text.
func DefaultClaimPatterns() []ClaimPattern {
	return []ClaimPattern{
		{ID: "take-this", Expr: `\b(i'?ll take this|taking this|i can do this|let me handle|working on (this|it))\b`},
		{ID: "self-assign", Expr: `\b(assigning? (this )?to myself|self[- ]assign)\b`},
		{ID: "on-it", Expr: `\b(i'?m on it|got it|i'?ll fix)\b`},
		{ID: "claim", Expr: `\b(claiming|claim)\b`},
		{ID: "may-i-take", Expr: `@\w+\s+(can i|may i|could i).*(take|work on|handle)`},
		{ID: "i-will", Expr: `\b(i will|i'?ll)\s+(work on|fix|handle|take care of)\b`},
		{ID: "unclaim", Expr: `\b(unassign me|i'?m unassigning|giving this up|can'?t work on this)\b`},
	}
}

// GetClaimPatterns returns the claim patterns, using defaults if not configured
func (c *Config) GetClaimPatterns() []ClaimPattern {
	if len(c.ClaimPatterns) > 0 {
		return c.ClaimPatterns
	}
	return DefaultClaimPatterns()
}

// DefaultReminderTemplate is the reminder comment body before token
// substitution.
const DefaultReminderTemplate = `Hi @{assignee}, are you still working on this? 👋

This is a friendly reminder that you were assigned to "{title}". If you need any help or would like to unassign yourself, please let us know! Without a response within {grace_days} days the issue will be opened up for other contributors.`

// GetReminderTemplate returns the reminder template, using the default
// if not configured
func (c *Config) GetReminderTemplate() string {
	if c.ReminderTemplate != "" {
		return c.ReminderTemplate
	}
	return DefaultReminderTemplate
}

// DefaultReleaseTemplate is the notice posted when a claim is released
// after the grace period.
const DefaultReleaseTemplate = `@{assignee} has been unassigned from "{title}" due to inactivity. This issue is now open for other contributors to pick up.`

// GetReleaseTemplate returns the release notice template, using the
// default if not configured
func (c *Config) GetReleaseTemplate() string {
	if c.ReleaseTemplate != "" {
		return c.ReleaseTemplate
	}
	return DefaultReleaseTemplate
}

// DefaultConfigDir returns the default config directory
func DefaultConfigDir() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return ".claimwatch"
	}
	return filepath.Join(configDir, "claimwatch")
}

// ConfigPath returns the path to the config file
func ConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.yaml")
}

// LocalConfigPath returns the path to the local config file in the current directory
func LocalConfigPath() string {
	return ".claimwatch.yaml"
}

// ConfigPaths describes the global and local config file locations.
type ConfigPaths struct {
	GlobalPath   string
	GlobalExists bool
	LocalPath    string
	LocalExists  bool
}

// GetConfigPaths returns the config file locations and whether each exists
func GetConfigPaths() ConfigPaths {
	paths := ConfigPaths{
		GlobalPath: ConfigPath(),
		LocalPath:  LocalConfigPath(),
	}
	if _, err := os.Stat(paths.GlobalPath); err == nil {
		paths.GlobalExists = true
	}
	if _, err := os.Stat(paths.LocalPath); err == nil {
		paths.LocalExists = true
	}
	return paths
}

// SaveTo writes raw config content to the given path, creating parent
// directories as needed.
func SaveTo(path, content string) error {
	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Load loads the configuration from disk.
// It first loads the global config from the XDG config directory, then
// merges any local .claimwatch.yaml config on top (local values take
// precedence).
func Load() (*Config, error) {
	cfg := &Config{
		DefaultFormat: "table",
	}

	globalPath := ConfigPath()
	if _, err := os.Stat(globalPath); err == nil {
		data, err := os.ReadFile(globalPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read global config file: %w", err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse global config file: %w", err)
		}
	}

	localPath := LocalConfigPath()
	if _, err := os.Stat(localPath); err == nil {
		data, err := os.ReadFile(localPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read local config file: %w", err)
		}

		var localCfg Config
		if err := yaml.Unmarshal(data, &localCfg); err != nil {
			return nil, fmt.Errorf("failed to parse local config file: %w", err)
		}

		cfg = mergeConfig(cfg, &localCfg)
	}

	if cfg.DefaultFormat == "" {
		cfg.DefaultFormat = "table"
	}

	return cfg, nil
}

// mergeConfig merges local config on top of global config.
// Local values take precedence; unset local values preserve global values.
func mergeConfig(global, local *Config) *Config {
	result := &Config{}

	if local.DefaultFormat != "" {
		result.DefaultFormat = local.DefaultFormat
	} else {
		result.DefaultFormat = global.DefaultFormat
	}

	if len(local.Repos) > 0 {
		result.Repos = local.Repos
	} else {
		result.Repos = global.Repos
	}

	if len(local.ClaimPatterns) > 0 {
		result.ClaimPatterns = local.ClaimPatterns
	} else {
		result.ClaimPatterns = global.ClaimPatterns
	}

	if local.ReminderTemplate != "" {
		result.ReminderTemplate = local.ReminderTemplate
	} else {
		result.ReminderTemplate = global.ReminderTemplate
	}

	if local.ReleaseTemplate != "" {
		result.ReleaseTemplate = local.ReleaseTemplate
	} else {
		result.ReleaseTemplate = global.ReleaseTemplate
	}

	result.Watch = mergeWatchOverrides(global.Watch, local.Watch)
	result.Scoring = mergeScoringOverrides(global.Scoring, local.Scoring)

	return result
}

func mergeWatchOverrides(global, local *WatchOverrides) *WatchOverrides {
	if global == nil && local == nil {
		return nil
	}
	result := &WatchOverrides{}

	if global != nil {
		*result = *global
	}

	if local != nil {
		if local.IntervalHours != nil {
			result.IntervalHours = local.IntervalHours
		}
		if local.InactiveDays != nil {
			result.InactiveDays = local.InactiveDays
		}
		if local.GraceDays != nil {
			result.GraceDays = local.GraceDays
		}
		if local.RecencyDays != nil {
			result.RecencyDays = local.RecencyDays
		}
		if local.EventFetchLimit != nil {
			result.EventFetchLimit = local.EventFetchLimit
		}
		if local.EventScoreLimit != nil {
			result.EventScoreLimit = local.EventScoreLimit
		}
		if local.Workers != nil {
			result.Workers = local.Workers
		}
		if local.ActionFailureCap != nil {
			result.ActionFailureCap = local.ActionFailureCap
		}
	}

	return result
}

func mergeScoringOverrides(global, local *ScoringOverrides) *ScoringOverrides {
	if global == nil && local == nil {
		return nil
	}
	result := &ScoringOverrides{}

	if global != nil {
		*result = *global
	}

	if local != nil {
		if local.Base != nil {
			result.Base = local.Base
		}
		if local.Push != nil {
			result.Push = local.Push
		}
		if local.PullRequest != nil {
			result.PullRequest = local.PullRequest
		}
		if local.IssueComment != nil {
			result.IssueComment = local.IssueComment
		}
		if local.Review != nil {
			result.Review = local.Review
		}
		if local.Issues != nil {
			result.Issues = local.Issues
		}
		if local.Create != nil {
			result.Create = local.Create
		}
		if local.Fork != nil {
			result.Fork = local.Fork
		}
		if local.Watch != nil {
			result.Watch = local.Watch
		}
		if local.InactivityPenalty != nil {
			result.InactivityPenalty = local.InactivityPenalty
		}
		if local.ReliableThreshold != nil {
			result.ReliableThreshold = local.ReliableThreshold
		}
		if local.ActiveThreshold != nil {
			result.ActiveThreshold = local.ActiveThreshold
		}
	}

	return result
}

// Save saves the configuration to disk
func (c *Config) Save() error {
	configDir := DefaultConfigDir()

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(ConfigPath(), data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GetGitHubToken returns the GitHub token from the GITHUB_TOKEN environment variable.
// Following 12-factor app best practices, tokens are only read from the environment.
func (c *Config) GetGitHubToken() string {
	return os.Getenv("GITHUB_TOKEN")
}

// GetAnthropicKey returns the quality-analysis API key from the
// ANTHROPIC_API_KEY environment variable. An empty key disables the
// analyzer; trust scoring falls back to neutral sub-scores.
func (c *Config) GetAnthropicKey() string {
	return os.Getenv("ANTHROPIC_API_KEY")
}

// SetDefaultFormat sets the default output format and saves
func (c *Config) SetDefaultFormat(format string) error {
	c.DefaultFormat = format
	return c.Save()
}

// ToYAML returns the config as a YAML string
func (c *Config) ToYAML() (string, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("failed to marshal config: %w", err)
	}
	return string(data), nil
}

// MinimalConfig returns a minimal config template with comments
func MinimalConfig() string {
	return `# Claimwatch configuration file
# See: claimwatch config defaults  (for all available options)

# Repositories to watch for stale claims
repos:
  - owner/repo

# Output format: table or json
default_format: table

# Override reconciliation thresholds (optional)
# watch:
#   interval_hours: 24
#   inactive_days: 7
#   grace_days: 3

# Override trust scoring weights (optional)
# scoring:
#   push: 3
#   pull_request: 2

# See README.md for full configuration options
`
}

// DefaultConfig returns a fully populated config with all default values.
// This is useful for generating a complete config file template.
func DefaultConfig() *Config {
	weights := DefaultScoreWeights()
	settings := DefaultWatchSettings()

	return &Config{
		DefaultFormat: "table",
		Repos:         []string{},
		ClaimPatterns: DefaultClaimPatterns(),
		Watch: &WatchOverrides{
			IntervalHours:    &settings.IntervalHours,
			InactiveDays:     &settings.InactiveDays,
			GraceDays:        &settings.GraceDays,
			RecencyDays:      &settings.RecencyDays,
			EventFetchLimit:  &settings.EventFetchLimit,
			EventScoreLimit:  &settings.EventScoreLimit,
			Workers:          &settings.Workers,
			ActionFailureCap: &settings.ActionFailureCap,
		},
		Scoring: &ScoringOverrides{
			Base:              &weights.Base,
			Push:              &weights.Push,
			PullRequest:       &weights.PullRequest,
			IssueComment:      &weights.IssueComment,
			Review:            &weights.Review,
			Issues:            &weights.Issues,
			Create:            &weights.Create,
			Fork:              &weights.Fork,
			Watch:             &weights.Watch,
			InactivityPenalty: &weights.InactivityPenalty,
			ReliableThreshold: &weights.ReliableThreshold,
			ActiveThreshold:   &weights.ActiveThreshold,
		},
	}
}
