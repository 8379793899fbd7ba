package config

import (
	"testing"

	"github.com/spiffcs/claimwatch/internal/model"
)

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }

func TestGetWatchSettingsDefaults(t *testing.T) {
	cfg := &Config{}
	settings := cfg.GetWatchSettings()

	if settings.IntervalHours != 24 {
		t.Errorf("IntervalHours = %d, want 24", settings.IntervalHours)
	}
	if settings.InactiveDays != 7 {
		t.Errorf("InactiveDays = %d, want 7", settings.InactiveDays)
	}
	if settings.GraceDays != 3 {
		t.Errorf("GraceDays = %d, want 3", settings.GraceDays)
	}
	if settings.EventScoreLimit != 10 {
		t.Errorf("EventScoreLimit = %d, want 10", settings.EventScoreLimit)
	}
}

func TestGetWatchSettingsOverrides(t *testing.T) {
	cfg := &Config{
		Watch: &WatchOverrides{
			InactiveDays: intPtr(14),
			Workers:      intPtr(8),
		},
	}
	settings := cfg.GetWatchSettings()

	if settings.InactiveDays != 14 {
		t.Errorf("InactiveDays = %d, want 14", settings.InactiveDays)
	}
	if settings.Workers != 8 {
		t.Errorf("Workers = %d, want 8", settings.Workers)
	}
	// Untouched values keep their defaults.
	if settings.GraceDays != 3 {
		t.Errorf("GraceDays = %d, want 3", settings.GraceDays)
	}
}

func TestGetScoreWeightsOverrides(t *testing.T) {
	cfg := &Config{
		Scoring: &ScoringOverrides{
			Push:              floatPtr(5),
			ReliableThreshold: floatPtr(80),
		},
	}
	weights := cfg.GetScoreWeights()

	if weights.Push != 5 {
		t.Errorf("Push = %v, want 5", weights.Push)
	}
	if weights.ReliableThreshold != 80 {
		t.Errorf("ReliableThreshold = %v, want 80", weights.ReliableThreshold)
	}
	if weights.PullRequest != 2 {
		t.Errorf("PullRequest = %v, want default 2", weights.PullRequest)
	}
}

func TestScoreWeightsFor(t *testing.T) {
	weights := DefaultScoreWeights()

	tests := []struct {
		kind model.EventKind
		want float64
	}{
		{model.KindPush, 3},
		{model.KindPullRequest, 2},
		{model.KindIssueComment, 2},
		{model.KindReview, 2},
		{model.KindWatch, 0},
		{model.KindOther, 0},
	}

	for _, tt := range tests {
		if got := weights.For(tt.kind); got != tt.want {
			t.Errorf("For(%s) = %v, want %v", tt.kind, got, tt.want)
		}
	}
}

func TestMergeConfig(t *testing.T) {
	global := &Config{
		Repos:         []string{"octo/widgets"},
		DefaultFormat: "table",
		Watch: &WatchOverrides{
			InactiveDays: intPtr(10),
			GraceDays:    intPtr(5),
		},
	}
	local := &Config{
		DefaultFormat: "json",
		Watch: &WatchOverrides{
			GraceDays: intPtr(2),
		},
	}

	merged := mergeConfig(global, local)

	if merged.DefaultFormat != "json" {
		t.Errorf("DefaultFormat = %q, want json (local wins)", merged.DefaultFormat)
	}
	if len(merged.Repos) != 1 || merged.Repos[0] != "octo/widgets" {
		t.Errorf("Repos = %v, want global value preserved", merged.Repos)
	}
	if merged.Watch == nil {
		t.Fatal("Watch = nil after merge")
	}
	if merged.Watch.GraceDays == nil || *merged.Watch.GraceDays != 2 {
		t.Error("local grace_days override lost in merge")
	}
	if merged.Watch.InactiveDays == nil || *merged.Watch.InactiveDays != 10 {
		t.Error("global inactive_days lost in merge")
	}
}

func TestGetClaimPatternsDefaults(t *testing.T) {
	cfg := &Config{}
	if len(cfg.GetClaimPatterns()) == 0 {
		t.Error("GetClaimPatterns() returned no defaults")
	}

	custom := &Config{ClaimPatterns: []ClaimPattern{{ID: "mine", Expr: "dibs"}}}
	patterns := custom.GetClaimPatterns()
	if len(patterns) != 1 || patterns[0].ID != "mine" {
		t.Errorf("GetClaimPatterns() = %v, want custom set", patterns)
	}
}

func TestGetReminderTemplate(t *testing.T) {
	cfg := &Config{}
	if cfg.GetReminderTemplate() != DefaultReminderTemplate {
		t.Error("GetReminderTemplate() did not fall back to default")
	}

	custom := &Config{ReminderTemplate: "ping @{assignee}"}
	if custom.GetReminderTemplate() != "ping @{assignee}" {
		t.Error("GetReminderTemplate() ignored override")
	}
}

func TestBlendSharesCoverFullScale(t *testing.T) {
	w := DefaultScoreWeights()

	// The activity share plus the 0-10 sub-score shares scaled by 10
	// must together span the full score range.
	total := w.UpperBound*w.ActivityShare +
		100*(w.CommentQualityShare+w.ConsistencyShare+w.AuthenticityShare+w.ClaimRiskShare)
	if diff := total - w.UpperBound; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("blend shares span %v, want %v", total, w.UpperBound)
	}
}
