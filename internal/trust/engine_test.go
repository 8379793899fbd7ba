package trust

import (
	"testing"

	"github.com/spiffcs/claimwatch/config"
	"github.com/spiffcs/claimwatch/internal/model"
	"github.com/spiffcs/claimwatch/internal/quality"
	"github.com/spiffcs/claimwatch/internal/signal"
)

func signals(counts map[model.EventKind]int, recent bool) signal.Signals {
	return signal.Signals{
		Counts:            counts,
		HasRecentActivity: recent,
	}
}

func TestActivityScore(t *testing.T) {
	tests := []struct {
		name    string
		signals signal.Signals
		want    float64
	}{
		{
			name:    "no events carries the inactivity penalty",
			signals: signals(nil, false),
			want:    47, // base 50 - penalty 3
		},
		{
			name: "weighted event sample",
			signals: signals(map[model.EventKind]int{
				model.KindPush:         3, // 3 * 3
				model.KindPullRequest:  2, // 2 * 2
				model.KindIssueComment: 1, // 1 * 2
			}, true),
			want: 65, // 50 + 9 + 4 + 2
		},
		{
			name: "recent activity skips the penalty",
			signals: signals(map[model.EventKind]int{
				model.KindWatch: 1, // weight 0
			}, true),
			want: 50,
		},
		{
			name: "stale sample pays the penalty on top of weights",
			signals: signals(map[model.EventKind]int{
				model.KindPush: 1,
			}, false),
			want: 50, // 50 + 3 - 3
		},
	}

	engine := NewEngine(config.DefaultScoreWeights())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := engine.ActivityScore(tt.signals); got != tt.want {
				t.Errorf("ActivityScore() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestScoreIsBounded(t *testing.T) {
	weights := config.DefaultScoreWeights()
	engine := NewEngine(weights)

	// A pathological sample cannot push the score past the upper bound.
	huge := signals(map[model.EventKind]int{model.KindPush: 10000}, true)
	perfect := &quality.Analysis{
		CommentQuality:         10,
		BehavioralConsistency:  10,
		EngagementAuthenticity: 10,
		ClaimRisk:              0,
	}

	score, _ := engine.Score(huge, perfect)
	if score < 0 || score > weights.UpperBound {
		t.Errorf("Score() = %v, want within [0, %v]", score, weights.UpperBound)
	}

	// And a hostile config cannot push it below zero.
	weights.Base = 0
	weights.InactivityPenalty = 500
	low := NewEngine(weights)
	score, _ = low.Score(signals(nil, false), nil)
	if score < 0 {
		t.Errorf("Score() = %v, want >= 0", score)
	}
}

func TestScoreWithNeutralFallback(t *testing.T) {
	engine := NewEngine(config.DefaultScoreWeights())

	// With nil analysis every sub-score is the neutral 5.0, so the blend
	// is activity*0.40 + 30.
	sig := signals(map[model.EventKind]int{model.KindPush: 2}, true)
	score, _ := engine.Score(sig, nil)

	want := 56.0*0.40 + 30 // activity 56
	if diff := score - want; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("Score() = %v, want %v", score, want)
	}
}

func TestClaimRiskIsInverted(t *testing.T) {
	engine := NewEngine(config.DefaultScoreWeights())
	sig := signals(map[model.EventKind]int{model.KindPush: 2}, true)

	risky := quality.Neutral(5)
	risky.ClaimRisk = 10
	safe := quality.Neutral(5)
	safe.ClaimRisk = 0

	riskyScore, _ := engine.Score(sig, risky)
	safeScore, _ := engine.Score(sig, safe)

	if riskyScore >= safeScore {
		t.Errorf("high claim risk should lower trust: risky=%v safe=%v", riskyScore, safeScore)
	}
}

func TestTag(t *testing.T) {
	tests := []struct {
		score float64
		want  model.TrustTag
	}{
		{85, model.TagReliable},
		{70, model.TagReliable},
		{69.9, model.TagActive},
		{40, model.TagActive},
		{39.9, model.TagNeedsFollowUp},
		{0, model.TagNeedsFollowUp},
	}

	engine := NewEngine(config.DefaultScoreWeights())

	for _, tt := range tests {
		if got := engine.Tag(tt.score); got != tt.want {
			t.Errorf("Tag(%v) = %v, want %v", tt.score, got, tt.want)
		}
	}
}
