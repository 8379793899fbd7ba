// Package trust computes the bounded trust score and categorical tag for
// a contributor from their normalized activity signals, optionally
// blended with quality-analysis sub-scores.
package trust

import (
	"github.com/spiffcs/claimwatch/config"
	"github.com/spiffcs/claimwatch/internal/model"
	"github.com/spiffcs/claimwatch/internal/quality"
	"github.com/spiffcs/claimwatch/internal/signal"
)

// Engine implements weight-table trust scoring
type Engine struct {
	weights config.ScoreWeights
}

// NewEngine creates a trust engine with the given weights
func NewEngine(weights config.ScoreWeights) *Engine {
	return &Engine{weights: weights}
}

// Score computes the final trust score and tag. analysis may be nil, in
// which case neutral sub-scores are used; scoring always produces a
// value in [0, UpperBound].
func (e *Engine) Score(signals signal.Signals, analysis *quality.Analysis) (float64, model.TrustTag) {
	activity := e.ActivityScore(signals)

	if analysis == nil {
		analysis = quality.Neutral(e.weights.NeutralSubScore)
	}

	final := e.blend(activity, analysis)
	return final, e.Tag(final)
}

// ActivityScore computes the activity-only component of the trust score,
// clamped to [0, UpperBound].
func (e *Engine) ActivityScore(signals signal.Signals) float64 {
	score := e.weights.Base

	for kind, count := range signals.Counts {
		score += float64(count) * e.weights.For(kind)
	}

	if !signals.HasRecentActivity {
		score -= e.weights.InactivityPenalty
	}

	return e.clamp(score)
}

// blend combines the activity score with the quality sub-scores. The
// sub-score shares are scaled by 10 to map the 0-10 scale onto the
// score range; claim risk is inverted so higher risk lowers trust.
func (e *Engine) blend(activity float64, analysis *quality.Analysis) float64 {
	w := e.weights

	blended := activity*w.ActivityShare +
		10*(analysis.CommentQuality*w.CommentQualityShare+
			analysis.BehavioralConsistency*w.ConsistencyShare+
			analysis.EngagementAuthenticity*w.AuthenticityShare+
			(10-analysis.ClaimRisk)*w.ClaimRiskShare)

	return e.clamp(blended)
}

// Tag assigns the categorical label for a final score via the threshold
// ladder.
func (e *Engine) Tag(score float64) model.TrustTag {
	switch {
	case score >= e.weights.ReliableThreshold:
		return model.TagReliable
	case score >= e.weights.ActiveThreshold:
		return model.TagActive
	default:
		return model.TagNeedsFollowUp
	}
}

func (e *Engine) clamp(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > e.weights.UpperBound {
		return e.weights.UpperBound
	}
	return score
}
