// Package quality defines the optional quality-analysis capability that
// can enrich trust scoring. The engine never depends on it being
// available: every sub-score has a documented neutral fallback.
package quality

import (
	"context"

	"github.com/spiffcs/claimwatch/internal/model"
)

// Analysis holds the quality sub-scores, each on a 0-10 scale.
// ClaimRisk is inverted by the trust engine: higher risk lowers trust.
type Analysis struct {
	CommentQuality         float64  `json:"commentQuality"`
	BehavioralConsistency  float64  `json:"behavioralConsistency"`
	EngagementAuthenticity float64  `json:"engagementAuthenticity"`
	ClaimRisk              float64  `json:"claimRisk"`
	Tags                   []string `json:"tags,omitempty"`
}

// Payload is the input handed to an analyzer.
type Payload struct {
	Handle       string
	Comments     []model.Comment
	EventCounts  map[model.EventKind]int
	DaysInactive int
}

// Analyzer produces quality sub-scores for a contributor.
type Analyzer interface {
	Analyze(ctx context.Context, payload Payload) (*Analysis, error)
}

// Neutral returns the fallback analysis used when no analyzer is
// configured or an analyzer call fails. All sub-scores carry the same
// neutral value so the blend reduces to the activity score's shape.
func Neutral(subScore float64) *Analysis {
	return &Analysis{
		CommentQuality:         subScore,
		BehavioralConsistency:  subScore,
		EngagementAuthenticity: subScore,
		ClaimRisk:              subScore,
	}
}

// clampSub bounds a sub-score to the 0-10 scale.
func clampSub(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 10 {
		return 10
	}
	return v
}

// Clamp bounds every sub-score to the 0-10 scale.
func (a *Analysis) Clamp() {
	a.CommentQuality = clampSub(a.CommentQuality)
	a.BehavioralConsistency = clampSub(a.BehavioralConsistency)
	a.EngagementAuthenticity = clampSub(a.EngagementAuthenticity)
	a.ClaimRisk = clampSub(a.ClaimRisk)
}
