package model

import "time"

// TrustTag is the categorical label derived from an actor's trust score.
type TrustTag string

const (
	TagReliable      TrustTag = "reliable"
	TagActive        TrustTag = "active"
	TagNeedsFollowUp TrustTag = "needs-follow-up"
	TagUnanalyzed    TrustTag = "unanalyzed"
)

// Actor is a contributor identity. Actors are never deleted; the trust
// engine is the only writer of TrustScore and Tag.
type Actor struct {
	Handle         string            `json:"handle"`
	TrustScore     float64           `json:"trustScore"`
	Tag            TrustTag          `json:"tag"`
	LastActivityAt *time.Time        `json:"lastActivityAt,omitempty"`
	EventCounts    map[EventKind]int `json:"eventCounts,omitempty"`
	LastCheckedAt  time.Time         `json:"lastCheckedAt"`
}
