// Package signal normalizes a contributor's raw event stream into the
// activity signals consumed by trust scoring and escalation.
package signal

import (
	"time"

	"github.com/spiffcs/claimwatch/internal/model"
)

// Signals is the normalized view of an actor's recent activity.
type Signals struct {
	// Counts holds per-kind event counts over the scored sample.
	Counts map[model.EventKind]int `json:"counts"`
	// HasRecentActivity is true when any event falls inside the
	// recency window.
	HasRecentActivity bool `json:"hasRecentActivity"`
	// LastActivityAt is the timestamp of the most recent event, nil
	// when no usable events were observed.
	LastActivityAt *time.Time `json:"lastActivityAt,omitempty"`
	// Sampled is the number of events that entered the sample.
	Sampled int `json:"sampled"`
}

// DaysInactive returns whole days since the last activity, or days since
// forever (a large value) when no activity was ever observed.
func (s Signals) DaysInactive(now time.Time) int {
	if s.LastActivityAt == nil {
		return int(now.Sub(time.Time{}).Hours() / 24)
	}
	days := int(now.Sub(*s.LastActivityAt).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

// Extractor turns event lists into Signals.
type Extractor struct {
	recencyWindow time.Duration
	sampleLimit   int
}

// NewExtractor creates an extractor. recencyDays bounds the activity
// window; sampleLimit caps how many of the most recent events are scored.
func NewExtractor(recencyDays, sampleLimit int) *Extractor {
	if recencyDays <= 0 {
		recencyDays = 7
	}
	if sampleLimit <= 0 {
		sampleLimit = 10
	}
	return &Extractor{
		recencyWindow: time.Duration(recencyDays) * 24 * time.Hour,
		sampleLimit:   sampleLimit,
	}
}

// Extract normalizes events, assumed most-recent first as returned by
// the tracker. An empty or partial list is a valid input and reads as
// no recent activity, not an error. Events with zero timestamps are
// skipped.
func (e *Extractor) Extract(events []model.ActivityEvent, now time.Time) Signals {
	signals := Signals{
		Counts: make(map[model.EventKind]int),
	}

	cutoff := now.Add(-e.recencyWindow)

	for _, event := range events {
		if event.OccurredAt.IsZero() {
			continue
		}
		if signals.Sampled == e.sampleLimit {
			break
		}

		signals.Counts[event.Kind]++
		signals.Sampled++

		if event.OccurredAt.After(cutoff) {
			signals.HasRecentActivity = true
		}
		if signals.LastActivityAt == nil || event.OccurredAt.After(*signals.LastActivityAt) {
			t := event.OccurredAt
			signals.LastActivityAt = &t
		}
	}

	return signals
}
