// Package model contains domain types for the claimwatch application.
// These types are independent of any external GitHub library.
package model

import "time"

// EventKind represents the type of a public activity event.
// See: https://docs.github.com/en/rest/activity/events
type EventKind string

const (
	KindPush         EventKind = "PushEvent"
	KindPullRequest  EventKind = "PullRequestEvent"
	KindIssueComment EventKind = "IssueCommentEvent"
	KindReview       EventKind = "PullRequestReviewEvent"
	KindIssues       EventKind = "IssuesEvent"
	KindCreate       EventKind = "CreateEvent"
	KindFork         EventKind = "ForkEvent"
	KindWatch        EventKind = "WatchEvent"

	// KindOther covers event types that carry no scoring weight of
	// their own but still count as activity.
	KindOther EventKind = "OtherEvent"
)

// AllEventKinds contains all event kinds claimwatch distinguishes.
// This is the single source of truth for valid kind values.
var AllEventKinds = []EventKind{
	KindPush,
	KindPullRequest,
	KindIssueComment,
	KindReview,
	KindIssues,
	KindCreate,
	KindFork,
	KindWatch,
	KindOther,
}

// ParseEventKind maps an upstream event type string to an EventKind.
// Unrecognized types fold into KindOther rather than failing.
func ParseEventKind(s string) EventKind {
	for _, k := range AllEventKinds {
		if string(k) == s {
			return k
		}
	}
	return KindOther
}

// ActivityEvent is one observed public action by an actor. Events are
// immutable once stored; SourceID is the upstream event id and makes
// re-ingestion idempotent.
type ActivityEvent struct {
	SourceID   string    `json:"sourceId"`
	Actor      string    `json:"actor"`
	Kind       EventKind `json:"kind"`
	Repo       string    `json:"repo"`
	OccurredAt time.Time `json:"occurredAt"`
}
