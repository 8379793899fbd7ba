package model

import (
	"fmt"
	"time"
)

// DetectionState is the lifecycle state of a stale-claim detection.
type DetectionState string

const (
	// StatePending: inactivity observed, reminder not yet confirmed sent.
	StatePending DetectionState = "pending"
	// StateReminded: a reminder comment was posted and confirmed.
	StateReminded DetectionState = "reminded"
	// StateResponded: the assignee showed activity after the reminder. Terminal.
	StateResponded DetectionState = "responded"
	// StateUnassigned: the claim was released after the grace period. Terminal.
	StateUnassigned DetectionState = "unassigned"
	// StateResolved: the issue closed or was reassigned externally. Terminal.
	StateResolved DetectionState = "resolved"
)

// AllDetectionStates contains all valid detection states.
var AllDetectionStates = []DetectionState{
	StatePending,
	StateReminded,
	StateResponded,
	StateUnassigned,
	StateResolved,
}

// transitions is the forward-only state transition table. A detection
// may never move against it.
var transitions = map[DetectionState][]DetectionState{
	StatePending:  {StateReminded, StateResolved},
	StateReminded: {StateResponded, StateUnassigned, StateResolved},
}

// CanTransition reports whether moving from one state to another is legal.
func CanTransition(from, to DetectionState) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Terminal reports whether a state admits no further transitions.
func (s DetectionState) Terminal() bool {
	return len(transitions[s]) == 0
}

// Detection tracks one stale-claim incident for a single (issue, assignee)
// pair. At most one non-terminal detection exists per pair.
type Detection struct {
	IssueKey    string `json:"issueKey"`
	IssueID     int64  `json:"issueId"`
	Repo        string `json:"repo"`
	IssueNumber int    `json:"issueNumber"`
	Assignee    string `json:"assignee"`

	State            DetectionState `json:"state"`
	DaysInactive     int            `json:"daysInactive"`
	ScoreAtDetection float64        `json:"scoreAtDetection"`

	CreatedAt         time.Time  `json:"createdAt"`
	ReminderSentAt    *time.Time `json:"reminderSentAt,omitempty"`
	ReminderCommentID int64      `json:"reminderCommentId,omitempty"`
	RespondedAt       *time.Time `json:"respondedAt,omitempty"`
	UnassignedAt      *time.Time `json:"unassignedAt,omitempty"`
	ResolvedAt        *time.Time `json:"resolvedAt,omitempty"`
	UpdatedAt         time.Time  `json:"updatedAt"`

	// ActionFailures counts consecutive executor failures. Once it
	// reaches the configured cap, ActionFailed is raised for operator
	// visibility; the action keeps retrying on later passes.
	ActionFailures int  `json:"actionFailures,omitempty"`
	ActionFailed   bool `json:"actionFailed,omitempty"`
}

// Key identifies the (issue, assignee) pair, e.g. "owner/repo#12:handle".
func (d Detection) Key() string {
	return fmt.Sprintf("%s:%s", d.IssueKey, d.Assignee)
}

// Terminal reports whether the detection has reached a terminal state.
func (d Detection) Terminal() bool {
	return d.State.Terminal()
}
