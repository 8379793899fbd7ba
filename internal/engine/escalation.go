// Package engine decides escalation steps for claim detections. The
// decision logic is pure: it looks at a detection, a fresh observation
// of the issue, and a clock, and names the next state and side effect.
// Applying the decision (posting comments, clearing assignees, writing
// state) belongs to the reconciler.
package engine

import (
	"time"

	"github.com/spiffcs/claimwatch/config"
	"github.com/spiffcs/claimwatch/internal/model"
)

// Action is the side effect a decision requires before its state change
// may be recorded.
type Action string

const (
	ActionNone    Action = "none"
	ActionRemind  Action = "remind"
	ActionRelease Action = "release"
)

// Observation is a live snapshot of the issue and assignee a detection
// tracks.
type Observation struct {
	IssueOpen     bool
	StillAssigned bool
	// LastAssigneeActivity is the most recent activity by the assignee
	// relevant to the issue (comment, commit, linked PR). Nil when none
	// is known.
	LastAssigneeActivity *time.Time
}

// Decision names the next detection state and the side effect that must
// succeed before the transition is recorded. Advance is false when the
// detection should stay where it is.
type Decision struct {
	Advance bool
	Next    model.DetectionState
	Action  Action
}

func stay() Decision {
	return Decision{Action: ActionNone}
}

func advance(next model.DetectionState, action Action) Decision {
	return Decision{Advance: true, Next: next, Action: action}
}

// Engine evaluates detections against the escalation rules.
type Engine struct {
	settings config.WatchSettings
}

func NewEngine(settings config.WatchSettings) *Engine {
	return &Engine{settings: settings}
}

// Evaluate decides the next step for a detection. Terminal detections
// never advance.
func (e *Engine) Evaluate(detection model.Detection, obs Observation, now time.Time) Decision {
	if detection.Terminal() {
		return stay()
	}

	// External resolution beats everything: a closed issue or a
	// reassignment means the incident is over regardless of phase.
	if !obs.IssueOpen || !obs.StillAssigned {
		return advance(model.StateResolved, ActionNone)
	}

	switch detection.State {
	case model.StatePending:
		return advance(model.StateReminded, ActionRemind)

	case model.StateReminded:
		if detection.ReminderSentAt == nil {
			// Should not happen; treat as still pending the reminder.
			return advance(model.StateReminded, ActionRemind)
		}
		if obs.LastAssigneeActivity != nil && obs.LastAssigneeActivity.After(*detection.ReminderSentAt) {
			return advance(model.StateResponded, ActionNone)
		}
		deadline := detection.ReminderSentAt.Add(time.Duration(e.settings.GraceDays) * 24 * time.Hour)
		if !now.Before(deadline) {
			return advance(model.StateUnassigned, ActionRelease)
		}
		return stay()
	}

	return stay()
}

// RecordFailure bumps the failure count on a detection and flags it once
// the cap is reached. Flagged detections are still retried; the flag
// only surfaces them for operators.
func (e *Engine) RecordFailure(detection *model.Detection, now time.Time) {
	detection.ActionFailures++
	if detection.ActionFailures >= e.settings.ActionFailureCap {
		detection.ActionFailed = true
	}
	detection.UpdatedAt = now
}

// RecordSuccess clears any failure bookkeeping after an action lands.
func (e *Engine) RecordSuccess(detection *model.Detection, now time.Time) {
	detection.ActionFailures = 0
	detection.ActionFailed = false
	detection.UpdatedAt = now
}
