// Package executor performs tracker side effects for the escalation
// engine. Every action is idempotent: a reminder is never posted twice
// for the same detection, and releasing an already-released claim is a
// no-op success.
package executor

import (
	"context"
	"errors"
	"strconv"
	"strings"

	gh "github.com/spiffcs/claimwatch/internal/github"
	"github.com/spiffcs/claimwatch/internal/log"
	"github.com/spiffcs/claimwatch/internal/model"
)

// Executor posts reminders and releases stale claims against the
// issue tracker.
type Executor struct {
	tracker          gh.Tracker
	reminderTemplate string
	releaseTemplate  string
}

// NewExecutor creates an executor that renders comments from the given
// templates.
func NewExecutor(tracker gh.Tracker, reminderTemplate, releaseTemplate string) *Executor {
	return &Executor{
		tracker:          tracker,
		reminderTemplate: reminderTemplate,
		releaseTemplate:  releaseTemplate,
	}
}

// MessageContext carries the values substituted into comment templates.
type MessageContext struct {
	Title     string
	GraceDays int
	TrustTag  model.TrustTag
}

// render expands a template. Supported tokens: {assignee}, {title},
// {grace_days}, {trust_tag}.
func render(template string, detection model.Detection, mc MessageContext) string {
	msg := template
	msg = strings.ReplaceAll(msg, "{assignee}", detection.Assignee)
	msg = strings.ReplaceAll(msg, "{title}", mc.Title)
	msg = strings.ReplaceAll(msg, "{grace_days}", strconv.Itoa(mc.GraceDays))
	msg = strings.ReplaceAll(msg, "{trust_tag}", string(mc.TrustTag))
	return msg
}

// RenderReminder expands the reminder template for a detection.
func (e *Executor) RenderReminder(detection model.Detection, mc MessageContext) string {
	return render(e.reminderTemplate, detection, mc)
}

// PostReminder posts a reminder comment on the detection's issue and
// returns the comment id. A detection that already carries a reminder
// comment is returned as-is without posting.
func (e *Executor) PostReminder(ctx context.Context, detection model.Detection, mc MessageContext) (int64, error) {
	if detection.ReminderCommentID != 0 {
		log.Debug("reminder already posted", "detection", detection.Key(), "comment", detection.ReminderCommentID)
		return detection.ReminderCommentID, nil
	}

	body := e.RenderReminder(detection, mc)
	commentID, err := e.tracker.PostComment(ctx, detection.Repo, detection.IssueNumber, body)
	if err != nil {
		return 0, err
	}

	log.Debug("posted reminder", "detection", detection.Key(), "comment", commentID)
	return commentID, nil
}

// ReleaseClaim removes the detection's assignee from the issue and posts
// a release notice. The issue is re-checked live before acting: an issue
// that was closed or deleted, or that no longer carries the assignee,
// needs no action. Returns true when the assignee was actually removed.
func (e *Executor) ReleaseClaim(ctx context.Context, detection model.Detection, mc MessageContext) (bool, error) {
	issue, err := e.tracker.GetIssue(ctx, detection.Repo, detection.IssueNumber)
	if err != nil {
		if errors.Is(err, gh.ErrNotFound) {
			log.Debug("issue gone, nothing to release", "detection", detection.Key())
			return false, nil
		}
		return false, err
	}

	if issue.State == model.IssueClosed {
		log.Debug("issue closed, nothing to release", "detection", detection.Key())
		return false, nil
	}

	if !issue.HasAssignee(detection.Assignee) {
		log.Debug("assignee already removed", "detection", detection.Key())
		return false, nil
	}

	// Remove only the stale assignee; co-assignees keep the issue.
	removed, err := e.tracker.ClearAssignees(ctx, detection.Repo, detection.IssueNumber, []string{detection.Assignee})
	if err != nil {
		return false, err
	}

	if removed {
		// The notice is best effort: the release already happened and
		// must not be rolled back over a failed comment.
		notice := render(e.releaseTemplate, detection, mc)
		if _, err := e.tracker.PostComment(ctx, detection.Repo, detection.IssueNumber, notice); err != nil {
			log.Warn("failed to post release notice", "detection", detection.Key(), "error", err)
		}
	}

	log.Debug("released claim", "detection", detection.Key(), "removed", removed)
	return removed, nil
}
