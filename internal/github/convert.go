package github

import (
	"github.com/google/go-github/v57/github"

	"github.com/spiffcs/claimwatch/internal/model"
)

// issueFromGitHub converts an upstream issue into a TrackedIssue.
// Returns ok=false when required fields are missing so callers can skip
// the record instead of failing the pass.
func issueFromGitHub(repo string, issue *github.Issue) (model.TrackedIssue, bool) {
	if issue == nil || issue.ID == nil || issue.Number == nil {
		return model.TrackedIssue{}, false
	}

	state := model.IssueOpen
	if issue.GetState() == "closed" {
		state = model.IssueClosed
	}

	var assignees []string
	for _, a := range issue.Assignees {
		if login := a.GetLogin(); login != "" {
			assignees = append(assignees, login)
		}
	}
	// Older payloads populate only the singular assignee field.
	if len(assignees) == 0 {
		if login := issue.GetAssignee().GetLogin(); login != "" {
			assignees = []string{login}
		}
	}

	return model.TrackedIssue{
		IssueID:   issue.GetID(),
		Repo:      repo,
		Number:    issue.GetNumber(),
		Title:     issue.GetTitle(),
		Assignees: assignees,
		State:     state,
		UpdatedAt: issue.GetUpdatedAt().Time,
	}, true
}

// commentFromGitHub converts an upstream issue comment. Comments without
// an id, author or timestamp are rejected.
func commentFromGitHub(comment *github.IssueComment) (model.Comment, bool) {
	if comment == nil || comment.ID == nil {
		return model.Comment{}, false
	}

	author := comment.GetUser().GetLogin()
	createdAt := comment.GetCreatedAt().Time
	if author == "" || createdAt.IsZero() {
		return model.Comment{}, false
	}

	return model.Comment{
		ID:        comment.GetID(),
		Author:    author,
		Body:      comment.GetBody(),
		CreatedAt: createdAt,
	}, true
}

// eventFromGitHub converts an upstream public event. Events without an
// id or a usable timestamp are rejected; unknown types fold into
// KindOther so they still count as activity.
func eventFromGitHub(handle string, event *github.Event) (model.ActivityEvent, bool) {
	if event == nil || event.GetID() == "" {
		return model.ActivityEvent{}, false
	}

	occurredAt := event.GetCreatedAt().Time
	if occurredAt.IsZero() {
		return model.ActivityEvent{}, false
	}

	return model.ActivityEvent{
		SourceID:   event.GetID(),
		Actor:      handle,
		Kind:       model.ParseEventKind(event.GetType()),
		Repo:       event.GetRepo().GetName(),
		OccurredAt: occurredAt,
	}, true
}
