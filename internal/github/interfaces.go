package github

import (
	"context"
	"time"

	"github.com/spiffcs/claimwatch/internal/model"
)

// Tracker defines the issue tracker operations claimwatch depends on.
// This interface enables mocking the GitHub client in unit tests.
type Tracker interface {
	ListAssignedOpenIssues(ctx context.Context, repo string) ([]model.TrackedIssue, error)
	GetIssue(ctx context.Context, repo string, number int) (*model.TrackedIssue, error)
	ListIssueComments(ctx context.Context, repo string, number int) ([]model.Comment, error)
	ListUserEvents(ctx context.Context, handle string, limit int) ([]model.ActivityEvent, error)
	PostComment(ctx context.Context, repo string, number int, body string) (int64, error)
	ClearAssignees(ctx context.Context, repo string, number int, assignees []string) (bool, error)
	RateLimitStatus(ctx context.Context) (remaining, limit int, resetAt time.Time, err error)
}

// Ensure Client implements the Tracker interface.
var _ Tracker = (*Client)(nil)
