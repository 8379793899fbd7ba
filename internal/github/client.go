// Package github provides the typed tracker client used by claimwatch.
// All upstream payload validation happens at this boundary; the rest of
// the system only sees domain types from internal/model.
package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/go-github/v57/github"
	"golang.org/x/oauth2"

	"github.com/spiffcs/claimwatch/internal/log"
	"github.com/spiffcs/claimwatch/internal/model"
)

// ErrNotFound is returned when the upstream issue or comment is gone.
// Callers map this to a resolved outcome rather than a failure.
var ErrNotFound = errors.New("not found")

// Client wraps the GitHub API client with rate-limit tracking.
type Client struct {
	client *github.Client
	limits *RateLimitState
}

// NewClient creates a new GitHub client using a personal access token
func NewClient(token string) (*Client, error) {
	if token == "" {
		return nil, fmt.Errorf("GitHub token not provided. Set the GITHUB_TOKEN environment variable")
	}

	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: token},
	)
	tc := oauth2.NewClient(context.Background(), ts)

	return &Client{
		client: github.NewClient(tc),
		limits: &RateLimitState{},
	}, nil
}

// Limits returns the client's rate limit state.
func (c *Client) Limits() *RateLimitState {
	return c.limits
}

// splitRepo splits "owner/name" into its parts.
func splitRepo(repo string) (owner, name string, err error) {
	parts := strings.Split(repo, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid repo format %q, expected owner/name", repo)
	}
	return parts[0], parts[1], nil
}

// before blocks behind the rate limiter until a request may be issued.
func (c *Client) before(ctx context.Context) error {
	return c.limits.Wait(ctx)
}

// after records rate limit headers and classifies upstream errors.
func (c *Client) after(resp *github.Response, err error) error {
	if resp != nil {
		c.limits.Update(resp.Rate.Remaining, resp.Rate.Limit, resp.Rate.Reset.Time)
	}
	if err == nil {
		return nil
	}

	var rateErr *github.RateLimitError
	if errors.As(err, &rateErr) {
		c.limits.SetLimited(true, rateErr.Rate.Reset.Time)
		return fmt.Errorf("%w: resets at %s", ErrRateLimited, rateErr.Rate.Reset.Time.Format(time.RFC3339))
	}

	var abuseErr *github.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		resetAt := time.Now().Add(time.Minute)
		if abuseErr.RetryAfter != nil {
			resetAt = time.Now().Add(*abuseErr.RetryAfter)
		}
		c.limits.SetLimited(true, resetAt)
		return fmt.Errorf("%w: secondary limit, retry after %s", ErrRateLimited, resetAt.Format(time.RFC3339))
	}

	var ghErr *github.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		switch ghErr.Response.StatusCode {
		case http.StatusNotFound, http.StatusGone:
			return ErrNotFound
		}
	}

	return err
}

// ListAssignedOpenIssues returns the open issues in repo that currently
// have at least one assignee. Pull requests are excluded.
func (c *Client) ListAssignedOpenIssues(ctx context.Context, repo string) ([]model.TrackedIssue, error) {
	owner, name, err := splitRepo(repo)
	if err != nil {
		return nil, err
	}

	var issues []model.TrackedIssue
	opts := &github.IssueListByRepoOptions{
		State:       "open",
		ListOptions: github.ListOptions{PerPage: 100},
	}

	for {
		if err := c.before(ctx); err != nil {
			return nil, err
		}
		page, resp, err := c.client.Issues.ListByRepo(ctx, owner, name, opts)
		if err := c.after(resp, err); err != nil {
			return nil, fmt.Errorf("failed to list issues for %s: %w", repo, err)
		}

		for _, issue := range page {
			// Pull requests show up in the issues API; claims on PRs
			// are not tracked.
			if issue.IsPullRequest() {
				continue
			}
			tracked, ok := issueFromGitHub(repo, issue)
			if !ok {
				log.Debug("skipping malformed issue payload", "repo", repo)
				continue
			}
			if len(tracked.Assignees) > 0 {
				issues = append(issues, tracked)
			}
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return issues, nil
}

// GetIssue fetches the live state of a single issue. Used to re-check
// assignment immediately before destructive actions.
func (c *Client) GetIssue(ctx context.Context, repo string, number int) (*model.TrackedIssue, error) {
	owner, name, err := splitRepo(repo)
	if err != nil {
		return nil, err
	}

	if err := c.before(ctx); err != nil {
		return nil, err
	}
	issue, resp, err := c.client.Issues.Get(ctx, owner, name, number)
	if err := c.after(resp, err); err != nil {
		return nil, err
	}

	tracked, ok := issueFromGitHub(repo, issue)
	if !ok {
		return nil, fmt.Errorf("malformed issue payload for %s#%d", repo, number)
	}
	return &tracked, nil
}

// ListIssueComments returns all comments on an issue, oldest first.
func (c *Client) ListIssueComments(ctx context.Context, repo string, number int) ([]model.Comment, error) {
	owner, name, err := splitRepo(repo)
	if err != nil {
		return nil, err
	}

	var comments []model.Comment
	opts := &github.IssueListCommentsOptions{
		ListOptions: github.ListOptions{PerPage: 100},
	}

	for {
		if err := c.before(ctx); err != nil {
			return nil, err
		}
		page, resp, err := c.client.Issues.ListComments(ctx, owner, name, number, opts)
		if err := c.after(resp, err); err != nil {
			return nil, fmt.Errorf("failed to list comments for %s#%d: %w", repo, number, err)
		}

		for _, comment := range page {
			converted, ok := commentFromGitHub(comment)
			if !ok {
				log.Debug("skipping malformed comment payload", "repo", repo, "issue", number)
				continue
			}
			comments = append(comments, converted)
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return comments, nil
}

// ListUserEvents returns up to limit recent public events for a user.
// Malformed events are skipped; a missing user yields an empty list so
// that absence of activity reads as staleness, not an error.
func (c *Client) ListUserEvents(ctx context.Context, handle string, limit int) ([]model.ActivityEvent, error) {
	if limit <= 0 {
		limit = 30
	}

	if err := c.before(ctx); err != nil {
		return nil, err
	}
	raw, resp, err := c.client.Activity.ListEventsPerformedByUser(ctx, handle, true, &github.ListOptions{PerPage: limit})
	if err := c.after(resp, err); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list events for %s: %w", handle, err)
	}

	events := make([]model.ActivityEvent, 0, len(raw))
	for _, e := range raw {
		converted, ok := eventFromGitHub(handle, e)
		if !ok {
			log.Debug("skipping malformed event payload", "user", handle)
			continue
		}
		events = append(events, converted)
		if len(events) == limit {
			break
		}
	}

	return events, nil
}

// PostComment posts a comment on an issue and returns the comment id.
func (c *Client) PostComment(ctx context.Context, repo string, number int, body string) (int64, error) {
	owner, name, err := splitRepo(repo)
	if err != nil {
		return 0, err
	}

	if err := c.before(ctx); err != nil {
		return 0, err
	}
	comment, resp, err := c.client.Issues.CreateComment(ctx, owner, name, number, &github.IssueComment{
		Body: github.String(body),
	})
	if err := c.after(resp, err); err != nil {
		return 0, err
	}

	return comment.GetID(), nil
}

// ClearAssignees removes the given assignees from an issue. Returns true
// when a write was performed; clearing an issue that has none of the
// assignees is reported as false with no error.
func (c *Client) ClearAssignees(ctx context.Context, repo string, number int, assignees []string) (bool, error) {
	if len(assignees) == 0 {
		return false, nil
	}

	owner, name, err := splitRepo(repo)
	if err != nil {
		return false, err
	}

	if err := c.before(ctx); err != nil {
		return false, err
	}
	_, resp, err := c.client.Issues.RemoveAssignees(ctx, owner, name, number, assignees)
	if err := c.after(resp, err); err != nil {
		return false, err
	}

	return true, nil
}

// RateLimitStatus fetches the live rate limit from the API and updates
// the tracked state.
func (c *Client) RateLimitStatus(ctx context.Context) (remaining, limit int, resetAt time.Time, err error) {
	limits, resp, err := c.client.RateLimit.Get(ctx)
	if err := c.after(resp, err); err != nil {
		return 0, 0, time.Time{}, fmt.Errorf("failed to get rate limits: %w", err)
	}

	core := limits.Core
	if core == nil {
		return 0, 0, time.Time{}, fmt.Errorf("rate limit response missing core limits")
	}

	c.limits.Update(core.Remaining, core.Limit, core.Reset.Time)
	return core.Remaining, core.Limit, core.Reset.Time, nil
}
