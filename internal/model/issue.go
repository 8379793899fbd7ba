package model

import (
	"fmt"
	"time"
)

// IssueState represents the upstream state of a tracked issue.
type IssueState string

const (
	IssueOpen   IssueState = "open"
	IssueClosed IssueState = "closed"
)

// TrackedIssue is a unit of claimable work. It is refreshed on every
// reconciliation pass; Assignees is cleared only by the action executor.
type TrackedIssue struct {
	IssueID   int64      `json:"issueId"`
	Repo      string     `json:"repo"` // owner/name
	Number    int        `json:"number"`
	Title     string     `json:"title"`
	Assignees []string   `json:"assignees,omitempty"`
	State     IssueState `json:"state"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// Key returns the stable identifier used for upserts, e.g. "owner/repo#12".
func (i TrackedIssue) Key() string {
	return fmt.Sprintf("%s#%d", i.Repo, i.Number)
}

// HasAssignee reports whether handle currently holds a claim on the issue.
func (i TrackedIssue) HasAssignee(handle string) bool {
	for _, a := range i.Assignees {
		if a == handle {
			return true
		}
	}
	return false
}

// Comment is a single issue comment as seen at the tracker boundary.
type Comment struct {
	ID        int64     `json:"id"`
	Author    string    `json:"author"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"createdAt"`
}

// ClaimEvidence records a claim-language match on a specific comment.
// Evidence is append-only, keyed by CommentID, and is a signal for the
// escalation engine, never a trigger on its own.
type ClaimEvidence struct {
	IssueKey   string    `json:"issueKey"`
	Actor      string    `json:"actor"`
	CommentID  int64     `json:"commentId"`
	PatternIDs []string  `json:"patternIds"`
	MatchedAt  time.Time `json:"matchedAt"`
}
