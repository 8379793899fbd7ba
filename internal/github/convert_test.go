package github

import (
	"testing"
	"time"

	"github.com/google/go-github/v57/github"

	"github.com/spiffcs/claimwatch/internal/model"
)

func TestIssueFromGitHub(t *testing.T) {
	updated := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		issue  *github.Issue
		wantOK bool
		check  func(t *testing.T, got model.TrackedIssue)
	}{
		{
			name:   "nil issue rejected",
			issue:  nil,
			wantOK: false,
		},
		{
			name:   "missing id rejected",
			issue:  &github.Issue{Number: github.Int(12)},
			wantOK: false,
		},
		{
			name: "complete issue",
			issue: &github.Issue{
				ID:     github.Int64(1001),
				Number: github.Int(12),
				Title:  github.String("Fix the widget race"),
				State:  github.String("open"),
				Assignees: []*github.User{
					{Login: github.String("alice")},
					{Login: github.String("bob")},
				},
				UpdatedAt: &github.Timestamp{Time: updated},
			},
			wantOK: true,
			check: func(t *testing.T, got model.TrackedIssue) {
				if got.Key() != "octo/widgets#12" {
					t.Errorf("Key() = %q", got.Key())
				}
				if len(got.Assignees) != 2 {
					t.Errorf("Assignees = %v, want 2", got.Assignees)
				}
				if got.State != model.IssueOpen {
					t.Errorf("State = %v, want open", got.State)
				}
			},
		},
		{
			name: "singular assignee fallback",
			issue: &github.Issue{
				ID:       github.Int64(1002),
				Number:   github.Int(13),
				State:    github.String("closed"),
				Assignee: &github.User{Login: github.String("carol")},
			},
			wantOK: true,
			check: func(t *testing.T, got model.TrackedIssue) {
				if len(got.Assignees) != 1 || got.Assignees[0] != "carol" {
					t.Errorf("Assignees = %v, want [carol]", got.Assignees)
				}
				if got.State != model.IssueClosed {
					t.Errorf("State = %v, want closed", got.State)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := issueFromGitHub("octo/widgets", tt.issue)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if tt.check != nil {
				tt.check(t, got)
			}
		})
	}
}

func TestCommentFromGitHub(t *testing.T) {
	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		comment *github.IssueComment
		wantOK  bool
	}{
		{"nil comment", nil, false},
		{"missing id", &github.IssueComment{Body: github.String("hi")}, false},
		{
			"missing author",
			&github.IssueComment{
				ID:        github.Int64(1),
				CreatedAt: &github.Timestamp{Time: created},
			},
			false,
		},
		{
			"missing timestamp",
			&github.IssueComment{
				ID:   github.Int64(1),
				User: &github.User{Login: github.String("alice")},
			},
			false,
		},
		{
			"complete comment",
			&github.IssueComment{
				ID:        github.Int64(1),
				User:      &github.User{Login: github.String("alice")},
				Body:      github.String("I'll take this one!"),
				CreatedAt: &github.Timestamp{Time: created},
			},
			true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := commentFromGitHub(tt.comment)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && got.Author != "alice" {
				t.Errorf("Author = %q, want alice", got.Author)
			}
		})
	}
}

func TestEventFromGitHub(t *testing.T) {
	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	event := &github.Event{
		ID:        github.String("ev-1"),
		Type:      github.String("PushEvent"),
		Repo:      &github.Repository{Name: github.String("octo/widgets")},
		CreatedAt: &github.Timestamp{Time: created},
	}

	got, ok := eventFromGitHub("alice", event)
	if !ok {
		t.Fatal("ok = false, want true")
	}
	if got.Kind != model.KindPush {
		t.Errorf("Kind = %v, want push", got.Kind)
	}
	if got.Actor != "alice" || got.SourceID != "ev-1" {
		t.Errorf("event = %+v", got)
	}

	// Unknown types still count as activity.
	event.Type = github.String("GollumEvent")
	got, _ = eventFromGitHub("alice", event)
	if got.Kind != model.KindOther {
		t.Errorf("Kind = %v, want other", got.Kind)
	}

	// Missing ids are rejected.
	if _, ok := eventFromGitHub("alice", &github.Event{CreatedAt: &github.Timestamp{Time: created}}); ok {
		t.Error("event without id accepted")
	}
}

func TestRateLimitState(t *testing.T) {
	state := &RateLimitState{}

	if state.IsLimited() {
		t.Error("fresh state reports limited")
	}

	state.SetLimited(true, time.Now().Add(time.Hour))
	if !state.IsLimited() {
		t.Error("state not limited after SetLimited")
	}

	state.SetLimited(true, time.Now().Add(-time.Minute))
	if state.IsLimited() {
		t.Error("state still limited after reset time passed")
	}

	state.Update(0, 5000, time.Now().Add(time.Hour))
	remaining, limit, _, limited := state.Status()
	if remaining != 0 || limit != 5000 || !limited {
		t.Errorf("Status() = %d/%d limited=%v, want 0/5000 limited", remaining, limit, limited)
	}
}
