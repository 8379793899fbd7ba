package executor

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/spiffcs/claimwatch/config"
	gh "github.com/spiffcs/claimwatch/internal/github"
	"github.com/spiffcs/claimwatch/internal/model"
)

// fakeTracker implements gh.Tracker for executor tests.
type fakeTracker struct {
	issue         *model.TrackedIssue
	issueErr      error
	postedBodies  []string
	nextCommentID int64
	removedCalls  [][]string
	removeErr     error
}

func (f *fakeTracker) ListAssignedOpenIssues(context.Context, string) ([]model.TrackedIssue, error) {
	return nil, nil
}

func (f *fakeTracker) GetIssue(context.Context, string, int) (*model.TrackedIssue, error) {
	return f.issue, f.issueErr
}

func (f *fakeTracker) ListIssueComments(context.Context, string, int) ([]model.Comment, error) {
	return nil, nil
}

func (f *fakeTracker) ListUserEvents(context.Context, string, int) ([]model.ActivityEvent, error) {
	return nil, nil
}

func (f *fakeTracker) PostComment(_ context.Context, _ string, _ int, body string) (int64, error) {
	f.postedBodies = append(f.postedBodies, body)
	f.nextCommentID++
	return f.nextCommentID, nil
}

func (f *fakeTracker) ClearAssignees(_ context.Context, _ string, _ int, assignees []string) (bool, error) {
	if f.removeErr != nil {
		return false, f.removeErr
	}
	f.removedCalls = append(f.removedCalls, assignees)
	return true, nil
}

func (f *fakeTracker) RateLimitStatus(context.Context) (int, int, time.Time, error) {
	return 5000, 5000, time.Time{}, nil
}

var _ gh.Tracker = (*fakeTracker)(nil)

func testDetection() model.Detection {
	return model.Detection{
		IssueKey:    "octo/widgets#12",
		Repo:        "octo/widgets",
		IssueNumber: 12,
		Assignee:    "alice",
		State:       model.StatePending,
	}
}

func testContext() MessageContext {
	return MessageContext{
		Title:     "Fix the widget race",
		GraceDays: 3,
		TrustTag:  model.TagActive,
	}
}

func newTestExecutor(tracker *fakeTracker) *Executor {
	return NewExecutor(tracker, config.DefaultReminderTemplate, config.DefaultReleaseTemplate)
}

func TestRenderReminder(t *testing.T) {
	exec := newTestExecutor(&fakeTracker{})

	body := exec.RenderReminder(testDetection(), testContext())

	for _, want := range []string{"@alice", "Fix the widget race", "3 days"} {
		if !strings.Contains(body, want) {
			t.Errorf("reminder body missing %q:\n%s", want, body)
		}
	}
	if strings.Contains(body, "{") {
		t.Errorf("reminder body has unexpanded tokens:\n%s", body)
	}
}

func TestRenderReminderTrustTag(t *testing.T) {
	exec := NewExecutor(&fakeTracker{}, "{assignee} ({trust_tag})", config.DefaultReleaseTemplate)

	body := exec.RenderReminder(testDetection(), testContext())
	if body != "alice (active)" {
		t.Errorf("RenderReminder() = %q, want %q", body, "alice (active)")
	}
}

func TestPostReminder(t *testing.T) {
	tracker := &fakeTracker{}
	exec := newTestExecutor(tracker)

	commentID, err := exec.PostReminder(context.Background(), testDetection(), testContext())
	if err != nil {
		t.Fatalf("PostReminder() error = %v", err)
	}
	if commentID == 0 {
		t.Error("PostReminder() returned zero comment id")
	}
	if len(tracker.postedBodies) != 1 {
		t.Fatalf("posted %d comments, want 1", len(tracker.postedBodies))
	}
}

func TestPostReminderIsIdempotent(t *testing.T) {
	tracker := &fakeTracker{}
	exec := newTestExecutor(tracker)

	detection := testDetection()
	detection.ReminderCommentID = 999

	commentID, err := exec.PostReminder(context.Background(), detection, testContext())
	if err != nil {
		t.Fatalf("PostReminder() error = %v", err)
	}
	if commentID != 999 {
		t.Errorf("PostReminder() = %d, want the existing comment 999", commentID)
	}
	if len(tracker.postedBodies) != 0 {
		t.Errorf("posted %d comments, want 0", len(tracker.postedBodies))
	}
}

func TestReleaseClaim(t *testing.T) {
	tests := []struct {
		name        string
		tracker     *fakeTracker
		wantRemoved bool
		wantErr     bool
		wantCalls   int
		wantNotices int
	}{
		{
			name: "assignee removed",
			tracker: &fakeTracker{
				issue: &model.TrackedIssue{
					Repo: "octo/widgets", Number: 12,
					State:     model.IssueOpen,
					Assignees: []string{"alice", "bob"},
				},
			},
			wantRemoved: true,
			wantCalls:   1,
			wantNotices: 1,
		},
		{
			name: "already unassigned is a no-op success",
			tracker: &fakeTracker{
				issue: &model.TrackedIssue{
					Repo: "octo/widgets", Number: 12,
					State:     model.IssueOpen,
					Assignees: []string{"bob"},
				},
			},
		},
		{
			name: "closed issue needs no action",
			tracker: &fakeTracker{
				issue: &model.TrackedIssue{
					Repo: "octo/widgets", Number: 12,
					State:     model.IssueClosed,
					Assignees: []string{"alice"},
				},
			},
		},
		{
			name:    "deleted issue needs no action",
			tracker: &fakeTracker{issueErr: gh.ErrNotFound},
		},
		{
			name: "tracker failure propagates",
			tracker: &fakeTracker{
				issue: &model.TrackedIssue{
					Repo: "octo/widgets", Number: 12,
					State:     model.IssueOpen,
					Assignees: []string{"alice"},
				},
				removeErr: errors.New("boom"),
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exec := newTestExecutor(tt.tracker)

			removed, err := exec.ReleaseClaim(context.Background(), testDetection(), testContext())
			if (err != nil) != tt.wantErr {
				t.Fatalf("ReleaseClaim() error = %v, wantErr %v", err, tt.wantErr)
			}
			if removed != tt.wantRemoved {
				t.Errorf("ReleaseClaim() = %v, want %v", removed, tt.wantRemoved)
			}
			if len(tt.tracker.removedCalls) != tt.wantCalls {
				t.Errorf("ClearAssignees called %d times, want %d", len(tt.tracker.removedCalls), tt.wantCalls)
			}
			if len(tt.tracker.postedBodies) != tt.wantNotices {
				t.Errorf("posted %d notices, want %d", len(tt.tracker.postedBodies), tt.wantNotices)
			}
		})
	}
}

// ReleaseClaim removes only the stale assignee, never co-assignees.
func TestReleaseClaimTargetsSingleAssignee(t *testing.T) {
	tracker := &fakeTracker{
		issue: &model.TrackedIssue{
			Repo: "octo/widgets", Number: 12,
			State:     model.IssueOpen,
			Assignees: []string{"alice", "bob", "carol"},
		},
	}
	exec := newTestExecutor(tracker)

	if _, err := exec.ReleaseClaim(context.Background(), testDetection(), testContext()); err != nil {
		t.Fatalf("ReleaseClaim() error = %v", err)
	}

	if len(tracker.removedCalls) != 1 || len(tracker.removedCalls[0]) != 1 || tracker.removedCalls[0][0] != "alice" {
		t.Errorf("ClearAssignees calls = %v, want [[alice]]", tracker.removedCalls)
	}
}
