package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spiffcs/claimwatch/internal/model"
)

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0644)
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStoreWithPath(filepath.Join(t.TempDir(), "state.json"))
	if err != nil {
		t.Fatalf("NewStoreWithPath() error = %v", err)
	}
	return s
}

func TestInsertEventIsIdempotent(t *testing.T) {
	s := newTestStore(t)

	event := model.ActivityEvent{
		SourceID:   "ev-1",
		Actor:      "alice",
		Kind:       model.KindPush,
		OccurredAt: time.Now(),
	}

	inserted, err := s.InsertEvent(event)
	if err != nil {
		t.Fatalf("InsertEvent() error = %v", err)
	}
	if !inserted {
		t.Error("first InsertEvent() = false, want true")
	}

	inserted, err = s.InsertEvent(event)
	if err != nil {
		t.Fatalf("second InsertEvent() error = %v", err)
	}
	if inserted {
		t.Error("second InsertEvent() = true, want false")
	}

	if got := s.EventCount(); got != 1 {
		t.Errorf("EventCount() = %d, want 1", got)
	}
}

func TestInsertEvidenceIsIdempotent(t *testing.T) {
	s := newTestStore(t)

	evidence := model.ClaimEvidence{
		IssueKey:   "octo/widgets#1",
		Actor:      "alice",
		CommentID:  42,
		PatternIDs: []string{"take-this"},
		MatchedAt:  time.Now(),
	}

	for i, want := range []bool{true, false} {
		inserted, err := s.InsertEvidence(evidence)
		if err != nil {
			t.Fatalf("InsertEvidence() #%d error = %v", i, err)
		}
		if inserted != want {
			t.Errorf("InsertEvidence() #%d = %v, want %v", i, inserted, want)
		}
	}

	if got := len(s.EvidenceForIssue("octo/widgets#1")); got != 1 {
		t.Errorf("EvidenceForIssue() returned %d records, want 1", got)
	}
}

func TestPutDetectionRejectsBackwardTransitions(t *testing.T) {
	s := newTestStore(t)

	detection := model.Detection{
		IssueKey:    "octo/widgets#1",
		Repo:        "octo/widgets",
		IssueNumber: 1,
		Assignee:    "alice",
		State:       model.StateReminded,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	if err := s.PutDetection(detection); err != nil {
		t.Fatalf("PutDetection() error = %v", err)
	}

	detection.State = model.StatePending
	if err := s.PutDetection(detection); err == nil {
		t.Error("PutDetection() reminded -> pending: expected error, got nil")
	}

	// Forward moves stay legal.
	detection.State = model.StateResponded
	if err := s.PutDetection(detection); err != nil {
		t.Errorf("PutDetection() reminded -> responded error = %v", err)
	}
}

func TestPutDetectionReplacesTerminalRecord(t *testing.T) {
	s := newTestStore(t)

	detection := model.Detection{
		IssueKey: "octo/widgets#1",
		Assignee: "alice",
		State:    model.StateResponded,
	}
	if err := s.PutDetection(detection); err != nil {
		t.Fatalf("PutDetection() error = %v", err)
	}

	// A closed incident may reopen as a fresh pending detection.
	detection.State = model.StatePending
	if err := s.PutDetection(detection); err != nil {
		t.Errorf("PutDetection() terminal -> pending error = %v", err)
	}

	if _, active := s.ActiveDetection("octo/widgets#1", "alice"); !active {
		t.Error("ActiveDetection() after reopen = false, want true")
	}
}

func TestActiveDetectionIgnoresTerminal(t *testing.T) {
	s := newTestStore(t)

	if err := s.PutDetection(model.Detection{
		IssueKey: "octo/widgets#1",
		Assignee: "alice",
		State:    model.StateUnassigned,
	}); err != nil {
		t.Fatalf("PutDetection() error = %v", err)
	}

	if _, active := s.ActiveDetection("octo/widgets#1", "alice"); active {
		t.Error("ActiveDetection() on terminal record = true, want false")
	}
}

func TestListDetectionsFiltersByState(t *testing.T) {
	s := newTestStore(t)

	records := []model.Detection{
		{IssueKey: "octo/widgets#1", Assignee: "alice", State: model.StatePending},
		{IssueKey: "octo/widgets#2", Assignee: "bob", State: model.StateReminded},
		{IssueKey: "octo/widgets#3", Assignee: "carol", State: model.StateResolved},
	}
	for _, d := range records {
		if err := s.PutDetection(d); err != nil {
			t.Fatalf("PutDetection() error = %v", err)
		}
	}

	if got := len(s.ListDetections()); got != 3 {
		t.Errorf("ListDetections() returned %d, want 3", got)
	}
	if got := len(s.ListDetections(model.StatePending)); got != 1 {
		t.Errorf("ListDetections(pending) returned %d, want 1", got)
	}
	if got := len(s.ListDetections(model.StatePending, model.StateReminded)); got != 2 {
		t.Errorf("ListDetections(pending, reminded) returned %d, want 2", got)
	}
}

func TestStatePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")

	s, err := NewStoreWithPath(path)
	if err != nil {
		t.Fatalf("NewStoreWithPath() error = %v", err)
	}

	if err := s.UpsertActor(model.Actor{Handle: "alice", TrustScore: 62.5, Tag: model.TagActive}); err != nil {
		t.Fatalf("UpsertActor() error = %v", err)
	}
	if err := s.UpsertIssue(model.TrackedIssue{Repo: "octo/widgets", Number: 7, State: model.IssueOpen}); err != nil {
		t.Fatalf("UpsertIssue() error = %v", err)
	}
	if err := s.PutDetection(model.Detection{IssueKey: "octo/widgets#7", Assignee: "alice", State: model.StatePending}); err != nil {
		t.Fatalf("PutDetection() error = %v", err)
	}

	reopened, err := NewStoreWithPath(path)
	if err != nil {
		t.Fatalf("reopen NewStoreWithPath() error = %v", err)
	}

	actor, ok := reopened.GetActor("alice")
	if !ok || actor.TrustScore != 62.5 {
		t.Errorf("GetActor() after reopen = %+v, %v", actor, ok)
	}
	if _, ok := reopened.GetIssue("octo/widgets#7"); !ok {
		t.Error("GetIssue() after reopen = false, want true")
	}
	if _, active := reopened.ActiveDetection("octo/widgets#7", "alice"); !active {
		t.Error("ActiveDetection() after reopen = false, want true")
	}
}

func TestLoadToleratesCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	if err := writeFile(path, "{not json"); err != nil {
		t.Fatalf("writeFile() error = %v", err)
	}

	s, err := NewStoreWithPath(path)
	if err != nil {
		t.Fatalf("NewStoreWithPath() on corrupt file error = %v", err)
	}

	// Store starts fresh and stays usable.
	if _, err := s.InsertEvent(model.ActivityEvent{SourceID: "ev-1", Kind: model.KindPush, OccurredAt: time.Now()}); err != nil {
		t.Errorf("InsertEvent() after corrupt load error = %v", err)
	}
}
