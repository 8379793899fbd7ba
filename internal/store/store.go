// Package store persists claimwatch state as a single JSON document in
// the user cache directory. Writes are atomic (tmp file + rename) and
// the store is safe for concurrent use.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/spiffcs/claimwatch/internal/log"
	"github.com/spiffcs/claimwatch/internal/model"
)

// state is the on-disk document. Every collection is keyed by the
// identity that makes its writes idempotent.
type state struct {
	Actors     map[string]model.Actor         `json:"actors"`     // by handle
	Events     map[string]model.ActivityEvent `json:"events"`     // by sourceId
	Issues     map[string]model.TrackedIssue  `json:"issues"`     // by repo#number
	Detections map[string]model.Detection     `json:"detections"` // by repo#number:assignee
	Evidence   map[string]model.ClaimEvidence `json:"evidence"`   // by commentId
}

func newState() state {
	return state{
		Actors:     make(map[string]model.Actor),
		Events:     make(map[string]model.ActivityEvent),
		Issues:     make(map[string]model.TrackedIssue),
		Detections: make(map[string]model.Detection),
		Evidence:   make(map[string]model.ClaimEvidence),
	}
}

// Store manages persistence of claimwatch state
type Store struct {
	path string
	mu   sync.RWMutex
	data state
}

// NewStore creates a store at ~/.cache/claimwatch/state.json.
func NewStore() (*Store, error) {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return nil, err
	}

	dir := filepath.Join(cacheDir, "claimwatch")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	return NewStoreWithPath(filepath.Join(dir, "state.json"))
}

// NewStoreWithPath creates a store at the given path (for testing).
func NewStoreWithPath(path string) (*Store, error) {
	s := &Store{
		path: path,
		data: newState(),
	}

	if err := s.load(); err != nil {
		log.Debug("could not load state store, starting fresh", "error", err)
	}

	return s, nil
}

// load reads the state from disk
func (s *Store) load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	var loaded state
	if err := json.Unmarshal(data, &loaded); err != nil {
		return err
	}

	// A hand-edited or truncated file may be missing collections.
	if loaded.Actors == nil {
		loaded.Actors = make(map[string]model.Actor)
	}
	if loaded.Events == nil {
		loaded.Events = make(map[string]model.ActivityEvent)
	}
	if loaded.Issues == nil {
		loaded.Issues = make(map[string]model.TrackedIssue)
	}
	if loaded.Detections == nil {
		loaded.Detections = make(map[string]model.Detection)
	}
	if loaded.Evidence == nil {
		loaded.Evidence = make(map[string]model.ClaimEvidence)
	}

	s.data = loaded
	return nil
}

// save writes the state to disk atomically.
func (s *Store) save() error {
	data, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return err
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

// UpsertActor stores an actor record. The trust engine is the only
// expected writer; actors are never deleted.
func (s *Store) UpsertActor(actor model.Actor) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data.Actors[actor.Handle] = actor
	return s.save()
}

// GetActor returns an actor by handle.
func (s *Store) GetActor(handle string) (model.Actor, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	actor, ok := s.data.Actors[handle]
	return actor, ok
}

// ListActors returns all known actors.
func (s *Store) ListActors() []model.Actor {
	s.mu.RLock()
	defer s.mu.RUnlock()

	actors := make([]model.Actor, 0, len(s.data.Actors))
	for _, actor := range s.data.Actors {
		actors = append(actors, actor)
	}
	return actors
}

// InsertEvent stores an event if its sourceId has not been seen before.
// Returns true when the event was newly inserted, making re-ingestion
// idempotent.
func (s *Store) InsertEvent(event model.ActivityEvent) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data.Events[event.SourceID]; exists {
		return false, nil
	}

	s.data.Events[event.SourceID] = event
	return true, s.save()
}

// EventCount returns the number of stored events.
func (s *Store) EventCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.data.Events)
}

// UpsertIssue stores a tracked issue keyed by repo#number.
func (s *Store) UpsertIssue(issue model.TrackedIssue) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data.Issues[issue.Key()] = issue
	return s.save()
}

// GetIssue returns a tracked issue by key.
func (s *Store) GetIssue(key string) (model.TrackedIssue, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	issue, ok := s.data.Issues[key]
	return issue, ok
}

// InsertEvidence stores claim evidence if its comment id has not been
// seen before. Returns true when newly inserted.
func (s *Store) InsertEvidence(evidence model.ClaimEvidence) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strconv.FormatInt(evidence.CommentID, 10)
	if _, exists := s.data.Evidence[key]; exists {
		return false, nil
	}

	s.data.Evidence[key] = evidence
	return true, s.save()
}

// EvidenceForIssue returns all claim evidence recorded for an issue.
func (s *Store) EvidenceForIssue(issueKey string) []model.ClaimEvidence {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var evidence []model.ClaimEvidence
	for _, e := range s.data.Evidence {
		if e.IssueKey == issueKey {
			evidence = append(evidence, e)
		}
	}
	return evidence
}

// GetDetection returns a detection by its (issue, assignee) key.
func (s *Store) GetDetection(key string) (model.Detection, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	detection, ok := s.data.Detections[key]
	return detection, ok
}

// ActiveDetection returns the non-terminal detection for an (issue,
// assignee) pair, if one exists. The store holds at most one detection
// per pair; a terminal record is replaced when a new incident opens.
func (s *Store) ActiveDetection(issueKey, assignee string) (model.Detection, bool) {
	detection, ok := s.GetDetection(issueKey + ":" + assignee)
	if !ok || detection.Terminal() {
		return model.Detection{}, false
	}
	return detection, true
}

// PutDetection upserts a detection. When a record already exists for the
// key, the state change must follow the forward-only transition table;
// backward moves are rejected.
func (s *Store) PutDetection(detection model.Detection) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := detection.Key()
	if existing, ok := s.data.Detections[key]; ok {
		if existing.State != detection.State && !model.CanTransition(existing.State, detection.State) {
			// A terminal record may be replaced by a fresh pending
			// detection when inactivity recurs.
			if !(existing.Terminal() && detection.State == model.StatePending) {
				return fmt.Errorf("illegal detection transition %s -> %s for %s", existing.State, detection.State, key)
			}
		}
	}

	s.data.Detections[key] = detection
	return s.save()
}

// ListDetections returns detections, optionally filtered by state.
// An empty filter returns everything.
func (s *Store) ListDetections(states ...model.DetectionState) []model.Detection {
	s.mu.RLock()
	defer s.mu.RUnlock()

	filter := make(map[model.DetectionState]bool, len(states))
	for _, st := range states {
		filter[st] = true
	}

	var detections []model.Detection
	for _, d := range s.data.Detections {
		if len(filter) == 0 || filter[d.State] {
			detections = append(detections, d)
		}
	}
	return detections
}
