// Package reconcile drives the periodic reconciliation pass: refresh
// tracked issues, ingest assignee activity, score trust, detect stale
// claims and apply escalation decisions. State is written only after
// the corresponding tracker action is confirmed, so a crash mid-pass
// re-observes and re-derives rather than trusting half-written state.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/spiffcs/claimwatch/config"
	"github.com/spiffcs/claimwatch/internal/claim"
	"github.com/spiffcs/claimwatch/internal/engine"
	"github.com/spiffcs/claimwatch/internal/executor"
	gh "github.com/spiffcs/claimwatch/internal/github"
	"github.com/spiffcs/claimwatch/internal/log"
	"github.com/spiffcs/claimwatch/internal/model"
	"github.com/spiffcs/claimwatch/internal/quality"
	"github.com/spiffcs/claimwatch/internal/signal"
	"github.com/spiffcs/claimwatch/internal/store"
	"github.com/spiffcs/claimwatch/internal/trust"
)

// Report summarizes one reconciliation pass.
type Report struct {
	Repos            int
	IssuesScanned    int
	AssigneesChecked int
	NewDetections    int
	RemindersSent    int
	ClaimsReleased   int
	Responded        int
	Resolved         int
	IssueErrors      int
}

func (r *Report) merge(other Report) {
	r.Repos += other.Repos
	r.IssuesScanned += other.IssuesScanned
	r.AssigneesChecked += other.AssigneesChecked
	r.NewDetections += other.NewDetections
	r.RemindersSent += other.RemindersSent
	r.ClaimsReleased += other.ClaimsReleased
	r.Responded += other.Responded
	r.Resolved += other.Resolved
	r.IssueErrors += other.IssueErrors
}

// Reconciler owns one reconciliation pipeline over a set of repositories.
type Reconciler struct {
	repos    []string
	settings config.WatchSettings

	tracker   gh.Tracker
	store     *store.Store
	detector  *claim.Detector
	extractor *signal.Extractor
	trust     *trust.Engine
	engine    *engine.Engine
	executor  *executor.Executor
	analyzer  quality.Analyzer

	// now is swappable for tests.
	now func() time.Time

	// keyMu guards keyLocks; each detection key gets its own lock so
	// concurrent issue workers never race on the same (issue, assignee)
	// pair.
	keyMu    sync.Mutex
	keyLocks map[string]*sync.Mutex
}

// NewReconciler wires the pipeline from configuration. analyzer may be
// nil; trust scoring then uses neutral sub-scores.
func NewReconciler(cfg *config.Config, tracker gh.Tracker, st *store.Store, analyzer quality.Analyzer) (*Reconciler, error) {
	detector, err := claim.NewDetector(cfg.GetClaimPatterns())
	if err != nil {
		return nil, err
	}

	settings := cfg.GetWatchSettings()
	weights := cfg.GetScoreWeights()

	return &Reconciler{
		repos:     cfg.Repos,
		settings:  settings,
		tracker:   tracker,
		store:     st,
		detector:  detector,
		extractor: signal.NewExtractor(settings.RecencyDays, settings.EventScoreLimit),
		trust:     trust.NewEngine(weights),
		engine:    engine.NewEngine(settings),
		executor:  executor.NewExecutor(tracker, cfg.GetReminderTemplate(), cfg.GetReleaseTemplate()),
		analyzer:  analyzer,
		now:       time.Now,
		keyLocks:  make(map[string]*sync.Mutex),
	}, nil
}

// Run executes reconciliation passes on the configured cadence until the
// context is canceled. The first pass starts immediately.
func (r *Reconciler) Run(ctx context.Context) error {
	interval := time.Duration(r.settings.IntervalHours) * time.Hour

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		report, err := r.RunAll(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			log.Error("reconciliation pass failed", "error", err)
		} else {
			log.Info("reconciliation pass complete",
				"issues", report.IssuesScanned,
				"reminders", report.RemindersSent,
				"released", report.ClaimsReleased,
				"errors", report.IssueErrors)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// RunAll reconciles every configured repository sequentially. Issues
// within a repository are processed concurrently.
func (r *Reconciler) RunAll(ctx context.Context) (*Report, error) {
	if len(r.repos) == 0 {
		return nil, fmt.Errorf("no repositories configured, add repos to your config or pass --repo")
	}

	total := &Report{}
	for _, repo := range r.repos {
		report, err := r.RunOnce(ctx, repo)
		if err != nil {
			return total, err
		}
		total.merge(*report)
	}
	return total, nil
}

// RunOnce reconciles a single repository. Failures on one issue are
// logged and counted but never stop the others; only rate limiting and
// context cancellation abort the pass.
func (r *Reconciler) RunOnce(ctx context.Context, repo string) (*Report, error) {
	log.Debug("reconciling repository", "repo", repo)

	issues, err := r.tracker.ListAssignedOpenIssues(ctx, repo)
	if err != nil {
		return nil, fmt.Errorf("failed to list issues for %s: %w", repo, err)
	}

	report := &Report{Repos: 1, IssuesScanned: len(issues)}

	// The listing only covers open issues with their current assignees;
	// detections whose pair is absent from it are swept afterwards.
	visited := make(map[string]struct{})
	for _, issue := range issues {
		for _, assignee := range issue.Assignees {
			visited[issue.Key()+":"+assignee] = struct{}{}
		}
	}

	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.settings.Workers)

	for _, issue := range issues {
		g.Go(func() error {
			sub, err := r.reconcileIssue(gctx, issue)
			if err != nil {
				if errors.Is(err, gh.ErrRateLimited) || errors.Is(err, context.Canceled) {
					return err
				}
				log.Warn("issue reconciliation failed", "issue", issue.Key(), "error", err)
				mu.Lock()
				report.IssueErrors++
				mu.Unlock()
				return nil
			}
			mu.Lock()
			report.merge(sub)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return report, err
	}

	if err := r.sweepUnlistedDetections(ctx, repo, visited, report); err != nil {
		return report, err
	}
	return report, nil
}

// sweepUnlistedDetections visits every non-terminal detection in the
// repository whose (issue, assignee) pair the open-issue listing no
// longer covers. An issue closed or deleted externally, or handed to a
// different assignee, drops out of the listing, so its detection would
// otherwise never resolve.
func (r *Reconciler) sweepUnlistedDetections(ctx context.Context, repo string, visited map[string]struct{}, report *Report) error {
	for _, detection := range r.store.ListDetections() {
		if detection.Repo != repo || detection.State.Terminal() {
			continue
		}
		if _, ok := visited[detection.Key()]; ok {
			continue
		}

		issue, err := r.tracker.GetIssue(ctx, detection.Repo, detection.IssueNumber)
		if err != nil && !errors.Is(err, gh.ErrNotFound) {
			if errors.Is(err, gh.ErrRateLimited) || errors.Is(err, context.Canceled) {
				return err
			}
			log.Warn("sweep re-check failed", "detection", detection.Key(), "error", err)
			report.IssueErrors++
			continue
		}

		var obs engine.Observation
		var live model.TrackedIssue
		if issue != nil {
			live = *issue
			obs = engine.Observation{
				IssueOpen:     issue.State == model.IssueOpen,
				StillAssigned: issue.HasAssignee(detection.Assignee),
			}
		}
		if obs.IssueOpen && obs.StillAssigned {
			// Listing lag; the pair will be picked up normally next pass.
			continue
		}

		// The actor is not re-scored here; resolution posts nothing.
		sub, err := r.apply(ctx, detection, live, obs, detection.ScoreAtDetection, model.TagUnanalyzed)
		if err != nil {
			log.Warn("sweep resolution failed", "detection", detection.Key(), "error", err)
			report.IssueErrors++
			continue
		}
		report.merge(sub)
	}
	return nil
}

// reconcileIssue runs the full pipeline for one tracked issue.
func (r *Reconciler) reconcileIssue(ctx context.Context, issue model.TrackedIssue) (Report, error) {
	var report Report

	if err := r.store.UpsertIssue(issue); err != nil {
		return report, err
	}

	comments, err := r.tracker.ListIssueComments(ctx, issue.Repo, issue.Number)
	if err != nil {
		return report, err
	}

	r.recordClaimEvidence(issue, comments)

	for _, assignee := range issue.Assignees {
		report.AssigneesChecked++

		sub, err := r.reconcileAssignee(ctx, issue, assignee, comments)
		if err != nil {
			return report, err
		}
		report.merge(sub)
	}

	return report, nil
}

// recordClaimEvidence scans comments for claim language. Evidence is
// append-only and feeds detection context; it never triggers escalation
// by itself.
func (r *Reconciler) recordClaimEvidence(issue model.TrackedIssue, comments []model.Comment) {
	for _, comment := range comments {
		patternIDs := r.detector.Detect(comment.Body)
		if len(patternIDs) == 0 {
			continue
		}

		inserted, err := r.store.InsertEvidence(model.ClaimEvidence{
			IssueKey:   issue.Key(),
			Actor:      comment.Author,
			CommentID:  comment.ID,
			PatternIDs: patternIDs,
			MatchedAt:  comment.CreatedAt,
		})
		if err != nil {
			log.Warn("failed to record claim evidence", "issue", issue.Key(), "comment", comment.ID, "error", err)
			continue
		}
		if inserted {
			log.Debug("claim language detected", "issue", issue.Key(), "actor", comment.Author, "patterns", patternIDs)
		}
	}
}

// reconcileAssignee ingests activity, refreshes the trust score and
// advances the detection state machine for one (issue, assignee) pair.
func (r *Reconciler) reconcileAssignee(ctx context.Context, issue model.TrackedIssue, assignee string, comments []model.Comment) (Report, error) {
	var report Report
	now := r.now()

	events, err := r.tracker.ListUserEvents(ctx, assignee, r.settings.EventFetchLimit)
	if err != nil {
		return report, err
	}

	for _, event := range events {
		if _, err := r.store.InsertEvent(event); err != nil {
			return report, err
		}
	}

	signals := r.extractor.Extract(events, now)
	score, tag := r.scoreActor(ctx, assignee, signals, comments, now)

	if err := r.store.UpsertActor(model.Actor{
		Handle:         assignee,
		TrustScore:     score,
		Tag:            tag,
		LastActivityAt: signals.LastActivityAt,
		EventCounts:    signals.Counts,
		LastCheckedAt:  now,
	}); err != nil {
		return report, err
	}

	lastActivity := lastAssigneeActivity(assignee, signals.LastActivityAt, comments)
	daysInactive := daysSince(lastActivity, now)

	detection, active := r.store.ActiveDetection(issue.Key(), assignee)
	if !active {
		if daysInactive < r.settings.InactiveDays || issue.State != model.IssueOpen {
			return report, nil
		}

		detection = model.Detection{
			IssueKey:         issue.Key(),
			IssueID:          issue.IssueID,
			Repo:             issue.Repo,
			IssueNumber:      issue.Number,
			Assignee:         assignee,
			State:            model.StatePending,
			DaysInactive:     daysInactive,
			ScoreAtDetection: score,
			CreatedAt:        now,
			UpdatedAt:        now,
		}
		if err := r.putDetection(detection); err != nil {
			return report, err
		}
		report.NewDetections++
		log.Info("stale claim detected", "issue", issue.Key(), "assignee", assignee, "daysInactive", daysInactive, "score", score)
	} else {
		detection.DaysInactive = daysInactive
	}

	obs := engine.Observation{
		IssueOpen:            issue.State == model.IssueOpen,
		StillAssigned:        issue.HasAssignee(assignee),
		LastAssigneeActivity: lastActivity,
	}

	// A freshly created pending detection is evaluated in the same pass,
	// so the reminder goes out without waiting a full interval.
	sub, err := r.apply(ctx, detection, issue, obs, score, tag)
	report.merge(sub)
	return report, err
}

// scoreActor runs trust scoring, consulting the quality analyzer when
// one is configured. Analyzer failures degrade to neutral sub-scores.
func (r *Reconciler) scoreActor(ctx context.Context, handle string, signals signal.Signals, comments []model.Comment, now time.Time) (float64, model.TrustTag) {
	var analysis *quality.Analysis

	if r.analyzer != nil {
		var own []model.Comment
		for _, c := range comments {
			if c.Author == handle {
				own = append(own, c)
			}
		}

		a, err := r.analyzer.Analyze(ctx, quality.Payload{
			Handle:       handle,
			Comments:     own,
			EventCounts:  signals.Counts,
			DaysInactive: signals.DaysInactive(now),
		})
		if err != nil {
			log.Warn("quality analysis failed, using neutral scores", "handle", handle, "error", err)
		} else {
			analysis = a
		}
	}

	return r.trust.Score(signals, analysis)
}

// apply executes the escalation decision for a detection. The tracker
// action must succeed before the state change is written; failures bump
// the failure counter and leave the state untouched for retry.
func (r *Reconciler) apply(ctx context.Context, detection model.Detection, issue model.TrackedIssue, obs engine.Observation, score float64, tag model.TrustTag) (Report, error) {
	var report Report

	unlock := r.lockKey(detection.Key())
	defer unlock()

	now := r.now()
	decision := r.engine.Evaluate(detection, obs, now)
	if !decision.Advance {
		// Persist refreshed inactivity bookkeeping even when nothing moves.
		detection.UpdatedAt = now
		return report, r.putDetection(detection)
	}

	mc := executor.MessageContext{
		Title:     issue.Title,
		GraceDays: r.settings.GraceDays,
		TrustTag:  tag,
	}

	next := decision.Next

	switch decision.Action {
	case engine.ActionRemind:
		commentID, err := r.executor.PostReminder(ctx, detection, mc)
		if err != nil {
			if errors.Is(err, gh.ErrNotFound) {
				// The issue vanished between listing and posting. Nothing
				// is left to remind; the incident is over.
				log.Debug("issue gone before reminder, resolving", "detection", detection.Key())
				next = model.StateResolved
				break
			}
			r.engine.RecordFailure(&detection, now)
			log.Warn("reminder failed", "detection", detection.Key(), "failures", detection.ActionFailures, "error", err)
			if putErr := r.putDetection(detection); putErr != nil {
				return report, putErr
			}
			return report, err
		}
		detection.ReminderCommentID = commentID
		detection.ReminderSentAt = &now
		detection.ScoreAtDetection = score
		report.RemindersSent++

	case engine.ActionRelease:
		removed, err := r.executor.ReleaseClaim(ctx, detection, mc)
		if err != nil {
			r.engine.RecordFailure(&detection, now)
			log.Warn("claim release failed", "detection", detection.Key(), "failures", detection.ActionFailures, "error", err)
			if putErr := r.putDetection(detection); putErr != nil {
				return report, putErr
			}
			return report, err
		}
		if !removed {
			// The live re-check found nothing to release: the issue was
			// closed, deleted or reassigned since it was listed. No claim
			// was taken away, so the detection resolves instead.
			log.Debug("nothing to release, resolving", "detection", detection.Key())
			next = model.StateResolved
			break
		}
		detection.UnassignedAt = &now
		report.ClaimsReleased++
	}

	switch next {
	case model.StateResponded:
		detection.RespondedAt = &now
		report.Responded++
	case model.StateResolved:
		detection.ResolvedAt = &now
		report.Resolved++
	}

	detection.State = next
	r.engine.RecordSuccess(&detection, now)

	log.Info("detection advanced", "detection", detection.Key(), "state", detection.State)
	return report, r.putDetection(detection)
}

func (r *Reconciler) putDetection(detection model.Detection) error {
	return r.store.PutDetection(detection)
}

// lockKey serializes work on a single detection key across workers.
func (r *Reconciler) lockKey(key string) func() {
	r.keyMu.Lock()
	l, ok := r.keyLocks[key]
	if !ok {
		l = &sync.Mutex{}
		r.keyLocks[key] = l
	}
	r.keyMu.Unlock()

	l.Lock()
	return l.Unlock
}

// lastAssigneeActivity picks the most recent activity relevant to the
// assignee: their public event stream or their latest comment on the
// issue.
func lastAssigneeActivity(assignee string, eventActivity *time.Time, comments []model.Comment) *time.Time {
	last := eventActivity
	for _, c := range comments {
		if c.Author != assignee || c.CreatedAt.IsZero() {
			continue
		}
		if last == nil || c.CreatedAt.After(*last) {
			t := c.CreatedAt
			last = &t
		}
	}
	return last
}

func daysSince(t *time.Time, now time.Time) int {
	if t == nil {
		// No activity ever observed reads as indefinitely inactive.
		return int(now.Sub(time.Time{}).Hours() / 24)
	}
	days := int(now.Sub(*t).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}
