package output

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/spiffcs/claimwatch/internal/model"
	"github.com/spiffcs/claimwatch/internal/reconcile"
)

// TableFormatter formats output as a terminal table
type TableFormatter struct{}

// FormatDetections outputs detections as a table, most recently updated
// first.
func (f *TableFormatter) FormatDetections(detections []model.Detection, w io.Writer) error {
	if len(detections) == 0 {
		fmt.Fprintln(w, "No detections found.")
		return nil
	}

	sorted := make([]model.Detection, len(detections))
	copy(sorted, detections)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].UpdatedAt.After(sorted[j].UpdatedAt)
	})

	const (
		colState    = 10
		colIssue    = 30
		colAssignee = 18
		colInactive = 8
		colScore    = 6
	)

	fmt.Fprintf(w, "%-*s  %-*s  %-*s  %-*s  %-*s  %s\n",
		colState, "State",
		colIssue, "Issue",
		colAssignee, "Assignee",
		colInactive, "Inactive",
		colScore, "Score",
		"Updated")
	fmt.Fprintln(w, strings.Repeat("-", colState+colIssue+colAssignee+colInactive+colScore+20))

	for _, d := range sorted {
		stateStr := colorState(d.State)
		// Pad manually: the ANSI codes would break %-*s alignment.
		stateStr += strings.Repeat(" ", max(0, colState-len(d.State)))

		issue := truncate(d.IssueKey, colIssue)
		assignee := truncate(d.Assignee, colAssignee)

		flag := ""
		if d.ActionFailed {
			flag = " " + color.RedString("[action failing]")
		}

		fmt.Fprintf(w, "%s  %-*s  %-*s  %-*s  %-*.1f  %s%s\n",
			stateStr,
			colIssue, issue,
			colAssignee, assignee,
			colInactive, fmt.Sprintf("%dd", d.DaysInactive),
			colScore, d.ScoreAtDetection,
			formatAge(time.Since(d.UpdatedAt)),
			flag,
		)
	}

	printFooterSummary(sorted, w)
	return nil
}

// FormatActors outputs the trust feed as a table, highest score first.
func (f *TableFormatter) FormatActors(actors []model.Actor, w io.Writer) error {
	if len(actors) == 0 {
		fmt.Fprintln(w, "No contributors scored yet.")
		return nil
	}

	sorted := make([]model.Actor, len(actors))
	copy(sorted, actors)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].TrustScore > sorted[j].TrustScore
	})

	const (
		colHandle = 20
		colScore  = 6
		colTag    = 16
	)

	fmt.Fprintf(w, "%-*s  %-*s  %-*s  %s\n",
		colHandle, "Contributor",
		colScore, "Score",
		colTag, "Tag",
		"Last activity")
	fmt.Fprintln(w, strings.Repeat("-", colHandle+colScore+colTag+18))

	for _, a := range sorted {
		tagStr := colorTag(a.Tag)
		tagStr += strings.Repeat(" ", max(0, colTag-len(a.Tag)))

		lastActivity := "never"
		if a.LastActivityAt != nil {
			lastActivity = formatAge(time.Since(*a.LastActivityAt)) + " ago"
		}

		fmt.Fprintf(w, "%-*s  %-*.1f  %s  %s\n",
			colHandle, truncate(a.Handle, colHandle),
			colScore, a.TrustScore,
			tagStr,
			lastActivity,
		)
	}

	return nil
}

// FormatReport outputs a reconciliation report summary
func (f *TableFormatter) FormatReport(report reconcile.Report, w io.Writer) error {
	fmt.Fprintf(w, "Scanned %d issues across %d repositories (%d assignees checked)\n",
		report.IssuesScanned, report.Repos, report.AssigneesChecked)

	if report.NewDetections > 0 {
		fmt.Fprintf(w, "  %s %d new stale claims detected\n", color.YellowString("●"), report.NewDetections)
	}
	if report.RemindersSent > 0 {
		fmt.Fprintf(w, "  %s %d reminders posted\n", color.CyanString("○"), report.RemindersSent)
	}
	if report.ClaimsReleased > 0 {
		fmt.Fprintf(w, "  %s %d claims released\n", color.RedString("●"), report.ClaimsReleased)
	}
	if report.Responded > 0 {
		fmt.Fprintf(w, "  %s %d assignees responded\n", color.GreenString("✓"), report.Responded)
	}
	if report.Resolved > 0 {
		fmt.Fprintf(w, "  ✓ %d detections resolved externally\n", report.Resolved)
	}
	if report.IssueErrors > 0 {
		fmt.Fprintf(w, "  %s %d issues failed and will retry next pass\n", color.RedString("!"), report.IssueErrors)
	}
	if report.NewDetections == 0 && report.RemindersSent == 0 && report.ClaimsReleased == 0 {
		fmt.Fprintln(w, "  All claims look active.")
	}

	return nil
}

// printFooterSummary prints actionable counts under the detection table
func printFooterSummary(detections []model.Detection, w io.Writer) {
	var pending, reminded, failing int
	for _, d := range detections {
		switch d.State {
		case model.StatePending:
			pending++
		case model.StateReminded:
			reminded++
		}
		if d.ActionFailed {
			failing++
		}
	}

	if pending == 0 && reminded == 0 && failing == 0 {
		return
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, strings.Repeat("━", 60))
	if pending > 0 {
		fmt.Fprintf(w, "  %s %d claims awaiting a reminder\n", color.YellowString("●"), pending)
	}
	if reminded > 0 {
		fmt.Fprintf(w, "  %s %d assignees in their grace period\n", color.CyanString("○"), reminded)
	}
	if failing > 0 {
		fmt.Fprintf(w, "  %s %d detections with repeatedly failing actions\n", color.RedString("!"), failing)
	}
}

func colorState(s model.DetectionState) string {
	switch s {
	case model.StatePending:
		return color.YellowString(string(s))
	case model.StateReminded:
		return color.CyanString(string(s))
	case model.StateResponded:
		return color.GreenString(string(s))
	case model.StateUnassigned:
		return color.RedString(string(s))
	default:
		return color.WhiteString(string(s))
	}
}

func colorTag(t model.TrustTag) string {
	switch t {
	case model.TagReliable:
		return color.GreenString(string(t))
	case model.TagActive:
		return color.CyanString(string(t))
	case model.TagNeedsFollowUp:
		return color.YellowString(string(t))
	case model.TagUnanalyzed:
		return color.HiBlackString(string(t))
	default:
		return color.WhiteString(string(t))
	}
}

func formatAge(d time.Duration) string {
	if d < time.Minute {
		return "just now"
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
	if d < 24*time.Hour {
		return fmt.Sprintf("%dh", int(d.Hours()))
	}
	days := int(d.Hours() / 24)
	if days < 7 {
		return fmt.Sprintf("%dd", days)
	}
	weeks := days / 7
	if weeks < 4 {
		return fmt.Sprintf("%dw", weeks)
	}
	months := days / 30
	return fmt.Sprintf("%dmo", months)
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
