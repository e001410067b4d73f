// package formatter renders plans, run reports, and backup records for terminal output.
package formatter

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"curator/internal/guard"
	"curator/internal/planner"
	"curator/internal/reconcile"
)

// PlanTable renders the computed plan as a table: one row per target
// playlist, followed by expired playlists due for consolidation.
func PlanTable(plan *planner.Plan) string {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Playlist", "Kind", "Span", "Tracks"})

	for _, slot := range plan.Slots {
		t.AppendRow(table.Row{slot.Name, slot.Kind.String(), slot.Span.String(), len(slot.Tracks)})
	}

	var buf bytes.Buffer
	buf.WriteString(fmt.Sprintf("Plan as of %s\n\n", plan.AsOf.String()))
	buf.WriteString(t.Render())
	buf.WriteString("\n")

	if len(plan.Expired) > 0 {
		buf.WriteString("\nExpired (to consolidate):\n")
		for _, expired := range plan.Expired {
			buf.WriteString(fmt.Sprintf("  %s → %s\n", expired.Name, expired.YearName))
		}
	}

	for _, skipped := range plan.Skipped {
		buf.WriteString(fmt.Sprintf("\nSkipped %s: %s\n", skipped.Kind.String(), skipped.Reason))
	}

	return buf.String()
}

// ReportTable renders a reconciliation report as a table with colored
// outcomes, followed by summary counts.
func ReportTable(report *reconcile.Report) string {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Playlist", "Kind", "Outcome", "Added", "Removed"})

	for _, result := range report.Results {
		colorFunc := outcomeColorFunc(result.Outcome)
		t.AppendRow(table.Row{
			result.Name,
			result.Kind,
			colorFunc(result.Label()),
			result.Added,
			result.Removed,
		})
	}

	var buf bytes.Buffer
	buf.WriteString(t.Render())
	buf.WriteString("\n\n")
	buf.WriteString(summaryLine(report))
	buf.WriteString("\n")

	for _, skipped := range report.SkippedKinds {
		buf.WriteString(fmt.Sprintf("Skipped %s: %s\n", skipped.Kind, skipped.Reason))
	}

	return buf.String()
}

// BackupsTable renders a list of backup records, newest first.
func BackupsTable(records []guard.Record) string {
	if len(records) == 0 {
		return "No backups recorded\n"
	}

	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"ID", "Playlist", "Tracks", "Reason", "Created"})

	for _, record := range records {
		t.AppendRow(table.Row{
			record.ID,
			record.PlaylistName,
			len(record.TrackIDs),
			record.Reason,
			record.CreatedAt.Format(time.RFC3339),
		})
	}

	return t.Render() + "\n"
}

// BackupDetail renders a single backup record with its full track listing.
func BackupDetail(record *guard.Record) string {
	var buf bytes.Buffer
	buf.WriteString(fmt.Sprintf("Backup: %s\n", record.ID))
	buf.WriteString(fmt.Sprintf("Playlist: %s (%s)\n", record.PlaylistName, record.PlaylistID))
	buf.WriteString(fmt.Sprintf("Reason: %s\n", record.Reason))
	buf.WriteString(fmt.Sprintf("Created: %s\n", record.CreatedAt.Format(time.RFC3339)))
	buf.WriteString(fmt.Sprintf("Tracks: %d\n\n", len(record.TrackIDs)))

	for i, id := range record.TrackIDs {
		buf.WriteString(fmt.Sprintf("%d. %s\n", i+1, id))
	}

	return buf.String()
}

func summaryLine(report *reconcile.Report) string {
	counts := report.Counts()
	parts := make([]string, 0, len(counts))
	for _, outcome := range []reconcile.Outcome{
		reconcile.OutcomeCreated,
		reconcile.OutcomeUpdated,
		reconcile.OutcomeUnchanged,
		reconcile.OutcomeConsolidated,
		reconcile.OutcomeSkipped,
		reconcile.OutcomeAborted,
		reconcile.OutcomeFailed,
	} {
		if n := counts[outcome]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, outcome))
		}
	}
	if len(parts) == 0 {
		return "Nothing to do"
	}
	return strings.Join(parts, ", ") + fmt.Sprintf(" (%d mutations)", report.Mutations)
}

func outcomeColorFunc(outcome reconcile.Outcome) func(a ...interface{}) string {
	switch outcome {
	case reconcile.OutcomeCreated, reconcile.OutcomeConsolidated:
		return text.FgGreen.Sprint
	case reconcile.OutcomeUpdated:
		return text.FgCyan.Sprint
	case reconcile.OutcomeUnchanged, reconcile.OutcomeSkipped:
		return text.FgHiBlack.Sprint
	case reconcile.OutcomeAborted, reconcile.OutcomeFailed:
		return text.FgHiRed.Sprint
	default:
		return text.FgYellow.Sprint
	}
}
