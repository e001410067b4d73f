package formatter

import (
	"strings"
	"testing"
	"time"

	"curator/internal/catalog"
	"curator/internal/guard"
	"curator/internal/planner"
	"curator/internal/reconcile"
)

func TestPlanTable(t *testing.T) {
	plan := &planner.Plan{
		AsOf: planner.Month{Year: 2025, Mon: time.January},
		Slots: []planner.Slot{
			{Name: "AJFindsJan25", Kind: planner.KindFinds, Span: planner.SpanMonthly, Tracks: []catalog.TrackID{"a", "b"}},
		},
		Expired: []planner.ExpiredSlot{
			{Name: "AJFindsOct24", YearName: "AJFinds24", Kind: planner.KindFinds},
		},
		Skipped: []planner.SkippedKind{
			{Kind: planner.KindTop, Reason: "history unavailable"},
		},
	}

	out := PlanTable(plan)
	for _, want := range []string{"AJFindsJan25", "AJFindsOct24 → AJFinds24", "history unavailable"} {
		if !strings.Contains(out, want) {
			t.Errorf("PlanTable() missing %q:\n%s", want, out)
		}
	}
}

func TestReportTable(t *testing.T) {
	t.Run("summary counts", func(t *testing.T) {
		report := &reconcile.Report{
			Results: []reconcile.SlotResult{
				{Name: "AJFindsJan25", Kind: "finds", Outcome: reconcile.OutcomeCreated, Added: 2},
				{Name: "AJFindsDec24", Kind: "finds", Outcome: reconcile.OutcomeUnchanged},
				{Name: "AJFindsOct24", Kind: "finds", Outcome: reconcile.OutcomeConsolidated, Detail: "into AJFinds24"},
			},
			Mutations: 3,
		}

		out := ReportTable(report)
		for _, want := range []string{"AJFindsJan25", "1 created", "1 unchanged", "1 consolidated", "(3 mutations)"} {
			if !strings.Contains(out, want) {
				t.Errorf("ReportTable() missing %q:\n%s", want, out)
			}
		}
	})

	t.Run("empty report", func(t *testing.T) {
		out := ReportTable(&reconcile.Report{})
		if !strings.Contains(out, "Nothing to do") {
			t.Errorf("ReportTable() for empty report:\n%s", out)
		}
	})
}

func TestBackupsTable(t *testing.T) {
	if out := BackupsTable(nil); !strings.Contains(out, "No backups") {
		t.Errorf("BackupsTable(nil):\n%s", out)
	}

	records := []guard.Record{
		{
			ID:           "b1",
			PlaylistName: "AJFindsOct24",
			TrackIDs:     []catalog.TrackID{"a", "b"},
			Reason:       "monthly consolidation",
			CreatedAt:    time.Date(2025, time.January, 20, 10, 0, 0, 0, time.UTC),
		},
	}
	out := BackupsTable(records)
	for _, want := range []string{"b1", "AJFindsOct24", "monthly consolidation", "2025-01-20T10:00:00Z"} {
		if !strings.Contains(out, want) {
			t.Errorf("BackupsTable() missing %q:\n%s", want, out)
		}
	}
}

func TestBackupDetail(t *testing.T) {
	record := &guard.Record{
		ID:           "b1",
		PlaylistID:   "pl-1",
		PlaylistName: "AJFindsOct24",
		TrackIDs:     []catalog.TrackID{"a", "b"},
		Reason:       "monthly consolidation",
		CreatedAt:    time.Date(2025, time.January, 20, 10, 0, 0, 0, time.UTC),
	}

	out := BackupDetail(record)
	for _, want := range []string{"Backup: b1", "AJFindsOct24 (pl-1)", "Tracks: 2", "1. a", "2. b"} {
		if !strings.Contains(out, want) {
			t.Errorf("BackupDetail() missing %q:\n%s", want, out)
		}
	}
}
