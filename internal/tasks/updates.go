package tasks

import (
	"fmt"

	"curator/internal/planner"
	"curator/internal/reconcile"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	LoadSnapshot Phase = iota
	FetchLiked
	FetchRemote
	ComputePlan
	ReconcileSlots
	Consolidate
	Done
)

func (p Phase) String() string {
	switch p {
	case LoadSnapshot:
		return "load_snapshot"
	case FetchLiked:
		return "fetch_liked"
	case FetchRemote:
		return "fetch_remote"
	case ComputePlan:
		return "compute_plan"
	case ReconcileSlots:
		return "reconcile_slots"
	case Consolidate:
		return "consolidate"
	case Done:
		return "done"
	default:
		return ""
	}
}

func loadSnapshotUpdate(step, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   LoadSnapshot,
		Step:    step,
		Total:   total,
		Message: "Loading library snapshot...",
	}
}

func fetchLikedUpdate(step, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchLiked,
		Step:    step,
		Total:   total,
		Message: "Fetching liked songs from Spotify...",
	}
}

func likedFetchedUpdate(step, total, count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchLiked,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Fetched %d liked songs", count),
	}
}

func fetchRemoteUpdate(step, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchRemote,
		Step:    step,
		Total:   total,
		Message: "Listing playlists on Spotify...",
	}
}

func remoteFetchedUpdate(step, total, count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchRemote,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Found %d playlists", count),
	}
}

func computePlanUpdate(step, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ComputePlan,
		Step:    step,
		Total:   total,
		Message: "Computing playlist plan...",
	}
}

func planComputedUpdate(step, total int, plan *planner.Plan) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ComputePlan,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Planned %d playlists (%d expired)", len(plan.Slots), len(plan.Expired)),
		Data:    plan,
	}
}

func reconcileUpdate(step, total int, name string) ProgressUpdate {
	if name == "" {
		return ProgressUpdate{
			Phase:   ReconcileSlots,
			Step:    step,
			Total:   total,
			Message: "Reconciling playlists...",
		}
	}
	return ProgressUpdate{
		Phase:   ReconcileSlots,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s", step, total, name),
	}
}

func doneUpdate(report *reconcile.Report) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Done,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Sync complete (%d mutations)", report.Mutations),
		Data:    report,
	}
}
