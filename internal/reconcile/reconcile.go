// package reconcile diffs the planned playlist roster against the remote
// roster and applies the difference.
//
// Updates are additive for every slot kind except the all-time master
// genre slots, whose stale liked tracks are pruned through the guard.
// Month-to-year consolidation is strictly add-before-delete: a month
// playlist is only deleted after its year playlist provably holds every
// live track.
package reconcile

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/samber/lo"

	"curator/internal/catalog"
	"curator/internal/guard"
	"curator/internal/planner"
	"curator/internal/shared"
)

// Reconciler applies a plan to the remote platform. Stateless across
// runs; the remote view is fetched once by the caller and passed in.
type Reconciler struct {
	platform Platform
	guard    *guard.Guard
	logger   *log.Logger
}

// New creates a Reconciler. The logger may be nil.
func New(platform Platform, g *guard.Guard, logger *log.Logger) *Reconciler {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Reconciler{platform: platform, guard: g, logger: logger}
}

// Reconcile processes every planned slot sequentially, then executes the
// consolidation deletions. likedIDs scopes master-genre pruning: tracks
// outside the liked source are never removed, so manual curation
// survives. A single slot's failure never aborts the run.
func (r *Reconciler) Reconcile(ctx context.Context, plan *planner.Plan, likedIDs []catalog.TrackID, remote []RemotePlaylist) (*Report, error) {
	report := &Report{}
	for _, skipped := range plan.Skipped {
		report.SkippedKinds = append(report.SkippedKinds, SkippedKind{Kind: skipped.Kind.String(), Reason: skipped.Reason})
	}

	byName := make(map[string]RemotePlaylist, len(remote))
	for _, pl := range remote {
		byName[pl.Name] = pl
	}

	liked := lo.SliceToMap(likedIDs, func(id catalog.TrackID) (catalog.TrackID, bool) { return id, true })

	// yearReady tracks which yearly playlists finished their adds, gating
	// the delete side of consolidation.
	yearReady := make(map[string]bool)
	yearTargets := make(map[string][]catalog.TrackID)

	for _, slot := range plan.Slots {
		result := r.reconcileSlot(ctx, slot, byName, liked, report)
		report.add(result)

		if slot.Span == planner.SpanYearly {
			yearTargets[slot.Name] = slot.Tracks
			switch result.Outcome {
			case OutcomeCreated, OutcomeUpdated, OutcomeUnchanged, OutcomeSkipped:
				yearReady[slot.Name] = true
			}
		}
	}

	for _, expired := range plan.Expired {
		remotePl, ok := byName[expired.Name]
		if !ok {
			// Already consolidated in an earlier run; nothing to delete.
			continue
		}
		result := r.consolidate(ctx, expired, remotePl, yearReady, yearTargets)
		if result.Outcome == OutcomeConsolidated {
			report.Mutations++
		}
		report.add(result)
	}

	return report, nil
}

// reconcileSlot drives one slot from its current remote state to its
// target membership.
func (r *Reconciler) reconcileSlot(ctx context.Context, slot planner.Slot, byName map[string]RemotePlaylist, liked map[catalog.TrackID]bool, report *Report) SlotResult {
	result := SlotResult{Name: slot.Name, Kind: slot.Kind.String(), Span: slot.Span.String()}

	existing, exists := byName[slot.Name]
	if !exists {
		if len(slot.Tracks) == 0 {
			// No remote playlist and nothing to put in it.
			result.Outcome = OutcomeSkipped
			result.Detail = "empty"
			return result
		}
		return r.createSlot(ctx, slot, result, report)
	}

	existingSet := lo.SliceToMap(existing.TrackIDs, func(id catalog.TrackID) (catalog.TrackID, bool) { return id, true })
	missing := lo.Filter(slot.Tracks, func(id catalog.TrackID, _ int) bool { return !existingSet[id] })

	removed := 0
	if slot.Master() {
		// Prune must finish (or abort) before this playlist's adds so a
		// track is never re-added in the pass that removed it.
		targetSet := lo.SliceToMap(slot.Tracks, func(id catalog.TrackID) (catalog.TrackID, bool) { return id, true })
		stale := lo.Filter(existing.TrackIDs, func(id catalog.TrackID, _ int) bool {
			return liked[id] && !targetSet[id]
		})
		if len(stale) > 0 {
			res, err := r.guard.RemoveTracks(ctx, guard.Playlist{ID: existing.ID, Name: existing.Name}, stale, "stale genre membership")
			if err != nil {
				result.Outcome = OutcomeFailed
				result.Detail = err.Error()
				return result
			}
			// Counted only once the guard committed a write; a prune that
			// failed before touching the playlist is not a mutation.
			report.Mutations++
			if res == guard.PartialFailure {
				result.Detail = "partial failure during prune"
			}
			removed = len(stale)
		}
	}

	if len(missing) > 0 {
		if err := r.platform.AddTracks(ctx, existing.ID, missing); err != nil {
			r.logger.Error("failed to add tracks", "playlist", slot.Name, "err", err)
			result.Outcome = OutcomeFailed
			result.Detail = fmt.Sprintf("adding %d tracks: %v", len(missing), err)
			return result
		}
		report.Mutations++
	}

	result.Added = len(missing)
	result.Removed = removed
	if len(missing) == 0 && removed == 0 {
		result.Outcome = OutcomeUnchanged
	} else {
		result.Outcome = OutcomeUpdated
	}
	return result
}

// createSlot creates the remote playlist and populates the full target
// membership.
func (r *Reconciler) createSlot(ctx context.Context, slot planner.Slot, result SlotResult, report *Report) SlotResult {
	id, err := r.platform.CreatePlaylist(ctx, slot.Name, slot.Description)
	if err != nil {
		r.logger.Error("failed to create playlist", "playlist", slot.Name, "err", err)
		result.Outcome = OutcomeFailed
		result.Detail = fmt.Sprintf("creating playlist: %v", err)
		return result
	}
	report.Mutations++

	if err := r.platform.AddTracks(ctx, id, slot.Tracks); err != nil {
		r.logger.Error("failed to populate playlist", "playlist", slot.Name, "err", err)
		result.Outcome = OutcomeFailed
		result.Detail = fmt.Sprintf("populating playlist: %v", err)
		return result
	}
	report.Mutations++

	result.Outcome = OutcomeCreated
	result.Added = len(slot.Tracks)
	return result
}

// consolidate deletes one aged-out month playlist through the guard,
// verifying against the just-computed year membership. Runs only after
// the year slots were processed.
func (r *Reconciler) consolidate(ctx context.Context, expired planner.ExpiredSlot, remotePl RemotePlaylist, yearReady map[string]bool, yearTargets map[string][]catalog.TrackID) SlotResult {
	result := SlotResult{Name: expired.Name, Kind: expired.Kind.String(), Span: planner.SpanMonthly.String()}

	if !yearReady[expired.YearName] {
		result.Outcome = OutcomeSkipped
		result.Detail = fmt.Sprintf("year playlist %s not updated", expired.YearName)
		return result
	}

	res, err := r.guard.Delete(ctx, guard.Playlist{ID: remotePl.ID, Name: remotePl.Name}, yearTargets[expired.YearName], "monthly consolidation")
	if err != nil {
		r.logger.Error("consolidation delete failed", "playlist", expired.Name, "err", err)
		result.Outcome = OutcomeFailed
		result.Detail = err.Error()
		return result
	}

	switch res {
	case guard.Committed:
		result.Outcome = OutcomeConsolidated
		result.Detail = fmt.Sprintf("into %s", expired.YearName)
	case guard.VerificationFailed:
		result.Outcome = OutcomeAborted
		result.Detail = "VerificationFailed"
	default:
		result.Outcome = OutcomeFailed
		result.Detail = res.String()
	}
	return result
}
