// package guard wraps every destructive playlist operation in a
// backup-verify-commit protocol.
//
// Nothing is removed or deleted without an append-only backup record of
// the playlist's live membership, and a delete only commits when every
// live track is provably present in the verification target. Verification
// failures abort the single operation and keep both sides intact; the run
// continues.
package guard

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/samber/lo"

	"curator/internal/catalog"
	"curator/internal/shared"
)

// Result is the terminal state of one guarded operation.
type Result int

const (
	// Committed: the destructive step ran and post-conditions held.
	Committed Result = iota
	// VerificationFailed: the pre-delete check found live tracks missing
	// from the verification target. Nothing was deleted.
	VerificationFailed
	// PartialFailure: the removal ran but the re-read membership did not
	// match expectations. The backup record is the recovery path.
	PartialFailure
)

func (r Result) String() string {
	switch r {
	case Committed:
		return "committed"
	case VerificationFailed:
		return "verification_failed"
	case PartialFailure:
		return "partial_failure"
	default:
		return ""
	}
}

// Platform is the narrow remote surface the guard needs.
type Platform interface {
	PlaylistTracks(ctx context.Context, playlistID string) ([]catalog.TrackID, error)
	RemoveTracks(ctx context.Context, playlistID string, tracks []catalog.TrackID) error
	DeletePlaylist(ctx context.Context, playlistID string) error
	CreatePlaylist(ctx context.Context, name, description string) (string, error)
	AddTracks(ctx context.Context, playlistID string, tracks []catalog.TrackID) error
}

// Record is one append-only backup entry, written before every guarded
// operation. It is the sole durable artifact the core requires for
// recovery.
type Record struct {
	ID           string
	PlaylistID   string
	PlaylistName string
	TrackIDs     []catalog.TrackID
	Reason       string
	CreatedAt    time.Time
}

// BackupStore persists backup records. Append-only; records are never
// updated or deleted by the guard.
type BackupStore interface {
	Append(record Record) error
	List(limit int) ([]Record, error)
	Get(id string) (*Record, error)
}

// Playlist identifies the remote playlist a guarded operation targets.
type Playlist struct {
	ID   string
	Name string
}

// Guard executes destructive operations under the backup-verify-commit
// protocol.
type Guard struct {
	platform Platform
	store    BackupStore
	logger   *log.Logger
}

// New creates a Guard. The logger may be nil.
func New(platform Platform, store BackupStore, logger *log.Logger) *Guard {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Guard{platform: platform, store: store, logger: logger}
}

// Delete deletes a playlist after verifying every live track is present in
// verifyAgainst. Returns VerificationFailed (and keeps the playlist)
// otherwise. The backup record is retained in both cases.
//
// Because the live membership and verification target are recomputed by
// the caller on every run, a run interrupted between a consolidation's
// add-step and delete-step needs no operator intervention: the next run's
// verification trivially passes and the delete proceeds.
func (g *Guard) Delete(ctx context.Context, playlist Playlist, verifyAgainst []catalog.TrackID, reason string) (Result, error) {
	live, err := g.platform.PlaylistTracks(ctx, playlist.ID)
	if err != nil {
		return VerificationFailed, fmt.Errorf("%w: reading playlist %q before delete: %v", shared.ErrAPIRequest, playlist.Name, err)
	}

	if err := g.backup(playlist, live, reason); err != nil {
		return VerificationFailed, err
	}

	target := lo.SliceToMap(verifyAgainst, func(id catalog.TrackID) (catalog.TrackID, bool) { return id, true })
	missing := lo.Filter(live, func(id catalog.TrackID, _ int) bool { return !target[id] })
	if len(missing) > 0 {
		g.logger.Warn("delete aborted: live tracks missing from verification target",
			"playlist", playlist.Name, "missing", len(missing))
		return VerificationFailed, nil
	}

	if err := g.platform.DeletePlaylist(ctx, playlist.ID); err != nil {
		return VerificationFailed, fmt.Errorf("%w: deleting playlist %q: %v", shared.ErrAPIRequest, playlist.Name, err)
	}

	g.logger.Info("deleted playlist", "playlist", playlist.Name, "tracks", len(live), "reason", reason)
	return Committed, nil
}

// RemoveTracks removes the given tracks from a playlist, then re-reads the
// membership and confirms the removed tracks are absent and all other
// tracks intact. A mismatch is reported as PartialFailure: logged,
// non-fatal, recoverable from the backup record.
func (g *Guard) RemoveTracks(ctx context.Context, playlist Playlist, tracks []catalog.TrackID, reason string) (Result, error) {
	if len(tracks) == 0 {
		return Committed, nil
	}

	before, err := g.platform.PlaylistTracks(ctx, playlist.ID)
	if err != nil {
		return PartialFailure, fmt.Errorf("%w: reading playlist %q before removal: %v", shared.ErrAPIRequest, playlist.Name, err)
	}

	if err := g.backup(playlist, before, reason); err != nil {
		return PartialFailure, err
	}

	if err := g.platform.RemoveTracks(ctx, playlist.ID, tracks); err != nil {
		return PartialFailure, fmt.Errorf("%w: removing %d tracks from %q: %v", shared.ErrAPIRequest, len(tracks), playlist.Name, err)
	}

	after, err := g.platform.PlaylistTracks(ctx, playlist.ID)
	if err != nil {
		return PartialFailure, fmt.Errorf("%w: re-reading playlist %q after removal: %v", shared.ErrAPIRequest, playlist.Name, err)
	}

	removed := lo.SliceToMap(tracks, func(id catalog.TrackID) (catalog.TrackID, bool) { return id, true })
	afterSet := lo.SliceToMap(after, func(id catalog.TrackID) (catalog.TrackID, bool) { return id, true })

	var issues []string
	for _, id := range after {
		if removed[id] {
			issues = append(issues, fmt.Sprintf("track %s still present after removal", id))
			break
		}
	}
	for _, id := range before {
		if !removed[id] && !afterSet[id] {
			issues = append(issues, fmt.Sprintf("track %s lost during removal", id))
			break
		}
	}

	if len(issues) > 0 {
		g.logger.Warn("membership mismatch after removal",
			"playlist", playlist.Name, "issues", issues)
		return PartialFailure, nil
	}

	g.logger.Info("removed tracks", "playlist", playlist.Name, "count", len(tracks), "reason", reason)
	return Committed, nil
}

// Restore re-creates the playlist captured in a backup record as a fresh
// playlist and repopulates it with the recorded membership. The original
// playlist, if it still exists, is left untouched. Returns the new
// playlist's id.
func (g *Guard) Restore(ctx context.Context, backupID string) (string, error) {
	record, err := g.store.Get(backupID)
	if err != nil {
		return "", fmt.Errorf("loading backup %s: %w", backupID, err)
	}

	desc := fmt.Sprintf("Restored from backup %s (%s)", record.ID, record.CreatedAt.Format("2006-01-02"))
	id, err := g.platform.CreatePlaylist(ctx, record.PlaylistName, desc)
	if err != nil {
		return "", fmt.Errorf("%w: creating playlist %q: %v", shared.ErrAPIRequest, record.PlaylistName, err)
	}

	if len(record.TrackIDs) > 0 {
		if err := g.platform.AddTracks(ctx, id, record.TrackIDs); err != nil {
			return "", fmt.Errorf("%w: repopulating playlist %q: %v", shared.ErrAPIRequest, record.PlaylistName, err)
		}
	}

	g.logger.Info("restored playlist from backup",
		"playlist", record.PlaylistName, "tracks", len(record.TrackIDs), "backup", record.ID)
	return id, nil
}

func (g *Guard) backup(playlist Playlist, tracks []catalog.TrackID, reason string) error {
	record := Record{
		ID:           shared.GenerateID(),
		PlaylistID:   playlist.ID,
		PlaylistName: playlist.Name,
		TrackIDs:     tracks,
		Reason:       reason,
		CreatedAt:    time.Now().UTC(),
	}
	if err := g.store.Append(record); err != nil {
		return fmt.Errorf("%w: playlist %q: %v", shared.ErrBackupFailed, playlist.Name, err)
	}
	return nil
}
