// package tasks orchestrates playlist lifecycle runs against the remote platform.
//
// The core abstraction is SyncEngine, which loads the library snapshot, computes
// the slot plan, and reconciles the remote playlists against it. Operations emit
// progress updates via channels for non-blocking status reporting to CLI/UI layers.
package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"curator/internal/catalog"
	"curator/internal/guard"
	"curator/internal/naming"
	"curator/internal/planner"
	"curator/internal/reconcile"
	"curator/internal/shared"
)

// SyncEngine defines the planner/reconciler operations exposed to commands.
type SyncEngine interface {
	// RunSync performs a full run: snapshot, plan, reconcile, consolidate.
	RunSync(ctx context.Context, progress chan<- ProgressUpdate) (*reconcile.Report, error)

	// RefreshSnapshot re-fetches the liked library from the platform and
	// persists it, returning the number of tracks stored.
	RefreshSnapshot(ctx context.Context, progress chan<- ProgressUpdate) (int, error)

	// Plan computes the target plan without touching the platform.
	Plan(ctx context.Context) (*planner.Plan, error)
}

// Library fetches the user's saved tracks from the platform.
type Library interface {
	FetchLikedTracks(ctx context.Context) ([]catalog.Track, error)
}

// Engine implements SyncEngine against a snapshot store and a playlist platform.
type Engine struct {
	cfg      *shared.Config
	store    *catalog.Store
	library  Library
	platform reconcile.Platform
	guard    *guard.Guard
	logger   *log.Logger
	now      func() time.Time
}

// NewEngine creates an Engine with the provided dependencies.
func NewEngine(cfg *shared.Config, store *catalog.Store, library Library, platform reconcile.Platform, g *guard.Guard, logger *log.Logger) *Engine {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Engine{
		cfg:      cfg,
		store:    store,
		library:  library,
		platform: platform,
		guard:    g,
		logger:   logger,
		now:      time.Now,
	}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (e *Engine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
		// Sent successfully
	default:
		// Channel full or closed, skip this update
	}
}

// RunSync executes one full lifecycle run. Configuration and templates are
// validated before anything is fetched or mutated; a run never partially
// applies an invalid configuration.
func (e *Engine) RunSync(ctx context.Context, progress chan<- ProgressUpdate) (*reconcile.Report, error) {
	if e.platform == nil {
		return nil, fmt.Errorf("%w: platform client not initialized", shared.ErrServiceUnavailable)
	}
	if err := e.cfg.Validate(); err != nil {
		return nil, err
	}
	if err := naming.ValidateTemplates(e.cfg); err != nil {
		return nil, err
	}

	snap, err := e.loadSnapshot(ctx, progress)
	if err != nil {
		return nil, err
	}

	e.sendProgress(progress, computePlanUpdate(1, 1))
	plan, err := planner.Compute(snap, e.cfg, planner.MonthOf(e.now()))
	if err != nil {
		return nil, err
	}
	e.sendProgress(progress, planComputedUpdate(1, 1, plan))

	for _, skipped := range plan.Skipped {
		e.logger.Warn("skipping kind", "kind", skipped.Kind.String(), "reason", skipped.Reason)
	}

	e.sendProgress(progress, fetchRemoteUpdate(1, 1))
	remote, err := e.platform.ListManagedPlaylists(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: listing playlists: %v", shared.ErrAPIRequest, err)
	}
	e.sendProgress(progress, remoteFetchedUpdate(1, 1, len(remote)))

	e.sendProgress(progress, reconcileUpdate(0, len(plan.Slots), ""))
	reconciler := reconcile.New(e.platform, e.guard, e.logger)
	report, err := reconciler.Reconcile(ctx, plan, snap.TrackIDs(), remote)
	if err != nil {
		return report, err
	}

	e.sendProgress(progress, doneUpdate(report))
	return report, nil
}

// RefreshSnapshot fetches the liked library from the platform and replaces
// the stored track snapshot.
func (e *Engine) RefreshSnapshot(ctx context.Context, progress chan<- ProgressUpdate) (int, error) {
	if e.library == nil {
		return 0, fmt.Errorf("%w: platform client not initialized", shared.ErrServiceUnavailable)
	}

	e.sendProgress(progress, fetchLikedUpdate(1, 1))
	tracks, err := e.library.FetchLikedTracks(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: fetching liked songs: %v", shared.ErrSourceUnavailable, err)
	}
	if len(tracks) == 0 {
		return 0, fmt.Errorf("%w: platform returned no liked songs", shared.ErrEmptySnapshot)
	}

	if err := e.store.SaveTracks(tracks); err != nil {
		return 0, err
	}

	e.sendProgress(progress, likedFetchedUpdate(1, 1, len(tracks)))
	return len(tracks), nil
}

// Plan loads the snapshot and computes the target plan without mutating
// anything remotely. Used for dry runs.
func (e *Engine) Plan(ctx context.Context) (*planner.Plan, error) {
	if err := e.cfg.Validate(); err != nil {
		return nil, err
	}
	if err := naming.ValidateTemplates(e.cfg); err != nil {
		return nil, err
	}

	snap, err := e.loadSnapshot(ctx, nil)
	if err != nil {
		return nil, err
	}
	return planner.Compute(snap, e.cfg, planner.MonthOf(e.now()))
}

// loadSnapshot returns the stored snapshot, refreshing it from the platform
// when the local store is empty.
func (e *Engine) loadSnapshot(ctx context.Context, progress chan<- ProgressUpdate) (*catalog.Snapshot, error) {
	e.sendProgress(progress, loadSnapshotUpdate(1, 1))

	snap, err := e.store.Snapshot()
	if err != nil {
		return nil, err
	}

	if len(snap.Tracks) == 0 {
		if e.library == nil {
			return nil, fmt.Errorf("%w: snapshot is empty and no platform client is available", shared.ErrEmptySnapshot)
		}
		if _, err := e.RefreshSnapshot(ctx, progress); err != nil {
			return nil, err
		}
		snap, err = e.store.Snapshot()
		if err != nil {
			return nil, err
		}
	}

	return snap.Normalize(), nil
}
