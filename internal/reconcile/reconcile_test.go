package reconcile

import (
	"context"
	"errors"
	"testing"
	"time"

	"curator/internal/catalog"
	"curator/internal/guard"
	"curator/internal/planner"
)

// fakePlatform is an in-memory Platform shared by the reconciler and the
// guard during tests.
type fakePlatform struct {
	playlists map[string]*fakePlaylist
	nextID    int
	mutations int
	createErr error
	addErr    error
	readErr   error
}

type fakePlaylist struct {
	id     string
	name   string
	tracks []catalog.TrackID
}

func newFakePlatform() *fakePlatform {
	return &fakePlatform{playlists: map[string]*fakePlaylist{}}
}

func (f *fakePlatform) seed(name string, tracks ...catalog.TrackID) string {
	f.nextID++
	id := f.newID()
	f.playlists[id] = &fakePlaylist{id: id, name: name, tracks: append([]catalog.TrackID{}, tracks...)}
	return id
}

func (f *fakePlatform) newID() string {
	return "pl-" + string(rune('a'+f.nextID))
}

func (f *fakePlatform) byName(name string) *fakePlaylist {
	for _, pl := range f.playlists {
		if pl.name == name {
			return pl
		}
	}
	return nil
}

func (f *fakePlatform) ListManagedPlaylists(ctx context.Context) ([]RemotePlaylist, error) {
	var out []RemotePlaylist
	for _, pl := range f.playlists {
		out = append(out, RemotePlaylist{ID: pl.id, Name: pl.name, TrackIDs: append([]catalog.TrackID{}, pl.tracks...)})
	}
	return out, nil
}

func (f *fakePlatform) CreatePlaylist(ctx context.Context, name, description string) (string, error) {
	if f.createErr != nil {
		return "", f.createErr
	}
	f.mutations++
	f.nextID++
	id := f.newID()
	f.playlists[id] = &fakePlaylist{id: id, name: name}
	return id, nil
}

func (f *fakePlatform) AddTracks(ctx context.Context, playlistID string, tracks []catalog.TrackID) error {
	if f.addErr != nil {
		return f.addErr
	}
	f.mutations++
	pl := f.playlists[playlistID]
	existing := map[catalog.TrackID]bool{}
	for _, id := range pl.tracks {
		existing[id] = true
	}
	for _, id := range tracks {
		if !existing[id] {
			pl.tracks = append(pl.tracks, id)
		}
	}
	return nil
}

func (f *fakePlatform) RemoveTracks(ctx context.Context, playlistID string, tracks []catalog.TrackID) error {
	f.mutations++
	pl := f.playlists[playlistID]
	drop := map[catalog.TrackID]bool{}
	for _, id := range tracks {
		drop[id] = true
	}
	var kept []catalog.TrackID
	for _, id := range pl.tracks {
		if !drop[id] {
			kept = append(kept, id)
		}
	}
	pl.tracks = kept
	return nil
}

func (f *fakePlatform) DeletePlaylist(ctx context.Context, playlistID string) error {
	if _, ok := f.playlists[playlistID]; !ok {
		return errors.New("not found")
	}
	f.mutations++
	delete(f.playlists, playlistID)
	return nil
}

func (f *fakePlatform) PlaylistTracks(ctx context.Context, playlistID string) ([]catalog.TrackID, error) {
	if f.readErr != nil {
		return nil, f.readErr
	}
	pl, ok := f.playlists[playlistID]
	if !ok {
		return nil, errors.New("not found")
	}
	return append([]catalog.TrackID{}, pl.tracks...), nil
}

type memStore struct {
	records []guard.Record
}

func (s *memStore) Append(record guard.Record) error {
	s.records = append(s.records, record)
	return nil
}

func (s *memStore) List(limit int) ([]guard.Record, error) { return s.records, nil }

func (s *memStore) Get(id string) (*guard.Record, error) { return nil, errors.New("not found") }

func newReconciler(platform *fakePlatform) (*Reconciler, *memStore) {
	store := &memStore{}
	g := guard.New(platform, store, nil)
	return New(platform, g, nil), store
}

func monthlySlot(name string, tracks ...catalog.TrackID) planner.Slot {
	return planner.Slot{
		Kind:   planner.KindFinds,
		Span:   planner.SpanMonthly,
		Month:  planner.Month{Year: 2025, Mon: time.January},
		Year:   2025,
		Name:   name,
		Tracks: tracks,
	}
}

func yearlySlot(name string, tracks ...catalog.TrackID) planner.Slot {
	return planner.Slot{
		Kind:   planner.KindFinds,
		Span:   planner.SpanYearly,
		Year:   2024,
		Name:   name,
		Tracks: tracks,
	}
}

func masterSlot(name, genre string, tracks ...catalog.TrackID) planner.Slot {
	return planner.Slot{
		Kind:   planner.KindFinds,
		Span:   planner.SpanAllTime,
		Genre:  genre,
		Name:   name,
		Tracks: tracks,
	}
}

func run(t *testing.T, r *Reconciler, platform *fakePlatform, plan *planner.Plan, liked []catalog.TrackID) *Report {
	t.Helper()
	remote, err := platform.ListManagedPlaylists(context.Background())
	if err != nil {
		t.Fatalf("listing remote: %v", err)
	}
	report, err := r.Reconcile(context.Background(), plan, liked, remote)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	return report
}

func resultFor(t *testing.T, report *Report, name string) SlotResult {
	t.Helper()
	for _, result := range report.Results {
		if result.Name == name {
			return result
		}
	}
	t.Fatalf("no result for %s in %+v", name, report.Results)
	return SlotResult{}
}

func TestReconcileCreate(t *testing.T) {
	platform := newFakePlatform()
	r, _ := newReconciler(platform)

	plan := &planner.Plan{Slots: []planner.Slot{monthlySlot("AJFindsJan25", "a", "b")}}
	report := run(t, r, platform, plan, []catalog.TrackID{"a", "b"})

	result := resultFor(t, report, "AJFindsJan25")
	if result.Outcome != OutcomeCreated || result.Added != 2 {
		t.Fatalf("expected created with 2 adds, got %+v", result)
	}

	pl := platform.byName("AJFindsJan25")
	if pl == nil || len(pl.tracks) != 2 {
		t.Errorf("remote playlist should exist with both tracks")
	}
}

func TestReconcileEmptySlotNotCreated(t *testing.T) {
	platform := newFakePlatform()
	r, _ := newReconciler(platform)

	plan := &planner.Plan{Slots: []planner.Slot{monthlySlot("DanceFindsJan25")}}
	report := run(t, r, platform, plan, nil)

	result := resultFor(t, report, "DanceFindsJan25")
	if result.Outcome != OutcomeSkipped || result.Detail != "empty" {
		t.Fatalf("expected skipped:empty, got %+v", result)
	}
	if platform.byName("DanceFindsJan25") != nil {
		t.Error("empty slot must not be created remotely")
	}
	if report.Mutations != 0 {
		t.Errorf("expected zero mutations, got %d", report.Mutations)
	}
}

func TestReconcileAdditiveOnly(t *testing.T) {
	platform := newFakePlatform()
	platform.seed("AJFindsJan25", "a", "manual")
	r, _ := newReconciler(platform)

	plan := &planner.Plan{Slots: []planner.Slot{monthlySlot("AJFindsJan25", "a", "b")}}
	report := run(t, r, platform, plan, []catalog.TrackID{"a", "b"})

	result := resultFor(t, report, "AJFindsJan25")
	if result.Outcome != OutcomeUpdated || result.Added != 1 || result.Removed != 0 {
		t.Fatalf("expected updated with 1 add and 0 removes, got %+v", result)
	}

	// Manually added tracks survive: the update is additive.
	pl := platform.byName("AJFindsJan25")
	found := false
	for _, id := range pl.tracks {
		if id == "manual" {
			found = true
		}
	}
	if !found {
		t.Error("manually added track must never be removed from a non-master slot")
	}
}

func TestReconcileUnchangedIsIdempotent(t *testing.T) {
	platform := newFakePlatform()
	platform.seed("AJFindsJan25", "a", "b")
	r, _ := newReconciler(platform)

	plan := &planner.Plan{Slots: []planner.Slot{monthlySlot("AJFindsJan25", "a", "b")}}
	report := run(t, r, platform, plan, []catalog.TrackID{"a", "b"})

	result := resultFor(t, report, "AJFindsJan25")
	if result.Outcome != OutcomeUnchanged {
		t.Fatalf("expected unchanged, got %+v", result)
	}
	if report.Mutations != 0 {
		t.Errorf("an in-sync run must issue zero mutations, got %d", report.Mutations)
	}
}

func TestReconcileMasterPrune(t *testing.T) {
	platform := newFakePlatform()
	platform.seed("AJamHipHop", "a", "stale", "manual")
	r, store := newReconciler(platform)

	// "stale" is liked but no longer targets HipHop; "manual" is not in
	// the liked source at all.
	plan := &planner.Plan{Slots: []planner.Slot{masterSlot("AJamHipHop", "HipHop", "a")}}
	report := run(t, r, platform, plan, []catalog.TrackID{"a", "stale"})

	result := resultFor(t, report, "AJamHipHop")
	if result.Outcome != OutcomeUpdated || result.Removed != 1 {
		t.Fatalf("expected updated with 1 remove, got %+v", result)
	}

	pl := platform.byName("AJamHipHop")
	got := map[catalog.TrackID]bool{}
	for _, id := range pl.tracks {
		got[id] = true
	}
	if got["stale"] {
		t.Error("stale liked track should be pruned from the master slot")
	}
	if !got["manual"] {
		t.Error("tracks outside the liked source must never be pruned")
	}
	if len(store.records) != 1 {
		t.Errorf("prune must leave a backup record, got %d", len(store.records))
	}
}

func TestReconcileMasterPruneFailureNotCounted(t *testing.T) {
	platform := newFakePlatform()
	platform.seed("AJamHipHop", "a", "stale")
	platform.readErr = errors.New("timeout")
	r, store := newReconciler(platform)

	plan := &planner.Plan{Slots: []planner.Slot{masterSlot("AJamHipHop", "HipHop", "a")}}
	report := run(t, r, platform, plan, []catalog.TrackID{"a", "stale"})

	result := resultFor(t, report, "AJamHipHop")
	if result.Outcome != OutcomeFailed {
		t.Fatalf("expected failed slot, got %+v", result)
	}

	// A prune that died before touching the playlist wrote nothing, so
	// the mutation counter must not move.
	if report.Mutations != 0 {
		t.Errorf("failed prune must not count as a mutation, got %d", report.Mutations)
	}
	if len(store.records) != 0 {
		t.Errorf("no backup should exist when the pre-read failed, got %d", len(store.records))
	}
}

func TestReconcileConsolidation(t *testing.T) {
	t.Run("add before delete", func(t *testing.T) {
		platform := newFakePlatform()
		platform.seed("AJFindsOct24", "oct1", "oct2")
		r, _ := newReconciler(platform)

		plan := &planner.Plan{
			Slots: []planner.Slot{yearlySlot("AJFinds24", "oct1", "oct2")},
			Expired: []planner.ExpiredSlot{{
				Kind:     planner.KindFinds,
				Month:    planner.Month{Year: 2024, Mon: time.October},
				Name:     "AJFindsOct24",
				YearName: "AJFinds24",
			}},
		}
		report := run(t, r, platform, plan, []catalog.TrackID{"oct1", "oct2"})

		year := resultFor(t, report, "AJFinds24")
		if year.Outcome != OutcomeCreated {
			t.Fatalf("year slot should be created first, got %+v", year)
		}

		month := resultFor(t, report, "AJFindsOct24")
		if month.Outcome != OutcomeConsolidated || month.Detail != "into AJFinds24" {
			t.Fatalf("expected consolidated into AJFinds24, got %+v", month)
		}

		if platform.byName("AJFindsOct24") != nil {
			t.Error("month playlist should be deleted after consolidation")
		}
		if pl := platform.byName("AJFinds24"); pl == nil || len(pl.tracks) != 2 {
			t.Error("year playlist should hold the consolidated tracks")
		}
	})

	t.Run("aborts when year playlist is missing a live track", func(t *testing.T) {
		platform := newFakePlatform()
		platform.seed("AJFindsOct24", "oct1", "extra")
		platform.seed("AJFinds24", "oct1")
		r, _ := newReconciler(platform)

		// The plan does not know about "extra" (e.g. it was un-liked after
		// being filed), so verification must refuse the delete.
		plan := &planner.Plan{
			Slots: []planner.Slot{yearlySlot("AJFinds24", "oct1")},
			Expired: []planner.ExpiredSlot{{
				Kind:     planner.KindFinds,
				Month:    planner.Month{Year: 2024, Mon: time.October},
				Name:     "AJFindsOct24",
				YearName: "AJFinds24",
			}},
		}
		report := run(t, r, platform, plan, []catalog.TrackID{"oct1"})

		month := resultFor(t, report, "AJFindsOct24")
		if month.Outcome != OutcomeAborted {
			t.Fatalf("expected aborted, got %+v", month)
		}
		if platform.byName("AJFindsOct24") == nil {
			t.Error("month playlist must survive an aborted consolidation")
		}
		if !report.HasFailures() {
			t.Error("an aborted slot should surface in HasFailures")
		}
	})

	t.Run("skips delete when year update failed", func(t *testing.T) {
		platform := newFakePlatform()
		platform.seed("AJFindsOct24", "oct1")
		platform.createErr = errors.New("rate limited")
		r, _ := newReconciler(platform)

		plan := &planner.Plan{
			Slots: []planner.Slot{yearlySlot("AJFinds24", "oct1")},
			Expired: []planner.ExpiredSlot{{
				Kind:     planner.KindFinds,
				Month:    planner.Month{Year: 2024, Mon: time.October},
				Name:     "AJFindsOct24",
				YearName: "AJFinds24",
			}},
		}
		report := run(t, r, platform, plan, []catalog.TrackID{"oct1"})

		year := resultFor(t, report, "AJFinds24")
		if year.Outcome != OutcomeFailed {
			t.Fatalf("expected year slot failure, got %+v", year)
		}

		month := resultFor(t, report, "AJFindsOct24")
		if month.Outcome != OutcomeSkipped {
			t.Fatalf("delete must not run when the year slot failed, got %+v", month)
		}
		if platform.byName("AJFindsOct24") == nil {
			t.Error("month playlist must survive when consolidation is gated")
		}
	})

	t.Run("absent month playlist is silently done", func(t *testing.T) {
		platform := newFakePlatform()
		platform.seed("AJFinds24", "oct1")
		r, _ := newReconciler(platform)

		plan := &planner.Plan{
			Slots: []planner.Slot{yearlySlot("AJFinds24", "oct1")},
			Expired: []planner.ExpiredSlot{{
				Kind:     planner.KindFinds,
				Month:    planner.Month{Year: 2024, Mon: time.October},
				Name:     "AJFindsOct24",
				YearName: "AJFinds24",
			}},
		}
		report := run(t, r, platform, plan, []catalog.TrackID{"oct1"})

		for _, result := range report.Results {
			if result.Name == "AJFindsOct24" {
				t.Fatalf("already-consolidated month should produce no result, got %+v", result)
			}
		}
		if report.Mutations != 0 {
			t.Errorf("steady state should issue zero mutations, got %d", report.Mutations)
		}
	})
}

func TestReconcileSecondRunIsNoOp(t *testing.T) {
	platform := newFakePlatform()
	platform.seed("AJFindsOct24", "oct1")
	r, _ := newReconciler(platform)

	plan := &planner.Plan{
		Slots: []planner.Slot{
			monthlySlot("AJFindsJan25", "jan1"),
			yearlySlot("AJFinds24", "oct1"),
		},
		Expired: []planner.ExpiredSlot{{
			Kind:     planner.KindFinds,
			Month:    planner.Month{Year: 2024, Mon: time.October},
			Name:     "AJFindsOct24",
			YearName: "AJFinds24",
		}},
	}
	liked := []catalog.TrackID{"jan1", "oct1"}

	first := run(t, r, platform, plan, liked)
	if first.Mutations == 0 {
		t.Fatal("first run should mutate")
	}

	second := run(t, r, platform, plan, liked)
	if second.Mutations != 0 {
		t.Fatalf("second run over unchanged input must issue zero mutations, got %d", second.Mutations)
	}
}

func TestReconcileFailureDoesNotAbortRun(t *testing.T) {
	platform := newFakePlatform()
	platform.seed("AJFindsJan25", "a")
	platform.addErr = errors.New("rate limited")
	r, _ := newReconciler(platform)

	plan := &planner.Plan{Slots: []planner.Slot{
		monthlySlot("AJFindsJan25", "a", "b"),
		monthlySlot("AJFindsDec24"),
	}}
	report := run(t, r, platform, plan, []catalog.TrackID{"a", "b"})

	failed := resultFor(t, report, "AJFindsJan25")
	if failed.Outcome != OutcomeFailed {
		t.Fatalf("expected failed slot, got %+v", failed)
	}

	// The run continued to the next slot.
	next := resultFor(t, report, "AJFindsDec24")
	if next.Outcome != OutcomeSkipped {
		t.Fatalf("later slots should still be processed, got %+v", next)
	}
	if !report.HasFailures() {
		t.Error("report should surface the failure")
	}
}
