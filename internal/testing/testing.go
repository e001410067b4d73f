// package testing contains shared testing utilities
package testing

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"curator/internal/catalog"
	"curator/internal/guard"
	"curator/internal/reconcile"
	"curator/internal/shared"
)

// FakePlatform is an in-memory test double for the playlist platform.
// It implements both the reconciler and guard platform interfaces.
//
// Fault injection: set FailOn to make a named operation return an error,
// SkipRemovals to leave some tracks behind on RemoveTracks, or
// PhantomTracks to surface extra tracks in reads.
type FakePlatform struct {
	mu sync.Mutex

	Playlists map[string]*FakePlaylist
	nextID    int

	Calls     []string
	Mutations int

	FailOn        map[string]error
	SkipRemovals  int
	PhantomTracks map[string][]catalog.TrackID
}

// FakePlaylist is the remote state of one playlist.
type FakePlaylist struct {
	ID          string
	Name        string
	Description string
	Tracks      []catalog.TrackID
}

func NewFakePlatform() *FakePlatform {
	return &FakePlatform{
		Playlists:     map[string]*FakePlaylist{},
		FailOn:        map[string]error{},
		PhantomTracks: map[string][]catalog.TrackID{},
	}
}

// Seed creates a playlist with the given name and tracks, returning its ID.
func (f *FakePlatform) Seed(name string, tracks ...catalog.TrackID) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	id := fmt.Sprintf("pl-%d", f.nextID)
	f.Playlists[id] = &FakePlaylist{ID: id, Name: name, Tracks: append([]catalog.TrackID{}, tracks...)}
	return id
}

// ByName returns the playlist with the given name, or nil.
func (f *FakePlatform) ByName(name string) *FakePlaylist {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, pl := range f.Playlists {
		if pl.Name == name {
			return pl
		}
	}
	return nil
}

func (f *FakePlatform) record(op string) error {
	f.Calls = append(f.Calls, op)
	if err, ok := f.FailOn[op]; ok {
		return err
	}
	return nil
}

func (f *FakePlatform) ListManagedPlaylists(ctx context.Context) ([]reconcile.RemotePlaylist, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("ListManagedPlaylists"); err != nil {
		return nil, err
	}
	out := make([]reconcile.RemotePlaylist, 0, len(f.Playlists))
	for _, pl := range f.Playlists {
		out = append(out, reconcile.RemotePlaylist{
			ID:       pl.ID,
			Name:     pl.Name,
			TrackIDs: append([]catalog.TrackID{}, pl.Tracks...),
		})
	}
	return out, nil
}

func (f *FakePlatform) CreatePlaylist(ctx context.Context, name, description string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("CreatePlaylist"); err != nil {
		return "", err
	}
	f.Mutations++
	f.nextID++
	id := fmt.Sprintf("pl-%d", f.nextID)
	f.Playlists[id] = &FakePlaylist{ID: id, Name: name, Description: description}
	return id, nil
}

func (f *FakePlatform) AddTracks(ctx context.Context, playlistID string, tracks []catalog.TrackID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("AddTracks"); err != nil {
		return err
	}
	pl, ok := f.Playlists[playlistID]
	if !ok {
		return fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, playlistID)
	}
	f.Mutations++
	existing := map[catalog.TrackID]bool{}
	for _, id := range pl.Tracks {
		existing[id] = true
	}
	for _, id := range tracks {
		if !existing[id] {
			pl.Tracks = append(pl.Tracks, id)
		}
	}
	return nil
}

func (f *FakePlatform) RemoveTracks(ctx context.Context, playlistID string, tracks []catalog.TrackID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("RemoveTracks"); err != nil {
		return err
	}
	pl, ok := f.Playlists[playlistID]
	if !ok {
		return fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, playlistID)
	}
	f.Mutations++
	drop := map[catalog.TrackID]bool{}
	for _, id := range tracks {
		if f.SkipRemovals > 0 {
			f.SkipRemovals--
			continue
		}
		drop[id] = true
	}
	kept := pl.Tracks[:0]
	for _, id := range pl.Tracks {
		if !drop[id] {
			kept = append(kept, id)
		}
	}
	pl.Tracks = kept
	return nil
}

func (f *FakePlatform) DeletePlaylist(ctx context.Context, playlistID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("DeletePlaylist"); err != nil {
		return err
	}
	if _, ok := f.Playlists[playlistID]; !ok {
		return fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, playlistID)
	}
	f.Mutations++
	delete(f.Playlists, playlistID)
	return nil
}

func (f *FakePlatform) PlaylistTracks(ctx context.Context, playlistID string) ([]catalog.TrackID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("PlaylistTracks"); err != nil {
		return nil, err
	}
	pl, ok := f.Playlists[playlistID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, playlistID)
	}
	out := append([]catalog.TrackID{}, pl.Tracks...)
	out = append(out, f.PhantomTracks[playlistID]...)
	return out, nil
}

// MemoryBackupStore is an in-memory guard.BackupStore.
type MemoryBackupStore struct {
	mu      sync.Mutex
	Records []guard.Record
}

func NewMemoryBackupStore() *MemoryBackupStore {
	return &MemoryBackupStore{}
}

func (s *MemoryBackupStore) Append(record guard.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Records = append(s.Records, record)
	return nil
}

func (s *MemoryBackupStore) List(limit int) ([]guard.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]guard.Record{}, s.Records...)
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryBackupStore) Get(id string) (*guard.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.Records {
		if s.Records[i].ID == id {
			record := s.Records[i]
			return &record, nil
		}
	}
	return nil, fmt.Errorf("backup %s not found", id)
}

// TrackAt builds a liked track added in the given year/month.
func TrackAt(id, name string, year int, month time.Month, genres ...string) catalog.Track {
	return catalog.Track{
		ID:      catalog.TrackID(id),
		Name:    name,
		Artist:  "artist",
		Genres:  genres,
		AddedAt: time.Date(year, month, 15, 12, 0, 0, 0, time.UTC),
	}
}

// TestConfig returns the default configuration with a deterministic owner.
func TestConfig(t *testing.T) *shared.Config {
	t.Helper()
	cfg := shared.DefaultConfig()
	cfg.Owner = "AJ"
	return cfg
}
