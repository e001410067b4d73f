// package catalog defines the liked-track snapshot consumed by the planner.
//
// A Snapshot is a read-only view of the user's library at a point in time:
// track ids, genre labels, and inclusion timestamps, plus an optional
// listening-history source for the play-count derived playlist kinds.
// Genre labels arrive precomputed; the only normalization applied here is
// the Other fallback for unclassified tracks.
package catalog

import (
	"time"
)

// GenreOther is the catch-all genre label. Every track belongs to at least
// one genre after normalization, so no liked track is ever orphaned from
// the master genre playlists.
const GenreOther = "Other"

// TrackID is an opaque remote track identifier.
type TrackID string

// Track is a single liked track as observed in the snapshot. Immutable.
type Track struct {
	ID         TrackID
	Name       string
	Artist     string
	Genres     []string  // primary-artist core genre labels, never empty after normalization
	AddedAt    time.Time // when the track entered the liked-songs source
	Duration   int       // seconds
	Popularity int
}

// History supplies per-month track selectors derived from listening history.
// A nil History means history data is unavailable for the run and the kinds
// that require it are skipped, not failed.
type History interface {
	// TopTracks returns the most-played track ids for the given month.
	TopTracks(year int, month time.Month) []TrackID

	// FirstPlays returns track ids first played in the given month.
	FirstPlays(year int, month time.Month) []TrackID
}

// Snapshot is a consistent view of the library for one sync run.
type Snapshot struct {
	Tracks  []Track
	History History
}

// Normalize applies the Other fallback to every track with an empty genre
// set. Returns the snapshot for chaining.
func (s *Snapshot) Normalize() *Snapshot {
	for i := range s.Tracks {
		if len(s.Tracks[i].Genres) == 0 {
			s.Tracks[i].Genres = []string{GenreOther}
		}
	}
	return s
}

// TrackIDs returns the ids of every track in the snapshot, in order.
func (s *Snapshot) TrackIDs() []TrackID {
	ids := make([]TrackID, len(s.Tracks))
	for i, t := range s.Tracks {
		ids[i] = t.ID
	}
	return ids
}

// Bounds returns the earliest and latest inclusion timestamps in the
// snapshot. ok is false for an empty snapshot.
func (s *Snapshot) Bounds() (earliest, latest time.Time, ok bool) {
	for _, t := range s.Tracks {
		if t.AddedAt.IsZero() {
			continue
		}
		if !ok {
			earliest, latest, ok = t.AddedAt, t.AddedAt, true
			continue
		}
		if t.AddedAt.Before(earliest) {
			earliest = t.AddedAt
		}
		if t.AddedAt.After(latest) {
			latest = t.AddedAt
		}
	}
	return earliest, latest, ok
}

// GenreSet returns the ordered set of genre labels observed across the
// snapshot, with the Other fallback applied for unlabeled tracks.
func (s *Snapshot) GenreSet() []string {
	seen := make(map[string]bool)
	var genres []string
	for _, t := range s.Tracks {
		labels := t.Genres
		if len(labels) == 0 {
			labels = []string{GenreOther}
		}
		for _, g := range labels {
			if !seen[g] {
				seen[g] = true
				genres = append(genres, g)
			}
		}
	}
	return genres
}
