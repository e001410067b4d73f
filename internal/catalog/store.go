package catalog

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Kind labels for history rows. The store does not interpret these beyond
// routing rows to the matching selector.
const (
	historyKindTop       = "top"
	historyKindDiscovery = "discovery"
)

// Store persists the track snapshot cache and listening-history selectors
// in SQLite. It is the on-disk boundary between the external catalog
// collaborator and the planner.
type Store struct {
	db *sql.DB
}

// NewStore creates a Store backed by the given database. The schema is
// expected to exist (see shared.RunMigrations).
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// SaveTracks upserts the given tracks into the snapshot cache.
func (s *Store) SaveTracks(tracks []Track) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO tracks (id, name, artist, genres, added_at, duration_seconds, popularity)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			artist = excluded.artist,
			genres = excluded.genres,
			duration_seconds = excluded.duration_seconds,
			popularity = excluded.popularity
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, t := range tracks {
		genres, err := json.Marshal(t.Genres)
		if err != nil {
			return fmt.Errorf("failed to encode genres for track %s: %w", t.ID, err)
		}
		if _, err := stmt.Exec(string(t.ID), t.Name, t.Artist, string(genres), t.AddedAt.UTC(), t.Duration, t.Popularity); err != nil {
			return fmt.Errorf("failed to upsert track %s: %w", t.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit track upsert: %w", err)
	}
	return nil
}

// ReplaceTopTracks replaces the most-played selector rows for one month.
func (s *Store) ReplaceTopTracks(year int, month time.Month, ids []TrackID) error {
	return s.replaceHistory(historyKindTop, year, month, ids)
}

// ReplaceFirstPlays replaces the first-played selector rows for one month.
func (s *Store) ReplaceFirstPlays(year int, month time.Month, ids []TrackID) error {
	return s.replaceHistory(historyKindDiscovery, year, month, ids)
}

func (s *Store) replaceHistory(kind string, year int, month time.Month, ids []TrackID) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM history_tracks WHERE kind = ? AND year = ? AND month = ?", kind, year, int(month)); err != nil {
		return fmt.Errorf("failed to clear history rows: %w", err)
	}

	stmt, err := tx.Prepare("INSERT OR IGNORE INTO history_tracks (kind, year, month, track_id) VALUES (?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, id := range ids {
		if _, err := stmt.Exec(kind, year, int(month), string(id)); err != nil {
			return fmt.Errorf("failed to insert history row: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit history rows: %w", err)
	}
	return nil
}

// Snapshot loads the full liked-track snapshot from the cache. The History
// field is nil when no history rows exist, which downgrades the
// history-derived kinds to skipped for the run.
func (s *Store) Snapshot() (*Snapshot, error) {
	rows, err := s.db.Query("SELECT id, name, artist, genres, added_at, duration_seconds, popularity FROM tracks ORDER BY added_at")
	if err != nil {
		return nil, fmt.Errorf("failed to query tracks: %w", err)
	}
	defer rows.Close()

	var tracks []Track
	for rows.Next() {
		var t Track
		var genres string
		var addedAt time.Time
		if err := rows.Scan(&t.ID, &t.Name, &t.Artist, &genres, &addedAt, &t.Duration, &t.Popularity); err != nil {
			return nil, fmt.Errorf("failed to scan track: %w", err)
		}
		t.AddedAt = addedAt.UTC()
		if genres != "" {
			if err := json.Unmarshal([]byte(genres), &t.Genres); err != nil {
				// Legacy rows stored a bare semicolon-joined list
				t.Genres = splitNonEmpty(genres, ";")
			}
		}
		tracks = append(tracks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read tracks: %w", err)
	}

	history, err := s.loadHistory()
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{Tracks: tracks, History: history}
	return snap.Normalize(), nil
}

// loadHistory reads all history selector rows into memory. Returns nil
// (no history) when the table is empty.
func (s *Store) loadHistory() (History, error) {
	rows, err := s.db.Query("SELECT kind, year, month, track_id FROM history_tracks")
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	h := storedHistory{
		top:    make(map[monthKey][]TrackID),
		plays:  make(map[monthKey][]TrackID),
		loaded: false,
	}

	for rows.Next() {
		var kind, trackID string
		var year, month int
		if err := rows.Scan(&kind, &year, &month, &trackID); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		key := monthKey{year: year, month: time.Month(month)}
		switch kind {
		case historyKindTop:
			h.top[key] = append(h.top[key], TrackID(trackID))
		case historyKindDiscovery:
			h.plays[key] = append(h.plays[key], TrackID(trackID))
		}
		h.loaded = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}

	if !h.loaded {
		return nil, nil
	}
	return &h, nil
}

type monthKey struct {
	year  int
	month time.Month
}

// storedHistory implements History over preloaded selector rows.
type storedHistory struct {
	top    map[monthKey][]TrackID
	plays  map[monthKey][]TrackID
	loaded bool
}

func (h *storedHistory) TopTracks(year int, month time.Month) []TrackID {
	return h.top[monthKey{year: year, month: month}]
}

func (h *storedHistory) FirstPlays(year int, month time.Month) []TrackID {
	return h.plays[monthKey{year: year, month: month}]
}

func splitNonEmpty(s, sep string) []string {
	var out []string
	for _, part := range strings.Split(s, sep) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
