package catalog

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"
)

// Plays shorter than this are treated as skips, not listens.
const minPlayMillis = 30000

// Selector memberships are capped per month.
const selectorTrackLimit = 50

// PlayEvent is one qualifying play taken from a streaming history export.
type PlayEvent struct {
	TrackID  TrackID
	PlayedAt time.Time
	Millis   int
}

// historyEntry covers both export shapes Spotify ships: the extended
// format (ts, ms_played, spotify_track_uri, skipped) and the basic
// format (endTime, msPlayed, no track URI).
type historyEntry struct {
	TS       string `json:"ts"`
	Millis   int    `json:"ms_played"`
	TrackURI string `json:"spotify_track_uri"`
	Skipped  bool   `json:"skipped"`

	EndTime      string `json:"endTime"`
	MillisLegacy int    `json:"msPlayed"`
}

// ParseStreamingHistory decodes one streaming history export file into
// qualifying play events. Entries played under 30 seconds or flagged as
// skipped are dropped. Basic-format entries carry no track URI and
// cannot be mapped to tracks, so only extended-format entries survive;
// their count is still validated so an all-basic file fails loudly
// instead of importing nothing.
func ParseStreamingHistory(r io.Reader) ([]PlayEvent, error) {
	var entries []historyEntry
	if err := json.NewDecoder(r).Decode(&entries); err != nil {
		return nil, fmt.Errorf("failed to decode streaming history: %w", err)
	}

	var events []PlayEvent
	withURI := 0
	for _, e := range entries {
		millis := e.Millis
		if millis == 0 {
			millis = e.MillisLegacy
		}
		if e.TrackURI == "" {
			continue
		}
		withURI++
		if millis < minPlayMillis || e.Skipped {
			continue
		}

		playedAt, err := time.Parse(time.RFC3339, e.TS)
		if err != nil {
			return nil, fmt.Errorf("failed to parse play timestamp %q: %w", e.TS, err)
		}

		id := trackIDFromURI(e.TrackURI)
		if id == "" {
			continue
		}
		events = append(events, PlayEvent{TrackID: id, PlayedAt: playedAt.UTC(), Millis: millis})
	}

	if len(entries) > 0 && withURI == 0 {
		return nil, fmt.Errorf("export carries no track URIs; use the extended streaming history export")
	}
	return events, nil
}

// trackIDFromURI extracts the id from a "spotify:track:<id>" URI.
func trackIDFromURI(uri string) TrackID {
	for i := len(uri) - 1; i >= 0; i-- {
		if uri[i] == ':' {
			return TrackID(uri[i+1:])
		}
	}
	return ""
}

// MonthSelectors holds the history-derived memberships for one month.
type MonthSelectors struct {
	Year       int
	Month      time.Month
	Top        []TrackID
	FirstPlays []TrackID
}

// DeriveSelectors rolls play events up into per-month selector
// memberships, chronologically ordered.
//
// Top is the month's most played tracks: play count descending, total
// listening time breaking ties. FirstPlays is the month's discoveries:
// tracks whose first play ever falls inside the month, in play order.
// Both are capped at 50 tracks.
func DeriveSelectors(events []PlayEvent) []MonthSelectors {
	type playStats struct {
		count  int
		millis int
		first  time.Time
	}

	byMonth := make(map[monthKey]map[TrackID]*playStats)
	firstPlay := make(map[TrackID]time.Time)
	for _, e := range events {
		key := monthKey{year: e.PlayedAt.Year(), month: e.PlayedAt.Month()}
		if byMonth[key] == nil {
			byMonth[key] = make(map[TrackID]*playStats)
		}
		st := byMonth[key][e.TrackID]
		if st == nil {
			st = &playStats{first: e.PlayedAt}
			byMonth[key][e.TrackID] = st
		}
		st.count++
		st.millis += e.Millis
		if e.PlayedAt.Before(st.first) {
			st.first = e.PlayedAt
		}
		if f, ok := firstPlay[e.TrackID]; !ok || e.PlayedAt.Before(f) {
			firstPlay[e.TrackID] = e.PlayedAt
		}
	}

	months := make([]monthKey, 0, len(byMonth))
	for key := range byMonth {
		months = append(months, key)
	}
	sort.Slice(months, func(i, j int) bool {
		if months[i].year != months[j].year {
			return months[i].year < months[j].year
		}
		return months[i].month < months[j].month
	})

	var out []MonthSelectors
	for _, key := range months {
		stats := byMonth[key]
		ids := make([]TrackID, 0, len(stats))
		for id := range stats {
			ids = append(ids, id)
		}

		top := append([]TrackID{}, ids...)
		sort.Slice(top, func(i, j int) bool {
			a, b := stats[top[i]], stats[top[j]]
			if a.count != b.count {
				return a.count > b.count
			}
			if a.millis != b.millis {
				return a.millis > b.millis
			}
			return top[i] < top[j]
		})

		var discoveries []TrackID
		for _, id := range ids {
			if f := firstPlay[id]; f.Year() == key.year && f.Month() == key.month {
				discoveries = append(discoveries, id)
			}
		}
		sort.Slice(discoveries, func(i, j int) bool {
			fi, fj := firstPlay[discoveries[i]], firstPlay[discoveries[j]]
			if !fi.Equal(fj) {
				return fi.Before(fj)
			}
			return discoveries[i] < discoveries[j]
		})

		out = append(out, MonthSelectors{
			Year:       key.year,
			Month:      key.month,
			Top:        capTracks(top),
			FirstPlays: capTracks(discoveries),
		})
	}
	return out
}

func capTracks(ids []TrackID) []TrackID {
	if len(ids) > selectorTrackLimit {
		return ids[:selectorTrackLimit]
	}
	return ids
}

// ImportHistory derives the monthly selectors from play events and
// replaces the stored rows for every month the events touch. Months
// absent from the events are left untouched. Returns the number of
// months written.
func (s *Store) ImportHistory(events []PlayEvent) (int, error) {
	selectors := DeriveSelectors(events)
	for _, sel := range selectors {
		if err := s.ReplaceTopTracks(sel.Year, sel.Month, sel.Top); err != nil {
			return 0, err
		}
		if err := s.ReplaceFirstPlays(sel.Year, sel.Month, sel.FirstPlays); err != nil {
			return 0, err
		}
	}
	return len(selectors), nil
}
