package catalog

import (
	"fmt"
	"strings"
	"testing"
	"time"
)

func playAt(id string, ts time.Time, millis int) PlayEvent {
	return PlayEvent{TrackID: TrackID(id), PlayedAt: ts, Millis: millis}
}

func TestParseStreamingHistory(t *testing.T) {
	t.Run("extended format", func(t *testing.T) {
		export := `[
			{"ts": "2024-10-05T10:00:00Z", "ms_played": 180000, "spotify_track_uri": "spotify:track:aaa", "skipped": false},
			{"ts": "2024-10-05T10:05:00Z", "ms_played": 12000, "spotify_track_uri": "spotify:track:bbb", "skipped": false},
			{"ts": "2024-10-05T10:06:00Z", "ms_played": 180000, "spotify_track_uri": "spotify:track:ccc", "skipped": true},
			{"ts": "2024-10-05T10:10:00Z", "ms_played": 90000, "spotify_track_uri": "spotify:track:ddd", "skipped": false}
		]`

		events, err := ParseStreamingHistory(strings.NewReader(export))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		// Short plays and skips are dropped; track ids come from the URI.
		if len(events) != 2 {
			t.Fatalf("expected 2 qualifying plays, got %d: %v", len(events), events)
		}
		if events[0].TrackID != "aaa" || events[1].TrackID != "ddd" {
			t.Errorf("wrong tracks survived the filter: %v", events)
		}
		if events[0].PlayedAt.Month() != time.October {
			t.Errorf("timestamp parsed wrong: %v", events[0].PlayedAt)
		}
	})

	t.Run("basic format has no track ids", func(t *testing.T) {
		export := `[
			{"endTime": "2024-10-05 10:00", "artistName": "A", "trackName": "T", "msPlayed": 180000}
		]`

		if _, err := ParseStreamingHistory(strings.NewReader(export)); err == nil {
			t.Fatal("expected error for an export without track URIs")
		}
	})

	t.Run("malformed json", func(t *testing.T) {
		if _, err := ParseStreamingHistory(strings.NewReader("{not json")); err == nil {
			t.Fatal("expected decode error")
		}
	})

	t.Run("empty export", func(t *testing.T) {
		events, err := ParseStreamingHistory(strings.NewReader("[]"))
		if err != nil || len(events) != 0 {
			t.Fatalf("empty export should parse to no events, got %v, %v", events, err)
		}
	})
}

func TestDeriveSelectors(t *testing.T) {
	oct := func(day, hour int) time.Time {
		return time.Date(2024, time.October, day, hour, 0, 0, 0, time.UTC)
	}
	nov := func(day, hour int) time.Time {
		return time.Date(2024, time.November, day, hour, 0, 0, 0, time.UTC)
	}

	t.Run("most played ordering", func(t *testing.T) {
		// b: 3 plays; a: 2 plays but more listening time than c's 2 plays.
		events := []PlayEvent{
			playAt("a", oct(1, 9), 240000), playAt("a", oct(2, 9), 240000),
			playAt("b", oct(1, 10), 60000), playAt("b", oct(2, 10), 60000), playAt("b", oct(3, 10), 60000),
			playAt("c", oct(1, 11), 60000), playAt("c", oct(2, 11), 60000),
		}

		sel := DeriveSelectors(events)
		if len(sel) != 1 {
			t.Fatalf("expected one month, got %d", len(sel))
		}
		if sel[0].Year != 2024 || sel[0].Month != time.October {
			t.Fatalf("wrong month: %v %v", sel[0].Year, sel[0].Month)
		}
		want := []TrackID{"b", "a", "c"}
		for i, id := range want {
			if sel[0].Top[i] != id {
				t.Fatalf("top order wrong: got %v, want %v", sel[0].Top, want)
			}
		}
	})

	t.Run("discoveries are first-ever plays", func(t *testing.T) {
		events := []PlayEvent{
			playAt("old", oct(10, 9), 60000),
			playAt("old", nov(1, 9), 60000),
			playAt("new", nov(2, 9), 60000),
			playAt("newer", nov(2, 10), 60000),
		}

		sel := DeriveSelectors(events)
		if len(sel) != 2 {
			t.Fatalf("expected two months, got %d", len(sel))
		}

		november := sel[1]
		if len(november.FirstPlays) != 2 || november.FirstPlays[0] != "new" || november.FirstPlays[1] != "newer" {
			t.Errorf("november discoveries wrong: %v", november.FirstPlays)
		}
		// A replay of an October track is not a November discovery.
		for _, id := range november.FirstPlays {
			if id == "old" {
				t.Error("replayed track must not count as a discovery")
			}
		}
		if len(sel[0].FirstPlays) != 1 || sel[0].FirstPlays[0] != "old" {
			t.Errorf("october discoveries wrong: %v", sel[0].FirstPlays)
		}
	})

	t.Run("memberships are capped", func(t *testing.T) {
		var events []PlayEvent
		for i := 0; i < 60; i++ {
			events = append(events, playAt(fmt.Sprintf("t%02d", i), oct(1+i%28, 9), 60000))
		}

		sel := DeriveSelectors(events)
		if len(sel[0].Top) != 50 || len(sel[0].FirstPlays) != 50 {
			t.Errorf("selectors should cap at 50 tracks, got top=%d first=%d", len(sel[0].Top), len(sel[0].FirstPlays))
		}
	})
}

func TestImportHistory(t *testing.T) {
	store := setupTestStore(t)

	events := []PlayEvent{
		playAt("a", time.Date(2024, time.October, 1, 9, 0, 0, 0, time.UTC), 60000),
		playAt("a", time.Date(2024, time.October, 2, 9, 0, 0, 0, time.UTC), 60000),
		playAt("b", time.Date(2024, time.November, 1, 9, 0, 0, 0, time.UTC), 60000),
	}

	months, err := store.ImportHistory(events)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if months != 2 {
		t.Fatalf("expected 2 months written, got %d", months)
	}

	snap, err := store.Snapshot()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.History == nil {
		t.Fatal("snapshot should carry history after an import")
	}
	if top := snap.History.TopTracks(2024, time.October); len(top) != 1 || top[0] != "a" {
		t.Errorf("october top tracks wrong: %v", top)
	}
	if first := snap.History.FirstPlays(2024, time.November); len(first) != 1 || first[0] != "b" {
		t.Errorf("november discoveries wrong: %v", first)
	}

	// Re-import replaces the touched months instead of stacking rows.
	if _, err := store.ImportHistory(events[:2]); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	snap, err = store.Snapshot()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if top := snap.History.TopTracks(2024, time.October); len(top) != 1 {
		t.Errorf("re-import should replace october rows, got %v", top)
	}
}
