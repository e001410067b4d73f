package spotify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/zmb3/spotify/v2"

	"curator/internal/catalog"
	"curator/internal/shared"
)

// FetchLikedTracks pulls the user's full liked-songs library and resolves
// each track's primary-artist genre labels. Labels are stored as the
// platform reports them; classification beyond that is out of scope here,
// and unlabeled tracks get the Other fallback when the snapshot is loaded.
func (c *Client) FetchLikedTracks(ctx context.Context) ([]catalog.Track, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	page, err := c.api.CurrentUsersTracks(ctx, spotify.Limit(pageLimit))
	if err != nil {
		return nil, fmt.Errorf("%w: fetching liked songs: %v", shared.ErrAPIRequest, err)
	}

	var tracks []catalog.Track
	var artistIDs []spotify.ID
	seenArtists := make(map[spotify.ID]bool)
	primaryArtist := make(map[catalog.TrackID]spotify.ID)

	for {
		for _, saved := range page.Tracks {
			track := catalog.Track{
				ID:         catalog.TrackID(saved.ID.String()),
				Name:       saved.Name,
				Duration:   int(saved.Duration) / 1000,
				Popularity: int(saved.Popularity),
			}
			if addedAt, err := time.Parse(time.RFC3339, saved.AddedAt); err == nil {
				track.AddedAt = addedAt.UTC()
			}
			if len(saved.Artists) > 0 {
				track.Artist = saved.Artists[0].Name
				primaryArtist[track.ID] = saved.Artists[0].ID
				if !seenArtists[saved.Artists[0].ID] {
					seenArtists[saved.Artists[0].ID] = true
					artistIDs = append(artistIDs, saved.Artists[0].ID)
				}
			}
			tracks = append(tracks, track)
		}

		c.logger.Debug("fetching liked songs", "fetched", len(tracks))

		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		err = c.api.NextPage(ctx, page)
		if errors.Is(err, spotify.ErrNoMorePages) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: paging liked songs: %v", shared.ErrAPIRequest, err)
		}
	}

	genres, err := c.artistGenres(ctx, artistIDs)
	if err != nil {
		return nil, err
	}
	for i := range tracks {
		tracks[i].Genres = genres[primaryArtist[tracks[i].ID]]
	}

	c.logger.Info("fetched liked songs", "tracks", len(tracks), "artists", len(artistIDs))
	return tracks, nil
}

// artistGenres resolves genre labels for the given artists in batches.
func (c *Client) artistGenres(ctx context.Context, ids []spotify.ID) (map[spotify.ID][]string, error) {
	genres := make(map[spotify.ID][]string, len(ids))
	for i := 0; i < len(ids); i += maxArtistsPerRequest {
		end := min(i+maxArtistsPerRequest, len(ids))
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		artists, err := c.api.GetArtists(ctx, ids[i:end]...)
		if err != nil {
			return nil, fmt.Errorf("%w: fetching artists (batch %d-%d): %v", shared.ErrAPIRequest, i+1, end, err)
		}
		for _, artist := range artists {
			if artist == nil {
				continue
			}
			genres[artist.ID] = artist.Genres
		}
	}
	return genres, nil
}
