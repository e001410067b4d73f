// package spotify implements the remote playlist platform boundary on the
// Spotify Web API.
//
// The reconciler and guard treat every method as an atomic call; chunking
// of large track lists, pagination, and rate limiting all live here.
package spotify

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/zmb3/spotify/v2"
	"golang.org/x/time/rate"

	"curator/internal/catalog"
	"curator/internal/reconcile"
	"curator/internal/shared"
)

const (
	maxTracksPerRequest  = 100
	maxArtistsPerRequest = 50
	pageLimit            = 50
	defaultRateLimit     = 5.0 // requests per second
)

// Client wraps an authenticated zmb3 Spotify client and implements the
// reconcile.Platform and guard.Platform interfaces.
type Client struct {
	api     *spotify.Client
	limiter *rate.Limiter
	logger  *log.Logger
	userID  string
}

// NewClient creates a Client. The underlying API client must already be
// authenticated. The logger may be nil.
func NewClient(api *spotify.Client, logger *log.Logger) *Client {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Client{
		api:     api,
		limiter: rate.NewLimiter(rate.Limit(defaultRateLimit), 1),
		logger:  logger,
	}
}

// UserID returns the current user's Spotify id, cached after first use.
func (c *Client) UserID(ctx context.Context) (string, error) {
	if c.userID != "" {
		return c.userID, nil
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}
	user, err := c.api.CurrentUser(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: getting current user: %v", shared.ErrAPIRequest, err)
	}
	c.userID = user.ID
	return c.userID, nil
}

// ListManagedPlaylists returns every playlist owned by the current user,
// with full memberships.
func (c *Client) ListManagedPlaylists(ctx context.Context) ([]reconcile.RemotePlaylist, error) {
	userID, err := c.UserID(ctx)
	if err != nil {
		return nil, err
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	page, err := c.api.CurrentUsersPlaylists(ctx, spotify.Limit(pageLimit))
	if err != nil {
		return nil, fmt.Errorf("%w: listing playlists: %v", shared.ErrAPIRequest, err)
	}

	var playlists []reconcile.RemotePlaylist
	for {
		for _, pl := range page.Playlists {
			if pl.Owner.ID != userID {
				continue
			}
			tracks, err := c.PlaylistTracks(ctx, pl.ID.String())
			if err != nil {
				return nil, err
			}
			playlists = append(playlists, reconcile.RemotePlaylist{
				ID:       pl.ID.String(),
				Name:     pl.Name,
				TrackIDs: tracks,
			})
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		err = c.api.NextPage(ctx, page)
		if errors.Is(err, spotify.ErrNoMorePages) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: paging playlists: %v", shared.ErrAPIRequest, err)
		}
	}

	c.logger.Debug("fetched remote roster", "playlists", len(playlists))
	return playlists, nil
}

// CreatePlaylist creates a private playlist and returns its id.
func (c *Client) CreatePlaylist(ctx context.Context, name, description string) (string, error) {
	userID, err := c.UserID(ctx)
	if err != nil {
		return "", err
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}
	playlist, err := c.api.CreatePlaylistForUser(ctx, userID, name, description, false, false)
	if err != nil {
		return "", fmt.Errorf("%w: creating playlist %q: %v", shared.ErrAPIRequest, name, err)
	}
	return playlist.ID.String(), nil
}

// AddTracks appends tracks to a playlist in chunks of 100.
func (c *Client) AddTracks(ctx context.Context, playlistID string, tracks []catalog.TrackID) error {
	ids := toSpotifyIDs(tracks)
	for i := 0; i < len(ids); i += maxTracksPerRequest {
		end := min(i+maxTracksPerRequest, len(ids))
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
		if _, err := c.api.AddTracksToPlaylist(ctx, spotify.ID(playlistID), ids[i:end]...); err != nil {
			return fmt.Errorf("%w: adding tracks (batch %d-%d): %v", shared.ErrAPIRequest, i+1, end, err)
		}
	}
	return nil
}

// RemoveTracks removes all occurrences of the given tracks, in chunks.
func (c *Client) RemoveTracks(ctx context.Context, playlistID string, tracks []catalog.TrackID) error {
	ids := toSpotifyIDs(tracks)
	for i := 0; i < len(ids); i += maxTracksPerRequest {
		end := min(i+maxTracksPerRequest, len(ids))
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
		if _, err := c.api.RemoveTracksFromPlaylist(ctx, spotify.ID(playlistID), ids[i:end]...); err != nil {
			return fmt.Errorf("%w: removing tracks (batch %d-%d): %v", shared.ErrAPIRequest, i+1, end, err)
		}
	}
	return nil
}

// DeletePlaylist unfollows (deletes, for the owner) a playlist.
func (c *Client) DeletePlaylist(ctx context.Context, playlistID string) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	if err := c.api.UnfollowPlaylist(ctx, spotify.ID(playlistID)); err != nil {
		return fmt.Errorf("%w: deleting playlist %s: %v", shared.ErrAPIRequest, playlistID, err)
	}
	return nil
}

// PlaylistTracks returns a playlist's current track ids, fully paged.
func (c *Client) PlaylistTracks(ctx context.Context, playlistID string) ([]catalog.TrackID, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	page, err := c.api.GetPlaylistItems(ctx, spotify.ID(playlistID), spotify.Limit(pageLimit))
	if err != nil {
		return nil, fmt.Errorf("%w: reading playlist %s: %v", shared.ErrAPIRequest, playlistID, err)
	}

	var tracks []catalog.TrackID
	for {
		for _, item := range page.Items {
			if item.Track.Track == nil {
				continue // episodes and local files have no track id
			}
			tracks = append(tracks, catalog.TrackID(item.Track.Track.ID.String()))
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		err = c.api.NextPage(ctx, page)
		if errors.Is(err, spotify.ErrNoMorePages) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: paging playlist %s: %v", shared.ErrAPIRequest, playlistID, err)
		}
	}
	return tracks, nil
}

func toSpotifyIDs(tracks []catalog.TrackID) []spotify.ID {
	ids := make([]spotify.ID, len(tracks))
	for i, t := range tracks {
		ids[i] = spotify.ID(t)
	}
	return ids
}
