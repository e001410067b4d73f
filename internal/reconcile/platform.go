package reconcile

import (
	"context"

	"curator/internal/catalog"
)

// RemotePlaylist is one playlist as reported by the remote platform.
type RemotePlaylist struct {
	ID       string
	Name     string
	TrackIDs []catalog.TrackID
}

// Platform is the remote playlist surface the reconciler drives. Every
// call is treated as atomic; chunking of large track lists and retry
// backoff are the implementation's concern.
type Platform interface {
	// ListManagedPlaylists returns the current user's playlists with
	// their full memberships.
	ListManagedPlaylists(ctx context.Context) ([]RemotePlaylist, error)

	// CreatePlaylist creates an empty playlist and returns its id.
	CreatePlaylist(ctx context.Context, name, description string) (string, error)

	// AddTracks appends tracks to a playlist.
	AddTracks(ctx context.Context, playlistID string, tracks []catalog.TrackID) error

	// RemoveTracks removes all occurrences of the given tracks.
	RemoveTracks(ctx context.Context, playlistID string, tracks []catalog.TrackID) error

	// DeletePlaylist deletes (unfollows) a playlist.
	DeletePlaylist(ctx context.Context, playlistID string) error

	// PlaylistTracks re-reads a playlist's current membership.
	PlaylistTracks(ctx context.Context, playlistID string) ([]catalog.TrackID, error)
}
