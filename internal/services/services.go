// package services defines interfaces for the external music data sources
//
// Spotify (catalog + playlist mutation), Last.fm (listening history)
package services

import (
	"context"
	"time"

	"github.com/desertthunder/mkplaylist/internal/models"
)

// CatalogService is the read side of the catalog source. Implementations
// page through the user's saved tracks and playlists and hand back source
// descriptors for identity resolution.
type CatalogService interface {
	// Authenticate performs OAuth or token authentication with the service.
	Authenticate(ctx context.Context, credentials map[string]string) error

	// SavedTracks retrieves every track in the user's library.
	SavedTracks(ctx context.Context) ([]models.CatalogDescriptor, error)

	// Playlists retrieves all playlists for the authenticated user.
	Playlists(ctx context.Context) ([]models.Playlist, error)

	// PlaylistItems retrieves a playlist's tracks in order. ObservedAt on
	// each descriptor carries the item's added_at.
	PlaylistItems(ctx context.Context, playlistID string) ([]models.CatalogDescriptor, error)

	// Name returns the name of the service (e.g. "Spotify")
	Name() string
}

// PlaylistMutator is the collaborator that applies emitted change-sets to
// the remote service. The criteria engine never calls this directly; the
// build task translates a change-set into these batched operations.
type PlaylistMutator interface {
	// CreatePlaylist creates an empty playlist owned by the current user.
	CreatePlaylist(ctx context.Context, name, description string, public bool) (*models.Playlist, error)

	// AddTracks appends the given track URIs in order.
	AddTracks(ctx context.Context, playlistID string, uris []string) error

	// ReplaceTracks swaps the playlist's full contents for the given URIs.
	ReplaceTracks(ctx context.Context, playlistID string, uris []string) error

	// RemoveTracks removes every occurrence of the given URIs.
	RemoveTracks(ctx context.Context, playlistID string, uris []string) error
}

// HistoryService is the listening-history source.
type HistoryService interface {
	// RecentTracks retrieves play observations for a user within [from, to].
	RecentTracks(ctx context.Context, user string, from, to time.Time) ([]models.PlayDescriptor, error)

	// ArtistTopTag returns the artist's highest-ranked tag, or "" when the
	// service has none. Used to backfill a track's genre.
	ArtistTopTag(ctx context.Context, artist string) (string, error)

	// Name returns the name of the service (e.g. "Last.fm")
	Name() string
}
