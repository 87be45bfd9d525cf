package tasks

import (
	"context"

	"github.com/desertthunder/mkplaylist/internal/identity"
	"github.com/desertthunder/mkplaylist/internal/models"
	"github.com/desertthunder/mkplaylist/internal/repositories"
)

// resolverStore stitches the track, play-event, and conflict repositories
// into the single persistence surface the identity resolver works against.
type resolverStore struct {
	tracks    *repositories.TrackRepository
	events    *repositories.PlayEventRepository
	conflicts *repositories.ConflictRepository
}

// NewResolverStore adapts the repositories to [identity.Store].
func NewResolverStore(tracks *repositories.TrackRepository, events *repositories.PlayEventRepository, conflicts *repositories.ConflictRepository) identity.Store {
	return &resolverStore{tracks: tracks, events: events, conflicts: conflicts}
}

func (s *resolverStore) TrackBySpotifyID(ctx context.Context, spotifyID string) (*models.Track, error) {
	return s.tracks.TrackBySpotifyID(ctx, spotifyID)
}

func (s *resolverStore) TrackByNormalizedKey(ctx context.Context, key string) (*models.Track, error) {
	return s.tracks.TrackByNormalizedKey(ctx, key)
}

func (s *resolverStore) TracksByNormalizedArtist(ctx context.Context, normalizedArtist string) ([]models.Track, error) {
	return s.tracks.TracksByNormalizedArtist(ctx, normalizedArtist)
}

func (s *resolverStore) CreateTrack(ctx context.Context, track *models.Track) error {
	return s.tracks.Create(ctx, track)
}

func (s *resolverStore) UpdateTrack(ctx context.Context, track *models.Track) error {
	return s.tracks.Update(ctx, track)
}

func (s *resolverStore) CreatePlayEvent(ctx context.Context, event *models.PlayEvent) error {
	return s.events.Create(ctx, event)
}

func (s *resolverStore) CreateConflict(ctx context.Context, conflict *models.IdentityConflict) error {
	return s.conflicts.Create(ctx, conflict)
}
