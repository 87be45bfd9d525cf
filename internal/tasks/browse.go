package tasks

import (
	"context"
	"sort"

	"github.com/desertthunder/mkplaylist/internal/models"
)

// browseListStore is what the browser needs from the playlist repository.
type browseListStore interface {
	List(ctx context.Context) ([]models.Playlist, error)
	Entries(ctx context.Context, playlistID string) ([]models.PlaylistEntry, error)
}

// browseTrackStore is what the browser needs from the track repository.
type browseTrackStore interface {
	Get(ctx context.Context, id string) (*models.Track, error)
	TracksByIDs(ctx context.Context, ids []string) (map[string]models.Track, error)
}

// Browser reads the local mirror for display. It backs the TUI and the
// read-only CLI commands; nothing here mutates state.
type Browser struct {
	lists  browseListStore
	tracks browseTrackStore
}

// NewBrowser creates a Browser over the local mirror.
func NewBrowser(lists browseListStore, tracks browseTrackStore) *Browser {
	return &Browser{lists: lists, tracks: tracks}
}

// Playlists lists all mirrored playlists.
func (b *Browser) Playlists(ctx context.Context) ([]models.Playlist, error) {
	return b.lists.List(ctx)
}

// PlaylistTracks returns a playlist's tracks in position order. Entries whose
// track no longer exists are skipped.
func (b *Browser) PlaylistTracks(ctx context.Context, playlistID string) ([]models.Track, error) {
	entries, err := b.lists.Entries(ctx, playlistID)
	if err != nil {
		return nil, err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Position < entries[j].Position })

	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.TrackID)
	}

	byID, err := b.tracks.TracksByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	tracks := make([]models.Track, 0, len(entries))
	for _, e := range entries {
		if track, ok := byID[e.TrackID]; ok {
			tracks = append(tracks, track)
		}
	}
	return tracks, nil
}

// ConflictCandidates loads the duplicate track a conflict was recorded for
// along with its candidate tracks. Candidates that have since been deleted
// (for example by an earlier merge) are skipped.
func (b *Browser) ConflictCandidates(ctx context.Context, conflict models.IdentityConflict) (*models.Track, []models.Track, error) {
	duplicate, err := b.tracks.Get(ctx, conflict.TrackID)
	if err != nil {
		return nil, nil, err
	}

	byID, err := b.tracks.TracksByIDs(ctx, conflict.CandidateIDs)
	if err != nil {
		return nil, nil, err
	}

	candidates := make([]models.Track, 0, len(conflict.CandidateIDs))
	for _, id := range conflict.CandidateIDs {
		if track, ok := byID[id]; ok {
			candidates = append(candidates, track)
		}
	}
	return duplicate, candidates, nil
}
