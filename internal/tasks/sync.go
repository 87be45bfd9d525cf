package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mkplaylist/internal/identity"
	"github.com/desertthunder/mkplaylist/internal/models"
	"github.com/desertthunder/mkplaylist/internal/services"
	"github.com/desertthunder/mkplaylist/internal/shared"
)

// TrackStore is the track persistence surface the sync engine needs beyond
// what the identity resolver already covers.
type TrackStore interface {
	TrackBySpotifyID(ctx context.Context, spotifyID string) (*models.Track, error)
	TracksMissingGenre(ctx context.Context, limit int) ([]models.Track, error)
	Update(ctx context.Context, track *models.Track) error
}

// PlaylistStore is the local playlist mirror the sync and build engines
// read and write.
type PlaylistStore interface {
	Upsert(ctx context.Context, playlist *models.Playlist) error
	GetByName(ctx context.Context, name string) (*models.Playlist, error)
	Entries(ctx context.Context, playlistID string) ([]models.PlaylistEntry, error)
	ReplaceEntries(ctx context.Context, playlistID string, entries []models.PlaylistEntry) error
}

// SyncResult aggregates the outcome of a full sync run.
type SyncResult struct {
	Catalog   *identity.BatchResult // Saved-track resolution outcome
	History   *identity.BatchResult // Play-history resolution outcome
	Playlists int                   // Playlists mirrored locally
	Genres    int                   // Tracks tagged by the genre backfill
}

// SyncEngine pulls the Spotify catalog and Last.fm history into the local
// store, running every observation through identity resolution. Operations
// emit progress updates via channels for non-blocking status reporting.
type SyncEngine struct {
	catalog  services.CatalogService
	history  services.HistoryService
	resolver *identity.Resolver
	tracks   TrackStore
	lists    PlaylistStore
	logger   *log.Logger
}

// NewSyncEngine creates a SyncEngine with the provided collaborators.
func NewSyncEngine(catalog services.CatalogService, history services.HistoryService, resolver *identity.Resolver, tracks TrackStore, lists PlaylistStore, logger *log.Logger) *SyncEngine {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &SyncEngine{
		catalog:  catalog,
		history:  history,
		resolver: resolver,
		tracks:   tracks,
		lists:    lists,
		logger:   logger,
	}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
		// Sent successfully
	default:
		// Channel full or closed, skip this update
	}
}

// SyncCatalog pulls the user's saved tracks and resolves them into canonical
// track records.
func (e *SyncEngine) SyncCatalog(ctx context.Context, progress chan<- ProgressUpdate) (*identity.BatchResult, error) {
	if e.catalog == nil {
		return nil, fmt.Errorf("%w: catalog service not initialized", shared.ErrServiceUnavailable)
	}

	sendProgress(progress, fetchCatalogUpdate(1, 2))

	descriptors, err := e.catalog.SavedTracks(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch saved tracks: %w", err)
	}

	sendProgress(progress, resolveTracksUpdate(2, 2, len(descriptors)))

	result, err := e.resolver.ResolveCatalog(ctx, descriptors)
	if err != nil {
		return nil, err
	}

	e.logger.Info("catalog sync complete",
		"fetched", len(descriptors),
		"created", result.Created,
		"updated", result.Updated,
		"rejected", len(result.Rejected),
		"conflicts", len(result.Conflicts))
	return result, nil
}

// SyncPlaylists mirrors the user's Spotify playlists locally: playlist rows
// are upserted and membership is replaced with the remote ordering. Items are
// resolved first so every entry references a canonical track.
func (e *SyncEngine) SyncPlaylists(ctx context.Context, progress chan<- ProgressUpdate) (int, error) {
	if e.catalog == nil {
		return 0, fmt.Errorf("%w: catalog service not initialized", shared.ErrServiceUnavailable)
	}

	sendProgress(progress, fetchPlaylistsUpdate(0, 0, ""))

	playlists, err := e.catalog.Playlists(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch playlists: %w", err)
	}

	mirrored := 0
	for i := range playlists {
		pl := &playlists[i]
		sendProgress(progress, fetchPlaylistsUpdate(i+1, len(playlists), pl.Name))

		if err := e.lists.Upsert(ctx, pl); err != nil {
			return mirrored, fmt.Errorf("failed to mirror playlist %q: %w", pl.Name, err)
		}

		items, err := e.catalog.PlaylistItems(ctx, pl.SpotifyID)
		if err != nil {
			return mirrored, fmt.Errorf("failed to fetch items for %q: %w", pl.Name, err)
		}

		if _, err := e.resolver.ResolveCatalog(ctx, items); err != nil {
			return mirrored, err
		}

		entries, err := e.entriesFor(ctx, pl.ID, items)
		if err != nil {
			return mirrored, err
		}
		if err := e.lists.ReplaceEntries(ctx, pl.ID, entries); err != nil {
			return mirrored, fmt.Errorf("failed to store membership for %q: %w", pl.Name, err)
		}
		mirrored++
	}

	return mirrored, nil
}

// entriesFor maps resolved playlist items to membership entries with dense
// 0-based positions. A track appears at most once per playlist; repeated
// items keep their first position.
func (e *SyncEngine) entriesFor(ctx context.Context, playlistID string, items []models.CatalogDescriptor) ([]models.PlaylistEntry, error) {
	entries := make([]models.PlaylistEntry, 0, len(items))
	seen := make(map[string]struct{}, len(items))

	for _, item := range items {
		track, err := e.tracks.TrackBySpotifyID(ctx, item.ExternalID)
		if err != nil {
			return nil, err
		}
		if track == nil {
			// Malformed items are rejected by resolution and never stored.
			continue
		}
		if _, dup := seen[track.ID]; dup {
			continue
		}
		seen[track.ID] = struct{}{}

		entries = append(entries, models.PlaylistEntry{
			PlaylistID: playlistID,
			TrackID:    track.ID,
			Position:   len(entries),
			AddedAt:    item.ObservedAt,
		})
	}
	return entries, nil
}

// SyncHistory pulls recent plays for the user from Last.fm and resolves them,
// appending play events and creating tracks for history-only plays.
func (e *SyncEngine) SyncHistory(ctx context.Context, progress chan<- ProgressUpdate, user string, from, to time.Time) (*identity.BatchResult, error) {
	if e.history == nil {
		return nil, fmt.Errorf("%w: history service not initialized", shared.ErrServiceUnavailable)
	}

	sendProgress(progress, fetchHistoryUpdate(1, 2, user))

	descriptors, err := e.history.RecentTracks(ctx, user, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch listening history: %w", err)
	}

	sendProgress(progress, resolveTracksUpdate(2, 2, len(descriptors)))

	result, err := e.resolver.ResolveHistory(ctx, descriptors)
	if err != nil {
		return nil, err
	}

	e.logger.Info("history sync complete",
		"fetched", len(descriptors),
		"matched", result.Matched,
		"created", result.Created,
		"events", result.EventsAdded,
		"rejected", len(result.Rejected))
	return result, nil
}

// BackfillGenres tags tracks missing a genre using each artist's top Last.fm
// tag. Lookups are batched per artist; artists with no tags are skipped.
func (e *SyncEngine) BackfillGenres(ctx context.Context, progress chan<- ProgressUpdate) (int, error) {
	if e.history == nil {
		return 0, fmt.Errorf("%w: history service not initialized", shared.ErrServiceUnavailable)
	}

	missing, err := e.tracks.TracksMissingGenre(ctx, 0)
	if err != nil {
		return 0, err
	}

	tags := make(map[string]string)
	tagged := 0

	for i, track := range missing {
		tag, known := tags[track.Artist]
		if !known {
			sendProgress(progress, backfillGenresUpdate(i+1, len(missing), track.Artist))

			tag, err = e.history.ArtistTopTag(ctx, track.Artist)
			if err != nil {
				e.logger.Warn("genre lookup failed", "artist", track.Artist, "error", err)
				tag = ""
			}
			tags[track.Artist] = tag
		}

		if tag == "" {
			continue
		}

		track.Genre = tag
		track.UpdatedAt = time.Now()
		if err := e.tracks.Update(ctx, &track); err != nil {
			return tagged, err
		}
		tagged++
	}

	return tagged, nil
}

// SyncAll runs the full pipeline: catalog, playlists, history for the given
// window, then the genre backfill.
func (e *SyncEngine) SyncAll(ctx context.Context, progress chan<- ProgressUpdate, user string, historyDays int) (*SyncResult, error) {
	result := &SyncResult{}

	catalog, err := e.SyncCatalog(ctx, progress)
	if err != nil {
		return nil, err
	}
	result.Catalog = catalog

	mirrored, err := e.SyncPlaylists(ctx, progress)
	if err != nil {
		return nil, err
	}
	result.Playlists = mirrored

	var from time.Time
	if historyDays > 0 {
		from = time.Now().AddDate(0, 0, -historyDays)
	}
	history, err := e.SyncHistory(ctx, progress, user, from, time.Time{})
	if err != nil {
		return nil, err
	}
	result.History = history

	tagged, err := e.BackfillGenres(ctx, progress)
	if err != nil {
		return nil, err
	}
	result.Genres = tagged

	return result, nil
}
