package identity

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mkplaylist/internal/models"
	"github.com/desertthunder/mkplaylist/internal/shared"
)

// SimilarityThreshold is the minimum normalized Levenshtein title similarity
// for a fuzzy match. Fuzzy matching additionally requires an exact normalized
// artist match and only runs when no normalized-key match exists.
const SimilarityThreshold = 0.85

// Store is the persistence surface the resolver needs. Lookup methods return
// (nil, nil) when no record exists.
type Store interface {
	TrackBySpotifyID(ctx context.Context, spotifyID string) (*models.Track, error)
	TrackByNormalizedKey(ctx context.Context, key string) (*models.Track, error)
	TracksByNormalizedArtist(ctx context.Context, normalizedArtist string) ([]models.Track, error)
	CreateTrack(ctx context.Context, track *models.Track) error
	UpdateTrack(ctx context.Context, track *models.Track) error
	CreatePlayEvent(ctx context.Context, event *models.PlayEvent) error
	CreateConflict(ctx context.Context, conflict *models.IdentityConflict) error
}

// Rejection reports a malformed descriptor that was skipped. Rejections are
// per-descriptor and never fatal to a batch.
type Rejection struct {
	Title  string
	Artist string
	Reason string
}

// BatchResult summarizes one resolution batch.
type BatchResult struct {
	Created     int // New canonical tracks
	Updated     int // Existing tracks refreshed with catalog metadata
	Matched     int // Play descriptors attached to existing tracks
	EventsAdded int // Play events appended
	Rejected    []Rejection
	Conflicts   []models.IdentityConflict
}

// Resolver merges track observations from the catalog and history sources
// into canonical Track records.
//
// Matching policy, first success wins: exact Spotify ID, normalized
// (artist, title) key, fuzzy title match with exact normalized artist.
// Ambiguous fuzzy matches are recorded as conflicts and the descriptor is
// treated as unmatched until resolved manually.
type Resolver struct {
	store  Store
	logger *log.Logger
	now    func() time.Time
}

// NewResolver creates a Resolver. The now function defaults to [time.Now].
func NewResolver(store Store, logger *log.Logger, now func() time.Time) *Resolver {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	if now == nil {
		now = time.Now
	}
	return &Resolver{store: store, logger: logger, now: now}
}

// ResolveCatalog processes a batch of catalog-sourced descriptors, creating
// or refreshing canonical tracks. Resolving the same descriptor twice yields
// the same track and never duplicates it.
func (r *Resolver) ResolveCatalog(ctx context.Context, batch []models.CatalogDescriptor) (*BatchResult, error) {
	result := &BatchResult{}

	for _, d := range batch {
		if d.Title == "" || d.Artist == "" {
			result.Rejected = append(result.Rejected, Rejection{Title: d.Title, Artist: d.Artist, Reason: "missing title or artist"})
			r.logger.Warn("rejected catalog descriptor", "title", d.Title, "artist", d.Artist)
			continue
		}

		match, err := r.match(ctx, d.ExternalID, d.Title, d.Artist)
		if err != nil {
			return nil, fmt.Errorf("failed to match %q by %q: %w", d.Title, d.Artist, err)
		}

		if match.track != nil {
			r.refresh(match.track, d)
			if err := r.store.UpdateTrack(ctx, match.track); err != nil {
				return nil, fmt.Errorf("failed to update track %s: %w", match.track.ID, err)
			}
			result.Updated++
			continue
		}

		track, err := r.createTrack(ctx, d)
		if err != nil {
			return nil, err
		}
		result.Created++

		if len(match.ambiguous) > 0 {
			conflict, err := r.recordConflict(ctx, track, d.Title, d.Artist, "spotify", match.ambiguous)
			if err != nil {
				return nil, err
			}
			result.Conflicts = append(result.Conflicts, *conflict)
		}
	}

	return result, nil
}

// ResolveHistory processes a batch of play descriptors, attaching play events
// to matched tracks and creating tracks for unmatched plays. PlayCount and
// LastPlayedAt update on every attached event; LastPlayedAt only ever
// advances.
func (r *Resolver) ResolveHistory(ctx context.Context, batch []models.PlayDescriptor) (*BatchResult, error) {
	result := &BatchResult{}

	for _, d := range batch {
		if d.Title == "" || d.Artist == "" {
			result.Rejected = append(result.Rejected, Rejection{Title: d.Title, Artist: d.Artist, Reason: "missing title or artist"})
			r.logger.Warn("rejected play descriptor", "title", d.Title, "artist", d.Artist)
			continue
		}
		if d.PlayedAt.IsZero() {
			result.Rejected = append(result.Rejected, Rejection{Title: d.Title, Artist: d.Artist, Reason: "missing play timestamp"})
			continue
		}

		match, err := r.match(ctx, d.ExternalID, d.Title, d.Artist)
		if err != nil {
			return nil, fmt.Errorf("failed to match %q by %q: %w", d.Title, d.Artist, err)
		}

		track := match.track
		if track != nil {
			result.Matched++
		} else {
			track, err = r.createTrack(ctx, models.CatalogDescriptor{
				Title:      d.Title,
				Artist:     d.Artist,
				Album:      d.Album,
				ObservedAt: d.PlayedAt,
			})
			if err != nil {
				return nil, err
			}
			result.Created++

			if len(match.ambiguous) > 0 {
				conflict, err := r.recordConflict(ctx, track, d.Title, d.Artist, d.Source, match.ambiguous)
				if err != nil {
					return nil, err
				}
				result.Conflicts = append(result.Conflicts, *conflict)
			}
		}

		if err := r.attachPlay(ctx, track, d); err != nil {
			return nil, err
		}
		result.EventsAdded++
	}

	return result, nil
}

// matchResult carries either the matched track or, for ambiguous fuzzy
// matches, the candidate ids that tied.
type matchResult struct {
	track     *models.Track
	ambiguous []string
}

// match applies the matching policy in order and stops at the first success.
func (r *Resolver) match(ctx context.Context, externalID, title, artist string) (matchResult, error) {
	if externalID != "" {
		track, err := r.store.TrackBySpotifyID(ctx, externalID)
		if err != nil {
			return matchResult{}, err
		}
		if track != nil {
			return matchResult{track: track}, nil
		}
	}

	key := shared.NormalizeTrackKey(title, artist)
	track, err := r.store.TrackByNormalizedKey(ctx, key)
	if err != nil {
		return matchResult{}, err
	}
	if track != nil {
		return matchResult{track: track}, nil
	}

	return r.fuzzyMatch(ctx, title, artist)
}

// fuzzyMatch scores the titles of all tracks sharing the normalized artist.
// One candidate at or above the threshold is a match; more than one is
// ambiguous and matches nothing.
func (r *Resolver) fuzzyMatch(ctx context.Context, title, artist string) (matchResult, error) {
	candidates, err := r.store.TracksByNormalizedArtist(ctx, shared.NormalizeText(artist))
	if err != nil {
		return matchResult{}, err
	}

	normTitle := shared.NormalizeText(title)
	var hits []models.Track

	for _, c := range candidates {
		if Similarity(normTitle, shared.NormalizeText(c.Title)) >= SimilarityThreshold {
			hits = append(hits, c)
		}
	}

	switch len(hits) {
	case 0:
		return matchResult{}, nil
	case 1:
		track := hits[0]
		return matchResult{track: &track}, nil
	default:
		ids := make([]string, len(hits))
		for i, h := range hits {
			ids[i] = h.ID
		}
		r.logger.Warn("ambiguous fuzzy match", "title", title, "artist", artist, "candidates", len(ids))
		return matchResult{ambiguous: ids}, nil
	}
}

// refresh updates catalog metadata on an existing track. AddedAt is set once
// at creation and never changes here.
func (r *Resolver) refresh(track *models.Track, d models.CatalogDescriptor) {
	track.Title = d.Title
	track.Artist = d.Artist
	if d.Album != "" {
		track.Album = d.Album
	}
	if d.Genre != "" {
		track.Genre = d.Genre
	}
	if d.DurationMS > 0 {
		track.DurationMS = d.DurationMS
	}
	track.Popularity = d.Popularity
	if track.SpotifyID == "" && d.ExternalID != "" {
		track.SpotifyID = d.ExternalID
	}
	track.UpdatedAt = r.now()
}

// createTrack creates a canonical track from its first observation. AddedAt
// comes from the source's observation time, falling back to now.
func (r *Resolver) createTrack(ctx context.Context, d models.CatalogDescriptor) (*models.Track, error) {
	now := r.now()
	addedAt := d.ObservedAt
	if addedAt.IsZero() {
		addedAt = now
	}

	track := &models.Track{
		ID:         shared.GenerateID(),
		SpotifyID:  d.ExternalID,
		Title:      d.Title,
		Artist:     d.Artist,
		Album:      d.Album,
		Genre:      d.Genre,
		DurationMS: d.DurationMS,
		Popularity: d.Popularity,
		AddedAt:    addedAt,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := r.store.CreateTrack(ctx, track); err != nil {
		return nil, fmt.Errorf("failed to create track %q: %w", d.Title, err)
	}
	return track, nil
}

// attachPlay appends a play event and folds it into the track's aggregates.
func (r *Resolver) attachPlay(ctx context.Context, track *models.Track, d models.PlayDescriptor) error {
	source := d.Source
	if source == "" {
		source = "lastfm"
	}

	event := &models.PlayEvent{
		ID:        shared.GenerateID(),
		TrackID:   track.ID,
		PlayedAt:  d.PlayedAt,
		Source:    source,
		CreatedAt: r.now(),
	}
	if err := r.store.CreatePlayEvent(ctx, event); err != nil {
		return fmt.Errorf("failed to record play event for %s: %w", track.ID, err)
	}

	track.PlayCount++
	if d.PlayedAt.After(track.LastPlayedAt) {
		track.LastPlayedAt = d.PlayedAt
	}
	track.UpdatedAt = r.now()

	if err := r.store.UpdateTrack(ctx, track); err != nil {
		return fmt.Errorf("failed to update play aggregates for %s: %w", track.ID, err)
	}
	return nil
}

// recordConflict persists an ambiguous-match record tied to the track created
// for the unmatched descriptor.
func (r *Resolver) recordConflict(ctx context.Context, track *models.Track, title, artist, source string, candidates []string) (*models.IdentityConflict, error) {
	conflict := &models.IdentityConflict{
		ID:           shared.GenerateID(),
		Title:        title,
		Artist:       artist,
		Source:       source,
		TrackID:      track.ID,
		CandidateIDs: candidates,
		CreatedAt:    r.now(),
	}
	if err := r.store.CreateConflict(ctx, conflict); err != nil {
		return nil, fmt.Errorf("failed to record identity conflict for %q: %w", title, err)
	}
	return conflict, nil
}
