package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/mkplaylist/internal/models"
	"github.com/desertthunder/mkplaylist/internal/shared"
)

// trackColumns is the column list every track query selects, in scan order.
const trackColumns = "id, spotify_id, title, artist, album, genre, duration_ms, popularity, added_at, last_played_at, play_count, created_at, updated_at"

// TrackRepository persists canonical tracks and serves the read queries the
// criteria engine executes. It implements identity.Store lookups and
// engine.Library.
type TrackRepository struct {
	db *sql.DB
}

// NewTrackRepository creates a new TrackRepository with the given database connection
func NewTrackRepository(db *sql.DB) *TrackRepository {
	return &TrackRepository{db: db}
}

// Create inserts a new [models.Track]. The normalized identity columns are
// derived here so every write keeps them consistent.
func (r *TrackRepository) Create(ctx context.Context, track *models.Track) error {
	if err := track.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	if track.ID == "" {
		track.ID = shared.GenerateID()
	}

	query := `
		INSERT INTO tracks (id, spotify_id, title, artist, album, genre, duration_ms, popularity,
			normalized_key, normalized_artist, added_at, last_played_at, play_count, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		track.ID,
		nullString(track.SpotifyID),
		track.Title,
		track.Artist,
		nullString(track.Album),
		nullString(track.Genre),
		track.DurationMS,
		track.Popularity,
		shared.NormalizeTrackKey(track.Title, track.Artist),
		shared.NormalizeText(track.Artist),
		track.AddedAt,
		nullTime(track.LastPlayedAt),
		track.PlayCount,
		track.CreatedAt,
		track.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert track: %w", err)
	}

	return nil
}

// Update modifies an existing track. AddedAt is deliberately excluded: it is
// set once at creation and never changes.
func (r *TrackRepository) Update(ctx context.Context, track *models.Track) error {
	if err := track.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		UPDATE tracks
		SET spotify_id = ?, title = ?, artist = ?, album = ?, genre = ?, duration_ms = ?, popularity = ?,
			normalized_key = ?, normalized_artist = ?, last_played_at = ?, play_count = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, query,
		nullString(track.SpotifyID),
		track.Title,
		track.Artist,
		nullString(track.Album),
		nullString(track.Genre),
		track.DurationMS,
		track.Popularity,
		shared.NormalizeTrackKey(track.Title, track.Artist),
		shared.NormalizeText(track.Artist),
		nullTime(track.LastPlayedAt),
		track.PlayCount,
		track.UpdatedAt,
		track.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update track: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrTrackNotFound, track.ID)
	}

	return nil
}

// Get retrieves a track by internal ID.
func (r *TrackRepository) Get(ctx context.Context, id string) (*models.Track, error) {
	query := "SELECT " + trackColumns + " FROM tracks WHERE id = ?"

	track, err := scanTrack(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, err
	}
	if track == nil {
		return nil, fmt.Errorf("%w: %s", shared.ErrTrackNotFound, id)
	}
	return track, nil
}

// Delete removes a track permanently. Used when merging a duplicate created
// by an ambiguous match into its canonical record.
func (r *TrackRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM tracks WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete track: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrTrackNotFound, id)
	}
	return nil
}

// TrackBySpotifyID looks up a track by its Spotify ID. Returns (nil, nil)
// when absent.
func (r *TrackRepository) TrackBySpotifyID(ctx context.Context, spotifyID string) (*models.Track, error) {
	query := "SELECT " + trackColumns + " FROM tracks WHERE spotify_id = ?"
	return scanTrack(r.db.QueryRowContext(ctx, query, spotifyID))
}

// TrackByNormalizedKey looks up a track by its normalized (artist, title)
// key. Returns (nil, nil) when absent.
func (r *TrackRepository) TrackByNormalizedKey(ctx context.Context, key string) (*models.Track, error) {
	query := "SELECT " + trackColumns + " FROM tracks WHERE normalized_key = ? ORDER BY created_at ASC LIMIT 1"
	return scanTrack(r.db.QueryRowContext(ctx, query, key))
}

// TracksByNormalizedArtist returns all fuzzy-match candidates sharing a
// normalized artist.
func (r *TrackRepository) TracksByNormalizedArtist(ctx context.Context, normalizedArtist string) ([]models.Track, error) {
	query := "SELECT " + trackColumns + " FROM tracks WHERE normalized_artist = ? ORDER BY id ASC"
	return r.queryTracks(ctx, query, normalizedArtist)
}

// TracksByIDs returns the named tracks keyed by ID. Missing IDs are simply
// absent from the result.
func (r *TrackRepository) TracksByIDs(ctx context.Context, ids []string) (map[string]models.Track, error) {
	out := make(map[string]models.Track, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]
	query := "SELECT " + trackColumns + " FROM tracks WHERE id IN (" + placeholders + ")"

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	tracks, err := r.queryTracks(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	for _, t := range tracks {
		out[t.ID] = t
	}
	return out, nil
}

// TracksMissingGenre returns tracks without a genre tag, oldest first. Used
// by the genre backfill to batch Last.fm tag lookups.
func (r *TrackRepository) TracksMissingGenre(ctx context.Context, limit int) ([]models.Track, error) {
	query := "SELECT " + trackColumns + ` FROM tracks
		WHERE genre IS NULL OR genre = ''
		ORDER BY created_at ASC, id ASC` + limitSuffix(limit)
	return r.queryTracks(ctx, query)
}

// Count returns the number of canonical tracks in the store.
func (r *TrackRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM tracks").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count tracks: %w", err)
	}
	return n, nil
}

// RecentlyAdded implements engine.Library.
func (r *TrackRepository) RecentlyAdded(ctx context.Context, limit int) ([]models.Track, error) {
	query := "SELECT " + trackColumns + " FROM tracks ORDER BY added_at DESC, id ASC" + limitSuffix(limit)
	return r.queryTracks(ctx, query)
}

// RecentlyPlayed implements engine.Library.
func (r *TrackRepository) RecentlyPlayed(ctx context.Context, limit int) ([]models.Track, error) {
	query := "SELECT " + trackColumns + ` FROM tracks
		WHERE play_count > 0 AND last_played_at IS NOT NULL
		ORDER BY last_played_at DESC, id ASC` + limitSuffix(limit)
	return r.queryTracks(ctx, query)
}

// MostPlayed implements engine.Library.
func (r *TrackRepository) MostPlayed(ctx context.Context, limit int) ([]models.Track, error) {
	query := "SELECT " + trackColumns + ` FROM tracks
		WHERE play_count > 0
		ORDER BY play_count DESC, added_at DESC, id ASC` + limitSuffix(limit)
	return r.queryTracks(ctx, query)
}

// TracksByArtist implements engine.Library. Matching is case-insensitive.
func (r *TrackRepository) TracksByArtist(ctx context.Context, artist string) ([]models.Track, error) {
	query := "SELECT " + trackColumns + " FROM tracks WHERE artist = ? COLLATE NOCASE ORDER BY added_at DESC, id ASC"
	return r.queryTracks(ctx, query, artist)
}

// TracksByAlbum implements engine.Library.
func (r *TrackRepository) TracksByAlbum(ctx context.Context, album string) ([]models.Track, error) {
	query := "SELECT " + trackColumns + " FROM tracks WHERE album = ? COLLATE NOCASE ORDER BY added_at DESC, id ASC"
	return r.queryTracks(ctx, query, album)
}

// TracksByGenre implements engine.Library.
func (r *TrackRepository) TracksByGenre(ctx context.Context, genre string) ([]models.Track, error) {
	query := "SELECT " + trackColumns + " FROM tracks WHERE genre = ? COLLATE NOCASE ORDER BY added_at DESC, id ASC"
	return r.queryTracks(ctx, query, genre)
}

// TracksAddedSince implements engine.Library.
func (r *TrackRepository) TracksAddedSince(ctx context.Context, since time.Time) ([]models.Track, error) {
	query := "SELECT " + trackColumns + " FROM tracks WHERE added_at >= ? ORDER BY added_at DESC, id ASC"
	return r.queryTracks(ctx, query, since)
}

// TracksAddedBefore implements engine.Library.
func (r *TrackRepository) TracksAddedBefore(ctx context.Context, before time.Time) ([]models.Track, error) {
	query := "SELECT " + trackColumns + " FROM tracks WHERE added_at < ? ORDER BY added_at DESC, id ASC"
	return r.queryTracks(ctx, query, before)
}

// TracksPlayedSince implements engine.Library. Ordering follows the latest
// qualifying play, not the track's overall last_played_at.
func (r *TrackRepository) TracksPlayedSince(ctx context.Context, since time.Time) ([]models.Track, error) {
	query := `
		SELECT t.id, t.spotify_id, t.title, t.artist, t.album, t.genre, t.duration_ms, t.popularity,
			t.added_at, t.last_played_at, t.play_count, t.created_at, t.updated_at
		FROM tracks t
		JOIN play_events e ON e.track_id = t.id
		WHERE e.played_at >= ?
		GROUP BY t.id
		ORDER BY MAX(e.played_at) DESC, t.id ASC
	`
	return r.queryTracks(ctx, query, since)
}

// queryTracks runs a multi-row track query and scans the results.
func (r *TrackRepository) queryTracks(ctx context.Context, query string, args ...any) ([]models.Track, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tracks: %w", err)
	}
	defer rows.Close()

	var tracks []models.Track
	for rows.Next() {
		track, err := scanTrackRow(rows)
		if err != nil {
			return nil, err
		}
		tracks = append(tracks, *track)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return tracks, nil
}

// limitSuffix renders a LIMIT clause; 0 or less means unbounded.
func limitSuffix(limit int) string {
	if limit > 0 {
		return fmt.Sprintf(" LIMIT %d", limit)
	}
	return ""
}

// scanner abstracts *sql.Row and *sql.Rows for the shared scan helpers.
type scanner interface {
	Scan(dest ...any) error
}

// scanTrack scans a single row, translating sql.ErrNoRows to (nil, nil).
func scanTrack(row *sql.Row) (*models.Track, error) {
	track, err := scanTrackRow(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return track, err
}

func scanTrackRow(s scanner) (*models.Track, error) {
	var (
		track        models.Track
		spotifyID    sql.NullString
		album        sql.NullString
		genre        sql.NullString
		lastPlayedAt sql.NullTime
	)

	err := s.Scan(
		&track.ID,
		&spotifyID,
		&track.Title,
		&track.Artist,
		&album,
		&genre,
		&track.DurationMS,
		&track.Popularity,
		&track.AddedAt,
		&lastPlayedAt,
		&track.PlayCount,
		&track.CreatedAt,
		&track.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan track: %w", err)
	}

	track.SpotifyID = spotifyID.String
	track.Album = album.String
	track.Genre = genre.String
	if lastPlayedAt.Valid {
		track.LastPlayedAt = lastPlayedAt.Time
	}

	return &track, nil
}

// nullString maps "" to NULL so UNIQUE columns tolerate absent values.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// nullTime maps the zero time to NULL.
func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}
