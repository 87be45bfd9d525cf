package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/mkplaylist/internal/models"
	"github.com/desertthunder/mkplaylist/internal/shared"
)

const playlistColumns = "id, spotify_id, name, description, owner, is_public, is_collaborative, created_at, updated_at"

// PlaylistRepository mirrors Spotify playlists and their membership locally.
// The reconciler diffs against this mirror, so membership is only as fresh
// as the last sync; sequencing sync before create is the caller's job.
type PlaylistRepository struct {
	db *sql.DB
}

// NewPlaylistRepository creates a new PlaylistRepository with the given database connection
func NewPlaylistRepository(db *sql.DB) *PlaylistRepository {
	return &PlaylistRepository{db: db}
}

// Upsert inserts a playlist or refreshes it by Spotify ID.
func (r *PlaylistRepository) Upsert(ctx context.Context, playlist *models.Playlist) error {
	if err := playlist.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	if playlist.SpotifyID != "" {
		existing, err := r.GetBySpotifyID(ctx, playlist.SpotifyID)
		if err != nil {
			return err
		}
		if existing != nil {
			playlist.ID = existing.ID
			playlist.CreatedAt = existing.CreatedAt
			playlist.UpdatedAt = time.Now()

			query := `
				UPDATE playlists
				SET name = ?, description = ?, owner = ?, is_public = ?, is_collaborative = ?, updated_at = ?
				WHERE id = ?
			`
			if _, err := r.db.ExecContext(ctx, query,
				playlist.Name, playlist.Description, playlist.Owner,
				playlist.Public, playlist.Collaborative, playlist.UpdatedAt, playlist.ID); err != nil {
				return fmt.Errorf("failed to update playlist: %w", err)
			}
			return nil
		}
	}

	if playlist.ID == "" {
		playlist.ID = shared.GenerateID()
	}
	now := time.Now()
	if playlist.CreatedAt.IsZero() {
		playlist.CreatedAt = now
	}
	playlist.UpdatedAt = now

	query := `
		INSERT INTO playlists (id, spotify_id, name, description, owner, is_public, is_collaborative, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	if _, err := r.db.ExecContext(ctx, query,
		playlist.ID, nullString(playlist.SpotifyID), playlist.Name, playlist.Description,
		playlist.Owner, playlist.Public, playlist.Collaborative,
		playlist.CreatedAt, playlist.UpdatedAt); err != nil {
		return fmt.Errorf("failed to insert playlist: %w", err)
	}
	return nil
}

// GetBySpotifyID looks up a playlist by Spotify ID. Returns (nil, nil) when absent.
func (r *PlaylistRepository) GetBySpotifyID(ctx context.Context, spotifyID string) (*models.Playlist, error) {
	query := "SELECT " + playlistColumns + " FROM playlists WHERE spotify_id = ?"
	return scanPlaylist(r.db.QueryRowContext(ctx, query, spotifyID))
}

// GetByName looks up a playlist by name. Returns (nil, nil) when absent.
func (r *PlaylistRepository) GetByName(ctx context.Context, name string) (*models.Playlist, error) {
	query := "SELECT " + playlistColumns + " FROM playlists WHERE name = ? ORDER BY created_at ASC LIMIT 1"
	return scanPlaylist(r.db.QueryRowContext(ctx, query, name))
}

// List returns all mirrored playlists ordered by name.
func (r *PlaylistRepository) List(ctx context.Context) ([]models.Playlist, error) {
	query := "SELECT " + playlistColumns + " FROM playlists ORDER BY name ASC, id ASC"

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query playlists: %w", err)
	}
	defer rows.Close()

	var playlists []models.Playlist
	for rows.Next() {
		p, err := scanPlaylistRow(rows)
		if err != nil {
			return nil, err
		}
		playlists = append(playlists, *p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return playlists, nil
}

// Entries returns a playlist's membership ordered by position.
func (r *PlaylistRepository) Entries(ctx context.Context, playlistID string) ([]models.PlaylistEntry, error) {
	query := `
		SELECT playlist_id, track_id, position, added_at
		FROM playlist_tracks
		WHERE playlist_id = ?
		ORDER BY position ASC
	`

	rows, err := r.db.QueryContext(ctx, query, playlistID)
	if err != nil {
		return nil, fmt.Errorf("failed to query playlist entries: %w", err)
	}
	defer rows.Close()

	var entries []models.PlaylistEntry
	for rows.Next() {
		var (
			e       models.PlaylistEntry
			addedAt sql.NullTime
		)
		if err := rows.Scan(&e.PlaylistID, &e.TrackID, &e.Position, &addedAt); err != nil {
			return nil, fmt.Errorf("failed to scan playlist entry: %w", err)
		}
		if addedAt.Valid {
			e.AddedAt = addedAt.Time
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return entries, nil
}

// ReplaceEntries atomically swaps a playlist's membership for the given
// entries. Entries must carry dense 0-based positions.
func (r *PlaylistRepository) ReplaceEntries(ctx context.Context, playlistID string, entries []models.PlaylistEntry) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM playlist_tracks WHERE playlist_id = ?", playlistID); err != nil {
		return fmt.Errorf("failed to clear playlist entries: %w", err)
	}

	insert := `
		INSERT INTO playlist_tracks (playlist_id, track_id, position, added_at)
		VALUES (?, ?, ?, ?)
	`
	for _, e := range entries {
		if _, err := tx.ExecContext(ctx, insert, playlistID, e.TrackID, e.Position, nullTime(e.AddedAt)); err != nil {
			return fmt.Errorf("failed to insert playlist entry at position %d: %w", e.Position, err)
		}
	}

	return tx.Commit()
}

// RemoveTrackEverywhere drops a track from all playlist mirrors. Used when a
// duplicate track is deleted during conflict resolution.
func (r *PlaylistRepository) RemoveTrackEverywhere(ctx context.Context, trackID string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM playlist_tracks WHERE track_id = ?", trackID); err != nil {
		return fmt.Errorf("failed to remove track from playlists: %w", err)
	}
	return nil
}

func scanPlaylist(row *sql.Row) (*models.Playlist, error) {
	p, err := scanPlaylistRow(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return p, err
}

func scanPlaylistRow(s scanner) (*models.Playlist, error) {
	var (
		p           models.Playlist
		spotifyID   sql.NullString
		description sql.NullString
		owner       sql.NullString
	)

	err := s.Scan(&p.ID, &spotifyID, &p.Name, &description, &owner, &p.Public, &p.Collaborative, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan playlist: %w", err)
	}

	p.SpotifyID = spotifyID.String
	p.Description = description.String
	p.Owner = owner.String

	return &p, nil
}
