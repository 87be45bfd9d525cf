package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/desertthunder/mkplaylist/internal/models"
	"github.com/desertthunder/mkplaylist/internal/shared"
)

// PlayEventRepository persists the append-only play history.
type PlayEventRepository struct {
	db *sql.DB
}

// NewPlayEventRepository creates a new PlayEventRepository with the given database connection
func NewPlayEventRepository(db *sql.DB) *PlayEventRepository {
	return &PlayEventRepository{db: db}
}

// Create appends a play event. Events are immutable once written.
func (r *PlayEventRepository) Create(ctx context.Context, event *models.PlayEvent) error {
	if err := event.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	if event.ID == "" {
		event.ID = shared.GenerateID()
	}

	query := `
		INSERT INTO play_events (id, track_id, played_at, source, created_at)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query, event.ID, event.TrackID, event.PlayedAt, event.Source, event.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert play event: %w", err)
	}

	return nil
}

// ListByTrack returns a track's play events, most recent first.
func (r *PlayEventRepository) ListByTrack(ctx context.Context, trackID string) ([]models.PlayEvent, error) {
	query := `
		SELECT id, track_id, played_at, source, created_at
		FROM play_events
		WHERE track_id = ?
		ORDER BY played_at DESC, id ASC
	`

	rows, err := r.db.QueryContext(ctx, query, trackID)
	if err != nil {
		return nil, fmt.Errorf("failed to query play events: %w", err)
	}
	defer rows.Close()

	var events []models.PlayEvent
	for rows.Next() {
		var e models.PlayEvent
		if err := rows.Scan(&e.ID, &e.TrackID, &e.PlayedAt, &e.Source, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan play event: %w", err)
		}
		events = append(events, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return events, nil
}

// Count returns the total number of play events in the store.
func (r *PlayEventRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM play_events").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count play events: %w", err)
	}
	return n, nil
}

// ReassignTrack moves every play event from one track to another. Used when
// merging a duplicate track during conflict resolution; returns the number
// of moved events.
func (r *PlayEventRepository) ReassignTrack(ctx context.Context, fromTrackID, toTrackID string) (int, error) {
	result, err := r.db.ExecContext(ctx,
		"UPDATE play_events SET track_id = ? WHERE track_id = ?", toTrackID, fromTrackID)
	if err != nil {
		return 0, fmt.Errorf("failed to reassign play events: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return int(rows), nil
}
