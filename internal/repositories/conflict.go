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

// ConflictRepository persists the ambiguous-match queue produced by the
// identity resolver. Candidate IDs are stored comma-joined; UUIDs never
// contain commas.
type ConflictRepository struct {
	db *sql.DB
}

// NewConflictRepository creates a new ConflictRepository with the given database connection
func NewConflictRepository(db *sql.DB) *ConflictRepository {
	return &ConflictRepository{db: db}
}

// Create records an ambiguous match for later manual resolution.
func (r *ConflictRepository) Create(ctx context.Context, conflict *models.IdentityConflict) error {
	if conflict.ID == "" {
		conflict.ID = shared.GenerateID()
	}

	query := `
		INSERT INTO identity_conflicts (id, title, artist, source, track_id, candidate_ids, created_at, resolved_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		conflict.ID,
		conflict.Title,
		conflict.Artist,
		conflict.Source,
		conflict.TrackID,
		strings.Join(conflict.CandidateIDs, ","),
		conflict.CreatedAt,
		nullTime(conflict.ResolvedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert identity conflict: %w", err)
	}

	return nil
}

// Get retrieves a conflict by ID.
func (r *ConflictRepository) Get(ctx context.Context, id string) (*models.IdentityConflict, error) {
	query := `
		SELECT id, title, artist, source, track_id, candidate_ids, created_at, resolved_at
		FROM identity_conflicts
		WHERE id = ?
	`

	conflict, err := scanConflict(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, err
	}
	if conflict == nil {
		return nil, fmt.Errorf("%w: %s", shared.ErrConflictNotFound, id)
	}
	return conflict, nil
}

// ListUnresolved returns pending conflicts, oldest first.
func (r *ConflictRepository) ListUnresolved(ctx context.Context) ([]models.IdentityConflict, error) {
	query := `
		SELECT id, title, artist, source, track_id, candidate_ids, created_at, resolved_at
		FROM identity_conflicts
		WHERE resolved_at IS NULL
		ORDER BY created_at ASC, id ASC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query identity conflicts: %w", err)
	}
	defer rows.Close()

	var conflicts []models.IdentityConflict
	for rows.Next() {
		c, err := scanConflictRow(rows)
		if err != nil {
			return nil, err
		}
		conflicts = append(conflicts, *c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return conflicts, nil
}

// MarkResolved stamps a conflict as manually resolved.
func (r *ConflictRepository) MarkResolved(ctx context.Context, id string, resolvedAt time.Time) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE identity_conflicts SET resolved_at = ? WHERE id = ? AND resolved_at IS NULL", resolvedAt, id)
	if err != nil {
		return fmt.Errorf("failed to resolve conflict: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s (or already resolved)", shared.ErrConflictNotFound, id)
	}
	return nil
}

func scanConflict(row *sql.Row) (*models.IdentityConflict, error) {
	c, err := scanConflictRow(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return c, err
}

func scanConflictRow(s scanner) (*models.IdentityConflict, error) {
	var (
		c          models.IdentityConflict
		candidates string
		resolvedAt sql.NullTime
	)

	err := s.Scan(&c.ID, &c.Title, &c.Artist, &c.Source, &c.TrackID, &candidates, &c.CreatedAt, &resolvedAt)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan identity conflict: %w", err)
	}

	if candidates != "" {
		c.CandidateIDs = strings.Split(candidates, ",")
	}
	if resolvedAt.Valid {
		c.ResolvedAt = resolvedAt.Time
	}

	return &c, nil
}
