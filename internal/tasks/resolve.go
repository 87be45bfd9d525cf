package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mkplaylist/internal/models"
	"github.com/desertthunder/mkplaylist/internal/shared"
)

// ConflictStore is the persistence surface for the ambiguous-match queue.
type ConflictStore interface {
	Get(ctx context.Context, id string) (*models.IdentityConflict, error)
	ListUnresolved(ctx context.Context) ([]models.IdentityConflict, error)
	MarkResolved(ctx context.Context, id string, resolvedAt time.Time) error
}

// mergeTrackStore is what the merger needs from the track repository.
type mergeTrackStore interface {
	Get(ctx context.Context, id string) (*models.Track, error)
	Update(ctx context.Context, track *models.Track) error
	Delete(ctx context.Context, id string) error
}

// eventStore is what the merger needs from the play-event repository.
type eventStore interface {
	ReassignTrack(ctx context.Context, fromTrackID, toTrackID string) (int, error)
}

// membershipStore removes merged duplicates from playlist mirrors.
type membershipStore interface {
	RemoveTrackEverywhere(ctx context.Context, trackID string) error
}

// MergeResult reports the outcome of one conflict merge.
type MergeResult struct {
	Conflict  *models.IdentityConflict
	Canonical *models.Track
	Moved     int // Play events reassigned to the canonical track
}

// Merger resolves identity conflicts by folding the duplicate track created
// for an ambiguous descriptor into a chosen canonical candidate. Play events
// move over, aggregates are recomputed, and the duplicate is deleted.
type Merger struct {
	conflicts ConflictStore
	tracks    mergeTrackStore
	events    eventStore
	lists     membershipStore
	logger    *log.Logger
	now       func() time.Time
}

// NewMerger creates a Merger. The now function defaults to [time.Now].
func NewMerger(conflicts ConflictStore, tracks mergeTrackStore, events eventStore, lists membershipStore, logger *log.Logger, now func() time.Time) *Merger {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	if now == nil {
		now = time.Now
	}
	return &Merger{
		conflicts: conflicts,
		tracks:    tracks,
		events:    events,
		lists:     lists,
		logger:    logger,
		now:       now,
	}
}

// Pending lists unresolved conflicts, oldest first.
func (m *Merger) Pending(ctx context.Context) ([]models.IdentityConflict, error) {
	return m.conflicts.ListUnresolved(ctx)
}

// Merge resolves one conflict into the chosen canonical track. canonicalID
// must be one of the conflict's recorded candidates; the duplicate created
// for the descriptor is absorbed and deleted.
func (m *Merger) Merge(ctx context.Context, progress chan<- ProgressUpdate, conflictID, canonicalID string) (*MergeResult, error) {
	conflict, err := m.conflicts.Get(ctx, conflictID)
	if err != nil {
		return nil, err
	}
	if conflict.Resolved() {
		return nil, fmt.Errorf("conflict %s is already resolved", conflictID)
	}

	if !contains(conflict.CandidateIDs, canonicalID) {
		return nil, fmt.Errorf("%w: track %s is not a candidate for conflict %s", shared.ErrInvalidArgument, canonicalID, conflictID)
	}

	sendProgress(progress, mergeConflictUpdate(1, 1, conflict.Title))

	canonical, err := m.tracks.Get(ctx, canonicalID)
	if err != nil {
		return nil, err
	}
	duplicate, err := m.tracks.Get(ctx, conflict.TrackID)
	if err != nil {
		return nil, err
	}

	moved, err := m.events.ReassignTrack(ctx, duplicate.ID, canonical.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to move play events: %w", err)
	}

	canonical.PlayCount += duplicate.PlayCount
	if duplicate.LastPlayedAt.After(canonical.LastPlayedAt) {
		canonical.LastPlayedAt = duplicate.LastPlayedAt
	}
	if canonical.SpotifyID == "" && duplicate.SpotifyID != "" {
		canonical.SpotifyID = duplicate.SpotifyID
	}
	canonical.UpdatedAt = m.now()
	if err := m.tracks.Update(ctx, canonical); err != nil {
		return nil, err
	}

	if err := m.lists.RemoveTrackEverywhere(ctx, duplicate.ID); err != nil {
		return nil, err
	}
	if err := m.tracks.Delete(ctx, duplicate.ID); err != nil {
		return nil, err
	}

	if err := m.conflicts.MarkResolved(ctx, conflict.ID, m.now()); err != nil {
		return nil, err
	}
	conflict.ResolvedAt = m.now()

	m.logger.Info("conflict resolved",
		"conflict", conflict.ID,
		"canonical", canonical.ID,
		"events_moved", moved)

	return &MergeResult{Conflict: conflict, Canonical: canonical, Moved: moved}, nil
}

func contains(ids []string, id string) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}
