package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/mkplaylist/internal/criteria"
	"github.com/desertthunder/mkplaylist/internal/models"
)

// Library is the read interface the executor evaluates clauses against.
//
// Every method returns tracks most-relevant first with ties broken by track
// id ascending, so execution is deterministic for a given store snapshot.
// A limit of 0 or less means unbounded.
type Library interface {
	// RecentlyAdded returns tracks ordered by added_at descending.
	RecentlyAdded(ctx context.Context, limit int) ([]models.Track, error)

	// RecentlyPlayed returns tracks with at least one play, ordered by
	// last_played_at descending.
	RecentlyPlayed(ctx context.Context, limit int) ([]models.Track, error)

	// MostPlayed returns tracks with play_count > 0 ordered by play_count
	// descending, ties broken by added_at descending.
	MostPlayed(ctx context.Context, limit int) ([]models.Track, error)

	// TracksByArtist matches the artist case-insensitively, ordered by
	// added_at descending.
	TracksByArtist(ctx context.Context, artist string) ([]models.Track, error)

	// TracksByAlbum matches the album case-insensitively, ordered by
	// added_at descending.
	TracksByAlbum(ctx context.Context, album string) ([]models.Track, error)

	// TracksByGenre matches the genre tag case-insensitively, ordered by
	// added_at descending.
	TracksByGenre(ctx context.Context, genre string) ([]models.Track, error)

	// TracksAddedSince returns tracks with added_at >= since, ordered by
	// added_at descending.
	TracksAddedSince(ctx context.Context, since time.Time) ([]models.Track, error)

	// TracksAddedBefore returns tracks with added_at < before, ordered by
	// added_at descending.
	TracksAddedBefore(ctx context.Context, before time.Time) ([]models.Track, error)

	// TracksPlayedSince returns tracks with at least one play at or after
	// since, ordered by the latest qualifying play descending.
	TracksPlayedSince(ctx context.Context, since time.Time) ([]models.Track, error)
}

// clauseHandler evaluates one clause kind against the library.
type clauseHandler func(ctx context.Context, lib Library, c criteria.Clause, now time.Time) ([]models.Track, error)

// Executor evaluates parsed clauses against a Library.
//
// Handlers are wired through an explicit kind -> handler table built at
// construction, so the supported clause set is visible in one place.
type Executor struct {
	lib      Library
	now      func() time.Time
	handlers map[criteria.Kind]clauseHandler
}

// NewExecutor creates an Executor over the given library. The now function
// anchors the *-within-days windows and defaults to [time.Now].
func NewExecutor(lib Library, now func() time.Time) *Executor {
	if now == nil {
		now = time.Now
	}

	e := &Executor{lib: lib, now: now}
	e.handlers = map[criteria.Kind]clauseHandler{
		criteria.RecentlyAdded:    execRecentlyAdded,
		criteria.RecentlyPlayed:   execRecentlyPlayed,
		criteria.MostPlayed:       execMostPlayed,
		criteria.ByArtist:         execByArtist,
		criteria.FromAlbum:        execByAlbum,
		criteria.InGenre:          execByGenre,
		criteria.AddedWithinDays:  execAddedWithin,
		criteria.PlayedWithinDays: execPlayedWithin,
	}
	return e
}

// Execute evaluates one clause and returns its ordered, duplicate-free track
// sequence. A clause matching zero tracks returns an empty sequence, not an
// error.
func (e *Executor) Execute(ctx context.Context, c criteria.Clause) ([]models.Track, error) {
	handler, ok := e.handlers[c.Kind]
	if !ok {
		return nil, fmt.Errorf("no handler registered for clause kind %q", c.Kind)
	}

	// An explicit count of zero selects nothing; skip the store round trip.
	if c.HasLimit && c.Limit == 0 {
		return nil, nil
	}

	tracks, err := handler(ctx, e.lib, c, e.now())
	if err != nil {
		return nil, fmt.Errorf("clause %q: %w", c.Kind, err)
	}
	return tracks, nil
}

// ExecuteQuery evaluates every clause of a query in order and returns the
// per-clause sequences, ready for composition.
func (e *Executor) ExecuteQuery(ctx context.Context, q criteria.Query) ([][]models.Track, error) {
	results := make([][]models.Track, 0, len(q.Clauses))
	for _, c := range q.Clauses {
		tracks, err := e.Execute(ctx, c)
		if err != nil {
			return nil, err
		}
		results = append(results, tracks)
	}
	return results, nil
}

func clauseLimit(c criteria.Clause) int {
	if c.HasLimit {
		return c.Limit
	}
	return 0
}

func execRecentlyAdded(ctx context.Context, lib Library, c criteria.Clause, _ time.Time) ([]models.Track, error) {
	return lib.RecentlyAdded(ctx, clauseLimit(c))
}

func execRecentlyPlayed(ctx context.Context, lib Library, c criteria.Clause, _ time.Time) ([]models.Track, error) {
	return lib.RecentlyPlayed(ctx, clauseLimit(c))
}

func execMostPlayed(ctx context.Context, lib Library, c criteria.Clause, _ time.Time) ([]models.Track, error) {
	return lib.MostPlayed(ctx, clauseLimit(c))
}

func execByArtist(ctx context.Context, lib Library, c criteria.Clause, _ time.Time) ([]models.Track, error) {
	return lib.TracksByArtist(ctx, c.Param)
}

func execByAlbum(ctx context.Context, lib Library, c criteria.Clause, _ time.Time) ([]models.Track, error) {
	return lib.TracksByAlbum(ctx, c.Param)
}

func execByGenre(ctx context.Context, lib Library, c criteria.Clause, _ time.Time) ([]models.Track, error) {
	return lib.TracksByGenre(ctx, c.Param)
}

func execAddedWithin(ctx context.Context, lib Library, c criteria.Clause, now time.Time) ([]models.Track, error) {
	cutoff := now.AddDate(0, 0, -c.Days)
	if c.OlderThan {
		return lib.TracksAddedBefore(ctx, cutoff)
	}
	return lib.TracksAddedSince(ctx, cutoff)
}

func execPlayedWithin(ctx context.Context, lib Library, c criteria.Clause, now time.Time) ([]models.Track, error) {
	return lib.TracksPlayedSince(ctx, now.AddDate(0, 0, -c.Days))
}
