package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mkplaylist/internal/criteria"
	"github.com/desertthunder/mkplaylist/internal/engine"
	"github.com/desertthunder/mkplaylist/internal/models"
	"github.com/desertthunder/mkplaylist/internal/services"
	"github.com/desertthunder/mkplaylist/internal/shared"
)

// BuildPlan is the dry-runnable output of the criteria pipeline: the parsed
// query, the composed final list, and the change-set diffed against the local
// playlist mirror. Nothing has touched Spotify yet.
type BuildPlan struct {
	Name        string
	Criteria    string
	Description string // Playlist description; defaults to the criteria text
	Public      bool
	Query       criteria.Query
	Mode        engine.Mode
	Playlist    *models.Playlist // nil when the playlist does not exist yet
	Existing    []models.PlaylistEntry
	Final       []models.Track
	Changes     engine.ChangeSet
}

// BuildResult reports what Apply actually did.
type BuildResult struct {
	Playlist *models.Playlist
	Created  bool           // Playlist was created during this run
	Added    int            // Tracks added on Spotify
	Removed  int            // Tracks removed on Spotify
	Skipped  []models.Track // History-only tracks with no Spotify ID
}

// Builder runs the criteria pipeline end to end: parse, execute, compose,
// reconcile, then translate the emitted change-set into Spotify mutations.
//
// Plan and Apply are split so the CLI can show a dry run without touching the
// remote service. The local mirror is only as fresh as the last sync; callers
// are expected to sync first and to serialize runs against the same playlist.
type Builder struct {
	executor *engine.Executor
	lists    PlaylistStore
	mutator  services.PlaylistMutator
	logger   *log.Logger
	now      func() time.Time
}

// NewBuilder creates a Builder over the given library and collaborators. The
// now function defaults to [time.Now].
func NewBuilder(lib engine.Library, lists PlaylistStore, mutator services.PlaylistMutator, logger *log.Logger, now func() time.Time) *Builder {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	if now == nil {
		now = time.Now
	}
	return &Builder{
		executor: engine.NewExecutor(lib, now),
		lists:    lists,
		mutator:  mutator,
		logger:   logger,
		now:      now,
	}
}

// Plan parses the criteria text, evaluates it against the local library, and
// diffs the composed list against the playlist's mirrored membership. A parse
// failure surfaces the offending fragment and is never applied partially.
func (b *Builder) Plan(ctx context.Context, progress chan<- ProgressUpdate, name, criteriaText, mode string, globalLimit int) (*BuildPlan, error) {
	q, err := criteria.Parse(criteriaText)
	if err != nil {
		return nil, err
	}
	if globalLimit > 0 {
		q.SetLimit(globalLimit)
	}
	sendProgress(progress, parseCriteriaUpdate(len(q.Clauses)))

	m, err := engine.ParseMode(mode)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidFlag, err)
	}

	sendProgress(progress, executeClausesUpdate(1, len(q.Clauses)))
	results, err := b.executor.ExecuteQuery(ctx, q)
	if err != nil {
		return nil, err
	}

	final := engine.Compose(q, results)
	sendProgress(progress, composeTracksUpdate(len(final)))

	playlist, err := b.lists.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}

	var existing []models.PlaylistEntry
	if playlist != nil {
		existing, err = b.lists.Entries(ctx, playlist.ID)
		if err != nil {
			return nil, err
		}
	}

	sendProgress(progress, diffPlaylistUpdate(name))
	changes, err := engine.Reconcile(m, existing, final)
	if err != nil {
		return nil, err
	}

	return &BuildPlan{
		Name:     name,
		Criteria: criteriaText,
		Query:    q,
		Mode:     m,
		Playlist: playlist,
		Existing: existing,
		Final:    final,
		Changes:  changes,
	}, nil
}

// Apply executes a plan against Spotify and persists the resulting membership
// in the local mirror. Tracks without a Spotify ID cannot be pushed and are
// reported as skipped.
func (b *Builder) Apply(ctx context.Context, progress chan<- ProgressUpdate, plan *BuildPlan) (*BuildResult, error) {
	if b.mutator == nil {
		return nil, fmt.Errorf("%w: playlist mutator not initialized", shared.ErrServiceUnavailable)
	}

	result := &BuildResult{Playlist: plan.Playlist, Skipped: skippedTracks(plan.Final)}

	if plan.Playlist == nil {
		description := plan.Description
		if description == "" {
			description = plan.Criteria
		}
		created, err := b.mutator.CreatePlaylist(ctx, plan.Name, description, plan.Public)
		if err != nil {
			return nil, fmt.Errorf("failed to create playlist %q: %w", plan.Name, err)
		}
		if err := b.lists.Upsert(ctx, created); err != nil {
			return nil, err
		}
		result.Playlist = created
		result.Created = true
	}

	sendProgress(progress, applyChangesUpdate(1, 1, result.Playlist))

	if plan.Changes.Empty() {
		b.logger.Info("playlist already up to date", "playlist", result.Playlist.Name)
		return result, nil
	}

	trackByID := make(map[string]models.Track, len(plan.Final))
	for _, t := range plan.Final {
		trackByID[t.ID] = t
	}

	switch plan.Changes.Mode {
	case engine.Append:
		adds := plan.Changes.Adds()
		uris := urisFor(adds, trackByID)
		if len(uris) > 0 {
			if err := b.mutator.AddTracks(ctx, result.Playlist.SpotifyID, uris); err != nil {
				return nil, fmt.Errorf("failed to add tracks: %w", err)
			}
		}
		result.Added = len(uris)

		entries := append([]models.PlaylistEntry{}, plan.Existing...)
		for _, ch := range adds {
			entries = append(entries, models.PlaylistEntry{
				PlaylistID: result.Playlist.ID,
				TrackID:    ch.TrackID,
				Position:   ch.Position,
				AddedAt:    b.now(),
			})
		}
		if err := b.lists.ReplaceEntries(ctx, result.Playlist.ID, entries); err != nil {
			return nil, err
		}

	case engine.Replace:
		var uris []string
		entries := make([]models.PlaylistEntry, 0, len(plan.Final))
		for _, ch := range plan.Changes.Adds() {
			track := trackByID[ch.TrackID]
			if track.SpotifyID != "" {
				uris = append(uris, services.TrackURI(track.SpotifyID))
			}
			entries = append(entries, models.PlaylistEntry{
				PlaylistID: result.Playlist.ID,
				TrackID:    ch.TrackID,
				Position:   ch.Position,
				AddedAt:    b.now(),
			})
		}
		if err := b.mutator.ReplaceTracks(ctx, result.Playlist.SpotifyID, uris); err != nil {
			return nil, fmt.Errorf("failed to replace tracks: %w", err)
		}
		result.Added = len(uris)
		result.Removed = len(plan.Changes.Removes())

		if err := b.lists.ReplaceEntries(ctx, result.Playlist.ID, entries); err != nil {
			return nil, err
		}

	default:
		return nil, fmt.Errorf("invalid reconciliation mode %q", plan.Changes.Mode)
	}

	b.logger.Info("playlist updated",
		"playlist", result.Playlist.Name,
		"mode", plan.Changes.Mode,
		"added", result.Added,
		"removed", result.Removed,
		"skipped", len(result.Skipped))
	return result, nil
}

// Run plans and applies in one call.
func (b *Builder) Run(ctx context.Context, progress chan<- ProgressUpdate, name, criteriaText, mode string, globalLimit int) (*BuildResult, error) {
	plan, err := b.Plan(ctx, progress, name, criteriaText, mode, globalLimit)
	if err != nil {
		return nil, err
	}
	return b.Apply(ctx, progress, plan)
}

// urisFor resolves change entries to Spotify URIs, dropping tracks that only
// exist in listening history.
func urisFor(changes []engine.Change, trackByID map[string]models.Track) []string {
	var uris []string
	for _, ch := range changes {
		track, ok := trackByID[ch.TrackID]
		if !ok || track.SpotifyID == "" {
			continue
		}
		uris = append(uris, services.TrackURI(track.SpotifyID))
	}
	return uris
}

func skippedTracks(final []models.Track) []models.Track {
	var skipped []models.Track
	for _, t := range final {
		if t.SpotifyID == "" {
			skipped = append(skipped, t)
		}
	}
	return skipped
}
