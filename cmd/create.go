package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/desertthunder/mkplaylist/internal/criteria"
	"github.com/desertthunder/mkplaylist/internal/formatter"
	"github.com/desertthunder/mkplaylist/internal/models"
	"github.com/desertthunder/mkplaylist/internal/shared"
	"github.com/desertthunder/mkplaylist/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Create builds or updates a playlist from criteria text. With --dry-run the
// change-set is printed and nothing touches Spotify.
func (r *Runner) Create(ctx context.Context, cmd *cli.Command) error {
	name := cmd.StringArg("name")
	if name == "" {
		return fmt.Errorf("%w: playlist name is required", shared.ErrMissingArgument)
	}

	criteriaText := cmd.String("criteria")
	mode := cmd.String("mode")
	limit := cmd.Int("limit")
	dryRun := cmd.Bool("dry-run")

	st, err := r.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	builder := r.builder(st)

	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			r.logger.Debug("build progress", "phase", update.Phase, "message", update.Message)
		}
	}()

	plan, err := builder.Plan(ctx, progressCh, name, criteriaText, mode, limit)
	if err != nil {
		close(progressCh)
		<-done
		var perr *criteria.ParseError
		if errors.As(err, &perr) {
			r.writePlain("✗ Could not parse criteria\n")
			r.writePlain("  Fragment: %q (at position %d)\n", perr.Fragment, perr.Position)
			return err
		}
		return err
	}

	plan.Description = cmd.String("description")
	plan.Public = cmd.Bool("public")

	r.writePlain("Playlist: %s\n", name)
	r.writePlain("Criteria: %s (%d clauses)\n", criteriaText, len(plan.Query.Clauses))
	r.writePlain("Composed: %d tracks\n\n", len(plan.Final))

	if dryRun {
		close(progressCh)
		<-done
		trackByID, err := r.planTracks(ctx, st, plan)
		if err != nil {
			return err
		}
		r.writePlain("%s", formatter.FormatChangeSet(plan.Changes, trackByID))
		return nil
	}

	if r.spotify == nil {
		close(progressCh)
		<-done
		return fmt.Errorf("%w: Spotify service not initialized, run 'mkplaylist auth' first", shared.ErrServiceUnavailable)
	}

	result, err := builder.Apply(ctx, progressCh, plan)
	close(progressCh)
	<-done

	if err != nil {
		return err
	}

	if result.Created {
		r.writePlain("✓ Created playlist '%s'\n", result.Playlist.Name)
	}
	r.writePlain("✓ Added %d, removed %d (%s mode)\n", result.Added, result.Removed, plan.Changes.Mode)

	if len(result.Skipped) > 0 {
		r.writePlain("\n⚠ %d tracks exist only in listening history and were not pushed:\n", len(result.Skipped))
		for _, t := range result.Skipped {
			r.writePlain("  - %s - %s\n", t.Artist, t.Title)
		}
	}

	return nil
}

// planTracks collects track details for every ID named by the plan's
// change-set so the dry-run display can show titles for removals too.
func (r *Runner) planTracks(ctx context.Context, st *store, plan *tasks.BuildPlan) (map[string]models.Track, error) {
	ids := make([]string, 0, len(plan.Changes.Changes))
	for _, ch := range plan.Changes.Changes {
		ids = append(ids, ch.TrackID)
	}
	return st.tracks.TracksByIDs(ctx, ids)
}
