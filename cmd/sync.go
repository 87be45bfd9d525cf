package main

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/mkplaylist/internal/shared"
	"github.com/desertthunder/mkplaylist/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Sync populates the local library. --source selects the pipeline: catalog
// (Spotify saved tracks + playlists), history (Last.fm plays), or all, which
// also runs the genre backfill.
func (r *Runner) Sync(ctx context.Context, cmd *cli.Command) error {
	source := cmd.String("source")
	switch source {
	case "catalog", "history", "all":
	default:
		return fmt.Errorf("%w: unknown sync source %q (catalog, history or all)", shared.ErrInvalidFlag, source)
	}

	if source != "history" && r.spotify == nil {
		return fmt.Errorf("%w: Spotify service not initialized, run 'mkplaylist auth' first", shared.ErrServiceUnavailable)
	}
	if source != "catalog" && r.lastfm == nil {
		return fmt.Errorf("%w: Last.fm service not initialized, set lastfm.api_key in config.toml", shared.ErrServiceUnavailable)
	}

	user := cmd.String("user")
	if user == "" {
		user = r.config.Credentials.Lastfm.Username
	}
	if source != "catalog" && user == "" {
		return fmt.Errorf("%w: Last.fm username required (--user or lastfm.username in config.toml)", shared.ErrMissingArgument)
	}

	days := cmd.Int("days")
	if days == 0 {
		days = r.config.Sync.HistoryDays
	}

	st, err := r.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	engine := r.syncEngine(st)

	r.writePlain("Starting %s sync...\n\n", source)

	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			switch update.Phase {
			case tasks.FetchCatalog:
				r.writePlain("📥 %s\n", update.Message)
			case tasks.FetchPlaylists:
				r.writePlain("📋 %s\n", update.Message)
			case tasks.FetchHistory:
				r.writePlain("🎧 %s\n", update.Message)
			case tasks.ResolveTracks:
				r.writePlain("🔗 %s\n", update.Message)
			case tasks.BackfillGenres:
				if update.Step == 1 {
					r.writePlain("🏷  %s\n", update.Message)
				}
			}
		}
	}()

	result, err := r.runSync(ctx, engine, progressCh, source, user, days)
	close(progressCh)
	<-done

	if err != nil {
		return err
	}

	r.writePlain("\n")
	r.writePlainHeader("Sync Complete")

	rejected := 0
	if result.Catalog != nil {
		r.writePlain("Catalog: %d created, %d updated, %d conflicts\n",
			result.Catalog.Created, result.Catalog.Updated, len(result.Catalog.Conflicts))
		r.writePlain("Playlists mirrored: %d\n", result.Playlists)
		rejected += len(result.Catalog.Rejected)
	}
	if result.History != nil {
		r.writePlain("History: %d matched, %d created, %d play events\n",
			result.History.Matched, result.History.Created, result.History.EventsAdded)
		rejected += len(result.History.Rejected)
	}
	if source == "all" {
		r.writePlain("Genres backfilled: %d\n", result.Genres)
	}

	if rejected > 0 {
		r.writePlain("\n⚠ %d malformed records were skipped (see logs)\n", rejected)
	}
	conflicts := 0
	if result.Catalog != nil {
		conflicts += len(result.Catalog.Conflicts)
	}
	if result.History != nil {
		conflicts += len(result.History.Conflicts)
	}
	if conflicts > 0 {
		r.writePlain("\nRun 'mkplaylist library conflicts' to review ambiguous matches\n")
	}

	return nil
}

// runSync dispatches on the selected source. Partial syncs assemble the same
// result shape SyncAll returns so the summary printer stays shared.
func (r *Runner) runSync(ctx context.Context, engine *tasks.SyncEngine, progress chan<- tasks.ProgressUpdate, source, user string, days int) (*tasks.SyncResult, error) {
	switch source {
	case "catalog":
		result := &tasks.SyncResult{}
		catalog, err := engine.SyncCatalog(ctx, progress)
		if err != nil {
			return nil, err
		}
		result.Catalog = catalog

		mirrored, err := engine.SyncPlaylists(ctx, progress)
		if err != nil {
			return nil, err
		}
		result.Playlists = mirrored
		return result, nil

	case "history":
		var from time.Time
		if days > 0 {
			from = time.Now().AddDate(0, 0, -days)
		}
		history, err := engine.SyncHistory(ctx, progress, user, from, time.Time{})
		if err != nil {
			return nil, err
		}
		return &tasks.SyncResult{History: history}, nil

	default:
		return engine.SyncAll(ctx, progress, user, days)
	}
}
