package main

import (
	"database/sql"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mkplaylist/internal/identity"
	"github.com/desertthunder/mkplaylist/internal/repositories"
	"github.com/desertthunder/mkplaylist/internal/services"
	"github.com/desertthunder/mkplaylist/internal/shared"
	"github.com/desertthunder/mkplaylist/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config  *shared.Config
	spotify *services.SpotifyService
	lastfm  *services.LastfmService
	logger  *log.Logger
	output  io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config  *shared.Config
	Spotify *services.SpotifyService
	Lastfm  *services.LastfmService
	Logger  *log.Logger
	Output  io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	return &Runner{
		config:  opts.Config,
		spotify: opts.Spotify,
		lastfm:  opts.Lastfm,
		logger:  opts.Logger,
		output:  opts.Output,
	}
}

// SetLogger swaps the runner's logger, e.g. to a file logger for TUI runs.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, syncCommand, createCommand, playlistsCommand, exportCommand, libraryCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// store bundles the open database with its repositories. Commands open one
// per invocation and close it when done.
type store struct {
	db        *sql.DB
	tracks    *repositories.TrackRepository
	events    *repositories.PlayEventRepository
	lists     *repositories.PlaylistRepository
	conflicts *repositories.ConflictRepository
}

func (r *Runner) openStore() (*store, error) {
	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	return &store{
		db:        db,
		tracks:    repositories.NewTrackRepository(db),
		events:    repositories.NewPlayEventRepository(db),
		lists:     repositories.NewPlaylistRepository(db),
		conflicts: repositories.NewConflictRepository(db),
	}, nil
}

func (s *store) Close() error {
	return s.db.Close()
}

// resolver builds the identity resolver over the store.
func (s *store) resolver(logger *log.Logger) *identity.Resolver {
	return identity.NewResolver(tasks.NewResolverStore(s.tracks, s.events, s.conflicts), logger, nil)
}

// merger builds the conflict merger over the store.
func (s *store) merger(logger *log.Logger) *tasks.Merger {
	return tasks.NewMerger(s.conflicts, s.tracks, s.events, s.lists, logger, nil)
}

// syncEngine wires the sync pipeline. Service fields stay nil-valued
// interfaces when the underlying service was never constructed so the engine
// can report them as unavailable.
func (r *Runner) syncEngine(s *store) *tasks.SyncEngine {
	var catalog services.CatalogService
	if r.spotify != nil {
		catalog = r.spotify
	}
	var history services.HistoryService
	if r.lastfm != nil {
		history = r.lastfm
	}
	return tasks.NewSyncEngine(catalog, history, s.resolver(r.logger), s.tracks, s.lists, r.logger)
}

// builder wires the criteria pipeline.
func (r *Runner) builder(s *store) *tasks.Builder {
	var mutator services.PlaylistMutator
	if r.spotify != nil {
		mutator = r.spotify
	}
	return tasks.NewBuilder(s.tracks, s.lists, mutator, r.logger, nil)
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
