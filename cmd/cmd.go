// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}
}

// setupCommand initializes the database and configuration file.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "setup",
		Usage:  "Initialize database and run migrations",
		Flags:  []cli.Flag{configFlag()},
		Action: r.Setup,
	}
}

// authCommand handles Spotify OAuth2 authentication.
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "auth",
		Usage:  "Authenticate with Spotify using OAuth2",
		Flags:  []cli.Flag{configFlag()},
		Action: r.Auth,
	}
}

// syncCommand pulls the Spotify catalog and Last.fm history into the local store.
func syncCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "sync",
		Usage: "Sync Spotify library, playlists, and Last.fm history",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:  "source",
				Usage: "What to sync: catalog, history, or all",
				Value: "all",
			},
			&cli.StringFlag{
				Name:  "user",
				Usage: "Last.fm username (defaults to config)",
			},
			&cli.IntFlag{
				Name:  "days",
				Usage: "History window in days (defaults to config)",
			},
		},
		Action: r.Sync,
	}
}

// createCommand builds or updates a playlist from criteria text.
func createCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "create",
		Usage: "Build a playlist from free-text criteria",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "name"},
		},
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:     "criteria",
				Usage:    "Criteria text, clauses joined with 'and'",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "mode",
				Usage: "Reconciliation mode (append or replace)",
				Value: "append",
			},
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Global cap applied after composition",
			},
			&cli.StringFlag{
				Name:  "description",
				Usage: "Playlist description (defaults to the criteria text)",
			},
			&cli.BoolFlag{
				Name:  "public",
				Usage: "Create the playlist as public",
			},
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "Show the change-set without touching Spotify",
			},
		},
		Action: r.Create,
	}
}

// playlistsCommand lists mirrored playlists.
func playlistsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "playlists",
		Usage: "List locally mirrored playlists",
		Flags: []cli.Flag{
			configFlag(),
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print output",
				Value: true,
			},
		},
		Action: r.Playlists,
	}
}

// exportCommand exports a mirrored playlist to a file.
func exportCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export a playlist to CSV, Markdown, text, or JSON",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "name"},
		},
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:  "format",
				Usage: "Export format (csv, markdown, text, json)",
				Value: "csv",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output file path (stdout when omitted, csv always writes files)",
			},
		},
		Action: r.Export,
	}
}

// libraryCommand inspects the local library and the conflict queue.
func libraryCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "library",
		Aliases: []string{"lib"},
		Usage:   "Inspect the local track library",
		Commands: []*cli.Command{
			{
				Name:  "tracks",
				Usage: "List tracks from the local library",
				Flags: []cli.Flag{
					configFlag(),
					&cli.StringFlag{
						Name:  "sort",
						Usage: "Sort order (added, played, plays)",
						Value: "added",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of tracks to list",
						Value: 25,
					},
				},
				Action: r.LibraryTracks,
			},
			{
				Name:   "conflicts",
				Usage:  "List unresolved identity conflicts",
				Flags:  []cli.Flag{configFlag()},
				Action: r.LibraryConflicts,
			},
			{
				Name:  "resolve",
				Usage: "Merge a conflict's duplicate into a canonical track",
				Flags: []cli.Flag{
					configFlag(),
					&cli.StringFlag{
						Name:     "conflict",
						Usage:    "Conflict ID to resolve",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "canonical",
						Usage:    "Candidate track ID to keep",
						Required: true,
					},
				},
				Action: r.LibraryResolve,
			},
		},
	}
}

// tuiCommand returns the top-level TUI command for interactive library browsing.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch interactive browser for playlists and conflicts",
		Flags:   []cli.Flag{configFlag()},
		Action:  r.TUI,
	}
}
