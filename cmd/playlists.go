package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/desertthunder/mkplaylist/internal/formatter"
	"github.com/desertthunder/mkplaylist/internal/shared"
	"github.com/desertthunder/mkplaylist/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Playlists lists locally mirrored playlists.
func (r *Runner) Playlists(ctx context.Context, cmd *cli.Command) error {
	useJSON := cmd.Bool("json")
	pretty := cmd.Bool("pretty")

	st, err := r.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	playlists, err := st.lists.List(ctx)
	if err != nil {
		return err
	}

	if useJSON {
		return r.writeJSON(playlists, pretty)
	}

	if len(playlists) == 0 {
		r.writePlain("No playlists mirrored yet. Run 'mkplaylist sync' first.\n")
		return nil
	}

	r.writePlain("Found %d playlists:\n\n", len(playlists))
	for i, p := range playlists {
		r.writePlain("%d. %s\n", i+1, p.Name)
		if p.Description != "" {
			r.writePlain("   Criteria: %s\n", p.Description)
		}
		r.writePlain("   ID: %s\n", p.ID)
		r.writePlain("   Visibility: %s\n", shared.VisibilityString(p.Public))
		r.writePlain("\n")
	}

	return nil
}

// Export exports a mirrored playlist with its tracks.
func (r *Runner) Export(ctx context.Context, cmd *cli.Command) error {
	name := cmd.StringArg("name")
	if name == "" {
		return fmt.Errorf("%w: playlist name is required", shared.ErrMissingArgument)
	}

	format := strings.ToLower(cmd.String("format"))
	outputFile := cmd.String("output")

	st, err := r.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	playlist, err := st.lists.GetByName(ctx, name)
	if err != nil {
		return err
	}
	if playlist == nil {
		return fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, name)
	}

	browser := tasks.NewBrowser(st.lists, st.tracks)
	tracks, err := browser.PlaylistTracks(ctx, playlist.ID)
	if err != nil {
		return err
	}

	export := &formatter.PlaylistExport{Playlist: *playlist, Tracks: tracks}

	if format == "csv" {
		if outputFile == "" {
			outputFile = playlist.ID
		}
		result, err := formatter.WriteCSVExport(export, outputFile)
		if err != nil {
			return err
		}
		r.writePlain("✓ Playlist exported\n")
		r.writePlain("  Tracks: %s\n", result.TracksFile)
		r.writePlain("  Metadata: %s\n", result.MetadataFile)
		return nil
	}

	var data []byte
	switch format {
	case "markdown", "md":
		data, err = formatter.ExportToMarkdown(export)
	case "text", "txt":
		data, err = formatter.ExportToText(export)
	case "json":
		data, err = shared.MarshalJSON(export, true)
	default:
		return fmt.Errorf("%w: unsupported format %q", shared.ErrInvalidFlag, format)
	}
	if err != nil {
		return err
	}

	if outputFile != "" {
		if err := os.WriteFile(outputFile, data, 0644); err != nil {
			return fmt.Errorf("failed to write file: %w", err)
		}
		r.writePlain("✓ Playlist exported to %s (%d tracks)\n", outputFile, len(tracks))
		return nil
	}

	return r.writePlain("%s", string(data))
}
