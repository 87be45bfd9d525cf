package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/mkplaylist/internal/models"
	"github.com/desertthunder/mkplaylist/internal/shared"
	"github.com/urfave/cli/v3"
)

// LibraryTracks lists tracks from the local library in the requested order.
func (r *Runner) LibraryTracks(ctx context.Context, cmd *cli.Command) error {
	sortOrder := cmd.String("sort")
	limit := cmd.Int("limit")

	st, err := r.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	var tracks []models.Track
	switch sortOrder {
	case "added":
		tracks, err = st.tracks.RecentlyAdded(ctx, limit)
	case "played":
		tracks, err = st.tracks.RecentlyPlayed(ctx, limit)
	case "plays":
		tracks, err = st.tracks.MostPlayed(ctx, limit)
	default:
		return fmt.Errorf("%w: unsupported sort %q (added, played, plays)", shared.ErrInvalidFlag, sortOrder)
	}
	if err != nil {
		return err
	}

	total, err := st.tracks.Count(ctx)
	if err != nil {
		return err
	}

	r.writePlain("Library: %d tracks (showing %d, sorted by %s)\n\n", total, len(tracks), sortOrder)
	for i, t := range tracks {
		r.writePlain("%d. %s - %s\n", i+1, t.Artist, t.Title)
		if t.Album != "" {
			r.writePlain("   Album: %s\n", t.Album)
		}
		if t.Genre != "" {
			r.writePlain("   Genre: %s\n", t.Genre)
		}
		if t.Played() {
			r.writePlain("   Plays: %d (last %s)\n", t.PlayCount, t.LastPlayedAt.Format("2006-01-02 15:04"))
		}
		if t.SpotifyID == "" {
			r.writePlain("   Source: listening history only\n")
		}
	}

	return nil
}

// LibraryConflicts lists unresolved identity conflicts.
func (r *Runner) LibraryConflicts(ctx context.Context, cmd *cli.Command) error {
	st, err := r.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	pending, err := st.merger(r.logger).Pending(ctx)
	if err != nil {
		return err
	}

	if len(pending) == 0 {
		r.writePlain("No unresolved conflicts.\n")
		return nil
	}

	r.writePlain("Found %d unresolved conflicts:\n\n", len(pending))
	for i, c := range pending {
		r.writePlain("%d. %s - %s (from %s)\n", i+1, c.Artist, c.Title, c.Source)
		r.writePlain("   Conflict ID: %s\n", c.ID)
		r.writePlain("   Duplicate track: %s\n", c.TrackID)
		r.writePlain("   Candidates:\n")

		byID, err := st.tracks.TracksByIDs(ctx, c.CandidateIDs)
		if err != nil {
			return err
		}
		for _, id := range c.CandidateIDs {
			if t, ok := byID[id]; ok {
				r.writePlain("     %s  %s - %s (%d plays)\n", id, t.Artist, t.Title, t.PlayCount)
			} else {
				r.writePlain("     %s  (no longer in library)\n", id)
			}
		}
		r.writePlain("\n")
	}

	r.writePlain("Resolve with: mkplaylist library resolve --conflict <id> --canonical <track-id>\n")
	return nil
}

// LibraryResolve merges a conflict's duplicate track into the chosen
// canonical candidate.
func (r *Runner) LibraryResolve(ctx context.Context, cmd *cli.Command) error {
	conflictID := cmd.String("conflict")
	canonicalID := cmd.String("canonical")

	st, err := r.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	result, err := st.merger(r.logger).Merge(ctx, nil, conflictID, canonicalID)
	if err != nil {
		return err
	}

	r.writePlain("✓ Conflict resolved\n")
	r.writePlain("  Canonical: %s - %s\n", result.Canonical.Artist, result.Canonical.Title)
	r.writePlain("  Play events moved: %d\n", result.Moved)
	r.writePlain("  Play count: %d\n", result.Canonical.PlayCount)

	return nil
}
