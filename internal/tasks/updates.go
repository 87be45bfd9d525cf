package tasks

import (
	"fmt"

	"github.com/desertthunder/mkplaylist/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	FetchCatalog Phase = iota
	FetchPlaylists
	FetchHistory
	ResolveTracks
	BackfillGenres
	ParseCriteria
	ExecuteClauses
	ComposeTracks
	DiffPlaylist
	ApplyChanges
	MergeConflict
)

func (p Phase) String() string {
	switch p {
	case FetchCatalog:
		return "fetch_catalog"
	case FetchPlaylists:
		return "fetch_playlists"
	case FetchHistory:
		return "fetch_history"
	case ResolveTracks:
		return "resolve_tracks"
	case BackfillGenres:
		return "backfill_genres"
	case ParseCriteria:
		return "parse_criteria"
	case ExecuteClauses:
		return "execute_clauses"
	case ComposeTracks:
		return "compose_tracks"
	case DiffPlaylist:
		return "diff_playlist"
	case ApplyChanges:
		return "apply_changes"
	case MergeConflict:
		return "merge_conflict"
	default:
		return ""
	}
}

func fetchCatalogUpdate(step, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchCatalog,
		Step:    step,
		Total:   total,
		Message: "Fetching saved tracks from Spotify...",
	}
}

func fetchPlaylistsUpdate(step, total int, name string) ProgressUpdate {
	if name == "" {
		return ProgressUpdate{
			Phase:   FetchPlaylists,
			Step:    step,
			Total:   total,
			Message: "Fetching playlists from Spotify...",
		}
	}
	return ProgressUpdate{
		Phase:   FetchPlaylists,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Mirroring playlist: %s", step, total, name),
	}
}

func fetchHistoryUpdate(step, total int, user string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchHistory,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Fetching listening history for %s from Last.fm...", user),
	}
}

func resolveTracksUpdate(step, total int, count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ResolveTracks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Resolving %d track observations...", count),
	}
}

func backfillGenresUpdate(step, total int, artist string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   BackfillGenres,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Tagging genre: %s", step, total, artist),
	}
}

func parseCriteriaUpdate(clauses int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ParseCriteria,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Parsed criteria into %d clause(s)", clauses),
	}
}

func executeClausesUpdate(step, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExecuteClauses,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Executing clause...", step, total),
	}
}

func composeTracksUpdate(count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ComposeTracks,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Composed final list of %d track(s)", count),
	}
}

func diffPlaylistUpdate(name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   DiffPlaylist,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Diffing against playlist: %s", name),
	}
}

func applyChangesUpdate(step, total int, playlist *models.Playlist) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ApplyChanges,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Applying changes to %s...", playlist.Name),
		Data:    playlist,
	}
}

func mergeConflictUpdate(step, total int, title string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   MergeConflict,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Merging duplicate for %q...", title),
	}
}
