package ui

import (
	"github.com/desertthunder/mkplaylist/internal/models"
	"github.com/desertthunder/mkplaylist/internal/tasks"
)

type playlistsFetchedMsg struct {
	playlists []models.Playlist
	err       error
}

type tracksFetchedMsg struct {
	playlist models.Playlist
	tracks   []models.Track
	err      error
}

type conflictsFetchedMsg struct {
	conflicts []models.IdentityConflict
	err       error
}

type candidatesFetchedMsg struct {
	conflict   models.IdentityConflict
	duplicate  *models.Track
	candidates []models.Track
	err        error
}

type mergeCompleteMsg struct {
	result *tasks.MergeResult
	err    error
}
