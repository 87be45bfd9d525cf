package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/mkplaylist/internal/models"
	"github.com/desertthunder/mkplaylist/internal/shared"
)

var (
	_ list.Item = playlistItem{}
	_ list.Item = trackItem{}
	_ list.Item = conflictItem{}
)

// playlistItem wraps [models.Playlist] to implement [list.Item].
type playlistItem struct {
	playlist models.Playlist
}

func (i playlistItem) FilterValue() string { return i.playlist.Name }
func (i playlistItem) Title() string       { return i.playlist.Name }
func (i playlistItem) Description() string {
	desc := shared.VisibilityString(i.playlist.Public)
	if i.playlist.Description != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.playlist.Description)
	}
	return desc
}

// trackItem wraps [models.Track] to implement [list.Item].
type trackItem struct {
	track models.Track
}

func (i trackItem) FilterValue() string { return i.track.Title }
func (i trackItem) Title() string       { return i.track.Title }
func (i trackItem) Description() string {
	desc := i.track.Artist
	if i.track.Album != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.track.Album)
	}
	if i.track.PlayCount > 0 {
		desc = fmt.Sprintf("%s • %d plays", desc, i.track.PlayCount)
	}
	return desc
}

// conflictItem wraps [models.IdentityConflict] to implement [list.Item].
type conflictItem struct {
	conflict models.IdentityConflict
}

func (i conflictItem) FilterValue() string { return i.conflict.Title }
func (i conflictItem) Title() string {
	return fmt.Sprintf("%s - %s", i.conflict.Artist, i.conflict.Title)
}
func (i conflictItem) Description() string {
	return fmt.Sprintf("%d candidates • from %s", len(i.conflict.CandidateIDs), i.conflict.Source)
}
