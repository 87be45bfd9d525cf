package ui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/mkplaylist/internal/models"
	"github.com/desertthunder/mkplaylist/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	PlaylistListView ViewState = iota
	TrackListView
	ConflictListView
	CandidateListView
	ConfirmMergeView
	MergeResultView
)

// Library reads the local mirror for display. [tasks.Browser] satisfies it.
type Library interface {
	Playlists(ctx context.Context) ([]models.Playlist, error)
	PlaylistTracks(ctx context.Context, playlistID string) ([]models.Track, error)
	ConflictCandidates(ctx context.Context, conflict models.IdentityConflict) (*models.Track, []models.Track, error)
}

// Resolver handles the ambiguous-match queue. [tasks.Merger] satisfies it.
type Resolver interface {
	Pending(ctx context.Context) ([]models.IdentityConflict, error)
	Merge(ctx context.Context, progress chan<- tasks.ProgressUpdate, conflictID, canonicalID string) (*tasks.MergeResult, error)
}

// Model represents the TUI application state.
type Model struct {
	ctx      context.Context
	view     ViewState
	library  Library
	resolver Resolver
	width    int
	height   int

	playlistList     list.Model
	playlists        []models.Playlist
	trackList        list.Model
	selectedPlaylist models.Playlist

	conflictList      list.Model
	candidateList     list.Model
	selectedConflict  models.IdentityConflict
	duplicate         *models.Track
	selectedCanonical models.Track
	mergeResult       *tasks.MergeResult

	err  error
	help help.Model
	keys keyMap
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, library Library, resolver Resolver) *Model {
	return &Model{
		ctx:      ctx,
		view:     PlaylistListView,
		library:  library,
		resolver: resolver,
		help:     help.New(),
		keys:     newKeyMap(),
	}
}

// Init initializes the TUI by loading playlists from the local mirror.
func (m *Model) Init() tea.Cmd {
	return m.fetchPlaylists()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		for _, l := range []*list.Model{&m.playlistList, &m.trackList, &m.conflictList, &m.candidateList} {
			if l.Width() == 0 {
				l.SetSize(msg.Width-4, msg.Height-8)
			}
		}
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case PlaylistListView:
			return m.handlePlaylistListKeys(msg)
		case TrackListView:
			return m.handleTrackListKeys(msg)
		case ConflictListView:
			return m.handleConflictListKeys(msg)
		case CandidateListView:
			return m.handleCandidateListKeys(msg)
		case ConfirmMergeView:
			return m.handleConfirmKeys(msg)
		case MergeResultView:
			return m.handleResultKeys(msg)
		}

	case playlistsFetchedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, tea.Quit
		}
		m.playlists = msg.playlists
		items := make([]list.Item, len(msg.playlists))
		for i, pl := range msg.playlists {
			items[i] = playlistItem{playlist: pl}
		}
		m.playlistList = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.playlistList.Title = "Playlists"
		m.playlistList.SetSize(m.width-4, m.height-8)
		m.view = PlaylistListView
		return m, nil

	case tracksFetchedMsg:
		if msg.err != nil {
			m.err = msg.err
			m.view = PlaylistListView
			return m, nil
		}
		m.selectedPlaylist = msg.playlist
		items := make([]list.Item, len(msg.tracks))
		for i, track := range msg.tracks {
			items[i] = trackItem{track: track}
		}
		m.trackList = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.trackList.Title = fmt.Sprintf("Tracks in '%s'", msg.playlist.Name)
		m.trackList.SetSize(m.width-4, m.height-8)
		m.view = TrackListView
		return m, nil

	case conflictsFetchedMsg:
		if msg.err != nil {
			m.err = msg.err
			m.view = PlaylistListView
			return m, nil
		}
		items := make([]list.Item, len(msg.conflicts))
		for i, c := range msg.conflicts {
			items[i] = conflictItem{conflict: c}
		}
		m.conflictList = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.conflictList.Title = "Unresolved Conflicts"
		m.conflictList.SetSize(m.width-4, m.height-8)
		m.view = ConflictListView
		return m, nil

	case candidatesFetchedMsg:
		if msg.err != nil {
			m.err = msg.err
			m.view = ConflictListView
			return m, nil
		}
		m.selectedConflict = msg.conflict
		m.duplicate = msg.duplicate
		items := make([]list.Item, len(msg.candidates))
		for i, track := range msg.candidates {
			items[i] = trackItem{track: track}
		}
		m.candidateList = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.candidateList.Title = fmt.Sprintf("Merge '%s - %s' into...", msg.conflict.Artist, msg.conflict.Title)
		m.candidateList.SetSize(m.width-4, m.height-8)
		m.view = CandidateListView
		return m, nil

	case mergeCompleteMsg:
		m.mergeResult = msg.result
		m.err = msg.err
		m.view = MergeResultView
		return m, nil
	}

	return m.updateLists(msg)
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil && m.view != MergeResultView {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	switch m.view {
	case PlaylistListView:
		return m.renderPlaylistList()
	case TrackListView:
		return m.renderTrackList()
	case ConflictListView:
		return m.renderConflictList()
	case CandidateListView:
		return m.renderCandidateList()
	case ConfirmMergeView:
		return m.renderConfirm()
	case MergeResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) handlePlaylistListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "c":
		return m, m.fetchConflicts()
	case "enter":
		if pl, ok := m.playlistList.SelectedItem().(playlistItem); ok {
			return m, m.fetchTracks(pl.playlist)
		}
	}

	var cmd tea.Cmd
	m.playlistList, cmd = m.playlistList.Update(msg)
	return m, cmd
}

func (m *Model) handleTrackListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.view = PlaylistListView
		return m, nil
	}

	var cmd tea.Cmd
	m.trackList, cmd = m.trackList.Update(msg)
	return m, cmd
}

func (m *Model) handleConflictListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.view = PlaylistListView
		return m, nil
	case "enter":
		if c, ok := m.conflictList.SelectedItem().(conflictItem); ok {
			return m, m.fetchCandidates(c.conflict)
		}
	}

	var cmd tea.Cmd
	m.conflictList, cmd = m.conflictList.Update(msg)
	return m, cmd
}

func (m *Model) handleCandidateListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.view = ConflictListView
		return m, nil
	case "enter":
		if t, ok := m.candidateList.SelectedItem().(trackItem); ok {
			m.selectedCanonical = t.track
			m.view = ConfirmMergeView
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.candidateList, cmd = m.candidateList.Update(msg)
	return m, cmd
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "n", "esc":
		m.view = CandidateListView
		return m, nil
	case "y":
		return m, m.runMerge()
	}
	return m, nil
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc", "enter":
		m.mergeResult = nil
		m.err = nil
		return m, m.fetchConflicts()
	}
	return m, nil
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case PlaylistListView:
		m.playlistList, cmd = m.playlistList.Update(msg)
	case TrackListView:
		m.trackList, cmd = m.trackList.Update(msg)
	case ConflictListView:
		m.conflictList, cmd = m.conflictList.Update(msg)
	case CandidateListView:
		m.candidateList, cmd = m.candidateList.Update(msg)
	}
	return m, cmd
}

func (m *Model) fetchPlaylists() tea.Cmd {
	return func() tea.Msg {
		playlists, err := m.library.Playlists(m.ctx)
		return playlistsFetchedMsg{playlists: playlists, err: err}
	}
}

func (m *Model) fetchTracks(playlist models.Playlist) tea.Cmd {
	return func() tea.Msg {
		tracks, err := m.library.PlaylistTracks(m.ctx, playlist.ID)
		return tracksFetchedMsg{playlist: playlist, tracks: tracks, err: err}
	}
}

func (m *Model) fetchConflicts() tea.Cmd {
	return func() tea.Msg {
		conflicts, err := m.resolver.Pending(m.ctx)
		return conflictsFetchedMsg{conflicts: conflicts, err: err}
	}
}

func (m *Model) fetchCandidates(conflict models.IdentityConflict) tea.Cmd {
	return func() tea.Msg {
		duplicate, candidates, err := m.library.ConflictCandidates(m.ctx, conflict)
		return candidatesFetchedMsg{conflict: conflict, duplicate: duplicate, candidates: candidates, err: err}
	}
}

func (m *Model) runMerge() tea.Cmd {
	conflictID := m.selectedConflict.ID
	canonicalID := m.selectedCanonical.ID
	return func() tea.Msg {
		result, err := m.resolver.Merge(m.ctx, nil, conflictID, canonicalID)
		return mergeCompleteMsg{result: result, err: err}
	}
}

func (m *Model) renderPlaylistList() string {
	helpKeys := []key.Binding{m.keys.enter, m.keys.conflicts, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n\n%s", m.playlistList.View(), helpView)
}

func (m *Model) renderTrackList() string {
	helpKeys := []key.Binding{m.keys.back, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n\n%s", m.trackList.View(), helpView)
}

func (m *Model) renderConflictList() string {
	helpKeys := []key.Binding{m.keys.enter, m.keys.back, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n\n%s", m.conflictList.View(), helpView)
}

func (m *Model) renderCandidateList() string {
	helpKeys := []key.Binding{m.keys.enter, m.keys.back, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	var header string
	if m.duplicate != nil {
		header = styles.warn.Render(fmt.Sprintf("Duplicate: %s - %s (%d plays)",
			m.duplicate.Artist, m.duplicate.Title, m.duplicate.PlayCount))
	}
	return fmt.Sprintf("%s\n%s\n\n%s", header, m.candidateList.View(), helpView)
}

func (m *Model) renderConfirm() string {
	title := styles.title.Render("Resolve conflict?")
	info := fmt.Sprintf(
		"\nDuplicate: %s - %s\nCanonical: %s - %s\n\nPlay events move to the canonical track and the duplicate is deleted.\n",
		m.selectedConflict.Artist, m.selectedConflict.Title,
		m.selectedCanonical.Artist, m.selectedCanonical.Title,
	)

	helpKeys := []key.Binding{m.keys.yes, m.keys.no, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s\n%s", title, info, helpView)
}

func (m *Model) renderResult() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Merge failed: %v\n\nPress esc to go back, q to quit", m.err))
	}

	if m.mergeResult == nil {
		return styles.err.Render("No result available\n\nPress esc to go back, q to quit")
	}

	title := styles.ok.Render("✓ Conflict Resolved")
	info := fmt.Sprintf(
		"\nCanonical: %s - %s\nPlay events moved: %d\nPlay count: %d\n",
		m.mergeResult.Canonical.Artist,
		m.mergeResult.Canonical.Title,
		m.mergeResult.Moved,
		m.mergeResult.Canonical.PlayCount,
	)

	helpKeys := []key.Binding{m.keys.back, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s\n%s", title, info, helpView)
}
