// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI provides a multi-view browser over the local mirror:
//  1. [PlaylistListView] : Browse mirrored playlists
//  2. [TrackListView] : View a playlist's tracks in position order
//  3. [ConflictListView] : Browse the unresolved ambiguous-match queue
//  4. [CandidateListView] : Pick the canonical track for a conflict
//  5. [ConfirmMergeView] : Confirm the merge operation
//  6. [MergeResultView] : Display the merge outcome
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern.
// Reads go through [Library] and conflict resolution through [Resolver], both
// satisfied by the tasks package.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, y/n, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
