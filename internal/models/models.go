// package models defines the data model for the playlist builder
package models

import (
	"fmt"
	"time"
)

// Track is the canonical record for one real-world recording, merged from
// the Spotify catalog and Last.fm listening history.
//
// Exactly one Track exists per recording known to the system. When no
// Spotify ID is available, uniqueness is enforced by the normalized
// (artist, title) key.
type Track struct {
	ID           string // Internal UUID
	SpotifyID    string // Spotify track ID, empty for history-only tracks
	Title        string
	Artist       string
	Album        string
	Genre        string // Primary genre tag, backfilled from Last.fm artist tags
	DurationMS   int
	Popularity   int
	AddedAt      time.Time // First observation from either source; set once
	LastPlayedAt time.Time // Zero value when the track has never been played
	PlayCount    int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Validate checks required Track fields.
func (t *Track) Validate() error {
	if t.Title == "" {
		return fmt.Errorf("track title is required")
	}
	if t.Artist == "" {
		return fmt.Errorf("track artist is required")
	}
	return nil
}

// Played reports whether the track has at least one recorded play.
func (t *Track) Played() bool {
	return t.PlayCount > 0 && !t.LastPlayedAt.IsZero()
}

// PlayEvent is one play observation attached to a Track. Events are
// immutable and append-only; multiple events may reference the same Track.
type PlayEvent struct {
	ID        string
	TrackID   string
	PlayedAt  time.Time
	Source    string // Source tag, e.g. "lastfm"
	CreatedAt time.Time
}

// Validate checks required PlayEvent fields.
func (e *PlayEvent) Validate() error {
	if e.TrackID == "" {
		return fmt.Errorf("play event track id is required")
	}
	if e.PlayedAt.IsZero() {
		return fmt.Errorf("play event timestamp is required")
	}
	return nil
}

// Playlist mirrors a Spotify playlist in the local store.
type Playlist struct {
	ID            string
	SpotifyID     string
	Name          string
	Description   string
	Owner         string
	Public        bool
	Collaborative bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Validate checks required Playlist fields.
func (p *Playlist) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("playlist name is required")
	}
	return nil
}

// PlaylistEntry links a Track to a Playlist at a dense 0-based position.
// A Track appears at most once per Playlist.
type PlaylistEntry struct {
	PlaylistID string
	TrackID    string
	Position   int
	AddedAt    time.Time
}

// CatalogDescriptor is a track observation from the catalog source
// (Spotify saved tracks or playlist items), before identity resolution.
type CatalogDescriptor struct {
	ExternalID string
	Title      string
	Artist     string
	Album      string
	Genre      string
	DurationMS int
	Popularity int
	ObservedAt time.Time // added_at reported by the catalog source
}

// PlayDescriptor is a play observation from the history source (Last.fm),
// before identity resolution. ExternalID is usually empty.
type PlayDescriptor struct {
	ExternalID string
	Title      string
	Artist     string
	Album      string
	PlayedAt   time.Time
	Source     string
}

// IdentityConflict records an ambiguous fuzzy match: more than one canonical
// Track scored at or above the similarity threshold for one descriptor. The
// descriptor was treated as unmatched; resolution is a separate manual step.
type IdentityConflict struct {
	ID           string
	Title        string
	Artist       string
	Source       string
	TrackID      string   // Track created for the unmatched descriptor
	CandidateIDs []string // Tracks that scored at or above the threshold
	CreatedAt    time.Time
	ResolvedAt   time.Time // Zero value while unresolved
}

// Resolved reports whether the conflict has been manually resolved.
func (c *IdentityConflict) Resolved() bool {
	return !c.ResolvedAt.IsZero()
}
