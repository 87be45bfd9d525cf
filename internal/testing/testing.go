// package testing contains shared testing utilities and in-memory doubles
package testing

import (
	"context"
	"errors"
	"io"
	"os"
	"sort"
	"testing"
	"time"

	"github.com/desertthunder/mkplaylist/internal/models"
	"github.com/desertthunder/mkplaylist/internal/shared"
)

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockLibrary is an in-memory engine.Library backed by a plain track slice.
// Ordering mirrors the SQL queries: most-relevant first, ties broken by id
// ascending.
type MockLibrary struct {
	Tracks []models.Track
	Err    error // When set, every method returns it
}

func (m *MockLibrary) RecentlyAdded(ctx context.Context, limit int) ([]models.Track, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	out := m.sorted(func(a, b models.Track) bool { return a.AddedAt.After(b.AddedAt) })
	return capTracks(out, limit), nil
}

func (m *MockLibrary) RecentlyPlayed(ctx context.Context, limit int) ([]models.Track, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	var played []models.Track
	for _, t := range m.Tracks {
		if t.Played() {
			played = append(played, t)
		}
	}
	out := sortTracks(played, func(a, b models.Track) bool { return a.LastPlayedAt.After(b.LastPlayedAt) })
	return capTracks(out, limit), nil
}

func (m *MockLibrary) MostPlayed(ctx context.Context, limit int) ([]models.Track, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	var played []models.Track
	for _, t := range m.Tracks {
		if t.PlayCount > 0 {
			played = append(played, t)
		}
	}
	out := sortTracks(played, func(a, b models.Track) bool {
		if a.PlayCount != b.PlayCount {
			return a.PlayCount > b.PlayCount
		}
		return a.AddedAt.After(b.AddedAt)
	})
	return capTracks(out, limit), nil
}

func (m *MockLibrary) TracksByArtist(ctx context.Context, artist string) ([]models.Track, error) {
	return m.filter(func(t models.Track) bool { return equalFold(t.Artist, artist) })
}

func (m *MockLibrary) TracksByAlbum(ctx context.Context, album string) ([]models.Track, error) {
	return m.filter(func(t models.Track) bool { return equalFold(t.Album, album) })
}

func (m *MockLibrary) TracksByGenre(ctx context.Context, genre string) ([]models.Track, error) {
	return m.filter(func(t models.Track) bool { return equalFold(t.Genre, genre) })
}

func (m *MockLibrary) TracksAddedSince(ctx context.Context, since time.Time) ([]models.Track, error) {
	return m.filter(func(t models.Track) bool { return !t.AddedAt.Before(since) })
}

func (m *MockLibrary) TracksAddedBefore(ctx context.Context, before time.Time) ([]models.Track, error) {
	return m.filter(func(t models.Track) bool { return t.AddedAt.Before(before) })
}

func (m *MockLibrary) TracksPlayedSince(ctx context.Context, since time.Time) ([]models.Track, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	var hits []models.Track
	for _, t := range m.Tracks {
		if t.Played() && !t.LastPlayedAt.Before(since) {
			hits = append(hits, t)
		}
	}
	return sortTracks(hits, func(a, b models.Track) bool { return a.LastPlayedAt.After(b.LastPlayedAt) }), nil
}

func (m *MockLibrary) filter(keep func(models.Track) bool) ([]models.Track, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	var hits []models.Track
	for _, t := range m.Tracks {
		if keep(t) {
			hits = append(hits, t)
		}
	}
	return sortTracks(hits, func(a, b models.Track) bool { return a.AddedAt.After(b.AddedAt) }), nil
}

func (m *MockLibrary) sorted(less func(a, b models.Track) bool) []models.Track {
	return sortTracks(append([]models.Track{}, m.Tracks...), less)
}

func sortTracks(tracks []models.Track, less func(a, b models.Track) bool) []models.Track {
	out := append([]models.Track{}, tracks...)
	sort.SliceStable(out, func(i, j int) bool {
		if less(out[i], out[j]) {
			return true
		}
		if less(out[j], out[i]) {
			return false
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func capTracks(tracks []models.Track, limit int) []models.Track {
	if limit > 0 && len(tracks) > limit {
		return tracks[:limit]
	}
	return tracks
}

func equalFold(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		ca, cb := a[i], b[i]
		if 'A' <= ca && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if 'A' <= cb && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}

// MockStore is an in-memory identity.Store double.
type MockStore struct {
	Tracks    map[string]*models.Track // keyed by internal ID
	Events    []models.PlayEvent
	Conflicts []models.IdentityConflict
	NextErr   error // Returned by the next call, then cleared
}

func NewMockStore() *MockStore {
	return &MockStore{Tracks: make(map[string]*models.Track)}
}

func (s *MockStore) popErr() error {
	err := s.NextErr
	s.NextErr = nil
	return err
}

func (s *MockStore) TrackBySpotifyID(ctx context.Context, spotifyID string) (*models.Track, error) {
	if err := s.popErr(); err != nil {
		return nil, err
	}
	for _, t := range s.Tracks {
		if t.SpotifyID == spotifyID {
			return t, nil
		}
	}
	return nil, nil
}

func (s *MockStore) TrackByNormalizedKey(ctx context.Context, key string) (*models.Track, error) {
	if err := s.popErr(); err != nil {
		return nil, err
	}
	for _, t := range s.Tracks {
		if shared.NormalizeTrackKey(t.Title, t.Artist) == key {
			return t, nil
		}
	}
	return nil, nil
}

func (s *MockStore) TracksByNormalizedArtist(ctx context.Context, normalizedArtist string) ([]models.Track, error) {
	if err := s.popErr(); err != nil {
		return nil, err
	}
	var out []models.Track
	for _, t := range s.Tracks {
		if shared.NormalizeText(t.Artist) == normalizedArtist {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MockStore) CreateTrack(ctx context.Context, track *models.Track) error {
	if err := s.popErr(); err != nil {
		return err
	}
	copied := *track
	s.Tracks[track.ID] = &copied
	return nil
}

func (s *MockStore) UpdateTrack(ctx context.Context, track *models.Track) error {
	if err := s.popErr(); err != nil {
		return err
	}
	copied := *track
	s.Tracks[track.ID] = &copied
	return nil
}

func (s *MockStore) CreatePlayEvent(ctx context.Context, event *models.PlayEvent) error {
	if err := s.popErr(); err != nil {
		return err
	}
	s.Events = append(s.Events, *event)
	return nil
}

func (s *MockStore) CreateConflict(ctx context.Context, conflict *models.IdentityConflict) error {
	if err := s.popErr(); err != nil {
		return err
	}
	s.Conflicts = append(s.Conflicts, *conflict)
	return nil
}

// MockMutator records playlist mutations instead of calling Spotify.
type MockMutator struct {
	CreatedPlaylists []models.Playlist
	AddedURIs        map[string][]string // playlistID -> appended URIs
	ReplacedURIs     map[string][]string // playlistID -> final URIs
	RemovedURIs      map[string][]string
	Err              error
}

func NewMockMutator() *MockMutator {
	return &MockMutator{
		AddedURIs:    make(map[string][]string),
		ReplacedURIs: make(map[string][]string),
		RemovedURIs:  make(map[string][]string),
	}
}

func (m *MockMutator) CreatePlaylist(ctx context.Context, name, description string, public bool) (*models.Playlist, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	pl := models.Playlist{
		SpotifyID:   "sp_" + name,
		Name:        name,
		Description: description,
		Public:      public,
	}
	m.CreatedPlaylists = append(m.CreatedPlaylists, pl)
	return &pl, nil
}

func (m *MockMutator) AddTracks(ctx context.Context, playlistID string, uris []string) error {
	if m.Err != nil {
		return m.Err
	}
	m.AddedURIs[playlistID] = append(m.AddedURIs[playlistID], uris...)
	return nil
}

func (m *MockMutator) ReplaceTracks(ctx context.Context, playlistID string, uris []string) error {
	if m.Err != nil {
		return m.Err
	}
	m.ReplacedURIs[playlistID] = append([]string{}, uris...)
	return nil
}

func (m *MockMutator) RemoveTracks(ctx context.Context, playlistID string, uris []string) error {
	if m.Err != nil {
		return m.Err
	}
	m.RemovedURIs[playlistID] = append(m.RemovedURIs[playlistID], uris...)
	return nil
}

// MockPlaylistStore is an in-memory playlist mirror for task tests.
type MockPlaylistStore struct {
	Playlists map[string]*models.Playlist       // keyed by internal ID
	Members   map[string][]models.PlaylistEntry // keyed by playlist ID
	nextID    int
}

func NewMockPlaylistStore() *MockPlaylistStore {
	return &MockPlaylistStore{
		Playlists: make(map[string]*models.Playlist),
		Members:   make(map[string][]models.PlaylistEntry),
	}
}

func (s *MockPlaylistStore) Upsert(ctx context.Context, playlist *models.Playlist) error {
	if playlist.SpotifyID != "" {
		for _, existing := range s.Playlists {
			if existing.SpotifyID == playlist.SpotifyID {
				playlist.ID = existing.ID
				copied := *playlist
				s.Playlists[playlist.ID] = &copied
				return nil
			}
		}
	}
	if playlist.ID == "" {
		s.nextID++
		playlist.ID = "pl_" + string(rune('a'+s.nextID-1))
	}
	copied := *playlist
	s.Playlists[playlist.ID] = &copied
	return nil
}

func (s *MockPlaylistStore) GetByName(ctx context.Context, name string) (*models.Playlist, error) {
	for _, p := range s.Playlists {
		if p.Name == name {
			copied := *p
			return &copied, nil
		}
	}
	return nil, nil
}

func (s *MockPlaylistStore) Entries(ctx context.Context, playlistID string) ([]models.PlaylistEntry, error) {
	entries := append([]models.PlaylistEntry{}, s.Members[playlistID]...)
	sort.Slice(entries, func(i, j int) bool { return entries[i].Position < entries[j].Position })
	return entries, nil
}

func (s *MockPlaylistStore) ReplaceEntries(ctx context.Context, playlistID string, entries []models.PlaylistEntry) error {
	s.Members[playlistID] = append([]models.PlaylistEntry{}, entries...)
	return nil
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}
