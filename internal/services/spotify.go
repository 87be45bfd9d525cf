// Spotify API implementation of [CatalogService] and [PlaylistMutator]
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/desertthunder/mkplaylist/internal/models"
	"github.com/desertthunder/mkplaylist/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"

	// Spotify caps page sizes at 50 and playlist item writes at 100.
	spotifyPageSize   = 50
	spotifyWriteBatch = 100
)

// SpotifyUser represents a Spotify user profile.
type SpotifyUser struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	Country     string `json:"country"`
	Product     string `json:"product"` // premium, free, etc.
}

type externalIDs struct {
	ISRC string `json:"isrc"`
}

// SpotifyArtist represents a Spotify artist.
type SpotifyArtist struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Genres []string `json:"genres"`
	URI    string   `json:"uri"`
}

// SpotifyAlbum represents a Spotify album.
type SpotifyAlbum struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Artists     []SpotifyArtist `json:"artists"`
	ReleaseDate string          `json:"release_date"`
	URI         string          `json:"uri"`
}

// SpotifyTrack represents a Spotify track.
type SpotifyTrack struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Artists     []SpotifyArtist `json:"artists"`
	Album       SpotifyAlbum    `json:"album"`
	DurationMS  int             `json:"duration_ms"`
	Explicit    bool            `json:"explicit"`
	ExternalIDs externalIDs     `json:"external_ids"`
	Popularity  int             `json:"popularity"`
	URI         string          `json:"uri"`
}

type Owner struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// SpotifyPlaylistItem represents a track within a playlist context.
type SpotifyPlaylistItem struct {
	AddedAt string       `json:"added_at"`
	Track   SpotifyTrack `json:"track"`
}

// SpotifySavedTrack represents a track saved in the user's library.
type SpotifySavedTrack struct {
	AddedAt string       `json:"added_at"`
	Track   SpotifyTrack `json:"track"`
}

type simplePlaylistTracks struct {
	Total int `json:"total"`
}

// SpotifySimplePlaylist represents a simplified playlist object (used in lists).
type SpotifySimplePlaylist struct {
	ID            string               `json:"id"`
	Name          string               `json:"name"`
	Description   string               `json:"description"`
	Owner         Owner                `json:"owner"`
	Public        bool                 `json:"public"`
	Collaborative bool                 `json:"collaborative"`
	Tracks        simplePlaylistTracks `json:"tracks"`
	URI           string               `json:"uri"`
}

// page is the common shape of Spotify's offset-paginated responses.
type page[T any] struct {
	Items  []T     `json:"items"`
	Total  int     `json:"total"`
	Limit  int     `json:"limit"`
	Offset int     `json:"offset"`
	Next   *string `json:"next"`
}

// SpotifyService implements [CatalogService] and [PlaylistMutator] against
// the Spotify Web API. Uses [oauth2] for authentication; requests are paced
// with a [rate.Limiter] so full-library pagination stays under API limits.
type SpotifyService struct {
	config     *oauth2.Config
	token      *oauth2.Token
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewSpotifyService creates a new Spotify service with the given OAuth2 credentials.
func NewSpotifyService(credentials map[string]string) (*SpotifyService, error) {
	clientID, ok := credentials["client_id"]
	if !ok || clientID == "" {
		return nil, fmt.Errorf("%w: missing client_id", shared.ErrMissingCredentials)
	}

	clientSecret, ok := credentials["client_secret"]
	if !ok || clientSecret == "" {
		return nil, fmt.Errorf("%w: missing client_secret", shared.ErrMissingCredentials)
	}

	redirectURI, ok := credentials["redirect_uri"]
	if !ok || redirectURI == "" {
		redirectURI = "http://localhost:8080/callback"
	}

	config := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURI,
		Scopes: []string{
			"user-read-private",
			"user-library-read",
			"playlist-read-private",
			"playlist-read-collaborative",
			"playlist-modify-public",
			"playlist-modify-private",
		},
		Endpoint: oauth2.Endpoint{
			AuthURL:  spotifyAuthURL,
			TokenURL: spotifyTokenURL,
		},
	}

	return &SpotifyService{
		config:     config,
		httpClient: http.DefaultClient,
		limiter:    rate.NewLimiter(rate.Limit(8), 1),
	}, nil
}

// Authenticate performs OAuth2 authentication with Spotify. Expects an
// "access_token", "refresh_token" or "auth_code" in credentials.
func (s *SpotifyService) Authenticate(ctx context.Context, credentials map[string]string) error {
	if accessToken, ok := credentials["access_token"]; ok && accessToken != "" {
		s.token = &oauth2.Token{AccessToken: accessToken}
		if refresh, ok := credentials["refresh_token"]; ok && refresh != "" {
			s.token.RefreshToken = refresh
			// Force the token source to refresh on first use when only a
			// stale access token was persisted.
			s.token.Expiry = time.Now().Add(-time.Minute)
		}
		s.httpClient = s.config.Client(ctx, s.token)
		return nil
	}

	if refresh, ok := credentials["refresh_token"]; ok && refresh != "" {
		s.token = &oauth2.Token{RefreshToken: refresh, Expiry: time.Now().Add(-time.Minute)}
		s.httpClient = s.config.Client(ctx, s.token)
		return nil
	}

	if authCode, ok := credentials["auth_code"]; ok && authCode != "" {
		token, err := s.config.Exchange(ctx, authCode)
		if err != nil {
			return fmt.Errorf("%w: failed to exchange auth code: %v", shared.ErrAuthFailed, err)
		}
		s.token = token
		s.httpClient = s.config.Client(ctx, s.token)
		return nil
	}

	return fmt.Errorf("%w: missing access_token, refresh_token or auth_code", shared.ErrMissingCredentials)
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// OAuthConfig exposes the service's OAuth2 configuration for the callback server.
func (s *SpotifyService) OAuthConfig() *oauth2.Config {
	return s.config
}

// GetAuthURL returns the OAuth2 authorization URL for user login.
func (s *SpotifyService) GetAuthURL(state string) string {
	return s.config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// Token returns the current token, e.g. for persisting after auth.
func (s *SpotifyService) Token() *oauth2.Token {
	return s.token
}

// doRequest performs an authenticated, rate-limited HTTP request against the
// Spotify API, encoding body as JSON when present and decoding into result.
func (s *SpotifyService) doRequest(ctx context.Context, method, endpoint string, body, result any) error {
	if s.token == nil {
		return fmt.Errorf("%w: call Authenticate first", shared.ErrNotAuthenticated)
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}

	var reqBody *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(payload)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, spotifyBaseURL+endpoint, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: spotify returned status %d for %s", shared.ErrAPIRequest, resp.StatusCode, endpoint)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// UserProfile retrieves the current authenticated user's profile.
func (s *SpotifyService) UserProfile(ctx context.Context) (*SpotifyUser, error) {
	var user SpotifyUser
	if err := s.doRequest(ctx, http.MethodGet, "/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// SavedTracks pages through the user's entire saved library and returns
// catalog descriptors. Implements [CatalogService].
func (s *SpotifyService) SavedTracks(ctx context.Context) ([]models.CatalogDescriptor, error) {
	var descriptors []models.CatalogDescriptor

	for offset := 0; ; offset += spotifyPageSize {
		endpoint := fmt.Sprintf("/me/tracks?limit=%d&offset=%d", spotifyPageSize, offset)

		var response page[SpotifySavedTrack]
		if err := s.doRequest(ctx, http.MethodGet, endpoint, nil, &response); err != nil {
			return nil, err
		}

		for _, item := range response.Items {
			descriptors = append(descriptors, descriptorFromTrack(item.Track, item.AddedAt))
		}

		if response.Next == nil || len(response.Items) == 0 {
			break
		}
	}

	return descriptors, nil
}

// Playlists pages through the user's playlists. Implements [CatalogService].
func (s *SpotifyService) Playlists(ctx context.Context) ([]models.Playlist, error) {
	var playlists []models.Playlist

	for offset := 0; ; offset += spotifyPageSize {
		endpoint := fmt.Sprintf("/me/playlists?limit=%d&offset=%d", spotifyPageSize, offset)

		var response page[SpotifySimplePlaylist]
		if err := s.doRequest(ctx, http.MethodGet, endpoint, nil, &response); err != nil {
			return nil, err
		}

		for _, p := range response.Items {
			playlists = append(playlists, models.Playlist{
				SpotifyID:     p.ID,
				Name:          p.Name,
				Description:   p.Description,
				Owner:         p.Owner.ID,
				Public:        p.Public,
				Collaborative: p.Collaborative,
			})
		}

		if response.Next == nil || len(response.Items) == 0 {
			break
		}
	}

	return playlists, nil
}

// PlaylistItems pages through one playlist's tracks in playlist order.
// Implements [CatalogService].
func (s *SpotifyService) PlaylistItems(ctx context.Context, playlistID string) ([]models.CatalogDescriptor, error) {
	var descriptors []models.CatalogDescriptor

	for offset := 0; ; offset += spotifyPageSize {
		endpoint := fmt.Sprintf("/playlists/%s/tracks?limit=%d&offset=%d", playlistID, spotifyPageSize, offset)

		var response page[SpotifyPlaylistItem]
		if err := s.doRequest(ctx, http.MethodGet, endpoint, nil, &response); err != nil {
			return nil, err
		}

		for _, item := range response.Items {
			// Local files and removed tracks come back with an empty id.
			if item.Track.ID == "" {
				continue
			}
			descriptors = append(descriptors, descriptorFromTrack(item.Track, item.AddedAt))
		}

		if response.Next == nil || len(response.Items) == 0 {
			break
		}
	}

	return descriptors, nil
}

// CreatePlaylist creates an empty playlist for the current user. Implements
// [PlaylistMutator].
func (s *SpotifyService) CreatePlaylist(ctx context.Context, name, description string, public bool) (*models.Playlist, error) {
	user, err := s.UserProfile(ctx)
	if err != nil {
		return nil, err
	}

	body := map[string]any{
		"name":        name,
		"description": description,
		"public":      public,
	}

	var created SpotifySimplePlaylist
	endpoint := fmt.Sprintf("/users/%s/playlists", user.ID)
	if err := s.doRequest(ctx, http.MethodPost, endpoint, body, &created); err != nil {
		return nil, err
	}

	return &models.Playlist{
		SpotifyID:   created.ID,
		Name:        created.Name,
		Description: created.Description,
		Owner:       created.Owner.ID,
		Public:      created.Public,
	}, nil
}

// AddTracks appends URIs to a playlist in batches. Implements [PlaylistMutator].
func (s *SpotifyService) AddTracks(ctx context.Context, playlistID string, uris []string) error {
	endpoint := fmt.Sprintf("/playlists/%s/tracks", playlistID)

	for _, batch := range batchURIs(uris) {
		body := map[string]any{"uris": batch}
		if err := s.doRequest(ctx, http.MethodPost, endpoint, body, nil); err != nil {
			return err
		}
	}
	return nil
}

// ReplaceTracks swaps a playlist's full contents for the given URIs.
// Implements [PlaylistMutator]. The first batch goes through PUT, which
// clears the playlist; remaining batches are appended.
func (s *SpotifyService) ReplaceTracks(ctx context.Context, playlistID string, uris []string) error {
	endpoint := fmt.Sprintf("/playlists/%s/tracks", playlistID)

	batches := batchURIs(uris)
	if len(batches) == 0 {
		batches = [][]string{{}}
	}

	for i, batch := range batches {
		body := map[string]any{"uris": batch}
		method := http.MethodPost
		if i == 0 {
			method = http.MethodPut
		}
		if err := s.doRequest(ctx, method, endpoint, body, nil); err != nil {
			return err
		}
	}
	return nil
}

// RemoveTracks removes every occurrence of the given URIs. Implements
// [PlaylistMutator].
func (s *SpotifyService) RemoveTracks(ctx context.Context, playlistID string, uris []string) error {
	endpoint := fmt.Sprintf("/playlists/%s/tracks", playlistID)

	for _, batch := range batchURIs(uris) {
		tracks := make([]map[string]string, len(batch))
		for i, uri := range batch {
			tracks[i] = map[string]string{"uri": uri}
		}
		body := map[string]any{"tracks": tracks}
		if err := s.doRequest(ctx, http.MethodDelete, endpoint, body, nil); err != nil {
			return err
		}
	}
	return nil
}

// TrackURI renders the Spotify URI for a track ID.
func TrackURI(spotifyID string) string {
	return "spotify:track:" + spotifyID
}

func batchURIs(uris []string) [][]string {
	var batches [][]string
	for len(uris) > spotifyWriteBatch {
		batches = append(batches, uris[:spotifyWriteBatch])
		uris = uris[spotifyWriteBatch:]
	}
	if len(uris) > 0 {
		batches = append(batches, uris)
	}
	return batches
}

// descriptorFromTrack maps a Spotify track (plus its added_at context) to a
// catalog descriptor.
func descriptorFromTrack(t SpotifyTrack, addedAt string) models.CatalogDescriptor {
	d := models.CatalogDescriptor{
		ExternalID: t.ID,
		Title:      t.Name,
		Album:      t.Album.Name,
		DurationMS: t.DurationMS,
		Popularity: t.Popularity,
	}

	if len(t.Artists) > 0 {
		d.Artist = t.Artists[0].Name
		if len(t.Artists[0].Genres) > 0 {
			d.Genre = t.Artists[0].Genres[0]
		}
	}

	if ts, err := time.Parse(time.RFC3339, addedAt); err == nil {
		d.ObservedAt = ts
	}

	return d
}
