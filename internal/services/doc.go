// Package services defines the boundary interfaces for the external music
// data sources and implements them for Spotify and Last.fm.
//
// # Interfaces
//
//   - [CatalogService] : read side of the catalog (saved tracks, playlists)
//   - [PlaylistMutator] : write side, batched playlist mutations
//   - [HistoryService] : listening-history reads
//
// # Spotify Implementation
//
// [SpotifyService] implements both [CatalogService] and [PlaylistMutator]
// using OAuth2 with automatic token refresh via the [oauth2.Config] client.
// Requests are paced with a [rate.Limiter] so full-library pagination does
// not trip the API's rate limits.
//
// # Last.fm Implementation
//
// [LastfmService] implements [HistoryService] on top of shkh/lastfm-go.
// Recent-tracks reads only need an API key; no session is required.
//
// # Error Handling
//
// Services use typed errors from the shared package:
//   - [shared.ErrNotAuthenticated] : Authenticate() not called
//   - [shared.ErrMissingCredentials] : required credential absent
//   - [shared.ErrAPIRequest] : HTTP request or API call failed
//
// # Mappings
//
// Both services convert provider responses to boundary descriptors:
//   - Spotify: [SpotifyTrack] → [models.CatalogDescriptor] (ObservedAt from added_at)
//   - Last.fm: recent-track entries → [models.PlayDescriptor] (PlayedAt from uts)
//
// Identity resolution downstream matches descriptors against the canonical
// track store by external ID first, then normalized title/artist comparison.
package services
