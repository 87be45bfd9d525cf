// Package repositories implements SQLite persistence for all domain entities.
//
// Key Implementations:
//   - [TrackRepository] : Canonical track store; also implements the
//     identity.Store lookups and the engine.Library read queries, with all
//     ordering and tie-breaking (track id ascending) pushed into SQL
//   - [PlayEventRepository] : Append-only play history
//   - [PlaylistRepository] : Local mirror of Spotify playlists and membership
//   - [ConflictRepository] : Ambiguous-match queue for manual resolution
//
// Lookup methods used by identity resolution return (nil, nil) when no row
// exists; Get methods used at the CLI boundary return wrapped not-found
// sentinels from internal/shared instead.
package repositories
