// Package models defines domain entities for the mkplaylist library store.
//
// The package contains three categories of types:
//
// 1. Canonical entities persisted in SQLite:
//   - [Track] : One record per real-world recording, deduplicated across sources
//   - [PlayEvent] : Append-only play observations referencing a Track
//   - [Playlist] / [PlaylistEntry] : Local mirror of Spotify playlist membership
//   - [IdentityConflict] : Ambiguous fuzzy matches queued for manual resolution
//
// 2. Source descriptors, the pre-resolution boundary shapes:
//   - [CatalogDescriptor] : A track as observed from the Spotify catalog
//   - [PlayDescriptor] : A play as observed from Last.fm history
//
// Identity resolution (internal/identity) turns descriptors into canonical
// entities; the criteria engine (internal/engine) only ever sees canonical
// Tracks.
package models
