// Package tasks implements the long-running operations behind the CLI
// commands: syncing source data into the local store, building playlists
// from criteria, and merging identity conflicts.
//
// # Sync
//
// [SyncEngine] pulls the Spotify catalog (saved tracks, playlists and their
// membership) and Last.fm listening history, running every observation
// through the identity resolver so exactly one canonical track exists per
// recording. [SyncEngine.BackfillGenres] tags tracks using each artist's top
// Last.fm tag.
//
// # Build
//
// [Builder] runs the criteria pipeline: parse, execute clauses, compose the
// final list, and reconcile against the playlist's mirrored membership.
// [Builder.Plan] is side-effect free and backs the CLI's dry-run flag;
// [Builder.Apply] pushes the emitted change-set to Spotify and persists the
// new membership locally. The mirror is only as fresh as the last sync, so
// callers sequence sync before build and serialize runs per playlist.
//
// # Resolve
//
// [Merger] folds the duplicate track behind an ambiguous match into a chosen
// canonical candidate: play events are reassigned, aggregates recomputed,
// and the duplicate deleted from the store and every playlist mirror.
//
// Operations emit [ProgressUpdate] values via channels for non-blocking
// status reporting to the CLI/UI layers.
package tasks
