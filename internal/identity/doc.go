// Package identity reconciles track observations from the Spotify catalog
// and Last.fm history into one canonical Track record per recording.
//
// The [Resolver] applies a layered matching policy (exact Spotify ID, then
// normalized (artist, title) key, then fuzzy title similarity with exact
// normalized artist) and never auto-merges ambiguous fuzzy matches: those
// become [models.IdentityConflict] rows awaiting a manual resolution step.
package identity
