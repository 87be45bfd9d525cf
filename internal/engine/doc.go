// Package engine evaluates parsed criteria against the local library and
// reconciles the result with a playlist's current membership.
//
// The engine is a pure, single-threaded computation over an already-populated
// store: it issues reads through the [Library] interface and emits
// [ChangeSet] values, but performs no I/O and applies nothing itself.
//
// Pipeline:
//
//	criteria.Query -> [Executor] (per clause) -> [Compose] -> [Reconcile] -> ChangeSet
//
// Concurrent runs against a read-only store snapshot need no coordination.
// Two runs targeting the same playlist must be serialized by the caller,
// otherwise append-mode runs may diff against stale membership and
// double-add; the engine declares this precondition but cannot detect a
// violation.
package engine
