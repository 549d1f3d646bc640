// Package repositories implements SQLite persistence for the sync tool's own state.
//
// Key Implementations:
//   - [SnapshotRepository] : copies of player documents and playlists taken before a session changed them
//   - [SessionRepository] : one row per sync session with its outcome and decision summary
//
// [SnapshotRepository.ForSession] adapts the snapshot store to the hook the document stores
// call before every overwrite or removal.
//
// Sequence numbers provide stable, human-readable ordering (e.g. snapshot #42) independent of UUIDs and creation timestamps.
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
package repositories
