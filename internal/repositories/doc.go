// Package repositories implements SQLite persistence for saved lists, the in-progress list and custom songs.
//
// Key Implementations:
//   - [HistoryRepository] : saved lists (implements tasks.HistoryStore), items kept in performance order
//   - [SnapshotRepository] : the single in-progress list of this device (implements tasks.SnapshotStore)
//   - [CustomSongRepository] : user-defined songs per group, merged into the searchable catalog
//
// Saved lists and custom songs are soft-deleted via deleted_at timestamps and excluded from queries by default.
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables;
// sequences give a stable save order independent of UUIDs and clock skew.
package repositories
