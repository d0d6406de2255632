// Package repositories implements SQLite persistence for the download history.
//
// Key Implementations:
//   - [DownloadRepository] : one row per saved archive, listed newest first
//
// Only completed downloads are stored; search results and selections are never persisted.
// Records are soft deleted via deleted_at and excluded from queries by default.
//
// Sequence numbers provide stable, human-readable ordering (e.g., download #42) independent of UUIDs and creation timestamps.
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
package repositories
