// Package repositories implements SQLite persistence for domain records.
//
// Key Implementations:
//   - [ExportRepository] : history of written playlist cards
//
// Sequence numbers provide stable, human-readable ordering (export #42) independent of UUIDs and creation timestamps.
// The [NextSequence] function atomically increments per-table counters kept in dedicated <table>_sequence tables.
package repositories
