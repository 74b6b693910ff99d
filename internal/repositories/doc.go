// Package repositories implements SQLite persistence for the track snapshot
// cache.
//
// The cache records every track fetched from a catalog source so repeated
// sweeps of large libraries skip the network, and keeps an ISRC index for
// cross-platform lookups. Rows are keyed by the (platform, native id)
// identity pair and soft-deleted via deleted_at timestamps; queries exclude
// deleted rows by default.
//
// Sequence numbers provide stable, human-readable ordering independent of
// UUIDs and creation timestamps. [NextSequence] atomically increments a
// per-table counter in the sequences table.
package repositories
