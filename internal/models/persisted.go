package models

import (
	"fmt"
	"time"
)

// PersistedTrack is a database-backed snapshot of a fetched [Track].
//
// Rows are keyed by the identity pair so re-fetching a catalog is a no-op,
// and indexed by ISRC for cross-platform lookups.
type PersistedTrack struct {
	id        string
	sequence  int
	track     Track
	createdAt time.Time
	updatedAt time.Time
	deletedAt *time.Time
}

// NewPersistedTrack wraps a track value for persistence. Sequence 0 means
// "assign on insert".
func NewPersistedTrack(sequence int, track Track) *PersistedTrack {
	now := time.Now()
	return &PersistedTrack{
		sequence:  sequence,
		track:     track,
		createdAt: now,
		updatedAt: now,
	}
}

// RestorePersistedTrack rebuilds an entity from stored column values.
func RestorePersistedTrack(id string, sequence int, track Track, createdAt, updatedAt time.Time, deletedAt *time.Time) *PersistedTrack {
	return &PersistedTrack{
		id:        id,
		sequence:  sequence,
		track:     track,
		createdAt: createdAt,
		updatedAt: updatedAt,
		deletedAt: deletedAt,
	}
}

func (t *PersistedTrack) ID() string            { return t.id }
func (t *PersistedTrack) Sequence() int         { return t.sequence }
func (t *PersistedTrack) Track() Track          { return t.track }
func (t *PersistedTrack) CreatedAt() time.Time  { return t.createdAt }
func (t *PersistedTrack) UpdatedAt() time.Time  { return t.updatedAt }
func (t *PersistedTrack) DeletedAt() *time.Time { return t.deletedAt }

// SetID assigns the row ID, done once on insert.
func (t *PersistedTrack) SetID(id string) { t.id = id }

// SetUpdatedAt stamps the row on update.
func (t *PersistedTrack) SetUpdatedAt(ts time.Time) { t.updatedAt = ts }

// Validate checks the wrapped track's identity pair and the row ID.
func (t *PersistedTrack) Validate() error {
	if t.id == "" {
		return fmt.Errorf("persisted track missing id")
	}
	return t.track.Validate()
}
