package repositories

import (
	"testing"

	"github.com/soundsift/soundsift/internal/models"
)

// closedDB returns a database whose connection has already been closed,
// forcing every query to fail.
func closedDB(t *testing.T) *TrackRepository {
	t.Helper()
	db := setupTestDB(t)
	db.Close()
	return NewTrackRepository(db)
}

func TestTrackRepositoryClosedDatabase(t *testing.T) {
	t.Run("Create", func(t *testing.T) {
		repo := closedDB(t)
		if err := repo.Create(models.NewPersistedTrack(0, sampleTrack("sp1"))); err == nil {
			t.Error("expected error on closed database")
		}
	})

	t.Run("Get", func(t *testing.T) {
		repo := closedDB(t)
		if _, err := repo.Get("any"); err == nil {
			t.Error("expected error on closed database")
		}
	})

	t.Run("List", func(t *testing.T) {
		repo := closedDB(t)
		if _, err := repo.List(nil); err == nil {
			t.Error("expected error on closed database")
		}
	})

	t.Run("Delete", func(t *testing.T) {
		repo := closedDB(t)
		if err := repo.Delete("any"); err == nil {
			t.Error("expected error on closed database")
		}
	})

	t.Run("NextSequence", func(t *testing.T) {
		db := setupTestDB(t)
		db.Close()
		if _, err := NextSequence(db, "tracks"); err == nil {
			t.Error("expected error on closed database")
		}
	})
}

func TestTrackRepositoryValidation(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTrackRepository(db)

	missing := sampleTrack("")
	if err := repo.Create(models.NewPersistedTrack(0, missing)); err == nil {
		t.Error("expected validation failure for missing native id")
	}
}
