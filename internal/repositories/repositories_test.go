package repositories

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/soundsift/soundsift/internal/models"
	"github.com/soundsift/soundsift/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	return db
}

func sampleTrack(nativeID string) models.Track {
	return models.Track{
		Title:    "Let It Be",
		Artists:  []string{"The Beatles"},
		Album:    "Let It Be",
		Duration: 243,
		ISRC:     "GBAYE0601648",
		Year:     1970,
		Explicit: false,
		Platform: models.PlatformSpotify,
		NativeID: nativeID,
	}
}

func TestTrackRepository(t *testing.T) {
	t.Run("Create", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewTrackRepository(db)

		track := models.NewPersistedTrack(0, sampleTrack("sp1"))
		if err := repo.Create(track); err != nil {
			t.Fatalf("failed to create track: %v", err)
		}
		if track.ID() == "" {
			t.Error("track ID should be set after creation")
		}
	})

	t.Run("Get", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewTrackRepository(db)

		track := models.NewPersistedTrack(0, sampleTrack("sp1"))
		if err := repo.Create(track); err != nil {
			t.Fatalf("failed to create track: %v", err)
		}

		got, err := repo.Get(track.ID())
		if err != nil {
			t.Fatalf("failed to get track: %v", err)
		}
		stored := got.Track()
		if stored.Title != "Let It Be" || stored.NativeID != "sp1" {
			t.Errorf("unexpected track: %+v", stored)
		}
		if len(stored.Artists) != 1 || stored.Artists[0] != "The Beatles" {
			t.Errorf("artist list not restored: %v", stored.Artists)
		}
	})

	t.Run("GetByIdentity", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewTrackRepository(db)

		if err := repo.Create(models.NewPersistedTrack(0, sampleTrack("sp1"))); err != nil {
			t.Fatalf("failed to create track: %v", err)
		}

		got, err := repo.GetByIdentity(models.TrackID{Platform: models.PlatformSpotify, NativeID: "sp1"})
		if err != nil {
			t.Fatalf("GetByIdentity failed: %v", err)
		}
		if got.Track().NativeID != "sp1" {
			t.Errorf("unexpected track: %+v", got.Track())
		}

		_, err = repo.GetByIdentity(models.TrackID{Platform: models.PlatformYouTubeMusic, NativeID: "sp1"})
		if !errors.Is(err, shared.ErrTrackNotFound) {
			t.Errorf("expected ErrTrackNotFound for wrong platform, got %v", err)
		}
	})

	t.Run("GetByISRC", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewTrackRepository(db)

		spotify := sampleTrack("sp1")
		youtube := sampleTrack("v1")
		youtube.Platform = models.PlatformYouTubeMusic

		if err := repo.Create(models.NewPersistedTrack(0, spotify)); err != nil {
			t.Fatal(err)
		}
		if err := repo.Create(models.NewPersistedTrack(0, youtube)); err != nil {
			t.Fatal(err)
		}

		got, err := repo.GetByISRC("GBAYE0601648")
		if err != nil {
			t.Fatalf("GetByISRC failed: %v", err)
		}
		// Lowest sequence wins when the code exists on both platforms.
		if got.Track().Platform != models.PlatformSpotify {
			t.Errorf("expected spotify row first, got %s", got.Track().Platform)
		}
	})

	t.Run("Update", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewTrackRepository(db)

		track := models.NewPersistedTrack(0, sampleTrack("sp1"))
		if err := repo.Create(track); err != nil {
			t.Fatal(err)
		}

		updated := sampleTrack("sp1")
		updated.Album = "Let It Be... Naked"
		entity := models.RestorePersistedTrack(track.ID(), track.Sequence(), updated, track.CreatedAt(), track.UpdatedAt(), nil)
		if err := repo.Update(entity); err != nil {
			t.Fatalf("failed to update track: %v", err)
		}

		got, err := repo.Get(track.ID())
		if err != nil {
			t.Fatal(err)
		}
		if got.Track().Album != "Let It Be... Naked" {
			t.Errorf("album not updated: %s", got.Track().Album)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewTrackRepository(db)

		track := models.NewPersistedTrack(0, sampleTrack("sp1"))
		if err := repo.Create(track); err != nil {
			t.Fatal(err)
		}

		if err := repo.Delete(track.ID()); err != nil {
			t.Fatalf("failed to delete track: %v", err)
		}

		if _, err := repo.Get(track.ID()); !errors.Is(err, shared.ErrTrackNotFound) {
			t.Errorf("expected ErrTrackNotFound after delete, got %v", err)
		}

		if err := repo.Delete(track.ID()); !errors.Is(err, shared.ErrTrackNotFound) {
			t.Errorf("expected ErrTrackNotFound on double delete, got %v", err)
		}
	})

	t.Run("List", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewTrackRepository(db)

		first := sampleTrack("sp1")
		second := sampleTrack("v1")
		second.Platform = models.PlatformYouTubeMusic
		second.ISRC = ""

		if err := repo.Create(models.NewPersistedTrack(0, first)); err != nil {
			t.Fatal(err)
		}
		if err := repo.Create(models.NewPersistedTrack(0, second)); err != nil {
			t.Fatal(err)
		}

		all, err := repo.List(nil)
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if len(all) != 2 {
			t.Fatalf("expected 2 tracks, got %d", len(all))
		}
		if all[0].Sequence() > all[1].Sequence() {
			t.Error("expected sequence order")
		}

		spotifyOnly, err := repo.List(map[string]any{"platform": "spotify"})
		if err != nil {
			t.Fatal(err)
		}
		if len(spotifyOnly) != 1 || spotifyOnly[0].Track().Platform != models.PlatformSpotify {
			t.Errorf("platform filter failed: %+v", spotifyOnly)
		}

		byISRC, err := repo.List(map[string]any{"isrc": "GBAYE0601648"})
		if err != nil {
			t.Fatal(err)
		}
		if len(byISRC) != 1 {
			t.Errorf("isrc filter failed: %+v", byISRC)
		}
	})

	t.Run("UniqueIdentity", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewTrackRepository(db)

		if err := repo.Create(models.NewPersistedTrack(0, sampleTrack("sp1"))); err != nil {
			t.Fatal(err)
		}
		if err := repo.Create(models.NewPersistedTrack(0, sampleTrack("sp1"))); err == nil {
			t.Error("expected duplicate identity insert to fail")
		}
	})
}

func TestNextSequence(t *testing.T) {
	db := setupTestDB(t)

	for want := 1; want <= 3; want++ {
		got, err := NextSequence(db, "tracks")
		if err != nil {
			t.Fatalf("NextSequence failed: %v", err)
		}
		if got != want {
			t.Errorf("expected sequence %d, got %d", want, got)
		}
	}

	// Independent counters per table name.
	got, err := NextSequence(db, "plans")
	if err != nil {
		t.Fatal(err)
	}
	if got != 1 {
		t.Errorf("expected fresh counter to start at 1, got %d", got)
	}
}

func TestTrackCacheAdapter(t *testing.T) {
	db := setupTestDB(t)
	adapter := NewTrackCacheAdapter(NewTrackRepository(db))

	track := sampleTrack("sp1")
	if err := adapter.CacheTrack(track); err != nil {
		t.Fatalf("CacheTrack failed: %v", err)
	}
	// Re-caching the same identity is a no-op.
	if err := adapter.CacheTrack(track); err != nil {
		t.Fatalf("re-cache failed: %v", err)
	}

	lib := &models.Library{
		Name:     "export",
		Platform: models.PlatformSpotify,
		Tracks:   []models.Track{track, sampleTrack("sp2"), sampleTrack("sp3")},
	}
	added, err := adapter.CacheLibrary(lib)
	if err != nil {
		t.Fatalf("CacheLibrary failed: %v", err)
	}
	if added != 2 {
		t.Errorf("expected 2 new rows, got %d", added)
	}
}
