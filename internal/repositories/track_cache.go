package repositories

import (
	"fmt"
	"strings"

	"github.com/soundsift/soundsift/internal/models"
)

// TrackCacheAdapter implements tasks.TrackCacher over [TrackRepository].
//
// Tracks are deduplicated by the (platform, native id) UNIQUE constraint;
// re-caching an already cached track is a no-op.
type TrackCacheAdapter struct {
	repo *TrackRepository
}

// NewTrackCacheAdapter creates a new TrackCacheAdapter with the given repository
func NewTrackCacheAdapter(repo *TrackRepository) *TrackCacheAdapter {
	return &TrackCacheAdapter{repo: repo}
}

// CacheTrack stores one fetched track in the snapshot cache.
// Returns nil if the track is already cached.
func (a *TrackCacheAdapter) CacheTrack(track models.Track) error {
	existing, err := a.repo.GetByIdentity(track.ID())
	if err == nil && existing != nil {
		return nil
	}

	if err := a.repo.Create(models.NewPersistedTrack(0, track)); err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return nil
		}
		return fmt.Errorf("failed to cache track: %w", err)
	}

	return nil
}

// CacheLibrary stores every track in a library snapshot, returning the count
// of newly cached rows.
func (a *TrackCacheAdapter) CacheLibrary(lib *models.Library) (int, error) {
	before, err := a.repo.Count()
	if err != nil {
		return 0, err
	}

	for _, t := range lib.Tracks {
		if err := a.CacheTrack(t); err != nil {
			return 0, err
		}
	}

	after, err := a.repo.Count()
	if err != nil {
		return 0, err
	}
	return after - before, nil
}
