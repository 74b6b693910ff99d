package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/soundsift/soundsift/internal/models"
	"github.com/soundsift/soundsift/internal/repositories"
)

// CacheLibrary fetches a library and stores its tracks in the snapshot cache.
func (r *Runner) CacheLibrary(ctx context.Context, cmd *cli.Command) error {
	source, err := r.sourceFor(cmd, "library", "")
	if err != nil {
		return err
	}

	db, err := r.openCache()
	if err != nil {
		return fmt.Errorf("failed to open snapshot cache: %w", err)
	}
	defer db.Close()

	r.logger.Infof("caching library from %s", source.Name())

	lib, err := source.Library(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch library: %w", err)
	}

	adapter := repositories.NewTrackCacheAdapter(repositories.NewTrackRepository(db))
	added, err := adapter.CacheLibrary(lib)
	if err != nil {
		return fmt.Errorf("failed to cache library: %w", err)
	}

	r.writePlainln("✓ Library cached: %s", lib.Name)
	r.writePlainln("  Tracks: %d (%d new)", len(lib.Tracks), added)

	return nil
}

// CacheStats prints cached track counts per platform.
func (r *Runner) CacheStats(ctx context.Context, cmd *cli.Command) error {
	db, err := r.openCache()
	if err != nil {
		return fmt.Errorf("failed to open snapshot cache: %w", err)
	}
	defer db.Close()

	repo := repositories.NewTrackRepository(db)

	total, err := repo.Count()
	if err != nil {
		return err
	}

	r.writePlainHeader("Snapshot cache")
	r.writePlain("Total tracks: %d\n", total)

	for _, platform := range []models.Platform{models.PlatformAppleMusic, models.PlatformSpotify, models.PlatformYouTubeMusic} {
		tracks, err := repo.List(map[string]any{"platform": platform.String()})
		if err != nil {
			return err
		}
		r.writePlain("  %s: %d\n", platform, len(tracks))
	}

	return nil
}
