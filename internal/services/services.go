package services

import (
	"context"

	"github.com/soundsift/soundsift/internal/models"
)

// CatalogSource supplies an ordered sequence of track records from one
// platform, already parsed into the common record shape.
type CatalogSource interface {
	// Library returns the catalog's tracks in stable input order.
	Library(ctx context.Context) (*models.Library, error)

	// Playlists returns ordered playlist membership snapshots.
	Playlists(ctx context.Context) ([]models.Playlist, error)

	// Name returns a human-readable source name.
	Name() string
}

// SearchService returns zero or more candidate remote tracks for a probe
// track. Candidates carry the common record shape including native id; the
// transport behind them is not this package's concern.
type SearchService interface {
	Search(ctx context.Context, probe models.Track) ([]models.Track, error)
}
