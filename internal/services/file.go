package services

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/soundsift/soundsift/internal/models"
)

// FileSource implements [CatalogSource] over JSON snapshot files: a library
// file holding a [models.Library] and an optional playlists file holding an
// ordered playlist list.
type FileSource struct {
	libraryPath   string
	playlistsPath string
}

// NewFileSource creates a snapshot-file catalog source. playlistsPath may
// be empty when no playlist snapshot is available.
func NewFileSource(libraryPath, playlistsPath string) *FileSource {
	return &FileSource{libraryPath: libraryPath, playlistsPath: playlistsPath}
}

// Name returns the library file path.
func (f *FileSource) Name() string { return f.libraryPath }

// Library reads the library snapshot. Track order in the file is the
// catalog's stable input order.
func (f *FileSource) Library(ctx context.Context) (*models.Library, error) {
	data, err := os.ReadFile(f.libraryPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read library file: %w", err)
	}

	var lib models.Library
	if err := json.Unmarshal(data, &lib); err != nil {
		return nil, fmt.Errorf("failed to parse library file %s: %w", f.libraryPath, err)
	}
	if lib.Name == "" {
		lib.Name = f.libraryPath
	}
	return &lib, nil
}

// Playlists reads the playlist snapshot file, or returns an empty list when
// none was configured.
func (f *FileSource) Playlists(ctx context.Context) ([]models.Playlist, error) {
	if f.playlistsPath == "" {
		return nil, nil
	}

	data, err := os.ReadFile(f.playlistsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read playlists file: %w", err)
	}

	var playlists []models.Playlist
	if err := json.Unmarshal(data, &playlists); err != nil {
		return nil, fmt.Errorf("failed to parse playlists file %s: %w", f.playlistsPath, err)
	}
	return playlists, nil
}

// SaveLibrary writes a library snapshot in the format [FileSource] reads.
func SaveLibrary(path string, lib *models.Library) error {
	data, err := json.MarshalIndent(lib, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal library: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write library file: %w", err)
	}
	return nil
}
