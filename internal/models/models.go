// package models defines the data model for the catalog sweep tooling
package models

import (
	"fmt"
	"time"

	"github.com/soundsift/soundsift/internal/shared"
)

// Platform identifies the service a track record was exported from.
//
// The set of platforms is closed: parsers and the matching core agree on
// this finite domain instead of passing free-form strings around.
type Platform string

const (
	PlatformAppleMusic   Platform = "apple_music"
	PlatformSpotify      Platform = "spotify"
	PlatformYouTubeMusic Platform = "youtube_music"
)

// ParsePlatform converts a string into a [Platform], accepting the canonical
// snake_case names used in snapshot files.
func ParsePlatform(s string) (Platform, error) {
	p := Platform(s)
	if !p.Valid() {
		return "", fmt.Errorf("%w: %q", shared.ErrUnknownPlatform, s)
	}
	return p, nil
}

// Valid reports whether p is one of the known platforms.
func (p Platform) Valid() bool {
	switch p {
	case PlatformAppleMusic, PlatformSpotify, PlatformYouTubeMusic:
		return true
	}
	return false
}

func (p Platform) String() string { return string(p) }

// TrackID is a track's identity: the (platform, source-native id) pair.
// All other Track fields are comparison data, not identity.
type TrackID struct {
	Platform Platform `json:"platform"`
	NativeID string   `json:"native_id"`
}

func (id TrackID) String() string {
	return string(id.Platform) + ":" + id.NativeID
}

// Track is an immutable catalog record. Zero values mark absent optional
// fields: Album and Genre empty, Duration and Year zero, ISRC empty.
type Track struct {
	Title    string   `json:"title"`
	Artists  []string `json:"artists"`
	Album    string   `json:"album,omitempty"`
	Duration int      `json:"duration,omitempty"` // seconds
	ISRC     string   `json:"isrc,omitempty"`
	Year     int      `json:"year,omitempty"`
	Genre    string   `json:"genre,omitempty"`
	Explicit bool     `json:"explicit,omitempty"`
	Platform Platform `json:"platform"`
	NativeID string   `json:"native_id"`
}

// ID returns the track's identity pair.
func (t Track) ID() TrackID {
	return TrackID{Platform: t.Platform, NativeID: t.NativeID}
}

// Artist returns the primary (first-listed) artist, or "" when unknown.
func (t Track) Artist() string {
	if len(t.Artists) == 0 {
		return ""
	}
	return t.Artists[0]
}

// Validate checks the identity pair. A track without one cannot participate
// in matching and is reported as a malformed record.
func (t Track) Validate() error {
	if t.NativeID == "" {
		return fmt.Errorf("%w: missing native id for %q", shared.ErrMalformedRecord, t.Title)
	}
	if !t.Platform.Valid() {
		return fmt.Errorf("%w: track %q has platform %q", shared.ErrMalformedRecord, t.Title, t.Platform)
	}
	return nil
}

// Playlist is an ordered snapshot of a remote playlist's membership.
type Playlist struct {
	ID     string    `json:"id"`
	Name   string    `json:"name"`
	Tracks []TrackID `json:"tracks"`
}

// Contains reports whether the snapshot lists the given track.
func (p Playlist) Contains(id TrackID) bool {
	for _, t := range p.Tracks {
		if t == id {
			return true
		}
	}
	return false
}

// Library is an ordered catalog of tracks from one platform. Input order is
// significant: it is the stable tie-break order for matching and ranking.
type Library struct {
	Name     string   `json:"name"`
	Platform Platform `json:"platform"`
	Tracks   []Track  `json:"tracks"`
}

// Model defines the base interface for persistent models.
type Model interface {
	ID() string           // ID returns the unique identifier for this model
	CreatedAt() time.Time // CreatedAt returns when this model was created
	UpdatedAt() time.Time // UpdatedAt returns when this model was last updated
	Validate() error      // Validate checks if the model's data is valid and returns an error if not
}

// Repository defines the interface for data access operations.
type Repository[T Model] interface {
	Create(model T) error                      // Create inserts a new model into the database
	Get(id string) (T, error)                  // Get retrieves a model by its ID
	Update(model T) error                      // Update modifies an existing model in the database
	Delete(id string) error                    // Delete removes a model from the database by its ID
	List(criteria map[string]any) ([]T, error) // List retrieves all models matching the given criteria
}
