// package cleanup turns ranked duplicate groups into a reversible action
// plan and applies it against the remote catalog service.
package cleanup

import (
	"fmt"

	"github.com/soundsift/soundsift/internal/models"
)

// Kind tags a cleanup action variant.
type Kind string

const (
	KindNoOp               Kind = "noop"
	KindLike               Kind = "like"
	KindUnlike             Kind = "unlike"
	KindAddToPlaylist      Kind = "add_to_playlist"
	KindRemoveFromPlaylist Kind = "remove_from_playlist"
)

// Action is one cleanup step against the remote catalog. It carries enough
// data to compute its own inverse. PlaylistID is set only for the playlist
// variants.
type Action struct {
	Kind       Kind           `json:"kind"`
	Track      models.TrackID `json:"track"`
	PlaylistID string         `json:"playlist_id,omitempty"`
}

// Inverse returns the action that exactly undoes a.
func (a Action) Inverse() Action {
	switch a.Kind {
	case KindLike:
		return Action{Kind: KindUnlike, Track: a.Track}
	case KindUnlike:
		return Action{Kind: KindLike, Track: a.Track}
	case KindAddToPlaylist:
		return Action{Kind: KindRemoveFromPlaylist, Track: a.Track, PlaylistID: a.PlaylistID}
	case KindRemoveFromPlaylist:
		return Action{Kind: KindAddToPlaylist, Track: a.Track, PlaylistID: a.PlaylistID}
	}
	return Action{Kind: KindNoOp}
}

func (a Action) String() string {
	switch a.Kind {
	case KindAddToPlaylist, KindRemoveFromPlaylist:
		return fmt.Sprintf("%s %s playlist=%s", a.Kind, a.Track, a.PlaylistID)
	case KindNoOp:
		return string(KindNoOp)
	default:
		return fmt.Sprintf("%s %s", a.Kind, a.Track)
	}
}
