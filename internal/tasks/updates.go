package tasks

import (
	"fmt"

	"github.com/soundsift/soundsift/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data
}

// Operation phase enumeration
type Phase int

const (
	FetchSource Phase = iota
	FetchTarget
	FetchPlaylists
	CacheTracks
	Compare
	DetectDuplicates
	BuildPlan
	ApplyPlan
	RollbackPlan
)

func (p Phase) String() string {
	switch p {
	case FetchSource:
		return "fetch_source"
	case FetchTarget:
		return "fetch_target"
	case FetchPlaylists:
		return "fetch_playlists"
	case CacheTracks:
		return "cache_tracks"
	case Compare:
		return "compare"
	case DetectDuplicates:
		return "detect_duplicates"
	case BuildPlan:
		return "build_plan"
	case ApplyPlan:
		return "apply_plan"
	case RollbackPlan:
		return "rollback_plan"
	default:
		return ""
	}
}

func fetchLibraryUpdate(phase Phase, name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   phase,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Fetching library from %s...", name),
	}
}

func fetchedLibraryUpdate(phase Phase, lib *models.Library) ProgressUpdate {
	return ProgressUpdate{
		Phase:   phase,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Fetched %s (%d tracks)", lib.Name, len(lib.Tracks)),
		Data:    lib,
	}
}

func fetchPlaylistsUpdate(name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchPlaylists,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Fetching playlists from %s...", name),
	}
}

func cachedTracksUpdate(added, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CacheTracks,
		Step:    total,
		Total:   total,
		Message: fmt.Sprintf("Cached %d new of %d tracks", added, total),
	}
}

func compareUpdate(sourceCount, targetCount int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Compare,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Comparing %d source tracks against %d target tracks...", sourceCount, targetCount),
	}
}

func detectUpdate(count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   DetectDuplicates,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Scanning %d tracks for duplicates...", count),
	}
}

func buildPlanUpdate(groups int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   BuildPlan,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Building cleanup plan for %d duplicate groups...", groups),
	}
}

func applyActionUpdate(step, total int, action string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ApplyPlan,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s", step, total, action),
	}
}

func rollbackUpdate(step, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   RollbackPlan,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Reverting %d applied actions...", total),
	}
}
