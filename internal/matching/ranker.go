package matching

import (
	"sort"

	"github.com/soundsift/soundsift/internal/models"
)

// DuplicateGroup is one canonical song identity: the ranked set of records
// believed to be duplicates and the designated winner. Ranked is ordered
// most-preferred first; Winner is always Ranked[0]. Consumed read-only by
// the cleanup planner.
type DuplicateGroup struct {
	Ranked []*models.Track
	Winner *models.Track
}

// Losers returns every member after the winner, in rank order.
func (g DuplicateGroup) Losers() []*models.Track {
	if len(g.Ranked) < 2 {
		return nil
	}
	return g.Ranked[1:]
}

// rankCluster orders a cluster's members by the quality heuristic and names
// the winner. Pure function of the cluster: re-ranking an unchanged member
// set always yields the same order.
//
// The tuple, most significant first: explicit/official-audio marker, album
// release over single, duration closest to the cluster median, then stable
// catalog order. preferExplicit=false drops the first criterion.
func rankCluster(idx *Index, positions []int, preferExplicit bool) DuplicateGroup {
	type member struct {
		track      *models.Track
		catalogIdx int
	}

	members := make([]member, len(positions))
	durations := make([]int, 0, len(positions))
	for i, pos := range positions {
		rec := idx.Record(pos)
		members[i] = member{track: rec.Track, catalogIdx: idx.CatalogIndex(pos)}
		if rec.Track.Duration > 0 {
			durations = append(durations, rec.Track.Duration)
		}
	}
	median := medianDuration(durations)

	medianDelta := func(t *models.Track) int {
		if t.Duration <= 0 || median <= 0 {
			// Unknown durations rank behind any known one.
			return 1 << 30
		}
		d := t.Duration - median
		if d < 0 {
			d = -d
		}
		return d
	}

	sort.SliceStable(members, func(i, j int) bool {
		a, b := members[i], members[j]
		if preferExplicit && a.track.Explicit != b.track.Explicit {
			return a.track.Explicit
		}
		aAlbum, bAlbum := a.track.Album != "", b.track.Album != ""
		if aAlbum != bAlbum {
			return aAlbum
		}
		if da, db := medianDelta(a.track), medianDelta(b.track); da != db {
			return da < db
		}
		return a.catalogIdx < b.catalogIdx
	})

	group := DuplicateGroup{Ranked: make([]*models.Track, len(members))}
	for i, m := range members {
		group.Ranked[i] = m.track
	}
	group.Winner = group.Ranked[0]
	return group
}

// medianDuration returns the median of the known durations, 0 when none are
// known. Even-sized sets use the lower middle so the median is always an
// actual member duration.
func medianDuration(durations []int) int {
	if len(durations) == 0 {
		return 0
	}
	sorted := make([]int, len(durations))
	copy(sorted, durations)
	sort.Ints(sorted)
	return sorted[(len(sorted)-1)/2]
}
