package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/soundsift/soundsift/internal/matching"
	"github.com/soundsift/soundsift/internal/models"
	"github.com/soundsift/soundsift/internal/shared"
)

// Resolver finds targets for tracks the indexed comparison missed by querying
// a search backend and scoring the returned candidates.
type Resolver struct {
	search SearchService
	scorer *matching.Scorer
}

// NewResolver creates a search resolver. A nil search backend disables
// resolution; Resolve will return shared.ErrServiceUnavailable.
func NewResolver(search SearchService, scorer *matching.Scorer) *Resolver {
	return &Resolver{search: search, scorer: scorer}
}

// Resolve queries the search backend for a missing track and returns the best
// accepted candidate. Candidates are pre-filtered with a cheap fuzzy title
// rank before full scoring, then evaluated best-rank first.
func (r *Resolver) Resolve(ctx context.Context, probe models.Track) (*matching.MatchResult, error) {
	if r.search == nil {
		return nil, fmt.Errorf("%w: no search backend configured", shared.ErrServiceUnavailable)
	}

	candidates, err := r.search.Search(ctx, probe)
	if err != nil {
		return nil, fmt.Errorf("search failed for %q: %w", probe.Title, err)
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: no candidates for %q", shared.ErrTrackNotFound, probe.Title)
	}

	ranked := rankByTitle(probe.Title, candidates)
	source := matching.NewRecord(&probe)

	var best *matching.MatchResult
	for i := range ranked {
		res := r.scorer.Score(source, matching.NewRecord(&ranked[i]))
		if !res.Accepted {
			continue
		}
		if best == nil || res.Confidence > best.Confidence {
			best = &res
		}
	}
	if best == nil {
		return nil, fmt.Errorf("%w: no candidate accepted for %q", shared.ErrTrackNotFound, probe.Title)
	}
	return best, nil
}

// rankByTitle orders candidates by fuzzy title distance, keeping every
// candidate so an album or artist mismatch in the top hit cannot hide a
// better match further down.
func rankByTitle(title string, candidates []models.Track) []models.Track {
	type scored struct {
		track models.Track
		rank  int
	}
	ranked := make([]scored, 0, len(candidates))
	for _, cand := range candidates {
		rank := fuzzy.RankMatchNormalizedFold(title, cand.Title)
		if rank < 0 {
			// No subsequence match. Push to the back but keep it.
			rank = 1 << 20
		}
		ranked = append(ranked, scored{track: cand, rank: rank})
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].rank < ranked[j].rank })

	out := make([]models.Track, 0, len(ranked))
	for _, s := range ranked {
		out = append(out, s.track)
	}
	return out
}
