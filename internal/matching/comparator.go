package matching

import (
	"context"
	"runtime"
	"sync"

	"github.com/soundsift/soundsift/internal/models"
)

// CompareOptions configure a catalog comparison.
type CompareOptions struct {
	Mode    Mode
	Workers int // scoring workers; <= 0 means NumCPU
}

// ComparisonResult is the outcome of matching one catalog against another.
// Matches and Missing are ordered by source catalog position.
type ComparisonResult struct {
	Matches   []MatchResult
	Missing   []models.Track
	MatchRate float64 // matched / valid source records
	Skipped   []SkippedRecord
}

// Compare matches every source record against the target catalog.
//
// For each source record the target index is probed for same-bucket and
// ISRC candidates; the highest-confidence accepted result wins. Ties are
// broken deterministically: an ISRC-exact match wins outright, then higher
// confidence, then the candidate appearing earlier in the target catalog's
// input order. A record with no accepted match is a normal outcome, reported
// in Missing, never an error.
//
// Neither catalog is mutated. Scoring fans out across workers and results
// merge in source order, so the outcome is identical for any worker count.
func Compare(ctx context.Context, source, target []models.Track, opts CompareOptions) (*ComparisonResult, error) {
	scorer := NewScorer(opts.Mode)

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	targetIdx, targetSkipped := BuildIndex(target, workers)
	sourceIdx, sourceSkipped := BuildIndex(source, workers)

	result := &ComparisonResult{
		Skipped: append(sourceSkipped, targetSkipped...),
	}

	n := sourceIdx.Len()
	if n == 0 {
		return result, nil
	}

	best := make([]*MatchResult, n)
	jobs := make(chan int, n)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for pos := range jobs {
				select {
				case <-ctx.Done():
					return
				default:
				}
				best[pos] = bestMatch(scorer, sourceIdx.Record(pos), targetIdx)
			}
		}()
	}
	for pos := 0; pos < n; pos++ {
		jobs <- pos
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	matched := 0
	for pos := 0; pos < n; pos++ {
		if best[pos] != nil {
			result.Matches = append(result.Matches, *best[pos])
			matched++
		} else {
			result.Missing = append(result.Missing, *sourceIdx.Record(pos).Track)
		}
	}
	result.MatchRate = float64(matched) / float64(n)

	return result, nil
}

// bestMatch scores a probe against its target candidates and returns the
// winning accepted result, or nil when nothing passes the bar.
func bestMatch(scorer *Scorer, probe Record, target *Index) *MatchResult {
	var best *MatchResult
	bestCatalogIdx := -1

	for _, pos := range target.Candidates(probe) {
		res := scorer.Score(probe, target.Record(pos))
		if !res.Accepted {
			continue
		}

		catalogIdx := target.CatalogIndex(pos)
		if best == nil || beats(res, catalogIdx, *best, bestCatalogIdx) {
			r := res
			best = &r
			bestCatalogIdx = catalogIdx
		}
	}

	return best
}

// beats implements the comparator tie-break order: ISRC-exact wins outright,
// then higher confidence, then earlier target catalog position.
func beats(a MatchResult, aIdx int, b MatchResult, bIdx int) bool {
	if a.Factors.ISRCExact != b.Factors.ISRCExact {
		return a.Factors.ISRCExact
	}
	if a.Confidence != b.Confidence {
		return a.Confidence > b.Confidence
	}
	return aIdx < bIdx
}
