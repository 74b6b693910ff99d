package matching

import (
	"fmt"
	"runtime"
	"sort"
	"sync"

	"github.com/soundsift/soundsift/internal/models"
	"github.com/soundsift/soundsift/internal/normalize"
	"github.com/soundsift/soundsift/internal/shared"
)

func errDuplicateIdentity(id models.TrackID) error {
	return fmt.Errorf("%w: duplicate identity %s", shared.ErrMalformedRecord, id)
}

// SkippedRecord reports a catalog entry that could not participate in
// matching, with the reason. Skips are warnings, never run aborts.
type SkippedRecord struct {
	Index int
	Track models.Track
	Err   error
}

// Index groups a catalog's records by coarse key so candidate comparison is
// restricted to same-bucket pairs. ISRC lookups bypass bucketing entirely.
//
// Bucketing is a recall/cost trade: two true duplicates whose normalized
// titles diverge within the first [normalize.BucketLen] runes land in
// different buckets and are never compared. That is an accepted limitation,
// not a defect.
type Index struct {
	records []Record
	order   []int            // record position -> original catalog index
	buckets map[string][]int // bucket key -> record positions, catalog order
	isrc    map[string][]int // folded ISRC -> record positions, catalog order
}

// BuildIndex normalizes a catalog and buckets it for candidate lookup.
// Malformed records (missing identity pair) and identity-pair collisions are
// skipped and reported, never fatal.
//
// Normalization fans out over workers; the result is assembled in catalog
// order so it is identical for any worker count.
func BuildIndex(tracks []models.Track, workers int) (*Index, []SkippedRecord) {
	keys := normalizeAll(tracks, workers)

	idx := &Index{
		buckets: make(map[string][]int),
		isrc:    make(map[string][]int),
	}
	var skipped []SkippedRecord
	seen := make(map[models.TrackID]struct{}, len(tracks))

	for i := range tracks {
		t := &tracks[i]
		if err := t.Validate(); err != nil {
			skipped = append(skipped, SkippedRecord{Index: i, Track: *t, Err: err})
			continue
		}
		if _, dup := seen[t.ID()]; dup {
			skipped = append(skipped, SkippedRecord{Index: i, Track: *t, Err: errDuplicateIdentity(t.ID())})
			continue
		}
		seen[t.ID()] = struct{}{}

		pos := len(idx.records)
		idx.records = append(idx.records, Record{Track: t, Key: keys[i]})
		idx.order = append(idx.order, i)
		idx.buckets[keys[i].Bucket] = append(idx.buckets[keys[i].Bucket], pos)
		if keys[i].ISRC != "" {
			idx.isrc[keys[i].ISRC] = append(idx.isrc[keys[i].ISRC], pos)
		}
	}

	return idx, skipped
}

// Len returns the number of indexed (valid) records.
func (idx *Index) Len() int { return len(idx.records) }

// Record returns the indexed record at position pos.
func (idx *Index) Record(pos int) Record { return idx.records[pos] }

// CatalogIndex returns the original catalog position of record pos.
func (idx *Index) CatalogIndex(pos int) int { return idx.order[pos] }

// Candidates returns the positions a probe record must be compared against:
// its title bucket plus any ISRC-equal records. Positions are deduplicated
// and returned in catalog order so downstream tie-breaks are stable.
func (idx *Index) Candidates(probe Record) []int {
	bucketHits := idx.buckets[probe.Key.Bucket]
	var isrcHits []int
	if probe.Key.ISRC != "" {
		isrcHits = idx.isrc[probe.Key.ISRC]
	}
	if len(isrcHits) == 0 {
		return bucketHits
	}

	merged := make([]int, 0, len(bucketHits)+len(isrcHits))
	seen := make(map[int]struct{}, len(bucketHits)+len(isrcHits))
	for _, pos := range bucketHits {
		merged = append(merged, pos)
		seen[pos] = struct{}{}
	}
	for _, pos := range isrcHits {
		if _, ok := seen[pos]; !ok {
			merged = append(merged, pos)
		}
	}
	sort.Ints(merged)
	return merged
}

// Buckets returns the bucket keys in sorted order. Used by the duplicate
// detector to enumerate same-bucket pairs deterministically.
func (idx *Index) Buckets() []string {
	keys := make([]string, 0, len(idx.buckets))
	for k := range idx.buckets {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Bucket returns the record positions in one bucket, catalog order.
func (idx *Index) Bucket(key string) []int { return idx.buckets[key] }

// ISRCGroups returns the positions of each multi-record ISRC group, ordered
// by first occurrence.
func (idx *Index) ISRCGroups() [][]int {
	codes := make([]string, 0, len(idx.isrc))
	for code, positions := range idx.isrc {
		if len(positions) > 1 {
			codes = append(codes, code)
		}
	}
	sort.Slice(codes, func(i, j int) bool {
		return idx.isrc[codes[i]][0] < idx.isrc[codes[j]][0]
	})

	groups := make([][]int, 0, len(codes))
	for _, code := range codes {
		groups = append(groups, idx.isrc[code])
	}
	return groups
}

// normalizeAll computes comparison keys for every track, fanned out over a
// worker pool. Output slot i always holds track i's key, so the result is
// independent of scheduling.
func normalizeAll(tracks []models.Track, workers int) []normalize.Key {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(tracks) {
		workers = len(tracks)
	}
	keys := make([]normalize.Key, len(tracks))
	if len(tracks) == 0 {
		return keys
	}

	jobs := make(chan int, len(tracks))
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				keys[i] = normalize.TrackKey(tracks[i])
			}
		}()
	}
	for i := range tracks {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return keys
}
