package matching

import (
	"context"
	"runtime"
	"sort"
	"sync"

	"github.com/soundsift/soundsift/internal/models"
)

// DetectOptions configure same-catalog duplicate detection.
type DetectOptions struct {
	Mode           Mode
	Threshold      float64 // overrides the mode's acceptance bar when > 0
	PreferExplicit bool    // passed through to the ranker
	Workers        int
}

// DuplicateReport holds all duplicate clusters found in one catalog, each
// ranked with a designated winner.
type DuplicateReport struct {
	Groups  []DuplicateGroup
	Skipped []SkippedRecord
}

// FindDuplicates clusters near-duplicate records within one catalog.
//
// Every unordered same-bucket pair (plus every ISRC-equal pair) is scored;
// accepted pairs are unioned into clusters via a disjoint-set over catalog
// indices. Clustering is therefore transitive by construction: if A~B and
// B~C are each accepted, A, B, and C share a cluster even when A~C alone
// would not pass the bar. That transitivity is deliberate.
func FindDuplicates(ctx context.Context, tracks []models.Track, opts DetectOptions) (*DuplicateReport, error) {
	scorer := NewScorer(opts.Mode)

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	idx, skipped := BuildIndex(tracks, workers)
	report := &DuplicateReport{Skipped: skipped}
	if idx.Len() < 2 {
		return report, nil
	}

	pairs := collectPairs(idx)
	if len(pairs) == 0 {
		return report, nil
	}

	accepted := make([]bool, len(pairs))
	jobs := make(chan int, len(pairs))

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				select {
				case <-ctx.Done():
					return
				default:
				}
				p := pairs[i]
				res := scorer.ScoreWithBar(idx.Record(p[0]), idx.Record(p[1]), opts.Threshold)
				accepted[i] = res.Accepted
			}
		}()
	}
	for i := range pairs {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Union pass is sequential and ordered, so cluster roots are stable
	// regardless of how the scoring work was scheduled.
	uf := newUnionFind(idx.Len())
	for i, p := range pairs {
		if accepted[i] {
			uf.union(p[0], p[1])
		}
	}

	for _, members := range uf.clusters() {
		group := rankCluster(idx, members, opts.PreferExplicit)
		report.Groups = append(report.Groups, group)
	}

	return report, nil
}

// collectPairs enumerates every unordered pair that must be scored: all
// same-bucket pairs plus all ISRC-equal pairs, deduplicated, in a
// deterministic order.
func collectPairs(idx *Index) [][2]int {
	var pairs [][2]int
	seen := make(map[[2]int]struct{})

	add := func(a, b int) {
		if a > b {
			a, b = b, a
		}
		key := [2]int{a, b}
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		pairs = append(pairs, key)
	}

	for _, bucket := range idx.Buckets() {
		members := idx.Bucket(bucket)
		for i := 0; i < len(members); i++ {
			for j := i + 1; j < len(members); j++ {
				add(members[i], members[j])
			}
		}
	}
	for _, group := range idx.ISRCGroups() {
		for i := 0; i < len(group); i++ {
			for j := i + 1; j < len(group); j++ {
				add(group[i], group[j])
			}
		}
	}

	return pairs
}

// unionFind is a disjoint-set over record positions: an arena of indices
// with a parent array, no pointer-linked groups.
type unionFind struct {
	parent []int
	rank   []int
}

func newUnionFind(n int) *unionFind {
	uf := &unionFind{parent: make([]int, n), rank: make([]int, n)}
	for i := range uf.parent {
		uf.parent[i] = i
	}
	return uf
}

func (uf *unionFind) find(x int) int {
	for uf.parent[x] != x {
		uf.parent[x] = uf.parent[uf.parent[x]]
		x = uf.parent[x]
	}
	return x
}

func (uf *unionFind) union(a, b int) {
	ra, rb := uf.find(a), uf.find(b)
	if ra == rb {
		return
	}
	if uf.rank[ra] < uf.rank[rb] {
		ra, rb = rb, ra
	}
	uf.parent[rb] = ra
	if uf.rank[ra] == uf.rank[rb] {
		uf.rank[ra]++
	}
}

// clusters returns every set with two or more members. Members are in
// position order; clusters are ordered by their smallest member.
func (uf *unionFind) clusters() [][]int {
	byRoot := make(map[int][]int)
	for i := range uf.parent {
		root := uf.find(i)
		byRoot[root] = append(byRoot[root], i)
	}

	var firsts []int
	for _, members := range byRoot {
		if len(members) > 1 {
			firsts = append(firsts, members[0])
		}
	}
	// Member slices are built in ascending order, so sorting by first
	// member yields a stable cluster order.
	sort.Ints(firsts)

	out := make([][]int, 0, len(firsts))
	for _, first := range firsts {
		out = append(out, byRoot[uf.find(first)])
	}
	return out
}
