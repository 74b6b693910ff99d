// package matching implements pairwise track scoring, candidate indexing,
// catalog comparison, and duplicate clustering.
package matching

import (
	"fmt"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"

	"github.com/soundsift/soundsift/internal/models"
	"github.com/soundsift/soundsift/internal/normalize"
	"github.com/soundsift/soundsift/internal/shared"
)

// Mode selects the matching tolerance profile.
type Mode string

const (
	ModeStrict  Mode = "strict"
	ModeRelaxed Mode = "relaxed"
)

// ParseMode converts a config string into a [Mode].
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeStrict, ModeRelaxed:
		return Mode(s), nil
	case "":
		return ModeRelaxed, nil
	}
	return "", fmt.Errorf("%w: mode %q", shared.ErrInvalidFlag, s)
}

// modeParams are fixed per mode; callers only pick a mode, never individual
// knobs (the duplicate-detection bar can be overridden via policy threshold).
type modeParams struct {
	minTitleSim      float64 // title similarity floor
	minArtistOverlap float64 // artist token overlap floor
	maxDurationDelta int     // seconds considered "same duration"
	durationCutoff   int     // seconds past which duration contributes 0
	bar              float64 // composite confidence acceptance bar
}

var modeTable = map[Mode]modeParams{
	ModeStrict:  {minTitleSim: 0.92, minArtistOverlap: 0.50, maxDurationDelta: 5, durationCutoff: 15, bar: 0.90},
	ModeRelaxed: {minTitleSim: 0.88, minArtistOverlap: 0.33, maxDurationDelta: 7, durationCutoff: 21, bar: 0.85},
}

// Factor weights before redistribution over present factors.
const (
	weightTitle    = 0.45
	weightArtist   = 0.35
	weightAlbum    = 0.10
	weightDuration = 0.10
)

// Titles shorter than this collide by chance often enough that their
// acceptance bar is raised.
const (
	shortTitleLen   = 5
	shortTitleBoost = 0.05
)

// A version-tag mismatch ("live" vs none) marks a different recording, so
// confidence is capped below both mode bars no matter how similar the text is.
const versionMismatchCeiling = 0.40

// FactorScores holds the per-factor sub-scores behind a confidence value.
type FactorScores struct {
	Title     float64 `json:"title"`
	Artist    float64 `json:"artist"`
	Album     float64 `json:"album"`
	Duration  float64 `json:"duration"`
	ISRCExact bool    `json:"isrc_exact"`
}

// MatchResult pairs two track references with the confidence that they
// describe the same recording. Read-only once produced.
type MatchResult struct {
	Source     *models.Track
	Target     *models.Track
	Confidence float64
	Factors    FactorScores
	Accepted   bool
}

// Record pairs a track reference with its precomputed comparison key.
type Record struct {
	Track *models.Track
	Key   normalize.Key
}

// NewRecord derives the comparison key for a track.
func NewRecord(t *models.Track) Record {
	return Record{Track: t, Key: normalize.TrackKey(*t)}
}

// Scorer computes multi-factor confidence scores between normalized records.
// The zero value is not usable; construct with [NewScorer].
type Scorer struct {
	mode   Mode
	params modeParams
	lev    *metrics.Levenshtein
}

// NewScorer creates a scorer for the given mode.
func NewScorer(mode Mode) *Scorer {
	return &Scorer{mode: mode, params: modeTable[mode], lev: metrics.NewLevenshtein()}
}

// Mode returns the scorer's mode.
func (s *Scorer) Mode() Mode { return s.mode }

// Bar returns the mode's composite acceptance bar.
func (s *Scorer) Bar() float64 { return s.params.bar }

// Score computes the confidence that a and b describe the same recording.
//
// Score is symmetric: Score(a,b) == Score(b,a). An ISRC-equal pair
// short-circuits to confidence 1.0 with no other factor computed, and is
// accepted regardless of mode.
func (s *Scorer) Score(a, b Record) MatchResult {
	return s.score(a, b, s.params.bar)
}

// ScoreWithBar is Score with the composite bar overridden, used by the
// duplicate detector when the policy sets a threshold.
func (s *Scorer) ScoreWithBar(a, b Record, bar float64) MatchResult {
	if bar <= 0 {
		bar = s.params.bar
	}
	return s.score(a, b, bar)
}

func (s *Scorer) score(a, b Record, bar float64) MatchResult {
	res := MatchResult{Source: a.Track, Target: b.Track}

	if a.Key.ISRC != "" && a.Key.ISRC == b.Key.ISRC {
		res.Confidence = 1.0
		res.Factors.ISRCExact = true
		res.Accepted = true
		return res
	}

	titleSim := s.ratio(a.Key.Title, b.Key.Title)
	artistSim := tokenOverlap(a.Key.ArtistTokens, b.Key.ArtistTokens)

	albumPresent := a.Key.Album != "" && b.Key.Album != ""
	albumSim := 0.0
	if albumPresent {
		albumSim = s.ratio(a.Key.Album, b.Key.Album)
	}

	durPresent := a.Track.Duration > 0 && b.Track.Duration > 0
	durSim := 0.0
	if durPresent {
		durSim = s.durationScore(a.Track.Duration, b.Track.Duration)
	}

	res.Factors = FactorScores{Title: titleSim, Artist: artistSim, Album: albumSim, Duration: durSim}

	// Absent factors contribute nothing; their weight is redistributed
	// proportionally so present-factor weights always sum to 1.
	presentWeight := weightTitle + weightArtist
	if albumPresent {
		presentWeight += weightAlbum
	}
	if durPresent {
		presentWeight += weightDuration
	}

	confidence := (weightTitle*titleSim + weightArtist*artistSim) / presentWeight
	if albumPresent {
		confidence += weightAlbum * albumSim / presentWeight
	}
	if durPresent {
		confidence += weightDuration * durSim / presentWeight
	}

	if a.Key.VersionTag != b.Key.VersionTag && confidence > versionMismatchCeiling {
		confidence = versionMismatchCeiling
	}
	res.Confidence = confidence

	minTitle := s.params.minTitleSim
	if len([]rune(a.Key.Title)) < shortTitleLen || len([]rune(b.Key.Title)) < shortTitleLen {
		minTitle += shortTitleBoost
		if minTitle > 1 {
			minTitle = 1
		}
	}

	res.Accepted = titleSim >= minTitle &&
		artistSim >= s.params.minArtistOverlap &&
		confidence >= bar
	return res
}

// ratio is a normalized edit-distance similarity in [0,1].
func (s *Scorer) ratio(a, b string) float64 {
	if a == "" && b == "" {
		return 0
	}
	if a == b {
		return 1
	}
	return strutil.Similarity(a, b, s.lev)
}

// tokenOverlap is intersection size over the smaller set's size. The
// containment form (not Jaccard) is deliberate: one source often lists fewer
// collaborators than another for the same recording.
func tokenOverlap(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	set := make(map[string]struct{}, len(a))
	for _, t := range a {
		set[t] = struct{}{}
	}
	common := 0
	for _, t := range b {
		if _, ok := set[t]; ok {
			common++
		}
	}
	smaller := len(a)
	if len(b) < smaller {
		smaller = len(b)
	}
	return float64(common) / float64(smaller)
}

func (s *Scorer) durationScore(a, b int) float64 {
	delta := a - b
	if delta < 0 {
		delta = -delta
	}
	if delta <= s.params.maxDurationDelta {
		return 1.0
	}
	if delta >= s.params.durationCutoff {
		return 0
	}
	span := float64(s.params.durationCutoff - s.params.maxDurationDelta)
	return 1.0 - float64(delta-s.params.maxDurationDelta)/span
}
