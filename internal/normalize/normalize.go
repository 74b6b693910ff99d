// package normalize canonicalizes track metadata into comparison keys.
//
// Normalization is a pure function over a [models.Track]: it never fails and
// performs no I/O. Unparseable input degrades to empty fields rather than
// erroring.
package normalize

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/soundsift/soundsift/internal/models"
)

// BucketLen is the number of leading title runes used as the coarse index
// bucket. Records whose normalized titles diverge inside this prefix land in
// different buckets and are never compared against each other.
const BucketLen = 4

var (
	reNonAlnum   = regexp.MustCompile(`[^\p{L}\p{N}\s]+`)
	reMultiSpace = regexp.MustCompile(`\s+`)
	reBracketed  = regexp.MustCompile(`[(\[][^)\]]*[)\]]`)
)

// versionMarkers is the allow-list of annotations that identify a distinct
// recording rather than cosmetic noise. A marker found in a bracketed or
// trailing annotation is preserved as the key's VersionTag; everything else
// in brackets is stripped.
var versionMarkers = []string{"remix", "live", "acoustic", "demo", "instrumental", "cover"}

// artistSeparators split a credit string into individual artist names.
var artistSeparators = []string{",", "&", " feat. ", " feat ", " featuring ", " with ", " x "}

// Key is a derived, non-owning view of a track used for comparison.
type Key struct {
	Title        string   // folded title, annotations stripped
	VersionTag   string   // extracted version marker ("" for the plain recording)
	ArtistTokens []string // normalized artist names, primary first
	Album        string   // folded album ("" when absent)
	Bucket       string   // first BucketLen runes of Title
	ISRC         string   // uppercased, dashes removed
}

// TrackKey derives the comparison key for a track.
func TrackKey(t models.Track) Key {
	title, tag := splitVersionTag(t.Title)
	k := Key{
		Title:        Fold(title),
		VersionTag:   tag,
		ArtistTokens: ArtistTokens(t.Artists),
		Album:        Fold(t.Album),
		ISRC:         foldISRC(t.ISRC),
	}
	k.Bucket = bucket(k.Title)
	return k
}

// Fold lowercases s, folds compatibility forms, strips diacritics and
// punctuation, and collapses whitespace.
func Fold(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	s = norm.NFKC.String(s)
	s = stripDiacritics(s)
	s = strings.ToLower(s)
	s = reNonAlnum.ReplaceAllString(s, " ")
	s = reMultiSpace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// ArtistTokens splits raw artist credits into a normalized token set,
// preserving first-listed order. "A feat. B" yields two tokens.
func ArtistTokens(artists []string) []string {
	var tokens []string
	seen := make(map[string]struct{})
	for _, raw := range artists {
		for _, name := range splitArtists(raw) {
			folded := Fold(name)
			if folded == "" {
				continue
			}
			if _, dup := seen[folded]; dup {
				continue
			}
			seen[folded] = struct{}{}
			tokens = append(tokens, folded)
		}
	}
	return tokens
}

// splitVersionTag removes bracketed and trailing-dash annotations from a raw
// title. The first allow-listed marker found becomes the version tag; all
// annotations are removed from the returned title either way.
func splitVersionTag(title string) (string, string) {
	tag := ""

	stripped := reBracketed.ReplaceAllStringFunc(title, func(seg string) string {
		if tag == "" {
			tag = markerIn(seg)
		}
		return ""
	})

	// Trailing "Song - Live" style annotations: only stripped when they
	// carry a version marker, since a dash segment may be part of the name.
	if idx := strings.LastIndex(stripped, " - "); idx >= 0 {
		if m := markerIn(stripped[idx+3:]); m != "" {
			if tag == "" {
				tag = m
			}
			stripped = stripped[:idx]
		}
	}

	return stripped, tag
}

func markerIn(segment string) string {
	folded := Fold(segment)
	for _, word := range strings.Fields(folded) {
		for _, marker := range versionMarkers {
			if word == marker {
				return marker
			}
		}
	}
	return ""
}

func splitArtists(raw string) []string {
	parts := []string{strings.ToLower(raw)}
	for _, sep := range artistSeparators {
		var next []string
		for _, p := range parts {
			next = append(next, strings.Split(p, sep)...)
		}
		parts = next
	}
	return parts
}

// stripDiacritics removes combining marks after NFD decomposition.
func stripDiacritics(s string) string {
	decomp := norm.NFD.String(s)
	var b strings.Builder
	b.Grow(len(decomp))
	for _, r := range decomp {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func foldISRC(isrc string) string {
	isrc = strings.ToUpper(strings.TrimSpace(isrc))
	return strings.ReplaceAll(isrc, "-", "")
}

func bucket(title string) string {
	runes := []rune(title)
	if len(runes) <= BucketLen {
		return title
	}
	return string(runes[:BucketLen])
}
