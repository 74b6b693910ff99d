package matching

import (
	"errors"
	"reflect"
	"testing"

	"github.com/soundsift/soundsift/internal/models"
	"github.com/soundsift/soundsift/internal/shared"
)

func TestBuildIndexSkipsMalformed(t *testing.T) {
	tracks := []models.Track{
		*mkTrack("a1", "Yesterday", []string{"The Beatles"}, "", 125, ""),
		*mkTrack("", "No Identity", []string{"Nobody"}, "", 100, ""),
		*mkTrack("a1", "Yesterday Again", []string{"The Beatles"}, "", 125, ""),
	}

	idx, skipped := BuildIndex(tracks, 1)

	if idx.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", idx.Len())
	}
	if len(skipped) != 2 {
		t.Fatalf("skipped %d records, want 2", len(skipped))
	}
	for _, s := range skipped {
		if !errors.Is(s.Err, shared.ErrMalformedRecord) {
			t.Errorf("skip reason = %v, want ErrMalformedRecord", s.Err)
		}
	}
	if skipped[0].Index != 1 || skipped[1].Index != 2 {
		t.Errorf("skip indices = %d, %d; want 1, 2", skipped[0].Index, skipped[1].Index)
	}
}

func TestIndexCandidates(t *testing.T) {
	tracks := []models.Track{
		*mkTrack("a1", "Hey Jude", []string{"The Beatles"}, "", 431, "GBAYE0601696"),
		*mkTrack("a2", "Hey Jude (Remaster)", []string{"The Beatles"}, "", 431, ""),
		*mkTrack("a3", "Something", []string{"The Beatles"}, "", 182, "GBAYE0601696"),
		*mkTrack("a4", "Come Together", []string{"The Beatles"}, "", 259, ""),
	}

	idx, skipped := BuildIndex(tracks, 2)
	if len(skipped) != 0 {
		t.Fatalf("unexpected skips: %v", skipped)
	}

	// Probe a1: same bucket as a2, ISRC-equal with a3, never a4.
	got := idx.Candidates(idx.Record(0))
	want := []int{0, 1, 2}
	if len(got) != len(want) {
		t.Fatalf("candidates = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("candidates = %v, want %v", got, want)
		}
	}

	// Probe a4: no ISRC, alone in its bucket.
	if got := idx.Candidates(idx.Record(3)); len(got) != 1 || got[0] != 3 {
		t.Errorf("candidates = %v, want [3]", got)
	}
}

func TestIndexBucketDivergence(t *testing.T) {
	// A leading article pushes the titles into different buckets, so the
	// pair is never a candidate even though the recordings likely match.
	tracks := []models.Track{
		*mkTrack("a1", "Final Countdown", []string{"Europe"}, "", 310, ""),
		*mkTrack("a2", "The Final Countdown", []string{"Europe"}, "", 310, ""),
	}

	idx, _ := BuildIndex(tracks, 1)
	if got := idx.Candidates(idx.Record(0)); len(got) != 1 {
		t.Errorf("expected only the probe itself, got %v", got)
	}
}

func TestIndexISRCGroups(t *testing.T) {
	tracks := []models.Track{
		*mkTrack("a1", "One", []string{"U2"}, "", 276, "GBAAN9100055"),
		*mkTrack("a2", "Two", []string{"U2"}, "", 200, "GBAAN9100099"),
		*mkTrack("a3", "One (Live)", []string{"U2"}, "", 300, "GBAAN9100055"),
	}

	idx, _ := BuildIndex(tracks, 1)
	groups := idx.ISRCGroups()
	if len(groups) != 1 {
		t.Fatalf("got %d groups, want 1", len(groups))
	}
	if len(groups[0]) != 2 || groups[0][0] != 0 || groups[0][1] != 2 {
		t.Errorf("group = %v, want [0 2]", groups[0])
	}
}

func TestBuildIndexWorkerDeterminism(t *testing.T) {
	titles := []string{"Creep", "Karma Police", "No Surprises", "Let Down", "Lucky", "Airbag"}
	var tracks []models.Track
	for i, title := range titles {
		tracks = append(tracks, *mkTrack(string(rune('a'+i)), title, []string{"Radiohead"}, "OK Computer", 200+i, ""))
	}

	one, _ := BuildIndex(tracks, 1)
	many, _ := BuildIndex(tracks, 8)

	if one.Len() != many.Len() {
		t.Fatalf("Len mismatch: %d vs %d", one.Len(), many.Len())
	}
	for pos := 0; pos < one.Len(); pos++ {
		if !reflect.DeepEqual(one.Record(pos).Key, many.Record(pos).Key) {
			t.Errorf("key mismatch at %d: %+v vs %+v", pos, one.Record(pos).Key, many.Record(pos).Key)
		}
	}
}
