package tasks

import (
	"context"
	"errors"
	"testing"

	"github.com/soundsift/soundsift/internal/cleanup"
	"github.com/soundsift/soundsift/internal/matching"
	"github.com/soundsift/soundsift/internal/models"
	"github.com/soundsift/soundsift/internal/shared"
	tu "github.com/soundsift/soundsift/internal/testing"
)

type memoryCache struct {
	libraries int
	tracks    int
}

func (c *memoryCache) CacheLibrary(lib *models.Library) (int, error) {
	c.libraries++
	c.tracks += len(lib.Tracks)
	return len(lib.Tracks), nil
}

// memoryCatalog records mutations for executor-backed operations.
type memoryCatalog struct {
	liked map[models.TrackID]bool
	calls []string
}

func newMemoryCatalog() *memoryCatalog {
	return &memoryCatalog{liked: map[models.TrackID]bool{}}
}

func (m *memoryCatalog) Like(ctx context.Context, track models.TrackID) error {
	m.liked[track] = true
	m.calls = append(m.calls, "like "+track.NativeID)
	return nil
}

func (m *memoryCatalog) Unlike(ctx context.Context, track models.TrackID) error {
	m.liked[track] = false
	m.calls = append(m.calls, "unlike "+track.NativeID)
	return nil
}

func (m *memoryCatalog) AddToPlaylist(ctx context.Context, track models.TrackID, playlistID string) error {
	m.calls = append(m.calls, "add "+track.NativeID)
	return nil
}

func (m *memoryCatalog) RemoveFromPlaylist(ctx context.Context, track models.TrackID, playlistID string) error {
	m.calls = append(m.calls, "remove "+track.NativeID)
	return nil
}

func (m *memoryCatalog) IsLiked(ctx context.Context, track models.TrackID) (bool, error) {
	return m.liked[track], nil
}

func (m *memoryCatalog) PlaylistContains(ctx context.Context, playlistID string, track models.TrackID) (bool, error) {
	return false, nil
}

func track(nativeID, title string, platform models.Platform) models.Track {
	return models.Track{
		Title:    title,
		Artists:  []string{"The Beatles"},
		Duration: 243,
		Platform: platform,
		NativeID: nativeID,
	}
}

func testLibrary(platform models.Platform, tracks ...models.Track) *models.Library {
	return &models.Library{Name: "test", Platform: platform, Tracks: tracks}
}

func TestCatalogEngineCompare(t *testing.T) {
	source := &tu.MockSource{
		SourceName: "spotify export",
		Lib: testLibrary(models.PlatformSpotify,
			track("sp1", "Let It Be", models.PlatformSpotify),
			track("sp2", "Yesterday", models.PlatformSpotify),
		),
	}
	target := &tu.MockSource{
		SourceName: "youtube library",
		Lib: testLibrary(models.PlatformYouTubeMusic,
			track("v1", "Let It Be", models.PlatformYouTubeMusic),
		),
	}
	cache := &memoryCache{}
	engine := NewCatalogEngine(source, EngineOpts{Target: target, Cache: cache})

	progress := make(chan ProgressUpdate, 32)
	result, err := engine.Compare(context.Background(), progress, matching.ModeRelaxed)
	if err != nil {
		t.Fatalf("Compare failed: %v", err)
	}

	if len(result.Matches) != 1 {
		t.Errorf("expected 1 match, got %d", len(result.Matches))
	}
	if len(result.Missing) != 1 || result.Missing[0].NativeID != "sp2" {
		t.Errorf("expected sp2 missing, got %+v", result.Missing)
	}
	if cache.libraries != 2 {
		t.Errorf("expected both libraries cached, got %d", cache.libraries)
	}
	if len(progress) == 0 {
		t.Error("expected progress updates")
	}
}

func TestCatalogEngineCompareNoTarget(t *testing.T) {
	engine := NewCatalogEngine(&tu.MockSource{Lib: testLibrary(models.PlatformSpotify)}, EngineOpts{})

	_, err := engine.Compare(context.Background(), nil, matching.ModeRelaxed)
	if !errors.Is(err, shared.ErrServiceUnavailable) {
		t.Errorf("expected ErrServiceUnavailable, got %v", err)
	}
}

func TestCatalogEngineFindDuplicates(t *testing.T) {
	source := &tu.MockSource{
		SourceName: "youtube library",
		Lib: testLibrary(models.PlatformYouTubeMusic,
			track("v1", "Let It Be", models.PlatformYouTubeMusic),
			track("v2", "Let It Be", models.PlatformYouTubeMusic),
			track("v3", "Something", models.PlatformYouTubeMusic),
		),
	}
	engine := NewCatalogEngine(source, EngineOpts{})

	report, err := engine.FindDuplicates(context.Background(), nil, cleanup.Policy{Mode: matching.ModeRelaxed})
	if err != nil {
		t.Fatalf("FindDuplicates failed: %v", err)
	}
	if len(report.Groups) != 1 {
		t.Fatalf("expected 1 duplicate group, got %d", len(report.Groups))
	}
	if len(report.Groups[0].Ranked) != 2 {
		t.Errorf("expected 2 members, got %d", len(report.Groups[0].Ranked))
	}
}

func TestCatalogEngineBuildCleanupPlan(t *testing.T) {
	dup1 := track("v1", "Let It Be", models.PlatformYouTubeMusic)
	dup2 := track("v2", "Let It Be", models.PlatformYouTubeMusic)

	source := &tu.MockSource{
		SourceName: "youtube library",
		Lib:        testLibrary(models.PlatformYouTubeMusic, dup1, dup2),
		Lists: []models.Playlist{
			{ID: "pl1", Name: "Mix", Tracks: []models.TrackID{dup2.ID()}},
		},
	}
	engine := NewCatalogEngine(source, EngineOpts{})

	policy := cleanup.Policy{
		Mode:               matching.ModeRelaxed,
		UnlikeLosers:       true,
		ReplaceInPlaylists: true,
	}
	plan, report, err := engine.BuildCleanupPlan(context.Background(), nil, policy)
	if err != nil {
		t.Fatalf("BuildCleanupPlan failed: %v", err)
	}
	if len(report.Groups) != 1 {
		t.Fatalf("expected 1 group, got %d", len(report.Groups))
	}
	if plan.Empty() {
		t.Fatal("expected non-empty plan")
	}

	// The loser sits in a playlist, so the plan must both unlike it and
	// replace it with the winner.
	var kinds []cleanup.Kind
	for _, a := range plan.Actions {
		kinds = append(kinds, a.Kind)
	}
	want := []cleanup.Kind{cleanup.KindUnlike, cleanup.KindRemoveFromPlaylist, cleanup.KindAddToPlaylist}
	if len(kinds) != len(want) {
		t.Fatalf("expected %v, got %v", want, kinds)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Errorf("action %d: expected %s, got %s", i, want[i], kinds[i])
		}
	}
}

func TestCatalogEngineApplyAndRollback(t *testing.T) {
	catalog := newMemoryCatalog()
	loser := models.TrackID{Platform: models.PlatformYouTubeMusic, NativeID: "v2"}
	catalog.liked[loser] = true

	executor := cleanup.NewExecutor(catalog, catalog, cleanup.ExecutorOpts{})
	engine := NewCatalogEngine(&tu.MockSource{}, EngineOpts{Executor: executor})

	plan := &cleanup.Plan{
		ID:      "plan-1",
		Actions: []cleanup.Action{{Kind: cleanup.KindUnlike, Track: loser}},
	}

	applied, err := engine.Apply(context.Background(), nil, plan)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if applied.Applied != 1 || catalog.liked[loser] {
		t.Fatalf("expected loser unliked, got %+v", applied)
	}

	restored, err := engine.Rollback(context.Background(), nil, applied.Undo)
	if err != nil {
		t.Fatalf("Rollback failed: %v", err)
	}
	if restored.Restored != 1 || !catalog.liked[loser] {
		t.Errorf("expected like restored, got %+v", restored)
	}
}

func TestCatalogEngineApplyNoExecutor(t *testing.T) {
	engine := NewCatalogEngine(&tu.MockSource{}, EngineOpts{})

	_, err := engine.Apply(context.Background(), nil, &cleanup.Plan{ID: "p"})
	if !errors.Is(err, shared.ErrServiceUnavailable) {
		t.Errorf("expected ErrServiceUnavailable, got %v", err)
	}
}
