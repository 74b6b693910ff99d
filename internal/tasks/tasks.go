package tasks

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/soundsift/soundsift/internal/cleanup"
	"github.com/soundsift/soundsift/internal/matching"
	"github.com/soundsift/soundsift/internal/models"
	"github.com/soundsift/soundsift/internal/services"
	"github.com/soundsift/soundsift/internal/shared"
)

// TrackCacher stores fetched tracks in the local snapshot cache.
// This abstraction decouples the engine from the SQLite layer.
type TrackCacher interface {
	CacheLibrary(lib *models.Library) (int, error)
}

// SweepEngine defines the catalog sweep operations the CLI exposes.
type SweepEngine interface {
	// Compare matches the source catalog against the target catalog and
	// reports matched, missing, and skipped records.
	Compare(ctx context.Context, progress chan<- ProgressUpdate, mode matching.Mode) (*matching.ComparisonResult, error)

	// FindDuplicates scans the source catalog for near-duplicate clusters.
	FindDuplicates(ctx context.Context, progress chan<- ProgressUpdate, policy cleanup.Policy) (*matching.DuplicateReport, error)

	// BuildCleanupPlan runs duplicate detection and converts the ranked
	// groups into an ordered action plan against the current playlist
	// snapshot.
	BuildCleanupPlan(ctx context.Context, progress chan<- ProgressUpdate, policy cleanup.Policy) (*cleanup.Plan, *matching.DuplicateReport, error)

	// Apply executes a plan's actions against the catalog service.
	Apply(ctx context.Context, progress chan<- ProgressUpdate, plan *cleanup.Plan) (*cleanup.ApplyResult, error)

	// Rollback reverts a previously applied plan from its undo log.
	Rollback(ctx context.Context, progress chan<- ProgressUpdate, undo *cleanup.UndoLog) (*cleanup.RollbackResult, error)
}

// CatalogEngine implements [SweepEngine] over two catalog sources and an
// optional cleanup executor and track cache.
type CatalogEngine struct {
	source   services.CatalogSource
	target   services.CatalogSource
	executor *cleanup.Executor
	cache    TrackCacher
	logger   *log.Logger
	workers  int
}

// EngineOpts configures a [CatalogEngine]. Target, Executor, and Cache may
// be nil; operations that need them fail with ErrServiceUnavailable.
type EngineOpts struct {
	Target   services.CatalogSource
	Executor *cleanup.Executor
	Cache    TrackCacher
	Logger   *log.Logger
	Workers  int
}

// NewCatalogEngine creates a sweep engine over a source catalog.
func NewCatalogEngine(source services.CatalogSource, opts EngineOpts) *CatalogEngine {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &CatalogEngine{
		source:   source,
		target:   opts.Target,
		executor: opts.Executor,
		cache:    opts.Cache,
		logger:   logger,
		workers:  opts.Workers,
	}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default so progress reporting never stalls execution.
func (e *CatalogEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// fetchLibrary pulls one catalog and caches its tracks when a cache is wired.
func (e *CatalogEngine) fetchLibrary(ctx context.Context, progress chan<- ProgressUpdate, src services.CatalogSource, phase Phase) (*models.Library, error) {
	e.sendProgress(progress, fetchLibraryUpdate(phase, src.Name()))

	lib, err := src.Library(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch library from %s: %w", src.Name(), err)
	}
	e.sendProgress(progress, fetchedLibraryUpdate(phase, lib))

	if e.cache != nil {
		added, err := e.cache.CacheLibrary(lib)
		if err != nil {
			// Cache failures degrade, not abort: the sweep still has the
			// fetched data in memory.
			e.logger.Warn("track cache write failed", "error", err)
		} else {
			e.sendProgress(progress, cachedTracksUpdate(added, len(lib.Tracks)))
		}
	}

	return lib, nil
}

// Compare matches the source catalog against the target catalog.
func (e *CatalogEngine) Compare(ctx context.Context, progress chan<- ProgressUpdate, mode matching.Mode) (*matching.ComparisonResult, error) {
	if e.source == nil {
		return nil, fmt.Errorf("%w: source catalog not configured", shared.ErrServiceUnavailable)
	}
	if e.target == nil {
		return nil, fmt.Errorf("%w: target catalog not configured", shared.ErrServiceUnavailable)
	}

	source, err := e.fetchLibrary(ctx, progress, e.source, FetchSource)
	if err != nil {
		return nil, err
	}
	target, err := e.fetchLibrary(ctx, progress, e.target, FetchTarget)
	if err != nil {
		return nil, err
	}

	e.sendProgress(progress, compareUpdate(len(source.Tracks), len(target.Tracks)))
	e.logger.Info("comparing catalogs", "source", source.Name, "target", target.Name, "mode", mode)

	result, err := matching.Compare(ctx, source.Tracks, target.Tracks, matching.CompareOptions{
		Mode:    mode,
		Workers: e.workers,
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("comparison complete",
		"matched", len(result.Matches),
		"missing", len(result.Missing),
		"skipped", len(result.Skipped),
		"match_rate", fmt.Sprintf("%.1f%%", result.MatchRate*100))
	return result, nil
}

// FindDuplicates scans the source catalog for near-duplicate clusters.
func (e *CatalogEngine) FindDuplicates(ctx context.Context, progress chan<- ProgressUpdate, policy cleanup.Policy) (*matching.DuplicateReport, error) {
	if e.source == nil {
		return nil, fmt.Errorf("%w: source catalog not configured", shared.ErrServiceUnavailable)
	}

	lib, err := e.fetchLibrary(ctx, progress, e.source, FetchSource)
	if err != nil {
		return nil, err
	}

	e.sendProgress(progress, detectUpdate(len(lib.Tracks)))

	report, err := matching.FindDuplicates(ctx, lib.Tracks, matching.DetectOptions{
		Mode:           policy.Mode,
		Threshold:      policy.Threshold,
		PreferExplicit: policy.PreferExplicit,
		Workers:        e.workers,
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("duplicate scan complete", "groups", len(report.Groups), "skipped", len(report.Skipped))
	return report, nil
}

// BuildCleanupPlan runs duplicate detection and plans cleanup actions
// against the current playlist snapshot.
func (e *CatalogEngine) BuildCleanupPlan(ctx context.Context, progress chan<- ProgressUpdate, policy cleanup.Policy) (*cleanup.Plan, *matching.DuplicateReport, error) {
	report, err := e.FindDuplicates(ctx, progress, policy)
	if err != nil {
		return nil, nil, err
	}

	snapshot := cleanup.Snapshot{}
	if policy.ReplaceInPlaylists {
		e.sendProgress(progress, fetchPlaylistsUpdate(e.source.Name()))
		playlists, err := e.source.Playlists(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to fetch playlists from %s: %w", e.source.Name(), err)
		}
		snapshot.Playlists = playlists
	}

	e.sendProgress(progress, buildPlanUpdate(len(report.Groups)))

	plan := cleanup.BuildPlan(report.Groups, policy, snapshot)
	e.logger.Info("plan built", "plan_id", plan.ID, "actions", len(plan.Actions), "dry_run", plan.DryRun)
	return plan, report, nil
}

// Apply executes a plan's actions against the catalog service.
func (e *CatalogEngine) Apply(ctx context.Context, progress chan<- ProgressUpdate, plan *cleanup.Plan) (*cleanup.ApplyResult, error) {
	if e.executor == nil {
		return nil, fmt.Errorf("%w: no mutation service configured", shared.ErrServiceUnavailable)
	}

	e.sendProgress(progress, applyActionUpdate(0, len(plan.Actions), "Applying cleanup plan..."))

	result, err := e.executor.Apply(ctx, plan)
	if err != nil {
		return result, err
	}

	e.sendProgress(progress, applyActionUpdate(len(plan.Actions), len(plan.Actions), "Plan applied"))
	e.logger.Info("plan applied", "plan_id", result.PlanID, "applied", result.Applied, "failed", len(result.Failures))
	return result, nil
}

// Rollback reverts a previously applied plan from its undo log.
func (e *CatalogEngine) Rollback(ctx context.Context, progress chan<- ProgressUpdate, undo *cleanup.UndoLog) (*cleanup.RollbackResult, error) {
	if e.executor == nil {
		return nil, fmt.Errorf("%w: no mutation service configured", shared.ErrServiceUnavailable)
	}

	e.sendProgress(progress, rollbackUpdate(0, undo.Len()))

	result, err := e.executor.Rollback(ctx, undo)
	if err != nil {
		return result, err
	}

	e.logger.Info("rollback complete", "plan_id", result.PlanID, "restored", result.Restored, "skipped", len(result.Skipped))
	return result, nil
}
