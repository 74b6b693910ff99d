package cleanup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/soundsift/soundsift/internal/models"
	"github.com/soundsift/soundsift/internal/shared"
)

// MutationService is the remote catalog surface the executor depends on.
// Each call returns success or failure for a single side effect.
type MutationService interface {
	Like(ctx context.Context, track models.TrackID) error
	Unlike(ctx context.Context, track models.TrackID) error
	AddToPlaylist(ctx context.Context, track models.TrackID, playlistID string) error
	RemoveFromPlaylist(ctx context.Context, track models.TrackID, playlistID string) error
}

// StateReader reads current remote state. The executor uses it to capture
// pre-action state, to resolve ambiguous retries without duplicating a side
// effect, and to detect drift during rollback.
type StateReader interface {
	IsLiked(ctx context.Context, track models.TrackID) (bool, error)
	PlaylistContains(ctx context.Context, playlistID string, track models.TrackID) (bool, error)
}

// ExecutorOpts configure retry and pacing behavior.
type ExecutorOpts struct {
	Limiter    *rate.Limiter // minimum spacing between remote calls
	MaxRetries int           // retries after the first attempt, transient errors only
	Backoff    time.Duration // initial backoff, doubled per retry
	Logger     *log.Logger
}

// Executor applies a plan's actions strictly in order, recording the exact
// inverse of every applied action. It is deliberately sequential: later
// actions and rollback correctness depend on earlier ones having completed,
// so plan application must never be parallelized.
type Executor struct {
	svc        MutationService
	state      StateReader // may be nil
	limiter    *rate.Limiter
	maxRetries int
	backoff    time.Duration
	logger     *log.Logger
}

// NewExecutor creates an executor. state may be nil, which disables
// ambiguous-retry checks and rollback drift detection.
func NewExecutor(svc MutationService, state StateReader, opts ExecutorOpts) *Executor {
	if opts.Limiter == nil {
		opts.Limiter = rate.NewLimiter(rate.Limit(4), 1)
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 3
	}
	if opts.Backoff <= 0 {
		opts.Backoff = 500 * time.Millisecond
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	return &Executor{
		svc:        svc,
		state:      state,
		limiter:    opts.Limiter,
		maxRetries: opts.MaxRetries,
		backoff:    opts.Backoff,
		logger:     opts.Logger,
	}
}

// Failure records one action that could not be applied (or undone). Nothing
// was changed remotely for a failed action, so it has no undo entry.
type Failure struct {
	Action Action `json:"action"`
	Err    error  `json:"-"`
	Reason string `json:"reason"`
}

// ApplyResult summarizes a plan application: how many actions landed, which
// failed, and the undo log covering exactly the applied ones.
type ApplyResult struct {
	PlanID   string
	Applied  int
	Failures []Failure
	Undo     *UndoLog
}

// Apply executes the plan's actions in program order.
//
// For each action the inverse and pre-state are computed before applying;
// only a successful application appends to the undo log. A failed action is
// recorded and subsequent independent actions continue (partial-failure
// semantics). Cancellation stops between actions, leaving the undo log
// consistent with exactly the actions that completed.
func (e *Executor) Apply(ctx context.Context, plan *Plan) (*ApplyResult, error) {
	if plan.DryRun {
		return nil, fmt.Errorf("%w: refusing to apply a dry-run plan", shared.ErrInvalidInput)
	}

	result := &ApplyResult{PlanID: plan.ID, Undo: NewUndoLog(plan.ID)}

	for _, action := range plan.Actions {
		if action.Kind == KindNoOp {
			continue
		}
		if err := ctx.Err(); err != nil {
			return result, err
		}

		pre, err := e.captureState(ctx, action)
		if err != nil {
			result.Failures = append(result.Failures, Failure{Action: action, Err: err, Reason: err.Error()})
			continue
		}
		inverse := action.Inverse()

		if err := e.applyWithRetry(ctx, action); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return result, err
			}
			e.logger.Warn("action failed", "action", action.String(), "err", err)
			result.Failures = append(result.Failures, Failure{Action: action, Err: err, Reason: err.Error()})
			continue
		}

		result.Undo.Append(UndoEntry{Inverse: inverse, Pre: pre, AppliedAt: time.Now().UTC()})
		result.Applied++
	}

	return result, nil
}

// RollbackResult summarizes a rollback pass.
type RollbackResult struct {
	PlanID   string
	Restored int
	Skipped  []Failure // drifted or failed entries, left un-reverted
}

// Rollback replays the undo log's inverses strictly in reverse application
// order. An entry whose remote state has drifted from the recorded
// pre-state is skipped and surfaced rather than applied blindly, because
// blind reversal on drifted state could destroy unrelated data.
func (e *Executor) Rollback(ctx context.Context, undo *UndoLog) (*RollbackResult, error) {
	result := &RollbackResult{PlanID: undo.PlanID}

	for i := len(undo.Entries) - 1; i >= 0; i-- {
		entry := undo.Entries[i]
		if err := ctx.Err(); err != nil {
			return result, err
		}

		drifted, err := e.drifted(ctx, entry)
		if err != nil {
			result.Skipped = append(result.Skipped, Failure{Action: entry.Inverse, Err: err, Reason: err.Error()})
			continue
		}
		if drifted {
			err := fmt.Errorf("%w: %s", shared.ErrUndoMismatch, entry.Inverse.String())
			e.logger.Warn("skipping drifted undo entry", "inverse", entry.Inverse.String())
			result.Skipped = append(result.Skipped, Failure{Action: entry.Inverse, Err: err, Reason: err.Error()})
			continue
		}

		if err := e.applyWithRetry(ctx, entry.Inverse); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return result, err
			}
			result.Skipped = append(result.Skipped, Failure{Action: entry.Inverse, Err: err, Reason: err.Error()})
			continue
		}
		result.Restored++
	}

	return result, nil
}

// applyWithRetry dispatches one action, retrying transient rate-limit
// rejections with exponential backoff. Before each retry the current remote
// state is consulted so an ambiguous earlier attempt is never duplicated.
func (e *Executor) applyWithRetry(ctx context.Context, action Action) error {
	delay := e.backoff
	var lastErr error

	for attempt := 0; attempt <= e.maxRetries; attempt++ {
		if attempt > 0 {
			if done, err := e.effectApplied(ctx, action); err == nil && done {
				return nil
			}
			if err := sleepCtx(ctx, delay); err != nil {
				return err
			}
			delay *= 2
		}

		if err := e.limiter.Wait(ctx); err != nil {
			return err
		}

		lastErr = e.dispatch(ctx, action)
		if lastErr == nil {
			return nil
		}
		if !errors.Is(lastErr, shared.ErrRateLimited) {
			return lastErr
		}
		e.logger.Debug("rate limited, backing off", "action", action.String(), "attempt", attempt+1)
	}

	return lastErr
}

func (e *Executor) dispatch(ctx context.Context, action Action) error {
	switch action.Kind {
	case KindLike:
		return e.svc.Like(ctx, action.Track)
	case KindUnlike:
		return e.svc.Unlike(ctx, action.Track)
	case KindAddToPlaylist:
		return e.svc.AddToPlaylist(ctx, action.Track, action.PlaylistID)
	case KindRemoveFromPlaylist:
		return e.svc.RemoveFromPlaylist(ctx, action.Track, action.PlaylistID)
	case KindNoOp:
		return nil
	}
	return fmt.Errorf("%w: unknown action kind %q", shared.ErrInvalidInput, action.Kind)
}

// captureState records the remote state an action is about to change. With
// no state reader the pre-state is inferred from the action's intent.
func (e *Executor) captureState(ctx context.Context, action Action) (PreState, error) {
	switch action.Kind {
	case KindLike, KindUnlike:
		liked := action.Kind == KindUnlike
		if e.state != nil {
			current, err := e.state.IsLiked(ctx, action.Track)
			if err != nil {
				return PreState{}, fmt.Errorf("failed to read like state: %w", err)
			}
			liked = current
		}
		return PreState{Liked: &liked}, nil
	case KindAddToPlaylist, KindRemoveFromPlaylist:
		in := action.Kind == KindRemoveFromPlaylist
		if e.state != nil {
			current, err := e.state.PlaylistContains(ctx, action.PlaylistID, action.Track)
			if err != nil {
				return PreState{}, fmt.Errorf("failed to read playlist state: %w", err)
			}
			in = current
		}
		return PreState{InPlaylist: &in}, nil
	}
	return PreState{}, nil
}

// effectApplied reports whether an action's effect is already visible
// remotely, used to resolve ambiguous retries. Without a state reader the
// answer is always false.
func (e *Executor) effectApplied(ctx context.Context, action Action) (bool, error) {
	if e.state == nil {
		return false, nil
	}
	switch action.Kind {
	case KindLike:
		return e.state.IsLiked(ctx, action.Track)
	case KindUnlike:
		liked, err := e.state.IsLiked(ctx, action.Track)
		return !liked, err
	case KindAddToPlaylist:
		return e.state.PlaylistContains(ctx, action.PlaylistID, action.Track)
	case KindRemoveFromPlaylist:
		in, err := e.state.PlaylistContains(ctx, action.PlaylistID, action.Track)
		return !in, err
	}
	return false, nil
}

// drifted reports whether remote state no longer matches what the forward
// action left behind, i.e. it has returned to (or never left) the recorded
// pre-state. Without a state reader drift cannot be detected.
func (e *Executor) drifted(ctx context.Context, entry UndoEntry) (bool, error) {
	if e.state == nil {
		return false, nil
	}
	switch entry.Inverse.Kind {
	case KindLike, KindUnlike:
		current, err := e.state.IsLiked(ctx, entry.Inverse.Track)
		if err != nil {
			return false, err
		}
		if entry.Pre.Liked != nil {
			return current == *entry.Pre.Liked, nil
		}
		// Inverse Like means the forward action unliked; drift when the
		// track is liked again.
		return current == (entry.Inverse.Kind == KindLike), nil
	case KindAddToPlaylist, KindRemoveFromPlaylist:
		current, err := e.state.PlaylistContains(ctx, entry.Inverse.PlaylistID, entry.Inverse.Track)
		if err != nil {
			return false, err
		}
		if entry.Pre.InPlaylist != nil {
			return current == *entry.Pre.InPlaylist, nil
		}
		return current == (entry.Inverse.Kind == KindAddToPlaylist), nil
	}
	return false, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
