package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/soundsift/soundsift/internal/cleanup"
	"github.com/soundsift/soundsift/internal/formatter"
	"github.com/soundsift/soundsift/internal/shared"
	"github.com/soundsift/soundsift/internal/tasks"
)

// PlanBuild runs a duplicate scan and writes a reviewable cleanup plan.
func (r *Runner) PlanBuild(ctx context.Context, cmd *cli.Command) error {
	policy, err := r.policyFrom(cmd)
	if err != nil {
		return err
	}

	source, err := r.sourceFor(cmd, "library", "playlists")
	if err != nil {
		return err
	}

	engine, closeCache := r.engineFor(source, nil)
	defer closeCache()

	var plan *cleanup.Plan
	err = r.withProgress(func(progress chan<- tasks.ProgressUpdate) error {
		var err error
		plan, _, err = engine.BuildCleanupPlan(ctx, progress, policy)
		return err
	})
	if err != nil {
		return err
	}

	if plan.Empty() {
		return r.writePlain("No duplicates found, nothing to plan.\n")
	}

	path := cmd.String("output")
	if path == "" {
		if dir := r.config.Output.Dir; dir != "" {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
			path = filepath.Join(dir, "plan_"+plan.ID+".json")
		} else {
			path = "plan_" + plan.ID + ".json"
		}
	}

	if err := plan.Save(path); err != nil {
		return err
	}

	r.writePlain("%s", formatter.PlanToMarkdown(plan))
	r.writePlainln("Plan saved to: %s", path)
	if plan.DryRun {
		r.writePlain("Dry-run plan: review only, apply will refuse it.\n")
	} else {
		r.writePlain("Apply it with: soundsift apply %s\n", path)
	}

	return nil
}

// PlanApply executes a saved plan and writes the undo log.
func (r *Runner) PlanApply(ctx context.Context, cmd *cli.Command) error {
	planPath := cmd.StringArg("plan")
	if planPath == "" {
		return fmt.Errorf("%w: plan file path", shared.ErrMissingArgument)
	}

	plan, err := cleanup.LoadPlan(planPath)
	if err != nil {
		return err
	}

	engine, closeCache := r.engineFor(r.proxy, nil)
	defer closeCache()

	var result *cleanup.ApplyResult
	err = r.withProgress(func(progress chan<- tasks.ProgressUpdate) error {
		var err error
		result, err = engine.Apply(ctx, progress, plan)
		return err
	})
	// A partial failure still produced an undo log worth saving.
	if result != nil && result.Undo != nil && result.Undo.Len() > 0 {
		undoPath := cmd.String("undo")
		if undoPath == "" {
			undoPath = filepath.Join(filepath.Dir(planPath), "undo_"+plan.ID+".json")
		}
		if saveErr := result.Undo.Save(undoPath); saveErr != nil {
			r.logger.Error("failed to save undo log", "error", saveErr)
		} else {
			r.writePlain("Undo log saved to: %s\n", undoPath)
		}
	}
	if err != nil {
		return err
	}

	r.writePlainHeader(fmt.Sprintf("Plan %s applied", result.PlanID))
	r.writePlain("Applied: %d of %d actions\n", result.Applied, len(plan.Actions))
	if len(result.Failures) > 0 {
		r.writePlainln("Failures:")
		for _, f := range result.Failures {
			r.writePlain("  ✗ %s: %s\n", f.Action, f.Reason)
		}
	}

	return nil
}

// PlanRollback reverts an applied plan from its undo log.
func (r *Runner) PlanRollback(ctx context.Context, cmd *cli.Command) error {
	undoPath := cmd.StringArg("undo")
	if undoPath == "" {
		return fmt.Errorf("%w: undo log path", shared.ErrMissingArgument)
	}

	undo, err := cleanup.LoadUndoLog(undoPath)
	if err != nil {
		return err
	}

	engine, closeCache := r.engineFor(r.proxy, nil)
	defer closeCache()

	var result *cleanup.RollbackResult
	err = r.withProgress(func(progress chan<- tasks.ProgressUpdate) error {
		var err error
		result, err = engine.Rollback(ctx, progress, undo)
		return err
	})
	if err != nil {
		return err
	}

	r.writePlainHeader(fmt.Sprintf("Plan %s rolled back", result.PlanID))
	r.writePlain("Restored: %d of %d actions\n", result.Restored, undo.Len())
	if len(result.Skipped) > 0 {
		r.writePlainln("Skipped (remote state drifted):")
		for _, s := range result.Skipped {
			r.writePlain("  - %s\n", strings.TrimSpace(s.Action.String()))
		}
	}

	return nil
}
