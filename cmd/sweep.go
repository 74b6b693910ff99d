package main

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/soundsift/soundsift/internal/cleanup"
	"github.com/soundsift/soundsift/internal/formatter"
	"github.com/soundsift/soundsift/internal/matching"
	"github.com/soundsift/soundsift/internal/models"
	"github.com/soundsift/soundsift/internal/services"
	"github.com/soundsift/soundsift/internal/shared"
	"github.com/soundsift/soundsift/internal/tasks"
)

// modeFrom resolves the matching mode: the --mode flag wins, then the
// config's policy table, then the relaxed default.
func (r *Runner) modeFrom(cmd *cli.Command) (matching.Mode, error) {
	raw := cmd.String("mode")
	if raw == "" {
		raw = r.config.Policy.Mode
	}
	mode, err := matching.ParseMode(raw)
	if err != nil {
		return "", fmt.Errorf("%w: --mode %q", shared.ErrInvalidFlag, raw)
	}
	return mode, nil
}

// policyFrom builds the cleanup policy from config with flag overrides.
func (r *Runner) policyFrom(cmd *cli.Command) (cleanup.Policy, error) {
	policy, err := cleanup.PolicyFromConfig(r.config.Policy)
	if err != nil {
		return cleanup.Policy{}, err
	}
	mode, err := r.modeFrom(cmd)
	if err != nil {
		return cleanup.Policy{}, err
	}
	policy.Mode = mode
	if cmd.IsSet("threshold") {
		t := cmd.Float("threshold")
		if t < 0 || t > 1 {
			return cleanup.Policy{}, fmt.Errorf("%w: --threshold %v outside [0,1]", shared.ErrInvalidFlag, t)
		}
		policy.Threshold = t
	}
	if cmd.IsSet("prefer-explicit") {
		policy.PreferExplicit = cmd.Bool("prefer-explicit")
	}
	if cmd.IsSet("dry-run") {
		policy.DryRun = cmd.Bool("dry-run")
	}
	return policy, nil
}

func (r *Runner) reportFormat(cmd *cli.Command) string {
	if f := cmd.String("format"); f != "" {
		return f
	}
	if r.config.Output.ReportFormat != "" {
		return r.config.Output.ReportFormat
	}
	return "md"
}

// emitReport writes report data to the output directory when save is set,
// otherwise to the runner's output stream.
func (r *Runner) emitReport(cmd *cli.Command, basename string, data []byte) error {
	if !cmd.Bool("save") {
		return r.writePlain("%s", data)
	}

	filename := fmt.Sprintf("%s_%s.%s", basename, time.Now().Format("20060102_150405"), r.reportFormat(cmd))
	path, err := formatter.WriteReport(r.config.Output.Dir, filename, data)
	if err != nil {
		return err
	}
	return r.writePlain("Report saved to: %s\n", path)
}

// Compare matches a source catalog snapshot against a target catalog.
func (r *Runner) Compare(ctx context.Context, cmd *cli.Command) error {
	mode, err := r.modeFrom(cmd)
	if err != nil {
		return err
	}

	source := services.NewFileSource(cmd.String("source"), "")
	target, err := r.sourceFor(cmd, "target", "")
	if err != nil {
		return err
	}

	engine, closeCache := r.engineFor(source, target)
	defer closeCache()

	var result *matching.ComparisonResult
	err = r.withProgress(func(progress chan<- tasks.ProgressUpdate) error {
		var err error
		result, err = engine.Compare(ctx, progress, mode)
		return err
	})
	if err != nil {
		return err
	}

	var data []byte
	switch format := r.reportFormat(cmd); format {
	case "csv":
		if data, err = formatter.ComparisonToCSV(result); err != nil {
			return err
		}
	case "json":
		if data, err = formatter.ToJSON(result); err != nil {
			return err
		}
	case "md", "markdown":
		data = formatter.ComparisonToMarkdown(result)
	default:
		return fmt.Errorf("%w: --format %q", shared.ErrInvalidFlag, format)
	}

	if err := r.emitReport(cmd, "comparison", data); err != nil {
		return err
	}

	if cmd.Bool("resolve") && len(result.Missing) > 0 {
		return r.resolveMissing(ctx, mode, result.Missing)
	}
	return nil
}

// resolveMissing searches the proxy for each missing track and prints the
// best accepted candidate, if any.
func (r *Runner) resolveMissing(ctx context.Context, mode matching.Mode, missing []models.Track) error {
	if r.proxy == nil {
		return fmt.Errorf("%w: --resolve needs a configured proxy", shared.ErrMissingConfig)
	}

	resolver := services.NewResolver(r.proxy, matching.NewScorer(mode))
	r.writePlainln("Searching the target for %d missing tracks:", len(missing))

	found := 0
	for i := range missing {
		track := missing[i]
		res, err := resolver.Resolve(ctx, track)
		if err != nil {
			r.writePlain("  ✗ %s - %s\n", track.Artist(), track.Title)
			continue
		}
		r.writePlain("  ✓ %s - %s → %s (%.2f)\n", track.Artist(), track.Title, res.Target.NativeID, res.Confidence)
		found++
	}
	r.writePlainln("Resolved %d of %d.", found, len(missing))

	return nil
}

// Dedupe scans one catalog for near-duplicate tracks.
func (r *Runner) Dedupe(ctx context.Context, cmd *cli.Command) error {
	policy, err := r.policyFrom(cmd)
	if err != nil {
		return err
	}

	source, err := r.sourceFor(cmd, "library", "")
	if err != nil {
		return err
	}

	engine, closeCache := r.engineFor(source, nil)
	defer closeCache()

	var report *matching.DuplicateReport
	err = r.withProgress(func(progress chan<- tasks.ProgressUpdate) error {
		var err error
		report, err = engine.FindDuplicates(ctx, progress, policy)
		return err
	})
	if err != nil {
		return err
	}

	if len(report.Groups) == 0 {
		return r.writePlain("No duplicates found.\n")
	}

	var data []byte
	switch format := r.reportFormat(cmd); format {
	case "csv":
		if data, err = formatter.DuplicatesToCSV(report); err != nil {
			return err
		}
	case "json":
		if data, err = formatter.ToJSON(report.Groups); err != nil {
			return err
		}
	case "md", "markdown":
		data = formatter.DuplicatesToMarkdown(report)
	default:
		return fmt.Errorf("%w: --format %q", shared.ErrInvalidFlag, format)
	}

	return r.emitReport(cmd, "duplicates", data)
}
