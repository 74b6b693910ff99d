// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}
}

func modeFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "mode",
		Aliases: []string{"m"},
		Usage:   "Matching mode (strict or relaxed)",
	}
}

func formatFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   "Report format (md, csv, json)",
	}
}

// setupCommand handles setup operations for database and configuration.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "setup",
		Usage:  "Initialize configuration and the snapshot cache database",
		Flags:  []cli.Flag{configFlag()},
		Action: r.Setup,
	}
}

// compareCommand matches a source catalog against a target catalog.
func compareCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "compare",
		Aliases: []string{"diff"},
		Usage:   "Compare a source catalog against a target catalog",
		Flags: []cli.Flag{
			configFlag(),
			modeFlag(),
			formatFlag(),
			&cli.StringFlag{
				Name:     "source",
				Usage:    "Source library snapshot (JSON file)",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "target",
				Usage: "Target library snapshot (JSON file); defaults to the proxy library",
			},
			&cli.BoolFlag{
				Name:  "save",
				Usage: "Write the report into the output directory",
			},
			&cli.BoolFlag{
				Name:  "resolve",
				Usage: "Search the proxy for tracks the comparison missed",
			},
		},
		Action: r.Compare,
	}
}

// dedupeCommand scans one catalog for near-duplicate tracks.
func dedupeCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "dedupe",
		Aliases: []string{"dupes"},
		Usage:   "Scan a catalog for duplicate tracks",
		Flags: []cli.Flag{
			configFlag(),
			modeFlag(),
			formatFlag(),
			&cli.StringFlag{
				Name:  "library",
				Usage: "Library snapshot (JSON file); defaults to the proxy library",
			},
			&cli.FloatFlag{
				Name:  "threshold",
				Usage: "Override the duplicate confidence bar (0..1)",
			},
			&cli.BoolFlag{
				Name:  "prefer-explicit",
				Usage: "Rank explicit versions above clean edits",
			},
			&cli.BoolFlag{
				Name:  "save",
				Usage: "Write the report into the output directory",
			},
		},
		Action: r.Dedupe,
	}
}

// planCommand builds a reviewable cleanup plan from a duplicate scan.
func planCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "plan",
		Usage: "Build a cleanup plan from a duplicate scan",
		Flags: []cli.Flag{
			configFlag(),
			modeFlag(),
			&cli.StringFlag{
				Name:  "library",
				Usage: "Library snapshot (JSON file); defaults to the proxy library",
			},
			&cli.StringFlag{
				Name:  "playlists",
				Usage: "Playlists snapshot (JSON file) for replacement planning",
			},
			&cli.FloatFlag{
				Name:  "threshold",
				Usage: "Override the duplicate confidence bar (0..1)",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Plan file path (default: plan_<id>.json in the output dir)",
			},
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "Mark the plan as dry-run so apply refuses it",
			},
		},
		Action: r.PlanBuild,
	}
}

// applyCommand executes a saved cleanup plan against the proxy.
func applyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "apply",
		Usage: "Apply a saved cleanup plan",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "plan"},
		},
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:  "undo",
				Usage: "Undo log path (default: undo_<plan id>.json next to the plan)",
			},
		},
		Action: r.PlanApply,
	}
}

// rollbackCommand reverts a previously applied plan from its undo log.
func rollbackCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "rollback",
		Usage: "Revert an applied plan from its undo log",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "undo"},
		},
		Flags:  []cli.Flag{configFlag()},
		Action: r.PlanRollback,
	}
}

// cacheCommand handles the local track snapshot cache.
func cacheCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Manage the local track snapshot cache",
		Commands: []*cli.Command{
			{
				Name:  "library",
				Usage: "Fetch a library and cache its tracks",
				Flags: []cli.Flag{
					configFlag(),
					&cli.StringFlag{
						Name:  "library",
						Usage: "Library snapshot (JSON file); defaults to the proxy library",
					},
				},
				Action: r.CacheLibrary,
			},
			{
				Name:   "stats",
				Usage:  "Show cached track counts per platform",
				Flags:  []cli.Flag{configFlag()},
				Action: r.CacheStats,
			},
		},
	}
}
