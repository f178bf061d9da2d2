// Copyright The Augmentum Authors
// SPDX-License-Identifier: Apache-2.0

// The augmentum command runs the instrumentation pass over Go packages.
//
//	augmentum [flags] ./pkg ./other/pkg
//
// Transformed sources land in --emit-transformed-ir (or the build temp
// directory); statistics sinks, when requested, are appended under
// --instrumentation-stats-output.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/augmentum-project/augmentum-go/tool/internal/pkgload"
	"github.com/augmentum-project/augmentum-go/tool/internal/predicate"
	"github.com/augmentum-project/augmentum-go/tool/internal/rewrite"
	"github.com/augmentum-project/augmentum-go/tool/internal/stats"
	"github.com/augmentum-project/augmentum-go/tool/util"
)

func main() {
	cmd := &cli.Command{
		Name:  "augmentum",
		Usage: "rewrite Go functions into runtime-extensible extension points",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "target-functions",
				Usage: "csv file listing target modules and functions to instrument",
			},
			&cli.StringFlag{
				Name:  "augmentum-python",
				Usage: "script file providing the should-instrument expression",
			},
			&cli.StringFlag{
				Name:  "instrumentation-stats-output",
				Usage: "directory instrumentation statistics are appended to",
			},
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "collect full statistics without transforming anything",
			},
			&cli.StringFlag{
				Name:  "emit-transformed-ir",
				Usage: "directory transformed sources are written to",
			},
			&cli.StringFlag{
				Name:  "config",
				Usage: "yaml predicate configuration",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "log per-function decisions",
			},
		},
		Action: run,
	}
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "[augmentum] %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	level := slog.LevelInfo
	if cmd.Bool("verbose") {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	ctx = util.ContextWithLogger(ctx, logger)

	pred, err := buildPredicate(cmd)
	if err != nil {
		return err
	}

	var sink *stats.InstrumentationStats
	statsDir := cmd.String("instrumentation-stats-output")
	if statsDir != "" {
		sink = stats.New()
		if cmd.Bool("dry-run") {
			sink.CollectFullStats()
		}
	}

	patterns := cmd.Args().Slice()
	if len(patterns) == 0 {
		patterns = []string{"."}
	}
	targets, err := pkgload.ExpandPatterns(ctx, patterns...)
	if err != nil {
		return err
	}

	for _, target := range targets {
		summary, err := rewrite.RewriteDir(ctx, target.Dir, rewrite.Options{
			ModulePath: target.ImportPath,
			Predicate:  pred,
			Stats:      sink,
			DryRun:     cmd.Bool("dry-run"),
			EmitDir:    cmd.String("emit-transformed-ir"),
		})
		if err != nil {
			return err
		}
		if sink != nil {
			if err := sink.EmitStatistics(statsDir, sanitisePrefix(summary.Module)); err != nil {
				// Statistics paths must not abort the pass.
				logger.Warn("failed to emit statistics", "error", err)
			}
		}
	}
	return nil
}

func buildPredicate(cmd *cli.Command) (predicate.ShouldInstrument, error) {
	script := cmd.String("augmentum-python")
	if script == "" {
		// The embedding bridge selects its policy script through the
		// environment; absence disables the bridge entirely.
		script = os.Getenv("AUGMENTUM_SCRIPT")
	}
	if script != "" {
		return predicate.NewScript(script)
	}
	if targets := cmd.String("target-functions"); targets != "" {
		return predicate.NewTargeted(targets)
	}
	if config := cmd.String("config"); config != "" {
		return predicate.LoadConfig(config)
	}
	return predicate.Always{}, nil
}

func sanitisePrefix(module string) string {
	replacer := strings.NewReplacer("/", "_", ".", "_")
	return replacer.Replace(module)
}
