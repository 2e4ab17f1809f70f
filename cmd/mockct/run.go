package main

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v3"

	"mockct/internal/workflow"
)

var runCmd = &cli.Command{
	Name:      "run",
	Usage:     "test the samples and submit (default command)",
	ArgsUsage: "[problem-id|dir ...]",
	Action:    runAction,
}

var testCmd = &cli.Command{
	Name:      "test",
	Usage:     "run the samples without logging in or submitting",
	ArgsUsage: "[problem-id|dir ...]",
	Action: func(ctx context.Context, cmd *cli.Command) error {
		a := appFrom(ctx)
		o, err := a.orchestrator(true, true)
		if err != nil {
			return err
		}
		var reports []workflow.Report
		for _, t := range targets(cmd.Args().Slice()) {
			if t.dir != "" {
				reports = append(reports, o.TestDir(ctx, t.dir))
			} else {
				reports = append(reports, o.Test(ctx, t.id))
			}
			if ctx.Err() != nil {
				break
			}
		}
		return finish(a, reports)
	},
}

func runAction(ctx context.Context, cmd *cli.Command) error {
	a := appFrom(ctx)
	o, err := a.orchestrator(cmd.Bool("yes"), cmd.Bool("force"))
	if err != nil {
		return err
	}

	var reports []workflow.Report
	var ids []string
	flush := func() {
		if len(ids) > 0 {
			reports = append(reports, o.RunAll(ctx, ids)...)
			ids = nil
		}
	}
	for _, t := range targets(cmd.Args().Slice()) {
		if t.id != "" {
			ids = append(ids, t.id)
			continue
		}
		flush()
		if stopAfter(ctx, reports) {
			return finish(a, reports)
		}
		reports = append(reports, o.RunDir(ctx, t.dir))
		if stopAfter(ctx, reports) {
			return finish(a, reports)
		}
	}
	flush()
	return finish(a, reports)
}

type target struct {
	id  string
	dir string
}

// targets resolves arguments. No argument means the current directory. "." and
// anything with a path separator is a folder; the rest are problem ids resolved
// under the workspace ongoing dir.
func targets(args []string) []target {
	if len(args) == 0 {
		return []target{{dir: "."}}
	}
	out := make([]target, 0, len(args))
	for _, arg := range args {
		if arg == "." || strings.ContainsRune(arg, filepath.Separator) || strings.Contains(arg, "/") {
			out = append(out, target{dir: arg})
			continue
		}
		out = append(out, target{id: arg})
	}
	return out
}

func stopAfter(ctx context.Context, reports []workflow.Report) bool {
	if ctx.Err() != nil {
		return true
	}
	if len(reports) == 0 {
		return false
	}
	last := reports[len(reports)-1]
	return last.Failed() && last.FailedStage == workflow.StateAuthenticating
}

// finish prints the summary and turns the first failure into the exit status.
func finish(a *app, reports []workflow.Report) error {
	a.out.Summary(reports)
	for _, rep := range reports {
		if rep.Failed() {
			return exitStatus(rep.ExitCode())
		}
	}
	return nil
}
