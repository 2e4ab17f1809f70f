package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	appErr "mockct/pkg/errors"
	"mockct/pkg/utils/logger"
)

const usage = `mock coding-test runner

mockct checks the judge session, validates the problem folder, runs the local
samples and submits the solution. It also builds mock exams from shared
solved.ac problem pools.`

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newApp().Run(ctx, os.Args)
	stop()
	_ = logger.Sync()
	os.Exit(exitCode(ctx, err))
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:    "mockct",
		Usage:   usage,
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to config file (default: ./.mockct/config.yaml, then the user config dir)",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "log level: debug, info, warn or error",
			},
			&cli.BoolFlag{
				Name:  "no-color",
				Usage: "disable colored output",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "print every workflow stage",
			},
			&cli.BoolFlag{
				Name:    "yes",
				Aliases: []string{"y"},
				Usage:   "submit without asking for confirmation",
			},
			&cli.BoolFlag{
				Name:  "force",
				Usage: "submit even when samples fail",
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			a, err := loadApp(cmd)
			if err != nil {
				return ctx, err
			}
			return withApp(ctx, a), nil
		},
		Commands: []*cli.Command{
			runCmd,
			testCmd,
			loginCmd,
			logoutCmd,
			poolCmd,
			examCmd,
		},
		Action: runAction,
	}
}

// exitStatus ends the process with a code once the failure has been reported.
type exitStatus int

func (e exitStatus) Error() string {
	return fmt.Sprintf("exit status %d", int(e))
}

func exitCode(ctx context.Context, err error) int {
	if err == nil {
		return 0
	}
	var status exitStatus
	if errors.As(err, &status) {
		return int(status)
	}
	fmt.Fprintf(os.Stderr, "mockct: %v\n", err)
	if ctx.Err() != nil && appErr.GetCode(err) != appErr.Canceled {
		return appErr.Canceled.ExitCode()
	}
	return appErr.GetCode(err).ExitCode()
}
