package main

import (
	"context"
	"errors"
	"os"

	"github.com/desertthunder/qsync/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)
	runner := NewRunner(RunnerOpts{Logger: logger})

	err := newApp(runner).Run(context.Background(), os.Args)
	if cerr := runner.Close(); cerr != nil {
		logger.Warn("failed to close database", "error", cerr)
	}

	switch {
	case err == nil:
	case errors.Is(err, shared.ErrAborted):
		logger.Warn("sync aborted")
		os.Exit(1)
	case shared.IsFatal(err):
		logger.Fatal("cannot sync", "error", err)
	default:
		logger.Fatalf("application error: %v", err)
	}
}

func newApp(runner *Runner) *cli.Command {
	return &cli.Command{
		Name:    "qsync",
		Usage:   "Sync Beat Saber favorites & playlists between your PC and a Quest",
		Version: "0.3.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Enable debug logging",
			},
		},
		Before:   runner.before,
		Commands: runner.register(),
		Writer:   runner.output,
	}
}
