// submodule cmd contains command definitions
package main

import (
	"fmt"
	"strings"

	"github.com/desertthunder/qsync/internal/formatter"
	"github.com/urfave/cli/v3"
)

func serialFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "serial",
		Aliases: []string{"s"},
		Usage:   "Serial of the headset to use (see 'qsync devices')",
	}
}

func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "setup",
		Usage:  "Create config.toml, initialize the database and run migrations",
		Action: r.Setup,
	}
}

// devicesCommand lists headsets visible to adb
func devicesCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "devices",
		Usage: "List connected headsets",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Devices,
	}
}

// syncCommand runs an interactive reconciliation session
func syncCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "sync",
		Usage: "Reconcile favorites and playlists between the PC and a Quest",
		Flags: []cli.Flag{
			serialFlag(),
			&cli.BoolFlag{
				Name:  "no-backup",
				Usage: "Skip snapshots and history (nothing is written to the database)",
			},
		},
		Action: r.Sync,
	}
}

// diffCommand reports divergences without prompting or writing
func diffCommand(r *Runner) *cli.Command {
	formats := make([]string, len(formatter.Formats))
	for i, f := range formatter.Formats {
		formats[i] = string(f)
	}

	return &cli.Command{
		Name:  "diff",
		Usage: "Show what differs between the PC and a Quest without changing anything",
		Flags: []cli.Flag{
			serialFlag(),
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   fmt.Sprintf("Report format (%s)", strings.Join(formats, ", ")),
				Value:   string(formatter.Text),
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write the report to a file instead of stdout",
			},
			&cli.BoolFlag{
				Name:  "tui",
				Usage: "Browse the divergences interactively",
			},
		},
		Action: r.Diff,
	}
}

// backupCommand handles snapshot operations
func backupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "backup",
		Aliases: []string{"backups"},
		Usage:   "Snapshots taken before sync changed a document",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List snapshots, newest first",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of snapshots to show",
						Value: 20,
					},
					&cli.StringFlag{
						Name:  "session",
						Usage: "Only show snapshots taken by this session id",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.BackupList,
			},
			{
				Name:  "restore",
				Usage: "Write a snapshot back to the side it was taken from",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name:      "snapshot",
						UsageText: "Snapshot id, or #sequence as shown by 'backup list'",
					},
				},
				Flags: []cli.Flag{
					serialFlag(),
				},
				Action: r.BackupRestore,
			},
		},
	}
}

// historyCommand lists recorded sync sessions
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "List past sync sessions",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of sessions to show",
				Value: 20,
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.History,
	}
}
