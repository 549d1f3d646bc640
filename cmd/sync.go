package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/qsync/internal/device"
	"github.com/desertthunder/qsync/internal/models"
	"github.com/desertthunder/qsync/internal/repositories"
	"github.com/desertthunder/qsync/internal/shared"
	"github.com/desertthunder/qsync/internal/stores"
	"github.com/desertthunder/qsync/internal/tasks"
	"github.com/desertthunder/qsync/internal/ui"
	"github.com/urfave/cli/v3"
)

// Sync runs an interactive session against the chosen headset. Unless --no-backup is
// set, the session is recorded and every overwritten document is snapshotted.
func (r *Runner) Sync(ctx context.Context, cmd *cli.Command) error {
	if err := r.ensurePaths(ctx); err != nil {
		return err
	}

	dev, err := r.chooseDevice(ctx, cmd.String("serial"))
	if err != nil {
		return err
	}

	var backup stores.Snapshotter
	var sessions *repositories.SessionRepository
	var session *models.Session
	if !cmd.Bool("no-backup") {
		db, err := r.database()
		if err != nil {
			return err
		}
		sessions = repositories.NewSessionRepository(db)
		if session, err = sessions.Start(dev.Serial); err != nil {
			return err
		}
		backup = repositories.NewSnapshotRepository(db).ForSession(session.ID)
	} else {
		r.logger.Warn("backups disabled, overwritten documents cannot be restored")
	}

	r.writePlainHeader(fmt.Sprintf("Syncing with %s", dev.Label()))

	printer := r.startProgress()
	engine := r.newEngine(backup, flushingPrompter{Prompter: r.prompter, flush: printer.flush})
	result, err := engine.Run(ctx, dev, printer.updates)
	printer.stop()
	if result == nil {
		result = &tasks.SessionResult{Device: dev, Err: err}
	}

	if session != nil {
		if ferr := sessions.Finish(session, result.Status(), result.Summary(), err); ferr != nil {
			r.logger.Warn("failed to record session", "session", session.ID, "error", ferr)
		}
	}

	r.printResult(result)
	return err
}

func (r *Runner) chooseDevice(ctx context.Context, serial string) (device.Device, error) {
	if serial == "" {
		serial = r.config.ADB.Serial
	}

	devices, err := r.deviceManager().Devices(ctx)
	if err != nil {
		return device.Device{}, err
	}

	dev, err := device.Choose(devices, serial, func(labels []string) (int, error) {
		return r.prompter.Select(ctx, "Which headset do you want to use?", labels)
	})
	if err != nil {
		return device.Device{}, err
	}
	r.logger.Debug("using device", "serial", dev.Serial, "state", dev.State)
	return dev, nil
}

// newEngine wires both sides from the config. backup and p may be nil.
func (r *Runner) newEngine(backup stores.Snapshotter, p tasks.Prompter) *tasks.SessionEngine {
	local := stores.NewLocalSet(r.config.PC.ConfigPath, r.config.PC.GamePath, backup, r.logger)
	remote := func(t device.Transport) *stores.Set {
		return stores.NewRemoteSet(t, r.config.Quest.PlayerDataPath, r.config.Quest.PlaylistsPath, backup, r.logger)
	}
	return tasks.NewSessionEngine(r.deviceManager(), local, remote, p, r.logger)
}

// progressPrinter writes session updates to the runner output as they arrive.
type progressPrinter struct {
	updates chan tasks.ProgressUpdate
	flushes chan chan struct{}
	done    chan struct{}
}

func (r *Runner) startProgress() *progressPrinter {
	p := &progressPrinter{
		updates: make(chan tasks.ProgressUpdate, 64),
		flushes: make(chan chan struct{}),
		done:    make(chan struct{}),
	}

	go func() {
		defer close(p.done)
		for {
			select {
			case update, ok := <-p.updates:
				if !ok {
					return
				}
				r.printProgress(update)
			case ack := <-p.flushes:
				p.drain(r.printProgress)
				close(ack)
			}
		}
	}()
	return p
}

func (p *progressPrinter) drain(write func(tasks.ProgressUpdate)) {
	for {
		select {
		case update, ok := <-p.updates:
			if !ok {
				return
			}
			write(update)
		default:
			return
		}
	}
}

// flush returns once every update sent so far has been written.
func (p *progressPrinter) flush() {
	ack := make(chan struct{})
	p.flushes <- ack
	<-ack
}

// stop writes the remaining updates and waits for the printer to exit.
func (p *progressPrinter) stop() {
	close(p.updates)
	<-p.done
}

// flushingPrompter writes pending progress before each question so nothing is printed
// while a prompt is on screen.
type flushingPrompter struct {
	Prompter
	flush func()
}

func (p flushingPrompter) Decide(ctx context.Context, question string, choices []models.Decision) (models.Decision, error) {
	p.flush()
	return p.Prompter.Decide(ctx, question, choices)
}

func (p flushingPrompter) Select(ctx context.Context, question string, labels []string) (int, error) {
	p.flush()
	return p.Prompter.Select(ctx, question, labels)
}

func (p flushingPrompter) Input(ctx context.Context, question string, validate func(string) error) (string, error) {
	p.flush()
	return p.Prompter.Input(ctx, question, validate)
}

func (r *Runner) printProgress(u tasks.ProgressUpdate) {
	switch data := u.Data.(type) {
	case []string:
		r.writePlain("%s\n", ui.Warning(u.Message))
		for _, item := range data {
			r.writePlain("  • %s\n", item)
		}
	case []*shared.EntryError:
		r.writePlain("%s\n", ui.Warning(u.Message))
		for _, e := range data {
			r.logger.Debug("skipped entry", "name", e.Name, "error", e.Err)
		}
	case error:
		r.writePlain("%s\n", ui.Failure(u.Message))
	default:
		if u.Phase == tasks.PhaseClosed {
			r.writePlain("%s\n", ui.Hint(u.Message))
			return
		}
		r.writePlain("%s\n", u.Message)
	}
}

func (r *Runner) printResult(result *tasks.SessionResult) {
	r.writePlainln("%s", ui.Title("Summary"))
	for _, rep := range result.Reports() {
		switch {
		case rep.Err != nil:
			r.writePlain("%s\n", ui.Failure(rep.Summary()))
		case rep.InSync():
			r.writePlain("%s\n", ui.Success(rep.Summary()))
		default:
			r.writePlain("%s\n", rep.Summary())
		}
	}
	if result.CloseErr != nil {
		r.writePlain("%s\n", ui.Warning(fmt.Sprintf("device session did not close cleanly: %v", result.CloseErr)))
	}

	switch result.Status() {
	case models.SessionCompleted:
		r.writePlain("%s\n", ui.Success("✓ sync complete"))
	case models.SessionPartial:
		r.writePlain("%s\n", ui.Warning("! sync finished with errors"))
	default:
		r.writePlain("%s\n", ui.Failure(fmt.Sprintf("✗ sync failed: %v", result.Err)))
	}
}
