package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/qsync/internal/formatter"
	"github.com/urfave/cli/v3"
)

// Diff reads both sides and reports the divergences. Nothing is prompted or written.
func (r *Runner) Diff(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	if err := r.ensurePaths(ctx); err != nil {
		return err
	}

	dev, err := r.chooseDevice(ctx, cmd.String("serial"))
	if err != nil {
		return err
	}

	if cmd.Bool("tui") {
		return r.TUI(ctx, dev)
	}

	result, err := r.newEngine(nil, nil).Diff(ctx, dev, nil)
	if err != nil {
		return err
	}

	if path := cmd.String("output"); path != "" {
		if err := formatter.WriteReport(result, format, path); err != nil {
			return err
		}
		r.logger.Info("report written", "path", path, "format", format)
		return nil
	}

	data, err := formatter.Render(result, format)
	if err != nil {
		return err
	}
	if _, err := r.output.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
