package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/qsync/internal/device"
	"github.com/desertthunder/qsync/internal/shared"
	"github.com/desertthunder/qsync/internal/ui"
)

// TUI opens the divergence browser for dev.
func (r *Runner) TUI(ctx context.Context, dev device.Device) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger(r.config.Log.File)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	shared.SetLogLevel(fileLogger, r.logger.GetLevel())
	r.SetLogger(fileLogger)

	model := ui.NewModel(ctx, r.newEngine(nil, nil), dev)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return model.Err()
}
