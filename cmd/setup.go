package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/qsync/internal/prompt"
	"github.com/desertthunder/qsync/internal/shared"
	"github.com/urfave/cli/v3"
)

// Setup writes config.toml from the template when missing, asks for any PC folder
// that cannot be found, then initializes the database.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	if _, err := os.Stat(r.configPath); err != nil {
		r.logger.Info("config file not found, creating from template", "path", r.configPath)
		if err := shared.CreateConfigFile(r.configPath); err != nil {
			return err
		}
		config, err := shared.LoadConfig(r.configPath)
		if err != nil {
			return err
		}
		r.config = config
		r.logger.Info("config file created", "path", r.configPath)
	}

	if err := r.ensurePaths(ctx); err != nil {
		return err
	}

	r.logger.Info("initializing database", "path", r.config.Database.Path)
	if _, err := r.database(); err != nil {
		return fmt.Errorf("failed to set up database: %w", err)
	}
	r.logger.Infof("setup complete for database: %v", r.config.Database.Path)

	r.writePlain("%s\n", "✓ qsync is ready")
	r.writePlain("PC data folder:  %s\n", r.config.PC.ConfigPath)
	r.writePlain("PC game folder:  %s\n", r.config.PC.GamePath)
	r.writePlainln("Next steps:")
	r.writePlain("1. Connect the headset over USB and allow debugging\n")
	r.writePlain("2. Run 'qsync diff' to preview, then 'qsync sync'\n")
	return nil
}

// ensurePaths prompts for each configured PC folder that does not exist and saves
// the answers to the config file.
func (r *Runner) ensurePaths(ctx context.Context) error {
	paths := []struct {
		question string
		target   *string
	}{
		{"Where is your Beat Saber data folder (the one holding PlayerData.dat)?", &r.config.PC.ConfigPath},
		{"Where is Beat Saber installed?", &r.config.PC.GamePath},
	}

	changed := false
	for _, p := range paths {
		if shared.IsDir(*p.target) {
			continue
		}
		r.logger.Warn("folder not found", "path", *p.target)

		answer, err := r.prompter.Input(ctx, p.question, prompt.ExistingDir)
		if err != nil {
			return err
		}
		*p.target = answer
		changed = true
	}

	if !changed {
		return nil
	}
	if err := shared.SaveConfig(r.configPath, r.config); err != nil {
		return err
	}
	r.logger.Info("saved PC folders", "config", r.configPath)
	return nil
}
