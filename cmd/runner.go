package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/qsync/internal/device"
	"github.com/desertthunder/qsync/internal/prompt"
	"github.com/desertthunder/qsync/internal/shared"
	"github.com/desertthunder/qsync/internal/tasks"
	"github.com/urfave/cli/v3"
)

// DeviceManager lists attached headsets and opens transport sessions on them.
type DeviceManager interface {
	device.Connector
	Devices(ctx context.Context) ([]device.Device, error)
}

// Prompter is every question the CLI can ask.
type Prompter interface {
	tasks.Prompter
	Select(ctx context.Context, question string, labels []string) (int, error)
	Input(ctx context.Context, question string, validate func(string) error) (string, error)
}

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	logger     *log.Logger
	output     io.Writer
	devices    DeviceManager
	prompter   Prompter
	db         *sql.DB
}

// RunnerOpts contains configuration options for creating a Runner.
//
// Devices and DB are created lazily from the config when left nil.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Logger     *log.Logger
	Output     io.Writer
	Devices    DeviceManager
	Prompter   Prompter
	DB         *sql.DB
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.ConfigPath == "" {
		opts.ConfigPath = "config.toml"
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Prompter == nil {
		opts.Prompter = prompt.NewHuh(false)
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		logger:     opts.Logger,
		output:     opts.Output,
		devices:    opts.Devices,
		prompter:   opts.Prompter,
		db:         opts.DB,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, devicesCommand, syncCommand, diffCommand, backupCommand, historyCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// SetLogger replaces the logger used by the runner and everything it builds afterwards.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

// Close releases the database handle, if one was opened.
func (r *Runner) Close() error {
	if r.db == nil {
		return nil
	}
	err := r.db.Close()
	r.db = nil
	return err
}

// before loads the config named by --config and applies the log level. A missing
// config file keeps the defaults so setup can create it.
func (r *Runner) before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if path := cmd.String("config"); path != "" {
		r.configPath = path
	}

	if _, err := os.Stat(r.configPath); err == nil {
		config, err := shared.LoadConfig(r.configPath)
		if err != nil {
			return ctx, err
		}
		r.config = config
	} else {
		r.logger.Debug("config file not found, using defaults", "path", r.configPath)
	}

	shared.SetLogLevel(r.logger, shared.ParseLogLevel(r.config.Log.Level))
	if cmd.Bool("verbose") {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}
	return ctx, nil
}

func (r *Runner) deviceManager() DeviceManager {
	if r.devices == nil {
		r.devices = device.NewClient(device.ExecRunner{Binary: r.config.ADB.Binary}, r.logger)
	}
	return r.devices
}

func (r *Runner) database() (*sql.DB, error) {
	if r.db != nil {
		return r.db, nil
	}
	db, err := shared.OpenDatabase(r.config.Database)
	if err != nil {
		return nil, err
	}
	r.db = db
	return db, nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
