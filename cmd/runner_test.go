package main

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/qsync/internal/device"
	"github.com/desertthunder/qsync/internal/models"
	"github.com/desertthunder/qsync/internal/prompt"
	"github.com/desertthunder/qsync/internal/repositories"
	"github.com/desertthunder/qsync/internal/shared"
	"github.com/desertthunder/qsync/internal/stores"
	tu "github.com/desertthunder/qsync/internal/testing"
)

const (
	remoteData      = "/sdcard/PlayerData.dat"
	remotePlaylists = "/sdcard/Playlists"
)

var (
	quest   = device.Device{Serial: "1WMHH000000001", State: device.StateDevice, Model: "Quest_2"}
	questB  = device.Device{Serial: "1WMHH000000002", State: device.StateDevice, Model: "Quest_3"}
	pending = device.Device{Serial: "1WMHH000000003", State: "unauthorized"}
)

type fixture struct {
	runner     *Runner
	out        *bytes.Buffer
	transport  *tu.MemoryTransport
	connector  *tu.Connector
	prompter   *tu.ScriptedPrompter
	db         *sql.DB
	config     *shared.Config
	configPath string
	configDir  string
	gameDir    string
}

// newFixture lays out a PC install in temp folders and a headset in memory. local keys
// are relative to the game folder, except PlayerData.dat which goes in the data folder.
func newFixture(t *testing.T, local, remote map[string]string) *fixture {
	t.Helper()

	f := &fixture{
		out:        &bytes.Buffer{},
		transport:  tu.NewMemoryTransport(remote),
		prompter:   &tu.ScriptedPrompter{},
		configDir:  t.TempDir(),
		gameDir:    t.TempDir(),
		configPath: filepath.Join(t.TempDir(), "config.toml"),
	}
	f.connector = &tu.Connector{Transport: f.transport, Attached: []device.Device{quest}}

	for name, content := range local {
		dir := f.gameDir
		if name == shared.PlayerDataFile {
			dir = f.configDir
		}
		path := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	db.SetMaxOpenConns(1)
	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	f.db = db

	f.config = shared.DefaultConfig()
	f.config.PC.ConfigPath = f.configDir
	f.config.PC.GamePath = f.gameDir
	f.config.Quest.PlayerDataPath = remoteData
	f.config.Quest.PlaylistsPath = remotePlaylists

	f.runner = NewRunner(RunnerOpts{
		Config:     f.config,
		ConfigPath: f.configPath,
		Logger:     shared.NewLogger(io.Discard),
		Output:     f.out,
		Devices:    f.connector,
		Prompter:   f.prompter,
		DB:         db,
	})
	return f
}

func (f *fixture) run(t *testing.T, args ...string) error {
	t.Helper()
	argv := append([]string{"qsync", "--config", f.configPath}, args...)
	return newApp(f.runner).Run(context.Background(), argv)
}

func (f *fixture) localFavorites(t *testing.T) []string {
	t.Helper()
	return favoritesOf(t, []byte(tu.MustReadFile(t, filepath.Join(f.configDir, shared.PlayerDataFile))))
}

func (f *fixture) remoteFavorites(t *testing.T) []string {
	t.Helper()
	return favoritesOf(t, []byte(f.transport.File(t, remoteData)))
}

func favoritesOf(t *testing.T, data []byte) []string {
	t.Helper()
	doc, err := stores.DecodePlayerData(data)
	if err != nil {
		t.Fatalf("failed to decode player data: %v", err)
	}
	profile, err := doc.Profile()
	if err != nil {
		t.Fatalf("failed to read profile: %v", err)
	}
	return profile.FavoriteIDs
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			connector := &tu.Connector{}
			prompter := &tu.ScriptedPrompter{}

			runner := NewRunner(RunnerOpts{
				Config:     config,
				ConfigPath: "custom.toml",
				Logger:     logger,
				Output:     output,
				Devices:    connector,
				Prompter:   prompter,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.configPath != "custom.toml" {
				t.Errorf("expected configPath custom.toml, got %s", runner.configPath)
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.deviceManager() != connector {
				t.Error("expected devices to be set")
			}
			if runner.prompter != prompter {
				t.Error("expected prompter to be set")
			}
		})

		t.Run("with defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.config == nil {
				t.Error("expected default config")
			}
			if runner.configPath != "config.toml" {
				t.Errorf("expected default configPath, got %s", runner.configPath)
			}
			if runner.logger == nil {
				t.Error("expected default logger")
			}
			if runner.output != os.Stdout {
				t.Error("expected output to default to stdout")
			}
			if _, ok := runner.prompter.(*prompt.Huh); !ok {
				t.Errorf("expected huh prompter, got %T", runner.prompter)
			}
			if runner.devices != nil {
				t.Error("expected adb client to be created lazily")
			}
			if _, ok := runner.deviceManager().(*device.Client); !ok {
				t.Errorf("expected adb client, got %T", runner.devices)
			}
			if runner.Close() != nil {
				t.Error("expected Close without a database to succeed")
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			data := map[string]string{"serial": "1WMHH000000001"}
			if err := runner.writeJSON(data, true); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			want := "{\n  \"serial\": \"1WMHH000000001\"\n}\n"
			if output.String() != want {
				t.Errorf("expected %q, got %q", want, output.String())
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

			err := runner.writeJSON(map[string]any{"ch": make(chan int)}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writeJSON(map[string]string{"a": "b"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("handles newline write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: tu.NewLimitedWriter(1, &bytes.Buffer{})})

			err := runner.writeJSON(map[string]string{"a": "b"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write newline") {
				t.Errorf("expected newline error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes plain text successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writePlain("Found %d favorites\n", 3); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if output.String() != "Found 3 favorites\n" {
				t.Errorf("unexpected output %q", output.String())
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			if err := runner.writePlainln("x"); err == nil {
				t.Error("expected error")
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		commands := runner.register()

		var names []string
		for i, cmd := range commands {
			if cmd == nil {
				t.Fatalf("command at index %d is nil", i)
			}
			names = append(names, cmd.Name)
		}

		want := []string{"setup", "devices", "sync", "diff", "backup", "history"}
		if !slices.Equal(names, want) {
			t.Errorf("commands = %v, want %v", names, want)
		}
	})
}

func TestBefore(t *testing.T) {
	t.Run("loads the config file", func(t *testing.T) {
		f := newFixture(t, nil, nil)
		saved := shared.DefaultConfig()
		saved.ADB.Serial = "1WMHH000000002"
		saved.Log.Level = "warn"
		if err := shared.SaveConfig(f.configPath, saved); err != nil {
			t.Fatal(err)
		}

		if err := f.run(t, "history"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if f.runner.config.ADB.Serial != "1WMHH000000002" {
			t.Errorf("expected config to be loaded, got serial %q", f.runner.config.ADB.Serial)
		}
		if f.runner.logger.GetLevel() != log.WarnLevel {
			t.Errorf("expected warn level, got %v", f.runner.logger.GetLevel())
		}
	})

	t.Run("verbose enables debug logging", func(t *testing.T) {
		f := newFixture(t, nil, nil)

		if err := f.run(t, "--verbose", "history"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if f.runner.logger.GetLevel() != log.DebugLevel {
			t.Errorf("expected debug level, got %v", f.runner.logger.GetLevel())
		}
	})

	t.Run("rejects a malformed config", func(t *testing.T) {
		f := newFixture(t, nil, nil)
		if err := os.WriteFile(f.configPath, []byte("[pc\nbroken"), 0644); err != nil {
			t.Fatal(err)
		}

		err := f.run(t, "history")
		if !errors.Is(err, shared.ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})
}

func TestSync(t *testing.T) {
	t.Run("reconciles, records the session and snapshots both documents", func(t *testing.T) {
		f := newFixture(t,
			map[string]string{
				shared.PlayerDataFile:   tu.PlayerData("a", "b"),
				"Playlists/rock.bplist": tu.Playlist("Rock", "h1"),
			},
			map[string]string{remoteData: tu.PlayerData("b", "c")},
		)
		f.prompter.Answers = []models.Decision{
			models.AdoptIntoSide(models.Remote),
			models.AdoptIntoSide(models.Local),
			models.AdoptIntoSide(models.Remote),
		}

		if err := f.run(t, "sync"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if got := f.localFavorites(t); !slices.Equal(got, []string{"a", "b", "c"}) {
			t.Errorf("local favorites = %v", got)
		}
		if got := f.remoteFavorites(t); !slices.Equal(got, []string{"b", "c", "a"}) {
			t.Errorf("remote favorites = %v", got)
		}
		if got := f.transport.File(t, remotePlaylists+"/rock.bplist"); !strings.Contains(got, `"Rock"`) {
			t.Errorf("remote playlist = %s", got)
		}

		out := f.out.String()
		for _, want := range []string{"Syncing with 1WMHH000000001 (Quest 2)", "Summary", "sync complete"} {
			if !strings.Contains(out, want) {
				t.Errorf("expected output to contain %q, got:\n%s", want, out)
			}
		}

		sessions, err := repositories.NewSessionRepository(f.db).List(10)
		if err != nil {
			t.Fatal(err)
		}
		if len(sessions) != 1 {
			t.Fatalf("expected 1 session, got %d", len(sessions))
		}
		s := sessions[0]
		if s.Status != models.SessionCompleted || s.Device != quest.Serial || s.FinishedAt == nil {
			t.Errorf("unexpected session %+v", s)
		}
		if !strings.Contains(s.Summary, "playlists: Add to Quest (1)") {
			t.Errorf("unexpected summary %q", s.Summary)
		}

		snapshots, err := repositories.NewSnapshotRepository(f.db).ListBySession(s.ID)
		if err != nil {
			t.Fatal(err)
		}
		if len(snapshots) != 2 {
			t.Fatalf("expected 2 snapshots, got %d", len(snapshots))
		}
		for _, snap := range snapshots {
			if snap.Kind != models.SnapshotPlayerData {
				t.Errorf("unexpected snapshot kind %s", snap.Kind)
			}
		}
	})

	t.Run("no-backup records nothing", func(t *testing.T) {
		f := newFixture(t,
			map[string]string{shared.PlayerDataFile: tu.PlayerData("a")},
			map[string]string{remoteData: tu.PlayerData()},
		)
		f.prompter.Answers = []models.Decision{models.AdoptIntoSide(models.Remote)}

		if err := f.run(t, "sync", "--no-backup"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got := f.remoteFavorites(t); !slices.Equal(got, []string{"a"}) {
			t.Errorf("remote favorites = %v", got)
		}

		sessions, _ := repositories.NewSessionRepository(f.db).List(10)
		snapshots, _ := repositories.NewSnapshotRepository(f.db).List(10)
		if len(sessions) != 0 || len(snapshots) != 0 {
			t.Errorf("expected no history, got %d sessions and %d snapshots", len(sessions), len(snapshots))
		}
	})

	t.Run("asks which headset when several are attached", func(t *testing.T) {
		f := newFixture(t,
			map[string]string{shared.PlayerDataFile: tu.PlayerData("a")},
			map[string]string{remoteData: tu.PlayerData("a")},
		)
		f.connector.Attached = []device.Device{quest, questB}
		f.prompter.Picks = []int{1}

		if err := f.run(t, "sync"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(f.connector.Opened) != 1 || f.connector.Opened[0].Serial != questB.Serial {
			t.Errorf("expected %s to be opened, got %v", questB.Serial, f.connector.Opened)
		}
	})

	t.Run("serial flag selects without asking", func(t *testing.T) {
		f := newFixture(t,
			map[string]string{shared.PlayerDataFile: tu.PlayerData("a")},
			map[string]string{remoteData: tu.PlayerData("a")},
		)
		f.connector.Attached = []device.Device{quest, questB}

		if err := f.run(t, "sync", "--serial", questB.Serial); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(f.prompter.Questions) != 0 {
			t.Errorf("expected no prompts, got %v", f.prompter.Questions)
		}
		if f.connector.Opened[0].Serial != questB.Serial {
			t.Errorf("opened %v", f.connector.Opened)
		}
	})

	tests := []struct {
		name     string
		attached []device.Device
		args     []string
		want     error
	}{
		{name: "no headsets", attached: nil, args: []string{"sync"}, want: shared.ErrNoDevices},
		{name: "unknown serial", attached: []device.Device{quest}, args: []string{"sync", "--serial", "nope"}, want: shared.ErrNoDevices},
		{name: "unauthorized headset", attached: []device.Device{pending}, args: []string{"sync"}, want: shared.ErrDeviceNotReady},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t,
				map[string]string{shared.PlayerDataFile: tu.PlayerData("a")},
				map[string]string{remoteData: tu.PlayerData()},
			)
			f.connector.Attached = tt.attached

			err := f.run(t, tt.args...)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			if !shared.IsFatal(err) {
				t.Errorf("expected a fatal error, got %v", err)
			}
			if len(f.connector.Opened) != 0 || f.transport.Pulls != 0 {
				t.Errorf("expected no device I/O, opened %d pulled %d", len(f.connector.Opened), f.transport.Pulls)
			}
		})
	}

	t.Run("unauthorized headset is recorded as failed", func(t *testing.T) {
		f := newFixture(t, map[string]string{shared.PlayerDataFile: tu.PlayerData()}, nil)
		f.connector.Attached = []device.Device{pending}

		if err := f.run(t, "sync"); !errors.Is(err, shared.ErrDeviceNotReady) {
			t.Fatalf("expected ErrDeviceNotReady, got %v", err)
		}

		sessions, err := repositories.NewSessionRepository(f.db).List(1)
		if err != nil || len(sessions) != 1 {
			t.Fatalf("expected one session, got %v (%v)", sessions, err)
		}
		if sessions[0].Status != models.SessionFailed || sessions[0].Error == "" {
			t.Errorf("unexpected session %+v", sessions[0])
		}
		if !strings.Contains(f.out.String(), "sync failed") {
			t.Errorf("expected failure in output, got:\n%s", f.out.String())
		}
	})

	t.Run("prompts for a missing data folder and saves it", func(t *testing.T) {
		f := newFixture(t,
			map[string]string{shared.PlayerDataFile: tu.PlayerData("a")},
			map[string]string{remoteData: tu.PlayerData("a")},
		)
		f.runner.config.PC.ConfigPath = filepath.Join(f.configDir, "missing")
		f.prompter.Inputs = []string{f.configDir}

		if err := f.run(t, "sync"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		saved, err := shared.LoadConfig(f.configPath)
		if err != nil {
			t.Fatalf("expected config to be saved: %v", err)
		}
		if saved.PC.ConfigPath != f.configDir {
			t.Errorf("saved config path = %s, want %s", saved.PC.ConfigPath, f.configDir)
		}
	})

	t.Run("invalid folder answer stops the sync", func(t *testing.T) {
		f := newFixture(t, nil, nil)
		f.runner.config.PC.GamePath = filepath.Join(f.gameDir, "missing")
		f.prompter.Inputs = []string{filepath.Join(f.gameDir, "still-missing")}

		if err := f.run(t, "sync"); !errors.Is(err, shared.ErrInvalidPath) {
			t.Errorf("expected ErrInvalidPath, got %v", err)
		}
		if len(f.connector.Opened) != 0 {
			t.Error("expected no device session")
		}
	})

	t.Run("aborted prompt", func(t *testing.T) {
		f := newFixture(t,
			map[string]string{shared.PlayerDataFile: tu.PlayerData("a")},
			map[string]string{remoteData: tu.PlayerData()},
		)
		f.prompter.Err = shared.ErrAborted

		err := f.run(t, "sync")
		if !errors.Is(err, shared.ErrAborted) {
			t.Fatalf("expected ErrAborted, got %v", err)
		}
		if f.transport.Pushes != 0 || f.transport.Closed != 1 {
			t.Errorf("pushes %d closed %d", f.transport.Pushes, f.transport.Closed)
		}
	})
}

// eventLog records output writes and prompts in the order they happen.
type eventLog struct {
	mu     sync.Mutex
	events []string
}

func (l *eventLog) add(event string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, event)
}

func (l *eventLog) Write(p []byte) (int, error) {
	l.add(string(p))
	return len(p), nil
}

func (l *eventLog) snapshot() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.events)
}

type recordingPrompter struct {
	Prompter
	log *eventLog
}

func (p recordingPrompter) Decide(ctx context.Context, question string, choices []models.Decision) (models.Decision, error) {
	p.log.add("prompt: " + question)
	d, err := p.Prompter.Decide(ctx, question, choices)
	p.log.add("answered")
	return d, err
}

func TestSyncOutputOrder(t *testing.T) {
	for i := range 10 {
		f := newFixture(t,
			map[string]string{shared.PlayerDataFile: tu.PlayerData("a", "b")},
			map[string]string{remoteData: tu.PlayerData("b")},
		)
		f.prompter.Answers = []models.Decision{models.AdoptIntoSide(models.Remote)}
		events := &eventLog{}
		f.runner.output = events
		f.runner.prompter = recordingPrompter{Prompter: f.prompter, log: events}

		if err := f.run(t, "sync", "--no-backup"); err != nil {
			t.Fatalf("run %d: expected no error, got %v", i, err)
		}

		got := events.snapshot()
		asked := slices.IndexFunc(got, func(e string) bool { return strings.HasPrefix(e, "prompt: ") })
		if asked < 0 || asked+1 >= len(got) || got[asked+1] != "answered" {
			t.Fatalf("run %d: output written while the prompt was open: %q", i, got)
		}
		before := strings.Join(got[:asked], "")
		for _, want := range []string{"Connecting to", "Syncing favorites...", "Found 1 favorite on PC but not on Quest", "  • a\n"} {
			if !strings.Contains(before, want) {
				t.Errorf("run %d: expected %q before the prompt, got %q", i, want, got[:asked])
			}
		}
	}
}

func TestDiff(t *testing.T) {
	local := map[string]string{
		shared.PlayerDataFile:   tu.PlayerData("a", "b"),
		"Playlists/rock.bplist": tu.Playlist("Rock"),
	}
	remote := map[string]string{remoteData: tu.PlayerData("b", "c")}

	t.Run("json report changes nothing", func(t *testing.T) {
		f := newFixture(t, local, remote)

		if err := f.run(t, "diff", "--format", "json"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		var report map[string]any
		if err := json.Unmarshal(f.out.Bytes(), &report); err != nil {
			t.Fatalf("expected JSON output, got %v:\n%s", err, f.out.String())
		}
		if len(f.prompter.Questions) != 0 || f.transport.Pushes != 0 {
			t.Errorf("diff prompted %d times and pushed %d times", len(f.prompter.Questions), f.transport.Pushes)
		}
		if got := f.localFavorites(t); !slices.Equal(got, []string{"a", "b"}) {
			t.Errorf("local favorites changed: %v", got)
		}
		if f.transport.Closed != 1 {
			t.Errorf("expected transport to be closed once, got %d", f.transport.Closed)
		}
	})

	t.Run("text report lists divergences", func(t *testing.T) {
		f := newFixture(t, local, remote)

		if err := f.run(t, "diff"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		for _, want := range []string{"a", "c", "Rock"} {
			if !strings.Contains(f.out.String(), want) {
				t.Errorf("expected %q in report:\n%s", want, f.out.String())
			}
		}
	})

	t.Run("writes markdown to a file", func(t *testing.T) {
		f := newFixture(t, local, remote)
		path := filepath.Join(t.TempDir(), "report.md")

		if err := f.run(t, "diff", "-f", "md", "-o", path); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got := tu.MustReadFile(t, path); !strings.HasPrefix(got, "# Sync report") {
			t.Errorf("unexpected report:\n%s", got)
		}
		if f.out.Len() != 0 {
			t.Errorf("expected nothing on stdout, got %q", f.out.String())
		}
	})

	t.Run("unknown format fails before touching the device", func(t *testing.T) {
		f := newFixture(t, local, remote)

		err := f.run(t, "diff", "--format", "yaml")
		if !errors.Is(err, shared.ErrInvalidArgument) {
			t.Fatalf("expected ErrInvalidArgument, got %v", err)
		}
		if len(f.connector.Opened) != 0 {
			t.Error("expected no device session")
		}
	})

	t.Run("missing remote document is fatal", func(t *testing.T) {
		f := newFixture(t, local, nil)

		err := f.run(t, "diff")
		if !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestDevices(t *testing.T) {
	t.Run("lists headsets", func(t *testing.T) {
		f := newFixture(t, nil, nil)
		f.connector.Attached = []device.Device{quest, pending}

		if err := f.run(t, "devices"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		for _, want := range []string{"1WMHH000000001 (Quest 2)", "unauthorized"} {
			if !strings.Contains(f.out.String(), want) {
				t.Errorf("expected %q in output:\n%s", want, f.out.String())
			}
		}
	})

	t.Run("json", func(t *testing.T) {
		f := newFixture(t, nil, nil)
		f.connector.Attached = []device.Device{quest, pending}

		if err := f.run(t, "devices", "--json"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		var views []deviceView
		if err := json.Unmarshal(f.out.Bytes(), &views); err != nil {
			t.Fatal(err)
		}
		if len(views) != 2 || !views[0].Ready || views[1].Ready {
			t.Errorf("unexpected devices %+v", views)
		}
	})

	t.Run("none attached", func(t *testing.T) {
		f := newFixture(t, nil, nil)
		f.connector.Attached = nil

		if err := f.run(t, "devices"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(f.out.String(), "No headsets found") {
			t.Errorf("unexpected output %q", f.out.String())
		}
	})

	t.Run("adb failure", func(t *testing.T) {
		f := newFixture(t, nil, nil)
		f.connector.ListErr = errors.New("adb: command not found")

		if err := f.run(t, "devices"); err == nil {
			t.Error("expected error")
		}
	})
}

func TestBackup(t *testing.T) {
	original := tu.PlayerData("b")

	synced := func(t *testing.T) *fixture {
		t.Helper()
		f := newFixture(t,
			map[string]string{shared.PlayerDataFile: tu.PlayerData("a", "b")},
			map[string]string{remoteData: original},
		)
		f.prompter.Answers = []models.Decision{models.AdoptIntoSide(models.Remote)}
		if err := f.run(t, "sync"); err != nil {
			t.Fatalf("sync failed: %v", err)
		}
		f.out.Reset()
		f.transport.Closed = 0
		return f
	}

	t.Run("list", func(t *testing.T) {
		f := synced(t)

		if err := f.run(t, "backup", "list", "--json"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		var views []snapshotView
		if err := json.Unmarshal(f.out.Bytes(), &views); err != nil {
			t.Fatal(err)
		}
		if len(views) != 1 {
			t.Fatalf("expected 1 snapshot, got %+v", views)
		}
		if v := views[0]; v.Side != "remote" || v.Kind != string(models.SnapshotPlayerData) || v.Size != len(original) {
			t.Errorf("unexpected snapshot %+v", v)
		}
	})

	t.Run("list text", func(t *testing.T) {
		f := synced(t)

		if err := f.run(t, "backup", "list"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(f.out.String(), "#1") || !strings.Contains(f.out.String(), remoteData) {
			t.Errorf("unexpected output:\n%s", f.out.String())
		}
	})

	t.Run("restore by sequence", func(t *testing.T) {
		f := synced(t)
		if got := f.remoteFavorites(t); !slices.Equal(got, []string{"b", "a"}) {
			t.Fatalf("remote favorites after sync = %v", got)
		}

		if err := f.run(t, "backup", "restore", "#1"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got := f.transport.File(t, remoteData); got != original {
			t.Errorf("expected original document back, got %s", got)
		}
		if f.transport.Closed != 1 {
			t.Errorf("expected transport to be closed, got %d", f.transport.Closed)
		}
	})

	t.Run("restore by id to the PC", func(t *testing.T) {
		f := newFixture(t, map[string]string{"Playlists/rock.bplist": tu.Playlist("Rock")}, nil)
		content := []byte(tu.Playlist("Pop", "h1"))
		snap := &models.Snapshot{Side: models.Local, Kind: models.SnapshotPlaylist, Name: "pop.bplist", Content: content}
		if err := repositories.NewSnapshotRepository(f.db).Create(snap); err != nil {
			t.Fatal(err)
		}

		if err := f.run(t, "backup", "restore", snap.ID); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		got := tu.MustReadFile(t, filepath.Join(f.gameDir, shared.PlaylistsDir, "pop.bplist"))
		if got != string(content) {
			t.Errorf("restored playlist = %s", got)
		}
		if len(f.connector.Opened) != 0 {
			t.Error("expected no device session for a PC snapshot")
		}
	})

	tests := []struct {
		name string
		args []string
		want error
	}{
		{name: "missing argument", args: []string{"backup", "restore"}, want: shared.ErrMissingArgument},
		{name: "bad sequence", args: []string{"backup", "restore", "#abc"}, want: shared.ErrInvalidArgument},
		{name: "unknown sequence", args: []string{"backup", "restore", "#99"}, want: shared.ErrSnapshotMissing},
		{name: "unknown id", args: []string{"backup", "restore", "nope"}, want: shared.ErrSnapshotMissing},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil, nil)

			if err := f.run(t, tt.args...); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestHistory(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		f := newFixture(t, nil, nil)

		if err := f.run(t, "history"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(f.out.String(), "No sync sessions") {
			t.Errorf("unexpected output %q", f.out.String())
		}
	})

	t.Run("lists sessions", func(t *testing.T) {
		f := newFixture(t,
			map[string]string{shared.PlayerDataFile: tu.PlayerData("a")},
			map[string]string{remoteData: tu.PlayerData("a")},
		)
		if err := f.run(t, "sync"); err != nil {
			t.Fatalf("sync failed: %v", err)
		}
		f.out.Reset()

		if err := f.run(t, "history", "--json"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		var views []sessionView
		if err := json.Unmarshal(f.out.Bytes(), &views); err != nil {
			t.Fatal(err)
		}
		if len(views) != 1 || views[0].Status != string(models.SessionCompleted) || views[0].Summary != "favorites: in sync; playlists: in sync" {
			t.Errorf("unexpected history %+v", views)
		}
	})
}

func TestSetup(t *testing.T) {
	t.Run("creates the config and asks for the PC folders", func(t *testing.T) {
		f := newFixture(t, nil, nil)
		f.prompter.Inputs = []string{f.configDir, f.gameDir}

		if err := f.run(t, "setup"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		saved, err := shared.LoadConfig(f.configPath)
		if err != nil {
			t.Fatalf("expected config file: %v", err)
		}
		if saved.PC.ConfigPath != f.configDir || saved.PC.GamePath != f.gameDir {
			t.Errorf("saved paths %q %q", saved.PC.ConfigPath, saved.PC.GamePath)
		}
		if !strings.Contains(f.out.String(), "qsync is ready") {
			t.Errorf("unexpected output:\n%s", f.out.String())
		}
	})

	t.Run("keeps an existing config", func(t *testing.T) {
		f := newFixture(t, nil, nil)
		if err := shared.SaveConfig(f.configPath, f.config); err != nil {
			t.Fatal(err)
		}

		if err := f.run(t, "setup"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(f.prompter.Questions) != 0 {
			t.Errorf("expected no prompts, got %v", f.prompter.Questions)
		}
	})
}
