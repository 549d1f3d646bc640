package shared

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// PlayerDataFile is the name of the player document on both sides.
const PlayerDataFile = "PlayerData.dat"

// PlaylistsDir is the playlist folder inside the PC game install.
const PlaylistsDir = "Playlists"

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	PC       PCConfig       `toml:"pc"`
	Quest    QuestConfig    `toml:"quest"`
	ADB      ADBConfig      `toml:"adb"`
	Database DatabaseConfig `toml:"database"`
	Log      LogConfig      `toml:"log"`
}

// PCConfig locates the local Beat Saber data.
type PCConfig struct {
	ConfigPath string `toml:"config_path"`
	GamePath   string `toml:"game_path"`
}

// QuestConfig holds the fixed document locations on the headset.
type QuestConfig struct {
	PlayerDataPath string `toml:"player_data_path"`
	PlaylistsPath  string `toml:"playlists_path"`
}

// ADBConfig controls how the adb binary is invoked.
type ADBConfig struct {
	Binary string `toml:"binary"`
	Serial string `toml:"serial"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// LogConfig contains the log file used while the TUI is running.
type LogConfig struct {
	File  string `toml:"file"`
	Level string `toml:"level"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Empty PC paths are filled with the platform defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
	}
	config.applyDefaults()

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	config.applyDefaults()
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// SaveConfig encodes config as TOML and writes it to path.
func SaveConfig(path string, config *Config) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(config); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// PCPlaylistsPath returns the folder holding local playlist documents.
func (c *Config) PCPlaylistsPath() string {
	return filepath.Join(c.PC.GamePath, PlaylistsDir)
}

// IsDir reports whether path names an existing directory.
func IsDir(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func (c *Config) applyDefaults() {
	if c.PC.ConfigPath == "" {
		c.PC.ConfigPath = DefaultPCConfigPath()
	}
	if c.PC.GamePath == "" {
		c.PC.GamePath = DefaultPCGamePath()
	}
	if c.ADB.Binary == "" {
		c.ADB.Binary = "adb"
	}
}

// DefaultPCConfigPath returns the folder the game stores PlayerData.dat in on this platform.
func DefaultPCConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	if runtime.GOOS == "windows" {
		return filepath.Join(home, "AppData", "LocalLow", "Hyperbolic Magnetism", "Beat Saber")
	}
	// Proton prefix used by Steam on Linux.
	return filepath.Join(home, ".steam", "steam", "steamapps", "compatdata", "620980", "pfx",
		"drive_c", "users", "steamuser", "AppData", "LocalLow", "Hyperbolic Magnetism", "Beat Saber")
}

// DefaultPCGamePath returns the default Steam install folder for the game.
func DefaultPCGamePath() string {
	if runtime.GOOS == "windows" {
		return filepath.Join("C:\\", "Program Files (x86)", "Steam", "steamapps", "common", "Beat Saber")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".steam", "steam", "steamapps", "common", "Beat Saber")
}
