// package shared defines shared helpers
package shared

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"gopkg.in/natefinch/lumberjack.v2"
)

// NewLogger creates a new [log.Logger] instance with the specified [io.Writer], with timestamps and caller reporting enabled.
//
// The writer defaults to [os.Stderr]
func NewLogger(w io.Writer) *log.Logger {
	if w == nil {
		w = os.Stderr
	}
	opts := log.Options{ReportTimestamp: true, ReportCaller: true}
	return log.NewWithOptions(w, opts)
}

// NewFileLogger creates a [log.Logger] that writes to a size-rotated file at path.
//
// Used while a full-screen program owns the terminal.
func NewFileLogger(path string) (*log.Logger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	w := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    5,
		MaxBackups: 3,
		MaxAge:     28,
	}
	return NewLogger(w), nil
}

// WithLogger creates a child [log.Logger] with the specified key-value pairs added to all log entries.
func WithLogger(l *log.Logger, kv ...any) *log.Logger {
	return l.With(kv...)
}

// SetLogLevel sets the [log.Level] for the given [log.Logger].
func SetLogLevel(l *log.Logger, ll log.Level) {
	l.SetLevel(ll)
}

// ParseLogLevel converts a level name from the config file, falling back to info.
func ParseLogLevel(name string) log.Level {
	level, err := log.ParseLevel(strings.ToLower(strings.TrimSpace(name)))
	if err != nil {
		return log.InfoLevel
	}
	return level
}

// GenerateID generates a new v4 [uuid.UUID] as a string
func GenerateID() string {
	return uuid.New().String()
}

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// SafeFileName turns an arbitrary title into a file name usable on both sides.
//
// Runs of unsupported characters collapse to a single underscore.
func SafeFileName(title, ext string) string {
	name := unsafeFileChars.ReplaceAllString(strings.TrimSpace(title), "_")
	name = strings.Trim(name, "_.")
	if name == "" {
		name = "playlist"
	}
	return name + ext
}

// Pluralize returns word with an "s" appended unless n is one.
func Pluralize(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}
