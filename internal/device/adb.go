package device

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/qsync/internal/shared"
)

const tempSuffix = ".qsync-tmp"

// Runner executes one adb invocation.
type Runner interface {
	Run(ctx context.Context, args ...string) (stdout, stderr []byte, err error)
}

// ExecRunner runs the adb binary found on PATH or at Binary.
type ExecRunner struct {
	Binary string
}

// Run implements [Runner].
func (r ExecRunner) Run(ctx context.Context, args ...string) ([]byte, []byte, error) {
	binary := r.Binary
	if binary == "" {
		binary = "adb"
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, binary, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}

// Client issues adb commands.
type Client struct {
	runner Runner
	logger *log.Logger
}

// NewClient creates a Client using runner; a nil runner runs the adb binary.
func NewClient(runner Runner, logger *log.Logger) *Client {
	if runner == nil {
		runner = ExecRunner{}
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Client{runner: runner, logger: logger}
}

// Devices lists attached devices.
func (c *Client) Devices(ctx context.Context) ([]Device, error) {
	stdout, stderr, err := c.runner.Run(ctx, "devices", "-l")
	if err != nil {
		var execErr *exec.Error
		if errors.As(err, &execErr) {
			return nil, fmt.Errorf("%w: adb is not installed or not on PATH: %v", shared.ErrIO, err)
		}
		return nil, fmt.Errorf("%w: adb devices: %s", shared.ErrIO, commandOutput(stderr, err))
	}
	return ParseDevices(string(stdout)), nil
}

// Open starts a session with d. It fails with [shared.ErrDeviceNotReady] without issuing
// any command when the device is not ready.
func (c *Client) Open(ctx context.Context, d Device) (Transport, error) {
	if err := CheckReady(d); err != nil {
		return nil, err
	}
	c.logger.Debug("opening adb session", "device", d.Serial)
	return &Session{
		runner: c.runner,
		serial: d.Serial,
		logger: shared.WithLogger(c.logger, "device", d.Serial),
	}, nil
}

// Session is a [Transport] bound to one device serial.
type Session struct {
	runner Runner
	serial string
	logger *log.Logger
	closed bool
}

func (s *Session) run(ctx context.Context, args ...string) ([]byte, []byte, error) {
	if s.closed {
		return nil, nil, shared.ErrSessionClosed
	}
	full := append([]string{"-s", s.serial}, args...)
	return s.runner.Run(ctx, full...)
}

// Pull implements [Transport].
func (s *Session) Pull(ctx context.Context, remotePath string) ([]byte, error) {
	stdout, stderr, err := s.run(ctx, "exec-out", "cat", quote(remotePath))
	if errors.Is(err, shared.ErrSessionClosed) {
		return nil, err
	}
	if missing(stdout, stderr) {
		return nil, fmt.Errorf("%w: %s", shared.ErrNotFound, remotePath)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: pull %s: %s", shared.ErrIO, remotePath, commandOutput(stderr, err))
	}
	return stdout, nil
}

// Push implements [Transport]. The file is pushed to a sibling temp path and moved over
// the target, so a failed push leaves the old file in place.
func (s *Session) Push(ctx context.Context, data []byte, remotePath string) error {
	if s.closed {
		return shared.ErrSessionClosed
	}

	tmp, err := os.CreateTemp("", "qsync-push-*")
	if err != nil {
		return fmt.Errorf("%w: stage %s: %w", shared.ErrIO, remotePath, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: stage %s: %w", shared.ErrIO, remotePath, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: stage %s: %w", shared.ErrIO, remotePath, err)
	}

	staged := remotePath + tempSuffix
	if _, stderr, err := s.run(ctx, "shell", "mkdir", "-p", quote(path.Dir(remotePath))); err != nil {
		return fmt.Errorf("%w: mkdir %s: %s", shared.ErrIO, path.Dir(remotePath), commandOutput(stderr, err))
	}
	if _, stderr, err := s.run(ctx, "push", tmp.Name(), staged); err != nil {
		return fmt.Errorf("%w: push %s: %s", shared.ErrIO, remotePath, commandOutput(stderr, err))
	}
	if _, stderr, err := s.run(ctx, "shell", "mv", "-f", quote(staged), quote(remotePath)); err != nil {
		s.run(ctx, "shell", "rm", "-f", quote(staged))
		return fmt.Errorf("%w: replace %s: %s", shared.ErrIO, remotePath, commandOutput(stderr, err))
	}

	s.logger.Debug("pushed file", "path", remotePath, "bytes", len(data))
	return nil
}

// List implements [Transport].
func (s *Session) List(ctx context.Context, remoteDir string) ([]string, error) {
	stdout, stderr, err := s.run(ctx, "shell", "ls", "-1", quote(remoteDir))
	if errors.Is(err, shared.ErrSessionClosed) {
		return nil, err
	}
	if missing(stdout, stderr) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: list %s: %s", shared.ErrIO, remoteDir, commandOutput(stderr, err))
	}

	var names []string
	for _, line := range strings.Split(string(stdout), "\n") {
		name := strings.TrimSpace(line)
		if name == "" || strings.HasSuffix(name, tempSuffix) {
			continue
		}
		names = append(names, name)
	}
	return names, nil
}

// Remove implements [Transport].
func (s *Session) Remove(ctx context.Context, remotePath string) error {
	_, stderr, err := s.run(ctx, "shell", "rm", "-f", quote(remotePath))
	if err != nil {
		if errors.Is(err, shared.ErrSessionClosed) {
			return err
		}
		return fmt.Errorf("%w: remove %s: %s", shared.ErrIO, remotePath, commandOutput(stderr, err))
	}
	return nil
}

// Close implements [Transport]. Closing twice is a no-op.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.logger.Debug("closed adb session")
	return nil
}

// quote wraps p in single quotes for the device shell.
func quote(p string) string {
	return "'" + strings.ReplaceAll(p, "'", `'\''`) + "'"
}

// missing detects the shell's "No such file" report, which exec-out delivers on stdout.
func missing(stdout, stderr []byte) bool {
	msg := []byte("No such file or directory")
	if bytes.Contains(stderr, msg) {
		return true
	}
	out := bytes.TrimSpace(stdout)
	return (bytes.HasPrefix(out, []byte("cat: ")) || bytes.HasPrefix(out, []byte("ls: "))) && bytes.Contains(out, msg)
}

func commandOutput(stderr []byte, err error) string {
	if msg := strings.TrimSpace(string(stderr)); msg != "" {
		return msg
	}
	if err != nil {
		return err.Error()
	}
	return "unknown error"
}
