// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"sort"
	"strings"
	"testing"

	"github.com/desertthunder/qsync/internal/device"
	"github.com/desertthunder/qsync/internal/models"
	"github.com/desertthunder/qsync/internal/shared"
)

var _ device.Transport = (*MemoryTransport)(nil)

// MemoryTransport is an in-memory stand-in for a device transport.
//
// Files are keyed by their slash-separated absolute path.
type MemoryTransport struct {
	Files map[string][]byte

	PullErr   map[string]error // Per-path Pull failures
	PushErr   error            // Fails every Push when set
	RemoveErr error            // Fails every Remove when set
	CloseErr  error

	Pulls  int
	Pushes int
	Closed int
}

// NewMemoryTransport creates a transport holding a copy of files.
func NewMemoryTransport(files map[string]string) *MemoryTransport {
	m := &MemoryTransport{Files: make(map[string][]byte), PullErr: make(map[string]error)}
	for p, content := range files {
		m.Files[p] = []byte(content)
	}
	return m
}

func (m *MemoryTransport) Pull(ctx context.Context, remotePath string) ([]byte, error) {
	if m.Closed > 0 {
		return nil, shared.ErrSessionClosed
	}
	m.Pulls++
	if err, ok := m.PullErr[remotePath]; ok {
		return nil, err
	}
	data, ok := m.Files[remotePath]
	if !ok {
		return nil, fmt.Errorf("%w: %s", shared.ErrNotFound, remotePath)
	}
	return append([]byte(nil), data...), nil
}

func (m *MemoryTransport) Push(ctx context.Context, data []byte, remotePath string) error {
	if m.Closed > 0 {
		return shared.ErrSessionClosed
	}
	if m.PushErr != nil {
		return m.PushErr
	}
	m.Pushes++
	m.Files[remotePath] = append([]byte(nil), data...)
	return nil
}

func (m *MemoryTransport) List(ctx context.Context, remoteDir string) ([]string, error) {
	if m.Closed > 0 {
		return nil, shared.ErrSessionClosed
	}
	prefix := strings.TrimSuffix(remoteDir, "/") + "/"
	var names []string
	for p := range m.Files {
		if strings.HasPrefix(p, prefix) && !strings.Contains(strings.TrimPrefix(p, prefix), "/") {
			names = append(names, path.Base(p))
		}
	}
	sort.Strings(names)
	return names, nil
}

func (m *MemoryTransport) Remove(ctx context.Context, remotePath string) error {
	if m.Closed > 0 {
		return shared.ErrSessionClosed
	}
	if m.RemoveErr != nil {
		return m.RemoveErr
	}
	delete(m.Files, remotePath)
	return nil
}

func (m *MemoryTransport) Close() error {
	m.Closed++
	return m.CloseErr
}

// File returns the content at p as a string, failing the test when absent.
func (m *MemoryTransport) File(t *testing.T, p string) string {
	t.Helper()
	data, ok := m.Files[p]
	if !ok {
		t.Fatalf("remote file %s does not exist", p)
	}
	return string(data)
}

// Connector hands out a fixed transport and counts how often it was asked to.
//
// Attached is what Devices reports.
type Connector struct {
	Transport device.Transport
	Err       error
	Opened    []device.Device

	Attached []device.Device
	ListErr  error
}

func (c *Connector) Devices(ctx context.Context) ([]device.Device, error) {
	if c.ListErr != nil {
		return nil, c.ListErr
	}
	return c.Attached, nil
}

func (c *Connector) Open(ctx context.Context, d device.Device) (device.Transport, error) {
	c.Opened = append(c.Opened, d)
	if c.Err != nil {
		return nil, c.Err
	}
	return c.Transport, nil
}

// Question is one prompt received by a [ScriptedPrompter].
type Question struct {
	Text    string
	Choices []models.Decision
}

// ScriptedPrompter answers decision prompts from a queue and records every question.
type ScriptedPrompter struct {
	Answers   []models.Decision
	Picks     []int
	Inputs    []string
	Err       error
	Questions []Question
}

func (p *ScriptedPrompter) Decide(ctx context.Context, question string, choices []models.Decision) (models.Decision, error) {
	p.Questions = append(p.Questions, Question{Text: question, Choices: choices})
	if p.Err != nil {
		return models.Decision{}, p.Err
	}
	if len(p.Answers) == 0 {
		return models.Decision{}, errors.New("unexpected prompt: " + question)
	}
	answer := p.Answers[0]
	p.Answers = p.Answers[1:]
	return answer, nil
}

func (p *ScriptedPrompter) Select(ctx context.Context, question string, labels []string) (int, error) {
	p.Questions = append(p.Questions, Question{Text: question})
	if p.Err != nil {
		return 0, p.Err
	}
	if len(p.Picks) == 0 {
		return 0, errors.New("unexpected selection: " + question)
	}
	pick := p.Picks[0]
	p.Picks = p.Picks[1:]
	return pick, nil
}

func (p *ScriptedPrompter) Input(ctx context.Context, question string, validate func(string) error) (string, error) {
	p.Questions = append(p.Questions, Question{Text: question})
	if p.Err != nil {
		return "", p.Err
	}
	if len(p.Inputs) == 0 {
		return "", errors.New("unexpected input: " + question)
	}
	value := p.Inputs[0]
	p.Inputs = p.Inputs[1:]
	if validate != nil {
		if err := validate(value); err != nil {
			return "", err
		}
	}
	return value, nil
}

// PlayerData builds a minimal PlayerData.dat document with one player.
func PlayerData(favorites ...string) string {
	quoted := make([]string, len(favorites))
	for i, f := range favorites {
		quoted[i] = fmt.Sprintf("%q", f)
	}
	return fmt.Sprintf(`{"version":"2.0.26","localPlayers":[{"playerId":"76561198000000000","playerName":"tester","favoritesLevelIds":[%s],"shouldShowTutorialPrompt":false}],"guestPlayers":[]}`,
		strings.Join(quoted, ","))
}

// Playlist builds a minimal .bplist document.
func Playlist(title string, hashes ...string) string {
	songs := make([]string, len(hashes))
	for i, h := range hashes {
		songs[i] = fmt.Sprintf(`{"hash":%q,"songName":"song %d"}`, h, i+1)
	}
	return fmt.Sprintf(`{"playlistTitle":%q,"playlistAuthor":"tester","songs":[%s]}`, title, strings.Join(songs, ","))
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites int, target io.Writer) *LimitedWriter {
	return &LimitedWriter{maxWrites: maxWrites, target: target}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}

func AssertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		t.Errorf("Directory does not exist: %s", path)
		return
	}
	if !info.IsDir() {
		t.Errorf("Path is not a directory: %s", path)
	}
}
