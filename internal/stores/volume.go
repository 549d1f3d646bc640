package stores

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"

	"github.com/desertthunder/qsync/internal/device"
	"github.com/desertthunder/qsync/internal/shared"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
)

// Volume is the byte-level file access of one side.
type Volume interface {
	// ReadFile fails with [shared.ErrNotFound] when name is absent and [shared.ErrIO] otherwise.
	ReadFile(ctx context.Context, name string) ([]byte, error)
	// WriteFile replaces name atomically: either all of data lands or the old file remains.
	WriteFile(ctx context.Context, name string, data []byte) error
	// ReadDir lists entry names of dir in lexical order. A missing dir lists as empty.
	ReadDir(ctx context.Context, dir string) ([]string, error)
	// Remove deletes name; removing a missing file succeeds.
	Remove(ctx context.Context, name string) error
	// Join builds a path in the volume's syntax.
	Join(elem ...string) string
}

// LocalVolume is a [Volume] backed by a go-billy filesystem.
type LocalVolume struct {
	fs billy.Filesystem
}

// NewLocalVolume wraps fs.
func NewLocalVolume(fs billy.Filesystem) *LocalVolume {
	return &LocalVolume{fs: fs}
}

// NewOSVolume opens a [LocalVolume] rooted at dir on the host filesystem.
func NewOSVolume(dir string) *LocalVolume {
	return NewLocalVolume(osfs.New(dir))
}

// ReadFile implements [Volume].
func (v *LocalVolume) ReadFile(_ context.Context, name string) ([]byte, error) {
	data, err := util.ReadFile(v.fs, name)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", shared.ErrNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", shared.ErrIO, name, err)
	}
	return data, nil
}

// WriteFile implements [Volume] with a temp file in the target directory renamed over name.
func (v *LocalVolume) WriteFile(_ context.Context, name string, data []byte) error {
	dir := filepath.Dir(name)
	if dir != "." {
		if err := v.fs.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("%w: mkdir %s: %w", shared.ErrIO, dir, err)
		}
	}

	tmp, err := util.TempFile(v.fs, dir, ".qsync-")
	if err != nil {
		return fmt.Errorf("%w: create temp for %s: %w", shared.ErrIO, name, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		v.fs.Remove(tmpName)
		return fmt.Errorf("%w: write %s: %w", shared.ErrIO, name, err)
	}
	if err := tmp.Close(); err != nil {
		v.fs.Remove(tmpName)
		return fmt.Errorf("%w: write %s: %w", shared.ErrIO, name, err)
	}
	if err := v.fs.Rename(tmpName, name); err != nil {
		v.fs.Remove(tmpName)
		return fmt.Errorf("%w: replace %s: %w", shared.ErrIO, name, err)
	}
	return nil
}

// ReadDir implements [Volume].
func (v *LocalVolume) ReadDir(_ context.Context, dir string) ([]string, error) {
	infos, err := v.fs.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: list %s: %w", shared.ErrIO, dir, err)
	}

	names := make([]string, 0, len(infos))
	for _, info := range infos {
		if info.IsDir() {
			continue
		}
		names = append(names, info.Name())
	}
	sort.Strings(names)
	return names, nil
}

// Remove implements [Volume].
func (v *LocalVolume) Remove(_ context.Context, name string) error {
	err := v.fs.Remove(name)
	if err == nil || errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("%w: remove %s: %w", shared.ErrIO, name, err)
}

// Join implements [Volume].
func (v *LocalVolume) Join(elem ...string) string {
	return v.fs.Join(elem...)
}

// RemoteVolume is a [Volume] reached through a device transport.
type RemoteVolume struct {
	t device.Transport
}

// NewRemoteVolume wraps t. The volume does not own t and never closes it.
func NewRemoteVolume(t device.Transport) *RemoteVolume {
	return &RemoteVolume{t: t}
}

// ReadFile implements [Volume].
func (v *RemoteVolume) ReadFile(ctx context.Context, name string) ([]byte, error) {
	data, err := v.t.Pull(ctx, name)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) || errors.Is(err, shared.ErrIO) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: pull %s: %w", shared.ErrIO, name, err)
	}
	return data, nil
}

// WriteFile implements [Volume]; the transport's push is staged and moved into place.
func (v *RemoteVolume) WriteFile(ctx context.Context, name string, data []byte) error {
	if err := v.t.Push(ctx, data, name); err != nil {
		if errors.Is(err, shared.ErrIO) {
			return err
		}
		return fmt.Errorf("%w: push %s: %w", shared.ErrIO, name, err)
	}
	return nil
}

// ReadDir implements [Volume].
func (v *RemoteVolume) ReadDir(ctx context.Context, dir string) ([]string, error) {
	names, err := v.t.List(ctx, dir)
	if err != nil {
		if errors.Is(err, shared.ErrIO) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: list %s: %w", shared.ErrIO, dir, err)
	}
	sorted := append([]string(nil), names...)
	sort.Strings(sorted)
	return sorted, nil
}

// Remove implements [Volume].
func (v *RemoteVolume) Remove(ctx context.Context, name string) error {
	if err := v.t.Remove(ctx, name); err != nil {
		if errors.Is(err, shared.ErrIO) {
			return err
		}
		return fmt.Errorf("%w: remove %s: %w", shared.ErrIO, name, err)
	}
	return nil
}

// Join implements [Volume].
func (v *RemoteVolume) Join(elem ...string) string {
	return path.Join(elem...)
}
