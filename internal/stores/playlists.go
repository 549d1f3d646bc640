package stores

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/qsync/internal/models"
	"github.com/desertthunder/qsync/internal/shared"
)

// PlaylistExt is the extension given to playlist documents the store creates.
const PlaylistExt = ".bplist"

var playlistExts = []string{".bplist", ".json"}

// Listing is the result of enumerating a playlist directory.
type Listing struct {
	Playlists []models.PlaylistRecord
	// Skipped holds one [shared.EntryError] per entry that could not be read or decoded.
	Skipped []*shared.EntryError
}

// PlaylistStore lists, adds and removes playlist documents in one directory of a side.
type PlaylistStore struct {
	side   models.Side
	vol    Volume
	dir    string
	backup Snapshotter
	logger *log.Logger

	// byTitle maps a title to the file name holding it, from the last listing.
	byTitle map[string]string
	// duplicates holds the other files carrying an indexed title.
	duplicates map[string][]string
	// reserved holds file names the last listing skipped; they are never overwritten.
	reserved map[string]bool
}

// NewPlaylistStore creates a store over dir on vol. backup may be nil.
func NewPlaylistStore(side models.Side, vol Volume, dir string, backup Snapshotter, logger *log.Logger) *PlaylistStore {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &PlaylistStore{
		side:   side,
		vol:    vol,
		dir:    dir,
		backup: backup,
		logger: shared.WithLogger(logger, "side", side.String()),
	}
}

// Side returns the side the store reads from.
func (s *PlaylistStore) Side() models.Side { return s.side }

// Dir returns the playlist directory.
func (s *PlaylistStore) Dir() string { return s.dir }

// List enumerates and decodes every playlist document.
//
// An entry that fails to read or decode is recorded in [Listing.Skipped] and the remaining
// entries are still listed. Only a failure to enumerate the directory is returned as an error.
func (s *PlaylistStore) List(ctx context.Context) (*Listing, error) {
	names, err := s.vol.ReadDir(ctx, s.dir)
	if err != nil {
		return nil, fmt.Errorf("%s playlists: %w", s.side.Label(), err)
	}

	listing := &Listing{Playlists: []models.PlaylistRecord{}}
	byTitle := make(map[string]string, len(names))
	duplicates := make(map[string][]string)
	reserved := make(map[string]bool)

	for _, name := range names {
		if !isPlaylistFile(name) {
			continue
		}

		data, err := s.vol.ReadFile(ctx, s.vol.Join(s.dir, name))
		if err != nil {
			listing.Skipped = append(listing.Skipped, &shared.EntryError{Name: name, Err: err})
			continue
		}

		rec, err := DecodePlaylist(name, data)
		if err != nil {
			listing.Skipped = append(listing.Skipped, &shared.EntryError{Name: name, Err: err})
			continue
		}

		if _, dup := byTitle[rec.Title]; dup {
			reserved[strings.ToLower(name)] = true
			duplicates[rec.Title] = append(duplicates[rec.Title], name)
			s.logger.Warn("duplicate playlist title, using the first", "title", rec.Title, "file", name)
			continue
		}
		byTitle[rec.Title] = name
		listing.Playlists = append(listing.Playlists, rec)
	}

	for _, skipped := range listing.Skipped {
		reserved[strings.ToLower(skipped.Name)] = true
		s.logger.Warn("skipping playlist", "file", skipped.Name, "error", skipped.Err)
	}

	s.byTitle, s.duplicates, s.reserved = byTitle, duplicates, reserved
	return listing, nil
}

// Add persists rec as a new document on this side.
//
// The file keeps rec's file name, or one derived from the title. Any other file on this
// side holding the same title is replaced.
func (s *PlaylistStore) Add(ctx context.Context, rec models.PlaylistRecord) error {
	data, err := EncodePlaylist(rec)
	if err != nil {
		return err
	}

	name := rec.FileName
	if name == "" || !isPlaylistFile(name) {
		name = shared.SafeFileName(rec.Title, PlaylistExt)
	}

	if err := s.ensureIndex(ctx); err != nil {
		return err
	}
	name = s.freeName(name, rec.Title)

	if err := s.vol.WriteFile(ctx, s.vol.Join(s.dir, name), data); err != nil {
		return fmt.Errorf("%s playlist %q: %w", s.side.Label(), rec.Title, err)
	}

	if previous, ok := s.byTitle[rec.Title]; ok && previous != name {
		if err := s.removeFile(ctx, rec.Title, previous); err != nil {
			return err
		}
	}
	if err := s.removeDuplicates(ctx, rec.Title); err != nil {
		return err
	}
	s.byTitle[rec.Title] = name

	s.logger.Info("added playlist", "title", rec.Title, "file", name)
	return nil
}

// Remove deletes the playlist titled title, including duplicate files carrying the same
// title. Removing an absent playlist succeeds.
func (s *PlaylistStore) Remove(ctx context.Context, title string) error {
	if err := s.ensureIndex(ctx); err != nil {
		return err
	}

	name, ok := s.byTitle[title]
	if !ok {
		return nil
	}
	if err := s.removeDuplicates(ctx, title); err != nil {
		return err
	}
	if err := s.removeFile(ctx, title, name); err != nil {
		return err
	}
	delete(s.byTitle, title)

	s.logger.Info("removed playlist", "title", title, "file", name)
	return nil
}

func (s *PlaylistStore) removeDuplicates(ctx context.Context, title string) error {
	for len(s.duplicates[title]) > 0 {
		name := s.duplicates[title][0]
		if err := s.removeFile(ctx, title, name); err != nil {
			return err
		}
		s.duplicates[title] = s.duplicates[title][1:]
		delete(s.reserved, strings.ToLower(name))
		s.logger.Info("removed duplicate playlist", "title", title, "file", name)
	}
	delete(s.duplicates, title)
	return nil
}

func (s *PlaylistStore) removeFile(ctx context.Context, title, name string) error {
	p := s.vol.Join(s.dir, name)

	if s.backup != nil {
		data, err := s.vol.ReadFile(ctx, p)
		switch {
		case errors.Is(err, shared.ErrNotFound):
			return nil
		case err != nil:
			return fmt.Errorf("%s playlist %q: %w", s.side.Label(), title, err)
		}
		if err := s.backup.Snapshot(ctx, s.side, models.SnapshotPlaylist, name, data); err != nil {
			return fmt.Errorf("%w: snapshot %s playlist %q: %w", shared.ErrIO, s.side.Label(), title, err)
		}
	}

	if err := s.vol.Remove(ctx, p); err != nil {
		return fmt.Errorf("%s playlist %q: %w", s.side.Label(), title, err)
	}
	return nil
}

// Restore writes a snapshotted document back under its file name.
func (s *PlaylistStore) Restore(ctx context.Context, name string, content []byte) error {
	if _, err := DecodePlaylist(name, content); err != nil {
		return err
	}
	if err := s.vol.WriteFile(ctx, s.vol.Join(s.dir, name), content); err != nil {
		return fmt.Errorf("%s playlist %s: %w", s.side.Label(), name, err)
	}
	s.byTitle = nil
	return nil
}

// freeName returns name, or a numbered variant of it when a different title already
// occupies that file.
func (s *PlaylistStore) freeName(name, title string) string {
	taken := make(map[string]string, len(s.byTitle))
	for t, n := range s.byTitle {
		taken[strings.ToLower(n)] = t
	}

	candidate := name
	ext := path.Ext(name)
	base := strings.TrimSuffix(name, ext)
	for i := 2; ; i++ {
		owner, used := taken[strings.ToLower(candidate)]
		if (!used || owner == title) && !s.reserved[strings.ToLower(candidate)] {
			return candidate
		}
		candidate = fmt.Sprintf("%s_%d%s", base, i, ext)
	}
}

func (s *PlaylistStore) ensureIndex(ctx context.Context) error {
	if s.byTitle != nil {
		return nil
	}
	_, err := s.List(ctx)
	return err
}

func isPlaylistFile(name string) bool {
	lower := strings.ToLower(name)
	if strings.HasPrefix(lower, ".") {
		return false
	}
	for _, ext := range playlistExts {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}
