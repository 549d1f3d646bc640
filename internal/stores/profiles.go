package stores

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/qsync/internal/models"
	"github.com/desertthunder/qsync/internal/shared"
)

// Snapshotter keeps a copy of a document before it is overwritten or removed.
type Snapshotter interface {
	Snapshot(ctx context.Context, side models.Side, kind models.SnapshotKind, name string, content []byte) error
}

// ProfileStore reads and writes the player document of one side.
type ProfileStore struct {
	side   models.Side
	vol    Volume
	path   string
	backup Snapshotter
	logger *log.Logger

	doc *PlayerDocument
	raw []byte
}

// NewProfileStore creates a store for the player document at docPath on vol.
// backup may be nil.
func NewProfileStore(side models.Side, vol Volume, docPath string, backup Snapshotter, logger *log.Logger) *ProfileStore {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &ProfileStore{
		side:   side,
		vol:    vol,
		path:   docPath,
		backup: backup,
		logger: shared.WithLogger(logger, "side", side.String()),
	}
}

// Side returns the side the store reads from.
func (s *ProfileStore) Side() models.Side { return s.side }

// Path returns the player document location.
func (s *ProfileStore) Path() string { return s.path }

// ReadProfile reads the document and returns its first local player.
//
// Fails with [shared.ErrNotFound] when the document is absent, [shared.ErrParse] when it
// cannot be decoded and [shared.ErrNoPlayer] when it holds no players.
func (s *ProfileStore) ReadProfile(ctx context.Context) (*models.PlayerProfile, error) {
	raw, err := s.vol.ReadFile(ctx, s.path)
	if err != nil {
		return nil, fmt.Errorf("%s player data: %w", s.side.Label(), err)
	}

	doc, err := DecodePlayerData(raw)
	if err != nil {
		return nil, fmt.Errorf("%s player data: %w", s.side.Label(), err)
	}

	profile, err := doc.Profile()
	if err != nil {
		return nil, fmt.Errorf("%s player data: %w", s.side.Label(), err)
	}
	if doc.Players() > 1 {
		s.logger.Warn("multiple local players found, syncing the first", "players", doc.Players())
	}

	s.doc, s.raw = doc, raw
	s.logger.Debug("read player data", "favorites", len(profile.FavoriteIDs))
	return profile, nil
}

// WriteProfile stores profile's favorites into the document last read and persists it.
//
// The previous document bytes are snapshotted first; a failed snapshot aborts the write.
func (s *ProfileStore) WriteProfile(ctx context.Context, profile *models.PlayerProfile) error {
	if s.doc == nil {
		if _, err := s.ReadProfile(ctx); err != nil {
			return err
		}
	}

	if err := s.doc.SetFavorites(profile.FavoriteIDs); err != nil {
		return fmt.Errorf("%s player data: %w", s.side.Label(), err)
	}
	data, err := s.doc.Encode()
	if err != nil {
		return fmt.Errorf("%s player data: %w", s.side.Label(), err)
	}

	if s.backup != nil {
		if err := s.backup.Snapshot(ctx, s.side, models.SnapshotPlayerData, s.path, s.raw); err != nil {
			return fmt.Errorf("%w: snapshot %s player data: %w", shared.ErrIO, s.side.Label(), err)
		}
	}

	if err := s.vol.WriteFile(ctx, s.path, data); err != nil {
		return fmt.Errorf("%s player data: %w", s.side.Label(), err)
	}

	s.raw = data
	s.logger.Info("wrote player data", "favorites", len(profile.FavoriteIDs))
	return nil
}

// Restore overwrites the player document with content verbatim.
func (s *ProfileStore) Restore(ctx context.Context, content []byte) error {
	if _, err := DecodePlayerData(content); err != nil {
		return err
	}
	if err := s.vol.WriteFile(ctx, s.path, content); err != nil {
		return fmt.Errorf("%s player data: %w", s.side.Label(), err)
	}
	s.doc, s.raw = nil, nil
	return nil
}
