package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/qsync/internal/models"
	"github.com/desertthunder/qsync/internal/shared"
)

const snapshotColumns = "id, sequence, session_id, side, kind, name, content, created_at"

// SnapshotRepository stores document snapshots.
type SnapshotRepository struct {
	db *sql.DB
}

// NewSnapshotRepository creates a new SnapshotRepository with the given database connection
func NewSnapshotRepository(db *sql.DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// Create inserts a snapshot with generated ID and sequence
func (r *SnapshotRepository) Create(s *models.Snapshot) error {
	if err := s.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	sequence, err := NextSequence(r.db, "snapshots")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	s.ID = shared.GenerateID()
	s.Sequence = sequence
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO snapshots (id, sequence, session_id, side, kind, name, content, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		s.ID,
		s.Sequence,
		nullString(s.SessionID),
		s.Side.String(),
		string(s.Kind),
		s.Name,
		s.Content,
		s.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert snapshot: %w", err)
	}

	return nil
}

// Get retrieves a snapshot by ID
func (r *SnapshotRepository) Get(id string) (*models.Snapshot, error) {
	query := "SELECT " + snapshotColumns + " FROM snapshots WHERE id = ?"
	return r.scanOne(r.db.QueryRow(query, id), id)
}

// GetBySequence retrieves a snapshot by its sequence number
func (r *SnapshotRepository) GetBySequence(sequence int) (*models.Snapshot, error) {
	query := "SELECT " + snapshotColumns + " FROM snapshots WHERE sequence = ?"
	return r.scanOne(r.db.QueryRow(query, sequence), fmt.Sprintf("#%d", sequence))
}

// List retrieves the most recent snapshots, newest first. A limit of zero returns all.
func (r *SnapshotRepository) List(limit int) ([]*models.Snapshot, error) {
	query := "SELECT " + snapshotColumns + " FROM snapshots ORDER BY sequence DESC"
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	return r.query(query, args...)
}

// ListBySession retrieves the snapshots taken during one session, oldest first
func (r *SnapshotRepository) ListBySession(sessionID string) ([]*models.Snapshot, error) {
	query := "SELECT " + snapshotColumns + " FROM snapshots WHERE session_id = ? ORDER BY sequence ASC"
	return r.query(query, sessionID)
}

// ForSession returns a snapshot hook that tags every snapshot with sessionID.
func (r *SnapshotRepository) ForSession(sessionID string) *SessionSnapshotter {
	return &SessionSnapshotter{repo: r, sessionID: sessionID}
}

func (r *SnapshotRepository) query(query string, args ...any) ([]*models.Snapshot, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	snapshots := []*models.Snapshot{}
	for rows.Next() {
		s, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return snapshots, nil
}

func (r *SnapshotRepository) scanOne(row *sql.Row, ref string) (*models.Snapshot, error) {
	s, err := scanSnapshot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", shared.ErrSnapshotMissing, ref)
	}
	return s, err
}

func scanSnapshot(row scanner) (*models.Snapshot, error) {
	var (
		s         models.Snapshot
		sessionID sql.NullString
		side      string
		kind      string
	)

	err := row.Scan(&s.ID, &s.Sequence, &sessionID, &side, &kind, &s.Name, &s.Content, &s.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan snapshot: %w", err)
	}

	if s.Side, err = models.ParseSide(side); err != nil {
		return nil, fmt.Errorf("failed to scan snapshot: %w", err)
	}
	s.SessionID = sessionID.String
	s.Kind = models.SnapshotKind(kind)
	return &s, nil
}

// SessionSnapshotter records snapshots on behalf of one sync session.
type SessionSnapshotter struct {
	repo      *SnapshotRepository
	sessionID string
}

// Snapshot stores a copy of content taken from name on side.
func (s *SessionSnapshotter) Snapshot(_ context.Context, side models.Side, kind models.SnapshotKind, name string, content []byte) error {
	return s.repo.Create(&models.Snapshot{
		SessionID: s.sessionID,
		Side:      side,
		Kind:      kind,
		Name:      name,
		Content:   content,
	})
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
