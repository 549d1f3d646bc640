package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/qsync/internal/models"
	"github.com/desertthunder/qsync/internal/shared"
)

const sessionColumns = "id, sequence, device, started_at, finished_at, status, summary, error"

// SessionRepository records sync sessions.
type SessionRepository struct {
	db *sql.DB
}

// NewSessionRepository creates a new SessionRepository with the given database connection
func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Start inserts a running session for device
func (r *SessionRepository) Start(device string) (*models.Session, error) {
	sequence, err := NextSequence(r.db, "sessions")
	if err != nil {
		return nil, fmt.Errorf("failed to generate sequence: %w", err)
	}

	s := &models.Session{
		ID:        shared.GenerateID(),
		Sequence:  sequence,
		Device:    device,
		StartedAt: time.Now(),
		Status:    models.SessionRunning,
	}

	query := `
		INSERT INTO sessions (id, sequence, device, started_at, status)
		VALUES (?, ?, ?, ?, ?)
	`

	if _, err := r.db.Exec(query, s.ID, s.Sequence, s.Device, s.StartedAt, string(s.Status)); err != nil {
		return nil, fmt.Errorf("failed to insert session: %w", err)
	}

	return s, nil
}

// Finish stores the outcome of a running session
func (r *SessionRepository) Finish(s *models.Session, status models.SessionStatus, summary string, cause error) error {
	if status == models.SessionRunning {
		return fmt.Errorf("%w: cannot finish a session as %s", shared.ErrInvalidArgument, status)
	}

	now := time.Now()
	message := ""
	if cause != nil {
		message = cause.Error()
	}

	query := `
		UPDATE sessions
		SET finished_at = ?, status = ?, summary = ?, error = ?
		WHERE id = ? AND finished_at IS NULL
	`

	result, err := r.db.Exec(query, now, string(status), summary, message, s.ID)
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("session not found or already finished: %s", s.ID)
	}

	s.FinishedAt = &now
	s.Status = status
	s.Summary = summary
	s.Error = message
	return nil
}

// Get retrieves a session by ID
func (r *SessionRepository) Get(id string) (*models.Session, error) {
	query := "SELECT " + sessionColumns + " FROM sessions WHERE id = ?"

	s, err := scanSession(r.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("session not found: %s", id)
	}
	return s, err
}

// List retrieves the most recent sessions, newest first. A limit of zero returns all.
func (r *SessionRepository) List(limit int) ([]*models.Session, error) {
	query := "SELECT " + sessionColumns + " FROM sessions ORDER BY sequence DESC"
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	sessions := []*models.Session{}
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return sessions, nil
}

func scanSession(row scanner) (*models.Session, error) {
	var (
		s          models.Session
		finishedAt sql.NullTime
		status     string
	)

	err := row.Scan(&s.ID, &s.Sequence, &s.Device, &s.StartedAt, &finishedAt, &status, &s.Summary, &s.Error)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan session: %w", err)
	}

	if finishedAt.Valid {
		s.FinishedAt = &finishedAt.Time
	}
	s.Status = models.SessionStatus(status)
	return &s, nil
}
