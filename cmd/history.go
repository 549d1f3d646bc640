package main

import (
	"context"
	"time"

	"github.com/desertthunder/qsync/internal/models"
	"github.com/desertthunder/qsync/internal/repositories"
	"github.com/desertthunder/qsync/internal/ui"
	"github.com/urfave/cli/v3"
)

type sessionView struct {
	ID         string     `json:"id"`
	Sequence   int        `json:"sequence"`
	Device     string     `json:"device"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Status     string     `json:"status"`
	Summary    string     `json:"summary,omitempty"`
	Error      string     `json:"error,omitempty"`
}

// History prints recorded sync sessions, newest first.
func (r *Runner) History(ctx context.Context, cmd *cli.Command) error {
	db, err := r.database()
	if err != nil {
		return err
	}

	sessions, err := repositories.NewSessionRepository(db).List(cmd.Int("limit"))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		views := make([]sessionView, len(sessions))
		for i, s := range sessions {
			views[i] = sessionView{
				ID:         s.ID,
				Sequence:   s.Sequence,
				Device:     s.Device,
				StartedAt:  s.StartedAt,
				FinishedAt: s.FinishedAt,
				Status:     string(s.Status),
				Summary:    s.Summary,
				Error:      s.Error,
			}
		}
		return r.writeJSON(views, true)
	}

	if len(sessions) == 0 {
		r.writePlain("%s\n", ui.Hint("No sync sessions recorded yet."))
		return nil
	}

	r.writePlainHeader("Sync history")
	for _, s := range sessions {
		r.writePlain("#%-4d %s  %-16s %s\n", s.Sequence, s.StartedAt.Local().Format(time.DateTime), s.Device, sessionStatus(s.Status))
		if s.Summary != "" {
			r.writePlain("      %s\n", s.Summary)
		}
		if s.Error != "" {
			r.writePlain("      %s\n", ui.Failure(s.Error))
		}
	}
	return nil
}

func sessionStatus(status models.SessionStatus) string {
	switch status {
	case models.SessionCompleted:
		return ui.Success(string(status))
	case models.SessionPartial, models.SessionRunning:
		return ui.Warning(string(status))
	default:
		return ui.Failure(string(status))
	}
}
