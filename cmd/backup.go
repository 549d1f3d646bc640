package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/qsync/internal/device"
	"github.com/desertthunder/qsync/internal/models"
	"github.com/desertthunder/qsync/internal/repositories"
	"github.com/desertthunder/qsync/internal/shared"
	"github.com/desertthunder/qsync/internal/stores"
	"github.com/desertthunder/qsync/internal/ui"
	"github.com/urfave/cli/v3"
)

type snapshotView struct {
	ID        string    `json:"id"`
	Sequence  int       `json:"sequence"`
	SessionID string    `json:"session_id,omitempty"`
	Side      string    `json:"side"`
	Kind      string    `json:"kind"`
	Name      string    `json:"name"`
	Size      int       `json:"size"`
	CreatedAt time.Time `json:"created_at"`
}

// BackupList prints stored snapshots, newest first.
func (r *Runner) BackupList(ctx context.Context, cmd *cli.Command) error {
	db, err := r.database()
	if err != nil {
		return err
	}
	repo := repositories.NewSnapshotRepository(db)

	var snapshots []*models.Snapshot
	if id := cmd.String("session"); id != "" {
		snapshots, err = repo.ListBySession(id)
	} else {
		snapshots, err = repo.List(cmd.Int("limit"))
	}
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		views := make([]snapshotView, len(snapshots))
		for i, s := range snapshots {
			views[i] = snapshotView{
				ID:        s.ID,
				Sequence:  s.Sequence,
				SessionID: s.SessionID,
				Side:      s.Side.String(),
				Kind:      string(s.Kind),
				Name:      s.Name,
				Size:      len(s.Content),
				CreatedAt: s.CreatedAt,
			}
		}
		return r.writeJSON(views, true)
	}

	if len(snapshots) == 0 {
		r.writePlain("%s\n", ui.Hint("No snapshots yet. They are taken whenever sync changes a document."))
		return nil
	}

	r.writePlainHeader("Snapshots")
	for _, s := range snapshots {
		r.writePlain("#%-4d %-6s %-12s %-40s %s\n",
			s.Sequence, s.Side.Label(), s.Kind, s.Name, s.CreatedAt.Local().Format(time.DateTime))
	}
	r.writePlainln("%s", ui.Hint("Restore one with 'qsync backup restore #<sequence>'"))
	return nil
}

// BackupRestore writes a snapshot back to the side it was taken from. Quest
// snapshots need a connected headset.
func (r *Runner) BackupRestore(ctx context.Context, cmd *cli.Command) error {
	ref := strings.TrimSpace(cmd.StringArg("snapshot"))
	if ref == "" {
		return fmt.Errorf("%w: snapshot id or #sequence", shared.ErrMissingArgument)
	}

	db, err := r.database()
	if err != nil {
		return err
	}

	snapshot, err := findSnapshot(repositories.NewSnapshotRepository(db), ref)
	if err != nil {
		return err
	}

	set, release, err := r.openSide(ctx, snapshot.Side, cmd.String("serial"))
	if err != nil {
		return err
	}
	defer release()

	switch snapshot.Kind {
	case models.SnapshotPlayerData:
		err = set.Profiles.Restore(ctx, snapshot.Content)
	case models.SnapshotPlaylist:
		err = set.Playlists.Restore(ctx, snapshot.Name, snapshot.Content)
	default:
		err = fmt.Errorf("%w: snapshot kind %q", shared.ErrInvalidArgument, snapshot.Kind)
	}
	if err != nil {
		return err
	}

	r.logger.Info("restored snapshot", "id", snapshot.ID, "side", snapshot.Side, "name", snapshot.Name)
	r.writePlain("%s\n", ui.Success(fmt.Sprintf("✓ restored %s on %s", snapshot.Name, snapshot.Side.Label())))
	return nil
}

func findSnapshot(repo *repositories.SnapshotRepository, ref string) (*models.Snapshot, error) {
	if seq, ok := strings.CutPrefix(ref, "#"); ok {
		n, err := strconv.Atoi(seq)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not a sequence number", shared.ErrInvalidArgument, ref)
		}
		return repo.GetBySequence(n)
	}
	return repo.Get(ref)
}

// openSide builds the stores of side without backups. For the Quest it opens a
// transport session that release closes.
func (r *Runner) openSide(ctx context.Context, side models.Side, serial string) (*stores.Set, func(), error) {
	if side == models.Local {
		if err := r.ensurePaths(ctx); err != nil {
			return nil, nil, err
		}
		return stores.NewLocalSet(r.config.PC.ConfigPath, r.config.PC.GamePath, nil, r.logger), func() {}, nil
	}

	dev, err := r.chooseDevice(ctx, serial)
	if err != nil {
		return nil, nil, err
	}
	if err := device.CheckReady(dev); err != nil {
		return nil, nil, err
	}

	t, err := r.deviceManager().Open(ctx, dev)
	if err != nil {
		return nil, nil, err
	}
	release := func() {
		if err := t.Close(); err != nil {
			r.logger.Warn("failed to close device session", "error", err)
		}
	}
	set := stores.NewRemoteSet(t, r.config.Quest.PlayerDataPath, r.config.Quest.PlaylistsPath, nil, r.logger)
	return set, release, nil
}
