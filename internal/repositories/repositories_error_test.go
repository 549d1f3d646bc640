package repositories

import (
	"errors"
	"testing"

	"github.com/desertthunder/qsync/internal/models"
	"github.com/desertthunder/qsync/internal/shared"
)

func TestSnapshotRepositoryErrors(t *testing.T) {
	t.Run("Create", func(t *testing.T) {
		tc := []struct {
			name     string
			snapshot *models.Snapshot
		}{
			{name: "MissingName", snapshot: &models.Snapshot{Kind: models.SnapshotPlaylist, Content: []byte("{}")}},
			{name: "InvalidKind", snapshot: &models.Snapshot{Kind: "favorites", Name: "x", Content: []byte("{}")}},
			{name: "MissingContent", snapshot: &models.Snapshot{Kind: models.SnapshotPlaylist, Name: "x"}},
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				db := setupTestDB(t)
				defer db.Close()

				if err := NewSnapshotRepository(db).Create(tt.snapshot); err == nil {
					t.Fatal("expected validation error")
				}
			})
		}
	})

	t.Run("Get", func(t *testing.T) {
		t.Run("NotFound", func(t *testing.T) {
			db := setupTestDB(t)
			defer db.Close()

			repo := NewSnapshotRepository(db)
			if _, err := repo.Get("nonexistent-id"); !errors.Is(err, shared.ErrSnapshotMissing) {
				t.Fatalf("expected ErrSnapshotMissing, got %v", err)
			}
			if _, err := repo.GetBySequence(99); !errors.Is(err, shared.ErrSnapshotMissing) {
				t.Fatalf("expected ErrSnapshotMissing, got %v", err)
			}
		})
	})

	t.Run("ClosedDatabase", func(t *testing.T) {
		db := setupTestDB(t)
		db.Close()

		if _, err := NewSnapshotRepository(db).List(0); err == nil {
			t.Fatal("expected error listing from a closed database")
		}
	})
}

func TestSessionRepositoryErrors(t *testing.T) {
	t.Run("Finish", func(t *testing.T) {
		t.Run("AsRunning", func(t *testing.T) {
			db := setupTestDB(t)
			defer db.Close()

			repo := NewSessionRepository(db)
			s, _ := repo.Start("serial")
			if err := repo.Finish(s, models.SessionRunning, "", nil); !errors.Is(err, shared.ErrInvalidArgument) {
				t.Fatalf("expected ErrInvalidArgument, got %v", err)
			}
		})

		t.Run("Twice", func(t *testing.T) {
			db := setupTestDB(t)
			defer db.Close()

			repo := NewSessionRepository(db)
			s, _ := repo.Start("serial")
			if err := repo.Finish(s, models.SessionCompleted, "", nil); err != nil {
				t.Fatalf("failed to finish session: %v", err)
			}
			if err := repo.Finish(s, models.SessionFailed, "", nil); err == nil {
				t.Fatal("expected error finishing a session twice")
			}
		})

		t.Run("NotFound", func(t *testing.T) {
			db := setupTestDB(t)
			defer db.Close()

			if err := NewSessionRepository(db).Finish(&models.Session{ID: "missing"}, models.SessionCompleted, "", nil); err == nil {
				t.Fatal("expected error finishing an unknown session")
			}
		})
	})

	t.Run("Get", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		if _, err := NewSessionRepository(db).Get("missing"); err == nil {
			t.Fatal("expected error getting an unknown session")
		}
	})
}
