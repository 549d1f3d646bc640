package tasks

import (
	"fmt"
	"strings"

	"github.com/desertthunder/qsync/internal/models"
	"github.com/desertthunder/qsync/internal/shared"
)

// ProgressUpdate represents a progress event during a sync session.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Session phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Phase is a state of the session state machine.
//
// Sessions move through Init, FavoritesSync, PlaylistsSync and Closed in that order.
type Phase int

const (
	PhaseInit Phase = iota
	PhaseFavorites
	PhasePlaylists
	PhaseClosed
)

func (p Phase) String() string {
	switch p {
	case PhaseInit:
		return "init"
	case PhaseFavorites:
		return "favorites_sync"
	case PhasePlaylists:
		return "playlists_sync"
	case PhaseClosed:
		return "closed"
	default:
		return ""
	}
}

func phaseUpdate(p Phase, message string) ProgressUpdate {
	return ProgressUpdate{Phase: p, Message: message}
}

func readUpdate(p Phase, step int, side models.Side, noun string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   p,
		Step:    step,
		Total:   2,
		Message: fmt.Sprintf("Reading %s %ss...", side.Label(), noun),
	}
}

func divergenceUpdate(p Phase, holder models.Side, noun string, items []string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   p,
		Message: fmt.Sprintf("Found %s on %s but not on %s", shared.Pluralize(len(items), noun), holder.Label(), holder.Other().Label()),
		Data:    items,
	}
}

func inSyncUpdate(p Phase, noun string) ProgressUpdate {
	return ProgressUpdate{Phase: p, Message: fmt.Sprintf("%ss are in sync", capitalize(noun))}
}

func skippedUpdate(p Phase, skipped []*shared.EntryError) ProgressUpdate {
	names := make([]string, len(skipped))
	for i, s := range skipped {
		names[i] = s.Name
	}
	return ProgressUpdate{
		Phase:   p,
		Message: fmt.Sprintf("Skipped %s: %s", shared.Pluralize(len(skipped), "unreadable file"), strings.Join(names, ", ")),
		Data:    skipped,
	}
}

func appliedUpdate(p Phase, step, total int, d models.Decision, count int, noun string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   p,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s: %s", step, total, d, shared.Pluralize(count, noun)),
	}
}

func categoryFailedUpdate(p Phase, err error) ProgressUpdate {
	return ProgressUpdate{Phase: p, Message: fmt.Sprintf("✗ %v", err), Data: err}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
