// package models defines the data model for headset/PC reconciliation
package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// Side names one of the two stores being reconciled.
type Side int

const (
	Local Side = iota
	Remote
)

// Sides lists both sides in a stable order.
var Sides = [2]Side{Local, Remote}

func (s Side) String() string {
	switch s {
	case Local:
		return "local"
	case Remote:
		return "remote"
	default:
		return fmt.Sprintf("side(%d)", int(s))
	}
}

// Label is the user-facing name of the side.
func (s Side) Label() string {
	switch s {
	case Local:
		return "PC"
	case Remote:
		return "Quest"
	default:
		return s.String()
	}
}

// Other returns the opposite side.
func (s Side) Other() Side {
	if s == Local {
		return Remote
	}
	return Local
}

// ParseSide converts a stored side name back into a [Side].
func ParseSide(name string) (Side, error) {
	switch name {
	case "local":
		return Local, nil
	case "remote":
		return Remote, nil
	default:
		return 0, fmt.Errorf("unknown side %q", name)
	}
}

// Action is what a [Decision] does with a divergent set.
type Action int

const (
	// AdoptInto copies the divergent items into the decision's side.
	AdoptInto Action = iota
	// RemoveFrom deletes the divergent items from the decision's side.
	RemoveFrom
)

func (a Action) String() string {
	switch a {
	case AdoptInto:
		return "adopt"
	case RemoveFrom:
		return "remove"
	default:
		return fmt.Sprintf("action(%d)", int(a))
	}
}

// Decision resolves one divergent set as a unit.
type Decision struct {
	Action Action
	Side   Side
}

// AdoptIntoSide builds a decision copying items into side.
func AdoptIntoSide(side Side) Decision { return Decision{Action: AdoptInto, Side: side} }

// RemoveFromSide builds a decision deleting items from side.
func RemoveFromSide(side Side) Decision { return Decision{Action: RemoveFrom, Side: side} }

func (d Decision) String() string {
	switch d.Action {
	case AdoptInto:
		return "Add to " + d.Side.Label()
	case RemoveFrom:
		return "Remove from " + d.Side.Label()
	default:
		return d.Action.String()
	}
}

// PlayerProfile is the first local player of a player document.
//
// FavoriteIDs preserves document order and never holds duplicates.
type PlayerProfile struct {
	PlayerID    string
	FavoriteIDs []string
}

// HasFavorite reports whether id is one of the profile's favorites.
func (p *PlayerProfile) HasFavorite(id string) bool {
	for _, f := range p.FavoriteIDs {
		if f == id {
			return true
		}
	}
	return false
}

// PlaylistRecord is one playlist document.
//
// Title is the identity across sides. Document holds the bytes as read and is what gets
// copied to the other side; Songs is never inspected beyond counting.
type PlaylistRecord struct {
	FileName string
	Title    string
	Author   string
	Songs    []json.RawMessage
	Document []byte
}

// SnapshotKind says what a [Snapshot] holds.
type SnapshotKind string

const (
	SnapshotPlayerData SnapshotKind = "player_data"
	SnapshotPlaylist   SnapshotKind = "playlist"
)

// Snapshot is a copy of a document taken just before a sync changed it.
type Snapshot struct {
	ID        string
	Sequence  int
	SessionID string
	Side      Side
	Kind      SnapshotKind
	Name      string
	Content   []byte
	CreatedAt time.Time
}

// Validate checks required fields.
func (s *Snapshot) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("snapshot name is required")
	}
	if s.Kind != SnapshotPlayerData && s.Kind != SnapshotPlaylist {
		return fmt.Errorf("invalid snapshot kind %q", s.Kind)
	}
	if s.Content == nil {
		return fmt.Errorf("snapshot content is required")
	}
	return nil
}

// SessionStatus is the outcome of a sync run.
type SessionStatus string

const (
	SessionRunning   SessionStatus = "running"
	SessionCompleted SessionStatus = "completed"
	SessionPartial   SessionStatus = "partial"
	SessionFailed    SessionStatus = "failed"
)

// Session records one sync run.
type Session struct {
	ID         string
	Sequence   int
	Device     string
	StartedAt  time.Time
	FinishedAt *time.Time
	Status     SessionStatus
	Summary    string
	Error      string
}
