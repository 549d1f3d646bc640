package tasks

import "github.com/desertthunder/qsync/internal/models"

// Divergence holds the items present on only one side of a category.
//
// OnlyA and OnlyB are subsequences of their inputs and keep input order.
type Divergence[T any] struct {
	OnlyA []T
	OnlyB []T
}

// Empty reports whether neither side holds anything the other lacks.
func (d Divergence[T]) Empty() bool {
	return len(d.OnlyA) == 0 && len(d.OnlyB) == 0
}

// Diff computes the one-sided differences of a and b by key.
//
// Runs in O(len(a)+len(b)). Repeated keys within one input are reported once.
func Diff[T any](a, b []T, key func(T) string) Divergence[T] {
	return Divergence[T]{
		OnlyA: subtract(a, b, key),
		OnlyB: subtract(b, a, key),
	}
}

func subtract[T any](from, other []T, key func(T) string) []T {
	index := make(map[string]struct{}, len(other))
	for _, item := range other {
		index[key(item)] = struct{}{}
	}

	out := []T{}
	seen := make(map[string]struct{})
	for _, item := range from {
		k := key(item)
		if _, ok := index[k]; ok {
			continue
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, item)
	}
	return out
}

// SideDivergence is a [Divergence] with A bound to [models.Local] and B to [models.Remote].
type SideDivergence[T any] struct {
	Divergence[T]
}

// Only returns the items held by side alone.
func (d SideDivergence[T]) Only(side models.Side) []T {
	if side == models.Remote {
		return d.OnlyB
	}
	return d.OnlyA
}

// DiffSides reconciles a local and a remote collection.
func DiffSides[T any](local, remote []T, key func(T) string) SideDivergence[T] {
	return SideDivergence[T]{Diff(local, remote, key)}
}

// FavoriteKey keys favorites by the level id itself.
func FavoriteKey(id string) string { return id }

// PlaylistKey keys playlists by title only; song lists are never compared.
func PlaylistKey(p models.PlaylistRecord) string { return p.Title }
