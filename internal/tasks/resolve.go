package tasks

import (
	"context"
	"fmt"
	"slices"

	"github.com/desertthunder/qsync/internal/models"
	"github.com/desertthunder/qsync/internal/shared"
	"github.com/desertthunder/qsync/internal/stores"
)

// Prompter asks the user to pick one of a fixed set of decisions.
type Prompter interface {
	Decide(ctx context.Context, question string, choices []models.Decision) (models.Decision, error)
}

// Resolution is the decision taken for the items holder has and the other side lacks.
type Resolution[T any] struct {
	Holder   models.Side
	Items    []T
	Decision models.Decision
}

// Choices returns the only two options offered for items held by holder alone:
// copy them to the other side or delete them from holder.
func Choices(holder models.Side) []models.Decision {
	return []models.Decision{
		models.AdoptIntoSide(holder.Other()),
		models.RemoveFromSide(holder),
	}
}

// Resolve asks once for the whole divergent set held by holder.
//
// An answer outside [Choices] fails with [shared.ErrInvalidInput].
func Resolve(ctx context.Context, p Prompter, question string, holder models.Side) (models.Decision, error) {
	choices := Choices(holder)
	d, err := p.Decide(ctx, question, choices)
	if err != nil {
		return models.Decision{}, err
	}
	if !slices.Contains(choices, d) {
		return models.Decision{}, fmt.Errorf("%w: %q is not an option for items on %s", shared.ErrInvalidInput, d, holder.Label())
	}
	return d, nil
}

// MergeFavorites returns the new favorite list of every side a resolution changes.
//
// A changed side ends up with its current ids plus the ids adopted into it minus the ids
// removed from it, in order and without duplicates. Sides no resolution touches are absent
// from the result.
func MergeFavorites(current map[models.Side][]string, resolutions []Resolution[string]) map[models.Side][]string {
	adopted := make(map[models.Side][]string)
	removed := make(map[models.Side]map[string]struct{})

	for _, r := range resolutions {
		side := r.Decision.Side
		switch r.Decision.Action {
		case models.AdoptInto:
			adopted[side] = append(adopted[side], r.Items...)
		case models.RemoveFrom:
			if removed[side] == nil {
				removed[side] = make(map[string]struct{}, len(r.Items))
			}
			for _, id := range r.Items {
				removed[side][id] = struct{}{}
			}
		}
	}

	out := make(map[models.Side][]string)
	for _, side := range models.Sides {
		if len(adopted[side]) == 0 && len(removed[side]) == 0 {
			continue
		}
		merged := stores.Dedupe(append(slices.Clone(current[side]), adopted[side]...))
		next := make([]string, 0, len(merged))
		for _, id := range merged {
			if _, gone := removed[side][id]; !gone {
				next = append(next, id)
			}
		}
		out[side] = next
	}
	return out
}

func question(noun string, holder models.Side, count int) string {
	return fmt.Sprintf("Found %s on %s but not on %s. What would you like to do with these %ss?",
		shared.Pluralize(count, noun), holder.Label(), holder.Other().Label(), noun)
}
