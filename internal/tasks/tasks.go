// package tasks reconciles favorites and playlists between the PC and a headset.
//
// The core abstraction is SyncEngine, which runs one session over both categories.
// Operations emit progress updates via channels for non-blocking status reporting to CLI/UI layers.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/qsync/internal/device"
	"github.com/desertthunder/qsync/internal/models"
	"github.com/desertthunder/qsync/internal/shared"
	"github.com/desertthunder/qsync/internal/stores"
)

// Category names one kind of synced data.
type Category string

const (
	Favorites Category = "favorites"
	Playlists Category = "playlists"
)

// Outcome is one resolved divergent set.
type Outcome struct {
	Holder   models.Side
	Items    []string
	Decision models.Decision
}

// CategoryReport describes what a session found and did for one category.
type CategoryReport struct {
	Category   Category
	OnlyLocal  []string             // Keys held only on the PC
	OnlyRemote []string             // Keys held only on the headset
	Decisions  []Outcome            // Resolutions, in prompt order
	Skipped    []*shared.EntryError // Entries that could not be read
	Err        error                // Failure that stopped this category
}

// Only returns the keys held by side alone.
func (r *CategoryReport) Only(side models.Side) []string {
	if side == models.Remote {
		return r.OnlyRemote
	}
	return r.OnlyLocal
}

// InSync reports whether neither side had anything the other lacked.
func (r *CategoryReport) InSync() bool {
	return len(r.OnlyLocal) == 0 && len(r.OnlyRemote) == 0
}

// Summary renders the report as one line, e.g. "favorites: Add to Quest (2)".
func (r *CategoryReport) Summary() string {
	switch {
	case r.Err != nil:
		return fmt.Sprintf("%s: failed (%v)", r.Category, r.Err)
	case r.InSync():
		return fmt.Sprintf("%s: in sync", r.Category)
	case len(r.Decisions) == 0:
		return fmt.Sprintf("%s: %d only on PC, %d only on Quest", r.Category, len(r.OnlyLocal), len(r.OnlyRemote))
	}

	parts := make([]string, len(r.Decisions))
	for i, o := range r.Decisions {
		parts[i] = fmt.Sprintf("%s (%d)", o.Decision, len(o.Items))
	}
	return fmt.Sprintf("%s: %s", r.Category, strings.Join(parts, ", "))
}

// SessionResult contains everything a session did.
type SessionResult struct {
	Device    device.Device
	DryRun    bool
	Phases    []Phase         // States entered, in order
	Favorites *CategoryReport // nil when the session stopped before favorites
	Playlists *CategoryReport // nil when the session stopped before playlists
	Err       error           // Error that aborted the session
	CloseErr  error           // Failure releasing the transport; never fatal
}

// Reports returns the category reports produced, in session order.
func (r *SessionResult) Reports() []*CategoryReport {
	var out []*CategoryReport
	for _, rep := range []*CategoryReport{r.Favorites, r.Playlists} {
		if rep != nil {
			out = append(out, rep)
		}
	}
	return out
}

// Status classifies the session outcome for the history log.
func (r *SessionResult) Status() models.SessionStatus {
	if r.Err != nil {
		return models.SessionFailed
	}
	for _, rep := range r.Reports() {
		if rep.Err != nil {
			return models.SessionPartial
		}
	}
	return models.SessionCompleted
}

// Summary joins the category summaries.
func (r *SessionResult) Summary() string {
	reports := r.Reports()
	if len(reports) == 0 {
		return "no categories synced"
	}
	parts := make([]string, len(reports))
	for i, rep := range reports {
		parts[i] = rep.Summary()
	}
	return strings.Join(parts, "; ")
}

// SyncEngine defines the session operations.
type SyncEngine interface {
	// Run reconciles favorites then playlists with the device, prompting once per divergent set.
	Run(ctx context.Context, dev device.Device, progress chan<- ProgressUpdate) (*SessionResult, error)

	// Diff reads both sides and reports divergences without prompting or writing.
	Diff(ctx context.Context, dev device.Device, progress chan<- ProgressUpdate) (*SessionResult, error)
}

// RemoteFactory builds the headset stores over an open transport.
type RemoteFactory func(t device.Transport) *stores.Set

// SessionEngine implements SyncEngine over a PC store set and a device connector.
type SessionEngine struct {
	connector device.Connector
	local     *stores.Set
	remote    RemoteFactory
	prompter  Prompter
	logger    *log.Logger
}

// NewSessionEngine creates a new SessionEngine. prompter may be nil for engines that only diff.
func NewSessionEngine(connector device.Connector, local *stores.Set, remote RemoteFactory, prompter Prompter, logger *log.Logger) *SessionEngine {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &SessionEngine{
		connector: connector,
		local:     local,
		remote:    remote,
		prompter:  prompter,
		logger:    logger,
	}
}

// sendProgress sends a progress update through the channel without blocking.
func (e *SessionEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// Run performs a full sync session.
func (e *SessionEngine) Run(ctx context.Context, dev device.Device, progress chan<- ProgressUpdate) (*SessionResult, error) {
	if e.prompter == nil {
		return nil, fmt.Errorf("%w: sync requires a prompter", shared.ErrInvalidConfig)
	}
	return e.session(ctx, dev, false, progress)
}

// Diff performs a read-only session.
func (e *SessionEngine) Diff(ctx context.Context, dev device.Device, progress chan<- ProgressUpdate) (*SessionResult, error) {
	return e.session(ctx, dev, true, progress)
}

func (e *SessionEngine) session(ctx context.Context, dev device.Device, dryRun bool, progress chan<- ProgressUpdate) (*SessionResult, error) {
	result := &SessionResult{Device: dev, DryRun: dryRun}
	logger := shared.WithLogger(e.logger, "device", dev.Serial)

	if err := device.CheckReady(dev); err != nil {
		result.Err = err
		return result, err
	}

	e.enter(result, PhaseInit, fmt.Sprintf("Connecting to %s...", dev.Label()), progress)
	t, err := e.connector.Open(ctx, dev)
	if err != nil {
		result.Err = err
		e.enter(result, PhaseClosed, "Session closed", progress)
		return result, err
	}
	defer func() {
		if err := t.Close(); err != nil {
			result.CloseErr = err
			logger.Warn("failed to close device session", "error", err)
		}
		e.enter(result, PhaseClosed, "Session closed", progress)
	}()

	p := pair{local: e.local, remote: e.remote(t)}

	e.enter(result, PhaseFavorites, "Syncing favorites...", progress)
	result.Favorites, err = reconcile(ctx, e, p, favoritesCategory(), PhaseFavorites, dryRun, progress)
	if err != nil {
		result.Err = err
		return result, err
	}

	e.enter(result, PhasePlaylists, "Syncing playlists...", progress)
	result.Playlists, err = reconcile(ctx, e, p, playlistsCategory(), PhasePlaylists, dryRun, progress)
	if err != nil {
		result.Err = err
		return result, err
	}

	logger.Info("session finished", "status", result.Status(), "summary", result.Summary())
	return result, nil
}

func (e *SessionEngine) enter(result *SessionResult, p Phase, message string, progress chan<- ProgressUpdate) {
	result.Phases = append(result.Phases, p)
	e.logger.Debug("entering phase", "phase", p)
	e.sendProgress(progress, phaseUpdate(p, message))
}

// pair holds the stores of both sides for one session.
type pair struct {
	local  *stores.Set
	remote *stores.Set
}

func (p pair) side(s models.Side) *stores.Set {
	if s == models.Remote {
		return p.remote
	}
	return p.local
}

// category is the per-kind half of the reconciliation routine.
type category[T any] struct {
	name Category
	noun string
	key  func(T) string
	// read loads one side; skipped entries are reported, not returned as errors.
	read func(ctx context.Context, set *stores.Set) ([]T, []*shared.EntryError, error)
	// apply persists resolutions given the state read from both sides.
	apply func(ctx context.Context, p pair, current map[models.Side][]T, resolutions []Resolution[T], report func(int, Resolution[T])) error
}

// reconcile runs one category: read both sides, diff, ask once per divergent side, apply.
//
// A returned error aborts the session; any other failure is recorded on the report.
func reconcile[T any](ctx context.Context, e *SessionEngine, p pair, c category[T], phase Phase, dryRun bool, progress chan<- ProgressUpdate) (*CategoryReport, error) {
	logger := shared.WithLogger(e.logger, "category", string(c.name))
	report := &CategoryReport{Category: c.name, OnlyLocal: []string{}, OnlyRemote: []string{}}

	fail := func(err error) (*CategoryReport, error) {
		if abortsSession(err) {
			return report, err
		}
		report.Err = err
		logger.Error("category failed", "error", err)
		e.sendProgress(progress, categoryFailedUpdate(phase, err))
		return report, nil
	}

	current := make(map[models.Side][]T, 2)
	for i, side := range models.Sides {
		e.sendProgress(progress, readUpdate(phase, i+1, side, c.noun))
		items, skipped, err := c.read(ctx, p.side(side))
		if err != nil {
			return fail(err)
		}
		if len(skipped) > 0 {
			report.Skipped = append(report.Skipped, skipped...)
			e.sendProgress(progress, skippedUpdate(phase, skipped))
		}
		current[side] = items
	}

	div := DiffSides(current[models.Local], current[models.Remote], c.key)
	report.OnlyLocal = keys(div.Only(models.Local), c.key)
	report.OnlyRemote = keys(div.Only(models.Remote), c.key)

	if div.Empty() {
		logger.Info("no divergence")
		e.sendProgress(progress, inSyncUpdate(phase, c.noun))
		return report, nil
	}

	var resolutions []Resolution[T]
	for _, holder := range models.Sides {
		items := div.Only(holder)
		if len(items) == 0 {
			continue
		}
		labels := report.Only(holder)
		logger.Info("found divergence", "holder", holder, "count", len(items))
		e.sendProgress(progress, divergenceUpdate(phase, holder, c.noun, labels))
		if dryRun {
			continue
		}

		d, err := Resolve(ctx, e.prompter, question(c.noun, holder, len(items)), holder)
		if err != nil {
			return fail(err)
		}
		resolutions = append(resolutions, Resolution[T]{Holder: holder, Items: items, Decision: d})
		report.Decisions = append(report.Decisions, Outcome{Holder: holder, Items: labels, Decision: d})
	}

	if dryRun {
		return report, nil
	}

	applied := func(i int, r Resolution[T]) {
		e.sendProgress(progress, appliedUpdate(phase, i+1, len(resolutions), r.Decision, len(r.Items), c.noun))
	}
	if err := c.apply(ctx, p, current, resolutions, applied); err != nil {
		return fail(err)
	}
	return report, nil
}

// abortsSession reports whether err stops the whole session rather than one category.
func abortsSession(err error) bool {
	return shared.IsFatal(err) ||
		errors.Is(err, shared.ErrAborted) ||
		errors.Is(err, shared.ErrSessionClosed) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

func keys[T any](items []T, key func(T) string) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = key(item)
	}
	return out
}

func favoritesCategory() category[string] {
	return category[string]{
		name: Favorites,
		noun: "favorite",
		key:  FavoriteKey,
		read: func(ctx context.Context, set *stores.Set) ([]string, []*shared.EntryError, error) {
			profile, err := set.Profiles.ReadProfile(ctx)
			if err != nil {
				return nil, nil, err
			}
			return profile.FavoriteIDs, nil, nil
		},
		apply: func(ctx context.Context, p pair, current map[models.Side][]string, resolutions []Resolution[string], report func(int, Resolution[string])) error {
			merged := MergeFavorites(current, resolutions)
			for _, side := range models.Sides {
				ids, changed := merged[side]
				if !changed {
					continue
				}
				if err := p.side(side).Profiles.WriteProfile(ctx, &models.PlayerProfile{FavoriteIDs: ids}); err != nil {
					return err
				}
			}
			for i, r := range resolutions {
				report(i, r)
			}
			return nil
		},
	}
}

func playlistsCategory() category[models.PlaylistRecord] {
	return category[models.PlaylistRecord]{
		name: Playlists,
		noun: "playlist",
		key:  PlaylistKey,
		read: func(ctx context.Context, set *stores.Set) ([]models.PlaylistRecord, []*shared.EntryError, error) {
			listing, err := set.Playlists.List(ctx)
			if err != nil {
				return nil, nil, err
			}
			return listing.Playlists, listing.Skipped, nil
		},
		apply: func(ctx context.Context, p pair, _ map[models.Side][]models.PlaylistRecord, resolutions []Resolution[models.PlaylistRecord], report func(int, Resolution[models.PlaylistRecord])) error {
			for i, r := range resolutions {
				target := p.side(r.Decision.Side).Playlists
				for _, rec := range r.Items {
					var err error
					switch r.Decision.Action {
					case models.AdoptInto:
						err = target.Add(ctx, rec)
					case models.RemoveFrom:
						err = target.Remove(ctx, rec.Title)
					default:
						err = fmt.Errorf("%w: %s", shared.ErrInvalidInput, r.Decision)
					}
					if err != nil {
						return err
					}
				}
				report(i, r)
			}
			return nil
		},
	}
}
