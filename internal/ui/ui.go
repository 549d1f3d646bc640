package ui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/qsync/internal/device"
	"github.com/desertthunder/qsync/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	LoadingView ViewState = iota
	CategoryView
	EntryView
)

// Model represents the TUI application state.
type Model struct {
	ctx        context.Context
	view       ViewState
	engine     tasks.SyncEngine
	device     device.Device
	width      int
	height     int
	categories list.Model
	entries    list.Model
	progressCh <-chan tasks.ProgressUpdate
	done       <-chan Msg
	progress   tasks.ProgressUpdate
	result     *tasks.SessionResult
	err        error
	help       help.Model
	keys       keyMap
}

// NewModel creates a browser diffing the PC against dev.
func NewModel(ctx context.Context, engine tasks.SyncEngine, dev device.Device) *Model {
	return &Model{
		ctx:        ctx,
		view:       LoadingView,
		engine:     engine,
		device:     dev,
		categories: list.New(nil, list.NewDefaultDelegate(), 0, 0),
		entries:    list.New(nil, list.NewDefaultDelegate(), 0, 0),
		help:       help.New(),
		keys:       newKeyMap(),
	}
}

// Result returns the last diff result, or nil before the first completes.
func (m *Model) Result() *tasks.SessionResult { return m.result }

// Err returns the error of the last diff.
func (m *Model) Err() error { return m.err }

// Init starts the first diff.
func (m *Model) Init() tea.Cmd {
	return m.startDiff()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.categories.SetSize(m.listSize())
		m.entries.SetSize(m.listSize())
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case LoadingView:
			if key.Matches(msg, m.keys.quit) {
				return m, tea.Quit
			}
			return m, nil
		case CategoryView:
			return m.handleCategoryKeys(msg)
		case EntryView:
			return m.handleEntryKeys(msg)
		}

	case Msg:
		switch msg.kind {
		case MsgProgressUpdate:
			m.progress = msg.data.(tasks.ProgressUpdate)
			return m, waitForProgress(m.progressCh, m.done)
		case MsgDiffComplete:
			done := msg.data.(diffComplete)
			m.result, m.err = done.result, done.err
			m.showCategories()
			return m, nil
		}
	}

	return m.updateLists(msg)
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil && m.view != LoadingView {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress r to retry, q to quit", m.err))
	}

	switch m.view {
	case LoadingView:
		return m.renderLoading()
	case CategoryView:
		return m.renderCategories()
	case EntryView:
		return m.renderEntries()
	default:
		return ""
	}
}

func (m *Model) showCategories() {
	m.view = CategoryView
	if m.result == nil {
		return
	}
	w, h := m.listSize()
	m.categories = list.New(categoryItems(m.result), list.NewDefaultDelegate(), w, h)
	m.categories.Title = fmt.Sprintf("PC ⇄ %s", m.device.Label())
}

func (m *Model) listSize() (int, int) {
	return max(m.width-4, 0), max(m.height-8, 0)
}

func (m *Model) handleCategoryKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.refresh):
		m.view = LoadingView
		m.err = nil
		return m, m.startDiff()
	case key.Matches(msg, m.keys.enter):
		if item, ok := m.categories.SelectedItem().(categoryItem); ok {
			w, h := m.listSize()
			m.entries = list.New(entryItems(item.report), list.NewDefaultDelegate(), w, h)
			m.entries.Title = item.Title()
			m.view = EntryView
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.categories, cmd = m.categories.Update(msg)
	return m, cmd
}

func (m *Model) handleEntryKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.view = CategoryView
		return m, nil
	}

	var cmd tea.Cmd
	m.entries, cmd = m.entries.Update(msg)
	return m, cmd
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case CategoryView:
		m.categories, cmd = m.categories.Update(msg)
	case EntryView:
		m.entries, cmd = m.entries.Update(msg)
	}
	return m, cmd
}

func (m *Model) startDiff() tea.Cmd {
	progress := make(chan tasks.ProgressUpdate, 50)
	done := make(chan Msg, 1)

	m.progressCh, m.done = progress, done

	go func() {
		result, err := m.engine.Diff(m.ctx, m.device, progress)
		close(progress)
		done <- diffCompleteMsg(result, err)
	}()

	return waitForProgress(progress, done)
}

// waitForProgress relays one progress update, or the completion once progress is closed.
func waitForProgress(progress <-chan tasks.ProgressUpdate, done <-chan Msg) tea.Cmd {
	return func() tea.Msg {
		update, ok := <-progress
		if !ok {
			return <-done
		}
		return progressUpdateMsg(update)
	}
}

func (m *Model) renderLoading() string {
	title := styles.title.Render(fmt.Sprintf("Comparing PC with %s", m.device.Label()))
	message := m.progress.Message
	if message == "" {
		message = "Connecting..."
	}
	return fmt.Sprintf("%s\n\n%s\n\n%s", title, message, m.help.ShortHelpView([]key.Binding{m.keys.quit}))
}

func (m *Model) renderCategories() string {
	helpKeys := []key.Binding{m.keys.enter, m.keys.refresh, m.keys.quit}
	out := m.categories.View()
	if m.result != nil && m.result.CloseErr != nil {
		out += "\n" + styles.warn.Render(fmt.Sprintf("warning: %v", m.result.CloseErr))
	}
	return fmt.Sprintf("%s\n\n%s", out, m.help.ShortHelpView(helpKeys))
}

func (m *Model) renderEntries() string {
	helpKeys := []key.Binding{m.keys.back, m.keys.quit}
	return fmt.Sprintf("%s\n\n%s", m.entries.View(), m.help.ShortHelpView(helpKeys))
}
