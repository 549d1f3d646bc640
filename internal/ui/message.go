package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/qsync/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgProgressUpdate MsgKind = iota
	MsgDiffComplete
)

type diffComplete struct {
	result *tasks.SessionResult
	err    error
}

// progressUpdateMsg is the constructor for [MsgProgressUpdate]
func progressUpdateMsg(update tasks.ProgressUpdate) Msg {
	return Msg{kind: MsgProgressUpdate, data: update}
}

// diffCompleteMsg is the constructor for [MsgDiffComplete]
func diffCompleteMsg(result *tasks.SessionResult, err error) Msg {
	return Msg{kind: MsgDiffComplete, data: diffComplete{result, err}}
}
