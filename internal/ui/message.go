package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/ytlinks/internal/tasks"
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
	MsgConvertComplete
)

type convertOutcome struct {
	result *tasks.ConvertResult
	err    error
}

// progressUpdateMsg is the constructor for [MsgProgressUpdate]
func progressUpdateMsg(update tasks.ProgressUpdate) Msg {
	return Msg{kind: MsgProgressUpdate, data: update}
}

// convertCompleteMsg is the constructor for [MsgConvertComplete]
func convertCompleteMsg(result *tasks.ConvertResult, err error) Msg {
	return Msg{kind: MsgConvertComplete, data: convertOutcome{result, err}}
}
