package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/yotoshare/internal/auth"
	"github.com/desertthunder/yotoshare/internal/models"
	"github.com/desertthunder/yotoshare/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
//
// seq ties an asynchronous result to the view that asked for it.
type Msg struct {
	kind MsgKind
	seq  int
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgAuthLoaded MsgKind = iota
	MsgAuthChanged
	MsgLoginFinished
	MsgPlaylistsFetched
	MsgProgressUpdate
	MsgExportComplete
)

type playlistsPayload struct {
	cards []models.Card
	err   error
}

type exportPayload struct {
	result *tasks.GenerateResult
	err    error
}

// authLoadedMsg is the constructor for [MsgAuthLoaded]
func authLoadedMsg(state auth.State) Msg {
	return Msg{kind: MsgAuthLoaded, data: state}
}

// authChangedMsg is the constructor for [MsgAuthChanged]
func authChangedMsg(state auth.State) Msg {
	return Msg{kind: MsgAuthChanged, data: state}
}

// loginFinishedMsg is the constructor for [MsgLoginFinished]
func loginFinishedMsg(err error) Msg {
	return Msg{kind: MsgLoginFinished, data: err}
}

// playlistsFetchedMsg is the constructor for [MsgPlaylistsFetched]
func playlistsFetchedMsg(seq int, cards []models.Card, err error) Msg {
	return Msg{kind: MsgPlaylistsFetched, seq: seq, data: playlistsPayload{cards, err}}
}

// progressUpdateMsg is the constructor for [MsgProgressUpdate]
func progressUpdateMsg(seq int, update tasks.ProgressUpdate) Msg {
	return Msg{kind: MsgProgressUpdate, seq: seq, data: update}
}

// exportCompleteMsg is the constructor for [MsgExportComplete]
func exportCompleteMsg(seq int, result *tasks.GenerateResult, err error) Msg {
	return Msg{kind: MsgExportComplete, seq: seq, data: exportPayload{result, err}}
}
