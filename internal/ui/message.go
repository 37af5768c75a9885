package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/plconv/internal/models"
	"github.com/desertthunder/plconv/internal/tasks"
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
	MsgTracksFetched MsgKind = iota
	MsgProgressUpdate
	MsgSyncComplete
)

type tracksFetched struct {
	list *models.TrackList
	err  error
}

type syncComplete struct {
	report *models.SyncReport
	err    error
}

// tracksFetchedMsg is the constructor for [MsgTracksFetched]
func tracksFetchedMsg(list *models.TrackList, err error) Msg {
	return Msg{kind: MsgTracksFetched, data: tracksFetched{list, err}}
}

// progressUpdateMsg is the constructor for [MsgProgressUpdate]
func progressUpdateMsg(update tasks.ProgressUpdate) Msg {
	return Msg{kind: MsgProgressUpdate, data: update}
}

// syncCompleteMsg is the constructor for [MsgSyncComplete]
func syncCompleteMsg(report *models.SyncReport, err error) Msg {
	return Msg{kind: MsgSyncComplete, data: syncComplete{report, err}}
}
