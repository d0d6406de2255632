package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/plzip/internal/tasks"
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
	MsgSearchDone
	MsgDownloadDone
	MsgExportDone
)

type progressData struct {
	update tasks.ProgressUpdate
	next   tea.Cmd
}

type searchData struct {
	snap *tasks.Snapshot
	err  error
}

type downloadData struct {
	result *tasks.DownloadResult
	err    error
}

type exportData struct {
	path string
	err  error
}

// progressUpdateMsg is the constructor for [MsgProgressUpdate]; next keeps listening on the same operation.
func progressUpdateMsg(update tasks.ProgressUpdate, next tea.Cmd) Msg {
	return Msg{kind: MsgProgressUpdate, data: progressData{update, next}}
}

// searchDoneMsg is the constructor for [MsgSearchDone]
func searchDoneMsg(snap *tasks.Snapshot, err error) Msg {
	return Msg{kind: MsgSearchDone, data: searchData{snap, err}}
}

// downloadDoneMsg is the constructor for [MsgDownloadDone]
func downloadDoneMsg(result *tasks.DownloadResult, err error) Msg {
	return Msg{kind: MsgDownloadDone, data: downloadData{result, err}}
}

// exportDoneMsg is the constructor for [MsgExportDone]
func exportDoneMsg(path string, err error) Msg {
	return Msg{kind: MsgExportDone, data: exportData{path, err}}
}
