package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/setlist/internal/models"
	"github.com/desertthunder/setlist/internal/tasks"
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
	MsgCatalogLoaded MsgKind = iota
	MsgPrepared
	MsgSaved
	MsgHistoryFetched
	MsgEntryLoaded
	MsgEntryDeleted
	MsgProgressUpdate
)

type catalogLoaded struct {
	count int
	err   error
}

type prepared struct {
	pending *tasks.PendingAdd
	err     error
}

type saved struct {
	id  string
	err error
}

type historyFetched struct {
	entries []models.HistoryEntry
	err     error
}

type entryLoaded struct {
	entry models.HistoryEntry
	err   error
}

type entryDeleted struct {
	id  string
	err error
}

// catalogLoadedMsg is the constructor for [MsgCatalogLoaded]
func catalogLoadedMsg(count int, err error) Msg {
	return Msg{kind: MsgCatalogLoaded, data: catalogLoaded{count, err}}
}

// preparedMsg is the constructor for [MsgPrepared]
func preparedMsg(pending *tasks.PendingAdd, err error) Msg {
	return Msg{kind: MsgPrepared, data: prepared{pending, err}}
}

// savedMsg is the constructor for [MsgSaved]
func savedMsg(id string, err error) Msg {
	return Msg{kind: MsgSaved, data: saved{id, err}}
}

// historyFetchedMsg is the constructor for [MsgHistoryFetched]
func historyFetchedMsg(entries []models.HistoryEntry, err error) Msg {
	return Msg{kind: MsgHistoryFetched, data: historyFetched{entries, err}}
}

// entryLoadedMsg is the constructor for [MsgEntryLoaded]
func entryLoadedMsg(entry models.HistoryEntry, err error) Msg {
	return Msg{kind: MsgEntryLoaded, data: entryLoaded{entry, err}}
}

// entryDeletedMsg is the constructor for [MsgEntryDeleted]
func entryDeletedMsg(id string, err error) Msg {
	return Msg{kind: MsgEntryDeleted, data: entryDeleted{id, err}}
}

// progressUpdateMsg is the constructor for [MsgProgressUpdate]
func progressUpdateMsg(update tasks.ProgressUpdate) Msg {
	return Msg{kind: MsgProgressUpdate, data: update}
}
