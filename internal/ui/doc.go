// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI edits the live list of a [tasks.Session] across four views:
//  1. [PlaylistView] : the list itself, reorderable with the mouse or the keyboard
//  2. [SearchView] : search the catalog and add songs
//  3. [ConfirmView] : confirm adding a song sung within the recency window
//  4. [HistoryView] : browse, load and delete saved lists
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Slow session calls run as commands; progress updates flow through the session's channel and show in the status line.
//
// # Reordering
//
// Dragging a row with the left button starts a [playlist.Reorder] gesture. Motion events hover over rows and the
// release commits a single move. The same gesture runs from the keyboard: m grabs the selected song, ↑/↓ pick the
// drop position, enter drops and esc cancels. Mouse rows are hit tested against a [playlist.Layout] derived from the
// rendered header, so the program must run with mouse cell motion enabled.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, y/n, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
