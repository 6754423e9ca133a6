// Package tasks owns the live song list and coordinates it with the catalog and the history store.
//
// # Session
//
// [Session] wraps a [playlist.Playlist] behind a mutex so the TUI, the HTTP API and background commands
// can share one list. Every mutation goes through it.
//
// Adding a song is split in two:
//
//  1. [Session.Prepare] runs the duplicate check, then fetches history without holding the lock and
//     evaluates the recency guard.
//  2. [Session.Commit] applies the result, asking the confirm callback about any conflict.
//
// [Session.Add] chains both for callers that do not need to show the conflict in between.
//
// A failed history fetch does not block the add. [Session.Prepare] still returns a [PendingAdd] with
// [PendingAdd.RecencyErr] set and no conflict, and callers surface it as a warning.
//
// # Generations
//
// The session keeps a generation counter that advances on clear, new list, history load, snapshot
// restore, group change and date change. A [PendingAdd] remembers the generation it was computed against
// and [Session.Commit] rejects it with [ErrStaleResult] once the list has moved on, so a slow history
// fetch can never land on a list it was not evaluated for. [Session.LoadEntry] applies the same check.
//
// # Limitations
//
// The recency decision uses history as of the fetch. Another writer saving the same song between the
// fetch and the commit is not detected; the history backends offer no conditional write to lock against.
//
// # Progress Reporting
//
// When [SessionOpts.Progress] is set, slow operations emit [ProgressUpdate] values on it. Sends use select
// with default and never block.
package tasks
