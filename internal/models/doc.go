// Package models defines the domain entities shared by every layer of setlist.
//
// The package contains two categories of types:
//
// 1. Catalog entries:
//   - [Song] : A hymnal entry or custom song tagged with its [Origin]
//   - [SongKey] : The identity used for de-duplication and recency lookups, built only by [IdentityKey]
//   - [CustomSong] : A user-defined song owned by a group
//
// 2. List state:
//   - [PlaylistSnapshot] : A read-only copy of the working list for one service date
//   - [HistoryEntry] : An immutable saved list, used for recency checks and for loading
//
// Service dates are calendar days represented as [time.Time] values at UTC midnight; use [DateOf],
// [ParseDate] and [DaysBetween] rather than raw time arithmetic.
package models
