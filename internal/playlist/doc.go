// Package playlist implements the working list for one service date.
//
// # Playlist
//
// [Playlist] is an ordered sequence of [models.Song] in which no two items share an identity key
// ([models.IdentityKey]). Uniqueness is enforced by [Playlist.Add] only; removing or moving items can
// never break it.
//
// Indices are positions in the current order. Any index held by a caller is invalid after
// [Playlist.Remove], [Playlist.Move] or [Playlist.Clear]; prefer [Playlist.RemoveSong] when the caller
// knows the song rather than a fresh index.
//
// [Playlist.Move] uses splice semantics: the item is removed first and then inserted at the target
// index measured in the shortened list, so moving index 0 to 2 in [A B C D] yields [B C A D].
//
// # Recency
//
// [Evaluate] (and [Guard.Evaluate]) classifies a candidate song against saved history entries of the
// same group. Entries dated in [target-windowDays, target) are eligible; the closest one holding the
// same identity key is reported as a [Conflict]. The guard is pure. Whether to proceed past a
// conflict is decided by the [ConfirmFunc] passed to [Playlist.Add].
//
// # Reordering
//
// [Reorder] is the drag gesture state machine. The presentation layer supplies a [Locator] that maps a
// pointer coordinate to an item index ([Layout] is the stock one); the session commits a single
// [Playlist.Move] when the gesture ends over a different item, and nothing otherwise.
package playlist
