package playlist

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/desertthunder/setlist/internal/models"
)

var (
	ErrDuplicate       = errors.New("song already in playlist")
	ErrRecencyDeclined = errors.New("recently sung song was not confirmed")
	ErrIndexOutOfRange = errors.New("index out of range")
	ErrSongNotFound    = errors.New("song not in playlist")
)

// ConfirmFunc asks whether a song that conflicts with a recent list should be added anyway.
type ConfirmFunc func(song models.Song, conflict Conflict) bool

// Playlist is the ordered, de-duplicated song list for one service date.
//
// A Playlist is not safe for concurrent use; [tasks.Session] serializes access to it.
type Playlist struct {
	groupID string
	date    time.Time
	items   []models.Song
	guard   Guard
	dirty   bool
}

// New creates an empty list for groupID on the service date of date.
func New(groupID string, date time.Time, guard Guard) *Playlist {
	return &Playlist{
		groupID: groupID,
		date:    models.DateOf(date),
		items:   []models.Song{},
		guard:   guard,
	}
}

// FromSnapshot creates a list holding a copy of the snapshot items. Duplicate keys in the snapshot are
// dropped, keeping the first occurrence.
func FromSnapshot(s models.PlaylistSnapshot, guard Guard) *Playlist {
	p := New(s.GroupID, s.Date, guard)
	for _, item := range s.Items {
		if p.indexOf(item.Key()) < 0 {
			p.items = append(p.items, item)
		}
	}
	p.dirty = s.Dirty
	return p
}

func (p *Playlist) GroupID() string  { return p.groupID }
func (p *Playlist) Date() time.Time  { return p.date }
func (p *Playlist) Guard() Guard     { return p.guard }
func (p *Playlist) Count() int       { return len(p.items) }
func (p *Playlist) IsEmpty() bool    { return len(p.items) == 0 }
func (p *Playlist) Dirty() bool      { return p.dirty }
func (p *Playlist) MarkSaved()       { p.dirty = false }

// SetGroup moves the list to another group. Items are kept.
func (p *Playlist) SetGroup(groupID string) {
	if p.groupID != groupID {
		p.groupID = groupID
		p.dirty = true
	}
}

// SetDate changes the service date. Items are kept.
func (p *Playlist) SetDate(date time.Time) {
	date = models.DateOf(date)
	if !p.date.Equal(date) {
		p.date = date
		p.dirty = true
	}
}

// Items returns a copy of the songs in performance order.
func (p *Playlist) Items() []models.Song {
	return models.CloneSongs(p.items)
}

// At returns the song at index.
func (p *Playlist) At(index int) (models.Song, error) {
	if err := p.checkIndex(index); err != nil {
		return models.Song{}, err
	}
	return p.items[index], nil
}

// IndexOf returns the position of the song with the given key, or -1.
func (p *Playlist) IndexOf(key models.SongKey) int {
	return p.indexOf(key)
}

// Contains reports whether a song with the same identity key is already in the list.
func (p *Playlist) Contains(song models.Song) bool {
	return p.indexOf(song.Key()) >= 0
}

// Add appends song after checking for duplicates and recent use.
//
// A song whose key is already present fails with [ErrDuplicate]. Otherwise the guard is evaluated
// against history; on a conflict confirm decides, and a decline (or a nil confirm) fails with
// [ErrRecencyDeclined]. Failed adds never mutate the list.
func (p *Playlist) Add(song models.Song, history []models.HistoryEntry, confirm ConfirmFunc) error {
	if err := song.Validate(); err != nil {
		return err
	}

	key := song.Key()
	if i := p.indexOf(key); i >= 0 {
		return fmt.Errorf("%w: %s at position %d", ErrDuplicate, song.Display(), i+1)
	}

	if conflict, ok := p.guard.Evaluate(song, p.groupID, p.date, history); ok {
		if confirm == nil || !confirm(song, conflict) {
			return fmt.Errorf("%w: %s", ErrRecencyDeclined, conflict.Message())
		}
	}

	p.items = append(p.items, song)
	p.dirty = true
	return nil
}

// Remove deletes and returns the song at index. Later items shift down by one.
func (p *Playlist) Remove(index int) (models.Song, error) {
	if err := p.checkIndex(index); err != nil {
		return models.Song{}, err
	}

	song := p.items[index]
	p.items = slices.Delete(p.items, index, index+1)
	p.dirty = true
	return song, nil
}

// RemoveSong deletes the song with the given key, wherever it currently is.
func (p *Playlist) RemoveSong(key models.SongKey) (models.Song, error) {
	i := p.indexOf(key)
	if i < 0 {
		return models.Song{}, fmt.Errorf("%w: %s", ErrSongNotFound, key)
	}
	return p.Remove(i)
}

// Move takes the song at from out of the list and inserts it at to, where to is measured after the
// removal. Both indices must be in [0, Count()).
func (p *Playlist) Move(from, to int) error {
	if err := p.checkIndex(from); err != nil {
		return fmt.Errorf("move from: %w", err)
	}
	if err := p.checkIndex(to); err != nil {
		return fmt.Errorf("move to: %w", err)
	}
	if from == to {
		return nil
	}

	song := p.items[from]
	p.items = slices.Delete(p.items, from, from+1)
	p.items = slices.Insert(p.items, to, song)
	p.dirty = true
	return nil
}

// Clear empties the list.
func (p *Playlist) Clear() {
	if len(p.items) > 0 {
		p.dirty = true
	}
	p.items = []models.Song{}
}

// Snapshot returns a read-only copy of the list.
func (p *Playlist) Snapshot() models.PlaylistSnapshot {
	return models.PlaylistSnapshot{
		GroupID:   p.groupID,
		Date:      p.date,
		Items:     p.Items(),
		Dirty:     p.dirty,
		UpdatedAt: time.Now(),
	}
}

func (p *Playlist) indexOf(key models.SongKey) int {
	return slices.IndexFunc(p.items, func(s models.Song) bool { return s.Key() == key })
}

func (p *Playlist) checkIndex(index int) error {
	if index < 0 || index >= len(p.items) {
		return fmt.Errorf("%w: %d not in [0, %d)", ErrIndexOutOfRange, index, len(p.items))
	}
	return nil
}
