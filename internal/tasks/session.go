package tasks

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/setlist/internal/catalog"
	"github.com/desertthunder/setlist/internal/models"
	"github.com/desertthunder/setlist/internal/playlist"
	"github.com/desertthunder/setlist/internal/shared"
)

var (
	ErrCatalogNotLoaded = errors.New("catalog not loaded")
	ErrNotInCatalog     = errors.New("song not in catalog")
	ErrStaleResult      = errors.New("list changed while the request was in flight")
	ErrEntryNotFound    = errors.New("history entry not found")
	ErrEmptyList        = errors.New("list is empty")
)

// HistoryStore persists saved lists. Implementations return copies; entries are immutable once returned.
type HistoryStore interface {
	// FetchHistory returns every saved entry of groupID, in any order.
	FetchHistory(ctx context.Context, groupID string) ([]models.HistoryEntry, error)
	// Save stores a copy of items and returns the new entry ID.
	Save(ctx context.Context, groupID string, date time.Time, items []models.Song) (string, error)
	// Delete removes the entry with id.
	Delete(ctx context.Context, id string) error
}

// SnapshotStore keeps the in-progress list between process runs.
type SnapshotStore interface {
	SaveCurrent(ctx context.Context, snap models.PlaylistSnapshot) error
	// LoadCurrent returns nil, nil when nothing was saved.
	LoadCurrent(ctx context.Context) (*models.PlaylistSnapshot, error)
}

// SessionOpts configures a [Session]. Nil fields get defaults.
type SessionOpts struct {
	GroupID   string
	Date      time.Time // defaults to today
	Guard     playlist.Guard
	History   HistoryStore
	Snapshots SnapshotStore // optional
	Logger    *log.Logger
	Progress  chan<- ProgressUpdate // optional, never blocks
	Now       func() time.Time
}

// Session owns the live list and serializes every mutation of it.
type Session struct {
	mu         sync.Mutex
	list       *playlist.Playlist
	guard      playlist.Guard
	songs      []models.Song
	loaded     bool
	generation uint64

	history   HistoryStore
	snapshots SnapshotStore
	logger    *log.Logger
	progress  chan<- ProgressUpdate
	now       func() time.Time
}

// NewSession creates a session with an empty list for opts.GroupID on opts.Date.
func NewSession(opts SessionOpts) *Session {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Date.IsZero() {
		opts.Date = opts.Now()
	}

	return &Session{
		list:      playlist.New(opts.GroupID, opts.Date, opts.Guard),
		guard:     opts.Guard,
		history:   opts.History,
		snapshots: opts.Snapshots,
		logger:    opts.Logger,
		progress:  opts.Progress,
		now:       opts.Now,
	}
}

// PendingAdd is the outcome of [Session.Prepare]: the history fetched for the song and the conflict it
// produced, tagged with the generation of the list it was computed against.
type PendingAdd struct {
	Song     models.Song
	Conflict *playlist.Conflict

	// RecencyErr is set when the history could not be fetched. The add still commits, unchecked.
	RecencyErr error

	history    []models.HistoryEntry
	generation uint64
}

// sendProgress sends a progress update through the channel without blocking.
func (s *Session) sendProgress(update ProgressUpdate) {
	if s.progress == nil {
		return
	}
	select {
	case s.progress <- update:
	default:
	}
}

// bump invalidates in-flight results. Callers hold mu.
func (s *Session) bump() {
	s.generation++
}

// LoadCatalog replaces the searchable catalog with the songs of src plus extra (custom songs).
// A failed load keeps whatever catalog was loaded before.
func (s *Session) LoadCatalog(ctx context.Context, src catalog.Source, extra ...models.Song) (int, error) {
	s.sendProgress(loadingCatalogUpdate())

	songs, err := src.LoadCatalog(ctx)
	if err != nil {
		if !errors.Is(err, shared.ErrLoadFailed) {
			err = fmt.Errorf("%w: %w", shared.ErrLoadFailed, err)
		}
		s.sendProgress(failedUpdate(LoadCatalog, err))
		return 0, err
	}

	merged := catalog.Merge(songs, extra)

	s.mu.Lock()
	s.songs = merged
	s.loaded = true
	s.mu.Unlock()

	s.logger.Debug("catalog loaded", "songs", len(merged), "custom", len(extra))
	s.sendProgress(catalogLoadedUpdate(len(merged)))
	return len(merged), nil
}

// Search runs an accent-insensitive substring search over the catalog.
func (s *Session) Search(query string, limit int) (catalog.Result, error) {
	songs, err := s.catalogSongs()
	if err != nil {
		return catalog.Result{}, err
	}
	return catalog.Search(songs, query, limit), nil
}

// FuzzySearch ranks catalog titles against query.
func (s *Session) FuzzySearch(query string, limit int) (catalog.Result, error) {
	songs, err := s.catalogSongs()
	if err != nil {
		return catalog.Result{}, err
	}
	return catalog.FuzzySearch(songs, query, limit), nil
}

// Find looks a song up by origin and number (or title for unnumbered songs).
func (s *Session) Find(origin models.Origin, ref string) (models.Song, error) {
	songs, err := s.catalogSongs()
	if err != nil {
		return models.Song{}, err
	}
	song, ok := catalog.Find(songs, origin, ref)
	if !ok {
		return models.Song{}, fmt.Errorf("%w: %s %s", ErrNotInCatalog, origin, ref)
	}
	return song, nil
}

// catalogSongs returns the loaded catalog. The slice is never mutated after load and may be shared.
func (s *Session) catalogSongs() ([]models.Song, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded {
		return nil, ErrCatalogNotLoaded
	}
	return s.songs, nil
}

// Snapshot returns a read-only copy of the live list.
func (s *Session) Snapshot() models.PlaylistSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.list.Snapshot()
}

func (s *Session) GroupID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.list.GroupID()
}

func (s *Session) Date() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.list.Date()
}

func (s *Session) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

// Prepare checks song against the live list and fetches the group's history without holding the lock.
//
// A duplicate fails immediately with [playlist.ErrDuplicate] and no fetch is made.
func (s *Session) Prepare(ctx context.Context, song models.Song) (*PendingAdd, error) {
	if err := song.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	s.mu.Lock()
	if i := s.list.IndexOf(song.Key()); i >= 0 {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: %s at position %d", playlist.ErrDuplicate, song.Display(), i+1)
	}
	generation := s.generation
	groupID := s.list.GroupID()
	date := s.list.Date()
	s.mu.Unlock()

	pending := &PendingAdd{Song: song, generation: generation}
	var history []models.HistoryEntry
	if s.history != nil && s.guard.WindowDays > 0 {
		var err error
		if history, err = s.fetchHistory(ctx, groupID); err != nil {
			s.logger.Warn("recency not checked", "song", song.Display(), "error", err)
			pending.RecencyErr = err
			history = nil
		}
	}
	pending.history = history

	if conflict, ok := s.guard.Evaluate(song, groupID, date, history); ok {
		pending.Conflict = &conflict
	}
	return pending, nil
}

// Commit applies a prepared add. Results computed before a clear, load, new list, group change or date
// change fail with [ErrStaleResult]. The duplicate check runs again, so concurrent adds of the same song
// cannot both succeed.
func (s *Session) Commit(p *PendingAdd, confirm playlist.ConfirmFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.generation != s.generation {
		return ErrStaleResult
	}

	if err := s.list.Add(p.Song, p.history, confirm); err != nil {
		return err
	}
	s.logger.Debug("song added", "song", p.Song.Display(), "position", s.list.Count())
	return nil
}

// Add is [Session.Prepare] followed by [Session.Commit].
func (s *Session) Add(ctx context.Context, song models.Song, confirm playlist.ConfirmFunc) error {
	p, err := s.Prepare(ctx, song)
	if err != nil {
		return err
	}
	return s.Commit(p, confirm)
}

// Remove deletes the song at index.
func (s *Session) Remove(index int) (models.Song, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.list.Remove(index)
}

// RemoveSong deletes the song with key.
func (s *Session) RemoveSong(key models.SongKey) (models.Song, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.list.RemoveSong(key)
}

// Move repositions one song.
func (s *Session) Move(from, to int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.list.Move(from, to)
}

// Count reports the live list length.
func (s *Session) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.list.Count()
}

// Clear empties the live list.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.list.Clear()
	s.bump()
}

// NewList starts an empty list for the current group on date (today when zero).
func (s *Session) NewList(date time.Time) {
	if date.IsZero() {
		date = s.now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.list = playlist.New(s.list.GroupID(), date, s.guard)
	s.bump()
}

// SetDate changes the service date of the live list.
func (s *Session) SetDate(date time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.list.SetDate(date)
	s.bump()
}

// SetGroup moves the live list to another group.
func (s *Session) SetGroup(groupID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.list.SetGroup(groupID)
	s.bump()
}

// Reorder starts a drag session over the live list. loc maps pointer positions to item indices.
func (s *Session) Reorder(loc playlist.Locator) *playlist.Reorder {
	return playlist.NewReorder(sessionMover{s}, loc)
}

// sessionMover routes reorder commits through the session lock.
type sessionMover struct{ s *Session }

func (m sessionMover) Count() int { return m.s.Count() }

func (m sessionMover) Move(from, to int) error { return m.s.Move(from, to) }

// Save stores a copy of the live list in the history store. A failed save leaves the list untouched.
func (s *Session) Save(ctx context.Context) (string, error) {
	if s.history == nil {
		return "", fmt.Errorf("%w: no history store", shared.ErrSaveFailed)
	}

	snap := s.Snapshot()
	if len(snap.Items) == 0 {
		return "", ErrEmptyList
	}

	s.sendProgress(savingUpdate(len(snap.Items)))
	id, err := s.history.Save(ctx, snap.GroupID, snap.Date, snap.Items)
	if err != nil {
		if !errors.Is(err, shared.ErrSaveFailed) {
			err = fmt.Errorf("%w: %w", shared.ErrSaveFailed, err)
		}
		s.sendProgress(failedUpdate(SaveHistory, err))
		return "", err
	}

	s.mu.Lock()
	if s.list.GroupID() == snap.GroupID && s.list.Date().Equal(snap.Date) && slices.Equal(s.list.Items(), snap.Items) {
		s.list.MarkSaved()
	}
	s.mu.Unlock()

	s.logger.Info("saved list", "id", id, "group", snap.GroupID, "date", models.FormatDate(snap.Date), "songs", len(snap.Items))
	s.sendProgress(savedUpdate(id))
	return id, nil
}

// History lists the saved entries of the current group, newest save first.
func (s *Session) History(ctx context.Context) ([]models.HistoryEntry, error) {
	entries, err := s.fetchHistory(ctx, s.GroupID())
	if err != nil {
		return nil, err
	}

	slices.SortStableFunc(entries, func(a, b models.HistoryEntry) int {
		return b.SavedAt.Compare(a.SavedAt)
	})
	return entries, nil
}

func (s *Session) fetchHistory(ctx context.Context, groupID string) ([]models.HistoryEntry, error) {
	if s.history == nil {
		return nil, fmt.Errorf("%w: no history store", shared.ErrFetchFailed)
	}

	s.sendProgress(fetchHistoryUpdate(groupID))
	entries, err := s.history.FetchHistory(ctx, groupID)
	if err != nil {
		if !errors.Is(err, shared.ErrFetchFailed) {
			err = fmt.Errorf("%w: %w", shared.ErrFetchFailed, err)
		}
		s.sendProgress(failedUpdate(FetchHistory, err))
		return nil, err
	}
	return entries, nil
}

// LoadEntry replaces the live list with a copy of the saved entry id. It fails with [ErrStaleResult] when
// the list changed while the history was being fetched.
func (s *Session) LoadEntry(ctx context.Context, id string) (models.HistoryEntry, error) {
	s.mu.Lock()
	generation := s.generation
	groupID := s.list.GroupID()
	s.mu.Unlock()

	entries, err := s.fetchHistory(ctx, groupID)
	if err != nil {
		return models.HistoryEntry{}, err
	}

	i := slices.IndexFunc(entries, func(e models.HistoryEntry) bool { return e.ID == id })
	if i < 0 {
		return models.HistoryEntry{}, fmt.Errorf("%w: %s", ErrEntryNotFound, id)
	}
	entry := entries[i]

	s.mu.Lock()
	if generation != s.generation {
		s.mu.Unlock()
		return models.HistoryEntry{}, ErrStaleResult
	}
	s.list = playlist.FromSnapshot(models.PlaylistSnapshot{
		GroupID: entry.GroupID,
		Date:    entry.Date,
		Items:   models.CloneSongs(entry.Items),
	}, s.guard)
	s.bump()
	s.mu.Unlock()

	s.logger.Info("loaded list", "id", id, "songs", len(entry.Items))
	return entry, nil
}

// DeleteEntry removes a saved entry. The live list is not affected.
func (s *Session) DeleteEntry(ctx context.Context, id string) error {
	if s.history == nil {
		return fmt.Errorf("%w: no history store", shared.ErrDeleteFailed)
	}

	s.sendProgress(deleteUpdate(id))
	if err := s.history.Delete(ctx, id); err != nil {
		if !errors.Is(err, shared.ErrDeleteFailed) {
			err = fmt.Errorf("%w: %w", shared.ErrDeleteFailed, err)
		}
		s.sendProgress(failedUpdate(DeleteHistory, err))
		return err
	}

	s.logger.Info("deleted list", "id", id)
	return nil
}

// Persist writes the live list to the snapshot store, if one is configured.
func (s *Session) Persist(ctx context.Context) error {
	if s.snapshots == nil {
		return nil
	}

	snap := s.Snapshot()
	snap.UpdatedAt = s.now()
	if err := s.snapshots.SaveCurrent(ctx, snap); err != nil {
		return fmt.Errorf("%w: snapshot: %w", shared.ErrSaveFailed, err)
	}
	return nil
}

// Restore replaces the live list with the last persisted one. It reports false when nothing was stored.
func (s *Session) Restore(ctx context.Context) (bool, error) {
	if s.snapshots == nil {
		return false, nil
	}

	snap, err := s.snapshots.LoadCurrent(ctx)
	if err != nil {
		err = fmt.Errorf("%w: snapshot: %w", shared.ErrFetchFailed, err)
		s.sendProgress(failedUpdate(RestoreSnapshot, err))
		return false, err
	}
	if snap == nil {
		return false, nil
	}

	s.mu.Lock()
	s.list = playlist.FromSnapshot(*snap, s.guard)
	s.bump()
	s.mu.Unlock()

	s.sendProgress(restoreUpdate(len(snap.Items)))
	return true, nil
}
