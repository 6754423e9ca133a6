package tasks

import (
	"bytes"
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/desertthunder/setlist/internal/models"
	"github.com/desertthunder/setlist/internal/playlist"
	"github.com/desertthunder/setlist/internal/shared"
	tu "github.com/desertthunder/setlist/internal/testing"
)

var (
	serviceDate = models.NewDate(2026, 10, 18)
	grace       = models.Song{Number: "12", Title: "Graça Maravilhosa", Origin: models.OriginCongregation}
	fortress    = models.Song{Number: "30", Title: "Castelo Forte", Origin: models.OriginCongregation}
	oceans      = models.Song{Title: "Oceanos", Origin: models.OriginLoose}
)

func accept(models.Song, playlist.Conflict) bool  { return true }
func decline(models.Song, playlist.Conflict) bool { return false }

func newSession(t *testing.T, store HistoryStore) *Session {
	t.Helper()
	return NewSession(SessionOpts{
		GroupID: "central",
		Date:    serviceDate,
		Guard:   playlist.Guard{WindowDays: 5},
		History: store,
		Logger:  shared.NewLogger(&bytes.Buffer{}),
	})
}

func itemTitles(s *Session) []string {
	var out []string
	for _, item := range s.Snapshot().Items {
		out = append(out, item.Title)
	}
	return out
}

func TestSessionCatalog(t *testing.T) {
	ctx := context.Background()

	t.Run("search before load fails", func(t *testing.T) {
		s := newSession(t, tu.NewMemoryHistoryStore())
		if _, err := s.Search("graca", 10); !errors.Is(err, ErrCatalogNotLoaded) {
			t.Errorf("expected ErrCatalogNotLoaded, got %v", err)
		}
		if _, err := s.Find(models.OriginCongregation, "12"); !errors.Is(err, ErrCatalogNotLoaded) {
			t.Errorf("expected ErrCatalogNotLoaded, got %v", err)
		}
	})

	t.Run("load merges custom songs", func(t *testing.T) {
		s := newSession(t, tu.NewMemoryHistoryStore())
		custom := models.Song{Title: "Hino da Casa", Origin: models.OriginCustom}

		n, err := s.LoadCatalog(ctx, tu.StaticCatalog{Songs: []models.Song{grace, fortress}}, custom)
		if err != nil || n != 3 {
			t.Fatalf("LoadCatalog() = (%d, %v)", n, err)
		}

		res, err := s.Search("casa", 0)
		if err != nil || len(res.Songs) != 1 || res.Songs[0].Origin != models.OriginCustom {
			t.Errorf("Search() = (%+v, %v)", res, err)
		}

		song, err := s.Find(models.OriginCongregation, "30")
		if err != nil || song.Title != "Castelo Forte" {
			t.Errorf("Find() = (%+v, %v)", song, err)
		}
		if _, err := s.Find(models.OriginCongregation, "999"); !errors.Is(err, ErrNotInCatalog) {
			t.Errorf("expected ErrNotInCatalog, got %v", err)
		}
	})

	t.Run("failed load keeps previous catalog", func(t *testing.T) {
		s := newSession(t, tu.NewMemoryHistoryStore())
		_, _ = s.LoadCatalog(ctx, tu.StaticCatalog{Songs: []models.Song{grace}})

		_, err := s.LoadCatalog(ctx, tu.StaticCatalog{Err: errors.New("offline")})
		if !errors.Is(err, shared.ErrLoadFailed) {
			t.Fatalf("expected ErrLoadFailed, got %v", err)
		}
		if res, err := s.Search("12", 0); err != nil || res.Total != 1 {
			t.Errorf("previous catalog lost: (%+v, %v)", res, err)
		}
	})
}

func TestSessionAdd(t *testing.T) {
	ctx := context.Background()
	recent := models.HistoryEntry{
		ID: "e1", GroupID: "central", Date: serviceDate.AddDate(0, 0, -2),
		Items: []models.Song{grace}, SavedAt: serviceDate.AddDate(0, 0, -2),
	}

	t.Run("duplicate fails before fetching history", func(t *testing.T) {
		store := tu.NewMemoryHistoryStore()
		s := newSession(t, store)
		if err := s.Add(ctx, oceans, nil); err != nil {
			t.Fatalf("Add() error = %v", err)
		}
		fetches := store.Fetches

		if err := s.Add(ctx, models.Song{Title: "OCEANOS", Origin: models.OriginLoose}, nil); !errors.Is(err, playlist.ErrDuplicate) {
			t.Fatalf("expected ErrDuplicate, got %v", err)
		}
		if store.Fetches != fetches {
			t.Error("duplicate add must not fetch history")
		}
	})

	t.Run("conflict is reported by prepare and resolved by commit", func(t *testing.T) {
		s := newSession(t, tu.NewMemoryHistoryStore(recent))
		p, err := s.Prepare(ctx, grace)
		if err != nil {
			t.Fatalf("Prepare() error = %v", err)
		}
		if p.Conflict == nil || p.Conflict.DaysAgo != 2 || p.Conflict.Entry.ID != "e1" {
			t.Fatalf("unexpected conflict: %+v", p.Conflict)
		}

		if err := s.Commit(p, decline); !errors.Is(err, playlist.ErrRecencyDeclined) {
			t.Errorf("expected ErrRecencyDeclined, got %v", err)
		}
		if s.Count() != 0 {
			t.Error("declined add changed the list")
		}

		if err := s.Commit(p, accept); err != nil {
			t.Errorf("Commit() error = %v", err)
		}
		if s.Count() != 1 {
			t.Errorf("expected 1 item, got %d", s.Count())
		}
	})

	t.Run("history of other groups is ignored", func(t *testing.T) {
		other := recent
		other.GroupID = "jardim"
		s := newSession(t, tu.NewMemoryHistoryStore(other))
		if err := s.Add(ctx, grace, nil); err != nil {
			t.Errorf("Add() error = %v", err)
		}
	})

	t.Run("fetch failure still adds, unchecked", func(t *testing.T) {
		store := tu.NewMemoryHistoryStore(recent)
		store.FetchErr = errors.New("backend unavailable")
		s := newSession(t, store)

		p, err := s.Prepare(ctx, grace)
		if err != nil {
			t.Fatalf("Prepare() error = %v", err)
		}
		if !errors.Is(p.RecencyErr, shared.ErrFetchFailed) {
			t.Errorf("expected RecencyErr to wrap ErrFetchFailed, got %v", p.RecencyErr)
		}
		if p.Conflict != nil {
			t.Errorf("expected no conflict without history, got %+v", p.Conflict)
		}

		if err := s.Commit(p, decline); err != nil {
			t.Fatalf("Commit() error = %v", err)
		}
		if got := itemTitles(s); !slices.Equal(got, []string{"Graça Maravilhosa"}) {
			t.Errorf("items = %v", got)
		}
	})

	t.Run("disabled guard skips the fetch", func(t *testing.T) {
		store := tu.NewMemoryHistoryStore(recent)
		s := NewSession(SessionOpts{GroupID: "central", Date: serviceDate, History: store, Logger: shared.NewLogger(&bytes.Buffer{})})
		if err := s.Add(ctx, grace, nil); err != nil {
			t.Fatalf("Add() error = %v", err)
		}
		if store.Fetches != 0 {
			t.Errorf("expected no fetch, got %d", store.Fetches)
		}
	})

	t.Run("invalid song", func(t *testing.T) {
		s := newSession(t, tu.NewMemoryHistoryStore())
		if err := s.Add(ctx, models.Song{Origin: models.OriginLoose}, nil); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})
}

func TestSessionStaleResults(t *testing.T) {
	ctx := context.Background()

	tc := []struct {
		name   string
		change func(s *Session)
	}{
		{name: "clear", change: func(s *Session) { s.Clear() }},
		{name: "group change", change: func(s *Session) { s.SetGroup("jardim") }},
		{name: "date change", change: func(s *Session) { s.SetDate(serviceDate.AddDate(0, 0, 7)) }},
		{name: "new list", change: func(s *Session) { s.NewList(serviceDate) }},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			s := newSession(t, tu.NewMemoryHistoryStore())
			p, err := s.Prepare(ctx, grace)
			if err != nil {
				t.Fatalf("Prepare() error = %v", err)
			}

			tt.change(s)

			if err := s.Commit(p, accept); !errors.Is(err, ErrStaleResult) {
				t.Fatalf("expected ErrStaleResult, got %v", err)
			}
			if s.Count() != 0 {
				t.Error("stale result reached the list")
			}
		})
	}

	t.Run("group change during history load", func(t *testing.T) {
		store := tu.NewMemoryHistoryStore(models.HistoryEntry{
			ID: "e1", GroupID: "central", Date: serviceDate.AddDate(0, 0, -7),
			Items: []models.Song{fortress}, SavedAt: serviceDate,
		})
		s := newSession(t, store)
		store.OnFetch = func() { s.SetGroup("jardim") }

		if _, err := s.LoadEntry(ctx, "e1"); !errors.Is(err, ErrStaleResult) {
			t.Fatalf("expected ErrStaleResult, got %v", err)
		}
		if s.GroupID() != "jardim" || s.Count() != 0 {
			t.Errorf("stale load changed the list: group = %s count = %d", s.GroupID(), s.Count())
		}
	})

	t.Run("unrelated mutations keep results valid", func(t *testing.T) {
		s := newSession(t, tu.NewMemoryHistoryStore())
		_ = s.Add(ctx, oceans, nil)
		p, _ := s.Prepare(ctx, grace)
		_ = s.Add(ctx, fortress, nil)
		if err := s.Commit(p, accept); err != nil {
			t.Errorf("Commit() error = %v", err)
		}
	})

	t.Run("concurrent prepare of the same song commits once", func(t *testing.T) {
		s := newSession(t, tu.NewMemoryHistoryStore())
		p1, _ := s.Prepare(ctx, grace)
		p2, _ := s.Prepare(ctx, grace)
		if err := s.Commit(p1, accept); err != nil {
			t.Fatalf("first Commit() error = %v", err)
		}
		if err := s.Commit(p2, accept); !errors.Is(err, playlist.ErrDuplicate) {
			t.Errorf("expected ErrDuplicate, got %v", err)
		}
	})
}

func TestSessionEditing(t *testing.T) {
	ctx := context.Background()
	s := newSession(t, tu.NewMemoryHistoryStore())
	for _, song := range []models.Song{grace, fortress, oceans} {
		if err := s.Add(ctx, song, nil); err != nil {
			t.Fatalf("Add() error = %v", err)
		}
	}

	if err := s.Move(0, 2); err != nil {
		t.Fatalf("Move() error = %v", err)
	}
	if got := itemTitles(s); !slices.Equal(got, []string{"Castelo Forte", "Oceanos", "Graça Maravilhosa"}) {
		t.Errorf("after Move: %v", got)
	}

	if _, err := s.RemoveSong(oceans.Key()); err != nil {
		t.Fatalf("RemoveSong() error = %v", err)
	}
	if removed, err := s.Remove(0); err != nil || removed.Title != "Castelo Forte" {
		t.Errorf("Remove() = (%+v, %v)", removed, err)
	}
	if _, err := s.Remove(5); !errors.Is(err, playlist.ErrIndexOutOfRange) {
		t.Errorf("expected ErrIndexOutOfRange, got %v", err)
	}

	t.Run("reorder commits through the session", func(t *testing.T) {
		s := newSession(t, tu.NewMemoryHistoryStore())
		for _, song := range []models.Song{grace, fortress, oceans} {
			_ = s.Add(ctx, song, nil)
		}

		r := s.Reorder(playlist.UniformLayout(3, 0, 1))
		if err := r.Start(2); err != nil {
			t.Fatalf("Start() error = %v", err)
		}
		r.Hover(0.5)
		if moved, err := r.End(); !moved || err != nil {
			t.Fatalf("End() = (%v, %v)", moved, err)
		}
		if got := itemTitles(s); !slices.Equal(got, []string{"Oceanos", "Graça Maravilhosa", "Castelo Forte"}) {
			t.Errorf("after reorder: %v", got)
		}
	})

	t.Run("new list defaults to today", func(t *testing.T) {
		today := models.NewDate(2026, 10, 15)
		s := NewSession(SessionOpts{
			GroupID: "central",
			History: tu.NewMemoryHistoryStore(),
			Logger:  shared.NewLogger(&bytes.Buffer{}),
			Now:     func() time.Time { return today.Add(9 * time.Hour) },
		})
		if !s.Date().Equal(today) {
			t.Errorf("initial date = %v", s.Date())
		}
		s.SetDate(serviceDate)
		s.NewList(time.Time{})
		if !s.Date().Equal(today) || s.GroupID() != "central" {
			t.Errorf("NewList() date = %v group = %s", s.Date(), s.GroupID())
		}
	})
}

func TestSessionHistory(t *testing.T) {
	ctx := context.Background()

	t.Run("save stores a copy and marks the list saved", func(t *testing.T) {
		store := tu.NewMemoryHistoryStore()
		s := newSession(t, store)
		_ = s.Add(ctx, grace, nil)
		_ = s.Add(ctx, oceans, nil)

		id, err := s.Save(ctx)
		if err != nil {
			t.Fatalf("Save() error = %v", err)
		}
		if s.Snapshot().Dirty {
			t.Error("list still dirty after save")
		}

		_, _ = s.Remove(0)
		entries := store.Entries()
		if len(entries) != 1 || entries[0].ID != id || len(entries[0].Items) != 2 {
			t.Errorf("stored entry aliased the live list: %+v", entries)
		}
	})

	t.Run("failed save leaves the list untouched", func(t *testing.T) {
		store := tu.NewMemoryHistoryStore()
		store.SaveErr = errors.New("permission denied")
		s := newSession(t, store)
		_ = s.Add(ctx, grace, nil)
		before := s.Snapshot()

		if _, err := s.Save(ctx); !errors.Is(err, shared.ErrSaveFailed) {
			t.Fatalf("expected ErrSaveFailed, got %v", err)
		}
		after := s.Snapshot()
		if !slices.Equal(before.Items, after.Items) || !after.Dirty {
			t.Errorf("failed save changed the list: %+v", after)
		}
	})

	t.Run("empty list is not saved", func(t *testing.T) {
		store := tu.NewMemoryHistoryStore()
		s := newSession(t, store)
		if _, err := s.Save(ctx); !errors.Is(err, ErrEmptyList) {
			t.Errorf("expected ErrEmptyList, got %v", err)
		}
		if len(store.Entries()) != 0 {
			t.Error("empty list reached the store")
		}
	})

	t.Run("history is newest first and scoped to the group", func(t *testing.T) {
		base := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
		store := tu.NewMemoryHistoryStore(
			models.HistoryEntry{ID: "old", GroupID: "central", Date: serviceDate, SavedAt: base},
			models.HistoryEntry{ID: "new", GroupID: "central", Date: serviceDate, SavedAt: base.Add(time.Hour)},
			models.HistoryEntry{ID: "other", GroupID: "jardim", Date: serviceDate, SavedAt: base.Add(2 * time.Hour)},
		)
		s := newSession(t, store)

		entries, err := s.History(ctx)
		if err != nil {
			t.Fatalf("History() error = %v", err)
		}
		var ids []string
		for _, e := range entries {
			ids = append(ids, e.ID)
		}
		if !slices.Equal(ids, []string{"new", "old"}) {
			t.Errorf("History() ids = %v, want [new old]", ids)
		}
	})

	t.Run("load entry replaces the list and invalidates pending adds", func(t *testing.T) {
		store := tu.NewMemoryHistoryStore(models.HistoryEntry{
			ID: "e1", GroupID: "central", Date: serviceDate.AddDate(0, 0, -7),
			Items: []models.Song{fortress, oceans}, SavedAt: serviceDate,
		})
		s := newSession(t, store)
		_ = s.Add(ctx, grace, nil)
		p, _ := s.Prepare(ctx, models.Song{Title: "Te Louvarei", Origin: models.OriginLoose})

		entry, err := s.LoadEntry(ctx, "e1")
		if err != nil {
			t.Fatalf("LoadEntry() error = %v", err)
		}
		if got := itemTitles(s); !slices.Equal(got, []string{"Castelo Forte", "Oceanos"}) {
			t.Errorf("items after load = %v", got)
		}
		if !s.Date().Equal(entry.Date) || s.Snapshot().Dirty {
			t.Errorf("loaded list date = %v dirty = %v", s.Date(), s.Snapshot().Dirty)
		}
		if err := s.Commit(p, accept); !errors.Is(err, ErrStaleResult) {
			t.Errorf("expected ErrStaleResult, got %v", err)
		}

		_, _ = s.Remove(0)
		if len(store.Entries()[0].Items) != 2 {
			t.Error("editing the loaded list changed the stored entry")
		}

		if _, err := s.LoadEntry(ctx, "missing"); !errors.Is(err, ErrEntryNotFound) {
			t.Errorf("expected ErrEntryNotFound, got %v", err)
		}
	})

	t.Run("delete", func(t *testing.T) {
		store := tu.NewMemoryHistoryStore(models.HistoryEntry{ID: "e1", GroupID: "central", Date: serviceDate})
		s := newSession(t, store)
		if err := s.DeleteEntry(ctx, "e1"); err != nil {
			t.Fatalf("DeleteEntry() error = %v", err)
		}
		if len(store.Entries()) != 0 {
			t.Error("entry not deleted")
		}

		store.DeleteErr = errors.New("boom")
		if err := s.DeleteEntry(ctx, "e2"); !errors.Is(err, shared.ErrDeleteFailed) {
			t.Errorf("expected ErrDeleteFailed, got %v", err)
		}
	})
}

func TestSessionSnapshots(t *testing.T) {
	ctx := context.Background()
	snaps := &tu.MemorySnapshotStore{}

	s := NewSession(SessionOpts{
		GroupID:   "central",
		Date:      serviceDate,
		History:   tu.NewMemoryHistoryStore(),
		Snapshots: snaps,
		Logger:    shared.NewLogger(&bytes.Buffer{}),
	})

	if ok, err := s.Restore(ctx); ok || err != nil {
		t.Fatalf("Restore() on empty store = (%v, %v)", ok, err)
	}

	_ = s.Add(ctx, grace, nil)
	_ = s.Add(ctx, oceans, nil)
	if err := s.Persist(ctx); err != nil {
		t.Fatalf("Persist() error = %v", err)
	}

	restored := NewSession(SessionOpts{
		GroupID:   "jardim",
		History:   tu.NewMemoryHistoryStore(),
		Snapshots: snaps,
		Logger:    shared.NewLogger(&bytes.Buffer{}),
	})
	ok, err := restored.Restore(ctx)
	if !ok || err != nil {
		t.Fatalf("Restore() = (%v, %v)", ok, err)
	}
	if got := itemTitles(restored); !slices.Equal(got, []string{"Graça Maravilhosa", "Oceanos"}) {
		t.Errorf("restored items = %v", got)
	}
	if restored.GroupID() != "central" || !restored.Date().Equal(serviceDate) {
		t.Errorf("restored group = %s date = %v", restored.GroupID(), restored.Date())
	}

	snaps.Err = errors.New("disk full")
	if err := s.Persist(ctx); !errors.Is(err, shared.ErrSaveFailed) {
		t.Errorf("expected ErrSaveFailed, got %v", err)
	}
}

func TestSessionProgress(t *testing.T) {
	ctx := context.Background()
	progress := make(chan ProgressUpdate, 10)
	s := NewSession(SessionOpts{
		GroupID:  "central",
		Date:     serviceDate,
		History:  tu.NewMemoryHistoryStore(),
		Logger:   shared.NewLogger(&bytes.Buffer{}),
		Progress: progress,
	})

	if _, err := s.LoadCatalog(ctx, tu.StaticCatalog{Songs: []models.Song{grace}}); err != nil {
		t.Fatalf("LoadCatalog() error = %v", err)
	}
	close(progress)

	var phases []string
	for u := range progress {
		phases = append(phases, u.Phase.String())
	}
	if !slices.Equal(phases, []string{"load_catalog", "load_catalog"}) {
		t.Errorf("phases = %v", phases)
	}

	t.Run("full channel never blocks", func(t *testing.T) {
		full := make(chan ProgressUpdate)
		s := NewSession(SessionOpts{GroupID: "central", History: tu.NewMemoryHistoryStore(), Logger: shared.NewLogger(&bytes.Buffer{}), Progress: full})
		if _, err := s.LoadCatalog(ctx, tu.StaticCatalog{Songs: []models.Song{grace}}); err != nil {
			t.Errorf("LoadCatalog() error = %v", err)
		}
	})
}
