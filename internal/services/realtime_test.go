package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/setlist/internal/models"
	"github.com/desertthunder/setlist/internal/shared"
	tu "github.com/desertthunder/setlist/internal/testing"
)

// fakeRealtime is a minimal in-memory stand-in for the realtime database REST interface.
type fakeRealtime struct {
	mu       sync.Mutex
	entries  map[string]realtimeEntry
	next     int
	requests []string
}

func newFakeRealtime() *fakeRealtime {
	return &fakeRealtime{entries: map[string]realtimeEntry{}}
}

func (f *fakeRealtime) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.requests = append(f.requests, r.Method+" "+r.URL.RequestURI())

	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/history.json":
		var e realtimeEntry
		if err := json.NewDecoder(r.Body).Decode(&e); err != nil {
			http.Error(w, `{"error":"Invalid data"}`, http.StatusBadRequest)
			return
		}
		f.next++
		key := fmt.Sprintf("-key%03d", f.next)
		f.entries[key] = e
		_ = json.NewEncoder(w).Encode(map[string]string{"name": key})

	case r.Method == http.MethodGet && r.URL.Path == "/history.json":
		if r.URL.Query().Get("orderBy") != `"groupId"` {
			http.Error(w, `{"error":"orderBy must be a valid JSON encoded path"}`, http.StatusBadRequest)
			return
		}
		group := strings.Trim(r.URL.Query().Get("equalTo"), `"`)
		out := map[string]realtimeEntry{}
		for k, e := range f.entries {
			if e.GroupID == group {
				out[k] = e
			}
		}
		if len(out) == 0 {
			_, _ = w.Write([]byte("null"))
			return
		}
		_ = json.NewEncoder(w).Encode(out)

	case r.Method == http.MethodDelete && strings.HasPrefix(r.URL.Path, "/history/"):
		key := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/history/"), ".json")
		delete(f.entries, key)
		_, _ = w.Write([]byte("null"))

	default:
		http.NotFound(w, r)
	}
}

func newTestStore(t *testing.T, url string) *RealtimeStore {
	t.Helper()
	store, err := NewRealtimeStore(shared.RealtimeConfig{URL: url + "/", TimeoutSeconds: 5}, nil, shared.NewLogger(&bytes.Buffer{}))
	if err != nil {
		t.Fatalf("NewRealtimeStore() error = %v", err)
	}
	return store
}

func TestRealtimeStore(t *testing.T) {
	ctx := context.Background()
	sunday := models.NewDate(2026, 10, 18)
	grace := models.Song{Number: "12", Title: "Graça Maravilhosa", Origin: models.OriginCongregation}
	oceans := models.Song{Title: "Oceanos", Origin: models.OriginLoose}

	t.Run("save, fetch and delete round trip", func(t *testing.T) {
		fake := newFakeRealtime()
		srv := httptest.NewServer(fake)
		defer srv.Close()

		store := newTestStore(t, srv.URL)
		base := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
		store.now = func() time.Time { return base }

		first, err := store.Save(ctx, "central", sunday, []models.Song{grace, oceans})
		if err != nil {
			t.Fatalf("Save() error = %v", err)
		}
		store.now = func() time.Time { return base.Add(time.Minute) }
		second, _ := store.Save(ctx, "central", sunday.AddDate(0, 0, -7), []models.Song{oceans})
		_, _ = store.Save(ctx, "jardim", sunday, []models.Song{grace})

		entries, err := store.FetchHistory(ctx, "central")
		if err != nil {
			t.Fatalf("FetchHistory() error = %v", err)
		}
		if len(entries) != 2 || entries[0].ID != first || entries[1].ID != second {
			t.Fatalf("unexpected entries: %+v", entries)
		}
		if !entries[0].Date.Equal(sunday) || len(entries[0].Items) != 2 || entries[0].Items[0] != grace {
			t.Errorf("entry not decoded: %+v", entries[0])
		}
		if !entries[1].SavedAt.Equal(base.Add(time.Minute)) {
			t.Errorf("SavedAt = %v", entries[1].SavedAt)
		}

		if err := store.Delete(ctx, first); err != nil {
			t.Fatalf("Delete() error = %v", err)
		}
		entries, _ = store.FetchHistory(ctx, "central")
		if len(entries) != 1 || entries[0].ID != second {
			t.Errorf("after delete: %+v", entries)
		}

		if !strings.Contains(fake.requests[3], `orderBy=%22groupId%22&equalTo=%22central%22`) {
			t.Errorf("unexpected query request: %s", fake.requests[3])
		}
	})

	t.Run("empty group reads as null", func(t *testing.T) {
		srv := httptest.NewServer(newFakeRealtime())
		defer srv.Close()

		entries, err := newTestStore(t, srv.URL).FetchHistory(ctx, "vila")
		if err != nil || len(entries) != 0 {
			t.Errorf("FetchHistory() = (%v, %v)", entries, err)
		}
	})

	t.Run("server errors are wrapped", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"error":"Permission denied"}`, http.StatusUnauthorized)
		}))
		defer srv.Close()

		store := newTestStore(t, srv.URL)
		if _, err := store.Save(ctx, "central", sunday, nil); !errors.Is(err, shared.ErrSaveFailed) {
			t.Errorf("Save() error = %v", err)
		}
		_, err := store.FetchHistory(ctx, "central")
		if !errors.Is(err, shared.ErrFetchFailed) || !strings.Contains(err.Error(), "Permission denied") {
			t.Errorf("FetchHistory() error = %v", err)
		}
		if err := store.Delete(ctx, "-key001"); !errors.Is(err, shared.ErrDeleteFailed) {
			t.Errorf("Delete() error = %v", err)
		}
	})

	t.Run("malformed push response", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"unexpected": true}`))
		}))
		defer srv.Close()

		if _, err := newTestStore(t, srv.URL).Save(ctx, "central", sunday, nil); !errors.Is(err, shared.ErrSaveFailed) {
			t.Errorf("Save() error = %v", err)
		}
	})

	t.Run("transport failures", func(t *testing.T) {
		client := &http.Client{Transport: tu.NewMockRoundTripper(nil, errors.New("connection failed"))}
		store, _ := NewRealtimeStore(shared.RealtimeConfig{URL: "https://example.invalid"}, client, nil)
		if _, err := store.FetchHistory(ctx, "central"); !errors.Is(err, shared.ErrFetchFailed) {
			t.Errorf("FetchHistory() error = %v", err)
		}

		client = &http.Client{Transport: tu.NewMockRoundTripper(&http.Response{
			StatusCode: http.StatusOK,
			Body:       &tu.FCloser{},
		}, nil)}
		store, _ = NewRealtimeStore(shared.RealtimeConfig{URL: "https://example.invalid"}, client, nil)
		if _, err := store.FetchHistory(ctx, "central"); err == nil || !strings.Contains(err.Error(), "failed to read response") {
			t.Errorf("FetchHistory() error = %v", err)
		}
	})

	t.Run("invalid ids are rejected locally", func(t *testing.T) {
		store, _ := NewRealtimeStore(shared.RealtimeConfig{URL: "https://example.invalid"}, nil, nil)
		for _, id := range []string{"", "a/b", "a.b"} {
			if err := store.Delete(ctx, id); !errors.Is(err, shared.ErrDeleteFailed) {
				t.Errorf("Delete(%q) error = %v", id, err)
			}
		}
	})

	t.Run("cancelled context stops at the limiter", func(t *testing.T) {
		store, _ := NewRealtimeStore(shared.RealtimeConfig{URL: "https://example.invalid", RateLimit: 0.001}, nil, nil)
		store.limiter.Allow() // drain the single token

		cctx, cancel := context.WithCancel(ctx)
		cancel()
		if _, err := store.FetchHistory(cctx, "central"); !errors.Is(err, shared.ErrFetchFailed) {
			t.Errorf("FetchHistory() error = %v", err)
		}
	})

	t.Run("missing url", func(t *testing.T) {
		if _, err := NewRealtimeStore(shared.RealtimeConfig{}, nil, nil); !errors.Is(err, shared.ErrMissingConfig) {
			t.Errorf("expected ErrMissingConfig, got %v", err)
		}
	})
}
