// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/setlist/internal/models"
)

// MemoryHistoryStore is an in-memory history store (see [tasks.HistoryStore]).
//
// Setting FetchErr, SaveErr or DeleteErr makes the matching call fail without touching the stored entries.
type MemoryHistoryStore struct {
	mu      sync.Mutex
	entries []models.HistoryEntry
	nextID  int

	FetchErr  error
	SaveErr   error
	DeleteErr error

	// Fetches counts FetchHistory calls.
	Fetches int
	// OnFetch runs at the start of FetchHistory, outside the store lock.
	OnFetch func()
	// Now stamps SavedAt; defaults to time.Now.
	Now func() time.Time
}

// NewMemoryHistoryStore creates a store holding copies of entries.
func NewMemoryHistoryStore(entries ...models.HistoryEntry) *MemoryHistoryStore {
	m := &MemoryHistoryStore{}
	for _, e := range entries {
		e.Items = models.CloneSongs(e.Items)
		m.entries = append(m.entries, e)
	}
	return m
}

func (m *MemoryHistoryStore) FetchHistory(ctx context.Context, groupID string) ([]models.HistoryEntry, error) {
	if m.OnFetch != nil {
		m.OnFetch()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.Fetches++
	if m.FetchErr != nil {
		return nil, m.FetchErr
	}

	var out []models.HistoryEntry
	for _, e := range m.entries {
		if e.GroupID == groupID {
			e.Items = models.CloneSongs(e.Items)
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *MemoryHistoryStore) Save(ctx context.Context, groupID string, date time.Time, items []models.Song) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.SaveErr != nil {
		return "", m.SaveErr
	}

	now := time.Now
	if m.Now != nil {
		now = m.Now
	}

	m.nextID++
	id := fmt.Sprintf("entry-%d", m.nextID)
	m.entries = append(m.entries, models.HistoryEntry{
		ID:      id,
		GroupID: groupID,
		Date:    models.DateOf(date),
		Items:   models.CloneSongs(items),
		SavedAt: now(),
	})
	return id, nil
}

func (m *MemoryHistoryStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	m.entries = slices.DeleteFunc(m.entries, func(e models.HistoryEntry) bool { return e.ID == id })
	return nil
}

// Entries returns a copy of everything stored, across groups.
func (m *MemoryHistoryStore) Entries() []models.HistoryEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.entries)
}

// MemorySnapshotStore keeps the last saved working list (see [tasks.SnapshotStore]).
type MemorySnapshotStore struct {
	mu      sync.Mutex
	current *models.PlaylistSnapshot
	Err     error
}

func (m *MemorySnapshotStore) SaveCurrent(ctx context.Context, snap models.PlaylistSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	snap.Items = models.CloneSongs(snap.Items)
	m.current = &snap
	return nil
}

func (m *MemorySnapshotStore) LoadCurrent(ctx context.Context) (*models.PlaylistSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	if m.current == nil {
		return nil, nil
	}
	snap := *m.current
	snap.Items = models.CloneSongs(snap.Items)
	return &snap, nil
}

// StaticCatalog is a catalog source that returns fixed songs, or Err.
type StaticCatalog struct {
	Songs []models.Song
	Err   error
}

func (s StaticCatalog) LoadCatalog(ctx context.Context) ([]models.Song, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	return models.CloneSongs(s.Songs), nil
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
