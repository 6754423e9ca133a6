package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/setlist/internal/models"
	"github.com/desertthunder/setlist/internal/playlist"
	"github.com/desertthunder/setlist/internal/repositories"
	"github.com/desertthunder/setlist/internal/shared"
	"github.com/desertthunder/setlist/internal/tasks"
	tu "github.com/desertthunder/setlist/internal/testing"
)

var (
	sunday   = models.NewDate(2026, 10, 18)
	grace    = models.Song{Number: "12", Title: "Graça Maravilhosa", Origin: models.OriginCongregation}
	fortress = models.Song{Number: "30", Title: "Castelo Forte", Origin: models.OriginCongregation}
	oceans   = models.Song{Title: "Oceanos", Origin: models.OriginLoose}
)

type fixture struct {
	handler   http.Handler
	session   *tasks.Session
	history   *tu.MemoryHistoryStore
	snapshots *tu.MemorySnapshotStore
	logs      *bytes.Buffer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	history := tu.NewMemoryHistoryStore(models.HistoryEntry{
		ID:      "previous",
		GroupID: "central",
		Date:    sunday.AddDate(0, 0, -3),
		Items:   []models.Song{grace},
		SavedAt: time.Date(2026, 10, 15, 20, 0, 0, 0, time.UTC),
	})
	history.Now = func() time.Time { return time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC) }
	snapshots := &tu.MemorySnapshotStore{}
	logs := &bytes.Buffer{}
	logger := shared.NewLogger(logs)

	session := tasks.NewSession(tasks.SessionOpts{
		GroupID:   "central",
		Date:      sunday,
		Guard:     playlist.Guard{WindowDays: 5},
		History:   history,
		Snapshots: snapshots,
		Logger:    logger,
	})
	if _, err := session.LoadCatalog(context.Background(), tu.StaticCatalog{Songs: []models.Song{grace, fortress, oceans}}); err != nil {
		t.Fatalf("LoadCatalog() error = %v", err)
	}

	srv := New(shared.ServerConfig{Host: "127.0.0.1", Port: 0}, session, logger)
	return &fixture{handler: srv.Handler(), session: session, history: history, snapshots: snapshots, logs: logs}
}

func (f *fixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("failed to decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func displays(p playlistResponse) []string {
	var out []string
	for _, item := range p.Items {
		out = append(out, item.Display)
	}
	return out
}

func TestAPISearch(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name      string
		path      string
		status    int
		wantTotal int
	}{
		{name: "accent insensitive", path: "/catalog/search?q=graca", status: http.StatusOK, wantTotal: 1},
		{name: "by number", path: "/catalog/search?q=30", status: http.StatusOK, wantTotal: 1},
		{name: "limited", path: "/catalog/search?q=a&limit=1", status: http.StatusOK, wantTotal: 3},
		{name: "blank query", path: "/catalog/search?q=", status: http.StatusOK, wantTotal: 0},
		{name: "fuzzy", path: "/catalog/search?q=cstl+frt&fuzzy=true", status: http.StatusOK, wantTotal: 1},
		{name: "bad limit", path: "/catalog/search?q=x&limit=abc", status: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(t, http.MethodGet, tt.path, "")
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.status, rec.Body.String())
			}
			if tt.status != http.StatusOK {
				return
			}
			got := decodeBody[struct {
				Songs     []songResponse `json:"songs"`
				Total     int            `json:"total"`
				Truncated bool           `json:"truncated"`
			}](t, rec)
			if got.Total != tt.wantTotal {
				t.Errorf("total = %d, want %d", got.Total, tt.wantTotal)
			}
			if got.Truncated != (len(got.Songs) < got.Total) {
				t.Errorf("truncated = %v with %d of %d", got.Truncated, len(got.Songs), got.Total)
			}
		})
	}
}

func TestAPIAdd(t *testing.T) {
	t.Run("plain add", func(t *testing.T) {
		f := newFixture(t)

		rec := f.do(t, http.MethodPost, "/playlist/items", `{"origin":"congregacao","number":"30"}`)
		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
		}
		got := decodeBody[playlistResponse](t, rec)
		if len(got.Items) != 1 || got.Items[0].Title != "Castelo Forte" || !got.Dirty {
			t.Errorf("unexpected playlist: %+v", got)
		}
		if snap, _ := f.snapshots.LoadCurrent(context.Background()); snap == nil || len(snap.Items) != 1 {
			t.Errorf("snapshot not persisted: %+v", snap)
		}
	})

	t.Run("loose song by title", func(t *testing.T) {
		f := newFixture(t)
		rec := f.do(t, http.MethodPost, "/playlist/items", `{"origin":"loose","title":"oceanos"}`)
		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("duplicate is rejected", func(t *testing.T) {
		f := newFixture(t)
		f.do(t, http.MethodPost, "/playlist/items", `{"origin":"congregacao","number":"30"}`)

		rec := f.do(t, http.MethodPost, "/playlist/items", `{"origin":"congregacao","number":"30"}`)
		if rec.Code != http.StatusConflict {
			t.Errorf("status = %d, want 409", rec.Code)
		}
		if f.session.Count() != 1 {
			t.Errorf("count = %d", f.session.Count())
		}
	})

	t.Run("recent song needs confirmation", func(t *testing.T) {
		f := newFixture(t)

		rec := f.do(t, http.MethodPost, "/playlist/items", `{"origin":"congregacao","number":"12"}`)
		if rec.Code != http.StatusConflict {
			t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
		}
		conflict := decodeBody[conflictResponse](t, rec)
		if conflict.EntryID != "previous" || conflict.DaysAgo != 3 || conflict.Date != "2026-10-15" {
			t.Errorf("unexpected conflict: %+v", conflict)
		}
		if f.session.Count() != 0 {
			t.Error("list changed without confirmation")
		}

		rec = f.do(t, http.MethodPost, "/playlist/items", `{"origin":"congregacao","number":"12","confirm":true}`)
		if rec.Code != http.StatusCreated {
			t.Fatalf("confirmed status = %d: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("history outage adds with a warning", func(t *testing.T) {
		f := newFixture(t)
		f.history.FetchErr = errors.New("backend unavailable")

		rec := f.do(t, http.MethodPost, "/playlist/items", `{"origin":"congregacao","number":"12"}`)
		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
		}
		got := decodeBody[playlistResponse](t, rec)
		if len(got.Items) != 1 || !strings.Contains(got.Warning, "backend unavailable") {
			t.Errorf("unexpected playlist: %+v", got)
		}
	})

	t.Run("bad requests", func(t *testing.T) {
		f := newFixture(t)

		tests := []struct {
			body   string
			status int
		}{
			{`{"origin":"hinario","number":"1"}`, http.StatusBadRequest},
			{`{"origin":"congregacao"}`, http.StatusBadRequest},
			{`{"origin":"congregacao","number":"999"}`, http.StatusNotFound},
			{`{"origin":"congregacao","number":"1","extra":true}`, http.StatusBadRequest},
			{`not json`, http.StatusBadRequest},
		}
		for _, tt := range tests {
			if rec := f.do(t, http.MethodPost, "/playlist/items", tt.body); rec.Code != tt.status {
				t.Errorf("%s: status = %d, want %d", tt.body, rec.Code, tt.status)
			}
		}
	})
}

func TestAPIEditing(t *testing.T) {
	f := newFixture(t)
	for _, body := range []string{
		`{"origin":"congregacao","number":"30"}`,
		`{"origin":"avulsos","title":"Oceanos"}`,
		`{"origin":"congregacao","number":"12","confirm":true}`,
	} {
		if rec := f.do(t, http.MethodPost, "/playlist/items", body); rec.Code != http.StatusCreated {
			t.Fatalf("add %s: %d", body, rec.Code)
		}
	}

	rec := f.do(t, http.MethodPost, "/playlist/move", `{"from":0,"to":2}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("move status = %d: %s", rec.Code, rec.Body.String())
	}
	want := []string{"Oceanos", "12 - Graça Maravilhosa", "30 - Castelo Forte"}
	if got := displays(decodeBody[playlistResponse](t, rec)); fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("after move = %v, want %v", got, want)
	}

	if rec := f.do(t, http.MethodPost, "/playlist/move", `{"from":0,"to":3}`); rec.Code != http.StatusBadRequest {
		t.Errorf("out of range move status = %d", rec.Code)
	}

	rec = f.do(t, http.MethodDelete, "/playlist/items/1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("remove status = %d", rec.Code)
	}
	if got := decodeBody[playlistResponse](t, rec); len(got.Items) != 2 || got.Items[1].Index != 1 || got.Items[1].Number != "30" {
		t.Errorf("after remove = %+v", got.Items)
	}

	if rec := f.do(t, http.MethodDelete, "/playlist/items/7", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("out of range remove status = %d", rec.Code)
	}
	if rec := f.do(t, http.MethodDelete, "/playlist/items/first", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("non-numeric remove status = %d", rec.Code)
	}

	rec = f.do(t, http.MethodDelete, "/playlist", "")
	if got := decodeBody[playlistResponse](t, rec); rec.Code != http.StatusOK || len(got.Items) != 0 {
		t.Errorf("clear = %d %+v", rec.Code, got)
	}
}

func TestAPINewList(t *testing.T) {
	f := newFixture(t)
	f.do(t, http.MethodPost, "/playlist/items", `{"origin":"congregacao","number":"30"}`)
	before := decodeBody[playlistResponse](t, f.do(t, http.MethodGet, "/playlist", ""))

	rec := f.do(t, http.MethodPost, "/playlist/new", `{"date":"2026-10-25","group":"jardim"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	got := decodeBody[playlistResponse](t, rec)
	if got.Date != "2026-10-25" || got.GroupID != "jardim" || len(got.Items) != 0 {
		t.Errorf("unexpected list: %+v", got)
	}
	if got.Generation <= before.Generation {
		t.Errorf("generation did not advance: %d -> %d", before.Generation, got.Generation)
	}

	if rec := f.do(t, http.MethodPost, "/playlist/new", `{"date":"25/10/2026"}`); rec.Code != http.StatusBadRequest {
		t.Errorf("bad date status = %d", rec.Code)
	}
	if rec := f.do(t, http.MethodPost, "/playlist/new", ""); rec.Code != http.StatusCreated {
		t.Errorf("empty body status = %d", rec.Code)
	}
}

func TestAPIHistory(t *testing.T) {
	f := newFixture(t)

	if rec := f.do(t, http.MethodPost, "/playlist/save", ""); rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("empty save status = %d", rec.Code)
	}

	f.do(t, http.MethodPost, "/playlist/items", `{"origin":"congregacao","number":"30"}`)
	rec := f.do(t, http.MethodPost, "/playlist/save", "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("save status = %d: %s", rec.Code, rec.Body.String())
	}
	id := decodeBody[map[string]string](t, rec)["id"]
	if id == "" {
		t.Fatal("save returned no id")
	}

	rec = f.do(t, http.MethodGet, "/history", "")
	entries := decodeBody[[]entryResponse](t, rec)
	if len(entries) != 2 || entries[0].ID != id || entries[1].ID != "previous" {
		t.Fatalf("history = %+v", entries)
	}

	rec = f.do(t, http.MethodPost, "/history/previous/load", "")
	if got := decodeBody[playlistResponse](t, rec); rec.Code != http.StatusOK || got.Date != "2026-10-15" || got.Dirty {
		t.Errorf("load = %d %+v", rec.Code, got)
	}
	if rec := f.do(t, http.MethodPost, "/history/missing/load", ""); rec.Code != http.StatusNotFound {
		t.Errorf("missing load status = %d", rec.Code)
	}

	if rec := f.do(t, http.MethodDelete, "/history/"+id, ""); rec.Code != http.StatusNoContent {
		t.Errorf("delete status = %d", rec.Code)
	}
	if len(f.history.Entries()) != 1 {
		t.Errorf("entries after delete = %+v", f.history.Entries())
	}

	f.history.FetchErr = errors.New("offline")
	if rec := f.do(t, http.MethodGet, "/history", ""); rec.Code != http.StatusBadGateway {
		t.Errorf("failing store status = %d", rec.Code)
	}
}

func TestAPIExport(t *testing.T) {
	f := newFixture(t)
	f.do(t, http.MethodPost, "/playlist/items", `{"origin":"congregacao","number":"30"}`)

	tests := []struct {
		format      string
		contentType string
		contains    string
	}{
		{"", "text/plain; charset=utf-8", "Castelo Forte"},
		{"markdown", "text/markdown; charset=utf-8", "Castelo Forte"},
		{"csv", "text/csv; charset=utf-8", "Position,Origin,Number,Title"},
		{"json", "application/json", `"Castelo Forte"`},
	}

	for _, tt := range tests {
		t.Run("format "+tt.format, func(t *testing.T) {
			rec := f.do(t, http.MethodGet, "/playlist/export?format="+tt.format, "")
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
			}
			if got := rec.Header().Get("Content-Type"); got != tt.contentType {
				t.Errorf("Content-Type = %q", got)
			}
			if !strings.Contains(rec.Body.String(), tt.contains) {
				t.Errorf("body %q missing %q", rec.Body.String(), tt.contains)
			}
			if !strings.Contains(rec.Header().Get("Content-Disposition"), "central_2026-10-18") {
				t.Errorf("Content-Disposition = %q", rec.Header().Get("Content-Disposition"))
			}
		})
	}

	if rec := f.do(t, http.MethodGet, "/playlist/export?format=pdf", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("unknown format status = %d", rec.Code)
	}
}

func TestRouting(t *testing.T) {
	f := newFixture(t)

	if rec := f.do(t, http.MethodGet, "/healthz", ""); rec.Code != http.StatusOK {
		t.Errorf("healthz status = %d", rec.Code)
	}
	if rec := f.do(t, http.MethodGet, "/playlist/save", ""); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("wrong method status = %d", rec.Code)
	}
	if rec := f.do(t, http.MethodGet, "/nowhere", ""); rec.Code != http.StatusNotFound {
		t.Errorf("unknown path status = %d", rec.Code)
	}
	if !strings.Contains(f.logs.String(), "path=/healthz") {
		t.Errorf("request not logged: %s", f.logs.String())
	}
}

func TestMiddleware(t *testing.T) {
	t.Run("applied in order added", func(t *testing.T) {
		var order []string
		mark := func(name string) Middleware {
			return func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					order = append(order, name)
					next.ServeHTTP(w, r)
				})
			}
		}

		router := NewBasicRouter()
		router.Use(mark("first"), mark("second"))
		router.HandleFunc(http.MethodGet, "/", func(w http.ResponseWriter, r *http.Request) {
			order = append(order, "handler")
		})

		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
		if fmt.Sprint(order) != "[first second handler]" {
			t.Errorf("order = %v", order)
		}
	})

	t.Run("recover", func(t *testing.T) {
		logs := &bytes.Buffer{}
		router := NewBasicRouter()
		router.Use(Recover(shared.NewLogger(logs)))
		router.HandleFunc(http.MethodGet, "/boom", func(w http.ResponseWriter, r *http.Request) {
			panic("boom")
		})

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))
		if rec.Code != http.StatusInternalServerError {
			t.Errorf("status = %d", rec.Code)
		}
		if !strings.Contains(logs.String(), "handler panic") {
			t.Errorf("panic not logged: %s", logs.String())
		}
	})
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: x", playlist.ErrDuplicate), http.StatusConflict},
		{tasks.ErrStaleResult, http.StatusConflict},
		{fmt.Errorf("%w: x", tasks.ErrEntryNotFound), http.StatusNotFound},
		{fmt.Errorf("%w: %w", shared.ErrDeleteFailed, repositories.ErrNotFound), http.StatusNotFound},
		{playlist.ErrIndexOutOfRange, http.StatusBadRequest},
		{tasks.ErrEmptyList, http.StatusUnprocessableEntity},
		{tasks.ErrCatalogNotLoaded, http.StatusServiceUnavailable},
		{fmt.Errorf("%w: offline", shared.ErrSaveFailed), http.StatusBadGateway},
		{errors.New("unexpected"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestServerRun(t *testing.T) {
	f := newFixture(t)
	srv := New(shared.ServerConfig{Host: "127.0.0.1", Port: 0}, f.session, shared.NewLogger(&bytes.Buffer{}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
