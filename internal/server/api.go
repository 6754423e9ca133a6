package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/setlist/internal/formatter"
	"github.com/desertthunder/setlist/internal/models"
	"github.com/desertthunder/setlist/internal/playlist"
	"github.com/desertthunder/setlist/internal/repositories"
	"github.com/desertthunder/setlist/internal/shared"
	"github.com/desertthunder/setlist/internal/tasks"
)

// API serves the catalog, the live list and its history as JSON.
type API struct {
	session *tasks.Session
	logger  *log.Logger
	mux     *http.ServeMux
}

// NewAPI creates the API handler for session.
func NewAPI(session *tasks.Session, logger *log.Logger) *API {
	a := &API{session: session, logger: logger, mux: http.NewServeMux()}

	a.mux.HandleFunc("GET /catalog/search", a.search)
	a.mux.HandleFunc("GET /playlist", a.show)
	a.mux.HandleFunc("POST /playlist/new", a.newList)
	a.mux.HandleFunc("POST /playlist/items", a.addItem)
	a.mux.HandleFunc("DELETE /playlist/items/{index}", a.removeItem)
	a.mux.HandleFunc("POST /playlist/move", a.move)
	a.mux.HandleFunc("DELETE /playlist", a.clear)
	a.mux.HandleFunc("POST /playlist/save", a.save)
	a.mux.HandleFunc("GET /playlist/export", a.export)
	a.mux.HandleFunc("GET /history", a.history)
	a.mux.HandleFunc("POST /history/{id}/load", a.loadEntry)
	a.mux.HandleFunc("DELETE /history/{id}", a.deleteEntry)

	return a
}

// Routes returns the path prefixes the API owns.
func (a *API) Routes() []string {
	return []string{"/catalog/", "/playlist", "/playlist/", "/history", "/history/"}
}

func (a *API) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.mux.ServeHTTP(w, r)
}

type songResponse struct {
	Origin  string `json:"origin"`
	Label   string `json:"label"`
	Number  string `json:"number,omitempty"`
	Title   string `json:"title"`
	Display string `json:"display"`
}

func newSongResponse(s models.Song) songResponse {
	return songResponse{
		Origin:  string(s.Origin),
		Label:   s.Origin.Label(),
		Number:  s.Number,
		Title:   s.Title,
		Display: s.Display(),
	}
}

// itemResponse is a list item with the zero-based index the remove and move routes take.
type itemResponse struct {
	Index int `json:"index"`
	songResponse
}

func newItems(songs []models.Song) []itemResponse {
	items := make([]itemResponse, 0, len(songs))
	for i, s := range songs {
		items = append(items, itemResponse{Index: i, songResponse: newSongResponse(s)})
	}
	return items
}

// playlistResponse carries the list generation so clients can tell when another request replaced it.
type playlistResponse struct {
	GroupID    string         `json:"groupId"`
	Date       string         `json:"date"`
	Dirty      bool           `json:"dirty"`
	Generation uint64         `json:"generation"`
	Items      []itemResponse `json:"items"`
	Warning    string         `json:"warning,omitempty"`
}

func (a *API) playlist() playlistResponse {
	snap := a.session.Snapshot()
	return playlistResponse{
		GroupID:    snap.GroupID,
		Date:       models.FormatDate(snap.Date),
		Dirty:      snap.Dirty,
		Generation: a.session.Generation(),
		Items:      newItems(snap.Items),
	}
}

type entryResponse struct {
	ID      string         `json:"id"`
	GroupID string         `json:"groupId"`
	Date    string         `json:"date"`
	SavedAt time.Time      `json:"savedAt"`
	Items   []itemResponse `json:"items"`
}

func newEntryResponse(e models.HistoryEntry) entryResponse {
	return entryResponse{ID: e.ID, GroupID: e.GroupID, Date: models.FormatDate(e.Date), SavedAt: e.SavedAt, Items: newItems(e.Items)}
}

type conflictResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	EntryID string `json:"entryId"`
	Date    string `json:"date"`
	DaysAgo int    `json:"daysAgo"`
	Song    string `json:"song"`
}

func (a *API) search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid limit %q", v))
			return
		}
		limit = n
	}

	search := a.session.Search
	if r.URL.Query().Get("fuzzy") == "true" {
		search = a.session.FuzzySearch
	}

	result, err := search(query, limit)
	if err != nil {
		a.fail(w, err)
		return
	}

	songs := make([]songResponse, 0, len(result.Songs))
	for _, s := range result.Songs {
		songs = append(songs, newSongResponse(s))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"songs":     songs,
		"total":     result.Total,
		"truncated": result.Truncated(),
	})
}

func (a *API) show(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.playlist())
}

type newListRequest struct {
	Date  string `json:"date"`
	Group string `json:"group"`
}

func (a *API) newList(w http.ResponseWriter, r *http.Request) {
	var req newListRequest
	if !decode(w, r, &req) {
		return
	}

	var date time.Time
	if req.Date != "" {
		d, err := models.ParseDate(req.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		date = d
	}

	if req.Group != "" {
		a.session.SetGroup(req.Group)
	}
	a.session.NewList(date)
	a.persist(r.Context())
	resp := a.playlist()
	if pending.RecencyErr != nil {
		resp.Warning = "recency not checked: " + pending.RecencyErr.Error()
	}
	writeJSON(w, http.StatusCreated, resp)
}

type addRequest struct {
	Origin  string `json:"origin"`
	Number  string `json:"number"`
	Title   string `json:"title"`
	Confirm bool   `json:"confirm"`
}

// addItem resolves the song in the catalog, checks it, and only commits a recent repeat when the request
// already carries confirm=true. Otherwise the conflict goes back to the client, who repeats the call.
func (a *API) addItem(w http.ResponseWriter, r *http.Request) {
	var req addRequest
	if !decode(w, r, &req) {
		return
	}

	origin, err := models.ParseOrigin(req.Origin)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	ref := strings.TrimSpace(req.Number)
	if ref == "" {
		ref = strings.TrimSpace(req.Title)
	}
	if ref == "" {
		writeError(w, http.StatusBadRequest, "number or title is required")
		return
	}

	song, err := a.session.Find(origin, ref)
	if err != nil {
		a.fail(w, err)
		return
	}

	pending, err := a.session.Prepare(r.Context(), song)
	if err != nil {
		a.fail(w, err)
		return
	}

	if pending.Conflict != nil && !req.Confirm {
		c := pending.Conflict
		writeJSON(w, http.StatusConflict, conflictResponse{
			Error:   playlist.ErrRecencyDeclined.Error(),
			Message: c.Message(),
			EntryID: c.Entry.ID,
			Date:    models.FormatDate(c.Entry.Date),
			DaysAgo: c.DaysAgo,
			Song:    song.Display(),
		})
		return
	}

	confirm := func(models.Song, playlist.Conflict) bool { return req.Confirm }
	if err := a.session.Commit(pending, confirm); err != nil {
		a.fail(w, err)
		return
	}

	a.persist(r.Context())
	writeJSON(w, http.StatusCreated, a.playlist())
}

func (a *API) removeItem(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid index %q", r.PathValue("index")))
		return
	}

	if _, err := a.session.Remove(index); err != nil {
		a.fail(w, err)
		return
	}

	a.persist(r.Context())
	writeJSON(w, http.StatusOK, a.playlist())
}

type moveRequest struct {
	From int `json:"from"`
	To   int `json:"to"`
}

func (a *API) move(w http.ResponseWriter, r *http.Request) {
	var req moveRequest
	if !decode(w, r, &req) {
		return
	}

	if err := a.session.Move(req.From, req.To); err != nil {
		a.fail(w, err)
		return
	}

	a.persist(r.Context())
	writeJSON(w, http.StatusOK, a.playlist())
}

func (a *API) clear(w http.ResponseWriter, r *http.Request) {
	a.session.Clear()
	a.persist(r.Context())
	writeJSON(w, http.StatusOK, a.playlist())
}

func (a *API) save(w http.ResponseWriter, r *http.Request) {
	id, err := a.session.Save(r.Context())
	if err != nil {
		a.fail(w, err)
		return
	}

	a.persist(r.Context())
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (a *API) export(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("format")
	if name == "" {
		name = string(formatter.FormatText)
	}
	format, err := formatter.ParseFormat(name)
	if err != nil {
		a.fail(w, err)
		return
	}

	snap := a.session.Snapshot()
	data, err := formatter.Export(snap, format)
	if err != nil {
		a.fail(w, err)
		return
	}

	w.Header().Set("Content-Type", contentType(format))
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", formatter.DefaultFilename(snap, format)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		a.logger.Warn("failed to write export", "error", err)
	}
}

func contentType(f formatter.Format) string {
	switch f {
	case formatter.FormatJSON:
		return "application/json"
	case formatter.FormatCSV:
		return "text/csv; charset=utf-8"
	case formatter.FormatMarkdown:
		return "text/markdown; charset=utf-8"
	default:
		return "text/plain; charset=utf-8"
	}
}

func (a *API) history(w http.ResponseWriter, r *http.Request) {
	entries, err := a.session.History(r.Context())
	if err != nil {
		a.fail(w, err)
		return
	}

	out := make([]entryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, newEntryResponse(e))
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *API) loadEntry(w http.ResponseWriter, r *http.Request) {
	if _, err := a.session.LoadEntry(r.Context(), r.PathValue("id")); err != nil {
		a.fail(w, err)
		return
	}

	a.persist(r.Context())
	writeJSON(w, http.StatusOK, a.playlist())
}

func (a *API) deleteEntry(w http.ResponseWriter, r *http.Request) {
	if err := a.session.DeleteEntry(r.Context(), r.PathValue("id")); err != nil {
		a.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// persist keeps the snapshot store in step with the live list. Failures are logged, not returned,
// since the list itself changed successfully.
func (a *API) persist(ctx context.Context) {
	if err := a.session.Persist(ctx); err != nil {
		a.logger.Warn("failed to persist list", "error", err)
	}
}

func (a *API) fail(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		a.logger.Error("request failed", "error", err)
	}
	writeError(w, status, err.Error())
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, playlist.ErrDuplicate),
		errors.Is(err, playlist.ErrRecencyDeclined),
		errors.Is(err, tasks.ErrStaleResult):
		return http.StatusConflict
	case errors.Is(err, playlist.ErrSongNotFound),
		errors.Is(err, tasks.ErrEntryNotFound),
		errors.Is(err, tasks.ErrNotInCatalog),
		errors.Is(err, repositories.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, playlist.ErrIndexOutOfRange),
		errors.Is(err, shared.ErrInvalidInput),
		errors.Is(err, shared.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, tasks.ErrEmptyList):
		return http.StatusUnprocessableEntity
	case errors.Is(err, tasks.ErrCatalogNotLoaded),
		errors.Is(err, shared.ErrServiceUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, shared.ErrFetchFailed),
		errors.Is(err, shared.ErrSaveFailed),
		errors.Is(err, shared.ErrDeleteFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// decode reads a JSON body into v. An empty body leaves v at its zero value.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
