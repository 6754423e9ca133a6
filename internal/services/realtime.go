package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/setlist/internal/models"
	"github.com/desertthunder/setlist/internal/shared"
	"golang.org/x/time/rate"
)

// RealtimeStore keeps saved lists in a hosted realtime database through its REST interface.
// It implements tasks.HistoryStore.
//
// Entries live under /history/<id>. Pushing to /history.json creates an entry and answers with its
// generated key; group listings use the orderBy/equalTo query on "groupId".
type RealtimeStore struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *log.Logger
	now        func() time.Time
}

// NewRealtimeStore creates a store against baseURL. A nil client gets cfg's timeout.
func NewRealtimeStore(cfg shared.RealtimeConfig, client *http.Client, logger *log.Logger) (*RealtimeStore, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("%w: realtime.url is required", shared.ErrMissingConfig)
	}
	if _, err := url.Parse(cfg.URL); err != nil {
		return nil, fmt.Errorf("%w: realtime.url: %v", shared.ErrInvalidConfig, err)
	}

	if client == nil {
		timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}

	limit := rate.Limit(cfg.RateLimit)
	if cfg.RateLimit <= 0 {
		limit = rate.Inf
	}

	if logger == nil {
		logger = log.Default()
	}

	return &RealtimeStore{
		baseURL:    strings.TrimRight(cfg.URL, "/"),
		httpClient: client,
		limiter:    rate.NewLimiter(limit, 1),
		logger:     logger,
		now:        time.Now,
	}, nil
}

// realtimeEntry is the stored JSON shape of a history entry.
type realtimeEntry struct {
	GroupID string        `json:"groupId"`
	Date    string        `json:"date"`
	Items   []models.Song `json:"items"`
	SavedAt time.Time     `json:"savedAt"`
}

// Save pushes a new entry and returns the key the database generated for it.
func (s *RealtimeStore) Save(ctx context.Context, groupID string, date time.Time, items []models.Song) (string, error) {
	body, err := json.Marshal(realtimeEntry{
		GroupID: groupID,
		Date:    models.FormatDate(date),
		Items:   models.CloneSongs(items),
		SavedAt: s.now().UTC(),
	})
	if err != nil {
		return "", fmt.Errorf("%w: failed to encode entry: %w", shared.ErrSaveFailed, err)
	}

	data, err := s.do(ctx, http.MethodPost, "/history.json", nil, body)
	if err != nil {
		return "", fmt.Errorf("%w: %w", shared.ErrSaveFailed, err)
	}

	var pushed struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(data, &pushed); err != nil || pushed.Name == "" {
		return "", fmt.Errorf("%w: unexpected push response %q", shared.ErrSaveFailed, string(data))
	}

	s.logger.Debug("pushed history entry", "id", pushed.Name, "group", groupID)
	return pushed.Name, nil
}

// FetchHistory returns every entry of groupID, oldest save first.
func (s *RealtimeStore) FetchHistory(ctx context.Context, groupID string) ([]models.HistoryEntry, error) {
	query := url.Values{}
	query.Set("orderBy", strconv.Quote("groupId"))
	query.Set("equalTo", strconv.Quote(groupID))

	data, err := s.do(ctx, http.MethodGet, "/history.json", query, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrFetchFailed, err)
	}

	// an empty location reads as null
	var raw map[string]realtimeEntry
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: failed to decode history: %w", shared.ErrFetchFailed, err)
	}

	entries := make([]models.HistoryEntry, 0, len(raw))
	for id, e := range raw {
		if e.GroupID != groupID {
			continue
		}
		date, err := models.ParseDate(e.Date)
		if err != nil {
			s.logger.Warn("skipping history entry with bad date", "id", id, "date", e.Date)
			continue
		}
		entries = append(entries, models.HistoryEntry{
			ID:      id,
			GroupID: e.GroupID,
			Date:    date,
			Items:   models.CloneSongs(e.Items),
			SavedAt: e.SavedAt,
		})
	}

	sortBySavedAt(entries)
	return entries, nil
}

// Delete removes the entry with id. Deleting a missing key succeeds, as the database treats it.
func (s *RealtimeStore) Delete(ctx context.Context, id string) error {
	if id == "" || strings.ContainsAny(id, "/.#$[]") {
		return fmt.Errorf("%w: invalid entry id %q", shared.ErrDeleteFailed, id)
	}

	if _, err := s.do(ctx, http.MethodDelete, "/history/"+id+".json", nil, nil); err != nil {
		return fmt.Errorf("%w: %w", shared.ErrDeleteFailed, err)
	}
	return nil
}

// do performs one throttled request and returns the body of a 2xx response.
func (s *RealtimeStore) do(ctx context.Context, method, path string, query url.Values, body []byte) ([]byte, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	fullURL := s.baseURL + path
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(data)))
	}

	return data, nil
}
