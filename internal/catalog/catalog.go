// package catalog loads the hymnal collections and searches them.
//
// The catalog is loaded once and treated as immutable afterwards. Each collection is a JSON array
// whose first element is a header record; the rest are songs keyed by "numero", "titulo" and "letra"
// (the English "number", "title" and "lyrics" are accepted as well).
package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/setlist/internal/models"
	"github.com/desertthunder/setlist/internal/shared"
)

// Source produces the full song list.
type Source interface {
	LoadCatalog(ctx context.Context) ([]models.Song, error)
}

// Collection is one JSON file (path or http(s) URL) tagged with the origin of its songs.
type Collection struct {
	Origin   models.Origin
	Location string
}

// Loader reads and normalizes a set of collections. It implements [Source].
type Loader struct {
	collections []Collection
	httpClient  *http.Client
}

// NewLoader creates a Loader. A nil client gets a 30 second timeout.
func NewLoader(client *http.Client, collections ...Collection) *Loader {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Loader{collections: collections, httpClient: client}
}

// NewLoaderFromConfig builds the three standard collections from cfg, skipping empty locations.
func NewLoaderFromConfig(cfg shared.CatalogConfig, client *http.Client) *Loader {
	var cols []Collection
	for _, c := range []Collection{
		{Origin: models.OriginCongregation, Location: cfg.Congregation},
		{Origin: models.OriginChildren, Location: cfg.Children},
		{Origin: models.OriginLoose, Location: cfg.Loose},
	} {
		if c.Location != "" {
			cols = append(cols, c)
		}
	}
	return NewLoader(client, cols...)
}

// LoadCatalog reads every collection in order. Any failure aborts the load with [shared.ErrLoadFailed].
func (l *Loader) LoadCatalog(ctx context.Context) ([]models.Song, error) {
	if len(l.collections) == 0 {
		return nil, fmt.Errorf("%w: no collections configured", shared.ErrLoadFailed)
	}

	var songs []models.Song
	for _, col := range l.collections {
		data, err := l.read(ctx, col.Location)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", shared.ErrLoadFailed, col.Location, err)
		}

		parsed, err := Parse(data, col.Origin)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", shared.ErrLoadFailed, col.Location, err)
		}
		songs = append(songs, parsed...)
	}

	return songs, nil
}

func (l *Loader) read(ctx context.Context, location string) ([]byte, error) {
	if !strings.HasPrefix(location, "http://") && !strings.HasPrefix(location, "https://") {
		return os.ReadFile(location)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}

// record is the on-disk shape of a song. Number may be a JSON string or number.
type record struct {
	Numero json.RawMessage `json:"numero"`
	Number json.RawMessage `json:"number"`
	Titulo string          `json:"titulo"`
	Title  string          `json:"title"`
	Letra  string          `json:"letra"`
	Lyrics string          `json:"lyrics"`
}

// Parse decodes one collection. The first element is a header and is dropped; records without a title,
// and records of numbered origins without a number, are filtered out.
func Parse(data []byte, origin models.Origin) ([]models.Song, error) {
	var records []record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to parse collection: %w", err)
	}

	if len(records) == 0 {
		return []models.Song{}, nil
	}

	songs := make([]models.Song, 0, len(records)-1)
	for _, r := range records[1:] {
		number, err := normalizeNumber(firstNonEmpty(r.Numero, r.Number))
		if err != nil {
			return nil, err
		}

		title := strings.TrimSpace(r.Titulo)
		if title == "" {
			title = strings.TrimSpace(r.Title)
		}

		lyrics := r.Letra
		if lyrics == "" {
			lyrics = r.Lyrics
		}

		if title == "" || (origin.Numbered() && number == "") {
			continue
		}

		songs = append(songs, models.Song{Title: title, Number: number, Origin: origin, Lyrics: lyrics})
	}

	return songs, nil
}

func firstNonEmpty(values ...json.RawMessage) json.RawMessage {
	for _, v := range values {
		if len(bytes.TrimSpace(v)) > 0 && string(v) != "null" {
			return v
		}
	}
	return nil
}

// normalizeNumber turns a JSON string or number into a trimmed string. Absent values become "".
func normalizeNumber(raw json.RawMessage) (string, error) {
	if raw == nil {
		return "", nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s), nil
	}

	var n json.Number
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&n); err != nil {
		return "", fmt.Errorf("invalid song number %s", string(raw))
	}

	if i, err := n.Int64(); err == nil {
		return strconv.FormatInt(i, 10), nil
	}
	return n.String(), nil
}

// Merge appends extra songs (custom songs of a group) to the catalog, skipping any whose identity key
// is already present. The inputs are not modified.
func Merge(songs []models.Song, extra []models.Song) []models.Song {
	out := models.CloneSongs(songs)
	seen := make(map[models.SongKey]struct{}, len(out)+len(extra))
	for _, s := range out {
		seen[s.Key()] = struct{}{}
	}
	for _, s := range extra {
		if _, ok := seen[s.Key()]; ok {
			continue
		}
		seen[s.Key()] = struct{}{}
		out = append(out, s)
	}
	return out
}
