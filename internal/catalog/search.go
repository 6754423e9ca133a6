package catalog

import (
	"strings"

	"github.com/desertthunder/setlist/internal/models"
	"github.com/desertthunder/setlist/internal/shared"
	"github.com/sahilm/fuzzy"
)

// DefaultLimit caps search results; longer result sets tell the user to refine the query.
const DefaultLimit = 50

// Result is a page of search matches plus the total number of matches.
type Result struct {
	Songs []models.Song
	Total int
}

// Truncated reports whether more songs matched than were returned.
func (r Result) Truncated() bool {
	return r.Total > len(r.Songs)
}

// Search returns songs whose number or title contains query, ignoring case and accents, in catalog
// order. A blank query matches nothing. A non-positive limit means [DefaultLimit].
func Search(songs []models.Song, query string, limit int) Result {
	q := shared.FoldText(query)
	if q == "" {
		return Result{Songs: []models.Song{}}
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	res := Result{Songs: []models.Song{}}
	for _, s := range songs {
		if !strings.Contains(shared.FoldText(s.Number), q) && !strings.Contains(shared.FoldText(s.Title), q) {
			continue
		}
		res.Total++
		if len(res.Songs) < limit {
			res.Songs = append(res.Songs, s)
		}
	}
	return res
}

// titles adapts a song slice to [fuzzy.Source].
type titles []models.Song

func (t titles) String(i int) string { return shared.FoldText(t[i].Title) }
func (t titles) Len() int            { return len(t) }

// FuzzySearch ranks songs by how well their titles match query, best first.
func FuzzySearch(songs []models.Song, query string, limit int) Result {
	q := shared.FoldText(query)
	if q == "" {
		return Result{Songs: []models.Song{}}
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	matches := fuzzy.FindFrom(q, titles(songs))
	res := Result{Songs: make([]models.Song, 0, min(limit, len(matches))), Total: len(matches)}
	for _, m := range matches {
		if len(res.Songs) == limit {
			break
		}
		res.Songs = append(res.Songs, songs[m.Index])
	}
	return res
}

// Find returns the catalog song with the given origin and number, or title for unnumbered songs.
func Find(songs []models.Song, origin models.Origin, ref string) (models.Song, bool) {
	key := models.IdentityKey(models.Song{Origin: origin, Number: ref, Title: ref})
	byTitle := models.IdentityKey(models.Song{Origin: origin, Title: ref})
	for _, s := range songs {
		if k := s.Key(); k == key || k == byTitle {
			return s, true
		}
	}
	return models.Song{}, false
}
