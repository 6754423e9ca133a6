package playlist

import (
	"fmt"
	"time"

	"github.com/desertthunder/setlist/internal/models"
)

// Guard holds the recency window used by [Playlist.Add].
type Guard struct {
	WindowDays int
}

// Conflict describes the most recent saved list that already used a song.
type Conflict struct {
	Entry   models.HistoryEntry
	DaysAgo int
}

// Message renders the conflict for a confirmation prompt.
func (c Conflict) Message() string {
	unit := "days"
	if c.DaysAgo == 1 {
		unit = "day"
	}
	return fmt.Sprintf("sung %d %s ago on %s", c.DaysAgo, unit, c.Entry.Date.Format("02/01/2006"))
}

// Evaluate is [Evaluate] with the guard's window.
func (g Guard) Evaluate(song models.Song, groupID string, target time.Time, history []models.HistoryEntry) (Conflict, bool) {
	return Evaluate(song, groupID, target, history, g.WindowDays)
}

// Evaluate reports whether song appears in a history entry of groupID dated within windowDays before
// target. Entries on target itself or later are ignored, as are entries of other groups.
//
// On a match the closest entry wins; entries at the same distance are ordered by the later SavedAt.
// A non-positive window never conflicts. Evaluate does not modify history.
func Evaluate(song models.Song, groupID string, target time.Time, history []models.HistoryEntry, windowDays int) (Conflict, bool) {
	if windowDays <= 0 {
		return Conflict{}, false
	}

	key := song.Key()
	var (
		best  Conflict
		found bool
	)

	for _, entry := range history {
		if entry.GroupID != groupID {
			continue
		}

		days := models.DaysBetween(entry.Date, target)
		if days < 1 || days > windowDays {
			continue
		}

		if !entry.Contains(key) {
			continue
		}

		if !found || days < best.DaysAgo || (days == best.DaysAgo && entry.SavedAt.After(best.Entry.SavedAt)) {
			best = Conflict{Entry: entry, DaysAgo: days}
			found = true
		}
	}

	return best, found
}
