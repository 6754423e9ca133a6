package models

import (
	"fmt"
	"time"
)

// DateLayout is the wire and storage format of service dates.
const DateLayout = "2006-01-02"

// DateOf returns the calendar day of t, in t's own location, as a UTC midnight.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// NewDate builds a service date.
func NewDate(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a "2006-01-02" service date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}

// FormatDate renders a service date as "2006-01-02".
func FormatDate(t time.Time) string {
	return DateOf(t).Format(DateLayout)
}

// DaysBetween returns the number of calendar days from a to b (positive when a is earlier).
func DaysBetween(a, b time.Time) int {
	return int(DateOf(b).Sub(DateOf(a)).Hours() / 24)
}

// HistoryEntry is an immutable saved list. Items never alias a live playlist.
type HistoryEntry struct {
	ID      string    `json:"id"`
	GroupID string    `json:"groupId"`
	Date    time.Time `json:"date"`
	Items   []Song    `json:"items"`
	SavedAt time.Time `json:"savedAt"`
}

// Contains reports whether any item of the entry has the given identity key.
func (e HistoryEntry) Contains(key SongKey) bool {
	for _, item := range e.Items {
		if IdentityKey(item) == key {
			return true
		}
	}
	return false
}

// PlaylistSnapshot is a read-only copy of a working list.
type PlaylistSnapshot struct {
	GroupID   string    `json:"groupId"`
	Date      time.Time `json:"date"`
	Items     []Song    `json:"items"`
	Dirty     bool      `json:"dirty"`
	UpdatedAt time.Time `json:"updatedAt"`
}
