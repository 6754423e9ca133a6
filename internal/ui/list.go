package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/setlist/internal/models"
)

var (
	_ list.Item = historyItem{}
)

// historyItem wraps [models.HistoryEntry] to implement [list.Item].
type historyItem struct {
	entry models.HistoryEntry
}

func (i historyItem) FilterValue() string { return models.FormatDate(i.entry.Date) }
func (i historyItem) Title() string       { return i.entry.Date.Format("Mon 02/01/2006") }
func (i historyItem) Description() string {
	desc := fmt.Sprintf("%d songs", len(i.entry.Items))
	if len(i.entry.Items) == 1 {
		desc = "1 song"
	}
	if len(i.entry.Items) > 0 {
		titles := make([]string, 0, 3)
		for _, s := range i.entry.Items[:min(3, len(i.entry.Items))] {
			titles = append(titles, s.Title)
		}
		desc = fmt.Sprintf("%s • %s", desc, strings.Join(titles, ", "))
		if len(i.entry.Items) > 3 {
			desc += ", …"
		}
	}
	return desc
}

func historyItems(entries []models.HistoryEntry) []list.Item {
	items := make([]list.Item, len(entries))
	for i, e := range entries {
		items[i] = historyItem{entry: e}
	}
	return items
}
